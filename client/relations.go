package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// RelationService handles relation CRUD operations.
type RelationService struct {
	c *Client
}

// relationListResponse wraps the paginated relation list response.
type relationListResponse struct {
	Relations []Relation `json:"relations"`
	HasMore   bool       `json:"has_more"`
}

// List returns relations with optional filtering and pagination.
func (s *RelationService) List(ctx context.Context, opts *RelationListOptions) ([]Relation, bool, error) {
	params := url.Values{}
	if opts != nil {
		if opts.Source != "" {
			params.Set("source", opts.Source)
		}
		if opts.Target != "" {
			params.Set("target", opts.Target)
		}
		if opts.Type != "" {
			params.Set("type", opts.Type)
		}
		if opts.Limit > 0 {
			params.Set("limit", strconv.Itoa(opts.Limit))
		}
		if opts.Offset > 0 {
			params.Set("offset", strconv.Itoa(opts.Offset))
		}
	}
	var resp relationListResponse
	if err := s.c.get(ctx, "/api/v1/relations", params, &resp); err != nil {
		return nil, false, err
	}
	return resp.Relations, resp.HasMore, nil
}

// Create creates a new relation.
func (s *RelationService) Create(ctx context.Context, req *CreateRelationRequest) (*Relation, error) {
	var relation Relation
	if err := s.c.post(ctx, "/api/v1/relations", req, &relation); err != nil {
		return nil, err
	}
	return &relation, nil
}

// Update updates an existing relation by source/target/type.
func (s *RelationService) Update(ctx context.Context, source, target, relType string, req *UpdateRelationRequest) (*Relation, error) {
	path := fmt.Sprintf("/api/v1/relations/%s/%s/%s",
		url.PathEscape(source), url.PathEscape(target), url.PathEscape(relType))
	var relation Relation
	if err := s.c.put(ctx, path, req, &relation); err != nil {
		return nil, err
	}
	return &relation, nil
}

// PatchProperties partially updates a relation's properties.
func (s *RelationService) PatchProperties(ctx context.Context, source, target, relType string, req *PatchPropertiesRequest) (*Relation, error) {
	path := fmt.Sprintf("/api/v1/relations/%s/%s/%s/properties",
		url.PathEscape(source), url.PathEscape(target), url.PathEscape(relType))
	var relation Relation
	if err := s.c.do(ctx, "PATCH", path, req, &relation); err != nil {
		return nil, err
	}
	return &relation, nil
}

// Delete removes a relation by source/target/type.
func (s *RelationService) Delete(ctx context.Context, source, target, relType string) error {
	path := fmt.Sprintf("/api/v1/relations/%s/%s/%s",
		url.PathEscape(source), url.PathEscape(target), url.PathEscape(relType))
	return s.c.del(ctx, path, nil, nil)
}
