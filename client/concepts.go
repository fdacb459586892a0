package client

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
)

// ConceptService handles concept CRUD operations.
type ConceptService struct {
	c *Client
}

// conceptListResponse wraps the paginated concept list response.
type conceptListResponse struct {
	Concepts []Concept `json:"concepts"`
	HasMore  bool      `json:"has_more"`
}

// List returns concepts with optional filtering and pagination.
func (s *ConceptService) List(ctx context.Context, opts *ConceptListOptions) ([]Concept, bool, error) {
	params := url.Values{}
	if opts != nil {
		if opts.Type != "" {
			params.Set("type", opts.Type)
		}
		if opts.MinStrength > 0 {
			params.Set("min_strength", strconv.FormatFloat(opts.MinStrength, 'f', -1, 64))
		}
		if opts.Limit > 0 {
			params.Set("limit", strconv.Itoa(opts.Limit))
		}
		if opts.Offset > 0 {
			params.Set("offset", strconv.Itoa(opts.Offset))
		}
	}
	var resp conceptListResponse
	if err := s.c.get(ctx, "/api/v1/concepts", params, &resp); err != nil {
		return nil, false, err
	}
	return resp.Concepts, resp.HasMore, nil
}

// Get returns a single concept by ID.
func (s *ConceptService) Get(ctx context.Context, id string) (*Concept, error) {
	var concept Concept
	if err := s.c.get(ctx, "/api/v1/concepts/"+url.PathEscape(id), nil, &concept); err != nil {
		return nil, err
	}
	return &concept, nil
}

// Create creates a new concept.
func (s *ConceptService) Create(ctx context.Context, req *CreateConceptRequest) (*Concept, error) {
	var concept Concept
	if err := s.c.post(ctx, "/api/v1/concepts", req, &concept); err != nil {
		return nil, err
	}
	return &concept, nil
}

// Update updates an existing concept by ID.
func (s *ConceptService) Update(ctx context.Context, id string, req *UpdateConceptRequest) (*Concept, error) {
	var concept Concept
	if err := s.c.put(ctx, "/api/v1/concepts/"+url.PathEscape(id), req, &concept); err != nil {
		return nil, err
	}
	return &concept, nil
}

// PatchProperties partially updates a concept's properties.
func (s *ConceptService) PatchProperties(ctx context.Context, id string, req *PatchPropertiesRequest) (*Concept, error) {
	var concept Concept
	path := fmt.Sprintf("/api/v1/concepts/%s/properties", url.PathEscape(id))
	if err := s.c.do(ctx, "PATCH", path, req, &concept); err != nil {
		return nil, err
	}
	return &concept, nil
}

// Merge folds the concept named by loserID into winnerID, moving its
// relations and deleting it. The winner is always taken
// from winnerID, not from any value the caller sets on the request.
func (s *ConceptService) Merge(ctx context.Context, winnerID, loserID string) (*MergeConceptsResult, error) {
	req := &MergeConceptsRequest{LoserID: loserID, WinnerID: winnerID}
	var result MergeConceptsResult
	path := fmt.Sprintf("/api/v1/concepts/%s/merge", url.PathEscape(winnerID))
	if err := s.c.post(ctx, path, req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Delete removes a concept by ID.
func (s *ConceptService) Delete(ctx context.Context, id string) error {
	return s.c.del(ctx, "/api/v1/concepts/"+url.PathEscape(id), nil, nil)
}

// History returns property change history for a concept.
func (s *ConceptService) History(ctx context.Context, id string, property string, limit, offset int) ([]PropertyChange, bool, error) {
	params := url.Values{}
	if property != "" {
		params.Set("property", property)
	}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}
	var resp struct {
		Changes []PropertyChange `json:"changes"`
		HasMore bool             `json:"has_more"`
	}
	if err := s.c.get(ctx, fmt.Sprintf("/api/v1/concepts/%s/history", url.PathEscape(id)), params, &resp); err != nil {
		return nil, false, err
	}
	return resp.Changes, resp.HasMore, nil
}
