package client

import (
	"context"
	"net/url"
)

// StrengthService handles concept strength scoring operations.
type StrengthService struct {
	c *Client
}

// Boost increases a concept's strength score.
func (s *StrengthService) Boost(ctx context.Context, id string) (*Concept, error) {
	var concept Concept
	if err := s.c.post(ctx, "/api/v1/strength/boost/"+url.PathEscape(id), nil, &concept); err != nil {
		return nil, err
	}
	return &concept, nil
}

// Recalculate recalculates all strength scores. Returns the count of updated concepts.
func (s *StrengthService) Recalculate(ctx context.Context) (int, error) {
	var resp struct {
		Updated int `json:"updated"`
	}
	if err := s.c.post(ctx, "/api/v1/strength/recalc", nil, &resp); err != nil {
		return 0, err
	}
	return resp.Updated, nil
}
