package client

import (
	"context"
	"net/url"
	"strconv"
)

// SearchService handles search operations.
type SearchService struct {
	c *Client
}

// searchConceptResponse wraps search results returning plain concepts.
type searchConceptResponse struct {
	Concepts []Concept `json:"concepts"`
	Total    int       `json:"total"`
}

// searchScoredResponse wraps semantic search results with similarity scores.
type searchScoredResponse struct {
	Concepts []ScoredConcept `json:"concepts"`
	Total    int             `json:"total"`
}

// FullText performs a full-text search.
func (s *SearchService) FullText(ctx context.Context, query string, opts *SearchOptions) ([]Concept, error) {
	params := url.Values{"q": {query}}
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
	}
	var resp searchConceptResponse
	if err := s.c.get(ctx, "/api/v1/search", params, &resp); err != nil {
		return nil, err
	}
	return resp.Concepts, nil
}

// Semantic performs a semantic (vector) search.
func (s *SearchService) Semantic(ctx context.Context, query string, limit int) ([]ScoredConcept, error) {
	params := url.Values{"q": {query}}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	var resp searchScoredResponse
	if err := s.c.get(ctx, "/api/v1/search/semantic", params, &resp); err != nil {
		return nil, err
	}
	return resp.Concepts, nil
}

// Hybrid performs a hybrid (full-text + vector RRF fusion) search, falling
// back to full-text on embedding failure.
func (s *SearchService) Hybrid(ctx context.Context, query string, opts *SearchOptions) ([]Concept, error) {
	params := url.Values{"q": {query}}
	if opts != nil && opts.Limit > 0 {
		params.Set("limit", strconv.Itoa(opts.Limit))
	}
	var resp searchConceptResponse
	if err := s.c.get(ctx, "/api/v1/search/hybrid", params, &resp); err != nil {
		return nil, err
	}
	return resp.Concepts, nil
}
