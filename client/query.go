package client

import "context"

// QueryService executes and explains queries through the Query Router.
type QueryService struct {
	c *Client
}

// Execute routes and runs a query, returning the fused result set.
func (s *QueryService) Execute(ctx context.Context, req *QueryRequest) (*QueryResult, error) {
	var result QueryResult
	if err := s.c.post(ctx, "/api/v1/query", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}

// Explain reports how the router would classify a query without running it.
func (s *QueryService) Explain(ctx context.Context, req *QueryRequest) (*ExplainResult, error) {
	var result ExplainResult
	if err := s.c.post(ctx, "/api/v1/query/explain", req, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
