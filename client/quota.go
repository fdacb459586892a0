package client

import "context"

// QuotaService reports a tenant's rate limit and quota consumption.
type QuotaService struct {
	c *Client
}

// Usage returns the tenant's current usage across all tracked windows.
func (s *QuotaService) Usage(ctx context.Context) (*QuotaUsage, error) {
	var usage QuotaUsage
	if err := s.c.get(ctx, "/api/v1/quota", nil, &usage); err != nil {
		return nil, err
	}
	return &usage, nil
}
