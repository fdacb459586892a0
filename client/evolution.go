package client

import "context"

// EvolutionService reports and advances the tenant's evolution phase.
type EvolutionService struct {
	c *Client
}

// Snapshot returns the tenant's current evolution state.
func (s *EvolutionService) Snapshot(ctx context.Context) (*EvolutionSnapshot, error) {
	var snapshot EvolutionSnapshot
	if err := s.c.get(ctx, "/api/v1/evolution", nil, &snapshot); err != nil {
		return nil, err
	}
	return &snapshot, nil
}

// Evaluate checks whether the tenant should advance to the next phase.
func (s *EvolutionService) Evaluate(ctx context.Context) (*EvolutionEvaluation, error) {
	var result EvolutionEvaluation
	if err := s.c.post(ctx, "/api/v1/evolution/evaluate", nil, &result); err != nil {
		return nil, err
	}
	return &result, nil
}
