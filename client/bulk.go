package client

import "context"

// BulkService handles batch operations.
type BulkService struct {
	c *Client
}

// bulkResponse wraps the response from bulk upsert operations: just a count,
// since the server does not echo back the upserted rows.
type bulkResponse struct {
	Upserted int `json:"upserted"`
}

// UpsertConcepts creates or updates concepts in bulk (max 1000).
// Returns the number of concepts upserted.
func (s *BulkService) UpsertConcepts(ctx context.Context, concepts []CreateConceptRequest) (int, error) {
	var resp bulkResponse
	if err := s.c.post(ctx, "/api/v1/bulk/concepts", concepts, &resp); err != nil {
		return 0, err
	}
	return resp.Upserted, nil
}

// UpsertRelations creates or updates relations in bulk (max 1000).
// Returns the number of relations upserted.
func (s *BulkService) UpsertRelations(ctx context.Context, relations []CreateRelationRequest) (int, error) {
	var resp bulkResponse
	if err := s.c.post(ctx, "/api/v1/bulk/relations", relations, &resp); err != nil {
		return 0, err
	}
	return resp.Upserted, nil
}
