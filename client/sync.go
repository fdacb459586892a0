package client

import (
	"context"
	"net/url"
	"strconv"
)

// SyncService drives and inspects the bidirectional synchronizer.
type SyncService struct {
	c *Client
}

// RunForward triggers a forward synchronization pass and returns its summary.
func (s *SyncService) RunForward(ctx context.Context) (*SyncSummary, error) {
	var summary SyncSummary
	if err := s.c.post(ctx, "/api/v1/sync/forward", nil, &summary); err != nil {
		return nil, err
	}
	return &summary, nil
}

// Checkpoints returns the synchronizer's per-table cursors.
func (s *SyncService) Checkpoints(ctx context.Context) ([]SyncCheckpoint, error) {
	var resp struct {
		Checkpoints []SyncCheckpoint `json:"checkpoints"`
	}
	if err := s.c.get(ctx, "/api/v1/sync/checkpoints", nil, &resp); err != nil {
		return nil, err
	}
	return resp.Checkpoints, nil
}

// Quarantined returns rows the synchronizer could not reconcile automatically.
func (s *SyncService) Quarantined(ctx context.Context, limit, offset int) ([]SyncQuarantineEntry, error) {
	params := url.Values{}
	if limit > 0 {
		params.Set("limit", strconv.Itoa(limit))
	}
	if offset > 0 {
		params.Set("offset", strconv.Itoa(offset))
	}
	var resp struct {
		Entries []SyncQuarantineEntry `json:"entries"`
	}
	if err := s.c.get(ctx, "/api/v1/sync/quarantine", params, &resp); err != nil {
		return nil, err
	}
	return resp.Entries, nil
}
