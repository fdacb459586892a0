package sync

import (
	"context"

	"github.com/persistorai/persistor/internal/models"
)

// checkpointLister extends checkpointStore with the per-tenant listing the
// sync-status API needs. Satisfied by *internal/store.SyncCheckpointStore.
type checkpointLister interface {
	checkpointStore
	ListForTenant(ctx context.Context, tenantID string) ([]models.SyncCheckpoint, error)
}

// Checkpoints returns every checkpoint recorded for tenantID, satisfying
// domain.SyncService.
func (s *Synchronizer) Checkpoints(ctx context.Context, tenantID string) ([]models.SyncCheckpoint, error) {
	lister, ok := s.checkpoints.(checkpointLister)
	if !ok {
		return nil, nil
	}

	return lister.ListForTenant(ctx, tenantID)
}
