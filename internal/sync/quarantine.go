package sync

import (
	"context"

	"github.com/persistorai/persistor/internal/models"
)

// quarantineLister extends quarantineStore with the paginated listing the
// sync-status API needs. Satisfied by *internal/store.SyncQuarantineStore.
type quarantineLister interface {
	quarantineStore
	List(ctx context.Context, tenantID string, limit, offset int) ([]models.SyncQuarantineEntry, bool, error)
}

// Quarantined returns staged conflicts for tenantID, satisfying
// domain.SyncService. The hasMore flag the store reports is dropped here;
// callers paginate by re-requesting with an advanced offset.
func (s *Synchronizer) Quarantined(ctx context.Context, tenantID string, limit, offset int) ([]models.SyncQuarantineEntry, error) {
	lister, ok := s.quarantine.(quarantineLister)
	if !ok {
		return nil, nil
	}

	entries, _, err := lister.List(ctx, tenantID, limit, offset)

	return entries, err
}
