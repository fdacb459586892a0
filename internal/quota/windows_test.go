package quota

import (
	"testing"

	"github.com/persistorai/persistor/internal/models"
)

// TestNewTenantBucketsSubMinuteRateDoesNotFloorToZero guards against
// integer-division truncation of the per-minute refill rate: a limit below
// 60 (spec scenario S7 uses queries_per_minute=10) must still produce a
// nonzero tokens/sec rate, or the bucket never refills once its burst is
// spent.
func TestNewTenantBucketsSubMinuteRateDoesNotFloorToZero(t *testing.T) {
	tb := newTenantBuckets(models.TenantQuota{QueriesPerMinute: 10, APICallsPerSecond: 20})

	if tb.qpm.ratePerSec <= 0 {
		t.Fatalf("qpm.ratePerSec = %v, want > 0 for QueriesPerMinute=10", tb.qpm.ratePerSec)
	}

	want := float64(10) / 60
	if tb.qpm.ratePerSec != want {
		t.Errorf("qpm.ratePerSec = %v, want %v", tb.qpm.ratePerSec, want)
	}
}
