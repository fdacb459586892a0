package quota

import (
	"sync"
	"time"

	"github.com/persistorai/persistor/internal/models"
)

// tenantBuckets holds one tenant's per-minute and per-second token buckets
// plus its configured limits. The monthly window has no in-process bucket
// of its own — it is durable and serialized per tenant by monthlyMu.
type tenantBuckets struct {
	quota     models.TenantQuota
	qpm       *bucket
	apiqps    *bucket
	monthlyMu sync.Mutex
}

// bucket is a token bucket refilled continuously (spec §4.6: "token-bucket
// semantics, refill continuously"), grounded on the teacher's
// middleware.RateLimiter bucket shape, generalized from per-IP to
// per-(tenant,resource) and guarded by its own mutex rather than one
// limiter-wide lock.
type bucket struct {
	mu         sync.Mutex
	tokens     float64
	ratePerSec float64
	burst      float64
	lastFill   time.Time
}

func newBucket(ratePerSec float64, burst int) *bucket {
	return &bucket{
		tokens:     float64(burst),
		ratePerSec: ratePerSec,
		burst:      float64(burst),
		lastFill:   time.Now(),
	}
}

// allow consumes one token if available, refilling first. It returns
// whether the call was admitted and the remaining token count.
func (b *bucket) allow() (bool, float64) {
	b.mu.Lock()
	defer b.mu.Unlock()

	now := time.Now()
	elapsed := now.Sub(b.lastFill).Seconds()
	b.tokens += elapsed * b.ratePerSec

	if b.tokens > b.burst {
		b.tokens = b.burst
	}

	b.lastFill = now

	if b.tokens < 1 {
		return false, b.tokens
	}

	b.tokens--

	return true, b.tokens
}

func (b *bucket) remaining() float64 {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.tokens
}

func newTenantBuckets(quota models.TenantQuota) *tenantBuckets {
	return &tenantBuckets{
		quota:  quota,
		qpm:    newBucket(float64(quota.QueriesPerMinute)/60, quota.QueriesPerMinute),
		apiqps: newBucket(float64(quota.APICallsPerSecond), quota.APICallsPerSecond),
	}
}

func (b *tenantBuckets) admitQPM() *models.AdmitDecision {
	ok, remaining := b.qpm.allow()

	decision := &models.AdmitDecision{Allowed: ok, Resource: models.ResourceQueriesPerMinute, Remaining: remaining}
	if !ok {
		decision.RetryAfter = time.Second
	}

	return decision
}

func (b *tenantBuckets) admitAPIQPS() *models.AdmitDecision {
	ok, remaining := b.apiqps.allow()

	decision := &models.AdmitDecision{Allowed: ok, Resource: models.ResourceAPICallsPerSec, Remaining: remaining}
	if !ok {
		decision.RetryAfter = 100 * time.Millisecond
	}

	return decision
}

func (b *tenantBuckets) usage() (qpmUsed, apiqpsUsed float64) {
	qpmUsed = float64(b.quota.QueriesPerMinute) - b.qpm.remaining()
	apiqpsUsed = float64(b.quota.APICallsPerSecond) - b.apiqps.remaining()

	return qpmUsed, apiqpsUsed
}
