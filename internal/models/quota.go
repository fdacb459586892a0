package models

import "time"

// QuotaResource names a rate-limited or volume-limited resource class.
type QuotaResource string

// Recognized quota resources.
const (
	ResourceQueriesPerMinute QuotaResource = "queries_per_minute"
	ResourceAPICallsPerSec   QuotaResource = "api_calls_per_second"
	ResourceMonthlyQueries   QuotaResource = "monthly_queries"
)

// TenantQuota holds the configured limits for one tenant, loaded from the
// tenant_quotas table and overridable per tenant.
type TenantQuota struct {
	TenantID            string `json:"tenant_id"`
	QueriesPerMinute    int    `json:"queries_per_minute"`
	APICallsPerSecond   int    `json:"api_calls_per_second"`
	MonthlyQueryLimit   int64  `json:"monthly_query_limit"`
}

// AdmitDecision is the result of a single admission check against the Quota Gate.
type AdmitDecision struct {
	Allowed    bool          `json:"allowed"`
	Resource   QuotaResource `json:"resource"`
	Remaining  float64       `json:"remaining"`
	RetryAfter time.Duration `json:"retry_after,omitempty"`
}

// UsageSnapshot reports a tenant's current consumption across all tracked windows.
type UsageSnapshot struct {
	TenantID         string    `json:"tenant_id"`
	QPMUsed          float64   `json:"qpm_used"`
	QPMLimit         int       `json:"qpm_limit"`
	APIQPSUsed       float64   `json:"api_qps_used"`
	APIQPSLimit      int       `json:"api_qps_limit"`
	MonthlyUsed      int64     `json:"monthly_used"`
	MonthlyLimit     int64     `json:"monthly_limit"`
	MonthlyResetsAt  time.Time `json:"monthly_resets_at"`
}
