package models

import (
	"errors"
	"fmt"
)

// Sentinel errors for validation.
var (
	ErrMissingID       = errors.New("id is required")
	ErrMissingType     = errors.New("type is required")
	ErrMissingLabel    = errors.New("label is required")
	ErrMissingSource   = errors.New("source is required")
	ErrMissingTarget   = errors.New("target is required")
	ErrMissingRelation = errors.New("relation is required")
	ErrInvalidRelation = errors.New("relation type is not a recognized kind, or source equals target")
	ErrEmptyQuery      = errors.New("query must not be empty")
)

// Sentinel errors for entity lookups.
var (
	ErrConceptNotFound  = errors.New("concept not found")
	ErrRelationNotFound = errors.New("relation not found")
)

// ErrDuplicateKey indicates a unique constraint violation (maps to HTTP 409 Conflict).
var ErrDuplicateKey = errors.New("duplicate key")

// Sentinel errors for the query router, synchronizer, evolution tracker and
// quota gate (spec §7 error taxonomy).
var (
	// ErrDimensionMismatch indicates an embedding vector's length does not
	// match the deployment's configured dimension D.
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")

	// ErrUnknownTenant indicates the caller's tenant ID has no corresponding row.
	ErrUnknownTenant = errors.New("unknown tenant")

	// ErrQuotaExceeded indicates the Quota Gate rejected the request (HTTP 429).
	ErrQuotaExceeded = errors.New("quota exceeded")

	// ErrVectorBackendError wraps an error from the vector store collaborator.
	ErrVectorBackendError = errors.New("vector backend error")

	// ErrMetadataBackendError wraps an error from the concept metadata store.
	ErrMetadataBackendError = errors.New("metadata backend error")

	// ErrRelationalBackendError wraps an error from the relational store collaborator.
	ErrRelationalBackendError = errors.New("relational backend error")

	// ErrEmbeddingUnavailable indicates the embedding provider's circuit is open
	// or the call otherwise failed; semantic/hybrid routing degrades to sql-only.
	ErrEmbeddingUnavailable = errors.New("embedding provider unavailable")

	// ErrLLMUnavailable indicates the optional LLM intent provider could not be
	// reached within its deadline; the router falls back to the deterministic classifier.
	ErrLLMUnavailable = errors.New("llm intent provider unavailable")

	// ErrDeadlineExceeded indicates an operation's context deadline elapsed
	// before a result (possibly partial) could be produced.
	ErrDeadlineExceeded = errors.New("deadline exceeded")

	// ErrSyncConflict indicates the Synchronizer detected divergent versions
	// of the same entity on both sides of a sync pass.
	ErrSyncConflict = errors.New("synchronization conflict")

	// ErrMergeConflict indicates a concept merge could not proceed because
	// its preconditions were violated (e.g. loser or winner not found).
	ErrMergeConflict = errors.New("merge conflict")

	// ErrUpstreamUnavailable indicates a non-embedding external collaborator
	// (relational engine, vector engine) is unreachable.
	ErrUpstreamUnavailable = errors.New("upstream collaborator unavailable")

	// ErrInternal is a catch-all for unexpected internal failures that must
	// not leak implementation detail to the caller.
	ErrInternal = errors.New("internal error")
)

// ErrFieldTooLong returns an error indicating a field exceeds its maximum length.
func ErrFieldTooLong(field string, maxLen int) error {
	return fmt.Errorf("%s exceeds maximum length of %d", field, maxLen)
}
