// Package models defines the data types shared across the concept store,
// router, evolution tracker, quota gate, and synchronizer.
package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// Concept represents a node in the semantic concept graph: a labeled entity
// with an embedding vector and a set of properties.
type Concept struct {
	ID           string         `json:"id"`
	TenantID     uuid.UUID      `json:"-"`
	Type         string         `json:"type"`
	Label        string         `json:"label"`
	Properties   map[string]any `json:"properties"`
	Embedding    []float32      `json:"embedding,omitempty"`
	AccessCount  int            `json:"access_count"`
	LastAccessed *time.Time     `json:"last_accessed,omitempty"`
	Strength     float64        `json:"strength"`
	SupersededBy *string        `json:"superseded_by,omitempty"`
	UserBoosted  bool           `json:"user_boosted"`
	Source       string         `json:"source"` // "direct", "synchronized", "inferred"
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// ConceptSummary is a lightweight representation used for batch operations
// such as the embedding backfill worker and the synchronizer's forward pipeline.
type ConceptSummary struct {
	ID    string `json:"id"`
	Type  string `json:"type"`
	Label string `json:"label"`
}

// EmbeddingText returns the text to embed for this concept: "type:label".
func (c *ConceptSummary) EmbeddingText() string {
	return c.Type + ":" + c.Label
}

// ScoredConcept pairs a Concept with a similarity or fused rank score from search.
type ScoredConcept struct {
	Concept
	Score float64 `json:"score"`
}

// CreateConceptRequest is the payload for creating a new concept.
type CreateConceptRequest struct {
	ID         string         `json:"id"`
	Type       string         `json:"type"`
	Label      string         `json:"label"`
	Properties map[string]any `json:"properties,omitempty"`
	Source     string         `json:"source,omitempty"`
}

// Validate checks that required fields are present and within limits.
// If ID is empty, a UUID is auto-generated.
func (r *CreateConceptRequest) Validate() error {
	if r.ID == "" {
		r.ID = uuid.New().String()
	}

	if len(r.ID) > 255 {
		return ErrFieldTooLong("id", 255)
	}

	if r.Type == "" {
		return ErrMissingType
	}

	if len(r.Type) > 100 {
		return ErrFieldTooLong("type", 100)
	}

	if r.Label == "" {
		return ErrMissingLabel
	}

	if len(r.Label) > 10000 {
		return ErrFieldTooLong("label", 10000)
	}

	if r.Source == "" {
		r.Source = "direct"
	}

	if r.Properties != nil {
		data, err := json.Marshal(r.Properties)
		if err != nil {
			return fmt.Errorf("invalid properties: %w", err)
		}
		if len(data) > 65536 {
			return ErrFieldTooLong("properties", 65536)
		}
	}

	return nil
}

// UpdateConceptRequest is the payload for updating an existing concept.
type UpdateConceptRequest struct {
	Type       *string        `json:"type,omitempty"`
	Label      *string        `json:"label,omitempty"`
	Properties map[string]any `json:"properties,omitempty"`
}

// Validate checks UpdateConceptRequest fields.
func (r *UpdateConceptRequest) Validate() error {
	if r.Type != nil && *r.Type == "" {
		return fmt.Errorf("type cannot be empty")
	}

	if r.Label != nil && *r.Label == "" {
		return fmt.Errorf("label cannot be empty")
	}

	if r.Type != nil && len(*r.Type) > 100 {
		return ErrFieldTooLong("type", 100)
	}

	if r.Label != nil && len(*r.Label) > 10000 {
		return ErrFieldTooLong("label", 10000)
	}

	if r.Properties != nil {
		data, err := json.Marshal(r.Properties)
		if err != nil {
			return fmt.Errorf("invalid properties: %w", err)
		}
		if len(data) > 65536 {
			return ErrFieldTooLong("properties", 65536)
		}
	}

	return nil
}

// PatchPropertiesRequest is the payload for partially updating properties.
// Keys with non-null values are added/updated; keys with null values are removed.
type PatchPropertiesRequest struct {
	Properties map[string]any `json:"properties"`
}

// Validate checks PatchPropertiesRequest fields.
func (r *PatchPropertiesRequest) Validate() error {
	if len(r.Properties) == 0 {
		return fmt.Errorf("properties is required and must not be empty")
	}

	data, err := json.Marshal(r.Properties)
	if err != nil {
		return fmt.Errorf("invalid properties: %w", err)
	}
	if len(data) > 65536 {
		return ErrFieldTooLong("properties", 65536)
	}

	return nil
}

// MergeProperties merges patch into existing properties.
// Keys with null values are removed; all others are added/updated.
func MergeProperties(existing, patch map[string]any) map[string]any {
	if existing == nil {
		existing = make(map[string]any)
	}

	for k, v := range patch {
		if v == nil {
			delete(existing, k)
		} else {
			existing[k] = v
		}
	}

	return existing
}

// MergeConceptsRequest is the payload for merging a duplicate concept into a
// surviving one.
type MergeConceptsRequest struct {
	LoserID  string `json:"loser_id"`
	WinnerID string `json:"winner_id"`
}

// Validate checks MergeConceptsRequest fields.
func (r *MergeConceptsRequest) Validate() error {
	if r.LoserID == "" || r.WinnerID == "" {
		return fmt.Errorf("loser_id and winner_id are required")
	}

	if r.LoserID == r.WinnerID {
		return fmt.Errorf("loser_id and winner_id must differ")
	}

	return nil
}

// MergeConceptsResult summarizes the outcome of a concept merge.
type MergeConceptsResult struct {
	LoserID          string `json:"loser_id"`
	WinnerID         string `json:"winner_id"`
	RelationsMoved   int    `json:"relations_moved"`
	RelationsDropped int    `json:"relations_dropped"` // duplicates collapsed by strength
	LoserDeleted     bool   `json:"loser_deleted"`
}
