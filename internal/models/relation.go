package models

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// RelationKinds enumerates the fixed vocabulary of relation types the spec
// allows between two concepts.
var RelationKinds = map[string]bool{
	"is_a":        true,
	"part_of":     true,
	"related_to":  true,
	"opposite_of": true,
}

// Relation represents a directed, typed edge between two concepts.
type Relation struct {
	TenantID     uuid.UUID      `json:"-"`
	Source       string         `json:"source"`
	Target       string         `json:"target"`
	Type         string         `json:"type"`
	Properties   map[string]any `json:"properties"`
	Weight       float64        `json:"weight"`
	AccessCount  int            `json:"access_count"`
	LastAccessed *time.Time     `json:"last_accessed,omitempty"`
	Strength     float64        `json:"strength_score"`
	SupersededBy *string        `json:"superseded_by,omitempty"`
	UserBoosted  bool           `json:"user_boosted"`
	CreatedAt    time.Time      `json:"created_at"`
	UpdatedAt    time.Time      `json:"updated_at"`
}

// CreateRelationRequest is the payload for creating a new relation.
type CreateRelationRequest struct {
	Source     string         `json:"source"`
	Target     string         `json:"target"`
	Type       string         `json:"type"`
	Properties map[string]any `json:"properties,omitempty"`
	Weight     *float64       `json:"weight,omitempty"`
}

// Validate checks that required fields are present, within limits, and that
// Type is one of the fixed relation kinds (spec §3: at most one relation of
// a given type may exist between an ordered pair).
func (r *CreateRelationRequest) Validate() error {
	if r.Source == "" {
		return ErrMissingSource
	}

	if len(r.Source) > 255 {
		return ErrFieldTooLong("source", 255)
	}

	if r.Target == "" {
		return ErrMissingTarget
	}

	if len(r.Target) > 255 {
		return ErrFieldTooLong("target", 255)
	}

	if r.Source == r.Target {
		return ErrInvalidRelation
	}

	if r.Type == "" {
		return ErrMissingRelation
	}

	if !RelationKinds[r.Type] {
		return ErrInvalidRelation
	}

	if r.Weight != nil && (*r.Weight < 0 || *r.Weight > 1000) {
		return fmt.Errorf("weight must be between 0 and 1000")
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

// UpdateRelationRequest is the payload for updating an existing relation.
type UpdateRelationRequest struct {
	Properties map[string]any `json:"properties,omitempty"`
	Weight     *float64       `json:"weight,omitempty"`
}

// Validate checks UpdateRelationRequest fields.
func (r *UpdateRelationRequest) Validate() error {
	if r.Weight != nil && (*r.Weight < 0 || *r.Weight > 1000) {
		return fmt.Errorf("weight must be between 0 and 1000")
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
