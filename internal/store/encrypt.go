package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/persistorai/persistor/internal/models"
)

// encryptProperties marshals props to JSON, encrypts via crypto.Service,
// and returns JSON bytes suitable for the JSONB properties column.
// Stored as {"_enc": "base64..."} envelope.
func (b *Base) encryptProperties(ctx context.Context, tenantID string, props map[string]any) ([]byte, error) {
	plain, err := json.Marshal(props)
	if err != nil {
		return nil, fmt.Errorf("marshalling properties: %w", err)
	}

	ciphertext, err := b.Crypto.Encrypt(ctx, tenantID, plain)
	if err != nil {
		return nil, fmt.Errorf("encrypting properties: %w", err)
	}

	envelope := map[string]string{"_enc": ciphertext}

	enc, err := json.Marshal(envelope)
	if err != nil {
		return nil, fmt.Errorf("marshalling encrypted envelope: %w", err)
	}

	return enc, nil
}

// decryptConcept decrypts a concept's properties in place.
func (b *Base) decryptConcept(ctx context.Context, tenantID string, c *models.Concept) error {
	ct, ok := c.Properties["_enc"]
	if !ok {
		return fmt.Errorf("concept %s: properties missing encryption envelope", c.ID)
	}

	ciphertext, ok := ct.(string)
	if !ok {
		return fmt.Errorf("concept %s: encrypted value is not a string", c.ID)
	}

	plaintext, err := b.Crypto.Decrypt(ctx, tenantID, ciphertext)
	if err != nil {
		return fmt.Errorf("decrypting concept %s properties: %w", c.ID, err)
	}

	var props map[string]any
	if err := json.Unmarshal(plaintext, &props); err != nil {
		return fmt.Errorf("unmarshalling decrypted concept %s properties: %w", c.ID, err)
	}

	c.Properties = props

	return nil
}

// decryptConcepts decrypts properties for a slice of concepts.
func (b *Base) decryptConcepts(ctx context.Context, tenantID string, concepts []models.Concept) error {
	for i := range concepts {
		if err := b.decryptConcept(ctx, tenantID, &concepts[i]); err != nil {
			return err
		}
	}

	return nil
}

// decryptPropertiesRaw decrypts raw JSONB bytes containing an encryption envelope.
func (b *Base) decryptPropertiesRaw(ctx context.Context, tenantID string, propsBytes []byte) (map[string]any, error) {
	var raw map[string]any
	if err := json.Unmarshal(propsBytes, &raw); err != nil {
		return nil, fmt.Errorf("unmarshalling properties: %w", err)
	}

	ct, ok := raw["_enc"]
	if !ok {
		return raw, nil
	}

	ciphertext, ok := ct.(string)
	if !ok {
		return nil, fmt.Errorf("encrypted value is not a string")
	}

	plaintext, err := b.Crypto.Decrypt(ctx, tenantID, ciphertext)
	if err != nil {
		return nil, fmt.Errorf("decrypting properties: %w", err)
	}

	var props map[string]any
	if err := json.Unmarshal(plaintext, &props); err != nil {
		return nil, fmt.Errorf("unmarshalling decrypted properties: %w", err)
	}

	return props, nil
}

// decryptRelation decrypts a relation's properties in place.
func (b *Base) decryptRelation(ctx context.Context, tenantID string, r *models.Relation) error {
	ct, ok := r.Properties["_enc"]
	if !ok {
		return fmt.Errorf("relation %s→%s (%s): properties missing encryption envelope", r.Source, r.Target, r.Type)
	}

	ciphertext, ok := ct.(string)
	if !ok {
		return fmt.Errorf("relation %s→%s (%s): encrypted value is not a string", r.Source, r.Target, r.Type)
	}

	plaintext, err := b.Crypto.Decrypt(ctx, tenantID, ciphertext)
	if err != nil {
		return fmt.Errorf("decrypting relation %s→%s (%s) properties: %w", r.Source, r.Target, r.Type, err)
	}

	var props map[string]any
	if err := json.Unmarshal(plaintext, &props); err != nil {
		return fmt.Errorf("unmarshalling decrypted relation %s→%s (%s) properties: %w", r.Source, r.Target, r.Type, err)
	}

	r.Properties = props

	return nil
}

// decryptRelations decrypts properties for a slice of relations.
func (b *Base) decryptRelations(ctx context.Context, tenantID string, relations []models.Relation) error {
	for i := range relations {
		if err := b.decryptRelation(ctx, tenantID, &relations[i]); err != nil {
			return err
		}
	}

	return nil
}
