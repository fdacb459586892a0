// Package sync implements the Bidirectional Synchronizer (spec §4.4): two
// unidirectional pipelines, forward (relational -> concept) and backward
// (concept -> relational), under a single lifecycle.
package sync

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/persistorai/persistor/internal/models"
	"github.com/persistorai/persistor/internal/store"
)

// sourceKeyFor builds the deterministic source_key for a relational row
// (spec §4.4): table and primary key, stable across runs.
func sourceKeyFor(table string, primaryKey any) string {
	return fmt.Sprintf("%s:%v", table, primaryKey)
}

// rowHash hashes the columns a mapping rule actually reads from a row, so
// re-seeing the same (source_key, row_hash) is a no-op (spec §4.4:
// "idempotent"). Unrelated column changes in the source table never
// trigger a resync.
func rowHash(rule models.MappingRule, row map[string]any) string {
	keys := make([]string, 0, len(rule.LabelColumns)+len(rule.PropertyMap))
	keys = append(keys, rule.LabelColumns...)

	for col := range rule.PropertyMap {
		keys = append(keys, col)
	}

	sort.Strings(keys)

	h := sha256.New()

	for _, k := range keys {
		fmt.Fprintf(h, "%s=%v;", k, row[k])
	}

	return hex.EncodeToString(h.Sum(nil))
}

// conceptLabel concatenates a mapping rule's label columns into the
// concept's display label.
func conceptLabel(rule models.MappingRule, row map[string]any) string {
	parts := make([]string, 0, len(rule.LabelColumns))

	for _, col := range rule.LabelColumns {
		if v, ok := row[col]; ok && v != nil {
			parts = append(parts, fmt.Sprintf("%v", v))
		}
	}

	return strings.Join(parts, " ")
}

// conceptProperties projects a row's mapped columns into concept
// properties, plus the reserved source_key/row_hash bookkeeping keys.
func conceptProperties(rule models.MappingRule, row map[string]any, primaryKey any) map[string]any {
	props := make(map[string]any, len(rule.PropertyMap)+2)

	for col, propKey := range rule.PropertyMap {
		if v, ok := row[col]; ok {
			props[propKey] = v
		}
	}

	props[store.SourceKeyProperty] = sourceKeyFor(rule.Table, primaryKey)
	props[store.RowHashProperty] = rowHash(rule, row)

	return props
}

// embeddingText renders the text the Embedding Provider sees for a row:
// "type: label", plus " — description" when the row maps a "description"
// property, close to the store's own "type:label" convention used
// elsewhere for backfill (internal/models ConceptSummary.EmbeddingText).
// Other mapped properties are not included.
func embeddingText(rule models.MappingRule, label string, props map[string]any) string {
	var sb strings.Builder

	sb.WriteString(rule.TypeValue)
	sb.WriteString(": ")
	sb.WriteString(label)

	if desc, ok := props["description"]; ok && desc != nil {
		sb.WriteString(" — ")
		fmt.Fprintf(&sb, "%v", desc)
	}

	return sb.String()
}

// marshalForQuarantine renders a value for SyncQuarantineEntry's
// left/right snapshot columns.
func marshalForQuarantine(v any) map[string]any {
	data, err := json.Marshal(v)
	if err != nil {
		return map[string]any{"error": err.Error()}
	}

	var out map[string]any
	if err := json.Unmarshal(data, &out); err != nil {
		return map[string]any{"value": fmt.Sprintf("%v", v)}
	}

	return out
}
