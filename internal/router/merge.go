package router

import (
	"fmt"
	"sort"

	"github.com/persistorai/persistor/internal/models"
)

// mergeHybrid fuses the sql and semantic branches of a hybrid query: dedup
// by a stable key (relational primary key where available, concept id
// otherwise), then sort descending by score, stable on ties. SQL rows are
// fixed at 1.0; concepts carry SemanticSearch's Reciprocal Rank Fusion
// score (at most 2/(rrfK+1)), not a raw vector similarity, so every SQL
// row sorts ahead of every concept.
func mergeHybrid(sqlRows []map[string]any, sqlIDColumn string, concepts []models.ScoredConcept) []models.ResultItem {
	items := make([]models.ResultItem, 0, len(sqlRows)+len(concepts))
	seen := make(map[string]bool, len(sqlRows)+len(concepts))

	for _, row := range sqlRows {
		key := sqlRowKey(row, sqlIDColumn)
		if seen[key] {
			continue
		}

		seen[key] = true

		items = append(items, models.ResultItem{
			Kind:  models.IntentSQL,
			Key:   key,
			Score: 1.0,
			Row:   row,
		})
	}

	for i := range concepts {
		c := concepts[i]
		if seen[c.ID] {
			continue
		}

		seen[c.ID] = true

		items = append(items, models.ResultItem{
			Kind:    models.IntentSemantic,
			Key:     c.ID,
			Score:   c.Score,
			Concept: &c.Concept,
		})
	}

	sort.SliceStable(items, func(i, j int) bool {
		return items[i].Score > items[j].Score
	})

	return items
}

// sqlRowKey derives a dedup key for a relational row: its primary key
// column if the row has one, else a key that never collides with another
// row's (so rows from tables without a recognizable PK are never
// accidentally deduplicated against each other).
func sqlRowKey(row map[string]any, idColumn string) string {
	if idColumn != "" {
		if v, ok := row[idColumn]; ok {
			return fmt.Sprintf("sql:%v", v)
		}
	}

	return fmt.Sprintf("sql:%p", &row)
}

// sqlOnlyItems wraps a pure sql-branch result set into ResultItems,
// preserving the relational store's own ordering (spec §4.2: "never
// reorders the Relational Store's own result ordering").
func sqlOnlyItems(rows []map[string]any, idColumn string) []models.ResultItem {
	items := make([]models.ResultItem, len(rows))

	for i, row := range rows {
		items[i] = models.ResultItem{Kind: models.IntentSQL, Key: sqlRowKey(row, idColumn), Score: 1.0, Row: row}
	}

	return items
}

// semanticOnlyItems wraps a pure semantic-branch result set, preserving
// SemanticSearch's fused (RRF) ordering; this is not the vector store's
// raw similarity ordering.
func semanticOnlyItems(concepts []models.ScoredConcept) []models.ResultItem {
	items := make([]models.ResultItem, len(concepts))

	for i := range concepts {
		c := concepts[i]
		items[i] = models.ResultItem{Kind: models.IntentSemantic, Key: c.ID, Score: c.Score, Concept: &c.Concept}
	}

	return items
}
