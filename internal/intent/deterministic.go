// Package intent implements the Query Router's Intent Analyzer (spec §4.1):
// a deterministic, always-available token-scan classifier optionally
// overridden by an LLM tier run in parallel under a hard deadline.
package intent

import (
	"math"
	"regexp"
	"strings"

	"github.com/persistorai/persistor/internal/models"
)

const epsilon = 1e-9

// sqlPrefixes are statement keywords that, when they open the query
// (after leading whitespace), are an unambiguous signal for "sql".
var sqlPrefixes = []string{
	"select", "insert", "update", "delete", "with", "create", "drop", "alter", "explain",
}

// sqlTokens and semanticTokens are the two disjoint keyword sets scanned
// for in step 2 of spec §4.1's algorithm.
var sqlTokens = []string{
	"from", "where", "join", "group by", "order by", "limit", "=", "<", ">",
}

var semanticTokens = []string{
	"similar", "related", "about", "might", "probably", "seems", "find", "show me", "who", "what",
}

// likeNotLiteral matches "like" not immediately followed by a quoted or
// numeric literal — spec §4.1's "like (when not followed by a literal)".
var likeNotLiteral = regexp.MustCompile(`(?i)\blike\b\s*(?:[^'"0-9]|$)`)

// Deterministic implements the always-available token-scan tier of the
// Intent Analyzer. It holds no state: bias is supplied per call so a single
// instance can serve every tenant.
type Deterministic struct{}

// NewDeterministic constructs a Deterministic analyzer.
func NewDeterministic() *Deterministic {
	return &Deterministic{}
}

// Analyze classifies query using the deterministic algorithm. It does not
// apply the Evolution Tracker's bias; ApplyBias does that (spec §4.1 step 5),
// and Analyzer.Decide calls both. The bias is EvolutionState.Bias, in
// [-1, 1]; it stands in for the spec's "concept_ratio" term, since the
// tracker's bias is already that quantity expressed on a signed scale (see
// DESIGN.md open question).
func (d *Deterministic) Analyze(query string) (models.RouteDecision, map[string]float64, error) {
	trimmed := strings.TrimSpace(query)
	if trimmed == "" {
		return models.RouteDecision{}, nil, models.ErrEmptyQuery
	}

	lower := strings.ToLower(trimmed)

	for _, prefix := range sqlPrefixes {
		if strings.HasPrefix(lower, prefix) {
			next := lower[len(prefix):]
			if next == "" || next[0] == ' ' || next[0] == '\t' || next[0] == '\n' || next[0] == '(' {
				return models.RouteDecision{
					Kind:       models.IntentSQL,
					Confidence: 1.0,
					Source:     "deterministic",
					Reason:     "strong-sql prefix: " + prefix,
				}, map[string]float64{"sql_hits": 1, "semantic_hits": 0}, nil
			}
		}
	}

	sqlHits := countTokens(lower, sqlTokens)
	semanticHits := countTokens(lower, semanticTokens)

	if likeNotLiteral.MatchString(lower) {
		semanticHits++
	}

	signals := map[string]float64{"sql_hits": float64(sqlHits), "semantic_hits": float64(semanticHits)}

	s := float64(semanticHits) / (float64(sqlHits) + float64(semanticHits) + epsilon)
	signals["semantic_share"] = s

	var decision models.RouteDecision

	switch {
	case s >= 0.7:
		decision = models.RouteDecision{Kind: models.IntentSemantic, Confidence: s, Source: "deterministic", Reason: "token scan: semantic-dominant"}
	case s <= 0.3 && sqlHits >= 1:
		decision = models.RouteDecision{Kind: models.IntentSQL, Confidence: 1 - s, Source: "deterministic", Reason: "token scan: sql-dominant"}
	default:
		decision = models.RouteDecision{Kind: models.IntentHybrid, Confidence: 0.5 + math.Abs(s-0.5), Source: "deterministic", Reason: "token scan: mixed signal"}
	}

	return decision, signals, nil
}

// ApplyBias re-normalizes a decision's confidence by the Evolution Tracker's
// bias when the decision favors semantic routing (spec §4.1 step 5):
// confidence_semantic *= (1 + bias), clamped to [0, 1].
func ApplyBias(decision models.RouteDecision, bias float64) models.RouteDecision {
	if decision.Kind != models.IntentSemantic && decision.Kind != models.IntentHybrid {
		return decision
	}

	decision.Confidence = clamp(decision.Confidence*(1+bias), 0, 1)

	return decision
}

func countTokens(lower string, tokens []string) int {
	count := 0

	for _, tok := range tokens {
		count += strings.Count(lower, tok)
	}

	return count
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}

	if v > hi {
		return hi
	}

	return v
}
