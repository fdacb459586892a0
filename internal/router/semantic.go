package router

import (
	"context"
	"sort"

	"github.com/persistorai/persistor/internal/domain"
	"github.com/persistorai/persistor/internal/models"
)

// rrfK is the Reciprocal Rank Fusion damping constant: the contribution of a
// rank-r hit is 1/(rrfK+r). 60 is the standard value from the original RRF
// paper and is what most IR pipelines reach for without tuning.
const rrfK = 60

// FullTextSearcher and IDHydrator are the two ranking sources fused into a
// single semantic result. Declared locally, narrow enough for
// internal/store.SearchStore and internal/vectorstore.Store to satisfy
// structurally.
type FullTextSearcher interface {
	FullTextSearch(ctx context.Context, tenantID, query, typeFilter string, minStrength float64, limit int) ([]models.ScoredConcept, error)
}

type IDHydrator interface {
	FetchByIDsScored(ctx context.Context, tenantID string, ids []string, scores []float64) ([]models.ScoredConcept, error)
}

// SemanticSearch implements the "semantic" ranking used both by the Query
// Router's hybrid branch (spec §4.2) and directly by SearchService's
// SemanticSearch/HybridSearch operations (spec §3): embed the query, rank
// nearest neighbors by cosine similarity and by full-text relevance
// independently, fuse the two rankings with Reciprocal Rank Fusion, then
// hydrate the winning IDs into decrypted concept rows in fused order.
// Exported (rather than kept private to this package) so internal/service
// can reuse the exact same fusion instead of duplicating it. Grounded on
// internal/store/search.go's own doc comment, which names this composition
// as the router's responsibility.
type SemanticSearch struct {
	embed    domain.EmbeddingProvider
	vectors  domain.VectorStore
	fullText FullTextSearcher
	hydrate  IDHydrator
}

// NewSemanticSearch constructs a SemanticSearch.
func NewSemanticSearch(embed domain.EmbeddingProvider, vectors domain.VectorStore, fullText FullTextSearcher, hydrate IDHydrator) *SemanticSearch {
	return &SemanticSearch{embed: embed, vectors: vectors, fullText: fullText, hydrate: hydrate}
}

// Search returns concepts ranked by fused relevance, most relevant first.
func (s *SemanticSearch) Search(ctx context.Context, tenantID, query string, limit int) ([]models.ScoredConcept, error) {
	if limit <= 0 {
		limit = 20
	}

	embedding, err := s.embed.Embed(ctx, query)
	if err != nil {
		return nil, err
	}

	// Over-fetch each ranking so RRF has enough of a tail to fuse against;
	// the final result is still truncated to limit below.
	fanoutLimit := limit * 3

	vectorHits, err := s.vectors.Search(ctx, tenantID, embedding, fanoutLimit)
	if err != nil {
		return nil, err
	}

	textHits, err := s.fullText.FullTextSearch(ctx, tenantID, query, "", 0, fanoutLimit)
	if err != nil {
		return nil, err
	}

	fusedIDs, fusedScores := reciprocalRankFusion(vectorHits, textHits, limit)
	if len(fusedIDs) == 0 {
		return nil, nil
	}

	scored, err := s.hydrate.FetchByIDsScored(ctx, tenantID, fusedIDs, fusedScores)
	if err != nil {
		return nil, err
	}

	// FetchByIDsScored preserves fusedIDs' order already; scored may be
	// shorter than fusedIDs if a stale vector/text entry no longer exists.
	return scored, nil
}

// reciprocalRankFusion combines two independently-ranked concept ID lists
// into one ranking: each hit contributes 1/(rrfK+rank) from whichever
// list(s) it appears in, summed, then sorted descending. Returns the top
// `limit` IDs alongside their fused scores, in fused order.
func reciprocalRankFusion(vectorHits, textHits []models.ScoredConcept, limit int) ([]string, []float64) {
	fused := make(map[string]float64, len(vectorHits)+len(textHits))
	order := make([]string, 0, len(vectorHits)+len(textHits))

	addRanked := func(hits []models.ScoredConcept) {
		for rank, h := range hits {
			if _, seen := fused[h.ID]; !seen {
				order = append(order, h.ID)
			}

			fused[h.ID] += 1.0 / float64(rrfK+rank+1)
		}
	}

	addRanked(vectorHits)
	addRanked(textHits)

	sort.SliceStable(order, func(i, j int) bool {
		return fused[order[i]] > fused[order[j]]
	})

	if len(order) > limit {
		order = order[:limit]
	}

	scores := make([]float64, len(order))
	for i, id := range order {
		scores[i] = fused[id]
	}

	return order, scores
}
