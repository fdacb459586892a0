package intent

import (
	"context"
	"time"

	"github.com/persistorai/persistor/internal/domain"
	"github.com/persistorai/persistor/internal/models"
)

// llmResult carries one classification attempt's outcome across the race
// goroutine. The same channel-plus-select shape the teacher's ws.Client uses
// to bound its ping/pong round trip bounds this optional call: whichever
// arrives first (the result, or the deadline) wins, and the loser is
// abandoned rather than waited on.
type llmResult struct {
	kind       models.IntentKind
	confidence float64
	err        error
}

// raceLLM runs provider.ClassifyIntent with a hard deadline (spec §4.1's
// 300 ms). On timeout or error it returns ok=false; the deterministic
// decision is used unchanged in that case. The provider goroutine is never
// canceled mid-flight beyond ctx's own cancellation — on timeout its result
// is simply discarded when it eventually arrives.
func raceLLM(ctx context.Context, provider domain.LLMIntentProvider, query string, deadline time.Duration) (models.RouteDecision, bool) {
	if provider == nil {
		return models.RouteDecision{}, false
	}

	ctx, cancel := context.WithTimeout(ctx, deadline)
	defer cancel()

	resultCh := make(chan llmResult, 1)

	go func() {
		kind, confidence, err := provider.ClassifyIntent(ctx, query)
		resultCh <- llmResult{kind: kind, confidence: confidence, err: err}
	}()

	select {
	case res := <-resultCh:
		if res.err != nil {
			return models.RouteDecision{}, false
		}

		return models.RouteDecision{
			Kind:       res.kind,
			Confidence: res.confidence,
			Source:     "llm",
			Reason:     "llm classification",
		}, true
	case <-ctx.Done():
		return models.RouteDecision{}, false
	}
}
