package intent

import (
	"context"
	"time"

	"github.com/persistorai/persistor/internal/domain"
	"github.com/persistorai/persistor/internal/models"
)

// Analyzer combines the deterministic token-scan tier with an optional LLM
// tier, implementing the full decision procedure of spec §4.1.
type Analyzer struct {
	deterministic *Deterministic
	llm           domain.LLMIntentProvider
	llmEnabled    bool
	llmDeadline   time.Duration
	llmMargin     float64
}

// Config holds the tunables the Query Router wires in from internal/config.
type Config struct {
	LLMEnabled  bool
	LLMDeadline time.Duration // default 300ms, spec §4.1
	LLMMargin   float64       // default 0.15, spec §4.1/§9
}

// NewAnalyzer constructs an Analyzer. llm may be nil; when nil or
// cfg.LLMEnabled is false, Decide always returns the deterministic result.
func NewAnalyzer(llm domain.LLMIntentProvider, cfg Config) *Analyzer {
	return &Analyzer{
		deterministic: NewDeterministic(),
		llm:           llm,
		llmEnabled:    cfg.LLMEnabled,
		llmDeadline:   cfg.LLMDeadline,
		llmMargin:     cfg.LLMMargin,
	}
}

// Decide classifies query, applying the Evolution Tracker's bias to the
// deterministic result and racing the optional LLM tier against it. The LLM
// result replaces the deterministic one only when its confidence exceeds the
// deterministic decision's confidence by at least the configured margin
// (spec §4.1: "never authoritative").
func (a *Analyzer) Decide(ctx context.Context, query string, bias float64) (models.RouteDecision, map[string]float64, error) {
	decision, signals, err := a.deterministic.Analyze(query)
	if err != nil {
		return models.RouteDecision{}, nil, err
	}

	decision = ApplyBias(decision, bias)

	if !a.llmEnabled || a.llm == nil {
		return decision, signals, nil
	}

	llmDecision, ok := raceLLM(ctx, a.llm, query, a.llmDeadline)
	if !ok {
		return decision, signals, nil
	}

	if llmDecision.Confidence >= decision.Confidence+a.llmMargin {
		return llmDecision, signals, nil
	}

	return decision, signals, nil
}
