// Package llmintent implements the optional domain.LLMIntentProvider: an
// LLM-backed query-intent classifier that the Query Router races against the
// deterministic analyzer on every query when enabled; its answer replaces the
// deterministic one only when it is more confident by at least the configured
// margin (spec §4.1). Every call is bounded by a hard deadline and the same
// loopback-restricted HTTP client internal/embedding uses — a slow or
// down LLM degrades routing, it never blocks it.
package llmintent

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"

	"github.com/persistorai/persistor/internal/models"
)

const requestTimeout = 5 * time.Second

// Provider classifies query intent via an Ollama chat completion.
type Provider struct {
	baseURL string
	model   string
	client  *http.Client
}

type chatRequest struct {
	Model    string        `json:"model"`
	Messages []chatMessage `json:"messages"`
	Format   string        `json:"format"`
	Stream   bool          `json:"stream"`
}

type chatMessage struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type chatResponse struct {
	Message chatMessage `json:"message"`
}

// classification is the structured payload the model is asked to return.
type classification struct {
	Kind       string  `json:"kind"`
	Confidence float64 `json:"confidence"`
}

const systemPrompt = `Classify the user's query intent as exactly one of "sql", "semantic", or "hybrid".
"sql" means the query names concrete fields, filters, or aggregates best answered by a relational lookup.
"semantic" means the query describes a concept, meaning, or relationship best answered by the concept graph.
"hybrid" means both structured and semantic reasoning are needed.
Respond with JSON only: {"kind": "sql"|"semantic"|"hybrid", "confidence": 0.0-1.0}.`

// New creates a Provider for the given Ollama endpoint and model, restricted
// to loopback addresses unless allowRemote is set.
func New(baseURL, model string, allowRemote bool) *Provider {
	transport := &http.Transport{DialContext: loopbackDialer(allowRemote)}

	return &Provider{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: requestTimeout, Transport: transport},
	}
}

func loopbackDialer(allowRemote bool) func(ctx context.Context, network, addr string) (net.Conn, error) {
	dialer := &net.Dialer{}

	if allowRemote {
		return dialer.DialContext
	}

	return func(ctx context.Context, network, addr string) (net.Conn, error) {
		host, _, err := net.SplitHostPort(addr)
		if err != nil {
			return nil, fmt.Errorf("invalid address: %w", err)
		}

		ips, err := net.DefaultResolver.LookupIPAddr(ctx, host)
		if err != nil {
			return nil, fmt.Errorf("resolving llm intent host: %w", err)
		}

		for _, ip := range ips {
			if !ip.IP.IsLoopback() {
				return nil, fmt.Errorf("llm intent provider connections restricted to localhost")
			}
		}

		return dialer.DialContext(ctx, network, addr)
	}
}

// ClassifyIntent asks the configured model to classify query. The caller is
// expected to bound ctx with its own deadline (spec §4.1's 300ms race) —
// this method does not impose one beyond the transport-level requestTimeout.
func (p *Provider) ClassifyIntent(ctx context.Context, query string) (models.IntentKind, float64, error) {
	body, err := json.Marshal(chatRequest{
		Model: p.model,
		Messages: []chatMessage{
			{Role: "system", Content: systemPrompt},
			{Role: "user", Content: query},
		},
		Format: "json",
		Stream: false,
	})
	if err != nil {
		return "", 0, fmt.Errorf("%w: marshaling chat request: %w", models.ErrLLMUnavailable, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.baseURL+"/api/chat", bytes.NewReader(body))
	if err != nil {
		return "", 0, fmt.Errorf("%w: creating chat request: %w", models.ErrLLMUnavailable, err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return "", 0, fmt.Errorf("%w: calling llm intent API: %w", models.ErrLLMUnavailable, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20)) //nolint:errcheck // best-effort drain before close.
		return "", 0, fmt.Errorf("%w: llm intent API returned status %d", models.ErrLLMUnavailable, resp.StatusCode)
	}

	var chat chatResponse

	limited := io.LimitReader(resp.Body, 1<<20)
	if err := json.NewDecoder(limited).Decode(&chat); err != nil {
		return "", 0, fmt.Errorf("%w: decoding chat response: %w", models.ErrLLMUnavailable, err)
	}

	var cls classification
	if err := json.Unmarshal([]byte(chat.Message.Content), &cls); err != nil {
		return "", 0, fmt.Errorf("%w: decoding classification: %w", models.ErrLLMUnavailable, err)
	}

	kind := models.IntentKind(cls.Kind)
	if kind != models.IntentSQL && kind != models.IntentSemantic && kind != models.IntentHybrid {
		return "", 0, fmt.Errorf("%w: unrecognized intent kind %q", models.ErrLLMUnavailable, cls.Kind)
	}

	return kind, cls.Confidence, nil
}
