// Package embedding implements domain.EmbeddingProvider against an Ollama
// embedding endpoint, restricted to loopback addresses and guarded by a
// circuit breaker so a wedged embedding model degrades query handling
// instead of hanging it.
package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/persistorai/persistor/internal/models"
)

const requestTimeout = 30 * time.Second

// Circuit breaker configuration.
const (
	cbFailureThreshold = 5
	cbCooldown         = 30 * time.Second
)

// Circuit breaker states.
const (
	cbClosed   = iota // Normal operation.
	cbOpen            // Fail fast.
	cbHalfOpen        // Probe with one request.
)

// Provider generates vector embeddings via the Ollama API and implements
// domain.EmbeddingProvider.
type Provider struct {
	ollamaURL string
	model     string
	dim       int
	client    *http.Client

	mu              sync.Mutex
	cbState         int
	cbFailures      int
	cbLastFailureAt time.Time
}

type embedRequest struct {
	Model string `json:"model"`
	Input string `json:"input"`
}

type embedResponse struct {
	Embeddings [][]float32 `json:"embeddings"`
}

// New creates a Provider for the given Ollama endpoint, model, and expected
// output dimension (EMBEDDING_DIM). allowRemote disables the loopback
// restriction for deployments where the embedding model runs off-host.
func New(ollamaURL, model string, dim int, allowRemote bool) *Provider {
	transport := &http.Transport{
		DialContext: loopbackDialer(allowRemote),
	}

	return &Provider{
		ollamaURL: ollamaURL,
		model:     model,
		dim:       dim,
		client:    &http.Client{Timeout: requestTimeout, Transport: transport},
		cbState:   cbClosed,
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
			return nil, fmt.Errorf("resolving embedding host: %w", err)
		}

		for _, ip := range ips {
			if !ip.IP.IsLoopback() {
				return nil, fmt.Errorf("embedding provider connections restricted to localhost")
			}
		}

		return dialer.DialContext(ctx, network, addr)
	}
}

// Embed produces a vector embedding for the given text, validated against
// the configured dimension. It fails fast via a circuit breaker when the
// embedding model is down, returning models.ErrEmbeddingUnavailable.
func (p *Provider) Embed(ctx context.Context, text string) ([]float32, error) {
	if err := p.cbAllow(); err != nil {
		return nil, err
	}

	result, err := p.doEmbed(ctx, text)
	if err != nil {
		p.cbRecordFailure()

		return nil, err
	}

	if len(result) != p.dim {
		p.cbRecordFailure()

		return nil, fmt.Errorf("%w: got %d, want %d", models.ErrDimensionMismatch, len(result), p.dim)
	}

	p.cbRecordSuccess()

	return result, nil
}

func (p *Provider) doEmbed(ctx context.Context, text string) ([]float32, error) {
	body, err := json.Marshal(embedRequest{Model: p.model, Input: text})
	if err != nil {
		return nil, fmt.Errorf("marshaling embed request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.ollamaURL+"/api/embed", bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("creating embed request: %w", err)
	}

	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("calling embedding API: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		io.Copy(io.Discard, io.LimitReader(resp.Body, 1<<20)) //nolint:errcheck // best-effort drain before close.
		return nil, fmt.Errorf("embedding API returned status %d", resp.StatusCode)
	}

	var result embedResponse

	limited := io.LimitReader(resp.Body, 10<<20) // 10 MB
	if err := json.NewDecoder(limited).Decode(&result); err != nil {
		return nil, fmt.Errorf("decoding embed response: %w", err)
	}

	if len(result.Embeddings) == 0 {
		return nil, errors.New("embedding API returned no embeddings")
	}

	return result.Embeddings[0], nil
}

// cbAllow checks whether the circuit breaker permits a request. In closed
// state, all requests pass. In open state, requests are rejected until the
// cooldown expires, at which point we transition to half-open. In
// half-open state, one probe request is allowed.
func (p *Provider) cbAllow() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	switch p.cbState {
	case cbClosed:
		return nil
	case cbOpen:
		if time.Since(p.cbLastFailureAt) >= cbCooldown {
			p.cbState = cbHalfOpen

			return nil
		}

		return models.ErrEmbeddingUnavailable
	case cbHalfOpen:
		return models.ErrEmbeddingUnavailable
	}

	return nil
}

// cbRecordSuccess records a successful call. In half-open state this closes
// the circuit breaker, restoring normal operation.
func (p *Provider) cbRecordSuccess() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cbFailures = 0
	p.cbState = cbClosed
}

// cbRecordFailure records a failed call. After reaching the failure threshold
// the circuit breaker transitions to open state.
func (p *Provider) cbRecordFailure() {
	p.mu.Lock()
	defer p.mu.Unlock()

	p.cbFailures++
	p.cbLastFailureAt = time.Now()

	if p.cbFailures >= cbFailureThreshold || p.cbState == cbHalfOpen {
		p.cbState = cbOpen
	}
}
