package embedding

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
	"golang.org/x/time/rate"

	"github.com/epihelix/epihelix/types"
)

// HTTPConfig configures the network-backed embedding provider.
type HTTPConfig struct {
	BaseURL           string        `json:"base_url" yaml:"base_url"`
	APIKey            string        `json:"api_key" yaml:"api_key"`
	Dimensions        int           `json:"dimensions" yaml:"dimensions"`
	Timeout           time.Duration `json:"timeout" yaml:"timeout"`
	RetryBackoff      time.Duration `json:"retry_backoff" yaml:"retry_backoff"`
	RequestsPerSecond float64       `json:"requests_per_second" yaml:"requests_per_second"`
}

// DefaultHTTPConfig returns defaults matching the GPU inference endpoint.
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Dimensions:        1536,
		Timeout:           30 * time.Second,
		RetryBackoff:      500 * time.Millisecond,
		RequestsPerSecond: 10,
	}
}

// Metrics receives one observation per provider call, retries included.
// *metrics.Collector satisfies it.
type Metrics interface {
	RecordProviderRequest(provider, operation, status string, duration time.Duration)
}

// HTTPProvider calls POST {base_url}/embed. Transient failures (timeouts,
// 5xx) get exactly one retry with a fixed backoff; 4xx responses never retry.
type HTTPProvider struct {
	config  HTTPConfig
	client  *http.Client
	limiter *rate.Limiter
	metrics Metrics
	logger  *zap.Logger
}

// NewHTTPProvider creates a network-backed embedding provider.
func NewHTTPProvider(config HTTPConfig, logger *zap.Logger) *HTTPProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	if config.Timeout == 0 {
		config.Timeout = DefaultHTTPConfig().Timeout
	}
	if config.RetryBackoff == 0 {
		config.RetryBackoff = DefaultHTTPConfig().RetryBackoff
	}
	rps := config.RequestsPerSecond
	if rps <= 0 {
		rps = DefaultHTTPConfig().RequestsPerSecond
	}
	return &HTTPProvider{
		config:  config,
		client:  &http.Client{Timeout: config.Timeout},
		limiter: rate.NewLimiter(rate.Limit(rps), 1),
		logger:  logger.With(zap.String("component", "embedding_http")),
	}
}

func (p *HTTPProvider) Name() string    { return "http-embedder" }
func (p *HTTPProvider) Dimensions() int { return p.config.Dimensions }

// WithMetrics attaches a metrics sink. Call before first use.
func (p *HTTPProvider) WithMetrics(m Metrics) *HTTPProvider {
	p.metrics = m
	return p
}

func (p *HTTPProvider) record(op string, start time.Time, err error) {
	if p.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	p.metrics.RecordProviderRequest(p.Name(), op, status, time.Since(start))
}

type embedRequest struct {
	Texts []string `json:"texts"`
}

type embedResponse struct {
	Embeddings [][]float64 `json:"embeddings"`
}

// EmbedQuery embeds a single query string.
func (p *HTTPProvider) EmbedQuery(ctx context.Context, text string) ([]float64, error) {
	vecs, err := p.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	return vecs[0], nil
}

// EmbedBatch embeds multiple texts in one call.
func (p *HTTPProvider) EmbedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	if len(texts) == 0 {
		return [][]float64{}, nil
	}
	start := time.Now()
	vecs, err := p.embedBatch(ctx, texts)
	p.record("embed", start, err)
	return vecs, err
}

func (p *HTTPProvider) embedBatch(ctx context.Context, texts []string) ([][]float64, error) {
	var resp embedResponse
	if err := p.post(ctx, "/embed", embedRequest{Texts: texts}, &resp); err != nil {
		return nil, err
	}
	if len(resp.Embeddings) != len(texts) {
		return nil, types.NewError(types.ErrUpstream,
			fmt.Sprintf("expected %d embeddings, got %d", len(texts), len(resp.Embeddings))).
			WithProvider(p.Name())
	}
	if p.config.Dimensions > 0 {
		for i, v := range resp.Embeddings {
			if len(v) != p.config.Dimensions {
				return nil, types.NewError(types.ErrUpstream,
					fmt.Sprintf("embedding %d has dimension %d, want %d", i, len(v), p.config.Dimensions)).
					WithProvider(p.Name())
			}
		}
	}
	return resp.Embeddings, nil
}

// post sends one JSON request with a single retry on transient failure.
func (p *HTTPProvider) post(ctx context.Context, path string, body, out any) error {
	if err := p.limiter.Wait(ctx); err != nil {
		return types.NewError(types.ErrTimeout, "rate limit wait cancelled").WithCause(err).WithProvider(p.Name())
	}

	err := p.doOnce(ctx, path, body, out)
	if err == nil || !types.IsRetryable(err) {
		return err
	}

	p.logger.Warn("transient embed failure, retrying once", zap.Error(err))
	select {
	case <-ctx.Done():
		return types.NewError(types.ErrTimeout, "cancelled before retry").WithCause(ctx.Err()).WithProvider(p.Name())
	case <-time.After(p.config.RetryBackoff):
	}
	return p.doOnce(ctx, path, body, out)
}

func (p *HTTPProvider) doOnce(ctx context.Context, path string, body, out any) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return types.NewError(types.ErrInternal, "marshal request").WithCause(err)
	}

	url := strings.TrimRight(p.config.BaseURL, "/") + path
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return types.NewError(types.ErrInternal, "build request").WithCause(err)
	}
	req.Header.Set("Content-Type", "application/json")
	if p.config.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+p.config.APIKey)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		code := types.ErrUpstream
		if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
			code = types.ErrTimeout
		}
		return types.NewError(code, "embed request failed").WithCause(err).WithRetryable(true).WithProvider(p.Name())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		io.Copy(io.Discard, resp.Body)
		return types.NewError(types.ErrUpstream, fmt.Sprintf("embed endpoint returned %d", resp.StatusCode)).
			WithRetryable(true).WithProvider(p.Name())
	}
	if resp.StatusCode >= 400 {
		io.Copy(io.Discard, resp.Body)
		return types.NewError(types.ErrUpstream, fmt.Sprintf("embed endpoint returned %d", resp.StatusCode)).
			WithProvider(p.Name())
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return types.NewError(types.ErrUpstream, "decode embed response").WithCause(err).WithProvider(p.Name())
	}
	return nil
}
