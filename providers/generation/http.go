package generation

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

// HTTPConfig configures the network-backed generation provider.
type HTTPConfig struct {
	BaseURL           string        `json:"base_url" yaml:"base_url"`
	APIKey            string        `json:"api_key" yaml:"api_key"`
	Timeout           time.Duration `json:"timeout" yaml:"timeout"`
	RetryBackoff      time.Duration `json:"retry_backoff" yaml:"retry_backoff"`
	RequestsPerSecond float64       `json:"requests_per_second" yaml:"requests_per_second"`
}

// DefaultHTTPConfig returns defaults for a self-hosted inference endpoint.
// Generation is the slowest provider call, hence the longer timeout.
func DefaultHTTPConfig() HTTPConfig {
	return HTTPConfig{
		Timeout:           60 * time.Second,
		RetryBackoff:      time.Second,
		RequestsPerSecond: 5,
	}
}

// Metrics receives one observation per provider call, retries included.
// *metrics.Collector satisfies it.
type Metrics interface {
	RecordProviderRequest(provider, operation, status string, duration time.Duration)
}

// HTTPProvider calls POST {base_url}/generate. One retry on transient
// failure (5xx, timeout), never on 4xx.
type HTTPProvider struct {
	config  HTTPConfig
	client  *http.Client
	limiter *rate.Limiter
	metrics Metrics
	logger  *zap.Logger
}

// NewHTTPProvider creates a network-backed generation provider.
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
		logger:  logger.With(zap.String("component", "generation_http")),
	}
}

func (p *HTTPProvider) Name() string { return "http-generator" }

// WithMetrics attaches a metrics sink. Call before first use.
func (p *HTTPProvider) WithMetrics(m Metrics) *HTTPProvider {
	p.metrics = m
	return p
}

func (p *HTTPProvider) record(start time.Time, err error) {
	if p.metrics == nil {
		return
	}
	status := "ok"
	if err != nil {
		status = "error"
	}
	p.metrics.RecordProviderRequest(p.Name(), "generate", status, time.Since(start))
}

// Generate produces text for the given prompt.
func (p *HTTPProvider) Generate(ctx context.Context, req *Request) (*Response, error) {
	start := time.Now()
	resp, err := p.generate(ctx, req)
	p.record(start, err)
	return resp, err
}

func (p *HTTPProvider) generate(ctx context.Context, req *Request) (*Response, error) {
	if err := p.limiter.Wait(ctx); err != nil {
		return nil, types.NewError(types.ErrTimeout, "rate limit wait cancelled").WithCause(err).WithProvider(p.Name())
	}

	var resp Response
	err := p.doOnce(ctx, req, &resp)
	if err != nil && types.IsRetryable(err) {
		p.logger.Warn("transient generation failure, retrying once", zap.Error(err))
		select {
		case <-ctx.Done():
			return nil, types.NewError(types.ErrTimeout, "cancelled before retry").WithCause(ctx.Err()).WithProvider(p.Name())
		case <-time.After(p.config.RetryBackoff):
		}
		err = p.doOnce(ctx, req, &resp)
	}
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(resp.Text) == "" {
		return nil, types.NewError(types.ErrGeneration, "empty generation response").WithProvider(p.Name())
	}
	return &resp, nil
}

func (p *HTTPProvider) doOnce(ctx context.Context, body *Request, out *Response) error {
	payload, err := json.Marshal(body)
	if err != nil {
		return types.NewError(types.ErrInternal, "marshal request").WithCause(err)
	}

	url := strings.TrimRight(p.config.BaseURL, "/") + "/generate"
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
		return types.NewError(code, "generate request failed").WithCause(err).WithRetryable(true).WithProvider(p.Name())
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 500 {
		io.Copy(io.Discard, resp.Body)
		return types.NewError(types.ErrUpstream, fmt.Sprintf("generate endpoint returned %d", resp.StatusCode)).
			WithRetryable(true).WithProvider(p.Name())
	}
	if resp.StatusCode >= 400 {
		io.Copy(io.Discard, resp.Body)
		return types.NewError(types.ErrUpstream, fmt.Sprintf("generate endpoint returned %d", resp.StatusCode)).
			WithProvider(p.Name())
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return types.NewError(types.ErrUpstream, "decode generate response").WithCause(err).WithProvider(p.Name())
	}
	return nil
}
