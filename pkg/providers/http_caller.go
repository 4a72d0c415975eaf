package providers

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/goccy/go-json"

	"firekey-hq/tally/pkg/telemetry/tracing"
)

// HTTPCallerConfig configures an HTTPCaller.
type HTTPCallerConfig struct {
	// Name identifies the provider in errors and logs.
	Name string

	// BaseURL is the API root; requests go to BaseURL + "/chat/completions".
	BaseURL string

	// APIKey is sent as a bearer token when set.
	APIKey string

	// Timeout bounds one request.
	Timeout time.Duration

	// Temperature is used when Options.Temperature is nil.
	Temperature float64
}

// HTTPCaller calls any OpenAI-compatible chat completions endpoint over
// plain HTTP. It makes one attempt per Call and classifies failures with
// ErrorForStatus.
type HTTPCaller struct {
	config HTTPCallerConfig
	client *http.Client
	logger *slog.Logger
}

// NewHTTPCaller creates a new HTTP caller with connection pooling.
func NewHTTPCaller(config HTTPCallerConfig, logger *slog.Logger) *HTTPCaller {
	if config.Name == "" {
		config.Name = "http"
	}
	if logger == nil {
		logger = slog.Default()
	}

	transport := &http.Transport{
		MaxIdleConns:        10,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		ForceAttemptHTTP2:   true,
	}

	return &HTTPCaller{
		config: config,
		client: &http.Client{Transport: transport, Timeout: config.Timeout},
		logger: logger.With("component", "providers.http", "provider", config.Name),
	}
}

// Call sends prompt as a single user message and returns the raw response body.
func (c *HTTPCaller) Call(ctx context.Context, prompt, model string, opts Options) ([]byte, error) {
	if model == "" {
		return nil, &ValidationError{Field: "model", Message: "model is required"}
	}

	req := ChatRequest{
		Model:       model,
		Temperature: c.config.Temperature,
		MaxTokens:   opts.MaxTokens,
	}
	if opts.Temperature != nil {
		req.Temperature = *opts.Temperature
	}
	if opts.System != "" {
		req.Messages = append(req.Messages, Message{Role: "system", Content: opts.System})
	}
	req.Messages = append(req.Messages, Message{Role: "user", Content: prompt})

	body, err := json.Marshal(req)
	if err != nil {
		return nil, &PermanentError{Cause: fmt.Errorf("failed to marshal request: %w", err)}
	}

	url := strings.TrimRight(c.config.BaseURL, "/") + "/chat/completions"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return nil, &PermanentError{Cause: fmt.Errorf("failed to create request: %w", err)}
	}
	httpReq.Header.Set("Content-Type", "application/json")
	tracing.Inject(ctx, httpReq.Header)
	if c.config.APIKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+c.config.APIKey)
	}

	c.logger.Debug("Sending request to provider", "url", url, "model", model)

	resp, err := c.client.Do(httpReq)
	if err != nil {
		if errors.Is(err, context.Canceled) {
			return nil, err
		}
		if errors.Is(err, context.DeadlineExceeded) || isTimeout(err) {
			return nil, &TimeoutError{Provider: c.config.Name, Timeout: c.config.Timeout}
		}
		return nil, &ProviderError{Provider: c.config.Name, Message: "request failed", Cause: err}
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &ProviderError{Provider: c.config.Name, Message: "failed to read response", Cause: err}
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, ErrorForStatus(c.config.Name, resp.StatusCode, string(raw), resp.Header)
	}

	return raw, nil
}

// Close releases idle connections.
func (c *HTTPCaller) Close() error {
	c.client.CloseIdleConnections()
	return nil
}

func isTimeout(err error) bool {
	var te interface{ Timeout() bool }
	return errors.As(err, &te) && te.Timeout()
}
