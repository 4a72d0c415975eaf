package openai

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/goccy/go-json"
	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"firekey-hq/tally/pkg/config"
	"firekey-hq/tally/pkg/providers"
)

const providerName = "openai"

// Caller implements providers.Caller on top of the official OpenAI SDK.
// SDK-level retries are disabled; the tracked client owns the retry policy.
type Caller struct {
	client      *openai.Client
	temperature float64
	timeout     time.Duration
	logger      *slog.Logger
}

// NewCaller creates a caller from provider configuration.
func NewCaller(cfg config.ProviderConfig, logger *slog.Logger, opts ...option.RequestOption) *Caller {
	if logger == nil {
		logger = slog.Default()
	}

	reqOpts := []option.RequestOption{option.WithMaxRetries(0)}
	if cfg.APIKey != "" {
		reqOpts = append(reqOpts, option.WithAPIKey(cfg.APIKey))
	}
	if cfg.BaseURL != "" {
		reqOpts = append(reqOpts, option.WithBaseURL(cfg.BaseURL))
	}
	if cfg.Timeout > 0 {
		reqOpts = append(reqOpts, option.WithRequestTimeout(cfg.Timeout))
	}
	reqOpts = append(reqOpts, opts...)

	return &Caller{
		client:      openai.NewClient(reqOpts...),
		temperature: cfg.Temperature,
		timeout:     cfg.Timeout,
		logger:      logger.With("component", "providers.openai"),
	}
}

// Call sends prompt as a single user message and returns the raw JSON of the
// chat completion.
func (c *Caller) Call(ctx context.Context, prompt, model string, opts providers.Options) ([]byte, error) {
	if model == "" {
		return nil, &providers.ValidationError{Field: "model", Message: "model is required"}
	}

	temperature := c.temperature
	if opts.Temperature != nil {
		temperature = *opts.Temperature
	}

	var messages []openai.ChatCompletionMessageParamUnion
	if opts.System != "" {
		messages = append(messages, openai.SystemMessage(opts.System))
	}
	messages = append(messages, openai.UserMessage(prompt))

	params := openai.ChatCompletionNewParams{
		Messages:    openai.F(messages),
		Model:       openai.F(model),
		N:           openai.Int(1),
		Temperature: openai.Float(temperature),
	}
	if opts.MaxTokens > 0 {
		params.MaxCompletionTokens = openai.Int(int64(opts.MaxTokens))
	}

	completion, err := c.client.Chat.Completions.New(ctx, params)
	if err != nil {
		return nil, c.classify(err)
	}

	if raw := completion.JSON.RawJSON(); raw != "" {
		return []byte(raw), nil
	}

	raw, err := json.Marshal(completion)
	if err != nil {
		return nil, &providers.PermanentError{Cause: fmt.Errorf("failed to encode completion: %w", err)}
	}
	return raw, nil
}

// classify maps SDK errors onto the provider error taxonomy.
func (c *Caller) classify(err error) error {
	var apierr *openai.Error
	if errors.As(err, &apierr) {
		var header map[string][]string
		if apierr.Response != nil {
			header = apierr.Response.Header
		}
		c.logger.Debug("OpenAI request failed", "status", apierr.StatusCode, "error", err)
		return providers.ErrorForStatus(providerName, apierr.StatusCode, apierr.Message, header)
	}

	switch {
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded):
		return &providers.TimeoutError{Provider: providerName, Timeout: c.timeout}
	default:
		return &providers.ProviderError{Provider: providerName, Message: "request failed", Cause: err}
	}
}
