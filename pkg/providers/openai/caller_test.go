package openai

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"firekey-hq/tally/pkg/config"
	"firekey-hq/tally/pkg/providers"
)

const completionJSON = `{
  "id": "chatcmpl-1",
  "object": "chat.completion",
  "created": 1700000000,
  "model": "gpt-4o-mini",
  "choices": [{"index": 0, "finish_reason": "stop", "logprobs": null,
    "message": {"role": "assistant", "content": "olleh", "refusal": null}}],
  "usage": {"prompt_tokens": 100, "completion_tokens": 50, "total_tokens": 150}
}`

func newTestCaller(t *testing.T, handler http.HandlerFunc) *Caller {
	t.Helper()
	server := httptest.NewServer(handler)
	t.Cleanup(server.Close)

	return NewCaller(config.ProviderConfig{
		APIKey:      "sk-test",
		BaseURL:     server.URL + "/",
		Temperature: 0.4,
		Timeout:     5 * time.Second,
	}, nil)
}

func TestCaller_ReturnsRawCompletion(t *testing.T) {
	caller := newTestCaller(t, func(w http.ResponseWriter, r *http.Request) {
		assert.True(t, strings.HasSuffix(r.URL.Path, "/chat/completions"))
		assert.Equal(t, "Bearer sk-test", r.Header.Get("Authorization"))
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(completionJSON))
	})

	raw, err := caller.Call(context.Background(), "hello", "gpt-4o-mini", providers.Options{})
	require.NoError(t, err)

	text, err := providers.DefaultCompletionExtractor(raw)
	require.NoError(t, err)
	assert.Equal(t, "olleh", text)

	u, err := providers.DefaultUsageExtractor(raw)
	require.NoError(t, err)
	assert.Equal(t, 150, u.TotalTokens)
}

func TestCaller_ClassifiesAPIErrors(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantTransient bool
	}{
		{name: "server error", status: http.StatusInternalServerError, wantTransient: true},
		{name: "rate limited", status: http.StatusTooManyRequests, wantTransient: true},
		{name: "bad request", status: http.StatusBadRequest, wantTransient: false},
		{name: "unauthorized", status: http.StatusUnauthorized, wantTransient: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts int32
			caller := newTestCaller(t, func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&attempts, 1)
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"message":"nope","type":"test","code":"x"}}`))
			})

			_, err := caller.Call(context.Background(), "hello", "gpt-4o-mini", providers.Options{})
			require.Error(t, err)
			assert.Equal(t, tt.wantTransient, providers.IsTransient(err), "error: %v", err)
			assert.Equal(t, int32(1), atomic.LoadInt32(&attempts), "SDK retries must be disabled")
		})
	}
}

func TestCaller_RequiresModel(t *testing.T) {
	caller := NewCaller(config.ProviderConfig{APIKey: "sk-test"}, nil)
	_, err := caller.Call(context.Background(), "hello", "", providers.Options{})
	assert.False(t, providers.IsTransient(err))
	assert.ErrorContains(t, err, "model")
}
