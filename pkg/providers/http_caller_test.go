package providers

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/goccy/go-json"
)

const chatResponse = `{"choices":[{"message":{"content":"ok"}}],"usage":{"prompt_tokens":3,"completion_tokens":1,"total_tokens":4}}`

func TestHTTPCaller_Success(t *testing.T) {
	var received ChatRequest
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("unexpected path %q", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer sk-test" {
			t.Errorf("unexpected authorization header %q", got)
		}
		body, _ := io.ReadAll(r.Body)
		if err := json.Unmarshal(body, &received); err != nil {
			t.Errorf("failed to decode request: %v", err)
		}
		_, _ = w.Write([]byte(chatResponse))
	}))
	defer server.Close()

	caller := NewHTTPCaller(HTTPCallerConfig{
		BaseURL:     server.URL + "/v1/",
		APIKey:      "sk-test",
		Timeout:     5 * time.Second,
		Temperature: 0.4,
	}, nil)
	defer caller.Close()

	raw, err := caller.Call(context.Background(), "hello", "gpt-4o-mini", Options{System: "be brief"})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if string(raw) != chatResponse {
		t.Errorf("expected raw body to be returned unchanged, got %s", raw)
	}

	if received.Model != "gpt-4o-mini" {
		t.Errorf("expected model gpt-4o-mini, got %q", received.Model)
	}
	if len(received.Messages) != 2 || received.Messages[1].Content != "hello" {
		t.Errorf("unexpected messages %+v", received.Messages)
	}
	if received.Temperature != 0.4 {
		t.Errorf("expected temperature 0.4, got %v", received.Temperature)
	}
}

func TestHTTPCaller_SingleAttemptAndClassification(t *testing.T) {
	tests := []struct {
		name          string
		status        int
		wantTransient bool
	}{
		{name: "500 is transient", status: http.StatusInternalServerError, wantTransient: true},
		{name: "429 is transient", status: http.StatusTooManyRequests, wantTransient: true},
		{name: "400 is permanent", status: http.StatusBadRequest, wantTransient: false},
		{name: "401 is permanent", status: http.StatusUnauthorized, wantTransient: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var attempts int32
			server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				atomic.AddInt32(&attempts, 1)
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error":{"message":"nope"}}`))
			}))
			defer server.Close()

			caller := NewHTTPCaller(HTTPCallerConfig{BaseURL: server.URL, Timeout: 5 * time.Second}, nil)
			_, err := caller.Call(context.Background(), "hi", "gpt-4o-mini", Options{})
			if err == nil {
				t.Fatal("expected error")
			}
			if got := IsTransient(err); got != tt.wantTransient {
				t.Errorf("expected transient=%v, got %v (%v)", tt.wantTransient, got, err)
			}
			if n := atomic.LoadInt32(&attempts); n != 1 {
				t.Errorf("expected exactly 1 attempt, got %d", n)
			}
		})
	}
}

func TestHTTPCaller_Timeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(200 * time.Millisecond)
		_, _ = w.Write([]byte(chatResponse))
	}))
	defer server.Close()

	caller := NewHTTPCaller(HTTPCallerConfig{BaseURL: server.URL, Timeout: 20 * time.Millisecond}, nil)
	_, err := caller.Call(context.Background(), "hi", "gpt-4o-mini", Options{})

	var toErr *TimeoutError
	if !errors.As(err, &toErr) {
		t.Fatalf("expected TimeoutError, got %v", err)
	}
}

func TestHTTPCaller_RequiresModel(t *testing.T) {
	caller := NewHTTPCaller(HTTPCallerConfig{BaseURL: "http://localhost"}, nil)
	_, err := caller.Call(context.Background(), "hi", "", Options{})

	var vErr *ValidationError
	if !errors.As(err, &vErr) {
		t.Fatalf("expected ValidationError, got %v", err)
	}
	if !strings.Contains(vErr.Error(), "model") {
		t.Errorf("expected model in message, got %q", vErr.Error())
	}
}
