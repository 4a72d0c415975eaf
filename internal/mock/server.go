package mock

import (
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sync"
	"time"

	"github.com/goccy/go-json"
)

// ChatCompletionsPath is the path served by OpenAI-compatible APIs.
const ChatCompletionsPath = "/chat/completions"

// Server is an OpenAI-compatible HTTP API for tests. Queued responses are
// served first, in order; after that the fixed response for the path is
// served, or 404.
type Server struct {
	server *httptest.Server

	mu        sync.Mutex
	responses map[string]Response
	queue     map[string][]Response
	bodies    [][]byte
}

// Response is one scripted HTTP response.
type Response struct {
	StatusCode int
	Body       interface{}
	Delay      time.Duration
	Headers    map[string]string
}

// NewServer starts a server. Close it when done.
func NewServer() *Server {
	s := &Server{
		responses: make(map[string]Response),
		queue:     make(map[string][]Response),
	}
	s.server = httptest.NewServer(http.HandlerFunc(s.handler))
	return s
}

// URL returns the server's base URL.
func (s *Server) URL() string {
	return s.server.URL
}

// Close stops the server.
func (s *Server) Close() {
	s.server.Close()
}

// SetResponse sets the response served for path once the queue is empty.
func (s *Server) SetResponse(path string, r Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.responses[path] = r
}

// Enqueue adds one-shot responses for path.
func (s *Server) Enqueue(path string, rs ...Response) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.queue[path] = append(s.queue[path], rs...)
}

// RequestCount returns the number of requests received.
func (s *Server) RequestCount() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bodies)
}

// Bodies returns the request bodies received, in order.
func (s *Server) Bodies() [][]byte {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([][]byte, len(s.bodies))
	copy(out, s.bodies)
	return out
}

func (s *Server) handler(w http.ResponseWriter, r *http.Request) {
	body, _ := io.ReadAll(r.Body)

	s.mu.Lock()
	s.bodies = append(s.bodies, body)
	resp, ok := s.responses[r.URL.Path]
	if q := s.queue[r.URL.Path]; len(q) > 0 {
		resp, ok = q[0], true
		s.queue[r.URL.Path] = q[1:]
	}
	s.mu.Unlock()

	if !ok {
		http.NotFound(w, r)
		return
	}

	if resp.Delay > 0 {
		select {
		case <-time.After(resp.Delay):
		case <-r.Context().Done():
			return
		}
	}

	for k, v := range resp.Headers {
		w.Header().Set(k, v)
	}
	w.Header().Set("Content-Type", "application/json")
	if resp.StatusCode == 0 {
		resp.StatusCode = http.StatusOK
	}
	w.WriteHeader(resp.StatusCode)

	switch v := resp.Body.(type) {
	case nil:
	case string:
		_, _ = w.Write([]byte(v))
	case []byte:
		_, _ = w.Write(v)
	default:
		_ = json.NewEncoder(w).Encode(v)
	}
}

// ChatCompletion builds an OpenAI chat completion body with the given usage.
func ChatCompletion(content, model string, promptTokens, completionTokens int) map[string]interface{} {
	return map[string]interface{}{
		"id":      "chatcmpl-123",
		"object":  "chat.completion",
		"created": time.Now().Unix(),
		"model":   model,
		"choices": []map[string]interface{}{
			{
				"index": 0,
				"message": map[string]interface{}{
					"role":    "assistant",
					"content": content,
				},
				"finish_reason": "stop",
			},
		},
		"usage": map[string]interface{}{
			"prompt_tokens":     promptTokens,
			"completion_tokens": completionTokens,
			"total_tokens":      promptTokens + completionTokens,
		},
	}
}

// ErrorResponse builds an OpenAI-style error response.
func ErrorResponse(statusCode int, message string) Response {
	return Response{
		StatusCode: statusCode,
		Body: map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
				"type":    "invalid_request_error",
				"code":    statusCode,
			},
		},
	}
}

// RateLimitError builds a 429 response with Retry-After.
func RateLimitError(retryAfter int) Response {
	r := ErrorResponse(http.StatusTooManyRequests, "Rate limit exceeded")
	r.Headers = map[string]string{"Retry-After": fmt.Sprintf("%d", retryAfter)}
	return r
}

// ServerError builds a 500 response.
func ServerError() Response {
	return ErrorResponse(http.StatusInternalServerError, "Internal server error")
}

// AuthError builds a 401 response.
func AuthError() Response {
	return ErrorResponse(http.StatusUnauthorized, "Invalid API key")
}
