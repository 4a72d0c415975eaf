package providers

// Message is a single chat message in an OpenAI-compatible request.
type Message struct {
	// Role identifies the message sender (system, user)
	Role string `json:"role"`

	// Content is the message text content
	Content string `json:"content"`
}

// ChatRequest is the body HTTPCaller sends to /chat/completions.
type ChatRequest struct {
	Model       string    `json:"model"`
	Messages    []Message `json:"messages"`
	Temperature float64   `json:"temperature"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
}
