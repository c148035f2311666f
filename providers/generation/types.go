package generation

import "context"

// Message is one prompt message in provider wire format.
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// Request is a generation request.
type Request struct {
	Messages    []Message `json:"messages"`
	MaxTokens   int       `json:"max_tokens,omitempty"`
	Temperature float64   `json:"temperature,omitempty"`
}

// Response is the generated text.
type Response struct {
	Text string `json:"response"`
}

// Provider turns a prompt into text. Implementations are selected at
// construction time; the orchestrator is written against this interface only.
type Provider interface {
	// Generate produces text for the given prompt, or a GENERATION_ERROR.
	Generate(ctx context.Context, req *Request) (*Response, error)

	// Name returns the provider name for logs and metrics.
	Name() string
}
