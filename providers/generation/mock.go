package generation

import (
	"context"
	"fmt"
	"strings"
	"sync"
)

// Mock is a deterministic in-process Provider for tests and offline mode.
// It echoes a summary of the last user message so assertions can verify the
// prompt actually reached the generator. Tests can pin a fixed reply or
// force failures.
type Mock struct {
	mu    sync.RWMutex
	reply string
	err   error
	last  *Request
}

// NewMock creates a mock generation provider.
func NewMock() *Mock {
	return &Mock{}
}

func (m *Mock) Name() string { return "mock-generator" }

// WithReply pins the text returned by every subsequent call.
func (m *Mock) WithReply(text string) *Mock {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.reply = text
	return m
}

// FailWith makes every subsequent call return err. Pass nil to recover.
func (m *Mock) FailWith(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// LastRequest returns the most recent request, for prompt assertions.
func (m *Mock) LastRequest() *Request {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.last
}

// Generate produces a deterministic reply.
func (m *Mock) Generate(ctx context.Context, req *Request) (*Response, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.last = req
	if m.err != nil {
		return nil, m.err
	}
	if m.reply != "" {
		return &Response{Text: m.reply}, nil
	}

	question := ""
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == "user" {
			question = req.Messages[i].Content
			break
		}
	}
	return &Response{Text: fmt.Sprintf("Based on the knowledge graph context: %s", firstLine(question))}, nil
}

func firstLine(s string) string {
	if idx := strings.IndexByte(s, '\n'); idx >= 0 {
		return s[:idx]
	}
	return s
}
