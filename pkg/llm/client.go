// Package llm wraps the chat-completion provider used by AI nodes.
package llm

import (
	"context"
)

// Request is one completion request assembled from a prompt-library entry
// and the rendered conversation context.
type Request struct {
	Model        string
	SystemPrompt string
	UserPrompt   string
	Temperature  float64
}

// Response is the model's reply. Confidence is self-reported by the model
// when the prompt asks for it, and defaults to 1.0 otherwise.
type Response struct {
	Reply      string  `json:"reply"`
	Confidence float64 `json:"confidence"`
	Model      string  `json:"model,omitempty"`
}

// Client produces completions.
type Client interface {
	Complete(ctx context.Context, req Request) (*Response, error)
}
