package ai

import (
	"context"
	"time"
)

// CompletionProvider defines the contract for chat-completion backends.
// Gemini and OpenAI implementations are interchangeable behind it.
type CompletionProvider interface {
	// Complete sends the conversation and returns the assistant's reply text.
	// messages may start with a RoleSystem entry; the last entry is the user turn.
	Complete(ctx context.Context, messages []Message) (string, error)

	// Name identifies the backend in logs and metrics.
	Name() string
}

// WithTimeout bounds every Complete call of p by d.
func WithTimeout(p CompletionProvider, d time.Duration) CompletionProvider {
	if d <= 0 {
		return p
	}
	return timeoutProvider{next: p, timeout: d}
}

type timeoutProvider struct {
	next    CompletionProvider
	timeout time.Duration
}

func (t timeoutProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, t.timeout)
	defer cancel()
	return t.next.Complete(ctx, messages)
}

func (t timeoutProvider) Name() string { return t.next.Name() }
