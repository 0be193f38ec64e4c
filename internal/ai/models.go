package ai

import (
	"errors"
	"strings"
)

// Role is the author of a Message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one provider-neutral chat turn.
type Message struct {
	Role    Role
	Content string
}

// Options are the sampling settings shared by every provider.
type Options struct {
	Model       string
	MaxTokens   int
	Temperature float64
}

const (
	DefaultGeminiModel = "gemini-2.0-flash"
	DefaultOpenAIModel = "gpt-3.5-turbo"
	DefaultMaxTokens   = 800
	DefaultTemperature = 0.7
)

var (
	// ErrEmptyReply is returned when the backend answered without any text.
	ErrEmptyReply = errors.New("empty completion reply")
	// ErrNoUserTurn is returned when the conversation does not end with a user message.
	ErrNoUserTurn = errors.New("conversation must end with a user message")
)

// splitConversation separates the system instructions, the prior history and
// the final user turn.
func splitConversation(messages []Message) (system string, history []Message, last Message, err error) {
	var sys []string
	rest := make([]Message, 0, len(messages))
	for _, m := range messages {
		if m.Role == RoleSystem {
			sys = append(sys, m.Content)
			continue
		}
		rest = append(rest, m)
	}
	if len(rest) == 0 || rest[len(rest)-1].Role != RoleUser {
		return "", nil, Message{}, ErrNoUserTurn
	}
	return strings.Join(sys, "\n\n"), rest[:len(rest)-1], rest[len(rest)-1], nil
}
