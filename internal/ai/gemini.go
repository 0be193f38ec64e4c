package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/generative-ai-go/genai"
	"google.golang.org/api/option"
)

// GeminiProvider implements CompletionProvider using Google's Gemini models.
type GeminiProvider struct {
	client *genai.Client
	opts   Options
}

// NewGeminiProvider initializes a new Gemini client.
// apiKey should be provided from environment variables.
func NewGeminiProvider(ctx context.Context, apiKey string, opts Options) (*GeminiProvider, error) {
	if strings.TrimSpace(apiKey) == "" {
		return nil, fmt.Errorf("gemini: missing api key")
	}
	client, err := genai.NewClient(ctx, option.WithAPIKey(apiKey))
	if err != nil {
		return nil, fmt.Errorf("failed to create Gemini client: %w", err)
	}
	if opts.Model == "" {
		opts.Model = DefaultGeminiModel
	}
	return &GeminiProvider{client: client, opts: opts}, nil
}

// Close cleans up the Gemini client resources.
func (p *GeminiProvider) Close() {
	p.client.Close()
}

func (p *GeminiProvider) Name() string { return "gemini" }

// Complete maps the system message to SystemInstruction and replays the rest
// as chat history before sending the final user turn.
func (p *GeminiProvider) Complete(ctx context.Context, messages []Message) (string, error) {
	system, history, last, err := splitConversation(messages)
	if err != nil {
		return "", err
	}

	// GenerativeModel carries per-request state, so build one per call.
	model := p.client.GenerativeModel(p.opts.Model)
	if p.opts.Temperature > 0 {
		model.SetTemperature(float32(p.opts.Temperature))
	}
	if p.opts.MaxTokens > 0 {
		model.SetMaxOutputTokens(int32(p.opts.MaxTokens))
	}
	if system != "" {
		model.SystemInstruction = &genai.Content{Parts: []genai.Part{genai.Text(system)}}
	}

	cs := model.StartChat()
	cs.History = toGeminiHistory(history)

	resp, err := cs.SendMessage(ctx, genai.Text(last.Content))
	if err != nil {
		return "", fmt.Errorf("gemini generation error: %w", err)
	}
	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil {
		return "", fmt.Errorf("gemini: %w", ErrEmptyReply)
	}

	reply := joinText(resp.Candidates[0].Content.Parts)
	if reply == "" {
		return "", fmt.Errorf("gemini: %w", ErrEmptyReply)
	}
	return reply, nil
}

func toGeminiHistory(history []Message) []*genai.Content {
	out := make([]*genai.Content, 0, len(history))
	for _, m := range history {
		role := "user"
		if m.Role == RoleAssistant {
			role = "model"
		}
		out = append(out, &genai.Content{Role: role, Parts: []genai.Part{genai.Text(m.Content)}})
	}
	return out
}

func joinText(parts []genai.Part) string {
	var textParts []string
	for _, part := range parts {
		txt, ok := part.(genai.Text)
		if !ok || strings.TrimSpace(string(txt)) == "" {
			continue
		}
		textParts = append(textParts, string(txt))
	}
	return strings.Join(textParts, "\n")
}
