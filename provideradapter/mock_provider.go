package provideradapter

import (
	"context"
	"fmt"
)

// MockProvider returns a configurable canned response (or error) without
// making any network call. Used by tests and the demo binary in place of
// a real OpenAI/Anthropic/Gemini/Ollama client.
type MockProvider struct {
	NameValue string
	Content   string
	FailWith  error
	Unhealthy bool
}

// NewMockProvider returns a MockProvider that always answers with content.
func NewMockProvider(name, content string) *MockProvider {
	return &MockProvider{NameValue: name, Content: content}
}

func (p *MockProvider) Name() string { return p.NameValue }

func (p *MockProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	if p.FailWith != nil {
		return CompletionResponse{}, p.FailWith
	}
	promptTokens := len(req.Prompt) / 4
	completionTokens := len(p.Content) / 4
	return CompletionResponse{
		Content: p.Content,
		TokenUsage: TokenUsage{
			Prompt:     promptTokens,
			Completion: completionTokens,
			Total:      promptTokens + completionTokens,
		},
		Model: "mock-model",
	}, nil
}

func (p *MockProvider) Healthy(ctx context.Context) bool { return !p.Unhealthy }

// EchoProvider answers by echoing the request prompt back, prefixed with
// a success marker, so adapter-level success/evidence heuristics have
// something deterministic to exercise without a MockProvider's fixed
// canned text.
type EchoProvider struct {
	NameValue string
}

// NewEchoProvider returns an EchoProvider named name.
func NewEchoProvider(name string) *EchoProvider {
	return &EchoProvider{NameValue: name}
}

func (p *EchoProvider) Name() string { return p.NameValue }

func (p *EchoProvider) Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error) {
	content := fmt.Sprintf("Status: success\n\nSummary: echoed request\n\nResults:\n%s\n\nEvidence: derived directly from the input prompt", req.Prompt)
	promptTokens := len(req.Prompt) / 4
	tokens := len(content) / 4
	return CompletionResponse{
		Content:    content,
		TokenUsage: TokenUsage{Prompt: promptTokens, Completion: tokens, Total: promptTokens + tokens},
		Model:      "echo-model",
	}, nil
}

func (p *EchoProvider) Healthy(ctx context.Context) bool { return true }
