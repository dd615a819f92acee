package provideradapter

import (
	"context"
	"fmt"
	"strings"
)

// CompletionRequest is what a Provider receives to produce a completion.
// Model is left for the provider to choose unless explicitly set.
type CompletionRequest struct {
	Prompt      string
	MaxTokens   int
	Temperature float64
	Stream      bool
	Model       string
}

// CompletionResponse is a provider's answer to a CompletionRequest.
type CompletionResponse struct {
	Content    string
	TokenUsage TokenUsage
	Model      string
}

// Provider is a single LLM backend. Concrete HTTP-backed providers
// (OpenAI, Anthropic, Gemini, Ollama) are out of scope for this module;
// only the interface they would implement is fixed here, alongside the
// two deterministic, no-network implementations below used for tests and
// the demo binary.
type Provider interface {
	Name() string
	Complete(ctx context.Context, req CompletionRequest) (CompletionResponse, error)
	Healthy(ctx context.Context) bool
}

// ProviderManager resolves a CompletionRequest against an ordered set of
// providers, trying the preferred one first and falling through to the
// rest on any failure.
type ProviderManager interface {
	CompleteWithFallback(ctx context.Context, req CompletionRequest, preferred string) (CompletionResponse, string, error)
	HealthCheckAll(ctx context.Context) map[string]bool
	ProviderNames() []string
}

// FallbackProviderManager is the default ProviderManager: an ordered list
// of named providers, tried preferred-first and then in registration order.
type FallbackProviderManager struct {
	providers []Provider
	byName    map[string]Provider
}

// NewFallbackProviderManager returns a manager over providers, tried in
// the given order when no preference is supplied or the preference isn't
// found.
func NewFallbackProviderManager(providers ...Provider) *FallbackProviderManager {
	byName := make(map[string]Provider, len(providers))
	for _, p := range providers {
		byName[p.Name()] = p
	}
	return &FallbackProviderManager{providers: providers, byName: byName}
}

// CompleteWithFallback tries preferred first (if named and registered),
// then every other provider in registration order, returning the first
// success. If every provider fails, it returns the last error.
func (m *FallbackProviderManager) CompleteWithFallback(ctx context.Context, req CompletionRequest, preferred string) (CompletionResponse, string, error) {
	order := m.orderedProviders(preferred)
	if len(order) == 0 {
		return CompletionResponse{}, "", fmt.Errorf("provideradapter: no providers configured")
	}

	var lastErr error
	for _, p := range order {
		resp, err := p.Complete(ctx, req)
		if err == nil {
			return resp, p.Name(), nil
		}
		lastErr = &ProviderError{Provider: p.Name(), Message: "completion failed", Err: err}
	}
	return CompletionResponse{}, "", lastErr
}

// orderedProviders puts preferred first (if it exists), followed by the
// rest in registration order.
func (m *FallbackProviderManager) orderedProviders(preferred string) []Provider {
	if preferred == "" {
		return m.providers
	}
	first, ok := m.byName[strings.TrimSpace(preferred)]
	if !ok {
		return m.providers
	}

	ordered := make([]Provider, 0, len(m.providers))
	ordered = append(ordered, first)
	for _, p := range m.providers {
		if p.Name() != first.Name() {
			ordered = append(ordered, p)
		}
	}
	return ordered
}

// HealthCheckAll reports each provider's health by name.
func (m *FallbackProviderManager) HealthCheckAll(ctx context.Context) map[string]bool {
	health := make(map[string]bool, len(m.providers))
	for _, p := range m.providers {
		health[p.Name()] = p.Healthy(ctx)
	}
	return health
}

// ProviderNames returns every registered provider's name, in registration order.
func (m *FallbackProviderManager) ProviderNames() []string {
	names := make([]string, len(m.providers))
	for i, p := range m.providers {
		names[i] = p.Name()
	}
	return names
}
