package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/m4xw311/askai/config"
	"github.com/m4xw311/askai/errors"
	"github.com/m4xw311/askai/session"
)

const defaultMaxTokens = 4096

// Options tune a single completion.
type Options struct {
	// Temperature is left to the provider default when nil.
	Temperature *float64
	// MaxTokens defaults to 4096 when zero.
	MaxTokens int
}

func (o Options) maxTokens() int {
	if o.MaxTokens > 0 {
		return o.MaxTokens
	}
	return defaultMaxTokens
}

// Temperature is a convenience for filling Options.Temperature.
func Temperature(t float64) *float64 { return &t }

// LLMClient is the interface for interacting with a Large Language Model.
// The model is chosen per call so one client serves both tiers of a provider.
type LLMClient interface {
	Complete(ctx context.Context, model string, messages []session.Message, opts Options) (string, error)
}

// NewClient builds the client for a provider name from the config package.
// Missing credentials fail with errors.ErrProviderUnavailable.
func NewClient(ctx context.Context, provider string) (LLMClient, error) {
	switch provider {
	case config.ProviderOpenAI:
		return NewOpenAILLMClient(ctx)
	case config.ProviderAnthropic:
		return NewAnthropicLLMClient(ctx)
	case config.ProviderGemini:
		return NewGeminiLLMClient(ctx)
	case config.ProviderBedrock:
		return NewBedrockLLMClient(ctx)
	case config.ProviderMock:
		return &MockLLMClient{}, nil
	}
	return nil, errors.Mark(errors.ErrProviderUnavailable, nil, "unknown provider '%s'", provider)
}

// MockLLMClient parrots the last user message back. It backs the "mock"
// provider, which is useful offline.
type MockLLMClient struct{}

func (m *MockLLMClient) Complete(ctx context.Context, model string, messages []session.Message, opts Options) (string, error) {
	var lastUserMessage string
	for i := len(messages) - 1; i >= 0; i-- {
		if messages[i].Role == session.RoleUser {
			lastUserMessage = messages[i].Content
			break
		}
	}
	return fmt.Sprintf("I am a mock LLM (%s). You said: '%s'.", model, lastUserMessage), nil
}

// Call records one Complete invocation of a ScriptedLLMClient.
type Call struct {
	Model    string
	Messages []session.Message
	Options  Options
}

// ScriptedLLMClient returns canned replies in order and records every call.
// Once the script runs out it repeats the last reply. A reply beginning with
// "ERROR:" is returned as a provider error instead.
type ScriptedLLMClient struct {
	Replies []string
	Calls   []Call
}

func (s *ScriptedLLMClient) Complete(ctx context.Context, model string, messages []session.Message, opts Options) (string, error) {
	msgs := make([]session.Message, len(messages))
	copy(msgs, messages)
	s.Calls = append(s.Calls, Call{Model: model, Messages: msgs, Options: opts})

	if len(s.Replies) == 0 {
		return "", nil
	}
	i := len(s.Calls) - 1
	if i >= len(s.Replies) {
		i = len(s.Replies) - 1
	}
	reply := s.Replies[i]
	if msg, ok := strings.CutPrefix(reply, "ERROR:"); ok {
		return "", errors.Mark(errors.ErrProviderError, nil, "%s", strings.TrimSpace(msg))
	}
	return reply, nil
}
