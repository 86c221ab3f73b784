package llm

import (
	"context"
	"strings"
	"testing"

	"github.com/m4xw311/askai/config"
	"github.com/m4xw311/askai/errors"
	"github.com/m4xw311/askai/session"
)

func TestNewClientMissingCredentials(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "")
	t.Setenv("ANTHROPIC_API_KEY", "")
	t.Setenv("GEMINI_API_KEY", "")

	for _, provider := range []string{config.ProviderOpenAI, config.ProviderAnthropic, config.ProviderGemini, "nope"} {
		_, err := NewClient(context.Background(), provider)
		if !errors.Is(err, errors.ErrProviderUnavailable) {
			t.Errorf("%s: expected ErrProviderUnavailable, got %v", provider, err)
		}
	}
}

func TestNewClientWithCredentials(t *testing.T) {
	t.Setenv("OPENAI_API_KEY", "test-key")
	t.Setenv("ANTHROPIC_API_KEY", "test-key")

	for _, provider := range []string{config.ProviderOpenAI, config.ProviderAnthropic, config.ProviderMock} {
		client, err := NewClient(context.Background(), provider)
		if err != nil {
			t.Fatalf("%s: unexpected error: %v", provider, err)
		}
		if client == nil {
			t.Fatalf("%s: nil client", provider)
		}
	}
}

func TestMockLLMClient(t *testing.T) {
	client := &MockLLMClient{}
	reply, err := client.Complete(context.Background(), "mock-light", []session.Message{
		{Role: "system", Content: "sys"},
		{Role: "user", Content: "hello"},
	}, Options{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if !strings.Contains(reply, "hello") || !strings.Contains(reply, "mock-light") {
		t.Errorf("Unexpected reply: %s", reply)
	}
}

func TestScriptedLLMClient(t *testing.T) {
	client := &ScriptedLLMClient{Replies: []string{"one", "ERROR: boom", "three"}}
	ctx := context.Background()
	msgs := []session.Message{{Role: "user", Content: "q"}}

	if got, _ := client.Complete(ctx, "m1", msgs, Options{}); got != "one" {
		t.Errorf("Expected 'one', got '%s'", got)
	}
	if _, err := client.Complete(ctx, "m2", msgs, Options{}); !errors.Is(err, errors.ErrProviderError) {
		t.Errorf("Expected provider error, got %v", err)
	}
	client.Complete(ctx, "m3", msgs, Options{})
	if got, _ := client.Complete(ctx, "m4", msgs, Options{}); got != "three" {
		t.Errorf("Expected last reply to repeat, got '%s'", got)
	}
	if len(client.Calls) != 4 || client.Calls[1].Model != "m2" {
		t.Errorf("Unexpected calls: %+v", client.Calls)
	}
}

func TestConvertMessagesToGeminiContent(t *testing.T) {
	contents, system := convertMessagesToGeminiContent([]session.Message{
		{Role: "system", Content: "rules"},
		{Role: "user", Content: "q"},
		{Role: "assistant", Content: "a"},
	})
	if system != "rules" {
		t.Errorf("Expected system 'rules', got '%s'", system)
	}
	if len(contents) != 2 || contents[0].Role != "user" || contents[1].Role != "model" {
		t.Errorf("Unexpected contents: %+v", contents)
	}
}

func TestConvertMessagesToAnthropicMessages(t *testing.T) {
	msgs, system := convertMessagesToAnthropicMessages([]session.Message{
		{Role: "system", Content: "a"},
		{Role: "system", Content: "b"},
		{Role: "user", Content: "q"},
		{Role: "assistant", Content: ""},
		{Role: "assistant", Content: "r"},
	})
	if system != "a\n\nb" {
		t.Errorf("Unexpected system prompt %q", system)
	}
	if len(msgs) != 2 {
		t.Errorf("Expected 2 messages, got %d", len(msgs))
	}
}

func TestConvertMessagesToOpenaiContent(t *testing.T) {
	msgs := convertMessagesToOpenaiContent([]session.Message{
		{Role: "system", Content: "s"},
		{Role: "user", Content: "q"},
		{Role: "assistant", Content: "a"},
	})
	if len(msgs) != 3 {
		t.Fatalf("Expected 3 messages, got %d", len(msgs))
	}
	if msgs[0].OfSystem == nil || msgs[1].OfUser == nil || msgs[2].OfAssistant == nil {
		t.Errorf("Unexpected message variants: %+v", msgs)
	}
}
