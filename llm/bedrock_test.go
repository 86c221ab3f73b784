package llm

import (
	"encoding/json"
	"testing"

	"github.com/m4xw311/askai/errors"
	"github.com/m4xw311/askai/session"
)

func TestConvertMessagesToAnthropicFormat(t *testing.T) {
	messages := []session.Message{
		{Role: "system", Content: "You are helpful."},
		{Role: "user", Content: "Hello, world!"},
		{Role: "assistant", Content: "Hello! How can I help you?"},
		{Role: "assistant", Content: ""},
	}

	result, system := convertMessagesToAnthropicFormat(messages)
	if len(result) != 2 {
		t.Fatalf("Expected 2 messages, got %d", len(result))
	}
	if system != "You are helpful." {
		t.Errorf("Expected system prompt to be extracted, got '%s'", system)
	}
	if result[0]["role"] != "user" {
		t.Errorf("Expected role 'user', got '%s'", result[0]["role"])
	}
	if result[1]["role"] != "assistant" {
		t.Errorf("Expected role 'assistant', got '%s'", result[1]["role"])
	}
}

func TestCreateAnthropicRequest(t *testing.T) {
	messages := []map[string]interface{}{
		{
			"role": "user",
			"content": []map[string]interface{}{
				{
					"type": "text",
					"text": "Hello!",
				},
			},
		},
	}

	body, err := createAnthropicRequest(messages, "", Options{})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	var decoded map[string]interface{}
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("Request body is not JSON: %v", err)
	}
	if decoded["max_tokens"] != float64(defaultMaxTokens) {
		t.Errorf("Expected default max_tokens, got %v", decoded["max_tokens"])
	}
	if _, ok := decoded["system"]; ok {
		t.Error("Expected no system field for empty prompt")
	}
	if _, ok := decoded["temperature"]; ok {
		t.Error("Expected no temperature field when unset")
	}

	body, err = createAnthropicRequest(messages, "Be brief.", Options{Temperature: Temperature(0.2), MaxTokens: 100})
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	decoded = nil
	if err := json.Unmarshal(body, &decoded); err != nil {
		t.Fatalf("Request body is not JSON: %v", err)
	}
	if decoded["system"] != "Be brief." || decoded["temperature"] != 0.2 || decoded["max_tokens"] != float64(100) {
		t.Errorf("Unexpected request: %s", body)
	}
}

func TestProcessBedrockResponse(t *testing.T) {
	body := []byte(`{"content":[{"type":"text","text":"Hello "},{"type":"tool_use","name":"x"},{"type":"text","text":"there"}]}`)
	got, err := processBedrockResponse(body)
	if err != nil {
		t.Fatalf("Unexpected error: %v", err)
	}
	if got != "Hello there" {
		t.Errorf("Expected 'Hello there', got '%s'", got)
	}

	_, err = processBedrockResponse([]byte(`{"error":"throttled"}`))
	if !errors.Is(err, errors.ErrProviderError) {
		t.Errorf("Expected provider error, got %v", err)
	}

	_, err = processBedrockResponse([]byte(`not json`))
	if !errors.Is(err, errors.ErrProviderError) {
		t.Errorf("Expected provider error, got %v", err)
	}
}
