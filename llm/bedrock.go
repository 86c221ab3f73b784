package llm

import (
	"context"
	"encoding/json"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/m4xw311/askai/errors"
	"github.com/m4xw311/askai/session"
)

// BedrockLLMClient is a client for the Anthropic models on AWS Bedrock.
type BedrockLLMClient struct {
	client *bedrockruntime.Client
	region string
}

// NewBedrockLLMClient creates a new BedrockLLMClient.
// It requires AWS credentials to be configured in the environment.
func NewBedrockLLMClient(ctx context.Context) (*BedrockLLMClient, error) {
	cfg, err := config.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, errors.Mark(errors.ErrProviderUnavailable, err, "failed to load AWS config")
	}

	region := cfg.Region
	if region == "" {
		region = os.Getenv("AWS_DEFAULT_REGION")
	}
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = "us-east-1" // Default region
	}
	cfg.Region = region

	var opts []func(*bedrockruntime.Options)
	// Custom endpoint, useful for testing against a local stub.
	if endpoint := os.Getenv("BEDROCK_ENDPOINT_URL"); endpoint != "" {
		opts = append(opts, func(o *bedrockruntime.Options) {
			o.BaseEndpoint = aws.String(endpoint)
		})
	}

	return &BedrockLLMClient{
		client: bedrockruntime.NewFromConfig(cfg, opts...),
		region: region,
	}, nil
}

// Complete sends the conversation to an Anthropic model via AWS Bedrock.
func (b *BedrockLLMClient) Complete(ctx context.Context, model string, messages []session.Message, opts Options) (string, error) {
	anthropicMessages, systemPrompt := convertMessagesToAnthropicFormat(messages)

	requestBody, err := createAnthropicRequest(anthropicMessages, systemPrompt, opts)
	if err != nil {
		return "", errors.Mark(errors.ErrProviderError, err, "failed to create Anthropic request")
	}

	resp, err := b.client.InvokeModel(ctx, &bedrockruntime.InvokeModelInput{
		ModelId:     aws.String(model),
		ContentType: aws.String("application/json"),
		Body:        requestBody,
	})
	if err != nil {
		return "", errors.Mark(errors.ErrProviderError, err, "failed to invoke Bedrock model in %s", b.region)
	}

	return processBedrockResponse(resp.Body)
}

// convertMessagesToAnthropicFormat converts our internal message format to Anthropic's format.
func convertMessagesToAnthropicFormat(messages []session.Message) ([]map[string]interface{}, string) {
	var anthropicMessages []map[string]interface{}
	var system []string

	for _, msg := range messages {
		switch msg.Role {
		case session.RoleUser, session.RoleAssistant:
			if msg.Content == "" {
				continue
			}
			anthropicMessages = append(anthropicMessages, map[string]interface{}{
				"role": msg.Role,
				"content": []map[string]interface{}{
					{
						"type": "text",
						"text": msg.Content,
					},
				},
			})
		case session.RoleSystem:
			system = append(system, msg.Content)
		}
	}

	return anthropicMessages, strings.Join(system, "\n\n")
}

// createAnthropicRequest creates the request body for Anthropic models on Bedrock.
func createAnthropicRequest(messages []map[string]interface{}, systemPrompt string, opts Options) ([]byte, error) {
	request := map[string]interface{}{
		"anthropic_version": "bedrock-2023-05-31",
		"max_tokens":        opts.maxTokens(),
		"messages":          messages,
	}

	if systemPrompt != "" {
		request["system"] = systemPrompt
	}
	if opts.Temperature != nil {
		request["temperature"] = *opts.Temperature
	}

	return json.Marshal(request)
}

// processBedrockResponse extracts the text blocks of a Bedrock response body.
func processBedrockResponse(body []byte) (string, error) {
	var response map[string]interface{}
	if err := json.Unmarshal(body, &response); err != nil {
		return "", errors.Mark(errors.ErrProviderError, err, "failed to unmarshal Bedrock response")
	}

	if errMsg, ok := response["error"]; ok {
		return "", errors.Mark(errors.ErrProviderError, nil, "Bedrock API error: %v", errMsg)
	}

	content, ok := response["content"]
	if !ok {
		return "", nil
	}

	contentArray, ok := content.([]interface{})
	if !ok {
		return "", errors.Mark(errors.ErrProviderError, nil, "unexpected content format in Bedrock response")
	}

	var responseContent string
	for _, item := range contentArray {
		itemMap, ok := item.(map[string]interface{})
		if !ok {
			continue
		}
		if itemType, _ := itemMap["type"].(string); itemType != "text" {
			continue
		}
		if text, ok := itemMap["text"].(string); ok {
			responseContent += text
		}
	}
	return responseContent, nil
}
