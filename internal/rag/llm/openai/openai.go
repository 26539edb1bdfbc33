package openai

import (
	"context"
	"errors"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
	"github.com/pharma-intellect/pharmarag/pkg/logging"
)

type Client struct {
	client openai.Client
	model  string
	logger *logging.Logger
}

// New builds the chat-completion client. A missing key is a
// misconfiguration, not a crash: the caller logs it and runs without an
// LLM, falling back to templated answers.
func New(apikey string, modelName string) (*Client, error) {
	if apikey == "" {
		return nil, errors.New("OPENAI_API_KEY is not set")
	}

	logger := logging.NewLogger("llm_openai")
	logger.Info("OpenAI client created", "model", modelName)
	return &Client{
		client: openai.NewClient(option.WithAPIKey(apikey)),
		model:  modelName,
		logger: logger,
	}, nil
}

func (c *Client) Complete(ctx context.Context, systemPrompt, userPrompt string, maxTokens int64, temperature float64) (string, error) {
	resp, err := c.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(c.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(systemPrompt),
			openai.UserMessage(userPrompt),
		},
		Temperature: openai.Float(temperature),
		MaxTokens:   openai.Int(maxTokens),
	})
	if err != nil {
		c.logger.Error("Chat completion failed", "error", err)
		return "", err
	}
	if len(resp.Choices) == 0 {
		return "", fmt.Errorf("completion for model %s returned no choices", c.model)
	}
	return resp.Choices[0].Message.Content, nil
}
