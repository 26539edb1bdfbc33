package google

import (
	"context"
	"fmt"
	"time"

	"github.com/pharma-intellect/pharmarag/internal/config"
	"github.com/pharma-intellect/pharmarag/pkg/logging"
	"google.golang.org/genai"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

var dimension int32 = config.EmbeddingDimension

type Client struct {
	genAi  *genai.Client
	model  string
	logger *logging.Logger
}

func New(ctx context.Context, modelName string, apikey string) (*Client, error) {
	c, err := genai.NewClient(ctx, &genai.ClientConfig{APIKey: apikey})
	if err != nil {
		return nil, fmt.Errorf("creating embedding client: %w", err)
	}

	logger := logging.NewLogger("google_embedding")
	logger.Info("Google embedding client created", "model", modelName)
	return &Client{
		genAi:  c,
		model:  modelName,
		logger: logger,
	}, nil
}

func (c *Client) EmbedDocument(ctx context.Context, text string) ([]float32, error) {
	return c.embed(ctx, text, "RETRIEVAL_DOCUMENT")
}

func (c *Client) EmbedQuery(ctx context.Context, text string) ([]float32, error) {
	return c.embed(ctx, text, "RETRIEVAL_QUERY")
}

func (c *Client) embed(ctx context.Context, text string, taskType string) ([]float32, error) {
	conf := &genai.EmbedContentConfig{
		OutputDimensionality: &dimension,
		TaskType:             taskType,
	}

	result, err := c.genAi.Models.EmbedContent(ctx, c.model, genai.Text(text), conf)
	if err != nil && isRateLimited(err) {
		c.logger.Warn("Rate limit hit, retrying in 5 seconds", "error", err)
		time.Sleep(5 * time.Second)
		result, err = c.genAi.Models.EmbedContent(ctx, c.model, genai.Text(text), conf)
	}
	if err != nil {
		c.logger.Error("Error getting embedding from Google", "error", err.Error())
		return nil, err
	}
	if len(result.Embeddings) == 0 {
		return nil, fmt.Errorf("embedding response for %q carried no vectors", taskType)
	}
	return result.Embeddings[0].Values, nil
}

func isRateLimited(err error) bool {
	if s, ok := status.FromError(err); ok {
		return s.Code() == codes.ResourceExhausted
	}
	return false
}
