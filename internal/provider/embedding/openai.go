// Package embedding provides the optional embedding backend for semantic
// knowledge-base matching, implemented against an OpenAI-compatible
// embeddings endpoint. Deployments without an API key simply run without
// semantic matching.
package embedding

import (
	"context"
	"fmt"

	openai "github.com/sashabaranov/go-openai"
)

const defaultModel = string(openai.SmallEmbedding3)

// Client calls an OpenAI-compatible embeddings API.
type Client struct {
	api   *openai.Client
	model string
}

// Option configures the client
type Option func(*Client)

// WithModel overrides the embedding model
func WithModel(model string) Option {
	return func(c *Client) {
		c.model = model
	}
}

// NewClient creates an embedding client. baseURL may be empty for the
// default OpenAI endpoint, or point at any compatible server.
func NewClient(apiKey, baseURL string, opts ...Option) *Client {
	cfg := openai.DefaultConfig(apiKey)
	if baseURL != "" {
		cfg.BaseURL = baseURL
	}

	c := &Client{
		api:   openai.NewClientWithConfig(cfg),
		model: defaultModel,
	}

	for _, opt := range opts {
		opt(c)
	}

	return c
}

// Embed encodes text into a fixed-size vector.
func (c *Client) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := c.api.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: openai.EmbeddingModel(c.model),
	})
	if err != nil {
		return nil, fmt.Errorf("embedding request failed: %w", err)
	}
	if len(resp.Data) == 0 {
		return nil, fmt.Errorf("embedding response contained no vectors")
	}
	return resp.Data[0].Embedding, nil
}
