// Package index embeds variations and detects near duplicates among them.
package index

import (
	"context"
	"errors"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"
)

// TextEmbedder turns text into a vector.
type TextEmbedder interface {
	Embed(ctx context.Context, text string) ([]float32, error)
}

// Embedder generates vector embeddings via an OpenAI-compatible /v1/embeddings API.
type Embedder struct {
	client openai.Client
	model  string
}

// NewEmbedder creates an embedder for the given API endpoint.
func NewEmbedder(baseURL, apiKey, model string) *Embedder {
	opts := []option.RequestOption{
		option.WithBaseURL(baseURL),
		option.WithRequestTimeout(30 * time.Second),
	}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &Embedder{
		client: openai.NewClient(opts...),
		model:  model,
	}
}

// Model returns the embedding model name.
func (e *Embedder) Model() string { return e.model }

// Embed generates an embedding vector for the given text.
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	vectors, err := e.EmbedBatch(ctx, []string{text})
	if err != nil {
		return nil, err
	}
	if len(vectors) == 0 {
		return nil, errors.New("empty embedding response")
	}
	return vectors[0], nil
}

// EmbedBatch generates embeddings for multiple texts in a single request.
// Vectors are returned in input order.
func (e *Embedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	resp, err := e.client.Embeddings.New(ctx, openai.EmbeddingNewParams{
		Input: openai.EmbeddingNewParamsInputUnion{OfArrayOfStrings: texts},
		Model: openai.EmbeddingModel(e.model),
	})
	if err != nil {
		return nil, err
	}

	vectors := make([][]float32, len(texts))
	for i, item := range resp.Data {
		pos := int(item.Index)
		if pos < 0 || pos >= len(vectors) {
			pos = i
		}
		vec := make([]float32, len(item.Embedding))
		for j, v := range item.Embedding {
			vec[j] = float32(v)
		}
		vectors[pos] = vec
	}
	return vectors, nil
}

// Close is a no-op (no subprocess to manage).
func (e *Embedder) Close() {}
