package embed

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"
	"go.uber.org/zap"

	"pydata-graph/backend/pkg/errors"
	"pydata-graph/backend/pkg/logger"
)

// Embedder computes document embeddings via the OpenAI embeddings API.
// Stored on Document nodes alongside the text so downstream retrieval can
// search the graph semantically.
type Embedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
	logger *zap.Logger
}

// NewEmbedder creates a new embedder
func NewEmbedder(apiKey, model string) *Embedder {
	return &Embedder{
		client: openai.NewClient(apiKey),
		model:  openai.EmbeddingModel(model),
		logger: logger.Get(),
	}
}

// Embed returns the embedding vector for the given text
func (e *Embedder) Embed(ctx context.Context, text string) ([]float32, error) {
	resp, err := e.client.CreateEmbeddings(ctx, openai.EmbeddingRequest{
		Input: []string{text},
		Model: e.model,
	})
	if err != nil {
		return nil, errors.NewEmbedFailed(string(e.model), err)
	}
	if len(resp.Data) == 0 {
		return nil, errors.NewEmbedFailed(string(e.model), fmt.Errorf("empty embedding response"))
	}

	e.logger.Debug("Embedded document",
		zap.Int("text_length", len(text)),
		zap.Int("dimensions", len(resp.Data[0].Embedding)),
	)
	return resp.Data[0].Embedding, nil
}
