package llm

import (
	"context"
	"fmt"

	"github.com/tmc/langchaingo/llms/openai"
	"golang.org/x/time/rate"
)

// EmbedderConfig represents the configuration for the embeddings client.
type EmbedderConfig struct {
	BaseURL   string
	APIKey    string
	Model     string
	BatchSize int
	RateLimit float64 // requests per second against the embeddings API
}

// Embedder computes embedding vectors through an OpenAI-compatible API.
type Embedder struct {
	config  EmbedderConfig
	llm     *openai.LLM
	limiter *rate.Limiter
}

func NewEmbedderWithConfig(config EmbedderConfig) (*Embedder, error) {
	if config.BaseURL == "" {
		config.BaseURL = "https://api.openai.com/v1"
	}
	if config.Model == "" {
		config.Model = "text-embedding-3-small"
	}
	if config.BatchSize <= 0 {
		config.BatchSize = 32
	}
	if config.RateLimit <= 0 {
		config.RateLimit = 2
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("embeddings API key is required")
	}

	llm, err := openai.New(
		openai.WithBaseURL(config.BaseURL),
		openai.WithToken(config.APIKey),
		openai.WithEmbeddingModel(config.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize embeddings client: %w", err)
	}

	return &Embedder{
		config:  config,
		llm:     llm,
		limiter: rate.NewLimiter(rate.Limit(config.RateLimit), 1),
	}, nil
}

// Model returns the embedding model name. Cache entries created with a
// different model are stale.
func (e *Embedder) Model() string {
	return e.config.Model
}

// CreateEmbedding embeds the given texts in rate-limited batches. The result
// has one vector per input text, in input order.
func (e *Embedder) CreateEmbedding(ctx context.Context, texts []string) ([][]float32, error) {
	embeddings := make([][]float32, 0, len(texts))

	for start := 0; start < len(texts); start += e.config.BatchSize {
		end := start + e.config.BatchSize
		if end > len(texts) {
			end = len(texts)
		}

		if err := e.limiter.Wait(ctx); err != nil {
			return nil, err
		}

		batch, err := e.llm.CreateEmbedding(ctx, texts[start:end])
		if err != nil {
			return nil, fmt.Errorf("failed to create embeddings: %w", err)
		}
		if len(batch) != end-start {
			return nil, fmt.Errorf("embeddings API returned %d vectors for %d inputs", len(batch), end-start)
		}

		embeddings = append(embeddings, batch...)
	}

	return embeddings, nil
}
