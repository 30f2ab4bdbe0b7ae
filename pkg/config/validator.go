package config

import (
	"fmt"
	"net/url"
)

type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

func (c *Config) Validate() []ValidationError {
	var errors []ValidationError

	// Validate LLM config
	if c.LLM.BaseURL == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "LLM base URL is required",
		})
	} else if _, err := url.Parse(c.LLM.BaseURL); err != nil {
		errors = append(errors, ValidationError{
			Field:   "llm.base_url",
			Message: "invalid LLM base URL",
		})
	}

	if c.LLM.APIKeyEnv == "" {
		errors = append(errors, ValidationError{
			Field:   "llm.api_key_env",
			Message: "api_key_env is required",
		})
	}

	if c.LLM.MaxTokens < 1 || c.LLM.MaxTokens > 4096 {
		errors = append(errors, ValidationError{
			Field:   "llm.max_tokens",
			Message: "max_tokens must be between 1 and 4096",
		})
	}

	if c.LLM.Temperature < 0 || c.LLM.Temperature > 2 {
		errors = append(errors, ValidationError{
			Field:   "llm.temperature",
			Message: "temperature must be between 0 and 2",
		})
	}

	// Validate embeddings config
	if c.Embeddings.BaseURL == "" {
		errors = append(errors, ValidationError{
			Field:   "embeddings.base_url",
			Message: "embeddings base URL is required",
		})
	}

	if c.Embeddings.Model == "" {
		errors = append(errors, ValidationError{
			Field:   "embeddings.model",
			Message: "embeddings model is required",
		})
	}

	if c.Embeddings.BatchSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "embeddings.batch_size",
			Message: "batch_size must be positive",
		})
	}

	if c.Embeddings.RateLimit <= 0 {
		errors = append(errors, ValidationError{
			Field:   "embeddings.rate_limit",
			Message: "rate_limit must be positive",
		})
	}

	// Validate library config
	if c.Library.DocsDir == "" {
		errors = append(errors, ValidationError{
			Field:   "library.docs_dir",
			Message: "docs_dir is required",
		})
	}

	// Validate store config
	switch c.Store.Type {
	case "cache":
		if c.Store.CacheDir == "" {
			errors = append(errors, ValidationError{
				Field:   "store.cache_dir",
				Message: "cache_dir is required for the cache store",
			})
		}
	case "pgvector":
		if c.Store.Database.URL == "" {
			errors = append(errors, ValidationError{
				Field:   "store.database.url",
				Message: "database URL is required for the pgvector store",
			})
		} else if _, err := url.Parse(c.Store.Database.URL); err != nil {
			errors = append(errors, ValidationError{
				Field:   "store.database.url",
				Message: "invalid database URL",
			})
		}

		if c.Store.Database.VectorDim < 1 {
			errors = append(errors, ValidationError{
				Field:   "store.database.vector_dim",
				Message: "vector_dim must be positive",
			})
		}

		if c.Store.Database.BatchSize < 1 {
			errors = append(errors, ValidationError{
				Field:   "store.database.batch_size",
				Message: "batch_size must be positive",
			})
		}
	default:
		errors = append(errors, ValidationError{
			Field:   "store.type",
			Message: fmt.Sprintf("unknown store type: %s", c.Store.Type),
		})
	}

	// Validate processor config
	if c.Processor.ChunkSize < 1 {
		errors = append(errors, ValidationError{
			Field:   "processor.chunk_size",
			Message: "chunk_size must be positive",
		})
	}

	if c.Processor.ChunkOverlap < 0 || c.Processor.ChunkOverlap >= c.Processor.ChunkSize {
		errors = append(errors, ValidationError{
			Field:   "processor.chunk_overlap",
			Message: "chunk_overlap must be non-negative and less than chunk_size",
		})
	}

	// Validate chat config
	if c.Chat.TopK < 1 {
		errors = append(errors, ValidationError{
			Field:   "chat.top_k",
			Message: "top_k must be positive",
		})
	}

	return errors
}
