package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

type Config struct {
	LLM struct {
		BaseURL     string  `yaml:"base_url"`
		APIKeyEnv   string  `yaml:"api_key_env"`
		Model       string  `yaml:"model"`
		MaxTokens   int     `yaml:"max_tokens"`
		Temperature float64 `yaml:"temperature"`
	} `yaml:"llm"`

	Embeddings struct {
		BaseURL   string  `yaml:"base_url"`
		APIKeyEnv string  `yaml:"api_key_env"`
		Model     string  `yaml:"model"`
		BatchSize int     `yaml:"batch_size"`
		RateLimit float64 `yaml:"rate_limit"`
	} `yaml:"embeddings"`

	Library struct {
		DocsDir         string `yaml:"docs_dir"`
		WatchDebounceMs int    `yaml:"watch_debounce_ms"`
	} `yaml:"library"`

	Store struct {
		Type     string `yaml:"type"`
		CacheDir string `yaml:"cache_dir"`
		Database struct {
			URL       string `yaml:"url"`
			TableName string `yaml:"table_name"`
			VectorDim int    `yaml:"vector_dim"`
			BatchSize int    `yaml:"batch_size"`
		} `yaml:"database"`
	} `yaml:"store"`

	Processor struct {
		ChunkSize      int `yaml:"chunk_size"`
		ChunkOverlap   int `yaml:"chunk_overlap"`
		MinChunkLength int `yaml:"min_chunk_length"`
	} `yaml:"processor"`

	Chat struct {
		TopK int `yaml:"top_k"`
		// Streaming is a pointer so an explicit false in the file survives
		// the defaulting pass
		Streaming *bool `yaml:"streaming"`
	} `yaml:"chat"`
}

func LoadConfig(path string) (*Config, error) {
	// If no path provided, try default locations
	if path == "" {
		locations := []string{
			"config.yaml",
			"config.yml",
			filepath.Join(os.Getenv("HOME"), ".config/pdfchat/config.yaml"),
			"/etc/pdfchat/config.yaml",
		}

		for _, loc := range locations {
			if _, err := os.Stat(loc); err == nil {
				path = loc
				break
			}
		}
	}

	if path == "" {
		return getDefaultConfig()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %v", err)
	}

	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("error parsing config file: %v", err)
	}

	// Merge with environment variables
	mergeWithEnv(&config)

	// Apply defaults for unset values
	applyDefaults(&config)

	return &config, nil
}

func getDefaultConfig() (*Config, error) {
	config := &Config{}
	applyDefaults(config)
	mergeWithEnv(config)
	return config, nil
}

func applyDefaults(config *Config) {
	if config.LLM.BaseURL == "" {
		config.LLM.BaseURL = "https://openrouter.ai/api/v1"
	}
	if config.LLM.APIKeyEnv == "" {
		config.LLM.APIKeyEnv = "OPENROUTER_API_KEY"
	}
	if config.LLM.Model == "" {
		config.LLM.Model = "openai/gpt-4o-mini"
	}
	if config.LLM.MaxTokens == 0 {
		config.LLM.MaxTokens = 2000
	}
	if config.LLM.Temperature == 0 {
		config.LLM.Temperature = 0.7
	}

	if config.Embeddings.BaseURL == "" {
		config.Embeddings.BaseURL = "https://api.openai.com/v1"
	}
	if config.Embeddings.APIKeyEnv == "" {
		config.Embeddings.APIKeyEnv = "OPENAI_API_KEY"
	}
	if config.Embeddings.Model == "" {
		config.Embeddings.Model = "text-embedding-3-small"
	}
	if config.Embeddings.BatchSize == 0 {
		config.Embeddings.BatchSize = 32
	}
	if config.Embeddings.RateLimit == 0 {
		config.Embeddings.RateLimit = 2.0
	}

	if config.Library.DocsDir == "" {
		config.Library.DocsDir = "data/pdf"
	}
	if config.Library.WatchDebounceMs == 0 {
		config.Library.WatchDebounceMs = 500
	}

	if config.Store.Type == "" {
		config.Store.Type = "cache"
	}
	if config.Store.CacheDir == "" {
		config.Store.CacheDir = "data/cache"
	}
	if config.Store.Database.TableName == "" {
		config.Store.Database.TableName = "documents"
	}
	if config.Store.Database.VectorDim == 0 {
		config.Store.Database.VectorDim = 1536
	}
	if config.Store.Database.BatchSize == 0 {
		config.Store.Database.BatchSize = 100
	}

	if config.Processor.ChunkSize == 0 {
		config.Processor.ChunkSize = 1000
	}
	if config.Processor.ChunkOverlap == 0 {
		config.Processor.ChunkOverlap = 200
	}
	if config.Processor.MinChunkLength == 0 {
		config.Processor.MinChunkLength = 100
	}

	if config.Chat.TopK == 0 {
		config.Chat.TopK = 3
	}
	if config.Chat.Streaming == nil {
		streaming := true
		config.Chat.Streaming = &streaming
	}
}

func mergeWithEnv(config *Config) {
	if baseURL := os.Getenv("LLM_BASE_URL"); baseURL != "" {
		config.LLM.BaseURL = baseURL
	}
	if baseURL := os.Getenv("EMBEDDINGS_BASE_URL"); baseURL != "" {
		config.Embeddings.BaseURL = baseURL
	}
	if dbURL := os.Getenv("DATABASE_URL"); dbURL != "" {
		config.Store.Database.URL = dbURL
	}
}
