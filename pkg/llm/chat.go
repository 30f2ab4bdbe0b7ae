package llm

import (
	"context"
	"fmt"
	"strings"

	"github.com/tmc/langchaingo/llms"
	"github.com/tmc/langchaingo/llms/openai"

	"pdfchat/internal/models"
)

// ChatConfig represents the configuration for a chat engine.
type ChatConfig struct {
	BaseURL         string
	APIKey          string
	Model           string
	Temperature     float64
	MaxTokens       int
	SystemTemplate  string
	ContextTemplate string
}

// ChatEngine is an engine that uses a hosted LLM to answer questions over
// retrieved document passages.
type ChatEngine struct {
	config ChatConfig
	llm    llms.Model
}

// NewWithConfig creates a new ChatEngine with the given configuration.
func NewWithConfig(config ChatConfig) (*ChatEngine, error) {
	if config.BaseURL == "" {
		config.BaseURL = "https://openrouter.ai/api/v1"
	}
	if config.Model == "" {
		config.Model = "openai/gpt-4o-mini"
	}
	if config.Temperature < 0 || config.Temperature > 2 {
		return nil, fmt.Errorf("temperature must be between 0 and 2")
	}
	if config.Temperature == 0 {
		config.Temperature = 0.7
	}
	if config.MaxTokens < 0 {
		return nil, fmt.Errorf("max tokens cannot be negative")
	} else if config.MaxTokens == 0 {
		config.MaxTokens = 2000
	}
	if config.SystemTemplate == "" {
		config.SystemTemplate = "You are a helpful assistant answering questions about the user's documents. " +
			"Answer using only the provided context. If the context does not contain the answer, " +
			"say that you could not find it in the documents."
	}
	if config.ContextTemplate == "" {
		config.ContextTemplate = "Context:\n%s\n\nQuestion: %s"
	}
	if config.APIKey == "" {
		return nil, fmt.Errorf("LLM API key is required")
	}

	llm, err := openai.New(
		openai.WithBaseURL(config.BaseURL),
		openai.WithToken(config.APIKey),
		openai.WithModel(config.Model),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize LLM: %w", err)
	}

	return &ChatEngine{
		config: config,
		llm:    llm,
	}, nil
}

// Chat generates an answer for the query grounded in the retrieved passages.
func (ce *ChatEngine) Chat(ctx context.Context, query string, results []models.SearchResult) (string, error) {
	response, err := ce.llm.GenerateContent(ctx, ce.buildMessages(query, results),
		llms.WithMaxTokens(ce.config.MaxTokens),
		llms.WithTemperature(ce.config.Temperature),
	)
	if err != nil {
		return "", fmt.Errorf("chat error: %w", err)
	}
	if len(response.Choices) == 0 {
		return "", fmt.Errorf("no response from LLM")
	}

	return response.Choices[0].Content, nil
}

// ChatStream is like Chat but delivers the answer incrementally through fn as
// tokens arrive from the API.
func (ce *ChatEngine) ChatStream(ctx context.Context, query string, results []models.SearchResult, fn func(chunk string)) error {
	_, err := ce.llm.GenerateContent(ctx, ce.buildMessages(query, results),
		llms.WithMaxTokens(ce.config.MaxTokens),
		llms.WithTemperature(ce.config.Temperature),
		llms.WithStreamingFunc(func(_ context.Context, chunk []byte) error {
			fn(string(chunk))
			return nil
		}),
	)
	if err != nil {
		return fmt.Errorf("chat error: %w", err)
	}

	return nil
}

func (ce *ChatEngine) buildMessages(query string, results []models.SearchResult) []llms.MessageContent {
	prompt := fmt.Sprintf(ce.config.ContextTemplate, ce.buildContext(results), query)

	return []llms.MessageContent{
		llms.TextParts(llms.ChatMessageTypeSystem, ce.config.SystemTemplate),
		llms.TextParts(llms.ChatMessageTypeHuman, prompt),
	}
}

func (ce *ChatEngine) buildContext(results []models.SearchResult) string {
	if len(results) == 0 {
		return "(no relevant passages were found)"
	}

	var contextBuilder strings.Builder
	for _, res := range results {
		contextBuilder.WriteString(fmt.Sprintf("Source: %s\n%s\n\n", res.Chunk.Source, res.Chunk.Text))
	}

	return strings.TrimSpace(contextBuilder.String())
}

// FormatSources formats the distinct source files of the retrieved passages
// for citation under an answer.
func (ce *ChatEngine) FormatSources(results []models.SearchResult) string {
	var sources []string
	seen := make(map[string]bool)

	for _, res := range results {
		if !seen[res.Chunk.Source] {
			sources = append(sources, res.Chunk.Source)
			seen[res.Chunk.Source] = true
		}
	}

	if len(sources) == 0 {
		return ""
	}

	return fmt.Sprintf("Sources:\n%s", strings.Join(sources, "\n"))
}
