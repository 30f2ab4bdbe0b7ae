package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"

	"pdfchat/internal/types"
	cfgPkg "pdfchat/pkg/config"
	"pdfchat/pkg/library"
	"pdfchat/pkg/llm"
	"pdfchat/pkg/loader"
	"pdfchat/pkg/processor"
	"pdfchat/pkg/store"
)

type flags struct {
	configPath string
	docsDir    string
	cacheDir   string
	storeType  string
	model      string
	topK       int
	streaming  bool
	streamSet  bool
	reset      bool
	watch      bool
}

func main() {
	// Missing .env is fine, keys may come from the real environment
	_ = godotenv.Load()

	if err := run(parseFlags()); err != nil {
		log.Fatal(err)
	}
}

func parseFlags() flags {
	var f flags

	flag.StringVar(&f.configPath, "config", "", "Path to config file")
	flag.StringVar(&f.docsDir, "docs", "", "Folder containing the documents to answer questions about")
	flag.StringVar(&f.cacheDir, "cache", "", "Folder for cached embeddings")
	flag.StringVar(&f.storeType, "store", "", "Vector store backend: cache or pgvector")
	flag.StringVar(&f.model, "model", "", "Chat model to use")
	flag.IntVar(&f.topK, "top-k", 0, "Number of passages to retrieve per question")
	flag.BoolVar(&f.streaming, "stream", true, "Stream responses as they are generated")
	flag.BoolVar(&f.reset, "reset", false, "Clear the embedding cache and rebuild it from scratch")
	flag.BoolVar(&f.watch, "watch", false, "Re-sync automatically when the documents folder changes")
	flag.Parse()

	// A bool flag's default is indistinguishable from an explicit value, so
	// record whether -stream was actually passed
	flag.Visit(func(fl *flag.Flag) {
		if fl.Name == "stream" {
			f.streamSet = true
		}
	})

	return f
}

func loadConfig(f flags) (*cfgPkg.Config, error) {
	config, err := cfgPkg.LoadConfig(f.configPath)
	if err != nil {
		return nil, err
	}

	// Command line flags win over the config file
	if f.docsDir != "" {
		config.Library.DocsDir = f.docsDir
	}
	if f.cacheDir != "" {
		config.Store.CacheDir = f.cacheDir
	}
	if f.storeType != "" {
		config.Store.Type = f.storeType
	}
	if f.model != "" {
		config.LLM.Model = f.model
	}
	if f.topK > 0 {
		config.Chat.TopK = f.topK
	}
	if f.streamSet {
		config.Chat.Streaming = &f.streaming
	}

	if errs := config.Validate(); len(errs) > 0 {
		for _, e := range errs {
			color.Red("invalid configuration: %s", e)
		}
		return nil, fmt.Errorf("configuration is invalid")
	}

	return config, nil
}

func newStore(config *cfgPkg.Config, embeddingModel string) (types.VectorStore, error) {
	switch config.Store.Type {
	case "pgvector":
		return store.NewPGVectorWithConfig(store.PGVectorConfig{
			ConnString: config.Store.Database.URL,
			TableName:  config.Store.Database.TableName,
			Model:      embeddingModel,
			VectorDim:  config.Store.Database.VectorDim,
			BatchSize:  config.Store.Database.BatchSize,
		})
	default:
		return store.NewCacheWithConfig(store.CacheConfig{
			Dir:   config.Store.CacheDir,
			Model: embeddingModel,
		})
	}
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("docs"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetWidth(40),
		progressbar.OptionShowElapsedTimeOnFinish(),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func getSpinner(description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(-1,
		progressbar.OptionSetDescription(color.CyanString(description)),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionSetWidth(20),
		progressbar.OptionEnableColorCodes(true),
		progressbar.OptionSetRenderBlankState(true),
	)
}

func run(f flags) error {
	config, err := loadConfig(f)
	if err != nil {
		return err
	}

	logger := slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelWarn}))

	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		BaseURL:   config.Embeddings.BaseURL,
		APIKey:    os.Getenv(config.Embeddings.APIKeyEnv),
		Model:     config.Embeddings.Model,
		BatchSize: config.Embeddings.BatchSize,
		RateLimit: config.Embeddings.RateLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize embedder: %w", err)
	}

	chatEngine, err := llm.NewWithConfig(llm.ChatConfig{
		BaseURL:     config.LLM.BaseURL,
		APIKey:      os.Getenv(config.LLM.APIKeyEnv),
		Model:       config.LLM.Model,
		MaxTokens:   config.LLM.MaxTokens,
		Temperature: config.LLM.Temperature,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize chat engine: %w", err)
	}

	docLoader, err := loader.NewWithConfig(loader.LoaderConfig{
		DocsDir: config.Library.DocsDir,
		Logger:  logger,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize loader: %w", err)
	}

	proc := processor.NewWithConfig(processor.ProcessorConfig{
		ChunkSize:      config.Processor.ChunkSize,
		ChunkOverlap:   config.Processor.ChunkOverlap,
		MinChunkLength: config.Processor.MinChunkLength,
	})

	vectorStore, err := newStore(config, config.Embeddings.Model)
	if err != nil {
		return fmt.Errorf("failed to initialize vector store: %w", err)
	}
	defer vectorStore.Close()

	syncBar := getProgressBar(-1, "Indexing documents...")
	lib, err := library.NewWithConfig(library.Config{
		DocsDir:       config.Library.DocsDir,
		WatchDebounce: time.Duration(config.Library.WatchDebounceMs) * time.Millisecond,
		Logger:        logger,
		OnProgress: func(string) {
			syncBar.Add(1)
		},
	}, docLoader, &proc, embedder, vectorStore)
	if err != nil {
		return fmt.Errorf("failed to initialize library: %w", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	color.Blue("\nIndexing %s\n", config.Library.DocsDir)

	var stats library.SyncStats
	if f.reset {
		stats, err = lib.Reset(ctx)
	} else {
		stats, err = lib.Sync(ctx)
	}
	syncBar.Finish()
	if err != nil {
		return fmt.Errorf("failed to sync documents: %w", err)
	}

	color.Green("\n✓ %d documents indexed (%d chunks), %d cached, %d removed\n",
		stats.Ingested, stats.Chunks, stats.Unchanged, stats.Forgotten)

	if f.watch {
		if err := lib.Watch(ctx); err != nil {
			return fmt.Errorf("failed to watch documents folder: %w", err)
		}
		color.Blue("Watching %s for changes\n", config.Library.DocsDir)
	}

	// Interactive question loop
	color.Cyan("\nAsk questions about your documents (type 'exit' to quit)")

	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()
	sourceNote := color.New(color.FgYellow).PrintfFunc()

	for {
		userPrompt("\nYou: ")
		if !scanner.Scan() {
			break
		}

		query := strings.TrimSpace(scanner.Text())
		if query == "" {
			continue
		}
		if strings.ToLower(query) == "exit" {
			break
		}

		querySpinner := getSpinner("Searching documents...")
		results, err := lib.Retrieve(ctx, query, config.Chat.TopK)
		querySpinner.Finish()
		fmt.Print("\r")

		if err != nil {
			color.Red("Error searching documents: %v\n", err)
			continue
		}

		if *config.Chat.Streaming {
			fmt.Print("\n")
			assistantPrompt("Assistant: ")

			err := chatEngine.ChatStream(ctx, query, results, func(chunk string) {
				fmt.Print(chunk)
			})
			fmt.Print("\n")

			if err != nil {
				color.Red("Error: %v\n", err)
				continue
			}
		} else {
			responseSpinner := getSpinner("Generating response...")
			response, err := chatEngine.Chat(ctx, query, results)
			responseSpinner.Finish()
			fmt.Print("\r")

			if err != nil {
				color.Red("Error: %v\n", err)
				continue
			}
			assistantPrompt("\nAssistant: %s\n", response)
		}

		if sources := chatEngine.FormatSources(results); sources != "" {
			sourceNote("\n%s\n", sources)
		}
	}

	return nil
}
