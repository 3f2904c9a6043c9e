package main

import (
	"bufio"
	"context"
	"flag"
	"fmt"
	"log"
	"os"
	"strings"

	"github.com/fatih/color"
	"github.com/joho/godotenv"
	"github.com/schollz/progressbar/v3"

	"github.com/docsage/docsage/internal/models"
	"github.com/docsage/docsage/internal/types"
	cfgPkg "github.com/docsage/docsage/pkg/config"
	"github.com/docsage/docsage/pkg/extract"
	"github.com/docsage/docsage/pkg/index"
	"github.com/docsage/docsage/pkg/llm"
	logPkg "github.com/docsage/docsage/pkg/log"
	"github.com/docsage/docsage/pkg/rag"
	"github.com/docsage/docsage/pkg/session"
	"github.com/docsage/docsage/pkg/store"
	"github.com/docsage/docsage/server"
)

type flags struct {
	configPath string
	serve      bool
	addr       string
	role       string
	model      string
	reset      bool
}

func main() {
	godotenv.Load()

	f, config, err := parseFlags()
	if err != nil {
		log.Fatal(err)
	}

	if errs := config.Validate(); len(errs) > 0 {
		for _, e := range errs {
			fmt.Fprintf(os.Stderr, "config error: %s\n", e.Error())
		}
		os.Exit(1)
	}

	if err := run(f, config, flag.Args()); err != nil {
		log.Fatal(err)
	}
}

func parseFlags() (flags, *cfgPkg.Config, error) {
	var f flags

	flag.StringVar(&f.configPath, "config", "", "Path to config file")
	flag.BoolVar(&f.serve, "serve", false, "Run the HTTP server instead of the interactive prompt")
	flag.StringVar(&f.addr, "addr", "", "HTTP listen address (overrides config)")
	flag.StringVar(&f.role, "role", rag.DefaultRole, "Analysis role: "+strings.Join(rag.Roles(), ", "))
	flag.StringVar(&f.model, "model", "", "LLM model to use (overrides config)")
	flag.BoolVar(&f.reset, "reset", false, "Discard the existing index before ingesting")
	flag.Parse()

	config, err := cfgPkg.LoadConfig(f.configPath)
	if err != nil {
		return f, nil, err
	}

	if f.addr != "" {
		config.Server.Addr = f.addr
	}
	if f.model != "" {
		config.LLM.Model = f.model
	}

	return f, config, nil
}

func newStore(config *cfgPkg.Config) (types.Store, error) {
	switch config.Index.Backend {
	case "pgvector":
		return store.NewPgVectorStore(store.PgVectorConfig{
			ConnString: config.Index.DatabaseURL,
			TableName:  config.Index.TableName,
			VectorDim:  config.Index.VectorDim,
		})
	default:
		return store.NewMemoryStore(store.MemoryConfig{
			Path:    config.Index.Path,
			Persist: config.Index.Persist,
		}), nil
	}
}

func run(f flags, config *cfgPkg.Config, files []string) error {
	logger, err := logPkg.New(config.Log.Level, config.Log.Format)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %v", err)
	}
	defer logger.Sync()

	chatEngine, err := llm.NewWithConfig(llm.ChatConfig{
		BaseURL:     config.LLM.BaseURL,
		Model:       config.LLM.Model,
		MaxTokens:   config.LLM.MaxTokens,
		Temperature: config.LLM.Temperature,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize chat engine: %v", err)
	}

	embedder, err := llm.NewEmbedderWithConfig(llm.EmbedderConfig{
		BaseURL:   config.LLM.BaseURL,
		Model:     config.Embedding.Model,
		RateLimit: config.Embedding.RateLimit,
	})
	if err != nil {
		return fmt.Errorf("failed to initialize embedder: %v", err)
	}

	st, err := newStore(config)
	if err != nil {
		return fmt.Errorf("failed to initialize vector store: %v", err)
	}

	manager := index.NewManager(st, embedder, logger, index.Config{
		SearchLimit: config.Index.SearchLimit,
	})
	defer manager.Close()

	answerer := rag.NewAnswerer(manager, chatEngine, logger, rag.AnswererConfig{
		DefaultModel: config.LLM.Model,
	})

	extractConfig := extract.Config{
		ChunkSize:    config.Splitter.ChunkSize,
		ChunkOverlap: config.Splitter.ChunkOverlap,
	}

	if f.serve {
		srv := server.New(server.Config{
			Addr:    config.Server.Addr,
			Extract: extractConfig,
		}, manager, answerer, chatEngine, logger)
		return srv.ListenAndServe()
	}

	ctx := context.Background()
	tracker := session.NewTracker()

	if f.reset {
		if err := manager.Reset(ctx); err != nil {
			return fmt.Errorf("failed to reset index: %v", err)
		}
		color.Yellow("Index reset")
	}

	if len(files) > 0 {
		if err := ingestFiles(ctx, manager, tracker, extractConfig, files); err != nil {
			return err
		}
	}

	return chatLoop(ctx, answerer, manager, tracker, extractConfig, f.role)
}

func getProgressBar(total int, description string) *progressbar.ProgressBar {
	return progressbar.NewOptions(total,
		progressbar.OptionSetDescription(color.BlueString(description)),
		progressbar.OptionSetItsString("files"),
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

func ingestFiles(ctx context.Context, manager *index.Manager, tracker *session.Tracker, cfg extract.Config, files []string) error {
	bar := getProgressBar(len(files), "Ingesting documents...")

	total := 0
	for _, path := range files {
		ref := models.PathRef(path)

		extractor, err := extract.New(ref, cfg)
		if err != nil {
			return err
		}

		chunks, err := extractor.Extract(ctx, ref)
		if err != nil {
			return fmt.Errorf("failed to process %s: %v", path, err)
		}

		ids, err := manager.Ingest(ctx, chunks, false)
		if err != nil {
			return fmt.Errorf("failed to index %s: %v", path, err)
		}

		tracker.Track(ref.Name(), ids)
		total += len(ids)
		bar.Add(1)
	}
	bar.Finish()

	color.Green("\n✓ Indexed %d chunks from %d files\n", total, len(files))
	return nil
}

func chatLoop(ctx context.Context, answerer *rag.Answerer, manager *index.Manager, tracker *session.Tracker, cfg extract.Config, role string) error {
	color.Cyan("\nAsk questions about your documents (type 'help' for commands, 'exit' to quit)")

	scanner := bufio.NewScanner(os.Stdin)
	userPrompt := color.New(color.FgGreen).PrintfFunc()
	assistantPrompt := color.New(color.FgCyan).PrintfFunc()

	for {
		userPrompt("\nYou: ")
		if !scanner.Scan() {
			break
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}

		fields := strings.Fields(line)
		switch strings.ToLower(fields[0]) {
		case "exit", "quit":
			return nil
		case "help":
			fmt.Println("  load <path>     ingest a document")
			fmt.Println("  remove <name>   remove a document's chunks")
			fmt.Println("  files           list loaded documents")
			fmt.Println("  role <name>     switch role (" + strings.Join(rag.Roles(), ", ") + ")")
			fmt.Println("  reset           discard the index")
			fmt.Println("  exit            quit")
			continue
		case "load":
			if len(fields) < 2 {
				color.Red("usage: load <path>")
				continue
			}
			if err := ingestFiles(ctx, manager, tracker, cfg, fields[1:]); err != nil {
				color.Red("%v", err)
			}
			continue
		case "remove":
			if len(fields) < 2 {
				color.Red("usage: remove <name>")
				continue
			}
			ids := tracker.Release(fields[1])
			if manager.Remove(ctx, ids) {
				color.Green("✓ Removed %s (%d chunks)", fields[1], len(ids))
			} else {
				color.Red("nothing removed for %s", fields[1])
			}
			continue
		case "files":
			for _, name := range tracker.Files() {
				fmt.Printf("  %s (%d chunks)\n", name, len(tracker.IDs(name)))
			}
			continue
		case "role":
			if len(fields) < 2 {
				color.Red("usage: role <name>")
				continue
			}
			role = fields[1]
			color.Yellow("role set to %s", role)
			continue
		case "reset":
			if err := manager.Reset(ctx); err != nil {
				color.Red("failed to reset: %v", err)
				continue
			}
			tracker.Clear()
			color.Yellow("Index reset")
			continue
		}

		spinner := getSpinner("Generating response...")
		answer, err := answerer.Answer(ctx, line, role, "")
		spinner.Finish()
		fmt.Print("\r")

		if err != nil {
			color.Red("%v", err)
			continue
		}

		assistantPrompt("Assistant: %s\n", answer)
	}

	return nil
}
