package main

import (
	"context"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/alecthomas/kong"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"

	"github.com/w-h-a/recall"
	"github.com/w-h-a/recall/api"
	"github.com/w-h-a/recall/assembler"
	"github.com/w-h-a/recall/embedder"
	googleembedder "github.com/w-h-a/recall/embedder/google"
	mockembedder "github.com/w-h-a/recall/embedder/mock"
	openaiembedder "github.com/w-h-a/recall/embedder/openai"
	"github.com/w-h-a/recall/embedsync"
	"github.com/w-h-a/recall/generator"
	anthropicgenerator "github.com/w-h-a/recall/generator/anthropic"
	mockgenerator "github.com/w-h-a/recall/generator/mock"
	openaigenerator "github.com/w-h-a/recall/generator/openai"
	"github.com/w-h-a/recall/personality"
	"github.com/w-h-a/recall/semanticindex"
	memoryindex "github.com/w-h-a/recall/semanticindex/memory"
	pgvectorindex "github.com/w-h-a/recall/semanticindex/pgvector"
	qdrantindex "github.com/w-h-a/recall/semanticindex/qdrant"
	"github.com/w-h-a/recall/server"
	httpserver "github.com/w-h-a/recall/server/http"
	"github.com/w-h-a/recall/sessionstore"
	memorystore "github.com/w-h-a/recall/sessionstore/memory"
	postgresstore "github.com/w-h-a/recall/sessionstore/postgres"
	redisstore "github.com/w-h-a/recall/sessionstore/redis"
)

var (
	cfg struct {
		// Server config
		Address string `help:"Address for the http server" env:"RECALL_ADDRESS" default:":8000"`

		// Session store config
		Store         string `help:"Session store backend (memory, postgres, redis)" env:"RECALL_STORE" default:"memory"`
		StoreLocation string `help:"Address of the session store" env:"RECALL_STORE_LOCATION" default:""`

		// Semantic index config
		Index         string `help:"Semantic index backend (memory, pgvector, qdrant)" env:"RECALL_INDEX" default:"memory"`
		IndexLocation string `help:"Address of the semantic index" env:"RECALL_INDEX_LOCATION" default:""`
		IndexKey      string `help:"API key for the semantic index" env:"RECALL_INDEX_KEY" default:""`
		Collection    string `help:"Collection for conversation chunks" env:"RECALL_COLLECTION" default:"conversation-memory"`
		VectorSize    int    `help:"Embedding dimensionality" env:"RECALL_VECTOR_SIZE" default:"1536"`

		// Embedder config
		Embedder      string `help:"Embedder backend (openai, google, mock)" env:"RECALL_EMBEDDER" default:"openai"`
		EmbedderKey   string `help:"API key for the embedder" env:"RECALL_EMBEDDER_KEY" default:""`
		EmbedderModel string `help:"Model identifier for the embedder" env:"RECALL_EMBEDDER_MODEL" default:"text-embedding-3-small"`

		// Generator config
		Generator      string `help:"Generator backend (openai, anthropic, mock)" env:"RECALL_GENERATOR" default:"openai"`
		GeneratorKey   string `help:"API key for the generator" env:"RECALL_GENERATOR_KEY" default:""`
		GeneratorModel string `help:"Model identifier for the generator" env:"RECALL_GENERATOR_MODEL" default:"gpt-3.5-turbo"`

		// Context assembly config
		BudgetChars  int `help:"Character budget for assembled context" env:"RECALL_BUDGET_CHARS" default:"6000"`
		HistoryLimit int `help:"Recent turns included per request" env:"RECALL_HISTORY_LIMIT" default:"10"`

		// Personality config
		PersonalitiesDir string `help:"Directory of personality definitions" env:"RECALL_PERSONALITIES_DIR" default:"./personalities"`

		// Embedding sync config
		SyncInterval time.Duration `help:"Delay between embedding sync runs" env:"RECALL_SYNC_INTERVAL" default:"5m"`
		SyncSettle   time.Duration `help:"Age a message must reach before embedding" env:"RECALL_SYNC_SETTLE" default:"1h"`
	}
)

func main() {
	_ = kong.Parse(&cfg)

	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, nil)))

	store := buildStore()
	defer store.Close()

	emb := buildEmbedder()
	index := buildIndex(emb)
	gen := buildGenerator()

	registry := personality.NewRegistry(cfg.PersonalitiesDir)
	loaded, err := registry.LoadAll()
	if err != nil {
		slog.Error("failed to load personalities", "dir", cfg.PersonalitiesDir, "error", err)
		os.Exit(1)
	}
	slog.Info("personalities loaded", "count", loaded, "default", registry.DefaultId())

	asm := assembler.New(
		store,
		index,
		assembler.WithBudgetChars(cfg.BudgetChars),
		assembler.WithHistoryLimit(cfg.HistoryLimit),
	)

	orchestrator := recall.New(store, asm, registry, gen)

	syncer := embedsync.New(
		store,
		index,
		embedsync.WithInterval(cfg.SyncInterval),
		embedsync.WithSettle(cfg.SyncSettle),
	)

	srv := httpserver.NewServer(
		server.WithName("recall"),
		server.WithAddress(cfg.Address),
		httpserver.WithHandler(api.New(orchestrator, registry).Handler()),
		httpserver.WithMiddleware(func(h http.Handler) http.Handler {
			return otelhttp.NewHandler(h, "recall")
		}),
	)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go syncer.Run(ctx)

	errCh := make(chan error, 1)
	go func() {
		errCh <- srv.Run()
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	select {
	case sig := <-sigCh:
		slog.Info("shutting down", "signal", sig.String())
	case err := <-errCh:
		if err != nil {
			slog.Error("http server failed", "error", err)
		}
	}

	cancel()

	if err := srv.Stop(); err != nil {
		slog.Error("failed to stop http server", "error", err)
	}
}

func buildStore() sessionstore.Store {
	switch cfg.Store {
	case "postgres":
		return postgresstore.NewStore(sessionstore.WithLocation(cfg.StoreLocation))
	case "redis":
		return redisstore.NewStore(sessionstore.WithLocation(cfg.StoreLocation))
	default:
		return memorystore.NewStore()
	}
}

func buildEmbedder() embedder.Embedder {
	switch cfg.Embedder {
	case "google":
		return googleembedder.NewEmbedder(
			embedder.WithApiKey(cfg.EmbedderKey),
			embedder.WithModel(cfg.EmbedderModel),
		)
	case "mock":
		return mockembedder.NewEmbedder(cfg.VectorSize)
	default:
		return openaiembedder.NewEmbedder(
			embedder.WithApiKey(cfg.EmbedderKey),
			embedder.WithModel(cfg.EmbedderModel),
		)
	}
}

func buildIndex(emb embedder.Embedder) semanticindex.Index {
	opts := []semanticindex.Option{
		semanticindex.WithLocation(cfg.IndexLocation),
		semanticindex.WithApiKey(cfg.IndexKey),
		semanticindex.WithCollection(cfg.Collection),
		semanticindex.WithVectorSize(cfg.VectorSize),
		semanticindex.WithEmbedder(emb),
	}

	switch cfg.Index {
	case "pgvector":
		return pgvectorindex.NewIndex(opts...)
	case "qdrant":
		return qdrantindex.NewIndex(opts...)
	default:
		return memoryindex.NewIndex(opts...)
	}
}

func buildGenerator() generator.Generator {
	switch cfg.Generator {
	case "anthropic":
		return anthropicgenerator.NewGenerator(
			generator.WithApiKey(cfg.GeneratorKey),
			generator.WithModel(cfg.GeneratorModel),
		)
	case "mock":
		return mockgenerator.NewGenerator("This is a canned development reply.")
	default:
		return openaigenerator.NewGenerator(
			generator.WithApiKey(cfg.GeneratorKey),
			generator.WithModel(cfg.GeneratorModel),
		)
	}
}
