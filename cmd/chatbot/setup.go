package main

import (
	"context"
	"fmt"
	"os"

	"github.com/alphamail/chatbot/internal/config"
	"github.com/alphamail/chatbot/internal/providers/llm"
	"github.com/alphamail/chatbot/internal/providers/rag"
	"github.com/alphamail/chatbot/internal/service/chatbot"
	"github.com/alphamail/chatbot/internal/service/classifier"
	"github.com/alphamail/chatbot/internal/service/extractor"
	"github.com/alphamail/chatbot/internal/service/indexer"
	"github.com/alphamail/chatbot/internal/service/retrieval"
	"github.com/alphamail/chatbot/internal/service/schedule"
	"github.com/alphamail/chatbot/internal/storage/postgres"
	"github.com/alphamail/chatbot/internal/storage/sqlite"
	"github.com/alphamail/chatbot/pkg/log"
	"github.com/alphamail/chatbot/pkg/srv"
	"github.com/alphamail/chatbot/pkg/tz"
)

// app is the wired object graph shared by every command.
type app struct {
	cfg     *config.AppConfig
	chat    *chatbot.Orchestrator
	indexer *indexer.Indexer
	worker  *indexer.Worker
	// closers run last, in reverse order
	cleanups []srv.Service
}

func newApp(ctx context.Context) (*app, error) {
	logger := log.FromCtx(ctx)

	if err := config.LoadEnv(ctx, config.GetRuntimePath()); err != nil {
		return nil, fmt.Errorf("load env: %w", err)
	}

	// 1. Configuration
	appCfg := config.NewAppConfig(ctx)
	llmCfg := config.NewLLMConfig(ctx)
	embCfg := config.NewEmbeddingConfig(ctx)
	dbCfg := config.NewDatabaseConfig(ctx)

	a := &app{cfg: appCfg}

	zone, err := tz.Load(appCfg.GetDefaultTimezone())
	if err != nil {
		return nil, fmt.Errorf("default timezone: %w", err)
	}

	if err := os.MkdirAll(appCfg.GetRuntimePath(), 0o755); err != nil {
		return nil, fmt.Errorf("create runtime directory: %w", err)
	}

	// 2. Business database
	pg, err := postgres.Connect(ctx, dbCfg.URL, dbCfg.MaxConns)
	if err != nil {
		return nil, err
	}
	a.cleanups = append(a.cleanups, srv.NewCleanup(pg.Close))

	if dbCfg.Migrate {
		if err := pg.Migrate(ctx); err != nil {
			a.close(ctx)
			return nil, err
		}
	}

	// 3. Vector index
	embedder, err := rag.NewConfiguredEmbedder(ctx, embCfg, rag.EmbeddingKeys{
		OllamaBaseURL: embCfg.OllamaBaseURL,
		OpenAIAPIKey:  embCfg.OpenAIAPIKey,
		GeminiAPIKey:  embCfg.GeminiAPIKey,
	}, appCfg.GetCallTimeout())
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("init embedder: %w", err)
	}
	a.cleanups = append(a.cleanups, srv.NewCleanup(embedder.Shutdown))

	db, err := sqlite.NewDB(ctx, appCfg.GetIndexPath())
	if err != nil {
		a.close(ctx)
		return nil, err
	}
	a.cleanups = append(a.cleanups, srv.NewCleanup(db.Close))

	index, err := sqlite.NewDocumentIndex(ctx, db, embedder)
	if err != nil {
		a.close(ctx)
		return nil, err
	}

	// 4. Completion provider
	provider, err := llm.NewProvider(ctx, llmCfg)
	if err != nil {
		a.close(ctx)
		return nil, fmt.Errorf("init llm provider: %w", err)
	}

	// 5. Services
	a.indexer = indexer.NewIndexer(index, pg, zone)
	a.worker = indexer.NewWorker(a.indexer, sqlite.NewWatermarkStore(db), appCfg.GetReindexInterval())

	timeout := appCfg.GetCallTimeout()
	a.chat = chatbot.NewOrchestrator(
		classifier.NewClassifier(provider, timeout),
		extractor.NewExtractor(provider, timeout),
		retrieval.NewService(index, provider, retrieval.Options{
			TopK:    appCfg.GetTopK(),
			Timeout: timeout,
		}),
		schedule.NewService(pg, a.indexer),
		pg,
		chatbot.Options{
			DefaultTimezone: appCfg.GetDefaultTimezone(),
			TopK:            appCfg.GetTopK(),
		},
	)

	logger.Debug().Str("runtime_path", appCfg.GetRuntimePath()).Msg("application wired")
	return a, nil
}

// close releases resources for commands that do not go through srv.Run.
func (a *app) close(ctx context.Context) {
	for i := len(a.cleanups) - 1; i >= 0; i-- {
		if err := a.cleanups[i].Shutdown(ctx); err != nil {
			log.FromCtx(ctx).Error().Err(err).Msg("failed to release resource")
		}
	}
}
