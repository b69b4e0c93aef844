package main

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/brainstorm-platform/idea-engine/config"
	"github.com/brainstorm-platform/idea-engine/internal/engine"
	"github.com/brainstorm-platform/idea-engine/internal/keywords"
	"github.com/brainstorm-platform/idea-engine/internal/llm"
	"github.com/brainstorm-platform/idea-engine/internal/rag"
	"github.com/brainstorm-platform/idea-engine/internal/store"
	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "idea-engine",
	Short: "Structured ideation session engine",
	Long: `idea-engine runs guided ideation sessions: purpose, warmup,
free association, then idea generation with SWOT analysis.`,
	SilenceUsage: true,
}

var jsonLogs bool

func init() {
	rootCmd.PersistentFlags().BoolVar(&jsonLogs, "json-logs", false, "emit logs as JSON")
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(consoleCmd)
}

func setupLogger() *slog.Logger {
	var handler slog.Handler
	if jsonLogs {
		handler = slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	} else {
		handler = slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelInfo})
	}
	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// buildEngine assembles the full pipeline from configuration. The returned
// cleanup releases the store connection if one was opened.
func buildEngine(ctx context.Context, cfg *config.Config, logger *slog.Logger) (*engine.Engine, func(), error) {
	var (
		sessions store.SessionStore
		cleanup  = func() {}
	)
	if cfg.DatabaseURL != "" {
		pg, err := store.NewPostgresStore(ctx, cfg.DatabaseURL)
		if err != nil {
			return nil, nil, err
		}
		sessions = pg
		cleanup = pg.Close
		logger.Info("using postgres session store")
	} else {
		sessions = store.NewMemoryStore()
		logger.Info("using in-memory session store")
	}

	client := llm.NewClient(cfg.LLMBaseURL, cfg.LLMAPIKey, cfg.LLMModel,
		llm.WithEmbedModel(cfg.EmbedModel),
		llm.WithLogger(logger),
	)

	ephemeral, err := rag.NewStore(cfg.EphemeralDir, client, logger)
	if err != nil {
		cleanup()
		return nil, nil, err
	}

	corpus, err := rag.LoadCorpus(cfg.CorpusPath, client, logger)
	if err != nil {
		logger.Warn("technique corpus unavailable, ideas will have no technique context",
			"path", cfg.CorpusPath, "error", err)
		corpus = rag.EmptyCorpus()
	}

	providers := []keywords.Provider{}
	if cfg.NaverClientID != "" && cfg.NaverClientSecret != "" {
		providers = append(providers, keywords.NewNaverNewsProvider(cfg.NaverClientID, cfg.NaverClientSecret))
	}
	providers = append(providers, keywords.NewDuckDuckGoProvider())
	trends := keywords.NewAggregator(providers, 10*time.Second, logger)

	engineCfg := engine.DefaultConfig()
	engineCfg.SweepAge = cfg.SweepAge

	return engine.New(sessions, client, ephemeral, trends, corpus, engineCfg, logger), cleanup, nil
}
