package main

import (
	"context"
	"errors"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/brainstorm-platform/idea-engine/config"
	"github.com/brainstorm-platform/idea-engine/internal/api"
	"github.com/brainstorm-platform/idea-engine/internal/slackbot"
	"github.com/spf13/cobra"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API (and Slack surface when configured)",
	RunE: func(cmd *cobra.Command, args []string) error {
		logger := setupLogger()

		cfg := config.LoadConfig()
		if err := cfg.Validate(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		eng, cleanup, err := buildEngine(ctx, cfg, logger)
		if err != nil {
			return err
		}
		defer cleanup()

		mux := http.NewServeMux()
		mux.Handle("/", api.NewHandler(eng, logger).Router())

		if cfg.SlackEnabled() {
			client, err := slackbot.NewClient(cfg.SlackToken)
			if err != nil {
				return err
			}
			confirm := slackbot.NewConfirmHandler(client, eng, logger)
			messages := slackbot.NewMessageHandler(client, eng, confirm, logger)
			confirm.OnDeleted(messages.ClearSession)
			events := slackbot.NewServer(messages, confirm, cfg.SlackSigningSecret, logger)
			mux.HandleFunc("/slack/events", events.HandleEvents)
			logger.Info("slack surface enabled")
		}

		srv := &http.Server{
			Addr:    ":" + cfg.Port,
			Handler: mux,
		}

		errCh := make(chan error, 1)
		go func() {
			logger.Info("server listening", "port", cfg.Port)
			errCh <- srv.ListenAndServe()
		}()

		select {
		case err := <-errCh:
			if err != nil && !errors.Is(err, http.ErrServerClosed) {
				return err
			}
		case <-ctx.Done():
			logger.Info("shutting down")
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return err
			}
		}
		return nil
	},
}
