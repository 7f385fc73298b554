// Copyright Tales Pardini, 2026. All rights reserved.

package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	_ "go.uber.org/automaxprocs"
	"go.uber.org/zap"

	"github.com/pardinithales/pubmed-agent/internal/agent"
	"github.com/pardinithales/pubmed-agent/internal/logger"
	"github.com/pardinithales/pubmed-agent/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the refinement pipeline over HTTP",
	Long: `Serve starts the JSON API. POST /api/v1/search runs the full pipeline
synchronously for a PICOTT question; GET /healthz reports liveness. The
server drains in-flight requests on SIGINT or SIGTERM.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		dev, _ := cmd.Flags().GetBool("dev")
		level, _ := cmd.Flags().GetString("log-level")

		log, err := logger.New(dev, level)
		if err != nil {
			return err
		}
		defer func() { _ = log.Sync() }()

		cfg := buildConfig()
		a, err := agent.New(cfg, nil)
		if err != nil {
			return err
		}

		srv := server.New(a, log)
		httpSrv := &http.Server{
			Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
			Handler:      srv.Router(),
			ReadTimeout:  cfg.Server.ReadTimeout,
			WriteTimeout: cfg.Server.WriteTimeout,
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			log.Info("listening", zap.Int("port", cfg.Server.Port), zap.String("rewriter", a.RewriterName()))
			if err := httpSrv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
				errCh <- err
			}
		}()

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}

		log.Info("shutting down", zap.Duration("timeout", cfg.Server.ShutdownTimeout))
		shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
		defer cancel()
		if err := httpSrv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("shutdown: %w", err)
		}
		return nil
	},
}

func init() {
	serveCmd.Flags().Bool("dev", false, "colored console logs instead of production JSON")
	serveCmd.Flags().String("log-level", "", "log level override (debug, info, warn, error)")

	rootCmd.AddCommand(serveCmd)
}
