package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/spf13/cobra"

	"github.com/pandamasta/pwcheck/db"
	"github.com/pandamasta/pwcheck/handlers"
	"github.com/pandamasta/pwcheck/internal/config"
	"github.com/pandamasta/pwcheck/internal/logging"
	"github.com/pandamasta/pwcheck/internal/metrics"
	"github.com/pandamasta/pwcheck/models"
	"github.com/pandamasta/pwcheck/password"
)

func newServeCmd() *cobra.Command {
	var addr string
	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Start the password checker web demo",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			if addr != "" {
				cfg.Server.Addr = addr
			}
			return runServe(cmd.Context(), cfg)
		},
	}
	cmd.Flags().StringVar(&addr, "addr", "", "listen address (overrides PWCHECK_ADDR)")
	return cmd
}

func runServe(parent context.Context, cfg *config.Config) error {
	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 1 Logging
	logger := logging.New(logging.Options{
		Level:     cfg.Log.SlogLevel(),
		Format:    cfg.Log.Format,
		AddSource: cfg.Log.AddSource,
	})
	slog.SetDefault(logger)

	if cfg.DB.Debug {
		db.EnableDebugLogs()
		slog.Info("[MAIN] SQL debug logging enabled")
	}

	// 2 Check history
	var store handlers.CheckStore
	if cfg.DB.Path != "" {
		conn, err := db.Open(ctx, cfg.DB.Path)
		if err != nil {
			return err
		}
		defer conn.Close()
		store = models.NewStore(conn)
	} else {
		slog.Info("[MAIN] Check history disabled", "hint", "set PWCHECK_DB_PATH to enable")
	}

	// 3 Metrics and validator
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	validator := password.NewValidator(password.SlogObserver(logger), metrics.NewValidation(reg))

	// 4 Routes
	handler := handlers.Routes(handlers.Deps{
		Config:    cfg,
		Validator: validator,
		Store:     store,
		Registry:  reg,
		Logger:    logger,
	})

	// 5 Start server
	srv := &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           handler,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       10 * time.Second,
		WriteTimeout:      10 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		slog.Info("[MAIN] Starting HTTP server", "addr", cfg.Server.Addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		if err != nil {
			slog.Error("[MAIN] Server exited with error", "error", err)
		}
		return err
	case <-ctx.Done():
	}

	slog.Info("[MAIN] Shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.Server.ShutdownTimeout)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		return err
	}
	return <-errCh
}
