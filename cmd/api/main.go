package main

import (
	"context"
	"errors"
	"io"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"market-insights/backend-go/internal/config"
	"market-insights/backend-go/internal/handlers"
	internalhttp "market-insights/backend-go/internal/http"
	"market-insights/backend-go/internal/logging"
	"market-insights/backend-go/internal/services"
)

type app struct {
	cfg      config.Config
	log      *zap.Logger
	cache    services.Cache
	fetcher  *services.Fetcher
	insights *services.InsightsService
}

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:          "api",
		Short:        "Market insights backend-for-frontend",
		SilenceUsage: true,
		RunE:         func(cmd *cobra.Command, args []string) error { return runServe(cmd.Context()) },
	}
	root.AddCommand(newServeCmd(), newFetchCmd())
	return root
}

func newServeCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the HTTP server",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runServe(cmd.Context())
		},
	}
}

func buildApp() (*app, error) {
	_ = godotenv.Load(
		".env",
		".env.local",
	)
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	log, err := logging.New(cfg.LogLevel)
	if err != nil {
		return nil, err
	}
	cache := services.NewCache(cfg, log)
	origin := services.NewOriginClient(cfg, services.NewTokenSource(cfg.TokenPath), log.Named("origin"))
	fetcher := services.NewFetcher(cfg, cache, origin, log.Named("fetcher"))
	insights := services.NewInsightsService(fetcher, services.NewTimeline(cfg.TimelineMaxDays), log.Named("insights"))
	return &app{cfg: cfg, log: log, cache: cache, fetcher: fetcher, insights: insights}, nil
}

// close drains pending cache writes and then drops the cache connection.
func (a *app) close() {
	ctx, cancel := context.WithTimeout(context.Background(), a.cfg.CacheWriteTimeout)
	defer cancel()
	if err := a.fetcher.Wait(ctx); err != nil {
		a.log.Warn("pending cache writes abandoned", zap.Error(err))
	}
	if c, ok := a.cache.(io.Closer); ok {
		_ = c.Close()
	}
	_ = a.log.Sync()
}

func runServe(parent context.Context) error {
	a, err := buildApp()
	if err != nil {
		return err
	}
	defer a.close()

	if a.cfg.LogLevel != "debug" {
		gin.SetMode(gin.ReleaseMode)
	}
	api := handlers.New(a.cfg, a.cache, a.fetcher, a.insights, a.log.Named("api"))
	srv := &http.Server{
		Addr:              ":" + a.cfg.Port,
		Handler:           internalhttp.NewRouter(a.cfg, api, a.log.Named("http")),
		ReadHeaderTimeout: 5 * time.Second,
	}

	if parent == nil {
		parent = context.Background()
	}
	ctx, stop := signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		a.log.Info("market insights backend listening", zap.String("addr", srv.Addr))
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		a.log.Error("server stopped", zap.Error(err))
		return err
	case <-ctx.Done():
	}

	a.log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
