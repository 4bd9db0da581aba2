package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"writeit/internal/api"
	"writeit/internal/config"
	"writeit/internal/editor"
	"writeit/internal/logger"
	"writeit/internal/mcp"
	"writeit/internal/middleware"
	"writeit/internal/store/sqlstore"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	_ "go.uber.org/automaxprocs"
	"golang.org/x/sync/errgroup"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(),
		syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	g, ctx := errgroup.WithContext(ctx)

	// bootstrap logger for failures before slog is ready
	bootstrapLog := log.New(os.Stderr, "bootstrap: ", log.LstdFlags)

	cfg, err := config.Load()
	if err != nil {
		bootstrapLog.Printf("config load failed: %v", err)
		os.Exit(1)
	}

	logg, err := logger.Init(cfg)
	if err != nil {
		bootstrapLog.Printf("logger init failed: %v", err)
		os.Exit(1)
	}

	store, err := sqlstore.New(cfg.DBDriver, cfg.DBConn, logg)
	if err != nil {
		logg.Error("failed to initialize database", "driver", cfg.DBDriver, "err", err)
		os.Exit(1)
	}
	defer store.Close()

	ws, err := editor.NewWorkspace(store,
		editor.WithLogger(logg),
		editor.WithRecentLimit(cfg.RecentLimit),
	)
	if err != nil {
		logg.Error("failed to load settings", "err", err)
		os.Exit(1)
	}

	r := chi.NewRouter()
	r.Use(chimiddleware.RequestID)
	r.Use(middleware.Logging(logg))
	r.Use(chimiddleware.Recoverer)

	r.Mount("/api", api.NewHandlers(ws, logg).Routes())
	r.Handle("/mcp", mcp.NewMCPServer(ws).Handler())
	r.Handle("/metrics", promhttp.Handler())

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.AppPort),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	logg.Info("starting WriteIt", "port", cfg.AppPort, "driver", cfg.DBDriver)

	g.Go(func() error {
		err := srv.ListenAndServe()
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	})

	// graceful shutdown
	g.Go(func() error {
		<-ctx.Done()

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 25*time.Second)
		defer cancel()

		return srv.Shutdown(shutdownCtx)
	})

	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logg.Error("fatal", "err", err)
		os.Exit(1)
	}
	logg.Info("graceful shutdown complete")
}
