package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/Clark-Hu/certavg/internal/config"
	httpserver "github.com/Clark-Hu/certavg/internal/http"
	"github.com/Clark-Hu/certavg/internal/logging"
	"github.com/Clark-Hu/certavg/internal/metrics"
	"github.com/Clark-Hu/certavg/internal/repository"
	"github.com/Clark-Hu/certavg/internal/store"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load()
	if err != nil {
		slog.Error("config error", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := logging.New(os.Stdout, cfg.LogLevel).With(slog.String("service", "certavg"))
	slog.SetDefault(logger)

	st, repo, err := openStore(ctx, cfg, logger)
	if err != nil {
		logger.Error("connect database", slog.String("error", err.Error()))
		os.Exit(1)
	}
	if st != nil {
		defer st.Close()
	}

	server := httpserver.New(cfg, st, repo, metrics.New(), logger)

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		if err := server.Start(gctx); err != nil && !errors.Is(err, context.Canceled) {
			return err
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("graceful shutdown error", slog.String("error", err.Error()))
		}
		return nil
	})

	if err := g.Wait(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Error("server error", slog.String("error", err.Error()))
	}
}

// openStore connects to Postgres when DB_URL is set; otherwise snapshots are disabled.
func openStore(ctx context.Context, cfg config.Config, logger *slog.Logger) (*store.Store, *repository.Repository, error) {
	if cfg.DBURL == "" {
		logger.Info("DB_URL not set, snapshot storage disabled")
		return nil, nil, nil
	}

	dbCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	st, err := store.New(dbCtx, cfg.DBURL, store.Options{
		MaxConns:               int32(cfg.DBMaxConns),
		MinConns:               int32(cfg.DBMinConns),
		MaxConnIdleTime:        time.Duration(cfg.DBMaxIdleSecs) * time.Second,
		MaxConnLifetime:        time.Duration(cfg.DBMaxLifeSecs) * time.Second,
		ConnTimeout:            time.Duration(cfg.DBConnTimeoutSecs) * time.Second,
		StatementCacheCapacity: cfg.DBStatementCache,
		Logger:                 logger,
	})
	if err != nil {
		return nil, nil, err
	}
	if err := st.Migrate(dbCtx); err != nil {
		st.Close()
		return nil, nil, err
	}
	return st, repository.New(st), nil
}
