package main

import (
	"context"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/errgroup"

	"github.com/meridian-erp/meridian-erp/internal/app"
	"github.com/meridian-erp/meridian-erp/internal/hr"
	"github.com/meridian-erp/meridian-erp/internal/integration"
	"github.com/meridian-erp/meridian-erp/internal/ledger"
	"github.com/meridian-erp/meridian-erp/internal/platform/db"
	"github.com/meridian-erp/meridian-erp/internal/projects"
	"github.com/meridian-erp/meridian-erp/internal/reports"
	reportshttp "github.com/meridian-erp/meridian-erp/internal/reports/http"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	cfg, err := app.LoadConfig()
	if err != nil {
		panic(err)
	}
	logger := app.NewLogger(cfg)

	pool, err := db.New(ctx, cfg.PGDSN, cfg.PGMaxConns)
	if err != nil {
		logger.Error("database unavailable", "error", err)
		os.Exit(1)
	}
	defer pool.Close()

	redisClient := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	defer func() { _ = redisClient.Close() }()

	ledgerRepo := ledger.NewRepository(pool)
	ledgerSvc := ledger.NewService(ledgerRepo, logger)

	statementCache := reports.NewCache(redisClient, cfg.StatementCacheTTL, logger)
	ledgerSvc.SetPostedListener(statementCache)

	reportsRepo := reports.NewRepository(pool)
	reportsSvc := reports.NewService(reportsRepo, statementCache, logger)

	generator := integration.NewGenerator(ledgerSvc, logger)

	projectsRepo := projects.NewRepository(pool)
	projectsSvc := projects.NewService(projectsRepo, generator, logger)

	hrRepo := hr.NewRepository(pool)
	hrSvc := hr.NewService(hrRepo, logger)

	if cfg.SeedDefaults {
		if err := ledgerSvc.EnsureDefaults(ctx, time.Now().UTC()); err != nil {
			logger.Error("seeding defaults failed", "error", err)
			os.Exit(1)
		}
	}

	router := app.NewRouter(app.RouterParams{
		Logger:          logger,
		Config:          cfg,
		LedgerHandler:   ledger.NewHandler(ledgerSvc),
		ReportsHandler:  reportshttp.NewHandler(logger, reportsSvc),
		ProjectsHandler: projects.NewHandler(projectsSvc),
		HRHandler:       hr.NewHandler(hrSvc),
	})

	server := &http.Server{
		Addr:         cfg.AppAddr,
		Handler:      router,
		ReadTimeout:  cfg.AppReadTimeout,
		WriteTimeout: cfg.AppWriteTimeout,
	}

	group, groupCtx := errgroup.WithContext(ctx)
	group.Go(func() error {
		logger.Info("http server listening", "addr", cfg.AppAddr, "env", cfg.AppEnv)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
	group.Go(func() error {
		<-groupCtx.Done()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return server.Shutdown(shutdownCtx)
	})

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		logger.Error("server exited", "error", err)
		os.Exit(1)
	}
	logger.Info("shutdown complete")
}
