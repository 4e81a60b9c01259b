package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/mgaraycochea/tradeflow-backend/api/routes"
	"github.com/mgaraycochea/tradeflow-backend/internal/history"
	"github.com/mgaraycochea/tradeflow-backend/internal/purchaseorders"
	"github.com/mgaraycochea/tradeflow-backend/internal/salesorders"
	"github.com/mgaraycochea/tradeflow-backend/internal/stock"
	"github.com/mgaraycochea/tradeflow-backend/pkg/config"
	"github.com/mgaraycochea/tradeflow-backend/pkg/db"
	"github.com/mgaraycochea/tradeflow-backend/pkg/logger"
	"github.com/mgaraycochea/tradeflow-backend/pkg/metrics"
	"github.com/mgaraycochea/tradeflow-backend/pkg/migrate"
	"github.com/mgaraycochea/tradeflow-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
	})

	dbClient, err := db.New(context.Background(), cfg.DB, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap database", err)
		os.Exit(1)
	}
	defer func() {
		if err := dbClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing database", err)
		}
	}()

	if err := migrate.MaybeRunDev(context.Background(), cfg, logg, dbClient); err != nil {
		logg.Error(context.Background(), "failed to run dev migrations", err)
		os.Exit(1)
	}

	redisClient, err := redis.New(context.Background(), cfg.Redis)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	var gatherer prometheus.Gatherer
	approvalMetrics := metrics.NewApprovalMetrics(nil)
	if cfg.Metrics.Enabled {
		registry := prometheus.NewRegistry()
		approvalMetrics = metrics.NewApprovalMetrics(registry)
		gatherer = registry
	}

	inventory := stock.NewRepository(dbClient.DB())
	validator, err := stock.NewValidator(inventory)
	if err != nil {
		logg.Error(context.Background(), "failed to create stock validator", err)
		os.Exit(1)
	}

	ledger, err := history.NewService(history.NewRepository(dbClient.DB()))
	if err != nil {
		logg.Error(context.Background(), "failed to create history service", err)
		os.Exit(1)
	}

	salesRepo := salesorders.NewRepository(dbClient.DB())
	salesService, err := salesorders.NewService(salesRepo, dbClient)
	if err != nil {
		logg.Error(context.Background(), "failed to create sales order service", err)
		os.Exit(1)
	}

	purchaseOrderService, err := purchaseorders.NewService(
		purchaseorders.NewRepository(dbClient.DB()),
		salesRepo,
		dbClient,
		ledger,
		validator,
		inventory,
		approvalMetrics,
	)
	if err != nil {
		logg.Error(context.Background(), "failed to create purchase order service", err)
		os.Exit(1)
	}

	addr := fmt.Sprintf(":%d", cfg.App.Port)
	ctx := logg.WithFields(context.Background(), map[string]any{
		"env":  cfg.App.Env,
		"addr": addr,
	})
	logg.Info(ctx, "starting api server")

	server := &http.Server{
		Addr: addr,
		Handler: routes.NewRouter(
			cfg,
			logg,
			dbClient,
			redisClient,
			gatherer,
			purchaseOrderService,
			salesService,
		),
	}

	errCh := make(chan error, 1)
	go func() {
		errCh <- server.ListenAndServe()
	}()

	stopCh := make(chan os.Signal, 1)
	signal.Notify(stopCh, os.Interrupt, syscall.SIGTERM)

	select {
	case err := <-errCh:
		if err != nil && err != http.ErrServerClosed {
			logg.Error(ctx, "api server stopped unexpectedly", err)
			os.Exit(1)
		}
	case sig := <-stopCh:
		logg.Info(logg.WithFields(ctx, map[string]any{"signal": sig.String()}), "shutting down api server")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), time.Duration(cfg.App.ShutdownTimeout)*time.Second)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logg.Error(ctx, "graceful shutdown failed", err)
			os.Exit(1)
		}
	}
}
