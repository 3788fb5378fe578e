package main

import (
	"context"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/qanzmarket/qanz-backend/api/routes"
	"github.com/qanzmarket/qanz-backend/internal/cash"
	"github.com/qanzmarket/qanz-backend/internal/codes"
	"github.com/qanzmarket/qanz-backend/internal/deliveries"
	"github.com/qanzmarket/qanz-backend/internal/events"
	"github.com/qanzmarket/qanz-backend/internal/orders"
	"github.com/qanzmarket/qanz-backend/internal/products"
	"github.com/qanzmarket/qanz-backend/internal/rewards"
	"github.com/qanzmarket/qanz-backend/internal/settlements"
	"github.com/qanzmarket/qanz-backend/internal/wallet"
	"github.com/qanzmarket/qanz-backend/pkg/config"
	"github.com/qanzmarket/qanz-backend/pkg/db"
	"github.com/qanzmarket/qanz-backend/pkg/logger"
	"github.com/qanzmarket/qanz-backend/pkg/metrics"
	"github.com/qanzmarket/qanz-backend/pkg/migrate"
	"github.com/qanzmarket/qanz-backend/pkg/redis"
)

func main() {
	logg := logger.New(logger.Options{ServiceName: "api"})

	if err := godotenv.Load(); err != nil {
		logg.Warn(context.Background(), ".env file not found, relying on environment")
	}

	cfg, err := config.Load()
	if err != nil {
		logg.Error(context.Background(), "failed to load config", err)
		os.Exit(1)
	}

	logg = logger.New(logger.Options{
		ServiceName: "api",
		Level:       logger.ParseLevel(cfg.App.LogLevel),
		WarnStack:   cfg.App.LogWarnStack,
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

	redisClient, err := redis.New(context.Background(), cfg.Redis, logg)
	if err != nil {
		logg.Error(context.Background(), "failed to bootstrap redis", err)
		os.Exit(1)
	}
	defer func() {
		if err := redisClient.Close(); err != nil {
			logg.Error(context.Background(), "error closing redis", err)
		}
	}()

	notifier := events.NewRedisNotifier(redisClient, logg)
	conn := dbClient.DB()

	productRepo := products.NewRepository(conn)
	orderRepo := orders.NewRepository(conn)
	deliveryRepo := deliveries.NewRepository(conn)
	settlementRepo := settlements.NewRepository(conn)
	cashRepo := cash.NewRepository(conn)
	walletRepo := wallet.NewRepository(conn)
	codeRepo := codes.NewRepository(conn)
	rewardRepo := rewards.NewRepository(conn)

	productService, err := products.NewService(productRepo, notifier)
	requireService(logg, "products", err)

	walletService, err := wallet.NewService(walletRepo, notifier)
	requireService(logg, "wallet", err)

	codeService, err := codes.NewService(codeRepo, walletRepo, dbClient, notifier, logg)
	requireService(logg, "codes", err)

	rewardService, err := rewards.NewService(rewardRepo, walletRepo, dbClient, notifier, logg)
	requireService(logg, "rewards", err)

	platformRate, err := cfg.Fees.Rate()
	if err != nil {
		logg.Error(context.Background(), "invalid fees config", err)
		os.Exit(1)
	}
	settlementService, err := settlements.NewService(settlementRepo, settlements.Fees{
		PlatformRate:   platformRate,
		DriverFeeCents: cfg.Fees.DriverFeeCents,
	}, notifier)
	requireService(logg, "settlements", err)

	cashService, err := cash.NewService(cashRepo, deliveryRepo, notifier, logg)
	requireService(logg, "cash", err)

	deliveryService, err := deliveries.NewService(deliveryRepo, orderRepo, settlementService, cashService, rewardService, notifier, logg)
	requireService(logg, "deliveries", err)

	orderService, err := orders.NewService(orderRepo, productRepo, dbClient, deliveryService, notifier, logg)
	requireService(logg, "orders", err)

	registry := prometheus.NewRegistry()
	httpMetrics := metrics.NewHTTPMetrics(registry)

	port := os.Getenv("PORT")
	if port == "" {
		port = cfg.App.Port
	}
	addr := ":" + port
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
			registry,
			httpMetrics,
			productService,
			orderService,
			deliveryService,
			settlementService,
			cashService,
			walletService,
			codeService,
			rewardService,
		),
	}

	if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		logg.Error(ctx, "api server stopped unexpectedly", err)
		os.Exit(1)
	}
}

func requireService(logg *logger.Logger, name string, err error) {
	if err != nil {
		ctx := logg.WithField(context.Background(), "service", name)
		logg.Error(ctx, "failed to create service", err)
		os.Exit(1)
	}
}
