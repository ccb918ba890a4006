package main

import (
	"context"
	"fmt"
	"os"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/pharmacart/pharmacy-api/internal/auth"
	"github.com/pharmacart/pharmacy-api/internal/cache"
	"github.com/pharmacart/pharmacy-api/internal/config"
	"github.com/pharmacart/pharmacy-api/internal/database"
	"github.com/pharmacart/pharmacy-api/internal/handlers"
	"github.com/pharmacart/pharmacy-api/internal/logger"
	"github.com/pharmacart/pharmacy-api/internal/orders"
	"github.com/pharmacart/pharmacy-api/internal/repository"
	"github.com/pharmacart/pharmacy-api/internal/routes"
)

func main() {
	// Load .env if present; real deployments set the environment directly.
	_ = godotenv.Load()

	configPath := os.Getenv("CONFIG_PATH")
	if configPath == "" {
		configPath = "config.yaml"
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		fmt.Fprintf(os.Stderr, "config: %v\n", err)
		os.Exit(1)
	}

	log, err := logger.New(cfg.Log)
	if err != nil {
		fmt.Fprintf(os.Stderr, "logger: %v\n", err)
		os.Exit(1)
	}
	defer log.Sync()

	auth.Configure(cfg.JWT.Secret, cfg.JWT.Expiry)

	db, err := database.Open(cfg.Database)
	if err != nil {
		log.Fatal("database connection failed", zap.Error(err))
	}
	defer db.Close()

	// The cache is an accelerator, not a dependency. A dead Redis means
	// slower catalog reads, not a dead API.
	catalogCache := cache.New(cfg.Redis)
	if err := catalogCache.Ping(context.Background()); err != nil {
		log.Warn("redis unavailable, catalog caching disabled", zap.Error(err))
		catalogCache = nil
	} else {
		defer catalogCache.Close()
	}

	orderStore := repository.NewOrderStore(db)
	orderService := orders.NewService(orderStore, cfg.Orders, log)

	h := &handlers.Handlers{
		DB:     db,
		Log:    log,
		Cache:  catalogCache,
		Orders: orderService,
	}

	r := routes.SetupRouter(h)

	addr := fmt.Sprintf("%s:%d", cfg.Server.Host, cfg.Server.Port)
	log.Info("starting server", zap.String("addr", addr))
	if err := r.Run(addr); err != nil {
		log.Fatal("server exited", zap.Error(err))
	}
}
