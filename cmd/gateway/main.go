package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/shopdesk/gateway"
	"github.com/example/shopdesk/pkg/auth"
	"github.com/example/shopdesk/pkg/basket"
	"github.com/example/shopdesk/pkg/catalog"
	"github.com/example/shopdesk/pkg/config"
	"github.com/example/shopdesk/pkg/discovery"
	"github.com/example/shopdesk/pkg/events"
	"github.com/example/shopdesk/pkg/order"
	"github.com/example/shopdesk/pkg/repository"
	"github.com/example/shopdesk/pkg/storage"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

func main() {
	cfg, err := config.Load(config.Path())
	if err != nil {
		panic(fmt.Sprintf("Failed to load config: %v", err))
	}

	logger, err := cfg.Log.NewLogger()
	if err != nil {
		panic(fmt.Sprintf("Failed to create logger: %v", err))
	}
	defer logger.Sync()

	gin.SetMode(gin.ReleaseMode)

	logger.Info("Starting API Gateway",
		zap.Int("port", cfg.Gateway.Port),
		zap.String("host", cfg.Gateway.Host))

	ctx := context.Background()

	db, err := repository.NewMySQL(&cfg.MySQL)
	if err != nil {
		logger.Fatal("Failed to connect to MySQL", zap.Error(err))
	}
	if err := repository.Migrate(db); err != nil {
		logger.Fatal("Failed to migrate schema", zap.Error(err))
	}

	redisRepo := repository.NewRedisRepository(&cfg.Redis)
	defer redisRepo.Close()
	if err := redisRepo.Ping(ctx); err != nil {
		logger.Warn("Redis connection failed", zap.Error(err))
	} else {
		logger.Info("Redis connected successfully")
	}

	var (
		publisher events.Publisher = events.Discard
		audit     gateway.AuditReader
	)
	mongoRepo, err := repository.NewMongoRepository(&cfg.MongoDB)
	if err != nil {
		logger.Warn("MongoDB unavailable, audit trail disabled", zap.Error(err))
	} else {
		defer mongoRepo.Close(context.Background())
		dispatcher, err := events.NewDispatcher(mongoRepo, cfg.Gateway.Name, logger)
		if err != nil {
			logger.Fatal("Failed to start audit dispatcher", zap.Error(err))
		}
		defer dispatcher.Close(5 * time.Second)
		publisher = dispatcher
		audit = mongoRepo
	}

	var photos catalog.PhotoStore
	if cfg.MinIO.Endpoint != "" {
		store, err := storage.NewPhotoStore(ctx, &cfg.MinIO)
		if err != nil {
			logger.Warn("MinIO unavailable, photo uploads disabled", zap.Error(err))
		} else {
			photos = store
		}
	}

	products := repository.NewProductRepository(db)
	orders := repository.NewOrderRepository(db)
	users := repository.NewUserRepository(db)

	tokens, err := auth.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	if err != nil {
		logger.Fatal("Invalid auth configuration", zap.Error(err))
	}

	baskets := basket.NewService(repository.NewBasketStore(redisRepo, cfg.Session.BasketTTL), products, logger)
	gw := gateway.NewGateway(cfg, logger, gateway.Services{
		Catalog:    catalog.NewService(products, photos, publisher, logger),
		Basket:     baskets,
		Orders:     order.NewService(orders, products, users, baskets, publisher, logger),
		Authorizer: auth.NewAuthorizer(users, logger),
		Tokens:     tokens,
		Audit:      audit,
	})
	gw.SetupRoutes()

	instance := &discovery.ServiceInstance{
		Name: cfg.Gateway.Name,
		Host: cfg.Gateway.Host,
		Port: cfg.Gateway.Port,
	}
	sd, err := discovery.NewServiceDiscovery(&cfg.Etcd, logger)
	if err != nil {
		logger.Warn("Failed to connect to etcd, continuing without service discovery", zap.Error(err))
	} else {
		defer sd.Close()
		if err := sd.Register(ctx, instance); err != nil {
			logger.Warn("Failed to register gateway", zap.Error(err))
		}
	}

	gwErr := make(chan error, 1)
	go func() {
		if err := gw.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			gwErr <- err
		}
	}()

	logger.Info("Gateway started successfully")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-gwErr:
		logger.Fatal("Gateway error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := gw.Shutdown(shutdownCtx); err != nil {
		logger.Error("Gateway shutdown failed", zap.Error(err))
	}

	if sd != nil {
		if err := sd.Deregister(shutdownCtx, instance); err != nil {
			logger.Error("Failed to deregister gateway", zap.Error(err))
		}
	}

	logger.Info("Gateway stopped")
}
