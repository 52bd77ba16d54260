package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/example/shopdesk/pkg/auth"
	"github.com/example/shopdesk/pkg/basket"
	"github.com/example/shopdesk/pkg/config"
	"github.com/example/shopdesk/pkg/discovery"
	"github.com/example/shopdesk/pkg/events"
	"github.com/example/shopdesk/pkg/grpc"
	"github.com/example/shopdesk/pkg/order"
	"github.com/example/shopdesk/pkg/repository"
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

	logger.Info("Starting order service",
		zap.String("name", cfg.Server.Name),
		zap.Int("port", cfg.Server.Port))

	ctx := context.Background()

	db, err := repository.NewMySQL(&cfg.MySQL)
	if err != nil {
		logger.Fatal("Failed to connect to MySQL", zap.Error(err))
	}

	redisRepo := repository.NewRedisRepository(&cfg.Redis)
	defer redisRepo.Close()
	if err := redisRepo.Ping(ctx); err != nil {
		logger.Warn("Redis connection failed", zap.Error(err))
	} else {
		logger.Info("Redis connected successfully")
	}

	var publisher events.Publisher = events.Discard
	mongoRepo, err := repository.NewMongoRepository(&cfg.MongoDB)
	if err != nil {
		logger.Warn("MongoDB unavailable, audit trail disabled", zap.Error(err))
	} else {
		defer mongoRepo.Close(context.Background())
		dispatcher, err := events.NewDispatcher(mongoRepo, cfg.Server.Name, logger)
		if err != nil {
			logger.Fatal("Failed to start audit dispatcher", zap.Error(err))
		}
		defer dispatcher.Close(5 * time.Second)
		publisher = dispatcher
	}

	products := repository.NewProductRepository(db)
	users := repository.NewUserRepository(db)
	baskets := basket.NewService(repository.NewBasketStore(redisRepo, cfg.Session.BasketTTL), products, logger)
	orders := order.NewService(repository.NewOrderRepository(db), products, users, baskets, publisher, logger)
	tokens, err := auth.NewTokenVerifier(cfg.Auth.JWTSecret, cfg.Auth.Issuer)
	if err != nil {
		logger.Fatal("Invalid auth configuration", zap.Error(err))
	}

	server := grpc.NewServer(grpc.NewOrderServer(
		orders,
		auth.NewAuthorizer(users, logger),
		tokens,
		logger,
	))

	instance := &discovery.ServiceInstance{
		Name: cfg.Server.Name,
		Host: cfg.Server.Host,
		Port: cfg.Server.Port,
	}
	sd, err := discovery.NewServiceDiscovery(&cfg.Etcd, logger)
	if err != nil {
		logger.Fatal("Failed to connect to etcd", zap.Error(err))
	}
	defer sd.Close()

	if err := sd.Register(ctx, instance); err != nil {
		logger.Fatal("Failed to register service", zap.Error(err))
	}

	logger.Info("Service registered in etcd",
		zap.String("name", cfg.Server.Name),
		zap.String("address", instance.Addr()))

	serverErr := make(chan error, 1)
	go func() {
		if err := grpc.Serve(server, cfg.Server.Addr(), logger); err != nil {
			serverErr <- err
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, os.Interrupt, syscall.SIGTERM)

	select {
	case <-sigCh:
		logger.Info("Received shutdown signal")
	case err := <-serverErr:
		logger.Fatal("Server error", zap.Error(err))
	}

	if err := sd.Deregister(ctx, instance); err != nil {
		logger.Error("Failed to deregister service", zap.Error(err))
	}
	server.GracefulStop()

	logger.Info("Service stopped")
}
