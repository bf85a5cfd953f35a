package main

import (
	"context"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/hanynan8/LapTech-sub002/internal/cart"
	"github.com/hanynan8/LapTech-sub002/internal/catalog"
	"github.com/hanynan8/LapTech-sub002/internal/checkout"
	"github.com/hanynan8/LapTech-sub002/internal/config"
	"github.com/hanynan8/LapTech-sub002/internal/db"
	"github.com/hanynan8/LapTech-sub002/internal/docstore"
	httpapi "github.com/hanynan8/LapTech-sub002/internal/http"
	"github.com/hanynan8/LapTech-sub002/internal/kv"
	"github.com/hanynan8/LapTech-sub002/internal/notify"
	"github.com/hanynan8/LapTech-sub002/internal/order"
	"github.com/hanynan8/LapTech-sub002/internal/payment"
	"github.com/hanynan8/LapTech-sub002/internal/sequence"
)

func main() {
	logger, err := zap.NewProduction()
	if err != nil {
		panic(err)
	}
	defer logger.Sync()

	cfg, err := config.Load()
	if err != nil {
		logger.Fatal("load config", zap.Error(err))
	}

	if err := db.RunMigrations(cfg.Postgres.DSN, logger); err != nil {
		logger.Fatal("run migrations", zap.Error(err))
	}

	database, err := db.Open(cfg.Postgres.DSN)
	if err != nil {
		logger.Fatal("open database", zap.Error(err))
	}
	defer database.Close()

	redisStore := kv.NewRedisStore(cfg.Redis)
	defer redisStore.Close()
	if err := redisStore.Ping(context.Background()); err != nil {
		logger.Fatal("ping redis", zap.Error(err))
	}

	rabbitConn, err := notify.DialRabbit(cfg.Rabbit.URL)
	if err != nil {
		logger.Fatal("dial rabbitmq", zap.Error(err))
	}
	defer rabbitConn.Close()

	sequenceRepo := sequence.NewRepository(database)
	publisher, err := notify.NewRabbitPublisher(rabbitConn, sequenceRepo)
	if err != nil {
		logger.Fatal("create event publisher", zap.Error(err))
	}

	store := docstore.NewClient(cfg.DocStore.BaseURL, nil)

	cartService := cart.NewService(
		cart.NewRemoteBackend(store, cfg.DocStore.CartCollection),
		cart.NewLocalBackend(redisStore),
		publisher,
		logger,
	)

	paymentClient := payment.NewClient(cfg.Payment.BaseURL, cfg.Payment.ClientID, cfg.Payment.Secret, nil)
	orderLedger := order.NewRepository(database)
	profileStore := order.NewProfileStore(store, cfg.DocStore.ProfileCollection)
	sessions := checkout.NewSessionStore(redisStore)
	orchestrator := checkout.NewOrchestrator(paymentClient, profileStore, orderLedger, cartService, sessions, logger)

	router := httpapi.NewRouter(httpapi.RouterConfig{
		Cart:      httpapi.NewCartHandler(cartService),
		Checkout:  httpapi.NewCheckoutHandler(cartService, orchestrator),
		Orders:    httpapi.NewOrdersHandler(orderLedger),
		Catalog:   catalog.NewService(store, cfg.DocStore.ProductsCollection),
		JWTSecret: cfg.Session.JWTSecret,
	})

	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      router,
		ReadTimeout:  5 * time.Second,
		WriteTimeout: 60 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	errCh := make(chan error, 1)
	go func() {
		logger.Info("storefront listening", zap.String("port", cfg.Server.Port))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case <-ctx.Done():
		logger.Info("shutdown signal received")
	case err := <-errCh:
		logger.Fatal("server error", zap.Error(err))
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Warn("graceful shutdown error", zap.Error(err))
	}
	if err := publisher.Close(); err != nil {
		logger.Warn("publisher close error", zap.Error(err))
	}
}
