package main

import (
	"context"
	"database/sql"
	"errors"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/ndkhanh17/BE-Tacoli/internal/config"
	"github.com/ndkhanh17/BE-Tacoli/internal/db"
	"github.com/ndkhanh17/BE-Tacoli/internal/events"
	"github.com/ndkhanh17/BE-Tacoli/internal/logger"
	"github.com/ndkhanh17/BE-Tacoli/internal/middleware"
	"github.com/ndkhanh17/BE-Tacoli/internal/order"
	"github.com/ndkhanh17/BE-Tacoli/internal/payment"
	"github.com/ndkhanh17/BE-Tacoli/internal/product"
	"github.com/ndkhanh17/BE-Tacoli/internal/telemetry"
	"github.com/ndkhanh17/BE-Tacoli/internal/transport"
)

const version = "1.0.0"

func main() {
	cfg := config.LoadConfig()

	logger.Init(cfg.AppEnv)
	defer logger.Sync()
	log := logger.L()

	ctx := context.Background()

	shutdownTracer, err := telemetry.InitTracerProvider(ctx, cfg.OTLPEndpoint, "tacoli-api", version)
	if err != nil {
		log.Fatal("failed to init tracer provider", zap.Error(err))
	}
	defer func() {
		if err := shutdownTracer(context.Background()); err != nil {
			log.Warn("tracer shutdown error", zap.Error(err))
		}
	}()

	database := db.InitDB(cfg)
	defer database.Close()

	publisher, closePublisher := newPublisher(cfg)
	defer closePublisher()

	limiter := middleware.NewRateLimiter()
	done := make(chan struct{})
	go limiter.Cleanup(done)
	defer close(done)

	server := newServer(cfg, database, publisher, limiter)

	go func() {
		log.Info("🚀 REST API running", zap.String("addr", server.Addr), zap.String("env", cfg.AppEnv))
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal("server error", zap.Error(err))
		}
	}()

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop

	log.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Error("shutdown error", zap.Error(err))
	}
}

// newServer wires repositories, services and handlers into the HTTP server.
func newServer(cfg *config.Config, database *sql.DB, publisher events.Publisher, limiter *middleware.RateLimiter) *http.Server {
	productRepo := product.NewRepository(database)
	orderRepo := order.NewRepository(database)
	paymentRepo := payment.NewRepository(database)

	orderSvc := order.NewService(orderRepo, productRepo, publisher)
	paymentSvc := payment.NewService(
		paymentRepo,
		orderRepo,
		payment.NewDefaultRegistry(cfg),
		publisher,
		cfg.Bank,
	)

	router := transport.NewRouter(transport.RouterConfig{
		JWTSecret: cfg.JWTSecret,
		ClientURL: cfg.ClientURL,
		DB:        database,
		Limiter:   limiter,
		Orders:    order.NewHandler(orderSvc),
		Payments:  payment.NewHandler(paymentSvc),
	})

	return &http.Server{
		Addr:         ":" + cfg.AppPort,
		Handler:      router,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
	}
}

// newPublisher returns the Kafka producer when brokers are configured.
func newPublisher(cfg *config.Config) (events.Publisher, func()) {
	if len(cfg.KafkaBrokers) == 0 {
		logger.L().Info("no kafka brokers configured, domain events disabled")
		return events.Noop(), func() {}
	}

	producer := events.NewProducer(cfg.KafkaBrokers, cfg.KafkaTopic)
	return producer, func() {
		if err := producer.Close(); err != nil {
			logger.L().Warn("failed to close kafka producer", zap.Error(err))
		}
	}
}
