package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/feastly/go-food-orders/internal/cart"
	"github.com/feastly/go-food-orders/internal/config"
	"github.com/feastly/go-food-orders/internal/httpx"
	kafkax "github.com/feastly/go-food-orders/internal/kafka"
	"github.com/feastly/go-food-orders/internal/lifecycle"
	"github.com/feastly/go-food-orders/internal/logging"
	"github.com/feastly/go-food-orders/internal/metrics"
	"github.com/feastly/go-food-orders/internal/orders"
	"github.com/feastly/go-food-orders/internal/payment"
	"github.com/feastly/go-food-orders/internal/postgres"
	"github.com/feastly/go-food-orders/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logging.Setup(cfg.ServiceName)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatal().Err(err).Msg("db connect")
	}
	defer db.Close()

	store := orders.NewPGStore(db)
	if err := store.EnsureSchema(ctx); err != nil {
		log.Fatal().Err(err).Msg("schema")
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producers, one per topic
	placed := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicOrderPlaced, 1024)
	placed.Start(ctx)
	status := kafkax.NewProducer(cfg.KafkaBrokers, orders.TopicStatusChanged, 1024)
	status.Start(ctx)

	// Payment authorizer: external gateway if configured, stub otherwise
	var authorizer payment.Authorizer
	if cfg.PaymentGateway != "" {
		authorizer = payment.NewHTTPAuthorizer(cfg.PaymentGateway, cfg.PaymentTimeout)
	} else {
		log.Warn().Msg("PAYMENT_GATEWAY_URL not set, using stub authorizer")
		authorizer = payment.NewStubAuthorizer()
	}

	coord := &lifecycle.Coordinator{
		Store:          store,
		Authorizer:     authorizer,
		PlacedProducer: placed,
		StatusProducer: status,
		Policy:         lifecycle.DefaultPolicy(),
		ServiceName:    cfg.ServiceName,
	}

	m := metrics.NewServerMetrics("api")
	router := httpx.NewRouter(m)
	h := &httpx.Handler{
		Carts:   &cart.Store{Redis: rdb},
		Coord:   coord,
		Redis:   rdb,
		Metrics: m,
	}
	h.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Info().Str("addr", cfg.HTTPAddr).Msg("HTTP listening")
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal().Err(err).Msg("listen")
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	placed.Close()
	status.Close()
	cancel()
	placed.WaitClosed()
	status.WaitClosed()
}
