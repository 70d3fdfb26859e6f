package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/rs/zerolog/log"

	"github.com/feastly/go-food-orders/internal/config"
	kafkax "github.com/feastly/go-food-orders/internal/kafka"
	"github.com/feastly/go-food-orders/internal/logging"
	"github.com/feastly/go-food-orders/internal/notify"
	"github.com/feastly/go-food-orders/internal/orders"
	"github.com/feastly/go-food-orders/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	logging.Setup("notifier")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Redis: dedup keys, status cache and the pub/sub fanout channel
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	fanout := notify.NewFanout(&notify.RedisPublisher{Redis: rdb})
	fanout.Start(ctx)

	svc := &notify.Service{
		Fanout:      fanout,
		Redis:       rdb,
		ServiceName: "notifier",
	}

	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.NotifierGroup, orders.TopicStatusChanged, cfg.NotifierWorkers)

	go func() {
		log.Info().
			Str("group", cfg.NotifierGroup).
			Str("topic", orders.TopicStatusChanged).
			Int("workers", cfg.NotifierWorkers).
			Msg("notifier consumer started")
		if err := cons.Start(ctx, svc.HandleStatusChanged); err != nil {
			log.Error().Err(err).Msg("consumer exit")
			cancel()
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info().Msg("shutting down notifier...")
	cancel()
	time.Sleep(500 * time.Millisecond)
}
