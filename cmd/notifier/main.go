package main

import (
	"context"
	"os"
	"os/signal"
	"strconv"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/juju/clock"

	"github.com/ariefcatur/go-threshing-market/internal/config"
	kafkax "github.com/ariefcatur/go-threshing-market/internal/kafka"
	"github.com/ariefcatur/go-threshing-market/internal/kv"
	"github.com/ariefcatur/go-threshing-market/internal/logger"
	"github.com/ariefcatur/go-threshing-market/internal/notify"
)

func mustAtoi(s, def string) int {
	if s == "" {
		s = def
	}
	i, err := strconv.Atoi(s)
	if err != nil {
		return 1
	}
	return i
}

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	if cfg.NotifierRecipient == "" {
		log.Fatal("NOTIFIER_RECIPIENT is required")
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	store, closeStore, err := kv.Open(ctx, cfg)
	if err != nil {
		log.Fatal("store open", "driver", cfg.StoreDriver, "error", err)
	}
	defer closeStore()

	relay := notify.NewRelay(store, notify.WithLogger(log))
	poller := notify.NewPoller(relay, cfg.NotifierRecipient, cfg.PollInterval, clock.WallClock,
		func(list []notify.Notification) {
			unread := notify.Unread(list)
			if len(list) == 0 {
				log.Info("no notifications", "recipient", cfg.NotifierRecipient)
				return
			}
			latest := list[0]
			log.Info("notifications changed",
				"recipient", cfg.NotifierRecipient,
				"unread", unread,
				"total", len(list),
				"latest_from", latest.Sender,
				"latest", latest.Message,
			)
		}, log)

	// Kafka consumer wakes the poller early when brokers are configured
	if len(cfg.KafkaBrokers) > 0 {
		group := getenv("NOTIFIER_GROUP", "notifier-"+cfg.NotifierRecipient)
		workers := mustAtoi(os.Getenv("NOTIFIER_WORKERS"), "1")
		cons := kafkax.NewConsumer(cfg.KafkaBrokers, group, notify.TopicNotificationCreated, workers, log.With("component", "consumer"))
		go func() {
			log.Info("notification consumer started", "group", group, "topic", notify.TopicNotificationCreated, "workers", workers)
			if err := cons.Start(ctx, notify.WakeOnEvent(cfg.NotifierRecipient, poller, log)); err != nil {
				log.Warn("consumer exit, polling only", "error", err)
			}
		}()
	}

	go func() {
		log.Info("watching notifications", "recipient", cfg.NotifierRecipient, "interval", cfg.PollInterval)
		_ = poller.Run(ctx)
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down notifier")
	cancel()
}

func getenv(k, def string) string {
	if v := os.Getenv(k); v != "" {
		return v
	}
	return def
}
