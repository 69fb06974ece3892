package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/ariefcatur/go-threshing-market/internal/advisory"
	"github.com/ariefcatur/go-threshing-market/internal/config"
	"github.com/ariefcatur/go-threshing-market/internal/httpx"
	kafkax "github.com/ariefcatur/go-threshing-market/internal/kafka"
	"github.com/ariefcatur/go-threshing-market/internal/kv"
	"github.com/ariefcatur/go-threshing-market/internal/logger"
	"github.com/ariefcatur/go-threshing-market/internal/market"
	"github.com/ariefcatur/go-threshing-market/internal/notify"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		panic(err)
	}
	defer log.Sync()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Store
	store, closeStore, err := kv.Open(ctx, cfg)
	if err != nil {
		log.Fatal("store open", "driver", cfg.StoreDriver, "error", err)
	}
	defer closeStore()

	// Catalog
	catalog := market.DefaultCatalog()
	if cfg.CatalogFile != "" {
		catalog, err = market.LoadCatalogFile(cfg.CatalogFile)
		if err != nil {
			log.Fatal("catalog load", "file", cfg.CatalogFile, "error", err)
		}
	}

	// Relay, announcing on Kafka when brokers are configured
	relayOpts := []notify.Option{
		notify.WithRetention(notify.Retention{MaxKeep: cfg.NotifyMaxKeep, MaxAge: cfg.NotifyMaxAge}),
		notify.WithLogger(log.With("component", "relay")),
	}
	var prod *kafkax.Producer
	if len(cfg.KafkaBrokers) > 0 {
		prod = kafkax.NewProducer(cfg.KafkaBrokers, notify.TopicNotificationCreated, 1024, log.With("component", "producer"))
		prod.Start()
		relayOpts = append(relayOpts, notify.WithPublisher(&notify.KafkaPublisher{Producer: prod, ServiceName: cfg.ServiceName}))
	}
	relay := notify.NewRelay(store, relayOpts...)

	advisor := advisory.NewClient(cfg.AdvisoryAPIKey, cfg.AdvisoryBaseURL, cfg.AdvisoryModel,
		advisory.WithLogger(log.With("component", "advisory")))
	if cfg.AdvisoryAPIKey == "" {
		log.Warn("ADVISORY_API_KEY not set, advice routes will answer 503")
	}

	// Handlers
	sessions := &httpx.Sessions{
		Store:       store,
		Notifier:    relay,
		NotifyOnAdd: cfg.CartNotifyOnAdd,
		Log:         log.With("component", "cart"),
	}
	router := httpx.NewRouter(log.With("component", "http"))
	(&httpx.MarketHandler{
		Sessions: sessions,
		Catalog:  catalog,
		Listings: &market.Listings{
			Catalog:    catalog,
			Notifier:   relay,
			Recipients: cfg.ListingRecipients,
			Log:        log.With("component", "listings"),
		},
	}).Register(router)
	(&httpx.NotificationsHandler{Sessions: sessions, Relay: relay}).Register(router)
	(&httpx.AdviceHandler{Advisor: advisor}).Register(router)

	// HTTP server
	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router, ReadHeaderTimeout: 5 * time.Second}

	go func() {
		log.Info("HTTP listening", "addr", cfg.HTTPAddr, "store", cfg.StoreDriver, "products", len(catalog.All()))
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("listen", "error", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	if prod != nil {
		prod.Close()
		prod.WaitClosed()
	}
	cancel()
}
