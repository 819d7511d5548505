package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/nbenhadid/foodcart/internal/backend"
	"github.com/nbenhadid/foodcart/internal/cart"
	"github.com/nbenhadid/foodcart/internal/checkout"
	"github.com/nbenhadid/foodcart/internal/config"
	"github.com/nbenhadid/foodcart/internal/httpx"
	kafkax "github.com/nbenhadid/foodcart/internal/kafka"
	"github.com/nbenhadid/foodcart/internal/konnect"
	"github.com/nbenhadid/foodcart/internal/postgres"
	"github.com/nbenhadid/foodcart/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB (checkout journal)
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db connect: %v", err)
	}
	defer db.Close()
	if err := postgres.EnsureSchema(ctx, db); err != nil {
		log.Fatalf("db schema: %v", err)
	}

	// Redis (cart documents)
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Kafka producer (checkout events)
	prod := kafkax.NewProducer(cfg.KafkaBrokers, 1024)
	prod.Start(ctx)

	// Collaborators
	api := backend.NewClient(cfg.BackendBaseURL)
	gateway := konnect.NewClient(cfg.KonnectBaseURL, cfg.KonnectAPIKey)

	store := cart.NewStore(rdb, cfg.ServiceFee, cfg.CartTTL)
	journal := &checkout.Journal{DB: db}
	svc := &checkout.Service{
		Cart:            store,
		Backend:         api,
		Gateway:         gateway,
		Journal:         journal,
		Producer:        prod,
		Redis:           rdb,
		ServiceName:     cfg.ServiceName,
		PollInterval:    cfg.PollInterval,
		MaxPollAttempts: cfg.PollMaxAttempts,
	}

	router := httpx.NewRouter()
	ch := &httpx.CartHandler{Store: store, Promos: api}
	ch.Register(router)
	co := &httpx.CheckoutHandler{Service: svc, History: journal, PollCtx: ctx}
	co.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}

	go func() {
		log.Printf("HTTP listening at %s", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down...")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	prod.Close()      // stop intake; buffered events still flush
	cancel()          // stop background pollers
	prod.WaitClosed()
}
