package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/redis/go-redis/v9"

	"orderflow/internal/config"
	"orderflow/internal/events"
	"orderflow/internal/httpx"
	kafkax "orderflow/internal/kafka"
	"orderflow/internal/logging"
	"orderflow/internal/metrics"
	"orderflow/internal/orders"
	"orderflow/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	service := config.String("SERVICE_NAME", "order-service")
	log := logging.New(service, cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// Topic provisioning is idempotent; racing with other starting
	// instances is fine.
	admin := kafkax.NewAdmin(cfg.KafkaBrokers)
	if err := kafkax.EnsureTopics(ctx, admin, events.Topics(), log); err != nil {
		log.Error("topic provisioning failed", "err", err)
		os.Exit(1)
	}

	prod := kafkax.NewProducer(cfg.KafkaBrokers)
	defer prod.Close()

	var rdb *redis.Client
	if cfg.RedisAddr != "" {
		rdb = redisx.New(cfg.RedisAddr)
		defer rdb.Close()
	}

	op := &orders.Producer{Pub: prod, Service: service, Log: log}
	router := httpx.NewRouter()
	oh := &httpx.OrdersHandler{Producer: op, Redis: rdb, Service: service, Log: log}
	oh.Register(router)

	srv := &http.Server{Addr: cfg.HTTPAddr, Handler: router}
	msrv := &http.Server{Addr: cfg.MetricsAddr, Handler: metrics.Handler()}

	go func() {
		log.Info("http listening", "addr", cfg.HTTPAddr)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("listen", "err", err)
			os.Exit(1)
		}
	}()
	go func() {
		if err := msrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics listen", "err", err)
		}
	}()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Info("shutting down")

	ctx2, cancel2 := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel2()
	_ = srv.Shutdown(ctx2)
	_ = msrv.Shutdown(ctx2)
}
