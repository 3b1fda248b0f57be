package main

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"orderflow/internal/config"
	"orderflow/internal/events"
	kafkax "orderflow/internal/kafka"
	"orderflow/internal/logging"
	"orderflow/internal/metrics"
	"orderflow/internal/payment"
	"orderflow/internal/redisx"
)

func main() {
	_ = godotenv.Load()

	cfg := config.Load()
	service := config.String("SERVICE_NAME", "payment-service")
	group := config.String("CONSUMER_GROUP", events.GroupPaymentService)
	delay := config.Duration("HANDLER_DELAY", 800*time.Millisecond)
	log := logging.New(service, cfg.LogLevel)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	admin := kafkax.NewAdmin(cfg.KafkaBrokers)
	if err := kafkax.EnsureTopics(ctx, admin, events.Topics(), log); err != nil {
		log.Error("topic provisioning failed", "err", err)
		os.Exit(1)
	}

	disp := &kafkax.Dispatcher{
		Service: service,
		Log:     log,
		Handle:  payment.New(log, delay).Handle,
	}
	if cfg.RedisAddr != "" {
		rdb := redisx.New(cfg.RedisAddr)
		defer rdb.Close()
		disp.Dedup = &redisx.Dedup{Client: rdb, Service: service}
	}

	cons := kafkax.NewConsumer(kafkax.ConsumerConfig{
		Brokers:           cfg.KafkaBrokers,
		GroupID:           group,
		SessionTimeout:    cfg.SessionTimeout,
		HeartbeatInterval: cfg.HeartbeatInterval,
	}, log)

	if err := cons.Connect(ctx); err != nil {
		log.Error("connect failed", "err", err)
		os.Exit(1)
	}
	if err := cons.Subscribe(events.TopicOrderCreated, false); err != nil {
		log.Error("subscribe failed", "err", err)
		os.Exit(1)
	}

	msrv := &http.Server{Addr: cfg.MetricsAddr, Handler: metrics.Handler()}
	go func() {
		if err := msrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Error("metrics listen", "err", err)
		}
	}()

	errCh := make(chan error, 1)
	go func() { errCh <- cons.Run(ctx, disp.Dispatch) }()

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)

	select {
	case <-sig:
		log.Info("signal received, shutting down")
		cancel()
		if err := <-errCh; err != nil {
			log.Error("consumer exit", "err", err)
		}
	case err := <-errCh:
		if err != nil {
			log.Error("consumer exit", "err", err)
			_ = msrv.Close()
			os.Exit(1)
		}
	}
	_ = msrv.Close()
}
