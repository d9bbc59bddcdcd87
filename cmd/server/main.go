package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"odenehouk/config"
	"odenehouk/internal/database"
	"odenehouk/internal/queue"
	"odenehouk/internal/repository"
	"odenehouk/internal/router"
	"odenehouk/internal/security"
	"odenehouk/pkg/cloudinary"
	"odenehouk/pkg/payment"

	"github.com/redis/go-redis/v9"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	db, err := database.NewDB(&cfg.Database)
	if err != nil {
		log.Fatalf("database: %v", err)
	}
	if err := database.AutoMigrate(db); err != nil {
		log.Fatalf("migrate: %v", err)
	}
	database.SeedAdmin(db, &cfg.Security)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	var rdb redis.UniversalClient
	if cfg.Redis.Enabled() {
		rdb = redis.NewClient(&redis.Options{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
		pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
		if err := rdb.Ping(pingCtx).Err(); err != nil {
			log.Fatalf("redis: %v", err)
		}
		cancel()
		defer rdb.Close()
		log.Printf("[redis] connected to %s", cfg.Redis.Addr)
	}

	policy := security.Policy{Threshold: cfg.Security.LockThreshold, Window: cfg.Security.LockWindow}
	var attempts security.AttemptTracker = security.NewMemoryTracker(policy)
	if cfg.Security.AttemptStore == "redis" {
		if rdb == nil {
			log.Fatalf("ATTEMPT_STORE=redis requires REDIS_ADDR")
		}
		attempts = security.NewRedisTracker(rdb, policy)
	}

	var provider payment.Provider
	if cfg.Payment.SecretKey == "" && cfg.Payment.Mode == "test" {
		log.Printf("[payment] no STRIPE_SECRET_KEY, using stub provider")
		provider = &payment.StubProvider{}
	} else {
		provider = payment.NewStripeProvider(cfg.Payment.APIBaseURL, cfg.Payment.SecretKey)
	}

	var cloud cloudinary.Client
	if cfg.Cloudinary.Enabled() {
		cloud, err = cloudinary.NewClientFromParams(cfg.Cloudinary.CloudName, cfg.Cloudinary.APIKey, cfg.Cloudinary.APISecret)
		if err != nil {
			log.Fatalf("cloudinary: %v", err)
		}
	} else {
		log.Printf("[cloudinary] disabled: set CLOUDINARY_* to enable product uploads")
	}

	var publisher queue.Publisher = queue.LogPublisher{}
	if cfg.Kafka.Enabled() {
		publisher = queue.NewKafkaPublisher(cfg.Kafka.Brokers, cfg.Kafka.Topic)
		log.Printf("[outbox] publishing to kafka topic %s", cfg.Kafka.Topic)
	}
	dispatcher := &queue.Dispatcher{
		Repo:         repository.NewOutboxRepository(db),
		Publisher:    publisher,
		PollInterval: cfg.Kafka.PollInterval,
		BatchSize:    cfg.Kafka.BatchSize,
		MaxAttempts:  cfg.Kafka.MaxAttempts,
	}
	done := make(chan struct{})
	go func() {
		defer close(done)
		dispatcher.Run(ctx)
	}()

	engine := router.Setup(cfg, db, router.Deps{
		Provider: provider,
		Attempts: attempts,
		Redis:    rdb,
		Cloud:    cloud,
	})
	srv := &http.Server{
		Addr:         ":" + cfg.Server.Port,
		Handler:      engine,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}
	go func() {
		log.Printf("server listening on :%s", cfg.Server.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("listen: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("shutting down...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("server shutdown: %v", err)
	}
	<-done
	if err := publisher.Close(); err != nil {
		log.Printf("publisher close: %v", err)
	}
	fmt.Println("server stopped")
}
