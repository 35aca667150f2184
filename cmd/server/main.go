package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/YNK0/ruvm/internal/config"
	"github.com/YNK0/ruvm/internal/events"
	"github.com/YNK0/ruvm/internal/handler"
	"github.com/YNK0/ruvm/internal/middleware"
	"github.com/YNK0/ruvm/internal/router"
	"github.com/YNK0/ruvm/internal/store"
	"github.com/YNK0/ruvm/internal/ws"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}

	// database
	pool, err := store.Connect(context.Background(), cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer pool.Close()
	log.Println("connected to postgres")

	// run migrations
	if migration, err := os.ReadFile(cfg.MigrationFile); err != nil {
		log.Printf("migration file not found, skipping: %v", err)
	} else if _, err := pool.Exec(context.Background(), string(migration)); err != nil {
		log.Printf("migration warning: %v", err)
	} else {
		log.Println("migration applied")
	}

	st := store.New(pool)

	hub := ws.NewHub()
	go hub.Run()

	var pub *events.Publisher
	if cfg.RabbitURL != "" {
		pub, err = events.NewPublisher(cfg.RabbitURL, cfg.EventExchange)
		if err != nil {
			log.Printf("rabbitmq unavailable, events disabled: %v", err)
		} else {
			defer pub.Close()
			log.Printf("publishing events to %s", cfg.EventExchange)
		}
	}

	h := handler.New(st, cfg.JWTSecret, hub, pub)
	rl := middleware.NewRateLimiter(5, 10)
	r := router.New(h, hub, rl, cfg.JWTSecret)

	srv := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      r,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("http on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("http: %v", err)
		}
	}()

	// graceful shutdown
	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
	log.Println("shutting down")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	if err := srv.Shutdown(ctx); err != nil {
		log.Printf("shutdown: %v", err)
	}
}
