// Notifier consumes booking events and writes user-facing notifications.
// It stands in for an email/push channel; today it logs.
package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"

	"github.com/YNK0/ruvm/internal/config"
	"github.com/YNK0/ruvm/internal/events"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	if cfg.RabbitURL == "" {
		log.Fatal("RABBITMQ_URL is required")
	}

	keys := []string{"booking.*", "space.*"}

	var cons *events.Consumer
	for {
		cons, err = events.NewConsumer(cfg.RabbitURL, cfg.EventExchange, "notifier.q", keys)
		if err == nil {
			break
		}
		log.Printf("connect failed: %v; retry in 2s", err)
		time.Sleep(2 * time.Second)
	}
	defer cons.Close()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	deliveries, err := cons.Deliveries(ctx)
	if err != nil {
		log.Fatalf("consume: %v", err)
	}

	go func() {
		for d := range deliveries {
			if err := handle(d); err != nil {
				log.Printf("handle %s: %v", d.RoutingKey, err)
				_ = d.Nack(false, true)
				continue
			}
			_ = d.Ack(false)
		}
	}()

	log.Printf("notifier started, exchange=%s bindings=%v", cfg.EventExchange, keys)

	ch := make(chan os.Signal, 1)
	signal.Notify(ch, syscall.SIGINT, syscall.SIGTERM)
	<-ch
	log.Println("shutting down")
}

func handle(d amqp.Delivery) error {
	switch d.RoutingKey {
	case events.RKBookingCreated:
		ev, err := events.Unmarshal[events.BookingEvent](d.Body)
		if err != nil {
			return err
		}
		log.Printf("booking %s created: space=%s %s - %s",
			ev.BookingID, ev.SpaceID,
			time.Unix(ev.Start, 0).Format(time.RFC3339),
			time.Unix(ev.End, 0).Format(time.RFC3339))

	case events.RKBookingCancelled:
		ev, err := events.Unmarshal[events.BookingEvent](d.Body)
		if err != nil {
			return err
		}
		log.Printf("booking %s cancelled", ev.BookingID)

	case events.RKSpaceDeleted:
		ev, err := events.Unmarshal[events.SpaceEvent](d.Body)
		if err != nil {
			return err
		}
		log.Printf("space %s deleted, existing bookings orphaned", ev.SpaceID)

	default:
		log.Printf("skip unknown key=%s", d.RoutingKey)
	}
	return nil
}
