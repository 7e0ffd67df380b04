package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"ai-datachat-be/internal/config"
	"ai-datachat-be/pkg/events"
	pktNats "ai-datachat-be/pkg/nats"

	"github.com/fatih/color"
)

// Tails the event stream so chat activity can be watched live while
// exercising the API. Requires a running NATS server with JetStream.
func main() {
	cfg := config.Load()

	sub, err := pktNats.NewSubscriber(cfg.App.NatsURL)
	if err != nil {
		log.Fatalf("[FATAL] Failed to connect to NATS: %v", err)
	}
	defer sub.Close()

	err = sub.Subscribe(pktNats.SubjectPrefix+">", "chat-events-probe", func(ctx context.Context, event events.Event) error {
		switch event.EventType() {
		case events.TypeDataQuestionAnswered:
			color.Green("[%s] %s %v", event.Timestamp().Format("15:04:05"), event.EventType(), event.Payload())
		case events.TypeSessionDeleted:
			color.Red("[%s] %s %v", event.Timestamp().Format("15:04:05"), event.EventType(), event.Payload())
		default:
			color.Yellow("[%s] %s %v", event.Timestamp().Format("15:04:05"), event.EventType(), event.Payload())
		}
		return nil
	})
	if err != nil {
		log.Fatalf("[FATAL] Failed to subscribe: %v", err)
	}

	color.Cyan("🔭 Listening for chat events on %s (Ctrl+C to stop)", cfg.App.NatsURL)

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}
