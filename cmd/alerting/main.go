package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/farmwatch/blight-server/internal/alerting"
	"github.com/farmwatch/blight-server/internal/database"
	"github.com/farmwatch/blight-server/internal/protocol"
	"github.com/farmwatch/blight-server/internal/queue"
	"github.com/farmwatch/blight-server/internal/risk"
	"github.com/farmwatch/blight-server/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	fmt.Println("Starting Alerting Service...")

	redisClient := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})
	defer redisClient.Close()

	ctx := context.Background()
	if err := redisClient.Ping(ctx).Err(); err != nil {
		log.Fatalf("Failed to connect to Redis: %v", err)
	}
	fmt.Println("Connected to Redis")

	stateManager := alerting.NewStateManager(redisClient, cfg.Alerting.Cooldown)

	alertProducer := queue.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicAlerts)
	defer alertProducer.Close()
	fmt.Println("Alert producer initialized")

	consumer := queue.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicRecords, "alerting-group")
	defer consumer.Close()
	fmt.Println("Kafka consumer initialized")

	fmt.Println("\n✓ Alerting Service is running")
	fmt.Println("✓ Press Ctrl+C to stop")

	go func() {
		for {
			msg, err := consumer.Consume(ctx)
			if err != nil {
				log.Printf("Failed to consume message: %v\n", err)
				continue
			}

			event, err := protocol.DecodeRecordEvent(msg.Value)
			if err != nil {
				log.Printf("Failed to decode record event: %v\n", err)
				consumer.Commit(ctx, msg)
				continue
			}

			evaluate(ctx, event, stateManager, alertProducer)

			if err := consumer.Commit(ctx, msg); err != nil {
				log.Printf("Failed to commit offset: %v\n", err)
			}
		}
	}()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nShutting down gracefully...")
}

// evaluate runs the alert policy over a record event and publishes every
// alert that passes de-duplication. All failures here are best-effort:
// logged and dropped, never allowed to break the pipeline.
func evaluate(ctx context.Context, event *protocol.RecordEvent, sm *alerting.StateManager, producer *queue.Producer) {
	rec := recordFromEvent(event)

	for _, alert := range alerting.Evaluate(rec) {
		send, err := sm.ShouldSend(ctx, event.Date, alert)
		if err != nil {
			log.Printf("Failed to check alert state, sending anyway: %v\n", err)
			send = true
		}
		if !send {
			continue
		}

		payload := &protocol.AlertMessage{
			Alert:  alert,
			Day:    event.Date,
			SentAt: time.Now().UTC(),
		}
		data, err := protocol.EncodeAlertMessage(payload)
		if err != nil {
			log.Printf("Failed to encode alert: %v\n", err)
			continue
		}
		if err := producer.Publish(ctx, alert.FarmerID, data); err != nil {
			log.Printf("Failed to publish alert: %v\n", err)
			continue
		}

		fmt.Printf("🚨 Alert fired: %s (%s) for farmer %s\n", alert.Title, alert.Priority, alert.FarmerID)

		if err := sm.MarkSent(ctx, event.Date, alert); err != nil {
			log.Printf("Failed to mark alert sent: %v\n", err)
		}
	}
}

// recordFromEvent rebuilds the slice of the daily record the alert policy
// needs from the wire event.
func recordFromEvent(event *protocol.RecordEvent) *database.DailyRecord {
	return &database.DailyRecord{
		ID:         event.RecordID,
		FarmerID:   event.FarmerID,
		CRI:        event.CRI,
		RiskLevel:  risk.Level(event.RiskLevel),
		BlightType: risk.BlightType(event.BlightType),
		Changes:    event.Changes,
	}
}
