package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/farmwatch/blight-server/internal/database"
	"github.com/farmwatch/blight-server/internal/notification"
	"github.com/farmwatch/blight-server/internal/protocol"
	"github.com/farmwatch/blight-server/internal/queue"
	"github.com/farmwatch/blight-server/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	fmt.Println("Starting Notification Service...")

	db, err := database.Connect(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	fmt.Println("Connected to database")

	notifier := notification.NewEmailNotifier(&cfg.SMTP)

	// Test SMTP connection (optional, will skip if not configured)
	if err := notifier.TestConnection(); err != nil {
		fmt.Printf("Note: %v (notifications will be logged only)\n", err)
	}

	consumer := queue.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicAlerts, "notification-group")
	defer consumer.Close()
	fmt.Println("Kafka consumer initialized")

	ctx := context.Background()

	fmt.Println("\n✓ Notification Service is running")
	fmt.Println("✓ Press Ctrl+C to stop")

	go func() {
		for {
			msg, err := consumer.Consume(ctx)
			if err != nil {
				log.Printf("Failed to consume message: %v\n", err)
				continue
			}

			alertMsg, err := protocol.DecodeAlertMessage(msg.Value)
			if err != nil {
				log.Printf("Failed to decode alert: %v\n", err)
				consumer.Commit(ctx, msg)
				continue
			}

			settings, err := db.GetFarmerSettings(alertMsg.Alert.FarmerID)
			if err != nil {
				log.Printf("Failed to load settings for farmer %s, using defaults: %v\n",
					alertMsg.Alert.FarmerID, err)
				settings = database.DefaultFarmerSettings(alertMsg.Alert.FarmerID)
			}

			// Dispatch is best-effort: a failed send is logged and the
			// offset committed anyway, so one bad address cannot wedge
			// the alert stream.
			if err := notifier.SendAlert(settings, alertMsg.Alert); err != nil {
				log.Printf("Failed to send notification: %v\n", err)
			}

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
