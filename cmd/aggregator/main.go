package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/google/uuid"

	"github.com/farmwatch/blight-server/internal/aggregation"
	"github.com/farmwatch/blight-server/internal/database"
	"github.com/farmwatch/blight-server/internal/protocol"
	"github.com/farmwatch/blight-server/internal/queue"
	"github.com/farmwatch/blight-server/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	fmt.Println("Starting Aggregator Service...")

	db, err := database.Connect(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	fmt.Println("Connected to database")

	if err := db.RunMigrations("migrations"); err != nil {
		log.Fatalf("Failed to run migrations: %v", err)
	}

	if err := queue.CreateTopic(
		cfg.Kafka.Brokers,
		cfg.Kafka.TopicRecords,
		cfg.Kafka.NumPartitions,
		1, // replication factor
	); err != nil {
		fmt.Printf("Note: Topic creation failed (may already exist): %v\n", err)
	}

	aggregator := aggregation.NewAggregator(db)

	producer := queue.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicRecords)
	defer producer.Close()
	fmt.Println("Record event producer initialized")

	consumer := queue.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicReadings, "aggregator-group")
	defer consumer.Close()
	fmt.Println("Kafka consumer initialized")

	ctx := context.Background()

	fmt.Println("\n✓ Aggregator Service is running")
	fmt.Println("✓ Press Ctrl+C to stop")

	go func() {
		for {
			msg, err := consumer.Consume(ctx)
			if err != nil {
				log.Printf("Failed to consume message: %v\n", err)
				continue
			}

			readingMsg, err := protocol.DecodeReadingMessage(msg.Value)
			if err != nil {
				log.Printf("Failed to decode reading: %v\n", err)
				consumer.Commit(ctx, msg)
				continue
			}

			rec, err := aggregator.FoldReading(readingMsg.FarmerID, readingMsg.Reading)
			if err != nil {
				// Skip commit: the reader has already moved past this offset
				// in-session, so the reading is only redelivered after a
				// restart or rebalance. Acceptable for sensor data.
				log.Printf("Failed to fold reading for farmer %s: %v\n", readingMsg.FarmerID, err)
				continue
			}

			event := &protocol.RecordEvent{
				EventID:       uuid.NewString(),
				FarmerID:      rec.FarmerID,
				RecordID:      rec.ID,
				Date:          rec.Date.Format("2006-01-02"),
				CRI:           rec.CRI,
				RiskLevel:     string(rec.RiskLevel),
				BlightType:    string(rec.BlightType),
				Temperature:   rec.Temperature,
				Humidity:      rec.Humidity,
				RainfallTotal: rec.RainfallTotal,
				SoilMoisture:  rec.SoilMoisture,
				Changes:       rec.Changes,
				UpdatedAt:     time.Now().UTC(),
			}

			data, err := protocol.EncodeRecordEvent(event)
			if err != nil {
				log.Printf("Failed to encode record event: %v\n", err)
			} else if err := producer.Publish(ctx, rec.FarmerID, data); err != nil {
				// Best-effort: the record is already persisted.
				log.Printf("Failed to publish record event: %v\n", err)
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
