package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/farmwatch/blight-server/internal/alerting"
	"github.com/farmwatch/blight-server/internal/database"
	"github.com/farmwatch/blight-server/internal/protocol"
	"github.com/farmwatch/blight-server/internal/queue"
	"github.com/farmwatch/blight-server/internal/reconcile"
	"github.com/farmwatch/blight-server/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	fmt.Println("Starting Reconciler Service...")

	db, err := database.Connect(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	fmt.Println("Connected to database")

	reconciler := reconcile.NewReconciler(db)

	alertProducer := queue.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicAlerts)
	defer alertProducer.Close()

	consumer := queue.NewConsumer(cfg.Kafka.Brokers, cfg.Kafka.TopicDiagnoses, "reconciler-group")
	defer consumer.Close()
	fmt.Println("Kafka consumer initialized")

	ctx := context.Background()

	fmt.Println("\n✓ Reconciler Service is running")
	fmt.Println("✓ Press Ctrl+C to stop")

	go func() {
		for {
			msg, err := consumer.Consume(ctx)
			if err != nil {
				log.Printf("Failed to consume message: %v\n", err)
				continue
			}

			result, err := protocol.DecodeDiagnosisResult(msg.Value)
			if err != nil {
				log.Printf("Failed to decode diagnosis result: %v\n", err)
				consumer.Commit(ctx, msg)
				continue
			}

			diag, adj, err := reconciler.Reconcile(reconcile.ClassifiedDiagnosis{
				FarmerID:       result.FarmerID,
				ImageURL:       result.ImageURL,
				Condition:      result.Condition,
				Confidence:     result.Confidence,
				Recommendation: result.Recommendation,
			})
			if err != nil {
				// Skip commit; the diagnosis is redelivered after a
				// restart or rebalance.
				log.Printf("Failed to reconcile diagnosis for farmer %s: %v\n", result.FarmerID, err)
				continue
			}

			switch {
			case adj.Adjusted:
				fmt.Printf("Reconciled diagnosis %s: CRI %.2f -> %.2f\n", diag.ID, adj.OldCRI, adj.NewCRI)
				notifyAdjustment(ctx, alertProducer, diag, adj)
			case diag.RecordID == "":
				fmt.Printf("Diagnosis %s stored, no environmental record to reconcile against\n", diag.ID)
			default:
				fmt.Printf("Diagnosis %s agrees with CRI, no adjustment\n", diag.ID)
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

// notifyAdjustment sends the farmer-facing explanation of a CRI
// adjustment through the alerts topic. Best-effort.
func notifyAdjustment(ctx context.Context, producer *queue.Producer, diag *database.Diagnosis, adj reconcile.Adjustment) {
	payload := &protocol.AlertMessage{
		Alert: alerting.Alert{
			FarmerID: diag.FarmerID,
			Type:     alerting.TypeBlightRisk,
			Priority: alerting.PriorityMedium,
			Title:    "Risk index adjusted after photo diagnosis",
			Body:     adj.Message,
			Data: map[string]string{
				"diagnosis_id": diag.ID,
				"cri":          fmt.Sprintf("%.2f", adj.NewCRI),
			},
		},
		Day:    time.Now().UTC().Format("2006-01-02"),
		SentAt: time.Now().UTC(),
	}

	data, err := protocol.EncodeAlertMessage(payload)
	if err != nil {
		log.Printf("Failed to encode adjustment alert: %v\n", err)
		return
	}
	if err := producer.Publish(ctx, diag.FarmerID, data); err != nil {
		log.Printf("Failed to publish adjustment alert: %v\n", err)
	}
}
