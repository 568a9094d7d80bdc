package main

import (
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/farmwatch/blight-server/internal/collector"
	"github.com/farmwatch/blight-server/internal/database"
	"github.com/farmwatch/blight-server/internal/queue"
	"github.com/farmwatch/blight-server/internal/reading"
	"github.com/farmwatch/blight-server/internal/source"
	"github.com/farmwatch/blight-server/pkg/config"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	fmt.Println("Starting Collector Service...")

	db, err := database.Connect(cfg.Database.ConnectionString())
	if err != nil {
		log.Fatalf("Failed to connect to database: %v", err)
	}
	defer db.Close()
	fmt.Println("Connected to database")

	dbFarms, err := db.GetFarms()
	if err != nil {
		log.Fatalf("Failed to load farms: %v", err)
	}
	if len(dbFarms) == 0 {
		fmt.Println("Note: no farms registered, collector will idle")
	}

	farms := make([]collector.Farm, 0, len(dbFarms))
	for _, f := range dbFarms {
		farms = append(farms, collector.Farm{
			FarmerID:    f.FarmerID,
			Coordinates: reading.Coordinates{Lat: f.Lat, Lon: f.Lon},
		})
	}
	fmt.Printf("Collecting for %d farms\n", len(farms))

	if err := queue.CreateTopic(
		cfg.Kafka.Brokers,
		cfg.Kafka.TopicReadings,
		cfg.Kafka.NumPartitions,
		1, // replication factor
	); err != nil {
		fmt.Printf("Note: Topic creation failed (may already exist): %v\n", err)
	}

	producer := queue.NewProducer(cfg.Kafka.Brokers, cfg.Kafka.TopicReadings)
	defer producer.Close()
	fmt.Println("Kafka producer initialized")

	c := collector.New(
		newWeatherSource(),
		newSoilSource(),
		producer,
		farms,
		cfg.Collector.WeatherInterval,
		cfg.Collector.SoilInterval,
		cfg.Collector.FetchTimeout,
	)

	if err := c.Start(); err != nil {
		log.Fatalf("Failed to start collector: %v", err)
	}
	defer c.Stop()

	fmt.Println("\n✓ Collector Service is running")
	fmt.Println("✓ Press Ctrl+C to stop")

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)
	<-sigCh

	fmt.Println("\nShutting down gracefully...")
}

// newWeatherSource picks the configured weather provider adapter. Provider
// adapters live outside this repository; the env selects which binary
// plugin endpoint to call. Defaults to the built-in HTTP adapter.
func newWeatherSource() source.WeatherSource {
	return source.NewHTTPWeatherSource(
		getenvDefault("WEATHER_API_URL", "https://api.open-meteo.com/v1/forecast"))
}

func newSoilSource() source.SoilSource {
	return source.NewHTTPSoilSource(getenvDefault("SOIL_API_URL", ""))
}

func getenvDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}
