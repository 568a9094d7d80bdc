package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Database  DatabaseConfig
	Redis     RedisConfig
	Kafka     KafkaConfig
	Collector CollectorConfig
	Alerting  AlertingConfig
	SMTP      SMTPConfig
}

type DatabaseConfig struct {
	Host     string
	Port     int
	User     string
	Password string
	DBName   string
	SSLMode  string
}

func (d DatabaseConfig) ConnectionString() string {
	return fmt.Sprintf("host=%s port=%d user=%s password=%s dbname=%s sslmode=%s",
		d.Host, d.Port, d.User, d.Password, d.DBName, d.SSLMode)
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

type KafkaConfig struct {
	Brokers        []string
	TopicReadings  string
	TopicRecords   string
	TopicAlerts    string
	TopicDiagnoses string
	NumPartitions  int
}

type CollectorConfig struct {
	WeatherInterval time.Duration
	SoilInterval    time.Duration
	FetchTimeout    time.Duration
}

type AlertingConfig struct {
	Cooldown time.Duration
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not present)
	_ = godotenv.Load()

	config := &Config{
		Database: DatabaseConfig{
			Host:     getEnv("DB_HOST", "localhost"),
			Port:     getEnvAsInt("DB_PORT", 5432),
			User:     getEnv("DB_USER", "blight_user"),
			Password: getEnv("DB_PASSWORD", "blight_pass"),
			DBName:   getEnv("DB_NAME", "blight_db"),
			SSLMode:  getEnv("DB_SSLMODE", "disable"),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", "localhost:6379"),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       getEnvAsInt("REDIS_DB", 0),
		},
		Kafka: KafkaConfig{
			Brokers:        strings.Split(getEnv("KAFKA_BROKERS", "localhost:9092"), ","),
			TopicReadings:  getEnv("KAFKA_TOPIC_READINGS", "farm.readings.clean"),
			TopicRecords:   getEnv("KAFKA_TOPIC_RECORDS", "farm.records.updated"),
			TopicAlerts:    getEnv("KAFKA_TOPIC_ALERTS", "farm.alerts"),
			TopicDiagnoses: getEnv("KAFKA_TOPIC_DIAGNOSES", "farm.diagnoses.classified"),
			NumPartitions:  getEnvAsInt("KAFKA_NUM_PARTITIONS", 10),
		},
		Collector: CollectorConfig{
			WeatherInterval: getEnvAsDuration("COLLECTOR_WEATHER_INTERVAL", 3*time.Hour),
			SoilInterval:    getEnvAsDuration("COLLECTOR_SOIL_INTERVAL", 30*time.Minute),
			FetchTimeout:    getEnvAsDuration("COLLECTOR_FETCH_TIMEOUT", 30*time.Second),
		},
		Alerting: AlertingConfig{
			Cooldown: getEnvAsDuration("ALERT_COOLDOWN", 12*time.Hour),
		},
		SMTP: SMTPConfig{
			Host:     getEnv("SMTP_HOST", "smtp.gmail.com"),
			Port:     getEnvAsInt("SMTP_PORT", 587),
			Username: getEnv("SMTP_USERNAME", ""),
			Password: getEnv("SMTP_PASSWORD", ""),
			From:     getEnv("SMTP_FROM", "blight-server@example.com"),
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	valueStr := getEnv(key, "")
	if value, err := strconv.Atoi(valueStr); err == nil {
		return value
	}
	return defaultValue
}

func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	valueStr := getEnv(key, "")
	if value, err := time.ParseDuration(valueStr); err == nil {
		return value
	}
	return defaultValue
}
