package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"github.com/LeonardoBeccarini/farmtech/internal/services/aggregator"
	"github.com/LeonardoBeccarini/farmtech/pkg/rabbitmq"
)

func env(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func main() {
	cfg := &rabbitmq.RabbitMQConfig{
		Host:     env("RABBITMQ_HOST", "localhost"),
		Port:     envInt("RABBITMQ_PORT", 1883),
		User:     env("RABBITMQ_USER", "guest"),
		Password: env("RABBITMQ_PASSWORD", "guest"),
		ClientID: fmt.Sprintf("DataAggregator-%s", env("HOSTNAME", "local")),
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := rabbitmq.NewRabbitMQConn(ctx, cfg)
	if err != nil {
		log.Fatalf("Failed to connect to MQTT broker: %v", err)
	}

	publisher := rabbitmq.NewPublisher(client, "")
	consumer := rabbitmq.NewConsumer(client, env("READING_SUB_TOPIC", "sensor/reading/#"), nil)

	window := time.Duration(envInt("AGGREGATION_WINDOW_SEC", 60)) * time.Second
	svc := aggregator.NewDataAggregatorService(consumer, publisher, window)

	log.Printf("aggregator: running, window=%s", window)
	svc.Start(ctx)
}
