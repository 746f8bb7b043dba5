package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	influxdb2 "github.com/influxdata/influxdb-client-go/v2"

	"github.com/LeonardoBeccarini/farmtech/internal/services/event"
	"github.com/LeonardoBeccarini/farmtech/pkg/dedup"
	"github.com/LeonardoBeccarini/farmtech/pkg/rabbitmq"
)

func envStr(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}

func splitTopics(raw string) []string {
	parts := strings.Split(raw, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if s := strings.TrimSpace(p); s != "" {
			out = append(out, s)
		}
	}
	return out
}

func main() {
	cfg := struct {
		Rabbit rabbitmq.RabbitMQConfig

		InfluxURL    string
		InfluxToken  string
		InfluxOrg    string
		InfluxBucket string

		Topics  []string
		Breaker event.BreakerConfig

		HTTPPort       int
		ReadinessGrace time.Duration
	}{
		Rabbit: rabbitmq.RabbitMQConfig{
			Host:     envStr("RABBITMQ_HOST", "localhost"),
			Port:     envInt("RABBITMQ_PORT", 1883),
			User:     envStr("RABBITMQ_USER", "guest"),
			Password: envStr("RABBITMQ_PASSWORD", "guest"),
			ClientID: envStr("HOSTNAME", "event-service"),
		},

		InfluxURL:    envStr("INFLUX_URL", "http://localhost:8086"),
		InfluxToken:  os.Getenv("INFLUX_TOKEN"),
		InfluxOrg:    envStr("INFLUX_ORG", "farmtech"),
		InfluxBucket: envStr("INFLUX_BUCKET", "events"),

		Topics: splitTopics(envStr("EVENT_SUB_TOPICS", "event/irrigationDecision/#,sensor/reading/#")),
		Breaker: event.BreakerConfig{
			Failures: envInt("CB_INFLUX_FAILS", 5),
			OpenFor:  time.Duration(envInt("CB_INFLUX_OPEN_MS", 10000)) * time.Millisecond,
		},

		HTTPPort:       envInt("HTTP_PORT", 8080),
		ReadinessGrace: 5 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// === InfluxDB ===
	influx := influxdb2.NewClient(cfg.InfluxURL, cfg.InfluxToken)
	defer influx.Close()
	writer := event.NewWriter(influx.WriteAPIBlocking(cfg.InfluxOrg, cfg.InfluxBucket), cfg.Breaker)

	// === MQTT ===
	mqttClient, err := rabbitmq.NewRabbitMQConn(ctx, &cfg.Rabbit)
	if err != nil {
		log.Fatalf("mqtt connection error: %v", err)
	}
	defer rabbitmq.CloseRabbitMQConn(mqttClient)

	// === HTTP ===
	mux := http.NewServeMux()
	mux.Handle("/healthz", event.NewHealthHandler(mqttClient, writer))
	mux.Handle("/readyz", event.NewReadyHandler(mqttClient, writer, 2*time.Second))
	mux.Handle("/events/irrigation/latest", event.NewDecisionLatestHandler(influx.QueryAPI(cfg.InfluxOrg), cfg.InfluxBucket))

	hs := &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.HTTPPort),
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
	}
	go func() {
		log.Printf("event-svc: HTTP listening on :%d", cfg.HTTPPort)
		if err := hs.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	// === Consumer ===
	h := event.NewMQTTHandler(func(evt event.CommonEvent) error {
		wctx, cancel := context.WithTimeout(ctx, 3*time.Second)
		defer cancel()
		return writer.Write(wctx, evt)
	})
	d := dedup.New(10*time.Minute, 20000)

	consumer := rabbitmq.NewMultiConsumer(mqttClient, cfg.Topics, func(topic string, m mqtt.Message) error {
		// QoS1 topics may be redelivered
		if rabbitmq.QoSFor(topic) == 1 && !d.ShouldProcessPayload(m.Payload()) {
			return nil
		}
		return h.Handle(topic, m)
	})
	log.Printf("event-svc: consuming %v → influx %s/%s", cfg.Topics, cfg.InfluxOrg, cfg.InfluxBucket)
	consumer.ConsumeMessage(ctx)

	log.Printf("event-svc: shutting down...")
	shCtx, shCancel := context.WithTimeout(context.Background(), cfg.ReadinessGrace)
	defer shCancel()
	_ = hs.Shutdown(shCtx)
}
