package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"

	"github.com/LeonardoBeccarini/farmtech/internal/decisionlog"
	"github.com/LeonardoBeccarini/farmtech/internal/policy"
	"github.com/LeonardoBeccarini/farmtech/internal/registry"
	controller "github.com/LeonardoBeccarini/farmtech/internal/services/irrigation-controller"
	"github.com/LeonardoBeccarini/farmtech/pkg/rabbitmq"
)

func env(key, def string) string {
	if v := strings.TrimSpace(os.Getenv(key)); v != "" {
		return v
	}
	return def
}

func envInt(key string, def int) int {
	if v := os.Getenv(key); v != "" {
		if i, err := strconv.Atoi(v); err == nil {
			return i
		}
	}
	return def
}

func envFloat(key string, def float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return def
	}
	f, err := strconv.ParseFloat(strings.ReplaceAll(v, ",", "."), 64)
	if err != nil {
		return def
	}
	return f
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// MQTT
	mqCfg := &rabbitmq.RabbitMQConfig{
		Host:     env("RABBITMQ_HOST", "localhost"),
		Port:     envInt("RABBITMQ_PORT", 1883),
		User:     env("RABBITMQ_USER", "guest"),
		Password: env("RABBITMQ_PASSWORD", "guest"),
		ClientID: fmt.Sprintf("IrrigationController-%s", env("HOSTNAME", "local")),
	}
	mqClient, err := rabbitmq.NewRabbitMQConn(ctx, mqCfg)
	if err != nil {
		log.Fatalf("MQTT connect failed: %v", err)
	}

	readingSub := env("READING_SUB_TOPIC", "sensor/reading/#")
	consumer := rabbitmq.NewConsumer(mqClient, readingSub, nil)
	publisher := rabbitmq.NewPublisher(mqClient, "")

	// Crop registry + decision history
	cropsPath := env("CROPS_CONFIG_PATH", "/app/config/crops.json")
	crops, err := registry.Load(cropsPath)
	if err != nil {
		log.Fatalf("crop registry: %v", err)
	}
	log.Printf("controller: loaded %d crops from %s (%.1f ha)", len(crops.List()), cropsPath, crops.TotalArea())

	var store decisionlog.Store = decisionlog.NewMemoryStore()
	if path := env("DECISIONS_DB_PATH", ""); path != "" {
		bs, err := decisionlog.OpenBolt(path)
		if err != nil {
			log.Fatalf("decision store: %v", err)
		}
		store = bs
	}
	history := decisionlog.New(store)
	defer func() {
		if err := history.Close(); err != nil {
			log.Printf("controller: close decision store: %v", err)
		}
	}()

	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics := controller.NewMetrics(reg)

	th := policy.DefaultThresholds
	th.HumidityMin = envFloat("HUMIDITY_MIN", th.HumidityMin)
	th.HumidityIdeal = envFloat("HUMIDITY_IDEAL", th.HumidityIdeal)
	th.HumidityMax = envFloat("HUMIDITY_MAX", th.HumidityMax)
	th.PHMin = envFloat("PH_MIN", th.PHMin)
	th.PHMax = envFloat("PH_MAX", th.PHMax)
	th.TempHigh = envFloat("TEMP_HIGH", th.TempHigh)

	ctrl, err := controller.NewController(consumer, publisher, crops, history, metrics, controller.Config{
		DecisionTopicTmpl: env("DECISION_TOPIC_TMPL", controller.DefaultDecisionTopic),
		Thresholds:        th,
		DedupTTL:          10 * time.Minute,
		DedupMax:          20000,
	})
	if err != nil {
		log.Fatalf("controller init: %v", err)
	}

	httpPort := env("PORT", "8080")
	srv := &http.Server{
		Addr:              ":" + httpPort,
		Handler:           controller.NewRouter(history, crops, reg),
		ReadHeaderTimeout: 10 * time.Second,
	}
	go func() {
		log.Printf("controller: HTTP listening on :%s", httpPort)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("http server error: %v", err)
		}
	}()

	log.Printf("IrrigationController running. sub=%s thresholds=%+v", readingSub, th)
	ctrl.Start(ctx)

	shCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = srv.Shutdown(shCtx)
	log.Println("controller: shutdown complete")
}
