package main

import (
	"context"
	"flag"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/LeonardoBeccarini/farmtech/internal/model"
	sensorSimulator "github.com/LeonardoBeccarini/farmtech/internal/sensor-simulator"
	"github.com/LeonardoBeccarini/farmtech/pkg/rabbitmq"
)

func main() {
	stationID := flag.String("station-id", "station1", "unique station identifier")
	cropID := flag.String("crop-id", "banana-01", "crop the station monitors")
	clientID := flag.String("client-id", "sensorPublisher1", "MQTT client ID")
	host := flag.String("mqtt-host", "localhost", "MQTT broker host")
	port := flag.Int("mqtt-port", 1883, "MQTT broker port")
	user := flag.String("mqtt-user", "guest", "MQTT user")
	pass := flag.String("mqtt-pass", "guest", "MQTT password")
	interval := flag.Duration("interval", 10*time.Second, "publish interval")
	decay := flag.Float64("decay", 0.5, "humidity points lost per minute")
	temp := flag.Float64("temp", sensorSimulator.DefaultSeed.Temperature, "initial temperature (°C)")
	hum := flag.Float64("humidity", sensorSimulator.DefaultSeed.AirHumidity, "initial air humidity (%)")
	ph := flag.Float64("ph", sensorSimulator.DefaultSeed.PH, "initial soil pH")
	seed := flag.Int64("seed", time.Now().UnixNano(), "random seed")
	flag.Parse()

	cfg := &rabbitmq.RabbitMQConfig{
		Host:     *host,
		Port:     *port,
		User:     *user,
		Password: *pass,
		ClientID: *clientID,
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	client, err := rabbitmq.NewRabbitMQConn(ctx, cfg)
	if err != nil {
		log.Fatalf("sensor: mqtt connect: %v", err)
	}
	defer rabbitmq.CloseRabbitMQConn(client)

	station := model.Station{ID: *stationID, CropID: *cropID}
	publisher := rabbitmq.NewPublisher(client, sensorSimulator.ReadingTopic(station))
	consumer := rabbitmq.NewConsumer(client, sensorSimulator.DecisionTopic(station), nil)

	initial := sensorSimulator.DefaultSeed
	initial.Temperature, initial.AirHumidity, initial.PH = *temp, *hum, *ph
	generator := sensorSimulator.NewDataGenerator(initial, *decay, *seed)

	sim := sensorSimulator.NewSensorSimulator(consumer, publisher, generator, station)
	log.Printf("sensor: %s on crop %s publishing every %s", station.ID, station.CropID, *interval)
	sim.Start(ctx, *interval)
	log.Printf("sensor: stopped")
}
