package aggregator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"math"
	"sync"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/google/uuid"

	"github.com/LeonardoBeccarini/farmtech/internal/model"
	"github.com/LeonardoBeccarini/farmtech/internal/model/messages"
	"github.com/LeonardoBeccarini/farmtech/internal/readings"
	"github.com/LeonardoBeccarini/farmtech/pkg/dedup"
	"github.com/LeonardoBeccarini/farmtech/pkg/rabbitmq"
)

const AggregatedTopicPrefix = messages.AggregatedTopicPrefix

// DataAggregatorService averages the readings of each station over a window
// and republishes one smoothed reading per station.
type DataAggregatorService struct {
	consumer            rabbitmq.IConsumer
	publisher           rabbitmq.IPublisher
	buffer              map[string][]model.SensorReadingMessage // key: crop/station
	mutex               sync.Mutex
	aggregationInterval time.Duration
	deduper             *dedup.Deduper
	now                 func() time.Time
}

func NewDataAggregatorService(consumer rabbitmq.IConsumer, publisher rabbitmq.IPublisher, aggregationInterval time.Duration) *DataAggregatorService {
	return &DataAggregatorService{
		consumer:            consumer,
		publisher:           publisher,
		aggregationInterval: aggregationInterval,
		buffer:              make(map[string][]model.SensorReadingMessage),
		deduper:             dedup.New(10*time.Minute, 20000),
		now:                 time.Now,
	}
}

func (d *DataAggregatorService) messageHandler(topic string, message mqtt.Message) error {
	if !d.deduper.ShouldProcessPayload(message.Payload()) {
		return nil
	}
	var m model.SensorReadingMessage
	if err := json.Unmarshal(message.Payload(), &m); err != nil {
		return fmt.Errorf("invalid SensorReadingMessage: %w", err)
	}
	m.FillIDs(message.Topic())
	if m.CropID == "" || m.StationID == "" {
		return fmt.Errorf("reading on %s without crop_id/station_id", message.Topic())
	}
	// invalid readings would poison the average
	if _, err := readings.Validate(m); err != nil {
		log.Printf("aggregator: drop %s/%s: %v", m.CropID, m.StationID, err)
		return nil
	}

	d.mutex.Lock()
	key := m.CropID + "/" + m.StationID
	d.buffer[key] = append(d.buffer[key], m)
	d.mutex.Unlock()
	return nil
}

func (d *DataAggregatorService) Start(ctx context.Context) {
	d.consumer.SetHandler(d.messageHandler)
	go d.consumer.ConsumeMessage(ctx)

	ticker := time.NewTicker(d.aggregationInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			d.publisher.Close()
			return
		case <-ticker.C:
			d.aggregateAndPublish()
		}
	}
}

func (d *DataAggregatorService) aggregateAndPublish() {
	for key, window := range d.drain() {
		out := Aggregate(window, d.now().UTC())

		b, err := json.Marshal(out)
		if err != nil {
			log.Printf("aggregator: marshal err %v", err)
			continue
		}
		topic := AggregatedTopicPrefix + key
		if err := d.publisher.PublishToQos(topic, 1, false, string(b)); err != nil {
			log.Printf("aggregator: publish err %v", err)
			continue
		}
		log.Printf("aggregator: %s averaged %d readings temp=%.1f air=%.1f ph=%.2f",
			key, len(window), out.Temperature, out.AirHumidity, out.PH)
	}
}

// drain hands over the buffered windows and starts new ones, so publishing
// never holds the lock the message handler needs.
func (d *DataAggregatorService) drain() map[string][]model.SensorReadingMessage {
	d.mutex.Lock()
	defer d.mutex.Unlock()
	out := make(map[string][]model.SensorReadingMessage, len(d.buffer))
	for key, window := range d.buffer {
		if len(window) > 0 {
			out[key] = window
		}
	}
	d.buffer = make(map[string][]model.SensorReadingMessage, len(out))
	return out
}

// Aggregate averages the numeric fields of a non-empty window. NPK adequacy is
// taken from the most recent reading; soil humidity is averaged only over the
// readings that carry it.
func Aggregate(window []model.SensorReadingMessage, at time.Time) model.SensorReadingMessage {
	last := window[len(window)-1]
	var temp, air, ph, soil float64
	soilN := 0
	for _, r := range window {
		temp += r.Temperature
		air += r.AirHumidity
		ph += r.PH
		if r.SoilHumidity != nil {
			soil += *r.SoilHumidity
			soilN++
		}
	}
	n := float64(len(window))
	out := model.SensorReadingMessage{
		StationID:   last.StationID,
		CropID:      last.CropID,
		ReadingID:   uuid.NewString(),
		Temperature: round(temp/n, 1),
		AirHumidity: round(air/n, 1),
		PH:          round(ph/n, 2),
		NPK:         last.NPK,
		Timestamp:   at,
	}
	if soilN > 0 {
		v := round(soil/float64(soilN), 1)
		out.SoilHumidity = &v
	}
	return out
}

func round(x float64, digits int) float64 {
	p := math.Pow(10, float64(digits))
	return math.Round(x*p) / p
}
