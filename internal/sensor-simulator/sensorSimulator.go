package sensor_simulator

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/LeonardoBeccarini/farmtech/internal/model"
	"github.com/LeonardoBeccarini/farmtech/pkg/dedup"
	"github.com/LeonardoBeccarini/farmtech/pkg/rabbitmq"
)

// ReadingTopic is where a station publishes its readings.
func ReadingTopic(st model.Station) string {
	return fmt.Sprintf("sensor/reading/%s/%s", st.CropID, st.ID)
}

// DecisionTopic is the controller's decision topic for a station.
func DecisionTopic(st model.Station) string {
	return fmt.Sprintf("event/irrigationDecision/%s/%s", st.CropID, st.ID)
}

type SensorSimulator struct {
	station   model.Station
	generator *DataGenerator
	publisher rabbitmq.IPublisher
	consumer  rabbitmq.IConsumer
	deduper   *dedup.Deduper
}

func NewSensorSimulator(consumer rabbitmq.IConsumer, publisher rabbitmq.IPublisher,
	gen *DataGenerator, station model.Station) *SensorSimulator {
	return &SensorSimulator{
		station:   station,
		generator: gen,
		publisher: publisher,
		consumer:  consumer,
		deduper:   dedup.New(2*time.Minute, 10000),
	}
}

// Start listens for decisions and publishes a reading every interval until ctx is done.
func (s *SensorSimulator) Start(ctx context.Context, interval time.Duration) {
	if s.consumer != nil {
		s.consumer.SetHandler(s.handleDecision)
		go s.consumer.ConsumeMessage(ctx)
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			s.publisher.Close()
			return
		case <-ticker.C:
			if err := s.PublishOnce(); err != nil {
				log.Printf("sensor: publish error: %v", err)
			}
		}
	}
}

// PublishOnce generates and publishes a single reading at QoS1.
func (s *SensorSimulator) PublishOnce() error {
	m := s.generator.Next(s.station)
	log.Printf("sensor: pub %s/%s temp=%.1f°C air=%.1f%% ph=%.2f npk=%v",
		m.CropID, m.StationID, m.Temperature, m.AirHumidity, m.PH, m.NPK)
	payload, err := json.Marshal(m)
	if err != nil {
		return err
	}
	return s.publisher.PublishToQos(ReadingTopic(s.station), 1, false, string(payload))
}

func (s *SensorSimulator) handleDecision(_ string, msg mqtt.Message) error {
	if !s.deduper.ShouldProcessPayload(msg.Payload()) {
		return nil
	}
	var evt model.IrrigationDecisionEvent
	if err := json.Unmarshal(msg.Payload(), &evt); err != nil {
		return fmt.Errorf("invalid IrrigationDecisionEvent: %w", err)
	}
	if evt.StationID != "" && evt.StationID != s.station.ID {
		return nil
	}
	if evt.Irrigate {
		s.generator.ApplyIrrigation()
		log.Printf("sensor: %s irrigating (condition %d: %s)", s.station.ID, evt.Condition, evt.Reason)
	}
	return nil
}
