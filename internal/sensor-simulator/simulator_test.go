package sensor_simulator

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/farmtech/internal/model"
	"github.com/LeonardoBeccarini/farmtech/internal/readings"
	"github.com/LeonardoBeccarini/farmtech/pkg/rabbitmq"
	"github.com/LeonardoBeccarini/farmtech/pkg/rabbitmq/mqtttest"
)

var station = model.Station{ID: "s1", CropID: "banana-01"}

func fixedClock(g *DataGenerator, start time.Time) *time.Time {
	now := start
	g.now = func() time.Time { return now }
	return &now
}

func TestNextStaysInRange(t *testing.T) {
	g := NewDataGenerator(Seed{Temperature: 49.9, AirHumidity: 99.5, PH: 8.98, NPK: model.NPKStatus{N: true, P: true, K: true}}, 0, 1)
	for i := 0; i < 500; i++ {
		m := g.Next(station)
		_, err := readings.Validate(m)
		require.NoError(t, err, "reading %d: %+v", i, m)
		assert.Equal(t, station.ID, m.StationID)
		assert.Equal(t, station.CropID, m.CropID)
		assert.NotEmpty(t, m.ReadingID)
		assert.Len(t, m.NPK, 3)
	}
}

func TestNextDeterministicForSeed(t *testing.T) {
	a := NewDataGenerator(DefaultSeed, 0, 42)
	b := NewDataGenerator(DefaultSeed, 0, 42)
	start := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	fixedClock(a, start)
	fixedClock(b, start)
	for i := 0; i < 20; i++ {
		ma, mb := a.Next(station), b.Next(station)
		assert.Equal(t, ma.Temperature, mb.Temperature)
		assert.Equal(t, ma.AirHumidity, mb.AirHumidity)
		assert.Equal(t, ma.PH, mb.PH)
		assert.Equal(t, ma.NPK, mb.NPK)
	}
}

func TestHumidityDecaysOverTime(t *testing.T) {
	g := NewDataGenerator(Seed{Temperature: 25, AirHumidity: 80, PH: 6.5}, 2, 7)
	now := fixedClock(g, time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC))
	g.Next(station)
	before := g.State().AirHumidity

	*now = now.Add(10 * time.Minute)
	g.Next(station)
	// 20 points of decay dominate a single random step
	assert.Less(t, g.State().AirHumidity, before-15)
}

func TestApplyIrrigationCapsAtMax(t *testing.T) {
	g := NewDataGenerator(Seed{AirHumidity: 50}, 0, 1)
	g.ApplyIrrigation()
	assert.Equal(t, 50+irrigationBoost, g.State().AirHumidity)

	g = NewDataGenerator(Seed{AirHumidity: 95}, 0, 1)
	g.ApplyIrrigation()
	assert.Equal(t, readings.HumidityMax, g.State().AirHumidity)

	var nilGen *DataGenerator
	assert.NotPanics(t, nilGen.ApplyIrrigation)
}

func TestTopics(t *testing.T) {
	assert.Equal(t, "sensor/reading/banana-01/s1", ReadingTopic(station))
	assert.Equal(t, "event/irrigationDecision/banana-01/s1", DecisionTopic(station))
}

func TestPublishOnce(t *testing.T) {
	client := mqtttest.NewClient()
	sim := NewSensorSimulator(nil, rabbitmq.NewPublisher(client, ReadingTopic(station)), NewDataGenerator(DefaultSeed, 0, 3), station)

	require.NoError(t, sim.PublishOnce())

	pub := client.Published()
	require.Len(t, pub, 1)
	assert.Equal(t, "sensor/reading/banana-01/s1", pub[0].Topic)
	assert.Equal(t, byte(1), pub[0].QoS)

	var m model.SensorReadingMessage
	require.NoError(t, json.Unmarshal([]byte(pub[0].Payload), &m))
	assert.Equal(t, "s1", m.StationID)
	_, err := readings.Validate(m)
	assert.NoError(t, err)
}

func TestIrrigateDecisionRaisesHumidity(t *testing.T) {
	client := mqtttest.NewClient()
	gen := NewDataGenerator(Seed{Temperature: 25, AirHumidity: 40, PH: 6.5}, 0, 5)
	sim := NewSensorSimulator(
		rabbitmq.NewConsumer(client, DecisionTopic(station), nil),
		rabbitmq.NewPublisher(client, ReadingTopic(station)),
		gen, station,
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		sim.Start(ctx, time.Hour)
		close(done)
	}()
	defer func() {
		cancel()
		<-done
	}()
	require.Eventually(t, func() bool { return client.Subscribed(DecisionTopic(station)) }, time.Second, 5*time.Millisecond)

	send := func(evt model.IrrigationDecisionEvent) {
		b, err := json.Marshal(evt)
		require.NoError(t, err)
		require.NoError(t, rabbitmq.NewPublisher(client, "").PublishToQos(DecisionTopic(station), 1, false, string(b)))
	}

	send(model.IrrigationDecisionEvent{DecisionID: "d1", StationID: "s1", Irrigate: true, Condition: 1})
	assert.Equal(t, 40+irrigationBoost, gen.State().AirHumidity)

	// redelivery of the same payload is ignored
	send(model.IrrigationDecisionEvent{DecisionID: "d1", StationID: "s1", Irrigate: true, Condition: 1})
	assert.Equal(t, 40+irrigationBoost, gen.State().AirHumidity)

	send(model.IrrigationDecisionEvent{DecisionID: "d2", StationID: "s1", Irrigate: false, Condition: 6})
	send(model.IrrigationDecisionEvent{DecisionID: "d3", StationID: "other", Irrigate: true, Condition: 1})
	assert.Equal(t, 40+irrigationBoost, gen.State().AirHumidity)
}
