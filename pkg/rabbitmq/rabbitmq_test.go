package rabbitmq

import (
	"context"
	"errors"
	"testing"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/farmtech/pkg/rabbitmq/mqtttest"
)

func TestQoSFor(t *testing.T) {
	assert.Equal(t, byte(1), QoSFor("sensor/reading/#"))
	assert.Equal(t, byte(1), QoSFor(" event/irrigationDecision/b1/st1"))
	assert.Equal(t, byte(1), QoSFor("sensor/aggregated/b1/st1"))
	assert.Equal(t, byte(0), QoSFor("event/other"))
}

func TestConsumerDeliversAndUnsubscribes(t *testing.T) {
	client := mqtttest.NewClient()
	got := make(chan string, 1)
	c := NewConsumer(client, "sensor/reading/#", func(_ string, m mqtt.Message) error {
		got <- string(m.Payload())
		return nil
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		c.ConsumeMessage(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool { return client.Subscribed("sensor/reading/#") }, time.Second, 5*time.Millisecond)

	p := NewPublisher(client, "sensor/reading/b1/st1")
	require.NoError(t, p.PublishMessage("hello"))
	assert.Equal(t, "hello", <-got)

	cancel()
	<-done
	assert.False(t, client.Subscribed("sensor/reading/#"))
}

func TestMultiConsumer(t *testing.T) {
	client := mqtttest.NewClient()
	var topics []string
	m := NewMultiConsumer(client, []string{"a/#", "b/#"}, nil)
	m.SetHandler(func(_ string, msg mqtt.Message) error {
		topics = append(topics, msg.Topic())
		return errors.New("logged, not propagated")
	})

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		m.ConsumeMessage(ctx)
		close(done)
	}()
	require.Eventually(t, func() bool { return client.Subscribed("b/#") }, time.Second, 5*time.Millisecond)

	p := NewPublisher(client, "")
	require.NoError(t, p.PublishToQos("a/1", 1, false, "x"))
	require.NoError(t, p.PublishToQos("b/2", 0, false, "y"))
	cancel()
	<-done

	assert.Equal(t, []string{"a/1", "b/2"}, topics)
}

func TestPublisher(t *testing.T) {
	client := mqtttest.NewClient()

	assert.Error(t, NewPublisher(client, "").PublishMessage("x"))

	client.PublishErr = errors.New("broker down")
	err := NewPublisher(client, "t").PublishToQos("t", 1, false, "x")
	assert.ErrorIs(t, err, client.PublishErr)

	p := NewPublisher(client, "t")
	p.Close()
	assert.False(t, client.IsConnected())
}

func TestBrokerURL(t *testing.T) {
	cfg := &RabbitMQConfig{Host: "broker", Port: 1883}
	assert.Equal(t, "tcp://broker:1883", cfg.BrokerURL())
}

func TestPublishGivesUpWithoutAck(t *testing.T) {
	client := mqtttest.NewClient()
	client.NoAck = true

	err := NewPublisher(client, "").WithTimeout(10*time.Millisecond).PublishToQos("event/irrigationDecision/b1/st1", 1, false, "x")
	assert.ErrorIs(t, err, ErrPublishTimeout)
	assert.Len(t, client.Published(), 1)
}

func TestClientOptionsDispatchHandlersConcurrently(t *testing.T) {
	opts := clientOptions(&RabbitMQConfig{Host: "broker", Port: 1883, ClientID: "ctrl"})

	assert.False(t, opts.Order)
	assert.False(t, opts.CleanSession)
	assert.True(t, opts.AutoReconnect)
	assert.Equal(t, "ctrl", opts.ClientID)
	require.Len(t, opts.Servers, 1)
	assert.Equal(t, "broker:1883", opts.Servers[0].Host)
}
