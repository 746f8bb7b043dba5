package rabbitmq

import (
	"context"
	"log"
	"strings"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// Handler processes one message received on a subscription.
type Handler func(topic string, message mqtt.Message) error

// IConsumer is implemented by Consumer and MultiConsumer.
type IConsumer interface {
	ConsumeMessage(ctx context.Context)
	SetHandler(handler Handler)
}

// Consumer subscribes a single topic filter on the shared MQTT client.
type Consumer struct {
	client  mqtt.Client
	handler Handler
	topic   string
}

func NewConsumer(client mqtt.Client, topic string, handler Handler) *Consumer {
	return &Consumer{
		client:  client,
		topic:   topic,
		handler: handler,
	}
}

func (c *Consumer) SetHandler(handler Handler) {
	c.handler = handler
}

// QoSFor returns 1 for the topics whose loss would drop a decision, 0 otherwise.
func QoSFor(topic string) byte {
	t := strings.TrimSpace(topic)
	if strings.HasPrefix(t, "sensor/reading") ||
		strings.HasPrefix(t, "sensor/aggregated") ||
		strings.HasPrefix(t, "event/irrigationDecision") {
		return 1
	}
	return 0
}

func dispatch(topic string, handler Handler, message mqtt.Message) {
	if handler == nil {
		log.Printf("mqtt: no handler set for topic %s", topic)
		return
	}
	if err := handler(topic, message); err != nil {
		log.Printf("mqtt: error handling message on %s: %v", message.Topic(), err)
	}
}

// ConsumeMessage subscribes and blocks until ctx is cancelled, then unsubscribes.
func (c *Consumer) ConsumeMessage(ctx context.Context) {
	token := c.client.Subscribe(c.topic, QoSFor(c.topic), func(_ mqtt.Client, message mqtt.Message) {
		dispatch(c.topic, c.handler, message)
	})
	if token.Wait() && token.Error() != nil {
		log.Printf("mqtt: error subscribing to topic %s: %v", c.topic, token.Error())
		return
	}
	log.Printf("mqtt: subscribed to %s (qos=%d)", c.topic, QoSFor(c.topic))

	<-ctx.Done()

	c.client.Unsubscribe(c.topic).Wait()
}

// MultiConsumer fans several topic filters into one handler.
type MultiConsumer struct {
	client  mqtt.Client
	topics  []string
	handler Handler
}

func NewMultiConsumer(client mqtt.Client, topics []string, handler Handler) *MultiConsumer {
	return &MultiConsumer{
		client:  client,
		topics:  topics,
		handler: handler,
	}
}

func (m *MultiConsumer) SetHandler(handler Handler) {
	m.handler = handler
}

func (m *MultiConsumer) ConsumeMessage(ctx context.Context) {
	for _, topic := range m.topics {
		topic := topic
		token := m.client.Subscribe(topic, QoSFor(topic), func(_ mqtt.Client, msg mqtt.Message) {
			dispatch(topic, m.handler, msg)
		})
		token.Wait()
		if token.Error() != nil {
			log.Printf("mqtt: error subscribing to topic %s: %v", topic, token.Error())
		} else {
			log.Printf("mqtt: subscribed to %s (qos=%d)", topic, QoSFor(topic))
		}
	}

	<-ctx.Done()

	for _, topic := range m.topics {
		m.client.Unsubscribe(topic)
	}
}
