package rabbitmq

import (
	"errors"
	"fmt"
	"log"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"
)

// IPublisher publishes either on its default topic or on an explicit one.
type IPublisher interface {
	PublishMessage(message string) error
	PublishToQos(topic string, qos byte, retained bool, payload string) error
	Close()
}

// DefaultPublishTimeout bounds the wait for a broker acknowledgement.
const DefaultPublishTimeout = 5 * time.Second

var ErrPublishTimeout = errors.New("publish not acknowledged in time")

type Publisher struct {
	client  mqtt.Client
	topic   string
	timeout time.Duration
}

// NewPublisher binds a default topic; it may be empty when only PublishToQos is used.
func NewPublisher(client mqtt.Client, topic string) *Publisher {
	return &Publisher{client: client, topic: topic, timeout: DefaultPublishTimeout}
}

// PublishMessage sends at QoS 0 on the default topic.
func (p *Publisher) PublishMessage(message string) error {
	if p.topic == "" {
		return fmt.Errorf("publisher has no default topic")
	}
	return p.PublishToQos(p.topic, 0, false, message)
}

func (p *Publisher) PublishToQos(topic string, qos byte, retained bool, payload string) error {
	token := p.client.Publish(topic, qos, retained, payload)
	if !token.WaitTimeout(p.timeout) {
		return fmt.Errorf("publish to %s: %w", topic, ErrPublishTimeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("publish to %s: %w", topic, err)
	}
	return nil
}

// WithTimeout sets how long PublishToQos waits for the acknowledgement.
func (p *Publisher) WithTimeout(d time.Duration) *Publisher {
	if d > 0 {
		p.timeout = d
	}
	return p
}

func (p *Publisher) Close() {
	if p.client.IsConnected() {
		p.client.Disconnect(250)
		log.Println("mqtt: publisher disconnected")
	}
}
