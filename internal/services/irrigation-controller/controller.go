package irrigation_controller

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"github.com/LeonardoBeccarini/farmtech/internal/decisionlog"
	"github.com/LeonardoBeccarini/farmtech/internal/model"
	"github.com/LeonardoBeccarini/farmtech/internal/policy"
	"github.com/LeonardoBeccarini/farmtech/internal/readings"
	"github.com/LeonardoBeccarini/farmtech/pkg/dedup"
	"github.com/LeonardoBeccarini/farmtech/pkg/rabbitmq"
)

const DefaultDecisionTopic = "event/irrigationDecision/{crop}/{station}"

// CropSource supplies crop profiles; *registry.Registry implements it.
type CropSource interface {
	Get(id string) (model.CropProfile, bool)
}

// DecisionRecorder appends to the decision history; *decisionlog.Log implements it.
type DecisionRecorder interface {
	Append(ctx context.Context, rec decisionlog.Record) (decisionlog.Record, error)
}

type Config struct {
	DecisionTopicTmpl string
	Thresholds        policy.Thresholds
	DedupTTL          time.Duration
	DedupMax          int
}

type Controller struct {
	consumer  rabbitmq.IConsumer
	publisher rabbitmq.IPublisher
	crops     CropSource
	history   DecisionRecorder
	evaluator *policy.Evaluator
	metrics   *Metrics
	deduper   *dedup.Deduper

	decisionTopicTmpl string
}

func NewController(
	c rabbitmq.IConsumer,
	p rabbitmq.IPublisher,
	crops CropSource,
	history DecisionRecorder,
	metrics *Metrics,
	cfg Config,
) (*Controller, error) {
	if crops == nil {
		return nil, errors.New("crop source is nil")
	}
	if history == nil {
		return nil, errors.New("decision recorder is nil")
	}
	if metrics == nil {
		return nil, errors.New("metrics is nil")
	}
	th := cfg.Thresholds
	if th == (policy.Thresholds{}) {
		th = policy.DefaultThresholds
	}
	tmpl := cfg.DecisionTopicTmpl
	if strings.TrimSpace(tmpl) == "" {
		tmpl = DefaultDecisionTopic
	}

	ctrl := &Controller{
		consumer:          c,
		publisher:         p,
		crops:             crops,
		history:           history,
		evaluator:         policy.NewEvaluator(th),
		metrics:           metrics,
		deduper:           dedup.New(cfg.DedupTTL, cfg.DedupMax),
		decisionTopicTmpl: tmpl,
	}
	c.SetHandler(ctrl.handleReading)
	return ctrl, nil
}

// Start blocks consuming readings until ctx is done.
func (c *Controller) Start(ctx context.Context) {
	c.consumer.ConsumeMessage(ctx)
}

// Bad input is counted and dropped; only storage and publish failures are returned.
func (c *Controller) handleReading(_ string, msg mqtt.Message) error {
	if !c.deduper.ShouldProcessPayload(msg.Payload()) {
		c.metrics.duplicates.Inc()
		return nil
	}

	var m model.SensorReadingMessage
	if err := json.Unmarshal(msg.Payload(), &m); err != nil {
		log.Printf("controller: bad payload on %s: %v", msg.Topic(), err)
		c.metrics.reject("bad_payload")
		return nil
	}
	m.FillIDs(msg.Topic())
	if m.CropID == "" || m.StationID == "" {
		log.Printf("controller: reading without crop/station on %s", msg.Topic())
		c.metrics.reject("missing_ids")
		return nil
	}

	reading, err := readings.Validate(m)
	if err != nil {
		log.Printf("controller: invalid reading %s/%s: %v", m.CropID, m.StationID, err)
		c.metrics.reject("invalid")
		return nil
	}

	crop, ok := c.crops.Get(m.CropID)
	if !ok {
		log.Printf("controller: unknown crop %s (station %s)", m.CropID, m.StationID)
		c.metrics.reject("unknown_crop")
		return nil
	}

	d := c.evaluator.Evaluate(crop, reading)
	c.metrics.observeDecision(d)
	log.Printf("decision: %s/%s type=%s soil=%.1f%% ph=%.1f temp=%.1f°C → irrigate=%t cond=%d (%s)",
		m.CropID, m.StationID, crop.Type, reading.SoilHumidity, reading.PH, reading.Temperature,
		d.ShouldIrrigate, d.MatchedCondition, d.Reason)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	rec, err := c.history.Append(ctx, decisionlog.Record{
		CropID:    m.CropID,
		StationID: m.StationID,
		ReadingID: m.ReadingID,
		Irrigated: d.ShouldIrrigate,
		Condition: int(d.MatchedCondition),
		Reason:    d.Reason,
	})
	if err != nil {
		return fmt.Errorf("record decision %s/%s: %w", m.CropID, m.StationID, err)
	}

	return c.publishDecision(rec, crop, reading, d)
}

func (c *Controller) publishDecision(rec decisionlog.Record, crop model.CropProfile, r model.SensorReading, d policy.Decision) error {
	if c.publisher == nil {
		return nil
	}
	evt := model.IrrigationDecisionEvent{
		DecisionID:   rec.ID,
		CropID:       rec.CropID,
		StationID:    rec.StationID,
		ReadingID:    rec.ReadingID,
		CropType:     crop.Type.String(),
		Irrigate:     d.ShouldIrrigate,
		Condition:    int(d.MatchedCondition),
		Reason:       d.Reason,
		SoilHumidity: r.SoilHumidity,
		Temperature:  r.Temperature,
		PH:           r.PH,
		Timestamp:    rec.Timestamp,
	}
	b, err := json.Marshal(evt)
	if err != nil {
		return err
	}
	topic := DecisionTopic(c.decisionTopicTmpl, rec.CropID, rec.StationID)
	if err := c.publisher.PublishToQos(topic, 1, false, string(b)); err != nil {
		log.Printf("controller: publish decision error: %v", err)
		return err
	}
	return nil
}

// DecisionTopic expands {crop} and {station} in a topic template.
func DecisionTopic(tmpl, cropID, stationID string) string {
	return strings.NewReplacer("{crop}", cropID, "{station}", stationID).Replace(tmpl)
}
