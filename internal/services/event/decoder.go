package event

import (
	"encoding/json"
	"errors"
	"strings"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	msg "github.com/LeonardoBeccarini/farmtech/internal/model/messages"
	"github.com/LeonardoBeccarini/farmtech/internal/readings"
)

const (
	decisionPrefix = "event/irrigationDecision/"
	readingPrefix  = "sensor/reading/"

	TypeDecision = "irrigation.decision"
	TypeReading  = "sensor.reading"
)

type CommonEvent struct {
	EventType     string // irrigation.decision | sensor.reading
	SourceService string // irrigation-controller | sensor-simulator
	CropID        string
	StationID     string
	Severity      string // info|warning
	Fields        map[string]interface{}
	Timestamp     time.Time
}

// MQTTHandler turns MQTT messages into CommonEvents and hands them to sink.
type MQTTHandler struct{ sink func(CommonEvent) error }

func NewMQTTHandler(sink func(CommonEvent) error) *MQTTHandler { return &MQTTHandler{sink: sink} }

func (h *MQTTHandler) Handle(_ string, m mqtt.Message) error {
	evt, ok, err := Decode(m.Topic(), m.Payload())
	if err != nil || !ok {
		return err
	}
	if h.sink != nil {
		return h.sink(evt)
	}
	return nil
}

// Decode dispatches on the topic prefix; ok is false for topics this service ignores.
func Decode(topic string, payload []byte) (evt CommonEvent, ok bool, err error) {
	switch {
	case strings.HasPrefix(topic, decisionPrefix):
		evt, err = decodeDecision(topic, payload)
	case strings.HasPrefix(topic, readingPrefix):
		evt, err = decodeReading(topic, payload)
	default:
		return CommonEvent{}, false, nil
	}
	return evt, err == nil, err
}

func decodeDecision(topic string, payload []byte) (CommonEvent, error) {
	var d msg.IrrigationDecisionEvent
	if err := json.Unmarshal(payload, &d); err != nil {
		return CommonEvent{}, err
	}
	cropID, stationID := pickIDs(topic, d.CropID, d.StationID, decisionPrefix)
	if cropID == "" || stationID == "" {
		return CommonEvent{}, errors.New("decision: missing crop/station")
	}
	sev := "info"
	// crisi idrica o suolo saturo
	if d.Condition == 1 || d.Condition == 2 {
		sev = "warning"
	}
	return CommonEvent{
		EventType:     TypeDecision,
		SourceService: "irrigation-controller",
		CropID:        cropID,
		StationID:     stationID,
		Severity:      sev,
		Fields: map[string]interface{}{
			"decision_id":   d.DecisionID,
			"irrigate":      d.Irrigate,
			"condition":     int64(d.Condition),
			"reason":        d.Reason,
			"soil_humidity": d.SoilHumidity,
			"temperature":   d.Temperature,
			"ph":            d.PH,
		},
		Timestamp: stamp(d.Timestamp),
	}, nil
}

func decodeReading(topic string, payload []byte) (CommonEvent, error) {
	var r msg.SensorReadingMessage
	if err := json.Unmarshal(payload, &r); err != nil {
		return CommonEvent{}, err
	}
	cropID, stationID := pickIDs(topic, r.CropID, r.StationID, readingPrefix)
	if cropID == "" || stationID == "" {
		return CommonEvent{}, errors.New("reading: missing crop/station")
	}
	soil := readings.SoilFromAir(r.AirHumidity)
	if r.SoilHumidity != nil {
		soil = *r.SoilHumidity
	}
	fields := map[string]interface{}{
		"temperature":   r.Temperature,
		"air_humidity":  r.AirHumidity,
		"soil_humidity": soil,
		"ph":            r.PH,
		"temp_status":   string(readings.ClassifyTemperature(r.Temperature)),
		"ph_status":     string(readings.ClassifyPH(r.PH)),
	}
	for k, v := range r.NPK {
		fields["npk_"+strings.ToLower(k)] = v
	}
	return CommonEvent{
		EventType:     TypeReading,
		SourceService: "sensor-simulator",
		CropID:        cropID,
		StationID:     stationID,
		Severity:      "info",
		Fields:        fields,
		Timestamp:     stamp(r.Timestamp),
	}, nil
}

func stamp(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now().UTC()
	}
	return t
}

// pickIDs uses the payload, or the topic "prefix/{crop}/{station}".
func pickIDs(topic, cropID, stationID, prefix string) (string, string) {
	if strings.TrimSpace(cropID) != "" && strings.TrimSpace(stationID) != "" {
		return cropID, stationID
	}
	parts := strings.Split(strings.TrimPrefix(topic, prefix), "/")
	if len(parts) >= 2 {
		return parts[0], parts[1]
	}
	return cropID, stationID
}
