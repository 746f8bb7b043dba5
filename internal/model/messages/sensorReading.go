package messages

import (
	"strings"
	"time"
)

// Topic prefixes a SensorReadingMessage travels on, followed by {crop}/{station}.
const (
	ReadingTopicPrefix    = "sensor/reading/"
	AggregatedTopicPrefix = "sensor/aggregated/"
)

// SensorReadingMessage is the raw payload a station publishes on sensor/reading/{crop}/{station}.
// SoilHumidity is optional: stations that only measure air humidity leave it unset.
type SensorReadingMessage struct {
	StationID    string          `json:"station_id"`
	CropID       string          `json:"crop_id"`
	ReadingID    string          `json:"reading_id,omitempty"`
	Temperature  float64         `json:"temperature"`
	AirHumidity  float64         `json:"air_humidity"`
	SoilHumidity *float64        `json:"soil_humidity,omitempty"`
	PH           float64         `json:"ph"`
	NPK          map[string]bool `json:"npk_ok"`
	Timestamp    time.Time       `json:"timestamp"`
}

// FillIDs trims the payload IDs and fills the missing ones from a reading or
// aggregated topic. Payload values win over the topic.
func (m *SensorReadingMessage) FillIDs(topic string) {
	m.CropID, m.StationID = strings.TrimSpace(m.CropID), strings.TrimSpace(m.StationID)
	if m.CropID != "" && m.StationID != "" {
		return
	}
	for _, prefix := range []string{ReadingTopicPrefix, AggregatedTopicPrefix} {
		if !strings.HasPrefix(topic, prefix) {
			continue
		}
		parts := strings.Split(strings.TrimPrefix(topic, prefix), "/")
		if len(parts) < 2 {
			return
		}
		if m.CropID == "" {
			m.CropID = parts[0]
		}
		if m.StationID == "" {
			m.StationID = parts[1]
		}
		return
	}
}
