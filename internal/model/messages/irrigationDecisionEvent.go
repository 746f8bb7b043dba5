package messages

import "time"

// IrrigationDecisionEvent is published by the irrigation controller to record WHY/WHAT was decided.
type IrrigationDecisionEvent struct {
	DecisionID   string    `json:"decision_id"`
	CropID       string    `json:"crop_id"`
	StationID    string    `json:"station_id"`
	ReadingID    string    `json:"reading_id,omitempty"`
	CropType     string    `json:"crop_type"`
	Irrigate     bool      `json:"irrigate"`
	Condition    int       `json:"condition"`
	Reason       string    `json:"reason"`
	SoilHumidity float64   `json:"soil_humidity"`
	Temperature  float64   `json:"temperature"`
	PH           float64   `json:"ph"`
	Timestamp    time.Time `json:"timestamp"`
}
