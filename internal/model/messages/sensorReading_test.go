package messages

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestFillIDs(t *testing.T) {
	tests := []struct {
		name        string
		topic       string
		crop, st    string
		wantCrop    string
		wantStation string
	}{
		{"reading topic", "sensor/reading/b1/st1", "", "", "b1", "st1"},
		{"aggregated topic", "sensor/aggregated/m1/st2", "", "", "m1", "st2"},
		{"payload wins", "sensor/reading/b1/st1", "m1", "st9", "m1", "st9"},
		{"partial payload", "sensor/aggregated/b1/st1", " m1 ", "", "m1", "st1"},
		{"unknown topic", "other/topic/b1/st1", "", "st9", "", "st9"},
		{"short topic", "sensor/reading/b1", "", "", "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			m := SensorReadingMessage{CropID: tt.crop, StationID: tt.st}
			m.FillIDs(tt.topic)
			assert.Equal(t, tt.wantCrop, m.CropID)
			assert.Equal(t, tt.wantStation, m.StationID)
		})
	}
}
