// Package readings validates raw station payloads before they reach the irrigation policy.
package readings

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/LeonardoBeccarini/farmtech/internal/model/entities"
	"github.com/LeonardoBeccarini/farmtech/internal/model/messages"
)

// Documented sensor ranges.
const (
	TempMin     = -10.0
	TempMax     = 50.0
	HumidityMin = 0.0
	HumidityMax = 100.0
	PHMin       = 3.0
	PHMax       = 9.0

	// soilFactor converts air humidity into an estimate of soil humidity.
	soilFactor = 0.8
)

var (
	ErrOutOfRange      = errors.New("value out of range")
	ErrMissingNutrient = errors.New("missing NPK nutrient")
	// two keys naming the same nutrient, e.g. "k" and "K"
	ErrDuplicateNutrient = errors.New("duplicate NPK nutrient")
)

// ValidationError reports the first offending field of a reading.
type ValidationError struct {
	Field string
	Value float64
	Err   error
}

func (e *ValidationError) Error() string {
	if errors.Is(e.Err, ErrMissingNutrient) {
		return fmt.Sprintf("%s: %v", e.Field, e.Err)
	}
	return fmt.Sprintf("%s=%g: %v", e.Field, e.Value, e.Err)
}

func (e *ValidationError) Unwrap() error { return e.Err }

// Validate checks a raw message against the documented ranges and converts it into
// the reading consumed by the policy.
func Validate(m messages.SensorReadingMessage) (entities.SensorReading, error) {
	if err := inRange("temperature", m.Temperature, TempMin, TempMax); err != nil {
		return entities.SensorReading{}, err
	}
	if err := inRange("air_humidity", m.AirHumidity, HumidityMin, HumidityMax); err != nil {
		return entities.SensorReading{}, err
	}
	if err := inRange("ph", m.PH, PHMin, PHMax); err != nil {
		return entities.SensorReading{}, err
	}

	soil := SoilFromAir(m.AirHumidity)
	if m.SoilHumidity != nil {
		soil = *m.SoilHumidity
		if err := inRange("soil_humidity", soil, HumidityMin, HumidityMax); err != nil {
			return entities.SensorReading{}, err
		}
	}

	npk, err := ParseNPK(m.NPK)
	if err != nil {
		return entities.SensorReading{}, err
	}

	return entities.SensorReading{
		Temperature:  m.Temperature,
		SoilHumidity: soil,
		PH:           m.PH,
		NPK:          npk,
	}, nil
}

// ParseNPK requires all three keys; lookups are case insensitive and a
// nutrient may appear only once.
func ParseNPK(raw map[string]bool) (entities.NPKStatus, error) {
	norm := make(map[string]bool, len(raw))
	for k, v := range raw {
		key := strings.ToUpper(strings.TrimSpace(k))
		if _, dup := norm[key]; dup {
			return entities.NPKStatus{}, &ValidationError{Field: "npk_ok." + key, Err: ErrDuplicateNutrient}
		}
		norm[key] = v
	}
	get := func(n entities.Nutrient) (bool, error) {
		v, ok := norm[string(n)]
		if !ok {
			return false, &ValidationError{Field: "npk_ok." + string(n), Err: ErrMissingNutrient}
		}
		return v, nil
	}
	var (
		s   entities.NPKStatus
		err error
	)
	if s.N, err = get(entities.Nitrogen); err != nil {
		return s, err
	}
	if s.P, err = get(entities.Phosphorus); err != nil {
		return s, err
	}
	if s.K, err = get(entities.Potassium); err != nil {
		return s, err
	}
	return s, nil
}

// SoilFromAir estimates soil humidity, rounded to one decimal.
func SoilFromAir(air float64) float64 {
	return math.Round(air*soilFactor*10) / 10
}

func inRange(field string, v, lo, hi float64) error {
	if math.IsNaN(v) || v < lo || v > hi {
		return &ValidationError{Field: field, Value: v, Err: ErrOutOfRange}
	}
	return nil
}
