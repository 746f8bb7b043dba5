// Package policy decides whether a crop needs irrigation from a single sensor reading.
//
// The decision is an ordered list of six rules evaluated top to bottom; the first
// rule that matches decides. Inputs are assumed to be validated upstream (see package
// readings): out-of-range values go through the same comparisons unmodified.
package policy

import (
	"fmt"
	"strings"

	"github.com/LeonardoBeccarini/farmtech/internal/model/entities"
)

// Condition identifies the rule that produced a Decision.
type Condition int

const (
	CondCriticalDryness Condition = iota + 1
	CondWaterlogged
	CondNutrientDeficiency
	CondPHOutOfRange
	CondHeatStress
	CondOptimal
)

func (c Condition) String() string {
	switch c {
	case CondCriticalDryness:
		return "critical_dryness"
	case CondWaterlogged:
		return "waterlogged"
	case CondNutrientDeficiency:
		return "nutrient_deficiency"
	case CondPHOutOfRange:
		return "ph_out_of_range"
	case CondHeatStress:
		return "heat_stress"
	case CondOptimal:
		return "optimal"
	default:
		return fmt.Sprintf("condition_%d", int(c))
	}
}

// Thresholds are expressed in the units of the reading.
type Thresholds struct {
	HumidityMin   float64 // below: crisis
	HumidityIdeal float64 // below: sub-ideal
	HumidityMax   float64 // above: never irrigate
	PHMin         float64
	PHMax         float64
	TempHigh      float64 // above: heat stress
}

var DefaultThresholds = Thresholds{
	HumidityMin:   40.0,
	HumidityIdeal: 60.0,
	HumidityMax:   80.0,
	PHMin:         5.5,
	PHMax:         7.5,
	TempHigh:      30.0,
}

// Decision is the immutable outcome of one evaluation.
type Decision struct {
	ShouldIrrigate   bool      `json:"should_irrigate"`
	Reason           string    `json:"reason"`
	MatchedCondition Condition `json:"matched_condition"`
}

// Rule is one entry of the priority list.
type Rule struct {
	Condition Condition
	Irrigate  bool
	Match     func(th Thresholds, crop entities.CropProfile, r entities.SensorReading) bool
	Reason    func(th Thresholds, crop entities.CropProfile, r entities.SensorReading) string
}

// Evaluator is stateless apart from its thresholds and safe for concurrent use.
type Evaluator struct {
	th    Thresholds
	rules []Rule
}

func NewEvaluator(th Thresholds) *Evaluator {
	return &Evaluator{th: th, rules: Rules()}
}

var defaultEvaluator = NewEvaluator(DefaultThresholds)

// Evaluate runs the default policy.
func Evaluate(crop entities.CropProfile, r entities.SensorReading) Decision {
	return defaultEvaluator.Evaluate(crop, r)
}

func (e *Evaluator) Thresholds() Thresholds { return e.th }

// Evaluate never fails: the last rule always matches.
func (e *Evaluator) Evaluate(crop entities.CropProfile, r entities.SensorReading) Decision {
	for _, rule := range e.rules {
		if rule.Match(e.th, crop, r) {
			return Decision{
				ShouldIrrigate:   rule.Irrigate,
				Reason:           rule.Reason(e.th, crop, r),
				MatchedCondition: rule.Condition,
			}
		}
	}
	// unreachable while the optimal rule closes the list
	return Decision{MatchedCondition: CondOptimal, Reason: "optimal conditions - irrigation not needed"}
}

// Rules returns the policy in priority order. The slice is a fresh copy.
func Rules() []Rule {
	return []Rule{
		{
			Condition: CondCriticalDryness,
			Irrigate:  true,
			Match: func(th Thresholds, _ entities.CropProfile, r entities.SensorReading) bool {
				return r.SoilHumidity < th.HumidityMin
			},
			Reason: func(th Thresholds, _ entities.CropProfile, r entities.SensorReading) string {
				return fmt.Sprintf("critical soil humidity (%g%%) < %g%%", r.SoilHumidity, th.HumidityMin)
			},
		},
		{
			Condition: CondWaterlogged,
			Irrigate:  false,
			Match: func(th Thresholds, _ entities.CropProfile, r entities.SensorReading) bool {
				return r.SoilHumidity > th.HumidityMax
			},
			Reason: func(th Thresholds, _ entities.CropProfile, r entities.SensorReading) string {
				return fmt.Sprintf("waterlogged soil (%g%%) > %g%%", r.SoilHumidity, th.HumidityMax)
			},
		},
		{
			Condition: CondNutrientDeficiency,
			Irrigate:  true,
			Match: func(th Thresholds, crop entities.CropProfile, r entities.SensorReading) bool {
				return r.SoilHumidity < th.HumidityIdeal && criticalDeficiency(crop.Type, r.NPK)
			},
			Reason: nutrientReason,
		},
		{
			Condition: CondPHOutOfRange,
			Irrigate:  true,
			Match: func(th Thresholds, _ entities.CropProfile, r entities.SensorReading) bool {
				return (r.PH < th.PHMin || r.PH > th.PHMax) && r.SoilHumidity < th.HumidityIdeal
			},
			Reason: func(th Thresholds, _ entities.CropProfile, r entities.SensorReading) string {
				return fmt.Sprintf("pH out of range (%g, expected %g-%g) and soil humidity %g%% < %g%%",
					r.PH, th.PHMin, th.PHMax, r.SoilHumidity, th.HumidityIdeal)
			},
		},
		{
			Condition: CondHeatStress,
			Irrigate:  true,
			Match: func(th Thresholds, _ entities.CropProfile, r entities.SensorReading) bool {
				return r.Temperature > th.TempHigh && r.SoilHumidity < th.HumidityIdeal
			},
			Reason: func(th Thresholds, _ entities.CropProfile, r entities.SensorReading) string {
				return fmt.Sprintf("high temperature (%g°C) > %g°C and soil humidity %g%% < %g%%",
					r.Temperature, th.TempHigh, r.SoilHumidity, th.HumidityIdeal)
			},
		},
		{
			Condition: CondOptimal,
			Irrigate:  false,
			Match: func(Thresholds, entities.CropProfile, entities.SensorReading) bool {
				return true
			},
			Reason: func(Thresholds, entities.CropProfile, entities.SensorReading) string {
				return "optimal conditions - irrigation not needed"
			},
		},
	}
}

// criticalDeficiency gates on the crop's critical nutrient when it has one,
// otherwise on any deficient nutrient.
func criticalDeficiency(t entities.CropType, npk entities.NPKStatus) bool {
	if n, ok := t.CriticalNutrient(); ok {
		return !npk.Adequate(n)
	}
	return len(npk.Deficient()) > 0
}

func nutrientReason(th Thresholds, crop entities.CropProfile, r entities.SensorReading) string {
	deficient := r.NPK.Deficient()
	names := make([]string, 0, len(deficient))
	for _, n := range deficient {
		names = append(names, fmt.Sprintf("%s (%s)", n.Name(), n))
	}
	list := strings.Join(names, ", ")
	if n, ok := crop.Type.CriticalNutrient(); ok {
		return fmt.Sprintf("NPK deficient: %s; %s is critical for %s, soil humidity %g%% < %g%%",
			list, n.Name(), crop.Type, r.SoilHumidity, th.HumidityIdeal)
	}
	return fmt.Sprintf("NPK deficient: %s; soil humidity %g%% < %g%%", list, r.SoilHumidity, th.HumidityIdeal)
}
