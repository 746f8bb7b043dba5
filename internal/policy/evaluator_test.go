package policy

import (
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/LeonardoBeccarini/farmtech/internal/model/entities"
)

func crop(t entities.CropType) entities.CropProfile {
	return entities.CropProfile{ID: "c1", Name: "test", Type: t}
}

func reading(temp, hum, ph float64, npk entities.NPKStatus) entities.SensorReading {
	return entities.SensorReading{Temperature: temp, SoilHumidity: hum, PH: ph, NPK: npk}
}

var allDeficient = entities.NPKStatus{}

func TestEvaluate(t *testing.T) {
	tests := []struct {
		name      string
		crop      entities.CropType
		reading   entities.SensorReading
		irrigate  bool
		condition Condition
		contains  []string
	}{
		{
			name:      "critical dryness overrides everything",
			crop:      entities.Banana,
			reading:   reading(28, 35, 6.5, entities.AllAdequate),
			irrigate:  true,
			condition: CondCriticalDryness,
			contains:  []string{"35%", "40%"},
		},
		{
			name:      "critical dryness with every other deficit",
			crop:      entities.Corn,
			reading:   reading(45, 10, 3.0, allDeficient),
			irrigate:  true,
			condition: CondCriticalDryness,
		},
		{
			name:      "waterlogged blocks irrigation despite deficits",
			crop:      entities.Generic("soja"),
			reading:   reading(40, 85, 9.0, allDeficient),
			irrigate:  false,
			condition: CondWaterlogged,
			contains:  []string{"85%", "80%"},
		},
		{
			name:      "humidity exactly at max is not waterlogged",
			crop:      entities.Corn,
			reading:   reading(25, 80, 6.5, entities.AllAdequate),
			irrigate:  false,
			condition: CondOptimal,
		},
		{
			name:      "humidity exactly at min is not critical",
			crop:      entities.Corn,
			reading:   reading(25, 40, 6.5, entities.AllAdequate),
			irrigate:  false,
			condition: CondOptimal,
		},
		{
			name:      "banana with potassium adequate does not trigger nutrient rule",
			crop:      entities.Banana,
			reading:   reading(25, 50, 6.5, entities.NPKStatus{N: false, P: false, K: true}),
			irrigate:  false,
			condition: CondOptimal,
		},
		{
			name:      "banana with potassium deficient triggers nutrient rule",
			crop:      entities.Banana,
			reading:   reading(25, 50, 6.5, entities.NPKStatus{N: false, P: false, K: false}),
			irrigate:  true,
			condition: CondNutrientDeficiency,
			contains:  []string{"potassium", "50%", "60%"},
		},
		{
			name:      "banana non-critical deficiency falls through to pH rule",
			crop:      entities.Banana,
			reading:   reading(25, 50, 5.0, entities.NPKStatus{N: false, P: true, K: true}),
			irrigate:  true,
			condition: CondPHOutOfRange,
		},
		{
			name:      "corn with nitrogen deficient triggers nutrient rule",
			crop:      entities.Corn,
			reading:   reading(25, 45, 6.5, entities.NPKStatus{N: false, P: true, K: true}),
			irrigate:  true,
			condition: CondNutrientDeficiency,
			contains:  []string{"nitrogen", "45%"},
		},
		{
			name:      "corn with only P and K deficient does not trigger nutrient rule",
			crop:      entities.Corn,
			reading:   reading(25, 45, 6.5, entities.NPKStatus{N: true, P: false, K: false}),
			irrigate:  false,
			condition: CondOptimal,
		},
		{
			name:      "generic crop triggers on any deficiency",
			crop:      entities.Generic("soja"),
			reading:   reading(25, 45, 6.5, entities.NPKStatus{N: true, P: false, K: true}),
			irrigate:  true,
			condition: CondNutrientDeficiency,
			contains:  []string{"phosphorus"},
		},
		{
			name:      "nutrient deficiency at ideal humidity is ignored",
			crop:      entities.Generic("soja"),
			reading:   reading(25, 60, 6.5, allDeficient),
			irrigate:  false,
			condition: CondOptimal,
		},
		{
			name:      "acidic soil with sub-ideal humidity",
			crop:      entities.Corn,
			reading:   reading(22, 55, 5.0, entities.AllAdequate),
			irrigate:  true,
			condition: CondPHOutOfRange,
			contains:  []string{"5", "55%"},
		},
		{
			name:      "alkaline soil with sub-ideal humidity",
			crop:      entities.Corn,
			reading:   reading(22, 55, 8.1, entities.AllAdequate),
			irrigate:  true,
			condition: CondPHOutOfRange,
			contains:  []string{"8.1"},
		},
		{
			name:      "pH on the band edges is in range",
			crop:      entities.Corn,
			reading:   reading(22, 55, 7.5, entities.AllAdequate),
			irrigate:  false,
			condition: CondOptimal,
		},
		{
			name:      "pH out of range at ideal humidity is ignored",
			crop:      entities.Corn,
			reading:   reading(22, 60, 4.0, entities.AllAdequate),
			irrigate:  false,
			condition: CondOptimal,
		},
		{
			name:      "heat stress with sub-ideal humidity",
			crop:      entities.Banana,
			reading:   reading(35, 55, 6.5, entities.AllAdequate),
			irrigate:  true,
			condition: CondHeatStress,
			contains:  []string{"35°C", "55%"},
		},
		{
			name:      "temperature exactly at limit is not heat stress",
			crop:      entities.Banana,
			reading:   reading(30, 55, 6.5, entities.AllAdequate),
			irrigate:  false,
			condition: CondOptimal,
		},
		{
			name:      "optimal corn scenario",
			crop:      entities.Corn,
			reading:   reading(24, 70, 6.0, entities.AllAdequate),
			irrigate:  false,
			condition: CondOptimal,
			contains:  []string{"optimal"},
		},
		{
			name:      "out-of-domain humidity is evaluated mechanically",
			crop:      entities.Corn,
			reading:   reading(24, 140, 6.0, entities.AllAdequate),
			irrigate:  false,
			condition: CondWaterlogged,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := Evaluate(crop(tt.crop), tt.reading)
			assert.Equal(t, tt.irrigate, d.ShouldIrrigate)
			assert.Equal(t, tt.condition, d.MatchedCondition)
			for _, s := range tt.contains {
				assert.Contains(t, d.Reason, s)
			}
		})
	}
}

func TestRulesOrder(t *testing.T) {
	rules := Rules()
	require.Len(t, rules, 6)
	for i, r := range rules {
		assert.Equal(t, Condition(i+1), r.Condition)
	}
	assert.True(t, rules[len(rules)-1].Match(DefaultThresholds, entities.CropProfile{}, entities.SensorReading{}))
}

func TestNutrientRuleInIsolation(t *testing.T) {
	rule := Rules()[CondNutrientDeficiency-1]
	r := reading(25, 50, 6.5, entities.NPKStatus{N: false, P: true, K: true})

	assert.True(t, rule.Match(DefaultThresholds, crop(entities.Corn), r))
	assert.False(t, rule.Match(DefaultThresholds, crop(entities.Banana), r))
	assert.True(t, rule.Match(DefaultThresholds, crop(entities.Generic("trigo")), r))
}

func TestCustomThresholds(t *testing.T) {
	th := DefaultThresholds
	th.HumidityMin = 20
	e := NewEvaluator(th)

	d := e.Evaluate(crop(entities.Corn), reading(24, 30, 6.5, entities.AllAdequate))
	assert.Equal(t, CondOptimal, d.MatchedCondition)
	assert.Equal(t, th, e.Thresholds())
}

func TestEvaluateConcurrent(t *testing.T) {
	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func(h float64) {
			defer wg.Done()
			d := Evaluate(crop(entities.Banana), reading(25, h, 6.5, entities.AllAdequate))
			if h < 40 {
				assert.Equal(t, CondCriticalDryness, d.MatchedCondition)
			}
		}(float64(i * 3))
	}
	wg.Wait()
}

func TestConditionString(t *testing.T) {
	assert.Equal(t, "heat_stress", CondHeatStress.String())
	assert.Equal(t, "condition_9", Condition(9).String())
}
