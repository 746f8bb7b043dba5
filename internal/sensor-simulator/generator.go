package sensor_simulator

import (
	"math"
	"math/rand"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/LeonardoBeccarini/farmtech/internal/model"
	"github.com/LeonardoBeccarini/farmtech/internal/readings"
)

// ====== Tunables ======
const (
	// irrigationBoost: punti % di umidità aggiunti da un ciclo di irrigazione.
	irrigationBoost = 15.0

	// per-tick random walk steps
	tempStep = 0.8
	humStep  = 1.5
	phStep   = 0.05

	// probability that a nutrient flips adequacy on a tick
	npkFlipProb = 0.03
)

// Seed is the starting state of a generator.
type Seed struct {
	Temperature float64
	AirHumidity float64
	PH          float64
	NPK         model.NPKStatus
}

var DefaultSeed = Seed{Temperature: 24, AirHumidity: 65, PH: 6.5, NPK: model.NPKStatus{N: true, P: true, K: true}}

// DataGenerator keeps a random-walk state per station. Air humidity decays
// while no irrigation happens.
type DataGenerator struct {
	mu          sync.Mutex
	rnd         *rand.Rand
	state       Seed
	decayPerMin float64 // humidity points lost per minute
	last        time.Time
	now         func() time.Time
}

func NewDataGenerator(seed Seed, decayPerMin float64, rndSeed int64) *DataGenerator {
	return &DataGenerator{
		rnd:         rand.New(rand.NewSource(rndSeed)),
		state:       seed,
		decayPerMin: math.Max(0, decayPerMin),
		now:         time.Now,
	}
}

// Next advances the state and returns the message a station would publish.
func (g *DataGenerator) Next(st model.Station) model.SensorReadingMessage {
	g.mu.Lock()
	defer g.mu.Unlock()

	now := g.now().UTC()
	if !g.last.IsZero() {
		if dtMin := now.Sub(g.last).Minutes(); dtMin > 0 {
			g.state.AirHumidity -= g.decayPerMin * dtMin
		}
	}
	g.last = now

	s := &g.state
	s.Temperature = clamp(s.Temperature+g.step(tempStep), readings.TempMin, readings.TempMax)
	s.AirHumidity = clamp(s.AirHumidity+g.step(humStep), readings.HumidityMin, readings.HumidityMax)
	s.PH = clamp(s.PH+g.step(phStep), readings.PHMin, readings.PHMax)
	if g.rnd.Float64() < npkFlipProb {
		s.NPK.N = !s.NPK.N
	}
	if g.rnd.Float64() < npkFlipProb {
		s.NPK.P = !s.NPK.P
	}
	if g.rnd.Float64() < npkFlipProb {
		s.NPK.K = !s.NPK.K
	}

	return model.SensorReadingMessage{
		StationID:   st.ID,
		CropID:      st.CropID,
		ReadingID:   uuid.NewString(),
		Temperature: round1(s.Temperature),
		AirHumidity: round1(s.AirHumidity),
		PH:          round2(s.PH),
		NPK:         map[string]bool{"N": s.NPK.N, "P": s.NPK.P, "K": s.NPK.K},
		Timestamp:   now,
	}
}

// ApplyIrrigation reflects one irrigation cycle in the simulated humidity.
func (g *DataGenerator) ApplyIrrigation() {
	if g == nil {
		return
	}
	g.mu.Lock()
	g.state.AirHumidity = clamp(g.state.AirHumidity+irrigationBoost, readings.HumidityMin, readings.HumidityMax)
	g.mu.Unlock()
}

func (g *DataGenerator) State() Seed {
	g.mu.Lock()
	defer g.mu.Unlock()
	return g.state
}

// step is uniform in [-max, max].
func (g *DataGenerator) step(max float64) float64 {
	return (g.rnd.Float64()*2 - 1) * max
}

func clamp(x, lo, hi float64) float64 {
	return math.Min(hi, math.Max(lo, x))
}

func round1(x float64) float64 { return math.Round(x*10) / 10 }
func round2(x float64) float64 { return math.Round(x*100) / 100 }
