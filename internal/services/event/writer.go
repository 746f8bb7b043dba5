package event

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api/write"
	"github.com/sony/gobreaker"
)

// PointWriter is satisfied by api.WriteAPIBlocking.
type PointWriter interface {
	WritePoint(ctx context.Context, point ...*write.Point) error
}

type BreakerConfig struct {
	Failures int           // consecutive failures before opening
	OpenFor  time.Duration // time spent open before a half-open probe
}

// Writer writes events to Influx behind a circuit breaker and tracks the last
// write error for /healthz and /readyz.
type Writer struct {
	api PointWriter
	cb  *gobreaker.CircuitBreaker

	mu      sync.RWMutex
	lastErr time.Time
	counts  map[string]int64
}

func NewWriter(w PointWriter, bc BreakerConfig) *Writer {
	if bc.Failures < 1 {
		bc.Failures = 5
	}
	if bc.OpenFor <= 0 {
		bc.OpenFor = 10 * time.Second
	}
	return &Writer{
		api:     w,
		lastErr: time.Now().Add(-24 * time.Hour),
		counts:  make(map[string]int64),
		cb: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "influx-write",
			Timeout: bc.OpenFor,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= uint32(bc.Failures)
			},
			OnStateChange: func(name string, from, to gobreaker.State) {
				log.Printf("event-svc: breaker %s %s → %s", name, from, to)
			},
		}),
	}
}

// Write fails fast with gobreaker.ErrOpenState while Influx is considered down.
func (w *Writer) Write(ctx context.Context, evt CommonEvent) error {
	_, err := w.cb.Execute(func() (interface{}, error) {
		return nil, w.api.WritePoint(ctx, EventToPoint(evt))
	})
	if err != nil {
		w.mu.Lock()
		w.lastErr = time.Now()
		w.mu.Unlock()
		return err
	}
	w.MarkIngest(evt.EventType)
	return nil
}

func (w *Writer) BreakerState() gobreaker.State {
	return w.cb.State()
}

func (w *Writer) LastErrorAge() time.Duration {
	if w == nil {
		return 99999 * time.Hour
	}
	w.mu.RLock()
	t := w.lastErr
	w.mu.RUnlock()
	return time.Since(t)
}

func (w *Writer) MarkIngest(eventType string) {
	if w == nil {
		return
	}
	w.mu.Lock()
	w.counts[eventType]++
	w.mu.Unlock()
}

func (w *Writer) Count(eventType string) int64 {
	if w == nil {
		return 0
	}
	w.mu.RLock()
	c := w.counts[eventType]
	w.mu.RUnlock()
	return c
}
