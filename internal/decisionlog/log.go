// Package decisionlog keeps the append-only history of irrigation decisions.
package decisionlog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
)

var ErrNotFound = errors.New("decision not found")

// Record is one persisted decision.
type Record struct {
	ID        string    `json:"id"`
	CropID    string    `json:"crop_id"`
	StationID string    `json:"station_id"`
	ReadingID string    `json:"reading_id,omitempty"`
	Timestamp time.Time `json:"timestamp"`
	Irrigated bool      `json:"irrigated"`
	Condition int       `json:"condition"`
	Reason    string    `json:"reason"`
}

// Store persists records in append order.
type Store interface {
	Append(ctx context.Context, rec Record) error
	// All returns records oldest first.
	All(ctx context.Context) ([]Record, error)
	Close() error
}

type Log struct {
	store Store
	now   func() time.Time
}

func New(store Store) *Log {
	return &Log{store: store, now: time.Now}
}

// Append assigns ID and timestamp when missing and stores the record.
func (l *Log) Append(ctx context.Context, rec Record) (Record, error) {
	if rec.ID == "" {
		rec.ID = uuid.NewString()
	}
	if rec.Timestamp.IsZero() {
		rec.Timestamp = l.now().UTC()
	}
	if err := l.store.Append(ctx, rec); err != nil {
		return Record{}, err
	}
	return rec, nil
}

func (l *Log) List(ctx context.Context) ([]Record, error) {
	return l.store.All(ctx)
}

// ByCrop filters the history; an empty cropID returns everything.
func (l *Log) ByCrop(ctx context.Context, cropID string) ([]Record, error) {
	all, err := l.store.All(ctx)
	if err != nil || cropID == "" {
		return all, err
	}
	out := make([]Record, 0, len(all))
	for _, r := range all {
		if r.CropID == cropID {
			out = append(out, r)
		}
	}
	return out, nil
}

// Last returns the most recent decision for a crop.
func (l *Log) Last(ctx context.Context, cropID string) (Record, error) {
	recs, err := l.ByCrop(ctx, cropID)
	if err != nil {
		return Record{}, err
	}
	if len(recs) == 0 {
		return Record{}, ErrNotFound
	}
	last := recs[0]
	for _, r := range recs[1:] {
		if !r.Timestamp.Before(last.Timestamp) {
			last = r
		}
	}
	return last, nil
}

func (l *Log) CountActivated(ctx context.Context, cropID string) (int, error) {
	recs, err := l.ByCrop(ctx, cropID)
	if err != nil {
		return 0, err
	}
	return Summarize(recs).Activated, nil
}

// ActivationRate is the share of decisions that irrigated, in percent.
func (l *Log) ActivationRate(ctx context.Context, cropID string) (float64, error) {
	recs, err := l.ByCrop(ctx, cropID)
	if err != nil {
		return 0, err
	}
	return Summarize(recs).ActivationRate, nil
}

// Summary counts a set of records; ActivationRate is 0 for an empty set.
type Summary struct {
	Total          int
	Activated      int
	ActivationRate float64
}

func Summarize(recs []Record) Summary {
	s := Summary{Total: len(recs)}
	for _, r := range recs {
		if r.Irrigated {
			s.Activated++
		}
	}
	if s.Total > 0 {
		s.ActivationRate = float64(s.Activated) / float64(s.Total) * 100
	}
	return s
}

func (l *Log) Close() error { return l.store.Close() }
