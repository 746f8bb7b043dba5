package app

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"sort"
	"sync"

	"github.com/LeonardoBeccarini/farmtech/internal/model"
)

// HandleOverview aggregates crops, per-crop decision stats and the latest
// decision events. Every upstream is optional; failures degrade the payload.
func (g *Gateway) HandleOverview(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), g.cfg.HTTPTimeout)
	defer cancel()

	var (
		wg     sync.WaitGroup
		crops  []model.CropProfile
		totals Stats
		events []Decision
		evErr  error
	)

	// Fetch in parallelo
	wg.Add(3)
	go func() {
		defer wg.Done()
		if err := g.controller.GetJSON(ctx, "/crops", nil, &crops); err != nil {
			g.cfg.Logger.Printf("gateway: crops: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		if err := g.controller.GetJSON(ctx, "/decisions/stats", nil, &totals); err != nil {
			g.cfg.Logger.Printf("gateway: stats: %v", err)
		}
	}()
	go func() {
		defer wg.Done()
		q := url.Values{}
		if lim := r.URL.Query().Get("limit"); lim != "" {
			q.Set("limit", lim)
		}
		evErr = g.events.GetJSON(ctx, "/events/irrigation/latest", q, &events)
	}()
	wg.Wait()

	data := Overview{
		Crops:     make([]CropOverview, 0, len(crops)),
		Decisions: g.eventsOrCache(events, evErr),
		Totals:    totals,
		Upstreams: map[string]string{
			"controller": g.controller.State().String(),
			"events":     g.events.State().String(),
		},
		Stale: evErr != nil,
	}

	perCrop := g.cropStats(ctx, crops)
	for _, c := range crops {
		data.Crops = append(data.Crops, cropOverview(c, perCrop[c.ID]))
		data.TotalArea += c.AreaHectares
	}
	sort.Slice(data.Crops, func(i, j int) bool { return data.Crops[i].ID < data.Crops[j].ID })

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(data)
}

func (g *Gateway) cropStats(ctx context.Context, crops []model.CropProfile) map[string]Stats {
	var (
		wg  sync.WaitGroup
		mu  sync.Mutex
		out = make(map[string]Stats, len(crops))
	)
	for _, c := range crops {
		wg.Add(1)
		go func(id string) {
			defer wg.Done()
			var st Stats
			if err := g.controller.GetJSON(ctx, "/decisions/stats", url.Values{"crop": {id}}, &st); err != nil {
				g.cfg.Logger.Printf("gateway: stats %s: %v", id, err)
				return
			}
			mu.Lock()
			out[id] = st
			mu.Unlock()
		}(c.ID)
	}
	wg.Wait()
	return out
}

// eventsOrCache serves the last good event list when the event-service fails.
func (g *Gateway) eventsOrCache(events []Decision, err error) []Decision {
	g.mu.Lock()
	defer g.mu.Unlock()
	if err == nil {
		if events == nil {
			events = []Decision{}
		}
		g.lastEvents = events
		return events
	}
	g.cfg.Logger.Printf("gateway: events: %v (serving cache)", err)
	if g.lastEvents == nil {
		return []Decision{}
	}
	return g.lastEvents
}
