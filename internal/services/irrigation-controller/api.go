package irrigation_controller

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/LeonardoBeccarini/farmtech/internal/decisionlog"
	"github.com/LeonardoBeccarini/farmtech/internal/model"
)

// HistoryReader is the read side of the decision log.
type HistoryReader interface {
	ByCrop(ctx context.Context, cropID string) ([]decisionlog.Record, error)
	Last(ctx context.Context, cropID string) (decisionlog.Record, error)
}

// CropLister lists registered crops; *registry.Registry implements it.
type CropLister interface {
	List() []model.CropProfile
}

type Stats struct {
	CropID         string  `json:"crop_id,omitempty"`
	Total          int     `json:"total"`
	Activated      int     `json:"activated"`
	ActivationRate float64 `json:"activation_rate"`
}

// NewRouter exposes health, metrics and the decision history.
func NewRouter(history HistoryReader, crops CropLister, gatherer prometheus.Gatherer) http.Handler {
	r := chi.NewRouter()
	r.Use(middleware.Recoverer)
	r.Use(middleware.Timeout(5 * time.Second))

	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) { _, _ = w.Write([]byte("ok")) })
	r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))

	r.Get("/crops", func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(w, http.StatusOK, crops.List())
	})

	r.Route("/decisions", func(r chi.Router) {
		// GET /decisions?crop=<id>
		r.Get("/", func(w http.ResponseWriter, req *http.Request) {
			recs, err := history.ByCrop(req.Context(), req.URL.Query().Get("crop"))
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			if recs == nil {
				recs = []decisionlog.Record{}
			}
			writeJSON(w, http.StatusOK, recs)
		})

		r.Get("/last", func(w http.ResponseWriter, req *http.Request) {
			rec, err := history.Last(req.Context(), req.URL.Query().Get("crop"))
			switch {
			case errors.Is(err, decisionlog.ErrNotFound):
				writeError(w, http.StatusNotFound, err)
			case err != nil:
				writeError(w, http.StatusInternalServerError, err)
			default:
				writeJSON(w, http.StatusOK, rec)
			}
		})

		r.Get("/stats", func(w http.ResponseWriter, req *http.Request) {
			cropID := req.URL.Query().Get("crop")
			st, err := stats(req.Context(), history, cropID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, err)
				return
			}
			writeJSON(w, http.StatusOK, st)
		})
	})

	return r
}

// stats reads the history once per request.
func stats(ctx context.Context, h HistoryReader, cropID string) (Stats, error) {
	recs, err := h.ByCrop(ctx, cropID)
	if err != nil {
		return Stats{}, err
	}
	sum := decisionlog.Summarize(recs)
	return Stats{CropID: cropID, Total: sum.Total, Activated: sum.Activated, ActivationRate: sum.ActivationRate}, nil
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}
