package event

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/influxdata/influxdb-client-go/v2/api"
)

// Decision is the payload served by /events/irrigation/latest.
type Decision struct {
	CropID    string `json:"crop_id,omitempty"`
	StationID string `json:"station_id,omitempty"`
	Irrigate  bool   `json:"irrigate"`
	Condition int    `json:"condition"`
	Reason    string `json:"reason,omitempty"`
	Time      string `json:"time"` // RFC3339
}

// Querier is satisfied by api.QueryAPI.
type Querier interface {
	Query(ctx context.Context, query string) (*api.QueryTableResult, error)
}

type queryParams struct {
	Minutes   int
	Limit     int
	TimeoutMS int
	CropID    string
}

func parseQuery(r *http.Request, defMin, defLim, defTOms int) queryParams {
	q := r.URL.Query()
	get := func(k string, def, min, max int) int {
		if v := strings.TrimSpace(q.Get(k)); v != "" {
			if n, err := strconv.Atoi(v); err == nil {
				if n < min {
					return min
				}
				if max > 0 && n > max {
					return max
				}
				return n
			}
		}
		return def
	}
	return queryParams{
		Minutes:   get("minutes", defMin, 1, 7*24*60),
		Limit:     get("limit", defLim, 1, 500),
		TimeoutMS: get("timeout_ms", defTOms, 200, 5000),
		CropID:    strings.TrimSpace(q.Get("crop")),
	}
}

func buildFlux(bucket string, p queryParams) string {
	cropFilter := ""
	if p.CropID != "" {
		cropFilter = fmt.Sprintf("\n  |> filter(fn: (r) => r.crop_id == %q)", p.CropID)
	}
	return fmt.Sprintf(`
from(bucket: %q)
  |> range(start: -%dm)
  |> filter(fn: (r) => r._measurement == %q and r.event_type == %q)%s
  |> filter(fn: (r) => r._field == "irrigate" or r._field == "condition" or r._field == "reason")
  |> pivot(rowKey: ["_time"], columnKey: ["_field"], valueColumn: "_value")
  |> keep(columns: ["_time", "crop_id", "station_id", "irrigate", "condition", "reason"])
  |> group()
  |> sort(columns: ["_time"], desc: true)
  |> limit(n: %d)
`, bucket, p.Minutes, Measurement, TypeDecision, cropFilter, p.Limit)
}

func recordToDecision(values map[string]interface{}, t time.Time) Decision {
	d := Decision{Time: t.UTC().Format(time.RFC3339)}
	if s, ok := values["crop_id"].(string); ok {
		d.CropID = s
	}
	if s, ok := values["station_id"].(string); ok {
		d.StationID = s
	}
	if b, ok := values["irrigate"].(bool); ok {
		d.Irrigate = b
	}
	switch v := values["condition"].(type) {
	case int64:
		d.Condition = int(v)
	case float64:
		d.Condition = int(v)
	}
	if s, ok := values["reason"].(string); ok {
		d.Reason = s
	}
	return d
}

// NewDecisionLatestHandler serves GET /events/irrigation/latest?limit=20[&minutes=1440][&crop=id].
func NewDecisionLatestHandler(q Querier, bucket string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		p := parseQuery(r, 1440, 20, 2000)

		ctx, cancel := context.WithTimeout(r.Context(), time.Duration(p.TimeoutMS)*time.Millisecond)
		defer cancel()

		w.Header().Set("Content-Type", "application/json")
		res, err := q.Query(ctx, buildFlux(bucket, p))
		if err != nil {
			w.Header().Set("X-Error", "influx-query-error")
			_, _ = w.Write([]byte("[]"))
			return
		}
		defer res.Close()

		out := make([]Decision, 0, p.Limit)
		for res.Next() {
			rec := res.Record()
			out = append(out, recordToDecision(rec.Values(), rec.Time()))
		}
		if res.Err() != nil {
			w.Header().Set("X-Error", "influx-iter-error")
		}
		_ = json.NewEncoder(w).Encode(out)
	})
}
