package app

import (
	"github.com/LeonardoBeccarini/farmtech/internal/model"
)

// ---------- Upstream payloads ----------

// Stats mirrors the controller's /decisions/stats response.
type Stats struct {
	CropID         string  `json:"crop_id,omitempty"`
	Total          int     `json:"total"`
	Activated      int     `json:"activated"`
	ActivationRate float64 `json:"activation_rate"`
}

// Decision mirrors the event-service's /events/irrigation/latest items.
type Decision struct {
	CropID    string `json:"crop_id,omitempty"`
	StationID string `json:"station_id,omitempty"`
	Irrigate  bool   `json:"irrigate"`
	Condition int    `json:"condition"`
	Reason    string `json:"reason,omitempty"`
	Time      string `json:"time"`
}

// ---------- Overview ----------

type CropOverview struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	CropType     string  `json:"crop_type"`
	AreaHectares float64 `json:"area_hectares"`
	Stats        Stats   `json:"stats"`
}

type Overview struct {
	Crops     []CropOverview    `json:"crops"`
	Decisions []Decision        `json:"decisions"`
	Totals    Stats             `json:"totals"`
	TotalArea float64           `json:"total_area_hectares"`
	Upstreams map[string]string `json:"upstreams"` // nome -> stato del breaker
	Stale     bool              `json:"stale,omitempty"`
}

func cropOverview(p model.CropProfile, st Stats) CropOverview {
	return CropOverview{
		ID:           p.ID,
		Name:         p.Name,
		CropType:     p.Type.String(),
		AreaHectares: p.AreaHectares,
		Stats:        st,
	}
}
