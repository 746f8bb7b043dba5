package entities

// Station is a simulated monitoring point placed in a field for one crop.
type Station struct {
	ID     string `json:"id"`
	CropID string `json:"crop_id"`
}
