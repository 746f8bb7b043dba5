package entities

// SensorReading is one validated monitoring sample for a crop.
type SensorReading struct {
	Temperature  float64   `json:"temperature"`   // °C
	SoilHumidity float64   `json:"soil_humidity"` // %
	PH           float64   `json:"ph"`
	NPK          NPKStatus `json:"npk_ok"`
}
