package reading

import "time"

// Coordinates identifies a farm location
type Coordinates struct {
	Lat float64 `json:"lat"`
	Lon float64 `json:"lon"`
}

// Reading is a single combined environmental measurement for a location.
// SoilMoisture is a pointer because the sensor feed may be absent.
type Reading struct {
	Timestamp    time.Time   `json:"timestamp"`
	Temperature  float64     `json:"temperature"`   // °C
	Humidity     float64     `json:"humidity"`      // %
	Rainfall     float64     `json:"rainfall"`      // mm
	SoilMoisture *float64    `json:"soil_moisture"` // %, nil when sensor unavailable
	Coordinates  Coordinates `json:"coordinates"`
}

// Cleaned is a reading after validation: every field is a finite number.
type Cleaned struct {
	Timestamp    time.Time   `json:"timestamp"`
	Temperature  float64     `json:"temperature"`
	Humidity     float64     `json:"humidity"`
	Rainfall     float64     `json:"rainfall"`
	SoilMoisture float64     `json:"soil_moisture"`
	Coordinates  Coordinates `json:"coordinates"`
}

// Defaults substituted by the validator and by the collector's
// last-resort fallback record
const (
	DefaultTemperature  = 22.0
	DefaultHumidity     = 70.0
	DefaultRainfall     = 0.0
	DefaultSoilMoisture = 50.0
)

// Fallback returns the fixed last-resort reading persisted when every
// data source is down, so dependent analytics never see a gap day.
func Fallback(coords Coordinates, now time.Time) Cleaned {
	return Cleaned{
		Timestamp:    now,
		Temperature:  DefaultTemperature,
		Humidity:     DefaultHumidity,
		Rainfall:     DefaultRainfall,
		SoilMoisture: DefaultSoilMoisture,
		Coordinates:  coords,
	}
}
