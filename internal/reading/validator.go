package reading

import (
	"fmt"
	"math"
)

// ValidationResult carries the sanitized reading plus what was substituted.
// IsValid=false means defaults or estimates were filled in, not that the
// reading was discarded: Cleaned is always fully populated and finite.
type ValidationResult struct {
	Cleaned Cleaned
	IsValid bool
	Errors  []string
	Notes   []string
}

// Validate sanitizes a raw combined reading. Each field is checked
// independently; problems accumulate in Errors and never abort validation.
func Validate(raw Reading) ValidationResult {
	result := ValidationResult{
		Cleaned: Cleaned{
			Timestamp:   raw.Timestamp,
			Coordinates: raw.Coordinates,
		},
		IsValid: true,
	}

	if finite(raw.Temperature) {
		result.Cleaned.Temperature = raw.Temperature
	} else {
		result.Cleaned.Temperature = DefaultTemperature
		result.Errors = append(result.Errors,
			fmt.Sprintf("temperature %v is not a finite number, substituted %.0f°C", raw.Temperature, DefaultTemperature))
		result.IsValid = false
	}

	if finite(raw.Humidity) && raw.Humidity >= 0 && raw.Humidity <= 100 {
		result.Cleaned.Humidity = raw.Humidity
	} else {
		result.Cleaned.Humidity = DefaultHumidity
		result.Errors = append(result.Errors,
			fmt.Sprintf("humidity %v is outside [0,100], substituted %.0f%%", raw.Humidity, DefaultHumidity))
		result.IsValid = false
	}

	if finite(raw.Rainfall) && raw.Rainfall >= 0 {
		result.Cleaned.Rainfall = raw.Rainfall
	} else {
		result.Cleaned.Rainfall = DefaultRainfall
		result.Errors = append(result.Errors,
			fmt.Sprintf("rainfall %v is invalid, substituted %.0fmm", raw.Rainfall, DefaultRainfall))
		result.IsValid = false
	}

	// Soil moisture gets estimated rather than defaulted: an absent sensor
	// is an expected condition, so it is noted informationally, not errored.
	if raw.SoilMoisture != nil && finite(*raw.SoilMoisture) && *raw.SoilMoisture >= 0 && *raw.SoilMoisture <= 100 {
		result.Cleaned.SoilMoisture = *raw.SoilMoisture
	} else {
		result.Cleaned.SoilMoisture = EstimateSoilMoisture(result.Cleaned.Rainfall)
		result.Notes = append(result.Notes,
			fmt.Sprintf("soil moisture unavailable, estimated %.1f%% from %.1fmm rainfall",
				result.Cleaned.SoilMoisture, result.Cleaned.Rainfall))
	}

	return result
}

func finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
