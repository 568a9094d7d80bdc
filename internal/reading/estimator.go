package reading

import "math"

// Soil-moisture estimation constants. The linear model assumes a dry
// baseline of 40% that rises with recent rainfall until saturation.
const (
	moistureBaseline = 40.0
	moisturePerMM    = 4.0
)

// EstimateSoilMoisture derives a plausible soil-moisture percentage from
// recent rainfall when the sensor feed is unavailable. The result is
// monotonically non-decreasing in rainfall and always within [0,100].
// Invalid rainfall (NaN, Inf, negative) yields the safe default of 50.
func EstimateSoilMoisture(rainfallMM float64) float64 {
	if math.IsNaN(rainfallMM) || math.IsInf(rainfallMM, 0) || rainfallMM < 0 {
		return DefaultSoilMoisture
	}

	moisture := moistureBaseline + rainfallMM*moisturePerMM
	if moisture > 100 {
		return 100
	}
	if moisture < 0 {
		return 0
	}
	return moisture
}
