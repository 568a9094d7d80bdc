// Package risk computes the Cumulative Risk Index (CRI) for tomato crops.
//
// The CRI is a 1-100 score centered on 50. Scores below 50 indicate
// conditions favoring Early Blight (warm, dry); scores above 50 indicate
// conditions favoring Late Blight (cool, humid). The distance from 50 maps
// to a severity band, the sign maps to which disease.
package risk

import "math"

// Level is the severity band of an assessment
type Level string

const (
	LevelLow      Level = "Low"
	LevelMedium   Level = "Medium"
	LevelHigh     Level = "High"
	LevelCritical Level = "Critical"
)

// BlightType is the disease regime implied by a CRI score
type BlightType string

const (
	BlightHealthy BlightType = "Healthy"
	BlightEarly   BlightType = "Early Blight"
	BlightLate    BlightType = "Late Blight"
)

// Assessment is the result of a CRI computation
type Assessment struct {
	CRI        float64    `json:"cri"`
	RiskLevel  Level      `json:"risk_level"`
	BlightType BlightType `json:"blight_type"`
}

// Factor weights
const (
	weightTemperature  = 0.4
	weightHumidity     = 0.4
	weightSoilMoisture = 0.2
)

// Compute derives the CRI assessment from an environmental reading.
// It is a pure function: same inputs always yield the same assessment.
func Compute(temperature, humidity, rainfall, soilMoisture float64) Assessment {
	sum := temperatureFactor(temperature)*weightTemperature +
		humidityFactor(humidity)*weightHumidity +
		soilMoistureFactor(soilMoisture)*weightSoilMoisture

	cri := round2(clamp(50+sum, 1, 100))

	return Assessment{
		CRI:        cri,
		RiskLevel:  classifyLevel(cri),
		BlightType: classifyBlight(cri),
	}
}

// Classify rebands an already-known CRI value. Used when the score is
// rewritten directly, as the diagnosis reconciler does.
func Classify(cri float64) (Level, BlightType) {
	return classifyLevel(cri), classifyBlight(cri)
}

// temperatureFactor: cool 10-20°C pushes toward Late Blight (up to +25 at
// 10°C), warm 24-29°C pushes toward Early Blight (up to -25 at 29°C).
// The 21-23°C band and values outside [10,29] are neutral.
func temperatureFactor(t float64) float64 {
	switch {
	case t >= 10 && t <= 20:
		return (20 - t) / 10 * 25
	case t >= 24 && t <= 29:
		return -(t - 24) / 5 * 25
	default:
		return 0
	}
}

// humidityFactor: above 80% pushes up (to +30 at 100%), below 60% pushes
// down (to -20 at 0%). [60,80] is neutral.
func humidityFactor(h float64) float64 {
	switch {
	case h > 80:
		return (h - 80) / 20 * 30
	case h < 60:
		return -(60 - h) / 60 * 20
	default:
		return 0
	}
}

// soilMoistureFactor: above 60% pushes up (to +25 at 100%), below 40%
// pushes down (to -25 at 0%). [40,60] is neutral.
func soilMoistureFactor(s float64) float64 {
	switch {
	case s > 60:
		return (s - 60) / 40 * 25
	case s < 40:
		return -(40 - s) / 40 * 25
	default:
		return 0
	}
}

func classifyBlight(cri float64) BlightType {
	switch {
	case cri < 50:
		return BlightEarly
	case cri > 50:
		return BlightLate
	default:
		return BlightHealthy
	}
}

// classifyLevel bands severity by distance from the neutral 50 in either
// direction. The exact boundaries are load-bearing: alerting and farmer
// guidance key off them.
func classifyLevel(cri float64) Level {
	if cri < 50 {
		switch {
		case cri >= 40:
			return LevelLow
		case cri >= 30:
			return LevelMedium
		case cri >= 20:
			return LevelHigh
		default:
			return LevelCritical
		}
	}
	if cri > 50 {
		switch {
		case cri <= 60:
			return LevelLow
		case cri <= 70:
			return LevelMedium
		case cri <= 80:
			return LevelHigh
		default:
			return LevelCritical
		}
	}
	return LevelLow
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
