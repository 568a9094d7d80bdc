// Package alerting turns freshly folded daily records into farmer
// notifications: a blight-risk rule keyed on the record's risk band and a
// weather-change rule keyed on the day-over-day percentage deltas.
package alerting

import (
	"fmt"
	"strings"

	"github.com/farmwatch/blight-server/internal/database"
	"github.com/farmwatch/blight-server/internal/risk"
)

// Alert types
const (
	TypeBlightRisk    = "blight_risk"
	TypeWeatherChange = "weather_change"
)

// Alert priorities
const (
	PriorityMedium = "medium"
	PriorityHigh   = "high"
	PriorityUrgent = "urgent"
)

// Alert is a composed notification ready for dispatch
type Alert struct {
	FarmerID string            `json:"farmer_id"`
	Type     string            `json:"type"`
	Priority string            `json:"priority"`
	Title    string            `json:"title"`
	Body     string            `json:"body"`
	Data     map[string]string `json:"data,omitempty"`
}

// Daily-change thresholds per metric. Temperature, humidity and soil
// moisture alert on movement in either direction; rainfall only on
// increases, and only past a strict 100% threshold.
const (
	thresholdTemperature  = 15.0
	thresholdHumidity     = 20.0
	thresholdRainfall     = 100.0
	thresholdSoilMoisture = 25.0
)

// Evaluate runs both alert rules against a daily record and returns every
// alert that fired. The rules are independent; zero, one or two alerts can
// come back.
func Evaluate(rec *database.DailyRecord) []Alert {
	var alerts []Alert

	if a := evaluateBlightRisk(rec); a != nil {
		alerts = append(alerts, *a)
	}
	if a := evaluateWeatherChange(rec); a != nil {
		alerts = append(alerts, *a)
	}

	return alerts
}

type templateKey struct {
	blight risk.BlightType
	level  risk.Level
}

// riskTemplates covers both disease regimes across all four bands. Low
// entries exist for completeness but never fire: the rule gates on
// Medium and above.
var riskTemplates = map[templateKey]string{
	{risk.BlightEarly, risk.LevelLow}:      "Conditions mildly favor early blight. No action needed yet.",
	{risk.BlightEarly, risk.LevelMedium}:   "Warm, dry conditions are building toward early blight. Inspect lower leaves for dark concentric spots.",
	{risk.BlightEarly, risk.LevelHigh}:     "High early blight risk. Consider a protective fungicide application and remove affected foliage.",
	{risk.BlightEarly, risk.LevelCritical}: "Critical early blight risk. Immediate treatment is strongly advised to protect your crop.",
	{risk.BlightLate, risk.LevelLow}:       "Conditions mildly favor late blight. No action needed yet.",
	{risk.BlightLate, risk.LevelMedium}:    "Cool, humid conditions are building toward late blight. Watch for water-soaked lesions on leaves.",
	{risk.BlightLate, risk.LevelHigh}:      "High late blight risk. Improve airflow around plants and consider preventive spraying.",
	{risk.BlightLate, risk.LevelCritical}:  "Critical late blight risk. Late blight spreads fast in these conditions - act today.",
}

const photoCallToAction = " Submit a photo of your plants for a diagnostic check."

func evaluateBlightRisk(rec *database.DailyRecord) *Alert {
	var priority string
	switch rec.RiskLevel {
	case risk.LevelMedium:
		priority = PriorityMedium
	case risk.LevelHigh:
		priority = PriorityHigh
	case risk.LevelCritical:
		priority = PriorityUrgent
	default:
		return nil
	}

	body, ok := riskTemplates[templateKey{rec.BlightType, rec.RiskLevel}]
	if !ok {
		return nil
	}

	return &Alert{
		FarmerID: rec.FarmerID,
		Type:     TypeBlightRisk,
		Priority: priority,
		Title:    fmt.Sprintf("%s risk: %s", rec.RiskLevel, rec.BlightType),
		Body:     body + photoCallToAction,
		Data: map[string]string{
			"cri":         fmt.Sprintf("%.2f", rec.CRI),
			"risk_level":  string(rec.RiskLevel),
			"blight_type": string(rec.BlightType),
			"record_id":   rec.ID,
		},
	}
}

func evaluateWeatherChange(rec *database.DailyRecord) *Alert {
	daily := rec.Changes.Daily
	if daily == nil {
		return nil
	}

	// names carry only which metrics crossed; the de-dup state keys on
	// them, so a slightly different delta on the next fold does not count
	// as a new alert. The formatted values go in the body only.
	var names, crossed []string
	if abs(daily.Temperature) >= thresholdTemperature {
		names = append(names, "temperature")
		crossed = append(crossed, fmt.Sprintf("temperature %+.1f%%", daily.Temperature))
	}
	if abs(daily.Humidity) >= thresholdHumidity {
		names = append(names, "humidity")
		crossed = append(crossed, fmt.Sprintf("humidity %+.1f%%", daily.Humidity))
	}
	if daily.Rainfall > thresholdRainfall {
		names = append(names, "rainfall")
		crossed = append(crossed, fmt.Sprintf("rainfall %+.1f%%", daily.Rainfall))
	}
	if abs(daily.SoilMoisture) >= thresholdSoilMoisture {
		names = append(names, "soil moisture")
		crossed = append(crossed, fmt.Sprintf("soil moisture %+.1f%%", daily.SoilMoisture))
	}

	if len(crossed) == 0 {
		return nil
	}

	return &Alert{
		FarmerID: rec.FarmerID,
		Type:     TypeWeatherChange,
		Priority: PriorityMedium,
		Title:    "Significant weather change on your farm",
		Body: fmt.Sprintf("Compared to yesterday, these conditions changed significantly: %s.",
			strings.Join(crossed, ", ")),
		Data: map[string]string{
			"record_id": rec.ID,
			"metrics":   strings.Join(names, ";"),
		},
	}
}

func abs(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}
