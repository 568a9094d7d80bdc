// Package aggregation folds validated readings into per-day environmental
// records and recomputes the CRI and period-over-period changes on every
// fold.
package aggregation

import (
	"time"

	"github.com/google/uuid"

	"github.com/farmwatch/blight-server/internal/database"
	"github.com/farmwatch/blight-server/internal/reading"
	"github.com/farmwatch/blight-server/internal/risk"
)

// NewRecord seeds a daily record from the first reading of the day
func NewRecord(farmerID string, r reading.Cleaned) *database.DailyRecord {
	rec := &database.DailyRecord{
		ID:       uuid.NewString(),
		FarmerID: farmerID,
		Lat:      r.Coordinates.Lat,
		Lon:      r.Coordinates.Lon,
		Date:     DayOf(r.Timestamp),
	}
	Fold(rec, r)
	return rec
}

// Fold accumulates one reading into the record's running aggregates and
// rederives the averages and CRI. Temperature, humidity and soil moisture
// are arithmetic means over the day's readings; rainfall is a sum, since
// rain accumulates. The prior CRI is fully overwritten.
func Fold(rec *database.DailyRecord, r reading.Cleaned) {
	rec.TempSum += r.Temperature
	rec.TempCount++
	rec.HumiditySum += r.Humidity
	rec.HumidityCount++
	rec.SoilSum += r.SoilMoisture
	rec.SoilCount++
	rec.RainfallTotal += r.Rainfall
	rec.ReadingCount++

	rec.Temperature = rec.TempSum / float64(rec.TempCount)
	rec.Humidity = rec.HumiditySum / float64(rec.HumidityCount)
	rec.SoilMoisture = rec.SoilSum / float64(rec.SoilCount)

	assessment := risk.Compute(rec.Temperature, rec.Humidity, rec.RainfallTotal, rec.SoilMoisture)
	rec.CRI = assessment.CRI
	rec.RiskLevel = assessment.RiskLevel
	rec.BlightType = assessment.BlightType
}

// DayOf truncates a timestamp to its UTC calendar day
func DayOf(t time.Time) time.Time {
	u := t.UTC()
	return time.Date(u.Year(), u.Month(), u.Day(), 0, 0, 0, 0, time.UTC)
}
