package aggregation

import (
	"math"

	"github.com/farmwatch/blight-server/internal/database"
)

// PercentChange computes (new-old)/|old| * 100. A zero baseline is
// special-cased: any growth from zero reads as 100%, no change reads as 0.
func PercentChange(oldVal, newVal float64) float64 {
	if oldVal == 0 {
		if newVal > 0 {
			return 100
		}
		return 0
	}
	return round2((newVal - oldVal) / math.Abs(oldVal) * 100)
}

// CompareRecords derives the per-metric percentage deltas between a prior
// record and the current one. Returns nil when there is no prior record,
// so a missing comparison period stays omitted rather than zero-filled.
func CompareRecords(prior, current *database.DailyRecord) *database.MetricChanges {
	if prior == nil {
		return nil
	}
	return &database.MetricChanges{
		Temperature:  PercentChange(prior.Temperature, current.Temperature),
		Humidity:     PercentChange(prior.Humidity, current.Humidity),
		Rainfall:     PercentChange(prior.RainfallTotal, current.RainfallTotal),
		SoilMoisture: PercentChange(prior.SoilMoisture, current.SoilMoisture),
		CRI:          PercentChange(prior.CRI, current.CRI),
	}
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
