package aggregation

import (
	"encoding/json"
	"math"
	"testing"
	"time"

	"github.com/farmwatch/blight-server/internal/database"
	"github.com/farmwatch/blight-server/internal/reading"
	"github.com/farmwatch/blight-server/internal/risk"
)

func cleanedAt(hour int, temp, humidity, rainfall, soil float64) reading.Cleaned {
	return reading.Cleaned{
		Timestamp:    time.Date(2025, 6, 15, hour, 0, 0, 0, time.UTC),
		Temperature:  temp,
		Humidity:     humidity,
		Rainfall:     rainfall,
		SoilMoisture: soil,
		Coordinates:  reading.Coordinates{Lat: -1.29, Lon: 36.82},
	}
}

func TestNewRecord_SeedsFromFirstReading(t *testing.T) {
	rec := NewRecord("farmer-1", cleanedAt(8, 18, 85, 2, 70))

	if rec.FarmerID != "farmer-1" {
		t.Errorf("Expected farmer-1, got %s", rec.FarmerID)
	}
	if rec.ReadingCount != 1 {
		t.Errorf("Expected 1 reading, got %d", rec.ReadingCount)
	}
	if rec.Temperature != 18 {
		t.Errorf("Average of one reading should equal it, got %v", rec.Temperature)
	}
	if rec.RainfallTotal != 2 {
		t.Errorf("Expected rainfall 2, got %v", rec.RainfallTotal)
	}
	if rec.Date != time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC) {
		t.Errorf("Expected day-truncated date, got %v", rec.Date)
	}
	if rec.CRI == 0 {
		t.Error("CRI was not computed on creation")
	}
}

func TestFold_RainfallSumsTemperatureAverages(t *testing.T) {
	rec := NewRecord("farmer-1", cleanedAt(6, 20, 80, 1, 60))
	Fold(rec, cleanedAt(9, 22, 70, 3, 50))
	Fold(rec, cleanedAt(12, 24, 60, 0, 40))

	if rec.ReadingCount != 3 {
		t.Errorf("Expected 3 readings, got %d", rec.ReadingCount)
	}
	if rec.RainfallTotal != 4 { // 1 + 3 + 0
		t.Errorf("Expected rainfall sum 4, got %v", rec.RainfallTotal)
	}
	if rec.Temperature != 22 { // mean(20, 22, 24)
		t.Errorf("Expected mean temperature 22, got %v", rec.Temperature)
	}
	if rec.Humidity != 70 { // mean(80, 70, 60)
		t.Errorf("Expected mean humidity 70, got %v", rec.Humidity)
	}
	if rec.SoilMoisture != 50 { // mean(60, 50, 40)
		t.Errorf("Expected mean soil moisture 50, got %v", rec.SoilMoisture)
	}
}

func TestFold_CRIFullyOverwritten(t *testing.T) {
	rec := NewRecord("farmer-1", cleanedAt(6, 15, 90, 0, 75))
	before := rec.CRI

	// A run of neutral readings should pull the averages, and the CRI,
	// back toward 50.
	for hour := 7; hour < 20; hour++ {
		Fold(rec, cleanedAt(hour, 22, 70, 0, 50))
	}

	if rec.CRI >= before {
		t.Errorf("Expected CRI to fall from %.2f, got %.2f", before, rec.CRI)
	}

	// The stored CRI must always equal a fresh computation from the
	// stored averages, never a blend with earlier values.
	expected := risk.Compute(rec.Temperature, rec.Humidity, rec.RainfallTotal, rec.SoilMoisture)
	if rec.CRI != expected.CRI {
		t.Errorf("Stored CRI %.2f differs from recomputed %.2f", rec.CRI, expected.CRI)
	}
}

func TestFold_RoundTripThroughSerialization(t *testing.T) {
	rec := NewRecord("farmer-1", cleanedAt(6, 12, 88, 4, 72))
	Fold(rec, cleanedAt(10, 14, 92, 2, 68))

	data, err := json.Marshal(rec)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	var reloaded database.DailyRecord
	if err := json.Unmarshal(data, &reloaded); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}

	recomputed := risk.Compute(reloaded.Temperature, reloaded.Humidity,
		reloaded.RainfallTotal, reloaded.SoilMoisture)

	if recomputed.CRI != rec.CRI {
		t.Errorf("Reloaded record recomputes CRI %.2f, original %.2f", recomputed.CRI, rec.CRI)
	}
	if recomputed.RiskLevel != rec.RiskLevel || recomputed.BlightType != rec.BlightType {
		t.Errorf("Reloaded classification (%s/%s) differs from original (%s/%s)",
			recomputed.RiskLevel, recomputed.BlightType, rec.RiskLevel, rec.BlightType)
	}
}

func TestDayOf(t *testing.T) {
	ts := time.Date(2025, 6, 15, 23, 59, 59, 0, time.UTC)
	if DayOf(ts) != time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC) {
		t.Errorf("DayOf(%v) = %v", ts, DayOf(ts))
	}

	// Non-UTC timestamps truncate on the UTC day
	loc := time.FixedZone("EAT", 3*3600)
	ts = time.Date(2025, 6, 16, 1, 30, 0, 0, loc) // 22:30 UTC on the 15th
	if DayOf(ts) != time.Date(2025, 6, 15, 0, 0, 0, 0, time.UTC) {
		t.Errorf("DayOf(%v) = %v, expected June 15 UTC", ts, DayOf(ts))
	}
}

func TestPercentChange(t *testing.T) {
	tests := []struct {
		name     string
		oldVal   float64
		newVal   float64
		expected float64
	}{
		{"growth", 50, 60, 20},
		{"decline", 40, 30, -25},
		{"no change", 70, 70, 0},
		{"from zero to positive", 0, 5, 100},
		{"zero to zero", 0, 0, 0},
		{"doubling", 2, 4.5, 125},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := PercentChange(tt.oldVal, tt.newVal)
			if math.Abs(got-tt.expected) > 1e-9 {
				t.Errorf("PercentChange(%v, %v) = %v, expected %v", tt.oldVal, tt.newVal, got, tt.expected)
			}
		})
	}
}

func TestCompareRecords_NilPrior(t *testing.T) {
	current := NewRecord("farmer-1", cleanedAt(8, 22, 70, 0, 50))
	if CompareRecords(nil, current) != nil {
		t.Error("Expected nil changes when no prior record exists")
	}
}

func TestCompareRecords(t *testing.T) {
	prior := NewRecord("farmer-1", cleanedAt(8, 20, 80, 2, 60))
	current := NewRecord("farmer-1", cleanedAt(8, 23, 64, 5, 45))

	changes := CompareRecords(prior, current)
	if changes == nil {
		t.Fatal("Expected changes, got nil")
	}

	if changes.Temperature != 15 { // (23-20)/20*100
		t.Errorf("Expected temperature change 15, got %v", changes.Temperature)
	}
	if changes.Humidity != -20 { // (64-80)/80*100
		t.Errorf("Expected humidity change -20, got %v", changes.Humidity)
	}
	if changes.Rainfall != 150 { // (5-2)/2*100
		t.Errorf("Expected rainfall change 150, got %v", changes.Rainfall)
	}
	if changes.SoilMoisture != -25 { // (45-60)/60*100
		t.Errorf("Expected soil moisture change -25, got %v", changes.SoilMoisture)
	}
}
