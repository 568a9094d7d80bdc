package reading

import (
	"math"
	"testing"
	"time"
)

func validRaw() Reading {
	soil := 55.0
	return Reading{
		Timestamp:    time.Date(2025, 6, 15, 12, 0, 0, 0, time.UTC),
		Temperature:  24.5,
		Humidity:     65,
		Rainfall:     2.5,
		SoilMoisture: &soil,
		Coordinates:  Coordinates{Lat: -1.29, Lon: 36.82},
	}
}

func TestValidate_AllFieldsValid(t *testing.T) {
	result := Validate(validRaw())

	if !result.IsValid {
		t.Errorf("Expected valid result, got errors: %v", result.Errors)
	}
	if len(result.Errors) != 0 {
		t.Errorf("Expected no errors, got %v", result.Errors)
	}
	if result.Cleaned.Temperature != 24.5 {
		t.Errorf("Expected temperature 24.5, got %v", result.Cleaned.Temperature)
	}
	if result.Cleaned.SoilMoisture != 55 {
		t.Errorf("Expected soil moisture 55, got %v", result.Cleaned.SoilMoisture)
	}
}

func TestValidate_NaNTemperature(t *testing.T) {
	raw := validRaw()
	raw.Temperature = math.NaN()
	raw.SoilMoisture = nil

	result := Validate(raw)

	if result.IsValid {
		t.Error("Expected IsValid=false after substitution")
	}
	if len(result.Errors) == 0 {
		t.Error("Expected at least one error")
	}
	if result.Cleaned.Temperature != DefaultTemperature {
		t.Errorf("Expected default temperature %v, got %v", DefaultTemperature, result.Cleaned.Temperature)
	}
	if math.IsNaN(result.Cleaned.SoilMoisture) {
		t.Error("Soil moisture must be a finite estimate, got NaN")
	}
}

func TestValidate_HumidityOutOfRange(t *testing.T) {
	raw := validRaw()
	raw.Humidity = 150

	result := Validate(raw)

	if result.Cleaned.Humidity != DefaultHumidity {
		t.Errorf("Expected default humidity %v, got %v", DefaultHumidity, result.Cleaned.Humidity)
	}
	if result.IsValid {
		t.Error("Expected IsValid=false")
	}
}

func TestValidate_NegativeRainfall(t *testing.T) {
	raw := validRaw()
	raw.Rainfall = -5

	result := Validate(raw)

	if result.Cleaned.Rainfall != 0 {
		t.Errorf("Expected rainfall 0, got %v", result.Cleaned.Rainfall)
	}
	if result.IsValid {
		t.Error("Expected IsValid=false")
	}
}

func TestValidate_MissingSoilMoistureIsEstimatedNotErrored(t *testing.T) {
	raw := validRaw()
	raw.SoilMoisture = nil
	raw.Rainfall = 5

	result := Validate(raw)

	// Estimation is informational, not an error
	if !result.IsValid {
		t.Errorf("Missing soil moisture should not invalidate the reading, errors: %v", result.Errors)
	}
	if len(result.Notes) == 0 {
		t.Error("Expected an informational note about estimation")
	}
	if result.Cleaned.SoilMoisture != 60 { // 40 baseline + 5mm * 4
		t.Errorf("Expected estimated soil moisture 60, got %v", result.Cleaned.SoilMoisture)
	}
}

func TestValidate_EstimatorUsesDefaultedRainfall(t *testing.T) {
	raw := validRaw()
	raw.Rainfall = math.Inf(1)
	raw.SoilMoisture = nil

	result := Validate(raw)

	// Rainfall defaults to 0, so the estimate is the dry baseline
	if result.Cleaned.SoilMoisture != 40 {
		t.Errorf("Expected baseline estimate 40, got %v", result.Cleaned.SoilMoisture)
	}
}

func TestValidate_EverythingInvalidStillFullyPopulated(t *testing.T) {
	raw := Reading{
		Temperature: math.NaN(),
		Humidity:    math.Inf(-1),
		Rainfall:    math.NaN(),
	}

	result := Validate(raw)

	c := result.Cleaned
	for name, v := range map[string]float64{
		"temperature":   c.Temperature,
		"humidity":      c.Humidity,
		"rainfall":      c.Rainfall,
		"soil moisture": c.SoilMoisture,
	} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			t.Errorf("Cleaned %s is not finite: %v", name, v)
		}
	}
	if len(result.Errors) != 3 {
		t.Errorf("Expected 3 errors, got %d: %v", len(result.Errors), result.Errors)
	}
}

func TestEstimateSoilMoisture(t *testing.T) {
	tests := []struct {
		rainfall float64
		expected float64
	}{
		{0, 40},
		{5, 60},
		{15, 100},  // saturates
		{100, 100}, // stays saturated
	}

	for _, tt := range tests {
		got := EstimateSoilMoisture(tt.rainfall)
		if got != tt.expected {
			t.Errorf("EstimateSoilMoisture(%v) = %v, expected %v", tt.rainfall, got, tt.expected)
		}
	}
}

func TestEstimateSoilMoisture_InvalidInput(t *testing.T) {
	for _, rainfall := range []float64{math.NaN(), math.Inf(1), math.Inf(-1), -3} {
		got := EstimateSoilMoisture(rainfall)
		if got != DefaultSoilMoisture {
			t.Errorf("EstimateSoilMoisture(%v) = %v, expected safe default %v", rainfall, got, DefaultSoilMoisture)
		}
	}
}

func TestEstimateSoilMoisture_Monotonic(t *testing.T) {
	prev := EstimateSoilMoisture(0)
	for r := 0.5; r <= 30; r += 0.5 {
		cur := EstimateSoilMoisture(r)
		if cur < prev {
			t.Errorf("Estimate decreased from %v to %v at rainfall %v", prev, cur, r)
		}
		prev = cur
	}
}
