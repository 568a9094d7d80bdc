package database

import (
	"time"

	"github.com/farmwatch/blight-server/internal/risk"
)

// DailyRecord is the aggregated environmental state for one farmer,
// location and calendar day. Averages are maintained as running sums and
// counts so that folding a new reading is exact; rainfall accumulates as a
// plain sum. Exactly one row exists per (farmer, lat, lon, day).
type DailyRecord struct {
	ID       string
	FarmerID string
	Lat      float64
	Lon      float64
	Date     time.Time // day-truncated, UTC

	TempSum       float64
	TempCount     int
	HumiditySum   float64
	HumidityCount int
	SoilSum       float64
	SoilCount     int
	RainfallTotal float64
	ReadingCount  int

	// Derived on every fold from the running aggregates above
	Temperature  float64
	Humidity     float64
	SoilMoisture float64
	CRI          float64
	RiskLevel    risk.Level
	BlightType   risk.BlightType

	Changes PercentageChanges

	CreatedAt time.Time
	UpdatedAt time.Time
}

// MetricChanges holds period-over-period percentage deltas for each metric
type MetricChanges struct {
	Temperature  float64 `json:"temperature"`
	Humidity     float64 `json:"humidity"`
	Rainfall     float64 `json:"rainfall"`
	SoilMoisture float64 `json:"soil_moisture"`
	CRI          float64 `json:"cri"`
}

// PercentageChanges compares a daily record against the records 1 day,
// 7 days and 1 month prior. A nil period means no comparison record
// existed, which is distinct from an all-zero delta.
type PercentageChanges struct {
	Daily   *MetricChanges `json:"daily,omitempty"`
	Weekly  *MetricChanges `json:"weekly,omitempty"`
	Monthly *MetricChanges `json:"monthly,omitempty"`
}

// StoredReading is a single validated reading retained for audit under its
// daily record
type StoredReading struct {
	ID           int64
	RecordID     string
	Timestamp    time.Time
	Temperature  float64
	Humidity     float64
	Rainfall     float64
	SoilMoisture float64
	ReceivedAt   time.Time
}

// Diagnosis lifecycle states
const (
	DiagnosisStatusPending   = "pending"
	DiagnosisStatusValidated = "validated"
	DiagnosisStatusCompleted = "completed"
	DiagnosisStatusFailed    = "failed"
)

// Image-classifier condition labels
const (
	ConditionPending     = "Pending"
	ConditionHealthy     = "Healthy"
	ConditionEarlyBlight = "Early Blight"
	ConditionLateBlight  = "Late Blight"
	ConditionUnknown     = "Unknown"
)

// Diagnosis is one image-based classification result for a farmer's photo,
// with the CRI snapshot taken before any reconciliation adjustment.
type Diagnosis struct {
	ID             string
	FarmerID       string
	ImageURL       string
	Condition      string
	Confidence     float64 // 0-100
	Recommendation string
	CRISnapshot    float64
	RecordID       string // daily record reconciled against, empty if none
	Status         string
	Message        string // farmer-facing reconciliation note, empty if no adjustment
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// FarmerSettings are the notification preferences for a farmer. Missing
// rows resolve to DefaultFarmerSettings once, at read time.
type FarmerSettings struct {
	FarmerID            string
	Email               string
	EnableRiskAlerts    bool
	EnableWeatherAlerts bool
}

// DefaultFarmerSettings returns the preferences used when a farmer has
// never configured notifications: everything enabled, no email on file.
func DefaultFarmerSettings(farmerID string) FarmerSettings {
	return FarmerSettings{
		FarmerID:            farmerID,
		EnableRiskAlerts:    true,
		EnableWeatherAlerts: true,
	}
}
