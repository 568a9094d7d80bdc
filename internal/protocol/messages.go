// Package protocol defines the message formats that flow between pipeline
// stages over Kafka. Everything is JSON; farmer ID is always the partition
// key so per-farmer ordering holds end to end.
package protocol

import (
	"encoding/json"
	"time"

	"github.com/farmwatch/blight-server/internal/alerting"
	"github.com/farmwatch/blight-server/internal/database"
	"github.com/farmwatch/blight-server/internal/reading"
)

// ReadingMessage carries one validated reading from the collector to the
// aggregator
type ReadingMessage struct {
	FarmerID    string          `json:"farmer_id"`
	Reading     reading.Cleaned `json:"reading"`
	Substituted bool            `json:"substituted"` // validator filled in defaults or estimates
	Notes       []string        `json:"notes,omitempty"`
	CollectedAt time.Time       `json:"collected_at"`
}

// RecordEvent announces that a daily record was created or updated
type RecordEvent struct {
	EventID       string                     `json:"event_id"`
	FarmerID      string                     `json:"farmer_id"`
	RecordID      string                     `json:"record_id"`
	Date          string                     `json:"date"` // YYYY-MM-DD
	CRI           float64                    `json:"cri"`
	RiskLevel     string                     `json:"risk_level"`
	BlightType    string                     `json:"blight_type"`
	Temperature   float64                    `json:"temperature"`
	Humidity      float64                    `json:"humidity"`
	RainfallTotal float64                    `json:"rainfall_total"`
	SoilMoisture  float64                    `json:"soil_moisture"`
	Changes       database.PercentageChanges `json:"changes"`
	UpdatedAt     time.Time                  `json:"updated_at"`
}

// AlertMessage wraps a composed alert on its way to the notification
// dispatcher
type AlertMessage struct {
	Alert  alerting.Alert `json:"alert"`
	Day    string         `json:"day"`
	SentAt time.Time      `json:"sent_at"`
}

// DiagnosisResult is what the image-classification service publishes once
// a farmer's photo has been through the model
type DiagnosisResult struct {
	FarmerID       string  `json:"farmer_id"`
	ImageURL       string  `json:"image_url"`
	Condition      string  `json:"condition"`
	Confidence     float64 `json:"confidence"`
	Recommendation string  `json:"recommendation"`
}

// EncodeReadingMessage encodes a ReadingMessage to JSON
func EncodeReadingMessage(msg *ReadingMessage) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeReadingMessage decodes JSON to ReadingMessage
func DecodeReadingMessage(data []byte) (*ReadingMessage, error) {
	var msg ReadingMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// EncodeRecordEvent encodes a RecordEvent to JSON
func EncodeRecordEvent(evt *RecordEvent) ([]byte, error) {
	return json.Marshal(evt)
}

// DecodeRecordEvent decodes JSON to RecordEvent
func DecodeRecordEvent(data []byte) (*RecordEvent, error) {
	var evt RecordEvent
	if err := json.Unmarshal(data, &evt); err != nil {
		return nil, err
	}
	return &evt, nil
}

// EncodeAlertMessage encodes an AlertMessage to JSON
func EncodeAlertMessage(msg *AlertMessage) ([]byte, error) {
	return json.Marshal(msg)
}

// DecodeAlertMessage decodes JSON to AlertMessage
func DecodeAlertMessage(data []byte) (*AlertMessage, error) {
	var msg AlertMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return nil, err
	}
	return &msg, nil
}

// EncodeDiagnosisResult encodes a DiagnosisResult to JSON
func EncodeDiagnosisResult(res *DiagnosisResult) ([]byte, error) {
	return json.Marshal(res)
}

// DecodeDiagnosisResult decodes JSON to DiagnosisResult
func DecodeDiagnosisResult(data []byte) (*DiagnosisResult, error) {
	var res DiagnosisResult
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, err
	}
	return &res, nil
}
