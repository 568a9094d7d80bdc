package database

import (
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/farmwatch/blight-server/internal/risk"
)

// dailyColumns is the select list shared by every daily-record query
const dailyColumns = `
	id, farmer_id, lat, lon, date,
	temp_sum, temp_count, humidity_sum, humidity_count,
	soil_sum, soil_count, rainfall_total, reading_count,
	temperature, humidity, soil_moisture,
	cri, risk_level, blight_type, pct_changes,
	created_at, updated_at
`

// GetDailyRecordForUpdate loads the record for (farmer, location, day) with
// a row lock held for the duration of the transaction. Returns nil when no
// record exists yet for that day.
func (db *DB) GetDailyRecordForUpdate(tx *sql.Tx, farmerID string, lat, lon float64, date time.Time) (*DailyRecord, error) {
	query := `
		SELECT ` + dailyColumns + `
		FROM daily_records
		WHERE farmer_id = $1 AND lat = $2 AND lon = $3 AND date = $4
		FOR UPDATE
	`
	return scanDailyRecord(tx.QueryRow(query, farmerID, lat, lon, date))
}

// GetDailyRecord loads the record for (farmer, location, day) without
// locking. Used for the read-only history lookups behind percentage
// changes. Returns nil when absent.
func (db *DB) GetDailyRecord(farmerID string, lat, lon float64, date time.Time) (*DailyRecord, error) {
	query := `
		SELECT ` + dailyColumns + `
		FROM daily_records
		WHERE farmer_id = $1 AND lat = $2 AND lon = $3 AND date = $4
	`
	return scanDailyRecord(db.QueryRow(query, farmerID, lat, lon, date))
}

// GetLatestDailyRecord returns the farmer's most recent record across all
// locations, or nil if the farmer has none.
func (db *DB) GetLatestDailyRecord(farmerID string) (*DailyRecord, error) {
	query := `
		SELECT ` + dailyColumns + `
		FROM daily_records
		WHERE farmer_id = $1
		ORDER BY date DESC, updated_at DESC
		LIMIT 1
	`
	return scanDailyRecord(db.QueryRow(query, farmerID))
}

// GetDailyRecordByIDForUpdate loads a record by primary key with a row
// lock. Used by the diagnosis reconciler's CRI overwrite.
func (db *DB) GetDailyRecordByIDForUpdate(tx *sql.Tx, id string) (*DailyRecord, error) {
	query := `
		SELECT ` + dailyColumns + `
		FROM daily_records
		WHERE id = $1
		FOR UPDATE
	`
	return scanDailyRecord(tx.QueryRow(query, id))
}

// InsertDailyRecord creates the first record of the day. The unique index
// on (farmer_id, lat, lon, date) makes a concurrent duplicate insert fail,
// which the aggregator treats as a retryable conflict.
func (db *DB) InsertDailyRecord(tx *sql.Tx, rec *DailyRecord) error {
	changes, err := json.Marshal(rec.Changes)
	if err != nil {
		return fmt.Errorf("failed to marshal percentage changes: %w", err)
	}

	query := `
		INSERT INTO daily_records (
			id, farmer_id, lat, lon, date,
			temp_sum, temp_count, humidity_sum, humidity_count,
			soil_sum, soil_count, rainfall_total, reading_count,
			temperature, humidity, soil_moisture,
			cri, risk_level, blight_type, pct_changes
		) VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13,$14,$15,$16,$17,$18,$19,$20)
	`
	_, err = tx.Exec(query,
		rec.ID, rec.FarmerID, rec.Lat, rec.Lon, rec.Date,
		rec.TempSum, rec.TempCount, rec.HumiditySum, rec.HumidityCount,
		rec.SoilSum, rec.SoilCount, rec.RainfallTotal, rec.ReadingCount,
		rec.Temperature, rec.Humidity, rec.SoilMoisture,
		rec.CRI, string(rec.RiskLevel), string(rec.BlightType), string(changes),
	)
	return err
}

// UpdateDailyRecord overwrites the mutable fields of an existing record
func (db *DB) UpdateDailyRecord(tx *sql.Tx, rec *DailyRecord) error {
	changes, err := json.Marshal(rec.Changes)
	if err != nil {
		return fmt.Errorf("failed to marshal percentage changes: %w", err)
	}

	query := `
		UPDATE daily_records
		SET temp_sum = $1, temp_count = $2,
		    humidity_sum = $3, humidity_count = $4,
		    soil_sum = $5, soil_count = $6,
		    rainfall_total = $7, reading_count = $8,
		    temperature = $9, humidity = $10, soil_moisture = $11,
		    cri = $12, risk_level = $13, blight_type = $14,
		    pct_changes = $15, updated_at = CURRENT_TIMESTAMP
		WHERE id = $16
	`
	_, err = tx.Exec(query,
		rec.TempSum, rec.TempCount,
		rec.HumiditySum, rec.HumidityCount,
		rec.SoilSum, rec.SoilCount,
		rec.RainfallTotal, rec.ReadingCount,
		rec.Temperature, rec.Humidity, rec.SoilMoisture,
		rec.CRI, string(rec.RiskLevel), string(rec.BlightType),
		string(changes), rec.ID,
	)
	return err
}

// UpdateRecordCRI rewrites only the risk fields of a record. This is the
// single cross-entity mutation performed by the diagnosis reconciler.
func (db *DB) UpdateRecordCRI(tx *sql.Tx, id string, cri float64, level, blight string) error {
	query := `
		UPDATE daily_records
		SET cri = $1, risk_level = $2, blight_type = $3, updated_at = CURRENT_TIMESTAMP
		WHERE id = $4
	`
	_, err := tx.Exec(query, cri, level, blight, id)
	return err
}

// InsertReading appends a validated reading to the audit table
func (db *DB) InsertReading(tx *sql.Tx, r *StoredReading) error {
	query := `
		INSERT INTO readings (
			record_id, timestamp, temperature, humidity, rainfall, soil_moisture, received_at
		) VALUES ($1, $2, $3, $4, $5, $6, $7)
		RETURNING id
	`
	return tx.QueryRow(query,
		r.RecordID, r.Timestamp, r.Temperature, r.Humidity,
		r.Rainfall, r.SoilMoisture, r.ReceivedAt,
	).Scan(&r.ID)
}

func scanDailyRecord(row *sql.Row) (*DailyRecord, error) {
	var rec DailyRecord
	var level, blight, changes string

	err := row.Scan(
		&rec.ID, &rec.FarmerID, &rec.Lat, &rec.Lon, &rec.Date,
		&rec.TempSum, &rec.TempCount, &rec.HumiditySum, &rec.HumidityCount,
		&rec.SoilSum, &rec.SoilCount, &rec.RainfallTotal, &rec.ReadingCount,
		&rec.Temperature, &rec.Humidity, &rec.SoilMoisture,
		&rec.CRI, &level, &blight, &changes,
		&rec.CreatedAt, &rec.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	rec.RiskLevel = risk.Level(level)
	rec.BlightType = risk.BlightType(blight)

	if changes != "" {
		if err := json.Unmarshal([]byte(changes), &rec.Changes); err != nil {
			return nil, fmt.Errorf("failed to unmarshal percentage changes: %w", err)
		}
	}

	return &rec, nil
}
