package database

import (
	"database/sql"
	"time"
)

// InsertDiagnosis persists a new diagnosis document
func (db *DB) InsertDiagnosis(tx *sql.Tx, d *Diagnosis) error {
	query := `
		INSERT INTO diagnoses (
			id, farmer_id, image_url, condition, confidence,
			recommendation, cri_snapshot, record_id, status, message
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
	`
	_, err := tx.Exec(query,
		d.ID, d.FarmerID, d.ImageURL, d.Condition, d.Confidence,
		d.Recommendation, d.CRISnapshot, nullIfEmpty(d.RecordID), d.Status, d.Message,
	)
	return err
}

// GetDiagnosis retrieves a diagnosis by id, or nil when absent
func (db *DB) GetDiagnosis(id string) (*Diagnosis, error) {
	query := `
		SELECT id, farmer_id, image_url, condition, confidence,
		       recommendation, cri_snapshot, record_id, status, message,
		       created_at, updated_at
		FROM diagnoses
		WHERE id = $1
	`

	var d Diagnosis
	var recordID sql.NullString
	err := db.QueryRow(query, id).Scan(
		&d.ID, &d.FarmerID, &d.ImageURL, &d.Condition, &d.Confidence,
		&d.Recommendation, &d.CRISnapshot, &recordID, &d.Status, &d.Message,
		&d.CreatedAt, &d.UpdatedAt,
	)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	d.RecordID = recordID.String
	return &d, nil
}

// UpdateDiagnosisStatus transitions a diagnosis to a new lifecycle status
func (db *DB) UpdateDiagnosisStatus(id, status string, at time.Time) error {
	query := `
		UPDATE diagnoses
		SET status = $1, updated_at = $2
		WHERE id = $3
	`
	_, err := db.Exec(query, status, at, id)
	return err
}

// DeleteFarmerData removes all records and diagnoses owned by a farmer.
// Account-erasure cascade; readings go with their records via FK.
func (db *DB) DeleteFarmerData(farmerID string) error {
	if _, err := db.Exec(`DELETE FROM daily_records WHERE farmer_id = $1`, farmerID); err != nil {
		return err
	}
	if _, err := db.Exec(`DELETE FROM diagnoses WHERE farmer_id = $1`, farmerID); err != nil {
		return err
	}
	_, err := db.Exec(`DELETE FROM farmer_settings WHERE farmer_id = $1`, farmerID)
	return err
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}
