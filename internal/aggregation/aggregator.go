package aggregation

import (
	"errors"
	"fmt"
	"time"

	"github.com/lib/pq"

	"github.com/farmwatch/blight-server/internal/database"
	"github.com/farmwatch/blight-server/internal/reading"
)

// maxFoldAttempts bounds the retry loop on persistence conflicts
const maxFoldAttempts = 3

// Aggregator folds validated readings into daily records. All writes to a
// day-record go through a row-locked transaction so concurrent folds of
// the same (farmer, location, day) are serialized.
type Aggregator struct {
	db *database.DB
}

// NewAggregator creates a new daily aggregator
func NewAggregator(db *database.DB) *Aggregator {
	return &Aggregator{db: db}
}

// FoldReading folds one cleaned reading into the farmer's record for the
// reading's calendar day, creating the record if this is the first reading
// of the day. Conflicting concurrent writes are retried with fresh state a
// bounded number of times before the error is surfaced to the caller.
func (a *Aggregator) FoldReading(farmerID string, r reading.Cleaned) (*database.DailyRecord, error) {
	var lastErr error
	for attempt := 1; attempt <= maxFoldAttempts; attempt++ {
		rec, err := a.foldOnce(farmerID, r)
		if err == nil {
			return rec, nil
		}
		if !isRetryableConflict(err) {
			return nil, err
		}
		lastErr = err
		fmt.Printf("Fold conflict for farmer %s (attempt %d/%d): %v\n", farmerID, attempt, maxFoldAttempts, err)
	}
	return nil, fmt.Errorf("fold retries exhausted: %w", lastErr)
}

func (a *Aggregator) foldOnce(farmerID string, r reading.Cleaned) (*database.DailyRecord, error) {
	day := DayOf(r.Timestamp)

	tx, err := a.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rec, err := a.db.GetDailyRecordForUpdate(tx, farmerID, r.Coordinates.Lat, r.Coordinates.Lon, day)
	if err != nil {
		return nil, fmt.Errorf("failed to load daily record: %w", err)
	}

	created := rec == nil
	if created {
		rec = NewRecord(farmerID, r)
	} else {
		Fold(rec, r)
	}

	if err := a.recomputeChanges(rec); err != nil {
		return nil, fmt.Errorf("failed to compute percentage changes: %w", err)
	}

	if created {
		if err := a.db.InsertDailyRecord(tx, rec); err != nil {
			return nil, fmt.Errorf("failed to insert daily record: %w", err)
		}
	} else {
		if err := a.db.UpdateDailyRecord(tx, rec); err != nil {
			return nil, fmt.Errorf("failed to update daily record: %w", err)
		}
	}

	stored := &database.StoredReading{
		RecordID:     rec.ID,
		Timestamp:    r.Timestamp,
		Temperature:  r.Temperature,
		Humidity:     r.Humidity,
		Rainfall:     r.Rainfall,
		SoilMoisture: r.SoilMoisture,
		ReceivedAt:   time.Now().UTC(),
	}
	if err := a.db.InsertReading(tx, stored); err != nil {
		return nil, fmt.Errorf("failed to insert reading: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit fold: %w", err)
	}

	return rec, nil
}

// recomputeChanges looks up the records 1 day, 7 days and 1 month prior
// for the same farmer and location. The lookups are plain reads; a missing
// period leaves that slot nil.
func (a *Aggregator) recomputeChanges(rec *database.DailyRecord) error {
	periods := []struct {
		date time.Time
		dest **database.MetricChanges
	}{
		{rec.Date.AddDate(0, 0, -1), &rec.Changes.Daily},
		{rec.Date.AddDate(0, 0, -7), &rec.Changes.Weekly},
		{rec.Date.AddDate(0, -1, 0), &rec.Changes.Monthly},
	}

	for _, p := range periods {
		prior, err := a.db.GetDailyRecord(rec.FarmerID, rec.Lat, rec.Lon, p.date)
		if err != nil {
			return err
		}
		*p.dest = CompareRecords(prior, rec)
	}

	return nil
}

// isRetryableConflict reports whether an error is a persistence conflict
// worth retrying with fresh state: a duplicate first-insert of the day or
// a serialization failure.
func isRetryableConflict(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		// 23505 unique_violation, 40001 serialization_failure
		return pqErr.Code == "23505" || pqErr.Code == "40001"
	}
	return false
}
