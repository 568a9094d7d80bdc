package reconcile

import (
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/farmwatch/blight-server/internal/database"
	"github.com/farmwatch/blight-server/internal/risk"
)

// ClassifiedDiagnosis is an image-classification result ready to reconcile
type ClassifiedDiagnosis struct {
	FarmerID       string
	ImageURL       string
	Condition      string
	Confidence     float64
	Recommendation string
}

// Reconciler applies image diagnoses against stored daily records
type Reconciler struct {
	db *database.DB
}

// NewReconciler creates a new diagnosis reconciler
func NewReconciler(db *database.DB) *Reconciler {
	return &Reconciler{db: db}
}

// Reconcile compares the classified diagnosis with the farmer's most
// recent daily record and, on contradiction, rewrites the record's CRI
// inside a row-locked transaction. The diagnosis document always stores
// the pre-adjustment CRI snapshot for audit. Returns the persisted
// diagnosis and the adjustment outcome.
func (r *Reconciler) Reconcile(cd ClassifiedDiagnosis) (*database.Diagnosis, Adjustment, error) {
	diag := &database.Diagnosis{
		ID:             uuid.NewString(),
		FarmerID:       cd.FarmerID,
		ImageURL:       cd.ImageURL,
		Condition:      cd.Condition,
		Confidence:     cd.Confidence,
		Recommendation: cd.Recommendation,
		Status:         database.DiagnosisStatusValidated,
	}

	latest, err := r.db.GetLatestDailyRecord(cd.FarmerID)
	if err != nil {
		return nil, Adjustment{}, fmt.Errorf("failed to load latest record: %w", err)
	}

	// No environmental history: persist the diagnosis on its own, nothing
	// to reconcile against.
	if latest == nil {
		diag.Status = database.DiagnosisStatusCompleted
		if err := r.insertStandalone(diag); err != nil {
			return nil, Adjustment{}, err
		}
		return diag, Adjustment{NewCRI: 0, OldCRI: 0}, nil
	}

	tx, err := r.db.Begin()
	if err != nil {
		return nil, Adjustment{}, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	rec, err := r.db.GetDailyRecordByIDForUpdate(tx, latest.ID)
	if err != nil {
		return nil, Adjustment{}, fmt.Errorf("failed to lock daily record: %w", err)
	}
	if rec == nil {
		return nil, Adjustment{}, fmt.Errorf("daily record %s disappeared during reconciliation", latest.ID)
	}

	adj := Adjust(rec.CRI, cd.Condition, cd.Confidence)

	diag.CRISnapshot = rec.CRI
	diag.RecordID = rec.ID
	diag.Status = database.DiagnosisStatusCompleted
	diag.Message = adj.Message

	if adj.Adjusted {
		assessment := reclassify(adj.NewCRI)
		if err := r.db.UpdateRecordCRI(tx, rec.ID, adj.NewCRI,
			string(assessment.RiskLevel), string(assessment.BlightType)); err != nil {
			return nil, Adjustment{}, fmt.Errorf("failed to update record CRI: %w", err)
		}
	}

	if err := r.db.InsertDiagnosis(tx, diag); err != nil {
		return nil, Adjustment{}, fmt.Errorf("failed to insert diagnosis: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, Adjustment{}, fmt.Errorf("failed to commit reconciliation: %w", err)
	}

	diag.CreatedAt = time.Now().UTC()
	return diag, adj, nil
}

func (r *Reconciler) insertStandalone(diag *database.Diagnosis) error {
	tx, err := r.db.Begin()
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := r.db.InsertDiagnosis(tx, diag); err != nil {
		return fmt.Errorf("failed to insert diagnosis: %w", err)
	}
	return tx.Commit()
}

// reclassify rebands an adjusted CRI without touching the averages it was
// derived from.
func reclassify(cri float64) risk.Assessment {
	level, blight := risk.Classify(cri)
	return risk.Assessment{CRI: cri, RiskLevel: level, BlightType: blight}
}
