package reconcile

import (
	"math"
	"testing"

	"github.com/farmwatch/blight-server/internal/database"
	"github.com/farmwatch/blight-server/internal/risk"
)

func TestAdjust_EarlyImpliedImageSaysLate(t *testing.T) {
	adj := Adjust(30, database.ConditionLateBlight, 80)

	if !adj.Adjusted {
		t.Fatal("Expected an adjustment")
	}
	if adj.NewCRI != 38 { // 30 + 80/100*10
		t.Errorf("Expected adjusted CRI 38, got %v", adj.NewCRI)
	}
	if adj.OldCRI != 30 {
		t.Errorf("Expected OldCRI 30, got %v", adj.OldCRI)
	}
	if adj.CRIImplied != risk.BlightEarly {
		t.Errorf("Expected implied Early Blight, got %s", adj.CRIImplied)
	}
	if adj.Message == "" {
		t.Error("Expected a farmer-facing message")
	}
}

func TestAdjust_LateImpliedImageSaysEarly(t *testing.T) {
	adj := Adjust(70, database.ConditionEarlyBlight, 100)

	if !adj.Adjusted {
		t.Fatal("Expected an adjustment")
	}
	if adj.NewCRI != 60 { // 70 - 10
		t.Errorf("Expected adjusted CRI 60, got %v", adj.NewCRI)
	}
}

func TestAdjust_FlooredAtOne(t *testing.T) {
	adj := Adjust(52, database.ConditionEarlyBlight, 100)
	if adj.NewCRI != 42 {
		t.Errorf("Expected 42, got %v", adj.NewCRI)
	}

	// A score just above 50 with max confidence cannot cross the floor,
	// but the clamp must hold for any inputs that would.
	adj = Adjust(50.5, database.ConditionEarlyBlight, 100)
	if adj.NewCRI < 1 {
		t.Errorf("Adjusted CRI %v fell below floor", adj.NewCRI)
	}
}

func TestAdjust_NonHealthyImpliedImageSaysHealthy(t *testing.T) {
	// Move halfway toward 50, scaled by confidence
	adj := Adjust(70, database.ConditionHealthy, 100)

	if !adj.Adjusted {
		t.Fatal("Expected an adjustment")
	}
	if adj.NewCRI != 60 { // 70 + (50-70)*1.0*0.5
		t.Errorf("Expected adjusted CRI 60, got %v", adj.NewCRI)
	}

	adj = Adjust(30, database.ConditionHealthy, 50)
	if math.Abs(adj.NewCRI-35) > 1e-9 { // 30 + (50-30)*0.5*0.5
		t.Errorf("Expected adjusted CRI 35, got %v", adj.NewCRI)
	}
}

func TestAdjust_HealthyImpliedImageSaysBlight(t *testing.T) {
	adj := Adjust(50, database.ConditionLateBlight, 60)
	if adj.NewCRI != 56 { // shifted up toward Late
		t.Errorf("Expected adjusted CRI 56, got %v", adj.NewCRI)
	}

	adj = Adjust(50, database.ConditionEarlyBlight, 60)
	if adj.NewCRI != 44 { // shifted down toward Early
		t.Errorf("Expected adjusted CRI 44, got %v", adj.NewCRI)
	}
}

func TestAdjust_UnknownNeverAdjusts(t *testing.T) {
	for _, cri := range []float64{20, 50, 85} {
		adj := Adjust(cri, database.ConditionUnknown, 99)
		if adj.Adjusted {
			t.Errorf("Unknown condition adjusted CRI %v", cri)
		}
		if adj.NewCRI != cri {
			t.Errorf("Expected CRI unchanged at %v, got %v", cri, adj.NewCRI)
		}
		if adj.Message != "" {
			t.Error("Expected no message for Unknown condition")
		}
	}
}

func TestAdjust_AgreementIsNoOp(t *testing.T) {
	tests := []struct {
		cri       float64
		condition string
	}{
		{30, database.ConditionEarlyBlight},
		{70, database.ConditionLateBlight},
		{50, database.ConditionHealthy},
	}

	for _, tt := range tests {
		adj := Adjust(tt.cri, tt.condition, 90)
		if adj.Adjusted {
			t.Errorf("Agreeing signals (cri=%v, image=%s) produced an adjustment", tt.cri, tt.condition)
		}
		if adj.Message != "" {
			t.Errorf("Agreeing signals produced a message: %q", adj.Message)
		}
	}
}

func TestAdjust_ZeroConfidenceIsNoOp(t *testing.T) {
	adj := Adjust(30, database.ConditionLateBlight, 0)
	if adj.Adjusted {
		t.Error("Zero-confidence contradiction should not adjust")
	}
	if adj.NewCRI != 30 {
		t.Errorf("Expected CRI unchanged, got %v", adj.NewCRI)
	}
}
