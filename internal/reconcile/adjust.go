// Package reconcile merges an image-based blight diagnosis with the
// environmentally derived CRI, nudging the stored CRI when the two
// independent signals disagree.
package reconcile

import (
	"fmt"

	"github.com/farmwatch/blight-server/internal/database"
	"github.com/farmwatch/blight-server/internal/risk"
)

// Adjustment is the outcome of comparing the CRI against an image diagnosis
type Adjustment struct {
	Adjusted    bool
	NewCRI      float64
	OldCRI      float64
	Message     string
	CRIImplied  risk.BlightType
	ImageSignal string
}

// Adjust applies the contradiction rules between what the CRI implies and
// what the image classifier saw. Confidence is 0-100. An "Unknown" image
// condition never adjusts; agreement never adjusts.
func Adjust(cri float64, condition string, confidence float64) Adjustment {
	implied := impliedBlight(cri)
	adj := Adjustment{
		Adjusted:    false,
		NewCRI:      cri,
		OldCRI:      cri,
		CRIImplied:  implied,
		ImageSignal: condition,
	}

	if condition == database.ConditionUnknown {
		return adj
	}

	shift := confidence / 100 * 10

	switch {
	case implied == risk.BlightEarly && condition == database.ConditionLateBlight:
		adj.NewCRI = clamp(cri+shift, 1, 100)

	case implied == risk.BlightLate && condition == database.ConditionEarlyBlight:
		adj.NewCRI = clamp(cri-shift, 1, 100)

	case implied != risk.BlightHealthy && condition == database.ConditionHealthy:
		// Move halfway toward neutral, scaled by confidence.
		adj.NewCRI = clamp(cri+(50-cri)*(confidence/100)*0.5, 1, 100)

	case implied == risk.BlightHealthy && condition == database.ConditionEarlyBlight:
		adj.NewCRI = clamp(cri-shift, 1, 100)

	case implied == risk.BlightHealthy && condition == database.ConditionLateBlight:
		adj.NewCRI = clamp(cri+shift, 1, 100)

	default:
		// Signals agree
		return adj
	}

	if adj.NewCRI == cri {
		return adj
	}

	adj.Adjusted = true
	adj.Message = fmt.Sprintf(
		"Your environmental risk index suggested %s but your photo diagnosis indicates %s (%.0f%% confidence). "+
			"The risk index has been adjusted from %.2f to %.2f.",
		implied, condition, confidence, cri, adj.NewCRI)
	return adj
}

func impliedBlight(cri float64) risk.BlightType {
	switch {
	case cri < 50:
		return risk.BlightEarly
	case cri > 50:
		return risk.BlightLate
	default:
		return risk.BlightHealthy
	}
}

func clamp(v, min, max float64) float64 {
	if v < min {
		return min
	}
	if v > max {
		return max
	}
	return v
}
