package alerting

import (
	"strings"
	"testing"

	"github.com/farmwatch/blight-server/internal/database"
	"github.com/farmwatch/blight-server/internal/risk"
)

func record(level risk.Level, blight risk.BlightType) *database.DailyRecord {
	return &database.DailyRecord{
		ID:         "rec-1",
		FarmerID:   "farmer-1",
		CRI:        65,
		RiskLevel:  level,
		BlightType: blight,
	}
}

func TestEvaluate_LowRiskNeverFires(t *testing.T) {
	for _, blight := range []risk.BlightType{risk.BlightHealthy, risk.BlightEarly, risk.BlightLate} {
		alerts := Evaluate(record(risk.LevelLow, blight))
		if len(alerts) != 0 {
			t.Errorf("Low risk with %s fired %d alerts", blight, len(alerts))
		}
	}
}

func TestEvaluate_RiskPriorityMapping(t *testing.T) {
	tests := []struct {
		level    risk.Level
		priority string
	}{
		{risk.LevelMedium, PriorityMedium},
		{risk.LevelHigh, PriorityHigh},
		{risk.LevelCritical, PriorityUrgent},
	}

	for _, tt := range tests {
		alerts := Evaluate(record(tt.level, risk.BlightLate))
		if len(alerts) != 1 {
			t.Fatalf("Expected 1 alert for %s, got %d", tt.level, len(alerts))
		}
		if alerts[0].Priority != tt.priority {
			t.Errorf("Level %s mapped to priority %s, expected %s", tt.level, alerts[0].Priority, tt.priority)
		}
		if alerts[0].Type != TypeBlightRisk {
			t.Errorf("Expected blight_risk alert, got %s", alerts[0].Type)
		}
	}
}

func TestEvaluate_RiskMessageVariesByBlightType(t *testing.T) {
	early := Evaluate(record(risk.LevelHigh, risk.BlightEarly))[0]
	late := Evaluate(record(risk.LevelHigh, risk.BlightLate))[0]

	if early.Body == late.Body {
		t.Error("Early and Late Blight alerts share the same message")
	}
	for _, a := range []Alert{early, late} {
		if !strings.Contains(a.Body, "photo") {
			t.Errorf("Alert body lacks the photo call-to-action: %q", a.Body)
		}
	}
}

func changesRecord(daily *database.MetricChanges) *database.DailyRecord {
	rec := record(risk.LevelLow, risk.BlightHealthy)
	rec.Changes.Daily = daily
	return rec
}

func TestEvaluate_WeatherChangeBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		changes database.MetricChanges
		fires   bool
	}{
		{"temperature at threshold", database.MetricChanges{Temperature: 15}, true},
		{"temperature below threshold", database.MetricChanges{Temperature: 14.9}, false},
		{"temperature negative at threshold", database.MetricChanges{Temperature: -15}, true},
		{"humidity at threshold", database.MetricChanges{Humidity: 20}, true},
		{"humidity below", database.MetricChanges{Humidity: 19.9}, false},
		{"rainfall at 100 does not fire", database.MetricChanges{Rainfall: 100}, false},
		{"rainfall above 100 fires", database.MetricChanges{Rainfall: 100.1}, true},
		{"rainfall decrease never fires", database.MetricChanges{Rainfall: -150}, false},
		{"soil at threshold", database.MetricChanges{SoilMoisture: 25}, true},
		{"soil negative at threshold", database.MetricChanges{SoilMoisture: -25}, true},
		{"all quiet", database.MetricChanges{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			changes := tt.changes
			alerts := Evaluate(changesRecord(&changes))
			fired := len(alerts) == 1 && alerts[0].Type == TypeWeatherChange
			if fired != tt.fires {
				t.Errorf("Expected fires=%v, got %d alerts", tt.fires, len(alerts))
			}
		})
	}
}

func TestEvaluate_WeatherChangeNoDailyBlock(t *testing.T) {
	// A record with no prior-day comparison cannot fire the weather rule
	alerts := Evaluate(record(risk.LevelLow, risk.BlightHealthy))
	if len(alerts) != 0 {
		t.Errorf("Expected no alerts without a daily changes block, got %d", len(alerts))
	}
}

func TestEvaluate_WeatherChangeCombinesMetrics(t *testing.T) {
	alerts := Evaluate(changesRecord(&database.MetricChanges{
		Temperature:  -18,
		Humidity:     30,
		SoilMoisture: 40,
	}))

	if len(alerts) != 1 {
		t.Fatalf("Expected one combined alert, got %d", len(alerts))
	}

	body := alerts[0].Body
	for _, metric := range []string{"temperature", "humidity", "soil moisture"} {
		if !strings.Contains(body, metric) {
			t.Errorf("Combined alert is missing %s: %q", metric, body)
		}
	}
}

func TestWeatherChangeDetailStableAcrossFolds(t *testing.T) {
	// Successive folds of the same day nudge the running averages, so the
	// daily deltas differ slightly on every fold. As long as the same
	// metrics stay crossed, the de-dup detail must not change, or the
	// cooldown would never apply to weather-change alerts.
	first := Evaluate(changesRecord(&database.MetricChanges{Temperature: 16.3}))[0]
	second := Evaluate(changesRecord(&database.MetricChanges{Temperature: 16.1}))[0]

	if detailOf(first) != detailOf(second) {
		t.Errorf("Detail changed between folds: %q vs %q", detailOf(first), detailOf(second))
	}
	if first.Body == second.Body {
		t.Error("Alert bodies should still carry the per-fold delta values")
	}

	// A genuinely different crossed set is a new alert
	escalated := Evaluate(changesRecord(&database.MetricChanges{Temperature: 16.1, Humidity: 30}))[0]
	if detailOf(second) == detailOf(escalated) {
		t.Errorf("Detail did not change when humidity joined: %q", detailOf(escalated))
	}
}

func TestEvaluate_BothRulesIndependent(t *testing.T) {
	rec := record(risk.LevelCritical, risk.BlightLate)
	rec.Changes.Daily = &database.MetricChanges{Temperature: 20}

	alerts := Evaluate(rec)
	if len(alerts) != 2 {
		t.Fatalf("Expected 2 alerts, got %d", len(alerts))
	}

	types := map[string]bool{}
	for _, a := range alerts {
		types[a.Type] = true
	}
	if !types[TypeBlightRisk] || !types[TypeWeatherChange] {
		t.Errorf("Expected both alert types, got %v", types)
	}
}
