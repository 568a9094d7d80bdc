package alerting

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// FiredState remembers what was last sent for a farmer+day+rule so that
// every 30-minute fold of the same day does not re-send the same alert.
type FiredState struct {
	Detail  string    `json:"detail"` // risk level, or crossed-metric names
	FiredAt time.Time `json:"fired_at"`
}

// StateManager keeps alert de-duplication state in Redis
type StateManager struct {
	redis    *redis.Client
	cooldown time.Duration
}

// NewStateManager creates a new alert state manager. Cooldown is how long
// an identical alert stays suppressed.
func NewStateManager(redisClient *redis.Client, cooldown time.Duration) *StateManager {
	return &StateManager{redis: redisClient, cooldown: cooldown}
}

// ShouldSend reports whether the alert is new enough to dispatch. An alert
// passes when nothing fired yet for this farmer+day+rule, when its detail
// changed (risk escalated, different metrics crossed), or when the
// cooldown for the identical alert has elapsed.
func (sm *StateManager) ShouldSend(ctx context.Context, day string, a Alert) (bool, error) {
	key := stateKey(a.FarmerID, day, a.Type)

	data, err := sm.redis.Get(ctx, key).Result()
	if err == redis.Nil {
		return true, nil
	}
	if err != nil {
		return false, fmt.Errorf("failed to get alert state: %w", err)
	}

	var state FiredState
	if err := json.Unmarshal([]byte(data), &state); err != nil {
		return false, fmt.Errorf("failed to unmarshal alert state: %w", err)
	}

	if state.Detail != detailOf(a) {
		return true, nil
	}
	return time.Since(state.FiredAt) >= sm.cooldown, nil
}

// MarkSent records that an alert was dispatched. State expires after two
// days; by then the record's calendar day is over anyway.
func (sm *StateManager) MarkSent(ctx context.Context, day string, a Alert) error {
	key := stateKey(a.FarmerID, day, a.Type)

	state := FiredState{
		Detail:  detailOf(a),
		FiredAt: time.Now().UTC(),
	}

	data, err := json.Marshal(state)
	if err != nil {
		return fmt.Errorf("failed to marshal alert state: %w", err)
	}

	if err := sm.redis.Set(ctx, key, data, 48*time.Hour).Err(); err != nil {
		return fmt.Errorf("failed to set alert state: %w", err)
	}
	return nil
}

func stateKey(farmerID, day, alertType string) string {
	return fmt.Sprintf("alert_state:%s:%s:%s", farmerID, day, alertType)
}

// detailOf extracts the part of an alert that makes a re-send meaningful
func detailOf(a Alert) string {
	switch a.Type {
	case TypeBlightRisk:
		return a.Data["risk_level"] + "/" + a.Data["blight_type"]
	case TypeWeatherChange:
		return a.Data["metrics"]
	default:
		return a.Body
	}
}
