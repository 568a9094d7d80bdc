package database

import "database/sql"

// GetFarmerSettings resolves a farmer's notification preferences. A farmer
// with no stored row gets the fully-specified defaults, so callers never
// deal with partially-set preferences.
func (db *DB) GetFarmerSettings(farmerID string) (FarmerSettings, error) {
	query := `
		SELECT farmer_id, email, enable_risk_alerts, enable_weather_alerts
		FROM farmer_settings
		WHERE farmer_id = $1
	`

	var s FarmerSettings
	err := db.QueryRow(query, farmerID).Scan(
		&s.FarmerID, &s.Email, &s.EnableRiskAlerts, &s.EnableWeatherAlerts,
	)
	if err == sql.ErrNoRows {
		return DefaultFarmerSettings(farmerID), nil
	}
	if err != nil {
		return FarmerSettings{}, err
	}

	return s, nil
}

// UpsertFarmerSettings stores a farmer's notification preferences
func (db *DB) UpsertFarmerSettings(s FarmerSettings) error {
	query := `
		INSERT INTO farmer_settings (farmer_id, email, enable_risk_alerts, enable_weather_alerts)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (farmer_id) DO UPDATE
		SET email = EXCLUDED.email,
		    enable_risk_alerts = EXCLUDED.enable_risk_alerts,
		    enable_weather_alerts = EXCLUDED.enable_weather_alerts,
		    updated_at = CURRENT_TIMESTAMP
	`
	_, err := db.Exec(query, s.FarmerID, s.Email, s.EnableRiskAlerts, s.EnableWeatherAlerts)
	return err
}
