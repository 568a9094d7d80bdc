package database

import "time"

// Farm is a registered collection target
type Farm struct {
	FarmerID  string
	Lat       float64
	Lon       float64
	Label     string
	CreatedAt time.Time
}

// GetFarms returns every registered farm
func (db *DB) GetFarms() ([]Farm, error) {
	query := `
		SELECT farmer_id, lat, lon, label, created_at
		FROM farms
		ORDER BY farmer_id
	`

	rows, err := db.Query(query)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var farms []Farm
	for rows.Next() {
		var f Farm
		if err := rows.Scan(&f.FarmerID, &f.Lat, &f.Lon, &f.Label, &f.CreatedAt); err != nil {
			return nil, err
		}
		farms = append(farms, f)
	}

	return farms, rows.Err()
}

// UpsertFarm registers or updates a farm
func (db *DB) UpsertFarm(f Farm) error {
	query := `
		INSERT INTO farms (farmer_id, lat, lon, label)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (farmer_id, lat, lon) DO UPDATE
		SET label = EXCLUDED.label
	`
	_, err := db.Exec(query, f.FarmerID, f.Lat, f.Lon, f.Label)
	return err
}
