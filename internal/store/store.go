package store

import (
	"database/sql"
	"fmt"

	_ "github.com/mattn/go-sqlite3"
)

// Store is the SQLite-backed time-series persistence layer for sensor
// readings. Writes are upserts keyed on (timestamp, sensor_id); readings are
// never deleted here, archival is someone else's job.
type Store struct {
	db     *sql.DB
	dbPath string
}

func Open(dbPath string) (*Store, error) {
	db, err := sql.Open("sqlite3", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	if err := initSchema(db); err != nil {
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}

	return &Store{db: db, dbPath: dbPath}, nil
}

func (s *Store) Close() error {
	return s.db.Close()
}

func initSchema(db *sql.DB) error {
	schema := `
	CREATE TABLE IF NOT EXISTS sensor_readings (
		id INTEGER PRIMARY KEY AUTOINCREMENT,
		timestamp DATETIME DEFAULT CURRENT_TIMESTAMP,
		sensor_id TEXT NOT NULL,
		temperature REAL,
		humidity REAL,
		battery_level INTEGER,
		created_at DATETIME DEFAULT CURRENT_TIMESTAMP,
		UNIQUE(timestamp, sensor_id)
	);

	CREATE INDEX IF NOT EXISTS idx_timestamp
		ON sensor_readings(timestamp);
	CREATE INDEX IF NOT EXISTS idx_sensor_id
		ON sensor_readings(sensor_id);
	CREATE INDEX IF NOT EXISTS idx_sensor_timestamp
		ON sensor_readings(sensor_id, timestamp);

	CREATE TABLE IF NOT EXISTS sensor_readings_archive (
		id INTEGER PRIMARY KEY,
		timestamp DATETIME,
		sensor_id TEXT,
		temperature REAL,
		humidity REAL,
		battery_level INTEGER,
		created_at DATETIME,
		archived_at DATETIME DEFAULT CURRENT_TIMESTAMP
	);
	`

	_, err := db.Exec(schema)
	return err
}
