package store

import (
	"fmt"
	"os"
	"time"
)

// Timestamps are stored as RFC 3339 UTC strings so lexicographic comparison
// in SQL matches chronological order.
const timeLayout = time.RFC3339

// UpsertResult describes one completed write.
type UpsertResult struct {
	SensorID  string    `json:"sensor_id"`
	Timestamp time.Time `json:"timestamp"`
}

// UpsertReading persists a reading, overwriting any existing row with the
// same (timestamp, sensor_id) key rather than erroring.
func (s *Store) UpsertReading(r SensorReading) (UpsertResult, error) {
	_, err := s.db.Exec(`
		INSERT INTO sensor_readings (timestamp, sensor_id, temperature, humidity, battery_level)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(timestamp, sensor_id) DO UPDATE SET
			temperature = excluded.temperature,
			humidity = excluded.humidity,
			battery_level = excluded.battery_level`,
		r.Timestamp.UTC().Format(timeLayout), r.SensorID, r.Temperature, r.Humidity, r.BatteryLevel)
	if err != nil {
		return UpsertResult{}, fmt.Errorf("failed to store reading for %s: %w", r.SensorID, err)
	}
	return UpsertResult{SensorID: r.SensorID, Timestamp: r.Timestamp}, nil
}

// RecentReadings returns the readings from the last `minutes` minutes, newest
// first, optionally filtered to one sensor.
func (s *Store) RecentReadings(minutes int, sensorID string) ([]SensorReading, error) {
	cutoff := time.Now().UTC().Add(-time.Duration(minutes) * time.Minute).Format(timeLayout)

	query := `
		SELECT timestamp, sensor_id, temperature, humidity, battery_level
		FROM sensor_readings
		WHERE timestamp >= ?`
	args := []interface{}{cutoff}
	if sensorID != "" {
		query += ` AND sensor_id = ?`
		args = append(args, sensorID)
	}
	query += ` ORDER BY timestamp DESC`

	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query recent readings: %w", err)
	}
	defer rows.Close()

	return scanReadings(rows)
}

// ReadingsForPeriod returns readings between start and end grouped per
// sensor, oldest first. An empty sensorIDs slice means every sensor seen in
// the window.
func (s *Store) ReadingsForPeriod(start, end time.Time, sensorIDs []string) (map[string][]SensorReading, error) {
	startStr := start.UTC().Format(timeLayout)
	endStr := end.UTC().Format(timeLayout)

	if len(sensorIDs) == 0 {
		rows, err := s.db.Query(`
			SELECT DISTINCT sensor_id FROM sensor_readings
			WHERE timestamp BETWEEN ? AND ?`, startStr, endStr)
		if err != nil {
			return nil, fmt.Errorf("failed to enumerate sensors: %w", err)
		}
		for rows.Next() {
			var id string
			if err := rows.Scan(&id); err != nil {
				rows.Close()
				return nil, err
			}
			sensorIDs = append(sensorIDs, id)
		}
		if err := rows.Err(); err != nil {
			rows.Close()
			return nil, err
		}
		rows.Close()
	}

	out := make(map[string][]SensorReading, len(sensorIDs))
	for _, id := range sensorIDs {
		rows, err := s.db.Query(`
			SELECT timestamp, sensor_id, temperature, humidity, battery_level
			FROM sensor_readings
			WHERE timestamp BETWEEN ? AND ? AND sensor_id = ?
			ORDER BY timestamp ASC`, startStr, endStr, id)
		if err != nil {
			return nil, fmt.Errorf("failed to query readings for %s: %w", id, err)
		}
		readings, err := scanReadings(rows)
		rows.Close()
		if err != nil {
			return nil, err
		}
		out[id] = readings
	}
	return out, nil
}

// Stats reports row counts, time bounds, last-hour activity and file size.
type Stats struct {
	TotalReadings   int     `json:"total_readings"`
	UniqueSensors   int     `json:"unique_sensors"`
	OldestReading   *string `json:"oldest_reading"`
	NewestReading   *string `json:"newest_reading"`
	RecentReadings  int     `json:"recent_readings_1h"`
	DatabaseSize    int64   `json:"database_size_bytes"`
	DatabasePath    string  `json:"database_path"`
}

func (s *Store) Stats() (Stats, error) {
	st := Stats{DatabasePath: s.dbPath}

	if err := s.db.QueryRow(`SELECT COUNT(*) FROM sensor_readings`).Scan(&st.TotalReadings); err != nil {
		return st, fmt.Errorf("failed to count readings: %w", err)
	}
	if err := s.db.QueryRow(`SELECT COUNT(DISTINCT sensor_id) FROM sensor_readings`).Scan(&st.UniqueSensors); err != nil {
		return st, fmt.Errorf("failed to count sensors: %w", err)
	}
	if err := s.db.QueryRow(`SELECT MIN(timestamp), MAX(timestamp) FROM sensor_readings`).Scan(&st.OldestReading, &st.NewestReading); err != nil {
		return st, fmt.Errorf("failed to read time bounds: %w", err)
	}

	oneHourAgo := time.Now().UTC().Add(-time.Hour).Format(timeLayout)
	if err := s.db.QueryRow(`SELECT COUNT(*) FROM sensor_readings WHERE timestamp >= ?`, oneHourAgo).Scan(&st.RecentReadings); err != nil {
		return st, fmt.Errorf("failed to count recent readings: %w", err)
	}

	if info, err := os.Stat(s.dbPath); err == nil {
		st.DatabaseSize = info.Size()
	}
	return st, nil
}

type rowScanner interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanReadings(rows rowScanner) ([]SensorReading, error) {
	var readings []SensorReading
	for rows.Next() {
		var (
			ts string
			r  SensorReading
		)
		if err := rows.Scan(&ts, &r.SensorID, &r.Temperature, &r.Humidity, &r.BatteryLevel); err != nil {
			return nil, fmt.Errorf("failed to scan reading: %w", err)
		}
		parsed, err := time.Parse(timeLayout, ts)
		if err != nil {
			// Legacy rows written by SQLite's CURRENT_TIMESTAMP default.
			parsed, err = time.Parse("2006-01-02 15:04:05", ts)
			if err != nil {
				return nil, fmt.Errorf("failed to parse timestamp %q: %w", ts, err)
			}
		}
		r.Timestamp = parsed.UTC()
		readings = append(readings, r)
	}
	return readings, rows.Err()
}
