package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func f(v float64) *float64 { return &v }
func i(v int) *int         { return &v }

func testStore(t *testing.T) *Store {
	t.Helper()
	s, err := Open(filepath.Join(t.TempDir(), "readings.db"))
	require.NoError(t, err)
	t.Cleanup(func() { s.Close() })
	return s
}

func TestNewSensorReadingValidation(t *testing.T) {
	tests := []struct {
		name        string
		sensorID    string
		temperature *float64
		humidity    *float64
		wantErr     string
	}{
		{"valid", "govee_sensor", f(72.5), f(45.0), ""},
		{"nil values allowed", "govee_sensor", nil, nil, ""},
		{"boundary temperatures", "s", f(-100), f(0), ""},
		{"upper boundaries", "s", f(150), f(100), ""},
		{"missing sensor id", "", f(72.5), nil, "sensor_id is required"},
		{"temperature too low", "s", f(-100.1), nil, "temperature must be between"},
		{"temperature too high", "s", f(500), nil, "temperature must be between"},
		{"humidity negative", "s", nil, f(-1), "humidity must be between"},
		{"humidity over 100", "s", nil, f(101), "humidity must be between"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := NewSensorReading(tt.sensorID, tt.temperature, tt.humidity, nil, time.Time{})
			if tt.wantErr == "" {
				assert.NoError(t, err)
			} else {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			}
		})
	}
}

func TestNewSensorReadingDefaultsTimestamp(t *testing.T) {
	before := time.Now().UTC()
	r, err := NewSensorReading("s", f(70), nil, nil, time.Time{})
	require.NoError(t, err)
	assert.False(t, r.Timestamp.Before(before))
	assert.Equal(t, time.UTC, r.Timestamp.Location())
}

func TestUpsertAndRecentReadings(t *testing.T) {
	s := testStore(t)

	now := time.Now().UTC().Truncate(time.Second)
	r, err := NewSensorReading("govee_sensor", f(72.5), f(45.0), i(88), now)
	require.NoError(t, err)

	res, err := s.UpsertReading(r)
	require.NoError(t, err)
	assert.Equal(t, "govee_sensor", res.SensorID)

	got, err := s.RecentReadings(60, "")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "govee_sensor", got[0].SensorID)
	assert.Equal(t, now, got[0].Timestamp)
	require.NotNil(t, got[0].Temperature)
	assert.Equal(t, 72.5, *got[0].Temperature)
	require.NotNil(t, got[0].BatteryLevel)
	assert.Equal(t, 88, *got[0].BatteryLevel)
}

func TestUpsertOverwritesDuplicateKey(t *testing.T) {
	s := testStore(t)
	ts := time.Now().UTC().Truncate(time.Second)

	first, err := NewSensorReading("weather_austin", f(60), f(30), nil, ts)
	require.NoError(t, err)
	_, err = s.UpsertReading(first)
	require.NoError(t, err)

	second, err := NewSensorReading("weather_austin", f(65), f(35), nil, ts)
	require.NoError(t, err)
	_, err = s.UpsertReading(second)
	require.NoError(t, err)

	got, err := s.RecentReadings(60, "weather_austin")
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 65.0, *got[0].Temperature)
	assert.Equal(t, 35.0, *got[0].Humidity)
}

func TestRecentReadingsFilterAndOrder(t *testing.T) {
	s := testStore(t)
	base := time.Now().UTC().Truncate(time.Second)

	for idx, tc := range []struct {
		id     string
		offset time.Duration
	}{
		{"hubitat_office", -3 * time.Minute},
		{"hubitat_office", -1 * time.Minute},
		{"govee_sensor", -2 * time.Minute},
		{"hubitat_office", -2 * time.Hour}, // outside the window
	} {
		r, err := NewSensorReading(tc.id, f(70+float64(idx)), nil, nil, base.Add(tc.offset))
		require.NoError(t, err)
		_, err = s.UpsertReading(r)
		require.NoError(t, err)
	}

	got, err := s.RecentReadings(10, "hubitat_office")
	require.NoError(t, err)
	require.Len(t, got, 2)
	// Newest first.
	assert.True(t, got[0].Timestamp.After(got[1].Timestamp))

	all, err := s.RecentReadings(10, "")
	require.NoError(t, err)
	assert.Len(t, all, 3)
}

func TestReadingsForPeriod(t *testing.T) {
	s := testStore(t)
	base := time.Now().UTC().Truncate(time.Second)

	for _, tc := range []struct {
		id     string
		offset time.Duration
		temp   float64
	}{
		{"govee_sensor", -30 * time.Minute, 71},
		{"govee_sensor", -10 * time.Minute, 72},
		{"weather_austin", -20 * time.Minute, 55},
	} {
		r, err := NewSensorReading(tc.id, f(tc.temp), nil, nil, base.Add(tc.offset))
		require.NoError(t, err)
		_, err = s.UpsertReading(r)
		require.NoError(t, err)
	}

	byID, err := s.ReadingsForPeriod(base.Add(-time.Hour), base, nil)
	require.NoError(t, err)
	require.Len(t, byID, 2)
	require.Len(t, byID["govee_sensor"], 2)
	// Oldest first within each sensor.
	assert.Equal(t, 71.0, *byID["govee_sensor"][0].Temperature)
	assert.Equal(t, 72.0, *byID["govee_sensor"][1].Temperature)

	only, err := s.ReadingsForPeriod(base.Add(-time.Hour), base, []string{"weather_austin"})
	require.NoError(t, err)
	require.Len(t, only, 1)
	assert.Len(t, only["weather_austin"], 1)
}

func TestStats(t *testing.T) {
	s := testStore(t)

	empty, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 0, empty.TotalReadings)
	assert.Nil(t, empty.OldestReading)

	now := time.Now().UTC().Truncate(time.Second)
	for _, id := range []string{"a", "b"} {
		r, err := NewSensorReading(id, f(70), nil, nil, now)
		require.NoError(t, err)
		_, err = s.UpsertReading(r)
		require.NoError(t, err)
	}

	st, err := s.Stats()
	require.NoError(t, err)
	assert.Equal(t, 2, st.TotalReadings)
	assert.Equal(t, 2, st.UniqueSensors)
	assert.Equal(t, 2, st.RecentReadings)
	require.NotNil(t, st.NewestReading)
	assert.Greater(t, st.DatabaseSize, int64(0))
}
