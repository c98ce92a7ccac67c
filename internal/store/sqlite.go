package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	_ "github.com/mattn/go-sqlite3"

	"github.com/lwalden/isd-weather-api/internal/weather"
)

var (
	// ErrNotFound is returned when no archived data exists for a station.
	ErrNotFound = errors.New("no archived data for station")
)

const schema = `
CREATE TABLE IF NOT EXISTS stations (
	usaf        INTEGER NOT NULL,
	wban        INTEGER NOT NULL,
	name        TEXT    NOT NULL,
	state       TEXT    NOT NULL DEFAULT '',
	call_sign   TEXT    NOT NULL DEFAULT '',
	latitude    REAL    NOT NULL,
	longitude   REAL    NOT NULL,
	elevation_m REAL    NOT NULL,
	begin_date  TEXT    NOT NULL,
	end_date    TEXT    NOT NULL,
	PRIMARY KEY (usaf, wban)
);
CREATE TABLE IF NOT EXISTS readings (
	usaf               INTEGER NOT NULL,
	wban               INTEGER NOT NULL,
	observed_at        TEXT    NOT NULL,
	temperature_tenths INTEGER NOT NULL,
	PRIMARY KEY (usaf, wban, observed_at)
);
`

// StationRow is a catalog row together with its observation period. The
// period is only needed at import time for filtering, so it lives here
// rather than on the domain Station.
type StationRow struct {
	weather.Station
	Begin time.Time
	End   time.Time
}

// SQLiteStore persists the station catalog and the archived temperature
// readings in one SQLite database. It implements weather.Catalog and
// weather.Archive.
type SQLiteStore struct {
	db *sql.DB
}

// Open opens (creating if necessary) the database at path and applies the
// schema. WAL mode lets concurrent queries read while the ETL writes.
func Open(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
	if err != nil {
		return nil, fmt.Errorf("open database %s: %w", path, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping database %s: %w", path, err)
	}
	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply schema: %w", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Stations returns the full catalog ordered by insertion key.
func (s *SQLiteStore) Stations(ctx context.Context) ([]weather.Station, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT usaf, wban, name, state, call_sign, latitude, longitude, elevation_m
		FROM stations
		ORDER BY usaf, wban`)
	if err != nil {
		return nil, fmt.Errorf("query stations: %w", err)
	}
	defer rows.Close()

	var stations []weather.Station
	for rows.Next() {
		var st weather.Station
		if err := rows.Scan(&st.USAF, &st.WBAN, &st.Name, &st.State, &st.CallSign,
			&st.Latitude, &st.Longitude, &st.ElevationMeters); err != nil {
			return nil, fmt.Errorf("scan station: %w", err)
		}
		stations = append(stations, st)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate stations: %w", err)
	}
	return stations, nil
}

// StationSeries returns one station's full archived series ordered by
// timestamp. An unknown station or a station with no readings yields
// ErrNotFound.
func (s *SQLiteStore) StationSeries(ctx context.Context, usaf, wban int) ([]weather.TemperatureRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT observed_at, temperature_tenths
		FROM readings
		WHERE usaf = ? AND wban = ?
		ORDER BY observed_at`, usaf, wban)
	if err != nil {
		return nil, fmt.Errorf("query readings: %w", err)
	}
	defer rows.Close()

	var series []weather.TemperatureRecord
	for rows.Next() {
		var observedAt string
		var rec weather.TemperatureRecord
		if err := rows.Scan(&observedAt, &rec.TemperatureTenths); err != nil {
			return nil, fmt.Errorf("scan reading: %w", err)
		}
		ts, err := time.Parse(time.RFC3339, observedAt)
		if err != nil {
			return nil, fmt.Errorf("parse reading timestamp %q: %w", observedAt, err)
		}
		rec.Timestamp = ts
		series = append(series, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate readings: %w", err)
	}
	if len(series) == 0 {
		return nil, fmt.Errorf("station %06d-%05d: %w", usaf, wban, ErrNotFound)
	}
	return series, nil
}

// UpsertStations writes catalog rows, replacing existing ones, in a single
// transaction.
func (s *SQLiteStore) UpsertStations(ctx context.Context, rows []StationRow) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO stations
			(usaf, wban, name, state, call_sign, latitude, longitude, elevation_m, begin_date, end_date)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare station upsert: %w", err)
	}
	defer stmt.Close()

	for _, row := range rows {
		if _, err := stmt.ExecContext(ctx, row.USAF, row.WBAN, row.Name, row.State,
			row.CallSign, row.Latitude, row.Longitude, row.ElevationMeters,
			row.Begin.Format("2006-01-02"), row.End.Format("2006-01-02")); err != nil {
			return fmt.Errorf("upsert station %06d-%05d: %w", row.USAF, row.WBAN, err)
		}
	}
	return tx.Commit()
}

// InsertReadings appends records to a station's archive. Re-importing the
// same spool file is idempotent: duplicate (station, timestamp) rows are
// ignored.
func (s *SQLiteStore) InsertReadings(ctx context.Context, usaf, wban int, records []weather.TemperatureRecord) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR IGNORE INTO readings (usaf, wban, observed_at, temperature_tenths)
		VALUES (?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("prepare reading insert: %w", err)
	}
	defer stmt.Close()

	for _, rec := range records {
		if _, err := stmt.ExecContext(ctx, usaf, wban,
			rec.Timestamp.UTC().Format(time.RFC3339), rec.TemperatureTenths); err != nil {
			return fmt.Errorf("insert reading %06d-%05d %s: %w",
				usaf, wban, rec.Timestamp.Format(time.RFC3339), err)
		}
	}
	return tx.Commit()
}
