// Package manifest keeps a sqlite journal of conversion runs, one row per converted cell
package manifest

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ecopia-map/osgb_tiler/internal/converters"
	"github.com/ecopia-map/osgb_tiler/internal/tiler"
	"github.com/golang/glog"
	_ "modernc.org/sqlite"
)

const (
	StatusConverted = "converted"
	StatusFailed    = "failed"
)

var ErrNoRun = errors.New("no run started")

type Journal struct {
	*sql.DB
	path  string
	runID int64
}

// UnitRecord is one row of the units table
type UnitRecord struct {
	Name     string
	Input    string
	Output   string
	Status   string
	Box      []float64
	Error    string
	Duration time.Duration
}

func openDB(dbPath string) (*sql.DB, error) {
	sqlDB, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open journal: %w", err)
	}
	// a single connection keeps in-memory journals alive and serializes writers
	sqlDB.SetMaxOpenConns(1)

	if _, err := sqlDB.Exec("PRAGMA foreign_keys = ON"); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}
	return sqlDB, nil
}

// Open opens or creates the journal at dbPath, ":memory:" gives a throwaway journal
func Open(dbPath string) (*Journal, error) {
	sqlDB, err := openDB(dbPath)
	if err != nil {
		return nil, err
	}
	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf("failed to initialize schema: %w", err)
	}
	return &Journal{DB: sqlDB, path: dbPath}, nil
}

func (j *Journal) Path() string {
	return j.path
}

func (j *Journal) RunID() int64 {
	return j.runID
}

// StartRun opens a new run, following units are attached to it
func (j *Journal) StartRun(command, input, output string) (int64, error) {
	result, err := j.Exec(
		"INSERT INTO runs (command, input, output, started_at) VALUES (?, ?, ?, ?)",
		command, input, output, time.Now().UTC(),
	)
	if err != nil {
		return 0, fmt.Errorf("failed to start run: %w", err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	j.runID = id
	return id, nil
}

// RecordUnit stores the outcome of one unit. Recording problems are only logged, the journal
// never fails a conversion.
func (j *Journal) RecordUnit(unit tiler.ConversionUnit, result converters.ConversionResult, err error, elapsed time.Duration) {
	if j.runID == 0 {
		glog.Warningf("journal: %v, unit %s not recorded", ErrNoRun, unit.Name)
		return
	}

	status := StatusConverted
	var errText, box sql.NullString
	if err != nil || result.IsEmpty() {
		status = StatusFailed
		if err != nil {
			errText = sql.NullString{String: err.Error(), Valid: true}
		}
	} else if data, marshalErr := json.Marshal(result.Box); marshalErr == nil {
		box = sql.NullString{String: string(data), Valid: true}
	}

	_, execErr := j.Exec(
		`INSERT INTO units (run_id, name, input, output, status, box, error, duration_ms)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		j.runID, unit.Name, unit.Input, unit.Output, status, box, errText, elapsed.Milliseconds(),
	)
	if execErr != nil {
		glog.Warningf("journal: cannot record unit %s: %v", unit.Name, execErr)
	}
}

// FinishRun closes the current run with its totals
func (j *Journal) FinishRun(units, converted int) error {
	if j.runID == 0 {
		return ErrNoRun
	}
	_, err := j.Exec(
		"UPDATE runs SET finished_at = ?, units = ?, converted = ? WHERE id = ?",
		time.Now().UTC(), units, converted, j.runID,
	)
	if err != nil {
		return fmt.Errorf("failed to finish run: %w", err)
	}
	return nil
}

// Units lists the units of a run in insertion order
func (j *Journal) Units(runID int64) ([]UnitRecord, error) {
	rows, err := j.Query(
		"SELECT name, input, output, status, box, error, duration_ms FROM units WHERE run_id = ? ORDER BY id",
		runID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	records := make([]UnitRecord, 0)
	for rows.Next() {
		var record UnitRecord
		var box, errText sql.NullString
		var durationMs int64
		if err := rows.Scan(&record.Name, &record.Input, &record.Output, &record.Status, &box, &errText, &durationMs); err != nil {
			return nil, err
		}
		if box.Valid {
			if err := json.Unmarshal([]byte(box.String), &record.Box); err != nil {
				return nil, fmt.Errorf("unit %s: %w", record.Name, err)
			}
		}
		record.Error = errText.String
		record.Duration = time.Duration(durationMs) * time.Millisecond
		records = append(records, record)
	}
	return records, rows.Err()
}

// FailedUnits returns the names of the failed units of a run
func (j *Journal) FailedUnits(runID int64) ([]string, error) {
	records, err := j.Units(runID)
	if err != nil {
		return nil, err
	}
	names := make([]string, 0)
	for _, record := range records {
		if record.Status == StatusFailed {
			names = append(names, record.Name)
		}
	}
	return names, nil
}
