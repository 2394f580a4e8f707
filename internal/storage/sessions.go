// ABOUTME: Session and TimeRecord operations for SQLite storage.
// ABOUTME: Time records upsert on session, step, swimmer, repetition, and round.
package storage

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/swim/internal/models"
)

// CreateSession stores a new session. The workout must exist.
func (d *DB) CreateSession(s *models.Session) error {
	_, err := d.db.Exec(`
		INSERT INTO sessions (id, workout_id, started_at, notes)
		VALUES (?, ?, ?, ?)
	`, s.ID.String(), s.WorkoutID.String(), s.StartedAt.UTC().Format(time.RFC3339), s.Notes)
	if err != nil {
		return fmt.Errorf("create session: %w", err)
	}
	return nil
}

// GetSession retrieves a session by ID or ID prefix.
func (d *DB) GetSession(idOrPrefix string) (*models.Session, error) {
	id, err := d.resolveID("sessions", idOrPrefix)
	if err != nil {
		return nil, err
	}

	row := d.db.QueryRow(`SELECT id, workout_id, started_at, notes FROM sessions WHERE id = ?`, id)
	return scanSession(row)
}

// ListSessions retrieves sessions, optionally for one workout.
// Results are sorted by StartedAt descending (most recent first).
func (d *DB) ListSessions(workoutID *uuid.UUID, limit int) ([]*models.Session, error) {
	query := `SELECT id, workout_id, started_at, notes FROM sessions`
	var args []interface{}

	if workoutID != nil {
		query += ` WHERE workout_id = ?`
		args = append(args, workoutID.String())
	}
	query += ` ORDER BY started_at DESC`

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}
	defer rows.Close()

	var sessions []*models.Session
	for rows.Next() {
		s, err := scanSession(rows)
		if err != nil {
			return nil, err
		}
		sessions = append(sessions, s)
	}
	return sessions, rows.Err()
}

// DeleteSession removes a session and its time records (cascade delete).
func (d *DB) DeleteSession(idOrPrefix string) error {
	id, err := d.resolveID("sessions", idOrPrefix)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	result, err := d.db.Exec("DELETE FROM sessions WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("not found: %s", idOrPrefix)
	}
	return nil
}

// SaveTimeRecord inserts a time record or replaces the time of an existing
// record for the same key and round.
func (d *DB) SaveTimeRecord(r *models.TimeRecord) error {
	if _, err := d.GetSession(r.SessionID.String()); err != nil {
		return fmt.Errorf("save time record: session %w", err)
	}

	_, err := d.db.Exec(`
		INSERT INTO time_records (id, session_id, step_id, swimmer_id, repetition, round, time_code, recorded_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (session_id, step_id, swimmer_id, repetition, round)
		DO UPDATE SET time_code = excluded.time_code, recorded_at = excluded.recorded_at
	`, r.ID.String(), r.SessionID.String(), r.StepID, r.SwimmerID, r.Repetition, r.Round,
		r.TimeCode, r.RecordedAt.UTC().Format(time.RFC3339Nano))
	if err != nil {
		return fmt.Errorf("save time record: %w", err)
	}
	return nil
}

// ListTimeRecords returns all time records for a session in the order they
// were recorded.
func (d *DB) ListTimeRecords(sessionID uuid.UUID) ([]*models.TimeRecord, error) {
	rows, err := d.db.Query(`
		SELECT id, session_id, step_id, swimmer_id, repetition, round, time_code, recorded_at
		FROM time_records
		WHERE session_id = ?
		ORDER BY recorded_at ASC, swimmer_id ASC
	`, sessionID.String())
	if err != nil {
		return nil, fmt.Errorf("list time records: %w", err)
	}
	defer rows.Close()

	var records []*models.TimeRecord
	for rows.Next() {
		var r models.TimeRecord
		var idStr, sessionStr, recordedAt string
		if err := rows.Scan(&idStr, &sessionStr, &r.StepID, &r.SwimmerID, &r.Repetition,
			&r.Round, &r.TimeCode, &recordedAt); err != nil {
			return nil, fmt.Errorf("scan time record: %w", err)
		}
		r.ID, _ = uuid.Parse(idStr)
		r.SessionID, _ = uuid.Parse(sessionStr)
		r.RecordedAt, _ = time.Parse(time.RFC3339Nano, recordedAt)
		records = append(records, &r)
	}
	return records, rows.Err()
}

// scanSession scans a single row into a Session.
func scanSession(row rowScanner) (*models.Session, error) {
	var s models.Session
	var idStr, workoutStr, startedAt string
	var notes sql.NullString

	if err := row.Scan(&idStr, &workoutStr, &startedAt, &notes); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("not found")
		}
		return nil, fmt.Errorf("scan session: %w", err)
	}

	s.ID, _ = uuid.Parse(idStr)
	s.WorkoutID, _ = uuid.Parse(workoutStr)
	s.StartedAt, _ = time.Parse(time.RFC3339, startedAt)
	s.Notes = notes.String
	return &s, nil
}
