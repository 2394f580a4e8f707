// ABOUTME: Session and TimeRecord models for live coaching sessions.
// ABOUTME: A TimeRecord is one committed lap time for a swimmer on a step repetition.
package models

import (
	"time"

	"github.com/google/uuid"
)

// Session is one live run-through of a workout with a group of swimmers.
type Session struct {
	ID        uuid.UUID `json:"id" yaml:"id"`
	WorkoutID uuid.UUID `json:"workout_id" yaml:"workout_id"`
	StartedAt time.Time `json:"started_at" yaml:"started_at"`
	Notes     string    `json:"notes,omitempty" yaml:"notes,omitempty"`
}

// NewSession creates a new Session for a workout starting now.
func NewSession(workoutID uuid.UUID) *Session {
	return &Session{
		ID:        uuid.New(),
		WorkoutID: workoutID,
		StartedAt: time.Now(),
	}
}

// WithNotes sets notes on the session.
func (s *Session) WithNotes(notes string) *Session {
	s.Notes = notes
	return s
}

// TimeKey identifies a time-code buffer within a session.
type TimeKey struct {
	StepID     string
	SwimmerID  string
	Repetition int
}

// TimeRecord is a committed elapsed time. Round is the iteration path of the
// flattened entry it was captured on (e.g. "2/3"), empty outside repeats.
type TimeRecord struct {
	ID         uuid.UUID `json:"id" yaml:"id"`
	SessionID  uuid.UUID `json:"session_id" yaml:"session_id"`
	StepID     string    `json:"step_id" yaml:"step_id"`
	SwimmerID  string    `json:"swimmer_id" yaml:"swimmer_id"`
	Repetition int       `json:"repetition" yaml:"repetition"`
	Round      string    `json:"round,omitempty" yaml:"round,omitempty"`
	TimeCode   string    `json:"time_code" yaml:"time_code"`
	RecordedAt time.Time `json:"recorded_at" yaml:"recorded_at"`
}

// NewTimeRecord creates a TimeRecord stamped with the current time.
func NewTimeRecord(sessionID uuid.UUID, key TimeKey, timeCode string) *TimeRecord {
	return &TimeRecord{
		ID:         uuid.New(),
		SessionID:  sessionID,
		StepID:     key.StepID,
		SwimmerID:  key.SwimmerID,
		Repetition: key.Repetition,
		TimeCode:   timeCode,
		RecordedAt: time.Now(),
	}
}

// WithRound sets the iteration path label.
func (r *TimeRecord) WithRound(round string) *TimeRecord {
	r.Round = round
	return r
}

// Key returns the buffer key this record was committed from.
func (r *TimeRecord) Key() TimeKey {
	return TimeKey{StepID: r.StepID, SwimmerID: r.SwimmerID, Repetition: r.Repetition}
}
