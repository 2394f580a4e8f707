// ABOUTME: Repository interface for swim workout storage.
// ABOUTME: Defines the contract for workouts, sessions, and committed lap times.
package storage

import (
	"github.com/google/uuid"
	"github.com/harperreed/swim/internal/models"
)

// Repository defines the storage interface for swim data.
// SQLite, markdown files, and Badger all implement it.
type Repository interface {
	// Workout operations
	CreateWorkout(w *models.Workout) error
	GetWorkout(idOrPrefix string) (*models.Workout, error)
	ListWorkouts(search *string, limit int) ([]*models.Workout, error)
	UpdateWorkout(w *models.Workout) error
	DeleteWorkout(idOrPrefix string) error

	// Session operations
	CreateSession(s *models.Session) error
	GetSession(idOrPrefix string) (*models.Session, error)
	ListSessions(workoutID *uuid.UUID, limit int) ([]*models.Session, error)
	DeleteSession(idOrPrefix string) error

	// Time record operations. SaveTimeRecord replaces any record with the same
	// session, step, swimmer, repetition, and round.
	SaveTimeRecord(r *models.TimeRecord) error
	ListTimeRecords(sessionID uuid.UUID) ([]*models.TimeRecord, error)

	// Export/Import
	GetAllData() (*ExportData, error)
	ImportData(data *ExportData) error

	// Lifecycle
	Close() error
}
