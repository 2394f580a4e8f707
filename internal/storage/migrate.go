// ABOUTME: Data migration between swim storage backends.
// ABOUTME: Copies workouts, sessions, and time records from source to destination.

package storage

import (
	"fmt"
	"os"
)

// MigrateSummary holds counts of migrated entities.
type MigrateSummary struct {
	Workouts    int
	Sessions    int
	TimeRecords int
}

// MigrateData copies all data from src to dst storage.
// Workouts go first so sessions can reference them, then sessions with
// their time records. The destination should be empty before calling this
// function.
func MigrateData(src, dst Repository) (*MigrateSummary, error) {
	summary := &MigrateSummary{}

	workouts, err := src.ListWorkouts(nil, 0)
	if err != nil {
		return nil, fmt.Errorf("list source workouts: %w", err)
	}

	for _, w := range workouts {
		if err := dst.CreateWorkout(w); err != nil {
			return nil, fmt.Errorf("create workout %s: %w", w.ID, err)
		}
		summary.Workouts++
	}

	sessions, err := src.ListSessions(nil, 0)
	if err != nil {
		return nil, fmt.Errorf("list source sessions: %w", err)
	}

	for _, s := range sessions {
		if err := dst.CreateSession(s); err != nil {
			return nil, fmt.Errorf("create session %s: %w", s.ID, err)
		}
		summary.Sessions++

		records, err := src.ListTimeRecords(s.ID)
		if err != nil {
			return nil, fmt.Errorf("list time records for session %s: %w", s.ID, err)
		}
		for _, r := range records {
			if err := dst.SaveTimeRecord(r); err != nil {
				return nil, fmt.Errorf("save time record %s: %w", r.ID, err)
			}
			summary.TimeRecords++
		}
	}

	return summary, nil
}

// IsDirNonEmpty checks whether a directory exists and contains any files or subdirectories.
// Returns false if the directory does not exist or is empty.
func IsDirNonEmpty(path string) (bool, error) {
	entries, err := os.ReadDir(path)
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, fmt.Errorf("read directory %q: %w", path, err)
	}
	return len(entries) > 0, nil
}
