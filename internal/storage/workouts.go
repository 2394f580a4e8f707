// ABOUTME: Workout CRUD operations for SQLite storage.
// ABOUTME: The node tree is stored as a JSON column; deleting a workout cascades to sessions.
package storage

import (
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/swim/internal/models"
	"github.com/harperreed/swim/internal/workout"
)

const workoutColumns = `id, name, description, total_distance, items, created_at, updated_at`

// CreateWorkout validates and stores a new workout. The cached total
// distance is recomputed before writing.
func (d *DB) CreateWorkout(w *models.Workout) error {
	if err := workout.Prepare(w); err != nil {
		return fmt.Errorf("create workout: %w", err)
	}

	items, err := json.Marshal(models.NodesToDocs(w.Items))
	if err != nil {
		return fmt.Errorf("encode workout items: %w", err)
	}

	query := `
		INSERT INTO workouts (` + workoutColumns + `)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`
	_, err = d.db.Exec(query,
		w.ID.String(),
		w.Name,
		w.Description,
		w.TotalDistance,
		string(items),
		w.CreatedAt.UTC().Format(time.RFC3339),
		w.UpdatedAt.UTC().Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("create workout: %w", err)
	}
	return nil
}

// GetWorkout retrieves a workout by ID or ID prefix.
func (d *DB) GetWorkout(idOrPrefix string) (*models.Workout, error) {
	id, err := d.resolveID("workouts", idOrPrefix)
	if err != nil {
		return nil, err
	}

	query := `SELECT ` + workoutColumns + ` FROM workouts WHERE id = ?`
	return scanWorkout(d.db.QueryRow(query, id))
}

// ListWorkouts retrieves workouts, optionally filtered by a case-insensitive
// name search. Results are sorted by UpdatedAt descending.
func (d *DB) ListWorkouts(search *string, limit int) ([]*models.Workout, error) {
	query := `SELECT ` + workoutColumns + ` FROM workouts`
	var args []interface{}

	if search != nil && *search != "" {
		query += ` WHERE LOWER(name) LIKE '%' || LOWER(?) || '%'`
		args = append(args, *search)
	}
	query += ` ORDER BY updated_at DESC, name ASC`

	if limit > 0 {
		query += " LIMIT ?"
		args = append(args, limit)
	}

	rows, err := d.db.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}
	defer rows.Close()

	var workouts []*models.Workout
	for rows.Next() {
		w, err := scanWorkout(rows)
		if err != nil {
			return nil, err
		}
		workouts = append(workouts, w)
	}
	return workouts, rows.Err()
}

// UpdateWorkout replaces a stored workout's fields and tree.
func (d *DB) UpdateWorkout(w *models.Workout) error {
	if err := workout.Prepare(w); err != nil {
		return fmt.Errorf("update workout: %w", err)
	}
	w.UpdatedAt = time.Now()

	items, err := json.Marshal(models.NodesToDocs(w.Items))
	if err != nil {
		return fmt.Errorf("encode workout items: %w", err)
	}

	result, err := d.db.Exec(`
		UPDATE workouts
		SET name = ?, description = ?, total_distance = ?, items = ?, updated_at = ?
		WHERE id = ?
	`, w.Name, w.Description, w.TotalDistance, string(items),
		w.UpdatedAt.UTC().Format(time.RFC3339), w.ID.String())
	if err != nil {
		return fmt.Errorf("update workout: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("update workout: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("not found: %s", w.ID)
	}
	return nil
}

// DeleteWorkout removes a workout with its sessions and times (cascade delete).
func (d *DB) DeleteWorkout(idOrPrefix string) error {
	id, err := d.resolveID("workouts", idOrPrefix)
	if err != nil {
		return fmt.Errorf("delete workout: %w", err)
	}

	result, err := d.db.Exec("DELETE FROM workouts WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete workout: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete workout: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("not found: %s", idOrPrefix)
	}

	return nil
}

// resolveID finds the full ID in table from an ID or unique prefix.
func (d *DB) resolveID(table, idOrPrefix string) (string, error) {
	if isFullUUID(idOrPrefix) {
		return idOrPrefix, nil
	}

	query := `SELECT id FROM ` + table + ` WHERE id LIKE ? || '%'`
	rows, err := d.db.Query(query, idOrPrefix)
	if err != nil {
		return "", fmt.Errorf("resolve ID: %w", err)
	}
	defer rows.Close()

	var matches []string
	for rows.Next() {
		var id string
		if err := rows.Scan(&id); err != nil {
			return "", fmt.Errorf("scan ID: %w", err)
		}
		matches = append(matches, id)
	}

	if len(matches) == 0 {
		return "", fmt.Errorf("not found: %s", idOrPrefix)
	}
	if len(matches) > 1 {
		return "", fmt.Errorf("ambiguous prefix %s: matches multiple records", idOrPrefix)
	}

	return matches[0], nil
}

// isFullUUID reports whether s has the shape of a complete UUID.
func isFullUUID(s string) bool {
	return len(s) == 36 && strings.Count(s, "-") == 4
}

// rowScanner is satisfied by *sql.Row and *sql.Rows.
type rowScanner interface {
	Scan(dest ...interface{}) error
}

// scanWorkout scans a single row into a Workout.
func scanWorkout(row rowScanner) (*models.Workout, error) {
	var w models.Workout
	var idStr, items, createdAt, updatedAt string
	var description sql.NullString

	err := row.Scan(&idStr, &w.Name, &description, &w.TotalDistance, &items, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, fmt.Errorf("not found")
		}
		return nil, fmt.Errorf("scan workout: %w", err)
	}

	var docs []models.NodeDoc
	if err := json.Unmarshal([]byte(items), &docs); err != nil {
		return nil, fmt.Errorf("decode workout items: %w", err)
	}
	w.Items, err = models.NodesFromDocs(docs)
	if err != nil {
		return nil, fmt.Errorf("decode workout items: %w", err)
	}

	w.ID, _ = uuid.Parse(idStr)
	w.Description = description.String
	w.CreatedAt, _ = time.Parse(time.RFC3339, createdAt)
	w.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt)

	return &w, nil
}
