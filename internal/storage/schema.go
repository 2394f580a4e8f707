// ABOUTME: SQLite schema definition and initialization.
// ABOUTME: Defines tables for workouts, sessions, and time_records.
package storage

// initSchema creates or updates the database schema.
func (d *DB) initSchema() error {
	schema := `
	CREATE TABLE IF NOT EXISTS workouts (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		total_distance INTEGER NOT NULL DEFAULT 0,
		items TEXT NOT NULL,
		created_at DATETIME NOT NULL,
		updated_at DATETIME NOT NULL
	);

	CREATE TABLE IF NOT EXISTS sessions (
		id TEXT PRIMARY KEY,
		workout_id TEXT NOT NULL,
		started_at DATETIME NOT NULL,
		notes TEXT,
		FOREIGN KEY (workout_id) REFERENCES workouts(id) ON DELETE CASCADE
	);

	CREATE TABLE IF NOT EXISTS time_records (
		id TEXT PRIMARY KEY,
		session_id TEXT NOT NULL,
		step_id TEXT NOT NULL,
		swimmer_id TEXT NOT NULL,
		repetition INTEGER NOT NULL,
		round TEXT NOT NULL DEFAULT '',
		time_code TEXT NOT NULL,
		recorded_at DATETIME NOT NULL,
		FOREIGN KEY (session_id) REFERENCES sessions(id) ON DELETE CASCADE,
		UNIQUE (session_id, step_id, swimmer_id, repetition, round)
	);

	CREATE INDEX IF NOT EXISTS idx_workouts_updated ON workouts(updated_at DESC);
	CREATE INDEX IF NOT EXISTS idx_sessions_workout ON sessions(workout_id, started_at DESC);
	CREATE INDEX IF NOT EXISTS idx_time_records_session ON time_records(session_id);
	`

	_, err := d.db.Exec(schema)
	return err
}
