// ABOUTME: KVStore keeps swim data in an embedded Badger key-value database.
// ABOUTME: Records are JSON values under type-prefixed keys with prefix-based ID lookup.

package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/dgraph-io/badger/v3"
	"github.com/google/uuid"
	"github.com/harperreed/swim/internal/models"
	"github.com/harperreed/swim/internal/workout"
)

const (
	WorkoutPrefix = "workout:"
	SessionPrefix = "session:"
	TimePrefix    = "time:"
)

// KVStore implements Repository on top of Badger.
type KVStore struct {
	db   *badger.DB
	path string
}

// Compile-time check that KVStore implements Repository.
var _ Repository = (*KVStore)(nil)

// OpenKV opens or creates a Badger database in dir.
func OpenKV(dir string) (*KVStore, error) {
	if err := os.MkdirAll(dir, 0750); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	db, err := badger.Open(badger.DefaultOptions(dir).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open kv store: %w", err)
	}
	return &KVStore{db: db, path: dir}, nil
}

// OpenKVInMemory opens a Badger database that lives only in memory.
func OpenKVInMemory() (*KVStore, error) {
	db, err := badger.Open(badger.DefaultOptions("").WithInMemory(true).WithLogger(nil))
	if err != nil {
		return nil, fmt.Errorf("open kv store: %w", err)
	}
	return &KVStore{db: db}, nil
}

// Path returns the database directory. It is empty for in-memory stores.
func (s *KVStore) Path() string {
	return s.path
}

// Close closes the Badger database.
func (s *KVStore) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

func timePrefix(sessionID uuid.UUID) string {
	return TimePrefix + sessionID.String() + ":"
}

// setJSON stores v as JSON under key.
func setJSON(txn *badger.Txn, key string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("marshal %s: %w", key, err)
	}
	return txn.Set([]byte(key), data)
}

// getJSON decodes the value at key into v.
func getJSON(txn *badger.Txn, key string, v any) error {
	item, err := txn.Get([]byte(key))
	if err != nil {
		if errors.Is(err, badger.ErrKeyNotFound) {
			return fmt.Errorf("not found: %s", strings.TrimPrefix(key, keyType(key)))
		}
		return err
	}
	data, err := item.ValueCopy(nil)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}

func keyType(key string) string {
	if i := strings.Index(key, ":"); i >= 0 {
		return key[:i+1]
	}
	return ""
}

// scanPrefix calls fn with the key and value of every entry under prefix.
func scanPrefix(txn *badger.Txn, prefix string, fn func(key string, data []byte) error) error {
	it := txn.NewIterator(badger.DefaultIteratorOptions)
	defer it.Close()

	p := []byte(prefix)
	for it.Seek(p); it.ValidForPrefix(p); it.Next() {
		item := it.Item()
		data, err := item.ValueCopy(nil)
		if err != nil {
			return err
		}
		if err := fn(string(item.Key()), data); err != nil {
			return err
		}
	}
	return nil
}

// listByPrefix decodes every value under prefix as a T. Invalid entries are skipped.
func listByPrefix[T any](txn *badger.Txn, prefix string) ([]*T, error) {
	var results []*T
	err := scanPrefix(txn, prefix, func(_ string, data []byte) error {
		var v T
		if err := json.Unmarshal(data, &v); err != nil {
			return nil
		}
		results = append(results, &v)
		return nil
	})
	return results, err
}

// resolveKey finds the full key for an ID or unique ID prefix.
func resolveKey(txn *badger.Txn, typePrefix, idOrPrefix string) (string, error) {
	if isFullUUID(idOrPrefix) {
		key := typePrefix + idOrPrefix
		if _, err := txn.Get([]byte(key)); err != nil {
			if errors.Is(err, badger.ErrKeyNotFound) {
				return "", fmt.Errorf("not found: %s", idOrPrefix)
			}
			return "", err
		}
		return key, nil
	}

	it := txn.NewIterator(badger.IteratorOptions{PrefetchValues: false})
	defer it.Close()

	var matches []string
	p := []byte(typePrefix + idOrPrefix)
	for it.Seek(p); it.ValidForPrefix(p); it.Next() {
		matches = append(matches, string(it.Item().KeyCopy(nil)))
		if len(matches) > 1 {
			return "", fmt.Errorf("ambiguous prefix %s: matches multiple records", idOrPrefix)
		}
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("not found: %s", idOrPrefix)
	}
	return matches[0], nil
}

// deletePrefix removes every key under prefix.
func deletePrefix(txn *badger.Txn, prefix string) error {
	var keys []string
	if err := scanPrefix(txn, prefix, func(key string, _ []byte) error {
		keys = append(keys, key)
		return nil
	}); err != nil {
		return err
	}
	for _, k := range keys {
		if err := txn.Delete([]byte(k)); err != nil {
			return err
		}
	}
	return nil
}

// CreateWorkout validates and stores a new workout.
func (s *KVStore) CreateWorkout(w *models.Workout) error {
	if err := workout.Prepare(w); err != nil {
		return fmt.Errorf("create workout: %w", err)
	}
	return s.db.Update(func(txn *badger.Txn) error {
		return setJSON(txn, WorkoutPrefix+w.ID.String(), w)
	})
}

// GetWorkout retrieves a workout by ID or ID prefix.
func (s *KVStore) GetWorkout(idOrPrefix string) (*models.Workout, error) {
	var w models.Workout
	err := s.db.View(func(txn *badger.Txn) error {
		key, err := resolveKey(txn, WorkoutPrefix, idOrPrefix)
		if err != nil {
			return err
		}
		return getJSON(txn, key, &w)
	})
	if err != nil {
		return nil, err
	}
	return &w, nil
}

// ListWorkouts retrieves workouts, optionally filtered by a case-insensitive
// name search. Results are sorted by UpdatedAt descending.
func (s *KVStore) ListWorkouts(search *string, limit int) ([]*models.Workout, error) {
	var all []*models.Workout
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		all, err = listByPrefix[models.Workout](txn, WorkoutPrefix)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}

	var workouts []*models.Workout
	for _, w := range all {
		if search != nil && !strings.Contains(strings.ToLower(w.Name), strings.ToLower(*search)) {
			continue
		}
		workouts = append(workouts, w)
	}

	sortWorkouts(workouts)
	if limit > 0 && len(workouts) > limit {
		workouts = workouts[:limit]
	}
	return workouts, nil
}

// UpdateWorkout replaces a stored workout.
func (s *KVStore) UpdateWorkout(w *models.Workout) error {
	if err := workout.Prepare(w); err != nil {
		return fmt.Errorf("update workout: %w", err)
	}
	w.UpdatedAt = time.Now()

	return s.db.Update(func(txn *badger.Txn) error {
		key, err := resolveKey(txn, WorkoutPrefix, w.ID.String())
		if err != nil {
			return fmt.Errorf("update workout: %w", err)
		}
		return setJSON(txn, key, w)
	})
}

// DeleteWorkout removes a workout with its sessions and times.
func (s *KVStore) DeleteWorkout(idOrPrefix string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		key, err := resolveKey(txn, WorkoutPrefix, idOrPrefix)
		if err != nil {
			return fmt.Errorf("delete workout: %w", err)
		}
		workoutID := strings.TrimPrefix(key, WorkoutPrefix)

		sessions, err := listByPrefix[models.Session](txn, SessionPrefix)
		if err != nil {
			return err
		}
		for _, sess := range sessions {
			if sess.WorkoutID.String() != workoutID {
				continue
			}
			if err := deletePrefix(txn, timePrefix(sess.ID)); err != nil {
				return err
			}
			if err := txn.Delete([]byte(SessionPrefix + sess.ID.String())); err != nil {
				return err
			}
		}
		return txn.Delete([]byte(key))
	})
}

// CreateSession stores a new session. The workout must exist.
func (s *KVStore) CreateSession(sess *models.Session) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := resolveKey(txn, WorkoutPrefix, sess.WorkoutID.String()); err != nil {
			return fmt.Errorf("create session: workout %w", err)
		}
		return setJSON(txn, SessionPrefix+sess.ID.String(), sess)
	})
}

// GetSession retrieves a session by ID or ID prefix.
func (s *KVStore) GetSession(idOrPrefix string) (*models.Session, error) {
	var sess models.Session
	err := s.db.View(func(txn *badger.Txn) error {
		key, err := resolveKey(txn, SessionPrefix, idOrPrefix)
		if err != nil {
			return err
		}
		return getJSON(txn, key, &sess)
	})
	if err != nil {
		return nil, err
	}
	return &sess, nil
}

// ListSessions retrieves sessions, optionally for one workout.
// Results are sorted by StartedAt descending (most recent first).
func (s *KVStore) ListSessions(workoutID *uuid.UUID, limit int) ([]*models.Session, error) {
	var all []*models.Session
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		all, err = listByPrefix[models.Session](txn, SessionPrefix)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	var sessions []*models.Session
	for _, sess := range all {
		if workoutID != nil && sess.WorkoutID != *workoutID {
			continue
		}
		sessions = append(sessions, sess)
	}

	sortSessions(sessions)
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions, nil
}

// DeleteSession removes a session and its time records.
func (s *KVStore) DeleteSession(idOrPrefix string) error {
	return s.db.Update(func(txn *badger.Txn) error {
		key, err := resolveKey(txn, SessionPrefix, idOrPrefix)
		if err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		id, err := uuid.Parse(strings.TrimPrefix(key, SessionPrefix))
		if err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
		if err := deletePrefix(txn, timePrefix(id)); err != nil {
			return err
		}
		return txn.Delete([]byte(key))
	})
}

// SaveTimeRecord inserts a time record or replaces the time of an existing
// record for the same key and round.
func (s *KVStore) SaveTimeRecord(r *models.TimeRecord) error {
	return s.db.Update(func(txn *badger.Txn) error {
		if _, err := resolveKey(txn, SessionPrefix, r.SessionID.String()); err != nil {
			return fmt.Errorf("save time record: session %w", err)
		}

		existing, err := listByPrefix[models.TimeRecord](txn, timePrefix(r.SessionID))
		if err != nil {
			return err
		}
		for _, e := range existing {
			if e.Key() == r.Key() && e.Round == r.Round {
				e.TimeCode = r.TimeCode
				e.RecordedAt = r.RecordedAt
				return setJSON(txn, timePrefix(r.SessionID)+e.ID.String(), e)
			}
		}
		return setJSON(txn, timePrefix(r.SessionID)+r.ID.String(), r)
	})
}

// ListTimeRecords returns all time records for a session in the order they
// were recorded.
func (s *KVStore) ListTimeRecords(sessionID uuid.UUID) ([]*models.TimeRecord, error) {
	var records []*models.TimeRecord
	err := s.db.View(func(txn *badger.Txn) error {
		var err error
		records, err = listByPrefix[models.TimeRecord](txn, timePrefix(sessionID))
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("list time records: %w", err)
	}
	sortTimes(records)
	return records, nil
}

// GetAllData retrieves all data for export.
func (s *KVStore) GetAllData() (*ExportData, error) {
	return collectAll(s)
}

// ImportData imports data from an export format.
func (s *KVStore) ImportData(data *ExportData) error {
	return importAll(s, data)
}
