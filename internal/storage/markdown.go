// ABOUTME: MarkdownStore keeps workouts and sessions as markdown files with YAML frontmatter.
// ABOUTME: Session files embed their time records; workout files embed the node tree.

package storage

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/harperreed/swim/internal/models"
	"github.com/harperreed/swim/internal/workout"
)

// MarkdownStore provides file-based storage for swim data using markdown files.
type MarkdownStore struct {
	dataDir string
}

// Compile-time check that MarkdownStore implements Repository.
var _ Repository = (*MarkdownStore)(nil)

// NewMarkdownStore creates a new markdown-backed store rooted at dataDir.
func NewMarkdownStore(dataDir string) (*MarkdownStore, error) {
	if err := ensureDir(dataDir); err != nil {
		return nil, fmt.Errorf("create data directory: %w", err)
	}
	return &MarkdownStore{dataDir: dataDir}, nil
}

// Close releases resources. For MarkdownStore this is a no-op.
func (s *MarkdownStore) Close() error {
	return nil
}

func (s *MarkdownStore) workoutsDir() string {
	return filepath.Join(s.dataDir, "workouts")
}

func (s *MarkdownStore) sessionsDir() string {
	return filepath.Join(s.dataDir, "sessions")
}

// workoutFilePath returns workouts/<slug>-<id_prefix>.md.
func (s *MarkdownStore) workoutFilePath(w *models.Workout) string {
	return filepath.Join(s.workoutsDir(),
		fmt.Sprintf("%s-%s.md", slugify(w.Name), w.ID.String()[:8]))
}

// sessionFilePath returns sessions/YYYY/MM/YYYY-MM-DD-<id_prefix>.md.
func (s *MarkdownStore) sessionFilePath(sess *models.Session) string {
	t := sess.StartedAt.UTC()
	return filepath.Join(s.sessionsDir(), t.Format("2006"), t.Format("01"),
		fmt.Sprintf("%s-%s.md", t.Format("2006-01-02"), sess.ID.String()[:8]))
}

// workoutFrontmatter holds the YAML frontmatter of a workout file.
type workoutFrontmatter struct {
	ID            string           `yaml:"id"`
	Name          string           `yaml:"name"`
	TotalDistance int              `yaml:"total_distance"`
	CreatedAt     string           `yaml:"created_at"`
	UpdatedAt     string           `yaml:"updated_at"`
	Items         []models.NodeDoc `yaml:"items"`
}

// sessionFrontmatter holds the YAML frontmatter of a session file.
type sessionFrontmatter struct {
	ID        string            `yaml:"id"`
	WorkoutID string            `yaml:"workout_id"`
	StartedAt string            `yaml:"started_at"`
	Times     []timeFrontmatter `yaml:"times,omitempty"`
}

// timeFrontmatter holds one time record inside a session file.
type timeFrontmatter struct {
	ID         string `yaml:"id"`
	StepID     string `yaml:"step_id"`
	SwimmerID  string `yaml:"swimmer_id"`
	Repetition int    `yaml:"repetition"`
	Round      string `yaml:"round,omitempty"`
	TimeCode   string `yaml:"time_code"`
	RecordedAt string `yaml:"recorded_at"`
}

// sessionFile is a session together with its embedded time records.
type sessionFile struct {
	session *models.Session
	times   []*models.TimeRecord
}

func workoutToFrontmatter(w *models.Workout) workoutFrontmatter {
	return workoutFrontmatter{
		ID:            w.ID.String(),
		Name:          w.Name,
		TotalDistance: w.TotalDistance,
		CreatedAt:     formatTime(w.CreatedAt),
		UpdatedAt:     formatTime(w.UpdatedAt),
		Items:         models.NodesToDocs(w.Items),
	}
}

func workoutFromFrontmatter(fm *workoutFrontmatter, description string) (*models.Workout, error) {
	id, err := uuid.Parse(fm.ID)
	if err != nil {
		return nil, fmt.Errorf("parse workout ID %q: %w", fm.ID, err)
	}
	createdAt, err := parseTime(fm.CreatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse created_at %q: %w", fm.CreatedAt, err)
	}
	updatedAt, err := parseTime(fm.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("parse updated_at %q: %w", fm.UpdatedAt, err)
	}
	items, err := models.NodesFromDocs(fm.Items)
	if err != nil {
		return nil, fmt.Errorf("decode items: %w", err)
	}

	return &models.Workout{
		ID:            id,
		Name:          fm.Name,
		Description:   description,
		TotalDistance: fm.TotalDistance,
		Items:         items,
		CreatedAt:     createdAt,
		UpdatedAt:     updatedAt,
	}, nil
}

func sessionToFrontmatter(sf *sessionFile) sessionFrontmatter {
	fm := sessionFrontmatter{
		ID:        sf.session.ID.String(),
		WorkoutID: sf.session.WorkoutID.String(),
		StartedAt: formatTime(sf.session.StartedAt),
	}
	for _, r := range sf.times {
		fm.Times = append(fm.Times, timeFrontmatter{
			ID:         r.ID.String(),
			StepID:     r.StepID,
			SwimmerID:  r.SwimmerID,
			Repetition: r.Repetition,
			Round:      r.Round,
			TimeCode:   r.TimeCode,
			RecordedAt: formatTime(r.RecordedAt),
		})
	}
	return fm
}

func sessionFromFrontmatter(fm *sessionFrontmatter, notes string) (*sessionFile, error) {
	id, err := uuid.Parse(fm.ID)
	if err != nil {
		return nil, fmt.Errorf("parse session ID %q: %w", fm.ID, err)
	}
	workoutID, err := uuid.Parse(fm.WorkoutID)
	if err != nil {
		return nil, fmt.Errorf("parse workout ID %q: %w", fm.WorkoutID, err)
	}
	startedAt, err := parseTime(fm.StartedAt)
	if err != nil {
		return nil, fmt.Errorf("parse started_at %q: %w", fm.StartedAt, err)
	}

	sf := &sessionFile{session: &models.Session{
		ID:        id,
		WorkoutID: workoutID,
		StartedAt: startedAt,
		Notes:     notes,
	}}
	for _, tf := range fm.Times {
		rid, err := uuid.Parse(tf.ID)
		if err != nil {
			continue
		}
		recordedAt, _ := parseTime(tf.RecordedAt)
		sf.times = append(sf.times, &models.TimeRecord{
			ID:         rid,
			SessionID:  id,
			StepID:     tf.StepID,
			SwimmerID:  tf.SwimmerID,
			Repetition: tf.Repetition,
			Round:      tf.Round,
			TimeCode:   tf.TimeCode,
			RecordedAt: recordedAt,
		})
	}
	return sf, nil
}

// readDoc reads a markdown file and decodes its frontmatter into fm.
func readDoc(path string, fm interface{}) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", err
	}

	body, err := decodeFrontmatter(data, fm)
	if err != nil {
		return "", fmt.Errorf("parse frontmatter in %s: %w", path, err)
	}
	return strings.TrimSpace(body), nil
}

// writeDoc renders fm plus an optional text body to path.
func writeDoc(path string, fm interface{}, text string) error {
	body := ""
	if text != "" {
		body = "\n" + text + "\n"
	}
	content, err := renderFrontmatter(fm, body)
	if err != nil {
		return err
	}
	return atomicWrite(path, []byte(content))
}

func readWorkoutFile(path string) (*models.Workout, error) {
	var fm workoutFrontmatter
	body, err := readDoc(path, &fm)
	if err != nil {
		return nil, err
	}
	return workoutFromFrontmatter(&fm, body)
}

func readSessionFile(path string) (*sessionFile, error) {
	var fm sessionFrontmatter
	body, err := readDoc(path, &fm)
	if err != nil {
		return nil, err
	}
	return sessionFromFrontmatter(&fm, body)
}

func (s *MarkdownStore) writeSessionFile(path string, sf *sessionFile) error {
	fm := sessionToFrontmatter(sf)
	if err := writeDoc(path, &fm, sf.session.Notes); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

// walkMarkdown calls fn for every .md file under dir.
func walkMarkdown(dir string, fn func(path string) error) error {
	if _, err := os.Stat(dir); os.IsNotExist(err) {
		return nil
	}
	return filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() || !strings.HasSuffix(path, ".md") {
			return nil
		}
		return fn(path)
	})
}

func (s *MarkdownStore) walkWorkoutFiles(fn func(path string, w *models.Workout) error) error {
	return walkMarkdown(s.workoutsDir(), func(path string) error {
		w, err := readWorkoutFile(path)
		if err != nil {
			return fmt.Errorf("read workout file %s: %w", path, err)
		}
		return fn(path, w)
	})
}

func (s *MarkdownStore) walkSessionFiles(fn func(path string, sf *sessionFile) error) error {
	return walkMarkdown(s.sessionsDir(), func(path string) error {
		sf, err := readSessionFile(path)
		if err != nil {
			return fmt.Errorf("read session file %s: %w", path, err)
		}
		return fn(path, sf)
	})
}

// matchID applies the full-ID or unique-prefix rule used by every backend.
type matchID struct {
	idOrPrefix string
	full       bool
	count      int
}

func newMatchID(idOrPrefix string) *matchID {
	return &matchID{idOrPrefix: idOrPrefix, full: isFullUUID(idOrPrefix)}
}

// try reports whether id matches; for full IDs it also signals that the
// walk can stop.
func (m *matchID) try(id string) (matched, stop bool) {
	if m.full {
		if id == m.idOrPrefix {
			m.count = 1
			return true, true
		}
		return false, false
	}
	if strings.HasPrefix(id, m.idOrPrefix) {
		m.count++
		return true, false
	}
	return false, false
}

func (m *matchID) err() error {
	if m.count == 0 {
		return fmt.Errorf("not found: %s", m.idOrPrefix)
	}
	if m.count > 1 {
		return fmt.Errorf("ambiguous prefix %s: matches multiple records", m.idOrPrefix)
	}
	return nil
}

func (s *MarkdownStore) findWorkoutFile(idOrPrefix string) (string, *models.Workout, error) {
	m := newMatchID(idOrPrefix)
	var foundPath string
	var found *models.Workout

	err := s.walkWorkoutFiles(func(path string, w *models.Workout) error {
		matched, stop := m.try(w.ID.String())
		if matched {
			foundPath, found = path, w
		}
		if stop {
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	if err := m.err(); err != nil {
		return "", nil, err
	}
	return foundPath, found, nil
}

func (s *MarkdownStore) findSessionFile(idOrPrefix string) (string, *sessionFile, error) {
	m := newMatchID(idOrPrefix)
	var foundPath string
	var found *sessionFile

	err := s.walkSessionFiles(func(path string, sf *sessionFile) error {
		matched, stop := m.try(sf.session.ID.String())
		if matched {
			foundPath, found = path, sf
		}
		if stop {
			return filepath.SkipAll
		}
		return nil
	})
	if err != nil {
		return "", nil, err
	}
	if err := m.err(); err != nil {
		return "", nil, err
	}
	return foundPath, found, nil
}

// --- Repository interface methods ---

// CreateWorkout validates and stores a new workout as a markdown file.
func (s *MarkdownStore) CreateWorkout(w *models.Workout) error {
	if err := workout.Prepare(w); err != nil {
		return fmt.Errorf("create workout: %w", err)
	}
	fm := workoutToFrontmatter(w)
	if err := writeDoc(s.workoutFilePath(w), &fm, w.Description); err != nil {
		return fmt.Errorf("write workout file: %w", err)
	}
	return nil
}

// GetWorkout retrieves a workout by ID or ID prefix.
func (s *MarkdownStore) GetWorkout(idOrPrefix string) (*models.Workout, error) {
	_, w, err := s.findWorkoutFile(idOrPrefix)
	return w, err
}

// ListWorkouts retrieves workouts, optionally filtered by a case-insensitive
// name search. Results are sorted by UpdatedAt descending.
func (s *MarkdownStore) ListWorkouts(search *string, limit int) ([]*models.Workout, error) {
	var workouts []*models.Workout

	err := s.walkWorkoutFiles(func(path string, w *models.Workout) error {
		if search != nil && !strings.Contains(strings.ToLower(w.Name), strings.ToLower(*search)) {
			return nil
		}
		workouts = append(workouts, w)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}

	sortWorkouts(workouts)
	if limit > 0 && len(workouts) > limit {
		workouts = workouts[:limit]
	}
	return workouts, nil
}

// UpdateWorkout rewrites a workout file, renaming it if the name changed.
func (s *MarkdownStore) UpdateWorkout(w *models.Workout) error {
	oldPath, _, err := s.findWorkoutFile(w.ID.String())
	if err != nil {
		return fmt.Errorf("update workout: %w", err)
	}
	if err := workout.Prepare(w); err != nil {
		return fmt.Errorf("update workout: %w", err)
	}
	w.UpdatedAt = time.Now()

	newPath := s.workoutFilePath(w)
	fm := workoutToFrontmatter(w)
	if err := writeDoc(newPath, &fm, w.Description); err != nil {
		return fmt.Errorf("write workout file: %w", err)
	}
	if newPath != oldPath {
		if err := os.Remove(oldPath); err != nil {
			return fmt.Errorf("remove old workout file: %w", err)
		}
	}
	return nil
}

// DeleteWorkout removes a workout file and every session file for it.
func (s *MarkdownStore) DeleteWorkout(idOrPrefix string) error {
	path, w, err := s.findWorkoutFile(idOrPrefix)
	if err != nil {
		return fmt.Errorf("delete workout: %w", err)
	}

	var sessionPaths []string
	err = s.walkSessionFiles(func(p string, sf *sessionFile) error {
		if sf.session.WorkoutID == w.ID {
			sessionPaths = append(sessionPaths, p)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("delete workout sessions: %w", err)
	}
	for _, p := range sessionPaths {
		if err := os.Remove(p); err != nil {
			return fmt.Errorf("delete session file: %w", err)
		}
	}

	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete workout file: %w", err)
	}
	return nil
}

// CreateSession stores a new session file. The workout must exist.
func (s *MarkdownStore) CreateSession(sess *models.Session) error {
	if _, _, err := s.findWorkoutFile(sess.WorkoutID.String()); err != nil {
		return fmt.Errorf("create session: workout %w", err)
	}
	return s.writeSessionFile(s.sessionFilePath(sess), &sessionFile{session: sess})
}

// GetSession retrieves a session by ID or ID prefix.
func (s *MarkdownStore) GetSession(idOrPrefix string) (*models.Session, error) {
	_, sf, err := s.findSessionFile(idOrPrefix)
	if err != nil {
		return nil, err
	}
	return sf.session, nil
}

// ListSessions retrieves sessions, optionally for one workout.
// Results are sorted by StartedAt descending (most recent first).
func (s *MarkdownStore) ListSessions(workoutID *uuid.UUID, limit int) ([]*models.Session, error) {
	var sessions []*models.Session

	err := s.walkSessionFiles(func(path string, sf *sessionFile) error {
		if workoutID != nil && sf.session.WorkoutID != *workoutID {
			return nil
		}
		sessions = append(sessions, sf.session)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	sortSessions(sessions)
	if limit > 0 && len(sessions) > limit {
		sessions = sessions[:limit]
	}
	return sessions, nil
}

// DeleteSession removes a session file with its embedded times.
func (s *MarkdownStore) DeleteSession(idOrPrefix string) error {
	path, _, err := s.findSessionFile(idOrPrefix)
	if err != nil {
		return fmt.Errorf("delete session: %w", err)
	}
	if err := os.Remove(path); err != nil {
		return fmt.Errorf("delete session file: %w", err)
	}
	return nil
}

// SaveTimeRecord adds or replaces a time record by rewriting the session file.
func (s *MarkdownStore) SaveTimeRecord(r *models.TimeRecord) error {
	path, sf, err := s.findSessionFile(r.SessionID.String())
	if err != nil {
		return fmt.Errorf("save time record: session %w", err)
	}

	sf.times = upsertTime(sf.times, r)
	return s.writeSessionFile(path, sf)
}

// ListTimeRecords returns all time records for a session in the order they
// were recorded.
func (s *MarkdownStore) ListTimeRecords(sessionID uuid.UUID) ([]*models.TimeRecord, error) {
	_, sf, err := s.findSessionFile(sessionID.String())
	if err != nil {
		return nil, fmt.Errorf("list time records: %w", err)
	}
	sortTimes(sf.times)
	return sf.times, nil
}

// GetAllData retrieves all data for export.
func (s *MarkdownStore) GetAllData() (*ExportData, error) {
	return collectAll(s)
}

// ImportData imports data from an export format.
func (s *MarkdownStore) ImportData(data *ExportData) error {
	return importAll(s, data)
}

// upsertTime replaces the record with the same key and round, or appends r.
// The stored record keeps its original ID.
func upsertTime(times []*models.TimeRecord, r *models.TimeRecord) []*models.TimeRecord {
	for _, existing := range times {
		if existing.Key() == r.Key() && existing.Round == r.Round {
			existing.TimeCode = r.TimeCode
			existing.RecordedAt = r.RecordedAt
			return times
		}
	}
	cp := *r
	return append(times, &cp)
}

func sortWorkouts(workouts []*models.Workout) {
	sort.SliceStable(workouts, func(i, j int) bool {
		if !workouts[i].UpdatedAt.Equal(workouts[j].UpdatedAt) {
			return workouts[i].UpdatedAt.After(workouts[j].UpdatedAt)
		}
		return workouts[i].Name < workouts[j].Name
	})
}

func sortSessions(sessions []*models.Session) {
	sort.SliceStable(sessions, func(i, j int) bool {
		return sessions[i].StartedAt.After(sessions[j].StartedAt)
	})
}

func sortTimes(times []*models.TimeRecord) {
	sort.SliceStable(times, func(i, j int) bool {
		if !times[i].RecordedAt.Equal(times[j].RecordedAt) {
			return times[i].RecordedAt.Before(times[j].RecordedAt)
		}
		return times[i].SwimmerID < times[j].SwimmerID
	})
}
