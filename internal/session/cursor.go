// ABOUTME: Live session cursor over a flattened workout with per-swimmer time capture.
// ABOUTME: Buffers are keyed by step, swimmer, and repetition; commits may run asynchronously.
package session

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/harperreed/swim/internal/models"
	"github.com/harperreed/swim/internal/timecode"
	"github.com/harperreed/swim/internal/workout"
	"go.uber.org/zap"
)

var (
	// ErrNoContent is returned when the workout flattens to zero steps.
	ErrNoContent = errors.New("workout has no steps")
	// ErrEmptyBuffer is returned when committing a key with no typed time.
	ErrEmptyBuffer = errors.New("no time entered")
	// ErrRepetitionRange is returned for a repetition outside 1..RepeatCount.
	ErrRepetitionRange = errors.New("repetition out of range")
	// ErrInactiveSwimmer is returned when typing or saving a time for a swimmer not toggled active.
	ErrInactiveSwimmer = errors.New("swimmer is not active")
)

// Committer persists a finalized time record.
type Committer interface {
	CommitTime(ctx context.Context, rec *models.TimeRecord) error
}

// CommitFunc adapts a function to Committer.
type CommitFunc func(ctx context.Context, rec *models.TimeRecord) error

// CommitTime calls f.
func (f CommitFunc) CommitTime(ctx context.Context, rec *models.TimeRecord) error {
	return f(ctx, rec)
}

// CommitResult reports the outcome of an asynchronous commit.
type CommitResult struct {
	Key    models.TimeKey
	Record *models.TimeRecord
	Err    error
}

// Cursor tracks the coach's position in a workout during a live session.
// The active swimmer set is shared across steps and survives navigation.
type Cursor struct {
	sessionID uuid.UUID
	committer Committer
	log       *zap.Logger

	mu      sync.Mutex
	workout *models.Workout
	entries []workout.Entry
	index   int
	active  map[string]bool
	buffers map[models.TimeKey]string

	inflight sync.WaitGroup
}

// New creates a cursor positioned at the first step of w.
func New(w *models.Workout, sessionID uuid.UUID, committer Committer, log *zap.Logger) *Cursor {
	if log == nil {
		log = zap.NewNop()
	}
	c := &Cursor{
		sessionID: sessionID,
		committer: committer,
		log:       log.With(zap.String("session", sessionID.String())),
		active:    make(map[string]bool),
		buffers:   make(map[models.TimeKey]string),
	}
	c.load(w)
	return c
}

func (c *Cursor) load(w *models.Workout) {
	c.workout = w
	c.entries = workout.Flatten(w.Items)
	if c.index >= len(c.entries) {
		c.index = max(len(c.entries)-1, 0)
	}
}

// Reload re-flattens after the workout changed. The position is clamped to
// the new length; active swimmers and buffers are kept.
func (c *Cursor) Reload(w *models.Workout) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.load(w)
}

// SessionID returns the session this cursor records into.
func (c *Cursor) SessionID() uuid.UUID {
	return c.sessionID
}

// Len returns the number of flattened entries.
func (c *Cursor) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Empty reports the terminal no-content state.
func (c *Cursor) Empty() bool {
	return c.Len() == 0
}

// Index returns the current position.
func (c *Cursor) Index() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.index
}

// Current returns the entry at the cursor. ok is false when empty.
func (c *Cursor) Current() (entry workout.Entry, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if len(c.entries) == 0 {
		return workout.Entry{}, false
	}
	return c.entries[c.index], true
}

// Next moves forward one entry. It returns false at the last entry.
func (c *Cursor) Next() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index >= len(c.entries)-1 {
		return false
	}
	c.index++
	return true
}

// Previous moves back one entry. It returns false at the first entry.
func (c *Cursor) Previous() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.index <= 0 {
		return false
	}
	c.index--
	return true
}

// Breadcrumb describes the repeat path of the current entry.
func (c *Cursor) Breadcrumb() string {
	entry, ok := c.Current()
	if !ok {
		return ""
	}
	return workout.Breadcrumb(entry.Path)
}

// Progress returns meters covered before the current entry and the
// workout total.
func (c *Cursor) Progress() (done, total int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return workout.EntriesDistance(c.entries[:c.index]), workout.TotalDistance(c.workout.Items)
}

// ToggleSwimmer flips a swimmer's active state and returns the new state.
func (c *Cursor) ToggleSwimmer(swimmerID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.active[swimmerID] {
		delete(c.active, swimmerID)
		return false
	}
	c.active[swimmerID] = true
	return true
}

// IsActive reports whether a swimmer is active.
func (c *Cursor) IsActive(swimmerID string) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.active[swimmerID]
}

// ActiveSwimmers returns active swimmer IDs in sorted order.
func (c *Cursor) ActiveSwimmers() []string {
	c.mu.Lock()
	defer c.mu.Unlock()
	ids := make([]string, 0, len(c.active))
	for id := range c.active {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Repetitions returns how many times the current step is swum.
func (c *Cursor) Repetitions() int {
	entry, ok := c.Current()
	if !ok {
		return 0
	}
	return max(entry.Step.RepeatCount, 1)
}

// keyLocked builds the buffer key for the current step. Caller holds mu.
func (c *Cursor) keyLocked(swimmerID string, rep int) (models.TimeKey, workout.Entry, error) {
	if len(c.entries) == 0 {
		return models.TimeKey{}, workout.Entry{}, ErrNoContent
	}
	entry := c.entries[c.index]
	if rep < 1 || rep > max(entry.Step.RepeatCount, 1) {
		return models.TimeKey{}, entry, fmt.Errorf("%w: %d", ErrRepetitionRange, rep)
	}
	return models.TimeKey{StepID: entry.Step.ID, SwimmerID: swimmerID, Repetition: rep}, entry, nil
}

// Input applies a raw field value to the buffer for swimmer and repetition
// on the current step and returns the live-formatted buffer.
func (c *Cursor) Input(swimmerID string, rep int, raw string) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active[swimmerID] {
		return "", fmt.Errorf("%w: %s", ErrInactiveSwimmer, swimmerID)
	}
	key, _, err := c.keyLocked(swimmerID, rep)
	if err != nil {
		return "", err
	}
	buf := timecode.OnInput(raw)
	if buf == "" {
		delete(c.buffers, key)
	} else {
		c.buffers[key] = buf
	}
	return buf, nil
}

// Blur completes the buffer for swimmer and repetition on the current step.
func (c *Cursor) Blur(swimmerID string, rep int) (string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.active[swimmerID] {
		return "", fmt.Errorf("%w: %s", ErrInactiveSwimmer, swimmerID)
	}
	key, _, err := c.keyLocked(swimmerID, rep)
	if err != nil {
		return "", err
	}
	buf, ok := c.buffers[key]
	if !ok {
		return "", nil
	}
	buf = timecode.OnBlur(buf)
	c.buffers[key] = buf
	return buf, nil
}

// Buffer returns the buffer for swimmer and repetition on the current step.
func (c *Cursor) Buffer(swimmerID string, rep int) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	key, _, err := c.keyLocked(swimmerID, rep)
	if err != nil {
		return ""
	}
	return c.buffers[key]
}

// BufferFor returns the buffer for any key, including steps the cursor is
// no longer on.
func (c *Cursor) BufferFor(key models.TimeKey) string {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buffers[key]
}

// Pending returns a copy of every non-empty buffer.
func (c *Cursor) Pending() map[models.TimeKey]string {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make(map[models.TimeKey]string, len(c.buffers))
	for k, v := range c.buffers {
		out[k] = v
	}
	return out
}

// Reset discards the buffer for swimmer and repetition on the current step.
func (c *Cursor) Reset(swimmerID string, rep int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if key, _, err := c.keyLocked(swimmerID, rep); err == nil {
		delete(c.buffers, key)
	}
}

// prepare validates the buffer and builds the record to commit. The buffer
// is replaced with its completed form and kept until the commit succeeds.
func (c *Cursor) prepare(swimmerID string, rep int) (models.TimeKey, *models.TimeRecord, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	key, entry, err := c.keyLocked(swimmerID, rep)
	if err != nil {
		return key, nil, err
	}
	if !c.active[swimmerID] {
		return key, nil, fmt.Errorf("%w: %s", ErrInactiveSwimmer, swimmerID)
	}
	buf := c.buffers[key]
	if buf == "" {
		return key, nil, ErrEmptyBuffer
	}
	code, err := timecode.Complete(buf)
	if err != nil {
		return key, nil, fmt.Errorf("%s rep %d: %w", swimmerID, rep, err)
	}
	c.buffers[key] = code
	rec := models.NewTimeRecord(c.sessionID, key, code).WithRound(entry.Round())
	return key, rec, nil
}

// finish clears the buffer after a successful commit, unless the coach has
// typed a different value in the meantime.
func (c *Cursor) finish(key models.TimeKey, rec *models.TimeRecord, err error) {
	if err != nil {
		c.log.Warn("commit failed",
			zap.String("step", key.StepID),
			zap.String("swimmer", key.SwimmerID),
			zap.Int("rep", key.Repetition),
			zap.Error(err))
		return
	}

	c.mu.Lock()
	if c.buffers[key] == rec.TimeCode {
		delete(c.buffers, key)
	}
	c.mu.Unlock()

	c.log.Debug("commit saved",
		zap.String("step", key.StepID),
		zap.String("swimmer", key.SwimmerID),
		zap.Int("rep", key.Repetition),
		zap.String("time", rec.TimeCode))
}

// Commit validates and persists the buffer for swimmer and repetition on
// the current step, waiting for the committer.
func (c *Cursor) Commit(ctx context.Context, swimmerID string, rep int) (*models.TimeRecord, error) {
	key, rec, err := c.prepare(swimmerID, rep)
	if err != nil {
		return nil, err
	}
	err = c.committer.CommitTime(ctx, rec)
	c.finish(key, rec, err)
	if err != nil {
		return nil, fmt.Errorf("commit time: %w", err)
	}
	return rec, nil
}

// CommitAsync validates synchronously, then commits in the background. The
// key is fixed at call time, so navigating away does not redirect the
// result. done, if non-nil, is called from the background goroutine.
func (c *Cursor) CommitAsync(ctx context.Context, swimmerID string, rep int, done func(CommitResult)) error {
	key, rec, err := c.prepare(swimmerID, rep)
	if err != nil {
		return err
	}

	c.inflight.Add(1)
	go func() {
		defer c.inflight.Done()
		err := c.committer.CommitTime(ctx, rec)
		c.finish(key, rec, err)
		if done != nil {
			res := CommitResult{Key: key, Record: rec}
			if err != nil {
				res.Err = fmt.Errorf("commit time: %w", err)
			}
			done(res)
		}
	}()
	return nil
}

// Wait blocks until all background commits have finished.
func (c *Cursor) Wait() {
	c.inflight.Wait()
}
