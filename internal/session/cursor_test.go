// ABOUTME: Tests for the live session cursor: navigation, swimmers, buffers, commits.
// ABOUTME: Async commits are checked against navigation and concurrent typing.
package session

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/harperreed/swim/internal/models"
	"github.com/harperreed/swim/internal/timecode"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func testWorkout() *models.Workout {
	return models.NewWorkout("Session test").WithItems(
		&models.Step{ID: "wu", Kind: models.KindWarmup, Distance: 400, Stroke: models.StrokeFreestyle, RepeatCount: 1},
		&models.Repeat{ID: "set", Repeats: 3, Items: []models.Node{
			&models.Step{ID: "bk", Kind: models.KindMain, Distance: 200, Stroke: models.StrokeBackstroke, RepeatCount: 2},
			&models.Step{ID: "rest", Kind: models.KindRest, RestSeconds: 30, RepeatCount: 1},
		}},
		&models.Step{ID: "cd", Kind: models.KindCooldown, Distance: 200, Stroke: models.StrokeFreestyle, RepeatCount: 1},
	)
}

// recorder is a Committer that stores records and can be told to fail.
type recorder struct {
	mu      sync.Mutex
	records []*models.TimeRecord
	err     error
}

func (r *recorder) CommitTime(ctx context.Context, rec *models.TimeRecord) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.err != nil {
		return r.err
	}
	r.records = append(r.records, rec)
	return nil
}

func newCursor(t *testing.T, c Committer) *Cursor {
	t.Helper()
	return New(testWorkout(), uuid.New(), c, zap.NewNop())
}

func TestNavigation(t *testing.T) {
	c := newCursor(t, &recorder{})
	require.Equal(t, 8, c.Len())
	assert.Equal(t, 0, c.Index())

	assert.False(t, c.Previous(), "previous at index 0 is a no-op")
	assert.Equal(t, 0, c.Index())

	for i := 1; i < 8; i++ {
		require.True(t, c.Next())
		assert.Equal(t, i, c.Index())
	}
	assert.False(t, c.Next(), "next at the last entry is a no-op")
	assert.Equal(t, 7, c.Index())

	entry, ok := c.Current()
	require.True(t, ok)
	assert.Equal(t, "cd", entry.Step.ID)

	require.True(t, c.Previous())
	assert.Equal(t, 6, c.Index())
}

func TestEmptyWorkout(t *testing.T) {
	c := New(models.NewWorkout("empty"), uuid.New(), &recorder{}, nil)

	assert.True(t, c.Empty())
	_, ok := c.Current()
	assert.False(t, ok)
	assert.False(t, c.Next())
	assert.False(t, c.Previous())
	assert.Equal(t, "", c.Breadcrumb())
	assert.Equal(t, 0, c.Repetitions())

	c.ToggleSwimmer("ana")
	_, err := c.Input("ana", 1, "1234")
	assert.ErrorIs(t, err, ErrNoContent)
}

func TestBreadcrumbAndProgress(t *testing.T) {
	c := newCursor(t, &recorder{})
	assert.Equal(t, "", c.Breadcrumb())

	c.Next()
	c.Next()
	c.Next()
	assert.Equal(t, "Round 2 of 3", c.Breadcrumb())

	done, total := c.Progress()
	assert.Equal(t, 400+200, done)
	assert.Equal(t, 1400, total)
}

func TestActiveSwimmersSurviveNavigation(t *testing.T) {
	c := newCursor(t, &recorder{})

	assert.True(t, c.ToggleSwimmer("ana"))
	assert.True(t, c.ToggleSwimmer("ben"))
	c.Next()
	assert.True(t, c.IsActive("ana"))
	assert.Equal(t, []string{"ana", "ben"}, c.ActiveSwimmers())

	assert.False(t, c.ToggleSwimmer("ben"))
	c.Previous()
	assert.Equal(t, []string{"ana"}, c.ActiveSwimmers())
}

func TestInput(t *testing.T) {
	c := newCursor(t, &recorder{})

	_, err := c.Input("ana", 1, "12")
	assert.ErrorIs(t, err, ErrInactiveSwimmer)

	c.ToggleSwimmer("ana")
	buf, err := c.Input("ana", 1, "ab12cd34ef56")
	require.NoError(t, err)
	assert.Equal(t, "12:34:56", buf)
	assert.Equal(t, "12:34:56", c.Buffer("ana", 1))

	_, err = c.Input("ana", 2, "12")
	assert.ErrorIs(t, err, ErrRepetitionRange, "warmup has a single repetition")

	c.Next() // bk, RepeatCount 2
	assert.Equal(t, 2, c.Repetitions())
	_, err = c.Input("ana", 2, "5")
	require.NoError(t, err)
	got, err := c.Blur("ana", 2)
	require.NoError(t, err)
	assert.Equal(t, "05:00:00", got)

	_, err = c.Input("ana", 2, "")
	require.NoError(t, err)
	assert.Empty(t, c.Buffer("ana", 2))
}

func TestInactiveSwimmerCannotCommit(t *testing.T) {
	rec := &recorder{}
	c := newCursor(t, rec)
	c.ToggleSwimmer("ana")
	_, err := c.Input("ana", 1, "0231")
	require.NoError(t, err)

	assert.False(t, c.ToggleSwimmer("ana"))

	_, err = c.Blur("ana", 1)
	assert.ErrorIs(t, err, ErrInactiveSwimmer)
	_, err = c.Commit(context.Background(), "ana", 1)
	assert.ErrorIs(t, err, ErrInactiveSwimmer)
	assert.ErrorIs(t, c.CommitAsync(context.Background(), "ana", 1, nil), ErrInactiveSwimmer)
	c.Wait()

	assert.Empty(t, rec.records)
	assert.Equal(t, "02:31", c.Buffer("ana", 1), "buffer is kept for when the swimmer is back")

	c.ToggleSwimmer("ana")
	got, err := c.Commit(context.Background(), "ana", 1)
	require.NoError(t, err)
	assert.Equal(t, "02:31:00", got.TimeCode)
}

func TestBuffersAreKeyedByStep(t *testing.T) {
	c := newCursor(t, &recorder{})
	c.ToggleSwimmer("ana")
	_, _ = c.Input("ana", 1, "0130")

	c.Next()
	assert.Empty(t, c.Buffer("ana", 1))

	c.Next()
	c.Next() // second pass of bk shares its buffer
	_, _ = c.Input("ana", 1, "0200")
	c.Previous()
	c.Previous()
	assert.Equal(t, "02:00", c.Buffer("ana", 1))

	c.Previous()
	assert.Equal(t, "01:30", c.Buffer("ana", 1))
}

func TestCommitSuccessClearsBuffer(t *testing.T) {
	rec := &recorder{}
	c := newCursor(t, rec)
	c.ToggleSwimmer("ana")
	c.Next() // bk round 1/3

	_, err := c.Input("ana", 1, "1234")
	require.NoError(t, err)

	got, err := c.Commit(context.Background(), "ana", 1)
	require.NoError(t, err)
	assert.Equal(t, "12:34:00", got.TimeCode)
	assert.Equal(t, "bk", got.StepID)
	assert.Equal(t, "1/3", got.Round)
	assert.Equal(t, c.SessionID(), got.SessionID)
	assert.Empty(t, c.Buffer("ana", 1))
	require.Len(t, rec.records, 1)
}

func TestCommitValidation(t *testing.T) {
	rec := &recorder{}
	c := newCursor(t, rec)
	c.ToggleSwimmer("ana")

	_, err := c.Commit(context.Background(), "ana", 1)
	assert.ErrorIs(t, err, ErrEmptyBuffer)

	_, _ = c.Input("ana", 1, "123")
	_, err = c.Commit(context.Background(), "ana", 1)
	assert.ErrorIs(t, err, timecode.ErrTooShort)
	assert.Equal(t, "12:3", c.Buffer("ana", 1), "rejected buffer is retained for correction")
	assert.Empty(t, rec.records)
}

func TestCommitRejectsSecondsOutOfRange(t *testing.T) {
	rec := &recorder{}
	c := newCursor(t, rec)
	c.ToggleSwimmer("ana")
	_, _ = c.Input("ana", 1, "1275")

	_, err := c.Commit(context.Background(), "ana", 1)
	assert.ErrorIs(t, err, timecode.ErrMalformed)
	assert.Equal(t, "12:75", c.Buffer("ana", 1))
	assert.Empty(t, rec.records)

	err = c.CommitAsync(context.Background(), "ana", 1, nil)
	c.Wait()
	assert.ErrorIs(t, err, timecode.ErrMalformed)
	assert.Empty(t, rec.records)

	_, _ = c.Input("ana", 1, "1259")
	got, err := c.Commit(context.Background(), "ana", 1)
	require.NoError(t, err)
	assert.Equal(t, "12:59:00", got.TimeCode)
}

func TestCommitFailureKeepsBuffer(t *testing.T) {
	rec := &recorder{err: errors.New("backend down")}
	c := newCursor(t, rec)
	c.ToggleSwimmer("ana")
	_, _ = c.Input("ana", 1, "1234")

	_, err := c.Commit(context.Background(), "ana", 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "backend down")
	assert.Equal(t, "12:34:00", c.Buffer("ana", 1))

	rec.err = nil
	_, err = c.Commit(context.Background(), "ana", 1)
	require.NoError(t, err, "retry after failure succeeds")
	assert.Empty(t, c.Buffer("ana", 1))
}

func TestCommitAsyncAfterNavigation(t *testing.T) {
	release := make(chan struct{})
	var committed *models.TimeRecord
	commit := CommitFunc(func(ctx context.Context, rec *models.TimeRecord) error {
		<-release
		committed = rec
		return nil
	})

	c := newCursor(t, commit)
	c.ToggleSwimmer("ana")
	_, _ = c.Input("ana", 1, "0059")

	results := make(chan CommitResult, 1)
	require.NoError(t, c.CommitAsync(context.Background(), "ana", 1, func(r CommitResult) { results <- r }))

	// Move on and start typing for the next step while the commit is in flight.
	c.Next()
	_, _ = c.Input("ana", 1, "0210")
	close(release)

	res := <-results
	c.Wait()
	require.NoError(t, res.Err)
	assert.Equal(t, models.TimeKey{StepID: "wu", SwimmerID: "ana", Repetition: 1}, res.Key)
	assert.Equal(t, "00:59:00", committed.TimeCode)
	assert.Empty(t, c.BufferFor(res.Key))
	assert.Equal(t, "02:10", c.Buffer("ana", 1), "current step buffer is untouched")
}

func TestCommitAsyncFailureKeepsBuffer(t *testing.T) {
	c := newCursor(t, &recorder{err: errors.New("timeout")})
	c.ToggleSwimmer("ana")
	_, _ = c.Input("ana", 1, "013050")

	results := make(chan CommitResult, 1)
	require.NoError(t, c.CommitAsync(context.Background(), "ana", 1, func(r CommitResult) { results <- r }))
	res := <-results
	c.Wait()

	require.Error(t, res.Err)
	assert.Equal(t, "01:30:50", c.BufferFor(res.Key))
}

func TestCommitAsyncValidationIsSynchronous(t *testing.T) {
	c := newCursor(t, &recorder{})
	c.ToggleSwimmer("ana")
	_, _ = c.Input("ana", 1, "9")

	called := false
	err := c.CommitAsync(context.Background(), "ana", 1, func(CommitResult) { called = true })
	c.Wait()
	assert.ErrorIs(t, err, timecode.ErrTooShort)
	assert.False(t, called)
}

func TestCommitAsyncKeepsNewerValue(t *testing.T) {
	release := make(chan struct{})
	c := newCursor(t, CommitFunc(func(ctx context.Context, rec *models.TimeRecord) error {
		<-release
		return nil
	}))
	c.ToggleSwimmer("ana")
	_, _ = c.Input("ana", 1, "0100")

	require.NoError(t, c.CommitAsync(context.Background(), "ana", 1, nil))
	_, _ = c.Input("ana", 1, "0105")
	close(release)
	c.Wait()

	assert.Equal(t, "01:05", c.Buffer("ana", 1))
}

func TestResetAndPending(t *testing.T) {
	c := newCursor(t, &recorder{})
	c.ToggleSwimmer("ana")
	c.ToggleSwimmer("ben")
	_, _ = c.Input("ana", 1, "1111")
	_, _ = c.Input("ben", 1, "2222")
	assert.Len(t, c.Pending(), 2)

	c.Reset("ana", 1)
	pending := c.Pending()
	assert.Len(t, pending, 1)
	assert.Equal(t, "22:22", pending[models.TimeKey{StepID: "wu", SwimmerID: "ben", Repetition: 1}])
}

func TestReloadClampsIndex(t *testing.T) {
	c := newCursor(t, &recorder{})
	for c.Next() {
	}
	require.Equal(t, 7, c.Index())

	short := models.NewWorkout("short").WithItems(&models.Step{ID: "only", Distance: 50, RepeatCount: 1})
	c.Reload(short)
	assert.Equal(t, 1, c.Len())
	assert.Equal(t, 0, c.Index())
}
