// ABOUTME: Tests for the REST API handlers and middleware.
// ABOUTME: Runs requests through the full router against an in-memory Badger store.
package server

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/harperreed/swim/internal/models"
	"github.com/harperreed/swim/internal/storage"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

func setupServer(t *testing.T) (*Server, storage.Repository, *models.Workout) {
	t.Helper()

	repo, err := storage.OpenKVInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	w := models.NewWorkout("Threshold").WithItems(
		models.NewStep(models.KindWarmup, 400, models.StrokeFreestyle),
		models.NewRepeat(3,
			models.NewStep(models.KindMain, 200, models.StrokeBackstroke).WithRepeatCount(2),
			models.NewRest(30),
		),
		models.NewStep(models.KindCooldown, 200, models.StrokeFreestyle),
	)
	require.NoError(t, repo.CreateWorkout(w))

	return New(repo, zap.NewNop()), repo, w
}

func do(t *testing.T, s *Server, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var rdr *bytes.Reader
	if body != "" {
		rdr = bytes.NewReader([]byte(body))
	} else {
		rdr = bytes.NewReader(nil)
	}
	req := httptest.NewRequest(method, path, rdr)
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func createSession(t *testing.T, s *Server, w *models.Workout) models.Session {
	t.Helper()
	rec := do(t, s, http.MethodPost, "/api/v1/sessions", `{"workout_id":"`+w.ID.String()[:8]+`"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var sess models.Session
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&sess))
	return sess
}

func mainStepID(w *models.Workout) string {
	return w.Items[1].(*models.Repeat).Items[0].NodeID()
}

func TestListWorkouts(t *testing.T) {
	s, _, w := setupServer(t)

	rec := do(t, s, http.MethodGet, "/api/v1/workouts", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))

	var workouts []*models.Workout
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&workouts))
	require.Len(t, workouts, 1)
	assert.Equal(t, w.ID, workouts[0].ID)
	assert.Equal(t, 1400, workouts[0].TotalDistance)

	rec = do(t, s, http.MethodGet, "/api/v1/workouts?search=nomatch", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "[]\n", rec.Body.String())

	rec = do(t, s, http.MethodGet, "/api/v1/workouts?limit=abc", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestGetWorkout(t *testing.T) {
	s, _, w := setupServer(t)

	rec := do(t, s, http.MethodGet, "/api/v1/workouts/"+w.ID.String()[:8], "")
	require.Equal(t, http.StatusOK, rec.Code)

	var got models.Workout
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&got))
	assert.Equal(t, w.ID, got.ID)
	assert.Len(t, got.Items, 3)

	rec = do(t, s, http.MethodGet, "/api/v1/workouts/ffffffff", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, rec.Body.String(), "not found")
}

func TestWorkoutSteps(t *testing.T) {
	s, _, w := setupServer(t)

	rec := do(t, s, http.MethodGet, "/api/v1/workouts/"+w.ID.String()+"/steps", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var resp StepsResponse
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&resp))
	assert.Equal(t, 1400, resp.TotalDistance)
	assert.Equal(t, "400Fr + 3x{200Bk + 30s Rest} + 200Fr", resp.Notation)
	require.Len(t, resp.Steps, 8)
	assert.Equal(t, "1/3", resp.Steps[1].Round)
	assert.Equal(t, "Round 1 of 3", resp.Steps[1].Breadcrumb)
	assert.Equal(t, 2, resp.Steps[1].Reps)
	assert.True(t, resp.Steps[2].Rest)
	assert.Equal(t, "3/3", resp.Steps[6].Round)
	assert.Equal(t, "", resp.Steps[7].Round)
}

func TestCreateSession(t *testing.T) {
	s, repo, w := setupServer(t)

	sess := createSession(t, s, w)
	assert.Equal(t, w.ID, sess.WorkoutID)

	stored, err := repo.GetSession(sess.ID.String())
	require.NoError(t, err)
	assert.Equal(t, sess.ID, stored.ID)

	rec := do(t, s, http.MethodPost, "/api/v1/sessions", `{"workout_id":"00000000"}`)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/sessions", `{}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = do(t, s, http.MethodPost, "/api/v1/sessions", `not json`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRecordAndListTimes(t *testing.T) {
	s, _, w := setupServer(t)
	sess := createSession(t, s, w)
	path := "/api/v1/sessions/" + sess.ID.String() + "/times"

	body := `{"step_id":"` + mainStepID(w) + `","swimmer_id":"A","repetition":2,"round":"1/3","time_code":"02:31"}`
	rec := do(t, s, http.MethodPost, path, body)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var saved models.TimeRecord
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&saved))
	assert.Equal(t, "02:31:00", saved.TimeCode)
	assert.Equal(t, 2, saved.Repetition)

	rec = do(t, s, http.MethodGet, path, "")
	require.Equal(t, http.StatusOK, rec.Code)

	var records []*models.TimeRecord
	require.NoError(t, json.NewDecoder(rec.Body).Decode(&records))
	require.Len(t, records, 1)
	assert.Equal(t, "A", records[0].SwimmerID)
	assert.Equal(t, "1/3", records[0].Round)
}

func TestRecordTimeRejectsInvalid(t *testing.T) {
	s, _, w := setupServer(t)
	sess := createSession(t, s, w)
	path := "/api/v1/sessions/" + sess.ID.String() + "/times"
	step := mainStepID(w)

	tests := []struct {
		name string
		body string
		want string
	}{
		{"too short", `{"step_id":"` + step + `","swimmer_id":"A","repetition":1,"time_code":"12:"}`, "invalid (minimum mm:ss)"},
		{"bad seconds", `{"step_id":"` + step + `","swimmer_id":"A","repetition":1,"time_code":"01:75:00"}`, "malformed"},
		{"unknown step", `{"step_id":"nope","swimmer_id":"A","repetition":1,"time_code":"01:00:00"}`, "unknown step"},
		{"rep out of range", `{"step_id":"` + step + `","swimmer_id":"A","repetition":3,"time_code":"01:00:00"}`, "out of range"},
		{"missing swimmer", `{"step_id":"` + step + `","repetition":1,"time_code":"01:00:00"}`, "swimmer_id required"},
		{"missing round", `{"step_id":"` + step + `","swimmer_id":"A","repetition":1,"time_code":"01:00:00"}`, "round required"},
		{"round out of range", `{"step_id":"` + step + `","swimmer_id":"A","repetition":1,"round":"4/3","time_code":"01:00:00"}`, "not valid"},
		{"bad json", `{`, "invalid JSON"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := do(t, s, http.MethodPost, path, tt.body)
			assert.Equal(t, http.StatusBadRequest, rec.Code)
			assert.Contains(t, rec.Body.String(), tt.want)
		})
	}

	rec := do(t, s, http.MethodGet, path, "")
	assert.Equal(t, "[]\n", rec.Body.String())
}

func TestTimesUnknownSession(t *testing.T) {
	s, _, _ := setupServer(t)

	rec := do(t, s, http.MethodGet, "/api/v1/sessions/deadbeef/times", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestRequestLogging(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	handler := RequestLogging(zap.New(core))(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusTeapot)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/v1/workouts", nil))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "request", entry.Message)
	fields := entry.ContextMap()
	assert.Equal(t, int64(http.StatusTeapot), fields["status"])
	assert.Equal(t, "/api/v1/workouts", fields["path"])
}

func TestCORSPreflight(t *testing.T) {
	s, _, _ := setupServer(t)

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/sessions", nil)
	req.Header.Set("Origin", "http://poolside.local")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	req.Header.Set("Access-Control-Request-Headers", "Content-Type")
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.True(t, strings.Contains(rec.Header().Get("Access-Control-Allow-Methods"), "POST"))

	req = httptest.NewRequest(http.MethodGet, "/api/v1/workouts", nil)
	req.Header.Set("Origin", "http://poolside.local")
	rec = httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestPanicRecovered(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	repo, err := storage.OpenKVInMemory()
	require.NoError(t, err)
	t.Cleanup(func() { _ = repo.Close() })

	s := New(repo, zap.New(core))
	s.router.Get("/boom", func(w http.ResponseWriter, r *http.Request) {
		panic("boom")
	})

	rec := do(t, s, http.MethodGet, "/boom", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, int64(http.StatusInternalServerError), fields["status"])
	assert.NotEmpty(t, fields["request_id"])
}
