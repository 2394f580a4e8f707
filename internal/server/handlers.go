// ABOUTME: HTTP handlers for workouts, sessions, and committed times.
// ABOUTME: Responses are JSON; errors are {"error": "..."} with a matching status.
package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/harperreed/swim/internal/models"
	"github.com/harperreed/swim/internal/timecode"
	"github.com/harperreed/swim/internal/workout"
	"go.uber.org/zap"
)

// StepsResponse is the body of GET /workouts/{id}/steps.
type StepsResponse struct {
	WorkoutID     uuid.UUID             `json:"workout_id"`
	Name          string                `json:"name"`
	TotalDistance int                   `json:"total_distance"`
	Notation      string                `json:"notation"`
	Steps         []workout.StepSummary `json:"steps"`
}

// createSessionRequest is the body of POST /sessions.
type createSessionRequest struct {
	WorkoutID string `json:"workout_id"`
	Notes     string `json:"notes,omitempty"`
}

// recordTimeRequest is the body of POST /sessions/{id}/times.
type recordTimeRequest struct {
	ID         uuid.UUID `json:"id"`
	StepID     string    `json:"step_id"`
	SwimmerID  string    `json:"swimmer_id"`
	Repetition int       `json:"repetition"`
	Round      string    `json:"round,omitempty"`
	TimeCode   string    `json:"time_code"`
	RecordedAt time.Time `json:"recorded_at"`
}

func (s *Server) handleListWorkouts(w http.ResponseWriter, r *http.Request) {
	var search *string
	if q := r.URL.Query().Get("search"); q != "" {
		search = &q
	}
	limit := 0
	if l := r.URL.Query().Get("limit"); l != "" {
		n, err := strconv.Atoi(l)
		if err != nil || n < 0 {
			writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid limit"})
			return
		}
		limit = n
	}

	workouts, err := s.repo.ListWorkouts(search, limit)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if workouts == nil {
		workouts = []*models.Workout{}
	}
	writeJSON(w, http.StatusOK, workouts)
}

func (s *Server) handleGetWorkout(w http.ResponseWriter, r *http.Request) {
	wo, err := s.repo.GetWorkout(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, wo)
}

func (s *Server) handleWorkoutSteps(w http.ResponseWriter, r *http.Request) {
	wo, err := s.repo.GetWorkout(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusOK, StepsResponse{
		WorkoutID:     wo.ID,
		Name:          wo.Name,
		TotalDistance: workout.TotalDistance(wo.Items),
		Notation:      workout.NotationLine(wo.Items),
		Steps:         workout.Summarize(workout.Flatten(wo.Items)),
	})
}

func (s *Server) handleCreateSession(w http.ResponseWriter, r *http.Request) {
	var req createSessionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.WorkoutID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "workout_id required"})
		return
	}

	wo, err := s.repo.GetWorkout(req.WorkoutID)
	if err != nil {
		s.writeError(w, err)
		return
	}

	sess := models.NewSession(wo.ID).WithNotes(req.Notes)
	if err := s.repo.CreateSession(sess); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, sess)
}

func (s *Server) handleListTimes(w http.ResponseWriter, r *http.Request) {
	sess, err := s.repo.GetSession(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	records, err := s.repo.ListTimeRecords(sess.ID)
	if err != nil {
		s.writeError(w, err)
		return
	}
	if records == nil {
		records = []*models.TimeRecord{}
	}
	writeJSON(w, http.StatusOK, records)
}

func (s *Server) handleRecordTime(w http.ResponseWriter, r *http.Request) {
	sess, err := s.repo.GetSession(chi.URLParam(r, "id"))
	if err != nil {
		s.writeError(w, err)
		return
	}

	var req recordTimeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "invalid JSON: " + err.Error()})
		return
	}
	if req.SwimmerID == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "swimmer_id required"})
		return
	}

	wo, err := s.repo.GetWorkout(sess.WorkoutID.String())
	if err != nil {
		s.writeError(w, err)
		return
	}
	if err := workout.CheckStep(wo.Items, req.StepID, req.Repetition); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	code, err := timecode.Complete(req.TimeCode)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	round, err := workout.ResolveRound(wo.Items, req.StepID, req.Round)
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": err.Error()})
		return
	}

	key := models.TimeKey{StepID: req.StepID, SwimmerID: req.SwimmerID, Repetition: req.Repetition}
	rec := models.NewTimeRecord(sess.ID, key, code).WithRound(round)
	if req.ID != uuid.Nil {
		rec.ID = req.ID
	}
	if !req.RecordedAt.IsZero() {
		rec.RecordedAt = req.RecordedAt
	}

	if err := s.repo.SaveTimeRecord(rec); err != nil {
		s.writeError(w, err)
		return
	}
	writeJSON(w, http.StatusCreated, rec)
}

// writeError maps storage errors onto HTTP statuses.
func (s *Server) writeError(w http.ResponseWriter, err error) {
	status := http.StatusInternalServerError
	msg := err.Error()
	switch {
	case errors.Is(err, models.ErrInvalidWorkout):
		status = http.StatusBadRequest
	case strings.Contains(msg, "not found"):
		status = http.StatusNotFound
	case strings.Contains(msg, "ambiguous prefix"):
		status = http.StatusBadRequest
	}
	if status == http.StatusInternalServerError {
		s.log.Error("request failed", zap.Error(err))
	}
	writeJSON(w, status, map[string]string{"error": msg})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
