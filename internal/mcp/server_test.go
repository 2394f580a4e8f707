// ABOUTME: Tests for MCP server, tools, and resources.
// ABOUTME: Calls tool and resource handlers directly against a temp SQLite store.
package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/harperreed/swim/internal/models"
	"github.com/harperreed/swim/internal/session"
	"github.com/harperreed/swim/internal/storage"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"
)

const thresholdYAML = `name: Threshold
description: tuesday group
items:
  - kind: warmup
    distance: 400
    stroke: freestyle
  - repeats: 3
    items:
      - id: main
        kind: main
        distance: 200
        stroke: backstroke
        repeat_count: 2
      - type: rest
        rest_seconds: 30
  - kind: cooldown
    distance: 200
    stroke: freestyle
`

// setupTestDB creates a test database in a temp directory.
func setupTestDB(t *testing.T) *storage.DB {
	t.Helper()

	tmpDir, err := os.MkdirTemp("", "swim-mcp-test-*")
	if err != nil {
		t.Fatalf("Failed to create temp dir: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(tmpDir) })

	db, err := storage.Open(filepath.Join(tmpDir, "swim.db"))
	if err != nil {
		t.Fatalf("Failed to open database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func setupServer(t *testing.T) (*Server, *storage.DB) {
	t.Helper()
	db := setupTestDB(t)
	server, err := NewServer(db, nil, nil)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	return server, db
}

func addThreshold(t *testing.T, server *Server) workoutOutput {
	t.Helper()
	_, out, err := server.handleAddWorkout(context.Background(), nil, addWorkoutInput{Definition: thresholdYAML})
	if err != nil {
		t.Fatalf("add_workout failed: %v", err)
	}
	return out
}

func TestNewServer(t *testing.T) {
	db := setupTestDB(t)

	server, err := NewServer(db, nil, nil)
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}

	if server == nil {
		t.Fatal("Expected non-nil server")
	}
	if server.mcpServer == nil {
		t.Error("Expected non-nil mcpServer")
	}
	if server.repo == nil {
		t.Error("Expected non-nil repo")
	}
	if server.committer == nil {
		t.Error("Expected default committer")
	}
}

func TestHandleAddWorkout(t *testing.T) {
	server, db := setupServer(t)
	ctx := context.Background()

	tests := []struct {
		name       string
		definition string
		wantErr    bool
		errSubstr  string
	}{
		{name: "yaml definition", definition: thresholdYAML},
		{name: "json definition", definition: `{"name":"Sprint","items":[{"distance":50,"stroke":"butterfly","repeat_count":4}]}`},
		{name: "empty definition", definition: "  ", wantErr: true, errSubstr: "required"},
		{name: "unknown node type", definition: "name: x\nitems:\n  - type: bogus\n", wantErr: true, errSubstr: "unknown node type"},
		{name: "invalid tree", definition: "name: x\nitems:\n  - repeats: 2\n    items: []\n", wantErr: true, errSubstr: "failed to create workout"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, out, err := server.handleAddWorkout(ctx, nil, addWorkoutInput{Definition: tt.definition})
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if !strings.Contains(err.Error(), tt.errSubstr) {
					t.Errorf("error %q should contain %q", err.Error(), tt.errSubstr)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if out.ID == "" {
				t.Error("expected an ID")
			}
			if _, err := db.GetWorkout(out.ID); err != nil {
				t.Errorf("workout not stored: %v", err)
			}
		})
	}
}

func TestHandleAddWorkoutComputesTotals(t *testing.T) {
	server, _ := setupServer(t)

	out := addThreshold(t, server)
	if out.TotalDistance != 1400 {
		t.Errorf("TotalDistance = %d, want 1400", out.TotalDistance)
	}
	if out.Notation != "400Fr + 3x{200Bk + 30s Rest} + 200Fr" {
		t.Errorf("Notation = %q", out.Notation)
	}
	if !strings.Contains(out.Message, "Threshold") {
		t.Errorf("Message = %q", out.Message)
	}
}

func TestHandleListWorkouts(t *testing.T) {
	server, _ := setupServer(t)
	ctx := context.Background()

	_, out, err := server.handleListWorkouts(ctx, nil, listWorkoutsInput{})
	if err != nil {
		t.Fatalf("list_workouts failed: %v", err)
	}
	if len(out.Workouts) != 0 || out.Message != "No workouts found." {
		t.Errorf("empty list = %+v", out)
	}

	addThreshold(t, server)

	_, out, err = server.handleListWorkouts(ctx, nil, listWorkoutsInput{})
	if err != nil {
		t.Fatalf("list_workouts failed: %v", err)
	}
	if len(out.Workouts) != 1 {
		t.Fatalf("expected 1 workout, got %d", len(out.Workouts))
	}
	if out.Workouts[0].TotalDistance != 1400 {
		t.Errorf("TotalDistance = %d", out.Workouts[0].TotalDistance)
	}

	_, out, err = server.handleListWorkouts(ctx, nil, listWorkoutsInput{Search: "nomatch"})
	if err != nil {
		t.Fatalf("list_workouts failed: %v", err)
	}
	if len(out.Workouts) != 0 {
		t.Errorf("search should filter, got %d", len(out.Workouts))
	}
}

func TestHandleGetWorkout(t *testing.T) {
	server, _ := setupServer(t)
	ctx := context.Background()
	added := addThreshold(t, server)

	_, out, err := server.handleGetWorkout(ctx, nil, getWorkoutInput{ID: added.ID[:8]})
	if err != nil {
		t.Fatalf("get_workout failed: %v", err)
	}
	if out.Description != "tuesday group" {
		t.Errorf("Description = %q", out.Description)
	}
	if len(out.Steps) != 8 {
		t.Fatalf("expected 8 flattened steps, got %d", len(out.Steps))
	}
	if out.Steps[1].StepID != "main" || out.Steps[1].Reps != 2 || out.Steps[1].Round != "1/3" {
		t.Errorf("Steps[1] = %+v", out.Steps[1])
	}
	if out.Steps[7].Breadcrumb != "" {
		t.Errorf("top-level step should have no breadcrumb, got %q", out.Steps[7].Breadcrumb)
	}

	_, _, err = server.handleGetWorkout(ctx, nil, getWorkoutInput{ID: "ffffffff"})
	if err == nil || !strings.Contains(err.Error(), "not found") {
		t.Errorf("expected not found error, got %v", err)
	}
}

func TestHandleFormatTimeCode(t *testing.T) {
	server, _ := setupServer(t)
	ctx := context.Background()

	tests := []struct {
		input       string
		wantLive    string
		wantBlurred string
		wantValid   bool
	}{
		{"0530", "05:30", "05:30:00", true},
		{"1234567", "12:34:56", "12:34:56", true},
		{"5", "5", "05:00:00", false},
		{"", "", "", false},
		{"01:75:00", "01:75:00", "01:75:00", false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			_, out, err := server.handleFormatTimeCode(ctx, nil, formatTimeCodeInput{Input: tt.input})
			if err != nil {
				t.Fatalf("format_time_code failed: %v", err)
			}
			if out.Live != tt.wantLive || out.Blurred != tt.wantBlurred || out.Valid != tt.wantValid {
				t.Errorf("got %+v, want live=%q blurred=%q valid=%v", out, tt.wantLive, tt.wantBlurred, tt.wantValid)
			}
			if !out.Valid && out.Error == "" {
				t.Error("invalid code should carry an error")
			}
		})
	}
}

func TestSessionToolsFlow(t *testing.T) {
	server, db := setupServer(t)
	ctx := context.Background()
	added := addThreshold(t, server)

	_, sess, err := server.handleStartSession(ctx, nil, startSessionInput{WorkoutID: added.ID[:8], Notes: "lane 3"})
	if err != nil {
		t.Fatalf("start_session failed: %v", err)
	}
	if sess.Steps != 8 || sess.WorkoutID != added.ID {
		t.Errorf("session output = %+v", sess)
	}

	_, rec, err := server.handleRecordTime(ctx, nil, recordTimeInput{
		SessionID: sess.ID,
		StepID:    "main",
		SwimmerID: "A",
		Round:     "2/3",
		TimeCode:  "0231",
	})
	if err != nil {
		t.Fatalf("record_time failed: %v", err)
	}
	if rec.TimeCode != "02:31:00" || rec.Repetition != 1 {
		t.Errorf("recorded = %+v", rec)
	}

	stored, err := db.GetSession(sess.ID)
	if err != nil {
		t.Fatalf("GetSession failed: %v", err)
	}
	if stored.Notes != "lane 3" {
		t.Errorf("Notes = %q", stored.Notes)
	}

	_, times, err := server.handleListTimes(ctx, nil, listTimesInput{SessionID: sess.ID[:8]})
	if err != nil {
		t.Fatalf("list_times failed: %v", err)
	}
	if len(times.Times) != 1 || times.Times[0].Round != "2/3" {
		t.Errorf("times = %+v", times)
	}
}

func TestHandleStartSessionEmptyWorkout(t *testing.T) {
	server, db := setupServer(t)
	empty := models.NewWorkout("Empty")
	if err := db.CreateWorkout(empty); err != nil {
		t.Fatalf("CreateWorkout failed: %v", err)
	}

	_, _, err := server.handleStartSession(context.Background(), nil, startSessionInput{WorkoutID: empty.ID.String()})
	if !errors.Is(err, session.ErrNoContent) {
		t.Fatalf("expected ErrNoContent, got %v", err)
	}

	sessions, err := db.ListSessions(nil, 0)
	if err != nil {
		t.Fatalf("ListSessions failed: %v", err)
	}
	if len(sessions) != 0 {
		t.Errorf("no session should be created, got %d", len(sessions))
	}
}

func TestHandleRecordTimeRejects(t *testing.T) {
	server, _ := setupServer(t)
	ctx := context.Background()
	added := addThreshold(t, server)
	_, sess, err := server.handleStartSession(ctx, nil, startSessionInput{WorkoutID: added.ID})
	if err != nil {
		t.Fatalf("start_session failed: %v", err)
	}

	tests := []struct {
		name      string
		input     recordTimeInput
		errSubstr string
	}{
		{"too short", recordTimeInput{SessionID: sess.ID, StepID: "main", SwimmerID: "A", TimeCode: "12"}, "minimum mm:ss"},
		{"bad seconds", recordTimeInput{SessionID: sess.ID, StepID: "main", SwimmerID: "A", TimeCode: "017500"}, "malformed"},
		{"unknown step", recordTimeInput{SessionID: sess.ID, StepID: "nope", SwimmerID: "A", TimeCode: "0100"}, "unknown step"},
		{"rep out of range", recordTimeInput{SessionID: sess.ID, StepID: "main", SwimmerID: "A", Repetition: 3, TimeCode: "0100"}, "out of range"},
		{"missing swimmer", recordTimeInput{SessionID: sess.ID, StepID: "main", TimeCode: "0100"}, "swimmer_id"},
		{"unknown session", recordTimeInput{SessionID: "deadbeef", StepID: "main", SwimmerID: "A", TimeCode: "0100"}, "session not found"},
		{"missing round", recordTimeInput{SessionID: sess.ID, StepID: "main", SwimmerID: "A", TimeCode: "0100"}, "round required"},
		{"round out of range", recordTimeInput{SessionID: sess.ID, StepID: "main", SwimmerID: "A", Round: "4/3", TimeCode: "0100"}, "not valid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := server.handleRecordTime(ctx, nil, tt.input)
			if err == nil {
				t.Fatal("expected error, got nil")
			}
			if !strings.Contains(err.Error(), tt.errSubstr) {
				t.Errorf("error %q should contain %q", err.Error(), tt.errSubstr)
			}
		})
	}

	_, times, err := server.handleListTimes(ctx, nil, listTimesInput{SessionID: sess.ID})
	if err != nil {
		t.Fatalf("list_times failed: %v", err)
	}
	if len(times.Times) != 0 || times.Message != "No times recorded." {
		t.Errorf("rejected times should not be stored: %+v", times)
	}
}

func TestHandleRecordTimeCommitterFailure(t *testing.T) {
	db := setupTestDB(t)
	core, logs := observer.New(zap.ErrorLevel)
	failing := session.CommitFunc(func(ctx context.Context, rec *models.TimeRecord) error {
		return errors.New("backend down")
	})

	server, err := NewServer(db, failing, zap.New(core))
	if err != nil {
		t.Fatalf("NewServer failed: %v", err)
	}
	ctx := context.Background()
	added := addThreshold(t, server)
	_, sess, err := server.handleStartSession(ctx, nil, startSessionInput{WorkoutID: added.ID})
	if err != nil {
		t.Fatalf("start_session failed: %v", err)
	}

	_, _, err = server.handleRecordTime(ctx, nil, recordTimeInput{
		SessionID: sess.ID, StepID: "main", SwimmerID: "A", Round: "1/3", TimeCode: "0100",
	})
	if err == nil || !strings.Contains(err.Error(), "backend down") {
		t.Fatalf("expected committer error, got %v", err)
	}

	if logs.Len() != 1 {
		t.Fatalf("expected 1 log entry, got %d", logs.Len())
	}
	if got := logs.All()[0].ContextMap()["tool"]; got != "record_time" {
		t.Errorf("logged tool = %v", got)
	}
}

func TestWorkoutsResource(t *testing.T) {
	server, _ := setupServer(t)
	ctx := context.Background()
	addThreshold(t, server)

	result, err := server.handleWorkoutsResource(ctx, nil)
	if err != nil {
		t.Fatalf("resource failed: %v", err)
	}
	if len(result.Contents) != 1 {
		t.Fatalf("expected 1 content, got %d", len(result.Contents))
	}
	content := result.Contents[0]
	if content.URI != "swim://workouts" || content.MIMEType != "application/json" {
		t.Errorf("content metadata = %s %s", content.URI, content.MIMEType)
	}

	var body struct {
		Count    int              `json:"count"`
		Workouts []workoutSummary `json:"workouts"`
	}
	if err := json.Unmarshal([]byte(content.Text), &body); err != nil {
		t.Fatalf("resource text is not JSON: %v", err)
	}
	if body.Count != 1 || body.Workouts[0].Name != "Threshold" {
		t.Errorf("resource body = %+v", body)
	}
}
