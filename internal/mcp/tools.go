// ABOUTME: MCP tool implementations for swim workouts and live timing.
// ABOUTME: Covers the workout library, time-code formatting, sessions, and recorded times.
package mcp

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/swim/internal/models"
	"github.com/harperreed/swim/internal/session"
	"github.com/harperreed/swim/internal/timecode"
	"github.com/harperreed/swim/internal/workout"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

func (s *Server) registerTools() {
	// list_workouts
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_workouts",
		Description: "List saved swim workouts with total distance and notation",
	}, s.handleListWorkouts)

	// get_workout
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "get_workout",
		Description: "Get a workout's notation, total distance, and flattened step list",
	}, s.handleGetWorkout)

	// add_workout
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "add_workout",
		Description: "Create a workout from a YAML or JSON definition",
	}, s.handleAddWorkout)

	// format_time_code
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "format_time_code",
		Description: "Format typed digits as an mm:ss:cc time code and report whether it can be committed",
	}, s.handleFormatTimeCode)

	// start_session
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "start_session",
		Description: "Start a live timing session for a workout",
	}, s.handleStartSession)

	// record_time
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "record_time",
		Description: "Record a swimmer's time for one repetition of a step",
	}, s.handleRecordTime)

	// list_times
	mcp.AddTool(s.mcpServer, &mcp.Tool{
		Name:        "list_times",
		Description: "List the times recorded in a session",
	}, s.handleListTimes)
}

// Tool input/output types

type listWorkoutsInput struct {
	Search string `json:"search,omitempty" jsonschema:"Filter by name or description"`
	Limit  int    `json:"limit,omitempty" jsonschema:"Max results (default 20)"`
}

type workoutSummary struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	TotalDistance int    `json:"total_distance"`
	Notation      string `json:"notation"`
}

type listWorkoutsOutput struct {
	Workouts []workoutSummary `json:"workouts"`
	Message  string           `json:"message,omitempty"`
}

type getWorkoutInput struct {
	ID string `json:"id" jsonschema:"Workout ID or prefix"`
}

type workoutDetail struct {
	ID            string                `json:"id"`
	Name          string                `json:"name"`
	Description   string                `json:"description,omitempty"`
	TotalDistance int                   `json:"total_distance"`
	Notation      string                `json:"notation"`
	Steps         []workout.StepSummary `json:"steps"`
}

type addWorkoutInput struct {
	Definition string `json:"definition" jsonschema:"Workout as YAML or JSON with name, description and items"`
}

type workoutOutput struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	TotalDistance int    `json:"total_distance"`
	Notation      string `json:"notation"`
	Message       string `json:"message"`
}

type formatTimeCodeInput struct {
	Input string `json:"input" jsonschema:"Raw keystrokes; non-digits are ignored"`
}

type formatTimeCodeOutput struct {
	Live    string `json:"live"`
	Blurred string `json:"blurred"`
	Valid   bool   `json:"valid"`
	Error   string `json:"error,omitempty"`
}

type startSessionInput struct {
	WorkoutID string `json:"workout_id" jsonschema:"Workout ID or prefix"`
	Notes     string `json:"notes,omitempty" jsonschema:"Optional session notes"`
}

type sessionOutput struct {
	ID        string `json:"id"`
	WorkoutID string `json:"workout_id"`
	Steps     int    `json:"steps"`
	Message   string `json:"message"`
}

type recordTimeInput struct {
	SessionID  string `json:"session_id" jsonschema:"Session ID or prefix"`
	StepID     string `json:"step_id" jsonschema:"Step ID within the session's workout"`
	SwimmerID  string `json:"swimmer_id" jsonschema:"Swimmer identifier"`
	Repetition int    `json:"repetition,omitempty" jsonschema:"Repetition index starting at 1 (default 1)"`
	Round      string `json:"round,omitempty" jsonschema:"Iteration path such as 2/3; required when the step is swum more than once"`
	TimeCode   string `json:"time_code" jsonschema:"Elapsed time as mm:ss or mm:ss:cc"`
}

type timeOutput struct {
	ID         string `json:"id"`
	StepID     string `json:"step_id"`
	SwimmerID  string `json:"swimmer_id"`
	Repetition int    `json:"repetition"`
	Round      string `json:"round,omitempty"`
	TimeCode   string `json:"time_code"`
	RecordedAt string `json:"recorded_at"`
}

type listTimesInput struct {
	SessionID string `json:"session_id" jsonschema:"Session ID or prefix"`
}

type listTimesOutput struct {
	Times   []timeOutput `json:"times"`
	Message string       `json:"message,omitempty"`
}

// Tool handlers

func (s *Server) handleListWorkouts(ctx context.Context, req *mcp.CallToolRequest, input listWorkoutsInput) (*mcp.CallToolResult, listWorkoutsOutput, error) {
	limit := input.Limit
	if limit <= 0 {
		limit = 20
	}

	var search *string
	if input.Search != "" {
		search = &input.Search
	}

	workouts, err := s.repo.ListWorkouts(search, limit)
	if err != nil {
		return nil, listWorkoutsOutput{}, s.fail("list_workouts", fmt.Errorf("failed to list workouts: %w", err))
	}

	out := listWorkoutsOutput{Workouts: make([]workoutSummary, 0, len(workouts))}
	for _, w := range workouts {
		out.Workouts = append(out.Workouts, summarize(w))
	}
	if len(workouts) == 0 {
		out.Message = "No workouts found."
	}
	return nil, out, nil
}

func (s *Server) handleGetWorkout(ctx context.Context, req *mcp.CallToolRequest, input getWorkoutInput) (*mcp.CallToolResult, workoutDetail, error) {
	w, err := s.repo.GetWorkout(input.ID)
	if err != nil {
		return nil, workoutDetail{}, fmt.Errorf("workout not found: %w", err)
	}

	return nil, workoutDetail{
		ID:            w.ID.String(),
		Name:          w.Name,
		Description:   w.Description,
		TotalDistance: workout.TotalDistance(w.Items),
		Notation:      workout.NotationLine(w.Items),
		Steps:         workout.Summarize(workout.Flatten(w.Items)),
	}, nil
}

func (s *Server) handleAddWorkout(ctx context.Context, req *mcp.CallToolRequest, input addWorkoutInput) (*mcp.CallToolResult, workoutOutput, error) {
	if strings.TrimSpace(input.Definition) == "" {
		return nil, workoutOutput{}, fmt.Errorf("definition is required")
	}

	w, err := models.ParseWorkout([]byte(input.Definition))
	if err != nil {
		return nil, workoutOutput{}, fmt.Errorf("failed to parse workout: %w", err)
	}

	if err := s.repo.CreateWorkout(w); err != nil {
		return nil, workoutOutput{}, s.fail("add_workout", fmt.Errorf("failed to create workout: %w", err))
	}

	sum := summarize(w)
	return nil, workoutOutput{
		ID:            sum.ID,
		Name:          sum.Name,
		TotalDistance: sum.TotalDistance,
		Notation:      sum.Notation,
		Message:       fmt.Sprintf("Created workout %s (%dm)", w.Name, sum.TotalDistance),
	}, nil
}

func (s *Server) handleFormatTimeCode(ctx context.Context, req *mcp.CallToolRequest, input formatTimeCodeInput) (*mcp.CallToolResult, formatTimeCodeOutput, error) {
	live := timecode.OnInput(input.Input)
	out := formatTimeCodeOutput{
		Live:    live,
		Blurred: timecode.OnBlur(live),
		Valid:   true,
	}
	if _, err := timecode.Complete(live); err != nil {
		out.Valid = false
		out.Error = err.Error()
	}
	return nil, out, nil
}

func (s *Server) handleStartSession(ctx context.Context, req *mcp.CallToolRequest, input startSessionInput) (*mcp.CallToolResult, sessionOutput, error) {
	w, err := s.repo.GetWorkout(input.WorkoutID)
	if err != nil {
		return nil, sessionOutput{}, fmt.Errorf("workout not found: %w", err)
	}

	steps := len(workout.Flatten(w.Items))
	if steps == 0 {
		return nil, sessionOutput{}, fmt.Errorf("workout %s: %w", w.Name, session.ErrNoContent)
	}

	sess := models.NewSession(w.ID).WithNotes(input.Notes)
	if err := s.repo.CreateSession(sess); err != nil {
		return nil, sessionOutput{}, s.fail("start_session", fmt.Errorf("failed to create session: %w", err))
	}

	return nil, sessionOutput{
		ID:        sess.ID.String(),
		WorkoutID: w.ID.String(),
		Steps:     steps,
		Message:   fmt.Sprintf("Started session for %s (%d steps)", w.Name, steps),
	}, nil
}

func (s *Server) handleRecordTime(ctx context.Context, req *mcp.CallToolRequest, input recordTimeInput) (*mcp.CallToolResult, timeOutput, error) {
	if input.SwimmerID == "" {
		return nil, timeOutput{}, fmt.Errorf("swimmer_id is required")
	}
	rep := input.Repetition
	if rep == 0 {
		rep = 1
	}

	sess, err := s.repo.GetSession(input.SessionID)
	if err != nil {
		return nil, timeOutput{}, fmt.Errorf("session not found: %w", err)
	}
	w, err := s.repo.GetWorkout(sess.WorkoutID.String())
	if err != nil {
		return nil, timeOutput{}, fmt.Errorf("workout not found: %w", err)
	}
	if err := workout.CheckStep(w.Items, input.StepID, rep); err != nil {
		return nil, timeOutput{}, err
	}

	code, err := timecode.Complete(input.TimeCode)
	if err != nil {
		return nil, timeOutput{}, err
	}

	round, err := workout.ResolveRound(w.Items, input.StepID, input.Round)
	if err != nil {
		return nil, timeOutput{}, err
	}

	key := models.TimeKey{StepID: input.StepID, SwimmerID: input.SwimmerID, Repetition: rep}
	rec := models.NewTimeRecord(sess.ID, key, code).WithRound(round)
	if err := s.committer.CommitTime(ctx, rec); err != nil {
		return nil, timeOutput{}, s.fail("record_time", fmt.Errorf("failed to record time: %w", err))
	}

	return nil, toTimeOutput(rec), nil
}

func (s *Server) handleListTimes(ctx context.Context, req *mcp.CallToolRequest, input listTimesInput) (*mcp.CallToolResult, listTimesOutput, error) {
	sess, err := s.repo.GetSession(input.SessionID)
	if err != nil {
		return nil, listTimesOutput{}, fmt.Errorf("session not found: %w", err)
	}

	records, err := s.repo.ListTimeRecords(sess.ID)
	if err != nil {
		return nil, listTimesOutput{}, s.fail("list_times", fmt.Errorf("failed to list times: %w", err))
	}

	out := listTimesOutput{Times: make([]timeOutput, 0, len(records))}
	for _, r := range records {
		out.Times = append(out.Times, toTimeOutput(r))
	}
	if len(records) == 0 {
		out.Message = "No times recorded."
	}
	return nil, out, nil
}

// fail logs a storage-side tool failure and returns err unchanged.
func (s *Server) fail(tool string, err error) error {
	s.log.Error("tool failed", zap.String("tool", tool), zap.Error(err))
	return err
}

func summarize(w *models.Workout) workoutSummary {
	return workoutSummary{
		ID:            w.ID.String(),
		Name:          w.Name,
		TotalDistance: workout.TotalDistance(w.Items),
		Notation:      workout.NotationLine(w.Items),
	}
}

func toTimeOutput(r *models.TimeRecord) timeOutput {
	return timeOutput{
		ID:         r.ID.String(),
		StepID:     r.StepID,
		SwimmerID:  r.SwimmerID,
		Repetition: r.Repetition,
		Round:      r.Round,
		TimeCode:   r.TimeCode,
		RecordedAt: r.RecordedAt.Format(time.RFC3339),
	}
}
