// ABOUTME: Export and import functionality for swim data.
// ABOUTME: Supports JSON, YAML, and Markdown export formats across every backend.
package storage

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/harperreed/swim/internal/models"
	"github.com/harperreed/swim/internal/workout"
	"gopkg.in/yaml.v3"
)

// ExportVersion is written into every export document.
const ExportVersion = "1.0"

// ExportData represents the full export format for swim data.
type ExportData struct {
	Version     string               `json:"version" yaml:"version"`
	ExportedAt  time.Time            `json:"exported_at" yaml:"exported_at"`
	Tool        string               `json:"tool" yaml:"tool"`
	Workouts    []*models.Workout    `json:"workouts" yaml:"workouts"`
	Sessions    []*models.Session    `json:"sessions" yaml:"sessions"`
	TimeRecords []*models.TimeRecord `json:"time_records" yaml:"time_records"`
}

// GetAllData retrieves all data for export.
func (d *DB) GetAllData() (*ExportData, error) {
	return collectAll(d)
}

// ImportData imports data from an export file.
func (d *DB) ImportData(data *ExportData) error {
	return importAll(d, data)
}

// collectAll gathers every workout, session, and time record from repo.
func collectAll(repo Repository) (*ExportData, error) {
	workouts, err := repo.ListWorkouts(nil, 0)
	if err != nil {
		return nil, fmt.Errorf("list workouts: %w", err)
	}

	sessions, err := repo.ListSessions(nil, 0)
	if err != nil {
		return nil, fmt.Errorf("list sessions: %w", err)
	}

	var times []*models.TimeRecord
	for _, s := range sessions {
		records, err := repo.ListTimeRecords(s.ID)
		if err != nil {
			return nil, fmt.Errorf("list time records: %w", err)
		}
		times = append(times, records...)
	}

	return &ExportData{
		Version:     ExportVersion,
		ExportedAt:  time.Now(),
		Tool:        "swim",
		Workouts:    workouts,
		Sessions:    sessions,
		TimeRecords: times,
	}, nil
}

// importAll creates workouts, then sessions, then time records in repo.
func importAll(repo Repository, data *ExportData) error {
	for _, w := range data.Workouts {
		if err := repo.CreateWorkout(w); err != nil {
			return fmt.Errorf("import workout: %w", err)
		}
	}
	for _, s := range data.Sessions {
		if err := repo.CreateSession(s); err != nil {
			return fmt.Errorf("import session: %w", err)
		}
	}
	for _, r := range data.TimeRecords {
		if err := repo.SaveTimeRecord(r); err != nil {
			return fmt.Errorf("import time record: %w", err)
		}
	}
	return nil
}

// ExportJSON exports all data as JSON.
func ExportJSON(repo Repository) ([]byte, error) {
	data, err := repo.GetAllData()
	if err != nil {
		return nil, err
	}
	return json.MarshalIndent(data, "", "  ")
}

// ExportYAML exports all data as YAML.
func ExportYAML(repo Repository) ([]byte, error) {
	data, err := repo.GetAllData()
	if err != nil {
		return nil, err
	}
	return yaml.Marshal(data)
}

// ImportJSON imports data from JSON bytes.
func ImportJSON(repo Repository, data []byte) error {
	var exportData ExportData
	if err := json.Unmarshal(data, &exportData); err != nil {
		return fmt.Errorf("unmarshal JSON: %w", err)
	}
	return repo.ImportData(&exportData)
}

// ImportYAML imports data from YAML bytes.
func ImportYAML(repo Repository, data []byte) error {
	var exportData ExportData
	if err := yaml.Unmarshal(data, &exportData); err != nil {
		return fmt.Errorf("unmarshal YAML: %w", err)
	}
	return repo.ImportData(&exportData)
}

// ExportMarkdown renders every workout as a printable set sheet followed
// by the times recorded in its sessions.
func ExportMarkdown(repo Repository) (string, error) {
	data, err := repo.GetAllData()
	if err != nil {
		return "", err
	}

	timesBySession := make(map[string][]*models.TimeRecord)
	for _, r := range data.TimeRecords {
		timesBySession[r.SessionID.String()] = append(timesBySession[r.SessionID.String()], r)
	}

	var sb strings.Builder
	now := time.Now()

	sb.WriteString(fmt.Sprintf("# Swim Export - %s\n\n", now.Format("2006-01-02")))
	sb.WriteString(fmt.Sprintf("Generated: %s\n\n", now.Format(time.RFC3339)))

	for _, w := range data.Workouts {
		WriteWorkoutMarkdown(&sb, w)

		for _, s := range data.Sessions {
			if s.WorkoutID != w.ID {
				continue
			}
			sb.WriteString(fmt.Sprintf("### Session %s\n\n", s.StartedAt.Format("2006-01-02 15:04")))
			if s.Notes != "" {
				sb.WriteString(s.Notes + "\n\n")
			}
			times := timesBySession[s.ID.String()]
			if len(times) == 0 {
				sb.WriteString("No times recorded.\n\n")
				continue
			}
			sb.WriteString("| Step | Swimmer | Rep | Round | Time |\n")
			sb.WriteString("|------|---------|-----|-------|------|\n")
			for _, r := range times {
				sb.WriteString(fmt.Sprintf("| %s | %s | %d | %s | %s |\n",
					r.StepID, r.SwimmerID, r.Repetition, r.Round, r.TimeCode))
			}
			sb.WriteString("\n")
		}
	}

	return sb.String(), nil
}

// WriteWorkoutMarkdown writes a workout heading, its notation, and the
// numbered list of flattened steps.
func WriteWorkoutMarkdown(sb *strings.Builder, w *models.Workout) {
	sb.WriteString(fmt.Sprintf("## %s\n\n", w.Name))
	if w.Description != "" {
		sb.WriteString(w.Description + "\n\n")
	}
	sb.WriteString(fmt.Sprintf("**Total:** %dm\n\n", workout.TotalDistance(w.Items)))
	if line := workout.NotationLine(w.Items); line != "" {
		sb.WriteString(fmt.Sprintf("`%s`\n\n", line))
	}

	for _, e := range workout.Flatten(w.Items) {
		sb.WriteString(fmt.Sprintf("%d. %s", e.Index+1, workout.StepLabel(e.Step)))
		if crumb := workout.Breadcrumb(e.Path); crumb != "" {
			sb.WriteString(fmt.Sprintf(" (%s)", crumb))
		}
		sb.WriteString("\n")
	}
	sb.WriteString("\n")
}
