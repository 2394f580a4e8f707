// ABOUTME: CLI commands for inspecting workouts.
// ABOUTME: Supports show (tree view), steps (unrolled list), and notation subcommands.
package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/harperreed/swim/internal/models"
	"github.com/harperreed/swim/internal/workout"
	"github.com/spf13/cobra"
)

var workoutCmd = &cobra.Command{
	Use:     "workout",
	Aliases: []string{"w"},
	Short:   "Inspect workouts",
	Long: `Inspect a workout in your library.

COMMANDS:

  show      Tree view with total distance and notation
  steps     Unrolled step list, one line per step swum, with round breadcrumbs
  notation  Just the compact notation, e.g. 400Fr + 3x{200Bk + 30s Rest}

Workouts are identified by ID or unique ID prefix (see 'swim list').`,
}

var workoutShowCmd = &cobra.Command{
	Use:   "show <id>",
	Short: "Show workout details",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := repo.GetWorkout(args[0])
		if err != nil {
			return fmt.Errorf("failed to get workout: %w", err)
		}

		out := cmd.OutOrStdout()
		bold.Fprintln(out, w.Name)
		fmt.Fprintf(out, "ID: %s\n", shortID(w.ID))
		if w.Description != "" {
			fmt.Fprintf(out, "Description: %s\n", w.Description)
		}
		fmt.Fprintf(out, "Total: %dm\n", workout.TotalDistance(w.Items))
		fmt.Fprintf(out, "Notation: %s\n", workout.NotationLine(w.Items))

		if len(w.Items) > 0 {
			fmt.Fprintln(out)
			writeTree(out, w.Items, 1)
		}

		return nil
	},
}

var workoutStepsCmd = &cobra.Command{
	Use:   "steps <id>",
	Short: "Show the unrolled step list",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := repo.GetWorkout(args[0])
		if err != nil {
			return fmt.Errorf("failed to get workout: %w", err)
		}

		out := cmd.OutOrStdout()
		entries := workout.Flatten(w.Items)
		if len(entries) == 0 {
			fmt.Fprintln(out, "Workout has no steps.")
			return nil
		}

		for _, s := range workout.Summarize(entries) {
			crumb := ""
			if s.Breadcrumb != "" {
				crumb = faint.Sprintf("  %s", s.Breadcrumb)
			}
			fmt.Fprintf(out, "%3d. %s%s\n", s.Index+1, s.Label, crumb)
		}
		fmt.Fprintf(out, "\n%d steps, %dm\n", len(entries), workout.TotalDistance(w.Items))

		return nil
	},
}

var workoutNotationCmd = &cobra.Command{
	Use:   "notation <id>",
	Short: "Print the workout notation",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		w, err := repo.GetWorkout(args[0])
		if err != nil {
			return fmt.Errorf("failed to get workout: %w", err)
		}
		fmt.Fprintln(cmd.OutOrStdout(), workout.NotationLine(w.Items))
		return nil
	},
}

// writeTree prints nodes indented by depth, with repeat blocks as headers.
func writeTree(out io.Writer, nodes []models.Node, depth int) {
	indent := strings.Repeat("  ", depth)
	for _, n := range nodes {
		switch v := n.(type) {
		case *models.Step:
			line := workout.StepLabel(v)
			if v.Notes != "" {
				line += faint.Sprintf(" (%s)", v.Notes)
			}
			fmt.Fprintf(out, "%s- %s\n", indent, line)
		case *models.Repeat:
			line := fmt.Sprintf("%dx", v.Repeats)
			if v.Notes != "" {
				line += faint.Sprintf(" (%s)", v.Notes)
			}
			fmt.Fprintf(out, "%s%s\n", indent, line)
			writeTree(out, v.Items, depth+1)
		default:
			panic(fmt.Sprintf("unexpected node type %T", n))
		}
	}
}

func init() {
	workoutCmd.AddCommand(workoutShowCmd)
	workoutCmd.AddCommand(workoutStepsCmd)
	workoutCmd.AddCommand(workoutNotationCmd)
	rootCmd.AddCommand(workoutCmd)
}
