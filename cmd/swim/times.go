// ABOUTME: CLI command for reviewing the times recorded in a session.
// ABOUTME: Lists every record by step and the best time per swimmer per step.
package main

import (
	"fmt"
	"time"

	"github.com/harperreed/swim/internal/models"
	"github.com/harperreed/swim/internal/timecode"
	"github.com/harperreed/swim/internal/workout"
	"github.com/spf13/cobra"
)

var timesCmd = &cobra.Command{
	Use:   "times <session-id>",
	Short: "Show the times recorded in a session",
	Long: `Show every time recorded in a session, followed by each swimmer's best
time on each step.

EXAMPLES:

  swim times def456          # Session ID prefix from 'swim session list'`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sess, err := repo.GetSession(args[0])
		if err != nil {
			return fmt.Errorf("session not found: %s", args[0])
		}

		w, err := repo.GetWorkout(sess.WorkoutID.String())
		if err != nil {
			return fmt.Errorf("failed to get workout: %w", err)
		}

		records, err := repo.ListTimeRecords(sess.ID)
		if err != nil {
			return fmt.Errorf("failed to list times: %w", err)
		}

		out := cmd.OutOrStdout()
		bold.Fprintf(out, "%s", w.Name)
		fmt.Fprintf(out, "  %s", faint.Sprint(sess.StartedAt.Format("2006-01-02 15:04")))
		if sess.Notes != "" {
			fmt.Fprintf(out, "  (%s)", sess.Notes)
		}
		fmt.Fprintln(out)

		if len(records) == 0 {
			fmt.Fprintln(out, "No times recorded.")
			return nil
		}

		for _, r := range records {
			round := ""
			if r.Round != "" {
				round = faint.Sprintf("  %s", r.Round)
			}
			fmt.Fprintf(out, "  %s %s rep %d  %s%s\n",
				padRight(truncate(stepName(w, r.StepID), 36), 36),
				padRight(r.SwimmerID, 6),
				r.Repetition,
				r.TimeCode,
				round)
		}

		fmt.Fprintln(out, "\nBest times:")
		for _, b := range bestTimes(records) {
			fmt.Fprintf(out, "  %s %s %s\n",
				padRight(b.swimmer, 6),
				padRight(truncate(stepName(w, b.stepID), 36), 36),
				timecode.FromDuration(b.best))
		}

		return nil
	},
}

type bestTime struct {
	stepID  string
	swimmer string
	best    time.Duration
}

// bestTimes returns the fastest record per swimmer per step, in the order
// each pair first appears. Codes that do not parse are skipped.
func bestTimes(records []*models.TimeRecord) []bestTime {
	var out []bestTime
	index := map[[2]string]int{}
	for _, r := range records {
		d, err := timecode.Parse(r.TimeCode)
		if err != nil {
			continue
		}
		k := [2]string{r.StepID, r.SwimmerID}
		i, ok := index[k]
		if !ok {
			index[k] = len(out)
			out = append(out, bestTime{stepID: r.StepID, swimmer: r.SwimmerID, best: d})
			continue
		}
		if d < out[i].best {
			out[i].best = d
		}
	}
	return out
}

func stepName(w *models.Workout, stepID string) string {
	if s := workout.FindStep(w.Items, stepID); s != nil {
		if label := workout.StepLabel(s); label != "" {
			return label
		}
	}
	return stepID
}

func init() {
	rootCmd.AddCommand(timesCmd)
}
