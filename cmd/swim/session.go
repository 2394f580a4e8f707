// ABOUTME: CLI commands for live timing sessions.
// ABOUTME: Supports start (interactive timer), list, and delete subcommands.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/google/uuid"
	"github.com/harperreed/swim/internal/backend"
	"github.com/harperreed/swim/internal/models"
	"github.com/harperreed/swim/internal/session"
	"github.com/harperreed/swim/internal/workout"
	"github.com/spf13/cobra"
)

var (
	sessionSwimmers []string
	sessionNotes    string
	sessionWorkout  string
	sessionLimit    int
)

var sessionCmd = &cobra.Command{
	Use:     "session",
	Aliases: []string{"s"},
	Short:   "Run and review live timing sessions",
	Long: `Time a workout live, one step at a time.

WORKFLOW:

  1. Start a session:     swim session start abc123 -s A -s B
  2. Move through steps:  n (next), p (previous), l (show current step)
  3. Type a time:         t A 1 0231      -> A rep 1: 02:31
  4. Save it:             s A 1           -> 02:31:00 saved in the background
  5. Quit:                q               (waits for saves to finish)

  Toggle swimmers in and out of the active group with 'a <swimmer>'.

COMMANDS:

  start    Start an interactive session for a workout
  list     List recent sessions
  delete   Delete a session and its times

When server_url is configured, the workout is fetched from and times are
sent to the remote server instead of local storage.`,
}

var sessionStartCmd = &cobra.Command{
	Use:   "start <workout-id>",
	Short: "Start a live timing session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt)
		defer stop()

		w, sess, committer, err := openSession(ctx, args[0], sessionNotes)
		if err != nil {
			return err
		}

		cur := session.New(w, sess.ID, committer, logger)
		for _, sw := range sessionSwimmers {
			if !cur.IsActive(sw) {
				cur.ToggleSwimmer(sw)
			}
		}

		out := cmd.OutOrStdout()
		success.Fprintf(out, "✓ Started session %s for %s\n", shortID(sess.ID), w.Name)
		return runSession(ctx, cmd.InOrStdin(), out, cur)
	},
}

// openSession loads the workout and creates a session for it, locally or
// on the configured server.
func openSession(ctx context.Context, workoutID, notes string) (*models.Workout, *models.Session, session.Committer, error) {
	if cfg.ServerURL != "" {
		client := backend.NewClient(cfg.ServerURL, logger)
		w, err := client.FetchWorkout(ctx, workoutID)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to fetch workout: %w", err)
		}
		if len(workout.Flatten(w.Items)) == 0 {
			return nil, nil, nil, session.ErrNoContent
		}
		sess, err := client.CreateSession(ctx, w.ID, notes)
		if err != nil {
			return nil, nil, nil, fmt.Errorf("failed to create session: %w", err)
		}
		return w, sess, client, nil
	}

	w, err := repo.GetWorkout(workoutID)
	if err != nil {
		return nil, nil, nil, fmt.Errorf("workout not found: %s", workoutID)
	}
	if len(workout.Flatten(w.Items)) == 0 {
		return nil, nil, nil, session.ErrNoContent
	}
	sess := models.NewSession(w.ID).WithNotes(notes)
	if err := repo.CreateSession(sess); err != nil {
		return nil, nil, nil, fmt.Errorf("failed to create session: %w", err)
	}
	return w, sess, cfg.Committer(repo, logger), nil
}

var sessionListCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls"},
	Short:   "List sessions",
	RunE: func(cmd *cobra.Command, args []string) error {
		var workoutID *uuid.UUID
		if sessionWorkout != "" {
			w, err := repo.GetWorkout(sessionWorkout)
			if err != nil {
				return fmt.Errorf("workout not found: %s", sessionWorkout)
			}
			workoutID = &w.ID
		}

		sessions, err := repo.ListSessions(workoutID, sessionLimit)
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(sessions) == 0 {
			fmt.Fprintln(out, "No sessions found.")
			return nil
		}

		names := map[uuid.UUID]string{}
		for _, s := range sessions {
			name, ok := names[s.WorkoutID]
			if !ok {
				if w, err := repo.GetWorkout(s.WorkoutID.String()); err == nil {
					name = w.Name
				}
				names[s.WorkoutID] = name
			}
			notes := ""
			if s.Notes != "" {
				notes = faint.Sprintf(" (%s)", truncate(s.Notes, 30))
			}
			fmt.Fprintf(out, "%s %s %s%s\n",
				faint.Sprint(shortID(s.ID)),
				faint.Sprint(s.StartedAt.Format("2006-01-02 15:04")),
				name,
				notes)
		}

		return nil
	},
}

var sessionDeleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"rm"},
	Short:   "Delete a session and its times",
	Args:    cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		s, err := repo.GetSession(args[0])
		if err != nil {
			return fmt.Errorf("session not found: %s", args[0])
		}
		if err := repo.DeleteSession(s.ID.String()); err != nil {
			return fmt.Errorf("failed to delete session: %w", err)
		}
		warn.Fprintf(cmd.OutOrStdout(), "✗ Deleted session %s\n", shortID(s.ID))
		return nil
	},
}

func init() {
	sessionStartCmd.Flags().StringArrayVarP(&sessionSwimmers, "swimmer", "s", nil, "swimmer to time (repeatable)")
	sessionStartCmd.Flags().StringVar(&sessionNotes, "notes", "", "session notes")

	sessionListCmd.Flags().StringVarP(&sessionWorkout, "workout", "w", "", "only sessions of this workout")
	sessionListCmd.Flags().IntVarP(&sessionLimit, "limit", "n", 20, "max number of results")

	sessionCmd.AddCommand(sessionStartCmd)
	sessionCmd.AddCommand(sessionListCmd)
	sessionCmd.AddCommand(sessionDeleteCmd)
	rootCmd.AddCommand(sessionCmd)
}
