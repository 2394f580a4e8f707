// ABOUTME: CLI command for deleting workouts.
// ABOUTME: Supports deletion by full ID or ID prefix; sessions and times go with it.
package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

var deleteCmd = &cobra.Command{
	Use:     "delete <id>",
	Aliases: []string{"del", "rm"},
	Short:   "Delete a workout",
	Long: `Delete a workout by its ID or ID prefix.

You can use either the full UUID or just the first few characters (prefix).
The ID prefix is shown in the first column of 'swim list' output.

EXAMPLES:

  swim delete abc12345                    # Delete by 8-char prefix
  swim delete abc12345-1234-1234-...      # Delete by full UUID
  swim rm abc1                            # Short prefix (if unique)

CAUTION:

  This permanently deletes the workout together with its sessions and
  recorded times. There is no undo. If the prefix matches multiple
  workouts, an error is returned.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		idOrPrefix := args[0]

		w, err := repo.GetWorkout(idOrPrefix)
		if err != nil {
			return fmt.Errorf("workout not found: %s", idOrPrefix)
		}

		if err := repo.DeleteWorkout(w.ID.String()); err != nil {
			return fmt.Errorf("failed to delete workout: %w", err)
		}

		out := cmd.OutOrStdout()
		warn.Fprintf(out, "✗ Deleted %s\n", w.Name)
		fmt.Fprintf(out, "  %s %dm\n", faint.Sprint(shortID(w.ID)), w.TotalDistance)

		return nil
	},
}

func init() {
	rootCmd.AddCommand(deleteCmd)
}
