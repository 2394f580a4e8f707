// ABOUTME: CLI command for listing workouts.
// ABOUTME: Supports searching by name or description and limiting results.
package main

import (
	"fmt"

	"github.com/harperreed/swim/internal/workout"
	"github.com/spf13/cobra"
)

var (
	listSearch string
	listLimit  int
)

var listCmd = &cobra.Command{
	Use:     "list",
	Aliases: []string{"ls", "l"},
	Short:   "List workouts",
	Long: `List workouts in your library, newest first.

OUTPUT FORMAT:

  Each line shows: ID  NAME  DISTANCE  NOTATION

  The ID is an 8-character prefix you can use with other commands.

EXAMPLES:

  swim list                   # Show the last 20 workouts
  swim list --search sprint   # Filter by name or description
  swim list -n 50             # Show up to 50 workouts`,
	RunE: func(cmd *cobra.Command, args []string) error {
		var search *string
		if listSearch != "" {
			search = &listSearch
		}

		workouts, err := repo.ListWorkouts(search, listLimit)
		if err != nil {
			return fmt.Errorf("failed to list workouts: %w", err)
		}

		out := cmd.OutOrStdout()
		if len(workouts) == 0 {
			fmt.Fprintln(out, "No workouts found.")
			return nil
		}

		for _, w := range workouts {
			fmt.Fprintf(out, "%s %s %6dm  %s\n",
				faint.Sprint(shortID(w.ID)),
				padRight(truncate(w.Name, 24), 24),
				w.TotalDistance,
				truncate(workout.NotationLine(w.Items), 60))
		}

		return nil
	},
}

func init() {
	listCmd.Flags().StringVarP(&listSearch, "search", "s", "", "filter by name or description")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", 20, "max number of results")
	rootCmd.AddCommand(listCmd)
}
