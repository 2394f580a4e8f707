// ABOUTME: CLI command for adding workouts to the library.
// ABOUTME: Reads a YAML or JSON workout definition from a file or stdin.
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/harperreed/swim/internal/models"
	"github.com/harperreed/swim/internal/workout"
	"github.com/spf13/cobra"
)

var (
	addName string
)

var addCmd = &cobra.Command{
	Use:     "add <file>",
	Aliases: []string{"a"},
	Short:   "Add a workout from a YAML or JSON file",
	Long: `Add a workout from a YAML or JSON definition. Use - to read stdin.

Step and repeat IDs may be omitted; they are generated when missing.

EXAMPLE FILE:

  name: Threshold
  description: tuesday group
  items:
    - kind: warmup
      distance: 400
      stroke: freestyle
    - repeats: 3
      items:
        - kind: main
          distance: 200
          stroke: backstroke
          effort: hard
        - type: rest
          rest_seconds: 30
    - kind: cooldown
      distance: 200
      stroke: freestyle

Examples:
  swim add threshold.yaml
  cat sprint.json | swim add -
  swim add base.yaml --name "Aerobic base"`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := readInput(cmd, args[0])
		if err != nil {
			return err
		}

		w, err := models.ParseWorkout(data)
		if err != nil {
			return err
		}
		if addName != "" {
			w.Name = addName
		}
		if w.Name == "" {
			return fmt.Errorf("workout needs a name (set name: in the file or use --name)")
		}

		if err := repo.CreateWorkout(w); err != nil {
			return fmt.Errorf("failed to create workout: %w", err)
		}

		out := cmd.OutOrStdout()
		success.Fprintf(out, "✓ Added workout %s\n", w.Name)
		fmt.Fprintf(out, "  %s %dm  %s\n",
			faint.Sprint(shortID(w.ID)),
			w.TotalDistance,
			workout.NotationLine(w.Items))

		return nil
	},
}

func readInput(cmd *cobra.Command, name string) ([]byte, error) {
	if name == "-" {
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return nil, fmt.Errorf("failed to read stdin: %w", err)
		}
		return data, nil
	}
	data, err := os.ReadFile(name)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}
	return data, nil
}

func init() {
	addCmd.Flags().StringVar(&addName, "name", "", "override the workout name")
	rootCmd.AddCommand(addCmd)
}
