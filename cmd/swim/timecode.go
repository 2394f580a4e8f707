// ABOUTME: CLI command for trying out time-code entry.
// ABOUTME: Shows how typed digits are formatted, completed, and validated.
package main

import (
	"fmt"
	"strings"

	"github.com/harperreed/swim/internal/timecode"
	"github.com/spf13/cobra"
)

var timecodeCmd = &cobra.Command{
	Use:   "timecode <digits>",
	Short: "Format typed digits as a time code",
	Long: `Show how a sequence of typed keys becomes a time code.

  live      what the field shows while typing (digits only, max six)
  complete  what it becomes when the field loses focus
  valid     whether it can be saved (at least mm:ss, seconds 00-59)

EXAMPLES:

  swim timecode 0530         # 05:30 -> 05:30:00
  swim timecode 5            # 5 -> 05:00:00 (not yet valid)
  swim timecode 1:02:3       # 10:23 -> 10:23:00`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		live := timecode.OnInput(strings.Join(args, ""))
		out := cmd.OutOrStdout()

		fmt.Fprintf(out, "live:     %s\n", live)
		fmt.Fprintf(out, "complete: %s\n", timecode.OnBlur(live))

		full, err := timecode.Complete(live)
		if err != nil {
			warn.Fprintf(out, "✗ %v\n", err)
			return nil
		}
		d, _ := timecode.Parse(full)
		success.Fprintf(out, "✓ valid (%s)\n", d)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(timecodeCmd)
}
