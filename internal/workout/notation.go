// ABOUTME: Compact interval notation for workouts, e.g. "3x{100Fr + 30s Rest}".
// ABOUTME: Display-only and lossy; never parsed back into a tree.
package workout

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/harperreed/swim/internal/models"
)

// Separator joins notation parts.
const Separator = " + "

// Notation renders each node as a notation token. Nodes with nothing to
// show are dropped.
func Notation(nodes []models.Node) []string {
	parts := make([]string, 0, len(nodes))
	for _, n := range nodes {
		var text string
		switch v := n.(type) {
		case *models.Step:
			text = stepNotation(v)
		case *models.Repeat:
			text = fmt.Sprintf("%dx{%s}", v.Repeats, strings.Join(Notation(v.Items), Separator))
		default:
			panic(fmt.Sprintf("workout: unexpected node type %T", n))
		}
		if text != "" {
			parts = append(parts, text)
		}
	}
	return parts
}

// NotationLine joins Notation with the standard separator.
func NotationLine(nodes []models.Node) string {
	return strings.Join(Notation(nodes), Separator)
}

func stepNotation(s *models.Step) string {
	if s.IsRest() {
		if s.RestSeconds > 0 {
			return fmt.Sprintf("%ds Rest", s.RestSeconds)
		}
		return "Rest"
	}

	dist := ""
	if s.Distance > 0 {
		dist = strconv.Itoa(s.Distance)
	}
	return dist + s.Stroke.Short()
}

// StepLabel is the one-line description used for a step in lists and the
// live session view, e.g. "Main set · 200m Backstroke · Hard · Fins".
func StepLabel(s *models.Step) string {
	var parts []string
	if l := s.Kind.Label(); l != "" {
		parts = append(parts, l)
	}

	if s.IsRest() {
		if s.RestSeconds > 0 {
			parts = append(parts, fmt.Sprintf("%ds", s.RestSeconds))
		}
		return strings.Join(parts, " · ")
	}

	swim := ""
	if s.Distance > 0 {
		swim = fmt.Sprintf("%dm", s.Distance)
	}
	if s.RepeatCount > 1 {
		swim = fmt.Sprintf("%dx%s", s.RepeatCount, swim)
	}
	if l := s.Stroke.Label(); l != "" {
		swim = strings.TrimSpace(swim + " " + l)
	}
	if swim != "" {
		parts = append(parts, swim)
	}
	if l := s.Effort.Label(); l != "" {
		parts = append(parts, l)
	}

	var gear []string
	for _, eq := range s.Equipment {
		if l := eq.Label(); l != "" {
			gear = append(gear, l)
		}
	}
	if len(gear) > 0 {
		parts = append(parts, strings.Join(gear, ", "))
	}
	return strings.Join(parts, " · ")
}
