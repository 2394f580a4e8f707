// ABOUTME: Navigation flattener: unrolls repeat blocks into a linear list of steps.
// ABOUTME: Each entry carries the chain of repeat iterations that produced it.
package workout

import (
	"fmt"
	"strings"

	"github.com/harperreed/swim/internal/models"
)

// RepeatContext describes one enclosing repeat block of a flattened entry.
type RepeatContext struct {
	RepeatID  string `json:"repeat_id"`
	Iteration int    `json:"iteration"` // 1-based
	Total     int    `json:"total"`
	Notes     string `json:"notes,omitempty"`
}

// Entry is one step occurrence in execution order. Entries for different
// iterations share the same *Step but have distinct paths.
type Entry struct {
	Index int
	Step  *models.Step
	Path  []RepeatContext
}

// Flatten expands the tree into the exact order a swimmer executes it.
// Iteration 1 of a block is fully emitted before iteration 2.
func Flatten(nodes []models.Node) []Entry {
	entries := flatten(nodes, nil, nil)
	for i := range entries {
		entries[i].Index = i
	}
	return entries
}

func flatten(nodes []models.Node, path []RepeatContext, out []Entry) []Entry {
	for _, n := range nodes {
		switch v := n.(type) {
		case *models.Step:
			out = append(out, Entry{Step: v, Path: clonePath(path)})
		case *models.Repeat:
			for i := 1; i <= v.Repeats; i++ {
				ctx := RepeatContext{RepeatID: v.ID, Iteration: i, Total: v.Repeats, Notes: v.Notes}
				out = flatten(v.Items, append(clonePath(path), ctx), out)
			}
		default:
			panic(fmt.Sprintf("workout: unexpected node type %T", n))
		}
	}
	return out
}

func clonePath(path []RepeatContext) []RepeatContext {
	if len(path) == 0 {
		return nil
	}
	out := make([]RepeatContext, len(path))
	copy(out, path)
	return out
}

// Round returns the iteration path, outermost first, e.g. "2/3 · 1/2".
// Empty for entries outside any repeat block.
func (e Entry) Round() string {
	parts := make([]string, len(e.Path))
	for i, rc := range e.Path {
		parts[i] = fmt.Sprintf("%d/%d", rc.Iteration, rc.Total)
	}
	return strings.Join(parts, " · ")
}

// Breadcrumb renders the repeat path for display, e.g.
// "Round 2 of 3 (hold pace) › Round 1 of 2".
func Breadcrumb(path []RepeatContext) string {
	parts := make([]string, len(path))
	for i, rc := range path {
		p := fmt.Sprintf("Round %d of %d", rc.Iteration, rc.Total)
		if rc.Notes != "" {
			p += fmt.Sprintf(" (%s)", rc.Notes)
		}
		parts[i] = p
	}
	return strings.Join(parts, " › ")
}

// EntriesDistance sums the distance of flattened entries, counting each
// entry once and skipping rest steps.
func EntriesDistance(entries []Entry) int {
	total := 0
	for _, e := range entries {
		if !e.Step.IsRest() {
			total += e.Step.Distance
		}
	}
	return total
}

// StepSummary is the display form of one flattened entry, shared by the
// HTTP API and the MCP tools.
type StepSummary struct {
	Index      int    `json:"index"`
	StepID     string `json:"step_id"`
	Kind       string `json:"kind"`
	Label      string `json:"label"`
	Distance   int    `json:"distance"`
	Rest       bool   `json:"rest,omitempty"`
	Reps       int    `json:"reps"`
	Round      string `json:"round,omitempty"`
	Breadcrumb string `json:"breadcrumb,omitempty"`
}

// Summarize converts entries into their display form.
func Summarize(entries []Entry) []StepSummary {
	out := make([]StepSummary, len(entries))
	for i, e := range entries {
		out[i] = StepSummary{
			Index:      e.Index,
			StepID:     e.Step.ID,
			Kind:       string(e.Step.Kind),
			Label:      StepLabel(e.Step),
			Distance:   e.Step.Distance,
			Rest:       e.Step.IsRest(),
			Reps:       max(e.Step.RepeatCount, 1),
			Round:      e.Round(),
			Breadcrumb: Breadcrumb(e.Path),
		}
	}
	return out
}

// FindStep returns the step with the given ID anywhere in the tree, or nil.
func FindStep(nodes []models.Node, id string) *models.Step {
	var found *models.Step
	models.Visit(nodes, func(n models.Node, _ int) {
		if s, ok := n.(*models.Step); ok && found == nil && s.ID == id {
			found = s
		}
	})
	return found
}

// CheckStep verifies that stepID names a step in the tree and that rep lies
// within its repetition hint.
func CheckStep(nodes []models.Node, stepID string, rep int) error {
	step := FindStep(nodes, stepID)
	if step == nil {
		return fmt.Errorf("unknown step %q", stepID)
	}
	if rep < 1 || rep > max(step.RepeatCount, 1) {
		return fmt.Errorf("repetition %d out of range for step %q", rep, stepID)
	}
	return nil
}

// ResolveRound checks round against the iterations stepID is swum in and
// returns the round to store. An empty round is filled in when the step
// occurs exactly once.
func ResolveRound(nodes []models.Node, stepID, round string) (string, error) {
	var rounds []string
	for _, e := range Flatten(nodes) {
		if e.Step.ID == stepID {
			rounds = append(rounds, e.Round())
		}
	}
	if len(rounds) == 0 {
		return "", fmt.Errorf("unknown step %q", stepID)
	}
	if round == "" && len(rounds) == 1 {
		return rounds[0], nil
	}
	for _, r := range rounds {
		if r == round {
			return r, nil
		}
	}
	if round == "" {
		return "", fmt.Errorf("round required for step %q (one of %s)", stepID, strings.Join(rounds, ", "))
	}
	return "", fmt.Errorf("round %q not valid for step %q", round, stepID)
}
