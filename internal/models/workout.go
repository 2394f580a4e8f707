// ABOUTME: Workout tree model: a workout is an ordered list of Step and Repeat nodes.
// ABOUTME: Node is a closed sum type; Visit walks it depth-first in tree order.
package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ErrInvalidWorkout is the sentinel wrapped by structural validation errors.
var ErrInvalidWorkout = errors.New("invalid workout")

// Node is a workout tree node. Only *Step and *Repeat implement it.
type Node interface {
	NodeID() string
	isNode()
}

// Step is a leaf unit: a swim segment or a rest interval.
type Step struct {
	ID          string
	Kind        StepKind
	Distance    int // meters, ignored for rest steps
	Stroke      Stroke
	Effort      Effort
	Equipment   []Equipment
	RestSeconds int // only meaningful when Kind is rest
	Notes       string
	RepeatCount int // a single step may stand for N swims of the same distance
}

// Repeat is a block whose children are executed Repeats times.
type Repeat struct {
	ID      string
	Repeats int
	Notes   string
	Items   []Node
}

func (*Step) isNode()   {}
func (*Repeat) isNode() {}

// NodeID returns the step ID.
func (s *Step) NodeID() string { return s.ID }

// NodeID returns the repeat block ID.
func (r *Repeat) NodeID() string { return r.ID }

// IsRest reports whether the step is a rest interval.
func (s *Step) IsRest() bool {
	return s.Kind == KindRest
}

// NewStep creates a swim step with a generated ID and a repeat count of 1.
func NewStep(kind StepKind, distance int, stroke Stroke) *Step {
	return &Step{
		ID:          NewNodeID(),
		Kind:        kind,
		Distance:    distance,
		Stroke:      stroke,
		RepeatCount: 1,
	}
}

// NewRest creates a rest step lasting the given number of seconds.
func NewRest(seconds int) *Step {
	return &Step{
		ID:          NewNodeID(),
		Kind:        KindRest,
		RestSeconds: seconds,
		RepeatCount: 1,
	}
}

// WithEffort sets the effort descriptor.
func (s *Step) WithEffort(e Effort) *Step {
	s.Effort = e
	return s
}

// WithEquipment sets the equipment used for the step.
func (s *Step) WithEquipment(eq ...Equipment) *Step {
	s.Equipment = eq
	return s
}

// WithNotes sets notes on the step.
func (s *Step) WithNotes(notes string) *Step {
	s.Notes = notes
	return s
}

// WithRepeatCount sets how many times the step's distance is swum.
func (s *Step) WithRepeatCount(n int) *Step {
	s.RepeatCount = n
	return s
}

// NewRepeat creates a repeat block with a generated ID.
func NewRepeat(repeats int, items ...Node) *Repeat {
	return &Repeat{
		ID:      NewNodeID(),
		Repeats: repeats,
		Items:   items,
	}
}

// WithNotes sets notes on the repeat block.
func (r *Repeat) WithNotes(notes string) *Repeat {
	r.Notes = notes
	return r
}

// NewNodeID returns a short random identifier for a tree node.
func NewNodeID() string {
	return uuid.New().String()[:8]
}

// Workout is a named, ordered list of top-level nodes.
type Workout struct {
	ID            uuid.UUID
	Name          string
	Description   string
	TotalDistance int // cached; recomputed from Items on every write
	Items         []Node
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// NewWorkout creates a new Workout with generated UUID and current timestamp.
func NewWorkout(name string) *Workout {
	now := time.Now()
	return &Workout{
		ID:        uuid.New(),
		Name:      name,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// WithDescription sets the workout description.
func (w *Workout) WithDescription(desc string) *Workout {
	w.Description = desc
	return w
}

// WithItems appends top-level nodes.
func (w *Workout) WithItems(items ...Node) *Workout {
	w.Items = append(w.Items, items...)
	return w
}

// Visit calls fn for every node in depth-first tree order. Depth is 0 for
// top-level nodes.
func Visit(nodes []Node, fn func(n Node, depth int)) {
	visit(nodes, 0, fn)
}

func visit(nodes []Node, depth int, fn func(Node, int)) {
	for _, n := range nodes {
		fn(n, depth)
		if r, ok := n.(*Repeat); ok {
			visit(r.Items, depth+1, fn)
		}
	}
}

// AssignIDs fills empty node IDs with generated ones.
func AssignIDs(nodes []Node) {
	Visit(nodes, func(n Node, _ int) {
		switch v := n.(type) {
		case *Step:
			if v.ID == "" {
				v.ID = NewNodeID()
			}
		case *Repeat:
			if v.ID == "" {
				v.ID = NewNodeID()
			}
		}
	})
}

// ValidationError lists every structural problem found in a workout tree.
type ValidationError struct {
	Problems []string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid workout: %s", strings.Join(e.Problems, "; "))
}

func (e *ValidationError) Unwrap() error {
	return ErrInvalidWorkout
}

// Validate checks the structural rules every derivation relies on.
func (w *Workout) Validate() error {
	var problems []string
	if strings.TrimSpace(w.Name) == "" {
		problems = append(problems, "name is required")
	}
	problems = append(problems, ValidateNodes(w.Items)...)
	if len(problems) > 0 {
		return &ValidationError{Problems: problems}
	}
	return nil
}

// ValidateNodes returns the structural problems in a node list.
func ValidateNodes(nodes []Node) []string {
	var problems []string
	seen := make(map[string]bool)

	Visit(nodes, func(n Node, _ int) {
		id := n.NodeID()
		if id == "" {
			problems = append(problems, "node without id")
		} else if seen[id] {
			problems = append(problems, fmt.Sprintf("duplicate id %s", id))
		}
		seen[id] = true

		switch v := n.(type) {
		case *Step:
			if v.Distance < 0 {
				problems = append(problems, fmt.Sprintf("step %s: negative distance %d", id, v.Distance))
			}
			if v.RestSeconds < 0 {
				problems = append(problems, fmt.Sprintf("step %s: negative rest %d", id, v.RestSeconds))
			}
			if v.RepeatCount < 1 {
				problems = append(problems, fmt.Sprintf("step %s: repeat count must be at least 1", id))
			}
		case *Repeat:
			if v.Repeats < 1 {
				problems = append(problems, fmt.Sprintf("repeat %s: repeats must be at least 1", id))
			}
			if len(v.Items) == 0 {
				problems = append(problems, fmt.Sprintf("repeat %s: no items", id))
			}
		}
	})
	return problems
}
