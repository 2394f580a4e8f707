// ABOUTME: JSON and YAML encoding for workouts and their tagged node trees.
// ABOUTME: NodeDoc is the wire shape; a "type" field selects step, rest, or repeat.
package models

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// Node type tags used on the wire.
const (
	NodeTypeStep   = "step"
	NodeTypeRest   = "rest"
	NodeTypeRepeat = "repeat"
)

// NodeDoc is the serialized form of a Step or Repeat.
type NodeDoc struct {
	Type        string    `json:"type" yaml:"type"`
	ID          string    `json:"id,omitempty" yaml:"id,omitempty"`
	Kind        string    `json:"kind,omitempty" yaml:"kind,omitempty"`
	Distance    int       `json:"distance,omitempty" yaml:"distance,omitempty"`
	Stroke      string    `json:"stroke,omitempty" yaml:"stroke,omitempty"`
	Effort      string    `json:"effort,omitempty" yaml:"effort,omitempty"`
	Equipment   []string  `json:"equipment,omitempty" yaml:"equipment,omitempty"`
	RestSeconds int       `json:"rest_seconds,omitempty" yaml:"rest_seconds,omitempty"`
	RepeatCount int       `json:"repeat_count,omitempty" yaml:"repeat_count,omitempty"`
	Repeats     int       `json:"repeats,omitempty" yaml:"repeats,omitempty"`
	Notes       string    `json:"notes,omitempty" yaml:"notes,omitempty"`
	Items       []NodeDoc `json:"items,omitempty" yaml:"items,omitempty"`
}

// NodesToDocs converts a node tree into its wire form.
func NodesToDocs(nodes []Node) []NodeDoc {
	docs := make([]NodeDoc, 0, len(nodes))
	for _, n := range nodes {
		switch v := n.(type) {
		case *Step:
			d := NodeDoc{
				Type:        NodeTypeStep,
				ID:          v.ID,
				Kind:        string(v.Kind),
				Distance:    v.Distance,
				Stroke:      string(v.Stroke),
				Effort:      string(v.Effort),
				RestSeconds: v.RestSeconds,
				Notes:       v.Notes,
			}
			if v.RepeatCount > 1 {
				d.RepeatCount = v.RepeatCount
			}
			for _, eq := range v.Equipment {
				d.Equipment = append(d.Equipment, string(eq))
			}
			docs = append(docs, d)
		case *Repeat:
			docs = append(docs, NodeDoc{
				Type:    NodeTypeRepeat,
				ID:      v.ID,
				Repeats: v.Repeats,
				Notes:   v.Notes,
				Items:   NodesToDocs(v.Items),
			})
		default:
			panic(fmt.Sprintf("models: unexpected node type %T", n))
		}
	}
	return docs
}

// NodesFromDocs rebuilds a node tree. Missing type tags are inferred: a doc
// with repeats or items is a repeat block, anything else a step.
func NodesFromDocs(docs []NodeDoc) ([]Node, error) {
	nodes := make([]Node, 0, len(docs))
	for i := range docs {
		n, err := nodeFromDoc(&docs[i])
		if err != nil {
			return nil, err
		}
		nodes = append(nodes, n)
	}
	return nodes, nil
}

func nodeFromDoc(d *NodeDoc) (Node, error) {
	typ := d.Type
	if typ == "" {
		typ = NodeTypeStep
		if d.Repeats != 0 || len(d.Items) > 0 {
			typ = NodeTypeRepeat
		}
	}

	switch typ {
	case NodeTypeStep, NodeTypeRest:
		s := &Step{
			ID:          d.ID,
			Kind:        StepKind(d.Kind),
			Distance:    d.Distance,
			Stroke:      Stroke(d.Stroke),
			Effort:      Effort(d.Effort),
			RestSeconds: d.RestSeconds,
			Notes:       d.Notes,
			RepeatCount: d.RepeatCount,
		}
		if typ == NodeTypeRest {
			s.Kind = KindRest
		}
		if s.RepeatCount == 0 {
			s.RepeatCount = 1
		}
		for _, eq := range d.Equipment {
			s.Equipment = append(s.Equipment, Equipment(eq))
		}
		return s, nil
	case NodeTypeRepeat:
		items, err := NodesFromDocs(d.Items)
		if err != nil {
			return nil, err
		}
		return &Repeat{
			ID:      d.ID,
			Repeats: d.Repeats,
			Notes:   d.Notes,
			Items:   items,
		}, nil
	default:
		return nil, fmt.Errorf("unknown node type %q", d.Type)
	}
}

// workoutDoc is the serialized form of a Workout.
type workoutDoc struct {
	ID            string    `json:"id,omitempty" yaml:"id,omitempty"`
	Name          string    `json:"name" yaml:"name"`
	Description   string    `json:"description,omitempty" yaml:"description,omitempty"`
	TotalDistance int       `json:"total_distance" yaml:"total_distance,omitempty"`
	Items         []NodeDoc `json:"items" yaml:"items"`
	CreatedAt     time.Time `json:"created_at,omitempty" yaml:"created_at,omitempty"`
	UpdatedAt     time.Time `json:"updated_at,omitempty" yaml:"updated_at,omitempty"`
}

func (w Workout) toDoc() workoutDoc {
	doc := workoutDoc{
		Name:          w.Name,
		Description:   w.Description,
		TotalDistance: w.TotalDistance,
		Items:         NodesToDocs(w.Items),
		CreatedAt:     w.CreatedAt,
		UpdatedAt:     w.UpdatedAt,
	}
	if w.ID != uuid.Nil {
		doc.ID = w.ID.String()
	}
	return doc
}

func (w *Workout) fromDoc(doc *workoutDoc) error {
	items, err := NodesFromDocs(doc.Items)
	if err != nil {
		return err
	}

	id := uuid.New()
	if doc.ID != "" {
		id, err = uuid.Parse(doc.ID)
		if err != nil {
			return fmt.Errorf("parse workout ID %q: %w", doc.ID, err)
		}
	}

	now := time.Now()
	*w = Workout{
		ID:            id,
		Name:          doc.Name,
		Description:   doc.Description,
		TotalDistance: doc.TotalDistance,
		Items:         items,
		CreatedAt:     doc.CreatedAt,
		UpdatedAt:     doc.UpdatedAt,
	}
	if w.CreatedAt.IsZero() {
		w.CreatedAt = now
	}
	if w.UpdatedAt.IsZero() {
		w.UpdatedAt = w.CreatedAt
	}
	return nil
}

// MarshalJSON implements json.Marshaler.
func (w Workout) MarshalJSON() ([]byte, error) {
	return json.Marshal(w.toDoc())
}

// UnmarshalJSON implements json.Unmarshaler.
func (w *Workout) UnmarshalJSON(data []byte) error {
	var doc workoutDoc
	if err := json.Unmarshal(data, &doc); err != nil {
		return err
	}
	return w.fromDoc(&doc)
}

// MarshalYAML implements yaml.Marshaler.
func (w Workout) MarshalYAML() (interface{}, error) {
	return w.toDoc(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (w *Workout) UnmarshalYAML(value *yaml.Node) error {
	var doc workoutDoc
	if err := value.Decode(&doc); err != nil {
		return err
	}
	return w.fromDoc(&doc)
}

// ParseWorkout decodes a workout from JSON (when the document starts with
// '{') or YAML, and assigns IDs to nodes that lack one.
func ParseWorkout(data []byte) (*Workout, error) {
	var w Workout
	var err error
	if trimmed := bytes.TrimSpace(data); len(trimmed) > 0 && trimmed[0] == '{' {
		err = json.Unmarshal(trimmed, &w)
	} else {
		err = yaml.Unmarshal(data, &w)
	}
	if err != nil {
		return nil, fmt.Errorf("parse workout: %w", err)
	}
	AssignIDs(w.Items)
	return &w, nil
}
