// ABOUTME: Distance aggregation over a workout tree.
// ABOUTME: Repeat blocks multiply their children; rest steps contribute nothing.
package workout

import (
	"fmt"

	"github.com/harperreed/swim/internal/models"
)

// TotalDistance returns the swim distance in meters for a node list.
func TotalDistance(nodes []models.Node) int {
	total := 0
	for _, n := range nodes {
		switch v := n.(type) {
		case *models.Step:
			if !v.IsRest() {
				total += v.Distance
			}
		case *models.Repeat:
			total += v.Repeats * TotalDistance(v.Items)
		default:
			panic(fmt.Sprintf("workout: unexpected node type %T", n))
		}
	}
	return total
}

// Refresh recomputes the cached total distance. Call it after any
// structural change to the tree.
func Refresh(w *models.Workout) {
	w.TotalDistance = TotalDistance(w.Items)
}

// Prepare assigns missing node IDs, validates the tree, and refreshes the
// distance cache. Storage writes go through it.
func Prepare(w *models.Workout) error {
	models.AssignIDs(w.Items)
	if err := w.Validate(); err != nil {
		return err
	}
	Refresh(w)
	return nil
}
