package simulation

import (
	"github.com/milk9111/physbench/common"
	"github.com/milk9111/physbench/task"
)

// solvedTracker is the hysteresis automaton that turns per-step solved
// observations into a verdict.
//
// NOT_TOUCHING starts out not looking when the pair is apart at the start,
// so a pair that simply never meets is settled by the post-loop check.
// TOUCHING_BRIEFLY accepts the first solved step. Everything else needs
// StepsForSolution consecutive solved steps while looking.
type solvedTracker struct {
	looking   bool
	instant   bool
	threshold int
	count     int
}

func newSolvedTracker(rels []task.SpatialRelationship, solvedAtStart bool) *solvedTracker {
	single := len(rels) == 1
	return &solvedTracker{
		looking:   !solvedAtStart || !single || rels[0] != task.NotTouching,
		instant:   single && rels[0] == task.TouchingBriefly,
		threshold: common.StepsForSolution,
	}
}

// observe feeds one step. It returns true when the run is solved and
// stepping should stop.
func (t *solvedTracker) observe(solved bool) bool {
	if !solved {
		t.looking = true
		t.count = 0
		return false
	}
	t.count++
	return t.looking && (t.count >= t.threshold || t.instant)
}

// settledWithoutLooking covers a run that was solved on every one of its
// observed steps without ever needing to look.
func (t *solvedTracker) settledWithoutLooking(observed int) bool {
	return !t.looking && t.count == observed
}
