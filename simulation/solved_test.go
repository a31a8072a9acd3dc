package simulation

import (
	"testing"

	"github.com/milk9111/physbench/task"
)

func run(tr *solvedTracker, observations []bool) (doneAt int) {
	for i, ok := range observations {
		if tr.observe(ok) {
			return i
		}
	}
	return -1
}

func repeat(v bool, n int) []bool {
	out := make([]bool, n)
	for i := range out {
		out[i] = v
	}
	return out
}

func TestSolvedTracker(t *testing.T) {
	tests := []struct {
		name          string
		rels          []task.SpatialRelationship
		solvedAtStart bool
		obs           []bool
		wantDoneAt    int
		wantSettled   bool
	}{
		{
			name:       "threshold reached",
			rels:       []task.SpatialRelationship{task.Touching},
			obs:        repeat(true, 200),
			wantDoneAt: 179,
		},
		{
			name:       "one short",
			rels:       []task.SpatialRelationship{task.Touching},
			obs:        repeat(true, 179),
			wantDoneAt: -1,
		},
		{
			name:       "reset by a miss",
			rels:       []task.SpatialRelationship{task.Above},
			obs:        append(append(repeat(true, 179), false), repeat(true, 180)...),
			wantDoneAt: 359,
		},
		{
			name:       "brief touch",
			rels:       []task.SpatialRelationship{task.TouchingBriefly},
			obs:        []bool{false, false, true, false},
			wantDoneAt: 2,
		},
		{
			name:          "never touching",
			rels:          []task.SpatialRelationship{task.NotTouching},
			solvedAtStart: true,
			obs:           repeat(true, 500),
			wantDoneAt:    -1,
			wantSettled:   true,
		},
		{
			name:          "not touching after a touch",
			rels:          []task.SpatialRelationship{task.NotTouching},
			solvedAtStart: true,
			obs:           append([]bool{true, false}, repeat(true, 180)...),
			wantDoneAt:    181,
		},
		{
			name:          "not touching from a touching start",
			rels:          []task.SpatialRelationship{task.NotTouching},
			solvedAtStart: false,
			obs:           repeat(true, 180),
			wantDoneAt:    179,
		},
		{
			name:          "two relationships always look",
			rels:          []task.SpatialRelationship{task.NotTouching, task.Above},
			solvedAtStart: true,
			obs:           repeat(true, 180),
			wantDoneAt:    179,
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			tr := newSolvedTracker(tc.rels, tc.solvedAtStart)
			got := run(tr, tc.obs)
			if got != tc.wantDoneAt {
				t.Fatalf("done at %d, want %d", got, tc.wantDoneAt)
			}
			if got == -1 {
				if settled := tr.settledWithoutLooking(len(tc.obs)); settled != tc.wantSettled {
					t.Fatalf("settled = %v, want %v", settled, tc.wantSettled)
				}
			}
		})
	}
}
