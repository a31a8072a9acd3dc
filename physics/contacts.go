package physics

import "github.com/jakecoffman/cp"

// setupHandlers records which GENERAL bodies are in contact during the
// current step. Contacts with USER or bounding-box bodies are never
// recorded.
func (w *World) setupHandlers() {
	handler := w.space.NewCollisionHandler(collisionTypeGeneral, collisionTypeGeneral)
	handler.UserData = w
	handler.PreSolveFunc = func(arb *cp.Arbiter, space *cp.Space, userData interface{}) bool {
		world, ok := userData.(*World)
		if !ok || world == nil {
			return true
		}
		shapeA, shapeB := arb.Shapes()
		a, okA := world.byBody[shapeA.Body()]
		b, okB := world.byBody[shapeB.Body()]
		if !okA || !okB {
			return true
		}
		world.touching[pairKey(a.Tag.Index, b.Tag.Index)] = struct{}{}
		return true
	}
}

func pairKey(a, b int) [2]int {
	if a > b {
		a, b = b, a
	}
	return [2]int{a, b}
}

// Touching reports whether GENERAL bodies a and b had an active contact in
// the last step.
func (w *World) Touching(a, b int) bool {
	_, ok := w.touching[pairKey(a, b)]
	return ok
}

// TouchingPairs returns the number of GENERAL pairs in contact.
func (w *World) TouchingPairs() int { return len(w.touching) }
