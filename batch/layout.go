package batch

import (
	"encoding/binary"
	"fmt"

	"github.com/milk9111/physbench/scene"
	"github.com/milk9111/physbench/task"
)

// Layout describes one task's result region:
//
//	scenes   [MaxSteps][SceneSize]byte
//	solved   [MaxSteps]byte
//	solution byte
//	recorded int32 (little endian)
//	steps    int32 (little endian)
type Layout struct {
	SceneSize int
	MaxSteps  int
}

func LayoutFor(t *task.Task, maxSteps int) Layout {
	return Layout{SceneSize: scene.EncodedSize(&t.Scene), MaxSteps: max(maxSteps, 0)}
}

func (l Layout) solvedOffset() int   { return l.SceneSize * l.MaxSteps }
func (l Layout) solutionOffset() int { return l.solvedOffset() + l.MaxSteps }
func (l Layout) recordedOffset() int { return l.solutionOffset() + 1 }
func (l Layout) stepsOffset() int    { return l.recordedOffset() + 4 }

func (l Layout) Size() int { return l.stepsOffset() + 4 }

// Write stores sim into region, which must be exactly Size bytes. Every
// sampled scene must encode to SceneSize bytes.
func (l Layout) Write(region []byte, sim *task.TaskSimulation) error {
	if len(region) != l.Size() {
		return fmt.Errorf("batch: region is %d bytes, layout needs %d", len(region), l.Size())
	}
	n := len(sim.SceneList)
	if n > l.MaxSteps {
		return fmt.Errorf("%w: %d scenes for %d slots", ErrSizeMismatch, n, l.MaxSteps)
	}
	if len(sim.SolvedStateList) != 0 && len(sim.SolvedStateList) != n {
		return fmt.Errorf("%w: %d solved states for %d scenes", ErrSizeMismatch, len(sim.SolvedStateList), n)
	}
	// MarshalMsg may grow past the slot, so encode aside and copy in.
	var buf []byte
	for i := range sim.SceneList {
		out, err := sim.SceneList[i].MarshalMsg(buf[:0])
		if err != nil {
			return fmt.Errorf("batch: encode scene %d: %w", i, err)
		}
		if len(out) != l.SceneSize {
			return fmt.Errorf("%w: scene %d encodes to %d bytes, want %d", ErrSizeMismatch, i, len(out), l.SceneSize)
		}
		copy(region[i*l.SceneSize:(i+1)*l.SceneSize], out)
		buf = out
	}
	solved := region[l.solvedOffset():l.solutionOffset()]
	for i := range n {
		solved[i] = 0
		if i < len(sim.SolvedStateList) && sim.SolvedStateList[i] {
			solved[i] = 1
		}
	}
	region[l.solutionOffset()] = 0
	if sim.IsSolution {
		region[l.solutionOffset()] = 1
	}
	binary.LittleEndian.PutUint32(region[l.recordedOffset():], uint32(n))
	binary.LittleEndian.PutUint32(region[l.stepsOffset():], uint32(sim.StepsSimulated))
	return nil
}

func (l Layout) Read(region []byte) (*task.TaskSimulation, error) {
	if len(region) != l.Size() {
		return nil, fmt.Errorf("batch: region is %d bytes, layout needs %d", len(region), l.Size())
	}
	n := int(int32(binary.LittleEndian.Uint32(region[l.recordedOffset():])))
	if n < 0 || n > l.MaxSteps {
		return nil, fmt.Errorf("batch: region records %d scenes for %d slots", n, l.MaxSteps)
	}
	sim := &task.TaskSimulation{
		SceneList:       make([]scene.Scene, n),
		SolvedStateList: make([]bool, n),
		IsSolution:      region[l.solutionOffset()] != 0,
		StepsSimulated:  int32(binary.LittleEndian.Uint32(region[l.stepsOffset():])),
	}
	for i := range n {
		if _, err := sim.SceneList[i].UnmarshalMsg(region[i*l.SceneSize : (i+1)*l.SceneSize]); err != nil {
			return nil, fmt.Errorf("batch: decode scene %d: %w", i, err)
		}
		sim.SolvedStateList[i] = region[l.solvedOffset()+i] != 0
	}
	return sim, nil
}

// regions splits buf into consecutive per-task regions.
func regions(buf []byte, layouts []Layout) [][]byte {
	out := make([][]byte, len(layouts))
	off := 0
	for i, l := range layouts {
		out[i] = buf[off : off+l.Size() : off+l.Size()]
		off += l.Size()
	}
	return out
}

func totalSize(layouts []Layout) int {
	n := 0
	for _, l := range layouts {
		n += l.Size()
	}
	return n
}
