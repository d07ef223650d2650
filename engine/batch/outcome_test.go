package batch

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/1siamBot/spritebake/engine/compose"
	"github.com/1siamBot/spritebake/engine/texture"
)

func TestAttemptRecoversPanics(t *testing.T) {
	o := Attempt(func() error {
		var m map[string]int
		m["boom"] = 1
		return nil
	})
	assert.Equal(t, Failed, o.Status)
	assert.Equal(t, "render", o.Reason)
	assert.ErrorIs(t, o.Err, texture.ErrRender)
}

func TestAttemptClassifies(t *testing.T) {
	assert.Equal(t, Succeeded, Attempt(func() error { return nil }).Status)

	o := Attempt(func() error {
		return fmt.Errorf("farm: %w", texture.ErrMissingAsset)
	})
	assert.Equal(t, Failed, o.Status)
	assert.Equal(t, "missing_asset", o.Reason)

	o = Attempt(func() error {
		return fmt.Errorf("mill: %w", compose.ErrIneligible)
	}, compose.ErrIneligible)
	assert.Equal(t, Skipped, o.Status)
	assert.Equal(t, "ineligible", o.Reason)

	o = Attempt(func() error {
		return fmt.Errorf("load big: %w", context.DeadlineExceeded)
	})
	assert.Equal(t, Failed, o.Status)
	assert.Equal(t, "timeout", o.Reason)

	o = Attempt(func() error { return errors.New("odd") }, compose.ErrIneligible)
	assert.Equal(t, Failed, o.Status)
	assert.Equal(t, "error", o.Reason)
}

func TestChunks(t *testing.T) {
	items := []int{1, 2, 3, 4, 5, 6, 7}
	assert.Equal(t, [][]int{{1, 2, 3}, {4, 5, 6}, {7}}, Chunks(items, 3))
	assert.Equal(t, [][]int{{1, 2, 3, 4, 5, 6, 7}}, Chunks(items, 0))
	assert.Empty(t, Chunks([]int{}, 5))

	// Appending to one chunk must not clobber the next.
	cs := Chunks(items, 2)
	_ = append(cs[0], 99)
	assert.Equal(t, 3, cs[1][0])
}

func TestPhaseNames(t *testing.T) {
	assert.Equal(t, "INIT", PhaseInit.String())
	assert.Equal(t, "COMPOSITE_GROUPS", PhaseCompositeGroups.String())
	assert.Equal(t, "DONE", PhaseDone.String())
	assert.Equal(t, "Phase(42)", Phase(42).String())
}

func TestEventBusQueuesUntilDispatch(t *testing.T) {
	bus := NewEventBus()
	var got []Phase
	bus.On(EvtPhaseStarted, func(e Event) { got = append(got, e.Phase) })

	bus.Emit(Event{Type: EvtPhaseStarted, Phase: PhaseInit})
	bus.Emit(Event{Type: EvtItemFinished})
	bus.Emit(Event{Type: EvtPhaseStarted, Phase: PhaseScanUV})
	assert.Empty(t, got)
	assert.Equal(t, 3, bus.Pending())

	bus.Dispatch()
	assert.Equal(t, []Phase{PhaseInit, PhaseScanUV}, got)
	assert.Zero(t, bus.Pending())
}
