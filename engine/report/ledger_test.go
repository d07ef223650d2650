package report

import (
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1siamBot/spritebake/engine/batch"
	"github.com/1siamBot/spritebake/engine/texture"
)

func TestLedgerRecordsItems(t *testing.T) {
	l, err := Open(filepath.Join(t.TempDir(), "runs", "ledger.db"))
	require.NoError(t, err)
	defer l.Close()

	items := []batch.Item{
		{Phase: batch.PhaseLoadTextures, Kind: "texture", Name: "farm_0", Outcome: batch.Outcome{Status: batch.Succeeded}},
		{Phase: batch.PhaseCompositeGroups, Kind: "building", Name: "Farm", Outcome: batch.Outcome{
			Status: batch.Failed, Reason: "missing_asset", Err: fmt.Errorf("farm_0: %w", texture.ErrMissingAsset), Duration: time.Millisecond,
		}},
		{Phase: batch.PhaseCompositeGroups, Kind: "building", Name: "Ladder", Outcome: batch.Outcome{Status: batch.Skipped, Reason: "ineligible"}},
	}
	for _, it := range items {
		require.NoError(t, l.Record("run-1", it))
	}
	require.NoError(t, l.Record("run-2", items[1]))

	n, err := l.Count("run-1", batch.Failed)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	n, err = l.Count("run-1", batch.Succeeded)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	fails, err := l.Failures("run-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"building Farm: missing_asset"}, fails)
}

func TestLedgerAttachFollowsBus(t *testing.T) {
	l, err := Open(filepath.Join(t.TempDir(), "ledger.db"))
	require.NoError(t, err)
	defer l.Close()

	bus := batch.NewEventBus()
	var errs []error
	l.Attach(bus, func(err error) { errs = append(errs, err) })

	bus.Emit(batch.Event{Type: batch.EvtItemFinished, RunID: "r", Payload: batch.Item{
		Phase: batch.PhaseScanUV, Kind: "sprite", Name: "gear", Outcome: batch.Outcome{Status: batch.Skipped, Reason: "transparent"},
	}})
	sum := &batch.Summary{RunID: "r", Started: time.Now()}
	bus.Emit(batch.Event{Type: batch.EvtRunFinished, RunID: "r", Payload: sum})
	bus.Emit(batch.Event{Type: batch.EvtRunFinished, RunID: "r", Payload: sum})
	bus.Dispatch()

	assert.Empty(t, errs)
	n, err := l.Count("r", batch.Skipped)
	require.NoError(t, err)
	assert.Equal(t, 1, n)

	var runs int
	require.NoError(t, l.db.QueryRow(`SELECT COUNT(*) FROM runs`).Scan(&runs))
	assert.Equal(t, 1, runs)
}

func TestOpenRejectsEmptyPath(t *testing.T) {
	_, err := Open("")
	assert.Error(t, err)
}
