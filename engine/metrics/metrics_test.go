package metrics

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1siamBot/spritebake/engine/batch"
)

func TestAttachCountsBusEvents(t *testing.T) {
	m := New()
	bus := batch.NewEventBus()
	m.Attach(bus)

	item := func(status batch.Status, reason string) batch.Event {
		return batch.Event{Type: batch.EvtItemFinished, Payload: batch.Item{
			Phase: batch.PhaseCompositeGroups, Kind: "building",
			Outcome: batch.Outcome{Status: status, Reason: reason, Duration: 2 * time.Millisecond},
		}}
	}
	bus.Emit(item(batch.Succeeded, ""))
	bus.Emit(item(batch.Succeeded, ""))
	bus.Emit(item(batch.Failed, "missing_asset"))
	bus.Emit(batch.Event{Type: batch.EvtReclaimed, Payload: batch.Reclaim{Chunk: 1, Chunks: 2, RSS: 4096}})
	bus.Dispatch()

	assert.Equal(t, 2.0, testutil.ToFloat64(m.items.WithLabelValues("COMPOSITE_GROUPS", "succeeded", "")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.items.WithLabelValues("COMPOSITE_GROUPS", "failed", "missing_asset")))
	assert.Equal(t, 4096.0, testutil.ToFloat64(m.rss))
}

func TestWriteTextfile(t *testing.T) {
	m := New()
	m.Observe(batch.Item{Phase: batch.PhaseScanUV, Outcome: batch.Outcome{Status: batch.Skipped, Reason: "transparent"}})

	path := filepath.Join(t.TempDir(), "textfile", "spritebake.prom")
	require.NoError(t, m.WriteTextfile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `spritebake_items_total{phase="SCAN_UV",reason="transparent",status="skipped"} 1`)
	assert.Contains(t, string(data), "spritebake_item_duration_seconds_bucket")
}
