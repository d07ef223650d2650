package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1siamBot/spritebake/engine/assetdb"
	"github.com/1siamBot/spritebake/engine/batch"
	"github.com/1siamBot/spritebake/engine/config"
	"github.com/1siamBot/spritebake/engine/logging"
	"github.com/1siamBot/spritebake/engine/texture"
)

func TestGeneratedAssetsBake(t *testing.T) {
	dir := t.TempDir()
	_, err := Generate(dir)
	require.NoError(t, err)

	cfg := config.Default()
	cfg.Paths.Database = filepath.Join(dir, "database", "database.json")
	cfg.Paths.Images = filepath.Join(dir, "images")
	cfg.Batch.Pause = 0

	sum, err := batch.NewRunner(cfg, logging.Discard()).Run(context.Background())
	require.NoError(t, err)
	assert.Empty(t, sum.Failures)

	assert.Equal(t, batch.Counts{Processed: 12, Succeeded: 12}, sum.Counts(batch.PhaseScanUV))
	assert.Equal(t, batch.Counts{Processed: 3, Succeeded: 3}, sum.Counts(batch.PhaseExtractIcons))
	assert.Equal(t, batch.Counts{Processed: 3, Succeeded: 2, Skipped: 1}, sum.Counts(batch.PhaseCompositeGroups))

	db, err := assetdb.Load(sum.Output)
	require.NoError(t, err)

	walls, ok := db.SpriteInfo("mill_walls")
	require.True(t, ok)
	assert.Equal(t, assetdb.V(40, 28), walls.UVSize)

	for _, id := range []string{"mill", "tower"} {
		si, ok := db.SpriteInfo(id + "_group_sprite")
		require.True(t, ok, id)
		img, err := texture.DecodeFile(filepath.Join(cfg.Paths.Images, si.Name+".png"))
		require.NoError(t, err)
		assert.Equal(t, int(si.UVSize.X), img.Bounds().Dx())
		assert.Equal(t, int(si.UVSize.Y), img.Bounds().Dy())
		assert.GreaterOrEqual(t, si.Pivot.X, 0.0)
		assert.LessOrEqual(t, si.Pivot.X, 1.0)
	}
	_, ok = db.SpriteInfo("hut_group_sprite")
	assert.False(t, ok)
}
