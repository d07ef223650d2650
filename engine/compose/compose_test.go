package compose

import (
	"context"
	"image"
	"image/color"
	"image/draw"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/1siamBot/spritebake/engine/assetdb"
	"github.com/1siamBot/spritebake/engine/atlas"
	"github.com/1siamBot/spritebake/engine/logging"
	"github.com/1siamBot/spritebake/engine/texture"
)

func filled(w, h int, c color.NRGBA) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: c}, image.Point{}, draw.Src)
	return img
}

// part registers a sprite info and a solid modifier placed at its own UV
// position with a top-left pivot, so layers land where they were cut from.
func part(db *assetdb.Database, name string, x, y, w, h float64, tags ...string) {
	if len(tags) == 0 {
		tags = []string{assetdb.TagSolid}
	}
	db.UpsertSpriteInfo(&assetdb.SpriteInfo{
		Name:        name,
		TextureName: "base",
		UVMin:       assetdb.V(x, y),
		UVSize:      assetdb.V(w, h),
		RealSize:    assetdb.V(w, h),
		Pivot:       assetdb.V(0, 1),
	})
	db.UpsertModifier(&assetdb.SpriteModifier{
		Name:           name + "_mod",
		SpriteInfoName: name,
		Tags:           tags,
		Scale:          assetdb.V(1, 1),
		Translation:    assetdb.V(x, -y),
	})
}

func setup(t *testing.T, names ...string) (*Compositor, *assetdb.Building) {
	t.Helper()
	db := assetdb.New()
	b := &assetdb.Building{PrefabID: "mill", TextureName: "base"}
	b.Sprites.SpriteNames = names
	db.Buildings = append(db.Buildings, b)

	store := texture.NewStore(t.TempDir(), 0)
	store.Put("base", filled(20, 20, color.NRGBA{R: 255, A: 255}))

	return &Compositor{
		DB:       db,
		Textures: store,
		OutDir:   t.TempDir(),
		Log:      logging.Discard(),
	}, b
}

func TestQualifies(t *testing.T) {
	cases := []struct {
		tags []string
		want bool
	}{
		{[]string{assetdb.TagSolid}, true},
		{[]string{assetdb.TagSolid, "shadow"}, true},
		{[]string{assetdb.TagSolid, assetdb.TagTileable}, false},
		{[]string{assetdb.TagConnection, assetdb.TagSolid}, false},
		{[]string{"shadow"}, false},
		{nil, false},
	}
	for _, tc := range cases {
		m := &assetdb.SpriteModifier{Tags: tc.tags}
		assert.Equal(t, tc.want, Qualifies(m), "%v", tc.tags)
	}
}

func TestComposeBuildsUnionAtlas(t *testing.T) {
	c, b := setup(t, "a_mod", "b_mod", "c_mod")
	part(c.DB, "a", 0, 0, 10, 10)
	part(c.DB, "b", 5, 5, 10, 10)
	part(c.DB, "c", 2, 2, 4, 4)

	res, err := c.Compose(context.Background(), b)
	require.NoError(t, err)

	// Pixel spans [0,10) and [5,15) cover the box (0,0)-(15,15).
	assert.Equal(t, Box{X: 0, Y: 0, W: 15, H: 15}, res.Bounds)
	assert.Equal(t, 3, res.Layers)

	si, ok := c.DB.SpriteInfo("mill_group_sprite")
	require.True(t, ok)
	assert.Equal(t, "mill_group_sprite", si.TextureName)
	assert.Equal(t, assetdb.V(0, 0), si.UVMin)
	assert.Equal(t, assetdb.V(15, 15), si.UVSize)
	assert.Equal(t, assetdb.V(15, 15), si.RealSize)
	assert.InDelta(t, 0, si.Pivot.X, 1e-9)
	assert.InDelta(t, 1, si.Pivot.Y, 1e-9)

	m, ok := c.DB.Modifier("mill_group_modifier")
	require.True(t, ok)
	assert.Equal(t, "mill_group_sprite", m.SpriteInfoName)
	assert.Equal(t, []string{assetdb.TagSolid}, m.Tags)
	assert.Equal(t, assetdb.V(1, 1), m.Scale)
	assert.Zero(t, m.Rotation)
	assert.Equal(t, assetdb.V(0, 0), m.Translation)

	assert.Contains(t, b.Sprites.SpriteNames, "mill_group_sprite")

	img, err := texture.DecodeFile(filepath.Join(c.OutDir, "mill_group_sprite.png"))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 15, 15), img.Bounds())

	// Re-origin leaves no transparent margin.
	r, ok := atlas.ScanAlpha(img, img.Bounds(), atlas.DefaultChunk)
	require.True(t, ok)
	assert.Equal(t, img.Bounds(), r)

	// Covered and uncovered pixels.
	assert.Equal(t, uint8(255), img.NRGBAAt(1, 1).A)
	assert.Equal(t, uint8(255), img.NRGBAAt(14, 14).A)
	assert.Equal(t, uint8(0), img.NRGBAAt(14, 0).A)
}

func TestComposeSkipsIneligible(t *testing.T) {
	c, b := setup(t, "a_mod", "tile_mod", "conn_mod", "shadow_mod")
	part(c.DB, "a", 0, 0, 10, 10)
	part(c.DB, "tile", 0, 0, 5, 5, assetdb.TagSolid, assetdb.TagTileable)
	part(c.DB, "conn", 0, 0, 5, 5, assetdb.TagSolid, assetdb.TagConnection)
	part(c.DB, "shadow", 0, 0, 5, 5, "shadow")

	_, err := c.Compose(context.Background(), b)
	require.ErrorIs(t, err, ErrIneligible)

	_, ok := c.DB.SpriteInfo("mill_group_sprite")
	assert.False(t, ok)
	_, ok = c.DB.Modifier("mill_group_modifier")
	assert.False(t, ok)
	assert.NotContains(t, b.Sprites.SpriteNames, "mill_group_sprite")

	entries, err := os.ReadDir(c.OutDir)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestComposeNoModifiers(t *testing.T) {
	c, b := setup(t)
	_, err := c.Compose(context.Background(), b)
	assert.ErrorIs(t, err, ErrIneligible)
}

func TestComposeMissingTexture(t *testing.T) {
	c, b := setup(t, "a_mod", "b_mod")
	part(c.DB, "a", 0, 0, 10, 10)
	part(c.DB, "b", 5, 5, 10, 10)
	b.TextureName = "absent"

	_, err := c.Compose(context.Background(), b)
	assert.ErrorIs(t, err, texture.ErrMissingAsset)
	_, ok := c.DB.SpriteInfo("mill_group_sprite")
	assert.False(t, ok)
}

func TestComposeIsRepeatable(t *testing.T) {
	c, b := setup(t, "a_mod", "b_mod")
	part(c.DB, "a", 0, 0, 10, 10)
	part(c.DB, "b", 5, 5, 10, 10)

	first, err := c.Compose(context.Background(), b)
	require.NoError(t, err)
	second, err := c.Compose(context.Background(), b)
	require.NoError(t, err)

	assert.Equal(t, first.Bounds, second.Bounds)
	assert.Len(t, c.DB.UISprites, 3)
	assert.Len(t, c.DB.SpriteModifiers, 3)
	assert.Equal(t, []string{"a_mod", "b_mod", "mill_group_sprite"}, b.Sprites.SpriteNames)
}

func TestFirstDeclaredLayerIsOnTop(t *testing.T) {
	red := color.NRGBA{R: 255, A: 255}
	blue := color.NRGBA{B: 255, A: 255}
	s := &Scene{}
	s.Add(&Layer{Src: filled(4, 4, red), ScaleX: 1, ScaleY: 1, Depth: 0})
	s.Add(&Layer{Src: filled(4, 4, blue), ScaleX: 1, ScaleY: 1, Depth: -1 / DepthStep})

	img, err := s.Rasterize(4, 4)
	require.NoError(t, err)
	assert.Equal(t, red, img.NRGBAAt(2, 2))
}

func TestLayerFlipsAndRotation(t *testing.T) {
	tex := &texture.Texture{Name: "t", Image: filled(10, 4, color.NRGBA{A: 255})}
	p := Part{
		Sprite: &assetdb.SpriteInfo{
			UVSize: assetdb.V(10, 4),
			Pivot:  assetdb.V(0.5, 0.5),
		},
		Modifier: &assetdb.SpriteModifier{
			Scale:       assetdb.V(1, 1),
			Rotation:    90,
			Translation: assetdb.V(0, 3),
		},
	}
	l := NewLayer(tex, p, 2)
	assert.InDelta(t, -2/DepthStep, l.Depth, 1e-12)
	assert.Equal(t, -3.0, l.Y)
	assert.Equal(t, -90.0, l.Angle)

	b := l.Bounds()
	assert.InDelta(t, 4, b.W, 1e-9)
	assert.InDelta(t, 10, b.H, 1e-9)
	assert.InDelta(t, -2, b.X, 1e-9)
	assert.InDelta(t, -8, b.Y, 1e-9)
}

func TestLayerScaleAndSubImageOffset(t *testing.T) {
	tex := &texture.Texture{Name: "t", Image: filled(20, 20, color.NRGBA{A: 255})}
	p := Part{
		Sprite: &assetdb.SpriteInfo{
			UVMin:  assetdb.V(6, 8),
			UVSize: assetdb.V(4, 2),
			Pivot:  assetdb.V(0, 1),
		},
		Modifier: &assetdb.SpriteModifier{Scale: assetdb.V(2, 3)},
	}
	b := NewLayer(tex, p, 0).Bounds()
	assert.Equal(t, Box{X: 0, Y: 0, W: 8, H: 6}, b)
}

func TestGroupPivot(t *testing.T) {
	p := GroupPivot(Box{X: -5, Y: -10, W: 10, H: 20})
	assert.InDelta(t, 0.5, p.X, 1e-9)
	assert.InDelta(t, 0.5, p.Y, 1e-9)

	p = GroupPivot(Box{X: 0, Y: -20, W: 10, H: 20})
	assert.InDelta(t, 0, p.X, 1e-9)
	assert.InDelta(t, 0, p.Y, 1e-9)
}

func TestRasterizeRejectsEmptyBox(t *testing.T) {
	_, err := (&Scene{}).Rasterize(0, 5)
	assert.ErrorIs(t, err, ErrDegenerateGeometry)
}
