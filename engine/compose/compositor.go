package compose

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/1siamBot/spritebake/engine/assetdb"
	"github.com/1siamBot/spritebake/engine/atlas"
	"github.com/1siamBot/spritebake/engine/logging"
	"github.com/1siamBot/spritebake/engine/texture"
)

var (
	// ErrIneligible marks a building with fewer than two qualifying modifiers.
	ErrIneligible = errors.New("fewer than two qualifying modifiers")
	ErrDegenerateGeometry = texture.ErrDegenerateGeometry
	ErrRender             = texture.ErrRender
)

// DepthStep spaces consecutive layers so draw order never ties.
const DepthStep = 50.0

// Naming of generated records.
func GroupSpriteName(prefabID string) string   { return prefabID + "_group_sprite" }
func GroupModifierName(prefabID string) string { return prefabID + "_group_modifier" }

// Qualifies reports whether a modifier may be baked into a static atlas:
// tagged solid and not drawn procedurally (tileable, connection).
func Qualifies(m *assetdb.SpriteModifier) bool {
	return m.HasTag(assetdb.TagSolid) &&
		!m.HasTag(assetdb.TagTileable) &&
		!m.HasTag(assetdb.TagConnection)
}

// Part is a qualifying modifier with its resolved sprite info.
type Part struct {
	Modifier *assetdb.SpriteModifier
	Sprite   *assetdb.SpriteInfo
}

// Qualifying resolves a building's draw order into the parts that can be
// composited, keeping declaration order. Names without a modifier, modifiers
// without a sprite info and sprite infos without a positive UV rect are left
// out.
func Qualifying(db *assetdb.Database, b *assetdb.Building) []Part {
	var parts []Part
	for _, name := range b.DrawOrder() {
		m, ok := db.Modifier(name)
		if !ok || !Qualifies(m) {
			continue
		}
		si, ok := db.SpriteInfo(m.SpriteInfoName)
		if !ok || !si.HasRect() {
			continue
		}
		parts = append(parts, Part{Modifier: m, Sprite: si})
	}
	return parts
}

// NewLayer positions one part. Sprite pivots are bottom-up and translations
// are authored Y-up, so both flip; rotation is negated to match the render
// target's clockwise convention.
func NewLayer(tex *texture.Texture, p Part, index int) *Layer {
	si, m := p.Sprite, p.Modifier
	return &Layer{
		Name:    m.Name,
		Src:     tex.Sub(atlas.UVRect(si.UVMin, si.UVSize)),
		AnchorX: si.Pivot.X,
		AnchorY: 1 - si.Pivot.Y,
		X:       m.Translation.X,
		Y:       -m.Translation.Y,
		ScaleX:  m.Scale.X,
		ScaleY:  m.Scale.Y,
		Angle:   -m.Rotation,
		Depth:   -float64(index) / DepthStep,
	}
}

// Result describes one generated atlas.
type Result struct {
	Building string
	Sprite   *assetdb.SpriteInfo
	Modifier *assetdb.SpriteModifier
	Bounds   Box
	Layers   int
	Path     string
}

// Compositor bakes buildings into atlases and registers them in the snapshot.
type Compositor struct {
	DB       *assetdb.Database
	Textures *texture.Store
	OutDir   string
	Log      *logging.Logger
}

// Compose builds, rasterizes and registers the atlas for one building. All
// scene resources are released before it returns.
func (c *Compositor) Compose(ctx context.Context, b *assetdb.Building) (*Result, error) {
	parts := Qualifying(c.DB, b)
	if len(parts) < 2 {
		return nil, fmt.Errorf("%s has %d: %w", b.PrefabID, len(parts), ErrIneligible)
	}

	tex, err := c.Textures.Load(ctx, b.TextureName)
	if err != nil {
		return nil, err
	}

	scene := &Scene{}
	defer scene.Release()
	for i, p := range parts {
		l := NewLayer(tex, p, i)
		if l.Src.Bounds().Empty() {
			c.Log.Debugf("%s: %s lies outside %s", b.PrefabID, p.Sprite.Name, tex.Name)
			continue
		}
		scene.Add(l)
	}
	if len(scene.Layers) < 2 {
		return nil, fmt.Errorf("%s: %d drawable layers: %w", b.PrefabID, len(scene.Layers), ErrDegenerateGeometry)
	}

	bounds := scene.Bounds()
	if bounds.Empty() {
		return nil, fmt.Errorf("%s bounds %+v: %w", b.PrefabID, bounds, ErrDegenerateGeometry)
	}
	c.Log.Debugf("%s: %d layers, bounds %+v", b.PrefabID, len(scene.Layers), bounds)

	scene.Reorigin(bounds.X, bounds.Y)
	w, h := int(bounds.W), int(bounds.H)
	img, err := scene.Rasterize(w, h)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", b.PrefabID, err)
	}

	spriteName := GroupSpriteName(b.PrefabID)
	path := filepath.Join(c.OutDir, spriteName+".png")
	if err := texture.Save(path, img); err != nil {
		return nil, fmt.Errorf("%s: %w: %v", b.PrefabID, ErrRender, err)
	}

	size := assetdb.V(bounds.W, bounds.H)
	si := &assetdb.SpriteInfo{
		Name:        spriteName,
		TextureName: spriteName,
		UVMin:       assetdb.V(0, 0),
		UVSize:      size,
		RealSize:    size,
		Pivot:       GroupPivot(bounds),
	}
	m := &assetdb.SpriteModifier{
		Name:           GroupModifierName(b.PrefabID),
		SpriteInfoName: spriteName,
		Tags:           []string{assetdb.TagSolid},
		Scale:          assetdb.V(1, 1),
	}
	c.DB.UpsertSpriteInfo(si)
	c.DB.UpsertModifier(m)
	assetdb.AppendBuildingSprite(b, spriteName)

	return &Result{
		Building: b.PrefabID,
		Sprite:   si,
		Modifier: m,
		Bounds:   bounds,
		Layers:   len(scene.Layers),
		Path:     path,
	}, nil
}

// GroupPivot keeps the shared scene origin as the anchor of the cropped
// atlas, expressed with a bottom-up Y axis. bounds is taken before re-origin.
func GroupPivot(bounds Box) assetdb.Vector2 {
	return assetdb.V(
		1-(bounds.W+bounds.X)/bounds.W,
		(bounds.H+bounds.Y)/bounds.H,
	)
}
