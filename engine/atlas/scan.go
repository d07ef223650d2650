// Package atlas derives sprite rectangles from texture alpha and keeps the
// run's UV catalog.
package atlas

import (
	"image"
	"math"

	"github.com/1siamBot/spritebake/engine/assetdb"
	"github.com/1siamBot/spritebake/engine/texture"
)

// DefaultChunk is the scan tile edge in pixels.
const DefaultChunk = 100

// ScanAlpha returns the smallest rectangle inside area that contains every
// pixel with alpha > 0. The result uses image.Rectangle's exclusive Max, so
// Dx() == maxX-minX+1 for the inclusive pixel bounds. The area is visited in
// chunk x chunk tiles, each pixel exactly once. ok is false when the area is
// fully transparent.
func ScanAlpha(img *image.NRGBA, area image.Rectangle, chunk int) (r image.Rectangle, ok bool) {
	area = area.Intersect(img.Bounds())
	if area.Empty() {
		return image.Rectangle{}, false
	}
	if chunk <= 0 {
		chunk = DefaultChunk
	}

	minX, minY := area.Max.X, area.Max.Y
	maxX, maxY := area.Min.X-1, area.Min.Y-1
	for cy := area.Min.Y; cy < area.Max.Y; cy += chunk {
		for cx := area.Min.X; cx < area.Max.X; cx += chunk {
			ex := min(cx+chunk, area.Max.X)
			ey := min(cy+chunk, area.Max.Y)
			for y := cy; y < ey; y++ {
				off := img.PixOffset(cx, y) + 3
				for x := cx; x < ex; x, off = x+1, off+4 {
					if img.Pix[off] == 0 {
						continue
					}
					minX = min(minX, x)
					minY = min(minY, y)
					maxX = max(maxX, x)
					maxY = max(maxY, y)
				}
			}
		}
	}
	if maxX < minX {
		return image.Rectangle{}, false
	}
	return image.Rect(minX, minY, maxX+1, maxY+1), true
}

type scanKey struct {
	texture string
	area    image.Rectangle
}

type scanResult struct {
	rect image.Rectangle
	ok   bool
}

// Scanner resolves sprite rectangles and records them in a Catalog. Scans are
// cached per (texture, area): sprites that share a texture and scan area share
// one pass over the pixels.
type Scanner struct {
	chunk   int
	catalog *Catalog
	scans   map[scanKey]scanResult

	// Passes counts pixel passes actually performed.
	Passes int
}

func NewScanner(chunk int, catalog *Catalog) *Scanner {
	return &Scanner{
		chunk:   chunk,
		catalog: catalog,
		scans:   make(map[scanKey]scanResult),
	}
}

// ScanArea is the region a sprite is scanned in: its declared UV rect when it
// has one, the whole texture otherwise.
func ScanArea(tex *texture.Texture, si *assetdb.SpriteInfo) image.Rectangle {
	if !si.HasRect() {
		return tex.Image.Bounds()
	}
	return UVRect(si.UVMin, si.UVSize)
}

// UVRect converts a UV min/size pair to pixel bounds, widening fractional
// edges outward.
func UVRect(uvMin, uvSize assetdb.Vector2) image.Rectangle {
	return image.Rect(
		int(math.Floor(uvMin.X)),
		int(math.Floor(uvMin.Y)),
		int(math.Ceil(uvMin.X+uvSize.X)),
		int(math.Ceil(uvMin.Y+uvSize.Y)),
	)
}

// Resolve returns the catalog entry for si inside tex, scanning on first use.
// ok is false when the scan area holds no opaque pixel; nothing is recorded
// in that case.
func (s *Scanner) Resolve(tex *texture.Texture, si *assetdb.SpriteInfo) (Entry, bool) {
	if e, ok := s.catalog.Lookup(tex.Name, si.Name); ok {
		return e, true
	}

	key := scanKey{texture: tex.Name, area: ScanArea(tex, si)}
	res, cached := s.scans[key]
	if !cached {
		res.rect, res.ok = ScanAlpha(tex.Image, key.area, s.chunk)
		s.scans[key] = res
		s.Passes++
	}
	if !res.ok {
		return Entry{}, false
	}

	size := assetdb.V(float64(res.rect.Dx()), float64(res.rect.Dy()))
	e := Entry{
		UVMin:    assetdb.V(float64(res.rect.Min.X), float64(res.rect.Min.Y)),
		UVSize:   size,
		RealSize: size,
	}
	s.catalog.Put(tex.Name, si.Name, e)
	return e, true
}

// Forget drops cached scans for a texture, e.g. once it is released.
func (s *Scanner) Forget(textureName string) {
	for k := range s.scans {
		if k.texture == textureName {
			delete(s.scans, k)
		}
	}
}

// DefaultPivot is assigned to sprites resolved from a whole-texture scan.
var DefaultPivot = assetdb.V(0.5, 0.5)

// Geometry turns a catalog entry into the values written back onto si.
//
// A sprite without a declared rect gets DefaultPivot. A sprite whose declared
// rect was tightened keeps its anchor on the same texture pixel, re-expressed
// in the new rect and clamped to [0,1]. An unchanged rect keeps its pivot.
func Geometry(si *assetdb.SpriteInfo, e Entry) assetdb.Geometry {
	g := assetdb.Geometry{UVMin: e.UVMin, UVSize: e.UVSize, RealSize: e.RealSize, Pivot: si.Pivot}
	switch {
	case !si.HasRect():
		g.Pivot = DefaultPivot
	case si.UVMin != e.UVMin || si.UVSize != e.UVSize:
		// Pivot Y is bottom-up; texture Y is top-down.
		ax := si.UVMin.X + si.Pivot.X*si.UVSize.X
		ay := si.UVMin.Y + (1-si.Pivot.Y)*si.UVSize.Y
		g.Pivot = assetdb.V(
			clamp01((ax-e.UVMin.X)/e.UVSize.X),
			clamp01(1-(ay-e.UVMin.Y)/e.UVSize.Y),
		)
	}
	return g
}

func clamp01(v float64) float64 {
	return math.Max(0, math.Min(1, v))
}
