// Package icons renders UI sprites out of their source textures into
// standalone square images.
package icons

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"math"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/1siamBot/spritebake/engine/assetdb"
	"github.com/1siamBot/spritebake/engine/atlas"
	"github.com/1siamBot/spritebake/engine/texture"
)

// DefaultSize is the thumbnail canvas edge.
const DefaultSize = 64

// Mode selects how a sprite is framed.
type Mode int

const (
	ModeNone Mode = iota
	// ModeFit scales the sprite to fit a fixed canvas.
	ModeFit
	// ModeSquare keeps native size on a square canvas.
	ModeSquare
)

func (m Mode) String() string {
	switch m {
	case ModeFit:
		return "fit"
	case ModeSquare:
		return "square"
	default:
		return "none"
	}
}

// FitPlacement scales a w x h sprite so its longer side equals size and
// centers it. It returns the scaled dimensions and the top-left offset.
func FitPlacement(w, h, size int) (sw, sh int, off image.Point) {
	scale := float64(size) / float64(max(w, h))
	sw = max(1, int(math.Round(float64(w)*scale)))
	sh = max(1, int(math.Round(float64(h)*scale)))
	return sw, sh, image.Pt((size-sw)/2, (size-sh)/2)
}

// SquarePlacement returns the canvas edge for a native-size square render
// and the offset that centers a w x h sprite on it.
func SquarePlacement(w, h int) (side int, off image.Point) {
	side = max(w, h)
	return side, image.Pt((side-w)/2, (side-h)/2)
}

// Extractor writes icons to Dir as <sprite name>.png.
type Extractor struct {
	Textures *texture.Store
	Dir      string
	// Size is the fit canvas edge; zero means DefaultSize.
	Size int
	// UIPattern marks UI sprites by name; empty disables name matching.
	UIPattern string
	// NativeSquare enables ModeSquare for UI sprites that are not icons.
	NativeSquare bool
}

// Mode reports how si is rendered. Icons always fit; other UI sprites get a
// native square render when enabled.
func (e *Extractor) Mode(si *assetdb.SpriteInfo) Mode {
	if si.IsIcon {
		return ModeFit
	}
	if !e.NativeSquare {
		return ModeNone
	}
	if si.IsInputOutput || (e.UIPattern != "" && strings.Contains(si.Name, e.UIPattern)) {
		return ModeSquare
	}
	return ModeNone
}

// Path is the output file for a sprite.
func (e *Extractor) Path(name string) string {
	return filepath.Join(e.Dir, name+".png")
}

// Extract renders si in its mode and writes it. It returns the written path.
func (e *Extractor) Extract(ctx context.Context, si *assetdb.SpriteInfo) (string, error) {
	var (
		img *image.NRGBA
		err error
	)
	switch e.Mode(si) {
	case ModeFit:
		img, err = e.Fit(ctx, si)
	case ModeSquare:
		img, err = e.Square(ctx, si)
	default:
		return "", fmt.Errorf("%s is not a UI sprite", si.Name)
	}
	if err != nil {
		return "", err
	}

	path := e.Path(si.Name)
	if err := texture.Save(path, img); err != nil {
		return "", fmt.Errorf("%s: %w: %v", si.Name, texture.ErrRender, err)
	}
	return path, nil
}

// Fit crops si and scales it into a transparent Size x Size canvas.
func (e *Extractor) Fit(ctx context.Context, si *assetdb.SpriteInfo) (*image.NRGBA, error) {
	src, err := e.crop(ctx, si)
	if err != nil {
		return nil, err
	}
	size := e.Size
	if size <= 0 {
		size = DefaultSize
	}
	b := src.Bounds()
	sw, sh, off := FitPlacement(b.Dx(), b.Dy(), size)
	scaled := imaging.Resize(src, sw, sh, imaging.Lanczos)
	return imaging.Paste(imaging.New(size, size, color.NRGBA{}), scaled, off), nil
}

// Square draws si unscaled, centered on a square canvas as wide as its
// longer side.
func (e *Extractor) Square(ctx context.Context, si *assetdb.SpriteInfo) (*image.NRGBA, error) {
	src, err := e.crop(ctx, si)
	if err != nil {
		return nil, err
	}
	b := src.Bounds()
	side, off := SquarePlacement(b.Dx(), b.Dy())
	return imaging.Paste(imaging.New(side, side, color.NRGBA{}), src, off), nil
}

func (e *Extractor) crop(ctx context.Context, si *assetdb.SpriteInfo) (*image.NRGBA, error) {
	if !si.HasRect() {
		return nil, fmt.Errorf("%s uv size %vx%v: %w", si.Name, si.UVSize.X, si.UVSize.Y, texture.ErrDegenerateGeometry)
	}
	tex, err := e.Textures.Load(ctx, si.TextureName)
	if err != nil {
		return nil, err
	}
	r := atlas.UVRect(si.UVMin, si.UVSize).Intersect(tex.Image.Bounds())
	if r.Empty() {
		return nil, fmt.Errorf("%s lies outside %s: %w", si.Name, tex.Name, texture.ErrDegenerateGeometry)
	}
	return imaging.Crop(tex.Image, r), nil
}
