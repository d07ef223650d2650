package render

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/1siamBot/spritebake/engine/assetdb"
)

// Slide is one generated image the viewer can show.
type Slide struct {
	Name string
	Path string
	Kind string
	W, H int
	// Pivot is normalized with Y pointing up, as stored in the snapshot.
	Pivot assetdb.Vector2
}

// Anchor is the pivot in image pixels, Y down.
func (s Slide) Anchor() (float64, float64) {
	return s.Pivot.X * float64(s.W), (1 - s.Pivot.Y) * float64(s.H)
}

const groupSuffix = "_group_sprite"

// Slides lists the atlases and icons of a processed snapshot whose image
// files exist. Atlases come first, both in snapshot order.
func Slides(db *assetdb.Database, imagesDir, uiDir string) []Slide {
	var atlases, icons []Slide
	for _, si := range db.UISprites {
		switch {
		case strings.HasSuffix(si.Name, groupSuffix):
			atlases = appendIfExists(atlases, Slide{
				Name:  si.Name,
				Path:  filepath.Join(imagesDir, si.Name+".png"),
				Kind:  "atlas",
				W:     int(si.UVSize.X),
				H:     int(si.UVSize.Y),
				Pivot: si.Pivot,
			})
		case si.IsIcon:
			icons = appendIfExists(icons, Slide{
				Name:  si.Name,
				Path:  filepath.Join(imagesDir, uiDir, si.Name+".png"),
				Kind:  "icon",
				Pivot: assetdb.V(0.5, 0.5),
			})
		}
	}
	return append(atlases, icons...)
}

func appendIfExists(list []Slide, s Slide) []Slide {
	if _, err := os.Stat(s.Path); err != nil {
		return list
	}
	return append(list, s)
}

// Gallery cycles through slides.
type Gallery struct {
	Slides []Slide
	idx    int
}

func NewGallery(slides []Slide) *Gallery {
	return &Gallery{Slides: slides}
}

func (g *Gallery) Len() int   { return len(g.Slides) }
func (g *Gallery) Index() int { return g.idx }

// Current returns the selected slide; ok is false for an empty gallery.
func (g *Gallery) Current() (Slide, bool) {
	if len(g.Slides) == 0 {
		return Slide{}, false
	}
	return g.Slides[g.idx], true
}

// Next and Prev wrap around.
func (g *Gallery) Next() { g.step(1) }
func (g *Gallery) Prev() { g.step(-1) }

func (g *Gallery) step(d int) {
	n := len(g.Slides)
	if n == 0 {
		return
	}
	g.idx = ((g.idx+d)%n + n) % n
}
