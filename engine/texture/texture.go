// Package texture decodes, holds and writes the raster images the pipeline
// works on. A Store is scoped to one run; nothing here is global.
package texture

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/draw"
	"image/png"
	"os"
	"path/filepath"
	"time"
)

var (
	// ErrMissingAsset means the referenced image file does not exist.
	ErrMissingAsset = errors.New("missing asset")
	// ErrDecode means the file exists but is not a readable image.
	ErrDecode = errors.New("decode failure")
	// ErrNotLoaded means a texture was requested before being loaded.
	ErrNotLoaded = errors.New("texture not loaded")
	// ErrDegenerateGeometry means a crop rect or render target has no area.
	ErrDegenerateGeometry = errors.New("degenerate geometry")
	// ErrRender means rasterizing or writing an output image failed.
	ErrRender = errors.New("render failure")
)

// Texture is a decoded image addressed by name. Pixels are kept in NRGBA so
// alpha can be read directly.
type Texture struct {
	Name  string
	Image *image.NRGBA
	// Bytes is the encoded size on disk.
	Bytes int64
}

func (t *Texture) Width() int  { return t.Image.Bounds().Dx() }
func (t *Texture) Height() int { return t.Image.Bounds().Dy() }

// Sub returns a view of r inside the texture without copying pixels. r is
// clipped to the texture bounds.
func (t *Texture) Sub(r image.Rectangle) *image.NRGBA {
	return t.Image.SubImage(r.Intersect(t.Image.Bounds())).(*image.NRGBA)
}

// Store is the run-scoped texture registry. It replaces a process-wide
// name table: the orchestrator owns one and passes it to each component.
type Store struct {
	dir     string
	timeout time.Duration
	byName  map[string]*Texture
}

// NewStore serves textures named <dir>/<name>.png. A zero timeout disables
// the soft load timeout.
func NewStore(dir string, timeout time.Duration) *Store {
	return &Store{
		dir:     dir,
		timeout: timeout,
		byName:  make(map[string]*Texture),
	}
}

// Path returns the file backing a texture name.
func (s *Store) Path(name string) string {
	return filepath.Join(s.dir, name+".png")
}

// Load decodes a texture and registers it. A texture already registered is
// returned as-is. Decoding runs under the store's soft timeout; a stalled
// decode becomes an error for this texture only.
func (s *Store) Load(ctx context.Context, name string) (*Texture, error) {
	if t, ok := s.byName[name]; ok {
		return t, nil
	}

	path := s.Path(name)
	st, err := os.Stat(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrMissingAsset)
		}
		return nil, fmt.Errorf("stat %s: %w", path, err)
	}

	if s.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.timeout)
		defer cancel()
	}

	type result struct {
		img *image.NRGBA
		err error
	}
	done := make(chan result, 1)
	go func() {
		img, err := DecodeFile(path)
		done <- result{img, err}
	}()

	select {
	case r := <-done:
		if r.err != nil {
			return nil, r.err
		}
		t := &Texture{Name: name, Image: r.img, Bytes: st.Size()}
		s.byName[name] = t
		return t, nil
	case <-ctx.Done():
		return nil, fmt.Errorf("load %s: %w", name, ctx.Err())
	}
}

// Put registers an already decoded image under name.
func (s *Store) Put(name string, img image.Image) *Texture {
	t := &Texture{Name: name, Image: ToNRGBA(img)}
	s.byName[name] = t
	return t
}

// Get returns a loaded texture.
func (s *Store) Get(name string) (*Texture, bool) {
	t, ok := s.byName[name]
	return t, ok
}

// Release drops one texture so its pixels can be collected.
func (s *Store) Release(name string) {
	delete(s.byName, name)
}

// ReleaseAll empties the store.
func (s *Store) ReleaseAll() {
	clear(s.byName)
}

func (s *Store) Len() int { return len(s.byName) }

// DecodeFile reads a PNG (or any registered image format) into NRGBA.
func DecodeFile(path string) (*image.NRGBA, error) {
	f, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", path, ErrMissingAsset)
		}
		return nil, err
	}
	defer f.Close()

	img, _, err := image.Decode(f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", path, ErrDecode, err)
	}
	return ToNRGBA(img), nil
}

// ToNRGBA returns img as an NRGBA with a zero origin, converting if needed.
func ToNRGBA(img image.Image) *image.NRGBA {
	if n, ok := img.(*image.NRGBA); ok && n.Bounds().Min == (image.Point{}) {
		return n
	}
	b := img.Bounds()
	out := image.NewNRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(out, out.Bounds(), img, b.Min, draw.Src)
	return out
}

// Save writes img as PNG, creating parent directories.
func Save(path string, img image.Image) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := png.Encode(f, img); err != nil {
		f.Close()
		os.Remove(path)
		return fmt.Errorf("encode %s: %w", path, err)
	}
	return f.Close()
}
