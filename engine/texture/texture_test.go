package texture

import (
	"context"
	"errors"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeSquare(t *testing.T, path string, size int) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, size, size))
	img.SetNRGBA(1, 1, color.NRGBA{R: 255, A: 255})
	require.NoError(t, Save(path, img))
}

func TestStoreLoadAndRelease(t *testing.T) {
	dir := t.TempDir()
	writeSquare(t, filepath.Join(dir, "farm_0.png"), 8)

	s := NewStore(dir, 0)
	tex, err := s.Load(context.Background(), "farm_0")
	require.NoError(t, err)
	assert.Equal(t, 8, tex.Width())
	assert.Equal(t, 8, tex.Height())
	assert.Positive(t, tex.Bytes)

	again, err := s.Load(context.Background(), "farm_0")
	require.NoError(t, err)
	assert.Same(t, tex, again)
	assert.Equal(t, 1, s.Len())

	s.Release("farm_0")
	_, ok := s.Get("farm_0")
	assert.False(t, ok)
}

func TestStoreLoadMissing(t *testing.T) {
	s := NewStore(t.TempDir(), 0)
	_, err := s.Load(context.Background(), "nope")
	assert.ErrorIs(t, err, ErrMissingAsset)
}

func TestStoreLoadCorrupt(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "bad.png"), []byte("not a png"), 0644))
	s := NewStore(dir, 0)
	_, err := s.Load(context.Background(), "bad")
	assert.ErrorIs(t, err, ErrDecode)
}

func TestStoreLoadTimesOut(t *testing.T) {
	dir := t.TempDir()
	writeSquare(t, filepath.Join(dir, "big.png"), 2048)

	s := NewStore(dir, time.Nanosecond)
	_, err := s.Load(context.Background(), "big")
	require.Error(t, err)
	assert.True(t, errors.Is(err, context.DeadlineExceeded), "got %v", err)
	assert.Zero(t, s.Len())
	_, ok := s.Get("big")
	assert.False(t, ok)

	// The same file loads once the timeout is generous.
	s = NewStore(dir, time.Minute)
	tex, err := s.Load(context.Background(), "big")
	require.NoError(t, err)
	assert.Equal(t, 2048, tex.Width())
}

func TestSubSharesPixels(t *testing.T) {
	s := NewStore(t.TempDir(), 0)
	tex := s.Put("t", image.NewNRGBA(image.Rect(0, 0, 20, 20)))

	sub := tex.Sub(image.Rect(5, 5, 30, 10))
	assert.Equal(t, image.Rect(5, 5, 20, 10), sub.Bounds(), "clipped to the texture")

	sub.SetNRGBA(6, 6, color.NRGBA{A: 255})
	assert.Equal(t, uint8(255), tex.Image.NRGBAAt(6, 6).A)
}

func TestToNRGBARebasesOrigin(t *testing.T) {
	src := image.NewRGBA(image.Rect(10, 10, 14, 12))
	src.Set(10, 10, color.RGBA{G: 255, A: 255})
	out := ToNRGBA(src)
	assert.Equal(t, image.Rect(0, 0, 4, 2), out.Bounds())
	assert.Equal(t, uint8(255), out.NRGBAAt(0, 0).G)
}
