// Package batch drives a spritebake run through its phases, one item at a
// time, isolating failures per item.
package batch

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/1siamBot/spritebake/engine/compose"
	"github.com/1siamBot/spritebake/engine/texture"
)

// ErrFatalIO aborts a run: the input snapshot or images directory is
// unusable, or the output snapshot cannot be written. A failed output write
// is fatal because the run's only durable result would be lost.
var ErrFatalIO = errors.New("fatal io")

// errTransparent marks a sprite whose scan area holds no opaque pixel.
var errTransparent = errors.New("no opaque pixels")

// Phase is one step of a run. Phases run strictly in order.
type Phase int

const (
	PhaseInit Phase = iota
	PhaseLoadTextures
	PhaseScanUV
	PhaseExtractIcons
	PhaseCompositeGroups
	PhaseSerialize
	PhaseDone
	numPhases
)

var phaseNames = [numPhases]string{
	"INIT",
	"LOAD_TEXTURES",
	"SCAN_UV",
	"EXTRACT_ICONS",
	"COMPOSITE_GROUPS",
	"SERIALIZE",
	"DONE",
}

func (p Phase) String() string {
	if p < 0 || p >= numPhases {
		return fmt.Sprintf("Phase(%d)", int(p))
	}
	return phaseNames[p]
}

// Status is the result class of one item.
type Status int

const (
	Succeeded Status = iota
	Skipped
	Failed
	Fatal
)

func (s Status) String() string {
	switch s {
	case Succeeded:
		return "succeeded"
	case Skipped:
		return "skipped"
	case Failed:
		return "failed"
	case Fatal:
		return "fatal"
	}
	return "unknown"
}

// Outcome is what happened to one item.
type Outcome struct {
	Status   Status
	Reason   string
	Err      error
	Duration time.Duration
}

// Item identifies a processed unit of work and its outcome.
type Item struct {
	Phase Phase
	// Kind is texture, sprite, icon or building.
	Kind string
	Name string
	Outcome
}

// Attempt runs fn as one isolated item. A panic becomes a render failure;
// errors matching any of benign are skips rather than failures.
func Attempt(fn func() error, benign ...error) (o Outcome) {
	start := time.Now()
	defer func() {
		if r := recover(); r != nil {
			o = Outcome{Status: Failed, Err: fmt.Errorf("%w: panic: %v", texture.ErrRender, r)}
			o.Reason = Classify(o.Err)
		}
		o.Duration = time.Since(start)
	}()

	err := fn()
	if err == nil {
		return Outcome{Status: Succeeded}
	}
	o = Outcome{Status: Failed, Reason: Classify(err), Err: err}
	for _, b := range benign {
		if errors.Is(err, b) {
			o.Status = Skipped
			break
		}
	}
	return o
}

// Classify maps an error to a short reason used in logs, the ledger and
// metrics labels.
func Classify(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrFatalIO):
		return "fatal_io"
	case errors.Is(err, texture.ErrMissingAsset):
		return "missing_asset"
	case errors.Is(err, texture.ErrDecode):
		return "decode"
	case errors.Is(err, texture.ErrNotLoaded):
		return "not_loaded"
	case errors.Is(err, texture.ErrDegenerateGeometry):
		return "degenerate_geometry"
	case errors.Is(err, texture.ErrRender):
		return "render"
	case errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, compose.ErrIneligible):
		return "ineligible"
	case errors.Is(err, errTransparent):
		return "transparent"
	}
	return "error"
}

// Chunks splits items into consecutive slices of at most size elements.
func Chunks[T any](items []T, size int) [][]T {
	if size <= 0 {
		size = len(items)
	}
	var out [][]T
	for len(items) > 0 {
		n := min(size, len(items))
		out = append(out, items[:n:n])
		items = items[n:]
	}
	return out
}
