package batch

import (
	"context"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/google/uuid"

	"github.com/1siamBot/spritebake/engine/assetdb"
	"github.com/1siamBot/spritebake/engine/atlas"
	"github.com/1siamBot/spritebake/engine/compose"
	"github.com/1siamBot/spritebake/engine/config"
	"github.com/1siamBot/spritebake/engine/icons"
	"github.com/1siamBot/spritebake/engine/logging"
	"github.com/1siamBot/spritebake/engine/texture"
)

// Run is the state of one pipeline run. Every component receives what it
// needs from here; nothing is shared between runs.
type Run struct {
	ID       string
	DB       *assetdb.Database
	Textures *texture.Store
	Catalog  *atlas.Catalog
	Scanner  *atlas.Scanner
	Summary  *Summary
	Log      *logging.Logger

	phase Phase
}

// Phase is the phase currently executing, or the last one reached.
func (r *Run) Phase() Phase { return r.phase }

// Runner executes runs with a fixed configuration.
type Runner struct {
	Config *config.Config
	Log    *logging.Logger
	Bus    *EventBus
	// Sleep pauses between composite chunks.
	Sleep func(time.Duration)
}

func NewRunner(cfg *config.Config, log *logging.Logger) *Runner {
	return &Runner{
		Config: cfg,
		Log:    log,
		Bus:    NewEventBus(),
		Sleep:  time.Sleep,
	}
}

// Run executes every phase and writes the output snapshot. The error is
// non-nil only for a fatal abort; per-item failures are in the summary.
func (rn *Runner) Run(ctx context.Context) (*Summary, error) {
	run, err := rn.Until(ctx, PhaseDone)
	return run.Summary, err
}

// Until executes phases up to and including last. The scan command stops
// after PhaseScanUV and reads the catalog from the returned run.
func (rn *Runner) Until(ctx context.Context, last Phase) (*Run, error) {
	id := uuid.NewString()
	run := &Run{
		ID:      id,
		Summary: &Summary{RunID: id, Started: time.Now()},
		Log:     rn.Log.With(id[:8]),
	}

	steps := []func(context.Context, *Run) error{
		PhaseInit:            rn.initialize,
		PhaseLoadTextures:    rn.loadTextures,
		PhaseScanUV:          rn.scanUV,
		PhaseExtractIcons:    rn.extractIcons,
		PhaseCompositeGroups: rn.compositeGroups,
		PhaseSerialize:       rn.serialize,
	}
	for p, step := range steps {
		if Phase(p) > last {
			break
		}
		run.phase = Phase(p)
		rn.Bus.Emit(Event{Type: EvtPhaseStarted, RunID: id, Phase: run.phase})
		rn.Bus.Dispatch()
		run.Log.Debugf("phase %s", run.phase)

		if err := step(ctx, run); err != nil {
			run.Summary.Fatal = err
			run.Summary.Duration = time.Since(run.Summary.Started)
			run.Log.Errorf("%s: %v", run.phase, err)
			rn.finish(run)
			return run, err
		}
	}
	if last >= PhaseDone {
		run.phase = PhaseDone
	}
	run.Summary.Duration = time.Since(run.Summary.Started)
	rn.finish(run)
	return run, nil
}

func (rn *Runner) finish(run *Run) {
	rn.Bus.Emit(Event{Type: EvtRunFinished, RunID: run.ID, Phase: run.phase, Payload: run.Summary})
	rn.Bus.Dispatch()
}

// record books one item outcome and publishes it.
func (rn *Runner) record(run *Run, kind, name string, o Outcome) {
	it := Item{Phase: run.phase, Kind: kind, Name: name, Outcome: o}
	run.Summary.add(it)
	switch o.Status {
	case Failed:
		run.Log.Warnf("%s %s %q: %s: %v", run.phase, kind, name, o.Reason, o.Err)
	case Skipped:
		run.Log.Debugf("%s %s %q skipped: %s", run.phase, kind, name, o.Reason)
	}
	rn.Bus.Emit(Event{Type: EvtItemFinished, RunID: run.ID, Phase: run.phase, Payload: it})
}

func (rn *Runner) initialize(_ context.Context, run *Run) error {
	cfg := rn.Config
	st, err := os.Stat(cfg.Paths.Images)
	if err != nil {
		return fmt.Errorf("%w: images dir: %v", ErrFatalIO, err)
	}
	if !st.IsDir() {
		return fmt.Errorf("%w: images dir %s is not a directory", ErrFatalIO, cfg.Paths.Images)
	}

	db, err := assetdb.Load(cfg.Paths.Database)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrFatalIO, err)
	}
	run.DB = db
	run.Textures = texture.NewStore(cfg.Paths.Images, cfg.Batch.LoadTimeout)
	run.Catalog = atlas.NewCatalog()
	run.Scanner = atlas.NewScanner(cfg.Scan.ChunkSize, run.Catalog)
	run.Log.Infof("loaded %s: %d buildings, %d sprites, %d modifiers",
		cfg.Paths.Database, len(db.Buildings), len(db.UISprites), len(db.SpriteModifiers))
	return nil
}

// referencedTextures lists texture names in first-reference order, building
// textures first.
func referencedTextures(db *assetdb.Database) []string {
	seen := make(map[string]bool)
	var names []string
	add := func(n string) {
		if n == "" || seen[n] {
			return
		}
		seen[n] = true
		names = append(names, n)
	}
	for _, b := range db.Buildings {
		add(b.TextureName)
	}
	for _, si := range db.UISprites {
		add(si.TextureName)
	}
	return names
}

func (rn *Runner) loadTextures(ctx context.Context, run *Run) error {
	names := referencedTextures(run.DB)
	var total int64
	done := 0
	for _, chunk := range Chunks(names, rn.Config.Batch.ChunkSize) {
		for _, name := range chunk {
			o := Attempt(func() error {
				t, err := run.Textures.Load(ctx, name)
				if err != nil {
					return err
				}
				total += t.Bytes
				run.Log.Debugf("texture %s %dx%d (%s)", name, t.Width(), t.Height(), humanize.Bytes(uint64(t.Bytes)))
				return nil
			})
			rn.record(run, "texture", name, o)
		}
		done += len(chunk)
		run.Log.Infof("textures %d/%d", done, len(names))
		rn.Bus.Dispatch()
	}
	run.Log.Infof("decoded %d textures from %s on disk", run.Textures.Len(), humanize.Bytes(uint64(total)))
	return nil
}

func (rn *Runner) scanUV(_ context.Context, run *Run) error {
	for _, si := range run.DB.UISprites {
		o := Attempt(func() error {
			tex, ok := run.Textures.Get(si.TextureName)
			if !ok {
				return fmt.Errorf("%s: %w", si.TextureName, texture.ErrNotLoaded)
			}
			e, ok := run.Scanner.Resolve(tex, si)
			if !ok {
				return fmt.Errorf("%s in %s: %w", si.Name, tex.Name, errTransparent)
			}
			run.DB.ApplyGeometry(si.Name, atlas.Geometry(si, e))
			return nil
		}, errTransparent)
		rn.record(run, "sprite", si.Name, o)
	}
	rn.Bus.Dispatch()
	run.Log.Infof("catalog: %d sprites over %d textures, %d pixel passes",
		run.Catalog.Len(), len(run.Catalog.Textures()), run.Scanner.Passes)
	return nil
}

func (rn *Runner) extractIcons(ctx context.Context, run *Run) error {
	cfg := rn.Config
	ex := &icons.Extractor{
		Textures:     run.Textures,
		Dir:          cfg.UIPath(),
		Size:         cfg.Icons.Size,
		UIPattern:    cfg.Icons.UIPattern,
		NativeSquare: cfg.Icons.Square,
	}
	n := 0
	for _, si := range run.DB.UISprites {
		if ex.Mode(si) == icons.ModeNone {
			continue
		}
		o := Attempt(func() error {
			_, err := ex.Extract(ctx, si)
			return err
		})
		if o.Status == Succeeded {
			n++
		}
		rn.record(run, "icon", si.Name, o)
	}
	rn.Bus.Dispatch()
	run.Log.Infof("icons: %d written to %s", n, ex.Dir)
	return nil
}

func (rn *Runner) compositeGroups(ctx context.Context, run *Run) error {
	cfg := rn.Config
	c := &compose.Compositor{
		DB:       run.DB,
		Textures: run.Textures,
		OutDir:   cfg.Paths.Images,
		Log:      run.Log,
	}

	// Icons and scans are done; from here on only the current chunk's
	// textures are resident.
	run.Textures.ReleaseAll()

	chunks := Chunks(run.DB.Buildings, cfg.Batch.ChunkSize)
	atlases := 0
	for i, chunk := range chunks {
		for _, b := range chunk {
			o := Attempt(func() error {
				_, err := c.Compose(ctx, b)
				return err
			}, compose.ErrIneligible)
			if o.Status == Succeeded {
				atlases++
			}
			rn.record(run, "building", b.PrefabID, o)
		}
		for _, b := range chunk {
			run.Textures.Release(b.TextureName)
			run.Scanner.Forget(b.TextureName)
		}
		run.Log.Infof("buildings %d/%d", min((i+1)*cfg.Batch.ChunkSize, len(run.DB.Buildings)), len(run.DB.Buildings))

		if i < len(chunks)-1 {
			rn.between(run, i+1, len(chunks))
		}
		rn.Bus.Dispatch()
	}
	run.Log.Infof("atlases: %d generated", atlases)
	return nil
}

// between is the reclamation point after a composite chunk.
func (rn *Runner) between(run *Run, chunk, chunks int) {
	cfg := rn.Config.Batch
	if cfg.Pause > 0 && rn.Sleep != nil {
		rn.Sleep(cfg.Pause)
	}
	if !cfg.Reclaim {
		return
	}
	reclaim()
	rss := residentBytes()
	run.Log.Debugf("chunk %d/%d reclaimed, rss %s", chunk, chunks, humanize.Bytes(rss))
	rn.Bus.Emit(Event{Type: EvtReclaimed, RunID: run.ID, Phase: run.phase, Payload: Reclaim{Chunk: chunk, Chunks: chunks, RSS: rss}})
}

func (rn *Runner) serialize(_ context.Context, run *Run) error {
	out := rn.Config.OutputPath()
	if err := run.DB.Save(out); err != nil {
		return fmt.Errorf("%w: %v", ErrFatalIO, err)
	}
	run.Summary.Output = out
	run.Log.Infof("wrote %s", out)
	return nil
}
