package main

import (
	"context"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/alecthomas/kong"

	"github.com/1siamBot/spritebake/engine/batch"
	"github.com/1siamBot/spritebake/engine/config"
	"github.com/1siamBot/spritebake/engine/logging"
	"github.com/1siamBot/spritebake/engine/metrics"
	"github.com/1siamBot/spritebake/engine/report"
)

const desc = `Scans sprite UV rects, extracts UI icons and bakes building sprite stacks into atlases.`

// version is set at link time.
var version = "dev"

// Globals are flags shared by every command. Non-empty values override the
// config file.
type Globals struct {
	Config   string `short:"c" help:"YAML config file (defaults to $SPRITEBAKE_CONFIG)" type:"path"`
	Database string `short:"d" help:"input snapshot, .json or .json.zst" type:"path"`
	Images   string `short:"i" help:"images directory" type:"path"`
	Output   string `short:"o" help:"output snapshot" type:"path"`
	LogLevel string `help:"debug, info, warn or error"`
	LogFile  string `help:"also log to this file" type:"path"`
}

func (g *Globals) setup() (*config.Config, *logging.Logger, error) {
	cfg, err := config.Load(g.Config)
	if err != nil {
		return nil, nil, err
	}
	if g.Database != "" {
		cfg.Paths.Database = g.Database
	}
	if g.Images != "" {
		cfg.Paths.Images = g.Images
	}
	if g.Output != "" {
		cfg.Paths.Output = g.Output
	}
	if g.LogLevel != "" {
		cfg.Log.Level = g.LogLevel
	}
	if g.LogFile != "" {
		cfg.Log.File = g.LogFile
	}

	log := logging.New(os.Stderr, logging.ParseLevel(cfg.Log.Level))
	if cfg.Log.File != "" {
		if err := log.OpenFile(cfg.Log.File); err != nil {
			return nil, nil, err
		}
	}
	return cfg, log, nil
}

type runCmd struct {
	Ledger  string `help:"sqlite run ledger" type:"path"`
	Metrics string `help:"prometheus textfile to write after the run" type:"path"`
}

func (c *runCmd) Run(g *Globals) error {
	cfg, log, err := g.setup()
	if err != nil {
		return err
	}
	defer log.Close()
	if c.Ledger != "" {
		cfg.Report.Ledger = c.Ledger
	}
	if c.Metrics != "" {
		cfg.Report.MetricsFile = c.Metrics
	}

	runner := batch.NewRunner(cfg, log)
	if cfg.Report.Ledger != "" {
		ledger, err := report.Open(cfg.Report.Ledger)
		if err != nil {
			return err
		}
		defer ledger.Close()
		ledger.Attach(runner.Bus, func(err error) { log.Warnf("ledger: %v", err) })
	}
	m := metrics.New()
	m.Attach(runner.Bus)

	sum, runErr := runner.Run(context.Background())
	if _, err := sum.WriteTo(os.Stdout); err != nil {
		return err
	}
	if cfg.Report.MetricsFile != "" {
		if err := m.WriteTextfile(cfg.Report.MetricsFile); err != nil {
			log.Warnf("metrics: %v", err)
		}
	}
	return runErr
}

type scanCmd struct{}

func (c *scanCmd) Run(g *Globals) error {
	cfg, log, err := g.setup()
	if err != nil {
		return err
	}
	defer log.Close()

	run, err := batch.NewRunner(cfg, log).Until(context.Background(), batch.PhaseScanUV)
	if err != nil {
		return err
	}

	tw := tabwriter.NewWriter(os.Stdout, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "texture\tsprite\tx\ty\tw\th")
	for _, tex := range run.Catalog.Textures() {
		for _, name := range run.Catalog.Sprites(tex) {
			e, _ := run.Catalog.Lookup(tex, name)
			fmt.Fprintf(tw, "%s\t%s\t%g\t%g\t%g\t%g\n", tex, name, e.UVMin.X, e.UVMin.Y, e.UVSize.X, e.UVSize.Y)
		}
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	counts := run.Summary.Counts(batch.PhaseScanUV)
	fmt.Printf("%d sprites resolved, %d transparent, %d failed\n", counts.Succeeded, counts.Skipped, counts.Failed)
	return nil
}

type versionCmd struct{}

func (versionCmd) Run() error {
	fmt.Println("spritebake", version)
	return nil
}

type CLI struct {
	Globals

	Run     runCmd     `cmd:"" default:"withargs" help:"run the full pipeline and write the output snapshot"`
	Scan    scanCmd    `cmd:"" help:"resolve UV rects and print the catalog without writing anything"`
	Version versionCmd `cmd:"" help:"print the version"`
}

func main() {
	var cli CLI
	ctx := kong.Parse(
		&cli,
		kong.Name("spritebake"),
		kong.Description(desc),
		kong.UsageOnError(),
	)
	ctx.FatalIfErrorf(ctx.Run(&cli.Globals))
}
