package main

import (
	"log"
	"os"

	"github.com/alecthomas/kong"
	"github.com/hajimehoshi/ebiten/v2"

	"github.com/1siamBot/spritebake/engine/assetdb"
	"github.com/1siamBot/spritebake/engine/config"
	"github.com/1siamBot/spritebake/engine/logging"
	"github.com/1siamBot/spritebake/engine/preview"
	"github.com/1siamBot/spritebake/engine/render"
)

var cli struct {
	Config   string `short:"c" help:"YAML config file" type:"path"`
	Database string `short:"d" help:"processed snapshot (defaults to the configured output)" type:"path"`
	Images   string `short:"i" help:"images directory" type:"path"`
}

func main() {
	kong.Parse(
		&cli,
		kong.Name("atlasview"),
		kong.Description("Browse generated atlases and icons with their pivots."),
	)

	cfg, err := config.Load(cli.Config)
	if err != nil {
		log.Fatal(err)
	}
	if cli.Images != "" {
		cfg.Paths.Images = cli.Images
	}
	path := cli.Database
	if path == "" {
		path = cfg.OutputPath()
	}

	db, err := assetdb.Load(path)
	if err != nil {
		log.Fatal(err)
	}
	slides := render.Slides(db, cfg.Paths.Images, cfg.Paths.UIDir)
	log.Printf("%s: %d slides", path, len(slides))

	ebiten.SetWindowSize(preview.ScreenWidth, preview.ScreenHeight)
	ebiten.SetWindowTitle("atlasview")
	ebiten.SetWindowResizingMode(ebiten.WindowResizingModeEnabled)

	viewer := preview.NewViewer(render.NewGallery(slides), logging.New(os.Stderr, logging.INFO))
	if err := ebiten.RunGame(viewer); err != nil {
		log.Fatal(err)
	}
}
