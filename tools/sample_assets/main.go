package main

import (
	"fmt"
	"image"
	"image/color"
	"log"
	"path/filepath"

	"github.com/alecthomas/kong"

	"github.com/1siamBot/spritebake/engine/assetdb"
	"github.com/1siamBot/spritebake/engine/texture"
)

const (
	cellSize = 64
	sheetW   = 128
	sheetH   = 128
)

type painter func(img *image.RGBA, cell image.Rectangle)

type partDef struct {
	name string
	draw painter
	tags []string
	at   assetdb.Vector2 // modifier translation, Y up
}

type buildingDef struct {
	id    string
	parts []partDef
}

var solid = []string{assetdb.TagSolid}

var buildings = []buildingDef{
	{id: "mill", parts: []partDef{
		{name: "mill_walls", draw: wallPart(40, 28, color.RGBA{210, 190, 150, 255}, color.RGBA{170, 150, 110, 255}), tags: solid},
		{name: "mill_roof", draw: roofPart(48, 20, color.RGBA{160, 60, 50, 255}), tags: solid, at: assetdb.V(0, 28)},
		{name: "mill_chimney", draw: chimneyPart, tags: solid, at: assetdb.V(12, 34)},
		{name: "mill_fence", draw: fencePart, tags: []string{assetdb.TagSolid, assetdb.TagTileable}, at: assetdb.V(-30, 0)},
	}},
	{id: "tower", parts: []partDef{
		{name: "tower_body", draw: wallPart(24, 50, color.RGBA{180, 180, 190, 255}, color.RGBA{130, 130, 140, 255}), tags: solid},
		{name: "tower_cap", draw: roofPart(30, 16, color.RGBA{70, 80, 150, 255}), tags: solid, at: assetdb.V(0, 50)},
		{name: "tower_flag", draw: flagPart, tags: solid, at: assetdb.V(0, 66)},
	}},
	{id: "hut", parts: []partDef{
		{name: "hut_walls", draw: wallPart(30, 20, color.RGBA{150, 120, 80, 255}, color.RGBA{120, 90, 60, 255}), tags: solid},
		{name: "hut_pipe", draw: chimneyPart, tags: []string{assetdb.TagConnection}, at: assetdb.V(8, 20)},
	}},
}

type iconDef struct {
	name string
	draw painter
	icon bool
	io   bool
}

var uiIcons = []iconDef{
	{name: "icon_gear", draw: gearIcon, icon: true},
	{name: "menu_ui_panel", draw: panelIcon},
	{name: "port_input", draw: portIcon, io: true},
}

func cell(i int) image.Rectangle {
	x := (i % (sheetW / cellSize)) * cellSize
	y := (i / (sheetW / cellSize)) * cellSize
	return image.Rect(x, y, x+cellSize, y+cellSize)
}

// declare registers a sprite info covering a whole sheet cell. The scan
// later tightens it to the painted pixels.
func declare(db *assetdb.Database, name, tex string, c image.Rectangle) *assetdb.SpriteInfo {
	size := assetdb.V(float64(c.Dx()), float64(c.Dy()))
	si := &assetdb.SpriteInfo{
		Name:        name,
		TextureName: tex,
		UVMin:       assetdb.V(float64(c.Min.X), float64(c.Min.Y)),
		UVSize:      size,
		RealSize:    size,
		Pivot:       assetdb.V(0.5, 0),
	}
	db.UpsertSpriteInfo(si)
	return si
}

// Generate writes sheets to <dir>/images and the snapshot to
// <dir>/database/database.json.
func Generate(dir string) (*assetdb.Database, error) {
	images := filepath.Join(dir, "images")
	db := assetdb.New()

	for _, bd := range buildings {
		tex := bd.id + "_sheet"
		sheet := image.NewRGBA(image.Rect(0, 0, sheetW, sheetH))
		b := &assetdb.Building{PrefabID: bd.id, TextureName: tex}
		for i, p := range bd.parts {
			c := cell(i)
			p.draw(sheet, c)
			declare(db, p.name, tex, c)
			db.UpsertModifier(&assetdb.SpriteModifier{
				Name:           p.name,
				SpriteInfoName: p.name,
				Tags:           p.tags,
				Scale:          assetdb.V(1, 1),
				Translation:    p.at,
			})
			b.SpriteGroup = append(b.SpriteGroup, p.name)
			b.Sprites.SpriteNames = append(b.Sprites.SpriteNames, p.name)
		}
		db.Buildings = append(db.Buildings, b)
		if err := texture.Save(filepath.Join(images, tex+".png"), sheet); err != nil {
			return nil, err
		}
	}

	sheet := image.NewRGBA(image.Rect(0, 0, sheetW, sheetH))
	for i, ic := range uiIcons {
		c := cell(i)
		ic.draw(sheet, c)
		si := declare(db, ic.name, "ui_sheet", c)
		si.IsIcon = ic.icon
		si.IsInputOutput = ic.io
	}
	if err := texture.Save(filepath.Join(images, "ui_sheet.png"), sheet); err != nil {
		return nil, err
	}

	path := filepath.Join(dir, "database", "database.json")
	if err := db.Save(path); err != nil {
		return nil, err
	}
	return db, nil
}

var cli struct {
	Out string `short:"o" default:"assets" help:"output directory" type:"path"`
}

func main() {
	kong.Parse(
		&cli,
		kong.Name("sample_assets"),
		kong.Description("Writes a small procedural asset tree for trying spritebake."),
	)
	db, err := Generate(cli.Out)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%d buildings, %d sprites -> %s\n", len(db.Buildings), len(db.UISprites), cli.Out)
}
