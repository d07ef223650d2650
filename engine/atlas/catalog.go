package atlas

import (
	"sort"

	"github.com/1siamBot/spritebake/engine/assetdb"
)

// Entry is a discovered sprite rectangle in texture pixels.
type Entry struct {
	UVMin    assetdb.Vector2
	UVSize   assetdb.Vector2
	RealSize assetdb.Vector2
}

// Catalog maps (texture, sprite) to the rectangle found this run. It is
// rebuilt from scans every run and never persisted as such.
type Catalog struct {
	byTexture map[string]map[string]Entry
	n         int
}

func NewCatalog() *Catalog {
	return &Catalog{byTexture: make(map[string]map[string]Entry)}
}

func (c *Catalog) Put(textureName, sprite string, e Entry) {
	m, ok := c.byTexture[textureName]
	if !ok {
		m = make(map[string]Entry)
		c.byTexture[textureName] = m
	}
	if _, exists := m[sprite]; !exists {
		c.n++
	}
	m[sprite] = e
}

func (c *Catalog) Lookup(textureName, sprite string) (Entry, bool) {
	e, ok := c.byTexture[textureName][sprite]
	return e, ok
}

// Len is the number of (texture, sprite) entries.
func (c *Catalog) Len() int { return c.n }

// Count is the number of entries recorded for one texture.
func (c *Catalog) Count(textureName string) int { return len(c.byTexture[textureName]) }

// Textures lists catalogued texture names in sorted order.
func (c *Catalog) Textures() []string {
	names := make([]string, 0, len(c.byTexture))
	for name := range c.byTexture {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Sprites lists the sprite names catalogued for a texture in sorted order.
func (c *Catalog) Sprites(textureName string) []string {
	m := c.byTexture[textureName]
	names := make([]string, 0, len(m))
	for name := range m {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
