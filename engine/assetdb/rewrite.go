package assetdb

import "slices"

// Geometry is the resolved placement of a sprite inside its texture.
type Geometry struct {
	UVMin    Vector2
	UVSize   Vector2
	RealSize Vector2
	Pivot    Vector2
}

// ApplyGeometry updates an existing sprite info in place. It reports false
// when no sprite info has that name.
func (db *Database) ApplyGeometry(name string, g Geometry) bool {
	s, ok := db.SpriteInfo(name)
	if !ok {
		return false
	}
	s.UVMin = g.UVMin
	s.UVSize = g.UVSize
	s.RealSize = g.RealSize
	s.Pivot = g.Pivot
	return true
}

// UpsertSpriteInfo appends a sprite info, or replaces the record already
// registered under the same name so reruns do not accumulate duplicates.
func (db *Database) UpsertSpriteInfo(s *SpriteInfo) {
	if i, ok := db.spriteIdx[s.Name]; ok {
		db.UISprites[i] = s
		return
	}
	db.UISprites = append(db.UISprites, s)
	db.spriteIdx[s.Name] = len(db.UISprites) - 1
}

// UpsertModifier is UpsertSpriteInfo for sprite modifiers.
func (db *Database) UpsertModifier(m *SpriteModifier) {
	if i, ok := db.modIdx[m.Name]; ok {
		db.SpriteModifiers[i] = m
		return
	}
	db.SpriteModifiers = append(db.SpriteModifiers, m)
	db.modIdx[m.Name] = len(db.SpriteModifiers) - 1
}

// AppendBuildingSprite adds a sprite name to a building's sprite list unless
// it is already listed. It reports whether the list changed.
func AppendBuildingSprite(b *Building, name string) bool {
	if slices.Contains(b.Sprites.SpriteNames, name) {
		return false
	}
	b.Sprites.SpriteNames = append(b.Sprites.SpriteNames, name)
	return true
}
