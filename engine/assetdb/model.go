// Package assetdb is the in-memory form of the game-asset metadata snapshot:
// sprite infos, sprite modifiers and buildings. Records keep any JSON fields
// the pipeline does not model so that a full rewrite never drops data.
package assetdb

import (
	"encoding/json"
	"slices"
)

// Vector2 is a 2D value in whatever space the owning field documents.
type Vector2 struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

func V(x, y float64) Vector2 { return Vector2{X: x, Y: y} }

// Tag values recognised on sprite modifiers.
const (
	TagSolid      = "solid"
	TagTileable   = "tileable"
	TagConnection = "connection"
)

// SpriteInfo locates a sprite inside a texture. UVMin/UVSize are texture
// pixels (top-left origin). Pivot is normalized with a bottom-up Y axis.
type SpriteInfo struct {
	Name          string  `json:"name"`
	TextureName   string  `json:"textureName"`
	IsIcon        bool    `json:"isIcon"`
	IsInputOutput bool    `json:"isInputOutput"`
	UVMin         Vector2 `json:"uvMin"`
	UVSize        Vector2 `json:"uvSize"`
	RealSize      Vector2 `json:"realSize"`
	Pivot         Vector2 `json:"pivot"`

	extra map[string]json.RawMessage
}

var spriteInfoKeys = []string{"name", "textureName", "isIcon", "isInputOutput", "uvMin", "uvSize", "realSize", "pivot"}

// HasRect reports whether the UV rect has positive area.
func (s *SpriteInfo) HasRect() bool {
	return s.UVSize.X > 0 && s.UVSize.Y > 0
}

func (s *SpriteInfo) UnmarshalJSON(data []byte) error {
	type plain SpriteInfo
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := unknownFields(data, spriteInfoKeys)
	if err != nil {
		return err
	}
	*s = SpriteInfo(p)
	s.extra = extra
	return nil
}

func (s SpriteInfo) MarshalJSON() ([]byte, error) {
	type plain SpriteInfo
	return mergeFields(plain(s), s.extra)
}

// SpriteModifier places a SpriteInfo inside a building's sprite group.
// Rotation is in degrees.
type SpriteModifier struct {
	Name           string   `json:"name"`
	SpriteInfoName string   `json:"spriteInfoName"`
	Tags           []string `json:"tags"`
	Rotation       float64  `json:"rotation"`
	Scale          Vector2  `json:"scale"`
	Translation    Vector2  `json:"translation"`

	extra map[string]json.RawMessage
}

var modifierKeys = []string{"name", "spriteInfoName", "tags", "rotation", "scale", "translation"}

func (m *SpriteModifier) HasTag(tag string) bool {
	return slices.Contains(m.Tags, tag)
}

func (m *SpriteModifier) UnmarshalJSON(data []byte) error {
	type plain SpriteModifier
	p := plain{Scale: V(1, 1)}
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	if p.Tags == nil {
		p.Tags = []string{}
	}
	extra, err := unknownFields(data, modifierKeys)
	if err != nil {
		return err
	}
	*m = SpriteModifier(p)
	m.extra = extra
	return nil
}

func (m SpriteModifier) MarshalJSON() ([]byte, error) {
	type plain SpriteModifier
	return mergeFields(plain(m), m.extra)
}

// SpriteList is the building's list of sprite names as stored in the snapshot.
type SpriteList struct {
	SpriteNames []string `json:"spriteNames"`
}

// Building owns the declared draw order of its sprite modifiers.
type Building struct {
	PrefabID    string     `json:"prefabId"`
	TextureName string     `json:"textureName"`
	SpriteGroup []string   `json:"spriteGroup,omitempty"`
	Sprites     SpriteList `json:"sprites"`

	extra map[string]json.RawMessage
}

var buildingKeys = []string{"prefabId", "textureName", "spriteGroup", "sprites"}

// DrawOrder returns the modifier names in declaration order. Snapshots without
// an explicit spriteGroup fall back to the sprite name list.
func (b *Building) DrawOrder() []string {
	if len(b.SpriteGroup) > 0 {
		return b.SpriteGroup
	}
	return b.Sprites.SpriteNames
}

func (b *Building) UnmarshalJSON(data []byte) error {
	type plain Building
	var p plain
	if err := json.Unmarshal(data, &p); err != nil {
		return err
	}
	extra, err := unknownFields(data, buildingKeys)
	if err != nil {
		return err
	}
	*b = Building(p)
	b.extra = extra
	return nil
}

func (b Building) MarshalJSON() ([]byte, error) {
	type plain Building
	if b.Sprites.SpriteNames == nil {
		b.Sprites.SpriteNames = []string{}
	}
	return mergeFields(plain(b), b.extra)
}

func unknownFields(data []byte, known []string) (map[string]json.RawMessage, error) {
	var all map[string]json.RawMessage
	if err := json.Unmarshal(data, &all); err != nil {
		return nil, err
	}
	for _, k := range known {
		delete(all, k)
	}
	if len(all) == 0 {
		return nil, nil
	}
	return all, nil
}

func mergeFields(v any, extra map[string]json.RawMessage) ([]byte, error) {
	if len(extra) == 0 {
		return json.Marshal(v)
	}
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var out map[string]json.RawMessage
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, err
	}
	for k, raw := range extra {
		if _, ok := out[k]; !ok {
			out[k] = raw
		}
	}
	return json.Marshal(out)
}
