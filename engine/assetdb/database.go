package assetdb

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
)

// Database is the loaded snapshot. Only Buildings, UISprites and
// SpriteModifiers are modelled; every other top-level key is carried through.
type Database struct {
	Buildings       []*Building
	UISprites       []*SpriteInfo
	SpriteModifiers []*SpriteModifier

	rest      map[string]json.RawMessage
	spriteIdx map[string]int
	modIdx    map[string]int
}

const (
	keyBuildings = "buildings"
	keyUISprites = "uiSprites"
	keyModifiers = "spriteModifiers"
)

// Load reads, validates and decodes a snapshot. Paths ending in .zst are
// read through a zstd stream.
func Load(path string) (*Database, error) {
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return Decode(data)
}

// Decode validates raw snapshot bytes against the snapshot schema and builds
// the lookup indexes.
func Decode(data []byte) (*Database, error) {
	if err := Validate(data); err != nil {
		return nil, err
	}

	var top map[string]json.RawMessage
	if err := json.Unmarshal(data, &top); err != nil {
		return nil, fmt.Errorf("decode snapshot: %w", err)
	}
	db := &Database{}
	if err := json.Unmarshal(top[keyBuildings], &db.Buildings); err != nil {
		return nil, fmt.Errorf("decode buildings: %w", err)
	}
	if err := json.Unmarshal(top[keyUISprites], &db.UISprites); err != nil {
		return nil, fmt.Errorf("decode uiSprites: %w", err)
	}
	if err := json.Unmarshal(top[keyModifiers], &db.SpriteModifiers); err != nil {
		return nil, fmt.Errorf("decode spriteModifiers: %w", err)
	}
	delete(top, keyBuildings)
	delete(top, keyUISprites)
	delete(top, keyModifiers)
	db.rest = top
	db.reindex()
	return db, nil
}

// New returns an empty snapshot, mostly for tests and tools.
func New() *Database {
	db := &Database{}
	db.reindex()
	return db
}

func (db *Database) reindex() {
	db.spriteIdx = make(map[string]int, len(db.UISprites))
	for i, s := range db.UISprites {
		if s == nil {
			continue
		}
		if _, dup := db.spriteIdx[s.Name]; !dup {
			db.spriteIdx[s.Name] = i
		}
	}
	db.modIdx = make(map[string]int, len(db.SpriteModifiers))
	for i, m := range db.SpriteModifiers {
		if m == nil {
			continue
		}
		if _, dup := db.modIdx[m.Name]; !dup {
			db.modIdx[m.Name] = i
		}
	}
}

// SpriteInfo looks up a sprite info by name.
func (db *Database) SpriteInfo(name string) (*SpriteInfo, bool) {
	i, ok := db.spriteIdx[name]
	if !ok {
		return nil, false
	}
	return db.UISprites[i], true
}

// Modifier looks up a sprite modifier by name.
func (db *Database) Modifier(name string) (*SpriteModifier, bool) {
	i, ok := db.modIdx[name]
	if !ok {
		return nil, false
	}
	return db.SpriteModifiers[i], true
}

// Building returns the first building with the given prefab id.
func (db *Database) Building(prefabID string) (*Building, bool) {
	for _, b := range db.Buildings {
		if b != nil && b.PrefabID == prefabID {
			return b, true
		}
	}
	return nil, false
}

// Save writes the whole snapshot, indented like the source tooling, via a
// temporary file renamed into place.
func (db *Database) Save(path string) error {
	data, err := db.Encode()
	if err != nil {
		return err
	}
	return writeFile(path, data)
}

// Encode serializes the full snapshot.
func (db *Database) Encode() ([]byte, error) {
	out := make(map[string]any, len(db.rest)+3)
	for k, v := range db.rest {
		out[k] = v
	}
	out[keyBuildings] = nonNil(db.Buildings)
	out[keyUISprites] = nonNil(db.UISprites)
	out[keyModifiers] = nonNil(db.SpriteModifiers)

	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	if err := enc.Encode(out); err != nil {
		return nil, fmt.Errorf("encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

func isCompressed(path string) bool {
	return strings.HasSuffix(path, ".zst")
}

func readFile(path string) ([]byte, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open snapshot: %w", err)
	}
	defer f.Close()

	var r io.Reader = f
	if isCompressed(path) {
		dec, err := zstd.NewReader(f)
		if err != nil {
			return nil, fmt.Errorf("zstd reader: %w", err)
		}
		defer dec.Close()
		r = dec
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("read snapshot: %w", err)
	}
	return data, nil
}

func writeFile(path string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("create snapshot dir: %w", err)
	}
	tmp, err := os.CreateTemp(filepath.Dir(path), ".snapshot-*")
	if err != nil {
		return fmt.Errorf("create temp snapshot: %w", err)
	}
	tmpName := tmp.Name()
	defer os.Remove(tmpName)

	if isCompressed(path) {
		enc, err := zstd.NewWriter(tmp, zstd.WithEncoderLevel(zstd.SpeedDefault))
		if err != nil {
			tmp.Close()
			return fmt.Errorf("zstd writer: %w", err)
		}
		if _, err := enc.Write(data); err != nil {
			enc.Close()
			tmp.Close()
			return fmt.Errorf("write snapshot: %w", err)
		}
		if err := enc.Close(); err != nil {
			tmp.Close()
			return fmt.Errorf("flush snapshot: %w", err)
		}
	} else if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("write snapshot: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close snapshot: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("replace snapshot: %w", err)
	}
	return nil
}
