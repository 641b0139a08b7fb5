package tileset

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ecopia-map/osgb_tiler/tools"
)

const (
	TilesetFileName = "tileset.json"
	TilesVersion    = "1.0"
	UpAxisZ         = "Z"
	UpAxisY         = "Y"
)

type Asset struct {
	Version    string `json:"version"`
	GltfUpAxis string `json:"gltfUpAxis,omitempty"`
}

// BoundingVolume holds exactly one of the encodings
type BoundingVolume struct {
	Box    []float64 `json:"box,omitempty"`
	Region []float64 `json:"region,omitempty"`
	Sphere []float64 `json:"sphere,omitempty"`
}

// Content points to the tile payload. Older documents spell the field url.
type Content struct {
	URI            string          `json:"uri,omitempty"`
	URL            string          `json:"url,omitempty"`
	BoundingVolume *BoundingVolume `json:"boundingVolume,omitempty"`
}

func (c *Content) Path() string {
	if c == nil {
		return ""
	}
	if c.URI != "" {
		return c.URI
	}
	return c.URL
}

type Tile struct {
	Transform      []float64      `json:"transform,omitempty"`
	BoundingVolume BoundingVolume `json:"boundingVolume"`
	GeometricError float64        `json:"geometricError"`
	Refine         string         `json:"refine,omitempty"`
	Content        *Content       `json:"content,omitempty"`
	Children       []*Tile        `json:"children,omitempty"`
}

type Tileset struct {
	Asset          Asset   `json:"asset"`
	GeometricError float64 `json:"geometricError"`
	Root           Tile    `json:"root"`
}

// cellTileset wraps a native fragment untouched
type cellTileset struct {
	Asset          Asset           `json:"asset"`
	GeometricError float64         `json:"geometricError"`
	Root           json.RawMessage `json:"root"`
}

// WriteTileset serializes ts as indented json to path, creating the parent folder
func WriteTileset(path string, ts interface{}) error {
	if err := tools.CreateDirectoryIfDoesNotExist(filepath.Dir(path)); err != nil {
		return err
	}
	data, err := json.MarshalIndent(ts, "", "\t")
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0666); err != nil {
		return fmt.Errorf("write %s: %w", path, err)
	}
	return nil
}

func ReadTileset(path string) (*Tileset, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var ts Tileset
	if err := json.Unmarshal(data, &ts); err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return &ts, nil
}
