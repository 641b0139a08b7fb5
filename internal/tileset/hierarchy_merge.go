package tileset

import (
	"encoding/json"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ecopia-map/osgb_tiler/internal/converters"
	"github.com/ecopia-map/osgb_tiler/internal/geometry"
	"github.com/ecopia-map/osgb_tiler/internal/naming"
	"github.com/ecopia-map/osgb_tiler/internal/origin"
	"github.com/golang/glog"
)

const cellPrefix = "Tile_"

// MergeHierarchy rebuilds the multi level tree of an export converted file by file, where every
// Data/Tile_*/<name>_L<level>_<digits>.json describes one node. Parents are found with
// naming.TileKey.Parent. The root document is written to <inputDir>/tileset.json.
func MergeHierarchy(inputDir string, res origin.Resolution, coordinateConverter converters.CoordinateConverter) (*Tileset, error) {
	dataDir := filepath.Join(inputDir, "Data")
	entries, err := os.ReadDir(dataDir)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", dataDir, err)
	}

	rootBox := geometry.NewEmptyBoundingBox()
	roots := make([]*Tile, 0)
	for _, entry := range entries {
		if !entry.IsDir() || !strings.HasPrefix(entry.Name(), cellPrefix) {
			continue
		}
		cellRoots, err := mergeCell(filepath.Join(dataDir, entry.Name()), entry.Name(), res.Lat)
		if err != nil {
			return nil, err
		}
		for _, tile := range cellRoots {
			if box, ok := geometry.TilesetBoxFromSlice(tile.BoundingVolume.Box); ok {
				rootBox.Merge(box.BoundingBox())
			}
			roots = append(roots, tile)
		}
	}
	if rootBox.IsEmpty() {
		rootBox = geometry.NewBoundingBox(0, 0, 0, 0, 0, 0)
	}

	height := TranslationHeight(res, rootBox)
	transform := coordinateConverter.TransformMatrix(res.LonRad(), res.LatRad(), height)
	if !transform.IsFinite() {
		return nil, ErrInvalidTransform
	}

	rootError := geometry.GeometricError(res.Lat, rootLevel)
	ts := &Tileset{
		Asset:          Asset{Version: TilesVersion, GltfUpAxis: UpAxisY},
		GeometricError: rootError,
		Root: Tile{
			Transform:      transform.Slice(),
			BoundingVolume: BoundingVolume{Box: geometry.BoxToTilesetBox(rootBox).Slice()},
			GeometricError: rootError,
			Refine:         "REPLACE",
			Children:       roots,
		},
	}
	if err := WriteTileset(filepath.Join(inputDir, TilesetFileName), ts); err != nil {
		return nil, err
	}
	glog.Infof("merged %d cells into %s", len(roots), filepath.Join(inputDir, TilesetFileName))
	return ts, nil
}

type levelDocument struct {
	name  string
	level int
}

// mergeCell returns the first level nodes of one cell with their descendants attached
func mergeCell(cellDir, cellName string, latDeg float64) ([]*Tile, error) {
	entries, err := os.ReadDir(cellDir)
	if err != nil {
		return nil, err
	}

	documents := make([]levelDocument, 0, len(entries))
	for _, entry := range entries {
		if entry.IsDir() || !strings.HasSuffix(strings.ToLower(entry.Name()), ".json") {
			continue
		}
		if level, ok := naming.ParseLevel(entry.Name()); ok {
			documents = append(documents, levelDocument{name: entry.Name(), level: level})
		}
	}
	if len(documents) == 0 {
		return nil, nil
	}
	sort.Slice(documents, func(i, j int) bool {
		if documents[i].level != documents[j].level {
			return documents[i].level < documents[j].level
		}
		return documents[i].name < documents[j].name
	})

	firstLevel := documents[0].level
	firstCoord, ok := naming.ParseCoord(documents[0].name, firstLevel)
	if !ok || len(firstCoord) != 1 {
		glog.Warningf("%s: first level %d must carry a single coordinate digit, skipping cell", cellDir, firstLevel)
		return nil, nil
	}

	nodes := make(map[naming.TileKey]*Tile, len(documents))
	roots := make([]*Tile, 0)
	for _, document := range documents {
		key, ok := naming.ParseTileKey(cellName, document.name, firstLevel, len(firstCoord))
		if !ok {
			glog.Warningf("%s: cannot decode tile key", document.name)
			continue
		}
		tile, err := readLevelTile(filepath.Join(cellDir, document.name), cellName, latDeg, key.Level)
		if err != nil {
			glog.Warningf("skip %s: %v", document.name, err)
			continue
		}

		if key.Level == firstLevel {
			roots = append(roots, tile)
		} else if parentKey, ok := key.Parent(); ok {
			if parent, found := nodes[parentKey]; found {
				parent.Children = append(parent.Children, tile)
			} else {
				glog.Warningf("%s: parent %s not found", document.name, parentKey)
			}
		}
		nodes[key] = tile
	}
	return roots, nil
}

func readLevelTile(documentPath, cellName string, latDeg float64, level int) (*Tile, error) {
	data, err := os.ReadFile(documentPath)
	if err != nil {
		return nil, err
	}
	var doc tileDocument
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, err
	}
	if doc.Root == nil {
		return nil, fmt.Errorf("no root")
	}
	if _, ok := geometry.TilesetBoxFromSlice(doc.Root.BoundingVolume.Box); !ok {
		return nil, fmt.Errorf("root has no box")
	}
	contentPath := doc.Root.Content.Path()
	if contentPath == "" {
		return nil, fmt.Errorf("root has no content")
	}

	box := doc.Root.BoundingVolume.Box
	return &Tile{
		BoundingVolume: BoundingVolume{Box: box},
		GeometricError: geometry.GeometricError(latDeg, level),
		Content: &Content{
			URL:            path.Join("Data", cellName, contentPath),
			BoundingVolume: &BoundingVolume{Box: box},
		},
	}, nil
}
