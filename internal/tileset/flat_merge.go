package tileset

import (
	"encoding/json"
	"math"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/ecopia-map/osgb_tiler/internal/geometry"
	"github.com/ecopia-map/osgb_tiler/tools"
	"github.com/golang/glog"
)

const TileFolderName = "tile"

type tileDocument struct {
	Root *Tile `json:"root"`
}

// rawTile keeps every property of a tile, including the ones Tile does not model
type rawTile map[string]json.RawMessage

type rawTileDocument struct {
	Root rawTile `json:"root"`
}

type flatRoot struct {
	BoundingVolume BoundingVolume `json:"boundingVolume"`
	GeometricError float64        `json:"geometricError"`
	Refine         string         `json:"refine"`
	Children       []rawTile      `json:"children"`
}

type flatTileset struct {
	Asset          Asset    `json:"asset"`
	GeometricError float64  `json:"geometricError"`
	Root           flatRoot `json:"root"`
}

// MergeFlat builds <outputDir>/tileset.json from every per tile document under <outputDir>/tile.
// It does nothing when the root document already exists and reports whether it wrote one.
func MergeFlat(outputDir string, fileFinder tools.FileFinder) (bool, error) {
	rootPath := filepath.Join(outputDir, TilesetFileName)
	if tools.FileExists(rootPath) {
		glog.Infof("%s already exists, skipping merge", rootPath)
		return false, nil
	}

	documents, err := fileFinder.GetTileDocuments(filepath.Join(outputDir, TileFolderName))
	if err != nil {
		return false, err
	}

	rootBox := geometry.NewEmptyBoundingBox()
	children := make([]rawTile, 0, len(documents))
	rootError := 0.0
	for _, document := range documents {
		child, corners, ok := readFlatTile(outputDir, document)
		if !ok {
			continue
		}
		childError := geometry.GeometricErrorFromCorners(corners)
		encoded, err := json.Marshal(childError)
		if err != nil {
			return false, err
		}
		child["geometricError"] = encoded
		rootError = math.Max(rootError, childError)
		rootBox.Merge(geometry.BoundingBoxFromCorners(corners))
		children = append(children, child)
	}

	var rootVolume geometry.TilesetBox
	if !rootBox.IsEmpty() {
		rootVolume = geometry.BoxToTilesetBox(rootBox)
		rootError = math.Max(rootError, geometry.GeometricErrorFromCorners(geometry.CornersFromBox(rootVolume)))
	}

	ts := &flatTileset{
		Asset:          Asset{Version: TilesVersion, GltfUpAxis: UpAxisZ},
		GeometricError: rootError,
		Root: flatRoot{
			BoundingVolume: BoundingVolume{Box: rootVolume.Slice()},
			GeometricError: rootError,
			Refine:         "REPLACE",
			Children:       children,
		},
	}
	if err := WriteTileset(rootPath, ts); err != nil {
		return false, err
	}
	glog.Infof("merged %d tiles into %s", len(children), rootPath)
	return true, nil
}

// readFlatTile decodes one per tile document and returns its root, untouched apart from content paths
// rebased onto outputDir, together with the world space corners of its volume. Malformed documents
// are logged and skipped.
func readFlatTile(outputDir, document string) (rawTile, []geometry.Coordinate, bool) {
	data, err := os.ReadFile(document)
	if err != nil {
		glog.Warningf("skip %s: %v", document, err)
		return nil, nil, false
	}
	var doc tileDocument
	var raw rawTileDocument
	if err := json.Unmarshal(data, &doc); err != nil || doc.Root == nil {
		glog.Warningf("skip malformed tile document %s: %v", document, err)
		return nil, nil, false
	}
	if err := json.Unmarshal(data, &raw); err != nil || raw.Root == nil {
		glog.Warningf("skip malformed tile document %s: %v", document, err)
		return nil, nil, false
	}

	corners, ok := worldCorners(doc.Root)
	if !ok {
		glog.Warningf("skip %s: no usable bounding volume", document)
		return nil, nil, false
	}

	prefix, err := RelativeURI(outputDir, filepath.Dir(document))
	if err != nil {
		glog.Warningf("skip %s: %v", document, err)
		return nil, nil, false
	}
	if err := rebaseContent(raw.Root, prefix); err != nil {
		glog.Warningf("skip %s: %v", document, err)
		return nil, nil, false
	}
	return raw.Root, corners, true
}

// worldCorners returns the 8 corners of the tile volume, a box goes through the tile transform,
// a region is taken to earth centered coordinates
func worldCorners(tile *Tile) ([]geometry.Coordinate, bool) {
	bv := tile.BoundingVolume
	if box, ok := geometry.TilesetBoxFromSlice(bv.Box); ok {
		corners := geometry.CornersFromBox(box)
		if m, ok := geometry.Matrix4FromSlice(tile.Transform); ok {
			for i, c := range corners {
				corners[i] = geometry.TransformPoint(m, c)
			}
		}
		return corners, true
	}
	if len(bv.Region) >= 6 {
		r := bv.Region
		corners := make([]geometry.Coordinate, 0, 8)
		for _, lon := range []float64{r[0], r[2]} {
			for _, lat := range []float64{r[1], r[3]} {
				for _, h := range []float64{r[4], r[5]} {
					corners = append(corners, geometry.CartographicToEcef(lon, lat, h))
				}
			}
		}
		return corners, true
	}
	return nil, false
}

// rebaseContent makes relative content paths of the subtree relative to the merged root
func rebaseContent(tile rawTile, prefix string) error {
	if prefix == "" || prefix == "." {
		return nil
	}
	if rawContent, ok := tile["content"]; ok {
		var content rawTile
		if err := json.Unmarshal(rawContent, &content); err != nil {
			return err
		}
		for _, key := range []string{"uri", "url"} {
			var p string
			if err := json.Unmarshal(content[key], &p); err != nil || p == "" {
				continue
			}
			if path.IsAbs(p) || strings.Contains(p, "://") {
				continue
			}
			encoded, err := json.Marshal(path.Join(prefix, p))
			if err != nil {
				return err
			}
			content[key] = encoded
		}
		encoded, err := json.Marshal(content)
		if err != nil {
			return err
		}
		tile["content"] = encoded
	}
	if rawChildren, ok := tile["children"]; ok {
		var children []rawTile
		if err := json.Unmarshal(rawChildren, &children); err != nil {
			return err
		}
		for _, child := range children {
			if err := rebaseContent(child, prefix); err != nil {
				return err
			}
		}
		encoded, err := json.Marshal(children)
		if err != nil {
			return err
		}
		tile["children"] = encoded
	}
	return nil
}
