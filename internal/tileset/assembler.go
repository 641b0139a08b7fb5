package tileset

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ecopia-map/osgb_tiler/internal/converters"
	"github.com/ecopia-map/osgb_tiler/internal/converters/elevation/offset_elevation_corrector"
	"github.com/ecopia-map/osgb_tiler/internal/geometry"
	"github.com/ecopia-map/osgb_tiler/internal/origin"
	"github.com/ecopia-map/osgb_tiler/internal/tiler"
	"github.com/golang/glog"
)

// level whose heuristic error seeds the root of a batch
const rootLevel = 15

var ErrInvalidTransform = errors.New("root transform is not finite")

type Assembler struct {
	coordinateConverter converters.CoordinateConverter
	outputDir           string
	refineMode          tiler.RefineMode
}

func NewAssembler(coordinateConverter converters.CoordinateConverter, outputDir string, refineMode tiler.RefineMode) *Assembler {
	if refineMode == "" {
		refineMode = tiler.RefineModeReplace
	}
	return &Assembler{
		coordinateConverter: coordinateConverter,
		outputDir:           outputDir,
		refineMode:          refineMode,
	}
}

// Assemble writes one tileset.json per converted cell and returns the root document referencing them.
// The root box is computed in the local frame of the cells, the root transform places it on the globe.
func (a *Assembler) Assemble(results []converters.ConversionResult, res origin.Resolution) (*Tileset, error) {
	rootBox := geometry.NewEmptyBoundingBox()
	for _, result := range results {
		rootBox.Merge(geometry.NewBoundingBoxFromMinMax(result.Box))
	}
	if rootBox.IsEmpty() {
		rootBox = geometry.NewBoundingBox(0, 0, 0, 0, 0, 0)
	}

	height := TranslationHeight(res, rootBox)
	transform, err := a.rootTransform(res, height)
	if err != nil {
		return nil, err
	}

	type orderedChild struct {
		tile  *Tile
		order int
	}
	ordered := make([]orderedChild, 0, len(results))
	maxChildError := 0.0
	for _, result := range results {
		child, err := a.writeCellTileset(result)
		if err != nil {
			return nil, err
		}
		maxChildError = math.Max(maxChildError, child.GeometricError)
		cellBox := geometry.NewBoundingBoxFromMinMax(result.Box)
		ordered = append(ordered, orderedChild{tile: child, order: geometry.HilbertIndex(cellBox, rootBox)})
	}
	sort.SliceStable(ordered, func(i, j int) bool {
		if ordered[i].order != ordered[j].order {
			return ordered[i].order < ordered[j].order
		}
		return ordered[i].tile.Content.URI < ordered[j].tile.Content.URI
	})
	children := make([]*Tile, 0, len(ordered))
	for _, c := range ordered {
		children = append(children, c.tile)
	}

	// a parent never claims less error than its children
	rootError := math.Max(geometry.GeometricError(res.Lat, rootLevel), maxChildError)

	return &Tileset{
		Asset:          Asset{Version: TilesVersion, GltfUpAxis: UpAxisZ},
		GeometricError: rootError,
		Root: Tile{
			Transform:      transform.Slice(),
			BoundingVolume: BoundingVolume{Box: geometry.BoxToTilesetBox(rootBox).Slice()},
			GeometricError: rootError,
			Refine:         a.refineMode.String(),
			Children:       children,
		},
	}, nil
}

// TranslationHeight picks the first available source: declared origin height, ENU offset z,
// ground offset above the lowest point of the root box, zero.
func TranslationHeight(res origin.Resolution, rootBox *geometry.BoundingBox) float64 {
	switch {
	case res.HasHeight:
		return res.Height
	case res.EnuOffset != nil:
		return res.EnuOffset.Z
	case res.GroundOffset != nil:
		corrector := offset_elevation_corrector.NewOffsetElevationCorrector(*res.GroundOffset)
		return corrector.CorrectElevation(res.Lon, res.Lat, rootBox.Zmin)
	}
	return 0
}

func (a *Assembler) rootTransform(res origin.Resolution, height float64) (geometry.Matrix4, error) {
	var m geometry.Matrix4
	if res.EnuOffset != nil {
		m = a.coordinateConverter.EnuTransformMatrix(res.LonRad(), res.LatRad(), height, *res.EnuOffset)
	} else {
		m = a.coordinateConverter.TransformMatrix(res.LonRad(), res.LatRad(), height)
	}
	if !m.IsFinite() {
		return m, ErrInvalidTransform
	}
	return m, nil
}

type fragmentHeader struct {
	GeometricError *float64 `json:"geometricError"`
}

// writeCellTileset stores the native fragment of one cell in <cell output>/tileset.json and
// returns the reference node for the root document
func (a *Assembler) writeCellTileset(result converters.ConversionResult) (*Tile, error) {
	cellBox := geometry.NewBoundingBoxFromMinMax(result.Box)
	tilesetBox := geometry.BoxToTilesetBox(cellBox)

	cellError := 0.0
	var header fragmentHeader
	if err := json.Unmarshal(result.Fragment, &header); err != nil {
		glog.Warningf("fragment of %s is not a tile object: %v", result.Output, err)
	} else if header.GeometricError != nil && *header.GeometricError > 0 {
		cellError = *header.GeometricError
	}
	if cellError == 0 {
		cellError = geometry.GeometricErrorFromCorners(geometry.CornersFromBox(tilesetBox))
	}

	doc := cellTileset{
		Asset:          Asset{Version: TilesVersion, GltfUpAxis: UpAxisZ},
		GeometricError: cellError,
		Root:           result.Fragment,
	}
	if err := WriteTileset(filepath.Join(result.Output, TilesetFileName), doc); err != nil {
		return nil, err
	}

	uri, err := RelativeURI(a.outputDir, result.Output)
	if err != nil {
		return nil, fmt.Errorf("cell %s: %w", result.Output, err)
	}

	return &Tile{
		BoundingVolume: BoundingVolume{Box: tilesetBox.Slice()},
		GeometricError: cellError,
		Content:        &Content{URI: path.Join(uri, TilesetFileName)},
	}, nil
}

// RelativeURI strips root from target and always uses forward slashes
func RelativeURI(root, target string) (string, error) {
	rel, err := filepath.Rel(root, target)
	if err != nil {
		return "", err
	}
	rel = strings.ReplaceAll(filepath.ToSlash(rel), `\`, "/")
	if rel == ".." || strings.HasPrefix(rel, "../") {
		return "", fmt.Errorf("%s is outside %s", target, root)
	}
	return rel, nil
}
