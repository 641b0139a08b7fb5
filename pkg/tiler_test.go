package pkg

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/ecopia-map/osgb_tiler/internal/converters"
	"github.com/ecopia-map/osgb_tiler/internal/geometry"
	"github.com/ecopia-map/osgb_tiler/internal/manifest"
	"github.com/ecopia-map/osgb_tiler/internal/tiler"
	"github.com/ecopia-map/osgb_tiler/internal/tileset"
	"github.com/ecopia-map/osgb_tiler/tools"
	"github.com/stretchr/testify/require"
)

type fakeCoordinateConverter struct {
	cleaned bool
}

func (f *fakeCoordinateConverter) EpsgConvert(srid int, pt []float64) error { return nil }

func (f *fakeCoordinateConverter) WktConvert(wkt string, pt []float64) error { return nil }

func (f *fakeCoordinateConverter) InitEnu(lon, lat float64, offset geometry.Coordinate) error {
	return nil
}

func (f *fakeCoordinateConverter) TransformMatrix(lonRad, latRad, height float64) geometry.Matrix4 {
	return geometry.EnuToEcef(lonRad, latRad, height)
}

func (f *fakeCoordinateConverter) EnuTransformMatrix(lonRad, latRad, height float64, offset geometry.Coordinate) geometry.Matrix4 {
	return geometry.EnuToEcef(lonRad, latRad, height).Mul(geometry.CenterOffset(offset))
}

func (f *fakeCoordinateConverter) Cleanup() { f.cleaned = true }

// fakeTileConverter returns one unit box per cell, shifted by the cell index found in the name
type fakeTileConverter struct {
	mu     sync.Mutex
	lonRad []float64
	boxes  map[string][6]float64
}

func (f *fakeTileConverter) ConvertCell(ctx context.Context, req converters.CellRequest) (converters.ConversionResult, error) {
	f.mu.Lock()
	f.lonRad = append(f.lonRad, req.LonRad)
	f.mu.Unlock()

	name := filepath.Base(filepath.Dir(req.Input))
	box, ok := f.boxes[name]
	if !ok {
		return converters.ConversionResult{}, converters.ErrConversionFailed
	}
	return converters.ConversionResult{
		Output:   req.Output,
		Fragment: json.RawMessage(`{"boundingVolume":{"box":[0,0,0,1,0,0,0,1,0,0,0,1]},"geometricError":0.25}`),
		Box:      box,
	}, nil
}

func (f *fakeTileConverter) ConvertShapefile(ctx context.Context, req converters.ShapeRequest) error {
	if req.Input == "broken.shp" {
		return converters.ErrConversionFailed
	}
	doc := `{"root":{"boundingVolume":{"box":[0,0,0,1,0,0,0,1,0,0,0,1]},"geometricError":0,"content":{"uri":"0.b3dm"}}}`
	path := filepath.Join(req.Output, "tile", "0", "0.json")
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(doc), 0644)
}

type fakeAlgorithmManager struct {
	coordinateConverter *fakeCoordinateConverter
	tileConverter       *fakeTileConverter
}

func (m *fakeAlgorithmManager) GetCoordinateConverterAlgorithm() converters.CoordinateConverter {
	return m.coordinateConverter
}

func (m *fakeAlgorithmManager) GetTileConverterAlgorithm() converters.TileConverter {
	return m.tileConverter
}

func newFakeAlgorithmManager(boxes map[string][6]float64) *fakeAlgorithmManager {
	return &fakeAlgorithmManager{
		coordinateConverter: &fakeCoordinateConverter{},
		tileConverter:       &fakeTileConverter{boxes: boxes},
	}
}

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
}

func makeInput(t *testing.T, srs string, cells ...string) string {
	input := t.TempDir()
	writeFile(t, filepath.Join(input, "metadata.xml"),
		`<?xml version="1.0" encoding="utf-8"?><ModelMetadata version="1"><SRS>`+srs+`</SRS><SRSOrigin>0,0,0</SRSOrigin></ModelMetadata>`)
	for _, cell := range cells {
		writeFile(t, filepath.Join(input, "Data", cell, cell+".osgb"), "osgb")
	}
	return input
}

var threeBoxes = map[string][6]float64{
	"Tile_0": {0, 0, 0, 1, 1, 1},
	"Tile_1": {1, 0, 0, 2, 1, 1},
	"Tile_2": {0, 1, 0, 1, 2, 1},
}

func TestTilerOsgb(t *testing.T) {
	input := makeInput(t, "ENU:30.0,120.0", "Tile_0", "Tile_1", "Tile_2")
	output := filepath.Join(t.TempDir(), "out")
	manager := newFakeAlgorithmManager(threeBoxes)
	journalPath := filepath.Join(t.TempDir(), "journal.db")

	opts := &tiler.TilerOptions{
		Input:               input,
		Output:              output,
		Command:             "osgb",
		RefineMode:          tiler.RefineModeReplace,
		TilerJournalOptions: &tiler.TilerJournalOptions{Path: journalPath},
	}
	startup := &tiler.StartupConfig{Workers: 2, Silent: true}
	err := NewTilerOsgb(tools.NewStandardFileFinder(), manager, startup).RunTiler(context.Background(), opts)
	require.NoError(t, err)
	require.True(t, manager.coordinateConverter.cleaned)

	for _, lonRad := range manager.tileConverter.lonRad {
		require.InDelta(t, geometry.DegToRad(120), lonRad, 1e-12)
	}

	ts, err := tileset.ReadTileset(filepath.Join(output, tileset.TilesetFileName))
	require.NoError(t, err)
	require.Len(t, ts.Root.Children, 3)
	for _, child := range ts.Root.Children {
		require.True(t, strings.HasSuffix(child.Content.URI, "/tileset.json"))
		require.FileExists(t, filepath.Join(output, filepath.FromSlash(child.Content.URI)))
	}
	require.InDeltaSlice(t, []float64{1, 1, 0.5, 1, 0, 0, 0, 1, 0, 0, 0, 0.5}, ts.Root.BoundingVolume.Box, 1e-12)

	journal, err := manifest.Open(journalPath)
	require.NoError(t, err)
	defer journal.Close()
	records, err := journal.Units(1)
	require.NoError(t, err)
	require.Len(t, records, 3)

	require.NoError(t, NewTilerVerify().RunTiler(context.Background(), &tiler.TilerOptions{Input: output}))
}

func TestTilerOsgbOneCellFails(t *testing.T) {
	input := makeInput(t, "ENU:30.0,120.0", "Tile_0", "Tile_1", "Tile_2")
	output := t.TempDir()
	boxes := map[string][6]float64{"Tile_0": threeBoxes["Tile_0"], "Tile_2": threeBoxes["Tile_2"]}

	err := NewTilerOsgb(tools.NewStandardFileFinder(), newFakeAlgorithmManager(boxes), &tiler.StartupConfig{Silent: true}).
		RunTiler(context.Background(), &tiler.TilerOptions{Input: input, Output: output})
	require.NoError(t, err)

	ts, err := tileset.ReadTileset(filepath.Join(output, tileset.TilesetFileName))
	require.NoError(t, err)
	require.Len(t, ts.Root.Children, 2)
	require.InDeltaSlice(t, []float64{0.5, 1, 0.5, 0.5, 0, 0, 0, 1, 0, 0, 0, 0.5}, ts.Root.BoundingVolume.Box, 1e-12)
}

func TestTilerOsgbMissingData(t *testing.T) {
	input := t.TempDir()
	err := NewTilerOsgb(tools.NewStandardFileFinder(), newFakeAlgorithmManager(nil), nil).
		RunTiler(context.Background(), &tiler.TilerOptions{Input: input, Output: t.TempDir()})
	require.ErrorIs(t, err, tools.ErrMissingDataDir)
}

func TestTilerShape(t *testing.T) {
	output := t.TempDir()
	opts := &tiler.TilerOptions{
		Input:             "roads.shp",
		Output:            output,
		TilerShapeOptions: &tiler.TilerShapeOptions{HeightField: "height"},
	}
	manager := newFakeAlgorithmManager(nil)
	require.NoError(t, NewTilerShape(tools.NewStandardFileFinder(), manager).RunTiler(context.Background(), opts))

	ts, err := tileset.ReadTileset(filepath.Join(output, tileset.TilesetFileName))
	require.NoError(t, err)
	require.Len(t, ts.Root.Children, 1)
	require.Equal(t, "tile/0/0.b3dm", ts.Root.Children[0].Content.URI)
}

func TestTilerShapeErrors(t *testing.T) {
	manager := newFakeAlgorithmManager(nil)
	err := NewTilerShape(tools.NewStandardFileFinder(), manager).
		RunTiler(context.Background(), &tiler.TilerOptions{Input: "a.shp", Output: t.TempDir()})
	require.ErrorIs(t, err, ErrMissingHeightField)

	err = NewTilerShape(tools.NewStandardFileFinder(), manager).RunTiler(context.Background(), &tiler.TilerOptions{
		Input:             "broken.shp",
		Output:            t.TempDir(),
		TilerShapeOptions: &tiler.TilerShapeOptions{HeightField: "h"},
	})
	require.True(t, errors.Is(err, converters.ErrConversionFailed))
}

func TestTilerMerge(t *testing.T) {
	input := makeInput(t, "ENU:30.0,120.0")
	cell := "Tile_+000_+000"
	writeFile(t, filepath.Join(input, "Data", cell, cell+"_L15_0.json"),
		`{"root":{"boundingVolume":{"box":[0,0,0,1,0,0,0,1,0,0,0,1]},"geometricError":1,"content":{"url":"a.b3dm"}}}`)

	require.NoError(t, NewTilerMerge(newFakeAlgorithmManager(nil)).RunTiler(context.Background(), &tiler.TilerOptions{Input: input}))

	ts, err := tileset.ReadTileset(filepath.Join(input, tileset.TilesetFileName))
	require.NoError(t, err)
	require.Len(t, ts.Root.Children, 1)
	require.Equal(t, "Data/"+cell+"/a.b3dm", ts.Root.Children[0].Content.Path())
}

func TestTilerVerifyFails(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, tileset.TilesetFileName),
		`{"asset":{"version":"1.0"},"geometricError":1,"root":{"boundingVolume":{"box":[0,0,0,1,0,0,0,1,0,0,0,1]},"geometricError":1,"content":{"uri":"missing.b3dm"}}}`)
	err := NewTilerVerify().RunTiler(context.Background(), &tiler.TilerOptions{Input: dir})
	require.ErrorIs(t, err, ErrVerifyFailed)
}
