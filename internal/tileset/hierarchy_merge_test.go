package tileset

import (
	"fmt"
	"path/filepath"
	"testing"

	"github.com/ecopia-map/osgb_tiler/internal/geometry"
	"github.com/stretchr/testify/require"
)

func levelTileJSON(box string, url string) string {
	return fmt.Sprintf(`{"asset":{"version":"0.0"},"root":{"boundingVolume":{"box":%s},"geometricError":1,"content":{"url":%q}}}`, box, url)
}

func TestMergeHierarchy(t *testing.T) {
	input := t.TempDir()
	cell := "Tile_+000_+000"
	cellDir := filepath.Join(input, "Data", cell)
	unit := "[0,0,0,1,0,0,0,1,0,0,0,1]"
	writeFile(t, filepath.Join(cellDir, cell+"_L15_0.json"), levelTileJSON("[0,0,5,2,0,0,0,2,0,0,0,5]", cell+"_L15_0.b3dm"))
	writeFile(t, filepath.Join(cellDir, cell+"_L16_01.json"), levelTileJSON(unit, cell+"_L16_01.b3dm"))
	writeFile(t, filepath.Join(cellDir, cell+"_L16_00.json"), levelTileJSON(unit, cell+"_L16_00.b3dm"))
	writeFile(t, filepath.Join(cellDir, cell+"_L17_010.json"), levelTileJSON(unit, cell+"_L17_010.b3dm"))
	writeFile(t, filepath.Join(cellDir, cell+"_L17_990.json"), levelTileJSON(unit, cell+"_L17_990.b3dm"))
	writeFile(t, filepath.Join(cellDir, cell+".json"), levelTileJSON(unit, "flat.b3dm"))
	writeFile(t, filepath.Join(input, "Data", "other", "x_L15_0.json"), levelTileJSON(unit, "x.b3dm"))

	ground := 3.0
	res := originResolution
	res.GroundOffset = &ground
	converter := &matrixConverter{}

	ts, err := MergeHierarchy(input, res, converter)
	require.NoError(t, err)
	require.FileExists(t, filepath.Join(input, TilesetFileName))

	// ground offset minus the lowest point of the root box
	require.Equal(t, []float64{3}, converter.plainCalls)
	require.Equal(t, "Y", ts.Asset.GltfUpAxis)

	require.Len(t, ts.Root.Children, 1)
	top := ts.Root.Children[0]
	require.Equal(t, "Data/"+cell+"/"+cell+"_L15_0.b3dm", top.Content.Path())
	require.Equal(t, geometry.GeometricError(30, 15), top.GeometricError)

	require.Len(t, top.Children, 2)
	require.Equal(t, "Data/"+cell+"/"+cell+"_L16_00.b3dm", top.Children[0].Content.Path())
	require.Equal(t, "Data/"+cell+"/"+cell+"_L16_01.b3dm", top.Children[1].Content.Path())
	// L17_010 hangs under L16_00, L17_990 has no L16_90 and is dropped
	require.Len(t, top.Children[0].Children, 1)
	require.Equal(t, "Data/"+cell+"/"+cell+"_L17_010.b3dm", top.Children[0].Children[0].Content.Path())
	require.Equal(t, geometry.GeometricError(30, 17), top.Children[0].Children[0].GeometricError)
	require.Empty(t, top.Children[1].Children)

	require.Equal(t, []float64{0, 0, 5, 2, 0, 0, 0, 2, 0, 0, 0, 5}, ts.Root.BoundingVolume.Box)
}

func TestMergeHierarchySkipsMultiDigitFirstLevel(t *testing.T) {
	input := t.TempDir()
	cell := "Tile_+000_+000"
	writeFile(t, filepath.Join(input, "Data", cell, cell+"_L15_00.json"), levelTileJSON("[0,0,0,1,0,0,0,1,0,0,0,1]", "a.b3dm"))

	ts, err := MergeHierarchy(input, originResolution, &matrixConverter{})
	require.NoError(t, err)
	require.Empty(t, ts.Root.Children)
}

func TestMergeHierarchyMissingData(t *testing.T) {
	_, err := MergeHierarchy(t.TempDir(), originResolution, &matrixConverter{})
	require.Error(t, err)
}
