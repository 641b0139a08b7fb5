package naming

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name  string
		level int
		ok    bool
	}{
		{"Tile_+000_+001_L15_0.osgb", 15, true},
		{"Tile_+000_+001_L9_01.json", 9, true},
		{"Tile_L3_L21_0000.osgb", 21, true},
		{"Tile_+000_+001.osgb", 0, false},
		{"Tile_Lx_1.osgb", 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			level, ok := ParseLevel(tt.name)
			require.Equal(t, tt.ok, ok)
			require.Equal(t, tt.level, level)
		})
	}
}

func TestParseCoord(t *testing.T) {
	coord, ok := ParseCoord("Tile_+000_+001_L17_0213.osgb", 17)
	require.True(t, ok)
	require.Equal(t, "0213", coord)

	_, ok = ParseCoord("Tile_+000_+001_L17_0213.osgb", 16)
	require.False(t, ok)

	_, ok = ParseCoord("Tile_+000_+001_L17_.osgb", 17)
	require.False(t, ok)
}

func TestTileKeyParent(t *testing.T) {
	key, ok := ParseTileKey("Tile_+000_+001", "Tile_+000_+001_L17_0213.json", 15, 1)
	require.True(t, ok)
	require.Equal(t, TileKey{Prefix: "Tile_+000_+001", Level: 17, Coord: "021"}, key)

	parent, ok := key.Parent()
	require.True(t, ok)
	require.Equal(t, TileKey{Prefix: "Tile_+000_+001", Level: 16, Coord: "00"}, parent)

	root, ok := parent.Parent()
	require.True(t, ok)
	require.Equal(t, 15, root.Level)
	require.Equal(t, "0", root.Coord)

	_, ok = root.Parent()
	require.False(t, ok)
	require.Equal(t, "Tile_+000_+001_L15_0", root.String())
}

func TestTileKeyParentCollapsesLastDigits(t *testing.T) {
	key, ok := ParseTileKey("Tile_+000_+000", "Tile_+000_+000_L17_010.json", 15, 1)
	require.True(t, ok)

	parent, ok := key.Parent()
	require.True(t, ok)
	require.Equal(t, "Tile_+000_+000_L16_00", parent.String())

	key, ok = ParseTileKey("Tile_+000_+000", "Tile_+000_+000_L16_01.json", 15, 1)
	require.True(t, ok)
	parent, ok = key.Parent()
	require.True(t, ok)
	require.Equal(t, "Tile_+000_+000_L15_0", parent.String())
}

func TestParseTileKeyTooShort(t *testing.T) {
	_, ok := ParseTileKey("Tile", "Tile_L17_02.json", 15, 1)
	require.False(t, ok)
	_, ok = ParseTileKey("Tile", "Tile_L14_0.json", 15, 1)
	require.False(t, ok)
}
