// Package naming decodes the level/coordinate convention embedded in cell file names,
// e.g. Tile_+001_+002_L17_0213.osgb carries level 17 and coordinate digits "0213".
package naming

import (
	"fmt"
	"strconv"
	"strings"
)

const levelMarker = "_L"

// ParseLevel extracts the level following the last "_L" of name.
// Returns false when the name carries no level, callers treat such names as flat.
func ParseLevel(name string) (int, bool) {
	pos := strings.LastIndex(name, levelMarker)
	if pos < 0 {
		return 0, false
	}
	digits := leadingDigits(name[pos+len(levelMarker):])
	if digits == "" {
		return 0, false
	}
	level, err := strconv.Atoi(digits)
	if err != nil {
		return 0, false
	}
	return level, true
}

// ParseCoord returns the run of digits right after the last "_L<level>_" of name
func ParseCoord(name string, level int) (string, bool) {
	marker := fmt.Sprintf("%s%d_", levelMarker, level)
	pos := strings.LastIndex(name, marker)
	if pos < 0 {
		return "", false
	}
	digits := leadingDigits(name[pos+len(marker):])
	if digits == "" {
		return "", false
	}
	return digits, true
}

func leadingDigits(s string) string {
	end := 0
	for end < len(s) && s[end] >= '0' && s[end] <= '9' {
		end++
	}
	return s[:end]
}

// TileKey identifies a node of the legacy multi level hierarchy.
// Prefix is the cell the node belongs to, Coord holds one digit per level below the cell's first level.
type TileKey struct {
	Prefix string
	Level  int
	Coord  string
}

// ParseTileKey decodes the key of name inside cell prefix. The first level of a cell carries
// firstCoordLen digits and every following level adds one more.
func ParseTileKey(prefix, name string, firstLevel, firstCoordLen int) (TileKey, bool) {
	level, ok := ParseLevel(name)
	if !ok || level < firstLevel {
		return TileKey{}, false
	}
	coord, ok := ParseCoord(name, level)
	if !ok {
		return TileKey{}, false
	}
	want := level - firstLevel + firstCoordLen
	if len(coord) < want {
		return TileKey{}, false
	}
	return TileKey{Prefix: prefix, Level: level, Coord: coord[:want]}, true
}

// Parent moves one level up: the last two coordinate digits collapse into a single "0".
// Siblings of a level therefore hang under the "0" node of the level above, e.g. L17_010 -> L16_00.
func (k TileKey) Parent() (TileKey, bool) {
	if len(k.Coord) <= 1 || k.Level <= 0 {
		return TileKey{}, false
	}
	return TileKey{Prefix: k.Prefix, Level: k.Level - 1, Coord: k.Coord[:len(k.Coord)-2] + "0"}, true
}

func (k TileKey) String() string {
	return fmt.Sprintf("%s%s%d_%s", k.Prefix, levelMarker, k.Level, k.Coord)
}
