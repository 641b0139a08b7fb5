package geometry

import "math"

// TilesetBox is the 3D Tiles "box" bounding volume: center followed by the x, y and z half axes
type TilesetBox [12]float64

func (t TilesetBox) Center() Coordinate {
	return Coordinate{X: t[0], Y: t[1], Z: t[2]}
}

func (t TilesetBox) axis(i int) Coordinate {
	return Coordinate{X: t[3+i*3], Y: t[4+i*3], Z: t[5+i*3]}
}

// BoxToTilesetBox converts an axis aligned box to the center + half axes encoding.
// Half axes are always non negative, zero volume boxes are allowed.
func BoxToTilesetBox(bbox *BoundingBox) TilesetBox {
	c := bbox.Center()
	return TilesetBox{
		c.X, c.Y, c.Z,
		math.Abs(bbox.Xmax-bbox.Xmin) / 2, 0, 0,
		0, math.Abs(bbox.Ymax-bbox.Ymin) / 2, 0,
		0, 0, math.Abs(bbox.Zmax-bbox.Zmin) / 2,
	}
}

// CornersFromBox expands the box into its 8 corners combining +-1 on each half axis
func CornersFromBox(box TilesetBox) []Coordinate {
	c := box.Center()
	a1, a2, a3 := box.axis(0), box.axis(1), box.axis(2)

	corners := make([]Coordinate, 0, 8)
	for _, sx := range []float64{-1, 1} {
		for _, sy := range []float64{-1, 1} {
			for _, sz := range []float64{-1, 1} {
				corners = append(corners, c.Add(a1.Scale(sx)).Add(a2.Scale(sy)).Add(a3.Scale(sz)))
			}
		}
	}
	return corners
}

// BoundingBox returns the axis aligned box enclosing the (possibly rotated) tileset box
func (t TilesetBox) BoundingBox() *BoundingBox {
	return BoundingBoxFromCorners(CornersFromBox(t))
}

func (t TilesetBox) Slice() []float64 {
	return t[:]
}

// TilesetBoxFromSlice validates the length of a box decoded from json
func TilesetBoxFromSlice(v []float64) (TilesetBox, bool) {
	var box TilesetBox
	if len(v) < 12 {
		return box, false
	}
	copy(box[:], v)
	return box, true
}
