package geometry

import "math"

// BoundingBox is an axis aligned box expressed by its min and max values on each axis
type BoundingBox struct {
	Xmin, Xmax float64
	Ymin, Ymax float64
	Zmin, Zmax float64
}

func NewBoundingBox(Xmin, Xmax, Ymin, Ymax, Zmin, Zmax float64) *BoundingBox {
	return &BoundingBox{
		Xmin: Xmin, Xmax: Xmax,
		Ymin: Ymin, Ymax: Ymax,
		Zmin: Zmin, Zmax: Zmax,
	}
}

// NewBoundingBoxFromMinMax builds a box from the [minx,miny,minz,maxx,maxy,maxz] layout used by the native converter
func NewBoundingBoxFromMinMax(v [6]float64) *BoundingBox {
	return NewBoundingBox(v[0], v[3], v[1], v[4], v[2], v[5])
}

// NewEmptyBoundingBox returns an inverted box that any Merge will overwrite
func NewEmptyBoundingBox() *BoundingBox {
	inf := math.Inf(1)
	return NewBoundingBox(inf, -inf, inf, -inf, inf, -inf)
}

func (b *BoundingBox) IsEmpty() bool {
	return b.Xmin > b.Xmax || b.Ymin > b.Ymax || b.Zmin > b.Zmax
}

// Merge grows the box so that it also contains other
func (b *BoundingBox) Merge(other *BoundingBox) {
	if other == nil || other.IsEmpty() {
		return
	}
	b.Xmin = math.Min(b.Xmin, other.Xmin)
	b.Ymin = math.Min(b.Ymin, other.Ymin)
	b.Zmin = math.Min(b.Zmin, other.Zmin)
	b.Xmax = math.Max(b.Xmax, other.Xmax)
	b.Ymax = math.Max(b.Ymax, other.Ymax)
	b.Zmax = math.Max(b.Zmax, other.Zmax)
}

func (b *BoundingBox) AddPoint(p Coordinate) {
	b.Xmin = math.Min(b.Xmin, p.X)
	b.Ymin = math.Min(b.Ymin, p.Y)
	b.Zmin = math.Min(b.Zmin, p.Z)
	b.Xmax = math.Max(b.Xmax, p.X)
	b.Ymax = math.Max(b.Ymax, p.Y)
	b.Zmax = math.Max(b.Zmax, p.Z)
}

// Contains reports whether other lies fully inside b, with tolerance eps on every face
func (b *BoundingBox) Contains(other *BoundingBox, eps float64) bool {
	return other.Xmin >= b.Xmin-eps && other.Xmax <= b.Xmax+eps &&
		other.Ymin >= b.Ymin-eps && other.Ymax <= b.Ymax+eps &&
		other.Zmin >= b.Zmin-eps && other.Zmax <= b.Zmax+eps
}

func (b *BoundingBox) Min() Coordinate {
	return Coordinate{X: b.Xmin, Y: b.Ymin, Z: b.Zmin}
}

func (b *BoundingBox) Max() Coordinate {
	return Coordinate{X: b.Xmax, Y: b.Ymax, Z: b.Zmax}
}

func (b *BoundingBox) Center() Coordinate {
	return Coordinate{
		X: (b.Xmin + b.Xmax) / 2,
		Y: (b.Ymin + b.Ymax) / 2,
		Z: (b.Zmin + b.Zmax) / 2,
	}
}

// GetAsArray returns the box in [minx,miny,minz,maxx,maxy,maxz] layout
func (b *BoundingBox) GetAsArray() []float64 {
	return []float64{b.Xmin, b.Ymin, b.Zmin, b.Xmax, b.Ymax, b.Zmax}
}

// BoundingBoxFromCorners returns the tightest axis aligned box holding every corner
func BoundingBoxFromCorners(corners []Coordinate) *BoundingBox {
	box := NewEmptyBoundingBox()
	for _, c := range corners {
		box.AddPoint(c)
	}
	return box
}
