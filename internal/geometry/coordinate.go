package geometry

import "math"

// Coordinate is a generic 3D point, either local meters or lon/lat/height depending on context
type Coordinate struct {
	X float64
	Y float64
	Z float64
}

func (c Coordinate) Add(o Coordinate) Coordinate {
	return Coordinate{X: c.X + o.X, Y: c.Y + o.Y, Z: c.Z + o.Z}
}

func (c Coordinate) Scale(s float64) Coordinate {
	return Coordinate{X: c.X * s, Y: c.Y * s, Z: c.Z * s}
}

func (c Coordinate) IsZero() bool {
	return c.X == 0 && c.Y == 0 && c.Z == 0
}

func (c Coordinate) AsArray() []float64 {
	return []float64{c.X, c.Y, c.Z}
}

func DegToRad(deg float64) float64 {
	return deg * math.Pi / 180.0
}

func RadToDeg(rad float64) float64 {
	return rad * 180.0 / math.Pi
}
