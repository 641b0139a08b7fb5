package geometry

import "math"

const (
	earthRadius = 6378137.0
	tilePixels  = 256.0
)

// GeometricError approximates the ground resolution of a 256 pixel tile at the given level on the
// parallel of latitude latDeg. Strictly decreasing with level. Callers use level >= 2.
func GeometricError(latDeg float64, level int) float64 {
	round := math.Cos(DegToRad(latDeg)) * 2 * math.Pi * earthRadius
	return 4 * round / math.Ldexp(tilePixels, level-2)
}

// GeometricErrorFromCorners is half of the largest span of the corners along any axis
func GeometricErrorFromCorners(corners []Coordinate) float64 {
	if len(corners) == 0 {
		return 0
	}
	box := BoundingBoxFromCorners(corners)
	span := math.Max(box.Xmax-box.Xmin, math.Max(box.Ymax-box.Ymin, box.Zmax-box.Zmin))
	return math.Max(span, 0) * 0.5
}
