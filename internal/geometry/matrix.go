package geometry

import "math"

// Matrix4 is a 4x4 column major matrix, the layout used by the tileset "transform" property
type Matrix4 [16]float64

// squared semi axes of the ellipsoid used by the reference viewer
const (
	ellipsoidA = 40680631590769.0
	ellipsoidB = 40680631590769.0
	ellipsoidC = 40408299984661.4
)

func IdentityMatrix() Matrix4 {
	return Matrix4{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// TransformPoint applies the affine part of m to p
func TransformPoint(m Matrix4, p Coordinate) Coordinate {
	return Coordinate{
		X: m[0]*p.X + m[4]*p.Y + m[8]*p.Z + m[12],
		Y: m[1]*p.X + m[5]*p.Y + m[9]*p.Z + m[13],
		Z: m[2]*p.X + m[6]*p.Y + m[10]*p.Z + m[14],
	}
}

// Mul returns m * o
func (m Matrix4) Mul(o Matrix4) Matrix4 {
	var r Matrix4
	for col := 0; col < 4; col++ {
		for row := 0; row < 4; row++ {
			var sum float64
			for k := 0; k < 4; k++ {
				sum += m[k*4+row] * o[col*4+k]
			}
			r[col*4+row] = sum
		}
	}
	return r
}

func (m Matrix4) Slice() []float64 {
	return m[:]
}

func (m Matrix4) IsFinite() bool {
	for _, v := range m {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

// Matrix4FromSlice validates the length of a transform decoded from json
func Matrix4FromSlice(v []float64) (Matrix4, bool) {
	var m Matrix4
	if len(v) != 16 {
		return m, false
	}
	copy(m[:], v)
	return m, true
}

// CenterOffset translates by -center
func CenterOffset(center Coordinate) Matrix4 {
	m := IdentityMatrix()
	m[12] = -center.X
	m[13] = -center.Y
	m[14] = -center.Z
	return m
}

func surfaceNormal(lonRad, latRad float64) Coordinate {
	return Coordinate{
		X: math.Cos(lonRad) * math.Cos(latRad),
		Y: math.Sin(lonRad) * math.Cos(latRad),
		Z: math.Sin(latRad),
	}
}

// CartographicToEcef converts longitude/latitude in radians and height in meters to earth centered coordinates
func CartographicToEcef(lonRad, latRad, height float64) Coordinate {
	n := surfaceNormal(lonRad, latRad)
	k := Coordinate{X: ellipsoidA * n.X, Y: ellipsoidB * n.Y, Z: ellipsoidC * n.Z}
	gamma := math.Sqrt(n.X*k.X + n.Y*k.Y + n.Z*k.Z)
	return k.Scale(1 / gamma).Add(n.Scale(height))
}

// EnuToEcef builds the east-north-up frame anchored at the given origin
func EnuToEcef(lonRad, latRad, height float64) Matrix4 {
	n := surfaceNormal(lonRad, latRad)
	k := Coordinate{X: ellipsoidA * n.X, Y: ellipsoidB * n.Y, Z: ellipsoidC * n.Z}

	east := Coordinate{X: -k.Y, Y: k.X, Z: 0}
	north := Coordinate{
		X: k.Y*east.Z - east.Y*k.Z,
		Y: k.Z*east.X - east.Z*k.X,
		Z: k.X*east.Y - east.X*k.Y,
	}
	eastNorm := math.Sqrt(east.X*east.X + east.Y*east.Y + east.Z*east.Z)
	northNorm := math.Sqrt(north.X*north.X + north.Y*north.Y + north.Z*north.Z)

	origin := CartographicToEcef(lonRad, latRad, height)

	return Matrix4{
		east.X / eastNorm, east.Y / eastNorm, east.Z / eastNorm, 0,
		north.X / northNorm, north.Y / northNorm, north.Z / northNorm, 0,
		n.X, n.Y, n.Z, 0,
		origin.X, origin.Y, origin.Z, 1,
	}
}
