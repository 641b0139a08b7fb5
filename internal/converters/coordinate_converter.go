package converters

import (
	"github.com/ecopia-map/osgb_tiler/internal/geometry"
)

// CoordinateConverter is the coordinate reference system engine. Conversions rewrite pt in place:
// pt[0], pt[1] become longitude and latitude in degrees, pt[2] (when present) is left untouched.
type CoordinateConverter interface {
	EpsgConvert(srid int, pt []float64) error
	WktConvert(wkt string, pt []float64) error
	// InitEnu prepares the local east-north-up frame anchored at lon/lat shifted by offset meters
	InitEnu(lon, lat float64, offset geometry.Coordinate) error
	TransformMatrix(lonRad, latRad, height float64) geometry.Matrix4
	EnuTransformMatrix(lonRad, latRad, height float64, offset geometry.Coordinate) geometry.Matrix4
	Cleanup()
}

type ElevationCorrector interface {
	CorrectElevation(lon, lat, z float64) float64
}
