package offset_elevation_corrector

import "github.com/ecopia-map/osgb_tiler/internal/converters"

// OffsetElevationCorrector lifts a model so that its lowest point, z, ends up GroundOffset meters
// above the origin. The corrected value is the vertical translation to apply, not a height.
type OffsetElevationCorrector struct {
	GroundOffset float64
}

func NewOffsetElevationCorrector(groundOffset float64) converters.ElevationCorrector {
	return &OffsetElevationCorrector{
		GroundOffset: groundOffset,
	}
}

func (c *OffsetElevationCorrector) CorrectElevation(lon, lat, z float64) float64 {
	return c.GroundOffset - z
}
