package io

import (
	"time"

	"github.com/ecopia-map/osgb_tiler/internal/converters"
	"github.com/ecopia-map/osgb_tiler/internal/tiler"
)

// CellOptions is shared by every unit of a run
type CellOptions struct {
	LonRad   float64
	LatRad   float64
	MaxLevel int
	Features tiler.FeatureFlags
}

// CellResult is sent exactly once per unit on the fan-in channel. A failed unit carries an empty
// Result and the cause in Err.
type CellResult struct {
	Index   int
	Result  converters.ConversionResult
	Err     error
	Elapsed time.Duration
}
