package converters

import (
	"context"
	"encoding/json"
	"errors"

	"github.com/ecopia-map/osgb_tiler/internal/tiler"
)

var ErrConversionFailed = errors.New("native conversion failed")

// CellRequest carries everything the native converter needs to rewrite one cell
type CellRequest struct {
	Input    string  // absolute path of the cell geometry file
	Output   string  // mirrored destination folder of the cell
	LonRad   float64 // origin longitude in radians
	LatRad   float64 // origin latitude in radians
	MaxLevel int     // 0 means no cutoff
	Features tiler.FeatureFlags
}

// ConversionResult is owned by the caller once returned. Fragment is the root tile json
// produced for the cell, Box its [minx,miny,minz,maxx,maxy,maxz] extent in local meters.
type ConversionResult struct {
	Output   string
	Fragment json.RawMessage
	Box      [6]float64
}

// IsEmpty reports a failed unit
func (r ConversionResult) IsEmpty() bool {
	return len(r.Fragment) == 0
}

type ShapeRequest struct {
	Input       string
	Output      string
	HeightField string
	Layer       int
	Simplify    bool
}

// TileConverter is the native geometry converter
type TileConverter interface {
	ConvertCell(ctx context.Context, req CellRequest) (ConversionResult, error)
	ConvertShapefile(ctx context.Context, req ShapeRequest) error
}
