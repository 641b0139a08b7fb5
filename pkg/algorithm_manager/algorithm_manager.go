package algorithm_manager

import (
	"github.com/ecopia-map/osgb_tiler/internal/converters"
)

type AlgorithmManager interface {
	GetCoordinateConverterAlgorithm() converters.CoordinateConverter
	GetTileConverterAlgorithm() converters.TileConverter
}
