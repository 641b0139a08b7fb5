package std_algorithm_manager

import (
	"github.com/ecopia-map/osgb_tiler/internal/converters"
	"github.com/ecopia-map/osgb_tiler/internal/converters/exec_tile_converter"
	"github.com/ecopia-map/osgb_tiler/internal/converters/proj4_coordinate_converter"
	"github.com/ecopia-map/osgb_tiler/internal/tiler"
	"github.com/ecopia-map/osgb_tiler/pkg/algorithm_manager"
)

type StandardAlgorithmManager struct {
	coordinateConverter converters.CoordinateConverter
	tileConverter       converters.TileConverter
}

func NewAlgorithmManager(config *tiler.StartupConfig) algorithm_manager.AlgorithmManager {
	return &StandardAlgorithmManager{
		coordinateConverter: proj4_coordinate_converter.NewProj4CoordinateConverter(config.DataDir),
		tileConverter:       exec_tile_converter.NewExecTileConverter(config.ConverterPath, config.UnitTimeout),
	}
}

func (m *StandardAlgorithmManager) GetCoordinateConverterAlgorithm() converters.CoordinateConverter {
	return m.coordinateConverter
}

func (m *StandardAlgorithmManager) GetTileConverterAlgorithm() converters.TileConverter {
	return m.tileConverter
}
