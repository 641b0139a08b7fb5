package pkg

import (
	"context"
	"errors"

	"github.com/ecopia-map/osgb_tiler/internal/converters"
	"github.com/ecopia-map/osgb_tiler/internal/tiler"
	"github.com/ecopia-map/osgb_tiler/internal/tileset"
	"github.com/ecopia-map/osgb_tiler/pkg/algorithm_manager"
	"github.com/ecopia-map/osgb_tiler/tools"
	"github.com/golang/glog"
)

var ErrMissingHeightField = errors.New("you must set the height field by --height xxx")

type TilerShape struct {
	fileFinder       tools.FileFinder
	algorithmManager algorithm_manager.AlgorithmManager
}

func NewTilerShape(fileFinder tools.FileFinder, algorithmManager algorithm_manager.AlgorithmManager) tiler.ITiler {
	return &TilerShape{
		fileFinder:       fileFinder,
		algorithmManager: algorithmManager,
	}
}

// Extrudes a shapefile into tiles under opts.Output/tile and merges them into a flat root tileset
func (tilerShape *TilerShape) RunTiler(ctx context.Context, opts *tiler.TilerOptions) error {
	shapeOpts := opts.TilerShapeOptions
	if shapeOpts == nil || shapeOpts.HeightField == "" {
		return ErrMissingHeightField
	}
	if err := tools.CreateDirectoryIfDoesNotExist(opts.Output); err != nil {
		return err
	}

	glog.Infoln("> converting shapefile", opts.Input)
	err := tilerShape.algorithmManager.GetTileConverterAlgorithm().ConvertShapefile(ctx, converters.ShapeRequest{
		Input:       opts.Input,
		Output:      opts.Output,
		HeightField: shapeOpts.HeightField,
		Layer:       shapeOpts.Layer,
		Simplify:    opts.Features.MeshOptimize,
	})
	if err != nil {
		return err
	}

	if _, err := tileset.MergeFlat(opts.Output, tilerShape.fileFinder); err != nil {
		return err
	}
	glog.Infoln("> done converting", opts.Input)
	return nil
}
