package pkg

import (
	"context"

	"github.com/ecopia-map/osgb_tiler/internal/origin"
	"github.com/ecopia-map/osgb_tiler/internal/tiler"
	"github.com/ecopia-map/osgb_tiler/internal/tileset"
	"github.com/ecopia-map/osgb_tiler/pkg/algorithm_manager"
	"github.com/golang/glog"
)

// TilerMerge rebuilds the root tileset of an export whose level documents were produced one by one
type TilerMerge struct {
	algorithmManager algorithm_manager.AlgorithmManager
}

func NewTilerMerge(algorithmManager algorithm_manager.AlgorithmManager) tiler.ITiler {
	return &TilerMerge{
		algorithmManager: algorithmManager,
	}
}

func (tilerMerge *TilerMerge) RunTiler(ctx context.Context, opts *tiler.TilerOptions) error {
	coordinateConverter := tilerMerge.algorithmManager.GetCoordinateConverterAlgorithm()
	defer coordinateConverter.Cleanup()

	res := origin.NewResolver(coordinateConverter).ResolveDir(opts.Input, tiler.ParseTileConfig(opts.Config))

	ts, err := tileset.MergeHierarchy(opts.Input, res, coordinateConverter)
	if err != nil {
		return err
	}
	glog.Infoln("> done merging", opts.Input, "children:", len(ts.Root.Children))
	return nil
}
