package pkg

import (
	"context"
	stdio "io"
	"os"
	"path/filepath"
	"time"

	"github.com/ecopia-map/osgb_tiler/internal/io"
	"github.com/ecopia-map/osgb_tiler/internal/manifest"
	"github.com/ecopia-map/osgb_tiler/internal/origin"
	"github.com/ecopia-map/osgb_tiler/internal/tiler"
	"github.com/ecopia-map/osgb_tiler/internal/tileset"
	"github.com/ecopia-map/osgb_tiler/pkg/algorithm_manager"
	"github.com/ecopia-map/osgb_tiler/tools"
	"github.com/golang/glog"
)

type TilerOsgb struct {
	fileFinder       tools.FileFinder
	algorithmManager algorithm_manager.AlgorithmManager
	startupConfig    *tiler.StartupConfig
}

func NewTilerOsgb(fileFinder tools.FileFinder, algorithmManager algorithm_manager.AlgorithmManager, startupConfig *tiler.StartupConfig) tiler.ITiler {
	return &TilerOsgb{
		fileFinder:       fileFinder,
		algorithmManager: algorithmManager,
		startupConfig:    startupConfig,
	}
}

// Converts every cell of opts.Input and writes the root tileset.json in opts.Output
func (tilerOsgb *TilerOsgb) RunTiler(ctx context.Context, opts *tiler.TilerOptions) error {
	startTime := time.Now()
	glog.Infoln("Preparing list of cells to process...")

	units, err := tilerOsgb.fileFinder.GetCellUnits(opts.Input, opts.Output)
	if err != nil {
		return err
	}
	if err := tools.CreateDirectoryIfDoesNotExist(opts.Output); err != nil {
		return err
	}

	coordinateConverter := tilerOsgb.algorithmManager.GetCoordinateConverterAlgorithm()
	defer coordinateConverter.Cleanup()

	res := origin.NewResolver(coordinateConverter).ResolveDir(opts.Input, tiler.ParseTileConfig(opts.Config))

	var recorder io.UnitRecorder
	journal := openJournal(opts)
	if journal != nil {
		defer journal.Close()
		if _, err := journal.StartRun(opts.Command, opts.Input, opts.Output); err != nil {
			glog.Warningln(err)
		} else {
			recorder = journal
		}
	}

	dispatcher := io.NewDispatcher(
		tilerOsgb.algorithmManager.GetTileConverterAlgorithm(),
		tilerOsgb.startupConfig.NumWorkers(),
		tilerOsgb.progressWriter(),
		recorder,
	)
	results := dispatcher.Dispatch(ctx, units, io.CellOptions{
		LonRad:   res.LonRad(),
		LatRad:   res.LatRad(),
		MaxLevel: res.MaxLevel,
		Features: opts.Features,
	})

	if recorder != nil {
		if err := journal.FinishRun(len(units), len(results)); err != nil {
			glog.Warningln(err)
		}
	}

	glog.Infoln("> assembling tileset...")
	ts, err := tileset.NewAssembler(coordinateConverter, opts.Output, opts.RefineMode).Assemble(results, res)
	if err != nil {
		return err
	}
	if err := tileset.WriteTileset(filepath.Join(opts.Output, tileset.TilesetFileName), ts); err != nil {
		return err
	}

	glog.Infof("task over, %d/%d cells, cost %.2f s.", len(results), len(units), time.Since(startTime).Seconds())
	return nil
}

func (tilerOsgb *TilerOsgb) progressWriter() stdio.Writer {
	if tilerOsgb.startupConfig != nil && tilerOsgb.startupConfig.Silent {
		return nil
	}
	return os.Stderr
}

// openJournal returns nil when no journal is configured or it cannot be opened
func openJournal(opts *tiler.TilerOptions) *manifest.Journal {
	if opts.TilerJournalOptions == nil || opts.TilerJournalOptions.Path == "" {
		return nil
	}
	journal, err := manifest.Open(opts.TilerJournalOptions.Path)
	if err != nil {
		glog.Warningf("journal disabled: %v", err)
		return nil
	}
	return journal
}
