package pkg

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ecopia-map/osgb_tiler/internal/tiler"
	"github.com/ecopia-map/osgb_tiler/internal/tileset"
	"github.com/golang/glog"
)

var ErrVerifyFailed = errors.New("tileset verification failed")

type TilerVerify struct{}

func NewTilerVerify() tiler.ITiler {
	return &TilerVerify{}
}

// Checks the tileset at opts.Input, either the document itself or the folder holding tileset.json
func (tilerVerify *TilerVerify) RunTiler(ctx context.Context, opts *tiler.TilerOptions) error {
	path := opts.Input
	if info, err := os.Stat(path); err == nil && info.IsDir() {
		path = filepath.Join(path, tileset.TilesetFileName)
	}

	tolerance := 0.0
	if opts.TilerVerifyOptions != nil {
		tolerance = opts.TilerVerifyOptions.Tolerance
	}

	report, err := tileset.Verify(path, tolerance)
	if err != nil {
		return err
	}
	if !report.OK() {
		return fmt.Errorf("%w: %d problems in %d tiles", ErrVerifyFailed, len(report.Problems), report.Tiles)
	}

	glog.Infoln("Verify tileset success.", path)
	return nil
}
