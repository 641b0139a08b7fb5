/*
 * This file is part of the Go Cesium Point Cloud Tiler distribution (https://github.com/mfbonfigli/gocesiumtiler).
 * Copyright (c) 2019 Massimo Federico Bonfigli - m.federico.bonfigli@gmail.com
 *
 * This program is free software; you can redistribute it and/or modify it
 * under the terms of the GNU Lesser General Public License Version 3 as
 * published by the Free Software Foundation;
 *
 * This program is distributed in the hope that it will be useful,
 * but WITHOUT ANY WARRANTY; without even the implied warranty of
 * MERCHANTABILITY or FITNESS FOR A PARTICULAR PURPOSE.  See the GNU
 * Lesser General Public License for more details.
 *
 * You should have received a copy of the GNU Lesser General Public License
 * along with this program. If not, see <http://www.gnu.org/licenses/>.
 *
 * This software also uses third party components. You can find information
 * on their credits and licensing in the file LICENSE-3RD-PARTIES.md that
 * you should have received togheter with the source code.
 */


package main

import (
	"fmt"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/ecopia-map/osgb_tiler/internal/tiler"
	"github.com/ecopia-map/osgb_tiler/pkg"
	"github.com/ecopia-map/osgb_tiler/pkg/algorithm_manager/std_algorithm_manager"
	"github.com/ecopia-map/osgb_tiler/tools"
	"github.com/golang/glog"
	"github.com/urfave/cli/v2"
)

const VERSION = "1.3.0"

const logo = `
           _         _   _ _
  ___  ___| |__ __ _| |_(_) | ___ _ __
 / _ \/ __| '_ \/ _' | __| | |/ _ \ '__|
| (_) \__ \ |_) | (_| | |_| | |  __/ |
 \___/|___/_.__/\__, |\__|_|_|\___|_|
  An OSGB to 3D |___/ Tiles batch converter written in golang
  Copyright YYYY
`

func main() {
	app := &cli.App{
		Name:    "osgb_tiler",
		Usage:   "convert tiled osgb and shapefile data into 3D Tiles tilesets",
		Version: VERSION,
		Flags:   tools.GlobalFlags(),
		Before:  tools.ApplyGlogFlags,
		After: func(c *cli.Context) error {
			glog.Flush()
			return nil
		},
		Commands: []*cli.Command{
			{
				Name:   tools.CommandOsgb,
				Usage:  "convert every Data/<cell>/<cell>.osgb and assemble the root tileset",
				Flags:  tools.OsgbFlags(),
				Action: OsgbAction,
			},
			{
				Name:   tools.CommandShape,
				Usage:  "extrude a shapefile and merge the produced tiles",
				Flags:  tools.ShapeFlags(),
				Action: ShapeAction,
			},
			{
				Name:   tools.CommandMerge,
				Usage:  "merge an already converted Tile_*_L<level> hierarchy",
				Flags:  tools.MergeFlags(),
				Action: MergeAction,
			},
			{
				Name:   tools.CommandVerify,
				Usage:  "check bounding volumes and geometric errors of a tileset",
				Flags:  tools.VerifyFlags(),
				Action: VerifyAction,
			},
		},
	}

	if err := app.Run(os.Args); err != nil {
		glog.Fatal("Error while tiling: ", err)
	}
}

func OsgbAction(c *cli.Context) error {
	startup := tools.StartupConfigFromContext(c)
	return runCommand(c, tools.CommandOsgb, func() tiler.ITiler {
		return pkg.NewTilerOsgb(tools.NewStandardFileFinder(), std_algorithm_manager.NewAlgorithmManager(startup), startup)
	})
}

func ShapeAction(c *cli.Context) error {
	startup := tools.StartupConfigFromContext(c)
	return runCommand(c, tools.CommandShape, func() tiler.ITiler {
		return pkg.NewTilerShape(tools.NewStandardFileFinder(), std_algorithm_manager.NewAlgorithmManager(startup))
	})
}

func MergeAction(c *cli.Context) error {
	startup := tools.StartupConfigFromContext(c)
	return runCommand(c, tools.CommandMerge, func() tiler.ITiler {
		return pkg.NewTilerMerge(std_algorithm_manager.NewAlgorithmManager(startup))
	})
}

func VerifyAction(c *cli.Context) error {
	return runCommand(c, tools.CommandVerify, pkg.NewTilerVerify)
}

func runCommand(c *cli.Context, command string, newTiler func() tiler.ITiler) error {
	opts := tools.OptionsFromContext(c, command)
	glog.Infoln("flags", tools.FmtJSONString(opts))

	if msg, res := tools.ValidateOptions(opts); !res {
		return fmt.Errorf("error parsing input parameters: %s", msg)
	}

	if !c.Bool("silent") {
		printLogo()
	}

	ctx, stop := signal.NotifyContext(c.Context, os.Interrupt, syscall.SIGTERM)
	defer stop()

	defer timeTrack(time.Now(), command)
	if err := newTiler().RunTiler(ctx, opts); err != nil {
		return err
	}
	glog.Infoln("Conversion Completed")
	return nil
}

func timeTrack(start time.Time, name string) {
	glog.Infof("%s took %s", name, time.Since(start))
}

func printLogo() {
	fmt.Println(strings.ReplaceAll(logo, "YYYY", strconv.Itoa(time.Now().Year())))
}
