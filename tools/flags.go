package tools

import (
	"flag"
	"fmt"
	"path/filepath"
	"strconv"

	"github.com/ecopia-map/osgb_tiler/internal/tiler"
	"github.com/urfave/cli/v2"
)

const (
	CommandOsgb   = "osgb"
	CommandShape  = "shape"
	CommandMerge  = "merge"
	CommandVerify = "verify"
)

const DefaultConverterName = "tile_converter"

// GlobalFlags are shared by every command. Logging flags are forwarded to glog.
func GlobalFlags() []cli.Flag {
	return []cli.Flag{
		&cli.IntFlag{Name: "verbosity", Value: 0, Usage: "glog verbosity level"},
		&cli.BoolFlag{Name: "logtostderr", Value: true, Usage: "log to standard error instead of files"},
		&cli.StringFlag{Name: "log_dir", Usage: "folder where glog writes its files"},
		&cli.StringFlag{Name: "data-dir", Usage: "folder holding epsg_projections.txt, defaults to the executable folder or $CESIUM_TILER_WORKDIR"},
		&cli.StringFlag{Name: "converter", Usage: "path of the native geometry converter program"},
		&cli.IntFlag{Name: "workers", Aliases: []string{"j"}, Value: 0, Usage: "concurrent conversions, 0 means one per cpu"},
		&cli.DurationFlag{Name: "timeout", Value: 0, Usage: "per cell conversion timeout, 0 disables it"},
		&cli.BoolFlag{Name: "silent", Aliases: []string{"s"}, Usage: "hide the progress bar"},
		&cli.StringFlag{Name: "journal", Usage: "sqlite file recording every converted cell"},
	}
}

func inputOutputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Required: true, Usage: "input folder or file"},
		&cli.StringFlag{Name: "output", Aliases: []string{"o"}, Usage: "output folder"},
	}
}

func featureFlags() []cli.Flag {
	return []cli.Flag{
		&cli.BoolFlag{Name: "ktx2", Usage: "compress textures to KTX2"},
		&cli.BoolFlag{Name: "simplify", Usage: "simplify meshes"},
		&cli.BoolFlag{Name: "draco", Usage: "compress meshes with draco"},
		&cli.BoolFlag{Name: "unlit", Usage: "mark materials as unlit"},
	}
}

func OsgbFlags() []cli.Flag {
	flags := append(inputOutputFlags(),
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: `tile config json: {"x": 120, "y": 30, "offset": 0, "max_lvl": 20}`},
		&cli.StringFlag{Name: "refine-mode", Value: string(tiler.RefineModeReplace), Usage: "refine mode of the root tile, ADD or REPLACE"},
	)
	return append(flags, featureFlags()...)
}

func ShapeFlags() []cli.Flag {
	return append(inputOutputFlags(),
		&cli.StringFlag{Name: "height", Usage: "attribute holding the extrusion height"},
		&cli.IntFlag{Name: "layer", Value: 0, Usage: "layer index inside the data source"},
		&cli.BoolFlag{Name: "simplify", Usage: "simplify meshes"},
	)
}

func MergeFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Required: true, Usage: "folder holding Data/ and metadata.xml"},
		&cli.StringFlag{Name: "config", Aliases: []string{"c"}, Usage: "tile config json"},
	}
}

func VerifyFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "input", Aliases: []string{"i"}, Required: true, Usage: "tileset.json or the folder holding it"},
		&cli.Float64Flag{Name: "tolerance", Value: 1e-6, Usage: "slack in meters when checking child boxes"},
	}
}

// ApplyGlogFlags forwards the logging flags to the glog flag set
func ApplyGlogFlags(c *cli.Context) error {
	settings := map[string]string{
		"v":           strconv.Itoa(c.Int("verbosity")),
		"logtostderr": strconv.FormatBool(c.Bool("logtostderr")),
	}
	if dir := c.String("log_dir"); dir != "" {
		settings["log_dir"] = dir
	}
	for name, value := range settings {
		if err := flag.Set(name, value); err != nil {
			return fmt.Errorf("glog flag %s: %w", name, err)
		}
	}
	return flag.CommandLine.Parse(nil)
}

func StartupConfigFromContext(c *cli.Context) *tiler.StartupConfig {
	config := &tiler.StartupConfig{
		DataDir:       c.String("data-dir"),
		ConverterPath: c.String("converter"),
		Workers:       c.Int("workers"),
		UnitTimeout:   c.Duration("timeout"),
		Silent:        c.Bool("silent"),
	}
	if config.DataDir == "" || config.ConverterPath == "" {
		root := GetRootFolder()
		if config.DataDir == "" {
			config.DataDir = root
		}
		if config.ConverterPath == "" {
			config.ConverterPath = filepath.Join(root, DefaultConverterName)
		}
	}
	return config
}

// OptionsFromContext collects the per run options of command
func OptionsFromContext(c *cli.Context, command string) *tiler.TilerOptions {
	opts := &tiler.TilerOptions{
		Input:      c.String("input"),
		Output:     c.String("output"),
		Config:     c.String("config"),
		RefineMode: tiler.ParseRefineMode(c.String("refine-mode")),
		Command:    command,
		Features: tiler.FeatureFlags{
			TextureCompress: c.Bool("ktx2"),
			MeshOptimize:    c.Bool("simplify"),
			MeshCompress:    c.Bool("draco"),
			Unlit:           c.Bool("unlit"),
		},
	}
	if journal := c.String("journal"); journal != "" {
		opts.TilerJournalOptions = &tiler.TilerJournalOptions{Path: journal}
	}
	switch command {
	case CommandShape:
		opts.TilerShapeOptions = &tiler.TilerShapeOptions{
			HeightField: c.String("height"),
			Layer:       c.Int("layer"),
		}
	case CommandVerify:
		opts.TilerVerifyOptions = &tiler.TilerVerifyOptions{
			Tolerance: c.Float64("tolerance"),
		}
	}
	return opts
}

// ValidateOptions checks the input and output locations of command
func ValidateOptions(opts *tiler.TilerOptions) (string, bool) {
	if !PathExists(opts.Input) {
		return "Input file/folder not found", false
	}
	switch opts.Command {
	case CommandOsgb, CommandShape:
		if opts.Output == "" {
			return "Output folder is required", false
		}
	}
	if opts.Command == CommandOsgb && opts.RefineMode == "" {
		return "refine-mode should be either ADD or REPLACE", false
	}
	return "", true
}
