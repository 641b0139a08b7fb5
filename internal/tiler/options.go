package tiler

import (
	"context"
	"runtime"
	"strings"
	"time"
)

type Format string
type RefineMode string

const (
	FormatOsgb  Format = "OSGB"
	FormatShape Format = "SHAPE"
)

const (
	RefineModeAdd     RefineMode = "ADD"
	RefineModeReplace RefineMode = "REPLACE"
)

func (e RefineMode) String() string {
	if e == RefineModeAdd {
		return "ADD"
	} else if e == RefineModeReplace {
		return "REPLACE"
	}
	return ""
}

func ParseRefineMode(value string) RefineMode {
	normalizedValue := strings.Trim(strings.ToUpper(value), " ")
	if normalizedValue == "ADD" {
		return RefineModeAdd
	} else if normalizedValue == "REPLACE" {
		return RefineModeReplace
	}
	return ""
}

type ITiler interface {
	RunTiler(ctx context.Context, opts *TilerOptions) error
}

// Feature switches forwarded untouched to the native converter
type FeatureFlags struct {
	TextureCompress bool `json:"texture_compress"` // KTX2 texture compression
	MeshOptimize    bool `json:"mesh_optimize"`    // mesh simplification
	MeshCompress    bool `json:"mesh_compress"`    // draco geometry compression
	Unlit           bool `json:"unlit"`            // KHR_materials_unlit
}

// Contains the options needed for a conversion run
type TilerOptions struct {
	Input      string     // Input folder, must contain Data/ for osgb
	Output     string     // Output tileset folder
	Config     string     // Raw tile config json
	RefineMode RefineMode // Refine mode of the root tileset
	Features   FeatureFlags

	Command             string
	TilerShapeOptions   *TilerShapeOptions
	TilerVerifyOptions  *TilerVerifyOptions
	TilerJournalOptions *TilerJournalOptions
}

type TilerShapeOptions struct {
	HeightField string // attribute holding the extrusion height
	Layer       int
}

type TilerVerifyOptions struct {
	Tolerance float64 // slack allowed when checking child boxes against the root box
}

type TilerJournalOptions struct {
	Path string // sqlite file recording every unit of the run
}

// StartupConfig holds the process wide settings of the tiler. It is built once by main and passed
// down explicitly so nothing in the core reads environment variables.
type StartupConfig struct {
	DataDir       string        // folder holding coordinate system tables (epsg_projections.txt)
	ConverterPath string        // external geometry converter program
	Workers       int           // number of concurrent conversions, <= 0 means NumCPU
	UnitTimeout   time.Duration // 0 disables the per cell timeout
	Silent        bool          // disables the progress bar
}

func (c *StartupConfig) NumWorkers() int {
	if c == nil || c.Workers <= 0 {
		return runtime.NumCPU()
	}
	return c.Workers
}

func (opt *TilerOptions) Copy() *TilerOptions {
	newOpt := *opt

	if opt.TilerShapeOptions != nil {
		shapeOpt := *opt.TilerShapeOptions
		newOpt.TilerShapeOptions = &shapeOpt
	}

	if opt.TilerVerifyOptions != nil {
		verifyOpt := *opt.TilerVerifyOptions
		newOpt.TilerVerifyOptions = &verifyOpt
	}

	if opt.TilerJournalOptions != nil {
		journalOpt := *opt.TilerJournalOptions
		newOpt.TilerJournalOptions = &journalOpt
	}

	return &newOpt
}
