package exec_tile_converter

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"os/exec"
	"strconv"
	"time"

	"github.com/ecopia-map/osgb_tiler/internal/converters"
	"github.com/golang/glog"
)

// ExecTileConverter runs the native geometry converter as a child process. The program prints a
// single json object {"box":[minx,miny,minz,maxx,maxy,maxz],"tile":{...}} on stdout for cells,
// and only its exit status matters for shapefiles.
type ExecTileConverter struct {
	programLocation string
	timeout         time.Duration
}

func NewExecTileConverter(programLocation string, timeout time.Duration) converters.TileConverter {
	return &ExecTileConverter{
		programLocation: programLocation,
		timeout:         timeout,
	}
}

type cellOutput struct {
	Box  []float64       `json:"box"`
	Tile json.RawMessage `json:"tile"`
}

func (c *ExecTileConverter) ConvertCell(ctx context.Context, req converters.CellRequest) (converters.ConversionResult, error) {
	cmdParams := []string{
		"osgb",
		"-i", req.Input,
		"-o", req.Output,
		"--lon", strconv.FormatFloat(req.LonRad, 'f', -1, 64),
		"--lat", strconv.FormatFloat(req.LatRad, 'f', -1, 64),
	}
	if req.MaxLevel > 0 {
		cmdParams = append(cmdParams, "--max-lvl", strconv.Itoa(req.MaxLevel))
	}
	if req.Features.TextureCompress {
		cmdParams = append(cmdParams, "--ktx2")
	}
	if req.Features.MeshOptimize {
		cmdParams = append(cmdParams, "--simplify")
	}
	if req.Features.MeshCompress {
		cmdParams = append(cmdParams, "--draco")
	}
	if req.Features.Unlit {
		cmdParams = append(cmdParams, "--unlit")
	}

	stdout, err := c.run(ctx, cmdParams)
	if err != nil {
		return converters.ConversionResult{}, err
	}

	result, err := ParseCellOutput(stdout)
	if err != nil {
		return converters.ConversionResult{}, fmt.Errorf("%s: %w", req.Input, err)
	}
	result.Output = req.Output
	return result, nil
}

func (c *ExecTileConverter) ConvertShapefile(ctx context.Context, req converters.ShapeRequest) error {
	cmdParams := []string{
		"shape",
		"-i", req.Input,
		"-o", req.Output,
		"--height", req.HeightField,
		"--layer", strconv.Itoa(req.Layer),
	}
	if req.Simplify {
		cmdParams = append(cmdParams, "--simplify")
	}
	_, err := c.run(ctx, cmdParams)
	return err
}

func (c *ExecTileConverter) run(ctx context.Context, cmdParams []string) ([]byte, error) {
	if c.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, c.timeout)
		defer cancel()
	}

	runCmd := exec.CommandContext(ctx, c.programLocation, cmdParams...)

	var cmdStdout, cmdStderr bytes.Buffer
	runCmd.Stdout = &cmdStdout
	runCmd.Stderr = &cmdStderr

	startTime := time.Now()
	if err := runCmd.Run(); err != nil {
		glog.Warningln("run failed", runCmd.String(), "cmd-stderr", cmdStderr.String(), err.Error())
		return nil, fmt.Errorf("%w: %v", converters.ErrConversionFailed, err)
	}
	glog.V(2).Infoln("run converter cmd success", runCmd.String(), "latency_ms", time.Since(startTime).Milliseconds())

	return cmdStdout.Bytes(), nil
}

// ParseCellOutput decodes the converter stdout. A missing or null tile is a failed conversion.
func ParseCellOutput(stdout []byte) (converters.ConversionResult, error) {
	var out cellOutput
	if err := json.Unmarshal(bytes.TrimSpace(stdout), &out); err != nil {
		return converters.ConversionResult{}, fmt.Errorf("%w: decode converter output: %v", converters.ErrConversionFailed, err)
	}
	tile := bytes.TrimSpace(out.Tile)
	if len(tile) == 0 || bytes.Equal(tile, []byte("null")) {
		return converters.ConversionResult{}, fmt.Errorf("%w: converter returned no tile", converters.ErrConversionFailed)
	}
	if len(out.Box) != 6 {
		return converters.ConversionResult{}, fmt.Errorf("%w: converter returned a box of %d values", converters.ErrConversionFailed, len(out.Box))
	}

	result := converters.ConversionResult{Fragment: append(json.RawMessage(nil), tile...)}
	copy(result.Box[:], out.Box)
	return result, nil
}
