package exec_tile_converter

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/ecopia-map/osgb_tiler/internal/converters"
	"github.com/ecopia-map/osgb_tiler/internal/tiler"
	"github.com/stretchr/testify/require"
)

func TestParseCellOutput(t *testing.T) {
	result, err := ParseCellOutput([]byte(`{"box":[0,0,0,1,2,3],"tile":{"geometricError":4,"content":{"uri":"a.b3dm"}}}` + "\n"))
	require.NoError(t, err)
	require.Equal(t, [6]float64{0, 0, 0, 1, 2, 3}, result.Box)
	require.JSONEq(t, `{"geometricError":4,"content":{"uri":"a.b3dm"}}`, string(result.Fragment))
	require.False(t, result.IsEmpty())
}

func TestParseCellOutputFailures(t *testing.T) {
	for _, stdout := range []string{
		``,
		`not json`,
		`{"box":[0,0,0,1,1,1],"tile":null}`,
		`{"box":[0,0,0,1,1,1]}`,
		`{"box":[0,0,0],"tile":{}}`,
	} {
		_, err := ParseCellOutput([]byte(stdout))
		require.Truef(t, errors.Is(err, converters.ErrConversionFailed), "%q: %v", stdout, err)
	}
}

func writeScript(t *testing.T, body string) string {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("shell scripts are not available on windows")
	}
	path := filepath.Join(t.TempDir(), "converter.sh")
	require.NoError(t, os.WriteFile(path, []byte("#!/bin/sh\n"+body), 0755))
	return path
}

func TestConvertCellRunsProgram(t *testing.T) {
	script := writeScript(t, `echo '{"box":[1,1,1,2,2,2],"tile":{"geometricError":1}}'`)
	converter := NewExecTileConverter(script, 0)

	result, err := converter.ConvertCell(context.Background(), converters.CellRequest{
		Input:    "/in/Data/Tile_0/Tile_0.osgb",
		Output:   "/out/Data/Tile_0",
		MaxLevel: 18,
		Features: tiler.FeatureFlags{MeshCompress: true},
	})
	require.NoError(t, err)
	require.Equal(t, "/out/Data/Tile_0", result.Output)
	require.Equal(t, [6]float64{1, 1, 1, 2, 2, 2}, result.Box)
}

func TestConvertCellProgramFailure(t *testing.T) {
	script := writeScript(t, "echo boom >&2\nexit 3\n")
	converter := NewExecTileConverter(script, 0)

	_, err := converter.ConvertCell(context.Background(), converters.CellRequest{Input: "x"})
	require.ErrorIs(t, err, converters.ErrConversionFailed)
}

func TestConvertCellTimeout(t *testing.T) {
	script := writeScript(t, "sleep 5\n")
	converter := NewExecTileConverter(script, 50*time.Millisecond)

	start := time.Now()
	_, err := converter.ConvertCell(context.Background(), converters.CellRequest{Input: "x"})
	require.ErrorIs(t, err, converters.ErrConversionFailed)
	require.Less(t, time.Since(start), 4*time.Second)
}
