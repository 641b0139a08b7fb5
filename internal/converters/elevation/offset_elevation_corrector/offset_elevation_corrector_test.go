package offset_elevation_corrector

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestCorrectElevation(t *testing.T) {
	corrector := NewOffsetElevationCorrector(10)
	require.Equal(t, 12.5, corrector.CorrectElevation(120, 30, -2.5))
	require.Equal(t, 0.0, corrector.CorrectElevation(0, 0, 10))
}
