package geometry

import (
	"math"

	"github.com/google/hilbert"
)

const hilbertOrder = 1 << 16

var hilbertCurve, hilbertErr = hilbert.NewHilbert(hilbertOrder)

// HilbertIndex maps the horizontal center of box onto a hilbert curve spanning extent.
// Boxes close in space get close indexes, which keeps sibling order stable between runs.
func HilbertIndex(box *BoundingBox, extent *BoundingBox) int {
	if hilbertErr != nil {
		return 0
	}
	c := box.Center()
	x := quantize(c.X, extent.Xmin, extent.Xmax)
	y := quantize(c.Y, extent.Ymin, extent.Ymax)
	t, err := hilbertCurve.MapInverse(x, y)
	if err != nil {
		return 0
	}
	return t
}

func quantize(v, min, max float64) int {
	if max <= min || math.IsNaN(v) {
		return 0
	}
	q := int((v - min) / (max - min) * (hilbertOrder - 1))
	if q < 0 {
		return 0
	}
	if q > hilbertOrder-1 {
		return hilbertOrder - 1
	}
	return q
}
