package dynamo

import (
	"math"

	"gonum.org/v1/gonum/spatial/r3"
)

// MaxSteps caps the steps of one run. Every step records a sample per
// body, so a longer run is rejected as a configuration error.
const MaxSteps = 1 << 24

// Vec3 is the single numeric type for physical vectors (metres, m/s, N).
type Vec3 = r3.Vec

func IsFinite(v Vec3) bool {
	return isFinite(v.X) && isFinite(v.Y) && isFinite(v.Z)
}

func isFinite(f float64) bool {
	return !math.IsNaN(f) && !math.IsInf(f, 0)
}

// Distance returns |a - b|.
func Distance(a, b Vec3) float64 {
	return r3.Norm(r3.Sub(a, b))
}
