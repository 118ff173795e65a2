// Package modifier splits a trajectory planned for the centre of a drive base into one
// trajectory per wheel (tank) or per module (swerve). Both decompositions are pure functions
// of the source trajectory and the drive geometry.
package modifier

import (
	"github.com/pkg/errors"

	"go.viam.com/trajgen/trajectory"
	"go.viam.com/trajgen/utils"
)

// minStep is the smallest position change over which a turning rate is estimated.
const minStep = 1e-12

func validateDimension(name string, v float64) error {
	if !utils.IsFinite(v) || v <= 0 {
		return errors.Wrapf(trajectory.ErrInvalidInput, "wheelbase %s must be positive, got %g", name, v)
	}
	return nil
}

// turning holds, per segment, the heading unwrapped relative to the first segment and the
// curvature (heading change per unit of arc length).
type turning struct {
	heading   []float64
	curvature []float64
}

func estimateTurning(segs []trajectory.Segment) turning {
	n := len(segs)
	tr := turning{heading: make([]float64, n), curvature: make([]float64, n)}
	for i := 1; i < n; i++ {
		tr.heading[i] = tr.heading[i-1] + utils.AngleDiff(segs[i-1].Heading, segs[i].Heading)
	}
	for i := range segs {
		lo, hi := i-1, i+1
		if lo < 0 {
			lo = 0
		}
		if hi > n-1 {
			hi = n - 1
		}
		ds := segs[hi].Position - segs[lo].Position
		if ds > minStep {
			tr.curvature[i] = (tr.heading[hi] - tr.heading[lo]) / ds
		}
	}
	return tr
}
