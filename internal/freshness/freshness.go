package freshness

import (
	"context"
	"math"
)

// ToleranceSeconds is how far a measured duration may drift from the declared
// span and still count as fresh. External decode/trim tools introduce
// sub-frame rounding, so exact matching would rebuild constantly.
const ToleranceSeconds = 0.05

// Prober answers the media questions freshness checks depend on.
type Prober interface {
	Duration(ctx context.Context, path string) (float64, error)
	Exists(path string) bool
}

// Checker decides whether local artifacts already satisfy the build. It is
// read-only and safe for concurrent use.
type Checker struct {
	prober Prober
	force  bool
}

// NewChecker constructs a Checker. When force is set every verdict is "not
// fresh", unconditionally triggering a rebuild.
func NewChecker(prober Prober, force bool) *Checker {
	return &Checker{prober: prober, force: force}
}

// Fresh reports whether every path exists and measures within tolerance of
// expected (seconds). It fails closed: any missing path or probe error means
// not fresh.
func (c *Checker) Fresh(ctx context.Context, paths []string, expected float64) bool {
	if c.force || len(paths) == 0 {
		return false
	}
	for _, path := range paths {
		if !c.prober.Exists(path) {
			return false
		}
		measured, err := c.prober.Duration(ctx, path)
		if err != nil {
			return false
		}
		if !withinTolerance(measured, expected) {
			return false
		}
	}
	return true
}

// FreshExact applies the Fresh rules and additionally requires every path's
// duration to exactly equal the reference artifact's measured duration. Stems
// and the excerpt they derive from share a decode path, so any divergence
// indicates corruption or a stale file.
func (c *Checker) FreshExact(ctx context.Context, paths []string, expected float64, referencePath string) bool {
	if c.force || len(paths) == 0 {
		return false
	}
	if !c.prober.Exists(referencePath) {
		return false
	}
	reference, err := c.prober.Duration(ctx, referencePath)
	if err != nil {
		return false
	}
	if !c.Fresh(ctx, paths, expected) {
		return false
	}
	for _, path := range paths {
		measured, err := c.prober.Duration(ctx, path)
		if err != nil {
			return false
		}
		if measured != reference {
			return false
		}
	}
	return true
}

// Forced reports whether this checker bypasses all state checks.
func (c *Checker) Forced() bool {
	return c.force
}

// toleranceEpsilon keeps the 50 ms boundary inclusive in the face of float
// rounding: a drift of exactly 50 ms must still count as fresh.
const toleranceEpsilon = 1e-9

func withinTolerance(measured, expected float64) bool {
	return math.Abs(measured-expected) <= ToleranceSeconds+toleranceEpsilon
}
