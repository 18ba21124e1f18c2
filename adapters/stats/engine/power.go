package engine

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"
)

// powerForEffect approximates the power of a two-sided two-sample comparison
// at the planned per-group size, using the normal approximation
// power = Phi(|d|*sqrt(n/2) - z_crit)
func (e *Engine) powerForEffect(d float64, perGroup int) float64 {
	if perGroup < 2 {
		return 0.0
	}

	zCrit := distuv.UnitNormal.Quantile(1 - e.cfg.PowerAlpha/2)
	shift := math.Abs(d) * math.Sqrt(float64(perGroup)/2.0)
	return distuv.UnitNormal.CDF(shift - zCrit)
}

// requiredPerGroup estimates the per-group sample size needed to detect the
// effect at the configured alpha and power target, n = 2*((z_crit+z_power)/d)^2.
// A zero effect is undetectable at any size and returns 0.
func (e *Engine) requiredPerGroup(d float64) int {
	if d == 0 {
		return 0
	}

	zCrit := distuv.UnitNormal.Quantile(1 - e.cfg.PowerAlpha/2)
	zPower := distuv.UnitNormal.Quantile(e.cfg.PowerTarget)
	n := 2.0 * math.Pow((zCrit+zPower)/math.Abs(d), 2)
	return int(math.Ceil(n))
}
