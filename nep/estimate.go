package nep

import (
	"math"

	"github.com/cryolab/tesnep/thermal"
)

// Physical constants of the estimate.
const (
	// Boltzmann is the Boltzmann constant in J/K.
	Boltzmann = 1.380648528e-23

	// ReferenceBath is the bath temperature in K at which the NEP is
	// reported.
	ReferenceBath = 0.3

	// LowT0 is the threshold in K below which a fitted T0 is flagged as
	// an error condition in reports.
	LowT0 = 0.3
)

// Estimate holds the noise figures derived from a converged thermal
// fit.
type Estimate struct {
	// G is the thermal conductance n·K·T0^(n−1), W/K.
	G float64

	// Gamma is the link-noise reduction factor γ.
	Gamma float64

	// NEP is the phonon-noise figure in W/√Hz at the reference bath
	// temperature. A negative value is the sign-flagged form of a
	// physically invalid (imaginary) result; see Invalid.
	NEP float64

	// Invalid reports a non-physical discriminant γ·k_B·G: when it is
	// negative, NEP carries −2·T0·√(−γ·k_B·G); when it is not finite,
	// NEP is NaN.
	Invalid bool
}

// EstimateNEP derives the noise figures from a converged fit:
//
//	G   = n·K·T0^(n−1)
//	γ   = (n/(2n+1))·(1 − r^(2n+1))/(1 − r^n),  r = 0.3/T0
//	NEP = 2·T0·√(γ·k_B·G)
//
// A negative discriminant γ·k_B·G yields a sign-flagged NEP rather than
// an error: reporting still wants the magnitude, and a low T0 is
// flagged separately.
func EstimateNEP(fit *thermal.Fit) Estimate {
	k, t0, n := fit.K, fit.T0, fit.N

	est := Estimate{
		G: n * k * math.Pow(t0, n-1),
	}

	r := ReferenceBath / t0
	if r == 1 {
		// Both 1−r^(2n+1) and 1−r^n vanish when T0 equals the
		// reference bath; their ratio tends to (2n+1)/n, so γ tends
		// to 1.
		est.Gamma = 1
	} else {
		est.Gamma = (n / (2*n + 1)) * (1 - math.Pow(r, 2*n+1)) / (1 - math.Pow(r, n))
	}

	discr := est.Gamma * Boltzmann * est.G
	switch {
	case math.IsNaN(discr) || math.IsInf(discr, 0):
		est.NEP = math.NaN()
		est.Invalid = true
	case discr < 0:
		est.NEP = -2 * t0 * math.Sqrt(-discr)
		est.Invalid = true
	default:
		est.NEP = 2 * t0 * math.Sqrt(discr)
	}

	return est
}
