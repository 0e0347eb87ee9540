package thermal

import (
	"errors"
	"fmt"
	"math"

	"github.com/maorshutman/lm"
	"gonum.org/v1/gonum/mat"
)

// Errors returned by FitPbath. All of them mean "no fit available for
// this channel" to callers; none is a pipeline failure.
var (
	ErrInsufficientData = errors.New("thermal: need at least 3 temperature points")
	ErrLengthMismatch   = errors.New("thermal: temperature and power sequences differ in length")
	ErrNoConvergence    = errors.New("thermal: fit did not converge")
)

// MinPoints is the smallest number of (T, P) pairs the three-parameter
// model can be fitted to.
const MinPoints = 3

// pW rescales powers into picowatts for the fit so that all three
// parameters start within a few orders of magnitude of the initial
// guess. K is scaled back afterwards; T0 and n are unaffected by the
// reparametrization.
const pW = 1e12

// Fit is a converged power-law fit for one channel.
type Fit struct {
	K  float64 // W/K^n
	T0 float64 // intrinsic critical temperature, K
	N  float64 // thermal conductance exponent

	// Cov is the 3×3 parameter covariance in (K, T0, N) order, nil when
	// the fit is exactly determined or the normal matrix is singular.
	// Downstream NEP estimation does not consume it.
	Cov *mat.Dense
}

// Power evaluates the thermal model P(T) = K·(T0^n − T^n).
func Power(T, K, T0, n float64) float64 {
	return K * (math.Pow(T0, n) - math.Pow(T, n))
}

// Power evaluates the fitted model at bath temperature T.
func (f *Fit) Power(T float64) float64 {
	return Power(T, f.K, f.T0, f.N)
}

// FitPbath fits the power-law model to the given (bath temperature,
// turnover power) pairs, temperatures in K and powers in W. The fit
// starts from the routine's default point (all ones) with no bounds.
// It returns ErrInsufficientData for fewer than MinPoints pairs and
// ErrNoConvergence when the data is degenerate or the minimizer fails;
// both are expected per-channel outcomes.
func FitPbath(T, P []float64) (*Fit, error) {
	if len(T) != len(P) {
		return nil, fmt.Errorf("%w: %d vs %d", ErrLengthMismatch, len(T), len(P))
	}
	if len(T) < MinPoints {
		return nil, fmt.Errorf("%w: have %d", ErrInsufficientData, len(T))
	}

	// The fit parameters are (K·pW, T0, n): K is carried in picowatt
	// units so the minimizer sees comparably scaled parameters.
	m := len(T)
	residual := func(dst, x []float64) {
		for i := range dst {
			dst[i] = Power(T[i], x[0], x[1], x[2]) - P[i]*pW
		}
	}
	numJac := lm.NumJac{Func: residual}

	prob := lm.LMProblem{
		Dim:        3,
		Size:       m,
		Func:       residual,
		Jac:        numJac.Jac,
		InitParams: []float64{1, 1, 1},
		Tau:        1e-6,
		Eps1:       1e-12,
		Eps2:       1e-12,
	}

	res, err := lm.LM(prob, &lm.Settings{Iterations: 1000, ObjectiveTol: 1e-30})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoConvergence, err)
	}
	for _, x := range res.X {
		if math.IsNaN(x) || math.IsInf(x, 0) {
			return nil, fmt.Errorf("%w: non-finite parameters", ErrNoConvergence)
		}
	}

	fit := &Fit{
		K:  res.X[0] / pW,
		T0: res.X[1],
		N:  res.X[2],
	}
	fit.Cov = covariance(&numJac, residual, res.X, m)

	return fit, nil
}

// covariance estimates the parameter covariance s²·(JᵀJ)⁻¹ at the
// solution, with s² the residual variance. The Jacobian is taken in the
// scaled (picowatt) parametrization and the K row and column are scaled
// back. Returns nil when there are no degrees of freedom or JᵀJ is
// singular.
func covariance(numJac *lm.NumJac, residual func(dst, x []float64), x []float64, m int) *mat.Dense {
	dof := m - len(x)
	if dof <= 0 {
		return nil
	}

	r := make([]float64, m)
	residual(r, x)
	rss := 0.0
	for _, ri := range r {
		rss += ri * ri
	}
	s2 := rss / float64(dof)

	jac := mat.NewDense(m, len(x), nil)
	numJac.Jac(jac, x)

	var jtj mat.Dense
	jtj.Mul(jac.T(), jac)

	var cov mat.Dense
	if err := cov.Inverse(&jtj); err != nil {
		return nil
	}
	cov.Scale(s2, &cov)

	// Undo the picowatt scaling of K: cov(K,·) and cov(·,K) carry one
	// factor of 1/pW each.
	for j := 0; j < len(x); j++ {
		cov.Set(0, j, cov.At(0, j)/pW)
		cov.Set(j, 0, cov.At(j, 0)/pW)
	}

	return &cov
}
