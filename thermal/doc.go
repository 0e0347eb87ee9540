// Package thermal fits the TES thermal power-law model
//
//	P(T) = K·(T0^n − T^n)
//
// to (bath temperature, turnover power) pairs collected across sweeps
// at different temperatures (Perbost 2016, eq. 2.11 and 6.1.6). The fit
// is unbounded Levenberg-Marquardt least squares with a numerical
// Jacobian. Non-convergence is an expected per-channel outcome, not a
// pipeline failure.
package thermal
