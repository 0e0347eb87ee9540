// Package nep estimates the Noise Equivalent Power of TES channels
// from I-V sweeps taken at several bath temperatures. For each channel
// it collects the turnover power at every temperature, fits the thermal
// power-law model and derives the thermal conductance G, the γ factor
// (Perbost 2016, eq. 2.72) and the phonon-noise NEP at a 300 mK
// reference bath. A channel for which the fit fails keeps an explicit
// "undefined" result instead of a number; a channel whose discriminant
// is negative keeps a sign-flagged NEP for human review. Neither
// outcome ever aborts the rest of the array.
package nep
