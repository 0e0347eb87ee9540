package report

import (
	"math"

	"gonum.org/v1/gonum/stat"

	"github.com/cryolab/tesnep/nep"
)

// SummaryStats aggregates an array's NEP results for the document
// header and the CLI table footer.
type SummaryStats struct {
	Total   int // channels analyzed
	Defined int // channels with a converged fit
	Invalid int // defined channels flagged with an imaginary NEP
	LowT0   int // defined channels with T0 below 300 mK

	// MeanNEP, MinNEP and MaxNEP cover the defined channels with a
	// finite NEP and are zero when no such channel exists.
	MeanNEP float64
	MinNEP  float64
	MaxNEP  float64
}

// Summarize computes array-wide statistics over per-channel results in
// a single pass.
func Summarize(results []nep.Result) SummaryStats {
	s := SummaryStats{Total: len(results)}

	var neps []float64
	for _, res := range results {
		if !res.Defined() {
			continue
		}
		s.Defined++
		if res.NEP.Invalid {
			s.Invalid++
		}
		if res.FlagLowT0() {
			s.LowT0++
		}

		v := res.NEP.NEP
		if math.IsNaN(v) || math.IsInf(v, 0) {
			continue
		}
		if len(neps) == 0 || v < s.MinNEP {
			s.MinNEP = v
		}
		if len(neps) == 0 || v > s.MaxNEP {
			s.MaxNEP = v
		}
		neps = append(neps, v)
	}

	if len(neps) > 0 {
		s.MeanNEP = stat.Mean(neps, nil)
	}

	return s
}
