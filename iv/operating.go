package iv

import (
	"github.com/cwbudde/algo-vecmath"
)

// TurnoverPoint is the operating point of interest on one channel's
// curve: the edge of the superconducting transition identified by
// upstream calibration.
type TurnoverPoint struct {
	// Vbias is the turnover bias voltage, V.
	Vbias float64

	// Ites is the TES current at the turnover, A. When the prior fit
	// carries no turnover current this is approximated by the minimum
	// adjusted current in the selected window.
	Ites float64

	// Vtes is the TES voltage at the turnover, V.
	Vtes float64

	// Power is the electrical power dissipated in the TES at the
	// turnover, W.
	Power float64

	// Approximate reports that Ites came from the minimum-current
	// fallback rather than from the prior fit.
	Approximate bool
}

// OperatingPoints holds the derived electrical quantities over one
// channel's selected curve window. The sequences are parallel to
// Selection.Bias.
type OperatingPoints struct {
	Selection

	// Ites is the TES current, A.
	Ites []float64

	// Vtes is the TES voltage, V.
	Vtes []float64

	// Ptes is the electrical power dissipated in the TES, W.
	Ptes []float64

	// RnRatio is the TES resistance as a percentage of the normal-state
	// resistance R1. It is nil when the prior fit holds no R1.
	RnRatio []float64

	// Turnover is nil when upstream calibration found no turnover for
	// this channel; downstream code must treat that as an absent
	// temperature point, never substitute a default.
	Turnover *TurnoverPoint
}

// Extract computes the operating-point sequences for one channel of one
// sweep. Everything is recomputed from the Dataset on each call; there
// is no hidden state, so repeated calls yield identical results.
func Extract(ds Dataset, tes int) (OperatingPoints, error) {
	sel, err := Select(ds, tes)
	if err != nil {
		return OperatingPoints{}, err
	}

	fi, _ := ds.FitInfo(tes)
	rshunt := ds.Rshunt()
	rbias := ds.Rbias()

	n := len(sel.Current)
	op := OperatingPoints{
		Selection: sel,
		Ites:      make([]float64, n),
		Vtes:      make([]float64, n),
		Ptes:      make([]float64, n),
	}

	for i, iadj := range sel.Current {
		ites := 1e-6 * iadj // µA -> A
		op.Ites[i] = ites
		op.Vtes[i] = rshunt * (sel.Bias[i]/rbias - ites)
	}
	vecmath.MulBlock(op.Ptes, op.Ites, op.Vtes)

	if fi.R1 != nil {
		op.RnRatio = make([]float64, n)
		for i := range op.RnRatio {
			op.RnRatio[i] = 100 * (op.Vtes[i] / op.Ites[i]) / *fi.R1
		}
	}

	if fi.Turnover != nil {
		op.Turnover = turnoverPoint(fi, sel, rshunt, rbias)
	}

	return op, nil
}

// turnoverPoint derives the turnover operating point. The fitted
// turnover current is preferred; the minimum adjusted current in the
// window is an uncharacterized approximation kept for curves whose
// prior fit predates the turnover-current fit.
func turnoverPoint(fi FitInfo, sel Selection, rshunt, rbias float64) *TurnoverPoint {
	tp := &TurnoverPoint{Vbias: *fi.Turnover}

	if fi.ITurnover != nil {
		tp.Ites = 1e-6 * *fi.ITurnover
	} else {
		tp.Ites = 1e-6 * minOf(sel.Current)
		tp.Approximate = true
	}

	tp.Vtes = rshunt * (tp.Vbias/rbias - tp.Ites)
	tp.Power = tp.Ites * tp.Vtes

	return tp
}

func minOf(v []float64) float64 {
	m := v[0]
	for _, x := range v[1:] {
		if x < m {
			m = x
		}
	}
	return m
}
