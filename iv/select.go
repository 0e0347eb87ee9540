package iv

import "fmt"

// Selection is the physically meaningful portion of one channel's I-V
// curve: the window bounds into the bias sequence plus the bias and
// offset-adjusted current sub-sequences over that window.
type Selection struct {
	Start, End int

	// Bias is the bias voltage over the window, V.
	Bias []float64

	// Current is the baseline-adjusted current over the window, µA.
	Current []float64
}

// Select returns the valid analysis window of one channel's curve with
// the calibration baseline applied. Regions outside the window (beyond
// turnaround or saturation, as determined by upstream calibration) are
// excluded. It returns ErrNoCurve when the channel has no usable curve
// in this dataset; callers treat that as "skip this temperature point",
// not as a fatal condition.
func Select(ds Dataset, tes int) (Selection, error) {
	if err := ValidateTES(ds, tes); err != nil {
		return Selection{}, err
	}

	fi, ok := ds.FitInfo(tes)
	if !ok {
		return Selection{}, fmt.Errorf("%w: TES %d has no calibration at %.0f mK",
			ErrNoCurve, tes, 1000*ds.Temperature())
	}

	raw, err := ds.RawCurrent(tes)
	if err != nil {
		return Selection{}, err
	}

	bias := ds.Bias()
	if fi.Start < 0 || fi.End > len(bias) || fi.Start >= fi.End {
		return Selection{}, fmt.Errorf("%w: TES %d window [%d,%d) outside curve of %d points",
			ErrNoCurve, tes, fi.Start, fi.End, len(bias))
	}

	adjusted := make([]float64, fi.End-fi.Start)
	for i := range adjusted {
		adjusted[i] = raw[fi.Start+i] + fi.Offset
	}

	return Selection{
		Start:   fi.Start,
		End:     fi.End,
		Bias:    bias[fi.Start:fi.End],
		Current: adjusted,
	}, nil
}
