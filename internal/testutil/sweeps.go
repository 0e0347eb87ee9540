// Package testutil provides tolerance helpers and synthetic sweep
// builders shared by the analysis tests.
package testutil

import (
	"math"

	"github.com/cryolab/tesnep/iv"
)

// Readout constants used by the synthetic sweeps.
const (
	SweepASIC     = 1
	SweepChannels = 8
	SweepITurn    = 25.0 // fitted turnover current, µA
)

// PowerLawSweeps builds one synthetic sweep per bath temperature whose
// turnover power follows P(T) = K·(T0^n − T^n) exactly for every listed
// channel. The turnover bias voltage is chosen so that the extractor's
// Rshunt·(V/Rbias − I)·I computation reproduces the model power with
// the fixed turnover current SweepITurn.
func PowerLawSweeps(t testingT, K, T0, n float64, temps []float64, channels ...int) []iv.Dataset {
	sets := make([]iv.Dataset, 0, len(temps))
	for _, temp := range temps {
		power := K * (math.Pow(T0, n) - math.Pow(temp, n))
		sets = append(sets, SweepWithTurnover(t, temp, power, channels...))
	}
	return sets
}

// SweepWithTurnover builds a sweep at the given bath temperature whose
// turnover power equals power (in W) for every listed channel.
func SweepWithTurnover(t testingT, temp, power float64, channels ...int) *iv.Sweep {
	iturn := 1e-6 * SweepITurn
	vtes := power / iturn
	vturn := iv.DefaultRbias * (vtes/iv.DefaultRshunt + iturn)
	iturnUA := SweepITurn

	const npts = 11
	vbias := make([]float64, npts)
	current := make([]float64, npts)
	for i := range vbias {
		vbias[i] = vturn * float64(i) / float64(npts-1)
		current[i] = SweepITurn + float64(npts-1-i) // decreasing toward the turnover
	}

	d := iv.SweepData{
		ASIC:        SweepASIC,
		Temperature: temp,
		NPixels:     SweepChannels,
		Vbias:       vbias,
	}
	for _, tes := range channels {
		vt := vturn
		it := iturnUA
		d.Channels = append(d.Channels, iv.ChannelData{
			TES:     tes,
			Current: append([]float64(nil), current...),
			Fit: &iv.FitInfo{
				Start:     0,
				End:       npts,
				Turnover:  &vt,
				ITurnover: &it,
			},
		})
	}

	s, err := iv.NewSweep(d)
	if err != nil {
		t.Fatalf("building synthetic sweep: %v", err)
	}
	return s
}

// testingT is the subset of *testing.T the builders need.
type testingT interface {
	Fatalf(format string, args ...any)
}
