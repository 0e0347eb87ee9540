package iv_test

import (
	"errors"
	"math"
	"testing"

	"github.com/cryolab/tesnep/internal/testutil"
	"github.com/cryolab/tesnep/iv"
)

func float64p(v float64) *float64 { return &v }

// testSweep builds a two-channel sweep with known raw readings. TES 1
// has a selected window with an offset and a fitted turnover; TES 2 has
// a turnover bias but no fitted turnover current.
func testSweep(t *testing.T) *iv.Sweep {
	t.Helper()

	vbias := []float64{0, 0.5, 1.0, 1.5, 2.0, 2.5}
	s, err := iv.NewSweep(iv.SweepData{
		ASIC:        1,
		Temperature: 0.3,
		NPixels:     4,
		Vbias:       vbias,
		Channels: []iv.ChannelData{
			{
				TES:     1,
				Current: []float64{40, 35, 30, 27, 29, 34},
				Fit: &iv.FitInfo{
					Start:     1,
					End:       5,
					Offset:    2,
					Turnover:  float64p(2.5),
					ITurnover: float64p(25),
					R1:        float64p(1.0),
				},
			},
			{
				TES:     2,
				Current: []float64{41, 36, 31, 28, 30, 35},
				Fit: &iv.FitInfo{
					Start:    0,
					End:      6,
					Turnover: float64p(2.0),
				},
			},
		},
	})
	if err != nil {
		t.Fatalf("NewSweep: %v", err)
	}
	return s
}

func TestValidateTESRejectsOutOfRange(t *testing.T) {
	s := testSweep(t)
	for _, tes := range []int{0, -3, 5} {
		if err := iv.ValidateTES(s, tes); !errors.Is(err, iv.ErrBadChannel) {
			t.Fatalf("TES %d: got %v, want ErrBadChannel", tes, err)
		}
	}
	if err := iv.ValidateTES(s, 1); err != nil {
		t.Fatalf("TES 1 rejected: %v", err)
	}
	if err := iv.ValidateTES(s, 4); err != nil {
		t.Fatalf("TES 4 rejected: %v", err)
	}
}

func TestValidateSetRejectsMixedASICs(t *testing.T) {
	a := testSweep(t)
	b, err := iv.NewSweep(iv.SweepData{
		ASIC:        2,
		Temperature: 0.35,
		NPixels:     4,
		Vbias:       []float64{0, 1},
		Channels:    []iv.ChannelData{{TES: 1, Current: []float64{1, 2}}},
	})
	if err != nil {
		t.Fatalf("NewSweep: %v", err)
	}

	if err := iv.ValidateSet([]iv.Dataset{a, b}, 1); !errors.Is(err, iv.ErrASICMismatch) {
		t.Fatalf("got %v, want ErrASICMismatch", err)
	}
	if err := iv.ValidateSet(nil, 1); !errors.Is(err, iv.ErrNoDatasets) {
		t.Fatalf("got %v, want ErrNoDatasets", err)
	}
}

func TestSelectAppliesWindowAndOffset(t *testing.T) {
	s := testSweep(t)

	sel, err := iv.Select(s, 1)
	if err != nil {
		t.Fatalf("Select: %v", err)
	}

	if sel.Start != 1 || sel.End != 5 {
		t.Fatalf("window: got [%d,%d), want [1,5)", sel.Start, sel.End)
	}
	testutil.RequireSliceNearlyEqual(t, sel.Bias, []float64{0.5, 1.0, 1.5, 2.0}, 0)
	testutil.RequireSliceNearlyEqual(t, sel.Current, []float64{37, 32, 29, 31}, 0)
}

func TestSelectMissingCurveIsSkippable(t *testing.T) {
	s := testSweep(t)

	// TES 3 is a valid index but was never recorded.
	if _, err := iv.Select(s, 3); !errors.Is(err, iv.ErrNoCurve) {
		t.Fatalf("got %v, want ErrNoCurve", err)
	}
	if _, err := iv.Select(s, 0); !errors.Is(err, iv.ErrBadChannel) {
		t.Fatalf("got %v, want ErrBadChannel", err)
	}
}

func TestSelectRejectsBadWindow(t *testing.T) {
	s, err := iv.NewSweep(iv.SweepData{
		ASIC:        1,
		Temperature: 0.3,
		Vbias:       []float64{0, 1, 2},
		Channels: []iv.ChannelData{{
			TES:     1,
			Current: []float64{5, 4, 3},
			Fit:     &iv.FitInfo{Start: 2, End: 9},
		}},
	})
	if err != nil {
		t.Fatalf("NewSweep: %v", err)
	}

	if _, err := iv.Select(s, 1); !errors.Is(err, iv.ErrNoCurve) {
		t.Fatalf("got %v, want ErrNoCurve", err)
	}
}

func TestExtractDerivedSequences(t *testing.T) {
	s := testSweep(t)

	op, err := iv.Extract(s, 1)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	// Hand-computed from Ites = 1e-6·Iadj, Vtes = Rshunt·(V/Rbias − Ites).
	for i, iadj := range []float64{37, 32, 29, 31} {
		ites := 1e-6 * iadj
		vtes := iv.DefaultRshunt * (op.Bias[i]/iv.DefaultRbias - ites)

		testutil.RequireNearRel(t, op.Ites[i], ites, 1e-15)
		testutil.RequireNearRel(t, op.Vtes[i], vtes, 1e-15)
		testutil.RequireNearRel(t, op.Ptes[i], ites*vtes, 1e-15)
		testutil.RequireNearRel(t, op.RnRatio[i], 100*(vtes/ites)/1.0, 1e-15)
	}
}

func TestExtractIsIdempotent(t *testing.T) {
	s := testSweep(t)

	a, err := iv.Extract(s, 1)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	b, err := iv.Extract(s, 1)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}

	testutil.RequireSliceNearlyEqual(t, a.Ites, b.Ites, 0)
	testutil.RequireSliceNearlyEqual(t, a.Vtes, b.Vtes, 0)
	testutil.RequireSliceNearlyEqual(t, a.Ptes, b.Ptes, 0)
	if a.Turnover == nil || b.Turnover == nil || *a.Turnover != *b.Turnover {
		t.Fatal("turnover point differs between calls")
	}
}

func TestTurnoverFromFittedCurrent(t *testing.T) {
	s := testSweep(t)

	op, err := iv.Extract(s, 1)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	tp := op.Turnover
	if tp == nil {
		t.Fatal("turnover missing")
	}
	if tp.Approximate {
		t.Fatal("fitted turnover current marked approximate")
	}

	// Rshunt=10 mΩ, Rbias=10 kΩ, Vturn=2.5 V, Iturn=25 µA.
	testutil.RequireNearRel(t, tp.Ites, 25e-6, 1e-15)
	testutil.RequireNearRel(t, tp.Vtes, 2.25e-6, 1e-12)
	testutil.RequireNearRel(t, tp.Power, 5.625e-11, 1e-12)
}

func TestTurnoverFallsBackToMinimumCurrent(t *testing.T) {
	s := testSweep(t)

	op, err := iv.Extract(s, 2)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	tp := op.Turnover
	if tp == nil {
		t.Fatal("turnover missing")
	}
	if !tp.Approximate {
		t.Fatal("fallback turnover current not marked approximate")
	}

	// Minimum adjusted current of TES 2 is 28 µA.
	testutil.RequireNearRel(t, tp.Ites, 28e-6, 1e-15)
	wantVtes := iv.DefaultRshunt * (2.0/iv.DefaultRbias - 28e-6)
	testutil.RequireNearRel(t, tp.Vtes, wantVtes, 1e-12)
	testutil.RequireNearRel(t, tp.Power, 28e-6*wantVtes, 1e-12)
}

func TestExtractWithoutTurnoverReturnsAbsence(t *testing.T) {
	s, err := iv.NewSweep(iv.SweepData{
		ASIC:        1,
		Temperature: 0.3,
		Vbias:       []float64{0, 1, 2},
		Channels: []iv.ChannelData{{
			TES:     1,
			Current: []float64{5, 4, 3},
			Fit:     &iv.FitInfo{Start: 0, End: 3},
		}},
	})
	if err != nil {
		t.Fatalf("NewSweep: %v", err)
	}

	op, err := iv.Extract(s, 1)
	if err != nil {
		t.Fatalf("Extract: %v", err)
	}
	if op.Turnover != nil {
		t.Fatal("turnover fabricated for a channel without one")
	}
	testutil.RequireFinite(t, op.Ptes)
}

func TestNewSweepRejectsMalformedData(t *testing.T) {
	base := func() iv.SweepData {
		return iv.SweepData{
			ASIC:        1,
			Temperature: 0.3,
			Vbias:       []float64{0, 1},
			Channels:    []iv.ChannelData{{TES: 1, Current: []float64{1, 2}}},
		}
	}

	d := base()
	d.Vbias = nil
	if _, err := iv.NewSweep(d); err == nil {
		t.Fatal("missing bias sequence accepted")
	}

	d = base()
	d.Channels[0].Current = []float64{1}
	if _, err := iv.NewSweep(d); !errors.Is(err, iv.ErrBiasMismatch) {
		t.Fatalf("got %v, want ErrBiasMismatch", err)
	}

	d = base()
	d.Channels = append(d.Channels, iv.ChannelData{TES: 1, Current: []float64{3, 4}})
	if _, err := iv.NewSweep(d); err == nil {
		t.Fatal("duplicate channel accepted")
	}

	d = base()
	d.Channels[0].TES = 0
	if _, err := iv.NewSweep(d); !errors.Is(err, iv.ErrBadChannel) {
		t.Fatalf("got %v, want ErrBadChannel", err)
	}

	d = base()
	d.Channels[0].TES = -3
	if _, err := iv.NewSweep(d); !errors.Is(err, iv.ErrBadChannel) {
		t.Fatalf("got %v, want ErrBadChannel", err)
	}
}

func TestSweepIsImmutable(t *testing.T) {
	s := testSweep(t)

	bias := s.Bias()
	bias[0] = math.Inf(1)
	if s.Bias()[0] != 0 {
		t.Fatal("Bias exposes internal state")
	}

	cur, err := s.RawCurrent(1)
	if err != nil {
		t.Fatalf("RawCurrent: %v", err)
	}
	cur[0] = math.Inf(1)
	again, err := s.RawCurrent(1)
	if err != nil {
		t.Fatalf("RawCurrent: %v", err)
	}
	if again[0] != 40 {
		t.Fatal("RawCurrent exposes internal state")
	}
}
