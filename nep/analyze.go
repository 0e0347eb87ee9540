package nep

import (
	"errors"
	"log"

	"github.com/cryolab/tesnep/iv"
	"github.com/cryolab/tesnep/thermal"
)

// Sample is one (bath temperature, turnover power) observation feeding
// a channel's thermal fit.
type Sample struct {
	Temperature float64 // K
	Power       float64 // W
}

// Result is the per-channel outcome of the NEP pipeline. Fit and NEP
// are nil together when the thermal fit failed or fewer than three
// temperature points carried a turnover: "undefined" is encoded
// structurally, never as a zero.
type Result struct {
	Channel int
	ASIC    int

	// Samples are the (T, P) pairs the fit used, one per sweep where a
	// turnover was found.
	Samples []Sample

	// AllTemperatures lists every bath temperature attempted, including
	// those skipped for missing curves or turnovers.
	AllTemperatures []float64

	// Fit is nil when no fit is available for this channel.
	Fit *thermal.Fit

	// NEP is non-nil exactly when Fit is.
	NEP *Estimate
}

// Defined reports whether the channel has a converged fit and therefore
// a defined NEP.
func (r *Result) Defined() bool { return r.Fit != nil }

// FlagLowT0 reports the fitted T0 lying below the physical threshold,
// an error condition surfaced in reports.
func (r *Result) FlagLowT0() bool { return r.Fit != nil && r.Fit.T0 < LowT0 }

// Analyzer runs the per-channel NEP pipeline over a set of sweeps of
// one ASIC. The zero value of Quiet and Logger gives per-channel
// fit-failure notices on the standard logger.
type Analyzer struct {
	Sets []iv.Dataset

	// Quiet suppresses the fit-failure notices; batch runs over a whole
	// array set it since failed channels are expected.
	Quiet bool

	// Logger receives the notices, log.Default() when nil.
	Logger *log.Logger
}

// Channel runs selector → extractor → fitter → estimator for one
// channel. It returns an error only for invalid input (bad channel
// index, empty or mixed-ASIC dataset list); missing turnovers and fit
// failures are normal outcomes recorded in the Result.
func (a *Analyzer) Channel(tes int) (Result, error) {
	if err := iv.ValidateSet(a.Sets, tes); err != nil {
		return Result{}, err
	}

	res := Result{
		Channel: tes,
		ASIC:    a.Sets[0].ASIC(),
	}

	var temps, powers []float64
	for _, ds := range a.Sets {
		res.AllTemperatures = append(res.AllTemperatures, ds.Temperature())

		op, err := iv.Extract(ds, tes)
		if errors.Is(err, iv.ErrNoCurve) {
			continue
		}
		if err != nil {
			return Result{}, err
		}
		if op.Turnover == nil {
			continue
		}

		res.Samples = append(res.Samples, Sample{
			Temperature: ds.Temperature(),
			Power:       op.Turnover.Power,
		})
		temps = append(temps, ds.Temperature())
		powers = append(powers, op.Turnover.Power)
	}

	fit, err := thermal.FitPbath(temps, powers)
	if err != nil {
		if !a.Quiet {
			a.logger().Printf("nep: insufficient data for TES %d on ASIC %d: %v", tes, res.ASIC, err)
		}
		return res, nil
	}

	res.Fit = fit
	est := EstimateNEP(fit)
	res.NEP = &est
	if est.Invalid && !a.Quiet {
		a.logger().Printf("nep: invalid NEP for TES %d on ASIC %d", tes, res.ASIC)
	}

	return res, nil
}

// Array runs the pipeline for every channel of the sub-array. One
// channel's failure never aborts the others; only invalid input (an
// empty or mixed-ASIC dataset list) is an error.
func (a *Analyzer) Array() ([]Result, error) {
	if err := iv.ValidateSet(a.Sets, 1); err != nil {
		return nil, err
	}

	quiet := *a
	quiet.Quiet = true

	npixels := a.Sets[0].Channels()
	results := make([]Result, 0, npixels)
	for tes := 1; tes <= npixels; tes++ {
		res, err := quiet.Channel(tes)
		if err != nil {
			return nil, err
		}
		results = append(results, res)
	}

	return results, nil
}

func (a *Analyzer) logger() *log.Logger {
	if a.Logger != nil {
		return a.Logger
	}
	return log.Default()
}

// AnalyzeChannel is a one-shot Analyzer.Channel.
func AnalyzeChannel(sets []iv.Dataset, tes int) (Result, error) {
	return (&Analyzer{Sets: sets}).Channel(tes)
}

// AnalyzeArray is a one-shot Analyzer.Array.
func AnalyzeArray(sets []iv.Dataset) ([]Result, error) {
	return (&Analyzer{Sets: sets}).Array()
}
