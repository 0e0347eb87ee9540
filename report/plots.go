package report

import (
	"errors"
	"fmt"
	"image/color"
	"math"
	"path/filepath"
	"sort"

	"gonum.org/v1/gonum/stat"
	"gonum.org/v1/plot"
	"gonum.org/v1/plot/plotter"
	"gonum.org/v1/plot/vg"
	"gonum.org/v1/plot/vg/draw"

	"github.com/cryolab/tesnep/iv"
	"github.com/cryolab/tesnep/nep"
)

// CurveKind selects which derived curve TemperatureCurves draws.
type CurveKind int

const (
	CurveIV CurveKind = iota // I_TES vs V_bias
	CurvePV                  // P_TES vs V_bias
	CurveRP                  // R/R_normal vs P_TES
)

// palette cycles over the per-temperature series.
var palette = []color.RGBA{
	{R: 0x1f, G: 0x77, B: 0xb4, A: 0xff},
	{R: 0xff, G: 0x7f, B: 0x0e, A: 0xff},
	{R: 0x2c, G: 0xa0, B: 0x2c, A: 0xff},
	{R: 0xd6, G: 0x27, B: 0x28, A: 0xff},
	{R: 0x94, G: 0x67, B: 0xbd, A: 0xff},
	{R: 0x8c, G: 0x56, B: 0x4b, A: 0xff},
	{R: 0xe3, G: 0x77, B: 0xc2, A: 0xff},
	{R: 0x7f, G: 0x7f, B: 0x7f, A: 0xff},
}

// TemperatureCurves plots one channel's I-V, P-V or R-P curve with one
// series per bath temperature and writes a PNG into dir. It returns the
// written filename. Sweeps where the channel has no usable curve are
// skipped; plotting fails only when no sweep contributes a series.
func TemperatureCurves(sets []iv.Dataset, tes int, kind CurveKind, dir string) (string, error) {
	if err := iv.ValidateSet(sets, tes); err != nil {
		return "", err
	}
	asic := sets[0].ASIC()

	p := plot.New()
	var name string
	switch kind {
	case CurveRP:
		name = fmt.Sprintf("TES%03d_ASIC%d_R-P_temperatures.png", tes, asic)
		p.Title.Text = fmt.Sprintf("ASIC %d TES #%d R-P at different temperatures", asic, tes)
		p.X.Label.Text = "P_TES / pW"
		p.Y.Label.Text = "R_TES / R_normal / %"
	case CurvePV:
		name = fmt.Sprintf("TES%03d_ASIC%d_P-V_temperatures.png", tes, asic)
		p.Title.Text = fmt.Sprintf("ASIC %d TES #%d P-V at different temperatures", asic, tes)
		p.X.Label.Text = "V_bias / V"
		p.Y.Label.Text = "P_TES / pW"
	default:
		name = fmt.Sprintf("TES%03d_ASIC%d_I-V_temperatures.png", tes, asic)
		p.Title.Text = fmt.Sprintf("ASIC %d TES #%d I-V at different temperatures", asic, tes)
		p.X.Label.Text = "V_bias / V"
		p.Y.Label.Text = "I_TES / µA"
	}
	p.Legend.Top = true

	series := 0
	minP, maxP := 0.0, 0.0
	for _, ds := range sets {
		op, err := iv.Extract(ds, tes)
		if errors.Is(err, iv.ErrNoCurve) {
			continue
		}
		if err != nil {
			return "", err
		}

		label := fmt.Sprintf("%.0f mK", 1000*ds.Temperature())
		var xys plotter.XYs
		switch kind {
		case CurveRP:
			if op.RnRatio == nil {
				continue
			}
			xys = make(plotter.XYs, len(op.Ptes))
			for i := range xys {
				xys[i].X = 1e12 * op.Ptes[i]
				xys[i].Y = op.RnRatio[i]
			}
			if fi, ok := ds.FitInfo(tes); ok && fi.Pbias != nil {
				label += fmt.Sprintf(", P_bias=%.2f pW", *fi.Pbias)
			}
			for i := range op.Ptes {
				pw := 1e12 * op.Ptes[i]
				if series == 0 && i == 0 || pw < minP {
					minP = pw
				}
				if series == 0 && i == 0 || pw > maxP {
					maxP = pw
				}
			}
		case CurvePV:
			xys = make(plotter.XYs, len(op.Ptes))
			for i := range xys {
				xys[i].X = op.Bias[i]
				xys[i].Y = 1e12 * op.Ptes[i]
			}
		default:
			xys = make(plotter.XYs, len(op.Ites))
			for i := range xys {
				xys[i].X = op.Bias[i]
				xys[i].Y = 1e6 * op.Ites[i]
			}
		}

		line, err := plotter.NewLine(xys)
		if err != nil {
			return "", fmt.Errorf("report: building series: %w", err)
		}
		line.Color = palette[series%len(palette)]
		p.Add(line)
		p.Legend.Add(label, line)
		series++
	}

	if series == 0 {
		return "", fmt.Errorf("%w: nothing to plot for TES %d", iv.ErrNoCurve, tes)
	}

	if kind == CurveRP {
		// Mark 90 % R_normal, the bias-point target.
		ninety, err := plotter.NewLine(plotter.XYs{{X: minP, Y: 90}, {X: maxP, Y: 90}})
		if err != nil {
			return "", fmt.Errorf("report: building series: %w", err)
		}
		ninety.Color = color.Black
		ninety.Dashes = []vg.Length{vg.Points(4), vg.Points(2)}
		p.Add(ninety)
	}

	path := filepath.Join(dir, name)
	if err := p.Save(8*vg.Inch, 6*vg.Inch, path); err != nil {
		return "", fmt.Errorf("report: saving %s: %w", name, err)
	}
	return path, nil
}

// TurnoverTemperaturePlot plots one channel's turnover bias voltage
// against bath temperature and writes a PNG into dir. It returns the
// written filename. Sweeps without a recorded turnover for the channel
// are skipped; plotting fails only when none has one.
func TurnoverTemperaturePlot(sets []iv.Dataset, tes int, dir string) (string, error) {
	if err := iv.ValidateSet(sets, tes); err != nil {
		return "", err
	}
	asic := sets[0].ASIC()

	pts := make(plotter.XYs, 0, len(sets))
	for _, ds := range sets {
		fi, ok := ds.FitInfo(tes)
		if !ok || fi.Turnover == nil {
			continue
		}
		pts = append(pts, plotter.XY{X: 1000 * ds.Temperature(), Y: *fi.Turnover})
	}
	if len(pts) == 0 {
		return "", fmt.Errorf("%w: no turnover for TES %d", iv.ErrNoCurve, tes)
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("ASIC %d TES #%d V_turnover vs temperature", asic, tes)
	p.X.Label.Text = "T_bath / mK"
	p.Y.Label.Text = "V_turnover / V"

	scatter, err := plotter.NewScatter(pts)
	if err != nil {
		return "", fmt.Errorf("report: building series: %w", err)
	}
	scatter.Shape = draw.CircleGlyph{}
	p.Add(scatter)

	sorted := append(plotter.XYs(nil), pts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].X < sorted[j].X })
	line, err := plotter.NewLine(sorted)
	if err != nil {
		return "", fmt.Errorf("report: building series: %w", err)
	}
	line.Color = color.RGBA{G: 0x80, A: 0xff}
	p.Add(line)

	name := fmt.Sprintf("TES%03d_ASIC%d_turnover_temperature.png", tes, asic)
	path := filepath.Join(dir, name)
	if err := p.Save(8*vg.Inch, 6*vg.Inch, path); err != nil {
		return "", fmt.Errorf("report: saving %s: %w", name, err)
	}
	return path, nil
}

// NEPPlot plots one channel's (T, P) samples with the fitted thermal
// model and its parameters, or a "not possible" notice when the fit
// failed, and writes a PNG into dir.
func NEPPlot(res nep.Result, dir string) (string, error) {
	p := plot.New()
	p.Title.Text = fmt.Sprintf("ASIC %d TES #%d NEP", res.ASIC, res.Channel)
	p.X.Label.Text = "T_bath / K"
	p.Y.Label.Text = "Power / W"

	pts := make(plotter.XYs, len(res.Samples))
	for i, s := range res.Samples {
		pts[i].X = s.Temperature
		pts[i].Y = s.Power
	}
	if len(pts) > 0 {
		scatter, err := plotter.NewScatter(pts)
		if err != nil {
			return "", fmt.Errorf("report: building series: %w", err)
		}
		scatter.Shape = draw.CircleGlyph{}
		p.Add(scatter)
	}

	var note string
	if res.Defined() {
		fitLine, err := plotter.NewLine(fitCurve(res))
		if err != nil {
			return "", fmt.Errorf("report: building series: %w", err)
		}
		fitLine.Color = color.RGBA{R: 0xd6, G: 0x27, B: 0x28, A: 0xff}
		p.Add(fitLine)
		note = fitNote(res)
	} else {
		note = "NEP estimate is not possible"
	}
	p.Title.Text += "\n" + note

	name := fmt.Sprintf("TES%03d_ASIC%d_NEP.png", res.Channel, res.ASIC)
	path := filepath.Join(dir, name)
	if err := p.Save(8*vg.Inch, 6*vg.Inch, path); err != nil {
		return "", fmt.Errorf("report: saving %s: %w", name, err)
	}
	return path, nil
}

// fitCurve samples the fitted model across the attempted temperature
// span padded by 10 % on both sides.
func fitCurve(res nep.Result) plotter.XYs {
	tmin, tmax := span(res.AllTemperatures)
	pad := 0.1 * (tmax - tmin)
	lo, hi := tmin-pad, tmax+pad

	const steps = 100
	xys := make(plotter.XYs, steps+1)
	for i := range xys {
		T := lo + (hi-lo)*float64(i)/steps
		xys[i].X = T
		xys[i].Y = res.Fit.Power(T)
	}
	return xys
}

// fitNote summarizes the fitted parameters the way the printed reports
// quote them.
func fitNote(res nep.Result) string {
	note := fmt.Sprintf("K=%.4e  T0=%.1f mK", res.Fit.K, 1000*res.Fit.T0)
	if res.FlagLowT0() {
		note += " ERROR! T0<300 mK"
	}
	note += fmt.Sprintf("  n=%.3f  G=%.4e  NEP=%.4e at T_bath=300 mK", res.Fit.N, res.NEP.G, res.NEP.NEP)
	if res.NEP.Invalid {
		note += " (invalid)"
	}
	return note
}

// NEPHistogram writes the array-wide histogram of defined, finite NEP
// values into dir and returns the filename. Channels without a fit are
// left out; an array with none is an error.
func NEPHistogram(results []nep.Result, dir string) (string, error) {
	var values plotter.Values
	asic := 0
	for _, res := range results {
		asic = res.ASIC
		if res.Defined() && !math.IsNaN(res.NEP.NEP) && !math.IsInf(res.NEP.NEP, 0) {
			values = append(values, res.NEP.NEP)
		}
	}
	if len(values) == 0 {
		return "", errors.New("report: no defined NEP values to histogram")
	}

	p := plot.New()
	p.Title.Text = fmt.Sprintf("ASIC %d NEP histogram of %d TES\nmean %.4e W/√Hz",
		asic, len(values), stat.Mean(values, nil))
	p.X.Label.Text = "NEP / W/√Hz"
	p.Y.Label.Text = "number per bin"

	hist, err := plotter.NewHist(values, 10)
	if err != nil {
		return "", fmt.Errorf("report: building histogram: %w", err)
	}
	p.Add(hist)

	name := fmt.Sprintf("TES_ASIC%d_NEP_histogram.png", asic)
	path := filepath.Join(dir, name)
	if err := p.Save(8*vg.Inch, 6*vg.Inch, path); err != nil {
		return "", fmt.Errorf("report: saving %s: %w", name, err)
	}
	return path, nil
}

func span(v []float64) (lo, hi float64) {
	if len(v) == 0 {
		return 0, 1
	}
	lo, hi = v[0], v[0]
	for _, x := range v[1:] {
		if x < lo {
			lo = x
		}
		if x > hi {
			hi = x
		}
	}
	if lo == hi {
		hi = lo + 1
	}
	return lo, hi
}
