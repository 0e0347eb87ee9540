// Command tesnep estimates the Noise Equivalent Power of TES channels
// from I-V sweeps recorded at several bath temperatures.
//
// Usage:
//
//	tesnep -data <file-or-dir> [flags]
//
// The data path is either one JSON sweep file or a directory holding
// one sweep file per bath temperature, all for the same ASIC.
//
// Examples:
//
//	tesnep -data sweeps/
//	tesnep -data sweeps/ -tes 70
//	tesnep -data sweeps/ -plots -report -out results/
package main

import (
	"errors"
	"flag"
	"fmt"
	"os"
	"text/tabwriter"

	"github.com/cryolab/tesnep/iv"
	"github.com/cryolab/tesnep/nep"
	"github.com/cryolab/tesnep/report"
)

func main() {
	data := flag.String("data", "", "sweep JSON file or directory of sweep files (required)")
	tes := flag.Int("tes", 0, "analyze a single TES channel instead of the whole array")
	plots := flag.Bool("plots", false, "write per-channel curve and NEP plots")
	tex := flag.Bool("report", false, "write the LaTeX summary document (implies -plots for the histogram)")
	out := flag.String("out", ".", "output directory for plots and the report")
	quiet := flag.Bool("quiet", false, "suppress per-channel fit-failure notices")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: tesnep -data <file-or-dir> [flags]\n\n")
		fmt.Fprintf(os.Stderr, "Estimates per-channel NEP from I-V sweeps at several bath temperatures.\n")
		fmt.Fprintf(os.Stderr, "\nFlags:\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if *data == "" {
		flag.Usage()
		os.Exit(2)
	}

	sets, err := loadSets(*data)
	if err != nil {
		fatal(err)
	}

	analyzer := &nep.Analyzer{Sets: sets, Quiet: *quiet}

	var results []nep.Result
	if *tes > 0 {
		res, err := analyzer.Channel(*tes)
		if err != nil {
			fatal(err)
		}
		results = []nep.Result{res}
	} else {
		results, err = analyzer.Array()
		if err != nil {
			fatal(err)
		}
	}

	printTable(results)

	if *plots || *tex {
		if err := writePlots(sets, results, *out); err != nil {
			fatal(err)
		}
	}
	if *tex {
		path, err := report.WriteTeX(sets, results, *out)
		if err != nil {
			fatal(err)
		}
		fmt.Printf("report written to %s\n", path)
	}
}

// loadSets accepts either one sweep file or a directory of them.
func loadSets(path string) ([]iv.Dataset, error) {
	fi, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("tesnep: %w", err)
	}
	if fi.IsDir() {
		return iv.LoadDir(path)
	}
	s, err := iv.Load(path)
	if err != nil {
		return nil, err
	}
	return []iv.Dataset{s}, nil
}

func printTable(results []nep.Result) {
	w := tabwriter.NewWriter(os.Stdout, 0, 0, 2, ' ', 0)
	fmt.Fprintln(w, "TES\tsamples\tK\tT0/mK\tn\tG\tNEP\tflags")
	for _, res := range results {
		if !res.Defined() {
			fmt.Fprintf(w, "%d\t%d\t-\t-\t-\t-\t-\tno fit\n", res.Channel, len(res.Samples))
			continue
		}

		flags := ""
		if res.FlagLowT0() {
			flags = "low-T0"
		}
		if res.NEP.Invalid {
			if flags != "" {
				flags += ","
			}
			flags += "invalid-NEP"
		}

		fmt.Fprintf(w, "%d\t%d\t%.4e\t%.1f\t%.3f\t%.4e\t%.4e\t%s\n",
			res.Channel, len(res.Samples),
			res.Fit.K, 1000*res.Fit.T0, res.Fit.N, res.NEP.G, res.NEP.NEP, flags)
	}
	w.Flush()

	s := report.Summarize(results)
	if s.Defined > 0 {
		fmt.Printf("\n%d of %d TES with NEP estimate, mean %.4e W/√Hz\n", s.Defined, s.Total, s.MeanNEP)
	} else {
		fmt.Printf("\nno TES with NEP estimate (%d analyzed)\n", s.Total)
	}
}

func writePlots(sets []iv.Dataset, results []nep.Result, dir string) error {
	for _, res := range results {
		for _, kind := range []report.CurveKind{report.CurveIV, report.CurvePV, report.CurveRP} {
			if _, err := report.TemperatureCurves(sets, res.Channel, kind, dir); err != nil {
				if errors.Is(err, iv.ErrNoCurve) {
					continue
				}
				return err
			}
		}
		if _, err := report.TurnoverTemperaturePlot(sets, res.Channel, dir); err != nil {
			if !errors.Is(err, iv.ErrNoCurve) {
				return err
			}
		}
		if _, err := report.NEPPlot(res, dir); err != nil {
			return err
		}
	}

	if _, err := report.NEPHistogram(results, dir); err != nil {
		// An array without a single converged fit still gets a table.
		fmt.Fprintf(os.Stderr, "tesnep: %v\n", err)
	}
	return nil
}

func fatal(err error) {
	fmt.Fprintf(os.Stderr, "tesnep: %v\n", err)
	os.Exit(1)
}
