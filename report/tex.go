package report

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/cryolab/tesnep/iv"
	"github.com/cryolab/tesnep/nep"
)

// metadata is the optional provenance a Dataset may carry for the
// document header (the JSON sweep loader's datasets do).
type metadata interface {
	Obsdate() time.Time
	Observer() string
}

// WriteTeX writes the LaTeX source of the NEP summary document into dir
// and returns the written path. Figure includes reference the PNG names
// the plot functions produce; figures that were not rendered are simply
// absent from the compiled document, so WriteTeX only includes files
// that exist in dir.
func WriteTeX(sets []iv.Dataset, results []nep.Result, dir string) (string, error) {
	if err := iv.ValidateSet(sets, 1); err != nil {
		return "", err
	}

	// Prefer the sweep at the 300 mK reference bath for the per-channel
	// table entries.
	ref := sets[0]
	for _, ds := range sets {
		if ds.Temperature() == nep.ReferenceBath {
			ref = ds
			break
		}
	}
	asic := ref.ASIC()

	path := filepath.Join(dir, fmt.Sprintf("TES_ASIC%d_NEP.tex", asic))
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("report: creating %s: %w", path, err)
	}
	defer f.Close()

	w := bufio.NewWriter(f)
	writeHeader(w, ref)
	writeSummary(w, asic, results)
	writeHistogramInclude(w, asic, dir)
	writeTable(w, ref, results)
	writeFigures(w, asic, dir, len(results))
	fmt.Fprintf(w, "\n\\end{document}\n")

	if err := w.Flush(); err != nil {
		return "", fmt.Errorf("report: writing %s: %w", path, err)
	}
	return path, nil
}

func writeHeader(w *bufio.Writer, ref iv.Dataset) {
	fmt.Fprintf(w, "%%%% Automatically generated file. Do not edit!\n")
	fmt.Fprintf(w, "%%%% Generated %s\n", time.Now().UTC().Format("2006-01-02 15:04:05 UTC"))
	fmt.Fprintf(w, "\\documentclass[a4paper,12pt]{article}\n")
	fmt.Fprintf(w, "\\usepackage{graphicx}\n")
	fmt.Fprintf(w, "\\usepackage{hyperref}\n")
	fmt.Fprintf(w, "\\usepackage{longtable}\n")
	fmt.Fprintf(w, "\\begin{document}\n")
	fmt.Fprintf(w, "\\begin{center}\n")
	fmt.Fprintf(w, "TES Array Report\\\\\n")
	fmt.Fprintf(w, "NEP estimates\\\\\n")
	if m, ok := ref.(metadata); ok {
		if !m.Obsdate().IsZero() {
			fmt.Fprintf(w, "data from %s\\\\\n", m.Obsdate().Format("2006-01-02"))
		}
		if m.Observer() != "" {
			fmt.Fprintf(w, "recorded by %s\\\\\n", m.Observer())
		}
	}
	fmt.Fprintf(w, "compiled %s\\\\\n", time.Now().UTC().Format("2006-01-02 15:04 UTC"))
	fmt.Fprintf(w, "\\end{center}\n")
}

func writeSummary(w *bufio.Writer, asic int, results []nep.Result) {
	s := Summarize(results)
	fmt.Fprintf(w, "\\vspace*{3ex}\n")
	fmt.Fprintf(w, "\\noindent Summary:\n")
	fmt.Fprintf(w, "\\begin{itemize}\n")
	fmt.Fprintf(w, "\\item ASIC %d\n", asic)
	fmt.Fprintf(w, "\\item NEP estimated for %d TES out of %d\n", s.Defined, s.Total)
	if s.Defined > 0 {
		fmt.Fprintf(w, "\\item average NEP=%.2f $\\times10^{-17}$ W/$\\sqrt{\\rm Hz}$\n", 1e17*s.MeanNEP)
	}
	if s.Invalid > 0 {
		fmt.Fprintf(w, "\\item %d TES flagged with an imaginary NEP\n", s.Invalid)
	}
	if s.LowT0 > 0 {
		fmt.Fprintf(w, "\\item %d TES with $T_0<300$ mK\n", s.LowT0)
	}
	fmt.Fprintf(w, "\\end{itemize}\n")
}

func writeHistogramInclude(w *bufio.Writer, asic int, dir string) {
	png := fmt.Sprintf("TES_ASIC%d_NEP_histogram.png", asic)
	if _, err := os.Stat(filepath.Join(dir, png)); err != nil {
		return
	}
	fmt.Fprintf(w, "\n\\noindent\\includegraphics[width=0.9\\linewidth,clip]{%s}\n", png)
	fmt.Fprintf(w, "\\clearpage\n")
}

func writeTable(w *bufio.Writer, ref iv.Dataset, results []nep.Result) {
	fmt.Fprintf(w, "\\noindent\\begin{longtable}{|r|r|r|r|l|}\n")
	fmt.Fprintf(w, "\\caption{NEP summary per TES}\\\\\n")
	fmt.Fprintf(w, "\\hline\n")
	fmt.Fprintf(w, "\\multicolumn{1}{|c|}{TES} & ")
	fmt.Fprintf(w, "\\multicolumn{1}{c|}{$V_{\\rm turnover}$ / V} & ")
	fmt.Fprintf(w, "\\multicolumn{1}{c|}{$R_1$ / $\\Omega$} & ")
	fmt.Fprintf(w, "\\multicolumn{1}{c|}{NEP / $10^{-17}$ W/$\\sqrt{\\rm Hz}$} & ")
	fmt.Fprintf(w, "\\multicolumn{1}{c|}{flags}\\\\\n")
	fmt.Fprintf(w, "\\hline\\endhead\n")
	fmt.Fprintf(w, "\\hline\\endfoot\n")

	for _, res := range results {
		if !res.Defined() {
			continue
		}

		vturn, r1 := "--", "--"
		if fi, ok := ref.FitInfo(res.Channel); ok {
			if fi.Turnover != nil {
				vturn = fmt.Sprintf("%.2f", *fi.Turnover)
			}
			if fi.R1 != nil {
				r1 = fmt.Sprintf("%.2f", *fi.R1)
			}
		}

		flags := ""
		if res.FlagLowT0() {
			flags = "$T_0<300$ mK"
		}
		if res.NEP.Invalid {
			if flags != "" {
				flags += ", "
			}
			flags += "imaginary"
		}

		fmt.Fprintf(w, "%d & %s & %s & %.2f & %s\\\\\n",
			res.Channel, vturn, r1, 1e17*res.NEP.NEP, flags)
	}

	fmt.Fprintf(w, "\\hline\n")
	fmt.Fprintf(w, "\\end{longtable}\n")
	fmt.Fprintf(w, "\\clearpage\n")
}

func writeFigures(w *bufio.Writer, asic int, dir string, channels int) {
	for tes := 1; tes <= channels; tes++ {
		wrote := false
		for _, png := range []string{
			fmt.Sprintf("TES%03d_ASIC%d_I-V_temperatures.png", tes, asic),
			fmt.Sprintf("TES%03d_ASIC%d_P-V_temperatures.png", tes, asic),
			fmt.Sprintf("TES%03d_ASIC%d_NEP.png", tes, asic),
		} {
			if _, err := os.Stat(filepath.Join(dir, png)); err != nil {
				continue
			}
			fmt.Fprintf(w, "\n\\noindent\\includegraphics[width=0.7\\linewidth,clip]{%s}\\\\\n", png)
			wrote = true
		}
		if wrote {
			fmt.Fprintf(w, "\\clearpage\n")
		}
	}
}
