// Package report renders the NEP analysis for human review: per-channel
// curve plots across bath temperatures, the P-vs-T plot with the fitted
// thermal model, the array-wide NEP histogram, and a LaTeX summary
// document tying them together.
package report
