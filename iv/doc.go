// Package iv models TES I-V curve sweeps and computes per-channel
// operating points. A Dataset holds one bias sweep of a whole sub-array
// (ASIC) at one bath temperature; Select extracts the physically
// meaningful window of a channel's curve and Extract derives the TES
// current, voltage, power and resistance-ratio sequences over it,
// together with the turnover operating point when one was identified by
// upstream curve calibration.
package iv
