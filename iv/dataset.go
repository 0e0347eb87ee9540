package iv

import (
	"errors"
	"fmt"
)

// Errors returned by dataset validation and curve selection.
var (
	ErrBadChannel   = errors.New("iv: TES index out of range")
	ErrNoDatasets   = errors.New("iv: no datasets provided")
	ErrASICMismatch = errors.New("iv: datasets span more than one ASIC")
	ErrNoCurve      = errors.New("iv: no usable I-V curve for this channel")
	ErrBiasMismatch = errors.New("iv: current sequence length does not match bias sequence")
)

// Default readout circuit constants. The 10 mΩ shunt and 10 kΩ bias
// resistors are fixed properties of the electronics and apply unless a
// sweep file records different values.
const (
	DefaultRshunt = 10e-3 // Ω
	DefaultRbias  = 10e3  // Ω
)

// FitInfo carries the per-channel results of upstream I-V curve
// calibration. The window and offset define the valid analysis range of
// the raw curve; the remaining fields are present only when the prior
// fit identified them.
type FitInfo struct {
	// Start and End bound the selected bias window [Start,End) within
	// the bias sequence.
	Start int `json:"start"`
	End   int `json:"end"`

	// Offset is the additive current baseline in µA applied to the raw
	// readings ("current-adjusted" curve).
	Offset float64 `json:"offset"`

	// Turnover is the turnover bias voltage in V, nil when the curve
	// shows no turnover.
	Turnover *float64 `json:"turnover,omitempty"`

	// ITurnover is the fitted TES current at the turnover point in µA.
	// When nil, callers fall back to the minimum adjusted current in the
	// selected window.
	ITurnover *float64 `json:"iturnover,omitempty"`

	// R1 is the normal-state resistance in Ω, when measured.
	R1 *float64 `json:"r1,omitempty"`

	// Pbias is the bias power at 90 % R_normal in pW, when measured.
	Pbias *float64 `json:"pbias,omitempty"`
}

// Dataset is the capability set of one I-V sweep: all channels of one
// sub-array measured at one bath temperature. Implementations must be
// immutable once constructed; all derived quantities are recomputed per
// call from these accessors.
type Dataset interface {
	// Temperature returns the bath temperature in K.
	Temperature() float64

	// ASIC returns the sub-array identifier.
	ASIC() int

	// Channels returns the number of TES channels in the sub-array.
	// Valid TES indices are 1..Channels().
	Channels() int

	// Bias returns the bias voltage sequence in V.
	Bias() []float64

	// RawCurrent returns the raw current readings for one channel in µA,
	// parallel to Bias. It returns ErrNoCurve when the channel was not
	// recorded in this sweep.
	RawCurrent(tes int) ([]float64, error)

	// FitInfo returns the prior calibration metadata for one channel.
	// The second value is false when no calibration exists, which also
	// means the channel has no usable curve.
	FitInfo(tes int) (FitInfo, bool)

	// Rshunt returns the shunt resistance in Ω.
	Rshunt() float64

	// Rbias returns the bias resistance in Ω.
	Rbias() float64
}

// ValidateTES checks that tes addresses a channel of ds.
func ValidateTES(ds Dataset, tes int) error {
	if tes < 1 || tes > ds.Channels() {
		return fmt.Errorf("%w: TES %d not in 1..%d", ErrBadChannel, tes, ds.Channels())
	}
	return nil
}

// ValidateSet checks that sets is a non-empty collection of sweeps of
// the same ASIC and that tes is a valid channel in every one of them.
func ValidateSet(sets []Dataset, tes int) error {
	if len(sets) == 0 {
		return ErrNoDatasets
	}

	asic := sets[0].ASIC()
	for _, ds := range sets {
		if ds.ASIC() != asic {
			return fmt.Errorf("%w: got ASIC %d and %d", ErrASICMismatch, asic, ds.ASIC())
		}
		if err := ValidateTES(ds, tes); err != nil {
			return err
		}
	}

	return nil
}
