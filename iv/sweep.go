package iv

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// ChannelData is the persisted form of one channel's measurements
// within a sweep file.
type ChannelData struct {
	TES     int       `json:"tes"`
	Current []float64 `json:"current"` // raw readings, µA
	Fit     *FitInfo  `json:"fit,omitempty"`
}

// SweepData is the persisted form of one I-V sweep. It is the JSON
// interchange shape written by the acquisition-side exporter; decoding
// of the original binary instrument files is out of scope.
type SweepData struct {
	ASIC        int           `json:"asic"`
	Temperature float64       `json:"temperature"` // bath temperature, K
	NPixels     int           `json:"npixels,omitempty"`
	Rshunt      float64       `json:"rshunt,omitempty"` // Ω, DefaultRshunt when 0
	Rbias       float64       `json:"rbias,omitempty"`  // Ω, DefaultRbias when 0
	Obsdate     time.Time     `json:"obsdate,omitzero"`
	Observer    string        `json:"observer,omitempty"`
	Vbias       []float64     `json:"vbias"`
	Channels    []ChannelData `json:"channels"`
}

// Sweep is the in-memory Dataset built from a SweepData record. It is
// immutable: the constructor copies every slice it keeps.
type Sweep struct {
	asic        int
	temperature float64
	npixels     int
	rshunt      float64
	rbias       float64
	obsdate     time.Time
	observer    string
	vbias       []float64
	current     map[int][]float64
	fitinfo     map[int]FitInfo
}

// NewSweep validates d and builds an immutable Sweep from it. When
// d.NPixels is zero, the highest recorded TES index is used.
func NewSweep(d SweepData) (*Sweep, error) {
	if len(d.Vbias) == 0 {
		return nil, fmt.Errorf("iv: sweep for ASIC %d has no bias sequence", d.ASIC)
	}

	npixels := d.NPixels
	for _, ch := range d.Channels {
		if ch.TES < 1 {
			return nil, fmt.Errorf("%w: TES %d is not a positive channel index", ErrBadChannel, ch.TES)
		}
		if ch.TES > npixels {
			npixels = ch.TES
		}
	}
	if npixels < 1 {
		return nil, fmt.Errorf("iv: sweep for ASIC %d has no channels", d.ASIC)
	}

	s := &Sweep{
		asic:        d.ASIC,
		temperature: d.Temperature,
		npixels:     npixels,
		rshunt:      d.Rshunt,
		rbias:       d.Rbias,
		obsdate:     d.Obsdate,
		observer:    d.Observer,
		vbias:       append([]float64(nil), d.Vbias...),
		current:     make(map[int][]float64, len(d.Channels)),
		fitinfo:     make(map[int]FitInfo, len(d.Channels)),
	}
	if s.rshunt == 0 {
		s.rshunt = DefaultRshunt
	}
	if s.rbias == 0 {
		s.rbias = DefaultRbias
	}

	for _, ch := range d.Channels {
		if ch.TES > npixels {
			return nil, fmt.Errorf("%w: TES %d not in 1..%d", ErrBadChannel, ch.TES, npixels)
		}
		if _, dup := s.current[ch.TES]; dup {
			return nil, fmt.Errorf("iv: duplicate channel entry for TES %d", ch.TES)
		}
		if len(ch.Current) != len(d.Vbias) {
			return nil, fmt.Errorf("%w: TES %d has %d readings for %d bias points",
				ErrBiasMismatch, ch.TES, len(ch.Current), len(d.Vbias))
		}

		s.current[ch.TES] = append([]float64(nil), ch.Current...)
		if ch.Fit != nil {
			s.fitinfo[ch.TES] = *ch.Fit
		}
	}

	return s, nil
}

// Load reads one sweep file.
func Load(path string) (*Sweep, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("iv: reading sweep file: %w", err)
	}

	var d SweepData
	if err := json.Unmarshal(raw, &d); err != nil {
		return nil, fmt.Errorf("iv: decoding %s: %w", path, err)
	}

	s, err := NewSweep(d)
	if err != nil {
		return nil, fmt.Errorf("iv: %s: %w", path, err)
	}

	return s, nil
}

// LoadDir reads every *.json sweep file under dir and returns the
// datasets sorted by bath temperature.
func LoadDir(dir string) ([]Dataset, error) {
	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("iv: scanning %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w: no sweep files in %s", ErrNoDatasets, dir)
	}
	sort.Strings(paths)

	sets := make([]Dataset, 0, len(paths))
	for _, p := range paths {
		s, err := Load(p)
		if err != nil {
			return nil, err
		}
		sets = append(sets, s)
	}

	sort.SliceStable(sets, func(i, j int) bool {
		return sets[i].Temperature() < sets[j].Temperature()
	})

	return sets, nil
}

// Temperature returns the bath temperature in K.
func (s *Sweep) Temperature() float64 { return s.temperature }

// ASIC returns the sub-array identifier.
func (s *Sweep) ASIC() int { return s.asic }

// Channels returns the number of TES channels in the sub-array.
func (s *Sweep) Channels() int { return s.npixels }

// Rshunt returns the shunt resistance in Ω.
func (s *Sweep) Rshunt() float64 { return s.rshunt }

// Rbias returns the bias resistance in Ω.
func (s *Sweep) Rbias() float64 { return s.rbias }

// Obsdate returns the measurement date, zero when not recorded.
func (s *Sweep) Obsdate() time.Time { return s.obsdate }

// Observer returns who recorded the sweep, empty when not recorded.
func (s *Sweep) Observer() string { return s.observer }

// Bias returns a copy of the bias voltage sequence in V.
func (s *Sweep) Bias() []float64 {
	return append([]float64(nil), s.vbias...)
}

// RawCurrent returns a copy of one channel's raw readings in µA.
func (s *Sweep) RawCurrent(tes int) ([]float64, error) {
	if err := ValidateTES(s, tes); err != nil {
		return nil, err
	}

	cur, ok := s.current[tes]
	if !ok {
		return nil, fmt.Errorf("%w: TES %d not recorded at %.0f mK", ErrNoCurve, tes, 1000*s.temperature)
	}

	return append([]float64(nil), cur...), nil
}

// FitInfo returns the prior calibration metadata for one channel.
func (s *Sweep) FitInfo(tes int) (FitInfo, bool) {
	fi, ok := s.fitinfo[tes]
	return fi, ok
}
