package iv_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/cryolab/tesnep/iv"
)

const sweepJSON = `{
	"asic": 1,
	"temperature": 0.32,
	"npixels": 4,
	"observer": "APC cryostat",
	"vbias": [0, 0.5, 1.0],
	"channels": [
		{
			"tes": 2,
			"current": [30, 27, 29],
			"fit": {"start": 0, "end": 3, "offset": 1.5, "turnover": 0.5, "iturnover": 26, "r1": 1.2}
		}
	]
}`

func TestLoadSweepFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "sweep_320mK.json")
	if err := os.WriteFile(path, []byte(sweepJSON), 0o600); err != nil {
		t.Fatalf("writing fixture: %v", err)
	}

	s, err := iv.Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if s.ASIC() != 1 || s.Channels() != 4 {
		t.Fatalf("identity: ASIC %d, %d channels", s.ASIC(), s.Channels())
	}
	if s.Temperature() != 0.32 {
		t.Fatalf("temperature: got %v", s.Temperature())
	}
	if s.Rshunt() != iv.DefaultRshunt || s.Rbias() != iv.DefaultRbias {
		t.Fatalf("resistances: got %v, %v", s.Rshunt(), s.Rbias())
	}
	if s.Observer() != "APC cryostat" {
		t.Fatalf("observer: got %q", s.Observer())
	}

	fi, ok := s.FitInfo(2)
	if !ok {
		t.Fatal("fit info missing")
	}
	if fi.Turnover == nil || *fi.Turnover != 0.5 {
		t.Fatalf("turnover: got %v", fi.Turnover)
	}
	if fi.ITurnover == nil || *fi.ITurnover != 26 {
		t.Fatalf("iturnover: got %v", fi.ITurnover)
	}
}

func TestLoadDirSortsByTemperature(t *testing.T) {
	dir := t.TempDir()
	files := map[string]string{
		"b.json": `{"asic":1,"temperature":0.40,"npixels":2,"vbias":[0,1],"channels":[{"tes":1,"current":[3,2]}]}`,
		"a.json": `{"asic":1,"temperature":0.30,"npixels":2,"vbias":[0,1],"channels":[{"tes":1,"current":[4,3]}]}`,
		"c.json": `{"asic":1,"temperature":0.35,"npixels":2,"vbias":[0,1],"channels":[{"tes":1,"current":[5,4]}]}`,
	}
	for name, body := range files {
		if err := os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600); err != nil {
			t.Fatalf("writing fixture: %v", err)
		}
	}

	sets, err := iv.LoadDir(dir)
	if err != nil {
		t.Fatalf("LoadDir: %v", err)
	}
	if len(sets) != 3 {
		t.Fatalf("datasets: got %d, want 3", len(sets))
	}
	for i, want := range []float64{0.30, 0.35, 0.40} {
		if sets[i].Temperature() != want {
			t.Fatalf("dataset %d: temperature %v, want %v", i, sets[i].Temperature(), want)
		}
	}
}

func TestLoadDirEmpty(t *testing.T) {
	if _, err := iv.LoadDir(t.TempDir()); err == nil {
		t.Fatal("empty directory accepted")
	}
}
