package cloudfield_test

import (
	"testing"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/gmarch"
	"github.com/soypat/gmarch/forge/cloudfield"
)

func TestNewDeterministic(t *testing.T) {
	cfg := cloudfield.Config{Offset: ms3.Vec{X: 12.5, Y: 3.25, Z: 7}}
	a, err := cloudfield.New(8, 8, 8, cfg)
	if err != nil {
		t.Fatal(err)
	}
	b, err := cloudfield.New(8, 8, 8, cfg)
	if err != nil {
		t.Fatal(err)
	}
	for i := range a.Atlas {
		if a.Atlas[i] != b.Atlas[i] {
			t.Fatalf("equal offsets diverge at sample %d: %f vs %f", i, a.Atlas[i], b.Atlas[i])
		}
	}
	cfg.Offset.X += 40
	c, err := cloudfield.New(8, 8, 8, cfg)
	if err != nil {
		t.Fatal(err)
	}
	same := true
	for i := range a.Atlas {
		if a.Atlas[i] != c.Atlas[i] {
			same = false
			break
		}
	}
	if same {
		t.Error("distinct offsets produced identical volumes")
	}
}

func TestNewFalloff(t *testing.T) {
	// Negative cutoff keeps all noise so only the radial falloff can
	// zero a sample.
	v, err := cloudfield.New(9, 9, 9, cloudfield.Config{Cutoff: -1})
	if err != nil {
		t.Fatal(err)
	}
	if got := v.At(0, 0, 0); got != 0 {
		t.Errorf("corner density %f, want 0", got)
	}
	if got := v.At(4, 4, 4); got <= 0 {
		t.Errorf("center density %f, want positive", got)
	}
	for i, d := range v.Atlas {
		if d < 0 {
			t.Fatalf("negative density %f at sample %d", d, i)
		}
	}
}

func TestNewTiling(t *testing.T) {
	v, err := cloudfield.New(4, 4, 9, cloudfield.Config{})
	if err != nil {
		t.Fatal(err)
	}
	if v.TilesX != 3 {
		t.Errorf("default tiling %d for 9 slices, want 3", v.TilesX)
	}
	if want := 3 * 4 * 3 * 4; len(v.Atlas) != want {
		t.Errorf("atlas holds %d samples, want %d", len(v.Atlas), want)
	}

	// The volume must plug into a scene unchanged.
	var bld gmarch.Builder
	bld.SetLight(gmarch.Light{Dir: ms3.Vec{Y: -1}, Color: ms3.Vec{X: 1, Y: 1, Z: 1}})
	m := bld.AddMaterial(gmarch.Material{Albedo: ms3.Vec{X: 1, Y: 1, Z: 1}})
	bld.AddRoot(bld.NewCloudBox(ms3.Vec{}, ms3.Vec{X: 4, Y: 2, Z: 4}, m))
	bld.SetCloud(v)
	if _, err := bld.Scene(); err != nil {
		t.Errorf("generated volume rejected by scene validation: %v", err)
	}
}

func TestNewValidation(t *testing.T) {
	if _, err := cloudfield.New(1, 8, 8, cloudfield.Config{}); err == nil {
		t.Error("degenerate x dimension accepted")
	}
	if _, err := cloudfield.New(8, 8, 0, cloudfield.Config{}); err == nil {
		t.Error("zero z dimension accepted")
	}
}
