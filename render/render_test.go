package render_test

import (
	"image"
	"testing"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/gmarch"
	"github.com/soypat/gmarch/render"
)

var (
	testLight = gmarch.Light{
		Dir:   ms3.Vec{X: 0.32, Y: -0.77, Z: 0.56},
		Color: ms3.Vec{X: 1, Y: 1, Z: 1},
	}
	testBackground = ms3.Vec{X: 0.2, Y: 0.3, Z: 0.4}
)

func mustScene(t *testing.T, bld *gmarch.Builder) *gmarch.Scene {
	t.Helper()
	if bld.Err() != nil {
		t.Fatal(bld.Err())
	}
	s, err := bld.Scene()
	if err != nil {
		t.Fatal(err)
	}
	return s
}

// sphereScene is a single unit-ish sphere at the origin against the test
// background, lit by the test light.
func sphereScene(t *testing.T, radius float32) *gmarch.Scene {
	var bld gmarch.Builder
	bld.SetBackground(testBackground)
	bld.SetLight(testLight)
	mat := bld.AddMaterial(gmarch.Material{
		Albedo:    ms3.Vec{X: 0.7, Y: 0.7, Z: 0.7},
		Roughness: 0.9,
	})
	bld.AddRoot(bld.NewSphere(ms3.Vec{}, radius, mat))
	return mustScene(t, &bld)
}

func TestMarchSphere(t *testing.T) {
	s := sphereScene(t, 1)
	ray := gmarch.Ray{Origin: ms3.Vec{Z: -3}, Dir: ms3.Vec{Z: 1}}
	hit := render.March(s, ray, 100)
	if !hit.OK {
		t.Fatal("expected hit on sphere")
	}
	if math32.Abs(hit.T-2) > 1e-2 {
		t.Errorf("hit distance %f, want 2", hit.T)
	}
	if hit.Root != 0 {
		t.Errorf("hit root %d, want 0", hit.Root)
	}
}

func TestMarchMiss(t *testing.T) {
	s := sphereScene(t, 1)
	away := gmarch.Ray{Origin: ms3.Vec{Z: -3}, Dir: ms3.Vec{Z: -1}}
	if hit := render.March(s, away, 100); hit.OK {
		t.Error("ray pointing away from scene reported a hit")
	}
	grazing := gmarch.Ray{Origin: ms3.Vec{X: 1.5, Z: -3}, Dir: ms3.Vec{Z: 1}}
	hit := render.March(s, grazing, 100)
	if hit.OK {
		t.Error("ray offset past the sphere reported a hit")
	}
	if hit.Root != -1 {
		t.Errorf("miss root %d, want -1", hit.Root)
	}
}

func TestMarchRootIndex(t *testing.T) {
	var bld gmarch.Builder
	bld.SetBackground(testBackground)
	bld.SetLight(testLight)
	mat := bld.AddMaterial(gmarch.Material{Albedo: ms3.Vec{X: 0.5, Y: 0.5, Z: 0.5}, Roughness: 0.5})
	left := bld.NewSphere(ms3.Vec{X: -2}, 0.5, mat)
	right := bld.NewSphere(ms3.Vec{X: 2}, 0.5, mat)
	bld.AddRoot(left)
	bld.AddRoot(right)
	s := mustScene(t, &bld)

	hit := render.March(s, gmarch.Ray{Origin: ms3.Vec{X: 2, Z: -3}, Dir: ms3.Vec{Z: 1}}, 100)
	if !hit.OK || hit.Root != int32(right) {
		t.Errorf("hit=%+v, want hit on root %d", hit, right)
	}
	hit = render.March(s, gmarch.Ray{Origin: ms3.Vec{X: -2, Z: -3}, Dir: ms3.Vec{Z: 1}}, 100)
	if !hit.OK || hit.Root != int32(left) {
		t.Errorf("hit=%+v, want hit on root %d", hit, left)
	}
}

func TestNormalSphere(t *testing.T) {
	s := sphereScene(t, 1)
	dirs := []ms3.Vec{
		{X: 1},
		{Y: 1},
		{Z: -1},
		ms3.Unit(ms3.Vec{X: 1, Y: 1, Z: 1}),
		ms3.Unit(ms3.Vec{X: -0.3, Y: 0.8, Z: 0.52}),
	}
	for _, d := range dirs {
		got := render.Normal(s, d)
		if diff := ms3.Norm(ms3.Sub(got, d)); diff > 2e-3 {
			t.Errorf("normal at %v: got %v, off by %f", d, got, diff)
		}
	}
}

func TestToneMap(t *testing.T) {
	if got := render.ToneMap(ms3.Vec{}); got != (ms3.Vec{}) {
		t.Errorf("tone map of black is %v, want black", got)
	}
	got := render.ToneMap(ms3.Vec{X: 1, Y: 3, Z: 9})
	want := ms3.Vec{X: 0.5, Y: 0.75, Z: 0.9}
	if ms3.Norm(ms3.Sub(got, want)) > 1e-6 {
		t.Errorf("tone map got %v, want %v", got, want)
	}
	huge := render.ToneMap(ms3.Vec{X: 1e6, Y: 1e6, Z: 1e6})
	if huge.X >= 1 || huge.Y >= 1 || huge.Z >= 1 {
		t.Errorf("tone mapped radiance %v not below 1", huge)
	}
}

// shadowScene is a checkerboard ground slab with a sphere floating above it.
func shadowScene(t *testing.T) *gmarch.Scene {
	var bld gmarch.Builder
	bld.SetBackground(testBackground)
	bld.SetLight(gmarch.Light{Dir: ms3.Vec{Y: -1}, Color: ms3.Vec{X: 1, Y: 1, Z: 1}})
	ground := bld.AddMaterial(gmarch.Material{
		Albedo:    ms3.Vec{X: -1, Y: -1, Z: -1},
		Roughness: 1,
	})
	plain := bld.AddMaterial(gmarch.Material{Albedo: ms3.Vec{X: 0.7, Y: 0.7, Z: 0.7}, Roughness: 0.9})
	bld.AddRoot(bld.NewBox(ms3.Vec{Y: -0.25}, ms3.Vec{X: 30, Y: 0.5, Z: 30}, ground))
	bld.AddRoot(bld.NewSphere(ms3.Vec{Y: 1.5}, 0.5, plain))
	return mustScene(t, &bld)
}

func TestShadow(t *testing.T) {
	s := shadowScene(t)
	up := ms3.Vec{Y: 1}

	// Directly below the sphere the light is fully occluded.
	if v := render.Shadow(s, ms3.Vec{}, up, up, 8); v != 0 {
		t.Errorf("occluded point visibility %f, want 0", v)
	}
	// Far from the sphere nothing blocks the light.
	if v := render.Shadow(s, ms3.Vec{X: 5}, up, up, 8); v != 1 {
		t.Errorf("open sky visibility %f, want 1", v)
	}
	// A ray grazing the sphere's edge lands in the penumbra, and a larger
	// softness factor hardens it toward full visibility.
	edge := ms3.Vec{X: 0.52}
	soft := render.Shadow(s, edge, up, up, 8)
	if soft <= 0 || soft >= 1 {
		t.Errorf("penumbra visibility %f, want inside (0,1)", soft)
	}
	hard := render.Shadow(s, edge, up, up, 16)
	if hard < soft {
		t.Errorf("visibility fell from %f to %f as k grew", soft, hard)
	}
}

func rgbaAt(img *image.RGBA, x, y int) [4]uint8 {
	i := img.PixOffset(x, y)
	return [4]uint8{img.Pix[i], img.Pix[i+1], img.Pix[i+2], img.Pix[i+3]}
}

func backgroundRGBA() [4]uint8 {
	c := render.ToneMap(testBackground)
	return [4]uint8{uint8(255 * c.X), uint8(255 * c.Y), uint8(255 * c.Z), 255}
}

func TestRenderSingleSphere(t *testing.T) {
	s := sphereScene(t, 0.5)
	cam := gmarch.Camera{Width: 33, Height: 33, FOV: 60, Far: 100}
	cam.LookAt(ms3.Vec{Z: 3}, ms3.Vec{})
	r, err := render.NewRenderer(render.Params{Scene: s, Camera: cam, CaptureDepth: true})
	if err != nil {
		t.Fatal(err)
	}
	img := image.NewRGBA(image.Rect(0, 0, 33, 33))
	if err := r.Render(img); err != nil {
		t.Fatal(err)
	}

	depth := r.Depth()
	center := depth[16*33+16]
	if math32.Abs(center-2.5) > 2e-2 {
		t.Errorf("center pixel depth %f, want 2.5", center)
	}
	if !math32.IsInf(depth[0], 1) {
		t.Errorf("corner pixel depth %f, want +Inf miss", depth[0])
	}

	wantBG := backgroundRGBA()
	corner := rgbaAt(img, 0, 0)
	for c := 0; c < 4; c++ {
		d := int(corner[c]) - int(wantBG[c])
		if d < -1 || d > 1 {
			t.Errorf("corner pixel %v, want background %v", corner, wantBG)
			break
		}
	}
	if got := rgbaAt(img, 16, 16); got == corner {
		t.Error("center pixel matches background, sphere not shaded")
	}
	if a := rgbaAt(img, 16, 16)[3]; a != 255 {
		t.Errorf("alpha %d, want 255", a)
	}
}

// TestRenderEmissiveHalo renders a single ray that narrowly misses an
// emissive sphere and checks the halo brightens the pixel over the plain
// background.
func TestRenderEmissiveHalo(t *testing.T) {
	build := func(emissive bool) *gmarch.Scene {
		var bld gmarch.Builder
		bld.SetBackground(testBackground)
		bld.SetLight(testLight)
		m := gmarch.Material{
			Albedo:    ms3.Vec{X: 1, Y: 0.6, Z: 0.2},
			Roughness: 0.85,
			AO:        0.05,
		}
		if emissive {
			m.Emission = ms3.Vec{X: 3, Y: 3, Z: 3}
		}
		mat := bld.AddMaterial(m)
		bld.AddRoot(bld.NewSphere(ms3.Vec{Y: 0.6}, 0.5, mat))
		return mustScene(t, &bld)
	}
	cam := gmarch.Camera{Width: 1, Height: 1, FOV: 60, Far: 100}
	cam.LookAt(ms3.Vec{Z: 3}, ms3.Vec{})

	shadePixel := func(s *gmarch.Scene) [4]uint8 {
		r, err := render.NewRenderer(render.Params{Scene: s, Camera: cam})
		if err != nil {
			t.Fatal(err)
		}
		img := image.NewRGBA(image.Rect(0, 0, 1, 1))
		if err := r.Render(img); err != nil {
			t.Fatal(err)
		}
		return rgbaAt(img, 0, 0)
	}
	lit := shadePixel(build(true))
	unlit := shadePixel(build(false))
	if lit[0] <= unlit[0] || lit[1] <= unlit[1] || lit[2] <= unlit[2] {
		t.Errorf("halo pixel %v not brighter than %v", lit, unlit)
	}
}

func cloudScene(t *testing.T, density float32) *gmarch.Scene {
	const n, tiles = 4, 2
	atlas := make([]float32, (n*tiles)*(n*tiles))
	for i := range atlas {
		atlas[i] = density
	}
	var bld gmarch.Builder
	bld.SetBackground(testBackground)
	bld.SetLight(testLight)
	bld.SetCloud(&gmarch.CloudVolume{Atlas: atlas, NX: n, NY: n, NZ: n, TilesX: tiles})
	mat := bld.AddMaterial(gmarch.Material{Albedo: ms3.Vec{X: 1, Y: 1, Z: 1}, Roughness: 1})
	bld.AddRoot(bld.NewCloudBox(ms3.Vec{}, ms3.Vec{X: 2, Y: 2, Z: 2}, mat))
	return mustScene(t, &bld)
}

func TestRenderCloud(t *testing.T) {
	cam := gmarch.Camera{Width: 1, Height: 1, FOV: 60, Far: 100}
	cam.LookAt(ms3.Vec{Z: 3}, ms3.Vec{})
	shadePixel := func(s *gmarch.Scene) [4]uint8 {
		r, err := render.NewRenderer(render.Params{Scene: s, Camera: cam})
		if err != nil {
			t.Fatal(err)
		}
		img := image.NewRGBA(image.Rect(0, 0, 1, 1))
		if err := r.Render(img); err != nil {
			t.Fatal(err)
		}
		return rgbaAt(img, 0, 0)
	}

	// An empty volume is fully transparent: the pixel is pure background.
	empty := shadePixel(cloudScene(t, 0))
	wantBG := backgroundRGBA()
	for c := 0; c < 4; c++ {
		d := int(empty[c]) - int(wantBG[c])
		if d < -1 || d > 1 {
			t.Fatalf("empty cloud pixel %v, want background %v", empty, wantBG)
		}
	}
	// A dense volume scatters light and must change the pixel.
	dense := shadePixel(cloudScene(t, 1))
	if dense == empty {
		t.Error("dense cloud pixel identical to empty cloud pixel")
	}
}

// TestRenderBounceDepth checks that raising the bounce cap changes what a
// metallic surface reflects.
func TestRenderBounceDepth(t *testing.T) {
	var bld gmarch.Builder
	bld.SetBackground(testBackground)
	bld.SetLight(testLight)
	metal := bld.AddMaterial(gmarch.Material{
		Albedo:    ms3.Vec{X: 0.95, Y: 0.98, Z: 0.98},
		Metallic:  0.85,
		Roughness: 0.25,
		AO:        0.05,
	})
	bld.AddRoot(bld.NewSphere(ms3.Vec{}, 1, metal))
	s := mustScene(t, &bld)

	cam := gmarch.Camera{Width: 9, Height: 9, FOV: 60, Far: 100}
	cam.LookAt(ms3.Vec{Z: 3}, ms3.Vec{})
	renderWith := func(bounces int) *image.RGBA {
		r, err := render.NewRenderer(render.Params{Scene: s, Camera: cam, MaxBounces: bounces})
		if err != nil {
			t.Fatal(err)
		}
		img := image.NewRGBA(image.Rect(0, 0, 9, 9))
		if err := r.Render(img); err != nil {
			t.Fatal(err)
		}
		return img
	}
	one := renderWith(1)
	three := renderWith(3)
	differs := false
	for i := range one.Pix {
		if one.Pix[i] != three.Pix[i] {
			differs = true
			break
		}
	}
	if !differs {
		t.Error("bounce depth 1 and 3 rendered identical frames of a metallic sphere")
	}
}

func TestNewRendererValidation(t *testing.T) {
	s := sphereScene(t, 1)
	good := gmarch.Camera{Width: 8, Height: 8, FOV: 60, Far: 100}
	good.LookAt(ms3.Vec{Z: 3}, ms3.Vec{})
	for _, tc := range []struct {
		name string
		p    render.Params
	}{
		{name: "nil scene", p: render.Params{Camera: good}},
		{name: "zero size", p: render.Params{Scene: s, Camera: gmarch.Camera{FOV: 60, Far: 100, Forward: ms3.Vec{Z: 1}}}},
		{name: "fov high", p: render.Params{Scene: s, Camera: gmarch.Camera{Width: 8, Height: 8, FOV: 180, Far: 100, Forward: ms3.Vec{Z: 1}}}},
		{name: "far before near", p: render.Params{Scene: s, Camera: gmarch.Camera{Width: 8, Height: 8, FOV: 60, Near: 5, Far: 1, Forward: ms3.Vec{Z: 1}}}},
		{name: "zero forward", p: render.Params{Scene: s, Camera: gmarch.Camera{Width: 8, Height: 8, FOV: 60, Far: 100}}},
		{name: "forward parallel to up", p: render.Params{Scene: s, Camera: gmarch.Camera{Width: 8, Height: 8, FOV: 60, Far: 100, Forward: ms3.Vec{Y: 2}}}},
	} {
		if _, err := render.NewRenderer(tc.p); err == nil {
			t.Errorf("%s: expected error", tc.name)
		}
	}
	r, err := render.NewRenderer(render.Params{Scene: s, Camera: good})
	if err != nil {
		t.Fatal(err)
	}
	if err := r.Render(image.NewRGBA(image.Rect(0, 0, 4, 4))); err == nil {
		t.Error("expected error rendering into mis-sized image")
	}
}
