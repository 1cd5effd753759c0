package render

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"runtime"
	"sync"

	"github.com/soypat/geometry/ms3"
	"github.com/soypat/gmarch"
)

// Params configures a [Renderer]. Zero numeric fields take the stated
// defaults when passed to [NewRenderer].
type Params struct {
	Scene  *gmarch.Scene
	Camera gmarch.Camera
	// MaxBounces caps reflection depth, primary ray included. Default 3.
	MaxBounces int
	// ReflectAttenuation scales the color mask on every reflection together
	// with the primary surface's metallic value. Default 0.5.
	ReflectAttenuation float32
	// EmissiveStop ends the bounce loop once the struck surface's own
	// emission magnitude exceeds it. Default 0.5.
	EmissiveStop float32
	// HaloAmplitude and HaloWidth shape the glow falloff around emissive
	// chains. Defaults 0.25 and 0.2. Negative amplitude disables halos.
	HaloAmplitude float32
	HaloWidth     float32
	// ShadowSoftness is the penumbra sharpening factor of [Shadow].
	// Default 8.
	ShadowSoftness float32
	// EmissiveCutoff is the distance beyond which emissive chains no longer
	// act as point lights. Default 1000.
	EmissiveCutoff float32
	// CloudAbsorption and CloudDensity scale extinction and sampled density
	// of volumetric cloud shading. Defaults 1.25 and 1.
	CloudAbsorption float32
	CloudDensity    float32
	// Workers is the number of goroutines shading pixel rows.
	// Defaults to [runtime.NumCPU].
	Workers int
	// CaptureDepth records per-pixel primary hit distances retrievable
	// with [Renderer.Depth] after rendering.
	CaptureDepth bool
}

type setImage = interface {
	image.Image
	Set(x, y int, c color.Color)
}

// Renderer shades frames of a scene on the CPU. Pixels are shaded
// independently across a worker pool with no shared mutable state, so a
// frame either completes fully or not at all. Renderers may be reused
// across frames but not concurrently.
type Renderer struct {
	p     Params
	depth []float32
}

// NewRenderer validates p, fills in defaults and returns a ready renderer.
func NewRenderer(p Params) (*Renderer, error) {
	if p.Scene == nil {
		return nil, errors.New("nil scene")
	}
	cam := p.Camera
	if cam.Width <= 0 || cam.Height <= 0 {
		return nil, fmt.Errorf("non-positive camera screen size %dx%d", cam.Width, cam.Height)
	}
	if cam.FOV <= 0 || cam.FOV >= 180 {
		return nil, errors.New("camera field of view outside (0,180)")
	}
	if cam.Near < 0 || cam.Far <= cam.Near {
		return nil, errors.New("require 0 <= near < far camera planes")
	}
	if ms3.Norm(cam.Forward) < epsdiv {
		return nil, errors.New("zero camera forward direction")
	}
	if absf(ms3.Cos(cam.Forward, ms3.Vec{Y: 1})) > 0.9999 {
		return nil, errors.New("camera forward parallel to world up")
	}
	if p.MaxBounces <= 0 {
		p.MaxBounces = 3
	}
	if p.ReflectAttenuation == 0 {
		p.ReflectAttenuation = 0.5
	} else if p.ReflectAttenuation < 0 {
		p.ReflectAttenuation = 0
	}
	if p.EmissiveStop == 0 {
		p.EmissiveStop = 0.5
	}
	if p.HaloAmplitude == 0 {
		p.HaloAmplitude = 0.25
	}
	if p.HaloWidth == 0 {
		p.HaloWidth = 0.2
	}
	if p.ShadowSoftness == 0 {
		p.ShadowSoftness = 8
	}
	if p.EmissiveCutoff == 0 {
		p.EmissiveCutoff = 1000
	}
	if p.CloudAbsorption == 0 {
		p.CloudAbsorption = 1.25
	}
	if p.CloudDensity == 0 {
		p.CloudDensity = 1
	}
	if p.Workers <= 0 {
		p.Workers = runtime.NumCPU()
	}
	return &Renderer{p: p}, nil
}

// Render shades one frame into img, whose bounds must match the camera
// screen size. Rows are interleaved across workers so each worker sees a
// similar mix of cheap and expensive pixels.
func (r *Renderer) Render(img setImage) error {
	cam := &r.p.Camera
	w, h := cam.Width, cam.Height
	bounds := img.Bounds()
	if bounds.Dx() != w || bounds.Dy() != h {
		return fmt.Errorf("image size %dx%d does not match camera screen size %dx%d", bounds.Dx(), bounds.Dy(), w, h)
	}
	if r.p.CaptureDepth && len(r.depth) != w*h {
		r.depth = make([]float32, w*h)
	}
	workers := r.p.Workers
	var wg sync.WaitGroup
	for w0 := 0; w0 < workers; w0++ {
		wg.Add(1)
		go func(y0 int) {
			defer wg.Done()
			for y := y0; y < h; y += workers {
				for x := 0; x < w; x++ {
					c, t := r.shade(cam.Ray(x, y))
					c = ToneMap(c)
					img.Set(bounds.Min.X+x, bounds.Min.Y+y, color.RGBA{
						R: uint8(255 * clampf(c.X, 0, 1)),
						G: uint8(255 * clampf(c.Y, 0, 1)),
						B: uint8(255 * clampf(c.Z, 0, 1)),
						A: 255,
					})
					if r.p.CaptureDepth {
						r.depth[y*w+x] = t
					}
				}
			}
		}(w0)
	}
	wg.Wait()
	return nil
}

// Depth returns primary hit distances in row-major order from the last
// [Renderer.Render] call with CaptureDepth set, +Inf where the primary ray
// missed. The slice is reused by the next Render call.
func (r *Renderer) Depth() []float32 {
	return r.depth
}

// SetScene swaps the scene shaded by the next [Renderer.Render] call.
// Scenes must never be swapped while a frame renders.
func (r *Renderer) SetScene(s *gmarch.Scene) {
	r.p.Scene = s
}

// SetCamera replaces the camera pose for the next frame. The screen size,
// field of view and depth planes must remain within what [NewRenderer]
// accepted.
func (r *Renderer) SetCamera(cam gmarch.Camera) {
	r.p.Camera = cam
}
