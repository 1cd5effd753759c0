// Package gmarchaux implements common auxiliary logic for rendering gmarch
// scenes to files and screens, not critical to the gmarch core.
package gmarchaux

import (
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"io"
	"os"
	"time"

	"github.com/soypat/gmarch"
	"github.com/soypat/gmarch/render"
	"golang.org/x/image/draw"
)

type RenderConfig struct {
	// Params configure the frame: scene, camera pose and shading knobs.
	Params render.Params
	// SSAA supersamples both image axes by this factor and downscales the
	// result with Catmull-Rom interpolation. Values under 2 render at the
	// camera resolution directly.
	SSAA int
	// PNGOutput receives the encoded frame.
	PNGOutput io.Writer
	Silent    bool
}

// Render is an auxiliary function to aid users in getting setup in using gmarch quickly.
// Ideally users should implement their own rendering functions since applications may vary widely.
func Render(cfg RenderConfig) (err error) {
	if cfg.PNGOutput == nil {
		return errors.New("Render requires output parameter in config")
	}
	log := func(args ...any) {
		if !cfg.Silent {
			fmt.Println(args...)
		}
	}
	p := cfg.Params
	outW, outH := p.Camera.Width, p.Camera.Height
	if cfg.SSAA > 1 {
		p.Camera.Width *= cfg.SSAA
		p.Camera.Height *= cfg.SSAA
	}
	renderer, err := render.NewRenderer(p)
	if err != nil {
		return err
	}
	watch := stopwatch()
	img := image.NewRGBA(image.Rect(0, 0, p.Camera.Width, p.Camera.Height))
	err = renderer.Render(img)
	if err != nil {
		return err
	}
	log("rendered", p.Camera.Width, "x", p.Camera.Height, "frame in", watch())

	out := img
	if cfg.SSAA > 1 {
		watch = stopwatch()
		out = image.NewRGBA(image.Rect(0, 0, outW, outH))
		draw.CatmullRom.Scale(out, out.Bounds(), img, img.Bounds(), draw.Src, nil)
		log("downsampled", cfg.SSAA, "x supersampling in", watch())
	}

	watch = stopwatch()
	err = png.Encode(cfg.PNGOutput, out)
	if err != nil {
		return fmt.Errorf("encoding PNG: %s", err)
	}
	filename := "PNG"
	if fp, ok := cfg.PNGOutput.(*os.File); ok {
		filename = fp.Name()
		fp.Sync()
	}
	log("wrote", filename, "in", watch())
	return nil
}

// RenderPNGFile renders the configured frame and saves the result to a PNG
// file with said filename.
func RenderPNGFile(filename string, cfg RenderConfig) error {
	fp, err := os.Create(filename)
	if err != nil {
		return err
	}
	defer fp.Close()
	cfg.PNGOutput = fp
	return Render(cfg)
}

// UIConfig configures the interactive viewer started by [UI].
type UIConfig struct {
	// Width, Height set the window size in pixels.
	Width, Height int
	// Title labels the window. Empty picks a default.
	Title string
	// Params configure rendering. The viewer drives the camera pose and
	// screen size; field of view and depth planes are kept when set.
	Params render.Params
	// Update is called before each frame renders with the seconds elapsed
	// since the viewer started. A non-nil returned scene replaces the
	// current one, a non-nil error ends the viewer. May be nil for
	// static scenes, which then re-render only on camera input.
	Update func(elapsed float64) (*gmarch.Scene, error)
	// RenderScale divides the window resolution for CPU ray marching.
	// Default 4. Use 1 to march every window pixel.
	RenderScale int
	Context     context.Context
}

// UI starts an interactive orbital viewer around the scene. Drag the mouse
// to orbit, scroll to dolly. Blocks until the window closes, cfg.Context is
// done or cfg.Update errors. Requires cgo and the calling goroutine locked
// to an OS thread.
func UI(cfg UIConfig) error {
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return fmt.Errorf("bad UI window size %dx%d", cfg.Width, cfg.Height)
	}
	if cfg.Params.Scene == nil {
		return errors.New("UI requires scene in config params")
	}
	if cfg.RenderScale <= 0 {
		cfg.RenderScale = 4
	}
	if cfg.Title == "" {
		cfg.Title = "gmarch scene viewer"
	}
	return ui(cfg)
}

func stopwatch() func() time.Duration {
	start := time.Now()
	return func() time.Duration {
		return time.Since(start)
	}
}
