package gmarch

import (
	"errors"
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

const (
	// largenum is the distance sentinel for unknown shape kinds and operators.
	// Large enough to lose every min/max fold, small enough to not overflow
	// when combined arithmetically.
	largenum = 1e20
	// epstol is used to check for badly conditioned denominators
	// such as lengths used for normalization.
	epstol = 6e-7
)

// Builder wraps scene construction logic: shape chains, materials, lighting
// and the volumetric density field. Provides error handling strategies with
// panics or error accumulation during scene generation.
//
// The zero value is ready to use. A Builder may be reused across frames with
// [Builder.Reset] to animate a scene without reallocating.
type Builder struct {
	// NoDimensionPanic makes shape dimension errors accumulate
	// into the error returned by [Builder.Err] instead of panicking.
	NoDimensionPanic bool

	shapes    []Shape
	materials []Material
	roots     []int32
	bg        ms3.Vec
	light     Light
	cloud     *CloudVolume
	accumErrs []error
}

// Err returns errors accumulated during scene construction, nil if none
// occurred. Accumulation requires the NoDimensionPanic flag be set.
func (bld *Builder) Err() error {
	if len(bld.accumErrs) == 0 {
		return nil
	}
	return errors.Join(bld.accumErrs...)
}

// ClearErrors discards accumulated errors so the Builder can be corrected
// and reused without discarding scene contents.
func (bld *Builder) ClearErrors() {
	bld.accumErrs = bld.accumErrs[:0]
}

func (bld *Builder) shapeErrorf(msg string, args ...any) {
	if !bld.NoDimensionPanic {
		panic(fmt.Sprintf(msg, args...))
	}
	bld.accumErrs = append(bld.accumErrs, fmt.Errorf(msg, args...))
}

// Reset discards all shapes, materials, roots and accumulated errors while
// retaining allocated memory for reuse. Scene parameters (background, light,
// cloud volume) are kept.
func (bld *Builder) Reset() {
	bld.shapes = bld.shapes[:0]
	bld.materials = bld.materials[:0]
	bld.roots = bld.roots[:0]
	bld.accumErrs = bld.accumErrs[:0]
}

// SetBackground sets the scene background radiance returned by rays
// that escape all geometry.
func (bld *Builder) SetBackground(c ms3.Vec) {
	bld.bg = c
}

// SetLight sets the scene's directional light. Dir is the direction the
// light travels in and is normalized during [Builder.Scene].
func (bld *Builder) SetLight(l Light) {
	bld.light = l
}

// SetCloud sets the density volume sampled by cloud shapes.
func (bld *Builder) SetCloud(v *CloudVolume) {
	bld.cloud = v
}

// AddRoot registers the chain starting at s as a top level scene element.
// All roots are combined by nearest-distance union during evaluation.
func (bld *Builder) AddRoot(s ShapeID) {
	bld.roots = append(bld.roots, int32(s))
}

// Scene validates the accumulated scene description and returns an immutable
// snapshot of it. The Builder remains usable afterwards; the returned Scene
// does not alias Builder memory so calling [Builder.Reset] is safe.
func (bld *Builder) Scene() (*Scene, error) {
	err := bld.Err()
	if err != nil {
		return nil, err
	}
	nshapes := int32(len(bld.shapes))
	for _, root := range bld.roots {
		if root < 0 || root >= nshapes {
			return nil, fmt.Errorf("chain root %d out of bounds", root)
		}
	}
	hasCloud := false
	for i := range bld.shapes {
		sh := &bld.shapes[i]
		if sh.Material < 0 || int(sh.Material) >= len(bld.materials) {
			return nil, fmt.Errorf("shape %d references material %d of %d", i, sh.Material, len(bld.materials))
		}
		if sh.Next != -1 && (sh.Next < 0 || sh.Next >= nshapes) {
			return nil, fmt.Errorf("shape %d links to %d of %d", i, sh.Next, nshapes)
		}
		hasCloud = hasCloud || sh.Kind == KindCloud
	}
	for _, root := range bld.roots {
		if err := bld.walkChain(root); err != nil {
			return nil, err
		}
	}
	if hasCloud && bld.cloud == nil {
		return nil, errors.New("scene contains cloud shapes but no cloud volume was set")
	}
	if bld.cloud != nil {
		if err := bld.cloud.check(); err != nil {
			return nil, err
		}
	}
	lightNorm := ms3.Norm(bld.light.Dir)
	if lightNorm < epstol {
		return nil, errors.New("light direction is zero or too short to normalize")
	}
	s := &Scene{
		Background: bld.bg,
		Light: Light{
			Dir:   ms3.Scale(1/lightNorm, bld.light.Dir),
			Color: bld.light.Color,
		},
		Shapes:    append([]Shape{}, bld.shapes...),
		Materials: append([]Material{}, bld.materials...),
		Roots:     append([]int32{}, bld.roots...),
		Cloud:     bld.cloud,
	}
	return s, nil
}

// walkChain bounds-checks each link and bails out on cycles. Link and index
// validity is established here once so per-query evaluation never revalidates.
func (bld *Builder) walkChain(root int32) error {
	steps := 0
	for i := root; i != -1; i = bld.shapes[i].Next {
		steps++
		if steps > len(bld.shapes) {
			return fmt.Errorf("cycle in shape chain rooted at %d", root)
		}
	}
	return nil
}

// chainTail returns the index of the last link of the chain rooted at s.
func (bld *Builder) chainTail(s ShapeID) int32 {
	i := int32(s)
	steps := 0
	for bld.shapes[i].Next != -1 {
		i = bld.shapes[i].Next
		steps++
		if steps > len(bld.shapes) {
			bld.shapeErrorf("cycle in shape chain rooted at %d", s)
			return i
		}
	}
	return i
}

func minf(a, b float32) float32 {
	return math32.Min(a, b)
}

func maxf(a, b float32) float32 {
	return math32.Max(a, b)
}

func absf(a float32) float32 {
	return math32.Abs(a)
}

func hypotf(a, b float32) float32 {
	return math32.Hypot(a, b)
}

func clampf(v, Min, Max float32) float32 {
	if v < Min {
		return Min
	} else if v > Max {
		return Max
	}
	return v
}

func mixf(x, y, a float32) float32 {
	return x*(1-a) + y*a
}
