package render

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/gmarch"
)

const (
	// marchSteps bounds sphere tracing iterations for primary and bounce rays.
	marchSteps = 300
	// marchAccuracy is the distance under which the tracer declares a surface
	// hit. Shadow rays share it as their occlusion threshold.
	marchAccuracy = 1e-3
	// normalEps is the tetrahedron vertex offset of the normal estimator.
	normalEps = 2.9e-4
)

// Hit is the result of a [March] query.
type Hit struct {
	// T is the distance traveled along the ray to the surface. Undefined
	// when OK is false.
	T float32
	// Root indexes the struck chain's root shape into [gmarch.Scene.Shapes],
	// or is -1 when OK is false.
	Root int32
	// OK reports whether the ray converged onto a surface. Exhausting the
	// step or distance budget is a regular miss, not an error.
	OK bool
}

// March sphere-traces r against the scene. The ray advances by the scene
// distance at every sample point until within accuracy of a surface, past
// maxDist, or out of steps.
func March(s *gmarch.Scene, r gmarch.Ray, maxDist float32) Hit {
	return march(s, r, 0, maxDist)
}

func march(s *gmarch.Scene, r gmarch.Ray, start, maxDist float32) Hit {
	t := start
	for i := 0; i < marchSteps && t < maxDist; i++ {
		d, root := s.Nearest(r.At(t))
		if d <= marchAccuracy {
			return Hit{T: t, Root: root, OK: true}
		}
		t += d
	}
	return Hit{T: t, Root: -1}
}

// marchGlow marches like [March] while also tracking the ray's closest
// approach to any emissive chain for halo shading. The glow track never
// affects termination. glowRoot is -1 when the scene has no emissive chains.
func marchGlow(s *gmarch.Scene, r gmarch.Ray, start, maxDist float32) (h Hit, glowDist float32, glowRoot int32) {
	glowDist = math32.Inf(1)
	glowRoot = -1
	t := start
	for i := 0; i < marchSteps && t < maxDist; i++ {
		p := r.At(t)
		d, root := s.Nearest(p)
		de, eroot := s.NearestEmissive(p)
		if eroot >= 0 && de < glowDist {
			glowDist = de
			glowRoot = eroot
		}
		if d <= marchAccuracy {
			return Hit{T: t, Root: root, OK: true}, glowDist, glowRoot
		}
		t += d
	}
	return Hit{T: t, Root: -1}, glowDist, glowRoot
}

// Normal estimates the unit surface normal of the scene distance field at p
// with a 4-tap tetrahedron central difference.
func Normal(s *gmarch.Scene, p ms3.Vec) ms3.Vec {
	var n ms3.Vec
	for _, v := range tetrahedron {
		n = ms3.Add(n, ms3.Scale(s.Distance(ms3.Add(p, ms3.Scale(normalEps, v))), v))
	}
	return ms3.Unit(n)
}

var tetrahedron = [4]ms3.Vec{
	{X: 1, Y: -1, Z: -1},
	{X: -1, Y: -1, Z: 1},
	{X: -1, Y: 1, Z: -1},
	{X: 1, Y: 1, Z: 1},
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
