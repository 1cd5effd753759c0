package gmarch

import (
	"github.com/soypat/geometry/ms3"
)

// Light is a directional light of uniform radiance.
type Light struct {
	// Dir is the direction the light travels in, unit length.
	Dir ms3.Vec
	// Color is the light's radiance.
	Color ms3.Vec
}

// Scene is a snapshot of renderable content: flat shape and material buffers,
// the chain roots indexing into them, lighting and the optional density
// volume. Scenes are immutable for the duration of a frame; hosts swap them
// only between frames. Link and index validity is the builder's concern, the
// evaluation queries never revalidate.
type Scene struct {
	// Background is the radiance of rays that escape all geometry.
	Background ms3.Vec
	Light      Light
	Shapes     []Shape
	Materials  []Material
	// Roots indexes the first link of each top level chain in Shapes.
	Roots []int32
	// Cloud is the density volume sampled by cloud shapes.
	// Nil when the scene contains none.
	Cloud *CloudVolume
}

// Bounds returns a conservative axis aligned box containing every chain link.
// Subtractive and intersecting links widen the estimate, never shrink it.
func (s *Scene) Bounds() ms3.Box {
	var bb ms3.Box
	first := true
	for _, root := range s.Roots {
		for i := root; i != -1; i = s.Shapes[i].Next {
			b := s.Shapes[i].Bounds()
			if first {
				bb = b
				first = false
			} else {
				bb = bb.Union(b)
			}
		}
	}
	return bb
}
