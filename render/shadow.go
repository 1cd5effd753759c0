package render

import (
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/gmarch"
)

const (
	// shadowSteps bounds shadow ray iteration. Shadow rays afford fewer
	// steps than primary rays since penumbra banding is less visible
	// than silhouette banding.
	shadowSteps = 256
	// shadowMaxDist is how far a shadow ray searches for occluders.
	shadowMaxDist = 1000
	// shadowBias offsets shadow ray origins along the normal so the ray
	// does not immediately re-hit the surface it leaves.
	shadowBias = 0.1
)

// Shadow traces from p toward the light and returns its visibility in
// [0,1]: 0 inside full shadow, 1 fully lit. In the penumbra visibility is
// the running minimum of k*d/t over the ray, so larger k hardens shadow
// edges. toLight must be a unit vector pointing at the light.
func Shadow(s *gmarch.Scene, p, normal, toLight ms3.Vec, k float32) float32 {
	bias := ms3.Scale(shadowBias, normal)
	if ms3.Dot(normal, toLight) < 0 {
		bias = ms3.Scale(-1, bias)
	}
	origin := ms3.Add(p, bias)
	visibility := float32(1)
	t := float32(0)
	for i := 0; i < shadowSteps && t < shadowMaxDist; i++ {
		d := s.Distance(ms3.Add(origin, ms3.Scale(t, toLight)))
		if d <= marchAccuracy {
			return 0
		}
		// The first sample sits on the bias offset, not between the
		// surface and the light, so it contributes no penumbra.
		if i > 0 {
			visibility = minf(visibility, k*d/t)
		}
		t += d
	}
	return clampf(visibility, 0, 1)
}
