package gmarch

import (
	"github.com/soypat/geometry/ms2"
	"github.com/soypat/geometry/ms3"
)

// Distance returns the signed distance from p to the shape's surface,
// negative inside. Unknown kinds return a huge positive sentinel so they
// lose every min/max fold.
func (sh *Shape) Distance(p ms3.Vec) float32 {
	switch sh.Kind {
	case KindSphere:
		return ms3.Norm(ms3.Sub(p, sh.Center())) - sh.Params[3]
	case KindBox, KindCloud:
		q := ms3.Sub(ms3.AbsElem(ms3.Sub(p, sh.Center())), sh.halves())
		return ms3.Norm(ms3.MaxElem(q, ms3.Vec{})) + minf(maxf(q.X, maxf(q.Y, q.Z)), 0)
	case KindBoxFrame:
		e := sh.Params[6]
		var z3 ms3.Vec
		p = ms3.Sub(ms3.AbsElem(ms3.Sub(p, sh.Center())), sh.halves())
		q := ms3.AddScalar(-e, ms3.AbsElem(ms3.AddScalar(e, p)))

		s1 := minf(0, maxf(p.X, maxf(q.Y, q.Z)))
		n1 := ms3.Norm(ms3.MaxElem(ms3.Vec{X: p.X, Y: q.Y, Z: q.Z}, z3)) + s1

		s2 := minf(0, maxf(q.X, maxf(p.Y, q.Z)))
		n2 := ms3.Norm(ms3.MaxElem(ms3.Vec{X: q.X, Y: p.Y, Z: q.Z}, z3)) + s2

		s3 := minf(0, maxf(q.X, maxf(q.Y, p.Z)))
		n3 := ms3.Norm(ms3.MaxElem(ms3.Vec{X: q.X, Y: q.Y, Z: p.Z}, z3)) + s3

		return minf(n1, minf(n2, n3))
	case KindTorus:
		l := ms3.Sub(p, sh.Center())
		q := ms2.Vec{X: hypotf(l.X, l.Z) - sh.Params[3], Y: l.Y}
		return ms2.Norm(q) - sh.Params[4]
	}
	return largenum
}

// ChainDistance folds the chain rooted at root into a single signed distance
// at p. Each link's stored operator combines the running distance with the
// successor's distance, left to right.
func (s *Scene) ChainDistance(root int32, p ms3.Vec) float32 {
	sh := &s.Shapes[root]
	d := sh.Distance(p)
	for sh.Next != -1 {
		op := sh.Op
		sh = &s.Shapes[sh.Next]
		d = op.combine(d, sh.Distance(p))
	}
	return d
}

// Nearest returns the scene's nearest chain distance at p and the root index
// of that chain. This is the scene SDF backing marching, shadow and normal
// queries. Scenes with no chains return the distance sentinel and root -1.
func (s *Scene) Nearest(p ms3.Vec) (dist float32, root int32) {
	dist = largenum
	root = -1
	for _, r := range s.Roots {
		d := s.ChainDistance(r, p)
		if d < dist {
			dist = d
			root = r
		}
	}
	return dist, root
}

// Distance returns the scene SDF value at p.
func (s *Scene) Distance(p ms3.Vec) float32 {
	d, _ := s.Nearest(p)
	return d
}

// NearestEmissive returns the distance from p to the nearest chain whose root
// material emits light, and that chain's root index. Scenes with no emissive
// chains return the distance sentinel and root -1.
func (s *Scene) NearestEmissive(p ms3.Vec) (dist float32, root int32) {
	dist = largenum
	root = -1
	for _, r := range s.Roots {
		if !s.Materials[s.Shapes[r].Material].IsEmissive() {
			continue
		}
		d := s.ChainDistance(r, p)
		if d < dist {
			dist = d
			root = r
		}
	}
	return dist, root
}
