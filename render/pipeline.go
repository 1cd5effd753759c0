package render

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/gmarch"
)

// reflectBias offsets bounce ray origins off the reflecting surface. It is
// a normal offset against self intersection, unrelated to the march accuracy.
const reflectBias = 1e-3

// shade accumulates linear radiance for one primary ray over the bounce loop
// and returns it with the primary hit distance, +Inf on miss. Each bounce
// a color mask attenuates contributions; the mask shrinks on reflection by
// the attenuation factor times the first struck surface's metallic value.
func (r *Renderer) shade(primary gmarch.Ray) (ms3.Vec, float32) {
	s := r.p.Scene
	var sum ms3.Vec
	mask := one
	var srcMetallic float32
	primaryT := math32.Inf(1)
	ray := primary
	for depth := 0; depth < r.p.MaxBounces; depth++ {
		start := float32(0)
		if depth == 0 {
			start = r.p.Camera.Near
		}
		hit, glowDist, glowRoot := marchGlow(s, ray, start, r.p.Camera.Far)

		// Emissive chains glow even when occluded or missed entirely.
		if glowRoot >= 0 && r.p.HaloAmplitude > 0 {
			em := s.Materials[s.Shapes[glowRoot].Material].Emission
			x := glowDist / r.p.HaloWidth
			halo := r.p.HaloAmplitude * math32.Exp(-x*x)
			sum = ms3.Add(sum, ms3.MulElem(mask, ms3.Scale(halo, em)))
		}
		if !hit.OK {
			sum = ms3.Add(sum, ms3.MulElem(mask, s.Background))
			break
		}

		p := ray.At(hit.T)
		sh := &s.Shapes[hit.Root]
		if sh.Kind == gmarch.KindCloud {
			sum = ms3.Add(sum, ms3.MulElem(mask, r.shadeCloud(ray, sh)))
			break
		}

		normal := Normal(s, p)
		mat := s.BlendedMaterial(hit.Root, p)
		ground := mat.IsGround()
		mat = mat.Resolve(p)
		if depth == 0 {
			srcMetallic = mat.Metallic
			primaryT = hit.T
		}
		view := ms3.Unit(ms3.Sub(ray.Origin, p))
		toLight := ms3.Scale(-1, s.Light.Dir)

		direct := shadePBR(p, mat, view, normal, toLight, s.Light.Color, s.Background)
		direct = ms3.Scale(Shadow(s, p, normal, toLight, r.p.ShadowSoftness), direct)
		sum = ms3.Add(sum, ms3.MulElem(mask, direct))
		sum = ms3.Add(sum, ms3.MulElem(mask, r.emissiveLights(p, mat, view, normal, hit.Root)))

		selfEmission := ms3.MulElem(mat.Emission, mat.Albedo)
		sum = ms3.Add(sum, ms3.MulElem(mask, selfEmission))
		if ms3.Norm(selfEmission) > r.p.EmissiveStop {
			break
		}
		if ground {
			break
		}

		refl := reflect(view, normal)
		bias := ms3.Scale(reflectBias, normal)
		if ms3.Dot(normal, refl) < 0 {
			bias = ms3.Scale(-1, bias)
		}
		ray = gmarch.Ray{Origin: ms3.Add(p, bias), Dir: ms3.Unit(refl)}
		mask = ms3.Scale(r.p.ReflectAttenuation*srcMetallic, mask)
	}
	return sum, primaryT
}

// emissiveLights treats every other emissive chain root near p as a point
// light with inverse square falloff capped at 1 and sums their reflectance.
func (r *Renderer) emissiveLights(p ms3.Vec, mat gmarch.Material, view, normal ms3.Vec, selfRoot int32) ms3.Vec {
	s := r.p.Scene
	var sum ms3.Vec
	for _, root := range s.Roots {
		if root == selfRoot {
			continue
		}
		m := &s.Materials[s.Shapes[root].Material]
		if !m.IsEmissive() {
			continue
		}
		toL := ms3.Sub(s.Shapes[root].Center(), p)
		d := ms3.Norm(toL)
		if d > r.p.EmissiveCutoff || d < epsdiv {
			continue
		}
		att := minf(1, 1/(d*d))
		radiance := ms3.Scale(att, ms3.MulElem(m.Emission, m.Albedo))
		sum = ms3.Add(sum, shadePBR(p, mat, view, normal, ms3.Scale(1/d, toL), radiance, s.Background))
	}
	return sum
}

// reflect mirrors the view vector about the normal. view points away from
// the surface toward the previous ray origin.
func reflect(view, normal ms3.Vec) ms3.Vec {
	return ms3.Sub(ms3.Scale(2*ms3.Dot(normal, view), normal), view)
}
