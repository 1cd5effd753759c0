package gmarch

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// MaterialID references a material registered with [Builder.AddMaterial].
type MaterialID int32

// Material is a fixed-size PBR surface description. All colors are linear.
type Material struct {
	// Albedo is the base color. A negative red channel marks the procedural
	// checkerboard ground resolved per sample by [Material.Resolve].
	Albedo ms3.Vec
	// Emission is radiance the surface emits on its own. Emissive surfaces
	// also light nearby geometry, see [Scene.NearestEmissive].
	Emission ms3.Vec
	// Metallic in [0,1] interpolates the specular base reflectivity
	// between dielectric and the albedo color.
	Metallic float32
	// Roughness in [0,1] widens the specular lobe.
	Roughness float32
	// AO in [0,1] occludes ambient light. Ambient scales by 1-AO.
	AO float32
}

const (
	// blendRadius is the own-shape distance under which a chain link
	// contributes its material to a blend.
	blendRadius = 1.0
	// blendEps avoids division blowup for links the query point touches.
	blendEps = 1e-4
	// maxBlendLinks bounds the blend working set. Links beyond this
	// capacity are ignored for material purposes.
	maxBlendLinks = 255
	// emissiveMin is the emission magnitude under which a material is
	// treated as non-emissive for halo and indirect light sampling.
	emissiveMin = 1e-3
)

// IsGround reports whether the albedo carries the checkerboard ground sentinel.
func (m Material) IsGround() bool {
	return m.Albedo.X < 0
}

// IsEmissive reports whether the material emits enough light to act as a
// halo and indirect light source.
func (m Material) IsEmissive() bool {
	return ms3.Norm(m.Emission) > emissiveMin
}

// Resolve replaces a ground sentinel albedo with the checkerboard tone at p.
// Other materials pass through unchanged.
func (m Material) Resolve(p ms3.Vec) Material {
	if !m.IsGround() {
		return m
	}
	m.Albedo = checkerTone(p)
	return m
}

// checkerTone picks one of two grey tones by parity of the floor-snapped
// world x, z coordinates. Tiles are 2 units across.
func checkerTone(p ms3.Vec) ms3.Vec {
	ix := int32(math32.Floor(p.X * 0.5))
	iz := int32(math32.Floor(p.Z * 0.5))
	if (ix+iz)&1 == 0 {
		return ms3.Vec{X: 0.8, Y: 0.8, Z: 0.8}
	}
	return ms3.Vec{X: 0.3, Y: 0.3, Z: 0.3}
}

// AddMaterial registers m for use in shape constructors.
func (bld *Builder) AddMaterial(m Material) MaterialID {
	if m.Metallic < 0 || m.Metallic > 1 {
		bld.shapeErrorf("material metallic %f outside [0,1]", m.Metallic)
	}
	if m.Roughness < 0 || m.Roughness > 1 {
		bld.shapeErrorf("material roughness %f outside [0,1]", m.Roughness)
	}
	if m.AO < 0 || m.AO > 1 {
		bld.shapeErrorf("material ambient occlusion %f outside [0,1]", m.AO)
	}
	if m.Emission.X < 0 || m.Emission.Y < 0 || m.Emission.Z < 0 {
		bld.shapeErrorf("negative material emission")
	}
	bld.materials = append(bld.materials, m)
	return MaterialID(len(bld.materials) - 1)
}

// BlendedMaterial resolves the material of the chain rooted at root as seen
// from p. Every link whose own-shape distance at p is under the blend radius
// contributes inverse-distance weighted material terms; weights normalize to
// one. The ground sentinel survives blending and is resolved by the shading
// stage per sample.
func (s *Scene) BlendedMaterial(root int32, p ms3.Vec) Material {
	var weights [maxBlendLinks]float32
	var picks [maxBlendLinks]int32
	n := 0
	var total float32
	for i := root; i != -1; i = s.Shapes[i].Next {
		d := s.Shapes[i].Distance(p)
		if d >= blendRadius {
			continue
		}
		if n == maxBlendLinks {
			break
		}
		w := 1 / (maxf(d, 0) + blendEps)
		weights[n] = w
		picks[n] = s.Shapes[i].Material
		n++
		total += w
	}
	if n == 0 {
		// Hit points always land within the blend radius; distant query
		// points may not. Those resolve to the root link's material.
		return s.Materials[s.Shapes[root].Material]
	}
	inv := 1 / total
	var out Material
	for k := 0; k < n; k++ {
		m := &s.Materials[picks[k]]
		w := weights[k] * inv
		out.Albedo = ms3.Add(out.Albedo, ms3.Scale(w, m.Albedo))
		out.Emission = ms3.Add(out.Emission, ms3.Scale(w, m.Emission))
		out.Metallic += w * m.Metallic
		out.Roughness += w * m.Roughness
		out.AO += w * m.AO
	}
	return out
}
