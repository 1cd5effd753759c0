package render

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/gmarch"
)

// epsdiv guards denominators and the Fresnel power base against vanishing
// at grazing angles.
const epsdiv = 1.1920929e-7

var one = ms3.Vec{X: 1, Y: 1, Z: 1}

// shadePBR evaluates Cook-Torrance reflectance of a single light at p.
// view and toLight are unit vectors pointing away from the surface and
// radiance is the light's incoming intensity. The ambient term derives from
// the scene background scaled down by the material's occlusion.
func shadePBR(p ms3.Vec, m gmarch.Material, view, normal, toLight, radiance, background ms3.Vec) ms3.Vec {
	m = m.Resolve(p)
	ambient := ms3.Scale(1-m.AO, ms3.MulElem(background, m.Albedo))
	metal := ms3.Vec{X: m.Metallic, Y: m.Metallic, Z: m.Metallic}
	f0 := ms3.InterpElem(ms3.Vec{X: 0.04, Y: 0.04, Z: 0.04}, m.Albedo, metal)
	half := ms3.Unit(ms3.Add(view, toLight))
	ndotv := maxf(ms3.Dot(normal, view), 0)
	ndotl := maxf(ms3.Dot(normal, toLight), 0)

	ndf := distributionGGX(maxf(ms3.Dot(normal, half), 0), m.Roughness)
	g := geometrySmith(ndotv, ndotl, m.Roughness)
	fresnel := fresnelSchlick(maxf(ms3.Dot(half, view), 0), f0)
	specular := ms3.Scale(ndf*g/(4*ndotv*ndotl+epsdiv), fresnel)

	kd := ms3.Scale(1-m.Metallic, ms3.Sub(one, fresnel))
	diffuse := ms3.Scale(1/math32.Pi, ms3.MulElem(kd, m.Albedo))

	out := ms3.MulElem(ms3.Add(diffuse, specular), ms3.Scale(ndotl, radiance))
	return ms3.Add(ambient, out)
}

// distributionGGX is the Trowbridge-Reitz normal distribution with
// alpha=roughness squared.
func distributionGGX(ndoth, roughness float32) float32 {
	a := roughness * roughness
	a2 := a * a
	denom := ndoth*ndoth*(a2-1) + 1
	return a2 / (math32.Pi*denom*denom + epsdiv)
}

// geometrySchlickGGX is the direct-lighting Schlick-GGX masking term with
// k=(roughness+1)^2/8.
func geometrySchlickGGX(ndotv, roughness float32) float32 {
	r := roughness + 1
	k := r * r / 8
	return ndotv / (ndotv*(1-k) + k + epsdiv)
}

func geometrySmith(ndotv, ndotl, roughness float32) float32 {
	return geometrySchlickGGX(ndotv, roughness) * geometrySchlickGGX(ndotl, roughness)
}

func fresnelSchlick(cosTheta float32, f0 ms3.Vec) ms3.Vec {
	f := math32.Pow(1-cosTheta+epsdiv, 5)
	return ms3.Add(f0, ms3.Scale(f, ms3.Sub(one, f0)))
}

// ToneMap compresses linear radiance to [0,1) per channel with the Reinhard
// operator c/(c+1). Renderers apply it exactly once per pixel, after all
// bounces have been summed.
func ToneMap(c ms3.Vec) ms3.Vec {
	return ms3.Vec{
		X: c.X / (c.X + 1),
		Y: c.Y / (c.Y + 1),
		Z: c.Z / (c.Z + 1),
	}
}
