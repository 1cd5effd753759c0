package render

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/gmarch"
)

const (
	// cloudSteps samples taken along the view ray through a cloud box.
	cloudSteps = 64
	// cloudLightSteps samples taken along each in-cloud shadow ray.
	cloudLightSteps = 16
	// cloudCutoff stops the view march once this much light is absorbed.
	cloudCutoff = 0.01
)

var (
	cloudShadowTone = ms3.Vec{X: 0.25, Y: 0.27, Z: 0.32}
	cloudLitTone    = ms3.Vec{X: 1, Y: 1, Z: 1}
)

// shadeCloud integrates single-scattered light along ray through the cloud
// shape's box. Each view sample attenuates by Beer-Lambert extinction of the
// density marched so far and is lit by a short secondary march toward the
// light. The result already blends toward the scene background by the
// remaining transmittance, so callers composite nothing behind it.
func (r *Renderer) shadeCloud(ray gmarch.Ray, sh *gmarch.Shape) ms3.Vec {
	s := r.p.Scene
	bb := sh.Bounds()
	t0, t1 := boxSpan(bb, ray)
	t0 = maxf(t0, 0)
	if t1 <= t0 {
		return s.Background
	}
	stepLen := (t1 - t0) / cloudSteps
	toLight := ms3.Scale(-1, s.Light.Dir)
	size := bb.Size()
	transmittance := float32(1)
	lightEnergy := float32(0)
	for i := 0; i < cloudSteps; i++ {
		pos := ray.At(t0 + (float32(i)+0.5)*stepLen)
		density := r.p.CloudDensity * s.Cloud.Sample(ms3.DivElem(ms3.Sub(pos, bb.Min), size))
		if density <= 0 {
			continue
		}
		// Optical depth from this sample out of the box toward the light.
		_, lexit := boxSpan(bb, gmarch.Ray{Origin: pos, Dir: toLight})
		lstep := lexit / cloudLightSteps
		var depth float32
		for j := 0; j < cloudLightSteps; j++ {
			lp := ms3.Add(pos, ms3.Scale((float32(j)+0.5)*lstep, toLight))
			depth += r.p.CloudDensity * s.Cloud.Sample(ms3.DivElem(ms3.Sub(lp, bb.Min), size)) * lstep
		}
		lightEnergy += density * stepLen * transmittance * math32.Exp(-r.p.CloudAbsorption*depth)
		transmittance *= math32.Exp(-r.p.CloudAbsorption * density * stepLen)
		if transmittance < cloudCutoff {
			break
		}
	}
	lit := clampf(lightEnergy, 0, 1)
	cloud := ms3.MulElem(ms3.InterpElem(cloudShadowTone, cloudLitTone, ms3.Vec{X: lit, Y: lit, Z: lit}), s.Light.Color)
	return ms3.InterpElem(cloud, s.Background, ms3.Vec{X: transmittance, Y: transmittance, Z: transmittance})
}

// boxSpan returns the parametric interval along r inside box bb. The entry
// is negative when the origin lies inside. No overlap when t1 <= t0.
func boxSpan(bb ms3.Box, r gmarch.Ray) (t0, t1 float32) {
	t0, t1 = math32.Inf(-1), math32.Inf(1)
	o := [3]float32{r.Origin.X, r.Origin.Y, r.Origin.Z}
	d := [3]float32{r.Dir.X, r.Dir.Y, r.Dir.Z}
	lo := [3]float32{bb.Min.X, bb.Min.Y, bb.Min.Z}
	hi := [3]float32{bb.Max.X, bb.Max.Y, bb.Max.Z}
	for i := 0; i < 3; i++ {
		inv := 1 / d[i]
		ta := (lo[i] - o[i]) * inv
		tb := (hi[i] - o[i]) * inv
		if ta > tb {
			ta, tb = tb, ta
		}
		t0 = maxf(t0, ta)
		t1 = minf(t1, tb)
	}
	return t0, t1
}
