package gmarch

import (
	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

var worldUp = ms3.Vec{Y: 1}

// Ray is a half line in world space.
type Ray struct {
	Origin ms3.Vec
	// Dir is unit length. Ray constructors renormalize after every transform.
	Dir ms3.Vec
}

// At returns the point a distance t along the ray.
func (r Ray) At(t float32) ms3.Vec {
	return ms3.Add(r.Origin, ms3.Scale(t, r.Dir))
}

// Camera maps pixel coordinates to world rays. It is immutable for the
// duration of a frame and rebuilt by the host between frames.
type Camera struct {
	Eye ms3.Vec
	// Forward points from Eye toward the scene. Need not be unit length
	// but may not be parallel to world up.
	Forward ms3.Vec
	// Width, Height are the target image dimensions in pixels.
	Width, Height int
	// FOV is the vertical field of view in degrees.
	FOV float32
	// Near, Far bound the rendered depth range. Far doubles as the primary
	// ray march distance budget.
	Near, Far float32
}

// LookAt positions the camera at eye facing target.
func (c *Camera) LookAt(eye, target ms3.Vec) {
	c.Eye = eye
	c.Forward = ms3.Sub(target, eye)
}

// Ray builds the world ray through the center of pixel (x, y).
// Pixel (0, 0) is the top left of the image.
func (c *Camera) Ray(x, y int) Ray {
	fwd := ms3.Unit(c.Forward)
	right := ms3.Unit(ms3.Cross(fwd, worldUp))
	up := ms3.Cross(right, fwd)
	scale := math32.Tan(c.FOV * (math32.Pi / 360))
	aspect := float32(c.Width) / float32(c.Height)
	nx := (2*(float32(x)+0.5)/float32(c.Width) - 1) * aspect * scale
	ny := (1 - 2*(float32(y)+0.5)/float32(c.Height)) * scale
	dir := ms3.Add(ms3.Add(ms3.Scale(nx, right), ms3.Scale(ny, up)), fwd)
	return Ray{Origin: c.Eye, Dir: ms3.Unit(dir)}
}
