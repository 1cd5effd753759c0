package gmarch

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
)

// CloudVolume is a 3D density field stored as a 2D atlas of Z slices, the
// layout GPU hosts use for volume textures without 3D sampler support.
// Slice k occupies the tile at column k%TilesX, row k/TilesX of the atlas.
type CloudVolume struct {
	// Atlas holds the density samples of all slice tiles in row-major
	// atlas pixel order.
	Atlas []float32
	// NX, NY, NZ are the volume dimensions in samples.
	NX, NY, NZ int
	// TilesX is the number of slice tiles per atlas row.
	TilesX int
}

func (v *CloudVolume) check() error {
	if v.NX < 2 || v.NY < 2 || v.NZ < 2 {
		return fmt.Errorf("cloud volume dimensions %dx%dx%d too small", v.NX, v.NY, v.NZ)
	}
	if v.TilesX < 1 {
		return fmt.Errorf("cloud volume needs at least one tile per row, got %d", v.TilesX)
	}
	rows := (v.NZ + v.TilesX - 1) / v.TilesX
	if need := rows * v.NY * v.TilesX * v.NX; len(v.Atlas) < need {
		return fmt.Errorf("cloud volume atlas holds %d samples, layout needs %d", len(v.Atlas), need)
	}
	return nil
}

// At returns the stored density at integer sample coordinates,
// clamped to the volume bounds.
func (v *CloudVolume) At(x, y, z int) float32 {
	x = clampi(x, 0, v.NX-1)
	y = clampi(y, 0, v.NY-1)
	z = clampi(z, 0, v.NZ-1)
	px := (z%v.TilesX)*v.NX + x
	py := (z/v.TilesX)*v.NY + y
	return v.Atlas[py*v.TilesX*v.NX+px]
}

// Sample returns the trilinearly interpolated density at normalized volume
// coordinates uvw. Coordinates outside [0,1]³ clamp to the volume edge.
func (v *CloudVolume) Sample(uvw ms3.Vec) float32 {
	fx := clampf(uvw.X, 0, 1) * float32(v.NX-1)
	fy := clampf(uvw.Y, 0, 1) * float32(v.NY-1)
	fz := clampf(uvw.Z, 0, 1) * float32(v.NZ-1)
	ix, iy, iz := int(fx), int(fy), int(fz)
	tx := fx - math32.Floor(fx)
	ty := fy - math32.Floor(fy)
	tz := fz - math32.Floor(fz)

	c00 := mixf(v.At(ix, iy, iz), v.At(ix+1, iy, iz), tx)
	c10 := mixf(v.At(ix, iy+1, iz), v.At(ix+1, iy+1, iz), tx)
	c01 := mixf(v.At(ix, iy, iz+1), v.At(ix+1, iy, iz+1), tx)
	c11 := mixf(v.At(ix, iy+1, iz+1), v.At(ix+1, iy+1, iz+1), tx)
	return mixf(mixf(c00, c10, ty), mixf(c01, c11, ty), tz)
}

func clampi(v, lo, hi int) int {
	if v < lo {
		return lo
	} else if v > hi {
		return hi
	}
	return v
}
