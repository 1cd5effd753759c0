// Package cloudfield generates procedural density volumes for cloud shapes
// from fractal value noise.
package cloudfield

import (
	"fmt"

	"github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/gmarch"
)

// Config parametrizes the noise field sampled by [New].
type Config struct {
	// Freq scales normalized volume coordinates into noise space. Higher
	// frequencies pack more wisps into the volume. If zero a reasonable
	// value is chosen.
	Freq float32
	// Offset displaces the sampled noise region and acts as the seed:
	// equal offsets always produce equal volumes.
	Offset ms3.Vec
	// Gain scales the final density. Default 1.
	Gain float32
	// Cutoff is the noise level under which density becomes empty space,
	// carving the cloud boundary. Default 0.3.
	Cutoff float32
	// TilesX overrides the atlas slice tiling of the result.
	// Default is the square-ish ceil(sqrt(nz)).
	TilesX int
}

// New samples a fractal noise field into a nx by ny by nz density volume.
// Density falls off radially so clouds never touch the volume faces.
func New(nx, ny, nz int, cfg Config) (*gmarch.CloudVolume, error) {
	if nx < 2 || ny < 2 || nz < 2 {
		return nil, fmt.Errorf("cloud field dimensions %dx%dx%d too small", nx, ny, nz)
	}
	if cfg.Freq == 0 {
		cfg.Freq = 3.4
	}
	if cfg.Gain == 0 {
		cfg.Gain = 1
	}
	if cfg.Cutoff == 0 {
		cfg.Cutoff = 0.3
	}
	tilesX := cfg.TilesX
	if tilesX <= 0 {
		tilesX = int(math32.Ceil(math32.Sqrt(float32(nz))))
	}
	rows := (nz + tilesX - 1) / tilesX
	v := &gmarch.CloudVolume{
		Atlas:  make([]float32, rows*ny*tilesX*nx),
		NX:     nx,
		NY:     ny,
		NZ:     nz,
		TilesX: tilesX,
	}
	for z := range nz {
		for y := range ny {
			for x := range nx {
				uvw := ms3.Vec{
					X: float32(x) / float32(nx-1),
					Y: float32(y) / float32(ny-1),
					Z: float32(z) / float32(nz-1),
				}
				px := (z%tilesX)*nx + x
				py := (z/tilesX)*ny + y
				v.Atlas[py*tilesX*nx+px] = density(uvw, &cfg)
			}
		}
	}
	return v, nil
}

func density(uvw ms3.Vec, cfg *Config) float32 {
	// Radial falloff from the volume center.
	q := ms3.Scale(2, ms3.Sub(uvw, ms3.Vec{X: 0.5, Y: 0.5, Z: 0.5}))
	falloff := clampf(1-ms3.Norm(q), 0, 1)
	if falloff == 0 {
		return 0
	}
	p := ms3.Add(cfg.Offset, ms3.Scale(cfg.Freq, uvw))
	d := (fbm(p) - cfg.Cutoff) * cfg.Gain * falloff
	return maxf(d, 0)
}

// fbm folds four octaves of lattice noise, each rescaled by an irrational-ish
// factor to hide lattice alignment. Output is normalized to [0,1].
func fbm(p ms3.Vec) float32 {
	p = rotate(p)
	f := 0.5 * noise(p)
	p = ms3.Scale(2.32, p)
	f += 0.25 * noise(p)
	p = ms3.Scale(3.03, p)
	f += 0.125 * noise(p)
	p = ms3.Scale(2.61, p)
	f += 0.0625 * noise(p)
	return f / 0.9375
}

// noise is hash based value noise: pseudorandom lattice values interpolated
// with a cubic fade.
func noise(p ms3.Vec) float32 {
	ip := ms3.Vec{X: math32.Floor(p.X), Y: math32.Floor(p.Y), Z: math32.Floor(p.Z)}
	f := ms3.Sub(p, ip)
	f = ms3.MulElem(ms3.MulElem(f, f), ms3.Sub(ms3.Vec{X: 3, Y: 3, Z: 3}, ms3.Scale(2, f)))
	n := ms3.Dot(ip, ms3.Vec{X: 1, Y: 57, Z: 113})
	return mixf(
		mixf(mixf(hash(n), hash(n+1), f.X), mixf(hash(n+57), hash(n+58), f.X), f.Y),
		mixf(mixf(hash(n+113), hash(n+114), f.X), mixf(hash(n+170), hash(n+171), f.X), f.Y),
		f.Z)
}

func hash(n float32) float32 {
	x := math32.Sin(n) * 43758.5453
	return x - math32.Floor(x)
}

// rotate decorrelates octave lattices with a fixed orthonormal basis.
func rotate(p ms3.Vec) ms3.Vec {
	return ms3.Vec{
		X: ms3.Dot(ms3.Vec{Y: 0.80, Z: 0.60}, p),
		Y: ms3.Dot(ms3.Vec{X: -0.80, Y: 0.36, Z: -0.48}, p),
		Z: ms3.Dot(ms3.Vec{X: -0.60, Y: -0.48, Z: 0.64}, p),
	}
}

func maxf(a, b float32) float32 {
	return math32.Max(a, b)
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
