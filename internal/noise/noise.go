// Package noise provides seeded coherent noise sampled as pure functions of
// coordinates.
package noise

import (
	"github.com/ojrac/opensimplex-go"
)

// Source samples normalised OpenSimplex noise in [0,1]. It is safe for
// concurrent use.
type Source struct {
	seed    int64
	simplex opensimplex.Noise
}

func New(seed int64) *Source {
	return &Source{
		seed:    seed,
		simplex: opensimplex.NewNormalized(seed),
	}
}

func (s *Source) Seed() int64 {
	return s.seed
}

// Noise2D samples the plane at (x*scale+offset, z*scale+offset).
func (s *Source) Noise2D(x, z, offset, scale float64) float64 {
	return s.simplex.Eval2(x*scale+offset, z*scale+offset)
}

// Fractal2D sums octaves of Noise2D, each with frequency multiplied by
// lacunarity and amplitude by persistence, normalised back to [0,1].
func (s *Source) Fractal2D(x, z, offset, scale float64, octaves int, persistence, lacunarity float64) float64 {
	if octaves <= 1 {
		return s.Noise2D(x, z, offset, scale)
	}
	frequency := scale
	amplitude := 1.0
	noiseSum := 0.0
	maxAmplitude := 0.0

	for i := 0; i < octaves; i++ {
		noiseSum += s.Noise2D(x, z, offset, frequency) * amplitude
		maxAmplitude += amplitude
		amplitude *= persistence
		frequency *= lacunarity
	}

	if maxAmplitude == 0 {
		return 0
	}
	return noiseSum / maxAmplitude
}

// Noise3D samples the volume at (x*scale+offset, y*scale+offset, z*scale+offset).
func (s *Source) Noise3D(x, y, z, offset, scale float64) float64 {
	return s.simplex.Eval3(x*scale+offset, y*scale+offset, z*scale+offset)
}

// Above3D is the lode test: true when Noise3D exceeds threshold.
func (s *Source) Above3D(x, y, z, offset, scale, threshold float64) bool {
	return s.Noise3D(x, y, z, offset, scale) > threshold
}
