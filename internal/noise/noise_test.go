package noise

import (
	"math/rand"
	"testing"
)

func TestSourceDeterministicForSeed(t *testing.T) {
	a := New(424242)
	b := New(424242)

	randSource := rand.New(rand.NewSource(1337))
	for i := 0; i < 1000; i++ {
		x := float64(randSource.Intn(2_000_001) - 1_000_000)
		z := float64(randSource.Intn(2_000_001) - 1_000_000)
		y := float64(randSource.Intn(256))

		if na, nb := a.Noise2D(x, z, 3, 0.01), b.Noise2D(x, z, 3, 0.01); na != nb {
			t.Fatalf("location %d (%v,%v): 2D mismatch %f vs %f", i, x, z, na, nb)
		}
		if na, nb := a.Noise3D(x, y, z, 7, 0.1), b.Noise3D(x, y, z, 7, 0.1); na != nb {
			t.Fatalf("location %d (%v,%v,%v): 3D mismatch %f vs %f", i, x, y, z, na, nb)
		}
	}
}

func TestSourceVariesAcrossSpace(t *testing.T) {
	src := New(99)
	first := src.Noise2D(0, 0, 0, 0.07)
	for x := 1; x < 100; x++ {
		if src.Noise2D(float64(x), float64(x), 0, 0.07) != first {
			return
		}
	}
	t.Fatalf("noise returned %f everywhere", first)
}

func TestFractalSingleOctaveMatchesNoise2D(t *testing.T) {
	src := New(5)
	for i := 0; i < 20; i++ {
		x, z := float64(i)*1.7, float64(i)*-3.1
		if got, want := src.Fractal2D(x, z, 11, 0.3, 1, 0.5, 2), src.Noise2D(x, z, 11, 0.3); got != want {
			t.Fatalf("single octave fractal %f differs from plain sample %f", got, want)
		}
	}
}

func TestAbove3DMatchesNoise3D(t *testing.T) {
	src := New(1)
	for i := 0; i < 100; i++ {
		x := float64(i)
		v := src.Noise3D(x, x/2, -x, 10, 0.3)
		if got := src.Above3D(x, x/2, -x, 10, 0.3, 0.5); got != (v > 0.5) {
			t.Fatalf("sample %d: Above3D=%v but Noise3D=%f", i, got, v)
		}
		if !src.Above3D(x, x/2, -x, 10, 0.3, -1) {
			t.Fatalf("sample %d: negative threshold should always pass", i)
		}
	}
}
