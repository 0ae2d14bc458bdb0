package core

import (
	"math"
	"math/rand"
)

// Vec2 holds a pair of sample values
type Vec2 struct {
	X, Y float64
}

// NewVec2 creates a new Vec2
func NewVec2(x, y float64) Vec2 {
	return Vec2{X: x, Y: y}
}

// Sampler provides random sampling for rendering algorithms
// Can be swapped out for deterministic testing or different sampling patterns
type Sampler interface {
	Get1D() float64
	Get2D() Vec2
}

// RandomSampler wraps a standard Go random generator
type RandomSampler struct {
	random *rand.Rand
}

// NewRandomSampler creates a sampler from a Go random generator
func NewRandomSampler(random *rand.Rand) *RandomSampler {
	return &RandomSampler{random: random}
}

// NewSeededSampler creates a sampler with its own generator seeded with seed
func NewSeededSampler(seed int64) *RandomSampler {
	return NewRandomSampler(rand.New(rand.NewSource(seed)))
}

// Get1D returns a random float64 in [0, 1)
func (r *RandomSampler) Get1D() float64 {
	return r.random.Float64()
}

// Get2D returns two random float64 values in [0, 1)
func (r *RandomSampler) Get2D() Vec2 {
	return NewVec2(r.random.Float64(), r.random.Float64())
}

// RandomUnitVector maps a 2D sample to a direction uniformly distributed on the unit sphere.
// The mapping is analytic, so every sample produces a valid unit vector.
func RandomUnitVector(sample Vec2) Vec3 {
	z := 1.0 - 2.0*sample.X
	r := math.Sqrt(math.Max(0, 1.0-z*z))
	phi := 2.0 * math.Pi * sample.Y
	return NewVec3(r*math.Cos(phi), r*math.Sin(phi), z)
}

// RandomInUnitDisk maps a 2D sample to a point uniformly distributed in the unit disk (z = 0)
func RandomInUnitDisk(sample Vec2) Vec3 {
	r := math.Sqrt(sample.X)
	theta := 2.0 * math.Pi * sample.Y
	return NewVec3(r*math.Cos(theta), r*math.Sin(theta), 0)
}

// FixedSampler replays a fixed sequence of values, cycling when exhausted.
// Used where a reproducible, hand-chosen stream is needed.
type FixedSampler struct {
	values []float64
	next   int
}

// NewFixedSampler creates a sampler that cycles through values.
// With no values it always returns 0.5.
func NewFixedSampler(values ...float64) *FixedSampler {
	if len(values) == 0 {
		values = []float64{0.5}
	}
	return &FixedSampler{values: values}
}

// Get1D returns the next value in the sequence
func (f *FixedSampler) Get1D() float64 {
	v := f.values[f.next]
	f.next = (f.next + 1) % len(f.values)
	return v
}

// Get2D returns the next two values in the sequence
func (f *FixedSampler) Get2D() Vec2 {
	x := f.Get1D()
	return NewVec2(x, f.Get1D())
}
