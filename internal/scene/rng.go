package scene

import "math"

// RNG is a mulberry32 pseudo-random stream. The generator is seeded
// explicitly so that two builds of the same script produce identical
// procedural jitter (blob phases, turtle shell variants, orbit phases).
type RNG struct {
	state uint32
}

const DefaultSeed uint32 = 1337

func NewRNG(seed uint32) *RNG {
	if seed == 0 {
		seed = DefaultSeed
	}
	return &RNG{state: seed}
}

// Reseed resets the stream to the given seed.
func (r *RNG) Reseed(seed uint32) {
	if seed == 0 {
		seed = DefaultSeed
	}
	r.state = seed
}

// Float64 returns the next value in [0, 1).
func (r *RNG) Float64() float64 {
	r.state += 0x6D2B79F5
	t := r.state
	t = (t ^ (t >> 15)) * (t | 1)
	t ^= t + (t^(t>>7))*(t|61)
	return float64((t^(t>>14))) / 4294967296.0
}

// Range returns the next value in [a, b).
func (r *RNG) Range(a, b float64) float64 {
	return a + r.Float64()*(b-a)
}

// Intn returns an integer in [0, n).
func (r *RNG) Intn(n int) int {
	if n <= 0 {
		return 0
	}
	return int(math.Floor(r.Float64() * float64(n)))
}
