// Package rng implements the subtractive lagged-Fibonacci generator used by
// the galaxy generator. The output stream is part of the generation
// contract: every seed must yield exactly the same sequence of samples.
package rng

import "math"

const (
	mbig  = math.MaxInt32
	mseed = 161803398
)

// Random is a seeded pseudo-random generator. It is not safe for concurrent
// use; each generation step owns its own instance.
type Random struct {
	inext     int
	inextp    int
	seed      int32
	seedArray [56]int32
}

// New creates a generator for the given seed.
// It panics for math.MinInt32, whose absolute value does not fit in an int32.
func New(seed int32) *Random {
	if seed == math.MinInt32 {
		panic("rng: seed math.MinInt32 is not supported")
	}
	abs := seed
	if abs < 0 {
		abs = -abs
	}

	r := &Random{seed: seed, inextp: 31}
	num1 := mseed - abs
	r.seedArray[55] = num1
	num2 := int32(1)
	for i := 1; i < 55; i++ {
		idx := (21 * i) % 55
		r.seedArray[idx] = num2
		num2 = num1 - num2
		if num2 < 0 {
			num2 += mbig
		}
		num1 = r.seedArray[idx]
	}
	for pass := 1; pass < 5; pass++ {
		for i := 1; i < 56; i++ {
			// int32 subtraction wraps like the reference implementation
			v := r.seedArray[i] - r.seedArray[1+(i+30)%55]
			if v < 0 {
				v += mbig
			}
			r.seedArray[i] = v
		}
	}
	return r
}

// Seed returns the seed the generator was created with.
func (r *Random) Seed() int32 {
	return r.seed
}

func (r *Random) sample() float64 {
	r.inext++
	if r.inext >= 56 {
		r.inext = 1
	}
	r.inextp++
	if r.inextp >= 56 {
		r.inextp = 1
	}
	num := r.seedArray[r.inext] - r.seedArray[r.inextp]
	if num < 0 {
		num += mbig
	}
	r.seedArray[r.inext] = num
	return float64(num) * (1.0 / float64(mbig))
}

// NextF64 returns the next sample in [0, 1).
func (r *Random) NextF64() float64 {
	return r.sample()
}

// NextF32 returns the next sample narrowed to float32.
func (r *Random) NextF32() float32 {
	return float32(r.sample())
}

// NextI32 returns an integer in [0, max).
func (r *Random) NextI32(max int32) int32 {
	return int32(r.sample() * float64(max))
}

// NextSeed returns a non-negative seed suitable for a child generator.
func (r *Random) NextSeed() int32 {
	return int32(r.sample() * float64(mbig))
}
