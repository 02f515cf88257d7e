package worldgen

import "math"

// cached holds a value computed on first access. Entities that embed it are
// owned by a single goroutine while they are being queried.
type cached[T any] struct {
	val T
	ok  bool
}

func (c *cached[T]) get(compute func() T) T {
	if !c.ok {
		c.val = compute()
		c.ok = true
	}
	return c.val
}

func (c *cached[T]) loaded() bool {
	return c.ok
}

func pow32(x, y float32) float32 {
	return float32(math.Pow(float64(x), float64(y)))
}

func ln32(x float32) float32 {
	return float32(math.Log(float64(x)))
}

func round32(x float32) float32 {
	return float32(math.Round(float64(x)))
}

func clamp32(x, lo, hi float32) float32 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}

func clamp64(x, lo, hi float64) float64 {
	if x < lo {
		return lo
	}
	if x > hi {
		return hi
	}
	return x
}
