package rng

import (
	"math"
	"testing"
)

func TestRandom_GoldenSeedOne(t *testing.T) {
	r := New(1)
	expected := []float64{
		0.3668545910002918,
		0.20793473031741322,
		0.9534165486476461,
		0.25244181428684004,
		0.9074322701932082,
	}
	for i, want := range expected {
		got := r.NextF64()
		if got != want {
			t.Errorf("draw %d: expected %v, got %v", i, want, got)
		}
	}
}

func TestRandom_GoldenLargeSeed(t *testing.T) {
	r := New(1575693681)
	expected := []float64{
		0.7679300078972848,
		0.7785721038368401,
		0.7108933994131598,
		0.21661002524970566,
		0.2745889184412495,
	}
	for i, want := range expected {
		got := r.NextF64()
		if got != want {
			t.Errorf("draw %d: expected %v, got %v", i, want, got)
		}
	}
}

func TestRandom_NegativeSeedMatchesAbsolute(t *testing.T) {
	a := New(12345)
	b := New(-12345)
	for i := 0; i < 100; i++ {
		if x, y := a.NextF64(), b.NextF64(); x != y {
			t.Fatalf("draw %d: expected %v, got %v", i, x, y)
		}
	}
}

func TestRandom_Range(t *testing.T) {
	r := New(42)
	for i := 0; i < 10000; i++ {
		v := r.NextF64()
		if v < 0 || v >= 1 {
			t.Fatalf("Expected sample in [0,1), got %v", v)
		}
	}
}

func TestRandom_DerivedDraws(t *testing.T) {
	a := New(7)
	b := New(7)

	f := b.NextF64()
	if got := a.NextSeed(); got != int32(f*float64(math.MaxInt32)) {
		t.Errorf("Expected seed %d, got %d", int32(f*float64(math.MaxInt32)), got)
	}
	f = b.NextF64()
	if got := a.NextF32(); got != float32(f) {
		t.Errorf("Expected %v, got %v", float32(f), got)
	}
	f = b.NextF64()
	if got := a.NextI32(10); got != int32(f*10) {
		t.Errorf("Expected %d, got %d", int32(f*10), got)
	}
	if got := a.NextSeed(); got < 0 {
		t.Errorf("Expected non-negative seed, got %d", got)
	}
}

func TestRandom_MinInt32Panics(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("Expected panic for math.MinInt32 seed")
		}
	}()
	New(math.MinInt32)
}

func TestRandom_Seed(t *testing.T) {
	if got := New(99).Seed(); got != 99 {
		t.Errorf("Expected seed 99, got %d", got)
	}
}
