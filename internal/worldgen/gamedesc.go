package worldgen

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
)

const (
	DefaultStarCount          = 64
	DefaultResourceMultiplier = 1.0
	MaxStarCount              = 1024
)

// ErrInvalidSeed is returned for the one seed the generator cannot accept.
var ErrInvalidSeed = errors.New("seed math.MinInt32 is not supported")

// GameDesc holds the parameters a galaxy is generated from.
type GameDesc struct {
	Seed               int32   `json:"seed"`
	StarCount          int32   `json:"starCount"`
	ResourceMultiplier float32 `json:"resourceMultiplier"`
}

// NewGameDesc returns a description with default star count and resources.
func NewGameDesc(seed int32) GameDesc {
	return GameDesc{
		Seed:               seed,
		StarCount:          DefaultStarCount,
		ResourceMultiplier: DefaultResourceMultiplier,
	}
}

// UnmarshalJSON fills omitted optional fields with their defaults.
func (d *GameDesc) UnmarshalJSON(data []byte) error {
	type alias GameDesc
	out := alias(NewGameDesc(0))
	if err := json.Unmarshal(data, &out); err != nil {
		return err
	}
	*d = GameDesc(out)
	return nil
}

// Validate rejects inputs outside the generator's contract.
func (d GameDesc) Validate() error {
	if d.Seed == math.MinInt32 {
		return ErrInvalidSeed
	}
	if d.StarCount < 1 || d.StarCount > MaxStarCount {
		return fmt.Errorf("star count %d out of range [1, %d]", d.StarCount, MaxStarCount)
	}
	if !(d.ResourceMultiplier > 0) {
		return fmt.Errorf("resource multiplier must be positive, got %v", d.ResourceMultiplier)
	}
	return nil
}

func (d GameDesc) IsInfiniteResource() bool {
	return d.ResourceMultiplier >= 99.5
}

func (d GameDesc) IsRareResource() bool {
	return d.ResourceMultiplier <= 0.100100003182888
}

func (d GameDesc) OilAmountMultiplier() float32 {
	if d.IsRareResource() {
		return 0.5
	}
	return 1.0
}

func (d GameDesc) GasCoef() float32 {
	if d.IsRareResource() {
		return 0.8
	}
	return 1.0
}
