package worldgen

import (
	"encoding/json"
	"fmt"
	"math"

	"github.com/daniacca/starseed/internal/rng"
)

// Vein describes the deposits of one resource type on a rocky planet.
// Oil amounts are in units of 4e-5 per second.
type Vein struct {
	Type      VeinType `json:"veinType"`
	MinGroup  int32    `json:"minGroup"`
	MaxGroup  int32    `json:"maxGroup"`
	MinPatch  int32    `json:"minPatch"`
	MaxPatch  int32    `json:"maxPatch"`
	MinAmount int32    `json:"minAmount"`
	MaxAmount int32    `json:"maxAmount"`
}

// AverageAmount is the expected total amount of the vein on its planet.
func (v Vein) AverageAmount() float32 {
	return float32(v.MinPatch+v.MaxPatch) *
		float32(v.MinGroup+v.MaxGroup) *
		float32(v.MinAmount+v.MaxAmount) / 8
}

// Gas is one orbital collector output of a gas giant.
type Gas struct {
	ItemID int32
	Rate   float32
}

// MarshalJSON encodes the pair as [itemId, rate].
func (g Gas) MarshalJSON() ([]byte, error) {
	return json.Marshal([2]any{g.ItemID, g.Rate})
}

func (g *Gas) UnmarshalJSON(data []byte) error {
	var pair []json.Number
	if err := json.Unmarshal(data, &pair); err != nil {
		return err
	}
	if len(pair) != 2 {
		return fmt.Errorf("gas: expected [itemId, rate], got %d values", len(pair))
	}
	item, err := pair[0].Int64()
	if err != nil {
		return fmt.Errorf("gas item: %w", err)
	}
	rate, err := pair[1].Float64()
	if err != nil {
		return fmt.Errorf("gas rate: %w", err)
	}
	g.ItemID, g.Rate = int32(item), float32(rate)
	return nil
}

// Veins returns the deposits of a rocky planet, or nil for a gas giant.
func (p *Planet) Veins() []Vein {
	p.loadResources()
	return p.veins
}

// Gases returns the collectable gases of a gas giant, or nil for a rocky
// planet.
func (p *Planet) Gases() []Gas {
	p.loadResources()
	return p.gases
}

// GasRate sums the rates of one gas item on this planet.
func (p *Planet) GasRate(itemID int32) float32 {
	var total float32
	for _, g := range p.Gases() {
		if g.ItemID == itemID {
			total += g.Rate
		}
	}
	return total
}

func (p *Planet) loadResources() {
	if p.resourcesOK {
		return
	}
	if p.Type() == PlanetGas {
		p.gases = p.generateGases()
	} else {
		p.veins = p.generateVeins()
	}
	p.resourcesOK = true
	p.star.galaxy.stats.VeinPasses++
}

func (p *Planet) generateGases() []Gas {
	theme := p.Theme()
	coef := p.star.galaxy.Desc.GasCoef()
	starCoef := pow32(p.star.ResourceCoef(), 0.3)
	r := rng.New(p.ThemeSeed)

	gases := make([]Gas, 0, len(theme.GasItems))
	for i, item := range theme.GasItems {
		rate := theme.GasSpeeds[i] * (r.NextF32()*21/110 + 10.0/11) * coef
		gases = append(gases, Gas{ItemID: item, Rate: rate * starCoef})
	}
	return gases
}

// veinRichness is the rare vein exponent for the star's class.
func (s *Star) veinRichness() float32 {
	switch s.Type {
	case GiantStar:
		return 2.5
	case WhiteDwarf:
		return 3.5
	case NeutronStar:
		return 4.5
	case BlackHole:
		return 5
	}
	switch s.Spectr() {
	case SpectrM:
		return 2.5
	case SpectrG:
		return 0.7
	case SpectrF:
		return 0.6
	case SpectrB:
		return 0.4
	case SpectrO:
		return 1.6
	}
	return 1
}

func (p *Planet) generateVeins() []Vein {
	s := p.star
	desc := s.galaxy.Desc
	theme := p.Theme()
	r := rng.New(p.Seed)
	for i := 0; i < 6; i++ {
		r.NextF64()
	}

	var spots [veinMax]int32
	var counts, opacities [veinMax]float32
	for i := range theme.VeinSpot {
		spots[i+1] = theme.VeinSpot[i]
	}
	for i := range theme.VeinCount {
		counts[i+1] = theme.VeinCount[i]
	}
	for i := range theme.VeinOpacity {
		opacities[i+1] = theme.VeinOpacity[i]
	}

	addUntil := func(v VeinType, chance float64) {
		for i := 1; i < 12; i++ {
			if r.NextF64() >= chance {
				break
			}
			spots[v]++
		}
	}
	boost := func(v VeinType, base int32, chance float64, count, opacity float32) {
		spots[v] += base
		addUntil(v, chance)
		counts[v] = count
		opacities[v] = opacity
	}

	switch s.Type {
	case WhiteDwarf:
		boost(VeinDiamond, 2, 0.45, 0.7, 1)
		boost(VeinFractal, 2, 0.45, 0.7, 1)
		boost(VeinGrat, 1, 0.5, 0.7, 0.3)
	case NeutronStar, BlackHole:
		boost(VeinMag, 1, 0.65, 0.7, 0.3)
	}
	richness := s.veinRichness()

	f := s.ResourceCoef()
	if theme.Distribute == DistributeBirth {
		f *= 0.6666667
	} else if desc.IsRareResource() {
		if f > 1 {
			f = pow32(f, 0.8)
		}
		f *= 0.7
	}

	for i, v := range theme.RareVeins {
		settings := theme.RareSettings[i*4 : i*4+4]
		chance := settings[1]
		if s.IsBirth() {
			chance = settings[0]
		}
		odds := 1 - pow32(1-chance, richness)
		amount := 1 - pow32(1-settings[3], richness)
		if r.NextF64() < float64(odds) {
			spots[v]++
			counts[v] = amount
			opacities[v] = amount
			addUntil(v, float64(settings[2]))
		}
	}

	var veins []Vein
	for v := VeinIron; v < veinMax; v++ {
		n := spots[v]
		if n <= 0 {
			continue
		}
		vein := Vein{Type: v, MinGroup: n - 1, MaxGroup: n + 1}
		coef := f
		if v == VeinOil {
			vein.MinPatch, vein.MaxPatch = 1, 1
			coef = pow32(f, 0.5)
		} else {
			vein.MinPatch = int32(round32(counts[v] * 20))
			vein.MaxPatch = int32(round32(counts[v] * 24))
		}
		if desc.IsInfiniteResource() && v != VeinOil {
			vein.MinAmount, vein.MaxAmount = 1, 1
		} else {
			mid := max(int32(round32(opacities[v]*100000*coef)), 20)
			spread := int32(15000)
			if mid < 16000 {
				spread = int32(math.Floor(float64(float32(mid) * (15.0 / 16.0))))
			}
			multiplier := desc.ResourceMultiplier
			if v == VeinOil {
				multiplier = desc.OilAmountMultiplier()
			}
			scale := func(amount int32) int32 {
				x := round32(float32(amount) * 1.1)
				return max(int32(round32(x*multiplier)), 1)
			}
			vein.MinAmount = scale(mid - spread)
			vein.MaxAmount = scale(mid + spread)
		}
		veins = append(veins, vein)
	}
	return veins
}
