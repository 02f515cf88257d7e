package rules

import (
	"slices"

	"github.com/daniacca/starseed/internal/worldgen"
)

// Rule is a compiled rule tree node. The set of variants is closed; Evaluate
// and Priority dispatch on the concrete type.
//
// A rule tree may cache per-galaxy data and must be used by one goroutine
// at a time. Call Reset before evaluating it against another galaxy.
type Rule interface {
	isRule()
}

// Birth matches the birth star.
type Birth struct{}

// StarType matches stars whose type is in Types.
type StarType struct {
	Types []worldgen.StarType
}

// BirthDistance matches stars whose distance to the birth star satisfies
// Condition, in light years.
type BirthDistance struct {
	Condition Condition
}

// XDistance matches stars with at least one black hole or neutron star at
// a distance satisfying Condition.
type XDistance struct {
	Condition Condition

	targets  []worldgen.Vector3
	resolved bool
}

// SpectrDistance counts the other stars of class Spectr whose distance
// satisfies DistanceCondition and matches when the count satisfies
// CountCondition.
type SpectrDistance struct {
	Spectr            worldgen.SpectrType
	DistanceCondition Condition
	CountCondition    Condition

	targets  []*worldgen.Star
	resolved bool
}

type Luminosity struct {
	Condition Condition
}

// Spectr matches stars whose spectral class is in Types.
type Spectr struct {
	Types []worldgen.SpectrType
}

type DysonRadius struct {
	Condition Condition
}

// PlanetCount counts planets, optionally leaving gas giants out.
type PlanetCount struct {
	Condition    Condition
	ExcludeGiant bool
}

type SatelliteCount struct {
	Condition Condition
}

// GasCount counts gas giants. With Ice set only giants whose theme is cold
// (Ice true) or warm (Ice false) are counted, which needs themes.
type GasCount struct {
	Ice       *bool
	Condition Condition
}

type TidalLockCount struct {
	Condition Condition
}

// PlanetInDysonCount counts planets orbiting inside the dyson sphere radius.
type PlanetInDysonCount struct {
	IncludeGiant bool
	Condition    Condition
}

// ThemeID matches stars where every listed theme is used by some planet.
type ThemeID struct {
	IDs []int32
}

// OceanType matches stars where every listed water item appears on some
// planet.
type OceanType struct {
	WaterItems []int32
}

// GasRate sums the collection rate of one gas item over all planets.
type GasRate struct {
	GasType   int32
	Condition Condition
}

// AverageVeinAmount compares the expected total amount of one vein type.
type AverageVeinAmount struct {
	Vein      worldgen.VeinType
	Condition Condition
}

// And narrows the candidate set through each child in turn.
type And struct {
	Rules []Rule
}

// Or accepts the matches of each child in turn.
type Or struct {
	Rules []Rule
}

// Composite yields the birth star when the number of stars matching Rule
// satisfies Condition. It turns a star filter into a galaxy filter.
type Composite struct {
	Rule      Rule
	Condition Condition
}

// CompositeAnd yields the birth star when every child yields something.
type CompositeAnd struct {
	Rules []Rule
}

// CompositeOr yields the birth star when some child yields something.
type CompositeOr struct {
	Rules []Rule
}

func (*Birth) isRule()              {}
func (*StarType) isRule()           {}
func (*BirthDistance) isRule()      {}
func (*XDistance) isRule()          {}
func (*SpectrDistance) isRule()     {}
func (*Luminosity) isRule()         {}
func (*Spectr) isRule()             {}
func (*DysonRadius) isRule()        {}
func (*PlanetCount) isRule()        {}
func (*SatelliteCount) isRule()     {}
func (*GasCount) isRule()           {}
func (*TidalLockCount) isRule()     {}
func (*PlanetInDysonCount) isRule() {}
func (*ThemeID) isRule()            {}
func (*OceanType) isRule()          {}
func (*GasRate) isRule()            {}
func (*AverageVeinAmount) isRule()  {}
func (*And) isRule()                {}
func (*Or) isRule()                 {}
func (*Composite) isRule()          {}
func (*CompositeAnd) isRule()       {}
func (*CompositeOr) isRule()        {}

// Priority orders rules by evaluation cost. Star level predicates come
// first, then planet layout, then themes, then veins and gases.
func Priority(r Rule) int {
	switch r := r.(type) {
	case *Birth:
		return 10
	case *StarType:
		return 11
	case *BirthDistance:
		return 12
	case *XDistance:
		return 13
	case *SpectrDistance:
		return 14
	case *Luminosity:
		return 20
	case *Spectr:
		return 21
	case *DysonRadius:
		return 22
	case *PlanetCount:
		return 30
	case *SatelliteCount:
		return 31
	case *GasCount:
		if r.Ice == nil {
			return 32
		}
		return 41
	case *TidalLockCount:
		return 33
	case *PlanetInDysonCount:
		return 34
	case *ThemeID:
		return 40
	case *OceanType:
		return 42
	case *GasRate:
		return 50
	case *AverageVeinAmount:
		return 51
	case *And:
		return maxPriority(r.Rules)
	case *Or:
		return maxPriority(r.Rules)
	case *Composite:
		if r.Rule == nil {
			return 0
		}
		return Priority(r.Rule)
	case *CompositeAnd:
		return maxPriority(r.Rules)
	case *CompositeOr:
		return maxPriority(r.Rules)
	}
	return 0
}

func maxPriority(rules []Rule) int {
	p := 0
	for _, r := range rules {
		p = max(p, Priority(r))
	}
	return p
}

// SortByPriority orders the children of every combinator in the tree so
// cheaper rules run first. The sort is stable.
func SortByPriority(r Rule) {
	var children []Rule
	switch r := r.(type) {
	case *And:
		children = r.Rules
	case *Or:
		children = r.Rules
	case *CompositeAnd:
		children = r.Rules
	case *CompositeOr:
		children = r.Rules
	case *Composite:
		if r.Rule != nil {
			SortByPriority(r.Rule)
		}
		return
	default:
		return
	}
	for _, c := range children {
		SortByPriority(c)
	}
	slices.SortStableFunc(children, func(a, b Rule) int {
		return Priority(a) - Priority(b)
	})
}

// Reset drops every per-galaxy cache in the tree.
func Reset(r Rule) {
	switch r := r.(type) {
	case *XDistance:
		r.targets, r.resolved = nil, false
	case *SpectrDistance:
		r.targets, r.resolved = nil, false
	case *And:
		resetAll(r.Rules)
	case *Or:
		resetAll(r.Rules)
	case *Composite:
		if r.Rule != nil {
			Reset(r.Rule)
		}
	case *CompositeAnd:
		resetAll(r.Rules)
	case *CompositeOr:
		resetAll(r.Rules)
	}
}

func resetAll(rules []Rule) {
	for _, r := range rules {
		Reset(r)
	}
}
