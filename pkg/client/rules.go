// Package client builds star search rules and talks to a starseed server
// over HTTP and WebSocket.
package client

import (
	"encoding/json"

	"github.com/daniacca/starseed/internal/rules"
	"github.com/daniacca/starseed/internal/worldgen"
)

type (
	// GameDesc selects the galaxy to generate.
	GameDesc = worldgen.GameDesc
	// Condition compares a star or planet value against bounds.
	Condition = rules.Condition
	// Definition is the serializable rule tree sent to the server.
	Definition = rules.Definition

	StarType   = worldgen.StarType
	SpectrType = worldgen.SpectrType
	VeinType   = worldgen.VeinType
)

const (
	MainSeqStar = worldgen.MainSeqStar
	GiantStar   = worldgen.GiantStar
	WhiteDwarf  = worldgen.WhiteDwarf
	NeutronStar = worldgen.NeutronStar
	BlackHole   = worldgen.BlackHole

	SpectrM = worldgen.SpectrM
	SpectrK = worldgen.SpectrK
	SpectrG = worldgen.SpectrG
	SpectrF = worldgen.SpectrF
	SpectrA = worldgen.SpectrA
	SpectrB = worldgen.SpectrB
	SpectrO = worldgen.SpectrO
	SpectrX = worldgen.SpectrX

	VeinIron     = worldgen.VeinIron
	VeinCopper   = worldgen.VeinCopper
	VeinSilicium = worldgen.VeinSilicium
	VeinTitanium = worldgen.VeinTitanium
	VeinStone    = worldgen.VeinStone
	VeinCoal     = worldgen.VeinCoal
	VeinOil      = worldgen.VeinOil
	VeinFireice  = worldgen.VeinFireice
	VeinDiamond  = worldgen.VeinDiamond
	VeinFractal  = worldgen.VeinFractal
	VeinCrysrub  = worldgen.VeinCrysrub
	VeinGrat     = worldgen.VeinGrat
	VeinBamboo   = worldgen.VeinBamboo
	VeinMag      = worldgen.VeinMag
)

// Condition constructors.
var (
	Eq         = rules.Eq
	Neq        = rules.Neq
	Lt         = rules.Lt
	Lte        = rules.Lte
	Gt         = rules.Gt
	Gte        = rules.Gte
	Between    = rules.Between
	NotBetween = rules.NotBetween
)

// NewGame returns a game description with the default star count and
// resource multiplier.
func NewGame(seed int32) GameDesc {
	return worldgen.NewGameDesc(seed)
}

// RuleBuilder provides a fluent API for building rule definitions.
// Leaf constructors select stars by one property; And, Or and the
// composite forms combine them.
type RuleBuilder struct {
	def rules.Definition
}

func leaf(kind rules.Kind, c *Condition) *RuleBuilder {
	return &RuleBuilder{def: rules.Definition{Type: kind, Condition: c}}
}

func children(rbs []*RuleBuilder) []rules.Definition {
	defs := make([]rules.Definition, 0, len(rbs))
	for _, rb := range rbs {
		defs = append(defs, rb.Build())
	}
	return defs
}

// Birth selects the birth star.
func Birth() *RuleBuilder {
	return &RuleBuilder{def: rules.Definition{Type: rules.KindBirth}}
}

// StarTypes selects stars of any of the given types.
func StarTypes(types ...StarType) *RuleBuilder {
	return &RuleBuilder{def: rules.Definition{Type: rules.KindStarType, StarTypes: types}}
}

// BirthDistance selects stars by their distance to the birth star in
// light years.
func BirthDistance(c Condition) *RuleBuilder { return leaf(rules.KindBirthDistance, &c) }

// XDistance selects stars by their distance to the nearest black hole or
// neutron star.
func XDistance(c Condition) *RuleBuilder { return leaf(rules.KindXDistance, &c) }

// SpectrDistance selects stars where the number of other stars of spectral
// class s within distance satisfies count.
func SpectrDistance(s SpectrType, distance, count Condition) *RuleBuilder {
	return &RuleBuilder{def: rules.Definition{
		Type:              rules.KindSpectrDistance,
		Spectr:            s,
		DistanceCondition: &distance,
		CountCondition:    &count,
	}}
}

func Luminosity(c Condition) *RuleBuilder  { return leaf(rules.KindLuminosity, &c) }
func DysonRadius(c Condition) *RuleBuilder { return leaf(rules.KindDysonRadius, &c) }

// Spectr selects stars of any of the given spectral classes.
func Spectr(classes ...SpectrType) *RuleBuilder {
	return &RuleBuilder{def: rules.Definition{Type: rules.KindSpectr, Spectrs: classes}}
}

// PlanetCount counts all planets of a star; see ExcludeGiant.
func PlanetCount(c Condition) *RuleBuilder { return leaf(rules.KindPlanetCount, &c) }

func SatelliteCount(c Condition) *RuleBuilder { return leaf(rules.KindSatelliteCount, &c) }

// GasCount counts gas giants; see Ice.
func GasCount(c Condition) *RuleBuilder { return leaf(rules.KindGasCount, &c) }

func TidalLockCount(c Condition) *RuleBuilder { return leaf(rules.KindTidalLockCount, &c) }

// PlanetInDysonCount counts planets orbiting inside the dyson sphere radius;
// see IncludeGiant.
func PlanetInDysonCount(c Condition) *RuleBuilder { return leaf(rules.KindPlanetInDysonCount, &c) }

// ThemeIDs selects stars having a planet of every given theme.
func ThemeIDs(ids ...int32) *RuleBuilder {
	return &RuleBuilder{def: rules.Definition{Type: rules.KindThemeID, ThemeIDs: ids}}
}

// OceanTypes selects stars having a planet for every given water item.
func OceanTypes(items ...int32) *RuleBuilder {
	return &RuleBuilder{def: rules.Definition{Type: rules.KindOceanType, OceanTypes: items}}
}

// GasRate selects stars with a gas giant producing gasType at a rate
// satisfying c.
func GasRate(gasType int32, c Condition) *RuleBuilder {
	rb := leaf(rules.KindGasRate, &c)
	rb.def.GasType = gasType
	return rb
}

// AverageVein selects stars by the average amount of a vein over their
// planets.
func AverageVein(v VeinType, c Condition) *RuleBuilder {
	rb := leaf(rules.KindAverageVeinAmount, &c)
	rb.def.Vein = v
	return rb
}

// And keeps the stars every child selects.
func And(rbs ...*RuleBuilder) *RuleBuilder {
	return &RuleBuilder{def: rules.Definition{Type: rules.KindAnd, Rules: children(rbs)}}
}

// Or keeps the stars any child selects.
func Or(rbs ...*RuleBuilder) *RuleBuilder {
	return &RuleBuilder{def: rules.Definition{Type: rules.KindOr, Rules: children(rbs)}}
}

// Composite matches the galaxy when the number of stars rb selects
// satisfies c.
func Composite(rb *RuleBuilder, c Condition) *RuleBuilder {
	inner := rb.Build()
	return &RuleBuilder{def: rules.Definition{Type: rules.KindComposite, Rule: &inner, Condition: &c}}
}

// CompositeAnd matches the galaxy when every child matches it.
func CompositeAnd(rbs ...*RuleBuilder) *RuleBuilder {
	return &RuleBuilder{def: rules.Definition{Type: rules.KindCompositeAnd, Rules: children(rbs)}}
}

// CompositeOr matches the galaxy when any child matches it.
func CompositeOr(rbs ...*RuleBuilder) *RuleBuilder {
	return &RuleBuilder{def: rules.Definition{Type: rules.KindCompositeOr, Rules: children(rbs)}}
}

// ExcludeGiant leaves gas giants out of a PlanetCount.
func (rb *RuleBuilder) ExcludeGiant() *RuleBuilder {
	rb.def.ExcludeGiant = true
	return rb
}

// IncludeGiant counts gas giants in a PlanetInDysonCount.
func (rb *RuleBuilder) IncludeGiant() *RuleBuilder {
	rb.def.IncludeGiant = true
	return rb
}

// Ice restricts a GasCount to ice giants (true) or gas giants (false).
func (rb *RuleBuilder) Ice(ice bool) *RuleBuilder {
	rb.def.Ice = &ice
	return rb
}

// Build returns the rule definition.
func (rb *RuleBuilder) Build() Definition {
	return rb.def
}

// Validate reports every structural problem of the rule.
func (rb *RuleBuilder) Validate() error {
	return rules.Validate(rb.def)
}

// JSON returns the rule in the wire format the server accepts.
func (rb *RuleBuilder) JSON() ([]byte, error) {
	return json.Marshal(rb.def)
}
