package rules

import (
	"encoding/json"
	"fmt"
	"slices"

	"github.com/daniacca/starseed/internal/worldgen"
)

// Kind names a rule variant in the declarative form.
type Kind string

const (
	KindBirth              Kind = "Birth"
	KindStarType           Kind = "StarType"
	KindBirthDistance      Kind = "BirthDistance"
	KindXDistance          Kind = "XDistance"
	KindSpectrDistance     Kind = "SpectrDistance"
	KindLuminosity         Kind = "Luminosity"
	KindSpectr             Kind = "Spectr"
	KindDysonRadius        Kind = "DysonRadius"
	KindPlanetCount        Kind = "PlanetCount"
	KindSatelliteCount     Kind = "SatelliteCount"
	KindGasCount           Kind = "GasCount"
	KindTidalLockCount     Kind = "TidalLockCount"
	KindPlanetInDysonCount Kind = "PlanetInDysonCount"
	KindThemeID            Kind = "ThemeId"
	KindOceanType          Kind = "OceanType"
	KindGasRate            Kind = "GasRate"
	KindAverageVeinAmount  Kind = "AverageVeinAmount"
	KindAnd                Kind = "And"
	KindOr                 Kind = "Or"
	KindComposite          Kind = "Composite"
	KindCompositeAnd       Kind = "CompositeAnd"
	KindCompositeOr        Kind = "CompositeOr"
)

var knownKinds = map[Kind]bool{
	KindBirth: true, KindStarType: true, KindBirthDistance: true, KindXDistance: true,
	KindSpectrDistance: true, KindLuminosity: true, KindSpectr: true, KindDysonRadius: true,
	KindPlanetCount: true, KindSatelliteCount: true, KindGasCount: true, KindTidalLockCount: true,
	KindPlanetInDysonCount: true, KindThemeID: true, KindOceanType: true, KindGasRate: true,
	KindAverageVeinAmount: true, KindAnd: true, KindOr: true, KindComposite: true,
	KindCompositeAnd: true, KindCompositeOr: true,
}

// Definition is the declarative, serializable form of a rule tree. Only
// the fields of its Kind are meaningful. It is compiled into a Rule with
// Compile.
type Definition struct {
	Type Kind

	Rule  *Definition
	Rules []Definition

	Condition         *Condition
	DistanceCondition *Condition
	CountCondition    *Condition

	StarTypes    []worldgen.StarType
	Spectr       worldgen.SpectrType
	Spectrs      []worldgen.SpectrType
	ExcludeGiant bool
	IncludeGiant bool
	Ice          *bool
	ThemeIDs     []int32
	OceanTypes   []int32
	GasType      int32
	Vein         worldgen.VeinType
}

type definitionJSON struct {
	Type              Kind                `json:"type"`
	Rule              *Definition         `json:"rule,omitempty"`
	Rules             []Definition        `json:"rules,omitempty"`
	Condition         *Condition          `json:"condition,omitempty"`
	DistanceCondition *Condition          `json:"distanceCondition,omitempty"`
	CountCondition    *Condition          `json:"countCondition,omitempty"`
	StarType          []worldgen.StarType `json:"starType,omitempty"`
	Spectr            json.RawMessage     `json:"spectr,omitempty"`
	ExcludeGiant      *bool               `json:"excludeGiant,omitempty"`
	IncludeGiant      *bool               `json:"includeGiant,omitempty"`
	Ice               *bool               `json:"ice,omitempty"`
	ThemeIDs          []int32             `json:"themeIds,omitempty"`
	OceanType         []int32             `json:"oceanType,omitempty"`
	GasType           *int32              `json:"gasType,omitempty"`
	Vein              *worldgen.VeinType  `json:"vein,omitempty"`
}

// MarshalJSON writes the type tag plus the fields of the variant.
func (d Definition) MarshalJSON() ([]byte, error) {
	out := definitionJSON{Type: d.Type}
	switch d.Type {
	case KindStarType:
		out.StarType = nonNil(d.StarTypes)
	case KindBirthDistance, KindXDistance, KindLuminosity, KindDysonRadius,
		KindSatelliteCount, KindTidalLockCount:
		out.Condition = d.Condition
	case KindSpectrDistance:
		raw, err := json.Marshal(d.Spectr)
		if err != nil {
			return nil, err
		}
		out.Spectr = raw
		out.DistanceCondition = d.DistanceCondition
		out.CountCondition = d.CountCondition
	case KindSpectr:
		raw, err := json.Marshal(nonNil(d.Spectrs))
		if err != nil {
			return nil, err
		}
		out.Spectr = raw
	case KindPlanetCount:
		out.Condition = d.Condition
		out.ExcludeGiant = &d.ExcludeGiant
	case KindGasCount:
		out.Condition = d.Condition
		out.Ice = d.Ice
	case KindPlanetInDysonCount:
		out.Condition = d.Condition
		out.IncludeGiant = &d.IncludeGiant
	case KindThemeID:
		out.ThemeIDs = nonNil(d.ThemeIDs)
	case KindOceanType:
		out.OceanType = nonNil(d.OceanTypes)
	case KindGasRate:
		out.Condition = d.Condition
		out.GasType = &d.GasType
	case KindAverageVeinAmount:
		out.Condition = d.Condition
		out.Vein = &d.Vein
	case KindComposite:
		out.Rule = d.Rule
		out.Condition = d.Condition
	case KindAnd, KindOr, KindCompositeAnd, KindCompositeOr:
		out.Rules = nonNil(d.Rules)
	}
	// Combinators always carry their rules, even when empty.
	if isCombinator(d.Type) && len(d.Rules) == 0 {
		return fmt.Appendf(nil, `{"type":%q,"rules":[]}`, d.Type), nil
	}
	return json.Marshal(out)
}

func (d *Definition) UnmarshalJSON(data []byte) error {
	var aux definitionJSON
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	if aux.Type == "" {
		return fmt.Errorf("rule type is required")
	}
	if !knownKinds[aux.Type] {
		return fmt.Errorf("unknown rule type %q", aux.Type)
	}
	out := Definition{
		Type:              aux.Type,
		Rule:              aux.Rule,
		Rules:             aux.Rules,
		Condition:         aux.Condition,
		DistanceCondition: aux.DistanceCondition,
		CountCondition:    aux.CountCondition,
		StarTypes:         aux.StarType,
		Ice:               aux.Ice,
		ThemeIDs:          aux.ThemeIDs,
		OceanTypes:        aux.OceanType,
	}
	if aux.ExcludeGiant != nil {
		out.ExcludeGiant = *aux.ExcludeGiant
	}
	if aux.IncludeGiant != nil {
		out.IncludeGiant = *aux.IncludeGiant
	}
	if aux.GasType != nil {
		out.GasType = *aux.GasType
	}
	if aux.Vein != nil {
		out.Vein = *aux.Vein
	}
	if len(aux.Spectr) > 0 {
		var err error
		switch aux.Type {
		case KindSpectrDistance:
			err = json.Unmarshal(aux.Spectr, &out.Spectr)
		case KindSpectr:
			err = json.Unmarshal(aux.Spectr, &out.Spectrs)
		}
		if err != nil {
			return fmt.Errorf("%s.spectr: %w", aux.Type, err)
		}
	}
	*d = out
	return nil
}

func isCombinator(k Kind) bool {
	switch k {
	case KindAnd, KindOr, KindCompositeAnd, KindCompositeOr:
		return true
	}
	return false
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// ParseDefinition decodes a JSON rule definition.
func ParseDefinition(data []byte) (Definition, error) {
	var d Definition
	if err := json.Unmarshal(data, &d); err != nil {
		return Definition{}, fmt.Errorf("decode rule: %w", err)
	}
	return d, nil
}

// Compile validates d and builds a fresh rule tree with the children of
// every combinator sorted by priority. All validation issues are reported
// together in a *ValidationError.
func Compile(d Definition) (Rule, error) {
	if err := Validate(d); err != nil {
		return nil, err
	}
	r := build(d)
	SortByPriority(r)
	return r, nil
}

func build(d Definition) Rule {
	switch d.Type {
	case KindBirth:
		return &Birth{}
	case KindStarType:
		return &StarType{Types: slices.Clone(d.StarTypes)}
	case KindBirthDistance:
		return &BirthDistance{Condition: *d.Condition}
	case KindXDistance:
		return &XDistance{Condition: *d.Condition}
	case KindSpectrDistance:
		return &SpectrDistance{Spectr: d.Spectr, DistanceCondition: *d.DistanceCondition, CountCondition: *d.CountCondition}
	case KindLuminosity:
		return &Luminosity{Condition: *d.Condition}
	case KindSpectr:
		return &Spectr{Types: slices.Clone(d.Spectrs)}
	case KindDysonRadius:
		return &DysonRadius{Condition: *d.Condition}
	case KindPlanetCount:
		return &PlanetCount{Condition: *d.Condition, ExcludeGiant: d.ExcludeGiant}
	case KindSatelliteCount:
		return &SatelliteCount{Condition: *d.Condition}
	case KindGasCount:
		r := &GasCount{Condition: *d.Condition}
		if d.Ice != nil {
			ice := *d.Ice
			r.Ice = &ice
		}
		return r
	case KindTidalLockCount:
		return &TidalLockCount{Condition: *d.Condition}
	case KindPlanetInDysonCount:
		return &PlanetInDysonCount{Condition: *d.Condition, IncludeGiant: d.IncludeGiant}
	case KindThemeID:
		return &ThemeID{IDs: slices.Clone(d.ThemeIDs)}
	case KindOceanType:
		return &OceanType{WaterItems: slices.Clone(d.OceanTypes)}
	case KindGasRate:
		return &GasRate{GasType: d.GasType, Condition: *d.Condition}
	case KindAverageVeinAmount:
		return &AverageVeinAmount{Vein: d.Vein, Condition: *d.Condition}
	case KindAnd:
		return &And{Rules: buildAll(d.Rules)}
	case KindOr:
		return &Or{Rules: buildAll(d.Rules)}
	case KindComposite:
		return &Composite{Rule: build(*d.Rule), Condition: *d.Condition}
	case KindCompositeAnd:
		return &CompositeAnd{Rules: buildAll(d.Rules)}
	case KindCompositeOr:
		return &CompositeOr{Rules: buildAll(d.Rules)}
	}
	panic(fmt.Sprintf("rules: unhandled kind %q", d.Type))
}

func buildAll(defs []Definition) []Rule {
	out := make([]Rule, 0, len(defs))
	for _, d := range defs {
		out = append(out, build(d))
	}
	return out
}
