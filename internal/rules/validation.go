package rules

import (
	"fmt"
	"strings"

	"github.com/daniacca/starseed/internal/worldgen"
)

// ValidationError collects every problem found in a rule definition.
type ValidationError struct {
	Issues []string
}

func (e *ValidationError) Error() string {
	if len(e.Issues) == 0 {
		return "invalid rule: unknown validation error"
	}
	if len(e.Issues) == 1 {
		return "invalid rule: " + e.Issues[0]
	}
	return "rule validation errors: " + strings.Join(e.Issues, "; ")
}

func (e *ValidationError) Add(issue string) {
	e.Issues = append(e.Issues, issue)
}

func (e *ValidationError) Addf(format string, args ...any) {
	e.Add(fmt.Sprintf(format, args...))
}

func (e *ValidationError) HasIssues() bool {
	return len(e.Issues) > 0
}

// Validate checks the structure of a rule definition. It returns a
// *ValidationError listing every issue, or nil.
func Validate(d Definition) error {
	err := &ValidationError{}
	validateDefinition(d, "rule", err)
	if err.HasIssues() {
		return err
	}
	return nil
}

func validateDefinition(d Definition, path string, err *ValidationError) {
	switch d.Type {
	case "":
		err.Addf("%s: type is required", path)
	case KindBirth:
	case KindStarType:
		if len(d.StarTypes) == 0 {
			err.Addf("%s.starType: must not be empty", path)
		}
		for i, t := range d.StarTypes {
			if t < worldgen.MainSeqStar || t > worldgen.BlackHole {
				err.Addf("%s.starType[%d]: invalid star type %d", path, i, int32(t))
			}
		}
	case KindBirthDistance, KindXDistance, KindLuminosity, KindDysonRadius,
		KindPlanetCount, KindSatelliteCount, KindGasCount, KindTidalLockCount,
		KindPlanetInDysonCount:
		validateCondition(d.Condition, path+".condition", err)
	case KindSpectrDistance:
		validateSpectr(d.Spectr, path+".spectr", err)
		validateCondition(d.DistanceCondition, path+".distanceCondition", err)
		validateCondition(d.CountCondition, path+".countCondition", err)
	case KindSpectr:
		if len(d.Spectrs) == 0 {
			err.Addf("%s.spectr: must not be empty", path)
		}
		for i, s := range d.Spectrs {
			validateSpectr(s, fmt.Sprintf("%s.spectr[%d]", path, i), err)
		}
	case KindThemeID:
		if len(d.ThemeIDs) == 0 {
			err.Addf("%s.themeIds: must not be empty", path)
		}
	case KindOceanType:
		if len(d.OceanTypes) == 0 {
			err.Addf("%s.oceanType: must not be empty", path)
		}
	case KindGasRate:
		if d.GasType <= 0 {
			err.Addf("%s.gasType: must be a positive item id", path)
		}
		validateCondition(d.Condition, path+".condition", err)
	case KindAverageVeinAmount:
		if d.Vein <= worldgen.VeinNone || d.Vein > worldgen.VeinMag {
			err.Addf("%s.vein: invalid vein type %d", path, int32(d.Vein))
		}
		validateCondition(d.Condition, path+".condition", err)
	case KindComposite:
		if d.Rule == nil {
			err.Addf("%s.rule: is required", path)
		} else {
			validateDefinition(*d.Rule, path+".rule", err)
		}
		validateCondition(d.Condition, path+".condition", err)
	case KindAnd, KindOr, KindCompositeAnd, KindCompositeOr:
		for i, child := range d.Rules {
			validateDefinition(child, fmt.Sprintf("%s.rules[%d]", path, i), err)
		}
	default:
		err.Addf("%s: unknown rule type %q", path, d.Type)
	}
}

func validateCondition(c *Condition, path string, err *ValidationError) {
	if c == nil {
		err.Addf("%s: is required", path)
		return
	}
	if !c.Op.valid() {
		err.Addf("%s: unknown operator %q", path, c.Op)
	}
}

func validateSpectr(s worldgen.SpectrType, path string, err *ValidationError) {
	if s < worldgen.SpectrM || s > worldgen.SpectrX {
		err.Addf("%s: invalid spectral class %d", path, int32(s))
	}
}
