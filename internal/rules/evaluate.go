package rules

import (
	"fmt"
	"slices"

	"github.com/daniacca/starseed/internal/worldgen"
)

// Evaluate returns the indices of the stars of g matched by r, in
// ascending order. Leaf rules only inspect stars below the evaluation
// frontier that are still undecided.
func Evaluate(r Rule, g *worldgen.Galaxy, ev *Evaluation) []int {
	switch r := r.(type) {
	case *Birth:
		return matchStars(g, ev, func(s *worldgen.Star) bool {
			return s.Index == 0
		})
	case *StarType:
		return matchStars(g, ev, func(s *worldgen.Star) bool {
			return slices.Contains(r.Types, s.Type)
		})
	case *BirthDistance:
		return matchStars(g, ev, func(s *worldgen.Star) bool {
			return r.Condition.Eval(float32(s.Position.Magnitude()))
		})
	case *XDistance:
		return r.evaluate(g, ev)
	case *SpectrDistance:
		return r.evaluate(g, ev)
	case *Luminosity:
		return matchStars(g, ev, func(s *worldgen.Star) bool {
			return r.Condition.Eval(s.Luminosity())
		})
	case *Spectr:
		return matchStars(g, ev, func(s *worldgen.Star) bool {
			return slices.Contains(r.Types, s.Spectr())
		})
	case *DysonRadius:
		return matchStars(g, ev, func(s *worldgen.Star) bool {
			return r.Condition.Eval(s.DysonRadius())
		})
	case *PlanetCount:
		return matchStars(g, ev, func(s *worldgen.Star) bool {
			return r.Condition.EvalCount(countPlanets(s, func(p *worldgen.Planet) bool {
				return !r.ExcludeGiant || !p.GasGiant
			}))
		})
	case *SatelliteCount:
		return matchStars(g, ev, func(s *worldgen.Star) bool {
			return r.Condition.EvalCount(countPlanets(s, (*worldgen.Planet).IsSatellite))
		})
	case *GasCount:
		return matchStars(g, ev, func(s *worldgen.Star) bool {
			return r.Condition.EvalCount(countPlanets(s, func(p *worldgen.Planet) bool {
				if r.Ice == nil {
					return p.GasGiant
				}
				return p.Type() == worldgen.PlanetGas && (p.Theme().Temperature < 0) == *r.Ice
			}))
		})
	case *TidalLockCount:
		return matchStars(g, ev, func(s *worldgen.Star) bool {
			return r.Condition.EvalCount(countPlanets(s, (*worldgen.Planet).IsTidalLocked))
		})
	case *PlanetInDysonCount:
		return matchStars(g, ev, func(s *worldgen.Star) bool {
			radius := s.DysonRadius()
			return r.Condition.EvalCount(countPlanets(s, func(p *worldgen.Planet) bool {
				return (r.IncludeGiant || !p.GasGiant) && p.SunDistance() < radius
			}))
		})
	case *ThemeID:
		return matchStars(g, ev, func(s *worldgen.Star) bool {
			return coversAll(s, r.IDs, func(p *worldgen.Planet) int32 { return p.Theme().ID })
		})
	case *OceanType:
		return matchStars(g, ev, func(s *worldgen.Star) bool {
			return coversAll(s, r.WaterItems, func(p *worldgen.Planet) int32 { return p.Theme().WaterItemID })
		})
	case *GasRate:
		return matchStars(g, ev, func(s *worldgen.Star) bool {
			var total float32
			for _, p := range s.Planets() {
				total += p.GasRate(r.GasType)
			}
			return r.Condition.Eval(total)
		})
	case *AverageVeinAmount:
		return matchStars(g, ev, func(s *worldgen.Star) bool {
			return r.Condition.Eval(s.AverageVein(r.Vein))
		})
	case *And:
		return evaluateAnd(r.Rules, g, ev)
	case *Or:
		return evaluateOr(r.Rules, g, ev)
	case *Composite:
		return metaResult(r.Condition.EvalCount(len(Evaluate(r.Rule, g, NewEvaluation(len(g.Stars))))))
	case *CompositeAnd:
		for _, child := range r.Rules {
			if len(Evaluate(child, g, NewEvaluation(len(g.Stars)))) == 0 {
				return []int{}
			}
		}
		return metaResult(true)
	case *CompositeOr:
		for _, child := range r.Rules {
			if len(Evaluate(child, g, NewEvaluation(len(g.Stars)))) > 0 {
				return metaResult(true)
			}
		}
		return []int{}
	}
	panic(fmt.Sprintf("rules: unhandled rule %T", r))
}

func metaResult(ok bool) []int {
	if ok {
		return []int{0}
	}
	return []int{}
}

func evaluateAnd(children []Rule, g *worldgen.Galaxy, ev *Evaluation) []int {
	local := ev.Clone()
	for _, child := range children {
		if local.IsDone() {
			break
		}
		local.RejectOthers(Evaluate(child, g, local))
	}
	return local.CollectUnknown()
}

func evaluateOr(children []Rule, g *worldgen.Galaxy, ev *Evaluation) []int {
	local := ev.Clone()
	for _, child := range children {
		if local.IsDone() {
			break
		}
		local.ConfirmMany(Evaluate(child, g, local))
	}
	return local.CollectKnown()
}

func matchStars(g *worldgen.Galaxy, ev *Evaluation, pred func(*worldgen.Star) bool) []int {
	out := []int{}
	n := min(ev.Len(), len(g.Stars))
	for i := 0; i < n; i++ {
		if ev.IsKnown(i) {
			continue
		}
		if pred(g.Stars[i]) {
			out = append(out, i)
		}
	}
	return out
}

func countPlanets(s *worldgen.Star, pred func(*worldgen.Planet) bool) int {
	n := 0
	for _, p := range s.Planets() {
		if pred(p) {
			n++
		}
	}
	return n
}

func coversAll(s *worldgen.Star, want []int32, key func(*worldgen.Planet) int32) bool {
	planets := s.Planets()
	for _, id := range want {
		found := false
		for _, p := range planets {
			if key(p) == id {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (r *XDistance) evaluate(g *worldgen.Galaxy, ev *Evaluation) []int {
	if !r.resolved {
		for _, s := range g.Stars {
			if s.Type.IsCompact() {
				r.targets = append(r.targets, s.Position)
			}
		}
		r.resolved = true
	}
	if len(r.targets) == 0 {
		return []int{}
	}
	return matchStars(g, ev, func(s *worldgen.Star) bool {
		for _, pos := range r.targets {
			if r.Condition.Eval(float32(s.Position.Distance(pos))) {
				return true
			}
		}
		return false
	})
}

func (r *SpectrDistance) evaluate(g *worldgen.Galaxy, ev *Evaluation) []int {
	if !r.resolved {
		for _, s := range g.Stars {
			if s.Spectr() == r.Spectr {
				r.targets = append(r.targets, s)
			}
		}
		r.resolved = true
	}
	return matchStars(g, ev, func(s *worldgen.Star) bool {
		n := 0
		for _, other := range r.targets {
			if other.Index != s.Index && r.DistanceCondition.Eval(float32(s.Position.Distance(other.Position))) {
				n++
			}
		}
		return r.CountCondition.EvalCount(n)
	})
}

// FindStars resets r and returns the stars of g it matches.
func FindStars(g *worldgen.Galaxy, r Rule) []int {
	Reset(r)
	return Evaluate(r, g, NewEvaluation(len(g.Stars)))
}

// FindStarsForDesc builds a lazy galaxy for desc and evaluates r on it.
// Only the data r actually needs gets generated.
func FindStarsForDesc(desc worldgen.GameDesc, catalog *worldgen.Catalog, r Rule) ([]int, error) {
	g, err := worldgen.NewGalaxy(desc, catalog)
	if err != nil {
		return nil, err
	}
	return FindStars(g, r), nil
}
