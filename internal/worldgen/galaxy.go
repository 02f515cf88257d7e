package worldgen

import (
	"math"

	"github.com/daniacca/starseed/internal/rng"
)

// Stats counts the generation passes a galaxy has run. It exposes how much
// of the lazy pipeline a query actually touched.
type Stats struct {
	// PlanetPasses is the number of stars whose orbital layout was built.
	PlanetPasses int `json:"planetPasses"`
	// TypePasses is the number of stars whose planets were classified.
	TypePasses int `json:"typePasses"`
	// ThemePasses is the number of stars whose planets received themes.
	ThemePasses int `json:"themePasses"`
	// VeinPasses is the number of planets whose veins or gases were rolled.
	VeinPasses int `json:"veinPasses"`
}

// genContext is the mutable state shared by every star of one galaxy while
// planet types are assigned.
type genContext struct {
	habitableCount int32
	typedStars     int
}

// Galaxy is one generated galaxy. A Galaxy and everything reachable from it
// must be owned by a single goroutine.
type Galaxy struct {
	Seed  int32
	Desc  GameDesc
	Stars []*Star

	catalog *Catalog
	ctx     genContext
	stats   Stats
}

// NewGalaxy lays out the stars of desc without generating any planet data.
// Planets, themes and veins are produced on first access. A nil catalog
// selects the built-in one.
func NewGalaxy(desc GameDesc, catalog *Catalog) (*Galaxy, error) {
	if err := desc.Validate(); err != nil {
		return nil, err
	}
	if catalog == nil {
		catalog = DefaultCatalog()
	}
	g := &Galaxy{
		Seed:    desc.Seed,
		Desc:    desc,
		catalog: catalog,
	}
	g.generateStars()
	return g, nil
}

// CreateGalaxy generates a galaxy with every planet, theme, vein and gas
// loaded.
func CreateGalaxy(desc GameDesc, catalog *Catalog) (*Galaxy, error) {
	g, err := NewGalaxy(desc, catalog)
	if err != nil {
		return nil, err
	}
	g.LoadAll()
	return g, nil
}

// LoadAll forces every lazy stage of every star.
func (g *Galaxy) LoadAll() {
	for _, s := range g.Stars {
		s.loadThemes()
		for _, p := range s.Planets() {
			p.loadResources()
		}
	}
}

func (g *Galaxy) Catalog() *Catalog {
	return g.catalog
}

func (g *Galaxy) Stats() Stats {
	return g.stats
}

// HabitableCount is the number of planets classified as habitable so far.
func (g *Galaxy) HabitableCount() int32 {
	return g.ctx.habitableCount
}

func (g *Galaxy) generateStars() {
	r := rng.New(g.Desc.Seed)
	poses := GeneratePositions(r.NextSeed(), int(g.Desc.StarCount),
		layoutIterCount, layoutMinDist, layoutMinStepLen, layoutMaxStepLen, layoutFlatten)
	count := int32(len(poses))

	num1 := r.NextF32()
	num2 := r.NextF32()
	num3 := r.NextF32()
	num4 := r.NextF32()
	blackHoles := int32(math.Ceil(float64(0.01*float64(count)) + float64(float64(num1)*0.3)))
	neutronStars := int32(math.Ceil(float64(0.01*float64(count)) + float64(float64(num2)*0.3)))
	whiteDwarfs := int32(math.Ceil(float64(0.016*float64(count)) + float64(float64(num3)*0.4)))
	giants := int32(math.Ceil(float64(0.013*float64(count)) + float64(float64(num4)*0.4)))
	firstBlackHole := count - blackHoles
	firstNeutron := firstBlackHole - neutronStars
	firstDwarf := firstNeutron - whiteDwarfs
	giantStep := (firstDwarf - 1) / giants
	giantOffset := giantStep / 2

	g.Stars = make([]*Star, 0, count)
	for i, pos := range poses {
		seed := r.NextSeed()
		index := int32(i)
		if index == 0 {
			g.Stars = append(g.Stars, newStar(g, 0, seed, Vector3{}, MainSeqStar, SpectrX))
			continue
		}

		needSpectr := SpectrX
		switch index {
		case 3:
			needSpectr = SpectrM
		case firstDwarf - 1:
			needSpectr = SpectrO
		}

		needType := MainSeqStar
		switch {
		case giantStep > 0 && index%giantStep == giantOffset:
			needType = GiantStar
		case index >= firstBlackHole:
			needType = BlackHole
		case index >= firstNeutron:
			needType = NeutronStar
		case index >= firstDwarf:
			needType = WhiteDwarf
		}
		g.Stars = append(g.Stars, newStar(g, index, seed, pos, needType, needSpectr))
	}
}

// deriveTypesThrough classifies the planets of every star up to and
// including index, in star order, so the habitable quota is consumed the
// same way whatever order stars are queried in.
func (g *Galaxy) deriveTypesThrough(index int32) {
	for g.ctx.typedStars <= int(index) {
		s := g.Stars[g.ctx.typedStars]
		for _, p := range s.Planets() {
			p.classify(&g.ctx)
		}
		g.ctx.typedStars++
		g.stats.TypePasses++
	}
}

func (s *Star) loadThemes() {
	if s.themesOK {
		return
	}
	s.galaxy.deriveTypesThrough(s.Index)
	used := make(map[int32]bool)
	for _, p := range s.Planets() {
		t := s.galaxy.catalog.selectTheme(p, s.IsBirth(), used)
		p.theme = t
		used[t.ID] = true
	}
	s.themesOK = true
	s.galaxy.stats.ThemePasses++
}

// IsSafe reports whether the star's planets have their themes assigned, so
// theme and type queries no longer trigger generation.
func (s *Star) IsSafe() bool {
	return s.themesOK
}

// AverageVein returns the expected total amount of vein v over the star's
// rocky planets. Results are cached per vein type.
func (s *Star) AverageVein(v VeinType) float32 {
	if v == VeinMag && !s.Type.IsCompact() {
		return 0
	}
	if amount, ok := s.avgVeins[v]; ok {
		return amount
	}
	s.loadThemes()
	var total float32
	for _, p := range s.Planets() {
		if p.Type() == PlanetGas {
			continue
		}
		if v.IsRare() && !p.Theme().HasRareVein(v) {
			continue
		}
		for _, vein := range p.Veins() {
			if vein.Type == v {
				total += vein.AverageAmount()
			}
		}
	}
	if s.avgVeins == nil {
		s.avgVeins = make(map[VeinType]float32)
	}
	s.avgVeins[v] = total
	return total
}
