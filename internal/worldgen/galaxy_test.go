package worldgen

import (
	"bytes"
	"encoding/json"
	"math"
	"testing"
)

func mustGalaxy(t *testing.T, seed int32) *Galaxy {
	t.Helper()
	g, err := NewGalaxy(NewGameDesc(seed), nil)
	if err != nil {
		t.Fatalf("Expected no error creating galaxy, got: %v", err)
	}
	return g
}

func TestCreateGalaxy_SeedZero(t *testing.T) {
	g, err := CreateGalaxy(GameDesc{Seed: 0, StarCount: 64, ResourceMultiplier: 1.0}, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if len(g.Stars) != 64 {
		t.Fatalf("Expected 64 stars, got %d", len(g.Stars))
	}

	birth := g.Stars[0]
	if birth.Type != MainSeqStar {
		t.Errorf("Expected birth star to be MainSeqStar, got %s", birth.Type)
	}

	oceans := 0
	for _, p := range birth.Planets() {
		if p.Type() != PlanetOcean {
			continue
		}
		oceans++
		if p.Theme().Distribute != DistributeBirth {
			t.Errorf("Expected ocean planet of birth star to have a Birth theme, got %s", p.Theme().Distribute)
		}
	}
	if oceans != 1 {
		t.Errorf("Expected exactly 1 ocean planet around the birth star, got %d", oceans)
	}
}

// The expected values were computed without fused multiply-add, so this
// test also guards against FMA contraction on arm64, ppc64le and s390x.
// Every product feeding an add in the generator is wrapped in an explicit
// float conversion, which forbids the fusion.
func TestNewGalaxy_GoldenLayout(t *testing.T) {
	tests := []struct {
		seed    int32
		second  Vector3
		last    Vector3
		special map[int32]StarType
	}{
		{
			seed:   0,
			second: Vector3{-1.9207440981251358, -0.1284721135948152, 2.1891752078273683},
			last:   Vector3{36.84665552088203, 6.421155957692237, 10.899725656564526},
			special: map[int32]StarType{
				29: GiantStar, 60: WhiteDwarf, 61: WhiteDwarf, 62: NeutronStar, 63: BlackHole,
			},
		},
		{
			seed:   42,
			second: Vector3{1.4404225377375788, 0.7256831283059513, 1.4262269154217517},
			last:   Vector3{14.166341225051575, 0.40913084073780653, 13.700587220660442},
			special: map[int32]StarType{
				29: GiantStar, 60: WhiteDwarf, 61: WhiteDwarf, 62: NeutronStar, 63: BlackHole,
			},
		},
	}
	for _, tt := range tests {
		g := mustGalaxy(t, tt.seed)
		if len(g.Stars) != 64 {
			t.Fatalf("seed %d: expected 64 stars, got %d", tt.seed, len(g.Stars))
		}
		if got := g.Stars[1].Position; got != tt.second {
			t.Errorf("seed %d: expected star 1 at %v, got %v", tt.seed, tt.second, got)
		}
		if got := g.Stars[63].Position; got != tt.last {
			t.Errorf("seed %d: expected star 63 at %v, got %v", tt.seed, tt.last, got)
		}
		for _, s := range g.Stars {
			want, ok := tt.special[s.Index]
			if !ok {
				want = MainSeqStar
			}
			if s.Type != want {
				t.Errorf("seed %d star %d: expected %s, got %s", tt.seed, s.Index, want, s.Type)
			}
		}
	}
}

func TestCreateGalaxy_Deterministic(t *testing.T) {
	for _, seed := range []int32{0, 1, 42, 1575693681, -7} {
		desc := NewGameDesc(seed)
		g1, err := CreateGalaxy(desc, nil)
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		g2, err := CreateGalaxy(desc, nil)
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		b1, err := json.Marshal(g1)
		if err != nil {
			t.Fatalf("seed %d: marshal: %v", seed, err)
		}
		b2, _ := json.Marshal(g2)
		if !bytes.Equal(b1, b2) {
			t.Errorf("seed %d: expected identical output for repeated generation", seed)
		}
	}
}

func TestNewGalaxy_LazyMatchesEager(t *testing.T) {
	desc := NewGameDesc(123456)
	eager, err := CreateGalaxy(desc, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}

	lazy := mustGalaxy(t, 123456)
	// Touch stars back to front so the habitable quota is requested out of order
	for i := len(lazy.Stars) - 1; i >= 0; i -= 7 {
		for _, p := range lazy.Stars[i].Planets() {
			_ = p.Type()
		}
	}

	want, _ := json.Marshal(eager)
	got, err := json.Marshal(lazy)
	if err != nil {
		t.Fatalf("marshal lazy galaxy: %v", err)
	}
	if !bytes.Equal(want, got) {
		t.Error("Expected lazily generated galaxy to match eager generation")
	}
	if lazy.HabitableCount() != eager.HabitableCount() {
		t.Errorf("Expected habitable count %d, got %d", eager.HabitableCount(), lazy.HabitableCount())
	}
}

func TestNewGalaxy_StarQueriesDoNotGeneratePlanets(t *testing.T) {
	g := mustGalaxy(t, 99)
	for _, s := range g.Stars {
		_ = s.Luminosity()
		_ = s.DysonRadius()
		_ = s.Spectr()
		_ = s.Position.Magnitude()
	}
	if stats := g.Stats(); stats != (Stats{}) {
		t.Errorf("Expected no planet work for star-level queries, got %+v", stats)
	}
}

func TestNewGalaxy_ThemeQueryGeneratesPrefixOnly(t *testing.T) {
	g := mustGalaxy(t, 2024)
	_ = g.Stars[5].Planets()[0].Theme()

	stats := g.Stats()
	if stats.TypePasses != 6 {
		t.Errorf("Expected planet types for 6 stars, got %d", stats.TypePasses)
	}
	if stats.PlanetPasses != 6 {
		t.Errorf("Expected layouts for 6 stars, got %d", stats.PlanetPasses)
	}
	if stats.ThemePasses != 1 {
		t.Errorf("Expected themes for 1 star, got %d", stats.ThemePasses)
	}
	if stats.VeinPasses != 0 {
		t.Errorf("Expected no vein passes, got %d", stats.VeinPasses)
	}
	if !g.Stars[5].IsSafe() {
		t.Error("Expected star 5 to be safe after theme assignment")
	}
	if g.Stars[4].IsSafe() {
		t.Error("Expected star 4 to stay unthemed")
	}
}

func TestGalaxy_HabitableCountMatchesOceanClassification(t *testing.T) {
	g, err := CreateGalaxy(NewGameDesc(31337), nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	var oceans int32
	for _, s := range g.Stars {
		for _, p := range s.Planets() {
			if p.UnmodifiedType() == PlanetOcean {
				oceans++
			}
		}
	}
	if oceans != g.HabitableCount() {
		t.Errorf("Expected habitable count %d to equal ocean classifications %d", g.HabitableCount(), oceans)
	}
}

func TestGalaxy_BirthStar(t *testing.T) {
	for _, seed := range []int32{0, 5, 77, 65535, 1234567} {
		g := mustGalaxy(t, seed)
		birth := g.Stars[0]
		if birth.Position != (Vector3{}) {
			t.Errorf("seed %d: expected birth star at origin, got %v", seed, birth.Position)
		}
		if !birth.IsBirth() || birth.Type != MainSeqStar {
			t.Errorf("seed %d: expected main sequence birth star, got %s", seed, birth.Type)
		}

		planets := birth.Planets()
		if len(planets) != 4 {
			t.Errorf("seed %d: expected 4 planets around birth star, got %d", seed, len(planets))
		}
		homes := 0
		for _, p := range planets {
			if !p.IsBirth() {
				continue
			}
			homes++
			parent := p.OrbitAround()
			if parent == nil || !parent.GasGiant {
				t.Errorf("seed %d: expected home planet to orbit a gas giant", seed)
			}
			if p.Theme().Distribute != DistributeBirth {
				t.Errorf("seed %d: expected Birth theme for home planet, got %s", seed, p.Theme().Distribute)
			}
		}
		if homes != 1 {
			t.Errorf("seed %d: expected 1 home planet, got %d", seed, homes)
		}
	}
}

func TestGalaxy_StarTypes(t *testing.T) {
	g := mustGalaxy(t, 0)
	counts := map[StarType]int{}
	for i, s := range g.Stars {
		counts[s.Type]++
		if s.Index != int32(i) {
			t.Errorf("Expected star index %d, got %d", i, s.Index)
		}
		if s.Type == BlackHole || s.Type == NeutronStar || s.Type == WhiteDwarf {
			if s.Spectr() != SpectrX {
				t.Errorf("Expected spectral class X for %s, got %s", s.Type, s.Spectr())
			}
		}
	}
	if counts[BlackHole] < 1 {
		t.Error("Expected at least one black hole")
	}
	if counts[NeutronStar] < 1 {
		t.Error("Expected at least one neutron star")
	}
	if counts[WhiteDwarf] < 1 {
		t.Error("Expected at least one white dwarf")
	}
	// The last star is always a black hole
	if last := g.Stars[len(g.Stars)-1]; last.Type != BlackHole {
		t.Errorf("Expected last star to be a black hole, got %s", last.Type)
	}
}

func TestGalaxy_ThemesUniquePerStar(t *testing.T) {
	g, err := CreateGalaxy(NewGameDesc(4242), nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	for _, s := range g.Stars {
		used := map[int32]bool{}
		desertFallback := 0
		for _, p := range s.Planets() {
			id := p.Theme().ID
			if used[id] {
				desertFallback++
				if p.Type() != PlanetDesert {
					t.Errorf("star %d: theme %d reused by a non-desert planet", s.Index, id)
				}
			}
			used[id] = true
		}
		if desertFallback > 0 {
			t.Logf("star %d reused %d desert themes", s.Index, desertFallback)
		}
	}
}

func TestGalaxy_Resources(t *testing.T) {
	g, err := CreateGalaxy(NewGameDesc(777), nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	for _, s := range g.Stars {
		for _, p := range s.Planets() {
			if p.Type() == PlanetGas {
				if len(p.Veins()) != 0 {
					t.Errorf("star %d planet %d: expected no veins on a gas giant", s.Index, p.Index)
				}
				if len(p.Gases()) != len(p.Theme().GasItems) {
					t.Errorf("star %d planet %d: expected %d gases, got %d", s.Index, p.Index, len(p.Theme().GasItems), len(p.Gases()))
				}
				for _, gas := range p.Gases() {
					if !(gas.Rate > 0) {
						t.Errorf("star %d planet %d: expected positive gas rate, got %v", s.Index, p.Index, gas.Rate)
					}
				}
				continue
			}
			if len(p.Gases()) != 0 {
				t.Errorf("star %d planet %d: expected no gases on a rocky planet", s.Index, p.Index)
			}
			for _, v := range p.Veins() {
				if v.MinAmount < 1 || v.MaxAmount < v.MinAmount {
					t.Errorf("star %d planet %d: bad amount range [%d, %d] for %s", s.Index, p.Index, v.MinAmount, v.MaxAmount, v.Type)
				}
				if v.MaxGroup != v.MinGroup+2 {
					t.Errorf("Expected group range of width 2, got [%d, %d]", v.MinGroup, v.MaxGroup)
				}
				if v.Type == VeinMag && !s.Type.IsCompact() {
					t.Errorf("star %d: unexpected Mag vein on %s", s.Index, s.Type)
				}
			}
		}
	}
}

func TestGalaxy_InfiniteResources(t *testing.T) {
	desc := NewGameDesc(555)
	desc.ResourceMultiplier = 100
	g, err := CreateGalaxy(desc, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	for _, s := range g.Stars {
		for _, p := range s.Planets() {
			for _, v := range p.Veins() {
				if v.Type == VeinOil {
					continue
				}
				if v.MinAmount != 1 || v.MaxAmount != 1 {
					t.Errorf("Expected amount 1 for %s with infinite resources, got [%d, %d]", v.Type, v.MinAmount, v.MaxAmount)
				}
			}
		}
	}
}

func TestStar_AverageVeinCached(t *testing.T) {
	g := mustGalaxy(t, 10)
	s := g.Stars[1]
	first := s.AverageVein(VeinIron)
	passes := g.Stats().VeinPasses
	second := s.AverageVein(VeinIron)
	if first != second {
		t.Errorf("Expected cached average %v, got %v", first, second)
	}
	if g.Stats().VeinPasses != passes {
		t.Error("Expected no additional vein passes for a cached average")
	}

	var want float32
	for _, p := range s.Planets() {
		if p.Type() == PlanetGas {
			continue
		}
		for _, v := range p.Veins() {
			if v.Type == VeinIron {
				want += v.AverageAmount()
			}
		}
	}
	if want != first {
		t.Errorf("Expected average iron %v, got %v", want, first)
	}
}

func TestStar_MagOnlyAroundCompactStars(t *testing.T) {
	g := mustGalaxy(t, 3)
	for _, s := range g.Stars {
		mag := s.AverageVein(VeinMag)
		if !s.Type.IsCompact() && mag != 0 {
			t.Errorf("star %d: expected no Mag around %s, got %v", s.Index, s.Type, mag)
		}
	}
	if got, want := g.Stats().ThemePasses, countCompact(g); got != want || want == 0 {
		t.Errorf("Expected %d theme passes (one per compact star), got %d", want, got)
	}
}

// Rare veins only count on planets whose theme lists them, even when the
// star type would add the vein to other planets.
func TestStar_RareVeinFollowsThemeAroundWhiteDwarf(t *testing.T) {
	found := false
	for seed := int32(0); seed < 40 && !found; seed++ {
		g := mustGalaxy(t, seed)
		for _, s := range g.Stars {
			if s.Type != WhiteDwarf {
				continue
			}
			found = true
			var want float32
			for _, p := range s.Planets() {
				if p.Type() == PlanetGas || !p.Theme().HasRareVein(VeinDiamond) {
					continue
				}
				for _, v := range p.Veins() {
					if v.Type == VeinDiamond {
						want += v.AverageAmount()
					}
				}
			}
			if got := s.AverageVein(VeinDiamond); got != want {
				t.Errorf("seed %d star %d: expected diamond average %v, got %v", seed, s.Index, want, got)
			}
		}
	}
	if !found {
		t.Fatal("Expected a white dwarf within the first 40 seeds")
	}
}

func countCompact(g *Galaxy) int {
	n := 0
	for _, s := range g.Stars {
		if s.Type.IsCompact() {
			n++
		}
	}
	return n
}

func TestStar_DerivedValuesCached(t *testing.T) {
	g := mustGalaxy(t, 17)
	s := g.Stars[2]
	if s.luminosity.loaded() {
		t.Fatal("Expected luminosity to be computed lazily")
	}
	l1 := s.Luminosity()
	if !s.luminosity.loaded() {
		t.Fatal("Expected luminosity to be cached after first access")
	}
	if !s.temperatureFactor.loaded() {
		t.Error("Expected upstream temperature factor to be cached too")
	}
	if l2 := s.Luminosity(); l1 != l2 {
		t.Errorf("Expected stable luminosity %v, got %v", l1, l2)
	}
	// Rounded to three decimals
	if scaled := float64(l1) * 1000; math.Abs(scaled-math.Round(scaled)) > 1e-3 {
		t.Errorf("Expected luminosity rounded to 3 decimals, got %v", l1)
	}
}

func TestPlanet_Luminosity(t *testing.T) {
	g, err := CreateGalaxy(NewGameDesc(64), nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	for _, s := range g.Stars {
		for _, p := range s.Planets() {
			l := float64(p.Luminosity())
			if l < 0 {
				t.Errorf("Expected non-negative luminosity, got %v", l)
			}
			if scaled := l * 100; math.Abs(scaled-math.Round(scaled)) > 1e-3 {
				t.Errorf("Expected luminosity rounded to 2 decimals, got %v", l)
			}
		}
	}
}

func TestPlanet_SatelliteSharesSunDistance(t *testing.T) {
	g, err := CreateGalaxy(NewGameDesc(2), nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	satellites := 0
	for _, s := range g.Stars {
		for _, p := range s.Planets() {
			parent := p.OrbitAround()
			if parent == nil {
				if p.SunDistance() != p.OrbitRadius() {
					t.Errorf("Expected sun distance of a direct planet to equal its orbit radius")
				}
				continue
			}
			satellites++
			if !parent.GasGiant {
				t.Errorf("star %d: expected satellites to orbit gas giants", s.Index)
			}
			if p.SunDistance() != parent.OrbitRadius() {
				t.Errorf("Expected satellite sun distance %v, got %v", parent.OrbitRadius(), p.SunDistance())
			}
			if p.SunOrbitalPeriod() != parent.OrbitalPeriod() {
				t.Errorf("Expected satellite sun period %v, got %v", parent.OrbitalPeriod(), p.SunOrbitalPeriod())
			}
		}
	}
	// Every birth star carries a satellite
	if satellites == 0 {
		t.Error("Expected at least one satellite in the galaxy")
	}
}

func TestNewGalaxy_InvalidDesc(t *testing.T) {
	cases := []GameDesc{
		{Seed: math.MinInt32, StarCount: 64, ResourceMultiplier: 1},
		{Seed: 1, StarCount: 0, ResourceMultiplier: 1},
		{Seed: 1, StarCount: MaxStarCount + 1, ResourceMultiplier: 1},
		{Seed: 1, StarCount: 64, ResourceMultiplier: 0},
	}
	for _, desc := range cases {
		if _, err := NewGalaxy(desc, nil); err == nil {
			t.Errorf("Expected error for %+v", desc)
		}
	}
}

func TestGalaxy_MarshalJSON(t *testing.T) {
	g, err := CreateGalaxy(GameDesc{Seed: 11, StarCount: 8, ResourceMultiplier: 1}, nil)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	data, err := json.Marshal(g)
	if err != nil {
		t.Fatalf("Expected no error marshaling, got: %v", err)
	}

	var out struct {
		Seed  int32 `json:"seed"`
		Stars []struct {
			Index    int32      `json:"index"`
			Position [3]float64 `json:"position"`
			Type     string     `json:"type"`
			Spectr   string     `json:"spectr"`
			Planets  []struct {
				OrbitAround *int32          `json:"orbitAround"`
				Type        string          `json:"type"`
				Theme       json.RawMessage `json:"theme"`
				Gases       [][2]float64    `json:"gases"`
			} `json:"planets"`
		} `json:"stars"`
	}
	if err := json.Unmarshal(data, &out); err != nil {
		t.Fatalf("Expected valid JSON, got: %v", err)
	}
	if out.Seed != 11 {
		t.Errorf("Expected seed 11, got %d", out.Seed)
	}
	if len(out.Stars) != len(g.Stars) {
		t.Fatalf("Expected %d stars, got %d", len(g.Stars), len(out.Stars))
	}
	if out.Stars[0].Type != "MainSeqStar" {
		t.Errorf("Expected MainSeqStar, got %s", out.Stars[0].Type)
	}
	for i, p := range out.Stars[0].Planets {
		want := g.Stars[0].Planets()[i]
		if p.Type != want.Type().String() {
			t.Errorf("Expected planet type %s, got %s", want.Type(), p.Type)
		}
		if (p.OrbitAround != nil) != want.IsSatellite() {
			t.Errorf("Expected orbitAround presence %v", want.IsSatellite())
		}
		if len(p.Theme) == 0 {
			t.Error("Expected theme object")
		}
	}
}

// rockyPlanet returns a non-gas planet of a star other than the birth star.
func rockyPlanet(t *testing.T, g *Galaxy) *Planet {
	t.Helper()
	for _, s := range g.Stars[1:] {
		for _, p := range s.Planets() {
			if !p.GasGiant {
				return p
			}
		}
	}
	t.Fatal("Expected a rocky planet outside the birth system")
	return nil
}

// The habitable quota max(11, ceil(starCount*0.29)) only bends the odds:
// once it is used up the exponent bottoms out at 0.08*10, so planets with a
// habitable bias below 0.088 can still turn into oceans and nothing else can.
func TestPlanet_HabitableQuotaIsSoft(t *testing.T) {
	g := mustGalaxy(t, 5)
	p := rockyPlanet(t, g)

	classify := func(used int32, bias float32, roll float64) (PlanetType, int32) {
		p.habitability = cached[habitability]{val: habitability{bias: bias, ratio: 1}, ok: true}
		p.habitableRoll = roll
		ctx := genContext{habitableCount: used}
		p.classify(&ctx)
		return p.unmodifiedType, ctx.habitableCount
	}

	if typ, n := classify(1000, 0.05, 0.99); typ != PlanetOcean || n != 1001 {
		t.Errorf("Expected ocean past the quota for bias 0.05, got %s (count %d)", typ, n)
	}
	if typ, n := classify(1000, 0.09, 0.9999); typ != PlanetDesert || n != 1000 {
		t.Errorf("Expected no ocean past the quota for bias 0.09, got %s (count %d)", typ, n)
	}
	if typ, _ := classify(0, 0.09, 0.9); typ != PlanetOcean {
		t.Errorf("Expected ocean with the quota unused for bias 0.09, got %s", typ)
	}

	exceeded := false
	for seed := int32(0); seed < 10; seed++ {
		eager, err := CreateGalaxy(NewGameDesc(seed), nil)
		if err != nil {
			t.Fatalf("seed %d: %v", seed, err)
		}
		if eager.HabitableCount() > 19 {
			exceeded = true
		}
	}
	if !exceeded {
		t.Error("Expected some 64-star galaxy to exceed the nominal quota of 19")
	}
}
