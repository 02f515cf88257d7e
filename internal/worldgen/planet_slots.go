package worldgen

import "github.com/daniacca/starseed/internal/rng"

// Gas giant probability per planet slot.
var pGases = [10][6]float64{
	{0, 0, 0, 0, 0, 0},                // birth
	{0.2, 0.2, 0, 0, 0, 0},            // M, F, A, B with at most 3 planets
	{0, 0.2, 0.3, 0, 0, 0},            // M
	{0.18, 0.18, 0, 0, 0, 0},          // K, G with at most 3 planets
	{0, 0.18, 0.28, 0.28, 0, 0},       // K
	{0, 0.2, 0.3, 0.3, 0, 0},          // G
	{0, 0.22, 0.31, 0.31, 0, 0},       // F
	{0.1, 0.28, 0.3, 0.35, 0, 0},      // A
	{0.1, 0.22, 0.28, 0.35, 0.35, 0},  // B
	{0.1, 0.2, 0.25, 0.3, 0.32, 0.35}, // O
}

// Planets returns the star's planet arena, generating the orbital layout on
// first access. Surface types, themes and resources stay lazy.
func (s *Star) Planets() []*Planet {
	if !s.planetsOK {
		s.planets = s.generatePlanets()
		s.planetsOK = true
		s.galaxy.stats.PlanetPasses++
	}
	return s.planets
}

func (s *Star) generatePlanets() []*Planet {
	r := rng.New(s.PlanetsSeed)
	num1 := r.NextF64()
	num2 := r.NextF64()
	var shift int32
	if r.NextF64() > 0.5 {
		shift = 1
	}
	for i := 0; i < 4; i++ {
		r.NextF64()
	}

	var planets []*Planet
	add := func(orbitIndex int32, orbitAround int, gasGiant bool) {
		infoSeed := r.NextSeed()
		genSeed := r.NextSeed()
		planets = append(planets, newPlanet(s, int32(len(planets)), orbitIndex, orbitAround, gasGiant, infoSeed, genSeed))
	}

	switch s.Type {
	case BlackHole, NeutronStar:
		add(3, -1, false)
	case WhiteDwarf:
		switch {
		case num1 < 0.699999988079071:
			add(3, -1, false)
		case num2 < 0.300000011920929:
			add(3, -1, false)
			add(4, -1, false)
		default:
			add(4, -1, true)
			add(1, 0, false)
		}
	case GiantStar:
		switch {
		case num1 < 0.300000011920929:
			add(2+shift, -1, false)
		case num1 < 0.800000011920929:
			if num2 < 0.25 {
				add(2+shift, -1, false)
				add(3+shift, -1, false)
			} else {
				add(3, -1, true)
				add(1, 0, false)
			}
		default:
			switch {
			case num2 < 0.150000005960464:
				add(2+shift, -1, false)
				add(3+shift, -1, false)
				add(4+shift, -1, false)
			case num2 < 0.75:
				add(2+shift, -1, false)
				add(4, -1, true)
				add(1, 1, false)
			default:
				add(3+shift, -1, true)
				add(1, 0, false)
				add(2, 0, false)
			}
		}
	default:
		planets = s.mainSequencePlanets(r, num1)
	}
	return planets
}

func (s *Star) mainSequencePlanets(r *rng.Random, num1 float64) []*Planet {
	count, pGas := s.planetCountAndGasOdds(num1)

	planets := make([]*Planet, 0, count)
	satellites := 0
	parent := -1
	orbit := int32(1)
	for index := 0; index < count; index++ {
		infoSeed := r.NextSeed()
		genSeed := r.NextSeed()
		gasRoll := r.NextF64()
		leaveRoll := r.NextF64()

		gasGiant := false
		if parent < 0 {
			if index < count-1 && gasRoll < pGas[index] {
				gasGiant = true
				if orbit < 3 {
					orbit = 3
				}
			}
			placed := false
			for !s.IsBirth() || orbit != 3 {
				left := count - index
				free := 9 - int(orbit)
				if free <= left {
					placed = true
					break
				}
				a := float32(left) / float32(free)
				var spread float32 = 0.45
				if orbit <= 3 {
					spread = 0.15
				}
				if r.NextF64() < float64(a+float32((1-a)*spread)+0.01) {
					placed = true
					break
				}
				orbit++
			}
			if !placed {
				gasGiant = true
			}
		} else {
			satellites++
		}

		orbitIndex := orbit
		if parent >= 0 {
			orbitIndex = int32(satellites)
		}
		planets = append(planets, newPlanet(s, int32(index), orbitIndex, parent, gasGiant, infoSeed, genSeed))

		orbit++
		if gasGiant {
			parent = index
			satellites = 0
		}
		if satellites >= 1 && leaveRoll < 0.8 {
			parent = -1
			satellites = 0
		}
	}
	return planets
}

func (s *Star) planetCountAndGasOdds(num1 float64) (int, [6]float64) {
	if s.IsBirth() {
		return 4, pGases[0]
	}
	pick := func(count, small, large int) (int, [6]float64) {
		if count <= 3 {
			return count, pGases[small]
		}
		return count, pGases[large]
	}
	switch s.Spectr() {
	case SpectrM:
		switch {
		case num1 >= 0.8:
			return pick(4, 1, 2)
		case num1 >= 0.3:
			return pick(3, 1, 2)
		case num1 >= 0.1:
			return pick(2, 1, 2)
		}
		return pick(1, 1, 2)
	case SpectrK:
		switch {
		case num1 >= 0.95:
			return pick(5, 3, 4)
		case num1 >= 0.7:
			return pick(4, 3, 4)
		case num1 >= 0.2:
			return pick(3, 3, 4)
		case num1 >= 0.1:
			return pick(2, 3, 4)
		}
		return pick(1, 3, 4)
	case SpectrG:
		switch {
		case num1 >= 0.9:
			return pick(5, 3, 5)
		case num1 >= 0.4:
			return pick(4, 3, 5)
		}
		return pick(3, 3, 5)
	case SpectrF:
		switch {
		case num1 >= 0.8:
			return pick(5, 1, 6)
		case num1 >= 0.35:
			return pick(4, 1, 6)
		}
		return pick(3, 1, 6)
	case SpectrA:
		switch {
		case num1 >= 0.75:
			return pick(5, 1, 7)
		case num1 >= 0.3:
			return pick(4, 1, 7)
		}
		return pick(3, 1, 7)
	case SpectrB:
		switch {
		case num1 >= 0.75:
			return pick(6, 1, 8)
		case num1 >= 0.3:
			return pick(5, 1, 8)
		}
		return pick(4, 1, 8)
	case SpectrO:
		if num1 >= 0.5 {
			return 6, pGases[9]
		}
		return 5, pGases[9]
	}
	return 1, pGases[0]
}
