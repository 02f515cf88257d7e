package worldgen

import (
	"math"

	"github.com/daniacca/starseed/internal/rng"
)

const pi = 3.14159265358979

// Star is one generated star. Construction draws the raw random factors;
// every physical property is derived on first access and cached.
type Star struct {
	galaxy *Galaxy

	Index       int32
	Seed        int32
	NameSeed    int32
	PlanetsSeed int32
	Position    Vector3
	Type        StarType
	Level       float32

	ageFactor      float64
	ageNum1        float32
	ageNum2        float32
	ageNum3        float32
	lifetimeFactor float64
	radiusFactor   float64
	unmodifiedMass float32

	resourceCoef       cached[float32]
	lifetime           cached[float32]
	age                cached[float32]
	temperatureFactor  cached[float32]
	unmodifiedTemp     cached[float32]
	temperature        cached[float32]
	classFactor        cached[float64]
	spectr             cached[SpectrType]
	color              cached[float32]
	luminosity         cached[float32]
	radius             cached[float32]
	lightBalanceRadius cached[float32]
	habitableRadius    cached[float32]
	mass               cached[float32]
	orbitScaler        cached[float32]
	dysonRadius        cached[float32]

	planets    []*Planet
	planetsOK  bool
	themesOK   bool
	avgVeins   map[VeinType]float32
}

func newStar(g *Galaxy, index, seed int32, position Vector3, needType StarType, needSpectr SpectrType) *Star {
	s := &Star{
		galaxy:   g,
		Index:    index,
		Seed:     seed,
		Position: position,
		Type:     needType,
		Level:    float32(index) / float32(g.Desc.StarCount-1),
	}

	rand1 := rng.New(seed)
	s.NameSeed = rand1.NextSeed()
	rand2 := rng.New(rand1.NextSeed())
	rand1.NextF64()
	s.PlanetsSeed = rand1.NextSeed()

	r1 := rand2.NextF64()
	r2 := rand2.NextF64()
	s.ageFactor = rand2.NextF64()
	rn := rand2.NextF64()
	rt := rand2.NextF64()
	s.ageNum1 = float32(float64(rn*0.1) + 0.95)
	s.ageNum2 = float32(float64(rt*0.4) + 0.8)
	s.ageNum3 = float32(float64(rt*9.0) + 1.0)
	massFactor := 0.0
	if !s.IsBirth() {
		massFactor = rand2.NextF64()
	}
	s.lifetimeFactor = rand2.NextF64()
	y := float64(rand2.NextF64()*0.4) - 0.2
	s.radiusFactor = math.Pow(2, y)

	s.unmodifiedMass = s.initialMass(needSpectr, r1, r2, massFactor, y)
	return s
}

func (s *Star) initialMass(needSpectr SpectrType, r1, r2, massFactor, y float64) float32 {
	if s.IsBirth() {
		p := clamp32(randNormal(0, 0.08, r1, r2), -0.2, 0.2)
		return pow32(2, p)
	}
	switch s.Type {
	case WhiteDwarf:
		return float32(1 + float64(r2*5))
	case NeutronStar:
		return float32(7 + float64(r1*11))
	case BlackHole:
		return float32(18 + float64(r1*r2*30))
	}

	var num float32
	switch needSpectr {
	case SpectrM:
		num = -3
	case SpectrO:
		num = 3
	default:
		num7 := float32(-0.98) + float32((float32(0.88)+float32(0.98))*clamp32(s.Level, 0, 1))
		var average, deviation float32
		if s.Type == GiantStar {
			if y > -0.08 {
				average = -1.5
			} else {
				average = 1.6
			}
			deviation = 0.3
		} else {
			if num7 >= 0 {
				average = num7 + 0.65
			} else {
				average = num7 - 0.65
			}
			deviation = 0.33
		}
		num = randNormal(average, deviation, r1, r2)
	}
	if num > 0 {
		num *= 2
	}
	num = clamp32(num, -2.4, 4.65)
	return pow32(2, float32(float64(num)+float64((massFactor-0.5)*0.2)+1))
}

func randNormal(average, deviation float32, r1, r2 float64) float32 {
	return average + float32(deviation*float32(math.Sqrt(-2*math.Log(1-r1))*math.Sin(2*pi*r2)))
}

// Galaxy returns the galaxy the star belongs to.
func (s *Star) Galaxy() *Galaxy {
	return s.galaxy
}

// IsBirth reports whether this is the home star.
func (s *Star) IsBirth() bool {
	return s.Index == 0
}

// ResourceCoef scales vein amounts with distance from the birth star.
func (s *Star) ResourceCoef() float32 {
	return s.resourceCoef.get(func() float32 {
		if s.IsBirth() {
			return 0.6
		}
		n := float32(s.Position.Magnitude()) / 32
		if float64(n) > 1 {
			n = ln32(ln32(ln32(ln32(ln32(n)+1)+1)+1)+1) + 1
		}
		return pow32(7, n) * 0.6
	})
}

// Lifetime is the star's life expectancy in millions of years, compressed
// for long-lived stars.
func (s *Star) Lifetime() float32 {
	return s.lifetime.get(func() float32 {
		mass := float64(s.unmodifiedMass)
		d := 5.0
		if s.unmodifiedMass < 2 {
			d = 2 + float64(0.4*(1-mass))
		}
		multiplier := 0.5
		if s.Type == GiantStar {
			multiplier = 0.58
		}
		delta := 0.0
		switch s.Type {
		case WhiteDwarf:
			delta = 10000
		case NeutronStar:
			delta = 1000
		}
		lifetime := float64(10000*math.Pow(0.1, math.Log10(mass*multiplier)/math.Log10(d)+1)*(float64(s.lifetimeFactor*0.2)+0.9)) + delta
		if s.IsBirth() {
			return float32(lifetime)
		}

		age := s.Age()
		num9 := float32(lifetime) * age
		if num9 > 5000 {
			num9 = float32((float64(ln32(num9/5000)) + 1) * 5000)
		}
		if num9 > 8000 {
			num9 = float32((float64(ln32(ln32(ln32(num9/8000)+1)+1)) + 1) * 8000)
		}
		return num9 / age
	})
}

// Age is the fraction of the lifetime already spent. Remnants are past 1.
func (s *Star) Age() float32 {
	return s.age.get(func() float32 {
		if s.IsBirth() {
			return float32(float64(s.ageFactor*0.4) + 0.3)
		}
		switch s.Type {
		case GiantStar:
			return float32(float64(s.ageFactor*0.0399999991059303) + 0.959999978542328)
		case WhiteDwarf, NeutronStar, BlackHole:
			return float32(float64(s.ageFactor*0.400000005960464) + 1.0)
		}
		switch {
		case s.unmodifiedMass >= 0.8:
			return float32(float64(s.ageFactor*0.699999988079071) + 0.200000002980232)
		case s.unmodifiedMass >= 0.5:
			return float32(float64(s.ageFactor*0.400000005960464) + 0.100000001490116)
		default:
			return float32(float64(s.ageFactor*0.119999997317791) + 0.0199999995529652)
		}
	})
}

// TemperatureFactor is the mass, dimmed as the star ages.
func (s *Star) TemperatureFactor() float32 {
	return s.temperatureFactor.get(func() float32 {
		aged := float64(pow32(clamp32(s.Age(), 0, 1), 20))
		return float32(1-float64(aged*0.5)) * s.unmodifiedMass
	})
}

func (s *Star) unmodifiedTemperature() float32 {
	return s.unmodifiedTemp.get(func() float32 {
		f1 := float64(s.TemperatureFactor())
		return float32(float64(math.Pow(f1, 0.56+0.14/(math.Log10(f1+4)/math.Log10(5)))*4450) + 1300)
	})
}

// Temperature returns the surface temperature in kelvin.
func (s *Star) Temperature() float32 {
	return s.temperature.get(func() float32 {
		switch s.Type {
		case BlackHole:
			return 0
		case NeutronStar:
			return s.ageNum3 * 1e7
		case WhiteDwarf:
			return s.ageNum2 * 150000
		case GiantStar:
			return s.unmodifiedTemperature() * (1 - float32(pow32(s.Age(), 30)*0.5))
		}
		return s.unmodifiedTemperature()
	})
}

// ClassFactor is the continuous spectral scale in [-4, 2].
func (s *Star) ClassFactor() float64 {
	return s.classFactor.get(func() float64 {
		t := float64(s.unmodifiedTemperature())
		f := math.Log10((t-1300)/4500)/math.Log10(2.6) - 0.5
		if f < 0 {
			f *= 4
		}
		return clamp64(f, -4, 2)
	})
}

// Spectr is the spectral class, or SpectrX for stars past their lifetime.
func (s *Star) Spectr() SpectrType {
	return s.spectr.get(func() SpectrType {
		if s.Age() >= 1 {
			return SpectrX
		}
		return SpectrType(int32(math.Round(s.ClassFactor()+4))) + SpectrM
	})
}

// Color is a 0..1 hue index.
func (s *Star) Color() float32 {
	return s.color.get(func() float32 {
		switch s.Type {
		case BlackHole, NeutronStar:
			return 1
		case WhiteDwarf:
			return 0.7
		}
		return clamp32(float32((s.ClassFactor()+3.5)*0.200000002980232), 0, 1)
	})
}

// Luminosity is the displayed luminosity, rounded to three decimals.
func (s *Star) Luminosity() float32 {
	return s.luminosity.get(func() float32 {
		base := pow32(s.TemperatureFactor(), 0.7)
		var factor float32
		switch s.Type {
		case BlackHole:
			factor = float32(1.0/1000.0) * s.ageNum1
		case NeutronStar:
			factor = 0.1 * s.ageNum1
		case WhiteDwarf:
			factor = 0.04 * s.ageNum2
		case GiantStar:
			factor = 1.6
		default:
			factor = 1
		}
		return round32(pow32(base*factor, 0.33)*1000) / 1000
	})
}

// Radius in solar radii.
func (s *Star) Radius() float32 {
	return s.radius.get(func() float32 {
		if s.Type == GiantStar {
			num4 := float32(math.Pow(5, math.Abs(math.Log10(float64(s.unmodifiedMass))-0.7)) * 5)
			if num4 > 10 {
				num4 = (ln32(num4*0.1) + 1) * 10
			}
			return num4 * s.ageNum2
		}
		r := float32(math.Pow(float64(s.unmodifiedMass), 0.4) * s.radiusFactor)
		switch s.Type {
		case NeutronStar:
			return r * 0.15
		case WhiteDwarf:
			return r * 0.2
		}
		return r
	})
}

// HabitableRadius is the orbit radius with temperate conditions. It is zero
// for black holes and neutron stars.
func (s *Star) HabitableRadius() float32 {
	return s.habitableRadius.get(func() float32 {
		var factor float32
		switch s.Type {
		case BlackHole, NeutronStar:
			return 0
		case WhiteDwarf:
			factor = 0.15 * s.ageNum2
		case GiantStar:
			factor = 9
		default:
			factor = 1
		}
		var offset float32 = 0.25
		if s.IsBirth() {
			offset = 0.2
		}
		return (pow32(1.7, float32(s.ClassFactor())+2) + offset) * factor
	})
}

// LightBalanceRadius is where solar power equals the reference output.
func (s *Star) LightBalanceRadius() float32 {
	return s.lightBalanceRadius.get(func() float32 {
		if s.Type == GiantStar {
			return 3 * s.HabitableRadius()
		}
		r := pow32(1.7, float32(s.ClassFactor())+2)
		switch s.Type {
		case BlackHole:
			return r * (0.4 * s.ageNum1)
		case NeutronStar:
			return r * (3 * s.ageNum1)
		case WhiteDwarf:
			return r * (0.2 * s.ageNum1)
		}
		return r
	})
}

// Mass is the effective mass after evolution.
func (s *Star) Mass() float32 {
	return s.mass.get(func() float32 {
		switch s.Type {
		case BlackHole:
			return s.unmodifiedMass * 2.5 * s.ageNum2
		case NeutronStar, WhiteDwarf:
			return s.unmodifiedMass * 0.2 * s.ageNum1
		case GiantStar:
			return s.unmodifiedMass * (1 - float32(pow32(s.Age(), 30)*0.5))
		}
		return s.unmodifiedMass
	})
}

// OrbitScaler stretches planet orbits around hotter stars.
func (s *Star) OrbitScaler() float32 {
	return s.orbitScaler.get(func() float32 {
		os := pow32(1.35, float32(s.ClassFactor())+2)
		if os < 1 {
			os += float32((1 - os) * 0.6)
		}
		switch s.Type {
		case NeutronStar:
			return os * (1.5 * s.ageNum1)
		case GiantStar:
			return os * 3.3
		}
		return os
	})
}

// DysonRadius returns the default Dyson sphere radius.
func (s *Star) DysonRadius() float32 {
	return s.dysonRadius.get(func() float32 {
		return max(s.OrbitScaler()*0.28, s.Radius()*0.045)
	})
}
