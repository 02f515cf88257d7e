package worldgen

import (
	"math"

	"github.com/daniacca/starseed/internal/rng"
)

// Physical radius of a rocky planet and of a gas giant, in game units.
const (
	planetRadius   = 200
	gasGiantRadius = 800
)

var orbitRadii = [...]float32{
	0, 0.4, 0.7, 1, 1.4, 1.9, 2.5, 3.3, 4.3, 5.5, 6.9, 8.4, 10, 11.7, 13.5, 15.4, 17.5,
}

// Planet is one body of a star's planet arena. Orbit geometry and rotation are
// derived on demand. The surface type, theme and resources are filled in by
// the star because they depend on the galaxy-wide habitable quota and on the
// themes already taken by sibling planets.
type Planet struct {
	star        *Star
	orbitAround int

	Index      int32
	InfoSeed   int32
	Seed       int32
	ThemeSeed  int32
	OrbitIndex int32
	GasGiant   bool

	shapeA, shapeB       float64
	inclinationFactor    float64
	longitudeFactor      float64
	orbitPhaseFactor     float64
	obliquityA           float64
	obliquityB           float64
	rotationA, rotationB float64
	rotationPhaseFactor  float64
	habitableRoll        float64
	typeRoll             float64
	themeRand1           float64
	rotationKind         float64

	orbitRadius   cached[float32]
	orbitalPeriod cached[float64]
	habitability  cached[habitability]
	rotation      cached[rotation]
	luminosity    cached[float32]

	unmodifiedType PlanetType
	typed          bool
	theme          *ThemeProto

	veins       []Vein
	gases       []Gas
	resourcesOK bool
}

type habitability struct {
	bias     float32
	tempBias float32
	ratio    float32
}

type rotation struct {
	obliquity float32
	period    float64
}

func newPlanet(s *Star, index, orbitIndex int32, orbitAround int, gasGiant bool, infoSeed, genSeed int32) *Planet {
	p := &Planet{
		star:        s,
		orbitAround: orbitAround,
		Index:       index,
		InfoSeed:    infoSeed,
		Seed:        genSeed,
		OrbitIndex:  orbitIndex,
		GasGiant:    gasGiant,
	}
	r := rng.New(infoSeed)
	p.shapeA = r.NextF64()
	p.shapeB = r.NextF64()
	p.inclinationFactor = r.NextF64()
	p.longitudeFactor = r.NextF64()
	p.orbitPhaseFactor = r.NextF64()
	p.obliquityA = r.NextF64()
	p.obliquityB = r.NextF64()
	p.rotationA = r.NextF64()
	p.rotationB = r.NextF64()
	p.rotationPhaseFactor = r.NextF64()
	p.habitableRoll = r.NextF64()
	p.typeRoll = r.NextF64()
	p.themeRand1 = r.NextF64()
	p.rotationKind = r.NextF64()
	r.NextF64()
	r.NextF64()
	r.NextF64()
	p.ThemeSeed = r.NextSeed()
	return p
}

// Star returns the owning star.
func (p *Planet) Star() *Star {
	return p.star
}

// OrbitAround returns the parent planet of a satellite, or nil.
func (p *Planet) OrbitAround() *Planet {
	if p.orbitAround < 0 {
		return nil
	}
	return p.star.planets[p.orbitAround]
}

func (p *Planet) IsSatellite() bool {
	return p.orbitAround >= 0
}

// IsBirth reports whether this is the home planet of the birth star.
func (p *Planet) IsBirth() bool {
	return p.star.IsBirth() && p.IsSatellite() && p.OrbitIndex == 1 && !p.GasGiant
}

func (p *Planet) RealRadius() float32 {
	if p.GasGiant {
		return gasGiantRadius
	}
	return planetRadius
}

// OrbitRadius is the distance to the orbited body in AU.
func (p *Planet) OrbitRadius() float32 {
	return p.orbitRadius.get(func() float32 {
		a := pow32(1.2, float32(p.shapeA*(p.shapeB-0.5)*0.5))
		scaler := p.star.OrbitScaler()
		if parent := p.OrbitAround(); parent != nil {
			return float32((float64((float64(1600*float64(p.OrbitIndex))+200)*float64(pow32(scaler, 0.3))*float64(a+float32((1-a)*0.5))) +
				float64(parent.RealRadius())) / 40000)
		}
		b := orbitRadii[p.OrbitIndex] * scaler
		num16 := float32(float64(a-1)/float64(max(b, 1)) + 1)
		return b * num16
	})
}

func (p *Planet) OrbitInclination() float32 {
	inclination := float32(float64(p.inclinationFactor*16) - 8)
	if p.IsSatellite() {
		inclination *= 2.2
	}
	if p.star.Type == NeutronStar {
		if inclination > 0 {
			inclination += 3
		} else {
			inclination -= 3
		}
	}
	return inclination
}

func (p *Planet) OrbitLongitude() float32 {
	return float32(p.longitudeFactor * 360)
}

func (p *Planet) OrbitPhase() float32 {
	return float32(p.orbitPhaseFactor * 360)
}

func (p *Planet) RotationPhase() float32 {
	return float32(p.rotationPhaseFactor * 360)
}

func (p *Planet) OrbitalPeriod() float64 {
	return p.orbitalPeriod.get(func() float64 {
		r := float64(p.OrbitRadius())
		denom := 1.08308421068537e-08
		if !p.IsSatellite() {
			denom = 1.35385519905204e-06 * float64(p.star.Mass())
		}
		return math.Sqrt(39.4784176043574 * r * r * r / denom)
	})
}

// SunDistance is the orbit radius of the planet or of its parent.
func (p *Planet) SunDistance() float32 {
	if parent := p.OrbitAround(); parent != nil {
		return parent.OrbitRadius()
	}
	return p.OrbitRadius()
}

func (p *Planet) SunOrbitalPeriod() float64 {
	if parent := p.OrbitAround(); parent != nil {
		return parent.OrbitalPeriod()
	}
	return p.OrbitalPeriod()
}

func (p *Planet) habitabilityInfo() habitability {
	return p.habitability.get(func() habitability {
		if p.GasGiant {
			return habitability{bias: 100}
		}
		hr := p.star.HabitableRadius()
		sd := p.SunDistance()
		var ratio, dist float32 = 1000, 1000
		if hr > 0 && sd > 0 {
			ratio = sd / hr
			dist = float32(math.Abs(float64(ln32(ratio))))
		}
		num22 := clamp32(float32(math.Sqrt(float64(hr))), 1, 2) - 0.04
		return habitability{
			bias:     dist * num22,
			tempBias: float32(1.2/(float64(ratio)+0.2) - 1),
			ratio:    ratio,
		}
	})
}

func (p *Planet) HabitableBias() float32 {
	return p.habitabilityInfo().bias
}

func (p *Planet) TemperatureBias() float32 {
	return p.habitabilityInfo().tempBias
}

// classify assigns the pre-theme surface type, consuming the habitable quota
// tracked in ctx.
func (p *Planet) classify(ctx *genContext) {
	p.typed = true
	if p.GasGiant {
		p.unmodifiedType = PlanetGas
		return
	}
	h := p.habitabilityInfo()
	starCount := p.star.galaxy.Desc.StarCount
	quota := max(float32(math.Ceil(float64(float32(starCount)*0.29))), 11)
	remaining := float64(quota) - float64(ctx.habitableCount)
	starsLeft := float32(starCount - p.star.Index)
	a := float32(remaining / float64(starsLeft))
	num24 := clamp32(a+float32((0.35-a)*0.5), 0.08, 0.8)
	threshold := pow32(clamp32(h.bias/num24, 0, 1.1), num24*10)

	switch {
	case p.IsBirth() || (p.habitableRoll > float64(threshold) && p.star.Index > 0):
		p.unmodifiedType = PlanetOcean
		ctx.habitableCount++
	case h.ratio < 5.0/6.0:
		if p.typeRoll >= max(float64(float64(h.ratio)*2.5)-0.85, 0.15) {
			p.unmodifiedType = PlanetVolcano
		} else {
			p.unmodifiedType = PlanetDesert
		}
	case h.ratio < 1.2:
		p.unmodifiedType = PlanetDesert
	default:
		if p.typeRoll >= 0.9/float64(h.ratio)-0.1 {
			p.unmodifiedType = PlanetIce
		} else {
			p.unmodifiedType = PlanetDesert
		}
	}
}

// UnmodifiedType is the classification before a theme is applied.
func (p *Planet) UnmodifiedType() PlanetType {
	if !p.typed {
		p.star.galaxy.deriveTypesThrough(p.star.Index)
	}
	return p.unmodifiedType
}

// Type is the final surface type, taken from the selected theme.
func (p *Planet) Type() PlanetType {
	return p.Theme().PlanetType
}

func (p *Planet) Theme() *ThemeProto {
	if p.theme == nil {
		p.star.loadThemes()
	}
	return p.theme
}

func (p *Planet) rotationInfo() rotation {
	return p.rotation.get(func() rotation {
		scale := p.obliquityA * (p.obliquityB - 0.5)
		kind := p.rotationKind
		var obliquity float32
		switch {
		case kind < 0.04:
			obliquity = float32(scale * 39.9)
			if obliquity < 0 {
				obliquity -= 70
			} else {
				obliquity += 70
			}
		case kind < 0.1:
			obliquity = float32(scale * 80)
			if obliquity < 0 {
				obliquity -= 30
			} else {
				obliquity += 30
			}
		default:
			obliquity = float32(scale * 60)
		}

		rotationScale := float64(p.rotationA*p.rotationB*1000) + 400
		if !p.GasGiant {
			switch p.star.Type {
			case WhiteDwarf:
				rotationScale *= 0.5
			case NeutronStar:
				rotationScale *= 0.2
			case BlackHole:
				rotationScale *= 0.15
			}
		}
		period := rotationScale
		if !p.IsSatellite() {
			period *= float64(pow32(p.OrbitRadius(), 0.25))
		}
		if p.GasGiant {
			period *= 0.2
		}
		period = 1 / (1/p.SunOrbitalPeriod() + 1/period)

		if !p.IsSatellite() && p.OrbitIndex <= 4 && !p.GasGiant {
			switch {
			case kind > 0.96:
				obliquity *= 0.01
				period = p.OrbitalPeriod()
			case kind > 0.930000007152557:
				obliquity *= 0.1
				period = p.OrbitalPeriod() * 0.5
			case kind > 0.9:
				obliquity *= 0.2
				period = p.OrbitalPeriod() * 0.25
			}
		}
		if kind > 0.85 && kind <= 0.9 {
			period = -period
		}
		return rotation{obliquity: obliquity, period: period}
	})
}

func (p *Planet) Obliquity() float32 {
	return p.rotationInfo().obliquity
}

func (p *Planet) RotationPeriod() float64 {
	return p.rotationInfo().period
}

// IsTidalLocked reports whether the planet always shows the same face to
// its star.
func (p *Planet) IsTidalLocked() bool {
	return p.RotationPeriod() == p.OrbitalPeriod()
}

// Luminosity is the relative sunlight at the planet, rounded to two
// decimals.
func (p *Planet) Luminosity() float32 {
	return p.luminosity.get(func() float32 {
		l := pow32(p.star.LightBalanceRadius()/(p.SunDistance()+0.01), 0.6)
		if l > 1 {
			l = ln32(l) + 1
			l = ln32(l) + 1
			l = ln32(l) + 1
		}
		return round32(l*100) / 100
	})
}
