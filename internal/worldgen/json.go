package worldgen

import "encoding/json"

type themeJSON struct {
	ID          int32   `json:"id"`
	Name        string  `json:"name"`
	WaterItemID int32   `json:"waterItemId"`
	Wind        float32 `json:"wind"`
}

type planetJSON struct {
	Index            int32      `json:"index"`
	OrbitAround      *int32     `json:"orbitAround"`
	OrbitIndex       int32      `json:"orbitIndex"`
	OrbitRadius      float32    `json:"orbitRadius"`
	OrbitInclination float32    `json:"orbitInclination"`
	OrbitLongitude   float32    `json:"orbitLongitude"`
	OrbitalPeriod    float64    `json:"orbitalPeriod"`
	OrbitPhase       float32    `json:"orbitPhase"`
	Obliquity        float32    `json:"obliquity"`
	RotationPeriod   float64    `json:"rotationPeriod"`
	RotationPhase    float32    `json:"rotationPhase"`
	SunDistance      float32    `json:"sunDistance"`
	Type             PlanetType `json:"type"`
	Luminosity       float32    `json:"luminosity"`
	Theme            themeJSON  `json:"theme"`
	Veins            []Vein     `json:"veins"`
	Gases            []Gas      `json:"gases"`
}

type starJSON struct {
	Index       int32      `json:"index"`
	Position    Vector3    `json:"position"`
	Mass        float32    `json:"mass"`
	Lifetime    float32    `json:"lifetime"`
	Age         float32    `json:"age"`
	Temperature float32    `json:"temperature"`
	Type        StarType   `json:"type"`
	Spectr      SpectrType `json:"spectr"`
	Luminosity  float32    `json:"luminosity"`
	Radius      float32    `json:"radius"`
	DysonRadius float32    `json:"dysonRadius"`
	Planets     []*Planet  `json:"planets"`
}

// MarshalJSON encodes the galaxy with all lazy data materialized.
func (g *Galaxy) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		Seed  int32   `json:"seed"`
		Stars []*Star `json:"stars"`
	}{g.Seed, g.Stars})
}

func (s *Star) MarshalJSON() ([]byte, error) {
	return json.Marshal(starJSON{
		Index:       s.Index,
		Position:    s.Position,
		Mass:        s.Mass(),
		Lifetime:    s.Lifetime(),
		Age:         s.Age(),
		Temperature: s.Temperature(),
		Type:        s.Type,
		Spectr:      s.Spectr(),
		Luminosity:  s.Luminosity(),
		Radius:      s.Radius(),
		DysonRadius: s.DysonRadius(),
		Planets:     s.Planets(),
	})
}

func (p *Planet) MarshalJSON() ([]byte, error) {
	theme := p.Theme()
	out := planetJSON{
		Index:            p.Index,
		OrbitIndex:       p.OrbitIndex,
		OrbitRadius:      p.OrbitRadius(),
		OrbitInclination: p.OrbitInclination(),
		OrbitLongitude:   p.OrbitLongitude(),
		OrbitalPeriod:    p.OrbitalPeriod(),
		OrbitPhase:       p.OrbitPhase(),
		Obliquity:        p.Obliquity(),
		RotationPeriod:   p.RotationPeriod(),
		RotationPhase:    p.RotationPhase(),
		SunDistance:      p.SunDistance(),
		Type:             theme.PlanetType,
		Luminosity:       p.Luminosity(),
		Theme: themeJSON{
			ID:          theme.ID,
			Name:        theme.Name,
			WaterItemID: theme.WaterItemID,
			Wind:        theme.Wind,
		},
		Veins: p.Veins(),
		Gases: p.Gases(),
	}
	if parent := p.OrbitAround(); parent != nil {
		out.OrbitAround = &parent.Index
	}
	if out.Veins == nil {
		out.Veins = []Vein{}
	}
	if out.Gases == nil {
		out.Gases = []Gas{}
	}
	return json.Marshal(out)
}
