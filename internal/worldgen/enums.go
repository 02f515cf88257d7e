package worldgen

import "fmt"

// StarType is the evolutionary class of a star.
type StarType int32

const (
	MainSeqStar StarType = iota
	GiantStar
	WhiteDwarf
	NeutronStar
	BlackHole
)

var starTypeNames = []string{"MainSeqStar", "GiantStar", "WhiteDwarf", "NeutronStar", "BlackHole"}

func (t StarType) String() string {
	if t < 0 || int(t) >= len(starTypeNames) {
		return fmt.Sprintf("StarType(%d)", int32(t))
	}
	return starTypeNames[t]
}

func (t StarType) MarshalText() ([]byte, error) {
	if t < 0 || int(t) >= len(starTypeNames) {
		return nil, fmt.Errorf("invalid star type %d", int32(t))
	}
	return []byte(starTypeNames[t]), nil
}

func (t *StarType) UnmarshalText(text []byte) error {
	i, err := parseName("star type", starTypeNames, string(text))
	if err != nil {
		return err
	}
	*t = StarType(i)
	return nil
}

// IsCompact reports whether the star is a neutron star or a black hole.
func (t StarType) IsCompact() bool {
	return t == NeutronStar || t == BlackHole
}

// SpectrType is the spectral class. The numeric values follow the class
// factor scale, so M is -4 and the evolved class X is 3.
type SpectrType int32

const (
	SpectrM SpectrType = iota - 4
	SpectrK
	SpectrG
	SpectrF
	SpectrA
	SpectrB
	SpectrO
	SpectrX
)

var spectrNames = []string{"M", "K", "G", "F", "A", "B", "O", "X"}

func (s SpectrType) valid() bool {
	return s >= SpectrM && s <= SpectrX
}

func (s SpectrType) String() string {
	if !s.valid() {
		return fmt.Sprintf("SpectrType(%d)", int32(s))
	}
	return spectrNames[s-SpectrM]
}

func (s SpectrType) MarshalText() ([]byte, error) {
	if !s.valid() {
		return nil, fmt.Errorf("invalid spectral class %d", int32(s))
	}
	return []byte(spectrNames[s-SpectrM]), nil
}

func (s *SpectrType) UnmarshalText(text []byte) error {
	i, err := parseName("spectral class", spectrNames, string(text))
	if err != nil {
		return err
	}
	*s = SpectrType(i) + SpectrM
	return nil
}

// PlanetType is the surface classification of a planet.
type PlanetType int32

const (
	PlanetNone PlanetType = iota
	PlanetVolcano
	PlanetOcean
	PlanetDesert
	PlanetIce
	PlanetGas
)

// The volcanic type keeps the game's spelling on the wire.
var planetTypeNames = []string{"None", "Vocano", "Ocean", "Desert", "Ice", "Gas"}

func (t PlanetType) String() string {
	if t < 0 || int(t) >= len(planetTypeNames) {
		return fmt.Sprintf("PlanetType(%d)", int32(t))
	}
	return planetTypeNames[t]
}

func (t PlanetType) MarshalText() ([]byte, error) {
	if t < 0 || int(t) >= len(planetTypeNames) {
		return nil, fmt.Errorf("invalid planet type %d", int32(t))
	}
	return []byte(planetTypeNames[t]), nil
}

func (t *PlanetType) UnmarshalText(text []byte) error {
	i, err := parseName("planet type", planetTypeNames, string(text))
	if err != nil {
		return err
	}
	*t = PlanetType(i)
	return nil
}

// ThemeDistribute controls where a theme may be placed.
type ThemeDistribute int32

const (
	DistributeDefault ThemeDistribute = iota
	DistributeBirth
	DistributeInterstellar
	DistributeRare
)

var distributeNames = []string{"Default", "Birth", "Interstellar", "Rare"}

func (d ThemeDistribute) String() string {
	if d < 0 || int(d) >= len(distributeNames) {
		return fmt.Sprintf("ThemeDistribute(%d)", int32(d))
	}
	return distributeNames[d]
}

func (d ThemeDistribute) MarshalText() ([]byte, error) {
	if d < 0 || int(d) >= len(distributeNames) {
		return nil, fmt.Errorf("invalid theme distribution %d", int32(d))
	}
	return []byte(distributeNames[d]), nil
}

func (d *ThemeDistribute) UnmarshalText(text []byte) error {
	i, err := parseName("theme distribution", distributeNames, string(text))
	if err != nil {
		return err
	}
	*d = ThemeDistribute(i)
	return nil
}

// VeinType identifies a resource deposit kind.
type VeinType int32

const (
	VeinNone VeinType = iota
	VeinIron
	VeinCopper
	VeinSilicium
	VeinTitanium
	VeinStone
	VeinCoal
	VeinOil
	VeinFireice
	VeinDiamond
	VeinFractal
	VeinCrysrub
	VeinGrat
	VeinBamboo
	VeinMag
	veinMax
)

var veinTypeNames = []string{
	"None", "Iron", "Copper", "Silicium", "Titanium", "Stone", "Coal", "Oil",
	"Fireice", "Diamond", "Fractal", "Crysrub", "Grat", "Bamboo", "Mag",
}

func (v VeinType) String() string {
	if v < 0 || v >= veinMax {
		return fmt.Sprintf("VeinType(%d)", int32(v))
	}
	return veinTypeNames[v]
}

func (v VeinType) MarshalText() ([]byte, error) {
	if v < 0 || v >= veinMax {
		return nil, fmt.Errorf("invalid vein type %d", int32(v))
	}
	return []byte(veinTypeNames[v]), nil
}

func (v *VeinType) UnmarshalText(text []byte) error {
	i, err := parseName("vein type", veinTypeNames, string(text))
	if err != nil {
		return err
	}
	*v = VeinType(i)
	return nil
}

// IsRare reports whether the vein follows the rare placement path.
func (v VeinType) IsRare() bool {
	switch v {
	case VeinFireice, VeinDiamond, VeinFractal, VeinCrysrub, VeinGrat, VeinBamboo:
		return true
	}
	return false
}

func parseName(kind string, names []string, s string) (int, error) {
	for i, name := range names {
		if name == s {
			return i, nil
		}
	}
	return 0, fmt.Errorf("unknown %s %q", kind, s)
}
