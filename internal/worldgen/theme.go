package worldgen

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"sync"
)

//go:embed themes.json
var defaultThemesJSON []byte

// ThemeProto is one read-only template from the theme catalog. Vein arrays
// are indexed by vein type minus one.
type ThemeProto struct {
	ID           int32           `json:"id"`
	Name         string          `json:"name"`
	PlanetType   PlanetType      `json:"planetType"`
	Temperature  float32         `json:"temperature"`
	Distribute   ThemeDistribute `json:"distribute"`
	WaterItemID  int32           `json:"waterItemId"`
	Wind         float32         `json:"wind"`
	VeinSpot     []int32         `json:"veinSpot"`
	VeinCount    []float32       `json:"veinCount"`
	VeinOpacity  []float32       `json:"veinOpacity"`
	RareVeins    []VeinType      `json:"rareVeins"`
	RareSettings []float32       `json:"rareSettings"`
	GasItems     []int32         `json:"gasItems"`
	GasSpeeds    []float32       `json:"gasSpeeds"`
}

// HasRareVein reports whether the theme can place the given rare vein.
func (t *ThemeProto) HasRareVein(v VeinType) bool {
	for _, rv := range t.RareVeins {
		if rv == v {
			return true
		}
	}
	return false
}

// Catalog is an ordered, immutable theme table. It is safe for concurrent use.
type Catalog struct {
	themes []*ThemeProto
	byID   map[int32]*ThemeProto
}

var defaultCatalog = sync.OnceValues(func() (*Catalog, error) {
	return ParseCatalog(defaultThemesJSON)
})

// DefaultCatalog returns the built-in theme catalog.
func DefaultCatalog() *Catalog {
	c, err := defaultCatalog()
	if err != nil {
		panic(fmt.Sprintf("built-in theme catalog: %v", err))
	}
	return c
}

// LoadCatalog reads a catalog from a JSON file with the same layout as the
// built-in one.
func LoadCatalog(path string) (*Catalog, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read themes file: %w", err)
	}
	c, err := ParseCatalog(data)
	if err != nil {
		return nil, fmt.Errorf("themes file %s: %w", path, err)
	}
	return c, nil
}

// ParseCatalog decodes and validates a JSON array of themes.
func ParseCatalog(data []byte) (*Catalog, error) {
	var themes []*ThemeProto
	if err := json.Unmarshal(data, &themes); err != nil {
		return nil, fmt.Errorf("decode themes: %w", err)
	}
	return NewCatalog(themes)
}

// NewCatalog builds a catalog from themes in selection order.
func NewCatalog(themes []*ThemeProto) (*Catalog, error) {
	c := &Catalog{
		themes: themes,
		byID:   make(map[int32]*ThemeProto, len(themes)),
	}
	hasDesert := false
	for i, t := range themes {
		if t == nil {
			return nil, fmt.Errorf("theme %d is null", i)
		}
		if _, dup := c.byID[t.ID]; dup {
			return nil, fmt.Errorf("duplicate theme id %d", t.ID)
		}
		limit := int(VeinOil)
		if len(t.VeinSpot) > limit || len(t.VeinCount) > limit || len(t.VeinOpacity) > limit {
			return nil, fmt.Errorf("theme %d: vein arrays are limited to %d entries", t.ID, limit)
		}
		if len(t.RareSettings) != 4*len(t.RareVeins) {
			return nil, fmt.Errorf("theme %d: expected %d rare settings, got %d", t.ID, 4*len(t.RareVeins), len(t.RareSettings))
		}
		for _, v := range t.RareVeins {
			if v <= VeinNone || v >= veinMax {
				return nil, fmt.Errorf("theme %d: invalid rare vein %d", t.ID, int32(v))
			}
		}
		if len(t.GasItems) != len(t.GasSpeeds) {
			return nil, fmt.Errorf("theme %d: %d gas items but %d gas speeds", t.ID, len(t.GasItems), len(t.GasSpeeds))
		}
		if t.PlanetType == PlanetDesert {
			hasDesert = true
		}
		c.byID[t.ID] = t
	}
	if !hasDesert {
		return nil, fmt.Errorf("catalog needs at least one desert theme")
	}
	return c, nil
}

// Themes returns the catalog entries in selection order.
func (c *Catalog) Themes() []*ThemeProto {
	return c.themes
}

// Get looks a theme up by id.
func (c *Catalog) Get(id int32) (*ThemeProto, bool) {
	t, ok := c.byID[id]
	return t, ok
}

// Len returns the number of themes.
func (c *Catalog) Len() int {
	return len(c.themes)
}

// selectTheme picks the theme for p given the ids already used by the star.
func (c *Catalog) selectTheme(p *Planet, birthStar bool, used map[int32]bool) *ThemeProto {
	var candidates []*ThemeProto
	planetType := p.UnmodifiedType()
	tempBias := float64(p.TemperatureBias())

	for _, t := range c.themes {
		if used[t.ID] {
			continue
		}
		if birthStar && planetType == PlanetOcean {
			if t.Distribute == DistributeBirth {
				candidates = append(candidates, t)
			}
			continue
		}
		if t.PlanetType != planetType || !temperatureMatches(t, tempBias) {
			continue
		}
		if birthStar {
			if t.Distribute == DistributeDefault {
				candidates = append(candidates, t)
			}
		} else if t.Distribute == DistributeDefault || t.Distribute == DistributeInterstellar {
			candidates = append(candidates, t)
		}
	}

	if len(candidates) == 0 {
		for _, t := range c.themes {
			if !used[t.ID] && t.PlanetType == PlanetDesert {
				candidates = append(candidates, t)
			}
		}
	}
	if len(candidates) == 0 {
		for _, t := range c.themes {
			if t.PlanetType == PlanetDesert {
				candidates = append(candidates, t)
			}
		}
	}

	n := len(candidates)
	return candidates[int(p.themeRand1*float64(n))%n]
}

func temperatureMatches(t *ThemeProto, tempBias float64) bool {
	temp := float64(t.Temperature)
	if math.Abs(temp) < 0.5 && t.PlanetType == PlanetDesert {
		return math.Abs(tempBias) < math.Abs(temp)+0.1
	}
	return temp*tempBias >= -0.1
}
