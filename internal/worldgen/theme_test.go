package worldgen

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestDefaultCatalog(t *testing.T) {
	c := DefaultCatalog()
	if c.Len() == 0 {
		t.Fatal("Expected built-in themes")
	}

	births := 0
	for _, theme := range c.Themes() {
		if theme.Distribute == DistributeBirth {
			births++
			if theme.PlanetType != PlanetOcean {
				t.Errorf("Expected birth theme to be Ocean, got %s", theme.PlanetType)
			}
		}
		if theme.PlanetType == PlanetGas && len(theme.GasItems) == 0 {
			t.Errorf("Expected gas theme %d to have gas items", theme.ID)
		}
	}
	if births != 1 {
		t.Errorf("Expected exactly 1 birth theme, got %d", births)
	}

	theme, ok := c.Get(1)
	if !ok {
		t.Fatal("Expected theme 1 to exist")
	}
	if theme.WaterItemID != 1000 {
		t.Errorf("Expected water item 1000, got %d", theme.WaterItemID)
	}
	if _, ok := c.Get(9999); ok {
		t.Error("Expected unknown theme id to be missing")
	}
}

func TestParseCatalog_Errors(t *testing.T) {
	tests := []struct {
		name string
		json string
		want string
	}{
		{"bad json", `{`, "decode themes"},
		{"duplicate", `[{"id":1,"planetType":"Desert"},{"id":1,"planetType":"Desert"}]`, "duplicate theme id 1"},
		{"no desert", `[{"id":1,"planetType":"Ocean"}]`, "at least one desert"},
		{"rare settings", `[{"id":1,"planetType":"Desert","rareVeins":["Diamond"],"rareSettings":[0,1]}]`, "expected 4 rare settings"},
		{"gas mismatch", `[{"id":1,"planetType":"Desert","gasItems":[1120],"gasSpeeds":[]}]`, "gas speeds"},
		{"unknown type", `[{"id":1,"planetType":"Lava"}]`, "unknown planet type"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCatalog([]byte(tt.json))
			if err == nil {
				t.Fatal("Expected error")
			}
			if !strings.Contains(err.Error(), tt.want) {
				t.Errorf("Expected error containing %q, got: %v", tt.want, err)
			}
		})
	}
}

func TestLoadCatalog(t *testing.T) {
	path := filepath.Join(t.TempDir(), "themes.json")
	doc := `[{"id":7,"name":"Dust","planetType":"Desert","temperature":0,"distribute":"Default",
		"veinSpot":[1],"veinCount":[0.5],"veinOpacity":[0.5]}]`
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil {
		t.Fatalf("write themes: %v", err)
	}
	c, err := LoadCatalog(path)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if c.Len() != 1 {
		t.Fatalf("Expected 1 theme, got %d", c.Len())
	}

	// A galaxy built on a desert-only catalog falls back to desert everywhere
	g, err := CreateGalaxy(GameDesc{Seed: 3, StarCount: 6, ResourceMultiplier: 1}, c)
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	for _, s := range g.Stars {
		for _, p := range s.Planets() {
			if p.Theme().ID != 7 || p.Type() != PlanetDesert {
				t.Errorf("Expected fallback desert theme, got %d (%s)", p.Theme().ID, p.Type())
			}
		}
	}

	if _, err := LoadCatalog(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for missing file")
	}
}

func TestTemperatureMatches(t *testing.T) {
	neutralDesert := &ThemeProto{PlanetType: PlanetDesert, Temperature: 0}
	if !temperatureMatches(neutralDesert, 0.05) {
		t.Error("Expected neutral desert to accept a small bias")
	}
	if temperatureMatches(neutralDesert, 0.5) {
		t.Error("Expected neutral desert to reject a large bias")
	}

	hot := &ThemeProto{PlanetType: PlanetVolcano, Temperature: 5}
	if !temperatureMatches(hot, 0.2) {
		t.Error("Expected hot theme to accept a warm planet")
	}
	if temperatureMatches(hot, -0.5) {
		t.Error("Expected hot theme to reject a cold planet")
	}
}
