package worldgen

import "testing"

func TestGeneratePositions(t *testing.T) {
	poses := GeneratePositions(1234, 64, layoutIterCount, layoutMinDist, layoutMinStepLen, layoutMaxStepLen, layoutFlatten)
	if len(poses) == 0 {
		t.Fatal("Expected at least the origin")
	}
	if len(poses) > 64 {
		t.Errorf("Expected at most 64 positions, got %d", len(poses))
	}
	if poses[0] != (Vector3{}) {
		t.Errorf("Expected first position at origin, got %v", poses[0])
	}

	// Every pair keeps the minimum distance
	for i := range poses {
		for j := i + 1; j < len(poses); j++ {
			if d := poses[i].Distance(poses[j]); d < layoutMinDist {
				t.Fatalf("Expected distance >= %v between %d and %d, got %v", layoutMinDist, i, j, d)
			}
		}
	}
}

func TestGeneratePositions_Deterministic(t *testing.T) {
	a := GeneratePositions(-99, 32, 4, 2, 2.3, 3.5, 0.18)
	b := GeneratePositions(-99, 32, 4, 2, 2.3, 3.5, 0.18)
	if len(a) != len(b) {
		t.Fatalf("Expected equal lengths, got %d and %d", len(a), len(b))
	}
	for i := range a {
		if a[i] != b[i] {
			t.Errorf("Expected identical position %d, got %v and %v", i, a[i], b[i])
		}
	}
}

func TestGeneratePositions_Flattened(t *testing.T) {
	poses := GeneratePositions(77, 64, 4, 2, 2.3, 3.5, 0.18)
	var spreadY, spreadX float64
	for _, p := range poses {
		spreadY = max(spreadY, p.Y, -p.Y)
		spreadX = max(spreadX, p.X, -p.X)
	}
	if spreadY >= spreadX {
		t.Errorf("Expected a flattened disc, got |y| %v >= |x| %v", spreadY, spreadX)
	}
}

func TestGeneratePositions_IterCountClamped(t *testing.T) {
	poses := GeneratePositions(5, 10, 0, 2, 2.3, 3.5, 0.18)
	if len(poses) > 10 {
		t.Errorf("Expected at most 10 positions, got %d", len(poses))
	}
}

func TestVector3_JSON(t *testing.T) {
	v := Vector3{X: 1.5, Y: -2, Z: 0}
	data, err := v.MarshalJSON()
	if err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if string(data) != "[1.5,-2,0]" {
		t.Errorf("Expected [1.5,-2,0], got %s", data)
	}
	var back Vector3
	if err := back.UnmarshalJSON(data); err != nil {
		t.Fatalf("Expected no error, got: %v", err)
	}
	if back != v {
		t.Errorf("Expected %v, got %v", v, back)
	}
}
