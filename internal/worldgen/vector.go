package worldgen

import (
	"encoding/json"
	"math"
)

// Vector3 is a position in galaxy space, measured in light years.
type Vector3 struct {
	X, Y, Z float64
}

// Magnitude returns the distance from the origin.
func (v Vector3) Magnitude() float64 {
	return math.Sqrt(float64(v.X*v.X) + float64(v.Y*v.Y) + float64(v.Z*v.Z))
}

// DistanceSq returns the squared distance between two points.
func (v Vector3) DistanceSq(o Vector3) float64 {
	dx := v.X - o.X
	dy := v.Y - o.Y
	dz := v.Z - o.Z
	return float64(dx*dx) + float64(dy*dy) + float64(dz*dz)
}

// Distance returns the distance between two points.
func (v Vector3) Distance(o Vector3) float64 {
	return math.Sqrt(v.DistanceSq(o))
}

// MarshalJSON encodes the vector as [x, y, z].
func (v Vector3) MarshalJSON() ([]byte, error) {
	return json.Marshal([3]float64{v.X, v.Y, v.Z})
}

func (v *Vector3) UnmarshalJSON(data []byte) error {
	var arr [3]float64
	if err := json.Unmarshal(data, &arr); err != nil {
		return err
	}
	v.X, v.Y, v.Z = arr[0], arr[1], arr[2]
	return nil
}
