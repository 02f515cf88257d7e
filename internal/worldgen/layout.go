package worldgen

import (
	"math"

	"github.com/daniacca/starseed/internal/rng"
)

// Layout parameters used for every galaxy.
const (
	layoutIterCount   = 4
	layoutMinDist     = 2.0
	layoutMinStepLen  = 2.3
	layoutMaxStepLen  = 3.5
	layoutFlatten     = 0.18
	walkerTries       = 256
	walkRounds        = 256
	walkStepThreshold = 0.7
)

// GeneratePositions places up to targetCount star positions with a drunk walk
// seeded by seed. The first position is always the origin.
func GeneratePositions(seed int32, targetCount, iterCount int, minDist, minStep, maxStep, flatten float64) []Vector3 {
	actualIter := iterCount
	if actualIter < 1 {
		actualIter = 1
	} else if actualIter > 16 {
		actualIter = 16
	}
	poses := randomPoses(seed, targetCount*actualIter, minDist, maxStep-minStep, flatten)

	for index := len(poses) - 1; index >= 0; index-- {
		if index%actualIter != 0 {
			poses = append(poses[:index], poses[index+1:]...)
		}
		if len(poses) <= targetCount {
			break
		}
	}
	return poses
}

func randomPoses(seed int32, maxCount int, minDist, stepDiff, flatten float64) []Vector3 {
	r := rng.New(seed)
	num1 := r.NextF64()
	poses := []Vector3{{}}
	var walkers []Vector3

	// step draws one candidate offset from origin. ok is false when the
	// direction falls outside the unit ball or is degenerate.
	step := func(origin Vector3) (Vector3, bool) {
		x := r.NextF64()*2 - 1
		y := (r.NextF64()*2 - 1) * flatten
		z := r.NextF64()*2 - 1
		length := r.NextF64()
		d := float64(x*x) + float64(y*y) + float64(z*z)
		if d > 1 || d < 1e-8 {
			return Vector3{}, false
		}
		s := (float64(length*stepDiff) + minDist) / math.Sqrt(d)
		return Vector3{origin.X + float64(x*s), origin.Y + float64(y*s), origin.Z + float64(z*s)}, true
	}

	walkerCount := int(num1*2 + 6)
	for i := 0; i < walkerCount; i++ {
		for try := 0; try < walkerTries; try++ {
			pt, ok := step(Vector3{})
			if !ok || collides(poses, pt, minDist) {
				continue
			}
			walkers = append(walkers, pt)
			poses = append(poses, pt)
			if len(poses) >= maxCount {
				return poses
			}
			break
		}
	}

	for round := 0; round < walkRounds; round++ {
		for w := range walkers {
			if r.NextF64() > walkStepThreshold {
				continue
			}
			for try := 0; try < walkerTries; try++ {
				pt, ok := step(walkers[w])
				if !ok || collides(poses, pt, minDist) {
					continue
				}
				walkers[w] = pt
				poses = append(poses, pt)
				if len(poses) >= maxCount {
					return poses
				}
				break
			}
		}
	}
	return poses
}

func collides(poses []Vector3, pt Vector3, minDist float64) bool {
	minDistSq := minDist * minDist
	for _, p := range poses {
		if p.DistanceSq(pt) < minDistSq {
			return true
		}
	}
	return false
}
