package humanize

import (
	"math"
	"math/rand"
)

// point is one planned trajectory position in logical screen pixels.
type point struct {
	X, Y int
}

// easeInOutCubic maps normalized progress t in [0,1] onto an s-curve that
// accelerates into the move and decelerates out of it.
func easeInOutCubic(t float64) float64 {
	if t < 0.5 {
		return 4 * t * t * t
	}
	return 1 - math.Pow(-2*t+2, 3)/2
}

// planTrajectory splits the displacement from (x0,y0) to (x1,y1) into
// sub-steps positioned along the easing curve, each no further than maxStep
// pixels from its predecessor. The easing curve covers ground fastest in the
// middle of the move, so the initial ceil(dist/maxStep) split is densified
// until every gap is within bound. Intermediate points carry up to jitter
// pixels of random offset per axis; the last point is always exactly the
// destination. A zero-length move still yields the destination so the
// dispatch path stays uniform.
func planTrajectory(x0, y0, x1, y1 int, maxStep float64, jitter int, rng *rand.Rand) []point {
	dx := float64(x1 - x0)
	dy := float64(y1 - y0)
	dist := math.Hypot(dx, dy)

	if dist == 0 {
		return []point{{X: x1, Y: y1}}
	}
	if maxStep < 1 {
		maxStep = 1
	}
	// Unbounded jitter could keep gaps above maxStep forever.
	if limit := int(maxStep / 4); jitter > limit {
		jitter = limit
	}

	// Integer pixels cap how fine a step can get: a diagonal neighbor is
	// already sqrt(2) away.
	bound := math.Max(maxStep, math.Sqrt2)

	steps := int(math.Ceil(dist / maxStep))
	for {
		points := make([]point, 0, steps)
		for i := 1; i <= steps; i++ {
			if i == steps {
				points = append(points, point{X: x1, Y: y1})
				break
			}
			e := easeInOutCubic(float64(i) / float64(steps))
			p := point{
				X: x0 + int(math.Round(dx*e)),
				Y: y0 + int(math.Round(dy*e)),
			}
			if jitter > 0 {
				p.X += rng.Intn(2*jitter+1) - jitter
				p.Y += rng.Intn(2*jitter+1) - jitter
			}
			points = append(points, p)
		}
		if maxGap(x0, y0, points) <= bound {
			return points
		}
		steps++
	}
}

// maxGap returns the largest distance between consecutive trajectory points,
// starting from the origin.
func maxGap(x0, y0 int, points []point) float64 {
	px, py := x0, y0
	var max float64
	for _, p := range points {
		if d := math.Hypot(float64(p.X-px), float64(p.Y-py)); d > max {
			max = d
		}
		px, py = p.X, p.Y
	}
	return max
}
