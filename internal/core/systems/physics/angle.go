package physics

import "math"

// NormalizeAngle wraps a into (−π, π].
func NormalizeAngle(a float64) float64 {
	if math.IsNaN(a) || math.IsInf(a, 0) {
		return 0
	}
	a = math.Mod(a, 2*math.Pi)
	if a <= -math.Pi {
		a += 2 * math.Pi
	} else if a > math.Pi {
		a -= 2 * math.Pi
	}
	return a
}

// AngleDiff is the signed shortest rotation from `from` to `to`, in (−π, π].
func AngleDiff(from, to float64) float64 {
	return NormalizeAngle(to - from)
}

// RotateTowards turns cur towards want by at most maxStep radians.
func RotateTowards(cur, want, maxStep float64) float64 {
	if maxStep < 0 {
		maxStep = 0
	}
	d := AngleDiff(cur, want)
	if math.Abs(d) <= maxStep {
		return NormalizeAngle(want)
	}
	return NormalizeAngle(cur + math.Copysign(maxStep, d))
}
