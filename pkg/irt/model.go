package irt

import "math"

// Prob is the two-parameter logistic response model: the probability of an
// affirmative response at trait level theta for an item with discrimination
// a and difficulty b. Monotonically increasing in theta for a > 0.
func Prob(theta, a, b float64) float64 {
	return sigmoid(a * (theta - b))
}

// Information is the 2PL Fisher information of an item at trait level theta.
func Information(theta, a, b float64) float64 {
	p := Prob(theta, a, b)
	return a * a * p * (1 - p)
}

func sigmoid(x float64) float64 {
	return 1 / (1 + math.Exp(-x))
}
