package irt

import "math"

// Estimate is the running trait estimate for a session.
type Estimate struct {
	Theta         float64 `json:"theta"`
	StandardError float64 `json:"standard_error"`
	Confidence    float64 `json:"confidence"`
}

// NewEstimate returns the prior for a fresh session.
func NewEstimate(theta, sem float64) Estimate {
	return Estimate{Theta: theta, StandardError: sem, Confidence: 0}
}

// ScoredResponse is the slice of a response the estimator needs: the item's
// 2PL parameters and the answer normalized to [0,1].
type ScoredResponse struct {
	Discrimination float64
	Difficulty     float64
	Normalized     float64
}

// Update folds a batch of responses into the prior estimate using an
// information-weighted gradient step per response. Theta moves toward the
// evidence (high-valued answers push it up), accumulated Fisher information
// shrinks the standard error, and confidence = 1/(1+SEM). Called with no
// responses it returns the prior unchanged.
func Update(prior Estimate, responses []ScoredResponse) Estimate {
	if len(responses) == 0 {
		return prior
	}

	theta := prior.Theta
	sem := prior.StandardError
	precision := 0.0
	if sem > 0 {
		precision = 1 / (sem * sem)
	}

	for _, resp := range responses {
		a := resp.Discrimination
		if a <= 0 {
			a = 1
		}
		p := Prob(theta, a, resp.Difficulty)
		// Step size scales with current uncertainty so early answers move
		// theta more than late ones.
		theta += sem * a * (resp.Normalized - p)
		precision += Information(theta, a, resp.Difficulty)
	}

	newSEM := 1 / math.Sqrt(precision)
	if newSEM > prior.StandardError {
		newSEM = prior.StandardError
	}

	return Estimate{
		Theta:         theta,
		StandardError: newSEM,
		Confidence:    confidence(newSEM),
	}
}

func confidence(sem float64) float64 {
	return 1 / (1 + sem)
}
