package session

import (
	"math"

	"github.com/sentira-edu/platform/pkg/common/models"
)

// StopPolicy decides after each accepted response whether the session has
// gathered enough information. Thresholds are configuration, not constants;
// defaults mirror Config.
type StopPolicy struct {
	MinResponses int
	SEMThreshold float64
	MaxItemRatio float64
}

// MaxItems is the presented-item ceiling: a fraction of the pool for
// adaptive questionnaires, the full pool otherwise.
func (p StopPolicy) MaxItems(totalItems int, adaptive bool) int {
	if !adaptive {
		return totalItems
	}
	max := int(math.Ceil(float64(totalItems) * p.MaxItemRatio))
	if max < 1 {
		max = 1
	}
	return max
}

// Evaluate returns whether to stop and why. Pool exhaustion and the item
// ceiling terminate unconditionally; the SEM rule needs both the response
// floor and a standard error under threshold.
func (p StopPolicy) Evaluate(responseCount int, sem float64, poolExhausted bool, presentedCount, totalItems int, adaptive bool) (bool, models.StopReason) {
	if poolExhausted {
		return true, models.StopPoolExhausted
	}
	if presentedCount >= p.MaxItems(totalItems, adaptive) {
		return true, models.StopMaxItems
	}
	if responseCount >= p.MinResponses && sem < p.SEMThreshold {
		return true, models.StopSEMThreshold
	}
	return false, ""
}
