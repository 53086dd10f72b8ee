package irt

import (
	"math"
	"strings"

	"github.com/sentira-edu/platform/pkg/common/models"
)

// SelectNext picks the next item to present, or nil when no candidates
// remain. An empty pool is a termination signal, not an error.
//
// Adaptive mode approximates the maximum-information 2PL choice by
// minimizing |difficulty - theta| scaled down by discrimination, so sharper
// items win between equally distant ones. Ties break on lowest item id so
// selection is deterministic. Fixed-order mode returns the lowest-order
// candidate.
func SelectNext(theta float64, candidates []models.Item, adaptive bool) *models.Item {
	if len(candidates) == 0 {
		return nil
	}

	best := 0
	for i := 1; i < len(candidates); i++ {
		if adaptive {
			if better(theta, candidates[i], candidates[best]) {
				best = i
			}
		} else {
			if candidates[i].Order < candidates[best].Order {
				best = i
			}
		}
	}

	chosen := candidates[best]
	return &chosen
}

func better(theta float64, a, b models.Item) bool {
	scoreA := distance(theta, a)
	scoreB := distance(theta, b)
	if scoreA != scoreB {
		return scoreA < scoreB
	}
	return strings.Compare(a.ID.String(), b.ID.String()) < 0
}

func distance(theta float64, item models.Item) float64 {
	d := math.Abs(item.Difficulty - theta)
	if item.Discrimination > 0 {
		d /= item.Discrimination
	}
	return d
}
