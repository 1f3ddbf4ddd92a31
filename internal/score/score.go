// Package score derives per-owner claimed area from the territory list.
package score

import (
	"math"

	"github.com/playperu/territorio/internal/geometry"
	"github.com/playperu/territorio/internal/territorio"
)

// Compute returns the total geodesic area in square metres per owner. Every
// owner in ownerIDs starts at zero and territories of other owners are
// ignored; with no ownerIDs every owner seen is counted. A territory that
// fails conversion contributes zero.
func Compute(territories []territorio.Territory, ownerIDs []string) map[string]float64 {
	scores := make(map[string]float64, len(ownerIDs))
	for _, id := range ownerIDs {
		scores[id] = 0
	}
	trackAll := len(ownerIDs) == 0

	for _, t := range territories {
		if _, ok := scores[t.OwnerID]; !ok && !trackAll {
			continue
		}
		scores[t.OwnerID] += Area(t)
	}
	return scores
}

// Area returns the geodesic area of a single territory, or zero when its rings
// do not form a valid polygon.
func Area(t territorio.Territory) float64 {
	if _, err := geometry.ToPolygon(t.Coordinates); err != nil {
		return 0
	}
	a, err := geometry.GeodesicArea(t.Coordinates)
	if err != nil {
		return 0
	}
	return a
}

// Rounded rounds every score to the nearest square metre.
func Rounded(scores map[string]float64) map[string]int64 {
	out := make(map[string]int64, len(scores))
	for id, s := range scores {
		out[id] = int64(math.Round(s))
	}
	return out
}
