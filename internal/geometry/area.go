package geometry

import (
	"fmt"

	"github.com/golang/geo/s2"

	"github.com/playperu/territorio/internal/territorio"
)

// EarthRadius is the sphere radius in metres used for geodesic area.
const EarthRadius = 6378137.0

// GeodesicArea returns the spherical area of rings in square metres: the outer
// ring minus every hole.
func GeodesicArea(rings []territorio.Ring) (float64, error) {
	if len(rings) == 0 {
		return 0, fmt.Errorf("%w: no rings", ErrInvalidGeometry)
	}

	var total float64
	for i, r := range rings {
		loop, err := toLoop(r)
		if err != nil {
			return 0, fmt.Errorf("ring %d: %w", i, err)
		}
		a := loop.Area() * EarthRadius * EarthRadius
		if i == 0 {
			total += a
		} else {
			total -= a
		}
	}
	return max(total, 0), nil
}

func toLoop(r territorio.Ring) (*s2.Loop, error) {
	if len(r) > 1 && r[0] == r[len(r)-1] {
		r = r[:len(r)-1]
	}
	if n := distinctPoints(r); n < 3 {
		return nil, fmt.Errorf("%w: %d distinct points", ErrInvalidGeometry, n)
	}

	pts := make([]s2.Point, len(r))
	for i, c := range r {
		pts[i] = s2.PointFromLatLng(s2.LatLngFromDegrees(c.Lat, c.Lng))
	}
	loop := s2.LoopFromPoints(pts)
	if err := loop.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}
	// Rings may wind either way; the smaller side is the territory.
	loop.Normalize()
	return loop, nil
}
