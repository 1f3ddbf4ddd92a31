// Package geometry adapts territory rings to the planar polygon kernel and
// back. Coordinates map to XY as (lng, lat), matching GeoJSON order.
package geometry

import (
	"errors"
	"fmt"

	"github.com/peterstace/simplefeatures/geom"

	"github.com/playperu/territorio/internal/territorio"
)

// ErrInvalidGeometry is returned when rings cannot form a valid simple polygon.
var ErrInvalidGeometry = errors.New("invalid geometry")

// ToPolygon converts rings (outer first, holes after) into a validated
// polygon. Each ring is closed by repeating its first point when needed.
func ToPolygon(rings []territorio.Ring) (geom.Polygon, error) {
	if len(rings) == 0 {
		return geom.Polygon{}, fmt.Errorf("%w: no rings", ErrInvalidGeometry)
	}

	lss := make([]geom.LineString, len(rings))
	for i, r := range rings {
		if n := distinctPoints(r); n < 3 {
			return geom.Polygon{}, fmt.Errorf("%w: ring %d has %d distinct points", ErrInvalidGeometry, i, n)
		}
		lss[i] = geom.NewLineString(geom.NewSequence(closedXY(r), geom.DimXY))
	}

	p := geom.NewPolygon(lss)
	if err := p.Validate(); err != nil {
		return geom.Polygon{}, fmt.Errorf("%w: %v", ErrInvalidGeometry, err)
	}
	return p, nil
}

// FromPolygon converts a kernel polygon back into rings, dropping the closing
// point of each ring.
func FromPolygon(p geom.Polygon) []territorio.Ring {
	if p.IsEmpty() {
		return nil
	}
	rings := make([]territorio.Ring, 0, 1+p.NumInteriorRings())
	rings = append(rings, fromLineString(p.ExteriorRing()))
	for i := 0; i < p.NumInteriorRings(); i++ {
		rings = append(rings, fromLineString(p.InteriorRingN(i)))
	}
	return rings
}

// Overlaps reports whether a and b share a region of positive area. Polygons
// that only touch along an edge or at a vertex do not overlap.
func Overlaps(a, b geom.Polygon) (bool, error) {
	ag, bg := a.AsGeometry(), b.AsGeometry()
	if !geom.Intersects(ag, bg) {
		return false, nil
	}
	inter, err := geom.Intersection(ag, bg)
	if err != nil {
		return false, fmt.Errorf("intersecting polygons: %w", err)
	}
	return inter.Area() > 0, nil
}

// Contains reports whether inner lies entirely within outer.
func Contains(outer, inner geom.Polygon) (bool, error) {
	ok, err := geom.Contains(outer.AsGeometry(), inner.AsGeometry())
	if err != nil {
		return false, fmt.Errorf("testing containment: %w", err)
	}
	return ok, nil
}

// PlanarArea returns the area of rings in squared degrees.
func PlanarArea(rings []territorio.Ring) (float64, error) {
	p, err := ToPolygon(rings)
	if err != nil {
		return 0, err
	}
	return p.Area(), nil
}

func closedXY(r territorio.Ring) []float64 {
	flat := make([]float64, 0, 2*(len(r)+1))
	for _, c := range r {
		flat = append(flat, c.Lng, c.Lat)
	}
	if first, last := r[0], r[len(r)-1]; first != last {
		flat = append(flat, first.Lng, first.Lat)
	}
	return flat
}

func fromLineString(ls geom.LineString) territorio.Ring {
	seq := ls.Coordinates()
	n := seq.Length()
	if n > 1 && seq.GetXY(0) == seq.GetXY(n-1) {
		n--
	}
	ring := make(territorio.Ring, n)
	for i := 0; i < n; i++ {
		xy := seq.GetXY(i)
		ring[i] = territorio.Coordinate{Lat: xy.Y, Lng: xy.X}
	}
	return ring
}

func distinctPoints(r territorio.Ring) int {
	seen := make(map[territorio.Coordinate]struct{}, len(r))
	for _, c := range r {
		seen[c] = struct{}{}
	}
	return len(seen)
}
