// Package territorio defines the core domain types shared by the claim engine,
// the in-memory store and the persistence layer. It has zero external
// dependencies.
package territorio

import "slices"

// Coordinate is a planar point in degrees. Equality is exact.
type Coordinate struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Ring is a closed boundary stored without the closing duplicate: the last
// point connects back to the first.
type Ring []Coordinate

// Clone returns a copy of r.
func (r Ring) Clone() Ring {
	if r == nil {
		return nil
	}
	return slices.Clone(r)
}

// Territory is an owned polygon. Coordinates[0] is the outer boundary and
// Coordinates[1:] are holes.
type Territory struct {
	ID          string  `json:"id"`
	OwnerID     string  `json:"ownerId"`
	Coordinates []Ring  `json:"coordinates"`
	Timestamp   int64   `json:"timestamp"`
	Name        string  `json:"name,omitempty"`
	Color       string  `json:"color,omitempty"`
	Area        float64 `json:"area,omitempty"`
	Description string  `json:"description,omitempty"`
}

// Clone returns a deep copy of t.
func (t Territory) Clone() Territory {
	t.Coordinates = CloneRings(t.Coordinates)
	return t
}

// Outer returns the outer ring, or nil for an empty territory.
func (t Territory) Outer() Ring {
	if len(t.Coordinates) == 0 {
		return nil
	}
	return t.Coordinates[0]
}

// CloneRings deep-copies a ring list.
func CloneRings(rings []Ring) []Ring {
	if rings == nil {
		return nil
	}
	out := make([]Ring, len(rings))
	for i, r := range rings {
		out[i] = r.Clone()
	}
	return out
}

// CloneAll deep-copies a territory list.
func CloneAll(ts []Territory) []Territory {
	if ts == nil {
		return nil
	}
	out := make([]Territory, len(ts))
	for i, t := range ts {
		out[i] = t.Clone()
	}
	return out
}

// RingsEqual reports whether a and b hold the same rings point for point.
func RingsEqual(a, b []Ring) bool {
	return slices.EqualFunc(a, b, func(x, y Ring) bool { return slices.Equal(x, y) })
}

// Player is one side of the game. Score is derived from territory area and
// is never stored.
type Player struct {
	ID        string `json:"id"`
	Name      string `json:"name"`
	Color     string `json:"color"`
	FillColor string `json:"fillColor"`
	Score     int64  `json:"score"`
}

// User is a registered account that can own persisted territories.
type User struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}
