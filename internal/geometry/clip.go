package geometry

import (
	"fmt"

	"github.com/peterstace/simplefeatures/geom"

	"github.com/playperu/territorio/internal/territorio"
)

// ClipKind tags the shape of a difference result.
type ClipKind int

const (
	ClipEmpty ClipKind = iota
	ClipSingle
	ClipMultiple
)

// String returns the kind name.
func (k ClipKind) String() string {
	switch k {
	case ClipEmpty:
		return "empty"
	case ClipSingle:
		return "single"
	case ClipMultiple:
		return "multiple"
	default:
		return "unknown"
	}
}

// Clip is the result of subtracting one polygon from another. Pieces holds
// one ring list per connected fragment, in kernel output order.
type Clip struct {
	Kind   ClipKind
	Pieces [][]territorio.Ring
}

// Subtract computes a minus b. Fragments with no area are discarded, so a
// fully covered polygon always yields ClipEmpty.
func Subtract(a, b geom.Polygon) (Clip, error) {
	diff, err := geom.Difference(a.AsGeometry(), b.AsGeometry())
	if err != nil {
		return Clip{}, fmt.Errorf("subtracting polygons: %w", err)
	}

	var pieces [][]territorio.Ring
	for _, p := range polygonsOf(diff) {
		if p.IsEmpty() || p.Area() <= 0 {
			continue
		}
		pieces = append(pieces, FromPolygon(p))
	}

	switch len(pieces) {
	case 0:
		return Clip{Kind: ClipEmpty}, nil
	case 1:
		return Clip{Kind: ClipSingle, Pieces: pieces}, nil
	default:
		return Clip{Kind: ClipMultiple, Pieces: pieces}, nil
	}
}

func polygonsOf(g geom.Geometry) []geom.Polygon {
	if g.IsEmpty() {
		return nil
	}
	switch g.Type() {
	case geom.TypePolygon:
		return []geom.Polygon{g.MustAsPolygon()}
	case geom.TypeMultiPolygon:
		mp := g.MustAsMultiPolygon()
		out := make([]geom.Polygon, 0, mp.NumPolygons())
		for i := 0; i < mp.NumPolygons(); i++ {
			out = append(out, mp.PolygonN(i))
		}
		return out
	case geom.TypeGeometryCollection:
		gc := g.MustAsGeometryCollection()
		var out []geom.Polygon
		for i := 0; i < gc.NumGeometries(); i++ {
			out = append(out, polygonsOf(gc.GeometryN(i))...)
		}
		return out
	default:
		return nil
	}
}
