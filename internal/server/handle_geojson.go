package server

import (
	"net/http"

	geojson "github.com/paulmach/go.geojson"

	"github.com/playperu/territorio/internal/game"
	"github.com/playperu/territorio/internal/territorio"
)

func handleTerritoriesGeoJSON() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data, err := territoriesGeoJSON(sessionFrom(r).Snapshot())
		if err != nil {
			writeError(w, http.StatusInternalServerError, "internal error")
			return
		}
		w.Header().Set("Content-Type", "application/geo+json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}

// territoriesGeoJSON renders each territory as a Polygon feature. Rings are
// closed and positions are [lng, lat].
func territoriesGeoJSON(snap game.Snapshot) ([]byte, error) {
	fc := geojson.NewFeatureCollection()
	for _, t := range snap.Territories {
		f := geojson.NewPolygonFeature(polygonPositions(t.Coordinates))
		f.ID = t.ID
		f.SetProperty("ownerId", t.OwnerID)
		f.SetProperty("color", t.Color)
		f.SetProperty("area", t.Area)
		f.SetProperty("timestamp", t.Timestamp)
		f.SetProperty("selected", t.ID == snap.Selected)
		if t.Name != "" {
			f.SetProperty("name", t.Name)
		}
		fc.AddFeature(f)
	}
	return fc.MarshalJSON()
}

func polygonPositions(rings []territorio.Ring) [][][]float64 {
	out := make([][][]float64, 0, len(rings))
	for _, r := range rings {
		if len(r) == 0 {
			continue
		}
		ring := make([][]float64, 0, len(r)+1)
		for _, c := range r {
			ring = append(ring, []float64{c.Lng, c.Lat})
		}
		if r[0] != r[len(r)-1] {
			ring = append(ring, []float64{r[0].Lng, r[0].Lat})
		}
		out = append(out, ring)
	}
	return out
}
