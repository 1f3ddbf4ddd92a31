package server

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	geojson "github.com/paulmach/go.geojson"

	"github.com/playperu/territorio/internal/database"
	"github.com/playperu/territorio/internal/docstore"
	"github.com/playperu/territorio/internal/game"
	"github.com/playperu/territorio/internal/migrations"
	"github.com/playperu/territorio/internal/territorio"
)

var testSettings = Settings{
	Players: []territorio.Player{
		{ID: "USER_A", Name: "JaliscoRider", Color: "#06b6d4", FillColor: "#06b6d4"},
		{ID: "USER_B", Name: "TapatioSpeed", Color: "#ec4899", FillColor: "#ec4899"},
	},
	Center:         territorio.Coordinate{Lat: 20.6767, Lng: -103.3475},
	Zoom:           15,
	PersistTimeout: time.Second,
}

type testEnv struct {
	router chi.Router
	games  *Registry
	broker *Broker
	docs   *docstore.DocStore
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	ctx := context.Background()

	db, err := database.Open(ctx, ":memory:")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { db.Close() })
	if err := migrations.Run(db); err != nil {
		t.Fatalf("migrate: %v", err)
	}

	logger := slog.New(slog.DiscardHandler)
	docs := docstore.New(db)
	broker := NewBroker()
	games := NewRegistry(NewSessionFactory(testSettings, docs, broker, logger))
	t.Cleanup(func() { games.Close() })

	deps := Deps{Games: games, Broker: broker, Users: docs, Settings: testSettings}
	return &testEnv{
		router: newRouter(logger, deps, nil),
		games:  games,
		broker: broker,
		docs:   docs,
	}
}

func (e *testEnv) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		if err := json.NewEncoder(&buf).Encode(body); err != nil {
			t.Fatalf("encode body: %v", err)
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	e.router.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	if err := json.NewDecoder(rec.Body).Decode(&v); err != nil {
		t.Fatalf("decode response: %v (body %q)", err, rec.Body.String())
	}
	return v
}

func (e *testEnv) draw(t *testing.T, gameID string, ring territorio.Ring) {
	t.Helper()
	for _, c := range ring {
		rec := e.do(t, http.MethodPost, "/api/games/"+gameID+"/path/points", PointRequest{Lat: c.Lat, Lng: c.Lng})
		if rec.Code != http.StatusOK {
			t.Fatalf("add point: status %d, body %s", rec.Code, rec.Body)
		}
	}
}

func (e *testEnv) claim(t *testing.T, gameID string, ring territorio.Ring) ClaimResponse {
	t.Helper()
	e.draw(t, gameID, ring)
	rec := e.do(t, http.MethodPost, "/api/games/"+gameID+"/path/close", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("close path: status %d, body %s", rec.Code, rec.Body)
	}
	return decode[ClaimResponse](t, rec)
}

// block returns a small square near the map center, offset by (dx, dy)
// hundredths of a degree.
func block(dx, dy, size float64) territorio.Ring {
	lat := 20.67 + dy/100
	lng := -103.35 + dx/100
	s := size / 100
	return territorio.Ring{
		{Lat: lat, Lng: lng},
		{Lat: lat, Lng: lng + s},
		{Lat: lat + s, Lng: lng + s},
		{Lat: lat + s, Lng: lng},
	}
}

func TestConfig(t *testing.T) {
	env := setupEnv(t)

	rec := env.do(t, http.MethodGet, "/api/config", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d, want 200", rec.Code)
	}
	got := decode[ConfigResponse](t, rec)
	if got.Zoom != 15 || got.Center != testSettings.Center || len(got.Players) != 2 {
		t.Errorf("config = %+v", got)
	}
}

func TestCreateGame(t *testing.T) {
	env := setupEnv(t)

	rec := env.do(t, http.MethodPost, "/api/games", nil)
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201, body %s", rec.Code, rec.Body)
	}
	id := decode[CreateGameResponse](t, rec).ID
	if id == "" {
		t.Fatal("empty game id")
	}

	rec = env.do(t, http.MethodGet, "/api/games/"+id+"/state", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("state status = %d", rec.Code)
	}
	snap := decode[game.Snapshot](t, rec)
	if snap.GameID != id || snap.CurrentPlayer != "USER_A" || len(snap.Players) != 2 {
		t.Errorf("snapshot = %+v", snap)
	}
}

func TestInvalidGameID(t *testing.T) {
	env := setupEnv(t)

	rec := env.do(t, http.MethodGet, "/api/games/no.dots/state", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}
}

func TestClaimFlow(t *testing.T) {
	env := setupEnv(t)

	first := env.claim(t, "demo", block(0, 0, 2))
	if first.ClaimedID == "" || first.StoleArea {
		t.Fatalf("first claim = %+v", first)
	}
	if first.State.CurrentPlayer != "USER_B" || len(first.State.ActivePath) != 0 {
		t.Errorf("after first claim: current %q, path %v", first.State.CurrentPlayer, first.State.ActivePath)
	}

	second := env.claim(t, "demo", block(1, 1, 2))
	if !second.StoleArea || len(second.Affected) != 1 || second.Affected[0] != first.ClaimedID {
		t.Errorf("second claim = %+v", second)
	}

	snap := second.State
	if len(snap.Territories) != 2 {
		t.Fatalf("territories = %d, want 2", len(snap.Territories))
	}
	if snap.Players[0].Score >= snap.Players[1].Score {
		t.Errorf("scores A=%d B=%d, want A < B", snap.Players[0].Score, snap.Players[1].Score)
	}
	for _, tr := range snap.Territories {
		if tr.Color == "" || tr.Area <= 0 {
			t.Errorf("territory %s missing color or area: %+v", tr.ID, tr)
		}
	}
}

func TestClosePathRejected(t *testing.T) {
	env := setupEnv(t)

	env.draw(t, "demo", block(0, 0, 1)[:2])
	rec := env.do(t, http.MethodPost, "/api/games/demo/path/close", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Fatalf("status = %d, want 422", rec.Code)
	}

	snap := decode[game.Snapshot](t, env.do(t, http.MethodGet, "/api/games/demo/state", nil))
	if len(snap.ActivePath) != 2 || snap.CurrentPlayer != "USER_A" {
		t.Errorf("after rejection: path %v, current %q", snap.ActivePath, snap.CurrentPlayer)
	}

	// A bow tie crosses itself.
	env.do(t, http.MethodDelete, "/api/games/demo/path", nil)
	bowTie := territorio.Ring{
		{Lat: 20.67, Lng: -103.35},
		{Lat: 20.68, Lng: -103.34},
		{Lat: 20.67, Lng: -103.34},
		{Lat: 20.68, Lng: -103.35},
	}
	env.draw(t, "demo", bowTie)
	rec = env.do(t, http.MethodPost, "/api/games/demo/path/close", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("bow tie status = %d, want 422", rec.Code)
	}
}

func TestPointValidation(t *testing.T) {
	env := setupEnv(t)

	rec := env.do(t, http.MethodPost, "/api/games/demo/path/points", PointRequest{Lat: 91, Lng: 0})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("status = %d, want 400", rec.Code)
	}

	req := httptest.NewRequest(http.MethodPost, "/api/games/demo/path/points", bytes.NewBufferString("{"))
	w := httptest.NewRecorder()
	env.router.ServeHTTP(w, req)
	if w.Code != http.StatusBadRequest {
		t.Errorf("malformed body status = %d, want 400", w.Code)
	}
}

func TestTurnAndReset(t *testing.T) {
	env := setupEnv(t)

	env.draw(t, "demo", block(0, 0, 1))
	snap := decode[game.Snapshot](t, env.do(t, http.MethodPost, "/api/games/demo/turn", nil))
	if snap.CurrentPlayer != "USER_B" || len(snap.ActivePath) != 0 {
		t.Errorf("after turn: %+v", snap)
	}

	env.claim(t, "demo", block(0, 0, 1))
	snap = decode[game.Snapshot](t, env.do(t, http.MethodPost, "/api/games/demo/reset", nil))
	if snap.CurrentPlayer != "USER_A" || len(snap.Territories) != 0 {
		t.Errorf("after reset: %+v", snap)
	}
}

func TestEditRoutes(t *testing.T) {
	env := setupEnv(t)
	id := env.claim(t, "demo", block(0, 0, 1)).ClaimedID
	base := "/api/games/demo"

	rec := env.do(t, http.MethodPost, base+"/territories/"+id+"/select", nil)
	if rec.Code != http.StatusConflict {
		t.Errorf("select outside edit mode = %d, want 409", rec.Code)
	}

	snap := decode[game.Snapshot](t, env.do(t, http.MethodPost, base+"/edit", EditModeRequest{Enabled: true}))
	if !snap.EditMode {
		t.Fatal("edit mode not enabled")
	}

	rec = env.do(t, http.MethodPost, base+"/path/points", PointRequest{Lat: 20.6, Lng: -103.3})
	if rec.Code != http.StatusConflict {
		t.Errorf("add point in edit mode = %d, want 409", rec.Code)
	}

	rec = env.do(t, http.MethodPost, base+"/territories/missing/select", nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("select missing = %d, want 404", rec.Code)
	}

	snap = decode[game.Snapshot](t, env.do(t, http.MethodPost, base+"/territories/"+id+"/select", nil))
	if snap.Selected != id {
		t.Errorf("selected = %q, want %q", snap.Selected, id)
	}

	moved := territorio.Coordinate{Lat: 20.669, Lng: -103.351}
	rec = env.do(t, http.MethodPut, base+"/territories/"+id+"/vertices",
		VertexRequest{Ring: 0, Point: 0, Lat: moved.Lat, Lng: moved.Lng})
	if rec.Code != http.StatusOK {
		t.Fatalf("move vertex = %d, body %s", rec.Code, rec.Body)
	}
	snap = decode[game.Snapshot](t, rec)
	if snap.Territories[0].ID != id || snap.Territories[0].Coordinates[0][0] != moved {
		t.Errorf("after move: %+v", snap.Territories[0])
	}

	rec = env.do(t, http.MethodPut, base+"/territories/"+id+"/vertices", VertexRequest{Ring: 3, Point: 0})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("bad ring = %d, want 400", rec.Code)
	}

	rec = env.do(t, http.MethodDelete, base+"/territories/"+id+"/vertices/0/3", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("remove vertex = %d, body %s", rec.Code, rec.Body)
	}
	rec = env.do(t, http.MethodDelete, base+"/territories/"+id+"/vertices/0/0", nil)
	if rec.Code != http.StatusUnprocessableEntity {
		t.Errorf("remove below 3 = %d, want 422", rec.Code)
	}
	rec = env.do(t, http.MethodDelete, base+"/territories/"+id+"/vertices/x/0", nil)
	if rec.Code != http.StatusBadRequest {
		t.Errorf("non-numeric ring = %d, want 400", rec.Code)
	}

	snap = decode[game.Snapshot](t, env.do(t, http.MethodPost, base+"/territories/"+id+"/owner", OwnerRequest{}))
	if snap.Territories[0].OwnerID != "USER_B" {
		t.Errorf("owner = %q, want USER_B", snap.Territories[0].OwnerID)
	}
	rec = env.do(t, http.MethodPost, base+"/territories/"+id+"/owner", OwnerRequest{OwnerID: "NOBODY"})
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown owner = %d, want 400", rec.Code)
	}

	snap = decode[game.Snapshot](t, env.do(t, http.MethodDelete, base+"/territories/selected", nil))
	if len(snap.Territories) != 0 || snap.Selected != "" {
		t.Errorf("after delete selected: %+v", snap)
	}
	rec = env.do(t, http.MethodDelete, base+"/territories/"+id, nil)
	if rec.Code != http.StatusNotFound {
		t.Errorf("delete missing = %d, want 404", rec.Code)
	}

	snap = decode[game.Snapshot](t, env.do(t, http.MethodPost, base+"/edit", EditModeRequest{Enabled: false}))
	if snap.EditMode {
		t.Error("edit mode still on")
	}
}

func TestClearTerritories(t *testing.T) {
	env := setupEnv(t)
	env.claim(t, "demo", block(0, 0, 1))
	env.claim(t, "demo", block(5, 5, 1))

	snap := decode[game.Snapshot](t, env.do(t, http.MethodDelete, "/api/games/demo/territories", nil))
	if len(snap.Territories) != 0 {
		t.Errorf("territories = %d, want 0", len(snap.Territories))
	}
}

func TestTerritoriesGeoJSON(t *testing.T) {
	env := setupEnv(t)
	ring := block(0, 0, 1)
	id := env.claim(t, "demo", ring).ClaimedID

	rec := env.do(t, http.MethodGet, "/api/games/demo/territories.geojson", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	if ct := rec.Header().Get("Content-Type"); ct != "application/geo+json" {
		t.Errorf("content-type = %q", ct)
	}

	fc, err := geojson.UnmarshalFeatureCollection(rec.Body.Bytes())
	if err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if len(fc.Features) != 1 {
		t.Fatalf("features = %d, want 1", len(fc.Features))
	}
	f := fc.Features[0]
	if f.ID != id || f.Properties["ownerId"] != "USER_A" {
		t.Errorf("feature id %v, props %v", f.ID, f.Properties)
	}
	if !f.Geometry.IsPolygon() {
		t.Fatalf("geometry type = %s", f.Geometry.Type)
	}
	outer := f.Geometry.Polygon[0]
	if len(outer) != len(ring)+1 {
		t.Errorf("outer ring has %d positions, want %d (closed)", len(outer), len(ring)+1)
	}
	if outer[0][0] != ring[0].Lng || outer[0][1] != ring[0].Lat {
		t.Errorf("first position = %v, want [lng lat] of %v", outer[0], ring[0])
	}
}

func TestPersistedTerritories(t *testing.T) {
	env := setupEnv(t)
	env.claim(t, "demo", block(0, 0, 1))
	env.claim(t, "demo", block(5, 5, 1))

	// Drain the mirrors.
	env.games.Close()

	rec := env.do(t, http.MethodGet, "/api/territories?ownerId=USER_A", nil)
	if rec.Code != http.StatusOK {
		t.Fatalf("status = %d", rec.Code)
	}
	stored := decode[[]territorio.Territory](t, rec)
	if len(stored) != 1 || stored[0].OwnerID != "USER_A" {
		t.Errorf("stored = %+v", stored)
	}

	all := decode[[]territorio.Territory](t, env.do(t, http.MethodGet, "/api/territories", nil))
	if len(all) != 2 {
		t.Errorf("all stored = %d, want 2", len(all))
	}
}
