package server

import (
	"encoding/json"
	"net/http"

	openapi "github.com/swaggest/openapi-go"
	"github.com/swaggest/openapi-go/openapi3"

	"github.com/playperu/territorio/internal/game"
	"github.com/playperu/territorio/internal/territorio"
)

// ErrorResponse is returned for all error responses.
type ErrorResponse struct {
	Error string `json:"error"`
}

// HealthResponse documents GET /healthz: one status per checked dependency.
type HealthResponse map[string]struct {
	Status string `json:"status"`
}

type gamePath struct {
	GameID string `path:"gameID"`
}

type territoryPath struct {
	GameID string `path:"gameID"`
	ID     string `path:"id"`
}

type vertexPath struct {
	GameID string `path:"gameID"`
	ID     string `path:"id"`
	Ring   int    `path:"ring"`
	Point  int    `path:"point"`
}

type userPath struct {
	ID string `path:"id"`
}

type ownerQuery struct {
	OwnerID string `query:"ownerId"`
}

type operation struct {
	method, path, summary, description string
	req                                []any
	resp                               []response
}

type response struct {
	body        any
	status      int
	contentType string
}

func respOK(body any) response { return response{body: body, status: http.StatusOK} }
func respErr(status int) response { return response{body: ErrorResponse{}, status: status} }
func respStream(ct string) response { return response{status: http.StatusOK, contentType: ct} }
func respCreated(body any) response { return response{body: body, status: http.StatusCreated} }
func respSnapshot() response { return respOK(game.Snapshot{}) }
func inputs(structures ...any) []any { return structures }

func operations() []operation {
	return []operation{
		{http.MethodGet, "/healthz", "Health check", "Returns the health status of backend dependencies.",
			nil, []response{respOK(HealthResponse{}), {body: HealthResponse{}, status: http.StatusServiceUnavailable}}},
		{http.MethodGet, "/api/config", "Map configuration", "Initial map center and zoom, players in turn order and their colors.",
			nil, []response{respOK(ConfigResponse{})}},
		{http.MethodPost, "/api/games", "Start a game", "Starts a game under a new id. Same-owner hole mode can be set per game.",
			inputs(GameOptions{}), []response{respCreated(CreateGameResponse{}), respErr(http.StatusBadRequest)}},
		{http.MethodGet, "/api/games/{gameID}/state", "Game state", "Territories with owner colors, players with scores, active path, turn and edit state.",
			inputs(gamePath{}), []response{respSnapshot(), respErr(http.StatusBadRequest)}},
		{http.MethodPost, "/api/games/{gameID}/reset", "Reset game", "Clears territories and the path and gives the turn back to the first player.",
			inputs(gamePath{}), []response{respSnapshot()}},
		{http.MethodPost, "/api/games/{gameID}/path/points", "Add path point", "Appends a map click to the current player's active path.",
			inputs(gamePath{}, PointRequest{}), []response{respSnapshot(), respErr(http.StatusBadRequest), respErr(http.StatusConflict)}},
		{http.MethodPost, "/api/games/{gameID}/path/close", "Close loop", "Claims the active path for the current player, clipping overlapped opposing territories, then passes the turn.",
			inputs(gamePath{}), []response{respOK(ClaimResponse{}), respErr(http.StatusUnprocessableEntity), respErr(http.StatusConflict)}},
		{http.MethodDelete, "/api/games/{gameID}/path", "Discard path", "Clears the active path.",
			inputs(gamePath{}), []response{respSnapshot()}},
		{http.MethodPost, "/api/games/{gameID}/turn", "Switch turn", "Passes the turn to the next player and clears the active path.",
			inputs(gamePath{}), []response{respSnapshot()}},
		{http.MethodPost, "/api/games/{gameID}/edit", "Toggle edit mode", "Entering edit mode clears the active path.",
			inputs(gamePath{}, EditModeRequest{}), []response{respSnapshot(), respErr(http.StatusBadRequest)}},
		{http.MethodDelete, "/api/games/{gameID}/territories", "Clear territories", "Removes every territory of the game.",
			inputs(gamePath{}), []response{respSnapshot()}},
		{http.MethodDelete, "/api/games/{gameID}/territories/selected", "Delete selected territory", "Removes the territory selected in edit mode.",
			inputs(gamePath{}), []response{respSnapshot(), respErr(http.StatusConflict)}},
		{http.MethodPost, "/api/games/{gameID}/territories/{id}/select", "Select territory", "Selects a territory for editing. Edit mode only.",
			inputs(territoryPath{}), []response{respSnapshot(), respErr(http.StatusNotFound), respErr(http.StatusConflict)}},
		{http.MethodPut, "/api/games/{gameID}/territories/{id}/vertices", "Move vertex", "Replaces one boundary point after a drag. No claim logic runs.",
			inputs(territoryPath{}, VertexRequest{}), []response{respSnapshot(), respErr(http.StatusBadRequest), respErr(http.StatusNotFound), respErr(http.StatusConflict)}},
		{http.MethodDelete, "/api/games/{gameID}/territories/{id}/vertices/{ring}/{point}", "Remove vertex", "Drops one boundary point. Rings keep at least 3 points.",
			inputs(vertexPath{}), []response{respSnapshot(), respErr(http.StatusNotFound), respErr(http.StatusUnprocessableEntity)}},
		{http.MethodDelete, "/api/games/{gameID}/territories/{id}", "Delete territory", "Removes one territory. Edit mode only.",
			inputs(territoryPath{}), []response{respSnapshot(), respErr(http.StatusNotFound), respErr(http.StatusConflict)}},
		{http.MethodPost, "/api/games/{gameID}/territories/{id}/owner", "Switch owner", "Hands a territory to another player, or to the next player when ownerId is empty.",
			inputs(territoryPath{}, OwnerRequest{}), []response{respSnapshot(), respErr(http.StatusBadRequest), respErr(http.StatusNotFound)}},
		{http.MethodGet, "/api/games/{gameID}/territories.geojson", "Territories as GeoJSON", "FeatureCollection of Polygon features with owner, color and area properties.",
			inputs(gamePath{}), []response{respStream("application/geo+json")}},
		{http.MethodGet, "/api/games/{gameID}/events", "SSE event stream", "Server-Sent Events stream of game events.",
			inputs(gamePath{}), []response{respStream("text/event-stream")}},
		{http.MethodGet, "/api/games/{gameID}/ws", "State stream", "Upgrades to a WebSocket that sends the full game state after every event.",
			inputs(gamePath{}), []response{{status: http.StatusSwitchingProtocols, contentType: "application/json"}}},
		{http.MethodPost, "/api/users", "Register user", "Creates an account. Emails are lowercased and must be unique.",
			inputs(CreateUserRequest{}), []response{respCreated(territorio.User{}), respErr(http.StatusBadRequest), respErr(http.StatusConflict)}},
		{http.MethodGet, "/api/users", "List users", "Returns every registered account.",
			nil, []response{respOK([]territorio.User{})}},
		{http.MethodPost, "/api/users/login", "Log in", "Checks an email and password pair.",
			inputs(LoginRequest{}), []response{respOK(territorio.User{}), respErr(http.StatusUnauthorized)}},
		{http.MethodGet, "/api/users/{id}", "Get user", "Returns one account.",
			inputs(userPath{}), []response{respOK(territorio.User{}), respErr(http.StatusNotFound)}},
		{http.MethodGet, "/api/users/{id}/territories", "Stored territories of an owner", "Lists persisted territories owned by id.",
			inputs(userPath{}), []response{respOK([]territorio.Territory{})}},
		{http.MethodGet, "/api/territories", "Stored territories", "Lists persisted territories, optionally filtered by owner.",
			inputs(ownerQuery{}), []response{respOK([]territorio.Territory{})}},
	}
}

func newOpenAPISpec() *openapi3.Spec {
	r := openapi3.NewReflector()
	r.Spec.Info.Title = "Territorio API"
	r.Spec.Info.Version = "0.1.0"
	r.Spec.Info.WithDescription("Backend API for the Guadalajara territory game.")

	for _, op := range operations() {
		oc, err := r.NewOperationContext(op.method, op.path)
		if err != nil {
			continue
		}
		oc.SetSummary(op.summary)
		oc.SetDescription(op.description)
		for _, s := range op.req {
			oc.AddReqStructure(s)
		}
		for _, resp := range op.resp {
			opts := []openapi.ContentOption{openapi.WithHTTPStatus(resp.status)}
			if resp.contentType != "" {
				opts = append(opts, openapi.WithContentType(resp.contentType))
			}
			oc.AddRespStructure(resp.body, opts...)
		}
		_ = r.AddOperation(oc)
	}

	return r.Spec
}

func handleOpenAPI() http.HandlerFunc {
	spec := newOpenAPISpec()
	data, _ := json.MarshalIndent(spec, "", "  ")

	return func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json; charset=utf-8")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write(data)
	}
}
