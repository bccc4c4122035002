// v1
// internal/httpapi/server.go
package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"plantops/internal/aeration"
	"plantops/internal/config"
	"plantops/internal/engine"
	"plantops/internal/models"
	"plantops/internal/observability"
	"plantops/internal/setpoints"
)

// ControlStatus is the engine surface the API reads from.
type ControlStatus interface {
	Stats() engine.Stats
	LatestAssignment(tank string) ([]aeration.Blower, bool)
	Assignments() map[string][]aeration.Blower
}

// History is the ledger query surface.
type History interface {
	Recent(ctx context.Context, tank string, limit int) ([]models.LedgerEvent, error)
}

// Server exposes the operator-facing HTTP API of the control service.
type Server struct {
	cfg     *config.AppConfig
	sp      *setpoints.Store
	eng     ControlStatus
	hist    History
	metrics *observability.Metrics
	lg      *slog.Logger
	router  *mux.Router
}

func NewServer(cfg *config.AppConfig, sp *setpoints.Store, eng ControlStatus, hist History, metrics *observability.Metrics, lg *slog.Logger) *Server {
	s := &Server{cfg: cfg, sp: sp, eng: eng, hist: hist, metrics: metrics, lg: lg}
	s.router = s.routes()
	return s
}

// Handler returns the configured router; main wraps it with request logging.
func (s *Server) Handler() http.Handler { return s.router }

func (s *Server) routes() *mux.Router {
	r := mux.NewRouter()

	handle := func(route, path string, h http.HandlerFunc) *mux.Route {
		if s.metrics != nil {
			return r.Handle(path, s.metrics.WrapHandler(route, h))
		}
		return r.HandleFunc(path, h)
	}

	handle("health", "/health", s.handleHealth).Methods(http.MethodGet)
	handle("status", "/status", s.handleStatus).Methods(http.MethodGet)
	handle("oxygen_all", "/config/oxygen", s.handleGetSetpoints).Methods(http.MethodGet)
	handle("oxygen_get", "/config/oxygen/{tank}", s.handleGetSetpoint).Methods(http.MethodGet)
	handle("oxygen_put", "/config/oxygen/{tank}", s.handlePutSetpoint).Methods(http.MethodPut)
	handle("blowers_all", "/blowers", s.handleBlowersAll).Methods(http.MethodGet)
	handle("blowers_get", "/blowers/{tank}", s.handleBlowersTank).Methods(http.MethodGet)
	handle("ledger", "/ledger/events", s.handleLedger).Methods(http.MethodGet)
	if s.metrics != nil {
		r.Handle("/metrics", s.metrics.Handler()).Methods(http.MethodGet)
	}

	s.lg.Info("http routes registered")
	return r
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("ok"))
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"tanks": s.cfg.TankIDs(),
		"stats": s.eng.Stats(),
	})
}

func (s *Server) handleGetSetpoints(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"setpoints": s.sp.All()})
}

func (s *Server) handleGetSetpoint(w http.ResponseWriter, r *http.Request) {
	tank := mux.Vars(r)["tank"]
	val, ok := s.sp.Get(tank)
	if !ok {
		http.Error(w, "unknown tank", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tankId": tank, "setpointMgL": val})
}

func (s *Server) handlePutSetpoint(w http.ResponseWriter, r *http.Request) {
	tank := mux.Vars(r)["tank"]
	var body struct {
		SetpointMgL float64 `json:"setpointMgL"`
	}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		http.Error(w, "bad request", http.StatusBadRequest)
		return
	}
	val, err := s.sp.Set(tank, body.SetpointMgL)
	switch {
	case errors.Is(err, setpoints.ErrUnknownTank):
		http.Error(w, "unknown tank", http.StatusNotFound)
		return
	case errors.Is(err, setpoints.ErrSetpointRange):
		min, max := s.sp.Range()
		writeJSON(w, http.StatusBadRequest, map[string]any{
			"error": "setpoint outside range", "minMgL": min, "maxMgL": max,
		})
		return
	case err != nil:
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	s.lg.Info("setpoint updated", "tank", tank, "setpointMgL", val)
	writeJSON(w, http.StatusOK, map[string]any{"tankId": tank, "setpointMgL": val})
}

func (s *Server) handleBlowersAll(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"assignments": s.eng.Assignments()})
}

func (s *Server) handleBlowersTank(w http.ResponseWriter, r *http.Request) {
	tank := mux.Vars(r)["tank"]
	if _, known := s.cfg.Tank(tank); !known {
		http.Error(w, "unknown tank", http.StatusNotFound)
		return
	}
	fleet, ok := s.eng.LatestAssignment(tank)
	if !ok {
		http.Error(w, "no assignment yet", http.StatusNotFound)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"tankId": tank, "blowers": fleet})
}

func (s *Server) handleLedger(w http.ResponseWriter, r *http.Request) {
	if s.hist == nil {
		http.Error(w, "history disabled", http.StatusNotFound)
		return
	}
	tank := r.URL.Query().Get("tank")
	limit := 0
	if v := r.URL.Query().Get("limit"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			limit = n
		}
	}
	events, err := s.hist.Recent(r.Context(), tank, limit)
	if err != nil {
		s.lg.Error("ledger query failed", "err", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"events": events})
}
