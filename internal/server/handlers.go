package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"

	"github.com/yourusername/prop-edge/internal/models"
	"github.com/yourusername/prop-edge/internal/stream"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	// Browser clients connect from the frontend origin; CORS is enforced at
	// the HTTP layer, so the upgrade itself accepts any origin.
	CheckOrigin: func(r *http.Request) bool { return true },
}

type boardResponse struct {
	Sport       string                   `json:"sport"`
	Scope       string                   `json:"scope"`
	Total       int                      `json:"total"`
	Results     []models.EvaluatedMarket `json:"results"`
	GeneratedAt time.Time                `json:"generated_at"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// handleBoard serves the evaluated board for a sport. Query parameters:
// scope (game|props|all), limit, sub (subscription level).
func (s *Server) handleBoard(w http.ResponseWriter, r *http.Request) {
	sport := chi.URLParam(r, "sport")
	scope := r.URL.Query().Get("scope")
	subLevel := queryInt(r, "sub", 0)
	limit := queryInt(r, "limit", 0)

	results, err := s.evaluator.EvaluateSport(r.Context(), sport, scope)
	if err != nil {
		s.writeEvaluationError(w, err)
		return
	}

	ranked := s.evaluator.RankForSubscriber(results, subLevel)
	if limit > 0 && limit < len(ranked) {
		ranked = ranked[:limit]
	}

	writeJSON(w, http.StatusOK, boardResponse{
		Sport:       sport,
		Scope:       scope,
		Total:       len(ranked),
		Results:     ranked,
		GeneratedAt: time.Now().UTC(),
	})
}

// handleMarket serves one evaluated market by its composite id. The id is
// pipe-delimited and arrives URL-encoded.
func (s *Server) handleMarket(w http.ResponseWriter, r *http.Request) {
	sport := chi.URLParam(r, "sport")
	marketID, err := url.PathUnescape(chi.URLParam(r, "marketID"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: "malformed market id"})
		return
	}
	scope := r.URL.Query().Get("scope")
	if scope == "" {
		scope = "all"
	}

	results, err := s.evaluator.EvaluateSport(r.Context(), sport, scope)
	if err != nil {
		s.writeEvaluationError(w, err)
		return
	}

	for i := range results {
		if results[i].Market.ID == marketID {
			writeJSON(w, http.StatusOK, results[i])
			return
		}
	}

	writeJSON(w, http.StatusNotFound, errorResponse{Error: "market not found"})
}

// handleStream upgrades the connection and attaches the client to the hub.
func (s *Server) handleStream(w http.ResponseWriter, r *http.Request) {
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.WithError(err).Warn("Websocket upgrade failed")
		return
	}

	client := stream.NewClient(uuid.NewString(), conn, s.hub, s.logger)
	s.hub.Register(client)

	go client.WritePump()
	go client.ReadPump()
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// handleReady reports readiness; with persistence configured the database
// must answer a ping.
func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	if s.db != nil {
		if err := s.db.Ping(r.Context()); err != nil {
			writeJSON(w, http.StatusServiceUnavailable, map[string]string{
				"status": "degraded",
				"reason": "database unreachable",
			})
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]string{"status": "ready"})
}

func (s *Server) writeEvaluationError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, models.ErrUnknownSport):
		writeJSON(w, http.StatusNotFound, errorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrUnknownScope):
		writeJSON(w, http.StatusBadRequest, errorResponse{Error: err.Error()})
	case errors.Is(err, models.ErrProviderUnhealthy):
		writeJSON(w, http.StatusBadGateway, errorResponse{Error: "odds provider unavailable"})
	default:
		s.logger.WithError(err).Error("Board evaluation failed")
		writeJSON(w, http.StatusInternalServerError, errorResponse{Error: "evaluation failed"})
	}
}

func writeJSON(w http.ResponseWriter, status int, body interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	v, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return v
}
