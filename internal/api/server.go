package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"coinpulse/internal/assist"
	"coinpulse/internal/catalog"
	"coinpulse/internal/models"
	"coinpulse/internal/realtime"
	"coinpulse/internal/tracker"
)

const searchLimit = 25

// Asker is the assistant surface the API needs; nil means the feature is
// not configured.
type Asker interface {
	Ask(ctx context.Context, prompt string) (string, error)
}

type Server struct {
	tracker   *tracker.Tracker
	catalog   *catalog.Catalog
	assistant Asker
	hub       *realtime.Hub
	logger    *zap.Logger
	router    *mux.Router
	upgrader  websocket.Upgrader
}

func NewServer(tr *tracker.Tracker, cat *catalog.Catalog, assistant Asker, hub *realtime.Hub, logger *zap.Logger) *Server {
	server := &Server{
		tracker:   tr,
		catalog:   cat,
		assistant: assistant,
		hub:       hub,
		logger:    logger,
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool { return true },
		},
	}

	r := mux.NewRouter()
	r.Use(corsMiddleware)

	r.HandleFunc("/api/health", server.handleHealth).Methods(http.MethodGet)
	r.HandleFunc("/api/portfolio", server.handlePortfolio).Methods(http.MethodGet)
	r.HandleFunc("/api/holdings", server.handleListHoldings).Methods(http.MethodGet)
	r.HandleFunc("/api/holdings", server.handleAddHolding).Methods(http.MethodPost)
	r.HandleFunc("/api/holdings/{assetId}", server.handleEditHolding).Methods(http.MethodPut)
	r.HandleFunc("/api/holdings/{assetId}", server.handleRemoveHolding).Methods(http.MethodDelete)
	r.HandleFunc("/api/alerts", server.handleListAlerts).Methods(http.MethodGet)
	r.HandleFunc("/api/alerts", server.handleCreateAlert).Methods(http.MethodPost)
	r.HandleFunc("/api/alerts/{id}", server.handleRemoveAlert).Methods(http.MethodDelete)
	r.HandleFunc("/api/catalog/search", server.handleCatalogSearch).Methods(http.MethodGet)
	r.HandleFunc("/api/assist", server.handleAssist).Methods(http.MethodPost)
	r.HandleFunc("/ws", server.handleWebSocket).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	server.router = r
	return server
}

func (s *Server) Handler() http.Handler {
	return s.router
}

func (s *Server) handleHealth(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

func (s *Server) handlePortfolio(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Summary())
}

func (s *Server) handleListHoldings(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Holdings())
}

func (s *Server) handleAddHolding(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AssetID  string  `json:"assetId"`
		Quantity float64 `json:"quantity"`
		AvgCost  float64 `json:"avgCost"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.tracker.AddHolding(r.Context(), req.AssetID, req.Quantity, req.AvgCost); err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusCreated, s.findHolding(req.AssetID))
}

func (s *Server) handleEditHolding(w http.ResponseWriter, r *http.Request) {
	assetID := mux.Vars(r)["assetId"]

	var req struct {
		Quantity float64 `json:"quantity"`
		AvgCost  float64 `json:"avgCost"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	if err := s.tracker.EditHolding(r.Context(), assetID, req.Quantity, req.AvgCost); err != nil {
		writeError(w, statusFor(err), err)
		return
	}

	writeJSON(w, http.StatusOK, s.findHolding(assetID))
}

func (s *Server) handleRemoveHolding(w http.ResponseWriter, r *http.Request) {
	s.tracker.RemoveHolding(r.Context(), mux.Vars(r)["assetId"])
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleListAlerts(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, s.tracker.Alerts())
}

func (s *Server) handleCreateAlert(w http.ResponseWriter, r *http.Request) {
	var req struct {
		AssetID     string                `json:"assetId"`
		TargetPrice float64               `json:"targetPrice"`
		Direction   models.AlertDirection `json:"direction"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}

	created, err := s.tracker.AddAlert(r.Context(), strings.ToLower(strings.TrimSpace(req.AssetID)), req.TargetPrice, req.Direction)
	if err != nil {
		writeError(w, statusFor(err), err)
		return
	}
	writeJSON(w, http.StatusCreated, created)
}

func (s *Server) handleRemoveAlert(w http.ResponseWriter, r *http.Request) {
	s.tracker.RemoveAlert(r.Context(), mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) handleCatalogSearch(w http.ResponseWriter, r *http.Request) {
	query := r.URL.Query().Get("q")
	writeJSON(w, http.StatusOK, s.catalog.Search(query, searchLimit))
}

func (s *Server) handleAssist(w http.ResponseWriter, r *http.Request) {
	if s.assistant == nil {
		writeJSON(w, http.StatusServiceUnavailable, map[string]string{"error": "assistant is not configured"})
		return
	}

	var req struct {
		Prompt string `json:"prompt"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	if strings.TrimSpace(req.Prompt) == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "prompt is required"})
		return
	}

	prompt := assist.BuildPrompt(s.tracker.Summary(), req.Prompt)
	reply, err := s.assistant.Ask(r.Context(), prompt)
	if err != nil {
		writeError(w, http.StatusBadGateway, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]string{"reply": reply})
}

func (s *Server) handleWebSocket(w http.ResponseWriter, r *http.Request) {
	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		return
	}
	s.hub.AddClient(conn)

	_ = conn.WriteJSON(realtime.Event{Type: "summary", Data: s.tracker.Summary()})

	for {
		if _, _, err := conn.ReadMessage(); err != nil {
			s.hub.RemoveClient(conn)
			return
		}
	}
}

func (s *Server) findHolding(assetID string) models.Holding {
	assetID = strings.ToLower(strings.TrimSpace(assetID))
	for _, h := range s.tracker.Holdings() {
		if h.AssetID == assetID {
			return h
		}
	}
	return models.Holding{AssetID: assetID}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, models.ErrValidation):
		return http.StatusBadRequest
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, map[string]string{"error": err.Error()})
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		w.Header().Set("Access-Control-Allow-Methods", "GET,POST,PUT,DELETE,OPTIONS")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}
