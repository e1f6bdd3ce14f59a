package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/sirupsen/logrus"

	"github.com/ansshul10/Chatifyzone07/internal/models"
	"github.com/ansshul10/Chatifyzone07/internal/store"
	"github.com/ansshul10/Chatifyzone07/internal/ws"
)

// Handler holds the message store and hub for the HTTP surface.
type Handler struct {
	store        *store.Store
	hub          *ws.Hub
	historyLimit int
}

// NewHandler creates a new Handler instance.
func NewHandler(st *store.Store, hub *ws.Hub, historyLimit int) *Handler {
	return &Handler{
		store:        st,
		hub:          hub,
		historyLimit: historyLimit,
	}
}

// Router builds the HTTP route table.
func (h *Handler) Router() *mux.Router {
	r := mux.NewRouter()
	r.HandleFunc("/api/messages/{userId}/{myId}", h.HistoryHandler).Methods(http.MethodGet)
	r.HandleFunc("/api/users/online", h.OnlineUsersHandler).Methods(http.MethodGet)
	r.HandleFunc("/healthz", h.HealthHandler).Methods(http.MethodGet)
	r.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/ws", h.WebSocketHandler)
	return r
}

// HistoryHandler returns the ordered message history between two participants.
// This is the reconnect recovery path: a plain read against the store rather
// than replayed pushes, capped to bound response size.
func (h *Handler) HistoryHandler(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	userID, myID := vars["userId"], vars["myId"]

	messages, err := h.store.MessagesBetween(userID, myID, h.historyLimit)
	if err != nil {
		logrus.WithError(err).Error("history query failed")
		http.Error(w, "failed to fetch message history", http.StatusInternalServerError)
		return
	}
	if messages == nil {
		messages = []*models.Message{}
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(messages)
}

// OnlineUsersHandler returns the current reachable-set snapshot. Clients use
// it to bootstrap before the first presence_update arrives.
func (h *Handler) OnlineUsersHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(h.hub.OnlineUsers())
}

// HealthHandler reports liveness.
func (h *Handler) HealthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}

// WebSocketHandler upgrades the request into a connection session.
func (h *Handler) WebSocketHandler(w http.ResponseWriter, r *http.Request) {
	ws.ServeWS(h.hub, w, r)
}
