package handler

import (
	"encoding/json"
	"net/http"

	"github.com/YNK0/ruvm/internal/events"
	"github.com/YNK0/ruvm/internal/store"
	"github.com/YNK0/ruvm/internal/ws"
)

type Handler struct {
	store  *store.Store
	secret string
	hub    *ws.Hub           // nil disables broadcasts
	pub    *events.Publisher // nil disables events
}

func New(st *store.Store, secret string, hub *ws.Hub, pub *events.Publisher) *Handler {
	return &Handler{store: st, secret: secret, hub: hub, pub: pub}
}

func respondJSON(w http.ResponseWriter, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if data != nil {
		json.NewEncoder(w).Encode(data)
	}
}

func respondError(w http.ResponseWriter, status int, message string) {
	respondJSON(w, status, map[string]string{"error": message})
}

func decodeJSON(r *http.Request, v any) error {
	defer r.Body.Close()
	return json.NewDecoder(r.Body).Decode(v)
}
