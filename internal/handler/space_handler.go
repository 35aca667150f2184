package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"

	"github.com/YNK0/ruvm/internal/events"
	"github.com/YNK0/ruvm/internal/model"
	"github.com/YNK0/ruvm/internal/ws"
	"github.com/YNK0/ruvm/pkg/api"
)

// ListSpaces handles GET /spaces?tipo=aula.
func (h *Handler) ListSpaces(w http.ResponseWriter, r *http.Request) {
	tipo := r.URL.Query().Get("tipo")
	if tipo != "" && !api.ValidSpaceType(tipo) {
		respondError(w, http.StatusBadRequest, "unknown space type")
		return
	}

	spaces, err := h.store.ListSpaces(r.Context(), tipo)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]api.Space, len(spaces))
	for i := range spaces {
		out[i] = toAPISpace(&spaces[i])
	}
	respondJSON(w, http.StatusOK, out)
}

// CreateSpace handles POST /spaces (admin).
func (h *Handler) CreateSpace(w http.ResponseWriter, r *http.Request) {
	var req api.SpaceInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validateSpace(req); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	sp := &model.Space{
		ID:       uuid.New().String(),
		Name:     req.Name,
		Type:     req.Type,
		Capacity: req.Capacity,
		Location: req.Location,
	}
	if err := h.store.CreateSpace(r.Context(), sp); err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.hub.Broadcast(ws.EventSpaceChanged, sp.ID, "created")
	respondJSON(w, http.StatusCreated, toAPISpace(sp))
}

// UpdateSpace handles PUT /spaces/{id} (admin).
func (h *Handler) UpdateSpace(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	var req api.SpaceInput
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validateSpace(req); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	sp := &model.Space{
		ID:       id,
		Name:     req.Name,
		Type:     req.Type,
		Capacity: req.Capacity,
		Location: req.Location,
	}
	if err := h.store.UpdateSpace(r.Context(), sp); err != nil {
		respondError(w, http.StatusNotFound, "space not found")
		return
	}

	h.hub.Broadcast(ws.EventSpaceChanged, id, "updated")
	respondJSON(w, http.StatusOK, toAPISpace(sp))
}

// DeleteSpace handles DELETE /spaces/{id} (admin). Existing bookings of the
// space are left in place.
func (h *Handler) DeleteSpace(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	if err := h.store.DeleteSpace(r.Context(), id); err != nil {
		respondError(w, http.StatusNotFound, "space not found")
		return
	}

	h.hub.Broadcast(ws.EventSpaceChanged, id, "deleted")
	h.pub.Publish(r.Context(), events.RKSpaceDeleted, events.SpaceEvent{SpaceID: id})
	respondJSON(w, http.StatusOK, map[string]string{"message": "space deleted"})
}

// Availability handles GET /spaces/{id}/availability/{date}. Open route.
func (h *Handler) Availability(w http.ResponseWriter, r *http.Request) {
	vars := mux.Vars(r)
	spaceID := vars["id"]

	day, err := time.ParseInLocation("2006-01-02", vars["date"], time.Local)
	if err != nil {
		respondError(w, http.StatusBadRequest, "date must be yyyy-MM-dd")
		return
	}

	rows, err := h.store.BookingsForSpaceOn(r.Context(), spaceID, day)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]api.AvailabilityEntry, len(rows))
	for i, row := range rows {
		e := api.AvailabilityEntry{
			StartTime: row.StartTime,
			EndTime:   row.EndTime,
			Status:    row.Status,
		}
		if row.HasSpace {
			e.Space = &api.SpaceRef{Name: row.SpaceName, Location: row.SpaceLocation}
		}
		if row.HasUser {
			e.User = &api.UserRef{Name: row.UserName}
		}
		out[i] = e
	}
	respondJSON(w, http.StatusOK, out)
}

func validateSpace(req api.SpaceInput) string {
	if req.Name == "" {
		return "name required"
	}
	if !api.ValidSpaceType(req.Type) {
		return `type must be "aula", "laboratorio" or "sala"`
	}
	if req.Capacity < 0 {
		return "capacity must be non-negative"
	}
	return ""
}

func toAPISpace(sp *model.Space) api.Space {
	return api.Space{
		ID:       sp.ID,
		Name:     sp.Name,
		Type:     sp.Type,
		Capacity: sp.Capacity,
		Location: sp.Location,
	}
}
