package handler

import (
	"net/http"
	"time"

	"github.com/google/uuid"

	"github.com/YNK0/ruvm/internal/events"
	"github.com/YNK0/ruvm/internal/middleware"
	"github.com/YNK0/ruvm/internal/model"
	"github.com/YNK0/ruvm/internal/ws"
	"github.com/YNK0/ruvm/pkg/api"
)

// ListBookings handles GET /bookings?userId=... Callers may only list their
// own bookings.
func (h *Handler) ListBookings(w http.ResponseWriter, r *http.Request) {
	userID := r.URL.Query().Get("userId")
	if userID == "" {
		respondError(w, http.StatusBadRequest, "userId required")
		return
	}
	if userID != middleware.UserID(r.Context()) {
		respondError(w, http.StatusForbidden, "forbidden")
		return
	}

	rows, err := h.store.ListBookingsByUser(r.Context(), userID)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	out := make([]api.BookingView, len(rows))
	for i, row := range rows {
		out[i] = toBookingView(&row)
	}
	respondJSON(w, http.StatusOK, out)
}

// CreateBooking handles POST /bookings. An Idempotency-Key header makes the
// call replay-safe: the same key returns the originally created booking.
func (h *Handler) CreateBooking(w http.ResponseWriter, r *http.Request) {
	var req api.CreateBookingRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.SpaceID == "" || req.UserID == "" {
		respondError(w, http.StatusBadRequest, "spaceId and userId required")
		return
	}
	if req.StartTime.IsZero() || req.EndTime.IsZero() {
		respondError(w, http.StatusBadRequest, "times required")
		return
	}
	if req.UserID != middleware.UserID(r.Context()) {
		respondError(w, http.StatusForbidden, "forbidden")
		return
	}
	if !req.EndTime.After(req.StartTime) {
		respondError(w, http.StatusBadRequest, "end must be after start")
		return
	}
	if req.StartTime.Before(time.Now().Add(-5 * time.Minute)) {
		respondError(w, http.StatusBadRequest, "cannot book in the past")
		return
	}

	if _, err := h.store.GetSpace(r.Context(), req.SpaceID); err != nil {
		respondError(w, http.StatusNotFound, "space not found")
		return
	}

	idemKey := r.Header.Get("Idempotency-Key")
	if idemKey != "" {
		if prev, err := h.store.BookingByIdempotencyKey(r.Context(), idemKey); err == nil {
			respondJSON(w, http.StatusOK, toBookingViewPlain(prev))
			return
		}
	}

	// app-level overlap check
	if dup, err := h.store.HasOverlap(r.Context(), req.SpaceID, req.StartTime, req.EndTime); err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	} else if dup {
		respondError(w, http.StatusConflict, "time conflicts with an existing booking")
		return
	}

	b := &model.Booking{
		ID:             uuid.New().String(),
		SpaceID:        req.SpaceID,
		UserID:         req.UserID,
		StartTime:      req.StartTime,
		EndTime:        req.EndTime,
		Status:         api.StatusConfirmed,
		IdempotencyKey: idemKey,
	}
	if err := h.store.CreateBooking(r.Context(), b); err != nil {
		// unique idempotency index caught a replay race
		respondError(w, http.StatusConflict, "time conflicts with an existing booking")
		return
	}

	h.hub.Broadcast(ws.EventBookingChanged, b.ID, "created")
	h.pub.Publish(r.Context(), events.RKBookingCreated, events.BookingEvent{
		BookingID: b.ID,
		UserID:    b.UserID,
		SpaceID:   b.SpaceID,
		Start:     b.StartTime.Unix(),
		End:       b.EndTime.Unix(),
		Status:    b.Status,
	})
	respondJSON(w, http.StatusCreated, toBookingViewPlain(b))
}

// UpdateBookingStatus handles PUT /bookings/status. The only client-initiated
// transition is to cancelled, but the backend accepts the full status set.
func (h *Handler) UpdateBookingStatus(w http.ResponseWriter, r *http.Request) {
	var req api.StatusUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.BookingID == "" {
		respondError(w, http.StatusBadRequest, "bookingId required")
		return
	}
	if !api.ValidStatus(req.Status) {
		respondError(w, http.StatusBadRequest, "unknown status")
		return
	}

	b, err := h.store.GetBooking(r.Context(), req.BookingID)
	if err != nil {
		respondError(w, http.StatusNotFound, "booking not found")
		return
	}
	// ownership: return 404 not 403 to hide existence
	if b.UserID != middleware.UserID(r.Context()) && middleware.Role(r.Context()) != api.RoleAdmin {
		respondError(w, http.StatusNotFound, "booking not found")
		return
	}

	if err := h.store.UpdateBookingStatus(r.Context(), req.BookingID, req.Status); err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	h.hub.Broadcast(ws.EventBookingChanged, b.ID, req.Status)
	if req.Status == api.StatusCancelled {
		h.pub.Publish(r.Context(), events.RKBookingCancelled, events.BookingEvent{
			BookingID: b.ID,
			UserID:    b.UserID,
			SpaceID:   b.SpaceID,
			Start:     b.StartTime.Unix(),
			End:       b.EndTime.Unix(),
			Status:    req.Status,
		})
	}
	b.Status = req.Status
	respondJSON(w, http.StatusOK, toBookingViewPlain(b))
}

func toBookingView(row *model.BookingRow) api.BookingView {
	v := api.BookingView{
		ID:        row.ID,
		StartTime: row.StartTime,
		EndTime:   row.EndTime,
		Status:    row.Status,
	}
	if row.HasSpace {
		v.Space = &api.SpaceRef{Name: row.SpaceName, Location: row.SpaceLocation}
	}
	return v
}

func toBookingViewPlain(b *model.Booking) api.BookingView {
	return api.BookingView{
		ID:        b.ID,
		StartTime: b.StartTime,
		EndTime:   b.EndTime,
		Status:    b.Status,
	}
}
