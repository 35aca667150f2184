package router

import (
	"net/http"

	"github.com/gorilla/mux"

	"github.com/YNK0/ruvm/internal/handler"
	"github.com/YNK0/ruvm/internal/middleware"
	"github.com/YNK0/ruvm/internal/ws"
)

// New builds the route table. Credential endpoints are rate limited, space
// and booking mutations require a bearer token, space CRUD additionally
// requires the admin role. Any unmatched path falls through to a single
// redirect keyed on session presence.
func New(h *handler.Handler, hub *ws.Hub, rl *middleware.RateLimiter, secret string) *mux.Router {
	r := mux.NewRouter()
	r.Use(corsMiddleware)

	authed := middleware.Auth(secret)
	admin := func(next http.HandlerFunc) http.Handler {
		return authed(middleware.RequireAdmin(next))
	}

	// auth
	r.Handle("/auth/login", rl.Limit(http.HandlerFunc(h.Login))).Methods(http.MethodPost, http.MethodOptions)
	r.Handle("/auth/register", rl.Limit(http.HandlerFunc(h.Register))).Methods(http.MethodPost, http.MethodOptions)
	r.Handle("/auth/register-admin", admin(h.RegisterAdmin)).Methods(http.MethodPost, http.MethodOptions)

	// spaces
	r.Handle("/spaces", authed(http.HandlerFunc(h.ListSpaces))).Methods(http.MethodGet, http.MethodOptions)
	r.Handle("/spaces", admin(h.CreateSpace)).Methods(http.MethodPost, http.MethodOptions)
	r.Handle("/spaces/{id}", admin(h.UpdateSpace)).Methods(http.MethodPut, http.MethodOptions)
	r.Handle("/spaces/{id}", admin(h.DeleteSpace)).Methods(http.MethodDelete, http.MethodOptions)
	r.HandleFunc("/spaces/{id}/availability/{date}", h.Availability).Methods(http.MethodGet, http.MethodOptions)

	// bookings
	r.Handle("/bookings", authed(http.HandlerFunc(h.ListBookings))).Methods(http.MethodGet, http.MethodOptions)
	r.Handle("/bookings", authed(http.HandlerFunc(h.CreateBooking))).Methods(http.MethodPost, http.MethodOptions)
	r.Handle("/bookings/status", authed(http.HandlerFunc(h.UpdateBookingStatus))).Methods(http.MethodPut, http.MethodOptions)

	// live updates
	if hub != nil {
		r.HandleFunc("/ws", hub.ServeWS).Methods(http.MethodGet)
	}

	r.HandleFunc("/health", healthCheck).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(fallback)

	return r
}

// fallback sends unmatched paths to the space directory when a session is
// present, to login otherwise.
func fallback(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("Authorization") != "" {
		http.Redirect(w, r, "/spaces", http.StatusTemporaryRedirect)
		return
	}
	http.Redirect(w, r, "/auth/login", http.StatusTemporaryRedirect)
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, Idempotency-Key")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

func healthCheck(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"healthy"}`))
}
