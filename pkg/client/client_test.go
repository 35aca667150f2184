package client

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YNK0/ruvm/pkg/api"
	"github.com/YNK0/ruvm/pkg/session"
)

func authedStore(t *testing.T) *session.Store {
	t.Helper()
	st := session.NewStore()
	require.NoError(t, st.Set(session.Session{Token: "tok-abc", UserID: "u1", Name: "Test User", Role: "user"}))
	return st
}

func TestLoginStoresSession(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "/auth/login", r.URL.Path)
		assert.Equal(t, "application/json", r.Header.Get("Content-Type"))

		var req api.LoginRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&req))
		assert.Equal(t, "ana@example.com", req.Email)

		json.NewEncoder(w).Encode(api.AuthResponse{
			Token: "tok-xyz",
			User:  api.AuthUser{ID: "u9", Name: "Ana", Role: "admin"},
		})
	}))
	defer srv.Close()

	st := session.NewStore()
	c := New(srv.URL, st)

	resp, err := c.Login(context.Background(), "ana@example.com", "secret123")
	require.NoError(t, err)
	assert.Equal(t, "tok-xyz", resp.Token)

	s, ok := st.Get()
	require.True(t, ok)
	assert.Equal(t, "tok-xyz", s.Token)
	assert.Equal(t, "u9", s.UserID)
	assert.Equal(t, "Ana", s.Name)
	assert.Equal(t, "admin", s.Role)
}

func TestLoginMissingFields(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits++ }))
	defer srv.Close()

	c := New(srv.URL, session.NewStore())
	_, err := c.Login(context.Background(), "", "secret123")

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 0, hits)
}

func TestRegisterValidatesBeforeWire(t *testing.T) {
	tests := []struct {
		name     string
		userName string
		email    string
		password string
	}{
		{"empty name", "", "a@example.com", "secret123"},
		{"bad email", "Ana", "a@b", "secret123"},
		{"no tld", "Ana", "ana@example", "secret123"},
		{"short password", "Ana", "a@example.com", "short"},
	}

	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits++ }))
	defer srv.Close()
	c := New(srv.URL, session.NewStore())

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := c.Register(context.Background(), tt.userName, tt.email, tt.password)
			var ve *ValidationError
			require.ErrorAs(t, err, &ve)
		})
	}
	assert.Equal(t, 0, hits, "invalid forms never reach the server")
}

func TestRegisterStoresUserRole(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
		json.NewEncoder(w).Encode(api.AuthResponse{
			Token: "tok-new",
			User:  api.AuthUser{ID: "u2", Name: "Ana", Email: "a@example.com"},
		})
	}))
	defer srv.Close()

	st := session.NewStore()
	c := New(srv.URL, st)
	_, err := c.Register(context.Background(), "Ana", "a@example.com", "secret123")
	require.NoError(t, err)

	s, _ := st.Get()
	assert.Equal(t, api.RoleUser, s.Role, "self registration always yields a plain user")
	assert.Equal(t, "a@example.com", s.Email)
}

func TestBookingsSendsBearer(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer tok-abc", r.Header.Get("Authorization"))
		assert.Equal(t, "u1", r.URL.Query().Get("userId"))
		json.NewEncoder(w).Encode([]api.BookingView{})
	}))
	defer srv.Close()

	c := New(srv.URL, authedStore(t))
	_, err := c.Bookings(context.Background(), "u1")
	require.NoError(t, err)
}

func TestAuthedCallWithoutSession(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits++ }))
	defer srv.Close()

	c := New(srv.URL, session.NewStore())
	_, err := c.Bookings(context.Background(), "u1")

	assert.ErrorIs(t, err, session.ErrNotAuthenticated)
	assert.Equal(t, 0, hits)
}

func TestCreateBookingSendsIdempotencyKey(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "key-123", r.Header.Get("Idempotency-Key"))
		w.WriteHeader(http.StatusCreated)
	}))
	defer srv.Close()

	c := New(srv.URL, authedStore(t))
	err := c.CreateBooking(context.Background(), api.CreateBookingRequest{
		SpaceID:   "sp1",
		UserID:    "u1",
		StartTime: time.Date(2026, 9, 15, 10, 0, 0, 0, time.UTC),
		EndTime:   time.Date(2026, 9, 15, 11, 0, 0, 0, time.UTC),
	}, "key-123")
	require.NoError(t, err)
}

func TestAvailabilityIsUnauthenticated(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		assert.Equal(t, "/spaces/sp1/availability/2026-09-15", r.URL.Path)
		json.NewEncoder(w).Encode([]api.AvailabilityEntry{})
	}))
	defer srv.Close()

	// no session at all
	c := New(srv.URL, session.NewStore())
	_, err := c.Availability(context.Background(), "sp1", "2026-09-15")
	require.NoError(t, err)
}

func TestSpacesTipoFilter(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "laboratorio", r.URL.Query().Get("tipo"))
		json.NewEncoder(w).Encode([]api.Space{{ID: "sp1", Name: "Lab 1", Type: "laboratorio"}})
	}))
	defer srv.Close()

	c := New(srv.URL, authedStore(t))
	spaces, err := c.Spaces(context.Background(), "laboratorio")
	require.NoError(t, err)
	require.Len(t, spaces, 1)
	assert.Equal(t, "Lab 1", spaces[0].Name)
}

func TestUpdateSpaceRejectsBadType(t *testing.T) {
	hits := 0
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) { hits++ }))
	defer srv.Close()

	c := New(srv.URL, authedStore(t))
	_, err := c.UpdateSpace(context.Background(), "sp1", api.SpaceInput{Name: "X", Type: "garage", Capacity: 4})

	var ve *ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, 0, hits)
}

func TestAPIErrorUsesBodyMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusConflict)
		json.NewEncoder(w).Encode(api.ErrorResponse{Error: "time conflicts with an existing booking"})
	}))
	defer srv.Close()

	c := New(srv.URL, authedStore(t))
	err := c.CreateBooking(context.Background(), api.CreateBookingRequest{SpaceID: "sp1", UserID: "u1"}, "k")

	var ae *APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, http.StatusConflict, ae.StatusCode)
	assert.Equal(t, "time conflicts with an existing booking", ae.Message)
}

func TestAPIErrorGenericWithoutBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	c := New(srv.URL, authedStore(t))
	err := c.DeleteSpace(context.Background(), "sp1")

	var ae *APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, "request failed", ae.Message)
}

func TestTransportErrorIsUnreachable(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	srv.Close() // nothing listening anymore

	c := New(srv.URL, authedStore(t))
	err := c.DeleteSpace(context.Background(), "sp1")

	var ae *APIError
	require.ErrorAs(t, err, &ae)
	assert.Equal(t, 0, ae.StatusCode)
	assert.Equal(t, "service unreachable", ae.Message)
}

func TestLogoutClearsSession(t *testing.T) {
	st := authedStore(t)
	c := New("http://localhost:0", st)

	require.NoError(t, c.Logout())
	_, ok := st.Get()
	assert.False(t, ok)
}
