package handler

import (
	"net/http"
	"regexp"

	"github.com/google/uuid"

	"github.com/YNK0/ruvm/internal/auth"
	"github.com/YNK0/ruvm/internal/model"
	"github.com/YNK0/ruvm/pkg/api"
)

var emailRe = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,6}$`)

// Login handles POST /auth/login.
func (h *Handler) Login(w http.ResponseWriter, r *http.Request) {
	var req api.LoginRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Email == "" || req.Password == "" {
		respondError(w, http.StatusBadRequest, "email and password required")
		return
	}

	u, err := h.store.UserByEmail(r.Context(), req.Email)
	if err != nil {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}
	if !auth.CheckPassword(u.PasswordHash, req.Password) {
		respondError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	tok, err := auth.MakeToken(u.ID, u.Role, u.Name, h.secret)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusOK, api.AuthResponse{
		Token: tok,
		User:  api.AuthUser{ID: u.ID, Role: u.Role, Name: u.Name},
	})
}

// Register handles POST /auth/register. All validation runs before storage.
func (h *Handler) Register(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if msg := validateRegistration(req.Name, req.Email, req.Password); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	u, err := h.createUser(r, req.Name, req.Email, req.Password, api.RoleUser)
	if err != nil {
		// unique violation = dup email, but don't reveal that
		respondError(w, http.StatusConflict, "registration failed")
		return
	}

	tok, err := auth.MakeToken(u.ID, u.Role, u.Name, h.secret)
	if err != nil {
		respondError(w, http.StatusInternalServerError, "internal error")
		return
	}

	respondJSON(w, http.StatusCreated, api.AuthResponse{
		Token: tok,
		User:  api.AuthUser{ID: u.ID, Name: u.Name, Email: u.Email},
	})
}

// RegisterAdmin handles POST /auth/register-admin. The router gates it on an
// admin bearer token.
func (h *Handler) RegisterAdmin(w http.ResponseWriter, r *http.Request) {
	var req api.RegisterRequest
	if err := decodeJSON(r, &req); err != nil {
		respondError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if req.Role != api.RoleAdmin {
		respondError(w, http.StatusBadRequest, "role must be admin")
		return
	}
	if msg := validateRegistration(req.Name, req.Email, req.Password); msg != "" {
		respondError(w, http.StatusBadRequest, msg)
		return
	}

	u, err := h.createUser(r, req.Name, req.Email, req.Password, api.RoleAdmin)
	if err != nil {
		respondError(w, http.StatusConflict, "could not create admin")
		return
	}

	respondJSON(w, http.StatusCreated, map[string]string{"id": u.ID, "name": u.Name})
}

func validateRegistration(name, email, password string) string {
	if name == "" || email == "" || password == "" {
		return "all fields required"
	}
	if !emailRe.MatchString(email) {
		return "invalid email"
	}
	if len(password) < 8 {
		return "password must be at least 8 characters"
	}
	return ""
}

func (h *Handler) createUser(r *http.Request, name, email, password, role string) (*model.User, error) {
	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, err
	}
	u := &model.User{
		ID:           uuid.New().String(),
		Email:        email,
		PasswordHash: hash,
		Name:         name,
		Role:         role,
	}
	if err := h.store.CreateUser(r.Context(), u); err != nil {
		return nil, err
	}
	return u, nil
}
