// Package client is a thin gateway to the booking API: it composes URLs and
// headers, nothing more. No retries, no backoff, no caching; failures are
// the caller's to present.
package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"regexp"
	"strings"
	"time"

	"github.com/YNK0/ruvm/pkg/api"
	"github.com/YNK0/ruvm/pkg/session"
)

var emailRe = regexp.MustCompile(`^[A-Za-z0-9+_.-]+@[A-Za-z0-9.-]+\.[A-Za-z]{2,6}$`)

// ValidationError is raised before any network call is made.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// APIError carries a non-2xx response. Message comes from the response
// body's error field when the backend sent one, otherwise it stays generic.
type APIError struct {
	StatusCode int
	Message    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api: %d %s", e.StatusCode, e.Message)
}

type Client struct {
	base    string
	http    *http.Client
	session *session.Store
}

func New(baseURL string, s *session.Store) *Client {
	return &Client{
		base:    strings.TrimRight(baseURL, "/"),
		http:    &http.Client{Timeout: 15 * time.Second},
		session: s,
	}
}

// Login exchanges credentials for a token and stores the whole session in
// one step.
func (c *Client) Login(ctx context.Context, email, password string) (*api.AuthResponse, error) {
	if email == "" || password == "" {
		return nil, &ValidationError{Message: "email and password required"}
	}
	var resp api.AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/login", api.LoginRequest{Email: email, Password: password}, &resp, false, "")
	if err != nil {
		return nil, err
	}
	if err := c.session.Set(session.Session{
		Token:  resp.Token,
		UserID: resp.User.ID,
		Name:   resp.User.Name,
		Role:   resp.User.Role,
	}); err != nil {
		return nil, err
	}
	return &resp, nil
}

// Register validates locally first; an invalid form never reaches the wire.
func (c *Client) Register(ctx context.Context, name, email, password string) (*api.AuthResponse, error) {
	if err := validateRegistration(name, email, password); err != nil {
		return nil, err
	}
	var resp api.AuthResponse
	err := c.do(ctx, http.MethodPost, "/auth/register", api.RegisterRequest{Name: name, Email: email, Password: password}, &resp, false, "")
	if err != nil {
		return nil, err
	}
	// every self-registered account is a plain user
	if err := c.session.Set(session.Session{
		Token:  resp.Token,
		UserID: resp.User.ID,
		Name:   resp.User.Name,
		Role:   api.RoleUser,
		Email:  resp.User.Email,
	}); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) RegisterAdmin(ctx context.Context, name, email, password string) error {
	if err := validateRegistration(name, email, password); err != nil {
		return err
	}
	req := api.RegisterRequest{Name: name, Email: email, Password: password, Role: api.RoleAdmin}
	return c.do(ctx, http.MethodPost, "/auth/register-admin", req, nil, true, "")
}

// Logout clears the session. Nothing to revoke server-side.
func (c *Client) Logout() error {
	return c.session.Clear()
}

func (c *Client) Spaces(ctx context.Context, tipo string) ([]api.Space, error) {
	path := "/spaces"
	if tipo != "" {
		path += "?tipo=" + url.QueryEscape(tipo)
	}
	var out []api.Space
	if err := c.do(ctx, http.MethodGet, path, nil, &out, true, ""); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateSpace(ctx context.Context, in api.SpaceInput) (*api.Space, error) {
	var out api.Space
	if err := c.do(ctx, http.MethodPost, "/spaces", in, &out, true, ""); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateSpace(ctx context.Context, id string, in api.SpaceInput) (*api.Space, error) {
	if !api.ValidSpaceType(in.Type) {
		return nil, &ValidationError{Message: `type must be "aula", "laboratorio" or "sala"`}
	}
	var out api.Space
	if err := c.do(ctx, http.MethodPut, "/spaces/"+url.PathEscape(id), in, &out, true, ""); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteSpace(ctx context.Context, id string) error {
	return c.do(ctx, http.MethodDelete, "/spaces/"+url.PathEscape(id), nil, nil, true, "")
}

// Availability queries a space's bookings for one calendar day.
func (c *Client) Availability(ctx context.Context, spaceID, date string) ([]api.AvailabilityEntry, error) {
	path := "/spaces/" + url.PathEscape(spaceID) + "/availability/" + url.PathEscape(date)
	var out []api.AvailabilityEntry
	if err := c.do(ctx, http.MethodGet, path, nil, &out, false, ""); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Bookings(ctx context.Context, userID string) ([]api.BookingView, error) {
	var out []api.BookingView
	if err := c.do(ctx, http.MethodGet, "/bookings?userId="+url.QueryEscape(userID), nil, &out, true, ""); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) CreateBooking(ctx context.Context, req api.CreateBookingRequest, idempotencyKey string) error {
	return c.do(ctx, http.MethodPost, "/bookings", req, nil, true, idempotencyKey)
}

func (c *Client) UpdateBookingStatus(ctx context.Context, bookingID, status string) error {
	req := api.StatusUpdateRequest{BookingID: bookingID, Status: status}
	return c.do(ctx, http.MethodPut, "/bookings/status", req, nil, true, "")
}

func validateRegistration(name, email, password string) error {
	if name == "" || email == "" || password == "" {
		return &ValidationError{Message: "all fields required"}
	}
	if !emailRe.MatchString(email) {
		return &ValidationError{Message: "invalid email"}
	}
	if len(password) < 8 {
		return &ValidationError{Message: "password must be at least 8 characters"}
	}
	return nil
}

func (c *Client) do(ctx context.Context, method, path string, body, out any, authed bool, idempotencyKey string) error {
	var rd io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return err
		}
		rd = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base+path, rd)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	if authed {
		s, ok := c.session.Get()
		if !ok {
			return session.ErrNotAuthenticated
		}
		req.Header.Set("Authorization", "Bearer "+s.Token)
	}
	if idempotencyKey != "" {
		req.Header.Set("Idempotency-Key", idempotencyKey)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return &APIError{StatusCode: 0, Message: "service unreachable"}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &APIError{StatusCode: resp.StatusCode, Message: errorMessage(resp.Body)}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

func errorMessage(body io.Reader) string {
	var e api.ErrorResponse
	if err := json.NewDecoder(body).Decode(&e); err == nil && e.Error != "" {
		return e.Error
	}
	return "request failed"
}
