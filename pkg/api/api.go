// Package api holds the wire types shared by the server and the Go client.
package api

import "time"

// Space categories accepted by the backend.
const (
	SpaceTypeAula        = "aula"
	SpaceTypeLaboratorio = "laboratorio"
	SpaceTypeSala        = "sala"
)

func ValidSpaceType(t string) bool {
	switch t {
	case SpaceTypeAula, SpaceTypeLaboratorio, SpaceTypeSala:
		return true
	}
	return false
}

// Booking statuses.
const (
	StatusPending   = "pending"
	StatusConfirmed = "confirmed"
	StatusCancelled = "cancelled"
)

func ValidStatus(s string) bool {
	switch s {
	case StatusPending, StatusConfirmed, StatusCancelled:
		return true
	}
	return false
}

// Roles.
const (
	RoleUser  = "user"
	RoleAdmin = "admin"
)

type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type RegisterRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"`
	Password string `json:"password"`
	Role     string `json:"role,omitempty"`
}

type AuthUser struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Email string `json:"email,omitempty"`
	Role  string `json:"role,omitempty"`
}

type AuthResponse struct {
	Token string   `json:"token"`
	User  AuthUser `json:"user"`
}

// Space id keeps the original backend's field name.
type Space struct {
	ID       string `json:"_id"`
	Name     string `json:"name"`
	Type     string `json:"type"`
	Capacity int    `json:"capacity"`
	Location string `json:"location"`
}

type SpaceInput struct {
	Name     string `json:"name"`
	Type     string `json:"type"`
	Capacity int    `json:"capacity"`
	Location string `json:"location"`
}

// SpaceRef is the nested space object on booking payloads. It is omitted
// entirely when the space row no longer exists.
type SpaceRef struct {
	Name     string `json:"name"`
	Location string `json:"location"`
}

type UserRef struct {
	Name string `json:"name"`
}

// BookingView is one element of GET /bookings?userId=...
type BookingView struct {
	ID        string    `json:"_id"`
	Space     *SpaceRef `json:"space,omitempty"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Status    string    `json:"status"`
}

// AvailabilityEntry is one element of GET /spaces/{id}/availability/{date}.
type AvailabilityEntry struct {
	Space     *SpaceRef `json:"space,omitempty"`
	User      *UserRef  `json:"user,omitempty"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
	Status    string    `json:"status"`
}

type CreateBookingRequest struct {
	SpaceID   string    `json:"spaceId"`
	UserID    string    `json:"userId"`
	StartTime time.Time `json:"startTime"`
	EndTime   time.Time `json:"endTime"`
}

type StatusUpdateRequest struct {
	BookingID string `json:"bookingId"`
	Status    string `json:"status"`
}

// ErrorResponse is the error envelope every non-2xx response carries.
type ErrorResponse struct {
	Error string `json:"error"`
}
