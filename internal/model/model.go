package model

import "time"

type User struct {
	ID           string
	Email        string
	PasswordHash string
	Name         string
	Role         string
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

type Space struct {
	ID        string
	Name      string
	Type      string
	Capacity  int
	Location  string
	CreatedAt time.Time
	UpdatedAt time.Time
}

type Booking struct {
	ID             string
	SpaceID        string
	UserID         string
	StartTime      time.Time
	EndTime        time.Time
	Status         string
	IdempotencyKey string
	CreatedAt      time.Time
	UpdatedAt      time.Time
}

// BookingRow is a booking joined with its space and user. A deleted space
// leaves the booking orphaned on purpose; HasSpace/HasUser report whether
// the joined rows still exist.
type BookingRow struct {
	Booking
	SpaceName     string
	SpaceLocation string
	UserName      string
	HasSpace      bool
	HasUser       bool
}
