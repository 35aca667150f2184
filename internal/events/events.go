// Package events publishes booking lifecycle events to a topic exchange.
package events

import (
	"encoding/json"
	"fmt"
)

const (
	RKBookingCreated   = "booking.created"
	RKBookingCancelled = "booking.cancelled"
	RKSpaceDeleted     = "space.deleted"
)

type BookingEvent struct {
	BookingID string `json:"booking_id"`
	UserID    string `json:"user_id"`
	SpaceID   string `json:"space_id"`
	Start     int64  `json:"start"` // unix seconds
	End       int64  `json:"end"`
	Status    string `json:"status"`
}

type SpaceEvent struct {
	SpaceID string `json:"space_id"`
	Name    string `json:"name"`
}

func Unmarshal[T any](b []byte) (T, error) {
	var t T
	if err := json.Unmarshal(b, &t); err != nil {
		var zero T
		return zero, fmt.Errorf("decode payload: %w", err)
	}
	return t, nil
}
