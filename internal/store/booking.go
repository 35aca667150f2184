package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/YNK0/ruvm/internal/model"
)

func (s *Store) CreateBooking(ctx context.Context, b *model.Booking) error {
	key := sql.NullString{String: b.IdempotencyKey, Valid: b.IdempotencyKey != ""}
	_, err := s.pool.Exec(ctx,
		`INSERT INTO bookings (id, space_id, user_id, start_time, end_time, status, idempotency_key)
		 VALUES ($1,$2,$3,$4,$5,$6,$7)`,
		b.ID, b.SpaceID, b.UserID, b.StartTime, b.EndTime, b.Status, key,
	)
	return err
}

// HasOverlap reports whether the space already has a non-cancelled booking
// intersecting [start, end). End is exclusive, so back-to-back slots pass.
func (s *Store) HasOverlap(ctx context.Context, spaceID string, start, end time.Time) (bool, error) {
	var exists bool
	err := s.pool.QueryRow(ctx,
		`SELECT EXISTS(
			SELECT 1 FROM bookings
			WHERE space_id = $1
			  AND status != 'cancelled'
			  AND start_time < $3
			  AND end_time > $2)`,
		spaceID, start, end,
	).Scan(&exists)
	return exists, err
}

func (s *Store) GetBooking(ctx context.Context, id string) (*model.Booking, error) {
	b := &model.Booking{}
	var key sql.NullString
	err := s.pool.QueryRow(ctx,
		`SELECT id, space_id, user_id, start_time, end_time, status, idempotency_key, created_at, updated_at
		 FROM bookings WHERE id = $1`, id,
	).Scan(&b.ID, &b.SpaceID, &b.UserID, &b.StartTime, &b.EndTime, &b.Status, &key, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.IdempotencyKey = key.String
	return b, nil
}

// BookingByIdempotencyKey resolves a replayed submission to its original booking.
func (s *Store) BookingByIdempotencyKey(ctx context.Context, key string) (*model.Booking, error) {
	b := &model.Booking{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, space_id, user_id, start_time, end_time, status, created_at, updated_at
		 FROM bookings WHERE idempotency_key = $1`, key,
	).Scan(&b.ID, &b.SpaceID, &b.UserID, &b.StartTime, &b.EndTime, &b.Status, &b.CreatedAt, &b.UpdatedAt)
	if err != nil {
		return nil, err
	}
	b.IdempotencyKey = key
	return b, nil
}

// ListBookingsByUser returns every booking of the user, joined with its space.
// Bookings of deleted spaces come back with HasSpace=false.
func (s *Store) ListBookingsByUser(ctx context.Context, userID string) ([]model.BookingRow, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT b.id, b.space_id, b.user_id, b.start_time, b.end_time, b.status,
		        b.created_at, b.updated_at,
		        sp.name, sp.location
		 FROM bookings b
		 LEFT JOIN spaces sp ON sp.id = b.space_id
		 WHERE b.user_id = $1
		 ORDER BY b.start_time`, userID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.BookingRow
	for rows.Next() {
		var r model.BookingRow
		var name, loc sql.NullString
		if err := rows.Scan(&r.ID, &r.SpaceID, &r.UserID, &r.StartTime, &r.EndTime, &r.Status,
			&r.CreatedAt, &r.UpdatedAt, &name, &loc); err != nil {
			return nil, err
		}
		r.HasSpace = name.Valid
		r.SpaceName = name.String
		r.SpaceLocation = loc.String
		out = append(out, r)
	}
	return out, rows.Err()
}

// BookingsForSpaceOn returns the space's bookings whose start falls on the
// given calendar day, joined with space and user for the availability view.
func (s *Store) BookingsForSpaceOn(ctx context.Context, spaceID string, day time.Time) ([]model.BookingRow, error) {
	dayStart := time.Date(day.Year(), day.Month(), day.Day(), 0, 0, 0, 0, day.Location())
	dayEnd := dayStart.AddDate(0, 0, 1)

	rows, err := s.pool.Query(ctx,
		`SELECT b.id, b.space_id, b.user_id, b.start_time, b.end_time, b.status,
		        b.created_at, b.updated_at,
		        sp.name, sp.location, u.name
		 FROM bookings b
		 LEFT JOIN spaces sp ON sp.id = b.space_id
		 LEFT JOIN users u ON u.id = b.user_id
		 WHERE b.space_id = $1
		   AND b.start_time >= $2 AND b.start_time < $3
		 ORDER BY b.start_time`, spaceID, dayStart, dayEnd,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.BookingRow
	for rows.Next() {
		var r model.BookingRow
		var spName, spLoc, uName sql.NullString
		if err := rows.Scan(&r.ID, &r.SpaceID, &r.UserID, &r.StartTime, &r.EndTime, &r.Status,
			&r.CreatedAt, &r.UpdatedAt, &spName, &spLoc, &uName); err != nil {
			return nil, err
		}
		r.HasSpace = spName.Valid
		r.SpaceName = spName.String
		r.SpaceLocation = spLoc.String
		r.HasUser = uName.Valid
		r.UserName = uName.String
		out = append(out, r)
	}
	return out, rows.Err()
}

func (s *Store) UpdateBookingStatus(ctx context.Context, id, status string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE bookings SET status=$1, updated_at=NOW() WHERE id=$2`, status, id,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
