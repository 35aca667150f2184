package store

import (
	"context"
	"errors"

	"github.com/YNK0/ruvm/internal/model"
)

var ErrNotFound = errors.New("not found")

func (s *Store) CreateSpace(ctx context.Context, sp *model.Space) error {
	_, err := s.pool.Exec(ctx,
		`INSERT INTO spaces (id, name, type, capacity, location) VALUES ($1,$2,$3,$4,$5)`,
		sp.ID, sp.Name, sp.Type, sp.Capacity, sp.Location,
	)
	return err
}

// ListSpaces filters by type when tipo is non-empty.
func (s *Store) ListSpaces(ctx context.Context, tipo string) ([]model.Space, error) {
	q := `SELECT id, name, type, capacity, location, created_at, updated_at
	      FROM spaces`
	args := []any{}
	if tipo != "" {
		q += ` WHERE type = $1`
		args = append(args, tipo)
	}
	q += ` ORDER BY name`

	rows, err := s.pool.Query(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []model.Space
	for rows.Next() {
		var sp model.Space
		if err := rows.Scan(&sp.ID, &sp.Name, &sp.Type, &sp.Capacity, &sp.Location,
			&sp.CreatedAt, &sp.UpdatedAt); err != nil {
			return nil, err
		}
		out = append(out, sp)
	}
	return out, rows.Err()
}

func (s *Store) GetSpace(ctx context.Context, id string) (*model.Space, error) {
	sp := &model.Space{}
	err := s.pool.QueryRow(ctx,
		`SELECT id, name, type, capacity, location, created_at, updated_at
		 FROM spaces WHERE id = $1`, id,
	).Scan(&sp.ID, &sp.Name, &sp.Type, &sp.Capacity, &sp.Location, &sp.CreatedAt, &sp.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return sp, nil
}

func (s *Store) UpdateSpace(ctx context.Context, sp *model.Space) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE spaces SET name=$1, type=$2, capacity=$3, location=$4, updated_at=NOW()
		 WHERE id=$5`,
		sp.Name, sp.Type, sp.Capacity, sp.Location, sp.ID,
	)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// DeleteSpace removes only the space row. Its bookings stay behind and read
// back with HasSpace=false.
func (s *Store) DeleteSpace(ctx context.Context, id string) error {
	tag, err := s.pool.Exec(ctx, `DELETE FROM spaces WHERE id = $1`, id)
	if err != nil {
		return err
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}
