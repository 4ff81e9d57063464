package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"clinic-scheduler/internal/model"
)

const availabilityColumns = `id, doctor_id, date_time, created_at, updated_at`

func scanAvailability(row pgx.Row) (*model.Availability, error) {
	a := &model.Availability{}
	if err := row.Scan(&a.ID, &a.DoctorID, &a.DateTime, &a.CreatedAt, &a.UpdatedAt); err != nil {
		return nil, mapErr(err)
	}
	a.DateTime = a.DateTime.UTC()
	return a, nil
}

func (s *Store) CreateAvailability(ctx context.Context, a *model.Availability) error {
	err := s.conn(ctx).QueryRow(ctx,
		`INSERT INTO availability (id, doctor_id, date_time) VALUES ($1,$2,$3)
		 RETURNING created_at, updated_at`,
		a.ID, a.DoctorID, a.DateTime,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	return mapErr(err)
}

func (s *Store) GetAvailability(ctx context.Context, id string) (*model.Availability, error) {
	return scanAvailability(s.conn(ctx).QueryRow(ctx,
		`SELECT `+availabilityColumns+` FROM availability WHERE id = $1`, id))
}

func (s *Store) ListAvailability(ctx context.Context, doctorID string) ([]model.Availability, error) {
	q := `SELECT ` + availabilityColumns + ` FROM availability`
	var args []any
	if doctorID != "" {
		q += ` WHERE doctor_id = $1`
		args = append(args, doctorID)
	}
	q += ` ORDER BY date_time`

	rows, err := s.conn(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := []model.Availability{}
	for rows.Next() {
		a, err := scanAvailability(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (s *Store) UpdateAvailability(ctx context.Context, a *model.Availability) error {
	err := s.conn(ctx).QueryRow(ctx,
		`UPDATE availability SET date_time=$2, updated_at=NOW() WHERE id=$1 RETURNING updated_at`,
		a.ID, a.DateTime,
	).Scan(&a.UpdatedAt)
	return mapErr(err)
}

func (s *Store) DeleteAvailability(ctx context.Context, id string) error {
	return affected(s.conn(ctx).Exec(ctx, `DELETE FROM availability WHERE id = $1`, id))
}
