package store

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"clinic-scheduler/internal/model"
	"clinic-scheduler/internal/service"
)

const appointmentColumns = `id, user_id, doctor_id, date_time, status,
	client_requirements, created_at, updated_at`

func scanAppointment(row pgx.Row) (*model.Appointment, error) {
	a := &model.Appointment{}
	var status string
	err := row.Scan(&a.ID, &a.UserID, &a.DoctorID, &a.DateTime, &status,
		&a.ClientRequirements, &a.CreatedAt, &a.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	a.Status = model.Status(status)
	a.DateTime = a.DateTime.UTC()
	return a, nil
}

func (s *Store) CreateAppointment(ctx context.Context, a *model.Appointment) error {
	err := s.conn(ctx).QueryRow(ctx,
		`INSERT INTO appointments (id, user_id, doctor_id, date_time, status, client_requirements)
		 VALUES ($1,$2,$3,$4,$5,$6)
		 RETURNING created_at, updated_at`,
		a.ID, a.UserID, a.DoctorID, a.DateTime, string(a.Status), a.ClientRequirements,
	).Scan(&a.CreatedAt, &a.UpdatedAt)
	return mapErr(err)
}

func (s *Store) GetAppointment(ctx context.Context, id string) (*model.Appointment, error) {
	return scanAppointment(s.conn(ctx).QueryRow(ctx,
		`SELECT `+appointmentColumns+` FROM appointments WHERE id = $1`, id))
}

func (s *Store) ListAppointments(ctx context.Context, f service.AppointmentFilter) ([]model.Appointment, error) {
	q := `SELECT ` + appointmentColumns + ` FROM appointments WHERE true`
	var args []any
	if f.UserID != "" {
		args = append(args, f.UserID)
		q += fmt.Sprintf(` AND user_id = $%d`, len(args))
	}
	if f.DoctorID != "" {
		args = append(args, f.DoctorID)
		q += fmt.Sprintf(` AND doctor_id = $%d`, len(args))
	}
	q += ` ORDER BY date_time`

	rows, err := s.conn(ctx).Query(ctx, q, args...)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := []model.Appointment{}
	for rows.Next() {
		a, err := scanAppointment(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *a)
	}
	return out, rows.Err()
}

func (s *Store) UpdateAppointmentStatus(ctx context.Context, id string, status model.Status) error {
	return affected(s.conn(ctx).Exec(ctx,
		`UPDATE appointments SET status=$2, updated_at=NOW() WHERE id=$1`, id, string(status)))
}
