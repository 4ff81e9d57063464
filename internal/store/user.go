package store

import (
	"context"

	"github.com/jackc/pgx/v5"

	"clinic-scheduler/internal/model"
)

const userColumns = `id, role, first_name, last_name, address, profile_desc,
	email, password_hash, status, blocked, created_at, updated_at`

func scanUser(row pgx.Row) (*model.User, error) {
	u := &model.User{}
	var role string
	err := row.Scan(&u.ID, &role, &u.FirstName, &u.LastName, &u.Address, &u.ProfileDesc,
		&u.Email, &u.PasswordHash, &u.Status, &u.Blocked, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, mapErr(err)
	}
	u.Role = model.Role(role)
	return u, nil
}

func (s *Store) CreateUser(ctx context.Context, u *model.User) error {
	err := s.conn(ctx).QueryRow(ctx,
		`INSERT INTO users (id, role, first_name, last_name, address, profile_desc,
		                    email, password_hash, status, blocked)
		 VALUES ($1,$2,$3,$4,$5,$6,$7,$8,$9,$10)
		 RETURNING created_at, updated_at`,
		u.ID, string(u.Role), u.FirstName, u.LastName, u.Address, u.ProfileDesc,
		u.Email, u.PasswordHash, u.Status, u.Blocked,
	).Scan(&u.CreatedAt, &u.UpdatedAt)
	return mapErr(err)
}

func (s *Store) UserByID(ctx context.Context, id string) (*model.User, error) {
	return scanUser(s.conn(ctx).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id))
}

func (s *Store) UserByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(s.conn(ctx).QueryRow(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email))
}

func (s *Store) ListUsers(ctx context.Context, role model.Role) ([]model.User, error) {
	rows, err := s.conn(ctx).Query(ctx,
		`SELECT `+userColumns+` FROM users
		 WHERE ($1::text = '' OR role = $1)
		 ORDER BY created_at`, string(role),
	)
	if err != nil {
		return nil, mapErr(err)
	}
	defer rows.Close()

	out := []model.User{}
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *u)
	}
	return out, rows.Err()
}

func (s *Store) UpdateUser(ctx context.Context, u *model.User) error {
	err := s.conn(ctx).QueryRow(ctx,
		`UPDATE users
		 SET role=$2, first_name=$3, last_name=$4, address=$5, profile_desc=$6,
		     status=$7, blocked=$8, updated_at=NOW()
		 WHERE id=$1
		 RETURNING updated_at`,
		u.ID, string(u.Role), u.FirstName, u.LastName, u.Address, u.ProfileDesc, u.Status, u.Blocked,
	).Scan(&u.UpdatedAt)
	return mapErr(err)
}

// DeleteUser removes dependents first so the cascade holds even on schemas
// created without ON DELETE CASCADE.
func (s *Store) DeleteUser(ctx context.Context, id string) error {
	return s.WithTx(ctx, func(ctx context.Context) error {
		q := s.conn(ctx)
		if _, err := q.Exec(ctx, `DELETE FROM appointments WHERE user_id = $1 OR doctor_id = $1`, id); err != nil {
			return mapErr(err)
		}
		if _, err := q.Exec(ctx, `DELETE FROM availability WHERE doctor_id = $1`, id); err != nil {
			return mapErr(err)
		}
		if _, err := q.Exec(ctx, `DELETE FROM refresh_tokens WHERE user_id = $1`, id); err != nil {
			return mapErr(err)
		}
		return affected(q.Exec(ctx, `DELETE FROM users WHERE id = $1`, id))
	})
}
