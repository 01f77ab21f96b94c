package pg

import (
	"context"
	"database/sql"
	"errors"

	"gatehouse.dev/internal/auth"
)

const userColumns = `id, username, email, password_hash, status, master, display_name, created_at, updated_at`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (auth.User, bool, error) {
	var (
		u               auth.User
		id              int64
		username, email string
		status          string
	)
	err := row.Scan(&id, &username, &email, &u.PasswordHash, &status, &u.Master, &u.DisplayName, &u.CreatedAt, &u.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.User{}, false, nil
	}
	if err != nil {
		return auth.User{}, false, err
	}
	u.ID = auth.UserID(id)
	u.Username = auth.Username(username)
	u.Email = auth.Email(email)
	u.Status = auth.UserStatus(status)
	return u, true, nil
}

func (s *Store) findUser(ctx context.Context, where string, arg any) (auth.User, bool, error) {
	if s.db == nil {
		return auth.User{}, false, errNoDB
	}
	row := s.db.QueryRowContext(ctx, `select `+userColumns+` from users where `+where, arg)
	return scanUser(row)
}

func (s *Store) FindUserByUsername(ctx context.Context, username auth.Username) (auth.User, bool, error) {
	return s.findUser(ctx, `username = $1`, username.String())
}

func (s *Store) FindUserByEmail(ctx context.Context, email auth.Email) (auth.User, bool, error) {
	return s.findUser(ctx, `email = $1`, email.String())
}

func (s *Store) FindUser(ctx context.Context, id auth.UserID) (auth.User, bool, error) {
	return s.findUser(ctx, `id = $1`, int64(id))
}

func (s *Store) CreateUser(ctx context.Context, u *auth.User) error {
	if s.db == nil {
		return errNoDB
	}
	var id int64
	err := s.db.QueryRowContext(ctx, `
		insert into users (username, email, password_hash, status, master, display_name, created_at, updated_at)
		values ($1, $2, $3, $4, $5, $6, $7, $8)
		returning id
	`, u.Username.String(), u.Email.String(), u.PasswordHash, string(u.Status), u.Master, u.DisplayName, u.CreatedAt, u.UpdatedAt).Scan(&id)
	if err != nil {
		return mapWriteError(err, "user")
	}
	u.ID = auth.UserID(id)
	return nil
}

func (s *Store) UpdateUser(ctx context.Context, u auth.User) error {
	if s.db == nil {
		return errNoDB
	}
	res, err := s.db.ExecContext(ctx, `
		update users
		set email = $2, password_hash = $3, status = $4, master = $5, display_name = $6, updated_at = $7
		where id = $1
	`, int64(u.ID), u.Email.String(), u.PasswordHash, string(u.Status), u.Master, u.DisplayName, u.UpdatedAt)
	if err != nil {
		return mapWriteError(err, "user")
	}
	return expectOneRow(res, "user")
}
