package pg

import (
	"context"
	"database/sql"
	"errors"

	"gatehouse.dev/internal/auth"
)

func (s *Store) FindBinding(ctx context.Context, userID auth.UserID, systemID auth.SystemID) (auth.UserSystem, bool, error) {
	if s.db == nil {
		return auth.UserSystem{}, false, errNoDB
	}
	var (
		id, uid, sid int64
		status       string
	)
	err := s.db.QueryRowContext(ctx, `
		select id, user_id, system_id, status
		from user_systems
		where user_id = $1 and system_id = $2
	`, int64(userID), int64(systemID)).Scan(&id, &uid, &sid, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.UserSystem{}, false, nil
	}
	if err != nil {
		return auth.UserSystem{}, false, err
	}
	return auth.UserSystem{
		ID:       auth.UserSystemID(id),
		UserID:   auth.UserID(uid),
		SystemID: auth.SystemID(sid),
		Status:   auth.BindingStatus(status),
	}, true, nil
}

func (s *Store) FindRoleBindings(ctx context.Context, bindingID auth.UserSystemID) ([]auth.UserSystemRole, error) {
	if s.db == nil {
		return nil, errNoDB
	}
	rows, err := s.db.QueryContext(ctx, `
		select id, user_system_id, system_role_id, status
		from user_system_roles
		where user_system_id = $1
		order by id
	`, int64(bindingID))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []auth.UserSystemRole
	for rows.Next() {
		var (
			id, bid, rid int64
			status       string
		)
		if err := rows.Scan(&id, &bid, &rid, &status); err != nil {
			return nil, err
		}
		result = append(result, auth.UserSystemRole{
			ID:           auth.UserSystemRoleID(id),
			UserSystemID: auth.UserSystemID(bid),
			SystemRoleID: auth.RoleID(rid),
			Status:       auth.BindingStatus(status),
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) CreateBinding(ctx context.Context, b *auth.UserSystem) error {
	if s.db == nil {
		return errNoDB
	}
	var id int64
	err := s.db.QueryRowContext(ctx, `
		insert into user_systems (user_id, system_id, status)
		values ($1, $2, $3)
		returning id
	`, int64(b.UserID), int64(b.SystemID), string(b.Status)).Scan(&id)
	if err != nil {
		return mapWriteError(err, "binding")
	}
	b.ID = auth.UserSystemID(id)
	return nil
}

func (s *Store) UpdateBindingStatus(ctx context.Context, id auth.UserSystemID, status auth.BindingStatus) error {
	if s.db == nil {
		return errNoDB
	}
	res, err := s.db.ExecContext(ctx, `update user_systems set status = $2 where id = $1`, int64(id), string(status))
	if err != nil {
		return err
	}
	return expectOneRow(res, "binding")
}

func (s *Store) CreateRoleBinding(ctx context.Context, b *auth.UserSystemRole) error {
	if s.db == nil {
		return errNoDB
	}
	var id int64
	err := s.db.QueryRowContext(ctx, `
		insert into user_system_roles (user_system_id, system_role_id, status)
		values ($1, $2, $3)
		returning id
	`, int64(b.UserSystemID), int64(b.SystemRoleID), string(b.Status)).Scan(&id)
	if err != nil {
		return mapWriteError(err, "role binding")
	}
	b.ID = auth.UserSystemRoleID(id)
	return nil
}
