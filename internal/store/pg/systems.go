package pg

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"gatehouse.dev/internal/auth"
)

func (s *Store) findSystem(ctx context.Context, where string, arg any) (auth.ClientSystem, bool, error) {
	if s.db == nil {
		return auth.ClientSystem{}, false, errNoDB
	}
	var (
		sys    auth.ClientSystem
		id     int64
		status string
	)
	err := s.db.QueryRowContext(ctx, `
		select id, client_id, name, redirect_uri, status, created_at
		from client_systems
		where `+where, arg).Scan(&id, &sys.ClientID, &sys.Name, &sys.RedirectURI, &status, &sys.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.ClientSystem{}, false, nil
	}
	if err != nil {
		return auth.ClientSystem{}, false, err
	}
	sys.ID = auth.SystemID(id)
	sys.Status = auth.SystemStatus(status)
	return sys, true, nil
}

func (s *Store) FindSystemByClientID(ctx context.Context, clientID string) (auth.ClientSystem, bool, error) {
	return s.findSystem(ctx, `client_id = $1`, clientID)
}

func (s *Store) FindSystem(ctx context.Context, id auth.SystemID) (auth.ClientSystem, bool, error) {
	return s.findSystem(ctx, `id = $1`, int64(id))
}

func (s *Store) CreateSystem(ctx context.Context, sys *auth.ClientSystem) error {
	if s.db == nil {
		return errNoDB
	}
	var id int64
	err := s.db.QueryRowContext(ctx, `
		insert into client_systems (client_id, name, redirect_uri, status, created_at)
		values ($1, $2, $3, $4, $5)
		returning id
	`, sys.ClientID, sys.Name, sys.RedirectURI, string(sys.Status), sys.CreatedAt).Scan(&id)
	if err != nil {
		return mapWriteError(err, "system")
	}
	sys.ID = auth.SystemID(id)
	return nil
}

func (s *Store) FindRole(ctx context.Context, id auth.RoleID) (auth.SystemRole, bool, error) {
	if s.db == nil {
		return auth.SystemRole{}, false, errNoDB
	}
	var (
		role             auth.SystemRole
		roleID, systemID int64
		status           string
	)
	err := s.db.QueryRowContext(ctx, `
		select id, system_id, code, description, status
		from system_roles
		where id = $1
	`, int64(id)).Scan(&roleID, &systemID, &role.Code, &role.Description, &status)
	if errors.Is(err, sql.ErrNoRows) {
		return auth.SystemRole{}, false, nil
	}
	if err != nil {
		return auth.SystemRole{}, false, err
	}
	role.ID = auth.RoleID(roleID)
	role.SystemID = auth.SystemID(systemID)
	role.Status = auth.RoleStatus(status)
	return role, true, nil
}

// FindRoles loads the roles with the given ids. Unknown ids are skipped.
func (s *Store) FindRoles(ctx context.Context, roleIDs []auth.RoleID) ([]auth.SystemRole, error) {
	if s.db == nil {
		return nil, errNoDB
	}
	if len(roleIDs) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(roleIDs))
	args := make([]any, len(roleIDs))
	for i, id := range roleIDs {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = int64(id)
	}
	rows, err := s.db.QueryContext(ctx, `
		select id, system_id, code, description, status
		from system_roles
		where id in (`+strings.Join(placeholders, ", ")+`)
		order by id
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []auth.SystemRole
	for rows.Next() {
		var (
			role             auth.SystemRole
			roleID, systemID int64
			status           string
		)
		if err := rows.Scan(&roleID, &systemID, &role.Code, &role.Description, &status); err != nil {
			return nil, err
		}
		role.ID = auth.RoleID(roleID)
		role.SystemID = auth.SystemID(systemID)
		role.Status = auth.RoleStatus(status)
		result = append(result, role)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

func (s *Store) CreateRole(ctx context.Context, role *auth.SystemRole) error {
	if s.db == nil {
		return errNoDB
	}
	var id int64
	err := s.db.QueryRowContext(ctx, `
		insert into system_roles (system_id, code, description, status)
		values ($1, $2, $3, $4)
		returning id
	`, int64(role.SystemID), role.Code, role.Description, string(role.Status)).Scan(&id)
	if err != nil {
		return mapWriteError(err, "role")
	}
	role.ID = auth.RoleID(id)
	return nil
}
