// Package memory is an in-process auth.AdminStore for development and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"gatehouse.dev/internal/auth"
)

type Store struct {
	mu           sync.RWMutex
	nextID       int64
	users        map[auth.UserID]auth.User
	systems      map[auth.SystemID]auth.ClientSystem
	roles        map[auth.RoleID]auth.SystemRole
	bindings     map[auth.UserSystemID]auth.UserSystem
	roleBindings map[auth.UserSystemRoleID]auth.UserSystemRole
}

var _ auth.AdminStore = (*Store)(nil)

func New() *Store {
	return &Store{
		users:        map[auth.UserID]auth.User{},
		systems:      map[auth.SystemID]auth.ClientSystem{},
		roles:        map[auth.RoleID]auth.SystemRole{},
		bindings:     map[auth.UserSystemID]auth.UserSystem{},
		roleBindings: map[auth.UserSystemRoleID]auth.UserSystemRole{},
	}
}

// Ping always succeeds.
func (s *Store) Ping(context.Context) error { return nil }

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) FindUserByUsername(_ context.Context, username auth.Username) (auth.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Username == username {
			return u, true, nil
		}
	}
	return auth.User{}, false, nil
}

func (s *Store) FindUserByEmail(_ context.Context, email auth.Email) (auth.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if u.Email == email {
			return u, true, nil
		}
	}
	return auth.User{}, false, nil
}

func (s *Store) FindUser(_ context.Context, id auth.UserID) (auth.User, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	return u, ok, nil
}

func (s *Store) CreateUser(_ context.Context, u *auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return fmt.Errorf("%w: user already exists", auth.ErrConflict)
		}
	}
	u.ID = auth.UserID(s.id())
	s.users[u.ID] = *u
	return nil
}

func (s *Store) UpdateUser(_ context.Context, u auth.User) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	existing, ok := s.users[u.ID]
	if !ok {
		return fmt.Errorf("%w: user", auth.ErrNotFound)
	}
	for id, other := range s.users {
		if id != u.ID && other.Email == u.Email {
			return fmt.Errorf("%w: user already exists", auth.ErrConflict)
		}
	}
	u.Username = existing.Username
	u.CreatedAt = existing.CreatedAt
	s.users[u.ID] = u
	return nil
}

func (s *Store) FindSystemByClientID(_ context.Context, clientID string) (auth.ClientSystem, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, sys := range s.systems {
		if sys.ClientID == clientID {
			return sys, true, nil
		}
	}
	return auth.ClientSystem{}, false, nil
}

func (s *Store) FindSystem(_ context.Context, id auth.SystemID) (auth.ClientSystem, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	sys, ok := s.systems[id]
	return sys, ok, nil
}

func (s *Store) CreateSystem(_ context.Context, sys *auth.ClientSystem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.systems {
		if existing.ClientID == sys.ClientID {
			return fmt.Errorf("%w: system already exists", auth.ErrConflict)
		}
	}
	sys.ID = auth.SystemID(s.id())
	s.systems[sys.ID] = *sys
	return nil
}

func (s *Store) FindRole(_ context.Context, id auth.RoleID) (auth.SystemRole, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.roles[id]
	return r, ok, nil
}

func (s *Store) FindRoles(_ context.Context, roleIDs []auth.RoleID) ([]auth.SystemRole, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []auth.SystemRole
	seen := make(map[auth.RoleID]struct{}, len(roleIDs))
	for _, id := range roleIDs {
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		if r, ok := s.roles[id]; ok {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateRole(_ context.Context, r *auth.SystemRole) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.systems[r.SystemID]; !ok {
		return fmt.Errorf("%w: system %d", auth.ErrNotFound, r.SystemID)
	}
	for _, existing := range s.roles {
		if existing.SystemID == r.SystemID && existing.Code == r.Code {
			return fmt.Errorf("%w: role already exists", auth.ErrConflict)
		}
	}
	r.ID = auth.RoleID(s.id())
	s.roles[r.ID] = *r
	return nil
}

func (s *Store) FindBinding(_ context.Context, userID auth.UserID, systemID auth.SystemID) (auth.UserSystem, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, b := range s.bindings {
		if b.UserID == userID && b.SystemID == systemID {
			return b, true, nil
		}
	}
	return auth.UserSystem{}, false, nil
}

func (s *Store) FindRoleBindings(_ context.Context, bindingID auth.UserSystemID) ([]auth.UserSystemRole, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var out []auth.UserSystemRole
	for _, rb := range s.roleBindings {
		if rb.UserSystemID == bindingID {
			out = append(out, rb)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) CreateBinding(_ context.Context, b *auth.UserSystem) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.users[b.UserID]; !ok {
		return fmt.Errorf("%w: user %d", auth.ErrNotFound, b.UserID)
	}
	if _, ok := s.systems[b.SystemID]; !ok {
		return fmt.Errorf("%w: system %d", auth.ErrNotFound, b.SystemID)
	}
	for _, existing := range s.bindings {
		if existing.UserID == b.UserID && existing.SystemID == b.SystemID {
			return fmt.Errorf("%w: binding already exists", auth.ErrConflict)
		}
	}
	b.ID = auth.UserSystemID(s.id())
	s.bindings[b.ID] = *b
	return nil
}

func (s *Store) UpdateBindingStatus(_ context.Context, id auth.UserSystemID, status auth.BindingStatus) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.bindings[id]
	if !ok {
		return fmt.Errorf("%w: binding", auth.ErrNotFound)
	}
	b.Status = status
	s.bindings[id] = b
	return nil
}

func (s *Store) CreateRoleBinding(_ context.Context, rb *auth.UserSystemRole) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.bindings[rb.UserSystemID]; !ok {
		return fmt.Errorf("%w: binding %d", auth.ErrNotFound, rb.UserSystemID)
	}
	if _, ok := s.roles[rb.SystemRoleID]; !ok {
		return fmt.Errorf("%w: role %d", auth.ErrNotFound, rb.SystemRoleID)
	}
	for _, existing := range s.roleBindings {
		if existing.UserSystemID == rb.UserSystemID && existing.SystemRoleID == rb.SystemRoleID {
			return fmt.Errorf("%w: role binding already exists", auth.ErrConflict)
		}
	}
	rb.ID = auth.UserSystemRoleID(s.id())
	s.roleBindings[rb.ID] = *rb
	return nil
}
