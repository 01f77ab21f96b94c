package auth

import (
	"context"
	"strings"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type fakeStore struct {
	users        map[UserID]User
	systems      map[SystemID]ClientSystem
	roles        map[RoleID]SystemRole
	bindings     map[UserSystemID]UserSystem
	roleBindings map[UserSystemRoleID]UserSystemRole

	nextID int64
	calls  map[string]int
	err    error
}

var _ AdminStore = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{
		users:        map[UserID]User{},
		systems:      map[SystemID]ClientSystem{},
		roles:        map[RoleID]SystemRole{},
		bindings:     map[UserSystemID]UserSystem{},
		roleBindings: map[UserSystemRoleID]UserSystemRole{},
		calls:        map[string]int{},
	}
}

func (s *fakeStore) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *fakeStore) track(name string) error {
	s.calls[name]++
	return s.err
}

func (s *fakeStore) bindingCalls() int {
	return s.calls["FindBinding"] + s.calls["FindRoleBindings"] + s.calls["FindRoles"]
}

func (s *fakeStore) FindUserByUsername(_ context.Context, username Username) (User, bool, error) {
	if err := s.track("FindUserByUsername"); err != nil {
		return User{}, false, err
	}
	for _, u := range s.users {
		if u.Username == username {
			return u, true, nil
		}
	}
	return User{}, false, nil
}

func (s *fakeStore) FindUserByEmail(_ context.Context, email Email) (User, bool, error) {
	if err := s.track("FindUserByEmail"); err != nil {
		return User{}, false, err
	}
	for _, u := range s.users {
		if u.Email == email {
			return u, true, nil
		}
	}
	return User{}, false, nil
}

func (s *fakeStore) FindBinding(_ context.Context, userID UserID, systemID SystemID) (UserSystem, bool, error) {
	if err := s.track("FindBinding"); err != nil {
		return UserSystem{}, false, err
	}
	for _, b := range s.bindings {
		if b.UserID == userID && b.SystemID == systemID {
			return b, true, nil
		}
	}
	return UserSystem{}, false, nil
}

func (s *fakeStore) FindRoleBindings(_ context.Context, bindingID UserSystemID) ([]UserSystemRole, error) {
	if err := s.track("FindRoleBindings"); err != nil {
		return nil, err
	}
	var out []UserSystemRole
	for _, rb := range s.roleBindings {
		if rb.UserSystemID == bindingID {
			out = append(out, rb)
		}
	}
	return out, nil
}

func (s *fakeStore) FindRoles(_ context.Context, ids []RoleID) ([]SystemRole, error) {
	if err := s.track("FindRoles"); err != nil {
		return nil, err
	}
	var out []SystemRole
	for _, id := range ids {
		if r, ok := s.roles[id]; ok {
			out = append(out, r)
		}
	}
	return out, nil
}

func (s *fakeStore) FindSystemByClientID(_ context.Context, clientID string) (ClientSystem, bool, error) {
	if err := s.track("FindSystemByClientID"); err != nil {
		return ClientSystem{}, false, err
	}
	for _, sys := range s.systems {
		if sys.ClientID == clientID {
			return sys, true, nil
		}
	}
	return ClientSystem{}, false, nil
}

func (s *fakeStore) FindSystem(_ context.Context, id SystemID) (ClientSystem, bool, error) {
	if err := s.track("FindSystem"); err != nil {
		return ClientSystem{}, false, err
	}
	sys, ok := s.systems[id]
	return sys, ok, nil
}

func (s *fakeStore) FindUser(_ context.Context, id UserID) (User, bool, error) {
	if err := s.track("FindUser"); err != nil {
		return User{}, false, err
	}
	u, ok := s.users[id]
	return u, ok, nil
}

func (s *fakeStore) CreateUser(_ context.Context, u *User) error {
	for _, existing := range s.users {
		if existing.Username == u.Username || existing.Email == u.Email {
			return ErrConflict
		}
	}
	u.ID = UserID(s.id())
	s.users[u.ID] = *u
	return nil
}

func (s *fakeStore) UpdateUser(_ context.Context, u User) error {
	if _, ok := s.users[u.ID]; !ok {
		return ErrNotFound
	}
	s.users[u.ID] = u
	return nil
}

func (s *fakeStore) CreateSystem(_ context.Context, sys *ClientSystem) error {
	sys.ID = SystemID(s.id())
	s.systems[sys.ID] = *sys
	return nil
}

func (s *fakeStore) FindRole(_ context.Context, id RoleID) (SystemRole, bool, error) {
	r, ok := s.roles[id]
	return r, ok, nil
}

func (s *fakeStore) CreateRole(_ context.Context, r *SystemRole) error {
	r.ID = RoleID(s.id())
	s.roles[r.ID] = *r
	return nil
}

func (s *fakeStore) CreateBinding(_ context.Context, b *UserSystem) error {
	for _, existing := range s.bindings {
		if existing.UserID == b.UserID && existing.SystemID == b.SystemID {
			return ErrConflict
		}
	}
	b.ID = UserSystemID(s.id())
	s.bindings[b.ID] = *b
	return nil
}

func (s *fakeStore) UpdateBindingStatus(_ context.Context, id UserSystemID, status BindingStatus) error {
	b, ok := s.bindings[id]
	if !ok {
		return ErrNotFound
	}
	b.Status = status
	s.bindings[id] = b
	return nil
}

func (s *fakeStore) CreateRoleBinding(_ context.Context, b *UserSystemRole) error {
	b.ID = UserSystemRoleID(s.id())
	s.roleBindings[b.ID] = *b
	return nil
}

// seedUser stores a user whose password is hashed with the minimum bcrypt cost.
func (s *fakeStore) seedUser(t *testing.T, username, email, password string, status UserStatus, master bool) User {
	t.Helper()
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	u := User{
		ID:           UserID(s.id()),
		Username:     Username(username),
		Email:        Email(strings.ToLower(email)),
		PasswordHash: string(hash),
		Status:       status,
		Master:       master,
		DisplayName:  username,
		CreatedAt:    time.Now().UTC(),
	}
	s.users[u.ID] = u
	return u
}

func (s *fakeStore) seedSystem(clientID string, status SystemStatus) ClientSystem {
	sys := ClientSystem{
		ID:          SystemID(s.id()),
		ClientID:    clientID,
		Name:        clientID,
		RedirectURI: "https://" + clientID + ".example.com/callback",
		Status:      status,
	}
	s.systems[sys.ID] = sys
	return sys
}

func (s *fakeStore) seedRole(systemID SystemID, code string, status RoleStatus) SystemRole {
	r := SystemRole{ID: RoleID(s.id()), SystemID: systemID, Code: code, Status: status}
	s.roles[r.ID] = r
	return r
}

func (s *fakeStore) seedBinding(userID UserID, systemID SystemID, status BindingStatus) UserSystem {
	b := UserSystem{ID: UserSystemID(s.id()), UserID: userID, SystemID: systemID, Status: status}
	s.bindings[b.ID] = b
	return b
}

func (s *fakeStore) seedGrant(bindingID UserSystemID, roleID RoleID, status BindingStatus) UserSystemRole {
	rb := UserSystemRole{ID: UserSystemRoleID(s.id()), UserSystemID: bindingID, SystemRoleID: roleID, Status: status}
	s.roleBindings[rb.ID] = rb
	return rb
}

func mustHasher(t *testing.T) *PasswordHasher {
	t.Helper()
	h, err := NewPasswordHasher(HashBcrypt, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewPasswordHasher: %v", err)
	}
	return h
}
