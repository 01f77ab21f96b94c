package auth

import "context"

// CredentialStore is the read side consumed by the resolver and the engines.
// Absence is reported through the found flag; error is reserved for
// infrastructure failures.
type CredentialStore interface {
	FindUserByUsername(ctx context.Context, username Username) (User, bool, error)
	FindUserByEmail(ctx context.Context, email Email) (User, bool, error)
	FindBinding(ctx context.Context, userID UserID, systemID SystemID) (UserSystem, bool, error)
	FindRoleBindings(ctx context.Context, bindingID UserSystemID) ([]UserSystemRole, error)
	FindRoles(ctx context.Context, roleIDs []RoleID) ([]SystemRole, error)
}

// SystemStore looks up client systems.
type SystemStore interface {
	FindSystemByClientID(ctx context.Context, clientID string) (ClientSystem, bool, error)
	FindSystem(ctx context.Context, id SystemID) (ClientSystem, bool, error)
}

// AdminStore persists users, systems, roles and bindings. Create methods
// assign the identifier on the passed entity; unique violations map to
// ErrConflict and missing rows on update to ErrNotFound.
type AdminStore interface {
	CredentialStore
	SystemStore

	FindUser(ctx context.Context, id UserID) (User, bool, error)
	CreateUser(ctx context.Context, u *User) error
	UpdateUser(ctx context.Context, u User) error

	CreateSystem(ctx context.Context, s *ClientSystem) error
	FindRole(ctx context.Context, id RoleID) (SystemRole, bool, error)
	CreateRole(ctx context.Context, r *SystemRole) error

	CreateBinding(ctx context.Context, b *UserSystem) error
	UpdateBindingStatus(ctx context.Context, id UserSystemID, status BindingStatus) error
	CreateRoleBinding(ctx context.Context, b *UserSystemRole) error
}
