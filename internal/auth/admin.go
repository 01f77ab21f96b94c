package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"
)

// PasswordHashing hashes new passwords for storage.
type PasswordHashing interface {
	Hash(password string) (string, error)
}

// Admin manages users, systems, roles and bindings.
type Admin struct {
	store  AdminStore
	hasher PasswordHashing
	now    func() time.Time
}

// AdminOption configures Admin behavior.
type AdminOption func(*Admin)

// WithAdminClock overrides time source (useful for tests).
func WithAdminClock(fn func() time.Time) AdminOption {
	return func(a *Admin) {
		if fn != nil {
			a.now = fn
		}
	}
}

func NewAdmin(store AdminStore, hasher PasswordHashing, opts ...AdminOption) (*Admin, error) {
	if store == nil {
		return nil, errors.New("admin store is required")
	}
	if hasher == nil {
		return nil, errors.New("password hasher is required")
	}
	a := &Admin{store: store, hasher: hasher, now: time.Now}
	for _, opt := range opts {
		opt(a)
	}
	return a, nil
}

// RegisterUserInput describes a new account.
type RegisterUserInput struct {
	Username    string
	Email       string
	Password    string
	DisplayName string
}

// RegisterUser creates an active, non-master user.
func (a *Admin) RegisterUser(ctx context.Context, input RegisterUserInput) (User, error) {
	user, err := NewUser(NewUserInput{
		Username:    input.Username,
		Email:       input.Email,
		DisplayName: input.DisplayName,
	}, a.now().UTC())
	if err != nil {
		return User{}, err
	}
	if strings.TrimSpace(input.Password) == "" {
		return User{}, fmt.Errorf("%w: password is required", ErrInvalidInput)
	}
	hash, err := a.hasher.Hash(input.Password)
	if err != nil {
		return User{}, fmt.Errorf("hash password: %w", err)
	}
	user.PasswordHash = hash
	if err := a.store.CreateUser(ctx, &user); err != nil {
		return User{}, err
	}
	return user, nil
}

// BootstrapMaster creates a master user when no user with the same username
// exists yet. It returns created == false when the username is taken.
func (a *Admin) BootstrapMaster(ctx context.Context, input RegisterUserInput) (User, bool, error) {
	username, err := ParseUsername(input.Username)
	if err != nil {
		return User{}, false, err
	}
	existing, found, err := a.store.FindUserByUsername(ctx, username)
	if err != nil {
		return User{}, false, err
	}
	if found {
		return existing, false, nil
	}
	user, err := a.RegisterUser(ctx, input)
	if err != nil {
		return User{}, false, err
	}
	user.Master = true
	if err := a.store.UpdateUser(ctx, user); err != nil {
		return User{}, false, err
	}
	return user, true, nil
}

// SetUserStatus activates, blocks or disables a user.
func (a *Admin) SetUserStatus(ctx context.Context, id UserID, status UserStatus) (User, error) {
	user, err := a.user(ctx, id)
	if err != nil {
		return User{}, err
	}
	now := a.now().UTC()
	switch status {
	case UserStatusActive:
		user.Activate(now)
	case UserStatusBlocked:
		user.Block(now)
	case UserStatusDisabled:
		user.Disable(now)
	default:
		return User{}, fmt.Errorf("%w: unknown user status %q", ErrInvalidInput, status)
	}
	if err := a.store.UpdateUser(ctx, user); err != nil {
		return User{}, err
	}
	return user, nil
}

// SetMaster promotes or demotes target on behalf of actor. Only a master
// actor may change the flag; ErrForbidden otherwise.
func (a *Admin) SetMaster(ctx context.Context, actorID, targetID UserID, master bool) (User, error) {
	actor, err := a.user(ctx, actorID)
	if err != nil {
		return User{}, err
	}
	target := actor
	if targetID != actorID {
		if target, err = a.user(ctx, targetID); err != nil {
			return User{}, err
		}
	}
	now := a.now().UTC()
	if master {
		err = target.PromoteToMaster(actor, now)
	} else {
		err = target.DemoteFromMaster(actor, now)
	}
	if err != nil {
		return User{}, err
	}
	if err := a.store.UpdateUser(ctx, target); err != nil {
		return User{}, err
	}
	return target, nil
}

// RegisterSystem creates an active client system.
func (a *Admin) RegisterSystem(ctx context.Context, input NewClientSystemInput) (ClientSystem, error) {
	system, err := NewClientSystem(input, a.now().UTC())
	if err != nil {
		return ClientSystem{}, err
	}
	if err := a.store.CreateSystem(ctx, &system); err != nil {
		return ClientSystem{}, err
	}
	return system, nil
}

// DefineRole creates an active role owned by systemID.
func (a *Admin) DefineRole(ctx context.Context, systemID SystemID, code, description string) (SystemRole, error) {
	if _, err := a.system(ctx, systemID); err != nil {
		return SystemRole{}, err
	}
	role, err := NewSystemRole(systemID, code, description)
	if err != nil {
		return SystemRole{}, err
	}
	if err := a.store.CreateRole(ctx, &role); err != nil {
		return SystemRole{}, err
	}
	return role, nil
}

// BindUser makes userID known to systemID with an active binding.
func (a *Admin) BindUser(ctx context.Context, userID UserID, systemID SystemID) (UserSystem, error) {
	if _, err := a.user(ctx, userID); err != nil {
		return UserSystem{}, err
	}
	if _, err := a.system(ctx, systemID); err != nil {
		return UserSystem{}, err
	}
	binding := UserSystem{UserID: userID, SystemID: systemID, Status: BindingStatusActive}
	if err := a.store.CreateBinding(ctx, &binding); err != nil {
		return UserSystem{}, err
	}
	return binding, nil
}

// SetBindingStatus changes the status of the userID/systemID binding.
func (a *Admin) SetBindingStatus(ctx context.Context, userID UserID, systemID SystemID, status BindingStatus) (UserSystem, error) {
	if _, err := ParseBindingStatus(string(status)); err != nil {
		return UserSystem{}, err
	}
	binding, err := a.binding(ctx, userID, systemID)
	if err != nil {
		return UserSystem{}, err
	}
	if err := a.store.UpdateBindingStatus(ctx, binding.ID, status); err != nil {
		return UserSystem{}, err
	}
	binding.Status = status
	return binding, nil
}

// GrantRole attaches roleID to the userID/systemID binding. The role must
// belong to the same system.
func (a *Admin) GrantRole(ctx context.Context, userID UserID, systemID SystemID, roleID RoleID) (UserSystemRole, error) {
	binding, err := a.binding(ctx, userID, systemID)
	if err != nil {
		return UserSystemRole{}, err
	}
	role, found, err := a.store.FindRole(ctx, roleID)
	if err != nil {
		return UserSystemRole{}, err
	}
	if !found {
		return UserSystemRole{}, fmt.Errorf("%w: role %d", ErrNotFound, roleID)
	}
	if role.SystemID != systemID {
		return UserSystemRole{}, fmt.Errorf("%w: role %d does not belong to system %d", ErrInvalidInput, roleID, systemID)
	}
	grant := UserSystemRole{UserSystemID: binding.ID, SystemRoleID: role.ID, Status: BindingStatusActive}
	if err := a.store.CreateRoleBinding(ctx, &grant); err != nil {
		return UserSystemRole{}, err
	}
	return grant, nil
}

func (a *Admin) user(ctx context.Context, id UserID) (User, error) {
	if !id.Valid() {
		return User{}, fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	user, found, err := a.store.FindUser(ctx, id)
	if err != nil {
		return User{}, err
	}
	if !found {
		return User{}, fmt.Errorf("%w: user %d", ErrNotFound, id)
	}
	return user, nil
}

func (a *Admin) system(ctx context.Context, id SystemID) (ClientSystem, error) {
	if !id.Valid() {
		return ClientSystem{}, fmt.Errorf("%w: system id is required", ErrInvalidInput)
	}
	system, found, err := a.store.FindSystem(ctx, id)
	if err != nil {
		return ClientSystem{}, err
	}
	if !found {
		return ClientSystem{}, fmt.Errorf("%w: system %d", ErrNotFound, id)
	}
	return system, nil
}

func (a *Admin) binding(ctx context.Context, userID UserID, systemID SystemID) (UserSystem, error) {
	binding, found, err := a.store.FindBinding(ctx, userID, systemID)
	if err != nil {
		return UserSystem{}, err
	}
	if !found {
		return UserSystem{}, fmt.Errorf("%w: binding for user %d and system %d", ErrNotFound, userID, systemID)
	}
	return binding, nil
}
