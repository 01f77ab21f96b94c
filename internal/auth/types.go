package auth

import (
	"fmt"
	"net/url"
	"strings"
	"time"
)

// UserStatus is the lifecycle state of a user account.
type UserStatus string

const (
	UserStatusActive   UserStatus = "ACTIVE"
	UserStatusBlocked  UserStatus = "BLOCKED"
	UserStatusDisabled UserStatus = "DISABLED"
)

// SystemStatus is the lifecycle state of a client system.
type SystemStatus string

const (
	SystemStatusActive   SystemStatus = "ACTIVE"
	SystemStatusInactive SystemStatus = "INACTIVE"
)

// RoleStatus is the lifecycle state of a system role.
type RoleStatus string

const (
	RoleStatusActive   RoleStatus = "ACTIVE"
	RoleStatusInactive RoleStatus = "INACTIVE"
)

// BindingStatus is shared by user-system and user-system-role bindings.
type BindingStatus string

const (
	BindingStatusActive   BindingStatus = "ACTIVE"
	BindingStatusInactive BindingStatus = "INACTIVE"
	BindingStatusBlocked  BindingStatus = "BLOCKED"
)

func ParseUserStatus(s string) (UserStatus, error) {
	switch st := UserStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case UserStatusActive, UserStatusBlocked, UserStatusDisabled:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown user status %q", ErrInvalidInput, s)
}

func ParseSystemStatus(s string) (SystemStatus, error) {
	switch st := SystemStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case SystemStatusActive, SystemStatusInactive:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown system status %q", ErrInvalidInput, s)
}

func ParseRoleStatus(s string) (RoleStatus, error) {
	switch st := RoleStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case RoleStatusActive, RoleStatusInactive:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown role status %q", ErrInvalidInput, s)
}

func ParseBindingStatus(s string) (BindingStatus, error) {
	switch st := BindingStatus(strings.ToUpper(strings.TrimSpace(s))); st {
	case BindingStatusActive, BindingStatusInactive, BindingStatusBlocked:
		return st, nil
	}
	return "", fmt.Errorf("%w: unknown binding status %q", ErrInvalidInput, s)
}

// User is an identity shared by every client system.
type User struct {
	ID           UserID     `json:"id"`
	Username     Username   `json:"username"`
	Email        Email      `json:"email"`
	PasswordHash string     `json:"-"`
	Status       UserStatus `json:"status"`
	Master       bool       `json:"master"`
	DisplayName  string     `json:"display_name"`
	CreatedAt    time.Time  `json:"created_at"`
	UpdatedAt    time.Time  `json:"updated_at"`
}

// IsActive reports whether the account may authenticate.
func (u User) IsActive() bool { return u.Status == UserStatusActive }

func (u *User) Activate(now time.Time) { u.setStatus(UserStatusActive, now) }
func (u *User) Block(now time.Time)    { u.setStatus(UserStatusBlocked, now) }
func (u *User) Disable(now time.Time)  { u.setStatus(UserStatusDisabled, now) }

func (u *User) setStatus(status UserStatus, now time.Time) {
	u.Status = status
	u.UpdatedAt = now
}

// PromoteToMaster grants the master flag when actor is allowed to do so.
func (u *User) PromoteToMaster(actor User, now time.Time) error {
	if !CanPromoteToMaster(actor) {
		return fmt.Errorf("%w: only master users may promote", ErrForbidden)
	}
	u.Master = true
	u.UpdatedAt = now
	return nil
}

// DemoteFromMaster clears the master flag when actor is allowed to do so.
func (u *User) DemoteFromMaster(actor User, now time.Time) error {
	if !CanDemoteFromMaster(actor) {
		return fmt.Errorf("%w: only master users may demote", ErrForbidden)
	}
	u.Master = false
	u.UpdatedAt = now
	return nil
}

// ClientSystem is a tenant application relying on gatehouse for its users.
type ClientSystem struct {
	ID          SystemID     `json:"id"`
	ClientID    string       `json:"client_id"`
	Name        string       `json:"name"`
	RedirectURI string       `json:"redirect_uri"`
	Status      SystemStatus `json:"status"`
	CreatedAt   time.Time    `json:"created_at"`
}

func (s ClientSystem) IsActive() bool { return s.Status == SystemStatusActive }

// SystemRole is a role code owned by exactly one system.
type SystemRole struct {
	ID          RoleID     `json:"id"`
	SystemID    SystemID   `json:"system_id"`
	Code        string     `json:"code"`
	Description string     `json:"description,omitempty"`
	Status      RoleStatus `json:"status"`
}

func (r SystemRole) IsActive() bool { return r.Status == RoleStatusActive }

// UserSystem records that a user is known to a system.
type UserSystem struct {
	ID       UserSystemID  `json:"id"`
	UserID   UserID        `json:"user_id"`
	SystemID SystemID      `json:"system_id"`
	Status   BindingStatus `json:"status"`
}

func (b UserSystem) IsActive() bool { return b.Status == BindingStatusActive }

// UserSystemRole records that a user-system pairing carries a role.
type UserSystemRole struct {
	ID           UserSystemRoleID `json:"id"`
	UserSystemID UserSystemID     `json:"user_system_id"`
	SystemRoleID RoleID           `json:"system_role_id"`
	Status       BindingStatus    `json:"status"`
}

func (b UserSystemRole) IsActive() bool { return b.Status == BindingStatusActive }

// AuthenticatedIdentity is the outcome of a successful credential check.
type AuthenticatedIdentity struct {
	UserID      UserID
	Username    string
	Email       string
	DisplayName string
	Master      bool
}

func identityFromUser(u User) AuthenticatedIdentity {
	return AuthenticatedIdentity{
		UserID:      u.ID,
		Username:    u.Username.String(),
		Email:       u.Email.String(),
		DisplayName: u.DisplayName,
		Master:      u.Master,
	}
}

// NewUserInput carries the fields required to create a user.
type NewUserInput struct {
	Username    string
	Email       string
	DisplayName string
}

// NewUser validates input and returns an active, non-master user. The
// password hash is set by the caller.
func NewUser(input NewUserInput, now time.Time) (User, error) {
	username, err := ParseUsername(input.Username)
	if err != nil {
		return User{}, err
	}
	email, err := ParseEmail(input.Email)
	if err != nil {
		return User{}, err
	}
	display := strings.TrimSpace(input.DisplayName)
	if display == "" {
		display = username.String()
	}
	return User{
		Username:    username,
		Email:       email,
		DisplayName: display,
		Status:      UserStatusActive,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

// NewClientSystemInput carries the fields required to register a system.
type NewClientSystemInput struct {
	ClientID    string
	Name        string
	RedirectURI string
}

// NewClientSystem validates input and returns an active system.
func NewClientSystem(input NewClientSystemInput, now time.Time) (ClientSystem, error) {
	clientID := strings.TrimSpace(input.ClientID)
	if clientID == "" {
		return ClientSystem{}, fmt.Errorf("%w: client_id is required", ErrInvalidInput)
	}
	name := strings.TrimSpace(input.Name)
	if name == "" {
		return ClientSystem{}, fmt.Errorf("%w: system name is required", ErrInvalidInput)
	}
	redirect := strings.TrimSpace(input.RedirectURI)
	if err := validateRedirectURI(redirect); err != nil {
		return ClientSystem{}, err
	}
	return ClientSystem{
		ClientID:    clientID,
		Name:        name,
		RedirectURI: redirect,
		Status:      SystemStatusActive,
		CreatedAt:   now,
	}, nil
}

func validateRedirectURI(raw string) error {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return fmt.Errorf("%w: redirect_uri must be an absolute URL", ErrInvalidInput)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("%w: redirect_uri must use http or https", ErrInvalidInput)
	}
	return nil
}

// NewSystemRole validates a role definition for systemID.
func NewSystemRole(systemID SystemID, code, description string) (SystemRole, error) {
	if !systemID.Valid() {
		return SystemRole{}, fmt.Errorf("%w: system id is required", ErrInvalidInput)
	}
	code = strings.TrimSpace(code)
	if code == "" {
		return SystemRole{}, fmt.Errorf("%w: role code is required", ErrInvalidInput)
	}
	return SystemRole{
		SystemID:    systemID,
		Code:        code,
		Description: strings.TrimSpace(description),
		Status:      RoleStatusActive,
	}, nil
}
