package auth

import (
	"fmt"
	"strconv"
	"strings"
)

// UserID identifies a user record.
type UserID int64

// SystemID identifies a client system.
type SystemID int64

// RoleID identifies a system role.
type RoleID int64

// UserSystemID identifies a user-to-system binding.
type UserSystemID int64

// UserSystemRoleID identifies a role granted through a user-to-system binding.
type UserSystemRoleID int64

type positiveID interface {
	~int64
}

func newPositiveID[T positiveID](raw int64, msg string) (T, error) {
	if raw <= 0 {
		return 0, fmt.Errorf("%w: %s", ErrInvalidInput, msg)
	}
	return T(raw), nil
}

func parsePositiveID[T positiveID](raw, msg string) (T, error) {
	v, err := strconv.ParseInt(strings.TrimSpace(raw), 10, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %s", ErrInvalidInput, msg)
	}
	return newPositiveID[T](v, msg)
}

func NewUserID(v int64) (UserID, error) {
	return newPositiveID[UserID](v, "user id must be a positive integer")
}

func NewSystemID(v int64) (SystemID, error) {
	return newPositiveID[SystemID](v, "system id must be a positive integer")
}

func NewRoleID(v int64) (RoleID, error) {
	return newPositiveID[RoleID](v, "role id must be a positive integer")
}

func NewUserSystemID(v int64) (UserSystemID, error) {
	return newPositiveID[UserSystemID](v, "user system id must be a positive integer")
}

func NewUserSystemRoleID(v int64) (UserSystemRoleID, error) {
	return newPositiveID[UserSystemRoleID](v, "user system role id must be a positive integer")
}

// ParseUserID parses the decimal form used in token subjects and URLs.
func ParseUserID(s string) (UserID, error) {
	return parsePositiveID[UserID](s, "user id must be a positive integer")
}

func ParseSystemID(s string) (SystemID, error) {
	return parsePositiveID[SystemID](s, "system id must be a positive integer")
}

func ParseRoleID(s string) (RoleID, error) {
	return parsePositiveID[RoleID](s, "role id must be a positive integer")
}

func (id UserID) Valid() bool   { return id > 0 }
func (id SystemID) Valid() bool { return id > 0 }
func (id RoleID) Valid() bool   { return id > 0 }

func (id UserID) String() string   { return strconv.FormatInt(int64(id), 10) }
func (id SystemID) String() string { return strconv.FormatInt(int64(id), 10) }
func (id RoleID) String() string   { return strconv.FormatInt(int64(id), 10) }
