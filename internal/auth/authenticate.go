package auth

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"gatehouse.dev/internal/obs"
)

// Internal rejection reasons. They reach logs and metrics, never callers.
const (
	reasonIdentityNotResolved = "identity_not_resolved"
	reasonBlankPassword       = "blank_password"
	reasonPasswordMismatch    = "password_mismatch"
	reasonUserNotActive       = "user_not_active"
)

// unknownLoginPassword is hashed once to give unresolved logins a hash of the
// same cost as real accounts.
const unknownLoginPassword = "gatehouse-unknown-login"

// Authenticator verifies login credentials.
type Authenticator struct {
	resolver  *Resolver
	passwords PasswordVerifier

	dummyOnce sync.Once
	dummyHash string
}

func NewAuthenticator(resolver *Resolver, passwords PasswordVerifier) *Authenticator {
	return &Authenticator{resolver: resolver, passwords: passwords}
}

// Authenticate checks login and password. Every rejected attempt returns
// ErrAuthenticationFailed; only store failures produce a different error.
func (a *Authenticator) Authenticate(ctx context.Context, login, password string) (AuthenticatedIdentity, error) {
	user, err := a.authenticateUser(ctx, login, password)
	if err != nil {
		return AuthenticatedIdentity{}, err
	}
	return identityFromUser(user), nil
}

func (a *Authenticator) authenticateUser(ctx context.Context, login, password string) (User, error) {
	user, found, err := a.resolver.Resolve(ctx, login)
	if err != nil {
		obs.AuthenticationAttempt("store_error")
		return User{}, fmt.Errorf("resolve identity: %w", err)
	}
	if !found {
		a.passwords.Verify(password, a.unknownLoginHash())
		return User{}, reject(reasonIdentityNotResolved, 0)
	}
	if strings.TrimSpace(password) == "" {
		return User{}, reject(reasonBlankPassword, user.ID)
	}
	if !a.passwords.Verify(password, user.PasswordHash) {
		return User{}, reject(reasonPasswordMismatch, user.ID)
	}
	if !user.IsActive() {
		return User{}, reject(reasonUserNotActive, user.ID)
	}
	obs.AuthenticationAttempt("success")
	return user, nil
}

// unknownLoginHash returns a hash produced by the configured hasher when it can
// hash, otherwise a default-cost bcrypt hash.
func (a *Authenticator) unknownLoginHash() string {
	a.dummyOnce.Do(func() {
		if hasher, ok := a.passwords.(PasswordHashing); ok {
			if hash, err := hasher.Hash(unknownLoginPassword); err == nil {
				a.dummyHash = hash
				return
			}
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(unknownLoginPassword), bcrypt.DefaultCost)
		if err != nil {
			obs.Error("unknown login hash", map[string]any{"error": err.Error()})
			return
		}
		a.dummyHash = string(hash)
	})
	return a.dummyHash
}

func reject(reason string, userID UserID) error {
	fields := map[string]any{"reason": reason}
	if userID.Valid() {
		fields["user_id"] = int64(userID)
	}
	obs.Warn("authentication rejected", fields)
	obs.AuthenticationAttempt(reason)
	return ErrAuthenticationFailed
}
