package auth

import "context"

// Resolver maps a login string to a user. A login is tried as a username
// first and as an email second.
type Resolver struct {
	store CredentialStore
}

func NewResolver(store CredentialStore) *Resolver {
	return &Resolver{store: store}
}

// Resolve returns the user identified by login. A malformed login, an unknown
// username and an unknown email all yield found == false with no error.
func (r *Resolver) Resolve(ctx context.Context, login string) (User, bool, error) {
	if username, err := ParseUsername(login); err == nil {
		return r.store.FindUserByUsername(ctx, username)
	}
	if email, err := ParseEmail(login); err == nil {
		return r.store.FindUserByEmail(ctx, email)
	}
	return User{}, false, nil
}
