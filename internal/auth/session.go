package auth

import (
	"context"
	"fmt"
	"strings"

	"gatehouse.dev/internal/ids"
	"gatehouse.dev/internal/obs"
)

// LoginRequest is a password login against one client system.
type LoginRequest struct {
	Login    string
	Password string
	ClientID string
}

// IssuedToken is a signed token together with the payload it carries.
type IssuedToken struct {
	Token   string
	Payload TokenPayload
}

// LoginService runs the full login: credentials, system access, role
// resolution and token issuance.
type LoginService struct {
	authn        *Authenticator
	authz        *Authorizer
	store        CredentialStore
	systems      SystemStore
	codec        *Codec
	newSessionID func() string
}

// NewLoginService wires the engines around store and codec.
func NewLoginService(store CredentialStore, systems SystemStore, passwords PasswordVerifier, codec *Codec) *LoginService {
	return &LoginService{
		authn:        NewAuthenticator(NewResolver(store), passwords),
		authz:        NewAuthorizer(store),
		store:        store,
		systems:      systems,
		codec:        codec,
		newSessionID: ids.New,
	}
}

// Login authenticates req and issues a token for the requested system.
// Credential failures return ErrAuthenticationFailed; every access failure,
// including an unknown client id, returns ErrAccessDenied.
func (s *LoginService) Login(ctx context.Context, req LoginRequest) (IssuedToken, error) {
	user, err := s.authn.authenticateUser(ctx, req.Login, req.Password)
	if err != nil {
		return IssuedToken{}, err
	}

	clientID := strings.TrimSpace(req.ClientID)
	system, found, err := s.systems.FindSystemByClientID(ctx, clientID)
	if err != nil {
		return IssuedToken{}, fmt.Errorf("find system: %w", err)
	}
	if !found {
		obs.Warn("login denied", map[string]any{"reason": "unknown_client", "user_id": int64(user.ID), "client_id": clientID})
		return IssuedToken{}, ErrAccessDenied
	}

	var binding *UserSystem
	if RequiresSystemBinding(user) {
		b, found, err := s.store.FindBinding(ctx, user.ID, system.ID)
		if err != nil {
			return IssuedToken{}, fmt.Errorf("find binding: %w", err)
		}
		if found {
			binding = &b
		}
	}
	if err := ValidateAccess(user, system, binding); err != nil {
		obs.Warn("login denied", map[string]any{"reason": err.Error(), "user_id": int64(user.ID), "system_id": int64(system.ID)})
		return IssuedToken{}, ErrAccessDenied
	}

	roles, err := s.authz.Authorize(ctx, user.ID, system.ID, IsMaster(user))
	if err != nil {
		return IssuedToken{}, err
	}

	token, payload, err := s.codec.Issue(IssueRequest{
		Identity:   identityFromUser(user),
		Decision:   AuthorizationDecision{SystemID: system.ID, Roles: roles},
		AuthMethod: AuthMethodPassword,
		SessionID:  s.newSessionID(),
	})
	if err != nil {
		return IssuedToken{}, err
	}
	return IssuedToken{Token: token, Payload: payload}, nil
}
