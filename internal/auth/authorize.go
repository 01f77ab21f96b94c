package auth

import (
	"context"
	"fmt"
	"sort"

	"gatehouse.dev/internal/obs"
)

// MasterRole is the only role code granted to master users.
const MasterRole = "MASTER"

// RoleSet is an unordered set of role codes.
type RoleSet map[string]struct{}

func NewRoleSet(codes ...string) RoleSet {
	set := make(RoleSet, len(codes))
	for _, c := range codes {
		set[c] = struct{}{}
	}
	return set
}

func (s RoleSet) Has(code string) bool {
	_, ok := s[code]
	return ok
}

// Codes returns the codes sorted, for stable encoding.
func (s RoleSet) Codes() []string {
	out := make([]string, 0, len(s))
	for c := range s {
		out = append(out, c)
	}
	sort.Strings(out)
	return out
}

// AuthorizationDecision is the role set granted to a user within one system.
type AuthorizationDecision struct {
	SystemID SystemID
	Roles    RoleSet
}

// Authorizer resolves role codes through the user, system and role bindings.
type Authorizer struct {
	store CredentialStore
}

func NewAuthorizer(store CredentialStore) *Authorizer {
	return &Authorizer{store: store}
}

// Authorize returns the active role codes userID holds in systemID. Master
// users receive {MASTER} without touching the store. Any broken link in the
// binding chain yields ErrAccessDenied.
func (a *Authorizer) Authorize(ctx context.Context, userID UserID, systemID SystemID, master bool) (RoleSet, error) {
	if master {
		obs.AuthorizationDecision("master")
		return NewRoleSet(MasterRole), nil
	}

	binding, found, err := a.store.FindBinding(ctx, userID, systemID)
	if err != nil {
		return nil, fmt.Errorf("find binding: %w", err)
	}
	if !found {
		return nil, deny("binding_missing", userID, systemID)
	}
	if !binding.IsActive() {
		return nil, deny("binding_not_active", userID, systemID)
	}

	roleBindings, err := a.store.FindRoleBindings(ctx, binding.ID)
	if err != nil {
		return nil, fmt.Errorf("find role bindings: %w", err)
	}
	roleIDs := make(map[RoleID]struct{}, len(roleBindings))
	for _, rb := range roleBindings {
		if rb.IsActive() {
			roleIDs[rb.SystemRoleID] = struct{}{}
		}
	}
	if len(roleIDs) == 0 {
		return nil, deny("no_active_role_bindings", userID, systemID)
	}

	wanted := make([]RoleID, 0, len(roleIDs))
	for id := range roleIDs {
		wanted = append(wanted, id)
	}
	sort.Slice(wanted, func(i, j int) bool { return wanted[i] < wanted[j] })
	roles, err := a.store.FindRoles(ctx, wanted)
	if err != nil {
		return nil, fmt.Errorf("find roles: %w", err)
	}
	codes := make(RoleSet, len(roles))
	for _, role := range roles {
		if _, requested := roleIDs[role.ID]; !requested {
			continue
		}
		if role.IsActive() {
			codes[role.Code] = struct{}{}
		}
	}
	if len(codes) == 0 {
		return nil, deny("no_active_roles", userID, systemID)
	}
	obs.AuthorizationDecision("granted")
	return codes, nil
}

func deny(reason string, userID UserID, systemID SystemID) error {
	obs.Warn("authorization denied", map[string]any{
		"reason":    reason,
		"user_id":   int64(userID),
		"system_id": int64(systemID),
	})
	obs.AuthorizationDecision(reason)
	return ErrAccessDenied
}
