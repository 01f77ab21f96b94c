package auth

import (
	"context"
	"errors"
	"testing"
	"time"
)

func newTestAdmin(t *testing.T, store *fakeStore) *Admin {
	t.Helper()
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	admin, err := NewAdmin(store, mustHasher(t), WithAdminClock(func() time.Time { return now }))
	if err != nil {
		t.Fatalf("NewAdmin: %v", err)
	}
	return admin
}

func TestRegisterUser(t *testing.T) {
	store := newFakeStore()
	admin := newTestAdmin(t, store)
	ctx := context.Background()

	user, err := admin.RegisterUser(ctx, RegisterUserInput{
		Username: "mateus",
		Email:    " Mateus@Email.com ",
		Password: "secret",
	})
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	if !user.ID.Valid() || user.Master || user.Status != UserStatusActive {
		t.Fatalf("unexpected user: %+v", user)
	}
	if user.Email != "mateus@email.com" || user.DisplayName != "mateus" {
		t.Fatalf("unexpected normalization: %+v", user)
	}
	if user.PasswordHash == "secret" || !mustHasher(t).Verify("secret", user.PasswordHash) {
		t.Fatalf("password was not hashed")
	}

	if _, err := admin.RegisterUser(ctx, RegisterUserInput{Username: "mateus", Email: "other@email.com", Password: "x"}); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected conflict, got %v", err)
	}
	if _, err := admin.RegisterUser(ctx, RegisterUserInput{Username: "ab", Email: "ab@email.com", Password: "x"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid username, got %v", err)
	}
	if _, err := admin.RegisterUser(ctx, RegisterUserInput{Username: "other", Email: "other@email.com", Password: " "}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid password, got %v", err)
	}
}

func TestBootstrapMasterIsIdempotent(t *testing.T) {
	store := newFakeStore()
	admin := newTestAdmin(t, store)
	input := RegisterUserInput{Username: "root", Email: "root@example.com", Password: "secret"}

	user, created, err := admin.BootstrapMaster(context.Background(), input)
	if err != nil || !created || !user.Master {
		t.Fatalf("first bootstrap: user=%+v created=%v err=%v", user, created, err)
	}
	again, created, err := admin.BootstrapMaster(context.Background(), input)
	if err != nil || created || again.ID != user.ID {
		t.Fatalf("second bootstrap: user=%+v created=%v err=%v", again, created, err)
	}
}

func TestSetUserStatus(t *testing.T) {
	store := newFakeStore()
	admin := newTestAdmin(t, store)
	user := store.seedUser(t, "mateus", "mateus@email.com", "secret", UserStatusActive, false)

	for _, status := range []UserStatus{UserStatusBlocked, UserStatusDisabled, UserStatusActive} {
		got, err := admin.SetUserStatus(context.Background(), user.ID, status)
		if err != nil {
			t.Fatalf("SetUserStatus(%s): %v", status, err)
		}
		if got.Status != status || store.users[user.ID].Status != status {
			t.Fatalf("status not persisted: %s", status)
		}
	}
	if _, err := admin.SetUserStatus(context.Background(), user.ID, "GONE"); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected invalid status error, got %v", err)
	}
	if _, err := admin.SetUserStatus(context.Background(), 999, UserStatusActive); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestSetMasterRequiresMasterActor(t *testing.T) {
	store := newFakeStore()
	admin := newTestAdmin(t, store)
	root := store.seedUser(t, "root", "root@example.com", "secret", UserStatusActive, true)
	plain := store.seedUser(t, "plain", "plain@example.com", "secret", UserStatusActive, false)
	other := store.seedUser(t, "other", "other@example.com", "secret", UserStatusActive, false)

	if _, err := admin.SetMaster(context.Background(), plain.ID, other.ID, true); !errors.Is(err, ErrForbidden) {
		t.Fatalf("expected forbidden, got %v", err)
	}
	if store.users[other.ID].Master {
		t.Fatalf("target must stay non-master")
	}

	promoted, err := admin.SetMaster(context.Background(), root.ID, other.ID, true)
	if err != nil || !promoted.Master || !store.users[other.ID].Master {
		t.Fatalf("promote: %+v %v", promoted, err)
	}
	demoted, err := admin.SetMaster(context.Background(), root.ID, other.ID, false)
	if err != nil || demoted.Master {
		t.Fatalf("demote: %+v %v", demoted, err)
	}
}

func TestSystemRoleAndBindingLifecycle(t *testing.T) {
	store := newFakeStore()
	admin := newTestAdmin(t, store)
	ctx := context.Background()
	user := store.seedUser(t, "mateus", "mateus@email.com", "secret", UserStatusActive, false)

	if _, err := admin.RegisterSystem(ctx, NewClientSystemInput{ClientID: "crm", Name: "CRM", RedirectURI: "ftp://crm"}); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected redirect validation error, got %v", err)
	}
	crm, err := admin.RegisterSystem(ctx, NewClientSystemInput{ClientID: "crm", Name: "CRM", RedirectURI: "https://crm.example.com/cb"})
	if err != nil {
		t.Fatalf("RegisterSystem: %v", err)
	}
	erp, err := admin.RegisterSystem(ctx, NewClientSystemInput{ClientID: "erp", Name: "ERP", RedirectURI: "https://erp.example.com/cb"})
	if err != nil {
		t.Fatalf("RegisterSystem: %v", err)
	}
	role, err := admin.DefineRole(ctx, crm.ID, "ADMIN", "full crm access")
	if err != nil {
		t.Fatalf("DefineRole: %v", err)
	}
	foreign, err := admin.DefineRole(ctx, erp.ID, "CLERK", "")
	if err != nil {
		t.Fatalf("DefineRole: %v", err)
	}

	if _, err := admin.GrantRole(ctx, user.ID, crm.ID, role.ID); !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected missing binding, got %v", err)
	}
	if _, err := admin.BindUser(ctx, user.ID, crm.ID); err != nil {
		t.Fatalf("BindUser: %v", err)
	}
	if _, err := admin.BindUser(ctx, user.ID, crm.ID); !errors.Is(err, ErrConflict) {
		t.Fatalf("expected duplicate binding conflict, got %v", err)
	}
	if _, err := admin.GrantRole(ctx, user.ID, crm.ID, foreign.ID); !errors.Is(err, ErrInvalidInput) {
		t.Fatalf("expected cross-system grant rejection, got %v", err)
	}
	if _, err := admin.GrantRole(ctx, user.ID, crm.ID, role.ID); err != nil {
		t.Fatalf("GrantRole: %v", err)
	}

	roles, err := NewAuthorizer(store).Authorize(ctx, user.ID, crm.ID, false)
	if err != nil || !roles.Has("ADMIN") {
		t.Fatalf("Authorize after grant: %v %v", roles, err)
	}

	if _, err := admin.SetBindingStatus(ctx, user.ID, crm.ID, BindingStatusBlocked); err != nil {
		t.Fatalf("SetBindingStatus: %v", err)
	}
	if _, err := NewAuthorizer(store).Authorize(ctx, user.ID, crm.ID, false); err != ErrAccessDenied {
		t.Fatalf("expected denial after blocking binding, got %v", err)
	}
}
