package memory

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"golang.org/x/crypto/bcrypt"

	"gatehouse.dev/internal/auth"
)

func TestStoreBacksLoginFlow(t *testing.T) {
	ctx := context.Background()
	store := New()
	hasher, err := auth.NewPasswordHasher(auth.HashBcrypt, bcrypt.MinCost)
	if err != nil {
		t.Fatalf("NewPasswordHasher: %v", err)
	}
	admin, err := auth.NewAdmin(store, hasher)
	if err != nil {
		t.Fatalf("NewAdmin: %v", err)
	}

	user, err := admin.RegisterUser(ctx, auth.RegisterUserInput{Username: "mateus", Email: "mateus@email.com", Password: "secret"})
	if err != nil {
		t.Fatalf("RegisterUser: %v", err)
	}
	crm, err := admin.RegisterSystem(ctx, auth.NewClientSystemInput{ClientID: "crm", Name: "CRM", RedirectURI: "https://crm.example.com/cb"})
	if err != nil {
		t.Fatalf("RegisterSystem: %v", err)
	}
	role, err := admin.DefineRole(ctx, crm.ID, "ADMIN", "")
	if err != nil {
		t.Fatalf("DefineRole: %v", err)
	}
	if _, err := admin.BindUser(ctx, user.ID, crm.ID); err != nil {
		t.Fatalf("BindUser: %v", err)
	}
	if _, err := admin.GrantRole(ctx, user.ID, crm.ID, role.ID); err != nil {
		t.Fatalf("GrantRole: %v", err)
	}

	codec, err := auth.NewCodec(auth.WithHMACSecret([]byte("0123456789abcdef0123456789abcdef")))
	if err != nil {
		t.Fatalf("NewCodec: %v", err)
	}
	issued, err := auth.NewLoginService(store, store, hasher, codec).Login(ctx, auth.LoginRequest{Login: "mateus@email.com", Password: "secret", ClientID: "crm"})
	if err != nil {
		t.Fatalf("Login: %v", err)
	}
	if !issued.Payload.Roles().Has("ADMIN") {
		t.Fatalf("expected ADMIN role, got %v", issued.Payload.RoleCodes)
	}
}

func TestStoreConstraints(t *testing.T) {
	ctx := context.Background()
	store := New()
	now := time.Now().UTC()
	u := auth.User{Username: "mateus", Email: "mateus@email.com", Status: auth.UserStatusActive, CreatedAt: now}
	if err := store.CreateUser(ctx, &u); err != nil {
		t.Fatalf("CreateUser: %v", err)
	}
	dup := auth.User{Username: "other", Email: "mateus@email.com"}
	if err := store.CreateUser(ctx, &dup); !errors.Is(err, auth.ErrConflict) {
		t.Fatalf("expected conflict on email, got %v", err)
	}
	if err := store.UpdateUser(ctx, auth.User{ID: 404}); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	b := auth.UserSystem{UserID: u.ID, SystemID: 77, Status: auth.BindingStatusActive}
	if err := store.CreateBinding(ctx, &b); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected missing system, got %v", err)
	}
	if err := store.UpdateBindingStatus(ctx, 404, auth.BindingStatusBlocked); !errors.Is(err, auth.ErrNotFound) {
		t.Fatalf("expected missing binding, got %v", err)
	}
}

func TestStoreConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	store := New()
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			sys := auth.ClientSystem{ClientID: string(rune('a' + i)), Name: "sys", Status: auth.SystemStatusActive}
			_ = store.CreateSystem(ctx, &sys)
			_, _, _ = store.FindSystemByClientID(ctx, sys.ClientID)
		}(i)
	}
	wg.Wait()
	if len(store.systems) != 20 {
		t.Fatalf("expected 20 systems, got %d", len(store.systems))
	}
}
