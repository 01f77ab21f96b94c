package httpapi

import (
	"fmt"
	"net/http"
	"testing"

	"gatehouse.dev/internal/auth"
)

func TestAdminRequiresMasterToken(t *testing.T) {
	api := newTestAPI(t)
	body := map[string]any{"username": "newbie", "email": "newbie@email.com", "password": "pw"}

	expectStatus(t, api.post("/v1/admin/users", body, ""), http.StatusUnauthorized)

	userToken := api.obtainToken("mateus", "secret", "crm")
	got := expectStatus(t, api.post("/v1/admin/users", body, userToken), http.StatusForbidden)
	if got["error"] != "access denied" {
		t.Fatalf("unexpected body: %v", got)
	}
	if _, found, _ := api.store.FindUserByUsername(t.Context(), "newbie"); found {
		t.Fatalf("user must not be created by non-master")
	}
}

func TestAdminUserLifecycle(t *testing.T) {
	api := newTestAPI(t)
	master := api.obtainToken("root", "rootpass", "crm")

	created := expectStatus(t, api.post("/v1/admin/users", map[string]any{
		"username": "newbie", "email": "Newbie@Email.com", "password": "pw", "display_name": "New",
	}, master), http.StatusCreated)
	if created["email"] != "newbie@email.com" || created["master"] != false || created["password_hash"] != nil {
		t.Fatalf("unexpected created user: %v", created)
	}
	id := int64(created["id"].(float64))

	expectStatus(t, api.post("/v1/admin/users", map[string]any{
		"username": "newbie", "email": "other@email.com", "password": "pw",
	}, master), http.StatusConflict)
	expectStatus(t, api.post("/v1/admin/users", map[string]any{
		"username": "x", "email": "x@email.com", "password": "pw",
	}, master), http.StatusBadRequest)

	blocked := expectStatus(t, api.post(fmt.Sprintf("/v1/admin/users/%d/status", id), map[string]any{"status": "blocked"}, master), http.StatusOK)
	if blocked["status"] != string(auth.UserStatusBlocked) {
		t.Fatalf("unexpected status: %v", blocked)
	}
	expectStatus(t, api.post(fmt.Sprintf("/v1/admin/users/%d/status", id), map[string]any{"status": "gone"}, master), http.StatusBadRequest)
	expectStatus(t, api.post("/v1/admin/users/999/status", map[string]any{"status": "ACTIVE"}, master), http.StatusNotFound)
	expectStatus(t, api.post("/v1/admin/users/abc/status", map[string]any{"status": "ACTIVE"}, master), http.StatusBadRequest)

	promoted := expectStatus(t, api.post(fmt.Sprintf("/v1/admin/users/%d/master", id), map[string]any{"master": true}, master), http.StatusOK)
	if promoted["master"] != true {
		t.Fatalf("expected promotion: %v", promoted)
	}
	expectStatus(t, api.post(fmt.Sprintf("/v1/admin/users/%d/master", id), map[string]any{}, master), http.StatusBadRequest)
	expectStatus(t, api.post(fmt.Sprintf("/v1/admin/users/%d/unknown", id), map[string]any{}, master), http.StatusNotFound)
}

func TestAdminSystemProvisioning(t *testing.T) {
	api := newTestAPI(t)
	master := api.obtainToken("root", "rootpass", "crm")

	system := expectStatus(t, api.post("/v1/admin/systems", map[string]any{
		"client_id": "billing", "name": "Billing", "redirect_uri": "https://billing.example.com/cb",
	}, master), http.StatusCreated)
	sid := int64(system["id"].(float64))

	role := expectStatus(t, api.post(fmt.Sprintf("/v1/admin/systems/%d/roles", sid), map[string]any{"code": "CLERK"}, master), http.StatusCreated)
	rid := int64(role["id"].(float64))

	uid := int64(api.user.ID)
	expectStatus(t, api.post(fmt.Sprintf("/v1/admin/systems/%d/bindings", sid), map[string]any{"user_id": uid}, master), http.StatusCreated)
	expectStatus(t, api.post(fmt.Sprintf("/v1/admin/systems/%d/bindings", sid), map[string]any{"user_id": uid}, master), http.StatusConflict)
	expectStatus(t, api.post(fmt.Sprintf("/v1/admin/systems/%d/grants", sid), map[string]any{"user_id": uid, "role_id": rid}, master), http.StatusCreated)

	token := api.obtainToken("mateus", "secret", "billing")
	me := decode[claimsResponse](t, api.get("/v1/auth/me", token))
	if len(me.SystemRoles) != 1 || me.SystemRoles[0] != "CLERK" {
		t.Fatalf("unexpected roles: %+v", me)
	}

	expectStatus(t, api.post(fmt.Sprintf("/v1/admin/systems/%d/bindings/status", sid), map[string]any{"user_id": uid, "status": "BLOCKED"}, master), http.StatusOK)
	expectStatus(t, api.post("/v1/auth/token", map[string]any{"login": "mateus", "password": "secret", "client_id": "billing"}, ""), http.StatusForbidden)

	expectStatus(t, api.post("/v1/admin/systems", map[string]any{
		"client_id": "bad", "name": "Bad", "redirect_uri": "javascript:alert(1)",
	}, master), http.StatusBadRequest)
	expectStatus(t, api.post("/v1/admin/systems/999/roles", map[string]any{"code": "X"}, master), http.StatusNotFound)
}
