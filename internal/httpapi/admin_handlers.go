package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"gatehouse.dev/internal/audit"
	"gatehouse.dev/internal/auth"
)

type createUserRequest struct {
	Username    string `json:"username"`
	Email       string `json:"email"`
	Password    string `json:"password"`
	DisplayName string `json:"display_name"`
}

type userStatusRequest struct {
	Status string `json:"status"`
}

type userMasterRequest struct {
	Master *bool `json:"master"`
}

type createSystemRequest struct {
	ClientID    string `json:"client_id"`
	Name        string `json:"name"`
	RedirectURI string `json:"redirect_uri"`
}

type createRoleRequest struct {
	Code        string `json:"code"`
	Description string `json:"description"`
}

type bindUserRequest struct {
	UserID int64 `json:"user_id"`
}

type bindingStatusRequest struct {
	UserID int64  `json:"user_id"`
	Status string `json:"status"`
}

type grantRoleRequest struct {
	UserID int64 `json:"user_id"`
	RoleID int64 `json:"role_id"`
}

func (a *API) handleAdminUsers(w http.ResponseWriter, r *http.Request, _ auth.TokenPayload) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req createUserRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	user, err := a.admin.RegisterUser(r.Context(), auth.RegisterUserInput{
		Username:    req.Username,
		Email:       req.Email,
		Password:    req.Password,
		DisplayName: req.DisplayName,
	})
	if err != nil {
		handleAdminError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), audit.EventUserRegistered, map[string]any{
		"user_id":  int64(user.ID),
		"username": user.Username.String(),
	})
	w.Header().Set("Location", fmt.Sprintf("/v1/admin/users/%d", user.ID))
	writeJSON(w, http.StatusCreated, user)
}

// handleAdminUserResource serves /v1/admin/users/{id}/{status|master}.
func (a *API) handleAdminUserResource(w http.ResponseWriter, r *http.Request, payload auth.TokenPayload) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/admin/users/"), "/"), "/")
	if len(parts) != 2 {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	rawID, err := parseID(parts[0])
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	userID := auth.UserID(rawID)
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}

	switch parts[1] {
	case "status":
		var req userStatusRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		status, err := auth.ParseUserStatus(req.Status)
		if err != nil {
			handleAdminError(w, r, err)
			return
		}
		user, err := a.admin.SetUserStatus(r.Context(), userID, status)
		if err != nil {
			handleAdminError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), audit.EventUserStatus, map[string]any{
			"user_id": int64(user.ID),
			"status":  string(user.Status),
		})
		writeJSON(w, http.StatusOK, user)
	case "master":
		var req userMasterRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		if req.Master == nil {
			writeError(w, r, http.StatusBadRequest, "master is required")
			return
		}
		user, err := a.admin.SetMaster(r.Context(), payload.UserID, userID, *req.Master)
		if err != nil {
			handleAdminError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), audit.EventMasterChanged, map[string]any{
			"user_id": int64(user.ID),
			"master":  user.Master,
		})
		writeJSON(w, http.StatusOK, user)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}

func (a *API) handleAdminSystems(w http.ResponseWriter, r *http.Request, _ auth.TokenPayload) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	var req createSystemRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	system, err := a.admin.RegisterSystem(r.Context(), auth.NewClientSystemInput{
		ClientID:    req.ClientID,
		Name:        req.Name,
		RedirectURI: req.RedirectURI,
	})
	if err != nil {
		handleAdminError(w, r, err)
		return
	}
	_ = audit.LogEvent(r.Context(), audit.EventSystemCreated, map[string]any{
		"system_id": int64(system.ID),
		"client_id": system.ClientID,
	})
	w.Header().Set("Location", fmt.Sprintf("/v1/admin/systems/%d", system.ID))
	writeJSON(w, http.StatusCreated, system)
}

// handleAdminSystemResource serves /v1/admin/systems/{id}/{roles|bindings|grants}
// and /v1/admin/systems/{id}/bindings/status.
func (a *API) handleAdminSystemResource(w http.ResponseWriter, r *http.Request, _ auth.TokenPayload) {
	parts := strings.Split(strings.Trim(strings.TrimPrefix(r.URL.Path, "/v1/admin/systems/"), "/"), "/")
	if len(parts) < 2 || len(parts) > 3 {
		writeError(w, r, http.StatusNotFound, "resource not found")
		return
	}
	rawID, err := parseID(parts[0])
	if err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	systemID := auth.SystemID(rawID)
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	action := strings.Join(parts[1:], "/")

	switch action {
	case "roles":
		var req createRoleRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		role, err := a.admin.DefineRole(r.Context(), systemID, req.Code, req.Description)
		if err != nil {
			handleAdminError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), audit.EventRoleDefined, map[string]any{
			"system_id": int64(systemID),
			"role_id":   int64(role.ID),
			"code":      role.Code,
		})
		writeJSON(w, http.StatusCreated, role)
	case "bindings":
		var req bindUserRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		binding, err := a.admin.BindUser(r.Context(), auth.UserID(req.UserID), systemID)
		if err != nil {
			handleAdminError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), audit.EventUserBound, map[string]any{
			"system_id":  int64(systemID),
			"user_id":    req.UserID,
			"binding_id": int64(binding.ID),
		})
		writeJSON(w, http.StatusCreated, binding)
	case "bindings/status":
		var req bindingStatusRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		status, err := auth.ParseBindingStatus(req.Status)
		if err != nil {
			handleAdminError(w, r, err)
			return
		}
		binding, err := a.admin.SetBindingStatus(r.Context(), auth.UserID(req.UserID), systemID, status)
		if err != nil {
			handleAdminError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), audit.EventBindingStatus, map[string]any{
			"system_id": int64(systemID),
			"user_id":   req.UserID,
			"status":    string(binding.Status),
		})
		writeJSON(w, http.StatusOK, binding)
	case "grants":
		var req grantRoleRequest
		if err := decodeJSON(w, r, &req); err != nil {
			writeError(w, r, http.StatusBadRequest, err.Error())
			return
		}
		grant, err := a.admin.GrantRole(r.Context(), auth.UserID(req.UserID), systemID, auth.RoleID(req.RoleID))
		if err != nil {
			handleAdminError(w, r, err)
			return
		}
		_ = audit.LogEvent(r.Context(), audit.EventRoleGranted, map[string]any{
			"system_id": int64(systemID),
			"user_id":   req.UserID,
			"role_id":   req.RoleID,
		})
		writeJSON(w, http.StatusCreated, grant)
	default:
		writeError(w, r, http.StatusNotFound, "resource not found")
	}
}
