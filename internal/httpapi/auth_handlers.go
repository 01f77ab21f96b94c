package httpapi

import (
	"errors"
	"net/http"
	"time"

	"gatehouse.dev/internal/audit"
	"gatehouse.dev/internal/auth"
	"gatehouse.dev/internal/obs"
)

type tokenRequest struct {
	Login    string `json:"login"`
	Password string `json:"password"`
	ClientID string `json:"client_id"`
}

type tokenResponse struct {
	AccessToken string    `json:"access_token"`
	TokenType   string    `json:"token_type"`
	ExpiresIn   int64     `json:"expires_in"`
	ExpiresAt   time.Time `json:"expires_at"`
	SessionID   string    `json:"session_id"`
}

type introspectRequest struct {
	Token string `json:"token"`
}

// claimsResponse mirrors the token wire claims.
type claimsResponse struct {
	Active       bool     `json:"active"`
	Issuer       string   `json:"iss,omitempty"`
	Subject      string   `json:"sub,omitempty"`
	Audience     string   `json:"aud,omitempty"`
	IssuedAt     int64    `json:"iat,omitempty"`
	ExpiresAt    int64    `json:"exp,omitempty"`
	TokenID      string   `json:"jti,omitempty"`
	UserID       int64    `json:"userId,omitempty"`
	Username     string   `json:"username,omitempty"`
	Email        string   `json:"email,omitempty"`
	Name         string   `json:"name,omitempty"`
	Master       bool     `json:"master,omitempty"`
	SystemID     int64    `json:"systemId,omitempty"`
	SystemRoles  []string `json:"systemRoles,omitempty"`
	AuthMethod   string   `json:"authMethod,omitempty"`
	SessionID    string   `json:"sessionId,omitempty"`
	TokenVersion int      `json:"tokenVersion,omitempty"`
}

func claimsFromPayload(p auth.TokenPayload) claimsResponse {
	return claimsResponse{
		Active:       true,
		Issuer:       p.Issuer,
		Subject:      p.Subject,
		Audience:     p.Audience,
		IssuedAt:     p.IssuedAt.Unix(),
		ExpiresAt:    p.ExpiresAt.Unix(),
		TokenID:      p.TokenID,
		UserID:       int64(p.UserID),
		Username:     p.Username,
		Email:        p.Email,
		Name:         p.DisplayName,
		Master:       p.Master,
		SystemID:     int64(p.SystemID),
		SystemRoles:  p.RoleCodes,
		AuthMethod:   p.AuthMethod,
		SessionID:    p.SessionID,
		TokenVersion: p.TokenVersion,
	}
}

func (a *API) handleAuthToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if a.logins == nil {
		writeError(w, r, http.StatusServiceUnavailable, "login service unavailable")
		return
	}

	var req tokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	if req.ClientID == "" {
		writeError(w, r, http.StatusBadRequest, "client_id is required")
		return
	}

	issued, err := a.logins.Login(r.Context(), auth.LoginRequest{
		Login:    req.Login,
		Password: req.Password,
		ClientID: req.ClientID,
	})
	if err != nil {
		switch {
		case errors.Is(err, auth.ErrAuthenticationFailed):
			_ = audit.LogEvent(r.Context(), audit.EventLoginRejected, map[string]any{"client_id": req.ClientID, "status": http.StatusUnauthorized})
			writeError(w, r, http.StatusUnauthorized, auth.ErrAuthenticationFailed.Error())
		case errors.Is(err, auth.ErrAccessDenied):
			_ = audit.LogEvent(r.Context(), audit.EventLoginRejected, map[string]any{"client_id": req.ClientID, "status": http.StatusForbidden})
			writeError(w, r, http.StatusForbidden, auth.ErrAccessDenied.Error())
		default:
			obs.Error("login failed", map[string]any{
				"error":      err.Error(),
				"request_id": RequestIDFromContext(r.Context()),
			})
			writeError(w, r, http.StatusInternalServerError, "authentication error")
		}
		return
	}

	p := issued.Payload
	_ = audit.LogEvent(r.Context(), audit.EventTokenIssued, map[string]any{
		"user_id":    int64(p.UserID),
		"system_id":  int64(p.SystemID),
		"session_id": p.SessionID,
		"roles":      p.RoleCodes,
		"master":     p.Master,
		"expires_at": p.ExpiresAt.Format(time.RFC3339),
	})
	writeJSON(w, http.StatusOK, tokenResponse{
		AccessToken: issued.Token,
		TokenType:   "Bearer",
		ExpiresIn:   int64(p.ExpiresAt.Sub(p.IssuedAt) / time.Second),
		ExpiresAt:   p.ExpiresAt,
		SessionID:   p.SessionID,
	})
}

// handleIntrospect reports whether a token is currently valid. Invalid tokens
// of every kind produce the same {"active": false} body.
func (a *API) handleIntrospect(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		methodNotAllowed(w, r, http.MethodPost)
		return
	}
	if a.codec == nil {
		writeError(w, r, http.StatusServiceUnavailable, "token verification unavailable")
		return
	}
	var req introspectRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, r, http.StatusBadRequest, err.Error())
		return
	}
	payload, ok := a.codec.Verify(req.Token)
	if !ok {
		writeJSON(w, http.StatusOK, claimsResponse{Active: false})
		return
	}
	writeJSON(w, http.StatusOK, claimsFromPayload(payload))
}

func (a *API) handleMe(w http.ResponseWriter, r *http.Request, payload auth.TokenPayload) {
	if r.Method != http.MethodGet {
		methodNotAllowed(w, r, http.MethodGet)
		return
	}
	writeJSON(w, http.StatusOK, claimsFromPayload(payload))
}
