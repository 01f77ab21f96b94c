package httpapi

import (
	"errors"
	"net/http"
	"strings"

	"gatehouse.dev/internal/auth"
)

const (
	authHeader = "Authorization"
	bearer     = "Bearer "
)

type tokenHandler func(w http.ResponseWriter, r *http.Request, payload auth.TokenPayload)

// requireToken verifies the bearer token and hands its payload to next.
func (a *API) requireToken(next tokenHandler) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if a.codec == nil {
			writeError(w, r, http.StatusServiceUnavailable, "token verification unavailable")
			return
		}
		token, err := extractBearerToken(r.Header.Get(authHeader))
		if err != nil {
			w.Header().Set("WWW-Authenticate", `Bearer realm="gatehouse"`)
			writeError(w, r, http.StatusUnauthorized, err.Error())
			return
		}
		payload, ok := a.codec.Verify(token)
		if !ok {
			w.Header().Set("WWW-Authenticate", `Bearer realm="gatehouse", error="invalid_token"`)
			writeError(w, r, http.StatusUnauthorized, "invalid token")
			return
		}
		ctx := auth.ContextWithPayload(r.Context(), payload)
		ctx = auth.ContextWithToken(ctx, token)
		next(w, r.WithContext(ctx), payload)
	}
}

// requireMaster admits only tokens whose holder is a master user.
func (a *API) requireMaster(next tokenHandler) http.HandlerFunc {
	return a.requireToken(func(w http.ResponseWriter, r *http.Request, payload auth.TokenPayload) {
		if !payload.Master {
			writeError(w, r, http.StatusForbidden, auth.ErrAccessDenied.Error())
			return
		}
		if a.admin == nil {
			writeError(w, r, http.StatusServiceUnavailable, "admin service unavailable")
			return
		}
		next(w, r, payload)
	})
}

func extractBearerToken(header string) (string, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return "", errors.New("missing bearer token")
	}
	if len(header) < len(bearer) || !strings.EqualFold(header[:len(bearer)], bearer) {
		return "", errors.New("invalid authorization scheme")
	}
	token := strings.TrimSpace(header[len(bearer):])
	if token == "" {
		return "", errors.New("missing bearer token")
	}
	return token, nil
}
