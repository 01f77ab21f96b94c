package httpapi

import (
	"context"
	"encoding/json"
	"net/http"
	"time"

	"gatehouse.dev/internal/auth"
	"gatehouse.dev/internal/obs"
)

const serviceName = "gatehouse"

// Pinger reports backend availability.
type Pinger interface {
	Ping(ctx context.Context) error
}

// ReadyProbe checks the store before the service reports ready.
type ReadyProbe struct {
	Store Pinger
}

func (rp ReadyProbe) Check(ctx context.Context) error {
	if rp.Store == nil {
		return nil
	}
	return rp.Store.Ping(ctx)
}

// Options wires the engines exposed over HTTP.
type Options struct {
	Version string
	Logins  *auth.LoginService
	Codec   *auth.Codec
	Admin   *auth.Admin

	RateBurst     int
	RatePerSecond float64
	MaxBodyBytes  int64
}

// API is the HTTP surface.
type API struct {
	mux        *http.ServeMux
	readyProbe ReadyProbe
	version    string

	logins *auth.LoginService
	codec  *auth.Codec
	admin  *auth.Admin

	rateBurst  int
	ratePerSec float64
	maxBody    int64
}

func New(rp ReadyProbe, opts Options) *API {
	a := &API{
		mux:        http.NewServeMux(),
		readyProbe: rp,
		version:    opts.Version,
		logins:     opts.Logins,
		codec:      opts.Codec,
		admin:      opts.Admin,
		rateBurst:  opts.RateBurst,
		ratePerSec: opts.RatePerSecond,
		maxBody:    opts.MaxBodyBytes,
	}
	if a.rateBurst <= 0 {
		a.rateBurst = 10
	}
	if a.ratePerSec <= 0 {
		a.ratePerSec = 5
	}
	if a.maxBody <= 0 {
		a.maxBody = 1 << 20
	}

	a.mux.HandleFunc("/healthz", a.Healthz)
	a.mux.HandleFunc("/readyz", a.Ready)
	a.mux.HandleFunc("/v1/info", a.Info)
	a.mux.Handle("/metrics", obs.Handler())

	a.mux.Handle("/v1/auth/token", RateLimit(http.HandlerFunc(a.handleAuthToken), a.rateBurst, a.ratePerSec))
	a.mux.HandleFunc("/v1/auth/introspect", a.handleIntrospect)
	a.mux.HandleFunc("/v1/auth/me", a.requireToken(a.handleMe))

	a.mux.HandleFunc("/v1/admin/users", a.requireMaster(a.handleAdminUsers))
	a.mux.HandleFunc("/v1/admin/users/", a.requireMaster(a.handleAdminUserResource))
	a.mux.HandleFunc("/v1/admin/systems", a.requireMaster(a.handleAdminSystems))
	a.mux.HandleFunc("/v1/admin/systems/", a.requireMaster(a.handleAdminSystemResource))

	a.mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		writeError(w, r, http.StatusNotFound, "resource not found")
	})

	return a
}

// Handler returns the routed API wrapped in the standard middleware chain.
func (a *API) Handler() http.Handler {
	var h http.Handler = obs.Instrument(a.mux)
	h = MaxBodyBytes(h, a.maxBody)
	h = SecurityHeaders(h)
	h = LoggingJSON(h)
	return RequestID(h)
}

func (a *API) Healthz(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"service": serviceName,
		"version": a.version,
	})
}

func (a *API) Ready(w http.ResponseWriter, r *http.Request) {
	if err := a.readyProbe.Check(r.Context()); err != nil {
		obs.Warn("readiness check failed", map[string]any{"error": err.Error()})
		writeJSON(w, http.StatusServiceUnavailable, map[string]any{
			"status": "not_ready",
		})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"status": "ready",
	})
}

func (a *API) Info(w http.ResponseWriter, r *http.Request) {
	info := map[string]any{
		"name":    serviceName,
		"time":    time.Now().UTC().Format(time.RFC3339),
		"version": a.version,
	}
	if a.codec != nil {
		info["token_version"] = a.codec.TokenVersion()
	}
	writeJSON(w, http.StatusOK, info)
}

// --- helpers ---

func writeJSON(w http.ResponseWriter, code int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(v)
}
