package audit

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"time"

	"gatehouse.dev/internal/auth"
	"gatehouse.dev/internal/obs"
)

type ctxKey string

const requestIDKey ctxKey = "audit_request_id"

// Event names written by the API surfaces.
const (
	EventTokenIssued     = "auth.token.issued"
	EventLoginRejected   = "auth.login.rejected"
	EventUserRegistered  = "admin.user.registered"
	EventUserStatus      = "admin.user.status_changed"
	EventMasterChanged   = "admin.user.master_changed"
	EventSystemCreated   = "admin.system.created"
	EventRoleDefined     = "admin.role.defined"
	EventUserBound       = "admin.binding.created"
	EventBindingStatus   = "admin.binding.status_changed"
	EventRoleGranted     = "admin.binding.role_granted"
	EventMasterBootstrap = "admin.master.bootstrapped"
)

// Entry is one audit line.
type Entry struct {
	Timestamp string         `json:"ts"`
	Type      string         `json:"type"`
	Event     string         `json:"event"`
	RequestID string         `json:"request_id,omitempty"`
	ActorID   int64          `json:"actor_id,omitempty"`
	Master    bool           `json:"actor_master,omitempty"`
	SessionID string         `json:"session_id,omitempty"`
	Fields    map[string]any `json:"fields"`
}

// WithRequestID attaches the request identifier to the context for audit logging.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	requestID = strings.TrimSpace(requestID)
	if requestID == "" {
		return ctx
	}
	return context.WithValue(ctx, requestIDKey, requestID)
}

// RequestIDFromContext returns the request id attached by WithRequestID.
func RequestIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if v, ok := ctx.Value(requestIDKey).(string); ok {
		return v
	}
	return ""
}

// NewEntry builds an entry for event, enriched with the request id and the
// verified token holder found in ctx.
func NewEntry(ctx context.Context, event string, fields map[string]any) (Entry, error) {
	event = strings.TrimSpace(event)
	if event == "" {
		return Entry{}, errors.New("event name is required")
	}
	entry := Entry{
		Timestamp: time.Now().UTC().Format(time.RFC3339Nano),
		Type:      "audit",
		Event:     event,
		RequestID: RequestIDFromContext(ctx),
		Fields:    make(map[string]any, len(fields)),
	}
	if payload, ok := auth.PayloadFromContext(ctx); ok {
		entry.ActorID = int64(payload.UserID)
		entry.Master = payload.Master
		entry.SessionID = payload.SessionID
	}
	for k, v := range fields {
		entry.Fields[k] = v
	}
	return entry, nil
}

// LogEvent writes an audit log entry enriched with request and user context.
func LogEvent(ctx context.Context, event string, fields map[string]any) error {
	entry, err := NewEntry(ctx, event, fields)
	if err != nil {
		return err
	}
	data, err := json.Marshal(entry)
	if err != nil {
		return err
	}
	obs.Logger().Println(string(data))
	return nil
}
