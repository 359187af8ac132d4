package sessionauth

import (
	"context"
	"errors"
	"log/slog"
	"time"

	"github.com/MrEthical07/sessionauth/internal/audit"
)

// AuditErrorCode is the stable error label written to AuditEvent.Error.
type AuditErrorCode string

const (
	auditErrUserNotFound          AuditErrorCode = "user_not_found"
	auditErrInvalidCredentials    AuditErrorCode = "invalid_credentials"
	auditErrSessionNotFound       AuditErrorCode = "session_not_found"
	auditErrUserAlreadyExists     AuditErrorCode = "user_already_exists"
	auditErrInvalidUser           AuditErrorCode = "invalid_user"
	auditErrSessionCreationFailed AuditErrorCode = "session_creation_failed"
	auditErrCanceled              AuditErrorCode = "canceled"
	auditErrInternal              AuditErrorCode = "internal_error"
)

// instruments bundles the engine's side channels. Every method is safe on a
// zero value.
type instruments struct {
	logger  *slog.Logger
	metrics *Metrics
	audit   *audit.Dispatcher
}

func (in *instruments) inc(id MetricID) {
	in.metrics.Inc(id)
}

func (in *instruments) observe(id MetricID, start time.Time) {
	if !in.metrics.LatencyEnabled() {
		return
	}
	in.metrics.Observe(id, time.Since(start))
}

func (in *instruments) debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	if in.logger == nil {
		return
	}
	in.logger.LogAttrs(ctx, slog.LevelDebug, msg, attrs...)
}

func (in *instruments) emit(ctx context.Context, eventType string, loginKey, userID string, err error, metadata map[string]string) {
	if in.audit == nil {
		return
	}

	event := AuditEvent{
		Timestamp: time.Now().UTC(),
		EventType: eventType,
		LoginKey:  loginKey,
		UserID:    userID,
		IP:        clientIPFromContext(ctx),
		Success:   err == nil,
		Metadata:  metadata,
	}
	if code := auditErrorCode(err); code != "" {
		event.Error = string(code)
	}

	in.audit.Emit(ctx, event)
}

func (in *instruments) close() {
	in.audit.Close()
}

func auditErrorCode(err error) AuditErrorCode {
	if err == nil {
		return ""
	}

	switch {
	case errors.Is(err, ErrUserAlreadyExists):
		return auditErrUserAlreadyExists
	case errors.Is(err, ErrInvalidUser):
		return auditErrInvalidUser
	case errors.Is(err, ErrSessionCreationFailed):
		return auditErrSessionCreationFailed
	case errors.Is(err, ErrInvalidCredentials):
		return auditErrInvalidCredentials
	case errors.Is(err, ErrSessionNotFound):
		return auditErrSessionNotFound
	case errors.Is(err, ErrUserNotFound):
		return auditErrUserNotFound
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return auditErrCanceled
	default:
		return auditErrInternal
	}
}
