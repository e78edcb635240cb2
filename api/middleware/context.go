package middleware

import (
	"context"

	"github.com/persibuloi/kamenic/internal/session"
	pkgerrors "github.com/persibuloi/kamenic/pkg/errors"
)

// SessionIDFromContext returns the visitor session placed by Session, or "".
func SessionIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := session.IDFromContext(ctx)
	return id
}

// RequireSession is used by handlers that read or write per-visitor ledgers.
func RequireSession(ctx context.Context) (string, error) {
	if id := SessionIDFromContext(ctx); id != "" {
		return id, nil
	}
	return "", pkgerrors.New(pkgerrors.CodeInternal, "session context missing")
}
