package middleware

import (
	"net/http"
	"strings"
	"time"

	"github.com/persibuloi/kamenic/internal/session"
	"github.com/persibuloi/kamenic/pkg/logger"
)

// SessionOptions configures how the visitor session id travels.
type SessionOptions struct {
	CookieName string
	MaxAge     time.Duration
	Secure     bool
}

// Session resolves the visitor session from the X-Session-Id header or the session
// cookie, minting a new id when neither carries a valid one. The id is echoed back in
// both places so header-only and cookie-only clients converge on the same ledger.
func Session(opts SessionOptions, logg *logger.Logger) func(http.Handler) http.Handler {
	if opts.CookieName == "" {
		opts.CookieName = "kame_session"
	}
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			id := sessionFromRequest(r, opts.CookieName)
			if id == "" {
				id = session.NewID()
			}

			w.Header().Set(session.HeaderName, id)
			cookie := &http.Cookie{
				Name:     opts.CookieName,
				Value:    id,
				Path:     "/",
				HttpOnly: true,
				Secure:   opts.Secure,
				SameSite: http.SameSiteLaxMode,
			}
			if opts.MaxAge > 0 {
				cookie.MaxAge = int(opts.MaxAge.Seconds())
			}
			http.SetCookie(w, cookie)

			ctx := session.WithID(r.Context(), id)
			if logg != nil {
				ctx = logg.WithSessionID(ctx, id)
			}
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	}
}

func sessionFromRequest(r *http.Request, cookieName string) string {
	if id := strings.TrimSpace(r.Header.Get(session.HeaderName)); session.Valid(id) {
		return id
	}
	if c, err := r.Cookie(cookieName); err == nil {
		if id := strings.TrimSpace(c.Value); session.Valid(id) {
			return id
		}
	}
	return ""
}
