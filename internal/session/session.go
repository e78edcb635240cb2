package session

import (
	"context"
	"hash/fnv"
	"regexp"
	"strings"
	"sync"

	"github.com/google/uuid"
)

const (
	HeaderName = "X-Session-Id"
	maxIDLen   = 64
	stripes    = 64
)

var idPattern = regexp.MustCompile(`^[A-Za-z0-9_-]+$`)

type ctxKey struct{}

// NewID returns a fresh visitor session id.
func NewID() string {
	return uuid.NewString()
}

// Valid reports whether a client supplied id is safe to use in storage keys.
func Valid(id string) bool {
	id = strings.TrimSpace(id)
	return id != "" && len(id) <= maxIDLen && idPattern.MatchString(id)
}

// WithID stores the session id on the context.
func WithID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, ctxKey{}, id)
}

// IDFromContext returns the session id placed by the session middleware.
func IDFromContext(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(ctxKey{}).(string)
	return id, ok && id != ""
}

// Locker serializes read-modify-write cycles on one session's documents. Sessions hash
// onto a fixed set of mutexes.
type Locker struct {
	mu [stripes]sync.Mutex
}

func (l *Locker) Lock(id string) func() {
	h := fnv.New32a()
	_, _ = h.Write([]byte(id))
	m := &l.mu[h.Sum32()%stripes]
	m.Lock()
	return m.Unlock
}
