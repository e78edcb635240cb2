package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/persibuloi/kamenic/internal/session"
)

func captureSession(t *testing.T, opts SessionOptions, req *http.Request) (string, *httptest.ResponseRecorder) {
	t.Helper()
	var seen string
	handler := Session(opts, nil)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := session.IDFromContext(r.Context())
		if !ok {
			t.Fatalf("expected session id on context")
		}
		seen = id
	}))
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)
	return seen, rec
}

func TestSessionMintsIDAndEchoesIt(t *testing.T) {
	id, rec := captureSession(t, SessionOptions{MaxAge: time.Hour}, httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil))

	if !session.Valid(id) {
		t.Fatalf("minted id should be valid, got %q", id)
	}
	if got := rec.Header().Get(session.HeaderName); got != id {
		t.Fatalf("expected header echo %q, got %q", id, got)
	}
	cookies := rec.Result().Cookies()
	if len(cookies) != 1 || cookies[0].Name != "kame_session" || cookies[0].Value != id {
		t.Fatalf("expected session cookie, got %+v", cookies)
	}
	if cookies[0].MaxAge != 3600 || !cookies[0].HttpOnly {
		t.Fatalf("unexpected cookie attributes %+v", cookies[0])
	}
}

func TestSessionPrefersHeaderOverCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(session.HeaderName, "from-header")
	req.AddCookie(&http.Cookie{Name: "kame_session", Value: "from-cookie"})

	id, _ := captureSession(t, SessionOptions{}, req)
	if id != "from-header" {
		t.Fatalf("expected header session, got %q", id)
	}
}

func TestSessionFallsBackToCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.AddCookie(&http.Cookie{Name: "visitor", Value: "cookie-id"})

	id, _ := captureSession(t, SessionOptions{CookieName: "visitor"}, req)
	if id != "cookie-id" {
		t.Fatalf("expected cookie session, got %q", id)
	}
}

func TestSessionReplacesUnsafeIDs(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/cart", nil)
	req.Header.Set(session.HeaderName, "../../etc:passwd")

	id, _ := captureSession(t, SessionOptions{}, req)
	if id == "../../etc:passwd" || !session.Valid(id) {
		t.Fatalf("unsafe id must be replaced, got %q", id)
	}
}
