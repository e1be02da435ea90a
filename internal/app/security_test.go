package app

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestIPRateLimiterAllow(t *testing.T) {
	l := NewIPRateLimiter(2, 0)
	if !l.Allow("k") || !l.Allow("k") {
		t.Fatalf("first two requests should pass")
	}
	if l.Allow("k") {
		t.Fatalf("third request should be blocked")
	}
}

func TestRateLimitMiddlewareKeysByClientIP(t *testing.T) {
	mw := RateLimitMiddleware(NewIPRateLimiter(1, 0))
	next := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	send := func(path, remote string) int {
		req := httptest.NewRequest(http.MethodPost, path, nil)
		req.RemoteAddr = remote
		w := httptest.NewRecorder()
		next.ServeHTTP(w, req)
		return w.Code
	}

	if code := send("/api/v1/modules/1/quizzes/upload", "10.0.0.1:5000"); code != http.StatusOK {
		t.Fatalf("expected 200, got %d", code)
	}
	if code := send("/api/v1/modules/1/quizzes/import", "10.0.0.1:6000"); code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 for same client on another upload route, got %d", code)
	}
	if code := send("/api/v1/modules/1/quizzes/upload", "10.0.0.2:5000"); code != http.StatusOK {
		t.Fatalf("expected 200 for another client, got %d", code)
	}
}

func TestCSRFMiddlewareEnforced(t *testing.T) {
	mw := CSRFMiddleware(true)
	next := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/modules/1/quizzes/2/submit", nil)
	req.AddCookie(&http.Cookie{Name: csrfCookieName, Value: "abc"})
	req.Header.Set(csrfHeaderName, "abc")
	w := httptest.NewRecorder()
	next.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", w.Code)
	}
}

func TestCSRFMiddlewareRejectsMissingToken(t *testing.T) {
	mw := CSRFMiddleware(true)
	next := mw(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))

	req := httptest.NewRequest(http.MethodPost, "/api/v1/modules/1/quizzes/2/submit", nil)
	w := httptest.NewRecorder()
	next.ServeHTTP(w, req)

	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestIssueCSRFTokenSetsCookie(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "/api/v1/csrf", nil)
	w := httptest.NewRecorder()
	IssueCSRFToken(w, req)

	res := w.Result()
	var token string
	for _, c := range res.Cookies() {
		if c.Name == csrfCookieName {
			token = c.Value
		}
	}
	if token == "" {
		t.Fatalf("expected %s cookie", csrfCookieName)
	}
}
