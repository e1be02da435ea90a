package app

import (
	"bytes"
	"context"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/google/uuid"

	"learnportal/internal/db"
)

func newSmokeRouter(t *testing.T, cfg Config) http.Handler {
	t.Helper()
	conn, err := db.Open(context.Background(), db.DriverSQLite, "file:router_"+uuid.NewString()+"?mode=memory&cache=shared&_pragma=foreign_keys(1)")
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return NewRouter(cfg, conn, nil)
}

func TestRouterSmokeRoutes(t *testing.T) {
	router := newSmokeRouter(t, Config{
		QuizUploadMaxSizeMB:      50,
		QuizDefaultQuestionCount: 10,
		UploadRateLimitPerMin:    30,
		CORSOrigins:              []string{"http://localhost:5173"},
	})

	tests := []struct {
		name       string
		method     string
		target     string
		wantStatus int
	}{
		{name: "healthz", method: http.MethodGet, target: "/healthz", wantStatus: http.StatusOK},
		{name: "metrics", method: http.MethodGet, target: "/metrics", wantStatus: http.StatusOK},
		{name: "csrf", method: http.MethodGet, target: "/api/v1/csrf", wantStatus: http.StatusOK},
		{name: "list_empty", method: http.MethodGet, target: "/api/v1/modules/1/quizzes", wantStatus: http.StatusOK},
		{name: "random_empty_pool", method: http.MethodGet, target: "/api/v1/modules/1/quizzes/random", wantStatus: http.StatusNotFound},
		{name: "quiz_missing", method: http.MethodGet, target: "/api/v1/modules/1/quizzes/99", wantStatus: http.StatusNotFound},
		{name: "report_empty", method: http.MethodGet, target: "/api/v1/reports/modules/1", wantStatus: http.StatusOK},
		{name: "bad_module", method: http.MethodGet, target: "/api/v1/modules/x/quizzes", wantStatus: http.StatusBadRequest},
		{name: "unknown_route", method: http.MethodGet, target: "/nope", wantStatus: http.StatusNotFound},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(tc.method, tc.target, nil)
			w := httptest.NewRecorder()
			router.ServeHTTP(w, req)
			if w.Code != tc.wantStatus {
				t.Fatalf("%s %s: got status %d, want %d body=%s", tc.method, tc.target, w.Code, tc.wantStatus, w.Body.String())
			}
		})
	}
}

func TestRouterUploadThenRandom(t *testing.T) {
	router := newSmokeRouter(t, Config{QuizUploadMaxSizeMB: 1, UploadRateLimitPerMin: 5})

	var body bytes.Buffer
	mw := multipart.NewWriter(&body)
	fw, err := mw.CreateFormFile("file", "week.txt")
	if err != nil {
		t.Fatalf("create form file: %v", err)
	}
	_, _ = fw.Write([]byte("1. Pick B\nA) no\nB) yes\nAnswer: B\n"))
	_ = mw.Close()

	req := httptest.NewRequest(http.MethodPost, "/api/v1/modules/7/quizzes/upload", &body)
	req.Header.Set("Content-Type", mw.FormDataContentType())
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("upload: got %d body=%s", w.Code, w.Body.String())
	}
	if !strings.Contains(w.Body.String(), "Successfully uploaded 1 questions.") {
		t.Fatalf("unexpected upload body %s", w.Body.String())
	}

	req = httptest.NewRequest(http.MethodGet, "/api/v1/modules/7/quizzes/random?numQuestions=3", nil)
	w = httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("random: got %d body=%s", w.Code, w.Body.String())
	}
	if strings.Contains(w.Body.String(), "correct_option") {
		t.Fatalf("random attempt leaked answers: %s", w.Body.String())
	}
}

func TestRouterCSRFEnforced(t *testing.T) {
	router := newSmokeRouter(t, Config{CSRFEnforced: true})

	req := httptest.NewRequest(http.MethodPost, "/api/v1/modules/1/quizzes", strings.NewReader(`{}`))
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)
	if w.Code != http.StatusForbidden {
		t.Fatalf("expected 403, got %d", w.Code)
	}
}

func TestRouterCORSPreflight(t *testing.T) {
	router := newSmokeRouter(t, Config{CORSOrigins: []string{"http://localhost:5173"}})

	req := httptest.NewRequest(http.MethodOptions, "/api/v1/modules/1/quizzes", nil)
	req.Header.Set("Origin", "http://localhost:5173")
	req.Header.Set("Access-Control-Request-Method", http.MethodPost)
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if got := w.Header().Get("Access-Control-Allow-Origin"); got != "http://localhost:5173" {
		t.Fatalf("expected allow-origin header, got %q", got)
	}
}
