package report

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnportal/internal/quizbank"
)

type fakeAttempts struct {
	records []quizbank.AttemptRecord
	err     error
	limit   int
}

func (f *fakeAttempts) ListAttempts(_ context.Context, _ int64, limit int) ([]quizbank.AttemptRecord, error) {
	f.limit = limit
	return f.records, f.err
}

func TestSummarizeEmpty(t *testing.T) {
	sum := Summarize(nil)
	assert.Equal(t, 0, sum.Attempts)
	assert.Equal(t, 0, sum.LowestScore)
	assert.Nil(t, sum.LastSubmittedAt)
}

func TestSummarize(t *testing.T) {
	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	sum := Summarize([]quizbank.AttemptRecord{
		{Learner: "Ana", Percentage: 80, Passed: true, SubmittedAt: base},
		{Learner: " ana ", Percentage: 40, Passed: false, SubmittedAt: base.Add(time.Hour)},
		{Learner: "", Percentage: 65, Passed: true, SubmittedAt: base.Add(-time.Hour)},
	})

	assert.Equal(t, 3, sum.Attempts)
	assert.Equal(t, 1, sum.Learners)
	assert.Equal(t, 61.67, sum.AverageScore)
	assert.Equal(t, 80, sum.HighestScore)
	assert.Equal(t, 40, sum.LowestScore)
	assert.Equal(t, 66.67, sum.PassRate)
	require.NotNil(t, sum.LastSubmittedAt)
	assert.True(t, sum.LastSubmittedAt.Equal(base.Add(time.Hour)))
}

func TestSummaryByModuleUsesWindow(t *testing.T) {
	src := &fakeAttempts{records: []quizbank.AttemptRecord{{Percentage: 100, Passed: true}}}
	sum, err := NewService(src).SummaryByModule(context.Background(), 7)
	require.NoError(t, err)
	assert.Equal(t, SummaryWindow, src.limit)
	assert.Equal(t, int64(7), sum.ModuleID)
	assert.Equal(t, 100.0, sum.PassRate)
}

func serve(h *Handler, path string) *httptest.ResponseRecorder {
	r := chi.NewRouter()
	h.Routes(r)
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, path, nil))
	return rec
}

func TestSummaryHandler(t *testing.T) {
	src := &fakeAttempts{records: []quizbank.AttemptRecord{{Percentage: 50, Passed: true}}}
	rec := serve(NewHandler(NewService(src)), "/reports/modules/3")
	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d body=%s", rec.Code, rec.Body.String())
	}
	assert.Contains(t, rec.Body.String(), `"average_percentage":50`)
}

func TestSummaryHandlerErrors(t *testing.T) {
	rec := serve(NewHandler(NewService(&fakeAttempts{})), "/reports/modules/abc")
	if rec.Code != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", rec.Code)
	}

	rec = serve(NewHandler(NewService(&fakeAttempts{err: errors.New("db down")})), "/reports/modules/3")
	if rec.Code != http.StatusInternalServerError {
		t.Fatalf("expected 500, got %d", rec.Code)
	}
	assert.NotContains(t, rec.Body.String(), "db down")
}
