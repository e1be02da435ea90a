package quizbank

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"learnportal/internal/db"
	"learnportal/internal/quiz"
)

func openTestDB(t *testing.T) *sql.DB {
	t.Helper()
	dsn := "file:quizbank_" + uuid.NewString() + "?mode=memory&cache=shared&_pragma=foreign_keys(1)"
	conn, err := db.Open(context.Background(), db.DriverSQLite, dsn)
	require.NoError(t, err)
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func openTestStore(t *testing.T) *SQLStore {
	t.Helper()
	return NewSQLStore(openTestDB(t))
}

func mustQuestion(t *testing.T, text string, options [4]string, correct string) quiz.ParsedQuestion {
	t.Helper()
	q, err := quiz.NewParsedQuestion(text, options, correct)
	require.NoError(t, err)
	return q
}

func TestSQLStoreQuizLifecycle(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	created, err := store.CreateQuiz(ctx, NewQuiz{
		ModuleID:    7,
		Title:       "Week 1",
		Description: "Uploaded Quiz",
		Questions: []quiz.ParsedQuestion{
			mustQuestion(t, "First?", [4]string{"a", "b", "", ""}, "A"),
			mustQuestion(t, "Second?", [4]string{"a", "b", "c", "d"}, "D"),
		},
		CreatedAt: time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC),
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Len(t, created.Questions, 2)

	got, err := store.GetQuiz(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, created.Questions, got.Questions)
	assert.Equal(t, "Week 1", got.Title)
	assert.Equal(t, int64(7), got.ModuleID)
	assert.True(t, got.CreatedAt.Equal(created.CreatedAt))

	list, err := store.ListQuizzes(ctx, 7)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 2, list[0].QuestionsCount)

	others, err := store.ListQuizzes(ctx, 8)
	require.NoError(t, err)
	assert.Empty(t, others)

	require.NoError(t, store.DeleteQuiz(ctx, created.ID))
	_, err = store.GetQuiz(ctx, created.ID)
	assert.ErrorIs(t, err, ErrQuizNotFound)
	assert.ErrorIs(t, store.DeleteQuiz(ctx, created.ID), ErrQuizNotFound)

	pool, err := store.ModulePool(ctx, 7)
	require.NoError(t, err)
	assert.Empty(t, pool)
}

func TestSQLStoreModulePoolSpansQuizzes(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)

	for i := 0; i < 2; i++ {
		_, err := store.CreateQuiz(ctx, NewQuiz{
			ModuleID: 3,
			Title:    "quiz",
			Questions: []quiz.ParsedQuestion{
				mustQuestion(t, "Shared?", [4]string{"x", "y"}, "B"),
			},
		})
		require.NoError(t, err)
	}
	_, err := store.CreateQuiz(ctx, NewQuiz{
		ModuleID:  4,
		Title:     "other",
		Questions: []quiz.ParsedQuestion{mustQuestion(t, "Elsewhere?", [4]string{"x", "y"}, "A")},
	})
	require.NoError(t, err)

	pool, err := store.ModulePool(ctx, 3)
	require.NoError(t, err)
	require.Len(t, pool, 2)
	assert.Equal(t, pool[0].Fingerprint, pool[1].Fingerprint)
	assert.NotEqual(t, pool[0].ID, pool[1].ID)
}

func TestSQLStoreAttempts(t *testing.T) {
	ctx := context.Background()
	store := openTestStore(t)
	quizID := int64(11)

	base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	require.NoError(t, store.RecordAttempt(ctx, AttemptRecord{
		ID: "a1", ModuleID: 5, QuizID: &quizID, Learner: "sam", Score: 1, TotalQuestions: 2, Percentage: 50, Passed: true, SubmittedAt: base,
	}))
	require.NoError(t, store.RecordAttempt(ctx, AttemptRecord{
		ID: "a2", ModuleID: 5, Score: 0, TotalQuestions: 2, Percentage: 0, SubmittedAt: base.Add(time.Hour),
	}))

	items, err := store.ListAttempts(ctx, 5, 0)
	require.NoError(t, err)
	require.Len(t, items, 2)
	assert.Equal(t, "a2", items[0].ID)
	assert.Nil(t, items[0].QuizID)
	assert.False(t, items[0].Passed)
	assert.Equal(t, "a1", items[1].ID)
	require.NotNil(t, items[1].QuizID)
	assert.Equal(t, quizID, *items[1].QuizID)
	assert.True(t, items[1].Passed)
	assert.Equal(t, "sam", items[1].Learner)
}
