package quizbank

import (
	"context"
	"errors"
	"math/rand/v2"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"learnportal/internal/extract"
	"learnportal/internal/quiz"
)

const sampleQuizText = `1. What is the capital of France?
A) London
B) Paris
C) Berlin
D) Rome
Answer: B

2. What is 2+2?
A) 3
B) 4
Answer: B

3. Which is a Go keyword?
A) func
B) def
C) fn
Answer: A
`

func newTestService(t *testing.T, cfg Config) *Service {
	t.Helper()
	var seed uint64
	return NewService(openTestStore(t), cfg, zap.NewNop(),
		WithClock(func() time.Time { return time.Date(2026, 5, 1, 9, 0, 0, 0, time.UTC) }),
		WithRand(func() *rand.Rand {
			seed++
			return quiz.NewSeededRand(seed)
		}),
	)
}

func TestServiceUploadQuiz(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, Config{})

	res, err := svc.UploadQuiz(ctx, 1, UploadInput{FileName: "week1.txt", Data: []byte(sampleQuizText)})
	require.NoError(t, err)
	assert.Equal(t, 3, res.QuestionsCount)
	assert.Equal(t, "Successfully uploaded 3 questions.", res.Message)
	assert.Equal(t, DefaultQuizTitle, res.Quiz.Title)
	assert.Equal(t, DefaultQuizDescription, res.Quiz.Description)
	assert.Equal(t, quiz.StrategyEnumerated, res.Strategy)

	list, err := svc.ListQuizzes(ctx, 1)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 3, list[0].QuestionsCount)
}

func TestServiceUploadQuizErrors(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, Config{MaxUploadMB: 1})

	tests := []struct {
		name string
		in   UploadInput
		want error
	}{
		{name: "empty file", in: UploadInput{FileName: "a.txt"}, want: ErrInvalidInput},
		{name: "missing name", in: UploadInput{Data: []byte("x")}, want: ErrInvalidInput},
		{name: "unsupported", in: UploadInput{FileName: "a.doc", Data: []byte("x")}, want: extract.ErrUnsupportedFormat},
		{name: "too large", in: UploadInput{FileName: "a.txt", Data: []byte("x"), Size: 2 * 1024 * 1024}, want: ErrFileTooLarge},
		{name: "no questions", in: UploadInput{FileName: "a.txt", Data: []byte("just some notes")}, want: quiz.ErrNoQuestionsFound},
		{name: "blank text", in: UploadInput{FileName: "a.txt", Data: []byte("   \n  ")}, want: quiz.ErrNoReadableContent},
		{name: "corrupt docx", in: UploadInput{FileName: "a.docx", Data: []byte("nope")}, want: extract.ErrExtractionFailed},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.UploadQuiz(ctx, 1, tc.in)
			require.ErrorIs(t, err, tc.want)
		})
	}

	list, err := svc.ListQuizzes(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestFileTooLargeMessage(t *testing.T) {
	err := CheckUploadSize(2*1024*1024+100*1024, 1)
	var tooLarge *FileTooLargeError
	require.True(t, errors.As(err, &tooLarge))
	assert.Equal(t, "File size (2.1 MB) exceeds the maximum allowed limit of 1 MB.", err.Error())
	assert.NoError(t, CheckUploadSize(1024*1024, 1))
}

func TestServicePreviewDoesNotPersist(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, Config{})

	res, err := svc.PreviewUpload(ctx, UploadInput{FileName: "q.txt", Data: []byte(sampleQuizText + "\n4. broken\nA) x\n")})
	require.NoError(t, err)
	assert.Equal(t, 3, res.QuestionsCount)
	assert.Equal(t, 1, res.Skipped)

	list, err := svc.ListQuizzes(ctx, 1)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestServiceSaveQuizValidates(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, Config{})

	_, err := svc.SaveQuiz(ctx, 1, SaveQuizInput{Questions: []quiz.ParsedQuestion{
		{Text: "ok", Options: [4]string{"a", "b"}, CorrectOption: "a"},
		{Text: "bad", Options: [4]string{"a", "b"}, CorrectOption: "D"},
	}})
	require.ErrorIs(t, err, ErrInvalidInput)
	require.ErrorIs(t, err, quiz.ErrInvalidQuestion)
	assert.Contains(t, err.Error(), "question 2")

	saved, err := svc.SaveQuiz(ctx, 1, SaveQuizInput{Title: " Edited ", Questions: []quiz.ParsedQuestion{
		{Text: " ok ", Options: [4]string{"a", "b"}, CorrectOption: "b"},
	}})
	require.NoError(t, err)
	assert.Equal(t, "Edited", saved.Title)
	assert.Equal(t, "B", saved.Questions[0].CorrectOption)
	assert.Equal(t, "ok", saved.Questions[0].Text)

	_, err = svc.SaveQuiz(ctx, 0, SaveQuizInput{})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestServiceRandomAttempt(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, Config{DefaultQuestionCount: 2})

	_, ok, err := svc.RandomAttempt(ctx, 1, 0)
	require.NoError(t, err)
	assert.False(t, ok)

	for i := 0; i < 2; i++ {
		_, err := svc.UploadQuiz(ctx, 1, UploadInput{FileName: "dup.txt", Data: []byte(sampleQuizText)})
		require.NoError(t, err)
	}

	attempt, ok, err := svc.RandomAttempt(ctx, 1, 0)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, attempt.Questions, 2)
	assert.NotEmpty(t, attempt.ID)
	assert.Equal(t, DefaultQuizTitle, attempt.Title)

	all, ok, err := svc.RandomAttempt(ctx, 1, 100)
	require.NoError(t, err)
	require.True(t, ok)
	assert.Len(t, all.Questions, 3, "duplicate uploads are drawn once")
}

func TestServiceSubmitAttemptGradesCanonically(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, Config{})

	_, err := svc.UploadQuiz(ctx, 1, UploadInput{FileName: "a.txt", Data: []byte(sampleQuizText)})
	require.NoError(t, err)
	attempt, ok, err := svc.RandomAttempt(ctx, 1, 3)
	require.NoError(t, err)
	require.True(t, ok)

	answers := map[int64]string{}
	for _, q := range attempt.Questions {
		answers[q.ID] = q.CanonicalLetter(q.CorrectOption)
	}
	ids := append(attempt.QuestionIDs(), 9999)

	res, err := svc.SubmitAttempt(ctx, 1, AttemptSubmission{QuestionIDs: ids, Answers: answers, Learner: "kim"})
	require.NoError(t, err)
	assert.Equal(t, 3, res.Score)
	assert.Equal(t, 3, res.TotalQuestions)
	assert.True(t, res.Passed)
	for i, qr := range res.QuestionResults {
		assert.Equal(t, attempt.Questions[i].ID, qr.QuestionID)
	}

	_, err = svc.SubmitAttempt(ctx, 1, AttemptSubmission{QuestionIDs: []int64{9999}})
	assert.ErrorIs(t, err, ErrInvalidInput)
	_, err = svc.SubmitAttempt(ctx, 2, AttemptSubmission{QuestionIDs: attempt.QuestionIDs()})
	assert.ErrorIs(t, err, ErrInvalidInput)

	history, err := svc.ListAttempts(ctx, 1, 10)
	require.NoError(t, err)
	require.Len(t, history, 1)
	assert.Equal(t, "kim", history[0].Learner)
	assert.Nil(t, history[0].QuizID)
}

func TestServiceSubmitQuiz(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, Config{})

	up, err := svc.UploadQuiz(ctx, 4, UploadInput{FileName: "a.txt", Data: []byte(sampleQuizText)})
	require.NoError(t, err)
	qs := up.Quiz.Questions

	res, err := svc.SubmitQuiz(ctx, up.Quiz.ID, Submission{Answers: map[int64]string{qs[0].ID: "b", qs[1].ID: "A"}})
	require.NoError(t, err)
	assert.Equal(t, 1, res.Score)
	assert.Equal(t, 33, res.Percentage)
	assert.False(t, res.Passed)
	assert.Equal(t, "", res.QuestionResults[2].SelectedOption)

	_, err = svc.SubmitQuiz(ctx, up.Quiz.ID+100, Submission{})
	assert.ErrorIs(t, err, ErrQuizNotFound)

	history, err := svc.ListAttempts(ctx, 4, 0)
	require.NoError(t, err)
	require.Len(t, history, 1)
	require.NotNil(t, history[0].QuizID)
	assert.Equal(t, up.Quiz.ID, *history[0].QuizID)
}

func TestServiceDeleteQuiz(t *testing.T) {
	ctx := context.Background()
	svc := newTestService(t, Config{})

	up, err := svc.UploadQuiz(ctx, 1, UploadInput{FileName: "a.txt", Data: []byte(sampleQuizText)})
	require.NoError(t, err)
	require.NoError(t, svc.DeleteQuiz(ctx, up.Quiz.ID))

	_, ok, err := svc.RandomAttempt(ctx, 1, 5)
	require.NoError(t, err)
	assert.False(t, ok)
	assert.ErrorIs(t, svc.DeleteQuiz(ctx, up.Quiz.ID), ErrQuizNotFound)
	assert.True(t, strings.Contains(svc.DeleteQuiz(ctx, 0).Error(), "positive"))
}
