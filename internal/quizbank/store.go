package quizbank

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"learnportal/internal/quiz"
)

type Quiz struct {
	ID          int64               `json:"quiz_id"`
	ModuleID    int64               `json:"module_id"`
	Title       string              `json:"title"`
	Description string              `json:"description"`
	CreatedAt   time.Time           `json:"created_at"`
	Questions   []quiz.PoolQuestion `json:"questions,omitempty"`
}

type QuizSummary struct {
	ID             int64     `json:"quiz_id"`
	ModuleID       int64     `json:"module_id"`
	Title          string    `json:"title"`
	Description    string    `json:"description"`
	QuestionsCount int       `json:"questions_count"`
	CreatedAt      time.Time `json:"created_at"`
}

type NewQuiz struct {
	ModuleID    int64
	Title       string
	Description string
	Questions   []quiz.ParsedQuestion
	CreatedAt   time.Time
}

// PoolEntry is a stored question plus its content fingerprint.
type PoolEntry struct {
	quiz.PoolQuestion
	Fingerprint string
}

type AttemptRecord struct {
	ID             string    `json:"attempt_id"`
	ModuleID       int64     `json:"module_id"`
	QuizID         *int64    `json:"quiz_id,omitempty"`
	Learner        string    `json:"learner,omitempty"`
	Score          int       `json:"score"`
	TotalQuestions int       `json:"total_questions"`
	Percentage     int       `json:"percentage"`
	Passed         bool      `json:"passed"`
	SubmittedAt    time.Time `json:"submitted_at"`
}

type Store interface {
	CreateQuiz(ctx context.Context, in NewQuiz) (*Quiz, error)
	ListQuizzes(ctx context.Context, moduleID int64) ([]QuizSummary, error)
	GetQuiz(ctx context.Context, quizID int64) (*Quiz, error)
	DeleteQuiz(ctx context.Context, quizID int64) error
	ModulePool(ctx context.Context, moduleID int64) ([]PoolEntry, error)
	RecordAttempt(ctx context.Context, rec AttemptRecord) error
	ListAttempts(ctx context.Context, moduleID int64, limit int) ([]AttemptRecord, error)
}

// SQLStore works on both sqlite and postgres; queries stick to the
// common dialect with $n placeholders.
type SQLStore struct {
	db *sql.DB
}

func NewSQLStore(db *sql.DB) *SQLStore {
	return &SQLStore{db: db}
}

func (s *SQLStore) CreateQuiz(ctx context.Context, in NewQuiz) (*Quiz, error) {
	if in.CreatedAt.IsZero() {
		in.CreatedAt = time.Now()
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	out := &Quiz{
		ModuleID:    in.ModuleID,
		Title:       in.Title,
		Description: in.Description,
		CreatedAt:   time.Unix(in.CreatedAt.Unix(), 0).UTC(),
		Questions:   make([]quiz.PoolQuestion, 0, len(in.Questions)),
	}
	err = tx.QueryRowContext(ctx, `
INSERT INTO quizzes (module_id, title, description, created_at)
VALUES ($1, $2, $3, $4)
RETURNING id`, in.ModuleID, in.Title, in.Description, in.CreatedAt.Unix()).Scan(&out.ID)
	if err != nil {
		return nil, fmt.Errorf("insert quiz: %w", err)
	}

	for i, q := range in.Questions {
		var id int64
		err := tx.QueryRowContext(ctx, `
INSERT INTO questions (quiz_id, position, question_text, option_a, option_b, option_c, option_d, correct_option, fingerprint)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
RETURNING id`,
			out.ID, i+1, q.Text, q.Options[0], q.Options[1], q.Options[2], q.Options[3], q.CorrectOption, Fingerprint(q),
		).Scan(&id)
		if err != nil {
			return nil, fmt.Errorf("insert question %d: %w", i+1, err)
		}
		out.Questions = append(out.Questions, quiz.PoolQuestion{ID: id, ParsedQuestion: q})
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("commit quiz: %w", err)
	}
	return out, nil
}

func (s *SQLStore) ListQuizzes(ctx context.Context, moduleID int64) ([]QuizSummary, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT q.id, q.module_id, q.title, q.description, q.created_at,
       (SELECT COUNT(*) FROM questions qs WHERE qs.quiz_id = q.id)
FROM quizzes q
WHERE q.module_id = $1
ORDER BY q.id ASC`, moduleID)
	if err != nil {
		return nil, fmt.Errorf("list quizzes: %w", err)
	}
	defer rows.Close()

	out := make([]QuizSummary, 0)
	for rows.Next() {
		var (
			it      QuizSummary
			created int64
		)
		if err := rows.Scan(&it.ID, &it.ModuleID, &it.Title, &it.Description, &created, &it.QuestionsCount); err != nil {
			return nil, fmt.Errorf("scan quiz: %w", err)
		}
		it.CreatedAt = time.Unix(created, 0).UTC()
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate quizzes: %w", err)
	}
	return out, nil
}

func (s *SQLStore) GetQuiz(ctx context.Context, quizID int64) (*Quiz, error) {
	var (
		out     Quiz
		created int64
	)
	err := s.db.QueryRowContext(ctx, `
SELECT id, module_id, title, description, created_at
FROM quizzes
WHERE id = $1`, quizID).Scan(&out.ID, &out.ModuleID, &out.Title, &out.Description, &created)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQuizNotFound
		}
		return nil, fmt.Errorf("get quiz: %w", err)
	}
	out.CreatedAt = time.Unix(created, 0).UTC()

	entries, err := s.queryPool(ctx, `WHERE qs.quiz_id = $1`, quizID)
	if err != nil {
		return nil, err
	}
	out.Questions = make([]quiz.PoolQuestion, len(entries))
	for i, e := range entries {
		out.Questions[i] = e.PoolQuestion
	}
	return &out, nil
}

func (s *SQLStore) DeleteQuiz(ctx context.Context, quizID int64) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx, `DELETE FROM questions WHERE quiz_id = $1`, quizID); err != nil {
		return fmt.Errorf("delete questions: %w", err)
	}
	res, err := tx.ExecContext(ctx, `DELETE FROM quizzes WHERE id = $1`, quizID)
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("delete quiz: %w", err)
	}
	if n == 0 {
		return ErrQuizNotFound
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit delete: %w", err)
	}
	return nil
}

func (s *SQLStore) ModulePool(ctx context.Context, moduleID int64) ([]PoolEntry, error) {
	return s.queryPool(ctx, `JOIN quizzes q ON q.id = qs.quiz_id WHERE q.module_id = $1`, moduleID)
}

func (s *SQLStore) queryPool(ctx context.Context, where string, arg int64) ([]PoolEntry, error) {
	rows, err := s.db.QueryContext(ctx, `
SELECT qs.id, qs.question_text, qs.option_a, qs.option_b, qs.option_c, qs.option_d, qs.correct_option, qs.fingerprint
FROM questions qs
`+where+`
ORDER BY qs.quiz_id ASC, qs.position ASC`, arg)
	if err != nil {
		return nil, fmt.Errorf("query questions: %w", err)
	}
	defer rows.Close()

	out := make([]PoolEntry, 0)
	for rows.Next() {
		var e PoolEntry
		if err := rows.Scan(&e.ID, &e.Text, &e.Options[0], &e.Options[1], &e.Options[2], &e.Options[3], &e.CorrectOption, &e.Fingerprint); err != nil {
			return nil, fmt.Errorf("scan question: %w", err)
		}
		e.CorrectOption = strings.ToUpper(strings.TrimSpace(e.CorrectOption))
		if e.Fingerprint == "" {
			e.Fingerprint = Fingerprint(e.ParsedQuestion)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate questions: %w", err)
	}
	return out, nil
}

func (s *SQLStore) RecordAttempt(ctx context.Context, rec AttemptRecord) error {
	var quizID sql.NullInt64
	if rec.QuizID != nil {
		quizID = sql.NullInt64{Int64: *rec.QuizID, Valid: true}
	}
	_, err := s.db.ExecContext(ctx, `
INSERT INTO quiz_attempts (id, module_id, quiz_id, learner, score, total_questions, percentage, passed, submitted_at)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
		rec.ID, rec.ModuleID, quizID, rec.Learner, rec.Score, rec.TotalQuestions, rec.Percentage, rec.Passed, rec.SubmittedAt.Unix(),
	)
	if err != nil {
		return fmt.Errorf("insert attempt: %w", err)
	}
	return nil
}

func (s *SQLStore) ListAttempts(ctx context.Context, moduleID int64, limit int) ([]AttemptRecord, error) {
	if limit <= 0 || limit > 500 {
		limit = 100
	}
	rows, err := s.db.QueryContext(ctx, `
SELECT id, module_id, quiz_id, learner, score, total_questions, percentage, passed, submitted_at
FROM quiz_attempts
WHERE module_id = $1
ORDER BY submitted_at DESC, id ASC
LIMIT $2`, moduleID, limit)
	if err != nil {
		return nil, fmt.Errorf("list attempts: %w", err)
	}
	defer rows.Close()

	out := make([]AttemptRecord, 0)
	for rows.Next() {
		var (
			it        AttemptRecord
			quizID    sql.NullInt64
			submitted int64
		)
		if err := rows.Scan(&it.ID, &it.ModuleID, &quizID, &it.Learner, &it.Score, &it.TotalQuestions, &it.Percentage, &it.Passed, &submitted); err != nil {
			return nil, fmt.Errorf("scan attempt: %w", err)
		}
		if quizID.Valid {
			id := quizID.Int64
			it.QuizID = &id
		}
		it.SubmittedAt = time.Unix(submitted, 0).UTC()
		out = append(out, it)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate attempts: %w", err)
	}
	return out, nil
}
