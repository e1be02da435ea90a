package quizbank

import (
	"context"
	"errors"
	"fmt"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"learnportal/internal/extract"
	"learnportal/internal/quiz"
)

var (
	ErrInvalidInput = errors.New("invalid input")
	ErrFileTooLarge = errors.New("file too large")
	ErrQuizNotFound = errors.New("quiz not found")
	ErrSheetInvalid = errors.New("invalid sheet")
)

const (
	DefaultQuizTitle       = "Module Quiz"
	DefaultQuizDescription = "Uploaded Quiz"
	DefaultMaxUploadMB     = 50
	NoPoolMessage          = "No quiz questions available for this module."
)

// FileTooLargeError reports an upload over the configured limit.
type FileTooLargeError struct {
	SizeBytes int64
	LimitMB   int64
}

func (e *FileTooLargeError) Error() string {
	return fmt.Sprintf("File size (%.1f MB) exceeds the maximum allowed limit of %d MB.", float64(e.SizeBytes)/(1024*1024), e.LimitMB)
}

func (e *FileTooLargeError) Unwrap() error { return ErrFileTooLarge }

// UploadExtensions are the document types accepted for quiz upload.
var UploadExtensions = map[string]bool{"pdf": true, "docx": true, "pptx": true, "txt": true}

type Config struct {
	MaxUploadMB          int64
	DefaultQuestionCount int
}

type Service struct {
	store   Store
	cfg     Config
	log     *zap.Logger
	now     func() time.Time
	newRand func() *rand.Rand
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithRand(newRand func() *rand.Rand) Option {
	return func(s *Service) { s.newRand = newRand }
}

func NewService(store Store, cfg Config, log *zap.Logger, opts ...Option) *Service {
	if cfg.MaxUploadMB <= 0 {
		cfg.MaxUploadMB = DefaultMaxUploadMB
	}
	if cfg.DefaultQuestionCount <= 0 {
		cfg.DefaultQuestionCount = quiz.DefaultAttemptSize
	}
	if log == nil {
		log = zap.NewNop()
	}
	s := &Service{
		store:   store,
		cfg:     cfg,
		log:     log,
		now:     time.Now,
		newRand: quiz.NewRand,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

type UploadInput struct {
	FileName    string
	Data        []byte
	Size        int64
	Title       string
	Description string
}

type UploadResult struct {
	Quiz           *Quiz         `json:"quiz"`
	QuestionsCount int           `json:"questions_count"`
	Strategy       quiz.Strategy `json:"strategy"`
	Skipped        int           `json:"skipped_blocks"`
	Message        string        `json:"message"`
}

type PreviewResult struct {
	Questions      []quiz.ParsedQuestion `json:"questions"`
	QuestionsCount int                   `json:"questions_count"`
	Strategy       quiz.Strategy         `json:"strategy"`
	Skipped        int                   `json:"skipped_blocks"`
}

type SaveQuizInput struct {
	Title       string
	Description string
	Questions   []quiz.ParsedQuestion
}

type Submission struct {
	Answers map[int64]string
	Learner string
}

type AttemptSubmission struct {
	QuestionIDs []int64
	Answers     map[int64]string
	Learner     string
}

// CheckUploadSize enforces the per-file limit in megabytes.
func CheckUploadSize(size, limitMB int64) error {
	if size > limitMB*1024*1024 {
		return &FileTooLargeError{SizeBytes: size, LimitMB: limitMB}
	}
	return nil
}

func (s *Service) validateUpload(in UploadInput) error {
	if strings.TrimSpace(in.FileName) == "" {
		return fmt.Errorf("%w: file name is required", ErrInvalidInput)
	}
	size := in.Size
	if size < int64(len(in.Data)) {
		size = int64(len(in.Data))
	}
	if size == 0 {
		return fmt.Errorf("%w: uploaded file is empty", ErrInvalidInput)
	}
	ext := extract.Extension(in.FileName)
	if !UploadExtensions[ext] {
		return fmt.Errorf("%w: .%s (supported: pdf, docx, pptx, txt)", extract.ErrUnsupportedFormat, ext)
	}
	return CheckUploadSize(size, s.cfg.MaxUploadMB)
}

func (s *Service) parseUpload(in UploadInput) (*quiz.ParseResult, error) {
	if err := s.validateUpload(in); err != nil {
		return nil, err
	}
	text, err := extract.Extract(extract.Document{Name: in.FileName, Data: in.Data})
	if err != nil {
		return nil, err
	}
	return quiz.ParseDetailed(text)
}

// PreviewUpload parses a document without storing anything.
func (s *Service) PreviewUpload(ctx context.Context, in UploadInput) (*PreviewResult, error) {
	res, err := s.parseUpload(in)
	if err != nil {
		s.log.Info("quiz preview rejected", zap.String("file", in.FileName), zap.Error(err))
		return nil, err
	}
	return &PreviewResult{
		Questions:      res.Questions,
		QuestionsCount: len(res.Questions),
		Strategy:       res.Strategy,
		Skipped:        res.Skipped,
	}, nil
}

// UploadQuiz extracts, parses and stores a document as a new quiz of the module.
func (s *Service) UploadQuiz(ctx context.Context, moduleID int64, in UploadInput) (*UploadResult, error) {
	if moduleID <= 0 {
		return nil, fmt.Errorf("%w: module id must be positive", ErrInvalidInput)
	}
	res, err := s.parseUpload(in)
	if err != nil {
		s.log.Info("quiz upload rejected",
			zap.Int64("module_id", moduleID),
			zap.String("file", in.FileName),
			zap.Error(err),
		)
		return nil, err
	}

	created, err := s.store.CreateQuiz(ctx, NewQuiz{
		ModuleID:    moduleID,
		Title:       defaultString(in.Title, DefaultQuizTitle),
		Description: defaultString(in.Description, DefaultQuizDescription),
		Questions:   res.Questions,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return nil, err
	}

	s.log.Info("quiz uploaded",
		zap.Int64("module_id", moduleID),
		zap.Int64("quiz_id", created.ID),
		zap.String("strategy", string(res.Strategy)),
		zap.Int("questions", len(res.Questions)),
		zap.Int("skipped", res.Skipped),
	)
	return &UploadResult{
		Quiz:           created,
		QuestionsCount: len(created.Questions),
		Strategy:       res.Strategy,
		Skipped:        res.Skipped,
		Message:        fmt.Sprintf("Successfully uploaded %d questions.", len(created.Questions)),
	}, nil
}

// SaveQuiz stores reviewed questions, typically after a preview.
func (s *Service) SaveQuiz(ctx context.Context, moduleID int64, in SaveQuizInput) (*Quiz, error) {
	if moduleID <= 0 {
		return nil, fmt.Errorf("%w: module id must be positive", ErrInvalidInput)
	}
	if len(in.Questions) == 0 {
		return nil, fmt.Errorf("%w: at least one question is required", ErrInvalidInput)
	}
	questions, err := normalizeQuestions(in.Questions)
	if err != nil {
		return nil, err
	}
	return s.store.CreateQuiz(ctx, NewQuiz{
		ModuleID:    moduleID,
		Title:       defaultString(in.Title, DefaultQuizTitle),
		Description: defaultString(in.Description, DefaultQuizDescription),
		Questions:   questions,
		CreatedAt:   s.now(),
	})
}

func normalizeQuestions(in []quiz.ParsedQuestion) ([]quiz.ParsedQuestion, error) {
	out := make([]quiz.ParsedQuestion, 0, len(in))
	for i, q := range in {
		clean, err := quiz.NewParsedQuestion(q.Text, q.Options, q.CorrectOption)
		if err != nil {
			return nil, fmt.Errorf("%w: question %d: %w", ErrInvalidInput, i+1, err)
		}
		out = append(out, clean)
	}
	return out, nil
}

func (s *Service) ListQuizzes(ctx context.Context, moduleID int64) ([]QuizSummary, error) {
	if moduleID <= 0 {
		return nil, fmt.Errorf("%w: module id must be positive", ErrInvalidInput)
	}
	return s.store.ListQuizzes(ctx, moduleID)
}

func (s *Service) GetQuiz(ctx context.Context, quizID int64) (*Quiz, error) {
	if quizID <= 0 {
		return nil, fmt.Errorf("%w: quiz id must be positive", ErrInvalidInput)
	}
	return s.store.GetQuiz(ctx, quizID)
}

func (s *Service) DeleteQuiz(ctx context.Context, quizID int64) error {
	if quizID <= 0 {
		return fmt.Errorf("%w: quiz id must be positive", ErrInvalidInput)
	}
	if err := s.store.DeleteQuiz(ctx, quizID); err != nil {
		return err
	}
	s.log.Info("quiz deleted", zap.Int64("quiz_id", quizID))
	return nil
}

// RandomAttempt draws a fresh attempt from every quiz of the module.
// Questions with identical content are drawn at most once. It reports
// false when the module has no questions.
func (s *Service) RandomAttempt(ctx context.Context, moduleID int64, count int) (*quiz.Attempt, bool, error) {
	if moduleID <= 0 {
		return nil, false, fmt.Errorf("%w: module id must be positive", ErrInvalidInput)
	}
	if count <= 0 {
		count = s.cfg.DefaultQuestionCount
	}

	entries, err := s.store.ModulePool(ctx, moduleID)
	if err != nil {
		return nil, false, err
	}
	pool := dedupePool(entries)

	attempt, ok := quiz.BuildAttempt(pool, count, s.newRand())
	if !ok {
		return nil, false, nil
	}
	attempt.ID = uuid.NewString()
	attempt.Title = DefaultQuizTitle
	s.log.Debug("random attempt built",
		zap.Int64("module_id", moduleID),
		zap.String("attempt_id", attempt.ID),
		zap.Int("pool", len(pool)),
		zap.Int("questions", len(attempt.Questions)),
	)
	return attempt, true, nil
}

func dedupePool(entries []PoolEntry) []quiz.PoolQuestion {
	seen := make(map[string]bool, len(entries))
	out := make([]quiz.PoolQuestion, 0, len(entries))
	for _, e := range entries {
		if e.Fingerprint != "" && seen[e.Fingerprint] {
			continue
		}
		seen[e.Fingerprint] = true
		out = append(out, e.PoolQuestion)
	}
	return out
}

// SubmitQuiz grades answers against every question of a stored quiz.
func (s *Service) SubmitQuiz(ctx context.Context, quizID int64, sub Submission) (*quiz.GradeResult, error) {
	qz, err := s.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, err
	}
	res := quiz.Grade(qz.Questions, sub.Answers)
	id := qz.ID
	if err := s.record(ctx, qz.ModuleID, &id, sub.Learner, res); err != nil {
		return nil, err
	}
	return &res, nil
}

// SubmitAttempt grades a random attempt against the canonical records of
// the presented questions, in presentation order. Ids outside the module
// and repeated ids are ignored.
func (s *Service) SubmitAttempt(ctx context.Context, moduleID int64, sub AttemptSubmission) (*quiz.GradeResult, error) {
	if moduleID <= 0 {
		return nil, fmt.Errorf("%w: module id must be positive", ErrInvalidInput)
	}
	if len(sub.QuestionIDs) == 0 {
		return nil, fmt.Errorf("%w: question ids are required", ErrInvalidInput)
	}

	entries, err := s.store.ModulePool(ctx, moduleID)
	if err != nil {
		return nil, err
	}
	byID := make(map[int64]quiz.PoolQuestion, len(entries))
	for _, e := range entries {
		byID[e.ID] = e.PoolQuestion
	}

	canonical := make([]quiz.PoolQuestion, 0, len(sub.QuestionIDs))
	seen := make(map[int64]bool, len(sub.QuestionIDs))
	for _, id := range sub.QuestionIDs {
		q, ok := byID[id]
		if !ok || seen[id] {
			continue
		}
		seen[id] = true
		canonical = append(canonical, q)
	}
	if len(canonical) == 0 {
		return nil, fmt.Errorf("%w: none of the question ids belong to module %d", ErrInvalidInput, moduleID)
	}

	res := quiz.Grade(canonical, sub.Answers)
	if err := s.record(ctx, moduleID, nil, sub.Learner, res); err != nil {
		return nil, err
	}
	return &res, nil
}

func (s *Service) record(ctx context.Context, moduleID int64, quizID *int64, learner string, res quiz.GradeResult) error {
	rec := AttemptRecord{
		ID:             uuid.NewString(),
		ModuleID:       moduleID,
		QuizID:         quizID,
		Learner:        strings.TrimSpace(learner),
		Score:          res.Score,
		TotalQuestions: res.TotalQuestions,
		Percentage:     res.Percentage,
		Passed:         res.Passed,
		SubmittedAt:    s.now(),
	}
	if err := s.store.RecordAttempt(ctx, rec); err != nil {
		return err
	}
	s.log.Info("quiz attempt graded",
		zap.String("attempt_id", rec.ID),
		zap.Int64("module_id", moduleID),
		zap.Int("score", res.Score),
		zap.Int("total", res.TotalQuestions),
		zap.Bool("passed", res.Passed),
	)
	return nil
}

func (s *Service) ListAttempts(ctx context.Context, moduleID int64, limit int) ([]AttemptRecord, error) {
	if moduleID <= 0 {
		return nil, fmt.Errorf("%w: module id must be positive", ErrInvalidInput)
	}
	return s.store.ListAttempts(ctx, moduleID, limit)
}

func defaultString(v, fallback string) string {
	if v = strings.TrimSpace(v); v == "" {
		return fallback
	}
	return v
}
