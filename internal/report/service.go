package report

import (
	"context"
	"math"
	"strings"
	"time"

	"learnportal/internal/quizbank"
)

// SummaryWindow is how many recent attempts a summary covers.
const SummaryWindow = 500

type attemptSource interface {
	ListAttempts(ctx context.Context, moduleID int64, limit int) ([]quizbank.AttemptRecord, error)
}

type Service struct {
	attempts attemptSource
}

type ModuleSummary struct {
	ModuleID        int64      `json:"module_id"`
	Attempts        int        `json:"attempts"`
	Learners        int        `json:"learners"`
	AverageScore    float64    `json:"average_percentage"`
	HighestScore    int        `json:"highest_percentage"`
	LowestScore     int        `json:"lowest_percentage"`
	PassRate        float64    `json:"pass_rate"`
	LastSubmittedAt *time.Time `json:"last_submitted_at,omitempty"`
}

func NewService(attempts attemptSource) *Service {
	return &Service{attempts: attempts}
}

func (s *Service) SummaryByModule(ctx context.Context, moduleID int64) (*ModuleSummary, error) {
	records, err := s.attempts.ListAttempts(ctx, moduleID, SummaryWindow)
	if err != nil {
		return nil, err
	}
	sum := Summarize(records)
	sum.ModuleID = moduleID
	return &sum, nil
}

// Summarize aggregates attempt percentages. Anonymous attempts count toward
// every figure except Learners.
func Summarize(records []quizbank.AttemptRecord) ModuleSummary {
	var out ModuleSummary
	if len(records) == 0 {
		return out
	}

	learners := make(map[string]struct{})
	total, passed := 0, 0
	out.LowestScore = 100
	for _, rec := range records {
		total += rec.Percentage
		if rec.Passed {
			passed++
		}
		out.HighestScore = max(out.HighestScore, rec.Percentage)
		out.LowestScore = min(out.LowestScore, rec.Percentage)
		if name := strings.ToLower(strings.TrimSpace(rec.Learner)); name != "" {
			learners[name] = struct{}{}
		}
		if out.LastSubmittedAt == nil || rec.SubmittedAt.After(*out.LastSubmittedAt) {
			at := rec.SubmittedAt
			out.LastSubmittedAt = &at
		}
	}
	out.Attempts = len(records)
	out.Learners = len(learners)
	out.AverageScore = round2(float64(total) / float64(len(records)))
	out.PassRate = round2(float64(passed) * 100 / float64(len(records)))
	return out
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
