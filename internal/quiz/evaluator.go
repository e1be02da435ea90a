package quiz

import (
	"strings"
)

const PassThreshold = 50

type QuestionResult struct {
	QuestionID     int64  `json:"question_id"`
	QuestionText   string `json:"question_text"`
	SelectedOption string `json:"selected_option"`
	CorrectOption  string `json:"correct_option"`
	Correct        bool   `json:"correct"`
}

type GradeResult struct {
	Score           int              `json:"score"`
	TotalQuestions  int              `json:"total_questions"`
	Percentage      int              `json:"percentage"`
	Passed          bool             `json:"passed"`
	QuestionResults []QuestionResult `json:"question_results"`
}

// Grade scores answers against the canonical records, in the order given.
// Missing answers count as unanswered and wrong.
func Grade(canonical []PoolQuestion, answers map[int64]string) GradeResult {
	res := GradeResult{
		TotalQuestions:  len(canonical),
		QuestionResults: make([]QuestionResult, 0, len(canonical)),
	}
	for _, q := range canonical {
		selected := strings.TrimSpace(answers[q.ID])
		ok := selected != "" && strings.EqualFold(selected, q.CorrectOption)
		if ok {
			res.Score++
		}
		res.QuestionResults = append(res.QuestionResults, QuestionResult{
			QuestionID:     q.ID,
			QuestionText:   q.Text,
			SelectedOption: selected,
			CorrectOption:  q.CorrectOption,
			Correct:        ok,
		})
	}
	res.Percentage = Percentage(res.Score, res.TotalQuestions)
	res.Passed = res.Percentage >= PassThreshold
	return res
}

// Percentage rounds score/total*100 half up; it is 0 when total is 0.
func Percentage(score, total int) int {
	if total <= 0 {
		return 0
	}
	return (score*200 + total) / (2 * total)
}
