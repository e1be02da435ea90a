package quiz

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrNoReadableContent = errors.New("no readable content")
	ErrNoQuestionsFound  = errors.New("no questions found")
	ErrInvalidQuestion   = errors.New("invalid question")
)

// Letters lists the option slots in display order.
var Letters = [4]string{"A", "B", "C", "D"}

type ParsedQuestion struct {
	Text          string    `json:"question_text"`
	Options       [4]string `json:"options"`
	CorrectOption string    `json:"correct_option"`
}

// PoolQuestion is a stored question carrying its persistent identifier.
type PoolQuestion struct {
	ID int64 `json:"question_id"`
	ParsedQuestion
}

// NewParsedQuestion trims its inputs, upper-cases the answer letter and
// rejects records that break the option/answer rules.
func NewParsedQuestion(text string, options [4]string, correct string) (ParsedQuestion, error) {
	q := ParsedQuestion{
		Text:          strings.TrimSpace(text),
		CorrectOption: strings.ToUpper(strings.TrimSpace(correct)),
	}
	for i, opt := range options {
		q.Options[i] = strings.TrimSpace(opt)
	}
	if err := Validate(q); err != nil {
		return ParsedQuestion{}, err
	}
	return q, nil
}

func Validate(q ParsedQuestion) error {
	if strings.TrimSpace(q.Text) == "" {
		return fmt.Errorf("%w: question text is required", ErrInvalidQuestion)
	}
	if q.Options[0] == "" || q.Options[1] == "" {
		return fmt.Errorf("%w: options A and B are required", ErrInvalidQuestion)
	}
	idx := LetterIndex(q.CorrectOption)
	if idx < 0 {
		return fmt.Errorf("%w: correct option must be one of A, B, C, D", ErrInvalidQuestion)
	}
	if q.Options[idx] == "" {
		return fmt.Errorf("%w: correct option %s has no text", ErrInvalidQuestion, Letters[idx])
	}
	return nil
}

// Option returns the text in the given slot, or "" for an unknown letter.
func (q ParsedQuestion) Option(letter string) string {
	idx := LetterIndex(letter)
	if idx < 0 {
		return ""
	}
	return q.Options[idx]
}

// OptionCount counts the non-empty option slots.
func (q ParsedQuestion) OptionCount() int {
	n := 0
	for _, opt := range q.Options {
		if opt != "" {
			n++
		}
	}
	return n
}

// LetterIndex maps A-D (any case) to 0-3 and anything else to -1.
func LetterIndex(letter string) int {
	switch strings.ToUpper(strings.TrimSpace(letter)) {
	case "A":
		return 0
	case "B":
		return 1
	case "C":
		return 2
	case "D":
		return 3
	default:
		return -1
	}
}

// Hint returns user guidance for engine errors, or "" when none applies.
func Hint(err error) string {
	switch {
	case errors.Is(err, ErrNoReadableContent):
		return "The uploaded file contains no readable text content."
	case errors.Is(err, ErrNoQuestionsFound):
		return "Please ensure questions follow the expected format: numbered question, options A-D, and an answer line (e.g., 'Answer: A')."
	case errors.Is(err, ErrInvalidQuestion):
		return "Each question needs text, options A and B, and a correct option that points to a filled slot."
	default:
		return ""
	}
}
