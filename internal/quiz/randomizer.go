package quiz

import (
	"math/rand/v2"
)

const DefaultAttemptSize = 10

// AttemptQuestion is a per-attempt view of a pool question. Its option
// order and CorrectOption are only meaningful inside the attempt.
// OptionKeys[i] is the canonical letter of the option shown in slot i;
// submissions answer with these keys.
type AttemptQuestion struct {
	ID            int64     `json:"question_id"`
	Text          string    `json:"question_text"`
	Options       [4]string `json:"options"`
	OptionKeys    [4]string `json:"option_keys"`
	CorrectOption string    `json:"correct_option,omitempty"`
}

// CanonicalLetter translates a letter shown in this view back to the
// canonical letter, or "" when the slot is empty or unknown.
func (q AttemptQuestion) CanonicalLetter(shown string) string {
	idx := LetterIndex(shown)
	if idx < 0 {
		return ""
	}
	return q.OptionKeys[idx]
}

type Attempt struct {
	ID        string            `json:"attempt_id,omitempty"`
	Title     string            `json:"title"`
	Questions []AttemptQuestion `json:"questions"`
}

// QuestionIDs returns the presented question identifiers in order.
func (a *Attempt) QuestionIDs() []int64 {
	ids := make([]int64, len(a.Questions))
	for i, q := range a.Questions {
		ids[i] = q.ID
	}
	return ids
}

// Redacted returns a copy without answer letters, for sending to learners.
func (a *Attempt) Redacted() *Attempt {
	out := &Attempt{ID: a.ID, Title: a.Title, Questions: make([]AttemptQuestion, len(a.Questions))}
	for i, q := range a.Questions {
		q.CorrectOption = ""
		out.Questions[i] = q
	}
	return out
}

// NewRand returns a generator seeded from the runtime source.
func NewRand() *rand.Rand {
	return rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
}

// NewSeededRand returns a reproducible generator for tests and the CLI.
func NewSeededRand(seed uint64) *rand.Rand {
	return rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))
}

// BuildAttempt samples min(count, len(pool)) distinct questions without
// replacement and shuffles each question's options. A count below 1 falls
// back to DefaultAttemptSize. It reports false when the pool is empty.
// The pool is never modified.
func BuildAttempt(pool []PoolQuestion, count int, rng *rand.Rand) (*Attempt, bool) {
	if len(pool) == 0 {
		return nil, false
	}
	if count < 1 {
		count = DefaultAttemptSize
	}
	if rng == nil {
		rng = NewRand()
	}

	order := rng.Perm(len(pool))
	n := min(count, len(pool))
	attempt := &Attempt{
		Title:     "Random Quiz",
		Questions: make([]AttemptQuestion, 0, n),
	}
	for _, idx := range order[:n] {
		attempt.Questions = append(attempt.Questions, shuffleOptions(pool[idx], rng))
	}
	return attempt, true
}

func shuffleOptions(q PoolQuestion, rng *rand.Rand) AttemptQuestion {
	view := AttemptQuestion{
		ID:            q.ID,
		Text:          q.Text,
		Options:       q.Options,
		CorrectOption: q.CorrectOption,
	}

	type slot struct {
		from int
		text string
	}
	present := make([]slot, 0, len(q.Options))
	for i, text := range q.Options {
		if text != "" {
			present = append(present, slot{from: i, text: text})
			view.OptionKeys[i] = Letters[i]
		}
	}
	if len(present) < 2 {
		return view
	}

	rng.Shuffle(len(present), func(i, j int) {
		present[i], present[j] = present[j], present[i]
	})

	correct := LetterIndex(q.CorrectOption)
	view.Options = [4]string{}
	view.OptionKeys = [4]string{}
	view.CorrectOption = ""
	for i, s := range present {
		view.Options[i] = s.text
		view.OptionKeys[i] = Letters[s.from]
		if s.from == correct {
			view.CorrectOption = Letters[i]
		}
	}
	return view
}
