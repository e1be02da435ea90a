package quizbank

import (
	"encoding/hex"
	"sort"
	"strings"

	"golang.org/x/crypto/blake2b"

	"learnportal/internal/quiz"
)

// Fingerprint identifies a question by content, ignoring case, spacing and
// option order, so the same question uploaded twice is drawn once.
func Fingerprint(q quiz.ParsedQuestion) string {
	opts := make([]string, 0, len(q.Options))
	for _, o := range q.Options {
		if o = canonicalText(o); o != "" {
			opts = append(opts, o)
		}
	}
	sort.Strings(opts)

	var sb strings.Builder
	sb.WriteString(canonicalText(q.Text))
	for _, o := range opts {
		sb.WriteByte(0)
		sb.WriteString(o)
	}
	sb.WriteByte(0)
	sb.WriteString(canonicalText(q.Option(q.CorrectOption)))

	sum := blake2b.Sum256([]byte(sb.String()))
	return hex.EncodeToString(sum[:16])
}

func canonicalText(s string) string {
	return strings.ToLower(strings.Join(strings.Fields(s), " "))
}
