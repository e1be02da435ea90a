package quiz

import (
	"regexp"
	"strings"
)

// Patterns expect "\n" line endings. answerTrailRe is unanchored and only
// ever applied to the last option line, where "D) text Answer: C" is common.
var (
	questionStartRe = regexp.MustCompile(`(?mi)^[ \t]*(?:q(?:uestion)?[ \t]*\d*[ \t]*[:.)]|\d+[ \t]*[.)])`)
	enumeratorRe    = regexp.MustCompile(`(?i)^\s*(?:q(?:uestion)?[ \t]*\d*[ \t]*[:.)]|\d+[ \t]*[.)])`)
	optionLineRe    = regexp.MustCompile(`(?mi)^[ \t]*(?:\(([a-d])\)|([a-d])[ \t]*[.):])[ \t]*(\S.*)$`)
	answerLineRe    = regexp.MustCompile(`(?mi)^[ \t]*(?:correct[ \t]+)?answer[ \t]*[:=-][ \t]*(?:option[ \t]+([a-d])\b|\(([a-d])\)|([a-d])\b)`)
	answerTrailRe   = regexp.MustCompile(`(?i)\b(?:correct[ \t]+)?answer[ \t]*[:=-][ \t]*(?:option[ \t]+([a-d])\b|\(([a-d])\)|([a-d])\b)`)
	answerTailRe    = regexp.MustCompile(`(?i)\s*(?:correct\s+)?answer\s*[:=-].*$`)
	blankLineRe     = regexp.MustCompile(`\n\s*\n`)
)

type optionLine struct {
	start  int
	letter int
	text   string
}

func findOptionLines(block string) []optionLine {
	matches := optionLineRe.FindAllStringSubmatchIndex(block, -1)
	out := make([]optionLine, 0, len(matches))
	for _, m := range matches {
		letter := ""
		if m[2] >= 0 {
			letter = block[m[2]:m[3]]
		} else {
			letter = block[m[4]:m[5]]
		}
		out = append(out, optionLine{
			start:  m[0],
			letter: LetterIndex(letter),
			text:   strings.TrimSpace(block[m[6]:m[7]]),
		})
	}
	return out
}

func findAnswerLetter(block string) string {
	return answerLetter(answerLineRe.FindStringSubmatch(block))
}

func trailingAnswerLetter(line string) string {
	return answerLetter(answerTrailRe.FindStringSubmatch(line))
}

func answerLetter(m []string) string {
	if m == nil {
		return ""
	}
	for _, g := range m[1:] {
		if g != "" {
			return strings.ToUpper(g)
		}
	}
	return ""
}

func hasAsteriskMarker(text string) bool {
	return strings.HasPrefix(text, "*")
}

// stripAsteriskMarker removes "*text" and "*text*" markers.
func stripAsteriskMarker(text string) string {
	if !hasAsteriskMarker(text) {
		return text
	}
	text = strings.TrimPrefix(text, "*")
	text = strings.TrimSuffix(text, "*")
	return strings.TrimSpace(text)
}

func stripEnumerator(text string) string {
	return strings.TrimSpace(enumeratorRe.ReplaceAllString(text, ""))
}

func stripAnswerTail(text string) string {
	return strings.TrimSpace(answerTailRe.ReplaceAllString(text, ""))
}
