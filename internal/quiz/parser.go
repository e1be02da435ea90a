package quiz

import (
	"strings"
)

type Strategy string

const (
	StrategyEnumerated Strategy = "enumerated"
	StrategyBlankLine  Strategy = "blank_line"
)

type ParseResult struct {
	Questions []ParsedQuestion `json:"questions"`
	Strategy  Strategy         `json:"strategy"`
	Blocks    int              `json:"blocks"`
	Skipped   int              `json:"skipped"`
}

// Parse turns extracted document text into validated questions in
// document order. Malformed blocks are dropped silently.
func Parse(text string) ([]ParsedQuestion, error) {
	res, err := ParseDetailed(text)
	if err != nil {
		return nil, err
	}
	return res.Questions, nil
}

// ParseDetailed is Parse plus the block accounting used by upload previews.
func ParseDetailed(text string) (*ParseResult, error) {
	text = strings.ReplaceAll(text, "\r\n", "\n")
	text = strings.ReplaceAll(text, "\r", "\n")
	if strings.TrimSpace(text) == "" {
		return nil, ErrNoReadableContent
	}

	if starts := questionStartRe.FindAllStringIndex(text, -1); len(starts) > 0 {
		res := parseBlocks(enumeratedBlocks(text, starts), StrategyEnumerated)
		if len(res.Questions) > 0 {
			return res, nil
		}
	}

	res := parseBlocks(blankLineBlocks(text), StrategyBlankLine)
	if len(res.Questions) == 0 {
		return nil, ErrNoQuestionsFound
	}
	return res, nil
}

func enumeratedBlocks(text string, starts [][]int) []string {
	blocks := make([]string, 0, len(starts))
	for i, s := range starts {
		end := len(text)
		if i+1 < len(starts) {
			end = starts[i+1][0]
		}
		blocks = append(blocks, text[s[0]:end])
	}
	return blocks
}

func blankLineBlocks(text string) []string {
	chunks := blankLineRe.Split(text, -1)
	blocks := make([]string, 0, len(chunks))
	for _, chunk := range chunks {
		if optionLineRe.MatchString(chunk) {
			blocks = append(blocks, chunk)
		}
	}
	return blocks
}

func parseBlocks(blocks []string, strategy Strategy) *ParseResult {
	res := &ParseResult{
		Questions: make([]ParsedQuestion, 0, len(blocks)),
		Strategy:  strategy,
		Blocks:    len(blocks),
	}
	for _, block := range blocks {
		q, ok := parseBlock(block)
		if !ok {
			res.Skipped++
			continue
		}
		res.Questions = append(res.Questions, q)
	}
	return res
}

func parseBlock(block string) (ParsedQuestion, bool) {
	lines := findOptionLines(block)
	if len(lines) == 0 {
		return ParsedQuestion{}, false
	}

	var options [4]string
	marked := ""
	for _, line := range lines {
		if marked == "" && hasAsteriskMarker(line.text) {
			marked = Letters[line.letter]
		}
		// a repeated letter overwrites the earlier one
		options[line.letter] = stripAsteriskMarker(line.text)
	}

	correct := findAnswerLetter(block[lines[0].start:])
	if correct == "" {
		last := lines[len(lines)-1]
		if correct = trailingAnswerLetter(last.text); correct != "" {
			options[last.letter] = stripAsteriskMarker(stripAnswerTail(last.text))
		}
	}
	if correct == "" {
		correct = marked
	}

	q, err := NewParsedQuestion(stripEnumerator(block[:lines[0].start]), options, correct)
	if err != nil {
		return ParsedQuestion{}, false
	}
	return q, true
}
