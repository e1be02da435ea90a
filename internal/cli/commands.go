package cli

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"learnportal/internal/extract"
	"learnportal/internal/quiz"
)

var errBadAnswers = errors.New("invalid answers")

type parseOutput struct {
	Strategy  quiz.Strategy         `json:"strategy"`
	Count     int                   `json:"count"`
	Skipped   int                   `json:"skipped"`
	Questions []quiz.ParsedQuestion `json:"questions"`
}

func newParseCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "parse <file>",
		Short: "Print the questions found in a document as JSON",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			res, _, err := parseFile(cmd, args[0])
			if err != nil {
				return err
			}
			return writeJSON(cmd.OutOrStdout(), parseOutput{
				Strategy:  res.Strategy,
				Count:     len(res.Questions),
				Skipped:   res.Skipped,
				Questions: res.Questions,
			})
		},
	}
}

func newExtractCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "extract <files...>",
		Short: "Print the combined text of one or more documents",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			docs := make([]extract.Document, 0, len(args))
			for _, path := range args {
				doc, err := readDocument(cmd, path)
				if err != nil {
					return err
				}
				docs = append(docs, doc)
			}
			text, warnings, err := extract.ExtractAll(docs, maxSizeMB(cmd)*1024*1024)
			if err != nil {
				return err
			}
			for _, w := range warnings {
				fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", w)
			}
			if text == "" {
				return extract.ErrExtractionFailed
			}
			fmt.Fprintln(cmd.OutOrStdout(), text)
			return nil
		},
	}
}

func newAttemptCmd() *cobra.Command {
	var (
		count  int
		seed   uint64
		reveal bool
	)
	cmd := &cobra.Command{
		Use:   "attempt <file>",
		Short: "Build a randomized attempt from a document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			_, pool, err := parseFile(cmd, args[0])
			if err != nil {
				return err
			}
			rng := quiz.NewRand()
			if cmd.Flags().Changed("seed") {
				rng = quiz.NewSeededRand(seed)
			}
			attempt, ok := quiz.BuildAttempt(pool, count, rng)
			if !ok {
				return quiz.ErrNoQuestionsFound
			}
			if !reveal {
				attempt = attempt.Redacted()
			}
			return writeJSON(cmd.OutOrStdout(), attempt)
		},
	}
	cmd.Flags().IntVar(&count, "count", quiz.DefaultAttemptSize, "Number of questions to draw")
	cmd.Flags().Uint64Var(&seed, "seed", 0, "Seed for a reproducible attempt")
	cmd.Flags().BoolVar(&reveal, "reveal", false, "Include the correct option in the output")
	return cmd
}

func newGradeCmd() *cobra.Command {
	var answers string
	cmd := &cobra.Command{
		Use:   "grade <file>",
		Short: "Grade answers against the questions of a document",
		Long:  "Answers are given as question-number=letter pairs, e.g. --answers 1=A,2=C. Numbers follow document order.",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			selected, err := parseAnswers(answers)
			if err != nil {
				return err
			}
			_, pool, err := parseFile(cmd, args[0])
			if err != nil {
				return err
			}
			res := quiz.Grade(pool, selected)
			return writeJSON(cmd.OutOrStdout(), res)
		},
	}
	cmd.Flags().StringVar(&answers, "answers", "", "Comma separated number=letter pairs")
	return cmd
}

func parseAnswers(raw string) (map[int64]string, error) {
	out := make(map[int64]string)
	for _, pair := range strings.Split(raw, ",") {
		pair = strings.TrimSpace(pair)
		if pair == "" {
			continue
		}
		num, letter, ok := strings.Cut(pair, "=")
		if !ok {
			return nil, fmt.Errorf("%w: %q is not number=letter", errBadAnswers, pair)
		}
		id, err := strconv.ParseInt(strings.TrimSpace(num), 10, 64)
		if err != nil || id < 1 {
			return nil, fmt.Errorf("%w: bad question number %q", errBadAnswers, num)
		}
		out[id] = strings.ToUpper(strings.TrimSpace(letter))
	}
	return out, nil
}
