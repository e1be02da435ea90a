// Package cli implements the quizctl operator commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"learnportal/internal/extract"
	"learnportal/internal/quiz"
	"learnportal/internal/quizbank"
)

const defaultMaxSizeMB = 50

// NewRootCmd builds a fresh command tree so tests can run commands in isolation.
func NewRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "quizctl",
		Short:         "Parse, randomize and grade quiz documents",
		Long:          "quizctl turns PDF, DOCX, PPTX or text documents into multiple-choice questions and works with them offline.",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().Int64("max-size-mb", defaultMaxSizeMB, "Maximum input size in megabytes")

	root.AddCommand(newParseCmd())
	root.AddCommand(newExtractCmd())
	root.AddCommand(newAttemptCmd())
	root.AddCommand(newGradeCmd())
	return root
}

// Execute runs quizctl against os.Args.
func Execute() error {
	root := NewRootCmd()
	err := root.Execute()
	if err != nil {
		fmt.Fprintf(root.ErrOrStderr(), "quizctl: %v\n", err)
		if hint := quiz.Hint(err); hint != "" {
			fmt.Fprintln(root.ErrOrStderr(), hint)
		}
	}
	return err
}

func maxSizeMB(cmd *cobra.Command) int64 {
	mb, _ := cmd.Flags().GetInt64("max-size-mb")
	if mb <= 0 {
		return defaultMaxSizeMB
	}
	return mb
}

func readDocument(cmd *cobra.Command, path string) (extract.Document, error) {
	info, err := os.Stat(path)
	if err != nil {
		return extract.Document{}, err
	}
	if err := quizbank.CheckUploadSize(info.Size(), maxSizeMB(cmd)); err != nil {
		return extract.Document{}, err
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return extract.Document{}, err
	}
	return extract.Document{Name: filepath.Base(path), Data: data}, nil
}

// parseFile extracts and parses one document, numbering questions from 1 so
// they can be addressed positionally.
func parseFile(cmd *cobra.Command, path string) (*quiz.ParseResult, []quiz.PoolQuestion, error) {
	doc, err := readDocument(cmd, path)
	if err != nil {
		return nil, nil, err
	}
	text, err := extract.Extract(doc)
	if err != nil {
		return nil, nil, err
	}
	res, err := quiz.ParseDetailed(text)
	if err != nil {
		return nil, nil, err
	}
	pool := make([]quiz.PoolQuestion, len(res.Questions))
	for i, q := range res.Questions {
		pool[i] = quiz.PoolQuestion{ID: int64(i + 1), ParsedQuestion: q}
	}
	return res, pool, nil
}

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
