package quizbank

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/xuri/excelize/v2"
	"go.uber.org/zap"

	"learnportal/internal/extract"
	"learnportal/internal/quiz"
)

var sheetColumns = []string{"question", "option_a", "option_b", "option_c", "option_d", "correct_option"}

var headerAliases = map[string]string{
	"question_text": "question",
	"answer":        "correct_option",
	"correct":       "correct_option",
	"a":             "option_a",
	"b":             "option_b",
	"c":             "option_c",
	"d":             "option_d",
}

type SheetRowError struct {
	Row   int    `json:"row"`
	Error string `json:"error"`
}

type SheetImportReport struct {
	TotalRows   int             `json:"total_rows"`
	SuccessRows int             `json:"success_rows"`
	FailedRows  int             `json:"failed_rows"`
	Errors      []SheetRowError `json:"errors"`
}

type SheetImportResult struct {
	Quiz   *Quiz              `json:"quiz"`
	Report *SheetImportReport `json:"report"`
}

// ImportSheet stores the valid rows of an xlsx or csv sheet as a new quiz.
func (s *Service) ImportSheet(ctx context.Context, moduleID int64, title, fileName string, data []byte) (*SheetImportResult, error) {
	if moduleID <= 0 {
		return nil, fmt.Errorf("%w: module id must be positive", ErrInvalidInput)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: uploaded file is empty", ErrInvalidInput)
	}
	if err := CheckUploadSize(int64(len(data)), s.cfg.MaxUploadMB); err != nil {
		return nil, err
	}

	rows, err := readSheetRows(fileName, data)
	if err != nil {
		return nil, err
	}
	questions, report, err := parseSheetRows(rows)
	if err != nil {
		return nil, err
	}

	created, err := s.store.CreateQuiz(ctx, NewQuiz{
		ModuleID:    moduleID,
		Title:       defaultString(title, DefaultQuizTitle),
		Description: "Imported from " + fileName,
		Questions:   questions,
		CreatedAt:   s.now(),
	})
	if err != nil {
		return nil, err
	}
	s.log.Info("quiz sheet imported",
		zap.Int64("module_id", moduleID),
		zap.Int64("quiz_id", created.ID),
		zap.Int("success_rows", report.SuccessRows),
		zap.Int("failed_rows", report.FailedRows),
	)
	return &SheetImportResult{Quiz: created, Report: report}, nil
}

// ExportQuiz renders a stored quiz with the import column layout.
func (s *Service) ExportQuiz(ctx context.Context, quizID int64) ([]byte, string, error) {
	qz, err := s.GetQuiz(ctx, quizID)
	if err != nil {
		return nil, "", err
	}

	f := excelize.NewFile()
	defer func() { _ = f.Close() }()
	sheet := f.GetSheetName(0)
	for i, h := range sheetColumns {
		cell, _ := excelize.CoordinatesToCellName(i+1, 1)
		_ = f.SetCellValue(sheet, cell, h)
	}
	for i, q := range qz.Questions {
		row := i + 2
		values := []any{q.Text, q.Options[0], q.Options[1], q.Options[2], q.Options[3], q.CorrectOption}
		for col, v := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			_ = f.SetCellValue(sheet, cell, v)
		}
	}
	_ = f.SetColWidth(sheet, "A", "A", 60)
	_ = f.SetColWidth(sheet, "B", "F", 24)

	var buf bytes.Buffer
	if err := f.Write(&buf); err != nil {
		return nil, "", fmt.Errorf("write excel: %w", err)
	}
	return buf.Bytes(), fmt.Sprintf("quiz-%d.xlsx", qz.ID), nil
}

func readSheetRows(fileName string, data []byte) ([][]string, error) {
	switch ext := extract.Extension(fileName); ext {
	case "xlsx":
		f, err := excelize.OpenReader(bytes.NewReader(data))
		if err != nil {
			return nil, fmt.Errorf("%w: open excel: %v", ErrSheetInvalid, err)
		}
		defer func() { _ = f.Close() }()

		sheets := f.GetSheetList()
		if len(sheets) == 0 {
			return nil, fmt.Errorf("%w: excel sheet is empty", ErrSheetInvalid)
		}
		rows, err := f.GetRows(sheets[0])
		if err != nil {
			return nil, fmt.Errorf("%w: read rows: %v", ErrSheetInvalid, err)
		}
		return rows, nil
	case "csv":
		reader := csv.NewReader(bytes.NewReader(data))
		reader.TrimLeadingSpace = true
		reader.FieldsPerRecord = -1
		var rows [][]string
		for {
			rec, err := reader.Read()
			if errors.Is(err, io.EOF) {
				break
			}
			if err != nil {
				return nil, fmt.Errorf("%w: read csv: %v", ErrSheetInvalid, err)
			}
			rows = append(rows, rec)
		}
		return rows, nil
	default:
		return nil, fmt.Errorf("%w: .%s (supported: xlsx, csv)", extract.ErrUnsupportedFormat, ext)
	}
}

func parseSheetRows(rows [][]string) ([]quiz.ParsedQuestion, *SheetImportReport, error) {
	if len(rows) < 2 {
		return nil, nil, fmt.Errorf("%w: no data rows found", ErrSheetInvalid)
	}

	index := make(map[string]int, len(rows[0]))
	for i, h := range rows[0] {
		n := normalizeHeader(h)
		if alias, ok := headerAliases[n]; ok {
			n = alias
		}
		if _, dup := index[n]; n != "" && !dup {
			index[n] = i
		}
	}
	for _, col := range []string{"question", "option_a", "option_b", "correct_option"} {
		if _, ok := index[col]; !ok {
			return nil, nil, fmt.Errorf("%w: missing required column: %s", ErrSheetInvalid, col)
		}
	}

	report := &SheetImportReport{Errors: make([]SheetRowError, 0)}
	questions := make([]quiz.ParsedQuestion, 0, len(rows)-1)
	for i := 1; i < len(rows); i++ {
		rec := rows[i]
		if isRowEmpty(rec) {
			continue
		}
		report.TotalRows++

		q, err := quiz.NewParsedQuestion(
			cell(rec, index, "question"),
			[4]string{
				cell(rec, index, "option_a"),
				cell(rec, index, "option_b"),
				cell(rec, index, "option_c"),
				cell(rec, index, "option_d"),
			},
			cell(rec, index, "correct_option"),
		)
		if err != nil {
			report.FailedRows++
			report.Errors = append(report.Errors, SheetRowError{Row: i + 1, Error: err.Error()})
			continue
		}
		report.SuccessRows++
		questions = append(questions, q)
	}

	if len(questions) == 0 {
		return nil, report, fmt.Errorf("%w: no valid rows", ErrSheetInvalid)
	}
	return questions, report, nil
}

func normalizeHeader(h string) string {
	h = strings.ToLower(strings.TrimSpace(h))
	h = strings.TrimPrefix(h, "\ufeff")
	h = strings.ReplaceAll(h, "-", "_")
	h = strings.ReplaceAll(h, " ", "_")
	return h
}

func cell(rec []string, idx map[string]int, key string) string {
	i, ok := idx[key]
	if !ok || i < 0 || i >= len(rec) {
		return ""
	}
	return strings.TrimSpace(rec[i])
}

func isRowEmpty(rec []string) bool {
	for _, c := range rec {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}
