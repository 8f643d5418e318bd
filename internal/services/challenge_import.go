package services

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/SAP-F-2025/lesson-service/internal/metrics"
	"github.com/SAP-F-2025/lesson-service/internal/models"
	"github.com/samber/lo"
	"github.com/xuri/excelize/v2"
)

// Workbook columns. A challenge spans one row per question; title, type and
// assignments are read from its first row.
const (
	colChallengeID   = "challenge_id"
	colTitle         = "title"
	colChallengeType = "challenge_type"
	colQuestion      = "question"
	colAnswers       = "answers"
	colFeedbacks     = "feedbacks"
	colSolution      = "solution"
	colAssignments   = "assignments"
	colSuperBlock    = "super_block"
	colBlock         = "block"
	colSlug          = "slug"
	colDescription   = "description"

	listSeparator = "|"
)

var requiredImportColumns = []string{colChallengeID, colTitle, colChallengeType, colQuestion, colAnswers, colSolution}

type importedChallenge struct {
	firstRow int
	failed   bool
	req      *ChallengeRequest
}

func (s *challengeService) ImportFromExcel(ctx context.Context, reader io.Reader) (result *ImportResult, err error) {
	op := s.opLogger.WithOperation(ctx, "import_challenges", "")
	defer func() { op.LogResult("", "challenge", err) }()

	start := time.Now()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	f, err := excelize.OpenReader(bytes.NewReader(data))
	if err != nil {
		return nil, NewValidationError("file", "is not a readable xlsx workbook", nil)
	}
	defer f.Close()

	sheets := f.GetSheetList()
	if len(sheets) == 0 {
		return nil, NewValidationError("file", "Excel file has no sheets", nil)
	}

	rows, err := f.GetRows(sheets[0])
	if err != nil {
		return nil, fmt.Errorf("failed to read Excel rows: %w", err)
	}
	if len(rows) < 2 {
		return nil, ErrImportEmpty
	}

	headerMap := make(map[string]int)
	for i, header := range rows[0] {
		headerMap[strings.ToLower(strings.TrimSpace(header))] = i
	}
	for _, col := range requiredImportColumns {
		if _, ok := headerMap[col]; !ok {
			return nil, NewValidationError("file", fmt.Sprintf("missing column %q", col), nil)
		}
	}

	result = &ImportResult{TotalRows: len(rows) - 1}

	var order []string
	grouped := make(map[string]*importedChallenge)

	for i, row := range rows[1:] {
		rowNum := i + 2
		cell := func(col string) string {
			idx, ok := headerMap[col]
			if !ok || idx >= len(row) {
				return ""
			}
			return strings.TrimSpace(row[idx])
		}

		id := cell(colChallengeID)
		if id == "" {
			if lo.EveryBy(row, func(v string) bool { return strings.TrimSpace(v) == "" }) {
				continue
			}
			result.Errors = append(result.Errors, ImportRowError{Row: rowNum, Column: colChallengeID, Message: "is required"})
			continue
		}

		group, ok := grouped[id]
		if !ok {
			var rowErr *ImportRowError
			group, rowErr = newImportedChallenge(id, rowNum, cell)
			if rowErr != nil {
				result.Errors = append(result.Errors, *rowErr)
				grouped[id] = &importedChallenge{firstRow: rowNum, failed: true}
				order = append(order, id)
				continue
			}
			grouped[id] = group
			order = append(order, id)
		}
		if group.failed {
			continue
		}

		question, rowErr := parseImportQuestion(rowNum, cell)
		if rowErr != nil {
			result.Errors = append(result.Errors, *rowErr)
			group.failed = true
			continue
		}
		group.req.Questions = append(group.req.Questions, *question)
		result.ProcessedRows++
	}

	var challenges []*models.Challenge
	for _, id := range order {
		group := grouped[id]
		if group.failed {
			continue
		}
		challenge, buildErr := s.buildChallenge(group.req)
		if buildErr != nil {
			result.Errors = append(result.Errors, importErrorsFrom(group.firstRow, buildErr)...)
			continue
		}
		challenges = append(challenges, challenge)
	}

	metrics.ObserveImport(len(challenges), len(order)-len(challenges))

	if len(challenges) == 0 {
		if len(result.Errors) == 0 {
			return nil, ErrImportEmpty
		}
		result.ProcessingTime = time.Since(start)
		return result, nil
	}

	if err = s.repo.Upsert(ctx, challenges); err != nil {
		return nil, fmt.Errorf("failed to save imported challenges: %w", err)
	}

	for _, c := range challenges {
		s.evict(ctx, c.ID)
		result.ChallengeIDs = append(result.ChallengeIDs, c.ID)
	}
	result.ProcessingTime = time.Since(start)

	s.logger.Info("Excel import completed",
		"total_rows", result.TotalRows,
		"processed_rows", result.ProcessedRows,
		"challenge_count", len(result.ChallengeIDs),
		"error_count", len(result.Errors))

	return result, nil
}

func newImportedChallenge(id string, rowNum int, cell func(string) string) (*importedChallenge, *ImportRowError) {
	challengeType, err := strconv.Atoi(cell(colChallengeType))
	if err != nil {
		return nil, &ImportRowError{Row: rowNum, Column: colChallengeType, Message: "must be a number"}
	}

	req := &ChallengeRequest{
		ID:            id,
		Title:         cell(colTitle),
		ChallengeType: models.ChallengeType(challengeType),
		Description:   cell(colDescription),
		SuperBlock:    cell(colSuperBlock),
		Block:         cell(colBlock),
		Slug:          cell(colSlug),
		Assignments:   splitList(cell(colAssignments)),
	}
	return &importedChallenge{firstRow: rowNum, req: req}, nil
}

func parseImportQuestion(rowNum int, cell func(string) string) (*models.Question, *ImportRowError) {
	text := cell(colQuestion)
	if text == "" {
		return nil, &ImportRowError{Row: rowNum, Column: colQuestion, Message: "is required"}
	}

	answers := splitCells(cell(colAnswers))
	if len(answers) == 0 {
		return nil, &ImportRowError{Row: rowNum, Column: colAnswers, Message: "needs at least one answer"}
	}
	if i := lo.IndexOf(answers, ""); i >= 0 {
		return nil, &ImportRowError{Row: rowNum, Column: colAnswers, Message: fmt.Sprintf("answer %d is empty", i+1)}
	}

	feedbacks := splitCells(cell(colFeedbacks))
	if len(feedbacks) > len(answers) {
		return nil, &ImportRowError{Row: rowNum, Column: colFeedbacks, Message: "has more entries than answers"}
	}

	solution, err := strconv.Atoi(cell(colSolution))
	if err != nil {
		return nil, &ImportRowError{Row: rowNum, Column: colSolution, Message: "must be a number"}
	}
	if solution < 1 || solution > len(answers) {
		return nil, &ImportRowError{Row: rowNum, Column: colSolution, Message: fmt.Sprintf("must be between 1 and %d", len(answers))}
	}

	return &models.Question{
		Text: text,
		Answers: lo.Map(answers, func(a string, i int) models.Answer {
			answer := models.Answer{Answer: a}
			if i < len(feedbacks) {
				answer.Feedback = feedbacks[i]
			}
			return answer
		}),
		Solution: solution,
	}, nil
}

func importErrorsFrom(row int, err error) []ImportRowError {
	var errs ValidationErrors
	if errors.As(err, &errs) {
		return lo.Map(errs, func(ve ValidationError, _ int) ImportRowError {
			return ImportRowError{Row: row, Column: ve.Field, Message: ve.Message}
		})
	}
	return []ImportRowError{{Row: row, Message: err.Error()}}
}

// splitCells splits a "|" separated cell keeping empty entries, so the n-th
// feedback stays paired with the n-th answer.
func splitCells(value string) []string {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return lo.Map(strings.Split(value, listSeparator), func(p string, _ int) string {
		return strings.TrimSpace(p)
	})
}

// splitList splits a "|" separated cell, dropping empty entries.
func splitList(value string) []string {
	return lo.Compact(splitCells(value))
}
