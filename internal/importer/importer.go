// Package importer loads the legacy spreadsheet CSV exports into the store.
// Bad rows are logged and skipped; a malformed line never aborts the batch.
package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/feldgrau-labs/chesstrack/backend/internal/activities"
	"github.com/feldgrau-labs/chesstrack/backend/internal/mistakes"
	"go.uber.org/zap"
)

// legacyDateLayout is the DD/MM/YYYY format used by the spreadsheet exports.
const legacyDateLayout = "02/01/2006"

var errMissingServices = errors.New("importer: activity and mistake services are required")

// ServiceConfig describes the dependencies for the import service.
type ServiceConfig struct {
	Activities *activities.Service
	Mistakes   *mistakes.Service
	Logger     *zap.Logger
}

// Service turns legacy CSV exports into stored rows.
type Service struct {
	activities *activities.Service
	mistakes   *mistakes.Service
	logger     *zap.Logger
}

// NewService constructs the import service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Activities == nil || cfg.Mistakes == nil {
		return nil, errMissingServices
	}
	logger := cfg.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Service{activities: cfg.Activities, mistakes: cfg.Mistakes, logger: logger}, nil
}

// Result reports how a batch fared.
type Result struct {
	Inserted int
	Skipped  int
}

// ImportActivities loads the activity spreadsheet export. The file starts
// with a decorative line of empty cells, then the header
// Date,Week,Category,Minutes,Details,Hours; the trailing hours column is a
// spreadsheet formula and is ignored.
func (s *Service) ImportActivities(ctx context.Context, r io.Reader) (Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := readAll(reader)
	if err != nil {
		return Result{}, fmt.Errorf("importer: reading activities csv: %w", err)
	}

	if len(records) > 0 {
		records = records[1:]
	}
	if len(records) > 0 && strings.EqualFold(strings.TrimSpace(records[0][0]), "Date") {
		records = records[1:]
	}

	result := Result{}
	for lineIndex, record := range records {
		if len(record) < 4 || strings.TrimSpace(record[0]) == "" {
			result.Skipped++
			continue
		}

		date, err := parseLegacyDate(record[0])
		if err != nil {
			s.logger.Warn("skipping activity row with bad date",
				zap.Int("row", lineIndex), zap.String("date", record[0]))
			result.Skipped++
			continue
		}

		week, weekErr := parseSpreadsheetInt(record[1])
		minutes, minutesErr := parseSpreadsheetInt(record[3])
		if weekErr != nil || minutesErr != nil {
			s.logger.Warn("skipping activity row with non-numeric fields",
				zap.Int("row", lineIndex),
				zap.String("week", record[1]),
				zap.String("minutes", record[3]))
			result.Skipped++
			continue
		}

		request := activities.CreateRequest{
			Date:     date,
			Week:     week,
			Category: strings.TrimSpace(record[2]),
			Minutes:  minutes,
		}
		if len(record) > 4 {
			request.Details = optionalString(record[4])
		}

		if _, err := s.activities.Create(ctx, request); err != nil {
			s.logger.Warn("skipping activity row rejected by store",
				zap.Int("row", lineIndex), zap.Error(err))
			result.Skipped++
			continue
		}
		result.Inserted++
	}

	s.logger.Info("activity import finished",
		zap.Int("inserted", result.Inserted), zap.Int("skipped", result.Skipped))
	return result, nil
}

// mistakeColumnNames maps the spreadsheet headers, curly quotes included,
// onto stored column names.
var mistakeColumnNames = map[string]string{
	"Date Played":      "date",
	"Game Type":        "game_type",
	"Time Control":     "time_control",
	"Opponent Name":    "opponent_name",
	"Opponent Rating":  "opponent_rating",
	"Result":           "result",
	"Move number":      "move_number",
	"Mistake Category": "mistake_category",
	"“Got It Wrong” vs “Didn’t See It”": "cause",
	"One-sentence fix":                  "fix",
	"Training prescription":             "training",
	"URL or OTB":                        "url",
	"Annotations (Check)":               "annotations",
}

// ImportMistakes loads the game-mistake spreadsheet export. Columns are
// located by header name, so column order in the sheet does not matter.
func (s *Service) ImportMistakes(ctx context.Context, r io.Reader) (Result, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1

	records, err := readAll(reader)
	if err != nil {
		return Result{}, fmt.Errorf("importer: reading mistakes csv: %w", err)
	}
	if len(records) == 0 {
		return Result{}, nil
	}

	columns := make(map[string]int)
	for position, header := range records[0] {
		if name, known := mistakeColumnNames[strings.TrimSpace(header)]; known {
			columns[name] = position
		}
	}
	if _, present := columns["date"]; !present {
		return Result{}, fmt.Errorf("importer: mistakes csv is missing the %q column", "Date Played")
	}

	result := Result{}
	for lineIndex, record := range records[1:] {
		raw := fieldValue(record, columns, "date")
		if strings.TrimSpace(raw) == "" {
			result.Skipped++
			continue
		}

		date, err := parseLegacyDate(raw)
		if err != nil {
			s.logger.Warn("skipping mistake row with bad date",
				zap.Int("row", lineIndex), zap.String("date", raw))
			result.Skipped++
			continue
		}

		request := mistakes.CreateRequest{
			Date:            date,
			GameType:        optionalString(fieldValue(record, columns, "game_type")),
			TimeControl:     optionalString(fieldValue(record, columns, "time_control")),
			OpponentName:    optionalString(fieldValue(record, columns, "opponent_name")),
			OpponentRating:  s.optionalInt(fieldValue(record, columns, "opponent_rating"), lineIndex, "opponent_rating"),
			Result:          optionalString(fieldValue(record, columns, "result")),
			MoveNumber:      s.optionalInt(fieldValue(record, columns, "move_number"), lineIndex, "move_number"),
			MistakeCategory: optionalString(fieldValue(record, columns, "mistake_category")),
			Cause:           optionalString(fieldValue(record, columns, "cause")),
			Fix:             optionalString(fieldValue(record, columns, "fix")),
			Training:        optionalString(fieldValue(record, columns, "training")),
			URL:             optionalString(fieldValue(record, columns, "url")),
			Annotations:     optionalString(fieldValue(record, columns, "annotations")),
		}

		if _, err := s.mistakes.Create(ctx, request); err != nil {
			s.logger.Warn("skipping mistake row rejected by store",
				zap.Int("row", lineIndex), zap.Error(err))
			result.Skipped++
			continue
		}
		result.Inserted++
	}

	s.logger.Info("mistake import finished",
		zap.Int("inserted", result.Inserted), zap.Int("skipped", result.Skipped))
	return result, nil
}

func readAll(reader *csv.Reader) ([][]string, error) {
	var records [][]string
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			return records, nil
		}
		if err != nil {
			return nil, err
		}
		records = append(records, record)
	}
}

func parseLegacyDate(value string) (string, error) {
	parsed, err := time.Parse(legacyDateLayout, strings.TrimSpace(value))
	if err != nil {
		return "", err
	}
	return parsed.Format("2006-01-02"), nil
}

// parseSpreadsheetInt accepts both "36" and the "36.0" float rendering that
// spreadsheets produce for numeric columns.
func parseSpreadsheetInt(value string) (int, error) {
	trimmed := strings.TrimSpace(value)
	if parsed, err := strconv.Atoi(trimmed); err == nil {
		return parsed, nil
	}
	parsed, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return 0, err
	}
	return int(parsed), nil
}

func optionalString(value string) *string {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	return &trimmed
}

// optionalInt drops unparseable numerics instead of dropping the row: the
// sheet mixes ratings like "1500" with annotations like "~1500?".
func (s *Service) optionalInt(value string, row int, field string) *int {
	trimmed := strings.TrimSpace(value)
	if trimmed == "" {
		return nil
	}
	parsed, err := parseSpreadsheetInt(trimmed)
	if err != nil {
		s.logger.Warn("dropping non-numeric field",
			zap.Int("row", row), zap.String("field", field), zap.String("value", trimmed))
		return nil
	}
	return &parsed
}

func fieldValue(record []string, columns map[string]int, name string) string {
	position, present := columns[name]
	if !present || position >= len(record) {
		return ""
	}
	return record[position]
}
