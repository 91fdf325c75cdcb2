package mistakes

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/gorm"
)

var (
	errMissingDatabase = errors.New("database handle is required")
	// ErrNotFound indicates an operation that targeted an absent row.
	ErrNotFound = errors.New("mistakes: not found")

	noOpLogger = zap.NewNop()
)

// ServiceError carries a dotted operation code alongside the underlying cause.
type ServiceError struct {
	code string
	err  error
}

func (e *ServiceError) Error() string {
	if e.err == nil {
		return e.code
	}
	return fmt.Sprintf("%s: %v", e.code, e.err)
}

func (e *ServiceError) Unwrap() error {
	return e.err
}

// Code exposes the dotted operation code for transport-level mapping.
func (e *ServiceError) Code() string {
	return e.code
}

const (
	opServiceNew = "mistakes.service.new"
	opList       = "mistakes.list"
	opGet        = "mistakes.get"
	opCreate     = "mistakes.create"
	opDelete     = "mistakes.delete"
	opStats      = "mistakes.stats"
	opExport     = "mistakes.export"
)

func newServiceError(operation, reason string, cause error) error {
	return &ServiceError{code: fmt.Sprintf("%s.%s", operation, reason), err: cause}
}

// ServiceConfig describes the dependencies for the mistake service.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service owns reads and writes against the mistakes table.
type Service struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewService constructs the mistake service.
func NewService(cfg ServiceConfig) (*Service, error) {
	if cfg.Database == nil {
		return nil, newServiceError(opServiceNew, "missing_database", errMissingDatabase)
	}

	clock := cfg.Clock
	if clock == nil {
		clock = time.Now
	}

	logger := cfg.Logger
	if logger == nil {
		logger = noOpLogger
	}

	return &Service{db: cfg.Database, clock: clock, logger: logger}, nil
}

// ListResult pairs a page of rows with the unfiltered total row count.
type ListResult struct {
	Mistakes   []Mistake
	TotalCount int64
}

// List returns mistakes ordered newest first (date, then id, descending).
func (s *Service) List(ctx context.Context, limit, offset int) (ListResult, error) {
	var total int64
	if err := s.db.WithContext(ctx).Model(&Mistake{}).Count(&total).Error; err != nil {
		return ListResult{}, newServiceError(opList, "count_failed", err)
	}

	rows := make([]Mistake, 0)
	err := s.db.WithContext(ctx).Model(&Mistake{}).
		Order("date DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return ListResult{}, newServiceError(opList, "query_failed", err)
	}

	return ListResult{Mistakes: rows, TotalCount: total}, nil
}

// Create validates the payload, stores it, and returns the stored row.
func (s *Service) Create(ctx context.Context, request CreateRequest) (Mistake, error) {
	if err := request.Validate(); err != nil {
		return Mistake{}, newServiceError(opCreate, "invalid_payload", err)
	}

	row := Mistake{
		Date:            request.Date,
		GameType:        request.GameType,
		TimeControl:     request.TimeControl,
		OpponentName:    request.OpponentName,
		OpponentRating:  request.OpponentRating,
		Result:          request.Result,
		MoveNumber:      request.MoveNumber,
		MistakeCategory: request.MistakeCategory,
		Cause:           request.Cause,
		Fix:             request.Fix,
		Training:        request.Training,
		URL:             request.URL,
		Annotations:     request.Annotations,
		CreatedAt:       s.clock().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return Mistake{}, newServiceError(opCreate, "insert_failed", err)
	}

	s.logger.Debug("mistake recorded", zap.Int64("id", row.ID), zap.String("date", row.Date))
	return row, nil
}

// Get fetches a single mistake by id.
func (s *Service) Get(ctx context.Context, id int64) (Mistake, error) {
	var row Mistake
	err := s.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Mistake{}, newServiceError(opGet, "not_found", ErrNotFound)
	}
	if err != nil {
		return Mistake{}, newServiceError(opGet, "query_failed", err)
	}
	return row, nil
}

// Delete hard-deletes a mistake. Deleting an absent id yields ErrNotFound.
func (s *Service) Delete(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Delete(&Mistake{}, id)
	if result.Error != nil {
		return newServiceError(opDelete, "delete_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return newServiceError(opDelete, "not_found", ErrNotFound)
	}
	return nil
}

// CategoryCount is one mistake category's row count.
type CategoryCount struct {
	MistakeCategory string `gorm:"column:mistake_category" json:"mistake_category"`
	Count           int64  `gorm:"column:count" json:"count"`
}

// ResultCount is one game result's row count.
type ResultCount struct {
	Result string `gorm:"column:result" json:"result"`
	Count  int64  `gorm:"column:count" json:"count"`
}

// Stats holds both mistake distributions. Rows with a NULL category or
// result are excluded from the respective distribution, not bucketed as
// unknown; they still count toward list totals.
type Stats struct {
	MistakeDistribution []CategoryCount `json:"mistake_distribution"`
	ResultDistribution  []ResultCount   `json:"result_distribution"`
}

// Stats computes the category and result distributions.
func (s *Service) Stats(ctx context.Context) (Stats, error) {
	categories := make([]CategoryCount, 0)
	err := s.db.WithContext(ctx).Model(&Mistake{}).
		Select("mistake_category, COUNT(*) AS count").
		Where("mistake_category IS NOT NULL").
		Group("mistake_category").
		Scan(&categories).Error
	if err != nil {
		return Stats{}, newServiceError(opStats, "category_counts_failed", err)
	}

	results := make([]ResultCount, 0)
	err = s.db.WithContext(ctx).Model(&Mistake{}).
		Select("result, COUNT(*) AS count").
		Where("result IS NOT NULL").
		Group("result").
		Scan(&results).Error
	if err != nil {
		return Stats{}, newServiceError(opStats, "result_counts_failed", err)
	}

	return Stats{MistakeDistribution: categories, ResultDistribution: results}, nil
}

// ExportRows returns every stored column as the header plus all rows as CSV
// fields, newest first. The header is sourced from the live table schema;
// an empty table yields no header and no rows.
func (s *Service) ExportRows(ctx context.Context) ([]string, [][]string, error) {
	rows, err := s.db.WithContext(ctx).Raw("SELECT * FROM mistakes ORDER BY date DESC, id DESC").Rows()
	if err != nil {
		return nil, nil, newServiceError(opExport, "query_failed", err)
	}
	defer rows.Close()

	columns, err := rows.Columns()
	if err != nil {
		return nil, nil, newServiceError(opExport, "columns_failed", err)
	}

	var records [][]string
	for rows.Next() {
		values := make([]any, len(columns))
		pointers := make([]any, len(columns))
		for i := range values {
			pointers[i] = &values[i]
		}
		if err := rows.Scan(pointers...); err != nil {
			return nil, nil, newServiceError(opExport, "scan_failed", err)
		}

		record := make([]string, len(columns))
		for i, value := range values {
			record[i] = formatColumnValue(value)
		}
		records = append(records, record)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, newServiceError(opExport, "iterate_failed", err)
	}

	if len(records) == 0 {
		return nil, nil, nil
	}
	return columns, records, nil
}

func formatColumnValue(value any) string {
	switch typed := value.(type) {
	case nil:
		return ""
	case string:
		return typed
	case []byte:
		return string(typed)
	case int64:
		return strconv.FormatInt(typed, 10)
	case float64:
		return strconv.FormatFloat(typed, 'f', -1, 64)
	case bool:
		return strconv.FormatBool(typed)
	case time.Time:
		return typed.UTC().Format(time.RFC3339)
	default:
		return fmt.Sprint(typed)
	}
}
