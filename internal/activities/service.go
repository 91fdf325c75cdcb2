package activities

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
	ErrNotFound = errors.New("activities: not found")

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
	opServiceNew = "activities.service.new"
	opList       = "activities.list"
	opGet        = "activities.get"
	opCreate     = "activities.create"
	opDelete     = "activities.delete"
	opSummary    = "activities.summary"
	opExport     = "activities.export"
)

func newServiceError(operation, reason string, cause error) error {
	return &ServiceError{code: fmt.Sprintf("%s.%s", operation, reason), err: cause}
}

// ServiceConfig describes the dependencies for the activity service.
type ServiceConfig struct {
	Database *gorm.DB
	Clock    func() time.Time
	Logger   *zap.Logger
}

// Service owns reads and writes against the activities table. Every call
// runs its own store round trip; nothing is cached across requests.
type Service struct {
	db     *gorm.DB
	clock  func() time.Time
	logger *zap.Logger
}

// NewService constructs the activity service.
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

// ListResult pairs a page of rows with the total row count under the same
// filter, so pagination UIs can compute page counts without re-fetching.
type ListResult struct {
	Activities []Activity
	TotalCount int64
}

// List returns activities ordered newest first (date, then id, descending).
// The limit and offset are applied verbatim; callers clamp at the boundary.
func (s *Service) List(ctx context.Context, filter ListFilter, limit, offset int) (ListResult, error) {
	var total int64
	if err := filter.apply(s.db.WithContext(ctx).Model(&Activity{})).Count(&total).Error; err != nil {
		return ListResult{}, newServiceError(opList, "count_failed", err)
	}

	rows := make([]Activity, 0)
	err := filter.apply(s.db.WithContext(ctx).Model(&Activity{})).
		Order("date DESC, id DESC").
		Limit(limit).
		Offset(offset).
		Find(&rows).Error
	if err != nil {
		return ListResult{}, newServiceError(opList, "query_failed", err)
	}

	return ListResult{Activities: rows, TotalCount: total}, nil
}

// Create validates the payload, stores it, and returns the stored row with
// its assigned id and creation timestamp.
func (s *Service) Create(ctx context.Context, request CreateRequest) (Activity, error) {
	if err := request.Validate(); err != nil {
		return Activity{}, newServiceError(opCreate, "invalid_payload", err)
	}

	row := Activity{
		Date:      request.Date,
		Week:      request.Week,
		Category:  request.Category,
		Minutes:   request.Minutes,
		Details:   request.Details,
		CreatedAt: s.clock().UTC(),
	}
	if err := s.db.WithContext(ctx).Create(&row).Error; err != nil {
		return Activity{}, newServiceError(opCreate, "insert_failed", err)
	}

	s.logger.Debug("activity recorded",
		zap.Int64("id", row.ID),
		zap.String("date", row.Date),
		zap.String("category", row.Category))
	return row, nil
}

// Get fetches a single activity by id.
func (s *Service) Get(ctx context.Context, id int64) (Activity, error) {
	var row Activity
	err := s.db.WithContext(ctx).First(&row, id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return Activity{}, newServiceError(opGet, "not_found", ErrNotFound)
	}
	if err != nil {
		return Activity{}, newServiceError(opGet, "query_failed", err)
	}
	return row, nil
}

// Delete hard-deletes an activity. Deleting an absent id yields ErrNotFound.
func (s *Service) Delete(ctx context.Context, id int64) error {
	result := s.db.WithContext(ctx).Delete(&Activity{}, id)
	if result.Error != nil {
		return newServiceError(opDelete, "delete_failed", result.Error)
	}
	if result.RowsAffected == 0 {
		return newServiceError(opDelete, "not_found", ErrNotFound)
	}
	return nil
}

// CategoryTotal is one category's summed practice minutes. Callers must not
// assume any particular ordering.
type CategoryTotal struct {
	Category     string `gorm:"column:category" json:"category"`
	TotalMinutes int64  `gorm:"column:total_minutes" json:"total_minutes"`
}

// Summary aggregates everything the stats endpoint reports.
type Summary struct {
	CategoryDistribution  []CategoryTotal `json:"category_distribution"`
	WeeklyProgress        []WeeklyBucket  `json:"weekly_progress"`
	CurrentWeekTotalHours float64         `json:"current_week_total_hours"`
	CurrentWeekStart      *string         `json:"current_week_start"`
}

type dateSample struct {
	Date     string `gorm:"column:date"`
	Category string `gorm:"column:category"`
	Minutes  int    `gorm:"column:minutes"`
}

// Summary computes category totals in the store and the weekly buckets in
// application code, keeping the calendar logic portable across stores.
func (s *Service) Summary(ctx context.Context) (Summary, error) {
	totals := make([]CategoryTotal, 0)
	err := s.db.WithContext(ctx).Model(&Activity{}).
		Select("category, SUM(minutes) AS total_minutes").
		Group("category").
		Scan(&totals).Error
	if err != nil {
		return Summary{}, newServiceError(opSummary, "category_totals_failed", err)
	}

	var raw []dateSample
	err = s.db.WithContext(ctx).Model(&Activity{}).
		Select("date, category, minutes").
		Scan(&raw).Error
	if err != nil {
		return Summary{}, newServiceError(opSummary, "scan_failed", err)
	}

	samples := make([]weekSample, 0, len(raw))
	for _, row := range raw {
		start, err := weekStartLabel(row.Date)
		if err != nil {
			// Rows predating date validation; keep the aggregate usable.
			s.logger.Warn("skipping activity with unparseable date", zap.String("date", row.Date))
			continue
		}
		samples = append(samples, weekSample{weekStart: start, category: row.Category, minutes: row.Minutes})
	}

	summary := Summary{
		CategoryDistribution: totals,
		WeeklyProgress:       buildWeeklyProgress(samples),
	}

	if start, minutes := currentWeekMinutes(samples); start != "" {
		summary.CurrentWeekStart = &start
		summary.CurrentWeekTotalHours = roundHours(minutes)
	}

	return summary, nil
}

// ExportHeader is the fixed activity CSV header. The export deliberately
// excludes id and created_at.
var ExportHeader = []string{"Date", "Week", "Category", "Minutes", "Details"}

// ExportRows returns the fixed header plus every activity as CSV fields,
// newest first. The header is emitted even when the table is empty.
func (s *Service) ExportRows(ctx context.Context) ([]string, [][]string, error) {
	var rows []Activity
	if err := s.db.WithContext(ctx).Order("date DESC, id DESC").Find(&rows).Error; err != nil {
		return nil, nil, newServiceError(opExport, "scan_failed", err)
	}

	records := make([][]string, 0, len(rows))
	for _, row := range rows {
		details := ""
		if row.Details != nil {
			details = *row.Details
		}
		records = append(records, []string{
			row.Date,
			strconv.Itoa(row.Week),
			row.Category,
			strconv.Itoa(row.Minutes),
			details,
		})
	}

	return ExportHeader, records, nil
}
