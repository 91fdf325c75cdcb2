package activities

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

// DateLayout is the ISO-8601 calendar date format used for every stored date.
// Lexicographic comparison of these strings matches chronological order.
const DateLayout = "2006-01-02"

var (
	// ErrInvalidDate indicates a create payload date that is not a valid ISO calendar date.
	ErrInvalidDate = errors.New("activities: invalid date")
	// ErrInvalidCategory indicates an empty category label.
	ErrInvalidCategory = errors.New("activities: invalid category")
	// ErrInvalidMinutes indicates a negative minutes value.
	ErrInvalidMinutes = errors.New("activities: invalid minutes")
)

// Activity models a persisted practice session. The week label is user
// supplied and is never reconciled with the computed week_start bucket.
type Activity struct {
	ID        int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Date      string    `gorm:"column:date;size:10;not null;index:idx_activities_date" json:"date"`
	Week      int       `gorm:"column:week;not null" json:"week"`
	Category  string    `gorm:"column:category;size:190;not null;index:idx_activities_category" json:"category"`
	Minutes   int       `gorm:"column:minutes;not null" json:"minutes"`
	Details   *string   `gorm:"column:details;type:text" json:"details"`
	CreatedAt time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName provides the explicit table binding for GORM.
func (Activity) TableName() string {
	return "activities"
}

// CreateRequest describes the payload accepted when recording a session.
type CreateRequest struct {
	Date     string  `json:"date"`
	Week     int     `json:"week"`
	Category string  `json:"category"`
	Minutes  int     `json:"minutes"`
	Details  *string `json:"details"`
}

// Validate rejects malformed payloads before they reach the store.
func (r CreateRequest) Validate() error {
	if _, err := time.Parse(DateLayout, r.Date); err != nil {
		return fmt.Errorf("%w: %q is not a YYYY-MM-DD calendar date", ErrInvalidDate, r.Date)
	}
	if strings.TrimSpace(r.Category) == "" {
		return fmt.Errorf("%w: empty", ErrInvalidCategory)
	}
	if r.Minutes < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMinutes, r.Minutes)
	}
	return nil
}

// IsValidationError reports whether err stems from payload validation.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidCategory) ||
		errors.Is(err, ErrInvalidMinutes)
}
