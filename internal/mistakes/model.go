package mistakes

import (
	"errors"
	"fmt"
	"time"
)

const dateLayout = "2006-01-02"

var (
	// ErrInvalidDate indicates a create payload date that is not a valid ISO calendar date.
	ErrInvalidDate = errors.New("mistakes: invalid date")
	// ErrInvalidMoveNumber indicates a negative move number.
	ErrInvalidMoveNumber = errors.New("mistakes: invalid move number")
	// ErrInvalidOpponentRating indicates a non-positive opponent rating.
	ErrInvalidOpponentRating = errors.New("mistakes: invalid opponent rating")
)

// Mistake models one recorded game mistake. Every field beyond the date is
// optional free text or an optional number; absent fields persist as NULL so
// the stats queries can exclude them.
type Mistake struct {
	ID              int64     `gorm:"column:id;primaryKey;autoIncrement" json:"id"`
	Date            string    `gorm:"column:date;size:10;not null;index:idx_mistakes_date" json:"date"`
	GameType        *string   `gorm:"column:game_type;size:190" json:"game_type"`
	TimeControl     *string   `gorm:"column:time_control;size:190" json:"time_control"`
	OpponentName    *string   `gorm:"column:opponent_name;size:190" json:"opponent_name"`
	OpponentRating  *int      `gorm:"column:opponent_rating" json:"opponent_rating"`
	Result          *string   `gorm:"column:result;size:32" json:"result"`
	MoveNumber      *int      `gorm:"column:move_number" json:"move_number"`
	MistakeCategory *string   `gorm:"column:mistake_category;size:190" json:"mistake_category"`
	Cause           *string   `gorm:"column:cause;type:text" json:"cause"`
	Fix             *string   `gorm:"column:fix;type:text" json:"fix"`
	Training        *string   `gorm:"column:training;type:text" json:"training"`
	URL             *string   `gorm:"column:url;size:512" json:"url"`
	Annotations     *string   `gorm:"column:annotations;type:text" json:"annotations"`
	CreatedAt       time.Time `gorm:"column:created_at;autoCreateTime" json:"created_at"`
}

// TableName provides the explicit table binding for GORM.
func (Mistake) TableName() string {
	return "mistakes"
}

// CreateRequest describes the payload accepted when recording a mistake.
type CreateRequest struct {
	Date            string  `json:"date"`
	GameType        *string `json:"game_type"`
	TimeControl     *string `json:"time_control"`
	OpponentName    *string `json:"opponent_name"`
	OpponentRating  *int    `json:"opponent_rating"`
	Result          *string `json:"result"`
	MoveNumber      *int    `json:"move_number"`
	MistakeCategory *string `json:"mistake_category"`
	Cause           *string `json:"cause"`
	Fix             *string `json:"fix"`
	Training        *string `json:"training"`
	URL             *string `json:"url"`
	Annotations     *string `json:"annotations"`
}

// Validate rejects malformed payloads before they reach the store. The move
// number is advisory and is never checked against game length.
func (r CreateRequest) Validate() error {
	if _, err := time.Parse(dateLayout, r.Date); err != nil {
		return fmt.Errorf("%w: %q is not a YYYY-MM-DD calendar date", ErrInvalidDate, r.Date)
	}
	if r.MoveNumber != nil && *r.MoveNumber < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidMoveNumber, *r.MoveNumber)
	}
	if r.OpponentRating != nil && *r.OpponentRating <= 0 {
		return fmt.Errorf("%w: %d", ErrInvalidOpponentRating, *r.OpponentRating)
	}
	return nil
}

// IsValidationError reports whether err stems from payload validation.
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidDate) ||
		errors.Is(err, ErrInvalidMoveNumber) ||
		errors.Is(err, ErrInvalidOpponentRating)
}
