package activities

import "gorm.io/gorm"

// ListFilter describes the optional listing predicates. Zero-valued fields
// are omitted from the query; the populated ones are combined as a
// conjunction. Date bounds are inclusive and compared as ISO strings.
type ListFilter struct {
	Category  string
	StartDate string
	EndDate   string
}

func (f ListFilter) apply(tx *gorm.DB) *gorm.DB {
	if f.Category != "" {
		tx = tx.Where("category = ?", f.Category)
	}
	if f.StartDate != "" {
		tx = tx.Where("date >= ?", f.StartDate)
	}
	if f.EndDate != "" {
		tx = tx.Where("date <= ?", f.EndDate)
	}
	return tx
}
