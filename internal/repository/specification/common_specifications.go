package specification

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type ByID struct {
	ID uuid.UUID
}

func (s ByID) Apply(db *gorm.DB) *gorm.DB {
	return db.Where("id = ?", s.ID)
}

// ByIDs keeps rows whose id is in IDs. An empty list matches nothing.
type ByIDs struct {
	IDs []uuid.UUID
}

func (s ByIDs) Apply(db *gorm.DB) *gorm.DB {
	if len(s.IDs) == 0 {
		return db.Where("1 = 0")
	}
	return db.Where("id IN ?", s.IDs)
}

// OrderBy takes a trusted column list, never user input.
type OrderBy struct {
	Field string
	Desc  bool
}

func (s OrderBy) Apply(db *gorm.DB) *gorm.DB {
	if s.Desc {
		return db.Order(s.Field + " DESC")
	}
	return db.Order(s.Field)
}

// Pagination limits the page; a zero Limit leaves the query unbounded.
type Pagination struct {
	Limit  int
	Offset int
}

func (s Pagination) Apply(db *gorm.DB) *gorm.DB {
	if s.Limit > 0 {
		db = db.Limit(s.Limit)
	}
	if s.Offset > 0 {
		db = db.Offset(s.Offset)
	}
	return db
}

// CreatedBetween keeps rows with From <= created_at < To. A zero bound is open.
type CreatedBetween struct {
	From time.Time
	To   time.Time
}

func (s CreatedBetween) Apply(db *gorm.DB) *gorm.DB {
	if !s.From.IsZero() {
		db = db.Where("created_at >= ?", s.From)
	}
	if !s.To.IsZero() {
		db = db.Where("created_at < ?", s.To)
	}
	return db
}
