package domain

import (
	"context"

	"gorm.io/gorm"
)

// Repository appends to the observational webhook event log.
type Repository interface {
	InsertEvent(ctx context.Context, db *gorm.DB, record *EventRecord) error
	ListRecent(ctx context.Context, db *gorm.DB, limit int) ([]EventRecord, error)
}
