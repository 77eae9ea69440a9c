package domain

import (
	"context"
	"time"

	"gorm.io/gorm"
)

// Repository persists member state. Callers pass the database handle so the
// service can run several calls inside one transaction.
type Repository interface {
	Find(ctx context.Context, db *gorm.DB, whopUserID string) (*Member, error)
	FindByLastEventID(ctx context.Context, db *gorm.DB, eventID string) (*Member, error)
	Upsert(ctx context.Context, db *gorm.DB, member *Member, applyStatus bool) (bool, error)
	ClaimFlag(ctx context.Context, db *gorm.DB, whopUserID string, flag Flag) (bool, error)
	ReleaseFlag(ctx context.Context, db *gorm.DB, whopUserID string, flag Flag) error
	MarkSurveyCompleted(ctx context.Context, db *gorm.DB, whopUserID, reason string, now time.Time) error
	Counts(ctx context.Context, db *gorm.DB, businessID string) (DashboardCounts, error)
	ListAtRisk(ctx context.Context, db *gorm.DB, businessID string, limit int) ([]Member, error)
	ListRecentCancels(ctx context.Context, db *gorm.DB, businessID string, limit int) ([]Member, error)
	CountAll(ctx context.Context, db *gorm.DB) (int64, error)
	CountTest(ctx context.Context, db *gorm.DB) (int64, error)
	LastUpdatedAt(ctx context.Context, db *gorm.DB) (*time.Time, error)
	DeleteTest(ctx context.Context, db *gorm.DB) (int64, error)
}
