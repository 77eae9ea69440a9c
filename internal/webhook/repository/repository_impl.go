package repository

import (
	"context"

	"github.com/churnlabs/churnguard/internal/webhook/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) InsertEvent(ctx context.Context, db *gorm.DB, record *domain.EventRecord) error {
	return db.WithContext(ctx).Exec(
		`INSERT INTO webhook_events (
			id, event_id, event_type, whop_user_id, business_id, payload, received_at
		) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		record.ID,
		record.EventID,
		record.EventType,
		record.WhopUserID,
		record.BusinessID,
		record.Payload,
		record.ReceivedAt,
	).Error
}

func (r *repo) ListRecent(ctx context.Context, db *gorm.DB, limit int) ([]domain.EventRecord, error) {
	var items []domain.EventRecord
	err := db.WithContext(ctx).Raw(
		`SELECT id, event_id, event_type, whop_user_id, business_id, payload, received_at
		 FROM webhook_events
		 ORDER BY received_at DESC
		 LIMIT ?`,
		limit,
	).Scan(&items).Error
	return items, err
}
