package repository

import (
	"context"
	"strings"
	"time"

	"github.com/churnlabs/churnguard/internal/member/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Find(ctx context.Context, db *gorm.DB, whopUserID string) (*domain.Member, error) {
	var item domain.Member
	err := db.WithContext(ctx).Raw(
		`SELECT whop_user_id, business_id, email, name, status, product_id, plan_name,
			is_at_risk, risk_reason, last_active_at, last_event_id,
			cancel_rescue_sent, payment_recovery_sent, exit_survey_completed, exit_survey_reason,
			created_at, updated_at
		 FROM members
		 WHERE whop_user_id = ?
		 LIMIT 1`,
		whopUserID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.WhopUserID == "" {
		return nil, nil
	}
	return &item, nil
}

// FindByLastEventID locates any member whose idempotency cursor matches the
// event id. Upstream event ids are globally unique, so at most one row matches.
func (r *repo) FindByLastEventID(ctx context.Context, db *gorm.DB, eventID string) (*domain.Member, error) {
	var item domain.Member
	err := db.WithContext(ctx).Raw(
		`SELECT whop_user_id, business_id, email, name, status, product_id, plan_name,
			is_at_risk, risk_reason, last_active_at, last_event_id,
			cancel_rescue_sent, payment_recovery_sent, exit_survey_completed, exit_survey_reason,
			created_at, updated_at
		 FROM members
		 WHERE last_event_id = ?
		 LIMIT 1`,
		eventID,
	).Scan(&item).Error
	if err != nil {
		return nil, err
	}
	if item.WhopUserID == "" {
		return nil, nil
	}
	return &item, nil
}

// Upsert inserts the member or, when the row already exists, updates it in
// place. Identity fields from the event only overwrite stored values when the
// event actually carried them. Returns true when a new row was created.
func (r *repo) Upsert(ctx context.Context, db *gorm.DB, member *domain.Member, applyStatus bool) (bool, error) {
	res := db.WithContext(ctx).Exec(
		`INSERT INTO members (
			whop_user_id, business_id, email, name, status, product_id, plan_name,
			is_at_risk, risk_reason, last_active_at, last_event_id,
			cancel_rescue_sent, payment_recovery_sent, exit_survey_completed, exit_survey_reason,
			created_at, updated_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT (whop_user_id) DO NOTHING`,
		member.WhopUserID,
		member.BusinessID,
		member.Email,
		member.Name,
		member.Status,
		member.ProductID,
		member.PlanName,
		member.IsAtRisk,
		member.RiskReason,
		member.LastActiveAt,
		member.LastEventID,
		member.CancelRescueSent,
		member.PaymentRecoverySent,
		member.ExitSurveyCompleted,
		member.ExitSurveyReason,
		member.CreatedAt,
		member.UpdatedAt,
	)
	if res.Error != nil {
		return false, res.Error
	}
	if res.RowsAffected > 0 {
		return true, nil
	}

	sets := []string{"business_id = ?", "last_event_id = ?", "updated_at = ?"}
	args := []interface{}{member.BusinessID, member.LastEventID, member.UpdatedAt}

	if strings.TrimSpace(member.Email) != "" {
		sets = append(sets, "email = ?")
		args = append(args, member.Email)
	}
	if strings.TrimSpace(member.Name) != "" {
		sets = append(sets, "name = ?")
		args = append(args, member.Name)
	}
	if strings.TrimSpace(member.ProductID) != "" {
		sets = append(sets, "product_id = ?")
		args = append(args, member.ProductID)
	}
	if strings.TrimSpace(member.PlanName) != "" {
		sets = append(sets, "plan_name = ?")
		args = append(args, member.PlanName)
	}
	if applyStatus {
		sets = append(sets, "status = ?", "is_at_risk = ?", "risk_reason = ?")
		args = append(args, member.Status, member.IsAtRisk, member.RiskReason)
		if member.LastActiveAt != nil {
			sets = append(sets, "last_active_at = ?")
			args = append(args, member.LastActiveAt)
		}
	}

	args = append(args, member.WhopUserID)
	err := db.WithContext(ctx).Exec(
		"UPDATE members SET "+strings.Join(sets, ", ")+" WHERE whop_user_id = ?",
		args...,
	).Error
	return false, err
}

func flagColumn(flag domain.Flag) (string, error) {
	switch flag {
	case domain.FlagCancelRescue:
		return "cancel_rescue_sent", nil
	case domain.FlagPaymentRecovery:
		return "payment_recovery_sent", nil
	default:
		return "", domain.ErrUnknownFlag
	}
}

// ClaimFlag flips the marker from false to true and reports whether this call
// won the claim. A false return means another worker already holds it.
func (r *repo) ClaimFlag(ctx context.Context, db *gorm.DB, whopUserID string, flag domain.Flag) (bool, error) {
	column, err := flagColumn(flag)
	if err != nil {
		return false, err
	}
	res := db.WithContext(ctx).Exec(
		"UPDATE members SET "+column+" = ? WHERE whop_user_id = ? AND "+column+" = ?",
		true,
		whopUserID,
		false,
	)
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected > 0, nil
}

func (r *repo) ReleaseFlag(ctx context.Context, db *gorm.DB, whopUserID string, flag domain.Flag) error {
	column, err := flagColumn(flag)
	if err != nil {
		return err
	}
	return db.WithContext(ctx).Exec(
		"UPDATE members SET "+column+" = ? WHERE whop_user_id = ?",
		false,
		whopUserID,
	).Error
}

func (r *repo) MarkSurveyCompleted(ctx context.Context, db *gorm.DB, whopUserID, reason string, now time.Time) error {
	res := db.WithContext(ctx).Exec(
		`UPDATE members
		 SET exit_survey_completed = ?, exit_survey_reason = ?, updated_at = ?
		 WHERE whop_user_id = ?`,
		true,
		reason,
		now,
		whopUserID,
	)
	if res.Error != nil {
		return res.Error
	}
	if res.RowsAffected == 0 {
		return domain.ErrMemberNotFound
	}
	return nil
}

func (r *repo) Counts(ctx context.Context, db *gorm.DB, businessID string) (domain.DashboardCounts, error) {
	var counts domain.DashboardCounts
	err := db.WithContext(ctx).Raw(
		`SELECT
			COUNT(*) AS total,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS active,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS canceled,
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0) AS churned
		 FROM members
		 WHERE business_id = ?`,
		domain.StatusValid,
		domain.StatusCanceledAtPeriodEnd,
		domain.StatusInvalid,
		businessID,
	).Scan(&counts).Error
	return counts, err
}

func (r *repo) ListAtRisk(ctx context.Context, db *gorm.DB, businessID string, limit int) ([]domain.Member, error) {
	var items []domain.Member
	err := db.WithContext(ctx).Raw(
		`SELECT whop_user_id, business_id, email, name, status, product_id, plan_name,
			is_at_risk, risk_reason, last_active_at, last_event_id,
			cancel_rescue_sent, payment_recovery_sent, exit_survey_completed, exit_survey_reason,
			created_at, updated_at
		 FROM members
		 WHERE business_id = ? AND is_at_risk = ?
		 ORDER BY updated_at DESC
		 LIMIT ?`,
		businessID,
		true,
		limit,
	).Scan(&items).Error
	return items, err
}

func (r *repo) ListRecentCancels(ctx context.Context, db *gorm.DB, businessID string, limit int) ([]domain.Member, error) {
	var items []domain.Member
	err := db.WithContext(ctx).Raw(
		`SELECT whop_user_id, business_id, email, name, status, product_id, plan_name,
			is_at_risk, risk_reason, last_active_at, last_event_id,
			cancel_rescue_sent, payment_recovery_sent, exit_survey_completed, exit_survey_reason,
			created_at, updated_at
		 FROM members
		 WHERE business_id = ? AND status = ?
		 ORDER BY updated_at DESC
		 LIMIT ?`,
		businessID,
		domain.StatusCanceledAtPeriodEnd,
		limit,
	).Scan(&items).Error
	return items, err
}

func (r *repo) CountAll(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(`SELECT COUNT(*) FROM members`).Scan(&count).Error
	return count, err
}

func (r *repo) CountTest(ctx context.Context, db *gorm.DB) (int64, error) {
	var count int64
	err := db.WithContext(ctx).Raw(
		`SELECT COUNT(*) FROM members WHERE whop_user_id LIKE 'test\_%' ESCAPE '\'`,
	).Scan(&count).Error
	return count, err
}

// LastUpdatedAt reads the newest updated_at through the ordered column
// rather than MAX(); the aggregate loses the column's declared type and the
// sqlite driver then hands back a string that cannot scan into time.Time.
func (r *repo) LastUpdatedAt(ctx context.Context, db *gorm.DB) (*time.Time, error) {
	var last time.Time
	res := db.WithContext(ctx).Raw(
		`SELECT updated_at FROM members ORDER BY updated_at DESC LIMIT 1`,
	).Scan(&last)
	if res.Error != nil {
		return nil, res.Error
	}
	if res.RowsAffected == 0 {
		return nil, nil
	}
	return &last, nil
}

func (r *repo) DeleteTest(ctx context.Context, db *gorm.DB) (int64, error) {
	res := db.WithContext(ctx).Exec(
		`DELETE FROM members WHERE whop_user_id LIKE 'test\_%' ESCAPE '\'`,
	)
	return res.RowsAffected, res.Error
}
