package service_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/churnlabs/churnguard/internal/clock"
	"github.com/churnlabs/churnguard/internal/config"
	"github.com/churnlabs/churnguard/internal/member/domain"
	memberrepo "github.com/churnlabs/churnguard/internal/member/repository"
	memberservice "github.com/churnlabs/churnguard/internal/member/service"
	"go.uber.org/zap"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:memdb_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open db: %v", err)
	}

	schema := []string{
		`CREATE TABLE members (
			whop_user_id TEXT PRIMARY KEY,
			business_id TEXT NOT NULL DEFAULT 'unknown_business',
			email TEXT,
			name TEXT,
			status TEXT NOT NULL DEFAULT 'invalid',
			product_id TEXT,
			plan_name TEXT,
			is_at_risk BOOLEAN NOT NULL DEFAULT FALSE,
			risk_reason TEXT,
			last_active_at TIMESTAMP NULL,
			last_event_id TEXT,
			cancel_rescue_sent BOOLEAN NOT NULL DEFAULT FALSE,
			payment_recovery_sent BOOLEAN NOT NULL DEFAULT FALSE,
			exit_survey_completed BOOLEAN NOT NULL DEFAULT FALSE,
			exit_survey_reason TEXT,
			created_at TIMESTAMP NOT NULL,
			updated_at TIMESTAMP NOT NULL
		)`,
		`CREATE INDEX idx_members_business_status ON members(business_id, status)`,
	}
	for _, stmt := range schema {
		if err := db.Exec(stmt).Error; err != nil {
			t.Fatalf("create schema: %v", err)
		}
	}
	return db
}

func newService(t *testing.T, db *gorm.DB, cfg config.Config) (domain.Service, domain.Repository, *clock.FakeClock) {
	t.Helper()
	clk := clock.NewFakeClock(time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC))
	repo := memberrepo.Provide()
	svc := memberservice.Provide(db, repo, cfg, clk, zap.NewNop())
	return svc, repo, clk
}

func insertMember(t *testing.T, db *gorm.DB, repo domain.Repository, m domain.Member) {
	t.Helper()
	if m.CreatedAt.IsZero() {
		m.CreatedAt = time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	}
	if m.UpdatedAt.IsZero() {
		m.UpdatedAt = m.CreatedAt
	}
	m.IsAtRisk, m.RiskReason = domain.DeriveRisk(m.Status)
	created, err := repo.Upsert(context.Background(), db, &m, true)
	if err != nil {
		t.Fatalf("insert member %s: %v", m.WhopUserID, err)
	}
	if !created {
		t.Fatalf("expected member %s to be created", m.WhopUserID)
	}
}

func TestDashboardCountsPerBusiness(t *testing.T) {
	db := setupTestDB(t)
	svc, repo, _ := newService(t, db, config.Config{Environment: "test"})

	insertMember(t, db, repo, domain.Member{WhopUserID: "user_1", BusinessID: "biz_a", Status: domain.StatusValid})
	insertMember(t, db, repo, domain.Member{WhopUserID: "user_2", BusinessID: "biz_a", Status: domain.StatusValid})
	insertMember(t, db, repo, domain.Member{WhopUserID: "user_3", BusinessID: "biz_a", Status: domain.StatusCanceledAtPeriodEnd})
	insertMember(t, db, repo, domain.Member{WhopUserID: "user_4", BusinessID: "biz_a", Status: domain.StatusInvalid})
	insertMember(t, db, repo, domain.Member{WhopUserID: "user_5", BusinessID: "biz_b", Status: domain.StatusValid})

	counts, err := svc.Dashboard(context.Background(), "biz_a")
	if err != nil {
		t.Fatalf("dashboard: %v", err)
	}
	if counts.Total != 4 {
		t.Fatalf("expected total 4, got %d", counts.Total)
	}
	if counts.Active != 2 {
		t.Fatalf("expected active 2, got %d", counts.Active)
	}
	if counts.Canceled != 1 {
		t.Fatalf("expected canceled 1, got %d", counts.Canceled)
	}
	if counts.Churned != 1 {
		t.Fatalf("expected churned 1, got %d", counts.Churned)
	}
}

func TestDashboardRejectsMalformedBusinessID(t *testing.T) {
	db := setupTestDB(t)
	svc, _, _ := newService(t, db, config.Config{Environment: "test"})

	_, err := svc.Dashboard(context.Background(), "biz a; DROP TABLE members")
	if !errors.Is(err, domain.ErrInvalidBusinessID) {
		t.Fatalf("expected ErrInvalidBusinessID, got %v", err)
	}
}

func TestAtRiskClampsLimit(t *testing.T) {
	db := setupTestDB(t)
	svc, repo, _ := newService(t, db, config.Config{Environment: "test"})

	for i := 0; i < 60; i++ {
		insertMember(t, db, repo, domain.Member{
			WhopUserID: fmt.Sprintf("user_%03d", i),
			BusinessID: "biz_a",
			Status:     domain.StatusInvalid,
		})
	}

	members, err := svc.AtRisk(context.Background(), "biz_a", 500)
	if err != nil {
		t.Fatalf("at risk: %v", err)
	}
	if len(members) != 50 {
		t.Fatalf("expected 50 members, got %d", len(members))
	}

	members, err = svc.AtRisk(context.Background(), "biz_a", 0)
	if err != nil {
		t.Fatalf("at risk default: %v", err)
	}
	if len(members) != 50 {
		t.Fatalf("expected default limit 50, got %d", len(members))
	}

	members, err = svc.AtRisk(context.Background(), "biz_a", 3)
	if err != nil {
		t.Fatalf("at risk limited: %v", err)
	}
	if len(members) != 3 {
		t.Fatalf("expected 3 members, got %d", len(members))
	}
}

func TestRecentCancelsReturnsLatestTen(t *testing.T) {
	db := setupTestDB(t)
	svc, repo, _ := newService(t, db, config.Config{Environment: "test"})

	base := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 12; i++ {
		insertMember(t, db, repo, domain.Member{
			WhopUserID: fmt.Sprintf("user_%03d", i),
			BusinessID: "biz_a",
			Status:     domain.StatusCanceledAtPeriodEnd,
			CreatedAt:  base.Add(time.Duration(i) * time.Hour),
			UpdatedAt:  base.Add(time.Duration(i) * time.Hour),
		})
	}
	insertMember(t, db, repo, domain.Member{WhopUserID: "user_valid", BusinessID: "biz_a", Status: domain.StatusValid})

	members, err := svc.RecentCancels(context.Background(), "biz_a")
	if err != nil {
		t.Fatalf("recent cancels: %v", err)
	}
	if len(members) != 10 {
		t.Fatalf("expected 10 members, got %d", len(members))
	}
	if members[0].WhopUserID != "user_011" {
		t.Fatalf("expected newest cancel first, got %s", members[0].WhopUserID)
	}
	for _, m := range members {
		if m.Status != domain.StatusCanceledAtPeriodEnd {
			t.Fatalf("unexpected status %s for %s", m.Status, m.WhopUserID)
		}
	}
}

func TestCompleteSurveyStoresReasonWithFeedback(t *testing.T) {
	db := setupTestDB(t)
	svc, repo, _ := newService(t, db, config.Config{Environment: "test"})

	insertMember(t, db, repo, domain.Member{WhopUserID: "user_1", BusinessID: "biz_a", Status: domain.StatusInvalid})

	if err := svc.CompleteSurvey(context.Background(), "user_1", "too_expensive", "loved it, cannot afford it"); err != nil {
		t.Fatalf("complete survey: %v", err)
	}

	stored, err := repo.Find(context.Background(), db, "user_1")
	if err != nil {
		t.Fatalf("find member: %v", err)
	}
	if stored == nil {
		t.Fatalf("member not found after survey")
	}
	if !stored.ExitSurveyCompleted {
		t.Fatalf("expected exit survey to be completed")
	}
	if stored.ExitSurveyReason != "too_expensive - loved it, cannot afford it" {
		t.Fatalf("unexpected survey reason %q", stored.ExitSurveyReason)
	}
}

func TestCompleteSurveyWithoutFeedbackKeepsReasonOnly(t *testing.T) {
	db := setupTestDB(t)
	svc, repo, _ := newService(t, db, config.Config{Environment: "test"})

	insertMember(t, db, repo, domain.Member{WhopUserID: "user_1", BusinessID: "biz_a", Status: domain.StatusInvalid})

	if err := svc.CompleteSurvey(context.Background(), "user_1", "missing_features", ""); err != nil {
		t.Fatalf("complete survey: %v", err)
	}

	stored, err := repo.Find(context.Background(), db, "user_1")
	if err != nil {
		t.Fatalf("find member: %v", err)
	}
	if stored.ExitSurveyReason != "missing_features" {
		t.Fatalf("unexpected survey reason %q", stored.ExitSurveyReason)
	}
}

func TestCompleteSurveyUnknownMember(t *testing.T) {
	db := setupTestDB(t)
	svc, _, _ := newService(t, db, config.Config{Environment: "test"})

	err := svc.CompleteSurvey(context.Background(), "user_missing", "other", "")
	if !errors.Is(err, domain.ErrMemberNotFound) {
		t.Fatalf("expected ErrMemberNotFound, got %v", err)
	}
}

func TestSeedDemoForbiddenInProduction(t *testing.T) {
	db := setupTestDB(t)
	svc, _, _ := newService(t, db, config.Config{Environment: "production"})

	if _, err := svc.SeedDemo(context.Background()); !errors.Is(err, domain.ErrSeedForbidden) {
		t.Fatalf("expected ErrSeedForbidden, got %v", err)
	}
	if _, err := svc.ClearDemo(context.Background()); !errors.Is(err, domain.ErrSeedForbidden) {
		t.Fatalf("expected ErrSeedForbidden, got %v", err)
	}
}

func TestSeedAndClearDemoMembers(t *testing.T) {
	db := setupTestDB(t)
	svc, repo, _ := newService(t, db, config.Config{Environment: "development"})

	insertMember(t, db, repo, domain.Member{WhopUserID: "user_real", BusinessID: "biz_a", Status: domain.StatusValid})

	seeded, err := svc.SeedDemo(context.Background())
	if err != nil {
		t.Fatalf("seed demo: %v", err)
	}
	if seeded == 0 {
		t.Fatalf("expected demo members to be seeded")
	}

	report, err := svc.Status(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if report.TestMemberCount != int64(seeded) {
		t.Fatalf("expected %d test members, got %d", seeded, report.TestMemberCount)
	}
	if report.MemberCount != int64(seeded)+1 {
		t.Fatalf("expected %d members, got %d", seeded+1, report.MemberCount)
	}

	removed, err := svc.ClearDemo(context.Background())
	if err != nil {
		t.Fatalf("clear demo: %v", err)
	}
	if removed != int64(seeded) {
		t.Fatalf("expected %d removed, got %d", seeded, removed)
	}

	stored, err := repo.Find(context.Background(), db, "user_real")
	if err != nil {
		t.Fatalf("find member: %v", err)
	}
	if stored == nil {
		t.Fatalf("real member should survive demo clear")
	}
}

func TestStatusReportsLastUpdatedAt(t *testing.T) {
	db := setupTestDB(t)
	svc, repo, _ := newService(t, db, config.Config{Environment: "test"})

	report, err := svc.Status(context.Background())
	if err != nil {
		t.Fatalf("status on empty store: %v", err)
	}
	if report.LastUpdatedAt != nil {
		t.Fatalf("expected nil LastUpdatedAt on empty store, got %v", report.LastUpdatedAt)
	}

	older := time.Date(2024, 5, 1, 0, 0, 0, 0, time.UTC)
	newer := time.Date(2024, 5, 20, 0, 0, 0, 0, time.UTC)
	insertMember(t, db, repo, domain.Member{WhopUserID: "user_1", BusinessID: "biz_a", Status: domain.StatusValid, CreatedAt: older, UpdatedAt: older})
	insertMember(t, db, repo, domain.Member{WhopUserID: "user_2", BusinessID: "biz_a", Status: domain.StatusValid, CreatedAt: newer, UpdatedAt: newer})

	report, err = svc.Status(context.Background())
	if err != nil {
		t.Fatalf("status: %v", err)
	}
	if report.LastUpdatedAt == nil {
		t.Fatalf("expected LastUpdatedAt after inserts")
	}
	if !report.LastUpdatedAt.Equal(newer) {
		t.Fatalf("expected LastUpdatedAt %v, got %v", newer, report.LastUpdatedAt)
	}
}

func TestClaimFlagIsOneWay(t *testing.T) {
	db := setupTestDB(t)
	_, repo, _ := newService(t, db, config.Config{Environment: "test"})

	insertMember(t, db, repo, domain.Member{WhopUserID: "user_1", BusinessID: "biz_a", Status: domain.StatusCanceledAtPeriodEnd})

	claimed, err := repo.ClaimFlag(context.Background(), db, "user_1", domain.FlagCancelRescue)
	if err != nil {
		t.Fatalf("claim flag: %v", err)
	}
	if !claimed {
		t.Fatalf("expected first claim to win")
	}

	claimed, err = repo.ClaimFlag(context.Background(), db, "user_1", domain.FlagCancelRescue)
	if err != nil {
		t.Fatalf("claim flag again: %v", err)
	}
	if claimed {
		t.Fatalf("expected second claim to lose")
	}

	if err := repo.ReleaseFlag(context.Background(), db, "user_1", domain.FlagCancelRescue); err != nil {
		t.Fatalf("release flag: %v", err)
	}
	claimed, err = repo.ClaimFlag(context.Background(), db, "user_1", domain.FlagCancelRescue)
	if err != nil {
		t.Fatalf("claim after release: %v", err)
	}
	if !claimed {
		t.Fatalf("expected claim to succeed after release")
	}
}
