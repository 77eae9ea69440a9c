package service

import (
	"context"
	"regexp"
	"strings"

	"github.com/churnlabs/churnguard/internal/clock"
	"github.com/churnlabs/churnguard/internal/config"
	"github.com/churnlabs/churnguard/internal/member/domain"
	"github.com/churnlabs/churnguard/internal/seed"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	defaultAtRiskLimit = 50
	maxAtRiskLimit     = 50
	recentCancelsLimit = 10
)

var businessIDPattern = regexp.MustCompile(`^[a-zA-Z0-9_-]+$`)

type service struct {
	db    *gorm.DB
	repo  domain.Repository
	cfg   config.Config
	clock clock.Clock
	log   *zap.Logger
}

func Provide(db *gorm.DB, repo domain.Repository, cfg config.Config, clk clock.Clock, log *zap.Logger) domain.Service {
	return &service{
		db:    db,
		repo:  repo,
		cfg:   cfg,
		clock: clk,
		log:   log.Named("member"),
	}
}

func validateBusinessID(businessID string) error {
	if !businessIDPattern.MatchString(businessID) {
		return domain.ErrInvalidBusinessID
	}
	return nil
}

func (s *service) Dashboard(ctx context.Context, businessID string) (domain.DashboardCounts, error) {
	if err := validateBusinessID(businessID); err != nil {
		return domain.DashboardCounts{}, err
	}
	return s.repo.Counts(ctx, s.db, businessID)
}

func (s *service) AtRisk(ctx context.Context, businessID string, limit int) ([]domain.Member, error) {
	if err := validateBusinessID(businessID); err != nil {
		return nil, err
	}
	if limit <= 0 {
		limit = defaultAtRiskLimit
	}
	if limit > maxAtRiskLimit {
		limit = maxAtRiskLimit
	}
	return s.repo.ListAtRisk(ctx, s.db, businessID, limit)
}

func (s *service) RecentCancels(ctx context.Context, businessID string) ([]domain.Member, error) {
	if err := validateBusinessID(businessID); err != nil {
		return nil, err
	}
	return s.repo.ListRecentCancels(ctx, s.db, businessID, recentCancelsLimit)
}

// CompleteSurvey records the exit survey answer. Feedback, when present, is
// appended to the selected reason so the dashboard shows both in one field.
func (s *service) CompleteSurvey(ctx context.Context, whopUserID, reason, feedback string) error {
	stored := strings.TrimSpace(reason)
	if feedback = strings.TrimSpace(feedback); feedback != "" {
		stored = stored + " - " + feedback
	}

	err := s.repo.MarkSurveyCompleted(ctx, s.db, whopUserID, stored, s.clock.Now())
	if err != nil {
		return err
	}

	s.log.Info("exit survey completed",
		zap.String("whop_user_id", whopUserID),
		zap.String("reason", reason),
	)
	return nil
}

func (s *service) Status(ctx context.Context) (domain.StatusReport, error) {
	report := domain.StatusReport{
		WebhookConfigured:   strings.TrimSpace(s.cfg.WebhookSecret) != "",
		MessagingConfigured: strings.TrimSpace(s.cfg.MessageAPIKey) != "",
	}

	total, err := s.repo.CountAll(ctx, s.db)
	if err != nil {
		return domain.StatusReport{}, err
	}
	report.MemberCount = total

	testCount, err := s.repo.CountTest(ctx, s.db)
	if err != nil {
		return domain.StatusReport{}, err
	}
	report.TestMemberCount = testCount

	last, err := s.repo.LastUpdatedAt(ctx, s.db)
	if err != nil {
		return domain.StatusReport{}, err
	}
	report.LastUpdatedAt = last

	return report, nil
}

func (s *service) SeedDemo(ctx context.Context) (int, error) {
	if s.cfg.IsProduction() {
		return 0, domain.ErrSeedForbidden
	}

	members := seed.DemoMembers(s.clock.Now())
	err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range members {
			if _, err := s.repo.Upsert(ctx, tx, &members[i], true); err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}

	s.log.Info("seeded demo members", zap.Int("count", len(members)))
	return len(members), nil
}

func (s *service) ClearDemo(ctx context.Context) (int64, error) {
	if s.cfg.IsProduction() {
		return 0, domain.ErrSeedForbidden
	}

	removed, err := s.repo.DeleteTest(ctx, s.db)
	if err != nil {
		return 0, err
	}

	s.log.Info("cleared demo members", zap.Int64("count", removed))
	return removed, nil
}
