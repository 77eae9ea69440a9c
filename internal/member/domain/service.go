package domain

import "context"

// Service exposes member read models and dashboard operations.
type Service interface {
	Dashboard(ctx context.Context, businessID string) (DashboardCounts, error)
	AtRisk(ctx context.Context, businessID string, limit int) ([]Member, error)
	RecentCancels(ctx context.Context, businessID string) ([]Member, error)
	CompleteSurvey(ctx context.Context, whopUserID, reason, feedback string) error
	Status(ctx context.Context) (StatusReport, error)
	SeedDemo(ctx context.Context) (int, error)
	ClearDemo(ctx context.Context) (int64, error)
}
