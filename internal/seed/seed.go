// Package seed provides demo fixtures for local and staging environments.
package seed

import (
	"time"

	"github.com/churnlabs/churnguard/internal/member/domain"
)

const demoBusinessID = "biz_demo"

// DemoMembers returns a set of test members covering every dashboard bucket.
// All identifiers carry the test_ prefix so they can be cleared in one call.
func DemoMembers(now time.Time) []domain.Member {
	active := now.Add(-2 * time.Hour)
	recent := now.Add(-30 * time.Minute)

	members := []domain.Member{
		{
			WhopUserID:   "test_user_001",
			Email:        "alex@example.com",
			Name:         "Alex Chen",
			Status:       domain.StatusValid,
			ProductID:    "prod_demo",
			PlanName:     "Pro Monthly",
			LastActiveAt: &active,
		},
		{
			WhopUserID:   "test_user_002",
			Email:        "jordan@example.com",
			Name:         "Jordan Lee",
			Status:       domain.StatusValid,
			ProductID:    "prod_demo",
			PlanName:     "Pro Annual",
			LastActiveAt: &recent,
		},
		{
			WhopUserID: "test_user_003",
			Email:      "sam@example.com",
			Name:       "Sam Rivera",
			Status:     domain.StatusCanceledAtPeriodEnd,
			ProductID:  "prod_demo",
			PlanName:   "Pro Monthly",
		},
		{
			WhopUserID:       "test_user_004",
			Email:            "taylor@example.com",
			Name:             "Taylor Kim",
			Status:           domain.StatusCanceledAtPeriodEnd,
			ProductID:        "prod_demo",
			PlanName:         "Starter Monthly",
			CancelRescueSent: true,
		},
		{
			WhopUserID: "test_user_005",
			Email:      "morgan@example.com",
			Name:       "Morgan Patel",
			Status:     domain.StatusInvalid,
			ProductID:  "prod_demo",
			PlanName:   "Pro Monthly",
		},
		{
			WhopUserID:          "test_user_006",
			Email:               "casey@example.com",
			Name:                "Casey Nguyen",
			Status:              domain.StatusInvalid,
			ProductID:           "prod_demo",
			PlanName:            "Starter Monthly",
			PaymentRecoverySent: true,
			ExitSurveyCompleted: true,
			ExitSurveyReason:    "too_expensive - Great content, just over budget right now",
		},
	}

	for i := range members {
		members[i].BusinessID = demoBusinessID
		members[i].IsAtRisk, members[i].RiskReason = domain.DeriveRisk(members[i].Status)
		members[i].LastEventID = "seed_" + members[i].WhopUserID
		members[i].CreatedAt = now
		members[i].UpdatedAt = now
	}
	return members
}
