// Package domain contains persistence models for tracked members.
package domain

import (
	"errors"
	"time"
)

// Status represents lifecycle states for a membership.
type Status string

const (
	StatusValid               Status = "valid"
	StatusInvalid             Status = "invalid"
	StatusCanceledAtPeriodEnd Status = "canceled_at_period_end"
)

// KnownStatus reports whether the value is one of the tracked statuses.
func KnownStatus(s Status) bool {
	switch s {
	case StatusValid, StatusInvalid, StatusCanceledAtPeriodEnd:
		return true
	default:
		return false
	}
}

// Member captures the latest known state of a community member.
type Member struct {
	WhopUserID          string     `json:"whopUserId" gorm:"column:whop_user_id;primaryKey"`
	BusinessID          string     `json:"businessId" gorm:"type:text;not null;index:idx_members_business_status"`
	Email               string     `json:"email" gorm:"type:text"`
	Name                string     `json:"name" gorm:"type:text"`
	Status              Status     `json:"status" gorm:"type:text;not null;index:idx_members_business_status"`
	ProductID           string     `json:"productId" gorm:"type:text"`
	PlanName            string     `json:"planName" gorm:"type:text"`
	IsAtRisk            bool       `json:"isAtRisk" gorm:"not null;default:false"`
	RiskReason          string     `json:"riskReason" gorm:"type:text"`
	LastActiveAt        *time.Time `json:"lastActiveAt"`
	LastEventID         string     `json:"lastEventId" gorm:"type:text;index"`
	CancelRescueSent    bool       `json:"cancelRescueSent" gorm:"not null;default:false"`
	PaymentRecoverySent bool       `json:"paymentRecoverySent" gorm:"not null;default:false"`
	ExitSurveyCompleted bool       `json:"exitSurveyCompleted" gorm:"not null;default:false"`
	ExitSurveyReason    string     `json:"exitSurveyReason" gorm:"type:text"`
	CreatedAt           time.Time  `json:"createdAt" gorm:"not null"`
	UpdatedAt           time.Time  `json:"updatedAt" gorm:"not null"`
}

func (Member) TableName() string { return "members" }

// Risk reasons shown on the dashboard.
const (
	RiskReasonExpired   = "Membership expired"
	RiskReasonScheduled = "Scheduled cancellation"
)

// DeriveRisk computes the at-risk flag and reason from the membership status.
func DeriveRisk(status Status) (bool, string) {
	switch status {
	case StatusInvalid:
		return true, RiskReasonExpired
	case StatusCanceledAtPeriodEnd:
		return true, RiskReasonScheduled
	default:
		return false, ""
	}
}

// ApplyStatus sets the status and its derived risk fields.
func (m *Member) ApplyStatus(status Status, now time.Time) {
	m.Status = status
	m.IsAtRisk, m.RiskReason = DeriveRisk(status)
	if status == StatusValid {
		t := now
		m.LastActiveAt = &t
	}
}

// Flag identifies a one-way side-effect marker on a member.
type Flag string

const (
	FlagCancelRescue    Flag = "cancel_rescue_sent"
	FlagPaymentRecovery Flag = "payment_recovery_sent"
)

// DashboardCounts summarizes member totals per business.
type DashboardCounts struct {
	Total    int64 `json:"total"`
	Active   int64 `json:"active"`
	Canceled int64 `json:"canceled"`
	Churned  int64 `json:"churned"`
}

// StatusReport describes the service's ingestion readiness.
type StatusReport struct {
	WebhookConfigured   bool       `json:"webhookConfigured"`
	MessagingConfigured bool       `json:"messagingConfigured"`
	MemberCount         int64      `json:"memberCount"`
	TestMemberCount     int64      `json:"testMemberCount"`
	LastUpdatedAt       *time.Time `json:"lastUpdatedAt"`
}

var (
	ErrMemberNotFound    = errors.New("member not found")
	ErrInvalidBusinessID = errors.New("invalid business id")
	ErrSeedForbidden     = errors.New("demo seeding is disabled in production")
	ErrUnknownFlag       = errors.New("unknown member flag")
)
