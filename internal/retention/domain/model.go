// Package domain defines the retention messaging contract.
package domain

import (
	"context"

	memberdomain "github.com/churnlabs/churnguard/internal/member/domain"
)

// Kind names a one-shot retention feature.
type Kind string

const (
	KindCancelRescue    Kind = "cancel_rescue"
	KindPaymentRecovery Kind = "payment_recovery"
	KindExitSurvey      Kind = "exit_survey"
)

// Service decides, after an event has been applied, whether a retention
// message fires for the member. Every send is at-most-once per member per
// feature; delivery failures are absorbed so the webhook still acknowledges.
type Service interface {
	Dispatch(ctx context.Context, member *memberdomain.Member, eventType string) error
}
