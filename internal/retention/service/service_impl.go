package service

import (
	"context"

	"github.com/churnlabs/churnguard/internal/config"
	memberdomain "github.com/churnlabs/churnguard/internal/member/domain"
	obsmetrics "github.com/churnlabs/churnguard/internal/observability/metrics"
	"github.com/churnlabs/churnguard/internal/providers/messaging"
	"github.com/churnlabs/churnguard/internal/retention/domain"
	webhookdomain "github.com/churnlabs/churnguard/internal/webhook/domain"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Members    memberdomain.Repository
	Provider   messaging.Provider
	Retention  *config.RetentionConfigHolder
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	members    memberdomain.Repository
	provider   messaging.Provider
	retention  *config.RetentionConfigHolder
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("retention.service"),
		members:    p.Members,
		provider:   p.Provider,
		retention:  p.Retention,
		obsMetrics: p.ObsMetrics,
	}
}

// Dispatch inspects the post-commit member record and fires at most one
// retention message for the triggering event type.
func (s *Service) Dispatch(ctx context.Context, member *memberdomain.Member, eventType string) error {
	if member == nil {
		return nil
	}
	messages := s.retention.Get().Messages

	switch eventType {
	case webhookdomain.EventMembershipCancelAtPeriodEndChanged:
		return s.sendFlagged(ctx, member, memberdomain.FlagCancelRescue, domain.KindCancelRescue, messages.CancelRescue)
	case webhookdomain.EventPaymentFailed:
		return s.sendFlagged(ctx, member, memberdomain.FlagPaymentRecovery, domain.KindPaymentRecovery, messages.PaymentRecovery)
	case webhookdomain.EventMembershipWentInvalid:
		return s.sendExitSurveyInvite(ctx, member, messages.ExitSurvey)
	default:
		return nil
	}
}

// sendFlagged claims the member's flag before sending. The conditional
// claim is the race guard: under N concurrent deliveries only one caller
// wins it. A failed send releases the flag so a future redelivery retries.
func (s *Service) sendFlagged(ctx context.Context, member *memberdomain.Member, flag memberdomain.Flag, kind domain.Kind, message string) error {
	claimed, err := s.members.ClaimFlag(ctx, s.db, member.WhopUserID, flag)
	if err != nil {
		return err
	}
	if !claimed {
		s.log.Debug("retention message already sent",
			zap.String("whop_user_id", member.WhopUserID),
			zap.String("kind", string(kind)),
		)
		return nil
	}

	if err := s.provider.Send(ctx, member.WhopUserID, message); err != nil {
		s.log.Warn("retention message send failed",
			zap.String("whop_user_id", member.WhopUserID),
			zap.String("kind", string(kind)),
			zap.Error(err),
		)
		s.obsMetrics.RecordRetentionSendFailure(ctx, string(kind))
		if releaseErr := s.members.ReleaseFlag(ctx, s.db, member.WhopUserID, flag); releaseErr != nil {
			s.log.Error("failed to release retention flag",
				zap.String("whop_user_id", member.WhopUserID),
				zap.String("kind", string(kind)),
				zap.Error(releaseErr),
			)
			return releaseErr
		}
		return nil
	}

	s.obsMetrics.RecordRetentionMessage(ctx, string(kind))
	s.log.Info("retention message sent",
		zap.String("whop_user_id", member.WhopUserID),
		zap.String("kind", string(kind)),
	)
	return nil
}

// The exit survey invite has no send flag of its own. It is gated by
// exitSurveyCompleted, which only the survey submission flow sets, so a
// member keeps receiving the invite on each went-invalid event until they
// answer. Event-level dedup prevents duplicate invites per delivery.
func (s *Service) sendExitSurveyInvite(ctx context.Context, member *memberdomain.Member, message string) error {
	if member.ExitSurveyCompleted {
		s.log.Debug("exit survey already completed",
			zap.String("whop_user_id", member.WhopUserID),
		)
		return nil
	}

	if err := s.provider.Send(ctx, member.WhopUserID, message); err != nil {
		s.log.Warn("exit survey invite send failed",
			zap.String("whop_user_id", member.WhopUserID),
			zap.Error(err),
		)
		s.obsMetrics.RecordRetentionSendFailure(ctx, string(domain.KindExitSurvey))
		return nil
	}

	s.obsMetrics.RecordRetentionMessage(ctx, string(domain.KindExitSurvey))
	s.log.Info("exit survey invite sent",
		zap.String("whop_user_id", member.WhopUserID),
	)
	return nil
}
