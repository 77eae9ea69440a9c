package service

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/churnlabs/churnguard/internal/clock"
	"github.com/churnlabs/churnguard/internal/config"
	memberdomain "github.com/churnlabs/churnguard/internal/member/domain"
	obsmetrics "github.com/churnlabs/churnguard/internal/observability/metrics"
	retentiondomain "github.com/churnlabs/churnguard/internal/retention/domain"
	"github.com/churnlabs/churnguard/internal/webhook/domain"
	"github.com/churnlabs/churnguard/internal/webhook/signature"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	Cfg        config.Config
	GenID      *snowflake.Node
	Clock      clock.Clock
	Members    memberdomain.Repository
	Events     domain.Repository
	Retention  retentiondomain.Service
	Policy     *config.RetentionConfigHolder
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	cfg        config.Config
	genID      *snowflake.Node
	clock      clock.Clock
	members    memberdomain.Repository
	events     domain.Repository
	retention  retentiondomain.Service
	policy     *config.RetentionConfigHolder
	obsMetrics *obsmetrics.Metrics
}

func NewService(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("webhook.service"),
		cfg:        p.Cfg,
		genID:      p.GenID,
		clock:      p.Clock,
		members:    p.Members,
		events:     p.Events,
		retention:  p.Retention,
		policy:     p.Policy,
		obsMetrics: p.ObsMetrics,
	}
}

// Process runs verify, decode, dedup, persist, and dispatch for one delivery.
// The dedup check and the member write share one transaction so two
// concurrent deliveries of the same event cannot both believe they are first.
func (s *Service) Process(ctx context.Context, rawBody []byte, signatureHeader string) (domain.Result, error) {
	if err := s.verify(ctx, rawBody, signatureHeader); err != nil {
		return domain.Result{}, err
	}

	event, err := Decode(rawBody)
	if err != nil {
		reason := "malformed"
		if errors.Is(err, domain.ErrMissingMemberID) {
			reason = "missing-member"
		}
		s.obsMetrics.RecordWebhookRejected(ctx, reason)
		s.log.Warn("webhook payload rejected", zap.String("reason", reason))
		return domain.Result{}, err
	}

	now := s.clock.Now()
	var result domain.Result
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if event.EventID != "" {
			existing, err := s.members.FindByLastEventID(ctx, tx, event.EventID)
			if err != nil {
				return err
			}
			if existing != nil {
				result = domain.Result{Outcome: domain.OutcomeDuplicate, Event: event}
				return nil
			}
		}

		member, applyStatus := s.buildMember(event, now)
		created, err := s.members.Upsert(ctx, tx, member, applyStatus)
		if err != nil {
			return err
		}

		record := &domain.EventRecord{
			ID:         s.genID.Generate(),
			EventID:    event.EventID,
			EventType:  event.Type,
			WhopUserID: event.WhopUserID,
			BusinessID: event.BusinessID,
			Payload:    datatypes.JSON(event.Raw),
			ReceivedAt: now,
		}
		if err := s.events.InsertEvent(ctx, tx, record); err != nil {
			return err
		}

		result = domain.Result{Outcome: domain.OutcomeApplied, Created: created, Event: event}
		return nil
	})
	if err != nil {
		s.log.Error("webhook persistence failed",
			zap.String("event_type", event.Type),
			zap.String("event_id", event.EventID),
			zap.Error(err),
		)
		return domain.Result{}, err
	}

	s.obsMetrics.RecordWebhookEvent(ctx, event.Type, string(result.Outcome))
	if result.Outcome == domain.OutcomeDuplicate {
		s.log.Info("duplicate event acknowledged",
			zap.String("event_type", event.Type),
			zap.String("event_id", event.EventID),
		)
		return result, nil
	}

	s.log.Info("event applied",
		zap.String("event_type", event.Type),
		zap.String("event_id", event.EventID),
		zap.String("whop_user_id", event.WhopUserID),
		zap.Bool("created", result.Created),
	)

	s.dispatch(ctx, event)
	return result, nil
}

func (s *Service) verify(ctx context.Context, rawBody []byte, signatureHeader string) error {
	res := signature.Verify(s.cfg.WebhookSecret, rawBody, signatureHeader)
	if res.OK {
		s.log.Debug("signature accepted",
			zap.String("scheme", string(res.Scheme)),
			zap.String("v1_prefix", res.ProvidedPrefix),
		)
		return nil
	}

	s.obsMetrics.RecordWebhookRejected(ctx, res.Reason)
	s.log.Warn("signature rejected",
		zap.String("reason", res.Reason),
		zap.String("v1_prefix", res.ProvidedPrefix),
		zap.String("expected_prefix", res.ExpectedPrefix),
	)

	switch res.Reason {
	case signature.ReasonNoSecret:
		return domain.ErrNoSecret
	case signature.ReasonNoHeader:
		return domain.ErrNoSignatureHeader
	default:
		return domain.ErrSignatureMismatch
	}
}

// buildMember maps the event onto the member row. The returned bool reports
// whether the event carries a status transition; when false an existing
// row keeps its status and only identity fields refresh.
func (s *Service) buildMember(event domain.Event, now time.Time) (*memberdomain.Member, bool) {
	member := &memberdomain.Member{
		WhopUserID:  event.WhopUserID,
		BusinessID:  event.BusinessID,
		Email:       event.Email,
		Name:        event.Name,
		ProductID:   event.ProductID,
		PlanName:    event.PlanName,
		LastEventID: event.EventID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	status, applyStatus := s.statusFor(event.Type)
	member.ApplyStatus(status, now)
	return member, applyStatus
}

func (s *Service) statusFor(eventType string) (memberdomain.Status, bool) {
	switch eventType {
	case domain.EventMembershipWentValid:
		return memberdomain.StatusValid, true
	case domain.EventMembershipWentInvalid:
		return memberdomain.StatusInvalid, true
	case domain.EventMembershipCancelAtPeriodEndChanged:
		return memberdomain.StatusCanceledAtPeriodEnd, true
	case domain.EventPaymentFailed:
		// No status field in the payload; an unseen member starts out
		// invalid, an existing one keeps its current status.
		return memberdomain.StatusInvalid, false
	default:
		if s.policy.Get().UnknownEventPolicy == config.UnknownEventPolicyIgnore {
			return memberdomain.StatusInvalid, false
		}
		return memberdomain.StatusInvalid, true
	}
}

// dispatch reloads the post-commit record and hands it to the retention
// dispatcher. Side effects are best effort; the event is already durable.
func (s *Service) dispatch(ctx context.Context, event domain.Event) {
	stored, err := s.members.Find(ctx, s.db, event.WhopUserID)
	if err != nil {
		s.log.Error("failed to reload member for dispatch",
			zap.String("whop_user_id", event.WhopUserID),
			zap.Error(err),
		)
		return
	}
	if stored == nil {
		return
	}
	if err := s.retention.Dispatch(ctx, stored, event.Type); err != nil {
		s.log.Error("retention dispatch failed",
			zap.String("whop_user_id", event.WhopUserID),
			zap.String("event_type", event.Type),
			zap.Error(err),
		)
	}
}
