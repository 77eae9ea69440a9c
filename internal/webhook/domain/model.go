// Package domain defines the inbound webhook event envelope and pipeline contract.
package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Event types delivered by the payments platform.
const (
	EventMembershipWentValid                = "membership_went_valid"
	EventMembershipWentInvalid              = "membership_went_invalid"
	EventMembershipCancelAtPeriodEndChanged = "membership_cancel_at_period_end_changed"
	EventPaymentFailed                      = "payment_failed"
)

// Event is the decoded webhook envelope.
type Event struct {
	Type       string
	EventID    string
	WhopUserID string
	BusinessID string
	Email      string
	Name       string
	ProductID  string
	PlanName   string
	Raw        []byte
}

// Outcome describes how the pipeline disposed of a delivery.
type Outcome string

const (
	OutcomeApplied   Outcome = "applied"
	OutcomeDuplicate Outcome = "duplicate"
)

// Result reports the pipeline decision for an accepted delivery.
type Result struct {
	Outcome Outcome
	Created bool
	Event   Event
}

// Service runs the full ingestion pipeline for one raw delivery.
type Service interface {
	Process(ctx context.Context, rawBody []byte, signatureHeader string) (Result, error)
}

// EventRecord is the observational log row kept for every applied event.
type EventRecord struct {
	ID         snowflake.ID   `json:"id" gorm:"primaryKey"`
	EventID    string         `json:"event_id" gorm:"type:text;not null;index"`
	EventType  string         `json:"event_type" gorm:"type:text;not null"`
	WhopUserID string         `json:"whop_user_id" gorm:"type:text;not null;index"`
	BusinessID string         `json:"business_id" gorm:"type:text;not null"`
	Payload    datatypes.JSON `json:"payload"`
	ReceivedAt time.Time      `json:"received_at" gorm:"not null"`
}

func (EventRecord) TableName() string { return "webhook_events" }

var (
	ErrNoSecret          = errors.New("webhook secret not configured")
	ErrNoSignatureHeader = errors.New("signature header missing or incomplete")
	ErrSignatureMismatch = errors.New("signature mismatch")
	ErrMalformedPayload  = errors.New("malformed payload")
	ErrMissingMemberID   = errors.New("missing member identifier")
)
