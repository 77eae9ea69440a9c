package service

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/churnlabs/churnguard/internal/webhook/domain"
)

// UnknownBusinessID is the sentinel used when the payload carries no
// product or plan scope at all.
const UnknownBusinessID = "unknown_business"

type envelope struct {
	Type    string       `json:"type"`
	ID      string       `json:"id"`
	EventID string       `json:"event_id"`
	Data    envelopeData `json:"data"`
}

type envelopeData struct {
	ID         string       `json:"id"`
	Membership *idRef       `json:"membership"`
	User       *userRef     `json:"user"`
	Customer   *customerRef `json:"customer"`
	Product    *namedRef    `json:"product"`
	Plan       *namedRef    `json:"plan"`
}

type idRef struct {
	ID string `json:"id"`
}

type userRef struct {
	ID    string `json:"id"`
	Email string `json:"email"`
	Name  string `json:"name"`
}

type customerRef struct {
	Email string `json:"email"`
}

type namedRef struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Decode parses accepted raw bytes into the typed event envelope. The sender
// has shipped several payload shapes over time, so member and business
// identifiers are resolved through a fixed precedence order.
func Decode(raw []byte) (domain.Event, error) {
	var env envelope
	if err := json.Unmarshal(raw, &env); err != nil {
		return domain.Event{}, fmt.Errorf("%w: %v", domain.ErrMalformedPayload, err)
	}

	event := domain.Event{
		Type: strings.TrimSpace(env.Type),
		Raw:  raw,
	}

	event.EventID = strings.TrimSpace(env.ID)
	if event.EventID == "" {
		event.EventID = strings.TrimSpace(env.EventID)
	}

	// Member identity: membership id, then user id, then the generic data id.
	switch {
	case env.Data.Membership != nil && strings.TrimSpace(env.Data.Membership.ID) != "":
		event.WhopUserID = strings.TrimSpace(env.Data.Membership.ID)
	case env.Data.User != nil && strings.TrimSpace(env.Data.User.ID) != "":
		event.WhopUserID = strings.TrimSpace(env.Data.User.ID)
	default:
		event.WhopUserID = strings.TrimSpace(env.Data.ID)
	}
	if event.WhopUserID == "" {
		return domain.Event{}, domain.ErrMissingMemberID
	}

	// Business scope: product id, then plan id, then the unknown sentinel.
	switch {
	case env.Data.Product != nil && strings.TrimSpace(env.Data.Product.ID) != "":
		event.BusinessID = strings.TrimSpace(env.Data.Product.ID)
		event.ProductID = event.BusinessID
		event.PlanName = strings.TrimSpace(env.Data.Product.Name)
	case env.Data.Plan != nil && strings.TrimSpace(env.Data.Plan.ID) != "":
		event.BusinessID = strings.TrimSpace(env.Data.Plan.ID)
		event.ProductID = event.BusinessID
		event.PlanName = strings.TrimSpace(env.Data.Plan.Name)
	default:
		event.BusinessID = UnknownBusinessID
	}

	if env.Data.User != nil {
		event.Email = strings.TrimSpace(env.Data.User.Email)
		event.Name = strings.TrimSpace(env.Data.User.Name)
	}
	if event.Email == "" && env.Data.Customer != nil {
		event.Email = strings.TrimSpace(env.Data.Customer.Email)
	}

	return event, nil
}
