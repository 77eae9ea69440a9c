package service_test

import (
	"errors"
	"testing"

	"github.com/churnlabs/churnguard/internal/webhook/domain"
	"github.com/churnlabs/churnguard/internal/webhook/service"
)

func TestDecodeFullMembershipPayload(t *testing.T) {
	raw := []byte(`{
		"type": "membership_went_valid",
		"id": "evt_100",
		"data": {
			"id": "mem_generic",
			"membership": {"id": "mem_1"},
			"user": {"id": "user_1", "email": "a@example.com", "name": "Ada"},
			"product": {"id": "prod_1", "name": "Pro Monthly"}
		}
	}`)

	event, err := service.Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if event.Type != domain.EventMembershipWentValid {
		t.Fatalf("unexpected type %q", event.Type)
	}
	if event.EventID != "evt_100" {
		t.Fatalf("unexpected event id %q", event.EventID)
	}
	if event.WhopUserID != "mem_1" {
		t.Fatalf("membership id should win precedence, got %q", event.WhopUserID)
	}
	if event.BusinessID != "prod_1" {
		t.Fatalf("product id should win business precedence, got %q", event.BusinessID)
	}
	if event.Email != "a@example.com" || event.Name != "Ada" {
		t.Fatalf("unexpected profile %q %q", event.Email, event.Name)
	}
	if event.PlanName != "Pro Monthly" {
		t.Fatalf("unexpected plan name %q", event.PlanName)
	}
}

func TestDecodeEventIDFallback(t *testing.T) {
	raw := []byte(`{"type":"payment_failed","event_id":"evt_alt","data":{"id":"mem_1"}}`)

	event, err := service.Decode(raw)
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if event.EventID != "evt_alt" {
		t.Fatalf("expected event_id fallback, got %q", event.EventID)
	}
}

func TestDecodeMemberIDPrecedence(t *testing.T) {
	cases := []struct {
		name string
		raw  string
		want string
	}{
		{"user id when no membership", `{"data":{"id":"mem_generic","user":{"id":"user_1"}}}`, "user_1"},
		{"generic id as last resort", `{"data":{"id":"mem_generic"}}`, "mem_generic"},
		{"empty membership id skipped", `{"data":{"id":"mem_generic","membership":{"id":""},"user":{"id":"user_1"}}}`, "user_1"},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			event, err := service.Decode([]byte(tc.raw))
			if err != nil {
				t.Fatalf("decode: %v", err)
			}
			if event.WhopUserID != tc.want {
				t.Fatalf("expected %q, got %q", tc.want, event.WhopUserID)
			}
		})
	}
}

func TestDecodeBusinessFallbacks(t *testing.T) {
	event, err := service.Decode([]byte(`{"data":{"id":"mem_1","plan":{"id":"plan_9","name":"Starter"}}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if event.BusinessID != "plan_9" {
		t.Fatalf("expected plan id fallback, got %q", event.BusinessID)
	}
	if event.PlanName != "Starter" {
		t.Fatalf("expected plan name, got %q", event.PlanName)
	}

	event, err = service.Decode([]byte(`{"data":{"id":"mem_1"}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if event.BusinessID != service.UnknownBusinessID {
		t.Fatalf("expected unknown business sentinel, got %q", event.BusinessID)
	}
}

func TestDecodeCustomerEmailFallback(t *testing.T) {
	event, err := service.Decode([]byte(`{"data":{"id":"mem_1","customer":{"email":"c@example.com"}}}`))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if event.Email != "c@example.com" {
		t.Fatalf("expected customer email fallback, got %q", event.Email)
	}
}

func TestDecodeMalformedJSON(t *testing.T) {
	_, err := service.Decode([]byte(`{"type":`))
	if !errors.Is(err, domain.ErrMalformedPayload) {
		t.Fatalf("expected ErrMalformedPayload, got %v", err)
	}
}

func TestDecodeMissingMemberID(t *testing.T) {
	_, err := service.Decode([]byte(`{"type":"membership_went_valid","data":{}}`))
	if !errors.Is(err, domain.ErrMissingMemberID) {
		t.Fatalf("expected ErrMissingMemberID, got %v", err)
	}
}
