package messaging_test

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/churnlabs/churnguard/internal/config"
	"github.com/churnlabs/churnguard/internal/providers/messaging"
	"go.uber.org/zap"
)

func TestWhopProviderSendsMessage(t *testing.T) {
	var gotPath, gotAuth string
	var gotBody map[string]string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotAuth = r.Header.Get("Authorization")
		if err := json.NewDecoder(r.Body).Decode(&gotBody); err != nil {
			t.Errorf("decode body: %v", err)
		}
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	provider := messaging.NewWhopProvider(config.Config{
		MessageAPIBaseURL: srv.URL,
		MessageAPIKey:     "whop_key",
	}, zap.NewNop())

	if err := provider.Send(context.Background(), "user_1", "hello"); err != nil {
		t.Fatalf("send: %v", err)
	}
	if gotPath != "/members/user_1/messages" {
		t.Fatalf("unexpected path %q", gotPath)
	}
	if gotAuth != "Bearer whop_key" {
		t.Fatalf("unexpected auth header %q", gotAuth)
	}
	if gotBody["message"] != "hello" || gotBody["type"] != "text" {
		t.Fatalf("unexpected body %v", gotBody)
	}
}

func TestWhopProviderReportsFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	provider := messaging.NewWhopProvider(config.Config{
		MessageAPIBaseURL: srv.URL,
		MessageAPIKey:     "whop_key",
	}, zap.NewNop())

	if err := provider.Send(context.Background(), "user_1", "hello"); err == nil {
		t.Fatalf("expected error on non-2xx response")
	}
}

func TestProvideSelectsProviderByEnvironment(t *testing.T) {
	provider := messaging.Provide(config.Config{Environment: "development"}, zap.NewNop())
	if _, ok := provider.(messaging.NoopProvider); !ok {
		t.Fatalf("expected no-op provider without credential in development, got %T", provider)
	}
	if err := provider.Send(context.Background(), "user_1", "hello"); err != nil {
		t.Fatalf("no-op send: %v", err)
	}

	provider = messaging.Provide(config.Config{Environment: "production"}, zap.NewNop())
	if _, ok := provider.(*messaging.WhopProvider); !ok {
		t.Fatalf("expected real provider in production, got %T", provider)
	}
	if err := provider.Send(context.Background(), "user_1", "hello"); !errors.Is(err, messaging.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured in production without credential, got %v", err)
	}

	provider = messaging.Provide(config.Config{Environment: "development", MessageAPIKey: "whop_key"}, zap.NewNop())
	if _, ok := provider.(*messaging.WhopProvider); !ok {
		t.Fatalf("expected real provider when credential is set, got %T", provider)
	}
}

func TestWhopProviderWithoutCredential(t *testing.T) {
	provider := messaging.NewWhopProvider(config.Config{}, zap.NewNop())

	err := provider.Send(context.Background(), "user_1", "hello")
	if !errors.Is(err, messaging.ErrNotConfigured) {
		t.Fatalf("expected ErrNotConfigured, got %v", err)
	}
}
