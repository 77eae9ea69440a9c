package messaging

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/churnlabs/churnguard/internal/config"
	"go.uber.org/zap"
)

// WhopProvider sends member messages through the Whop v5 API.
type WhopProvider struct {
	baseURL string
	apiKey  string
	client  *http.Client
	log     *zap.Logger
}

func NewWhopProvider(cfg config.Config, log *zap.Logger) *WhopProvider {
	return &WhopProvider{
		baseURL: strings.TrimRight(strings.TrimSpace(cfg.MessageAPIBaseURL), "/"),
		apiKey:  strings.TrimSpace(cfg.MessageAPIKey),
		client:  &http.Client{Timeout: 10 * time.Second},
		log:     log.Named("messaging.whop"),
	}
}

// Provide wires the message provider. Local setups without an API credential
// get the no-op provider so retention sends succeed silently; production
// keeps the real provider and surfaces ErrNotConfigured when the key is
// missing.
func Provide(cfg config.Config, log *zap.Logger) Provider {
	if strings.TrimSpace(cfg.MessageAPIKey) == "" && !cfg.IsProduction() {
		log.Named("messaging").Info("message API key not set, using no-op provider")
		return NoopProvider{}
	}
	return NewWhopProvider(cfg, log)
}

type messageRequest struct {
	Message string `json:"message"`
	Type    string `json:"type"`
}

func (p *WhopProvider) Send(ctx context.Context, memberID, message string) error {
	if p.apiKey == "" {
		p.log.Warn("message API key not configured, skipping send",
			zap.String("member_id", memberID),
		)
		return ErrNotConfigured
	}

	body, err := json.Marshal(messageRequest{Message: message, Type: "text"})
	if err != nil {
		return fmt.Errorf("encode message: %w", err)
	}

	endpoint := p.baseURL + "/members/" + url.PathEscape(memberID) + "/messages"
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build message request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+p.apiKey)
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("send message: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		return fmt.Errorf("send message: unexpected status %d", resp.StatusCode)
	}

	p.log.Info("message sent", zap.String("member_id", memberID))
	return nil
}

var _ Provider = (*WhopProvider)(nil)
