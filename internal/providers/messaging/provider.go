// Package messaging sends retention messages to members through the
// platform's message API.
package messaging

import (
	"context"
	"errors"
)

// Provider delivers a text message to a member. Implementations report
// delivery failure through the returned error; the caller decides whether
// the failure is retryable.
type Provider interface {
	Send(ctx context.Context, memberID, message string) error
}

// ErrNotConfigured is returned when no API credential is present. Sends
// degrade to a logged no-op instead of crashing the pipeline.
var ErrNotConfigured = errors.New("message API credential not configured")

// NoopProvider accepts every send without doing anything. Used in tests and
// local development.
type NoopProvider struct{}

func (NoopProvider) Send(ctx context.Context, memberID, message string) error {
	_ = ctx
	_ = memberID
	_ = message
	return nil
}
