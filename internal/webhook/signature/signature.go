// Package signature verifies inbound webhook payloads against the shared secret.
package signature

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"strings"
)

// Scheme names the HMAC input construction that matched.
type Scheme string

const (
	// SchemeTimestamped signs the string "{t}.{rawBody}".
	SchemeTimestamped Scheme = "timestamped"
	// SchemeRaw signs the raw body alone. Kept for senders still on the
	// older signing convention; both schemes stay active simultaneously.
	SchemeRaw Scheme = "raw"
)

// Rejection reasons.
const (
	ReasonNoHeader = "no-header"
	ReasonNoSecret = "no-secret"
	ReasonMismatch = "mismatch"
)

// Result reports the verification decision.
type Result struct {
	OK     bool
	Reason string
	Scheme Scheme

	// ProvidedPrefix and ExpectedPrefix carry truncated digests for
	// diagnostics. Full digests are never exposed.
	ProvidedPrefix string
	ExpectedPrefix string
}

// Verify checks the signature header against the raw, unparsed request body.
// The payload is never parsed here; parsing happens strictly after acceptance.
func Verify(secret string, rawBody []byte, header string) Result {
	if strings.TrimSpace(secret) == "" {
		return Result{Reason: ReasonNoSecret}
	}

	timestamp, provided, ok := parseHeader(header)
	if !ok {
		return Result{Reason: ReasonNoHeader}
	}

	providedMAC, err := hex.DecodeString(provided)
	if err != nil {
		return Result{Reason: ReasonMismatch, ProvidedPrefix: prefix(provided)}
	}

	timestamped := computeMAC(secret, []byte(timestamp+"."), rawBody)
	raw := computeMAC(secret, nil, rawBody)

	matchTimestamped := constantTimeEqual(timestamped, providedMAC)
	matchRaw := constantTimeEqual(raw, providedMAC)

	switch {
	case matchTimestamped:
		return Result{OK: true, Scheme: SchemeTimestamped, ProvidedPrefix: prefix(provided)}
	case matchRaw:
		return Result{OK: true, Scheme: SchemeRaw, ProvidedPrefix: prefix(provided)}
	default:
		return Result{
			Reason:         ReasonMismatch,
			ProvidedPrefix: prefix(provided),
			ExpectedPrefix: prefix(hex.EncodeToString(timestamped)),
		}
	}
}

// SignTimestamped computes the timestamped-scheme signature in the header's
// lowercase hex encoding. Exposed for tests and local tooling.
func SignTimestamped(secret, timestamp string, rawBody []byte) string {
	return hex.EncodeToString(computeMAC(secret, []byte(timestamp+"."), rawBody))
}

// SignRaw computes the raw-scheme signature in lowercase hex.
func SignRaw(secret string, rawBody []byte) string {
	return hex.EncodeToString(computeMAC(secret, nil, rawBody))
}

func parseHeader(header string) (string, string, bool) {
	var timestamp, provided string
	for _, part := range strings.Split(header, ",") {
		piece := strings.TrimSpace(part)
		if piece == "" {
			continue
		}
		keyValue := strings.SplitN(piece, "=", 2)
		if len(keyValue) != 2 {
			continue
		}
		key := strings.TrimSpace(keyValue[0])
		value := strings.TrimSpace(keyValue[1])
		if key == "t" {
			timestamp = value
		}
		if key == "v1" {
			provided = strings.ToLower(value)
		}
	}
	if timestamp == "" || provided == "" {
		return "", "", false
	}
	return timestamp, provided, true
}

func computeMAC(secret string, prefix, rawBody []byte) []byte {
	mac := hmac.New(sha256.New, []byte(secret))
	if len(prefix) > 0 {
		mac.Write(prefix)
	}
	mac.Write(rawBody)
	return mac.Sum(nil)
}

func constantTimeEqual(expected, provided []byte) bool {
	if len(expected) != len(provided) {
		return false
	}
	return hmac.Equal(expected, provided)
}

func prefix(digest string) string {
	if len(digest) <= 12 {
		return digest
	}
	return digest[:12]
}
