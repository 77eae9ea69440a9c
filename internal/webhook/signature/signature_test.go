package signature_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/churnlabs/churnguard/internal/webhook/signature"
)

const testSecret = "whsec_test_secret"

func header(t, v1 string) string {
	return fmt.Sprintf("t=%s,v1=%s", t, v1)
}

func TestVerifyAcceptsTimestampedScheme(t *testing.T) {
	body := []byte(`{"type":"membership_went_valid","id":"evt_1"}`)
	sig := signature.SignTimestamped(testSecret, "1717243200", body)

	res := signature.Verify(testSecret, body, header("1717243200", sig))
	if !res.OK {
		t.Fatalf("expected acceptance, got reason %q", res.Reason)
	}
	if res.Scheme != signature.SchemeTimestamped {
		t.Fatalf("expected timestamped scheme, got %q", res.Scheme)
	}
}

func TestVerifyAcceptsRawScheme(t *testing.T) {
	body := []byte(`{"type":"membership_went_invalid","id":"evt_2"}`)
	sig := signature.SignRaw(testSecret, body)

	res := signature.Verify(testSecret, body, header("1717243200", sig))
	if !res.OK {
		t.Fatalf("expected acceptance, got reason %q", res.Reason)
	}
	if res.Scheme != signature.SchemeRaw {
		t.Fatalf("expected raw scheme, got %q", res.Scheme)
	}
}

func TestVerifyAcceptsUppercaseHex(t *testing.T) {
	body := []byte(`{"id":"evt_3"}`)
	sig := strings.ToUpper(signature.SignRaw(testSecret, body))

	res := signature.Verify(testSecret, body, header("1717243200", sig))
	if !res.OK {
		t.Fatalf("expected acceptance, got reason %q", res.Reason)
	}
}

func TestVerifyRejectsSingleBitMutation(t *testing.T) {
	body := []byte(`{"type":"payment_failed","id":"evt_4"}`)
	sig := signature.SignTimestamped(testSecret, "1717243200", body)

	mutated := []byte(sig)
	if mutated[0] == 'a' {
		mutated[0] = 'b'
	} else {
		mutated[0] = 'a'
	}

	res := signature.Verify(testSecret, body, header("1717243200", string(mutated)))
	if res.OK {
		t.Fatalf("expected rejection for mutated signature")
	}
	if res.Reason != signature.ReasonMismatch {
		t.Fatalf("expected mismatch reason, got %q", res.Reason)
	}
}

func TestVerifyRejectsWrongTimestamp(t *testing.T) {
	body := []byte(`{"id":"evt_5"}`)
	sig := signature.SignTimestamped(testSecret, "1717243200", body)

	res := signature.Verify(testSecret, body, header("1717243201", sig))
	if res.OK {
		t.Fatalf("expected rejection when timestamp differs from signed value")
	}
}

func TestVerifyNoSecret(t *testing.T) {
	body := []byte(`{}`)
	sig := signature.SignRaw(testSecret, body)

	res := signature.Verify("", body, header("1717243200", sig))
	if res.OK {
		t.Fatalf("expected rejection when secret is unconfigured")
	}
	if res.Reason != signature.ReasonNoSecret {
		t.Fatalf("expected no-secret reason, got %q", res.Reason)
	}
}

func TestVerifyHeaderVariants(t *testing.T) {
	body := []byte(`{}`)
	sig := signature.SignRaw(testSecret, body)

	cases := []struct {
		name   string
		header string
		ok     bool
		reason string
	}{
		{"missing header", "", false, signature.ReasonNoHeader},
		{"missing v1", "t=1717243200", false, signature.ReasonNoHeader},
		{"missing t", "v1=" + sig, false, signature.ReasonNoHeader},
		{"garbage pairs ignored", "foo,t=1717243200,,bar=baz,v1=" + sig, true, ""},
		{"whitespace tolerated", " t = 1717243200 , v1 = " + sig + " ", true, ""},
		{"non-hex signature", "t=1717243200,v1=zzzz", false, signature.ReasonMismatch},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			res := signature.Verify(testSecret, body, tc.header)
			if res.OK != tc.ok {
				t.Fatalf("expected ok=%v, got %v (reason %q)", tc.ok, res.OK, res.Reason)
			}
			if !tc.ok && res.Reason != tc.reason {
				t.Fatalf("expected reason %q, got %q", tc.reason, res.Reason)
			}
		})
	}
}

func TestPrefixesNeverExposeFullDigest(t *testing.T) {
	body := []byte(`{}`)
	sig := signature.SignTimestamped("other_secret", "1717243200", body)

	res := signature.Verify(testSecret, body, header("1717243200", sig))
	if res.OK {
		t.Fatalf("expected rejection")
	}
	if len(res.ProvidedPrefix) > 12 || len(res.ExpectedPrefix) > 12 {
		t.Fatalf("digest prefixes must be truncated, got %q / %q", res.ProvidedPrefix, res.ExpectedPrefix)
	}
}
