package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// SignatureHeader is the request header carrying the webhook signature.
const SignatureHeader = "Stripe-Signature"

// DefaultTolerance bounds how old a signed timestamp may be.
const DefaultTolerance = 5 * time.Minute

// VerificationError means the event could not be authenticated or parsed and
// must be rejected without touching state.
type VerificationError struct {
	Reason string
}

func (e *VerificationError) Error() string {
	return "webhook verification failed: " + e.Reason
}

func verificationErr(format string, args ...any) error {
	return &VerificationError{Reason: fmt.Sprintf(format, args...)}
}

// Sign returns a header value of the form "t=<unix>,v1=<hex hmac>" for payload.
func Sign(payload []byte, secret string, t time.Time) string {
	ts := strconv.FormatInt(t.Unix(), 10)
	return "t=" + ts + ",v1=" + computeSignature(ts, payload, secret)
}

func computeSignature(ts string, payload []byte, secret string) string {
	mac := hmac.New(sha256.New, []byte(secret))
	mac.Write([]byte(ts))
	mac.Write([]byte("."))
	mac.Write(payload)
	return hex.EncodeToString(mac.Sum(nil))
}

// VerifySignature checks header against the raw payload. Any v1 entry matching
// the expected signature is accepted, so secrets can be rolled.
func VerifySignature(payload []byte, header, secret string, tolerance time.Duration) error {
	return verifyAt(payload, header, secret, tolerance, time.Now())
}

func verifyAt(payload []byte, header, secret string, tolerance time.Duration, now time.Time) error {
	if secret == "" {
		return verificationErr("webhook secret not configured")
	}
	if strings.TrimSpace(header) == "" {
		return verificationErr("missing %s header", SignatureHeader)
	}

	var ts string
	var sigs []string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			ts = v
		case "v1":
			sigs = append(sigs, v)
		}
	}
	if ts == "" {
		return verificationErr("signature header has no timestamp")
	}
	unix, err := strconv.ParseInt(ts, 10, 64)
	if err != nil {
		return verificationErr("malformed timestamp %q", ts)
	}
	if len(sigs) == 0 {
		return verificationErr("signature header has no v1 signature")
	}

	expected := []byte(computeSignature(ts, payload, secret))
	matched := false
	for _, s := range sigs {
		if hmac.Equal(expected, []byte(s)) {
			matched = true
			break
		}
	}
	if !matched {
		return verificationErr("signature mismatch")
	}

	if tolerance > 0 {
		age := now.Sub(time.Unix(unix, 0))
		if age > tolerance || age < -tolerance {
			return verificationErr("timestamp outside tolerance")
		}
	}
	return nil
}
