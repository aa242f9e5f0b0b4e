// Package payment talks to the payment gateway: it opens checkout sessions
// and verifies the signatures on incoming webhook deliveries.
package payment

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

var (
	// ErrBadSignature is returned when the webhook signature header is
	// malformed or no candidate digest matches the payload.
	ErrBadSignature = errors.New("webhook signature verification failed")
	// ErrStaleTimestamp is returned when the signed timestamp falls outside
	// the tolerance window, which defeats replayed deliveries.
	ErrStaleTimestamp = errors.New("webhook timestamp outside tolerance")
)

// VerifySignature checks a gateway signature header of the form
// "t=<unix>,v1=<hex hmac>[,v1=...]" against the raw request body.  The
// signed payload is "<t>.<body>" and the digest is HMAC-SHA256 under the
// shared webhook secret.
func VerifySignature(header string, body []byte, secret string, tolerance time.Duration, now time.Time) error {
	var ts int64
	var candidates []string
	for _, part := range strings.Split(header, ",") {
		k, v, ok := strings.Cut(strings.TrimSpace(part), "=")
		if !ok {
			continue
		}
		switch k {
		case "t":
			n, err := strconv.ParseInt(v, 10, 64)
			if err != nil {
				return ErrBadSignature
			}
			ts = n
		case "v1":
			candidates = append(candidates, v)
		}
	}
	if ts == 0 || len(candidates) == 0 {
		return ErrBadSignature
	}

	age := now.Sub(time.Unix(ts, 0))
	if age < 0 {
		age = -age
	}
	if age > tolerance {
		return ErrStaleTimestamp
	}

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", ts)
	mac.Write(body)
	expected := hex.EncodeToString(mac.Sum(nil))

	for _, c := range candidates {
		if hmac.Equal([]byte(expected), []byte(c)) {
			return nil
		}
	}
	return ErrBadSignature
}

// Sign produces a signature header for the given body and timestamp.  The
// server only verifies signatures; this exists for tests and local webhook
// replays.
func Sign(body []byte, secret string, at time.Time) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.", at.Unix())
	mac.Write(body)
	return fmt.Sprintf("t=%d,v1=%s", at.Unix(), hex.EncodeToString(mac.Sum(nil)))
}
