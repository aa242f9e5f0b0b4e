package payment

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestVerifySignature_RoundTrip(t *testing.T) {
	body := []byte(`{"type":"checkout.session.completed"}`)
	now := time.Now()
	header := Sign(body, "whsec_test", now)

	require.NoError(t, VerifySignature(header, body, "whsec_test", 5*time.Minute, now))
}

func TestVerifySignature_WrongSecret(t *testing.T) {
	body := []byte(`{}`)
	now := time.Now()
	header := Sign(body, "whsec_test", now)

	assert.ErrorIs(t, VerifySignature(header, body, "whsec_other", 5*time.Minute, now), ErrBadSignature)
}

func TestVerifySignature_TamperedBody(t *testing.T) {
	now := time.Now()
	header := Sign([]byte(`{"amount":100}`), "whsec_test", now)

	assert.ErrorIs(t, VerifySignature(header, []byte(`{"amount":999}`), "whsec_test", 5*time.Minute, now), ErrBadSignature)
}

func TestVerifySignature_StaleTimestamp(t *testing.T) {
	body := []byte(`{}`)
	signed := time.Now().Add(-10 * time.Minute)
	header := Sign(body, "whsec_test", signed)

	assert.ErrorIs(t, VerifySignature(header, body, "whsec_test", 5*time.Minute, time.Now()), ErrStaleTimestamp)
}

func TestVerifySignature_MalformedHeader(t *testing.T) {
	body := []byte(`{}`)
	for _, header := range []string{
		"",
		"v1=deadbeef",
		"t=notanumber,v1=deadbeef",
		"t=1700000000",
	} {
		assert.ErrorIs(t, VerifySignature(header, body, "whsec_test", 5*time.Minute, time.Now()), ErrBadSignature, "header %q", header)
	}
}

func TestVerifySignature_MultipleCandidates(t *testing.T) {
	body := []byte(`{}`)
	now := time.Now()
	// One valid candidate among several is enough.
	header := Sign(body, "whsec_test", now) +
		",v1=0000000000000000000000000000000000000000000000000000000000000000"
	require.NoError(t, VerifySignature(header, body, "whsec_test", 5*time.Minute, now))
}
