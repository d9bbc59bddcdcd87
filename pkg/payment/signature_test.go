package payment

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const testSecret = "whsec_test"

func TestVerifySignature(t *testing.T) {
	payload := []byte(`{"id":"evt_1","type":"checkout.session.completed"}`)
	now := time.Now()

	tests := []struct {
		name   string
		header string
		secret string
		ok     bool
	}{
		{"valid", Sign(payload, testSecret, now), testSecret, true},
		{"wrong secret", Sign(payload, "other", now), testSecret, false},
		{"empty secret", Sign(payload, "", now), "", false},
		{"missing header", "", testSecret, false},
		{"no v1", "t=123", testSecret, false},
		{"no timestamp", "v1=abc", testSecret, false},
		{"garbage", "nonsense", testSecret, false},
		{"stale", Sign(payload, testSecret, now.Add(-10*time.Minute)), testSecret, false},
		{"future", Sign(payload, testSecret, now.Add(10*time.Minute)), testSecret, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := VerifySignature(payload, tt.header, tt.secret, DefaultTolerance)
			if tt.ok {
				require.NoError(t, err)
				return
			}
			var ve *VerificationError
			require.Error(t, err)
			assert.True(t, errors.As(err, &ve))
		})
	}
}

func TestVerifySignature_TamperedPayload(t *testing.T) {
	payload := []byte(`{"id":"evt_1","amount":1900}`)
	header := Sign(payload, testSecret, time.Now())

	err := VerifySignature([]byte(`{"id":"evt_1","amount":1}`), header, testSecret, DefaultTolerance)
	require.Error(t, err)
}

func TestVerifySignature_AnyV1Matches(t *testing.T) {
	payload := []byte(`{}`)
	now := time.Now()
	good := Sign(payload, testSecret, now)
	header := "t=" + good[2:12] + ",v1=deadbeef," + good[13:]

	require.NoError(t, VerifySignature(payload, header, testSecret, DefaultTolerance))
}

func TestVerifySignature_ZeroToleranceSkipsAgeCheck(t *testing.T) {
	payload := []byte(`{}`)
	header := Sign(payload, testSecret, time.Now().Add(-24*time.Hour))

	require.NoError(t, VerifySignature(payload, header, testSecret, 0))
}
