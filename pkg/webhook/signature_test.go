package webhook_test

import (
	"crypto/hmac"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"strconv"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ealanisln/vetify-sub011/pkg/webhook"
)

// signAt computes the delivery signature for a fixed timestamp, the
// same way the sender does, so tests can fabricate old deliveries.
func signAt(secret string, timestamp int64, payload []byte) string {
	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%d.%s", timestamp, payload)
	return hex.EncodeToString(mac.Sum(nil))
}

func TestSignPayload(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		secret  string
		payload []byte
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid signature",
			secret:  "whsec_test_123",
			payload: []byte(`{"event":"subscription.plan_changed"}`),
			wantErr: false,
		},
		{
			name:    "empty secret",
			secret:  "",
			payload: []byte(`{"event":"subscription.plan_changed"}`),
			wantErr: true,
			errMsg:  "secret is required",
		},
		{
			name:    "empty payload",
			secret:  "whsec_test_123",
			payload: []byte{},
			wantErr: true,
			errMsg:  "payload cannot be empty",
		},
		{
			name:    "nil payload",
			secret:  "whsec_test_123",
			payload: nil,
			wantErr: true,
			errMsg:  "payload cannot be empty",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			headers, err := webhook.SignPayload(tt.secret, tt.payload)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
				return
			}

			require.NoError(t, err)
			assert.NotEmpty(t, headers.Signature)
			assert.NotZero(t, headers.Timestamp)
			assert.NotEmpty(t, headers.ID)

			_, err = hex.DecodeString(headers.Signature)
			assert.NoError(t, err, "signature should be hex encoded")

			age := time.Since(time.Unix(headers.Timestamp, 0))
			assert.Less(t, age, time.Second, "timestamp should be recent")
		})
	}
}

func TestSignatureHeadersMap(t *testing.T) {
	t.Parallel()

	sig := webhook.SignatureHeaders{
		Signature: "abc123",
		Timestamp: 1700000000,
		ID:        "evt_1",
	}

	headers := sig.Headers()
	assert.Equal(t, "abc123", headers[webhook.HeaderSignature])
	assert.Equal(t, "1700000000", headers[webhook.HeaderTimestamp])
	assert.Equal(t, "evt_1", headers[webhook.HeaderEventID])
}

func TestVerifySignature(t *testing.T) {
	t.Parallel()

	secret := "whsec_test"
	payload := []byte(`{"event":"subscription.plan_changed","tenant_id":"t1"}`)

	validHeaders, err := webhook.SignPayload(secret, payload)
	require.NoError(t, err)

	staleTS := time.Now().Add(-2 * time.Hour).Unix()
	staleHeaders := webhook.SignatureHeaders{
		Signature: signAt(secret, staleTS, payload),
		Timestamp: staleTS,
		ID:        validHeaders.ID,
	}

	futureTS := time.Now().Add(2 * time.Hour).Unix()
	futureHeaders := webhook.SignatureHeaders{
		Signature: signAt(secret, futureTS, payload),
		Timestamp: futureTS,
		ID:        validHeaders.ID,
	}

	tests := []struct {
		name    string
		secret  string
		payload []byte
		headers webhook.SignatureHeaders
		maxAge  time.Duration
		wantErr bool
		errMsg  string
	}{
		{
			name:    "valid signature",
			secret:  secret,
			payload: payload,
			headers: validHeaders,
			maxAge:  5 * time.Minute,
			wantErr: false,
		},
		{
			name:    "zero max age skips freshness check",
			secret:  secret,
			payload: payload,
			headers: staleHeaders,
			maxAge:  0,
			wantErr: false,
		},
		{
			name:    "stale signature",
			secret:  secret,
			payload: payload,
			headers: staleHeaders,
			maxAge:  time.Hour,
			wantErr: true,
			errMsg:  "signature timestamp too old",
		},
		{
			name:    "future signature",
			secret:  secret,
			payload: payload,
			headers: futureHeaders,
			maxAge:  time.Hour,
			wantErr: true,
			errMsg:  "signature timestamp is in the future",
		},
		{
			name:    "tampered payload",
			secret:  secret,
			payload: []byte(`{"event":"subscription.canceled"}`),
			headers: validHeaders,
			maxAge:  5 * time.Minute,
			wantErr: true,
			errMsg:  "signature mismatch",
		},
		{
			name:    "wrong secret",
			secret:  "whsec_other",
			payload: payload,
			headers: validHeaders,
			maxAge:  5 * time.Minute,
			wantErr: true,
			errMsg:  "signature mismatch",
		},
		{
			name:    "empty secret",
			secret:  "",
			payload: payload,
			headers: validHeaders,
			maxAge:  5 * time.Minute,
			wantErr: true,
			errMsg:  "secret is required",
		},
		{
			name:    "empty payload",
			secret:  secret,
			payload: []byte{},
			headers: validHeaders,
			maxAge:  5 * time.Minute,
			wantErr: true,
			errMsg:  "payload cannot be empty",
		},
		{
			name:    "missing signature",
			secret:  secret,
			payload: payload,
			headers: webhook.SignatureHeaders{
				Timestamp: validHeaders.Timestamp,
				ID:        validHeaders.ID,
			},
			maxAge:  5 * time.Minute,
			wantErr: true,
			errMsg:  "signature is missing",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := webhook.VerifySignature(tt.secret, tt.payload, tt.headers, tt.maxAge)

			if tt.wantErr {
				require.Error(t, err)
				assert.ErrorIs(t, err, webhook.ErrInvalidConfiguration)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestExtractSignatureHeaders(t *testing.T) {
	t.Parallel()

	build := func(pairs map[string]string) http.Header {
		h := http.Header{}
		for k, v := range pairs {
			h.Set(k, v)
		}
		return h
	}

	tests := []struct {
		name    string
		headers http.Header
		want    webhook.SignatureHeaders
		wantErr bool
		errMsg  string
	}{
		{
			name: "standard headers",
			headers: build(map[string]string{
				webhook.HeaderSignature: "sig123",
				webhook.HeaderTimestamp: "1234567890",
				webhook.HeaderEventID:   "evt_123",
			}),
			want: webhook.SignatureHeaders{
				Signature: "sig123",
				Timestamp: 1234567890,
				ID:        "evt_123",
			},
			wantErr: false,
		},
		{
			name: "lowercase header names",
			headers: build(map[string]string{
				"x-vetify-signature": "sig123",
				"x-vetify-timestamp": "1234567890",
				"x-vetify-event-id":  "evt_123",
			}),
			want: webhook.SignatureHeaders{
				Signature: "sig123",
				Timestamp: 1234567890,
				ID:        "evt_123",
			},
			wantErr: false,
		},
		{
			name: "missing event ID is ok",
			headers: build(map[string]string{
				webhook.HeaderSignature: "sig123",
				webhook.HeaderTimestamp: "1234567890",
			}),
			want: webhook.SignatureHeaders{
				Signature: "sig123",
				Timestamp: 1234567890,
			},
			wantErr: false,
		},
		{
			name: "missing signature",
			headers: build(map[string]string{
				webhook.HeaderTimestamp: "1234567890",
			}),
			wantErr: true,
			errMsg:  "missing required signature headers",
		},
		{
			name: "missing timestamp",
			headers: build(map[string]string{
				webhook.HeaderSignature: "sig123",
			}),
			wantErr: true,
			errMsg:  "missing required signature headers",
		},
		{
			name: "invalid timestamp format",
			headers: build(map[string]string{
				webhook.HeaderSignature: "sig123",
				webhook.HeaderTimestamp: "not-a-number",
			}),
			wantErr: true,
			errMsg:  "invalid timestamp format",
		},
		{
			name:    "empty headers",
			headers: http.Header{},
			wantErr: true,
			errMsg:  "missing required signature headers",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			got, err := webhook.ExtractSignatureHeaders(tt.headers)

			if tt.wantErr {
				require.Error(t, err)
				assert.Contains(t, err.Error(), tt.errMsg)
			} else {
				require.NoError(t, err)
				assert.Equal(t, tt.want, got)
			}
		})
	}
}

func TestSignatureConsistency(t *testing.T) {
	t.Parallel()

	secret := "whsec_consistency"
	payload := []byte(`{"tenant_id":"t1","event":"subscription.created"}`)

	headers, err := webhook.SignPayload(secret, payload)
	require.NoError(t, err)

	assert.Equal(t, signAt(secret, headers.Timestamp, payload), headers.Signature,
		"signature should match manual calculation")

	assert.NoError(t, webhook.VerifySignature(secret, payload, headers, 5*time.Minute))
}

func TestVerifySignatureConstantTime(t *testing.T) {
	t.Parallel()

	secret := "whsec_test"
	payload := []byte(`{"event":"test"}`)
	headers, err := webhook.SignPayload(secret, payload)
	require.NoError(t, err)

	// One character off and completely different must fail identically.
	nearMiss := headers
	nearMiss.Signature = headers.Signature[:len(headers.Signature)-1] + "x"
	err1 := webhook.VerifySignature(secret, payload, nearMiss, 0)
	require.Error(t, err1)

	farMiss := headers
	farMiss.Signature = strconv.Itoa(0)
	err2 := webhook.VerifySignature(secret, payload, farMiss, 0)
	require.Error(t, err2)

	assert.Equal(t, err1.Error(), err2.Error())
}
