package billing_test

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ealanisln/vetify-sub011/modules/billing"
	"github.com/Ealanisln/vetify-sub011/pkg/subscription"
)

func postWebhook(t *testing.T, h http.Handler, path, signature, payload string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(http.MethodPost, path, strings.NewReader(payload))
	if signature != "" {
		header := "Paddle-Signature"
		if strings.Contains(path, "stripe") {
			header = "Stripe-Signature"
		}
		req.Header.Set(header, signature)
	}
	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, req)
	return rec
}

func TestWebhook(t *testing.T) {
	t.Parallel()

	const payload = `{"event_type": "subscription.activated", "data": {"custom_data": {"tenant_id": "b6f3"}}}`

	t.Run("hands payload and signature to the engine", func(t *testing.T) {
		t.Parallel()

		engine := &engineStub{}
		instr := newRecorderInstr()
		svc := billing.NewService(engine, billing.WithInstrumentation(instr))

		rec := postWebhook(t, svc.Handle(), "/webhooks/paddle", "ts=1;h1=deadbeef", payload)

		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, payload, string(engine.webhookPayload))
		assert.Equal(t, "ts=1;h1=deadbeef", engine.webhookSignature)
		assert.Equal(t, 1, instr.webhookCount("paddle/ok"))
	})

	t.Run("unconfigured provider path is not found", func(t *testing.T) {
		t.Parallel()

		engine := &engineStub{}
		svc := billing.NewService(engine)

		rec := postWebhook(t, svc.Handle(), "/webhooks/stripe", "sig", payload)

		require.Equal(t, http.StatusNotFound, rec.Code)
		assert.Nil(t, engine.webhookPayload)
	})

	t.Run("provider is configurable", func(t *testing.T) {
		t.Parallel()

		engine := &engineStub{}
		svc := billing.NewService(engine, billing.WithWebhookProvider("stripe"))
		h := svc.Handle()

		rec := postWebhook(t, h, "/webhooks/stripe", "t=1,v1=cafe", payload)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, "t=1,v1=cafe", engine.webhookSignature)

		rec = postWebhook(t, h, "/webhooks/paddle", "sig", payload)
		require.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("bad signature is unauthorized", func(t *testing.T) {
		t.Parallel()

		engine := &engineStub{webhookErr: subscription.ErrWebhookVerificationFailed}
		instr := newRecorderInstr()
		svc := billing.NewService(engine, billing.WithInstrumentation(instr))

		rec := postWebhook(t, svc.Handle(), "/webhooks/paddle", "forged", payload)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Equal(t, 1, instr.webhookCount("paddle/fail"))
	})

	t.Run("permanent refusals are acknowledged", func(t *testing.T) {
		t.Parallel()

		// Retrying an out-of-order event or an unknown tenant can never
		// succeed; a non-2xx would make the provider resend it forever.
		for name, engineErr := range map[string]error{
			"unknown tenant":        subscription.ErrBillingNotFound,
			"out of order event":    subscription.ErrInvalidTransition,
			"wrapped engine reason": errors.Join(subscription.ErrInvalidTransition, errors.New("CANCELED to TRIALING")),
		} {
			engineErr := engineErr
			t.Run(name, func(t *testing.T) {
				t.Parallel()

				engine := &engineStub{webhookErr: engineErr}
				instr := newRecorderInstr()
				svc := billing.NewService(engine, billing.WithInstrumentation(instr))

				rec := postWebhook(t, svc.Handle(), "/webhooks/paddle", "ts=1;h1=ok", payload)

				require.Equal(t, http.StatusOK, rec.Code)
				assert.Equal(t, 1, instr.webhookCount("paddle/fail"))
			})
		}
	})

	t.Run("transient failures ask for a retry", func(t *testing.T) {
		t.Parallel()

		engine := &engineStub{webhookErr: errors.New("pg: connection refused")}
		svc := billing.NewService(engine)

		rec := postWebhook(t, svc.Handle(), "/webhooks/paddle", "ts=1;h1=ok", payload)

		require.Equal(t, http.StatusInternalServerError, rec.Code)
	})

	t.Run("missing signature header still reaches verification", func(t *testing.T) {
		t.Parallel()

		engine := &engineStub{webhookErr: subscription.ErrWebhookVerificationFailed}
		svc := billing.NewService(engine)

		rec := postWebhook(t, svc.Handle(), "/webhooks/paddle", "", payload)

		require.Equal(t, http.StatusUnauthorized, rec.Code)
		assert.Empty(t, engine.webhookSignature)
	})
}
