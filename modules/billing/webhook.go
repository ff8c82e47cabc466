package billing

import (
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Ealanisln/vetify-sub011/pkg/logger"
	"github.com/Ealanisln/vetify-sub011/pkg/subscription"
)

// maxWebhookBody caps provider payloads. Paddle and Stripe events are a
// few KB; anything near the cap is not a billing event.
const maxWebhookBody = 1 << 20

// signatureHeaders maps a provider name to the header carrying its
// payload signature.
var signatureHeaders = map[string]string{
	"paddle": "Paddle-Signature",
	"stripe": "Stripe-Signature",
}

// handleWebhook receives billing provider events. The route is outside
// the tenant-scoped group: webhooks authenticate by payload signature,
// and the tenant is resolved from the event itself.
//
// Response codes steer provider retries. Verification failures are 401
// and retrying cannot help. Events the engine refuses permanently
// (unknown tenant, out-of-order transition) are acknowledged with 200 so
// the provider stops resending them; they are logged and counted
// instead. Transient failures are 500 and the provider retries.
func (s *Service) handleWebhook(w http.ResponseWriter, r *http.Request) {
	provider := chi.URLParam(r, "provider")
	if provider != s.webhookProvider {
		http.NotFound(w, r)
		return
	}

	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		s.instr.WebhookReceived(provider, false)
		http.Error(w, "failed to read payload", http.StatusBadRequest)
		return
	}

	signature := r.Header.Get(signatureHeaders[provider])

	switch err := s.subs.HandleWebhook(r.Context(), payload, signature); {
	case err == nil:
		s.instr.WebhookReceived(provider, true)
		w.WriteHeader(http.StatusOK)
	case errors.Is(err, subscription.ErrWebhookVerificationFailed):
		s.instr.WebhookReceived(provider, false)
		s.log.WarnContext(r.Context(), "webhook signature rejected",
			logger.Component("billing"),
			logger.Provider(provider),
		)
		http.Error(w, "invalid signature", http.StatusUnauthorized)
	case errors.Is(err, subscription.ErrBillingNotFound), errors.Is(err, subscription.ErrInvalidTransition):
		// Permanent refusals: acknowledge so the provider stops retrying.
		s.instr.WebhookReceived(provider, false)
		s.log.WarnContext(r.Context(), "webhook event discarded",
			logger.Component("billing"),
			logger.Provider(provider),
			logger.Error(err),
		)
		w.WriteHeader(http.StatusOK)
	default:
		s.instr.WebhookReceived(provider, false)
		s.log.ErrorContext(r.Context(), "webhook processing failed",
			logger.Component("billing"),
			logger.Provider(provider),
			logger.Error(err),
		)
		http.Error(w, "webhook processing failed", http.StatusInternalServerError)
	}
}
