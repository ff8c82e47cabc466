package subscription

import "errors"

var (
	ErrPlanNotFound             = errors.New("subscription plan not found")
	ErrInvalidPlanConfiguration = errors.New("invalid subscription plan configuration")
	ErrFailedToLoadPlans        = errors.New("failed to load subscription plans")

	ErrBillingNotFound   = errors.New("tenant billing record not found")
	ErrInvalidTransition = errors.New("invalid subscription status transition")

	ErrLimitExceeded              = errors.New("subscription limit exceeded")
	ErrInvalidResource            = errors.New("invalid subscription resource")
	ErrNoCounterRegistered        = errors.New("no usage counter registered for resource")
	ErrFailedToCountResourceUsage = errors.New("failed to count resource usage")

	ErrNotAnUpgrade         = errors.New("target plan is not an upgrade")
	ErrUpgradeInProgress    = errors.New("an upgrade for this tenant is already in progress")
	ErrNoProviderSub        = errors.New("tenant has no provider subscription")
	ErrIntervalNotAvailable = errors.New("billing interval not available for plan")
	ErrCheckoutNotAvailable = errors.New("tenant already pays through the provider")

	// Provider-specific errors
	ErrMissingAPIKey              = errors.New("billing provider API key is required")
	ErrMissingWebhookSecret       = errors.New("billing provider webhook secret is required")
	ErrInvalidProviderEnvironment = errors.New("invalid billing provider environment")
	ErrWebhookVerificationFailed  = errors.New("webhook signature verification failed")
	ErrNoCheckoutURL              = errors.New("no checkout URL returned from provider")
	ErrNoPortalURL                = errors.New("no portal URL returned from provider")
	ErrMissingPriceID             = errors.New("price ID is required")
	ErrPriceNotConfigured         = errors.New("plan has no price configured for provider")
)
