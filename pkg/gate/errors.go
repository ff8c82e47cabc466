package gate

import "errors"

var (
	ErrStatusFetch  = errors.New("failed to fetch subscription status")
	ErrFeatureCheck = errors.New("failed to check feature access")
)
