package gate

import "github.com/Ealanisln/vetify-sub011/pkg/subscription"

// Snapshot is a point-in-time view of a tenant's cached subscription
// status. Loading is true only while the first fetch for the tenant is
// still in flight; once any value has settled, fresh or failed, the
// snapshot reports that value instead.
type Snapshot struct {
	Status  subscription.Status
	Loading bool
}

// IsActive reports whether the cached status grants access.
func (s Snapshot) IsActive() bool {
	return s.Status.IsActive
}

// IsTrialPeriod reports whether the clinic is on an effective trial.
func (s Snapshot) IsTrialPeriod() bool {
	return s.Status.IsTrialPeriod
}

// PlanName returns the display name of the current plan, empty when
// nothing is known.
func (s Snapshot) PlanName() string {
	return s.Status.PlanName
}

// DaysRemaining returns the countdown to the effective end date. The
// second return is false when no end date applies.
func (s Snapshot) DaysRemaining() (int, bool) {
	if s.Status.DaysRemaining == nil {
		return 0, false
	}
	return *s.Status.DaysRemaining, true
}
