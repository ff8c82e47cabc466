package gate

// Observer receives client and guard outcomes for instrumentation.
// pkg/metrics provides a prometheus-backed implementation.
type Observer interface {
	// CacheLookup records a snapshot cache hit or miss.
	CacheLookup(hit bool)

	// StatusFetched records an upstream status fetch outcome.
	StatusFetched(ok bool)

	// GateDenied records a guard rejecting a request. The gate label is
	// "active_plan" or "feature".
	GateDenied(gate string)
}

// NopObserver discards all observations.
type NopObserver struct{}

func (NopObserver) CacheLookup(bool)   {}
func (NopObserver) StatusFetched(bool) {}
func (NopObserver) GateDenied(string)  {}
