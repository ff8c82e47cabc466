// Package audit keeps a persistent trail of subscription lifecycle events.
//
// The Trail is an asynchronous subscription.EventSink: webhook handlers and
// the trial sweeper publish events, a background worker batches them into
// the store. Publishing never blocks the request path; when the buffer is
// full the event is dropped and counted, because a billing webhook must be
// acknowledged even when the trail lags.
//
//	trail := audit.NewTrail(audit.NewPGEventStore(pool))
//	defer trail.Close(ctx)
//
//	engine, err := subscription.NewService(ctx, src, provider, store,
//	    subscription.WithEventSink(trail),
//	)
//
// PGEventStore doubles as the reader: List returns a clinic's recent
// events, newest first, for the dashboard's subscription history and for
// support staff reconstructing what a provider did to an account.
package audit
