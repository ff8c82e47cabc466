// Package notify sends lifecycle email to clinics and tracks what was
// already sent.
//
// The package is built around the EmailSender interface so providers can
// be swapped without touching callers. Two implementations ship:
//   - Postmark client for production delivery with open tracking
//   - DevSender for local development (saves emails to disk)
//
// On top of the sender sit two producers:
//   - TrialSweeper periodically scans billing records for trials about
//     to end or already ended and mails the clinic owner once per state,
//     deduplicated through a NotificationLog.
//   - EventMailer reacts to subscription lifecycle events (failed
//     payments, plan changes, trial conversions) with transactional
//     emails.
//
// # Usage
//
// Production wiring:
//
//	sender := notify.MustNewPostmarkClient(notify.Config{
//	    PostmarkServerToken:  "...",
//	    PostmarkAccountToken: "...",
//	    SenderEmail:          "no-reply@vetify.pro",
//	    SupportEmail:         "soporte@vetify.pro",
//	})
//
//	sweeper := notify.NewTrialSweeper(store, tenants, sender, notificationLog,
//	    notify.WithSweepInterval(time.Hour),
//	    notify.WithSweeperLogger(log),
//	)
//	go sweeper.Run(ctx)
//
// Development writes emails to disk instead:
//
//	sender := notify.NewDevSender("./var/emails")
//
// All templates render in Spanish; Vetify's customer base is Mexican
// veterinary clinics.
package notify
