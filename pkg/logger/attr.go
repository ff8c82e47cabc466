package logger

import (
	"log/slog"
	"strconv"
)

// Attribute helpers keep log keys consistent across packages. Billing state
// shows up in nearly every log line of this product; grep-ability depends on
// everyone spelling "tenant_id" the same way.

// Error records a single error under the key "error". Nil yields an empty
// attr, which slog drops.
func Error(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.Any("error", err)
}

// Errors groups non-nil errors under the key "errors".
func Errors(errs ...error) slog.Attr {
	as := make([]slog.Attr, 0, len(errs))
	for i, err := range errs {
		if err != nil {
			as = append(as, slog.Any(strconv.Itoa(i), err))
		}
	}
	if len(as) == 0 {
		return slog.Attr{}
	}
	return slog.Attr{Key: "errors", Value: slog.GroupValue(as...)}
}

// TenantID records the clinic tenant identifier under "tenant_id".
func TenantID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("tenant_id", id)
}

// Plan records a plan tier under "plan".
func Plan(tier any) slog.Attr {
	if tier == nil {
		return slog.Attr{}
	}
	return slog.Any("plan", tier)
}

// Feature records a gated feature key under "feature".
func Feature(feature any) slog.Attr {
	if feature == nil {
		return slog.Attr{}
	}
	return slog.Any("feature", feature)
}

// Provider records a billing provider name under "provider".
func Provider(name string) slog.Attr {
	return slog.String("provider", name)
}

// Event records a lifecycle event name under "event".
func Event(name string) slog.Attr {
	return slog.String("event", name)
}

// RequestID records the request identifier under "request_id".
func RequestID(id any) slog.Attr {
	if id == nil {
		return slog.Attr{}
	}
	return slog.Any("request_id", id)
}

// Component records the emitting component under "component". Useful when
// several background workers share one logger.
func Component(name string) slog.Attr {
	return slog.String("component", name)
}
