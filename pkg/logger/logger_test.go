package logger_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ealanisln/vetify-sub011/pkg/logger"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()

	var record map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &record))
	return record
}

func TestNew(t *testing.T) {
	t.Parallel()

	t.Run("json format by default", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.WithOutput(&buf))
		log.Info("billing webhook processed")

		record := decodeLine(t, &buf)
		assert.Equal(t, "billing webhook processed", record["msg"])
	})

	t.Run("text format", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.WithOutput(&buf), logger.WithFormat(logger.FormatText))
		log.Info("hello")

		assert.Contains(t, buf.String(), "msg=hello")
	})

	t.Run("level filtering", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.WithOutput(&buf), logger.WithLevel(slog.LevelWarn))

		log.Info("dropped")
		assert.Zero(t, buf.Len())

		log.Warn("kept")
		assert.Contains(t, buf.String(), "kept")
	})

	t.Run("static attrs on every record", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithAttr(slog.String("service", "vetify")),
		)
		log.Info("x")

		record := decodeLine(t, &buf)
		assert.Equal(t, "vetify", record["service"])
	})

	t.Run("invalid format panics", func(t *testing.T) {
		t.Parallel()

		assert.Panics(t, func() {
			logger.New(logger.WithFormat(logger.Format("xml")))
		})
	})
}

func TestContextExtraction(t *testing.T) {
	t.Parallel()

	type ctxKey struct{}

	t.Run("extractor injects context attribute", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithContextExtractors(func(ctx context.Context) (slog.Attr, bool) {
				if v, ok := ctx.Value(ctxKey{}).(string); ok {
					return slog.String("tenant_id", v), true
				}
				return slog.Attr{}, false
			}),
		)

		ctx := context.WithValue(context.Background(), ctxKey{}, "ten_123")
		log.InfoContext(ctx, "status computed")

		record := decodeLine(t, &buf)
		assert.Equal(t, "ten_123", record["tenant_id"])
	})

	t.Run("missing context value adds nothing", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithContextValue("tenant_id", ctxKey{}),
		)

		log.InfoContext(context.Background(), "no tenant")

		record := decodeLine(t, &buf)
		_, present := record["tenant_id"]
		assert.False(t, present)
	})

	t.Run("extractors survive With", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(
			logger.WithOutput(&buf),
			logger.WithContextValue("request_id", ctxKey{}),
		)

		derived := log.With(slog.String("component", "sweeper"))
		ctx := context.WithValue(context.Background(), ctxKey{}, "req_9")
		derived.InfoContext(ctx, "tick")

		record := decodeLine(t, &buf)
		assert.Equal(t, "req_9", record["request_id"])
		assert.Equal(t, "sweeper", record["component"])
	})
}

func TestPresets(t *testing.T) {
	t.Parallel()

	t.Run("production preset", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.WithProduction("vetify"), logger.WithOutput(&buf))

		log.Debug("hidden at info level")
		assert.Zero(t, buf.Len())

		log.Info("visible")
		record := decodeLine(t, &buf)
		assert.Equal(t, "vetify", record["service"])
		assert.Equal(t, logger.EnvProduction, record["env"])
	})

	t.Run("development preset keeps debug", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.WithDevelopment("vetify"), logger.WithOutput(&buf))

		log.Debug("debug line")
		assert.Contains(t, buf.String(), "debug line")
		assert.Contains(t, buf.String(), "env="+logger.EnvDevelopment)
	})

	t.Run("environment shorthand", func(t *testing.T) {
		t.Parallel()

		var buf bytes.Buffer
		log := logger.New(logger.WithEnvironment("prod", "vetify"), logger.WithOutput(&buf))
		log.Info("x")

		record := decodeLine(t, &buf)
		assert.Equal(t, logger.EnvProduction, record["env"])
	})
}

func TestAttrHelpers(t *testing.T) {
	t.Parallel()

	t.Run("error attribute", func(t *testing.T) {
		t.Parallel()

		attr := logger.Error(errors.New("boom"))
		assert.Equal(t, "error", attr.Key)

		assert.True(t, logger.Error(nil).Equal(slog.Attr{}))
	})

	t.Run("errors groups non-nil only", func(t *testing.T) {
		t.Parallel()

		attr := logger.Errors(nil, errors.New("a"), nil, errors.New("b"))
		assert.Equal(t, "errors", attr.Key)
		assert.Len(t, attr.Value.Group(), 2)

		assert.True(t, logger.Errors(nil, nil).Equal(slog.Attr{}))
	})

	t.Run("domain attributes", func(t *testing.T) {
		t.Parallel()

		assert.Equal(t, "tenant_id", logger.TenantID("t1").Key)
		assert.Equal(t, "plan", logger.Plan("PROFESIONAL").Key)
		assert.Equal(t, "feature", logger.Feature("pos").Key)
		assert.Equal(t, "provider", logger.Provider("paddle").Key)
		assert.Equal(t, "event", logger.Event("subscription.updated").Key)
		assert.Equal(t, "component", logger.Component("sweeper").Key)

		assert.True(t, logger.TenantID(nil).Equal(slog.Attr{}))
	})
}
