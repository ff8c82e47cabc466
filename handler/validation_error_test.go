package handler_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/Ealanisln/vetify-sub011/handler"
)

func TestValidationError(t *testing.T) {
	t.Parallel()

	t.Run("message is deterministic and sorted by field", func(t *testing.T) {
		t.Parallel()
		valErr := handler.NewValidationError()
		valErr.Add("target_plan", "unknown plan")
		valErr.Add("billing_interval", "must be monthly or yearly")
		valErr.Add("email", "invalid format")

		want := "validation error: billing_interval: must be monthly or yearly, email: invalid format, target_plan: unknown plan"
		for n := 0; n < 5; n++ {
			assert.Equal(t, want, valErr.Error())
		}
	})

	t.Run("first message per field wins", func(t *testing.T) {
		t.Parallel()
		valErr := handler.NewValidationError()
		valErr.Add("email", "invalid format")
		valErr.Add("email", "domain not allowed")

		assert.Equal(t, "validation error: email: invalid format", valErr.Error())
		assert.Equal(t, "invalid format", valErr.Get("email"))
	})

	t.Run("empty error", func(t *testing.T) {
		t.Parallel()
		valErr := handler.NewValidationError()

		assert.Equal(t, "validation failed", valErr.Error())
		assert.True(t, valErr.IsEmpty())
		assert.False(t, valErr.Has("email"))
		assert.Empty(t, valErr.Fields())
	})

	t.Run("accessors", func(t *testing.T) {
		t.Parallel()
		valErr := handler.NewValidationError()
		valErr.Add("target_plan", "unknown plan")
		valErr.Add("billing_interval", "must be monthly or yearly")

		assert.True(t, valErr.Has("target_plan"))
		assert.False(t, valErr.IsEmpty())
		assert.Equal(t, []string{"billing_interval", "target_plan"}, valErr.Fields())
	})

	t.Run("literal construction", func(t *testing.T) {
		t.Parallel()
		valErr := handler.ValidationError{"size": {"must be between 64 and 1024"}}

		assert.Equal(t, "validation error: size: must be between 64 and 1024", valErr.Error())
	})
}
