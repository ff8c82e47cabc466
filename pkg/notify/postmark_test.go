package notify_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Ealanisln/vetify-sub011/pkg/notify"
)

func validPostmarkConfig() notify.Config {
	return notify.Config{
		PostmarkServerToken:  "test-server-token",
		PostmarkAccountToken: "test-account-token",
		SenderEmail:          "no-reply@vetify.pro",
		SupportEmail:         "soporte@vetify.pro",
	}
}

func TestNewPostmarkClient(t *testing.T) {
	t.Parallel()

	t.Run("valid config", func(t *testing.T) {
		t.Parallel()

		client, err := notify.NewPostmarkClient(validPostmarkConfig())
		require.NoError(t, err)
		assert.NotNil(t, client)
	})

	tests := []struct {
		name   string
		mutate func(*notify.Config)
		errMsg string
	}{
		{
			name:   "empty server token",
			mutate: func(c *notify.Config) { c.PostmarkServerToken = "" },
			errMsg: "PostmarkServerToken is required",
		},
		{
			name:   "empty account token",
			mutate: func(c *notify.Config) { c.PostmarkAccountToken = "" },
			errMsg: "PostmarkAccountToken is required",
		},
		{
			name:   "missing sender email",
			mutate: func(c *notify.Config) { c.SenderEmail = "" },
			errMsg: "SenderEmail is required",
		},
		{
			name:   "invalid sender email",
			mutate: func(c *notify.Config) { c.SenderEmail = "not-an-email" },
			errMsg: "SenderEmail must be a valid email address",
		},
		{
			name:   "missing support email",
			mutate: func(c *notify.Config) { c.SupportEmail = "" },
			errMsg: "SupportEmail is required",
		},
		{
			name:   "invalid support email",
			mutate: func(c *notify.Config) { c.SupportEmail = "soporte@" },
			errMsg: "SupportEmail must be a valid email address",
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			cfg := validPostmarkConfig()
			tt.mutate(&cfg)

			client, err := notify.NewPostmarkClient(cfg)
			require.Error(t, err)
			assert.Nil(t, client)
			assert.ErrorIs(t, err, notify.ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.errMsg)
		})
	}
}

func TestMustNewPostmarkClient(t *testing.T) {
	t.Parallel()

	t.Run("valid config returns client", func(t *testing.T) {
		t.Parallel()
		assert.NotNil(t, notify.MustNewPostmarkClient(validPostmarkConfig()))
	})

	t.Run("invalid config panics", func(t *testing.T) {
		t.Parallel()
		assert.Panics(t, func() {
			notify.MustNewPostmarkClient(notify.Config{})
		})
	})
}
