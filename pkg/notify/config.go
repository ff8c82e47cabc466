package notify

// Config holds email delivery configuration.
// Postmark tokens are optional so development environments can run with
// the file-sink sender instead. SenderEmail and SupportEmail establish
// the sender identity and reply-to behavior for all outbound email.
type Config struct {
	PostmarkServerToken  string `env:"POSTMARK_SERVER_TOKEN"`
	PostmarkAccountToken string `env:"POSTMARK_ACCOUNT_TOKEN"`
	SenderEmail          string `env:"SENDER_EMAIL,required"`
	SupportEmail         string `env:"SUPPORT_EMAIL,required"`

	// DevEmailDir enables the development file-sink sender when set.
	DevEmailDir string `env:"DEV_EMAIL_DIR"`
}
