package notify

import "errors"

var (
	ErrInvalidConfig = errors.New("invalid email config")
	ErrInvalidParams = errors.New("invalid email params")
	ErrFailedToSend  = errors.New("failed to send email")
)
