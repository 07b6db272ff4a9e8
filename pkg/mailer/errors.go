package mailer

import "errors"

var (
	// ErrTemplateNotFound indicates no enabled template matched the lookup,
	// including the global fallback.
	ErrTemplateNotFound = errors.New("mailer: template not found")

	// ErrRenderFailed indicates the subject or body template could not be rendered.
	ErrRenderFailed = errors.New("mailer: failed to render template")

	// ErrInvalidTemplate indicates template source failed syntax validation.
	ErrInvalidTemplate = errors.New("mailer: invalid template syntax")

	// ErrDeliveryFailed indicates the transport rejected or failed the message.
	ErrDeliveryFailed = errors.New("mailer: failed to deliver email")

	// ErrLogWriteFailed indicates the log sink could not record a send attempt.
	ErrLogWriteFailed = errors.New("mailer: failed to write email log")

	// ErrNoRecipient indicates the message has no to, cc or bcc address.
	ErrNoRecipient = errors.New("mailer: email must have at least one recipient")

	// ErrTransportOpen indicates a transport connection could not be opened.
	ErrTransportOpen = errors.New("mailer: failed to open transport connection")
)
