// Package notify defines the outbound SMS and email collaborators used by
// the escrow workflow, plus log-backed and throttled implementations.
package notify

import "context"

// SMSResult is the outcome of one SMS send.
type SMSResult struct {
	Success    bool
	MessageSID string
	Error      string
}

// SMSSender delivers a text message to a phone number.
type SMSSender interface {
	SendSMS(ctx context.Context, to, message string) SMSResult
}

// EmailSender delivers a plain-text email and reports whether it was accepted.
type EmailSender interface {
	SendEmail(ctx context.Context, to, subject, body string) bool
}
