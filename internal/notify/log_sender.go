package notify

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/rossfreedman/rally/internal/logger"
)

// LogSender writes messages to the application log instead of a provider.
// It is used in development and wherever no delivery provider is configured.
type LogSender struct {
	log *logrus.Entry
}

// NewLogSender creates a sender logging through the shared logger.
func NewLogSender() *LogSender {
	return &LogSender{log: logger.Entry().WithField("component", "notify")}
}

// SendSMS logs the message and returns a generated message SID.
func (s *LogSender) SendSMS(ctx context.Context, to, message string) SMSResult {
	if err := ctx.Err(); err != nil {
		return SMSResult{Error: err.Error()}
	}
	if to == "" {
		return SMSResult{Error: "missing destination number"}
	}

	sid := "LOG" + uuid.NewString()
	s.log.WithFields(logrus.Fields{
		"channel": "sms",
		"to":      logger.MaskContact(to),
		"sid":     sid,
		"length":  len(message),
	}).Info("sms dispatched")

	return SMSResult{Success: true, MessageSID: sid}
}

// SendEmail logs the email.
func (s *LogSender) SendEmail(ctx context.Context, to, subject, body string) bool {
	if ctx.Err() != nil || to == "" {
		return false
	}

	s.log.WithFields(logrus.Fields{
		"channel": "email",
		"to":      logger.MaskContact(to),
		"subject": subject,
		"length":  len(body),
	}).Info("email dispatched")

	return true
}
