package notify

import (
	"context"

	"golang.org/x/time/rate"
)

// ThrottledSMSSender caps the rate of outgoing SMS across the process.
type ThrottledSMSSender struct {
	next    SMSSender
	limiter *rate.Limiter
}

// NewThrottledSMSSender wraps next with a token bucket of perSecond messages.
// A non-positive rate disables throttling and returns next unchanged.
func NewThrottledSMSSender(next SMSSender, perSecond float64) SMSSender {
	if perSecond <= 0 {
		return next
	}

	burst := int(perSecond)
	if burst < 1 {
		burst = 1
	}

	return &ThrottledSMSSender{
		next:    next,
		limiter: rate.NewLimiter(rate.Limit(perSecond), burst),
	}
}

// SendSMS waits for a token, then delivers. A cancelled context fails the send.
func (s *ThrottledSMSSender) SendSMS(ctx context.Context, to, message string) SMSResult {
	if err := s.limiter.Wait(ctx); err != nil {
		return SMSResult{Error: "sms throttled: " + err.Error()}
	}
	return s.next.SendSMS(ctx, to, message)
}
