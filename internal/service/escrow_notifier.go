package service

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/rossfreedman/rally/internal/logger"
	"github.com/rossfreedman/rally/internal/metrics"
	"github.com/rossfreedman/rally/internal/models"
	"github.com/rossfreedman/rally/internal/notify"
	"github.com/rossfreedman/rally/internal/ws"
)

// EventPusher delivers live events to a signed-in user.
type EventPusher interface {
	BroadcastToUser(userID int64, event string, data any) error
}

// EscrowNotifier sends the invitation and completion messages of an escrow.
// Every send is best-effort: failures are logged and counted, never returned.
type EscrowNotifier struct {
	sms     notify.SMSSender
	email   notify.EmailSender
	users   UserLookup
	push    EventPusher
	metrics *metrics.Metrics
	baseURL string
}

// NewEscrowNotifier creates the notifier. push and m may be nil.
func NewEscrowNotifier(sms notify.SMSSender, email notify.EmailSender, users UserLookup, push EventPusher, m *metrics.Metrics, baseURL string) *EscrowNotifier {
	return &EscrowNotifier{
		sms:     sms,
		email:   email,
		users:   users,
		push:    push,
		metrics: m,
		baseURL: strings.TrimRight(baseURL, "/"),
	}
}

// OpposingLink is the page where the recipient reads the invitation and submits.
func (n *EscrowNotifier) OpposingLink(token, contact string) string {
	return n.link("/mobile/lineup-escrow-opposing/", token, contact)
}

// ViewLink is the results page for a party identified by contact.
func (n *EscrowNotifier) ViewLink(token, contact string) string {
	return n.link("/mobile/lineup-escrow-view/", token, contact)
}

func (n *EscrowNotifier) link(path, token, contact string) string {
	return n.baseURL + path + url.PathEscape(token) + "?contact=" + url.QueryEscape(contact)
}

// SendInvitation contacts the recipient through their channel and reports
// whether the message was accepted.
func (n *EscrowNotifier) SendInvitation(ctx context.Context, e *models.LineupEscrow) bool {
	link := n.OpposingLink(e.Token, e.RecipientContact)

	switch e.ContactType {
	case models.ContactTypeSMS:
		body := strings.TrimSpace(e.MessageBody)
		if body != "" {
			body += "\n\n"
		}
		body += "Submit your lineup to see theirs: " + link
		return n.sendSMS(ctx, e.ID, "recipient_invitation", e.RecipientContact, body)
	case models.ContactTypeEmail:
		subject := e.Subject
		if strings.TrimSpace(subject) == "" {
			subject = "Lineup Escrow: your opponent has submitted a lineup"
		}
		body := fmt.Sprintf(
			"Hi %s,\n\n%s\n\nYour opponent's lineup is locked in escrow. Submit yours and both will be revealed at the same time:\n%s\n",
			e.RecipientName, strings.TrimSpace(e.MessageBody), link,
		)
		return n.sendEmail(ctx, e.ID, "recipient_invitation", e.RecipientContact, subject, body)
	default:
		return false
	}
}

// NotifyBothParties tells both captains that the lineups are visible.
func (n *EscrowNotifier) NotifyBothParties(ctx context.Context, e *models.LineupEscrow) {
	initiator, err := n.users.GetByID(ctx, e.InitiatorUserID)
	if err != nil {
		logger.Entry().WithFields(logrus.Fields{
			"escrow_id": e.ID,
			"error":     err.Error(),
		}).Warn("escrow notifier: initiator lookup failed")
	}

	if initiator != nil && initiator.PhoneNumber != nil && *initiator.PhoneNumber != "" {
		phone := *initiator.PhoneNumber
		msg := fmt.Sprintf("%s submitted their lineup. Both lineups are now visible: %s",
			e.RecipientName, n.ViewLink(e.Token, phone))
		n.sendSMS(ctx, e.ID, "initiator_completion", phone, msg)
	}

	if n.push != nil {
		if err := n.push.BroadcastToUser(e.InitiatorUserID, ws.EventEscrowCompleted, map[string]any{
			"escrow_id":      e.ID,
			"recipient_name": e.RecipientName,
		}); err != nil {
			logger.Entry().WithFields(logrus.Fields{
				"escrow_id": e.ID,
				"error":     err.Error(),
			}).Warn("escrow notifier: live push failed")
		}
	}

	link := n.ViewLink(e.Token, e.RecipientContact)
	switch e.ContactType {
	case models.ContactTypeSMS:
		n.sendSMS(ctx, e.ID, "recipient_completion", e.RecipientContact,
			"Lineup escrow complete. Both lineups are now visible: "+link)
	case models.ContactTypeEmail:
		n.sendEmail(ctx, e.ID, "recipient_completion", e.RecipientContact,
			"Lineup Escrow complete",
			fmt.Sprintf("Hi %s,\n\nBoth lineups have been submitted and are now visible:\n%s\n", e.RecipientName, link))
	}
}

func (n *EscrowNotifier) sendSMS(ctx context.Context, escrowID int64, purpose, to, message string) bool {
	res := n.sms.SendSMS(ctx, to, message)
	n.metrics.Notification("sms", res.Success)

	entry := logger.Entry().WithFields(logrus.Fields{
		"escrow_id": escrowID,
		"channel":   "sms",
		"purpose":   purpose,
		"to":        logger.MaskContact(to),
	})
	if !res.Success {
		entry.WithField("error", res.Error).Warn("escrow notifier: sms failed")
		return false
	}
	entry.WithField("sid", res.MessageSID).Info("escrow notifier: sms sent")
	return true
}

func (n *EscrowNotifier) sendEmail(ctx context.Context, escrowID int64, purpose, to, subject, body string) bool {
	ok := n.email.SendEmail(ctx, to, subject, body)
	n.metrics.Notification("email", ok)

	entry := logger.Entry().WithFields(logrus.Fields{
		"escrow_id": escrowID,
		"channel":   "email",
		"purpose":   purpose,
		"to":        logger.MaskContact(to),
	})
	if !ok {
		entry.Warn("escrow notifier: email failed")
		return false
	}
	entry.Info("escrow notifier: email sent")
	return true
}
