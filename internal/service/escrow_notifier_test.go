package service

import (
	"context"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rossfreedman/rally/internal/models"
	"github.com/rossfreedman/rally/internal/notify"
	"github.com/rossfreedman/rally/internal/ws"
)

type sentMessage struct {
	to, subject, body string
}

type recordingSMS struct {
	mu   sync.Mutex
	sent []sentMessage
	fail bool
}

func (r *recordingSMS) SendSMS(ctx context.Context, to, message string) notify.SMSResult {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, sentMessage{to: to, body: message})
	if r.fail {
		return notify.SMSResult{Error: "carrier rejected"}
	}
	return notify.SMSResult{Success: true, MessageSID: "SM1"}
}

type recordingEmail struct {
	sent []sentMessage
	fail bool
}

func (r *recordingEmail) SendEmail(ctx context.Context, to, subject, body string) bool {
	r.sent = append(r.sent, sentMessage{to: to, subject: subject, body: body})
	return !r.fail
}

func newTestNotifier() (*EscrowNotifier, *recordingSMS, *recordingEmail, *fakePusher) {
	phone := "3125550100"
	users := fakeUsers{initiatorID: {ID: initiatorID, Email: "captain@home.com", PhoneNumber: &phone}}
	sms, email, push := &recordingSMS{}, &recordingEmail{}, &fakePusher{}
	return NewEscrowNotifier(sms, email, users, push, nil, "https://rally.test/"), sms, email, push
}

func testEscrow(ct models.ContactType, contact string) *models.LineupEscrow {
	return &models.LineupEscrow{
		ID:               7,
		Token:            "escrow_abc",
		InitiatorUserID:  initiatorID,
		RecipientName:    "Opposing Captain",
		RecipientContact: contact,
		ContactType:      ct,
		MessageBody:      "Good luck Thursday",
	}
}

func TestEscrowNotifier_Links(t *testing.T) {
	n, _, _, _ := newTestNotifier()

	assert.Equal(t,
		"https://rally.test/mobile/lineup-escrow-opposing/escrow_abc?contact=opp%40example.com",
		n.OpposingLink("escrow_abc", "opp@example.com"))
	assert.Equal(t,
		"https://rally.test/mobile/lineup-escrow-view/escrow_abc?contact=%28773%29+213-8911",
		n.ViewLink("escrow_abc", "(773) 213-8911"))
}

func TestEscrowNotifier_SendInvitation_SMS(t *testing.T) {
	n, sms, email, _ := newTestNotifier()

	ok := n.SendInvitation(context.Background(), testEscrow(models.ContactTypeSMS, "7732138911"))

	assert.True(t, ok)
	require.Len(t, sms.sent, 1)
	assert.Empty(t, email.sent)
	assert.Equal(t, "7732138911", sms.sent[0].to)
	assert.True(t, strings.HasPrefix(sms.sent[0].body, "Good luck Thursday\n\n"))
	assert.Contains(t, sms.sent[0].body, "/mobile/lineup-escrow-opposing/escrow_abc?contact=7732138911")
}

func TestEscrowNotifier_SendInvitation_EmailDefaultsSubject(t *testing.T) {
	n, sms, email, _ := newTestNotifier()

	ok := n.SendInvitation(context.Background(), testEscrow(models.ContactTypeEmail, "opp@example.com"))

	assert.True(t, ok)
	assert.Empty(t, sms.sent)
	require.Len(t, email.sent, 1)
	assert.Equal(t, "Lineup Escrow: your opponent has submitted a lineup", email.sent[0].subject)
	assert.Contains(t, email.sent[0].body, "Hi Opposing Captain")
}

func TestEscrowNotifier_SendInvitation_ReportsFailure(t *testing.T) {
	n, sms, _, _ := newTestNotifier()
	sms.fail = true

	assert.False(t, n.SendInvitation(context.Background(), testEscrow(models.ContactTypeSMS, "7732138911")))
	assert.False(t, n.SendInvitation(context.Background(), testEscrow("fax", "7732138911")))
}

func TestEscrowNotifier_NotifyBothParties(t *testing.T) {
	n, sms, email, push := newTestNotifier()

	n.NotifyBothParties(context.Background(), testEscrow(models.ContactTypeEmail, "opp@example.com"))

	require.Len(t, sms.sent, 1)
	assert.Equal(t, "3125550100", sms.sent[0].to)
	assert.Contains(t, sms.sent[0].body, "Opposing Captain submitted their lineup")
	assert.Contains(t, sms.sent[0].body, "/mobile/lineup-escrow-view/escrow_abc?contact=3125550100")

	require.Len(t, email.sent, 1)
	assert.Equal(t, "Lineup Escrow complete", email.sent[0].subject)
	assert.Contains(t, email.sent[0].body, "contact=opp%40example.com")

	assert.Equal(t, []recordedPush{{userID: initiatorID, event: ws.EventEscrowCompleted}}, push.events)
}

func TestEscrowNotifier_NotifyBothParties_UnknownInitiator(t *testing.T) {
	sms, email := &recordingSMS{}, &recordingEmail{}
	n := NewEscrowNotifier(sms, email, fakeUsers{}, nil, nil, "https://rally.test")

	n.NotifyBothParties(context.Background(), testEscrow(models.ContactTypeSMS, "7732138911"))

	require.Len(t, sms.sent, 1)
	assert.Equal(t, "7732138911", sms.sent[0].to)
	assert.Empty(t, email.sent)
}
