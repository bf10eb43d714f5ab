package models

// EscrowStatus is the lifecycle state of a lineup escrow.
type EscrowStatus string

const (
	EscrowStatusPending       EscrowStatus = "pending"
	EscrowStatusBothSubmitted EscrowStatus = "both_submitted"
	EscrowStatusExpired       EscrowStatus = "expired"
)

// CanTransitionTo encodes the only two legal moves: pending to both_submitted or expired.
func (s EscrowStatus) CanTransitionTo(next EscrowStatus) bool {
	transitions := map[EscrowStatus][]EscrowStatus{
		EscrowStatusPending:       {EscrowStatusBothSubmitted, EscrowStatusExpired},
		EscrowStatusBothSubmitted: {},
		EscrowStatusExpired:       {},
	}

	for _, allowed := range transitions[s] {
		if allowed == next {
			return true
		}
	}
	return false
}

// ContactType is the channel used to reach the recipient captain.
type ContactType string

const (
	ContactTypeEmail ContactType = "email"
	ContactTypeSMS   ContactType = "sms"
)

