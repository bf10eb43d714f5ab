package service

import (
	"strings"
	"unicode"

	"github.com/rossfreedman/rally/internal/models"
)

// NormalizeEmail trims and lower-cases an email address.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// NormalizePhone keeps only the digits of a phone number.
func NormalizePhone(phone string) string {
	var b strings.Builder
	for _, r := range phone {
		if unicode.IsDigit(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// NormalizeContact applies the rule for the given channel.
func NormalizeContact(contact string, ct models.ContactType) string {
	if ct == models.ContactTypeSMS {
		return NormalizePhone(contact)
	}
	return NormalizeEmail(contact)
}

// ContactsMatch compares a stored contact with a supplied one after both are
// normalized for the stored channel. Empty values never match.
func ContactsMatch(stored, supplied string, ct models.ContactType) bool {
	a := NormalizeContact(stored, ct)
	b := NormalizeContact(supplied, ct)
	return a != "" && a == b
}

// matchesUser reports whether supplied is the user's email or profile phone.
func matchesUser(user *models.User, supplied string) bool {
	if user == nil {
		return false
	}
	if ContactsMatch(user.Email, supplied, models.ContactTypeEmail) {
		return true
	}
	return user.PhoneNumber != nil && ContactsMatch(*user.PhoneNumber, supplied, models.ContactTypeSMS)
}
