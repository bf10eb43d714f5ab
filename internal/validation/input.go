package validation

import (
	"fmt"
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

const (
	MaxNameLength        = 100
	MaxContactLength     = 254
	MaxLineupLength      = 10000
	MaxSubjectLength     = 200
	MaxMessageLength     = 2000
	MaxLineupNameLength  = 100
	MinPhoneDigits       = 10
	MaxPhoneDigits       = 15
	MaxEscrowExpiryHours = 720
)

var (
	emailLocalRegex  = regexp.MustCompile(`^[a-z0-9._+-]+$`)
	emailDomainRegex = regexp.MustCompile(`^[a-z0-9.-]+\.[a-z]{2,}$`)
)

// ValidateLength checks the rune length of value.
func ValidateLength(fieldName, value string, min, max int) error {
	length := utf8.RuneCountInString(value)
	if min > 0 && length < min {
		return fmt.Errorf("%s must be at least %d characters", fieldName, min)
	}
	if max > 0 && length > max {
		return fmt.Errorf("%s must be at most %d characters", fieldName, max)
	}
	return nil
}

// ValidateNonEmpty rejects blank strings.
func ValidateNonEmpty(fieldName, value string) error {
	if strings.TrimSpace(value) == "" {
		return fmt.Errorf("%s is required", fieldName)
	}
	return nil
}

// ValidateEmail checks the email format after trimming and lower-casing.
func ValidateEmail(email string) error {
	email = strings.ToLower(strings.TrimSpace(email))
	if email == "" {
		return fmt.Errorf("email is required")
	}

	parts := strings.Split(email, "@")
	if len(parts) != 2 {
		return fmt.Errorf("invalid email format")
	}

	localPart, domainPart := parts[0], parts[1]

	if len(localPart) == 0 || len(localPart) > 64 {
		return fmt.Errorf("email local part must be 1 to 64 characters")
	}
	if len(domainPart) == 0 || len(domainPart) > 255 {
		return fmt.Errorf("email domain must be 1 to 255 characters")
	}
	if !emailLocalRegex.MatchString(localPart) {
		return fmt.Errorf("email local part contains invalid characters")
	}
	if !emailDomainRegex.MatchString(domainPart) {
		return fmt.Errorf("email domain has an invalid format")
	}

	return nil
}

// ValidatePhone accepts any formatting as long as the number has a
// plausible count of digits.
func ValidatePhone(phone string) error {
	if strings.TrimSpace(phone) == "" {
		return fmt.Errorf("phone number is required")
	}

	digits := 0
	for _, r := range phone {
		switch {
		case unicode.IsDigit(r):
			digits++
		case strings.ContainsRune(" ()+-.", r):
		default:
			return fmt.Errorf("phone number contains invalid characters")
		}
	}

	if digits < MinPhoneDigits || digits > MaxPhoneDigits {
		return fmt.Errorf("phone number must have %d to %d digits", MinPhoneDigits, MaxPhoneDigits)
	}
	return nil
}

// ValidateLineup checks a lineup payload.
func ValidateLineup(fieldName, lineup string) error {
	if err := ValidateNonEmpty(fieldName, lineup); err != nil {
		return err
	}
	return ValidateLength(fieldName, lineup, 0, MaxLineupLength)
}

// ValidateExpiryHours bounds the escrow horizon.
func ValidateExpiryHours(hours int) error {
	if hours < 0 || hours > MaxEscrowExpiryHours {
		return fmt.Errorf("expires_in_hours must be between 0 and %d", MaxEscrowExpiryHours)
	}
	return nil
}
