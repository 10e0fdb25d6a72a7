// Package contact validates the contact fields collected from patients and
// doctors: email addresses, Bahraini CPR numbers and Bahraini phone numbers.
package contact

import (
	"regexp"
	"strings"
)

var (
	emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)
	cprPattern   = regexp.MustCompile(`^\d{9}$`)
	nonDigits    = regexp.MustCompile(`\D`)
)

// ValidEmail is a loose shape check: something@something.something.
func ValidEmail(s string) bool {
	return emailPattern.MatchString(s)
}

// ValidCPR reports whether s is a nine digit CPR number.
func ValidCPR(s string) bool {
	return cprPattern.MatchString(s)
}

// FormatBahrainPhone accepts an eight digit local number or the same number
// with the 973 country code, ignoring spaces, dashes and a leading plus. It
// returns the number as "+973 XXXX XXXX".
func FormatBahrainPhone(raw string) (string, bool) {
	digits := nonDigits.ReplaceAllString(raw, "")
	switch {
	case len(digits) == 11 && strings.HasPrefix(digits, "973"):
		digits = digits[3:]
	case len(digits) == 8:
	default:
		return "", false
	}
	return "+973 " + digits[:4] + " " + digits[4:], true
}
