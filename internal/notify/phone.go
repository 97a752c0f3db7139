package notify

import (
	"regexp"
	"strings"
)

var phoneDigitsRe = regexp.MustCompile(`\d+`)

func sanitizePhone(value string) string {
	if value == "" {
		return ""
	}
	digits := phoneDigitsRe.FindAllString(value, -1)
	return strings.Join(digits, "")
}

// NormalizeE164 reduces a phone number to digits and prefixes +.
// Bare 10-digit national numbers get a US country code.
func NormalizeE164(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return ""
	}
	digits := sanitizePhone(value)
	if digits == "" {
		return ""
	}
	if len(digits) == 10 {
		digits = "1" + digits
	}
	return "+" + digits
}
