package records

import "strings"

var (
	bookingKeywords   = []string{"booked", "confirmed", "scheduled"}
	emergencyKeywords = []string{"emergency", "urgent"}
)

// ClassifySummary maps a free-text call summary to a call status by
// case-insensitive keyword matching. This is a deliberate heuristic: a
// summary phrased without these keywords will land in Inquiry, and that is
// accepted behavior rather than something to paper over with stricter logic.
func ClassifySummary(summary string) string {
	lowered := strings.ToLower(summary)
	for _, kw := range bookingKeywords {
		if strings.Contains(lowered, kw) {
			return StatusBooked
		}
	}
	for _, kw := range emergencyKeywords {
		if strings.Contains(lowered, kw) {
			return StatusEmergency
		}
	}
	return StatusInquiry
}
