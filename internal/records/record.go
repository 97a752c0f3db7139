package records

import (
	"time"

	"github.com/google/uuid"
)

// Record types. Each completed intent or call produces exactly one record;
// records are immutable once written.
const (
	TypeBooking   = "booking"
	TypeEmergency = "emergency"
	TypeCall      = "call"
)

// Call statuses derived from an end-of-call summary.
const (
	StatusBooked    = "Booked"
	StatusEmergency = "Emergency"
	StatusInquiry   = "Inquiry"
)

// CallRecord is the unit persisted to and read from the record store. The
// Type field selects which of the optional sections is populated.
type CallRecord struct {
	ID        string    `json:"id"`
	Type      string    `json:"type"`
	CreatedAt time.Time `json:"created_at"`

	CallerName  string `json:"caller_name,omitempty"`
	CallerPhone string `json:"caller_phone,omitempty"`

	// Booking fields.
	BookingID       string `json:"booking_id,omitempty"`
	AppointmentTime string `json:"appointment_time,omitempty"`
	JobDescription  string `json:"job_description,omitempty"`
	CallerNotified  bool   `json:"caller_notified,omitempty"`
	OwnerNotified   bool   `json:"owner_notified,omitempty"`

	// Emergency fields.
	Issue     string `json:"issue,omitempty"`
	Address   string `json:"address,omitempty"`
	AlertSent bool   `json:"alert_sent,omitempty"`

	// End-of-call fields.
	Status   string  `json:"status,omitempty"`
	Summary  string  `json:"summary,omitempty"`
	Duration float64 `json:"duration_seconds,omitempty"`
}

// NewRecord creates a record of the given type with a generated identifier.
func NewRecord(recordType string) CallRecord {
	return CallRecord{
		ID:        recordType + "_" + uuid.NewString(),
		Type:      recordType,
		CreatedAt: time.Now().UTC(),
	}
}
