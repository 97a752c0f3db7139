package cal

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"time"
)

// Slot is one bookable time offered by the scheduling provider. V2 returns
// the timestamp under "time", V1 under "start"; both are RFC 3339.
type Slot struct {
	Time  string `json:"time,omitempty"`
	Start string `json:"start,omitempty"`
}

// At returns the slot's timestamp regardless of which field carried it.
func (s Slot) At() string {
	if s.Time != "" {
		return s.Time
	}
	return s.Start
}

// BookingRequest carries everything needed to create one appointment.
type BookingRequest struct {
	Name           string
	Email          string
	Phone          string
	Start          string // RFC 3339 appointment time
	TimeZone       string
	JobDescription string
	Address        string
	Urgency        string
}

// Provider is one version of the scheduling API. Implementations are
// interchangeable; the Fallback policy decides which one answers.
type Provider interface {
	// Slots returns open slots between from and to, grouped by date key.
	Slots(ctx context.Context, from, to time.Time) (map[string][]Slot, error)
	// CreateBooking creates an appointment and returns the booking identifier.
	CreateBooking(ctx context.Context, req BookingRequest) (string, error)
}

// slotsEnvelope tolerates both response nestings the provider is known to
// use: {"data":{"slots":{...}}} and {"slots":{...}}.
type slotsEnvelope struct {
	Data *struct {
		Slots map[string][]Slot `json:"slots"`
	} `json:"data"`
	Slots map[string][]Slot `json:"slots"`
}

// decodeSlots normalizes a slots response body into a date-keyed group map.
// A body with neither nesting is reported as an error so the caller can fall
// back to the other API version.
func decodeSlots(body []byte) (map[string][]Slot, error) {
	var env slotsEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return nil, fmt.Errorf("cal: decode slots: %w", err)
	}
	if env.Data != nil && env.Data.Slots != nil {
		return env.Data.Slots, nil
	}
	if env.Slots != nil {
		return env.Slots, nil
	}
	return nil, fmt.Errorf("cal: response missing slot structure")
}

// FlattenSlots orders grouped slots chronologically: date keys ascending,
// then the provider's array order within each date.
func FlattenSlots(groups map[string][]Slot) []Slot {
	dates := make([]string, 0, len(groups))
	for d := range groups {
		dates = append(dates, d)
	}
	sort.Strings(dates)

	var out []Slot
	for _, d := range dates {
		out = append(out, groups[d]...)
	}
	return out
}
