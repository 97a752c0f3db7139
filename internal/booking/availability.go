package booking

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/fieldline/callpilot/internal/cal"
	"github.com/fieldline/callpilot/pkg/logging"
)

const (
	// UrgencyEmergency narrows the availability search window.
	UrgencyEmergency = "emergency"

	emergencyWindowDays = 2
	standardWindowDays  = 7

	// maxSpokenSlots caps how many options the assistant recites. Reading a
	// long list over the phone loses the caller.
	maxSpokenSlots = 3

	spokenTimeLayout = "Monday, January 2 at 3:04 PM"
)

// Query asks for open appointment slots.
type Query struct {
	// PreferredDate is the caller's stated preference, recorded for context
	// but not used to move the search window.
	PreferredDate string
	// Urgency is "emergency", "flexible", or any other caller-supplied value.
	Urgency string
}

// Result is the caller-facing outcome of an availability lookup.
type Result struct {
	Available bool   `json:"available"`
	Message   string `json:"message"`
}

// Resolver answers availability questions against the scheduling provider.
type Resolver struct {
	provider  cal.Provider
	ownerName string
	location  *time.Location
	logger    *logging.Logger
}

// NewResolver creates an availability resolver. The location is used for all
// spoken time formatting.
func NewResolver(provider cal.Provider, ownerName string, location *time.Location, logger *logging.Logger) *Resolver {
	if location == nil {
		location = time.UTC
	}
	if logger == nil {
		logger = logging.Default()
	}
	return &Resolver{
		provider:  provider,
		ownerName: ownerName,
		location:  location,
		logger:    logger,
	}
}

// Resolve queries the provider for open slots and renders a spoken summary
// of up to three options.
func (r *Resolver) Resolve(ctx context.Context, q Query) Result {
	days := standardWindowDays
	if strings.EqualFold(strings.TrimSpace(q.Urgency), UrgencyEmergency) {
		days = emergencyWindowDays
	}
	from := time.Now()
	to := from.AddDate(0, 0, days)

	groups, err := r.provider.Slots(ctx, from, to)
	if err != nil {
		r.logger.Error("availability: slots lookup failed", "error", err, "urgency", q.Urgency)
		return Result{
			Available: false,
			Message: fmt.Sprintf(
				"I'm sorry, I'm having trouble reaching our schedule right now. %s will call you back shortly to find a time.",
				r.ownerName,
			),
		}
	}

	spoken := r.formatSlots(groups)
	if len(spoken) == 0 {
		return Result{
			Available: false,
			Message: fmt.Sprintf(
				"I don't see any openings in the next %d days. Would you like %s to call you back about other times?",
				days, r.ownerName,
			),
		}
	}

	return Result{
		Available: true,
		Message: fmt.Sprintf(
			"I have these openings: %s. Which one works best for you?",
			strings.Join(spoken, ", "),
		),
	}
}

// formatSlots flattens grouped slots and renders the first usable ones as
// spoken weekday/date/time strings in the business time zone.
func (r *Resolver) formatSlots(groups map[string][]cal.Slot) []string {
	flat := cal.FlattenSlots(groups)
	spoken := make([]string, 0, maxSpokenSlots)
	for _, slot := range flat {
		if len(spoken) == maxSpokenSlots {
			break
		}
		ts, err := time.Parse(time.RFC3339, slot.At())
		if err != nil {
			r.logger.Warn("availability: unparsable slot timestamp", "value", slot.At())
			continue
		}
		spoken = append(spoken, ts.In(r.location).Format(spokenTimeLayout))
	}
	return spoken
}

// FormatSpokenTime renders a timestamp the way the assistant speaks it.
func FormatSpokenTime(ts time.Time, location *time.Location) string {
	if location == nil {
		location = time.UTC
	}
	return ts.In(location).Format(spokenTimeLayout)
}
