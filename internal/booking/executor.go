package booking

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/fieldline/callpilot/internal/cal"
	"github.com/fieldline/callpilot/internal/records"
	"github.com/fieldline/callpilot/pkg/logging"
)

var digitsRe = regexp.MustCompile(`\d`)

// Params are the caller-supplied booking parameters gathered by the voice
// assistant.
type Params struct {
	CallerName         string
	Phone              string
	AppointmentTimeISO string
	JobDescription     string
	Address            string
	Urgency            string
}

// missingRequired reports whether any field needed to contact the provider
// is absent.
func (p Params) missingRequired() bool {
	return strings.TrimSpace(p.CallerName) == "" ||
		strings.TrimSpace(p.Phone) == "" ||
		strings.TrimSpace(p.AppointmentTimeISO) == ""
}

// Notifier dispatches a text message, reporting delivery success.
type Notifier interface {
	Send(ctx context.Context, to, body string) bool
}

// RecordStore persists call records best-effort.
type RecordStore interface {
	Persist(ctx context.Context, rec records.CallRecord) bool
}

// Executor creates appointments with the scheduling provider and handles the
// surrounding notifications and record keeping.
type Executor struct {
	provider     cal.Provider
	notifier     Notifier
	store        RecordStore
	businessName string
	ownerName    string
	ownerPhone   string
	timeZone     string
	location     *time.Location
	logger       *logging.Logger
}

// ExecutorConfig configures a booking Executor.
type ExecutorConfig struct {
	Provider     cal.Provider
	Notifier     Notifier
	Store        RecordStore
	BusinessName string
	OwnerName    string
	OwnerPhone   string
	TimeZone     string
	Location     *time.Location
	Logger       *logging.Logger
}

// NewExecutor creates a booking executor.
func NewExecutor(cfg ExecutorConfig) *Executor {
	if cfg.Location == nil {
		cfg.Location = time.UTC
	}
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Executor{
		provider:     cfg.Provider,
		notifier:     cfg.Notifier,
		store:        cfg.Store,
		businessName: cfg.BusinessName,
		ownerName:    cfg.OwnerName,
		ownerPhone:   cfg.OwnerPhone,
		timeZone:     cfg.TimeZone,
		location:     cfg.Location,
		logger:       cfg.Logger,
	}
}

// Book creates an appointment and returns the message the assistant speaks.
// Booking creation carries no deduplication key: a retried request with
// identical parameters can create a duplicate appointment. That is an
// accepted trade-off of the version-fallback design, not something this
// layer masks.
func (e *Executor) Book(ctx context.Context, p Params) Result {
	if p.missingRequired() {
		return Result{
			Available: false,
			Message:   "I just need a few details to book that. Could you confirm your name, phone number, and the time you'd like?",
		}
	}

	job := strings.TrimSpace(p.JobDescription)
	if job == "" {
		job = "Service call"
	}

	req := cal.BookingRequest{
		Name:           p.CallerName,
		Email:          syntheticEmail(p.Phone),
		Phone:          p.Phone,
		Start:          p.AppointmentTimeISO,
		TimeZone:       e.timeZone,
		JobDescription: job,
		Address:        p.Address,
		Urgency:        p.Urgency,
	}

	bookingID, err := e.provider.CreateBooking(ctx, req)
	if err != nil || bookingID == "" {
		e.logger.Error("booking: create failed on both API versions",
			"error", err,
			"caller", p.CallerName,
			"start", p.AppointmentTimeISO,
		)
		return Result{
			Available: false,
			Message: fmt.Sprintf(
				"I'm sorry, I wasn't able to lock that in just now. %s will call you back shortly to confirm your appointment.",
				e.ownerName,
			),
		}
	}

	spokenTime := e.spokenTime(p.AppointmentTimeISO)

	// The two notifications are independent: one failing must not block or
	// fail the other, and neither affects whether the booking succeeded.
	var callerNotified, ownerNotified bool
	var wg sync.WaitGroup
	wg.Add(2)
	go func() {
		defer wg.Done()
		callerNotified = e.notifier.Send(ctx, p.Phone, fmt.Sprintf(
			"%s: your appointment is confirmed for %s. Reply to this number if anything changes.",
			e.businessName, spokenTime,
		))
	}()
	go func() {
		defer wg.Done()
		ownerNotified = e.notifier.Send(ctx, e.ownerPhone, fmt.Sprintf(
			"New booking: %s (%s) - %s at %s.%s",
			p.CallerName, p.Phone, job, spokenTime, addressSuffix(p.Address),
		))
	}()
	wg.Wait()

	rec := records.NewRecord(records.TypeBooking)
	rec.CallerName = p.CallerName
	rec.CallerPhone = p.Phone
	rec.BookingID = bookingID
	rec.AppointmentTime = p.AppointmentTimeISO
	rec.JobDescription = job
	rec.CallerNotified = callerNotified
	rec.OwnerNotified = ownerNotified
	if !e.store.Persist(ctx, rec) {
		e.logger.Warn("booking: record not stored", "booking_id", bookingID)
	}

	if !callerNotified {
		return Result{
			Available: true,
			Message: fmt.Sprintf(
				"You're booked for %s. %s will text you directly to confirm the details.",
				spokenTime, e.ownerName,
			),
		}
	}
	return Result{
		Available: true,
		Message: fmt.Sprintf(
			"You're all set, %s! Your appointment is booked for %s, and I've texted you a confirmation.",
			p.CallerName, spokenTime,
		),
	}
}

// spokenTime renders the appointment time for speech, falling back to the
// raw value when it doesn't parse.
func (e *Executor) spokenTime(iso string) string {
	ts, err := time.Parse(time.RFC3339, iso)
	if err != nil {
		return iso
	}
	return FormatSpokenTime(ts, e.location)
}

// syntheticEmail derives a placeholder attendee email from the phone digits;
// the provider requires an email but callers only give a number.
func syntheticEmail(phone string) string {
	digits := strings.Join(digitsRe.FindAllString(phone, -1), "")
	if digits == "" {
		digits = "unknown"
	}
	return digits + "@callers.callpilot.app"
}

func addressSuffix(address string) string {
	if strings.TrimSpace(address) == "" {
		return ""
	}
	return " Address: " + address
}
