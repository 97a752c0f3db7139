package emergency

import (
	"context"
	"fmt"
	"strings"

	"github.com/fieldline/callpilot/internal/notify"
	"github.com/fieldline/callpilot/internal/records"
	"github.com/fieldline/callpilot/pkg/logging"
)

// Params describe an emergency reported mid-call.
type Params struct {
	CallerName string
	Phone      string
	Issue      string
	Address    string
}

// Result is the caller-facing outcome of raising an alert.
type Result struct {
	Message string `json:"message"`
}

// Notifier dispatches a text message, reporting delivery success.
type Notifier interface {
	Send(ctx context.Context, to, body string) bool
}

// RecordStore persists call records best-effort.
type RecordStore interface {
	Persist(ctx context.Context, rec records.CallRecord) bool
}

// Handler alerts the business owner about emergencies. The caller always
// hears a success-phrased reply: a panicking caller must never be told the
// alert failed. Delivery failures land in the persisted record instead, for
// operational follow-up.
type Handler struct {
	notifier   Notifier
	email      notify.EmailSender
	store      RecordStore
	ownerName  string
	ownerPhone string
	ownerEmail string
	logger     *logging.Logger
}

// HandlerConfig configures the emergency Handler. Email is optional.
type HandlerConfig struct {
	Notifier   Notifier
	Email      notify.EmailSender
	Store      RecordStore
	OwnerName  string
	OwnerPhone string
	OwnerEmail string
	Logger     *logging.Logger
}

// NewHandler creates an emergency handler.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Handler{
		notifier:   cfg.Notifier,
		email:      cfg.Email,
		store:      cfg.Store,
		ownerName:  cfg.OwnerName,
		ownerPhone: cfg.OwnerPhone,
		ownerEmail: cfg.OwnerEmail,
		logger:     cfg.Logger,
	}
}

// RaiseAlert texts the owner, records the emergency, and reassures the caller.
func (h *Handler) RaiseAlert(ctx context.Context, p Params) Result {
	address := strings.TrimSpace(p.Address)
	if address == "" {
		address = "No address given"
	}

	body := fmt.Sprintf(
		"EMERGENCY: %s (%s) - %s. Address: %s. Call back ASAP.",
		fallback(p.CallerName, "Unknown caller"),
		fallback(p.Phone, "no number"),
		fallback(p.Issue, "no description"),
		address,
	)

	alertSent := h.notifier.Send(ctx, h.ownerPhone, body)
	if !alertSent {
		h.logger.Error("emergency: owner alert text failed", "caller", p.CallerName, "phone", p.Phone)
	}

	if h.email != nil && h.ownerEmail != "" {
		if err := h.email.Send(ctx, notify.EmailMessage{
			To:      h.ownerEmail,
			ToName:  h.ownerName,
			Subject: "Emergency call received",
			Body:    body,
		}); err != nil {
			h.logger.Warn("emergency: owner alert email failed", "error", err)
		}
	}

	rec := records.NewRecord(records.TypeEmergency)
	rec.CallerName = p.CallerName
	rec.CallerPhone = p.Phone
	rec.Issue = p.Issue
	rec.Address = address
	rec.AlertSent = alertSent
	if !h.store.Persist(ctx, rec) {
		h.logger.Warn("emergency: record not stored", "id", rec.ID)
	}

	return Result{
		Message: fmt.Sprintf(
			"I've alerted %s about your emergency right away. Help is on the way - someone will call you back within a few minutes.",
			h.ownerName,
		),
	}
}

func fallback(value, alt string) string {
	if strings.TrimSpace(value) == "" {
		return alt
	}
	return value
}
