package webhook

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"github.com/fieldline/callpilot/internal/booking"
	"github.com/fieldline/callpilot/internal/emergency"
	"github.com/fieldline/callpilot/internal/observability/metrics"
	"github.com/fieldline/callpilot/internal/records"
	"github.com/fieldline/callpilot/pkg/logging"
)

// Function names the voice assistant is allowed to invoke.
const (
	FuncCheckAvailability  = "check_availability"
	FuncBookAppointment    = "book_appointment"
	FuncSendEmergencyAlert = "send_emergency_alert"
)

// Secret header names accepted for webhook authentication.
var secretHeaders = []string{"x-vapi-secret", "x-vapi-signature"}

// ToolCallResult pairs a spoken result with its originating call id so the
// platform can correlate them.
type ToolCallResult struct {
	ToolCallID string `json:"toolCallId"`
	Result     string `json:"result"`
}

// AvailabilityResolver answers availability queries.
type AvailabilityResolver interface {
	Resolve(ctx context.Context, q booking.Query) booking.Result
}

// Booker creates appointments.
type Booker interface {
	Book(ctx context.Context, p booking.Params) booking.Result
}

// Alerter raises emergency alerts.
type Alerter interface {
	RaiseAlert(ctx context.Context, p emergency.Params) emergency.Result
}

// RecordStore persists call records best-effort.
type RecordStore interface {
	Persist(ctx context.Context, rec records.CallRecord) bool
}

// Handler routes inbound voice-platform webhook events to intent handlers
// and assembles the response shape the platform expects.
type Handler struct {
	availability AvailabilityResolver
	booker       Booker
	alerter      Alerter
	store        RecordStore
	secret       string
	metrics      *metrics.WebhookMetrics
	logger       *logging.Logger
}

// HandlerConfig configures the webhook Handler.
type HandlerConfig struct {
	Availability AvailabilityResolver
	Booker       Booker
	Alerter      Alerter
	Store        RecordStore
	// Secret, when non-empty, must match one of the accepted headers on
	// every request.
	Secret  string
	Metrics *metrics.WebhookMetrics
	Logger  *logging.Logger
}

// NewHandler creates a webhook handler.
func NewHandler(cfg HandlerConfig) *Handler {
	if cfg.Logger == nil {
		cfg.Logger = logging.Default()
	}
	return &Handler{
		availability: cfg.Availability,
		booker:       cfg.Booker,
		alerter:      cfg.Alerter,
		store:        cfg.Store,
		secret:       cfg.Secret,
		metrics:      cfg.Metrics,
		logger:       cfg.Logger,
	}
}

// HandleWebhook is the HTTP handler for POST /webhooks/vapi.
func (h *Handler) HandleWebhook(w http.ResponseWriter, r *http.Request) {
	// Browser-based webhook testing tools preflight with OPTIONS. Answer
	// permissively with no body; the real request is still gated below.
	if r.Method == http.MethodOptions {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, x-vapi-secret, x-vapi-signature")
		w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
		w.WriteHeader(http.StatusNoContent)
		return
	}
	if r.Method != http.MethodPost {
		writeJSON(w, http.StatusMethodNotAllowed, map[string]string{"error": "Method not allowed"})
		return
	}

	// Authentication is the outermost gate: nothing is parsed before it.
	if h.secret != "" && !h.authorized(r) {
		h.logger.Warn("webhook: unauthorized request", "remote_addr", r.RemoteAddr)
		h.metrics.ObserveEvent("unauthorized", "rejected")
		writeJSON(w, http.StatusUnauthorized, map[string]string{"error": "Unauthorized"})
		return
	}

	body, err := io.ReadAll(io.LimitReader(r.Body, 1<<20))
	if err != nil {
		h.logger.Error("webhook: failed to read body", "error", err)
		h.internalError(w, "read")
		return
	}

	event, err := DecodeEvent(body)
	if err != nil {
		h.logger.Error("webhook: failed to decode event", "error", err, "body_bytes", len(body))
		h.internalError(w, "decode")
		return
	}

	start := time.Now()
	defer func() {
		h.metrics.ObserveLatency(event.Kind, time.Since(start))
	}()

	ctx := r.Context()
	switch event.Kind {
	case KindToolCalls:
		results := make([]ToolCallResult, 0, len(event.ToolCalls))
		for _, call := range event.ToolCalls {
			results = append(results, ToolCallResult{
				ToolCallID: call.ID,
				Result:     h.dispatch(ctx, call),
			})
		}
		h.metrics.ObserveEvent(KindToolCalls, "ok")
		writeJSON(w, http.StatusOK, map[string]interface{}{"results": results})

	case KindFunctionCall:
		result := h.dispatch(ctx, *event.FunctionCall)
		h.metrics.ObserveEvent(KindFunctionCall, "ok")
		writeJSON(w, http.StatusOK, map[string]interface{}{"result": result})

	case KindEndOfCallReport:
		h.recordCall(ctx, event.Report)
		h.metrics.ObserveEvent(KindEndOfCallReport, "ok")
		writeJSON(w, http.StatusOK, map[string]bool{"received": true})

	case KindStatusUpdate:
		h.metrics.ObserveEvent(KindStatusUpdate, "ok")
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})

	default:
		// Unrecognized events are acknowledged, never failed.
		h.logger.Debug("webhook: unrecognized event acknowledged")
		h.metrics.ObserveEvent(KindUnknown, "ok")
		writeJSON(w, http.StatusOK, map[string]bool{"ok": true})
	}
}

func (h *Handler) authorized(r *http.Request) bool {
	for _, header := range secretHeaders {
		if value := r.Header.Get(header); value != "" {
			if subtle.ConstantTimeCompare([]byte(value), []byte(h.secret)) == 1 {
				return true
			}
		}
	}
	return false
}

// dispatch runs one intent and returns the text the assistant speaks.
func (h *Handler) dispatch(ctx context.Context, call ToolCall) string {
	h.metrics.ObserveToolCall(call.FunctionName)
	args := call.Arguments

	switch call.FunctionName {
	case FuncCheckAvailability:
		res := h.availability.Resolve(ctx, booking.Query{
			PreferredDate: ArgString(args, "preferredDate", "preferred_date", "date"),
			Urgency:       ArgString(args, "urgency"),
		})
		return res.Message

	case FuncBookAppointment:
		res := h.booker.Book(ctx, booking.Params{
			CallerName:         ArgString(args, "callerName", "name"),
			Phone:              ArgString(args, "phone", "phoneNumber"),
			AppointmentTimeISO: ArgString(args, "appointmentTimeIso", "appointmentTime", "time"),
			JobDescription:     ArgString(args, "jobDescription", "job", "description"),
			Address:            ArgString(args, "address"),
			Urgency:            ArgString(args, "urgency"),
		})
		return res.Message

	case FuncSendEmergencyAlert:
		res := h.alerter.RaiseAlert(ctx, emergency.Params{
			CallerName: ArgString(args, "callerName", "name"),
			Phone:      ArgString(args, "phone", "phoneNumber"),
			Issue:      ArgString(args, "issue", "description", "problem"),
			Address:    ArgString(args, "address"),
		})
		return res.Message

	default:
		h.logger.Warn("webhook: unknown function requested", "function", call.FunctionName)
		return "I'm sorry, I can't help with that directly, but I'll make a note of it for the team."
	}
}

// recordCall persists a call record derived from the end-of-call summary.
func (h *Handler) recordCall(ctx context.Context, report *EndOfCallReport) {
	rec := records.NewRecord(records.TypeCall)
	rec.Status = records.ClassifySummary(report.Summary)
	rec.Summary = report.Summary
	rec.Duration = report.DurationSeconds
	rec.CallerPhone = report.CallerPhone
	if !h.store.Persist(ctx, rec) {
		h.logger.Warn("webhook: end-of-call record not stored", "id", rec.ID)
	}
}

func (h *Handler) internalError(w http.ResponseWriter, stage string) {
	h.metrics.ObserveEvent("error", stage)
	writeJSON(w, http.StatusInternalServerError, map[string]string{"error": "Internal server error"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
