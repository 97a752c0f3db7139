package notify

import (
	"context"
	"strings"

	"github.com/fieldline/callpilot/pkg/logging"
)

// SMSClient posts a single text message and returns the provider delivery id.
type SMSClient interface {
	SendSMS(ctx context.Context, to, from, body string) (string, error)
}

// Service sends text messages to callers and the business owner. Send never
// propagates provider errors: callers only see a boolean outcome, so a failed
// text can never fail the webhook that triggered it.
type Service struct {
	sms    SMSClient
	from   string
	logger *logging.Logger
}

// NewService creates a notification service sending from the given number.
func NewService(sms SMSClient, fromNumber string, logger *logging.Logger) *Service {
	if logger == nil {
		logger = logging.Default()
	}
	return &Service{
		sms:    sms,
		from:   NormalizeE164(fromNumber),
		logger: logger,
	}
}

// Send normalizes the destination and dispatches one SMS. It reports whether
// the provider accepted the message.
func (s *Service) Send(ctx context.Context, to, body string) bool {
	if s == nil || s.sms == nil {
		return false
	}
	normalized := NormalizeE164(to)
	if normalized == "" {
		s.logger.Warn("notify: unusable destination number", "to", to)
		return false
	}
	if strings.TrimSpace(body) == "" {
		s.logger.Warn("notify: empty message body", "to", normalized)
		return false
	}

	sid, err := s.sms.SendSMS(ctx, normalized, s.from, body)
	if err != nil {
		s.logger.Error("notify: sms send failed", "error", err, "to", normalized)
		return false
	}
	s.logger.Info("notify: sms dispatched", "to", normalized, "sid", sid)
	return true
}
