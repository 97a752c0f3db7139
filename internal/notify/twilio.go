package notify

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/fieldline/callpilot/pkg/logging"
)

var twilioTracer = otel.Tracer("callpilot.internal.notify.twilio")

const defaultTwilioBaseURL = "https://api.twilio.com"

// TwilioSender posts SMS messages using Twilio's REST API.
type TwilioSender struct {
	accountSID string
	authToken  string
	baseURL    string
	httpClient *http.Client
	logger     *logging.Logger
}

// NewTwilioSender builds a sender with sane defaults.
func NewTwilioSender(accountSID, authToken string, logger *logging.Logger) *TwilioSender {
	if logger == nil {
		logger = logging.Default()
	}
	return &TwilioSender{
		accountSID: accountSID,
		authToken:  authToken,
		baseURL:    defaultTwilioBaseURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
		logger: logger,
	}
}

var _ SMSClient = (*TwilioSender)(nil)

// SendSMS dispatches a single SMS and returns the provider message SID.
// The voice platform expects a bounded webhook latency, so there is a single
// attempt with an explicit client timeout and no retry loop.
func (s *TwilioSender) SendSMS(ctx context.Context, to, from, body string) (string, error) {
	if s.accountSID == "" || s.authToken == "" {
		return "", errors.New("notify: twilio credentials missing")
	}
	if to == "" {
		return "", errors.New("notify: to required")
	}
	if from == "" {
		return "", errors.New("notify: from required")
	}
	if strings.TrimSpace(body) == "" {
		return "", errors.New("notify: body required")
	}

	ctx, span := twilioTracer.Start(ctx, "notify.twilio.send", trace.WithSpanKind(trace.SpanKindClient))
	defer span.End()
	span.SetAttributes(
		attribute.String("callpilot.to", to),
		attribute.String("callpilot.from", from),
	)

	payload := url.Values{}
	payload.Set("To", to)
	payload.Set("From", from)
	payload.Set("Body", body)

	endpoint := fmt.Sprintf("%s/2010-04-01/Accounts/%s/Messages.json", s.baseURL, s.accountSID)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, strings.NewReader(payload.Encode()))
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("notify: build twilio request: %w", err)
	}
	req.SetBasicAuth(s.accountSID, s.authToken)
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		span.RecordError(err)
		return "", fmt.Errorf("notify: twilio request: %w", err)
	}
	defer resp.Body.Close()

	respBody, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		err := fmt.Errorf("notify: twilio send failed: %s", formatTwilioError(resp.StatusCode, respBody))
		span.RecordError(err)
		return "", err
	}

	var parsed struct {
		SID    string `json:"sid"`
		Status string `json:"status"`
	}
	if len(respBody) > 0 {
		_ = json.Unmarshal(respBody, &parsed)
	}

	s.logger.Info("twilio sms sent", "to", to, "sid", parsed.SID)
	return parsed.SID, nil
}

func formatTwilioError(status int, body []byte) string {
	var parsed struct {
		Code    int    `json:"code"`
		Message string `json:"message"`
	}
	if len(body) > 0 && json.Unmarshal(body, &parsed) == nil && parsed.Message != "" {
		return fmt.Sprintf("status %d, code %d: %s", status, parsed.Code, parsed.Message)
	}
	return fmt.Sprintf("status %d", status)
}
