package cal

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"
)

const defaultTimeout = 10 * time.Second

// ClientV2 talks to the newer scheduling API: bearer-token auth plus an API
// version header, slots grouped by date under a data envelope.
type ClientV2 struct {
	baseURL     string
	apiKey      string
	apiVersion  string
	eventTypeID int
	httpClient  *http.Client
}

// NewClientV2 constructs a client for the v2 scheduling API.
func NewClientV2(baseURL, apiKey, apiVersion string, eventTypeID int) *ClientV2 {
	return &ClientV2{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		apiVersion:  apiVersion,
		eventTypeID: eventTypeID,
		httpClient:  &http.Client{Timeout: defaultTimeout},
	}
}

var _ Provider = (*ClientV2)(nil)

// Slots returns open slots between from and to, grouped by date.
func (c *ClientV2) Slots(ctx context.Context, from, to time.Time) (map[string][]Slot, error) {
	q := url.Values{}
	q.Set("eventTypeId", strconv.Itoa(c.eventTypeID))
	q.Set("start", from.UTC().Format(time.RFC3339))
	q.Set("end", to.UTC().Format(time.RFC3339))

	body, err := c.do(ctx, http.MethodGet, "/slots?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return decodeSlots(body)
}

// CreateBooking books an appointment with structured attendee metadata.
func (c *ClientV2) CreateBooking(ctx context.Context, req BookingRequest) (string, error) {
	payload := map[string]interface{}{
		"eventTypeId": c.eventTypeID,
		"start":       req.Start,
		"attendee": map[string]interface{}{
			"name":        req.Name,
			"email":       req.Email,
			"phoneNumber": req.Phone,
			"timeZone":    req.TimeZone,
		},
		"metadata": map[string]string{
			"job":     req.JobDescription,
			"address": req.Address,
			"urgency": req.Urgency,
		},
	}

	body, err := c.do(ctx, http.MethodPost, "/bookings", payload)
	if err != nil {
		return "", err
	}
	return extractBookingID(body), nil
}

func (c *ClientV2) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
	var bodyReader io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return nil, fmt.Errorf("cal: marshal request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return nil, fmt.Errorf("cal: build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+c.apiKey)
	req.Header.Set("cal-api-version", c.apiVersion)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("cal: http request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("cal: read response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg := string(respBody)
		if len(msg) > 300 {
			msg = msg[:300]
		}
		return nil, fmt.Errorf("cal: v2 API returned %d: %s", resp.StatusCode, msg)
	}
	return respBody, nil
}

// extractBookingID pulls a booking identifier out of either envelope shape.
// An empty return means the response carried no recognizable identifier.
func extractBookingID(body []byte) string {
	var parsed struct {
		Data *struct {
			UID string          `json:"uid"`
			ID  json.RawMessage `json:"id"`
		} `json:"data"`
		UID string          `json:"uid"`
		ID  json.RawMessage `json:"id"`
	}
	if err := json.Unmarshal(body, &parsed); err != nil {
		return ""
	}
	if parsed.Data != nil {
		if parsed.Data.UID != "" {
			return parsed.Data.UID
		}
		if id := rawToString(parsed.Data.ID); id != "" {
			return id
		}
	}
	if parsed.UID != "" {
		return parsed.UID
	}
	return rawToString(parsed.ID)
}

// rawToString renders a JSON string or number id as text.
func rawToString(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return s
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}
