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

// ClientV1 talks to the older scheduling API: key as a query parameter,
// free-text notes instead of structured booking metadata. Semantics match
// ClientV2 so the two are interchangeable behind the Provider interface.
type ClientV1 struct {
	baseURL     string
	apiKey      string
	eventTypeID int
	httpClient  *http.Client
}

// NewClientV1 constructs a client for the v1 scheduling API.
func NewClientV1(baseURL, apiKey string, eventTypeID int) *ClientV1 {
	return &ClientV1{
		baseURL:     strings.TrimRight(baseURL, "/"),
		apiKey:      apiKey,
		eventTypeID: eventTypeID,
		httpClient:  &http.Client{Timeout: defaultTimeout},
	}
}

var _ Provider = (*ClientV1)(nil)

// Slots returns open slots between from and to, grouped by date.
func (c *ClientV1) Slots(ctx context.Context, from, to time.Time) (map[string][]Slot, error) {
	q := url.Values{}
	q.Set("apiKey", c.apiKey)
	q.Set("eventTypeId", strconv.Itoa(c.eventTypeID))
	q.Set("startTime", from.UTC().Format(time.RFC3339))
	q.Set("endTime", to.UTC().Format(time.RFC3339))

	body, err := c.do(ctx, http.MethodGet, "/slots?"+q.Encode(), nil)
	if err != nil {
		return nil, err
	}
	return decodeSlots(body)
}

// CreateBooking books an appointment, packing job details into free-text
// notes since v1 has no metadata field.
func (c *ClientV1) CreateBooking(ctx context.Context, req BookingRequest) (string, error) {
	notes := req.JobDescription
	if req.Address != "" {
		notes += " | Address: " + req.Address
	}
	if req.Urgency != "" {
		notes += " | Urgency: " + req.Urgency
	}

	payload := map[string]interface{}{
		"eventTypeId": c.eventTypeID,
		"start":       req.Start,
		"timeZone":    req.TimeZone,
		"responses": map[string]interface{}{
			"name":  req.Name,
			"email": req.Email,
			"notes": notes,
		},
	}

	q := url.Values{}
	q.Set("apiKey", c.apiKey)

	body, err := c.do(ctx, http.MethodPost, "/bookings?"+q.Encode(), payload)
	if err != nil {
		return "", err
	}
	return extractBookingID(body), nil
}

func (c *ClientV1) do(ctx context.Context, method, path string, payload interface{}) ([]byte, error) {
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
		return nil, fmt.Errorf("cal: v1 API returned %d: %s", resp.StatusCode, msg)
	}
	return respBody, nil
}
