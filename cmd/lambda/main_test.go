package main

import (
	"context"
	"encoding/base64"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/aws/aws-lambda-go/events"
)

func gatewayEvent(method, path, body string, headers map[string]string) events.APIGatewayV2HTTPRequest {
	evt := events.APIGatewayV2HTTPRequest{
		RawPath: path,
		Body:    body,
		Headers: headers,
	}
	evt.RequestContext.HTTP.Method = method
	return evt
}

func TestHealthShortCircuits(t *testing.T) {
	cfg := config{upstreamBaseURL: "http://example.invalid", upstreamTimeout: time.Second}
	resp, err := handle(context.Background(), cfg, http.DefaultClient, gatewayEvent(http.MethodGet, "/health", "", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK || resp.Body != "ok" {
		t.Errorf("resp = %+v", resp)
	}
}

func TestNonPostRejected(t *testing.T) {
	cfg := config{upstreamBaseURL: "http://example.invalid", upstreamTimeout: time.Second}
	resp, err := handle(context.Background(), cfg, http.DefaultClient, gatewayEvent(http.MethodGet, "/webhooks/vapi", "", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusMethodNotAllowed {
		t.Errorf("code = %d, want 405", resp.StatusCode)
	}
}

func TestUnknownPathNotFound(t *testing.T) {
	cfg := config{upstreamBaseURL: "http://example.invalid", upstreamTimeout: time.Second}
	resp, err := handle(context.Background(), cfg, http.DefaultClient, gatewayEvent(http.MethodPost, "/webhooks/other", "{}", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("code = %d, want 404", resp.StatusCode)
	}
}

func TestForwardsBodyAndSecretHeader(t *testing.T) {
	var gotSecret, gotBody, gotPath string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotPath = r.URL.Path
		gotSecret = r.Header.Get("x-vapi-secret")
		buf, _ := io.ReadAll(r.Body)
		gotBody = string(buf)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusOK)
		_, _ = w.Write([]byte(`{"ok":true}`))
	}))
	defer upstream.Close()

	cfg := config{upstreamBaseURL: upstream.URL, upstreamTimeout: 2 * time.Second}
	evt := gatewayEvent(http.MethodPost, "/webhooks/vapi", `{"message":{}}`, map[string]string{
		"X-Vapi-Secret": "s3cret",
		"Content-Type":  "application/json",
	})

	resp, err := handle(context.Background(), cfg, upstream.Client(), evt)
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("code = %d", resp.StatusCode)
	}
	if gotPath != "/webhooks/vapi" {
		t.Errorf("path = %q", gotPath)
	}
	if gotSecret != "s3cret" {
		t.Errorf("secret = %q", gotSecret)
	}
	if gotBody != `{"message":{}}` {
		t.Errorf("body = %q", gotBody)
	}
	if resp.Body != `{"ok":true}` {
		t.Errorf("resp body = %q", resp.Body)
	}
	if resp.Headers["content-type"] != "application/json" {
		t.Errorf("content-type = %q", resp.Headers["content-type"])
	}
}

func TestInjectsConfiguredSecretWhenHeaderAbsent(t *testing.T) {
	var gotSecret string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSecret = r.Header.Get("x-vapi-secret")
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	cfg := config{upstreamBaseURL: upstream.URL, upstreamTimeout: 2 * time.Second, webhookSecret: "fallback"}
	evt := gatewayEvent(http.MethodPost, "/webhooks/vapi", "{}", nil)
	if _, err := handle(context.Background(), cfg, upstream.Client(), evt); err != nil {
		t.Fatal(err)
	}
	if gotSecret != "fallback" {
		t.Errorf("secret = %q, want fallback", gotSecret)
	}
}

func TestPlatformSecretWinsOverConfigured(t *testing.T) {
	var gotSecret string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotSecret = r.Header.Get("x-vapi-secret")
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	cfg := config{upstreamBaseURL: upstream.URL, upstreamTimeout: 2 * time.Second, webhookSecret: "fallback"}
	evt := gatewayEvent(http.MethodPost, "/webhooks/vapi", "{}", map[string]string{"x-vapi-secret": "platform"})
	if _, err := handle(context.Background(), cfg, upstream.Client(), evt); err != nil {
		t.Fatal(err)
	}
	if gotSecret != "platform" {
		t.Errorf("secret = %q, want platform", gotSecret)
	}
}

func TestBase64BodyDecoded(t *testing.T) {
	var gotBody string
	upstream := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		buf, _ := io.ReadAll(r.Body)
		gotBody = string(buf)
		w.WriteHeader(http.StatusOK)
	}))
	defer upstream.Close()

	raw := `{"toolCallList":[]}`
	evt := gatewayEvent(http.MethodPost, "/webhooks/vapi", base64.StdEncoding.EncodeToString([]byte(raw)), nil)
	evt.IsBase64Encoded = true

	cfg := config{upstreamBaseURL: upstream.URL, upstreamTimeout: 2 * time.Second}
	if _, err := handle(context.Background(), cfg, upstream.Client(), evt); err != nil {
		t.Fatal(err)
	}
	if gotBody != raw {
		t.Errorf("body = %q, want %q", gotBody, raw)
	}
}

func TestUpstreamDownIsBadGateway(t *testing.T) {
	cfg := config{upstreamBaseURL: "http://127.0.0.1:0", upstreamTimeout: time.Second}
	client := &http.Client{Timeout: time.Second}
	resp, err := handle(context.Background(), cfg, client, gatewayEvent(http.MethodPost, "/webhooks/vapi", "{}", nil))
	if err != nil {
		t.Fatal(err)
	}
	if resp.StatusCode != http.StatusBadGateway {
		t.Errorf("code = %d, want 502", resp.StatusCode)
	}
}
