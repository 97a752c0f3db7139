package notify

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/fieldline/callpilot/pkg/logging"
)

func TestTwilioSendSMS(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("method = %s", r.Method)
		}
		user, pass, ok := r.BasicAuth()
		if !ok || user != "AC123" || pass != "token" {
			t.Error("missing or wrong basic auth")
		}
		if err := r.ParseForm(); err != nil {
			t.Fatalf("parse form: %v", err)
		}
		if got := r.PostForm.Get("To"); got != "+15551234567" {
			t.Errorf("To = %q", got)
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusCreated)
		_, _ = w.Write([]byte(`{"sid":"SM999","status":"queued"}`))
	}))
	defer srv.Close()

	s := NewTwilioSender("AC123", "token", logging.Default())
	s.baseURL = srv.URL

	sid, err := s.SendSMS(context.Background(), "+15551234567", "+15550001111", "hi")
	if err != nil {
		t.Fatalf("SendSMS: %v", err)
	}
	if sid != "SM999" {
		t.Errorf("sid = %q", sid)
	}
}

func TestTwilioSendSMSError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"code":20003,"message":"Authenticate"}`))
	}))
	defer srv.Close()

	s := NewTwilioSender("AC123", "bad", logging.Default())
	s.baseURL = srv.URL

	if _, err := s.SendSMS(context.Background(), "+15551234567", "+15550001111", "hi"); err == nil {
		t.Fatal("expected error on 401")
	}
}

func TestTwilioSendSMSValidation(t *testing.T) {
	s := NewTwilioSender("", "", logging.Default())
	if _, err := s.SendSMS(context.Background(), "+15551234567", "+15550001111", "hi"); err == nil {
		t.Error("expected error for missing credentials")
	}

	s = NewTwilioSender("AC123", "token", logging.Default())
	if _, err := s.SendSMS(context.Background(), "", "+15550001111", "hi"); err == nil {
		t.Error("expected error for missing to")
	}
	if _, err := s.SendSMS(context.Background(), "+15551234567", "+15550001111", "  "); err == nil {
		t.Error("expected error for empty body")
	}
}
