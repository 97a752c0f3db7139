package notify

import "testing"

func TestNormalizeE164(t *testing.T) {
	cases := []struct {
		in   string
		want string
	}{
		{"5551234567", "+15551234567"},
		{"(555) 123-4567", "+15551234567"},
		{"555.123.4567", "+15551234567"},
		{"+15551234567", "+15551234567"},
		{"15551234567", "+15551234567"},
		{"+445551234567", "+445551234567"},
		{" +1 555 123 4567 ", "+15551234567"},
		{"", ""},
		{"call me", ""},
	}
	for _, tc := range cases {
		if got := NormalizeE164(tc.in); got != tc.want {
			t.Errorf("NormalizeE164(%q) = %q, want %q", tc.in, got, tc.want)
		}
	}
}

func TestSanitizePhone(t *testing.T) {
	if got := sanitizePhone("(555) 123-4567"); got != "5551234567" {
		t.Errorf("sanitizePhone = %q", got)
	}
	if got := sanitizePhone(""); got != "" {
		t.Errorf("sanitizePhone(empty) = %q", got)
	}
}
