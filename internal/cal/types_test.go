package cal

import "testing"

func TestDecodeSlotsNestedEnvelope(t *testing.T) {
	body := []byte(`{"data":{"slots":{"2026-09-01":[{"time":"2026-09-01T14:00:00Z"}]}}}`)
	groups, err := decodeSlots(body)
	if err != nil {
		t.Fatalf("decodeSlots: %v", err)
	}
	if len(groups["2026-09-01"]) != 1 {
		t.Fatalf("groups = %v", groups)
	}
	if got := groups["2026-09-01"][0].At(); got != "2026-09-01T14:00:00Z" {
		t.Errorf("At() = %q", got)
	}
}

func TestDecodeSlotsTopLevelEnvelope(t *testing.T) {
	body := []byte(`{"slots":{"2026-09-02":[{"start":"2026-09-02T09:00:00Z"},{"start":"2026-09-02T10:00:00Z"}]}}`)
	groups, err := decodeSlots(body)
	if err != nil {
		t.Fatalf("decodeSlots: %v", err)
	}
	if len(groups["2026-09-02"]) != 2 {
		t.Fatalf("groups = %v", groups)
	}
	if got := groups["2026-09-02"][0].At(); got != "2026-09-02T09:00:00Z" {
		t.Errorf("At() = %q", got)
	}
}

func TestDecodeSlotsMissingStructure(t *testing.T) {
	if _, err := decodeSlots([]byte(`{"ok":true}`)); err == nil {
		t.Error("expected error for body without slots")
	}
	if _, err := decodeSlots([]byte(`nonsense`)); err == nil {
		t.Error("expected error for invalid JSON")
	}
}

func TestDecodeSlotsEmptyGroups(t *testing.T) {
	// Present-but-empty slot structure is usable; it means no openings.
	groups, err := decodeSlots([]byte(`{"slots":{}}`))
	if err != nil {
		t.Fatalf("decodeSlots: %v", err)
	}
	if len(groups) != 0 {
		t.Errorf("groups = %v, want empty", groups)
	}
}

func TestFlattenSlotsOrdering(t *testing.T) {
	groups := map[string][]Slot{
		"2026-09-03": {{Time: "2026-09-03T09:00:00Z"}, {Time: "2026-09-03T11:00:00Z"}},
		"2026-09-01": {{Time: "2026-09-01T15:00:00Z"}},
		"2026-09-02": {{Time: "2026-09-02T08:00:00Z"}},
	}
	flat := FlattenSlots(groups)
	if len(flat) != 4 {
		t.Fatalf("len = %d", len(flat))
	}
	want := []string{
		"2026-09-01T15:00:00Z",
		"2026-09-02T08:00:00Z",
		"2026-09-03T09:00:00Z",
		"2026-09-03T11:00:00Z",
	}
	for i, w := range want {
		if flat[i].At() != w {
			t.Errorf("flat[%d] = %q, want %q", i, flat[i].At(), w)
		}
	}
}

func TestExtractBookingID(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"data":{"uid":"abc123"}}`, "abc123"},
		{`{"data":{"id":42}}`, "42"},
		{`{"uid":"top-level"}`, "top-level"},
		{`{"id":"str-id"}`, "str-id"},
		{`{"id":1234}`, "1234"},
		{`{"status":"ok"}`, ""},
		{`{"data":{}}`, ""},
	}
	for _, tc := range cases {
		if got := extractBookingID([]byte(tc.body)); got != tc.want {
			t.Errorf("extractBookingID(%s) = %q, want %q", tc.body, got, tc.want)
		}
	}
}
