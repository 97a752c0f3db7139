package webhook

import "testing"

func TestDecodeToolCallsNested(t *testing.T) {
	body := []byte(`{"message":{"type":"tool-calls","toolCallList":[
		{"id":"tc_1","function":{"name":"check_availability","arguments":{"urgency":"emergency"}}},
		{"id":"tc_2","function":{"name":"book_appointment","arguments":{"name":"Jo"}}}
	]}}`)

	event, err := DecodeEvent(body)
	if err != nil {
		t.Fatalf("DecodeEvent: %v", err)
	}
	if event.Kind != KindToolCalls {
		t.Fatalf("Kind = %q", event.Kind)
	}
	if len(event.ToolCalls) != 2 {
		t.Fatalf("len = %d", len(event.ToolCalls))
	}
	if event.ToolCalls[0].ID != "tc_1" || event.ToolCalls[0].FunctionName != "check_availability" {
		t.Errorf("call[0] = %+v", event.ToolCalls[0])
	}
	if event.ToolCalls[0].Arguments["urgency"] != "emergency" {
		t.Errorf("arguments = %v", event.ToolCalls[0].Arguments)
	}
}

func TestDecodeToolCallsTopLevel(t *testing.T) {
	body := []byte(`{"toolCallList":[{"id":"tc_9","name":"send_emergency_alert","arguments":{"issue":"leak"}}]}`)

	event, err := DecodeEvent(body)
	if err != nil {
		t.Fatalf("DecodeEvent: %v", err)
	}
	if event.Kind != KindToolCalls || len(event.ToolCalls) != 1 {
		t.Fatalf("event = %+v", event)
	}
	if event.ToolCalls[0].FunctionName != "send_emergency_alert" {
		t.Errorf("function = %q", event.ToolCalls[0].FunctionName)
	}
}

func TestDecodeStringEncodedArguments(t *testing.T) {
	// Arguments double-encoded as a JSON string must normalize to the same
	// map as an inline object.
	body := []byte(`{"toolCallList":[{"id":"tc_1","name":"book_appointment",
		"arguments":"{\"name\":\"Jo\",\"phone\":\"5551234567\"}"}]}`)

	event, err := DecodeEvent(body)
	if err != nil {
		t.Fatalf("DecodeEvent: %v", err)
	}
	args := event.ToolCalls[0].Arguments
	if args["name"] != "Jo" || args["phone"] != "5551234567" {
		t.Errorf("arguments = %v", args)
	}
}

func TestDecodeMalformedArgumentsIsError(t *testing.T) {
	body := []byte(`{"toolCallList":[{"id":"tc_1","name":"x","arguments":"{not json"}]}`)
	if _, err := DecodeEvent(body); err == nil {
		t.Error("expected error for malformed string arguments")
	}
}

func TestDecodePrecedenceToolCallsBeatTypeTag(t *testing.T) {
	// Structure wins over the platform's own type tag.
	body := []byte(`{"message":{"type":"status-update","toolCallList":[{"id":"tc_1","name":"check_availability"}]}}`)
	event, err := DecodeEvent(body)
	if err != nil {
		t.Fatalf("DecodeEvent: %v", err)
	}
	if event.Kind != KindToolCalls {
		t.Errorf("Kind = %q, want tool-calls", event.Kind)
	}
}

func TestDecodeLegacyFunctionCall(t *testing.T) {
	body := []byte(`{"message":{"type":"function-call","functionCall":{"name":"check_availability","parameters":{"urgency":"flexible"}}}}`)
	event, err := DecodeEvent(body)
	if err != nil {
		t.Fatalf("DecodeEvent: %v", err)
	}
	if event.Kind != KindFunctionCall {
		t.Fatalf("Kind = %q", event.Kind)
	}
	if event.FunctionCall.FunctionName != "check_availability" {
		t.Errorf("function = %q", event.FunctionCall.FunctionName)
	}
	if event.FunctionCall.Arguments["urgency"] != "flexible" {
		t.Errorf("arguments = %v", event.FunctionCall.Arguments)
	}
}

func TestDecodeEndOfCallReport(t *testing.T) {
	body := []byte(`{"message":{"type":"end-of-call-report","summary":"Caller scheduled service","durationSeconds":184.5,"call":{"customer":{"number":"+15551234567"}}}}`)
	event, err := DecodeEvent(body)
	if err != nil {
		t.Fatalf("DecodeEvent: %v", err)
	}
	if event.Kind != KindEndOfCallReport {
		t.Fatalf("Kind = %q", event.Kind)
	}
	if event.Report.Summary != "Caller scheduled service" {
		t.Errorf("summary = %q", event.Report.Summary)
	}
	if event.Report.DurationSeconds != 184.5 {
		t.Errorf("duration = %v", event.Report.DurationSeconds)
	}
	if event.Report.CallerPhone != "+15551234567" {
		t.Errorf("caller = %q", event.Report.CallerPhone)
	}
}

func TestDecodeStatusUpdateAndUnknown(t *testing.T) {
	event, err := DecodeEvent([]byte(`{"message":{"type":"status-update"}}`))
	if err != nil || event.Kind != KindStatusUpdate {
		t.Errorf("status-update: event=%+v err=%v", event, err)
	}

	event, err = DecodeEvent([]byte(`{"message":{"type":"transcript","transcript":"hi"}}`))
	if err != nil || event.Kind != KindUnknown {
		t.Errorf("unknown: event=%+v err=%v", event, err)
	}

	event, err = DecodeEvent([]byte(`{}`))
	if err != nil || event.Kind != KindUnknown {
		t.Errorf("empty object: event=%+v err=%v", event, err)
	}
}

func TestDecodeMalformedBody(t *testing.T) {
	if _, err := DecodeEvent([]byte(`{{{`)); err == nil {
		t.Error("expected error for malformed body")
	}
}

func TestArgString(t *testing.T) {
	args := map[string]interface{}{"name": "Jo", "count": 3.0}
	if got := ArgString(args, "callerName", "name"); got != "Jo" {
		t.Errorf("ArgString = %q", got)
	}
	if got := ArgString(args, "count"); got != "" {
		t.Errorf("non-string value should yield empty, got %q", got)
	}
	if got := ArgString(args, "missing"); got != "" {
		t.Errorf("missing key should yield empty, got %q", got)
	}
}
