package webhook

import (
	"encoding/json"
	"fmt"
)

// Event kinds, in classification precedence order. The kind is decided by
// payload structure first and the platform's type tag second: a payload
// carrying tool calls is a tool-call batch no matter what its tag says.
const (
	KindToolCalls       = "tool-calls"
	KindFunctionCall    = "function-call"
	KindEndOfCallReport = "end-of-call-report"
	KindStatusUpdate    = "status-update"
	KindUnknown         = "unknown"
)

// ToolCall is one function invocation requested by the voice platform.
type ToolCall struct {
	ID           string
	FunctionName string
	Arguments    map[string]interface{}
}

// EndOfCallReport summarizes a completed call.
type EndOfCallReport struct {
	Summary         string
	DurationSeconds float64
	CallerPhone     string
}

// Event is the decoded form of one inbound webhook payload. Exactly one of
// the variant fields is populated, selected by Kind.
type Event struct {
	Kind         string
	ToolCalls    []ToolCall
	FunctionCall *ToolCall
	Report       *EndOfCallReport
}

type rawToolCall struct {
	ID       string `json:"id"`
	Name     string `json:"name"`
	Function *struct {
		Name      string          `json:"name"`
		Arguments json.RawMessage `json:"arguments"`
	} `json:"function"`
	Arguments json.RawMessage `json:"arguments"`
}

type rawFunctionCall struct {
	Name       string          `json:"name"`
	Arguments  json.RawMessage `json:"arguments"`
	Parameters json.RawMessage `json:"parameters"`
}

type rawCustomer struct {
	Number string `json:"number"`
}

type rawMessage struct {
	Type            string           `json:"type"`
	ToolCallList    []rawToolCall    `json:"toolCallList"`
	FunctionCall    *rawFunctionCall `json:"functionCall"`
	Summary         string           `json:"summary"`
	DurationSeconds float64          `json:"durationSeconds"`
	Customer        *rawCustomer     `json:"customer"`
	Call            *struct {
		Customer *rawCustomer `json:"customer"`
	} `json:"call"`
}

type rawEnvelope struct {
	Message      *rawMessage   `json:"message"`
	Type         string        `json:"type"`
	ToolCallList []rawToolCall `json:"toolCallList"`
}

// DecodeEvent classifies a webhook body into one recognized event variant.
// Malformed JSON, including double-encoded tool arguments that fail to
// parse, is the one failure class that surfaces as an error; an intact
// payload of unrecognized shape decodes to KindUnknown instead.
func DecodeEvent(body []byte) (Event, error) {
	var env rawEnvelope
	if err := json.Unmarshal(body, &env); err != nil {
		return Event{}, fmt.Errorf("webhook: decode payload: %w", err)
	}

	rawCalls := env.ToolCallList
	if env.Message != nil && len(env.Message.ToolCallList) > 0 {
		rawCalls = env.Message.ToolCallList
	}
	if len(rawCalls) > 0 {
		calls := make([]ToolCall, 0, len(rawCalls))
		for _, rc := range rawCalls {
			call, err := normalizeToolCall(rc)
			if err != nil {
				return Event{}, err
			}
			calls = append(calls, call)
		}
		return Event{Kind: KindToolCalls, ToolCalls: calls}, nil
	}

	typeTag := env.Type
	if env.Message != nil && env.Message.Type != "" {
		typeTag = env.Message.Type
	}

	switch typeTag {
	case KindFunctionCall:
		if env.Message == nil || env.Message.FunctionCall == nil {
			return Event{Kind: KindUnknown}, nil
		}
		fc := env.Message.FunctionCall
		rawArgs := fc.Arguments
		if len(rawArgs) == 0 {
			rawArgs = fc.Parameters
		}
		args, err := normalizeArguments(rawArgs)
		if err != nil {
			return Event{}, err
		}
		return Event{
			Kind:         KindFunctionCall,
			FunctionCall: &ToolCall{FunctionName: fc.Name, Arguments: args},
		}, nil

	case KindEndOfCallReport:
		report := &EndOfCallReport{}
		if env.Message != nil {
			report.Summary = env.Message.Summary
			report.DurationSeconds = env.Message.DurationSeconds
			report.CallerPhone = callerNumber(env.Message)
		}
		return Event{Kind: KindEndOfCallReport, Report: report}, nil

	case KindStatusUpdate:
		return Event{Kind: KindStatusUpdate}, nil

	default:
		return Event{Kind: KindUnknown}, nil
	}
}

func normalizeToolCall(rc rawToolCall) (ToolCall, error) {
	name := rc.Name
	rawArgs := rc.Arguments
	if rc.Function != nil {
		if rc.Function.Name != "" {
			name = rc.Function.Name
		}
		if len(rc.Function.Arguments) > 0 {
			rawArgs = rc.Function.Arguments
		}
	}
	args, err := normalizeArguments(rawArgs)
	if err != nil {
		return ToolCall{}, fmt.Errorf("webhook: tool call %s: %w", rc.ID, err)
	}
	return ToolCall{ID: rc.ID, FunctionName: name, Arguments: args}, nil
}

// normalizeArguments accepts arguments either as an object or as a
// JSON-encoded string containing one, yielding the same map for both.
func normalizeArguments(raw json.RawMessage) (map[string]interface{}, error) {
	if len(raw) == 0 || string(raw) == "null" {
		return map[string]interface{}{}, nil
	}

	var asString string
	if err := json.Unmarshal(raw, &asString); err == nil {
		raw = json.RawMessage(asString)
	}

	var args map[string]interface{}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("webhook: decode arguments: %w", err)
	}
	if args == nil {
		args = map[string]interface{}{}
	}
	return args, nil
}

func callerNumber(msg *rawMessage) string {
	if msg.Customer != nil && msg.Customer.Number != "" {
		return msg.Customer.Number
	}
	if msg.Call != nil && msg.Call.Customer != nil {
		return msg.Call.Customer.Number
	}
	return ""
}

// ArgString reads a string argument by the first key that is present.
func ArgString(args map[string]interface{}, keys ...string) string {
	for _, key := range keys {
		if v, ok := args[key]; ok {
			if s, ok := v.(string); ok {
				return s
			}
		}
	}
	return ""
}
