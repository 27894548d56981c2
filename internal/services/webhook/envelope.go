package webhook

import (
	"github.com/tidwall/gjson"

	"github.com/isaac-anthony/mano/internal/models"
)

// Event types the webhook distinguishes. Anything else is acknowledged.
const (
	EventToolCalls    = "tool-calls"
	EventFunctionCall = "function-call"
	EventEndOfCall    = "end-of-call-report"
)

// ToolCall is one function invocation requested by the voice agent.
type ToolCall struct {
	ID        string
	Name      string
	Arguments gjson.Result
}

// Envelope is the part of an inbound event this service acts on.
type Envelope struct {
	Type      string
	CallID    string
	ToolCalls []ToolCall
	// EndedReason is only set on end-of-call reports.
	EndedReason string
}

// ParseEnvelope extracts the event type and tool calls from a webhook body.
// Current payloads nest everything under "message"; older ones are flat.
func ParseEnvelope(body []byte) (*Envelope, error) {
	if !gjson.ValidBytes(body) {
		return nil, models.NewStructuralError("body is not valid JSON")
	}
	root := gjson.ParseBytes(body)
	if !root.IsObject() {
		return nil, models.NewStructuralError("body is not an object")
	}

	msg := root.Get("message")
	if !msg.IsObject() {
		msg = root
	}

	env := &Envelope{
		Type:   msg.Get("type").String(),
		CallID: firstString(msg, "call.id", "callId"),
	}
	if env.Type == "" {
		return nil, models.NewStructuralError("event has no type")
	}

	switch env.Type {
	case EventToolCalls:
		calls := toolCallList(msg)
		if len(calls) == 0 {
			return nil, models.NewStructuralError("tool-calls event without tool calls")
		}
		for _, tc := range calls {
			call := parseToolCall(tc)
			if call.Name == "" {
				return nil, models.NewStructuralError("tool call without a name")
			}
			env.ToolCalls = append(env.ToolCalls, call)
		}
	case EventFunctionCall:
		fc := msg.Get("functionCall")
		if !fc.IsObject() || fc.Get("name").String() == "" {
			return nil, models.NewStructuralError("function-call event without functionCall")
		}
		env.ToolCalls = []ToolCall{{
			ID:        firstString(fc, "id", "toolCallId"),
			Name:      fc.Get("name").String(),
			Arguments: firstPresent(fc, "parameters", "arguments"),
		}}
	case EventEndOfCall:
		env.EndedReason = msg.Get("endedReason").String()
	}
	return env, nil
}

func toolCallList(msg gjson.Result) []gjson.Result {
	for _, key := range []string{"toolCallList", "toolCalls"} {
		if list := msg.Get(key); list.IsArray() && len(list.Array()) > 0 {
			return list.Array()
		}
	}
	if single := msg.Get("toolCall"); single.IsObject() {
		return []gjson.Result{single}
	}
	return nil
}

func parseToolCall(tc gjson.Result) ToolCall {
	call := ToolCall{ID: firstString(tc, "id", "toolCallId")}
	if fn := tc.Get("function"); fn.IsObject() {
		call.Name = fn.Get("name").String()
		call.Arguments = firstPresent(fn, "arguments", "parameters")
	}
	if call.Name == "" {
		call.Name = tc.Get("name").String()
	}
	if !call.Arguments.Exists() {
		call.Arguments = firstPresent(tc, "parameters", "arguments")
	}
	return call
}

func firstString(v gjson.Result, paths ...string) string {
	return firstPresent(v, paths...).String()
}

func firstPresent(v gjson.Result, paths ...string) gjson.Result {
	for _, p := range paths {
		if r := v.Get(p); r.Exists() {
			return r
		}
	}
	return gjson.Result{}
}
