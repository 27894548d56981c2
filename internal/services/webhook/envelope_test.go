package webhook

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/isaac-anthony/mano/internal/models"
)

func TestParseEnvelope(t *testing.T) {
	tests := []struct {
		name     string
		body     string
		wantType string
		wantCall ToolCall
	}{
		{
			name:     "current wrapped tool call list",
			body:     `{"message": {"type": "tool-calls", "call": {"id": "c1"}, "toolCallList": [{"id": "t1", "function": {"name": "place_order", "arguments": {"items": []}}}]}}`,
			wantType: EventToolCalls,
			wantCall: ToolCall{ID: "t1", Name: "place_order"},
		},
		{
			name:     "flat toolCalls with parameters",
			body:     `{"type": "tool-calls", "toolCalls": [{"toolCallId": "t2", "name": "place_order", "parameters": {"items": []}}]}`,
			wantType: EventToolCalls,
			wantCall: ToolCall{ID: "t2", Name: "place_order"},
		},
		{
			name:     "single toolCall",
			body:     `{"type": "tool-calls", "toolCall": {"id": "t3", "function": {"name": "place_order", "parameters": {"items": []}}}}`,
			wantType: EventToolCalls,
			wantCall: ToolCall{ID: "t3", Name: "place_order"},
		},
		{
			name:     "legacy function call",
			body:     `{"type": "function-call", "functionCall": {"name": "place_order", "parameters": {"items": []}}}`,
			wantType: EventFunctionCall,
			wantCall: ToolCall{Name: "place_order"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env, err := ParseEnvelope([]byte(tt.body))
			require.NoError(t, err)
			assert.Equal(t, tt.wantType, env.Type)
			require.Len(t, env.ToolCalls, 1)
			call := env.ToolCalls[0]
			assert.Equal(t, tt.wantCall.ID, call.ID)
			assert.Equal(t, tt.wantCall.Name, call.Name)
			assert.True(t, call.Arguments.Get("items").IsArray())
		})
	}
}

func TestParseEnvelope_EndOfCall(t *testing.T) {
	env, err := ParseEnvelope([]byte(`{"message": {"type": "end-of-call-report", "call": {"id": "c1"}, "endedReason": "hangup"}}`))
	require.NoError(t, err)
	assert.Equal(t, EventEndOfCall, env.Type)
	assert.Equal(t, "c1", env.CallID)
	assert.Equal(t, "hangup", env.EndedReason)
	assert.Empty(t, env.ToolCalls)
}

func TestParseEnvelope_Structural(t *testing.T) {
	bodies := []string{
		``,
		`[]`,
		`{"message": {}}`,
		`{"type": "tool-calls", "toolCalls": []}`,
		`{"type": "tool-calls", "toolCalls": [{"id": "t1", "function": {}}]}`,
		`{"type": "function-call"}`,
	}
	for _, body := range bodies {
		_, err := ParseEnvelope([]byte(body))
		assert.ErrorIs(t, err, models.ErrStructural, body)
	}
}
