package agent

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/4ug-aug/presentor/internal/llm"
	"github.com/4ug-aug/presentor/internal/tools"
)

// firstSensitive scans a turn's tool calls in order and returns a pending
// approval for the first sensitive one. A single sensitive call suspends the
// whole turn: no call from the turn executes, including the non-sensitive
// ones around it.
func firstSensitive(reg *tools.Registry, calls []llm.ToolCall) *PendingApproval {
	for _, call := range calls {
		if !reg.Sensitive(call.Function.Name) {
			continue
		}
		return &PendingApproval{
			ID:         uuid.NewString(),
			ToolName:   call.Function.Name,
			Arguments:  decodeArguments(call.Function.Arguments),
			ToolCallID: call.ID,
		}
	}
	return nil
}

// decodeArguments parses a call's raw JSON arguments, tolerating malformed
// payloads. Validation happens at execution time.
func decodeArguments(raw json.RawMessage) map[string]interface{} {
	args := map[string]interface{}{}
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &args)
	}
	return args
}
