package rpc

import "github.com/4ug-aug/presentor/internal/agent"

// RunRequest is the top-level request for starting an agent run.
type RunRequest struct {
	SessionID   string               `json:"session_id"`
	Model       string               `json:"model,omitempty"`
	Instruction string               `json:"instruction"`
	Context     *agent.EditorContext `json:"context,omitempty"`
}

// RunEvent streams back progress from the daemon.
type RunEvent struct {
	Type      string                 `json:"type"` // thinking|tool_call|tool_result|approval_required|done|error
	SessionID string                 `json:"session_id,omitempty"`
	Message   string                 `json:"message,omitempty"`
	ToolName  string                 `json:"tool_name,omitempty"`
	Arguments map[string]interface{} `json:"arguments,omitempty"`
	Approval  *agent.PendingApproval `json:"approval,omitempty"`
	State     string                 `json:"state,omitempty"` // terminal state for done events
	Error     string                 `json:"error,omitempty"`
	Done      bool                   `json:"done,omitempty"`
}

// RunStreamRequest is the bidirectional stream payload for Connect RPC.
// The first message must contain the Run payload; subsequent messages can
// carry control signals.
type RunStreamRequest struct {
	Run       *RunRequest `json:"run,omitempty"`
	Cancel    bool        `json:"cancel,omitempty"`
	SessionID string      `json:"session_id,omitempty"`
}

// ApprovalDecisionRequest resolves a held sensitive tool call.
type ApprovalDecisionRequest struct {
	ApprovalID string `json:"approval_id"`
	Decision   string `json:"decision"` // approve or reject
}

// ApprovalDecisionResponse reports the effect of a decision.
type ApprovalDecisionResponse struct {
	ApprovalID string `json:"approval_id"`
	Decision   string `json:"decision"`
	Result     string `json:"result,omitempty"`
}
