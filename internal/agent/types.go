package agent

// EditorContext is a snapshot of what the user currently sees in the editor.
// It is rendered once into the system prompt at the start of a run and never
// refreshed mid-run; tools report the live state.
type EditorContext struct {
	PresentationTitle string `json:"presentation_title"`
	TotalSlides       int    `json:"total_slides"`
	CurrentSlideIndex int    `json:"current_slide_index"`
	CurrentSlideHTML  string `json:"current_slide_html"`
	CurrentSlideNotes string `json:"current_slide_notes,omitempty"`
}

// Request is a single agent run invocation.
type Request struct {
	SessionID   string
	Model       string
	Instruction string
	Context     *EditorContext
}

// PendingApproval holds a sensitive tool call awaiting a user decision.
// At most one exists per run.
type PendingApproval struct {
	ID         string                 `json:"id"`
	ToolName   string                 `json:"tool_name"`
	Arguments  map[string]interface{} `json:"arguments"`
	ToolCallID string                 `json:"-"`
}

// State is the terminal state of a run.
type State string

const (
	StateCompleted       State = "completed"
	StateApprovalPending State = "approval_pending"
	StateCancelled       State = "cancelled"
	StateTurnLimit       State = "turn_limit"
)

// Outcome describes how a run ended. Pending is set only for
// StateApprovalPending.
type Outcome struct {
	State     State
	FinalText string
	Pending   *PendingApproval
}
