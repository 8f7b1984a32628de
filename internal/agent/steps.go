package agent

// StepKind identifies the kind of a streamed step.
type StepKind string

const (
	StepThinking   StepKind = "thinking"
	StepToolCall   StepKind = "tool_call"
	StepToolResult StepKind = "tool_result"
)

// Step is one observable event of a run, emitted as it happens so the caller
// can render progress before the run finishes.
type Step struct {
	Kind      StepKind
	Text      string
	ToolName  string
	Arguments map[string]interface{}
}

// StepSink receives steps during a run. Emit is called from the run's
// goroutine; a nil sink discards steps.
type StepSink interface {
	Emit(Step)
}

// SinkFunc adapts a function to a StepSink.
type SinkFunc func(Step)

// Emit implements StepSink.
func (f SinkFunc) Emit(s Step) { f(s) }

func emit(sink StepSink, s Step) {
	if sink != nil {
		sink.Emit(s)
	}
}
