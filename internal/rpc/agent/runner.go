package agent

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/4ug-aug/presentor/internal/agent"
	"github.com/4ug-aug/presentor/internal/observability"
	"github.com/4ug-aug/presentor/internal/rpc"
	"github.com/4ug-aug/presentor/internal/transcript"
)

// AgentRunner bridges the agent loop to RPC events. One run per session at a
// time; a second concurrent run for the same session is refused.
type AgentRunner struct {
	Loop       *agent.Loop
	Approvals  *Approvals
	Transcript *transcript.DB
	Metrics    *observability.Metrics
	Logger     *zap.Logger

	mu     sync.Mutex
	active map[string]struct{}
}

// Run starts a run and returns its event stream. The stream closes when the
// run reaches a terminal state.
func (r *AgentRunner) Run(reqCtx *http.Request, req rpc.RunRequest) (<-chan rpc.RunEvent, error) {
	if r.Loop == nil {
		return nil, fmt.Errorf("agent loop unavailable")
	}
	if err := r.acquire(req.SessionID); err != nil {
		return nil, err
	}

	out := make(chan rpc.RunEvent, 16)
	go func() {
		defer close(out)
		defer r.release(req.SessionID)

		ctx := reqCtx.Context()
		start := time.Now()
		r.record(ctx, req.SessionID, "user", req.Instruction, req.Model, "", "")

		sink := agent.SinkFunc(func(step agent.Step) {
			switch step.Kind {
			case agent.StepThinking:
				r.record(ctx, req.SessionID, "assistant", step.Text, req.Model, "", "")
				out <- rpc.RunEvent{Type: "thinking", SessionID: req.SessionID, Message: step.Text}
			case agent.StepToolCall:
				callJSON, _ := json.Marshal(map[string]interface{}{"name": step.ToolName, "arguments": step.Arguments})
				r.record(ctx, req.SessionID, "assistant", "", req.Model, string(callJSON), "")
				out <- rpc.RunEvent{Type: "tool_call", SessionID: req.SessionID, ToolName: step.ToolName, Arguments: step.Arguments}
			case agent.StepToolResult:
				r.record(ctx, req.SessionID, "tool", step.Text, "", "", "")
				r.recordToolMetric(step.ToolName, step.Text)
				out <- rpc.RunEvent{Type: "tool_result", SessionID: req.SessionID, ToolName: step.ToolName, Message: step.Text}
			}
		})

		outcome, err := r.Loop.Run(ctx, agent.Request{
			SessionID:   req.SessionID,
			Model:       req.Model,
			Instruction: req.Instruction,
			Context:     req.Context,
		}, sink)
		if err != nil {
			r.logf("run failed: session=%s err=%v", req.SessionID, err)
			if r.Metrics != nil {
				r.Metrics.RecordAgentRun("error", time.Since(start))
			}
			out <- rpc.RunEvent{Type: "error", SessionID: req.SessionID, Error: err.Error()}
			return
		}

		if r.Metrics != nil {
			r.Metrics.RecordAgentRun(string(outcome.State), time.Since(start))
		}

		if outcome.State == agent.StateApprovalPending {
			pending := *outcome.Pending
			if r.Approvals != nil {
				r.Approvals.Hold(req.SessionID, pending)
			}
			if r.Transcript != nil {
				args, _ := json.Marshal(pending.Arguments)
				if err := r.Transcript.InsertApproval(ctx, pending.ID, req.SessionID, pending.ToolName, string(args)); err != nil {
					r.logf("record approval: session=%s err=%v", req.SessionID, err)
				}
			}
			out <- rpc.RunEvent{
				Type:      "approval_required",
				SessionID: req.SessionID,
				ToolName:  pending.ToolName,
				Arguments: pending.Arguments,
				Approval:  &pending,
			}
			return
		}

		if outcome.FinalText != "" {
			r.record(ctx, req.SessionID, "assistant", outcome.FinalText, req.Model, "", "")
		}
		out <- rpc.RunEvent{
			Type:      "done",
			SessionID: req.SessionID,
			Message:   outcome.FinalText,
			State:     string(outcome.State),
			Done:      true,
		}
	}()
	return out, nil
}

func (r *AgentRunner) acquire(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.active == nil {
		r.active = make(map[string]struct{})
	}
	if _, busy := r.active[sessionID]; busy {
		return fmt.Errorf("session %q already has an active run", sessionID)
	}
	r.active[sessionID] = struct{}{}
	return nil
}

func (r *AgentRunner) release(sessionID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.active, sessionID)
}

func (r *AgentRunner) record(ctx context.Context, sessionID, role, content, model, toolCalls, toolCallID string) {
	if r.Transcript == nil {
		return
	}
	if _, err := r.Transcript.InsertMessage(ctx, sessionID, role, content, model, toolCalls, toolCallID); err != nil {
		r.logf("record transcript: session=%s role=%s err=%v", sessionID, role, err)
	}
}

func (r *AgentRunner) recordToolMetric(tool, result string) {
	if r.Metrics == nil {
		return
	}
	status := "success"
	if strings.HasPrefix(result, "Error executing tool:") || strings.HasPrefix(result, "Unknown tool:") {
		status = "error"
	}
	r.Metrics.RecordToolExecution(tool, status)
}

func (r *AgentRunner) logf(format string, args ...interface{}) {
	if r == nil || r.Logger == nil {
		return
	}
	r.Logger.Sugar().Infof(format, args...)
}

// EchoRunner is a fallback runner that echoes the instruction back.
type EchoRunner struct{}

func (EchoRunner) Run(reqCtx *http.Request, req rpc.RunRequest) (<-chan rpc.RunEvent, error) {
	return runEcho(req), nil
}

func runEcho(req rpc.RunRequest) <-chan rpc.RunEvent {
	out := make(chan rpc.RunEvent, 4)
	go func() {
		defer close(out)
		out <- rpc.RunEvent{Type: "thinking", SessionID: req.SessionID, Message: "echo: " + req.Instruction}
		out <- rpc.RunEvent{Type: "done", SessionID: req.SessionID, Message: req.Instruction, State: "completed", Done: true}
	}()
	return out
}
