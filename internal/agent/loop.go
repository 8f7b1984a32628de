package agent

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/4ug-aug/presentor/internal/config"
	"github.com/4ug-aug/presentor/internal/llm"
	"github.com/4ug-aug/presentor/internal/tools"
)

const defaultMaxTurns = 24

// Loop drives the model/tool conversation for a single run. A run ends in
// exactly one of four states: the model answered without tool calls
// (completed), a sensitive tool call suspended the turn (approval pending),
// the context was cancelled, or the turn cap was hit.
type Loop struct {
	registry *llm.Registry
	tools    *tools.Registry
	exec     *tools.Executor
	cfg      config.AgentConfig
	log      *zap.Logger
}

// NewLoop creates a loop over the given model registry and tool set.
func NewLoop(registry *llm.Registry, toolReg *tools.Registry, exec *tools.Executor, cfg config.AgentConfig, log *zap.Logger) *Loop {
	if log == nil {
		log = zap.NewNop()
	}
	return &Loop{registry: registry, tools: toolReg, exec: exec, cfg: cfg, log: log}
}

// Run executes one agent run to a terminal outcome. Cancellation is an
// outcome, not an error; only model invocation failures return an error.
func (l *Loop) Run(ctx context.Context, req Request, sink StepSink) (Outcome, error) {
	if strings.TrimSpace(req.Instruction) == "" {
		return Outcome{}, fmt.Errorf("instruction is required")
	}

	provider, route, err := l.registry.Resolve(req.Model)
	if err != nil {
		return Outcome{}, err
	}

	system := buildSystemPrompt(req.Context)
	history := []llm.ChatMessage{
		{Role: llm.RoleUser, Content: req.Instruction},
	}

	for turn := 0; turn < l.maxTurns(); turn++ {
		if ctx.Err() != nil {
			l.log.Info("run cancelled before model call", zap.String("session", req.SessionID), zap.Int("turn", turn))
			return Outcome{State: StateCancelled}, nil
		}

		messages := make([]llm.ChatMessage, 0, len(history)+1)
		messages = append(messages, llm.ChatMessage{Role: llm.RoleSystem, Content: system})
		for _, m := range history {
			if m.Role == llm.RoleSystem {
				continue
			}
			messages = append(messages, m)
		}

		resp, err := provider.Chat(ctx, llm.ChatRequest{
			Model:       route.Model,
			Messages:    messages,
			Tools:       l.tools.Definitions(),
			MaxTokens:   pickMaxTokens(l.cfg.MaxTokens, route.MaxTokens),
			Temperature: pickTemperature(l.cfg.Temperature, route.Temperature),
		})
		if err != nil {
			if ctx.Err() != nil {
				return Outcome{State: StateCancelled}, nil
			}
			return Outcome{}, fmt.Errorf("model invocation: %w", err)
		}

		calls := resp.Message.ToolCalls
		if len(calls) == 0 {
			return Outcome{State: StateCompleted, FinalText: resp.Message.Content}, nil
		}

		if resp.Message.Content != "" {
			emit(sink, Step{Kind: StepThinking, Text: resp.Message.Content})
		}

		if pending := firstSensitive(l.tools, calls); pending != nil {
			l.log.Info("run suspended on sensitive tool",
				zap.String("session", req.SessionID),
				zap.String("tool", pending.ToolName),
				zap.String("approval_id", pending.ID))
			return Outcome{State: StateApprovalPending, Pending: pending}, nil
		}

		history = append(history, resp.Message)
		for _, call := range calls {
			if ctx.Err() != nil {
				return Outcome{State: StateCancelled}, nil
			}
			args := decodeArguments(call.Function.Arguments)
			emit(sink, Step{Kind: StepToolCall, ToolName: call.Function.Name, Arguments: args})
			result := l.exec.Execute(ctx, call.Function.Name, args)
			emit(sink, Step{Kind: StepToolResult, ToolName: call.Function.Name, Text: result})
			history = append(history, llm.ChatMessage{
				Role:       llm.RoleTool,
				Content:    result,
				Name:       call.Function.Name,
				ToolCallID: call.ID,
			})
		}
	}

	l.log.Warn("run exceeded turn cap", zap.String("session", req.SessionID), zap.Int("max_turns", l.maxTurns()))
	return Outcome{
		State:     StateTurnLimit,
		FinalText: fmt.Sprintf("Stopped after %d turns without the model finishing. Please retry with a narrower instruction.", l.maxTurns()),
	}, nil
}

// Approve executes a previously held sensitive call and returns its textual
// result. Only the held call runs; the rest of the suspended turn stays
// discarded.
func (l *Loop) Approve(ctx context.Context, pending PendingApproval) string {
	l.log.Info("approval granted", zap.String("approval_id", pending.ID), zap.String("tool", pending.ToolName))
	return l.exec.Execute(ctx, pending.ToolName, pending.Arguments)
}

// Reject discards a held call without any side effect.
func (l *Loop) Reject(pending PendingApproval) {
	l.log.Info("approval rejected", zap.String("approval_id", pending.ID), zap.String("tool", pending.ToolName))
}

func (l *Loop) maxTurns() int {
	if l.cfg.MaxTurns > 0 {
		return l.cfg.MaxTurns
	}
	return defaultMaxTurns
}

func pickTemperature(agentTemp float64, routeTemp float64) float64 {
	if agentTemp > 0 {
		return agentTemp
	}
	if routeTemp > 0 {
		return routeTemp
	}
	return 0.2
}

func pickMaxTokens(agentMax int, routeMax int) int {
	if agentMax > 0 {
		return agentMax
	}
	if routeMax > 0 {
		return routeMax
	}
	return 0
}
