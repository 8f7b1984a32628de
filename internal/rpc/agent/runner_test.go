package agent

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	coreagent "github.com/4ug-aug/presentor/internal/agent"
	"github.com/4ug-aug/presentor/internal/assets"
	"github.com/4ug-aug/presentor/internal/config"
	"github.com/4ug-aug/presentor/internal/deck"
	"github.com/4ug-aug/presentor/internal/llm"
	"github.com/4ug-aug/presentor/internal/llm/mock"
	"github.com/4ug-aug/presentor/internal/rpc"
	"github.com/4ug-aug/presentor/internal/tools"
	"github.com/4ug-aug/presentor/internal/transcript"
)

func newTestRunner(t *testing.T, provider llm.Provider) (*AgentRunner, *deck.Document, *transcript.DB) {
	t.Helper()
	registry := llm.NewRegistry()
	registry.RegisterProvider("mock", provider)
	registry.RegisterModel("default", llm.ModelRoute{Provider: "mock", Model: "mock-model"}, true)

	doc := deck.NewDocument(deck.Presentation{Title: "Runner Deck"})
	store := assets.NewStore(filepath.Join(t.TempDir(), "images"), "/images")
	toolReg := tools.NewRegistry(doc, store)
	exec := tools.NewExecutor(toolReg, nil)
	loop := coreagent.NewLoop(registry, toolReg, exec, config.AgentConfig{MaxTurns: 8}, nil)

	db, err := transcript.Open(context.Background(), filepath.Join(t.TempDir(), "presentor.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	return &AgentRunner{
		Loop:       loop,
		Approvals:  NewApprovals(),
		Transcript: db,
	}, doc, db
}

func scriptedToolRun() *mock.Provider {
	return mock.Scripted(
		llm.ChatResponse{Message: llm.ChatMessage{
			Role:    llm.RoleAssistant,
			Content: "Adding a slide.",
			ToolCalls: []llm.ToolCall{{
				ID:   "c1",
				Type: "function",
				Function: llm.ToolFunctionCall{
					Name:      "create_slide",
					Arguments: json.RawMessage(`{"html":"<h1>Hi</h1>"}`),
				},
			}},
		}, FinishReason: "tool_calls"},
		llm.ChatResponse{Message: llm.ChatMessage{Role: llm.RoleAssistant, Content: "Done."}, FinishReason: "stop"},
	)
}

func reqFor(sessionID, instruction string) rpc.RunRequest {
	return rpc.RunRequest{SessionID: sessionID, Instruction: instruction}
}

func drain(t *testing.T, events <-chan rpc.RunEvent) {
	t.Helper()
	for range events {
	}
}

func TestRunnerStreamsRunEvents(t *testing.T) {
	runner, doc, db := newTestRunner(t, scriptedToolRun())

	httpReq := httptest.NewRequest(http.MethodPost, "/agent/run", nil)
	events, err := runner.Run(httpReq, reqFor("s1", "add a slide"))
	require.NoError(t, err)

	var types []string
	for ev := range events {
		types = append(types, ev.Type)
	}
	require.Equal(t, []string{"thinking", "tool_call", "tool_result", "done"}, types)
	require.Equal(t, 1, doc.Len())

	msgs, err := db.SessionMessages(context.Background(), "s1")
	require.NoError(t, err)
	require.GreaterOrEqual(t, len(msgs), 4, "user, assistant turns, tool result, final text")
	require.Equal(t, "user", msgs[0].Role)
	require.Equal(t, "add a slide", msgs[0].Content)
	last := msgs[len(msgs)-1]
	require.Equal(t, "assistant", last.Role)
	require.Equal(t, "Done.", last.Content)
}

func TestRunnerHoldsApprovalAndStops(t *testing.T) {
	provider := mock.Scripted(llm.ChatResponse{Message: llm.ChatMessage{
		Role: llm.RoleAssistant,
		ToolCalls: []llm.ToolCall{{
			ID:   "c1",
			Type: "function",
			Function: llm.ToolFunctionCall{
				Name:      "delete_slide",
				Arguments: json.RawMessage(`{"slide_index":0}`),
			},
		}},
	}, FinishReason: "tool_calls"})
	runner, doc, db := newTestRunner(t, provider)
	doc.CreateSlide("<h1>Keep</h1>", "")

	httpReq := httptest.NewRequest(http.MethodPost, "/agent/run", nil)
	events, err := runner.Run(httpReq, reqFor("s1", "delete the first slide"))
	require.NoError(t, err)

	var approvalEvent *string
	for ev := range events {
		if ev.Type == "approval_required" {
			require.NotNil(t, ev.Approval)
			require.Equal(t, "delete_slide", ev.Approval.ToolName)
			id := ev.Approval.ID
			approvalEvent = &id
		}
	}
	require.NotNil(t, approvalEvent, "expected approval_required event")
	require.Equal(t, 1, doc.Len(), "held call must not execute")
	require.Equal(t, 1, runner.Approvals.Pending())

	audits, err := db.SessionApprovals(context.Background(), "s1")
	require.NoError(t, err)
	require.Len(t, audits, 1)
	require.Equal(t, "pending", audits[0].Decision)
}

func TestRunnerRefusesConcurrentRunPerSession(t *testing.T) {
	release := make(chan struct{})
	provider := &mock.Provider{ChatFn: func(ctx context.Context, req llm.ChatRequest) (llm.ChatResponse, error) {
		<-release
		return llm.ChatResponse{Message: llm.ChatMessage{Role: llm.RoleAssistant, Content: "ok"}}, nil
	}}
	runner, _, _ := newTestRunner(t, provider)

	httpReq := httptest.NewRequest(http.MethodPost, "/agent/run", nil)
	events, err := runner.Run(httpReq, reqFor("busy", "first"))
	require.NoError(t, err)

	_, err = runner.Run(httpReq, reqFor("busy", "second"))
	require.Error(t, err)
	require.Contains(t, err.Error(), "active run")

	// a different session is unaffected
	otherEvents, err := runner.Run(httpReq, reqFor("idle", "other"))
	require.NoError(t, err)

	close(release)
	drain(t, events)
	drain(t, otherEvents)

	// the session frees up once its run ends
	require.Eventually(t, func() bool {
		ev, err := runner.Run(httpReq, reqFor("busy", "third"))
		if err != nil {
			return false
		}
		drain(t, ev)
		return true
	}, 2*time.Second, 10*time.Millisecond)
}

func TestApproveHandlerExecutesHeldCall(t *testing.T) {
	provider := mock.Scripted(llm.ChatResponse{Message: llm.ChatMessage{
		Role: llm.RoleAssistant,
		ToolCalls: []llm.ToolCall{{
			ID:   "c1",
			Type: "function",
			Function: llm.ToolFunctionCall{
				Name:      "delete_slide",
				Arguments: json.RawMessage(`{"slide_index":0}`),
			},
		}},
	}, FinishReason: "tool_calls"})
	runner, doc, db := newTestRunner(t, provider)
	doc.CreateSlide("<h1>Old</h1>", "")

	httpReq := httptest.NewRequest(http.MethodPost, "/agent/run", nil)
	events, err := runner.Run(httpReq, reqFor("s1", "delete the slide"))
	require.NoError(t, err)

	var approvalID string
	for ev := range events {
		if ev.Type == "approval_required" {
			approvalID = ev.Approval.ID
		}
	}
	require.NotEmpty(t, approvalID)

	handler := &ApproveHandler{
		Loop:       runner.Loop,
		Approvals:  runner.Approvals,
		Transcript: db,
	}

	body := strings.NewReader(`{"approval_id":"` + approvalID + `","decision":"approve"}`)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/agent/approve", body))
	require.Equal(t, http.StatusOK, rr.Code)

	var resp map[string]string
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &resp))
	require.Contains(t, resp["result"], "Deleted slide at index 0")
	require.Equal(t, 0, doc.Len())

	audits, err := db.SessionApprovals(context.Background(), "s1")
	require.NoError(t, err)
	require.Equal(t, "approved", audits[0].Decision)

	// decisions resolve exactly once
	rr = httptest.NewRecorder()
	body = strings.NewReader(`{"approval_id":"` + approvalID + `","decision":"approve"}`)
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/agent/approve", body))
	require.Equal(t, http.StatusNotFound, rr.Code)
}

func TestApproveHandlerReject(t *testing.T) {
	provider := mock.Scripted(llm.ChatResponse{Message: llm.ChatMessage{
		Role: llm.RoleAssistant,
		ToolCalls: []llm.ToolCall{{
			ID:   "c1",
			Type: "function",
			Function: llm.ToolFunctionCall{
				Name:      "delete_slide",
				Arguments: json.RawMessage(`{"slide_index":0}`),
			},
		}},
	}, FinishReason: "tool_calls"})
	runner, doc, db := newTestRunner(t, provider)
	doc.CreateSlide("<h1>Keep</h1>", "")

	httpReq := httptest.NewRequest(http.MethodPost, "/agent/run", nil)
	events, err := runner.Run(httpReq, reqFor("s1", "delete the slide"))
	require.NoError(t, err)

	var approvalID string
	for ev := range events {
		if ev.Type == "approval_required" {
			approvalID = ev.Approval.ID
		}
	}

	handler := &ApproveHandler{Loop: runner.Loop, Approvals: runner.Approvals, Transcript: db}
	body := strings.NewReader(`{"approval_id":"` + approvalID + `","decision":"reject"}`)
	rr := httptest.NewRecorder()
	handler.ServeHTTP(rr, httptest.NewRequest(http.MethodPost, "/agent/approve", body))
	require.Equal(t, http.StatusOK, rr.Code)
	require.Equal(t, 1, doc.Len(), "rejected call must not mutate the deck")

	audits, err := db.SessionApprovals(context.Background(), "s1")
	require.NoError(t, err)
	require.Equal(t, "rejected", audits[0].Decision)
}
