package agent

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	coreagent "github.com/4ug-aug/presentor/internal/agent"
	"github.com/4ug-aug/presentor/internal/observability"
	"github.com/4ug-aug/presentor/internal/rpc"
	"github.com/4ug-aug/presentor/internal/transcript"
)

// ApproveHandler resolves held sensitive calls via POST /agent/approve.
type ApproveHandler struct {
	Loop       *coreagent.Loop
	Approvals  *Approvals
	Transcript *transcript.DB
	Metrics    *observability.Metrics
	Logger     *zap.Logger
}

func (h *ApproveHandler) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		http.Error(w, "method not allowed", http.StatusMethodNotAllowed)
		return
	}

	var req rpc.ApprovalDecisionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid request: "+err.Error(), http.StatusBadRequest)
		return
	}

	decision := strings.ToLower(strings.TrimSpace(req.Decision))
	if decision != "approve" && decision != "reject" {
		http.Error(w, "decision must be approve or reject", http.StatusBadRequest)
		return
	}

	held, ok := h.Approvals.Take(req.ApprovalID)
	if !ok {
		http.Error(w, "approval not found", http.StatusNotFound)
		return
	}

	resp := rpc.ApprovalDecisionResponse{ApprovalID: req.ApprovalID, Decision: decision}
	switch decision {
	case "approve":
		resp.Result = h.Loop.Approve(r.Context(), held.Pending)
		h.resolve(r, req.ApprovalID, "approved", resp.Result)
		if h.Transcript != nil {
			if _, err := h.Transcript.InsertMessage(r.Context(), held.SessionID, "tool", resp.Result, "", "", held.Pending.ToolCallID); err != nil {
				h.logf("record approved result: %v", err)
			}
		}
	case "reject":
		h.Loop.Reject(held.Pending)
		resp.Result = "Tool call cancelled by user."
		h.resolve(r, req.ApprovalID, "rejected", "")
	}

	if h.Metrics != nil {
		h.Metrics.RecordApprovalDecision(decision)
	}

	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(resp); err != nil {
		h.logf("encode approval response: %v", err)
	}
}

func (h *ApproveHandler) resolve(r *http.Request, id, decision, result string) {
	if h.Transcript == nil {
		return
	}
	if err := h.Transcript.ResolveApproval(r.Context(), id, decision, result); err != nil {
		h.logf("resolve approval %s: %v", id, err)
	}
}

func (h *ApproveHandler) logf(format string, args ...interface{}) {
	if h == nil || h.Logger == nil {
		return
	}
	h.Logger.Sugar().Warnf(format, args...)
}
