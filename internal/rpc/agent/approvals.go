package agent

import (
	"sync"

	"github.com/4ug-aug/presentor/internal/agent"
)

// HeldApproval pairs a suspended sensitive call with its session.
type HeldApproval struct {
	SessionID string
	Pending   agent.PendingApproval
}

// Approvals holds suspended sensitive calls between a run's suspension and
// the user's decision. Each entry resolves exactly once.
type Approvals struct {
	mu   sync.Mutex
	held map[string]HeldApproval
}

// NewApprovals constructs an empty approval holder.
func NewApprovals() *Approvals {
	return &Approvals{held: make(map[string]HeldApproval)}
}

// Hold registers a suspended call under its approval id.
func (a *Approvals) Hold(sessionID string, pending agent.PendingApproval) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.held[pending.ID] = HeldApproval{SessionID: sessionID, Pending: pending}
}

// Take removes and returns a held call by approval id.
func (a *Approvals) Take(id string) (HeldApproval, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	h, ok := a.held[id]
	if ok {
		delete(a.held, id)
	}
	return h, ok
}

// Pending reports how many calls are currently held.
func (a *Approvals) Pending() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.held)
}
