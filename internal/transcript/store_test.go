package transcript

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(context.Background(), filepath.Join(t.TempDir(), "presentor.db"))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })
	return db
}

func TestMessageRoundTrip(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	_, err := db.InsertMessage(ctx, "s1", "user", "add a slide", "", "", "")
	require.NoError(t, err)
	_, err = db.InsertMessage(ctx, "s1", "assistant", "", "gpt-4o", `[{"id":"c1"}]`, "")
	require.NoError(t, err)
	_, err = db.InsertMessage(ctx, "s1", "tool", "Created slide at index 0.", "", "", "c1")
	require.NoError(t, err)
	_, err = db.InsertMessage(ctx, "s2", "user", "unrelated", "", "", "")
	require.NoError(t, err)

	msgs, err := db.SessionMessages(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, msgs, 3)
	require.Equal(t, "user", msgs[0].Role)
	require.Equal(t, `[{"id":"c1"}]`, msgs[1].ToolCalls)
	require.Equal(t, "c1", msgs[2].ToolCallID)
}

func TestApprovalLifecycle(t *testing.T) {
	db := openTestDB(t)
	ctx := context.Background()

	require.NoError(t, db.InsertApproval(ctx, "ap-1", "s1", "delete_slide", `{"slide_index":2}`))

	approvals, err := db.SessionApprovals(ctx, "s1")
	require.NoError(t, err)
	require.Len(t, approvals, 1)
	require.Equal(t, "pending", approvals[0].Decision)

	require.NoError(t, db.ResolveApproval(ctx, "ap-1", "approved", "Deleted slide at index 2."))
	approvals, err = db.SessionApprovals(ctx, "s1")
	require.NoError(t, err)
	require.Equal(t, "approved", approvals[0].Decision)
	require.Equal(t, "Deleted slide at index 2.", approvals[0].Result)

	require.Error(t, db.ResolveApproval(ctx, "ap-missing", "rejected", ""))
}
