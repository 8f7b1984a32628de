package transcript

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	_ "modernc.org/sqlite"
)

// Message is one persisted transcript row.
type Message struct {
	ID         int64     `json:"id"`
	SessionID  string    `json:"session_id"`
	Role       string    `json:"role"`
	Content    string    `json:"content"`
	Model      string    `json:"model,omitempty"`
	ToolCalls  string    `json:"tool_calls,omitempty"` // JSON
	ToolCallID string    `json:"tool_call_id,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Approval is one persisted approval audit row.
type Approval struct {
	ID        string    `json:"id"`
	SessionID string    `json:"session_id"`
	ToolName  string    `json:"tool_name"`
	Arguments string    `json:"arguments"` // JSON
	Decision  string    `json:"decision"`  // pending, approved, rejected
	Result    string    `json:"result,omitempty"`
	CreatedAt time.Time `json:"created_at"`
}

// DB wraps *sql.DB for transcript storage. Schema is owned by the app.
type DB struct {
	*sql.DB
}

// Open opens the SQLite database at path and applies the schema. Creates the
// file if missing.
func Open(ctx context.Context, path string) (*DB, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open transcript db: %w", err)
	}
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping transcript db: %w", err)
	}
	if _, err := db.ExecContext(ctx, schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("apply transcript schema: %w", err)
	}
	return &DB{db}, nil
}

// Close closes the database.
func (db *DB) Close() error {
	return db.DB.Close()
}

// InsertMessage records a transcript row and returns its id.
func (db *DB) InsertMessage(ctx context.Context, sessionID, role, content, model, toolCalls, toolCallID string) (int64, error) {
	res, err := db.ExecContext(ctx,
		`INSERT INTO messages (session_id, role, content, model, tool_calls, tool_call_id) VALUES (?, ?, ?, ?, ?, ?)`,
		sessionID, role, content, model, toolCalls, toolCallID,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

// SessionMessages returns a session's transcript in chronological order.
func (db *DB) SessionMessages(ctx context.Context, sessionID string) ([]Message, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, session_id, role, content, model, tool_calls, tool_call_id, created_at
		 FROM messages WHERE session_id = ? ORDER BY created_at ASC, id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Message
	for rows.Next() {
		var m Message
		var model, toolCalls, toolCallID sql.NullString
		if err := rows.Scan(&m.ID, &m.SessionID, &m.Role, &m.Content, &model, &toolCalls, &toolCallID, &m.CreatedAt); err != nil {
			return nil, err
		}
		m.Model = model.String
		m.ToolCalls = toolCalls.String
		m.ToolCallID = toolCallID.String
		out = append(out, m)
	}
	return out, rows.Err()
}

// InsertApproval records a held sensitive call in pending state.
func (db *DB) InsertApproval(ctx context.Context, id, sessionID, toolName, arguments string) error {
	_, err := db.ExecContext(ctx,
		`INSERT INTO approvals (id, session_id, tool_name, arguments) VALUES (?, ?, ?, ?)`,
		id, sessionID, toolName, arguments,
	)
	return err
}

// ResolveApproval stores the user's decision and the execution result, if any.
func (db *DB) ResolveApproval(ctx context.Context, id, decision, result string) error {
	res, err := db.ExecContext(ctx,
		`UPDATE approvals SET decision = ?, result = ? WHERE id = ?`,
		decision, result, id,
	)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("approval %q not found", id)
	}
	return nil
}

// SessionApprovals returns a session's approval audit trail in order.
func (db *DB) SessionApprovals(ctx context.Context, sessionID string) ([]Approval, error) {
	rows, err := db.QueryContext(ctx,
		`SELECT id, session_id, tool_name, arguments, decision, result, created_at
		 FROM approvals WHERE session_id = ? ORDER BY created_at ASC, id ASC`, sessionID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var out []Approval
	for rows.Next() {
		var a Approval
		var result sql.NullString
		if err := rows.Scan(&a.ID, &a.SessionID, &a.ToolName, &a.Arguments, &a.Decision, &result, &a.CreatedAt); err != nil {
			return nil, err
		}
		a.Result = result.String
		out = append(out, a)
	}
	return out, rows.Err()
}
