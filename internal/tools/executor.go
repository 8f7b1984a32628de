package tools

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// Executor dispatches validated tool calls against the registry. Execution
// never returns an error: failures are folded into the textual result so the
// model can read them and recover.
type Executor struct {
	reg *Registry
	log *zap.Logger
}

// NewExecutor wires an executor over the registry.
func NewExecutor(reg *Registry, log *zap.Logger) *Executor {
	if log == nil {
		log = zap.NewNop()
	}
	return &Executor{reg: reg, log: log}
}

// Execute runs a single tool call and returns its textual result.
func (e *Executor) Execute(ctx context.Context, name string, args map[string]interface{}) string {
	if _, ok := e.reg.Schema(name); !ok {
		e.log.Warn("unknown tool requested", zap.String("tool", name))
		return fmt.Sprintf("Unknown tool: %s", name)
	}
	if err := ValidateCall(e.reg, name, args); err != nil {
		return fmt.Sprintf("Error executing tool: %v", err)
	}

	result, err := e.dispatch(ctx, name, args)
	if err != nil {
		e.log.Warn("tool execution failed", zap.String("tool", name), zap.Error(err))
		return fmt.Sprintf("Error executing tool: %v", err)
	}
	e.log.Debug("tool executed", zap.String("tool", name))
	return result
}

func (e *Executor) dispatch(_ context.Context, name string, args map[string]interface{}) (string, error) {
	switch name {
	case "create_slide":
		html, _ := args["html"].(string)
		var notes string
		if n, ok := args["notes"].(string); ok {
			notes = n
		}
		idx := e.reg.Deck.CreateSlide(html, notes)
		return fmt.Sprintf("Created slide at index %d. The presentation now has %d slides.", idx, e.reg.Deck.Len()), nil

	case "update_slide":
		idx, _ := intArg(args, "slide_index")
		html, _ := args["html"].(string)
		var notes *string
		if n, ok := args["notes"].(string); ok {
			notes = &n
		}
		if err := e.reg.Deck.UpdateSlide(idx, html, notes); err != nil {
			return "", err
		}
		return fmt.Sprintf("Updated slide at index %d.", idx), nil

	case "delete_slide":
		idx, _ := intArg(args, "slide_index")
		if err := e.reg.Deck.DeleteSlide(idx); err != nil {
			return "", err
		}
		return fmt.Sprintf("Deleted slide at index %d. The presentation now has %d slides.", idx, e.reg.Deck.Len()), nil

	case "get_slide_info":
		if idx, ok := intArg(args, "slide_index"); ok {
			slide, err := e.reg.Deck.Slide(idx)
			if err != nil {
				return "", err
			}
			info := map[string]interface{}{
				"slide_index": idx,
				"html":        slide.HTML,
				"notes":       slide.Notes,
			}
			// The model edits the markup it reads back, so the HTML must
			// round-trip verbatim rather than as unicode-escaped angle brackets.
			var buf bytes.Buffer
			enc := json.NewEncoder(&buf)
			enc.SetEscapeHTML(false)
			enc.SetIndent("", "  ")
			if err := enc.Encode(info); err != nil {
				return "", err
			}
			return strings.TrimRight(buf.String(), "\n"), nil
		}
		snap := e.reg.Deck.Snapshot()
		var b strings.Builder
		fmt.Fprintf(&b, "Presentation %q has %d slides.\n", snap.Title, len(snap.Slides))
		for i, s := range snap.Slides {
			fmt.Fprintf(&b, "Slide %d: %d characters of HTML", i, len(s.HTML))
			if s.Notes != "" {
				b.WriteString(", has speaker notes")
			}
			b.WriteString("\n")
		}
		return b.String(), nil

	case "list_available_images":
		entries, err := e.reg.Assets.List()
		if err != nil {
			return "", err
		}
		if len(entries) == 0 {
			return "No images available. Ask the user to upload images before referencing them.", nil
		}
		var b strings.Builder
		b.WriteString("Available images:\n")
		for _, entry := range entries {
			fmt.Fprintf(&b, "- %s (reference as %s)\n", entry.Name, entry.ReferenceURL)
		}
		return b.String(), nil

	default:
		return "", fmt.Errorf("unknown tool %q", name)
	}
}
