package agent

import (
	"fmt"
	"strings"
)

// buildSystemPrompt returns the base system prompt with the editor context
// rendered in.
func buildSystemPrompt(editor *EditorContext) string {
	base := strings.TrimSpace(`
You are Presentor, a presentation-editing assistant. You help the user build
and refine HTML slides using the provided tools. Keep slides visually clean
and self-contained: each slide is a complete HTML fragment. Reference images
only by the URLs returned from list_available_images. Use the tools to make
changes; answer in plain text when no change is needed. Be concise.`)

	var b strings.Builder
	b.WriteString(base)
	b.WriteString("\n\nCurrent editor state:\n")
	if editor == nil {
		b.WriteString("No presentation is open. Ask the user to open or create one before editing slides.\n")
		return b.String()
	}

	title := editor.PresentationTitle
	if title == "" {
		title = "(untitled)"
	}
	fmt.Fprintf(&b, "Presentation: %s\n", title)
	fmt.Fprintf(&b, "Total slides: %d\n", editor.TotalSlides)
	fmt.Fprintf(&b, "Current slide index: %d\n", editor.CurrentSlideIndex)
	if editor.CurrentSlideHTML != "" {
		fmt.Fprintf(&b, "Current slide HTML:\n%s\n", editor.CurrentSlideHTML)
	}
	if editor.CurrentSlideNotes != "" {
		fmt.Fprintf(&b, "Current slide notes:\n%s\n", editor.CurrentSlideNotes)
	}
	return b.String()
}
