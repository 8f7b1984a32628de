package deck

import (
	"fmt"
	"sync"
)

// Slide is a single slide: rendered HTML plus optional speaker notes.
type Slide struct {
	HTML  string `json:"html"`
	Notes string `json:"notes,omitempty"`
}

// Presentation is an ordered list of slides with a title.
type Presentation struct {
	Title  string  `json:"title"`
	Slides []Slide `json:"slides"`
}

// Document is the single open presentation. Mutations are index-addressed and
// applied atomically under a lock; sequential tool calls within one agent turn
// rely on each mutation being visible to the next.
type Document struct {
	mu   sync.Mutex
	pres Presentation
}

// NewDocument wraps a presentation as the open document.
func NewDocument(p Presentation) *Document {
	return &Document{pres: p}
}

// Replace swaps in a different presentation (e.g. after loading from disk).
func (d *Document) Replace(p Presentation) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.pres = p
}

// Snapshot returns a deep copy of the current presentation.
func (d *Document) Snapshot() Presentation {
	d.mu.Lock()
	defer d.mu.Unlock()

	out := Presentation{Title: d.pres.Title}
	out.Slides = append([]Slide(nil), d.pres.Slides...)
	return out
}

// Len returns the slide count.
func (d *Document) Len() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.pres.Slides)
}

// Title returns the presentation title.
func (d *Document) Title() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.pres.Title
}

// CreateSlide appends a slide and returns its zero-based index.
func (d *Document) CreateSlide(html, notes string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.pres.Slides = append(d.pres.Slides, Slide{HTML: html, Notes: notes})
	return len(d.pres.Slides) - 1
}

// UpdateSlide replaces the HTML of the slide at index. A nil notes pointer
// keeps the existing notes; a non-nil one replaces them.
func (d *Document) UpdateSlide(index int, html string, notes *string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if index < 0 || index >= len(d.pres.Slides) {
		return fmt.Errorf("slide index %d out of range (0-%d)", index, len(d.pres.Slides)-1)
	}
	d.pres.Slides[index].HTML = html
	if notes != nil {
		d.pres.Slides[index].Notes = *notes
	}
	return nil
}

// DeleteSlide removes the slide at index, shifting later slides down.
func (d *Document) DeleteSlide(index int) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if index < 0 || index >= len(d.pres.Slides) {
		return fmt.Errorf("slide index %d out of range (0-%d)", index, len(d.pres.Slides)-1)
	}
	d.pres.Slides = append(d.pres.Slides[:index], d.pres.Slides[index+1:]...)
	return nil
}

// Slide returns a copy of the slide at index.
func (d *Document) Slide(index int) (Slide, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if index < 0 || index >= len(d.pres.Slides) {
		return Slide{}, fmt.Errorf("slide index %d out of range (0-%d)", index, len(d.pres.Slides)-1)
	}
	return d.pres.Slides[index], nil
}
