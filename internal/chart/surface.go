package chart

import (
	"strings"
	"sync"

	"github.com/google/uuid"

	"github.com/bobmcallan/vire-chart/internal/models"
)

// EventType names a pointer event delivered to a Surface
type EventType string

const (
	PointerEnter EventType = "enter"
	PointerMove  EventType = "move"
	PointerLeave EventType = "leave"
)

// PointerEvent is a pointer position in plot coordinates: (0,0) is the top
// left corner of the content area, inside the margins.
type PointerEvent struct {
	Type EventType `json:"type"`
	X    float64   `json:"x"`
	Y    float64   `json:"y"`
}

// Handler reacts to one pointer event
type Handler func(PointerEvent)

// Surface is the mount point a chart draws into, the equivalent of a page
// container element. At most one Renderer owns a surface at a time.
// Dispatch runs each handler to completion under the surface lock, so
// events are processed one at a time even when they arrive from several
// goroutines.
type Surface struct {
	mu       sync.Mutex
	id       string
	root     *Element
	handlers map[EventType]Handler
	owner    *Renderer
}

// NewSurface creates an empty surface
func NewSurface() *Surface {
	return &Surface{
		id:       uuid.NewString(),
		root:     NewElement("div").Set("class", "svgChart"),
		handlers: make(map[EventType]Handler),
	}
}

// ID returns the surface identifier
func (s *Surface) ID() string {
	return s.id
}

// Dispatch delivers ev to the registered handler. It returns false when no
// handler is attached for the event type.
func (s *Surface) Dispatch(ev PointerEvent) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.handlers[ev.Type]
	if !ok {
		return false
	}
	h(ev)
	return true
}

// Empty reports whether nothing is drawn on the surface
func (s *Surface) Empty() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.root.children) == 0
}

// HasHandlers reports whether any pointer handler is attached
func (s *Surface) HasHandlers() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.handlers) > 0
}

// Interact delivers ev like Dispatch and, under the same lock, returns the
// focus of the chart that handled it and the markup of selectors. ok is
// false when no handler is attached.
func (s *Surface) Interact(ev PointerEvent, selectors ...string) (focus models.FocusState, markup string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	h, ok := s.handlers[ev.Type]
	if !ok {
		return models.FocusState{}, "", false
	}
	h(ev)
	if s.owner != nil {
		focus = s.owner.focus
	}
	return focus, s.markupLocked(selectors), true
}

// Markup serialises the surface contents. With selectors it serialises only
// the first match of each selector, skipping selectors that match nothing.
func (s *Surface) Markup(selectors ...string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.markupLocked(selectors)
}

func (s *Surface) markupLocked(selectors []string) string {
	var b strings.Builder
	if len(selectors) == 0 {
		for _, c := range s.root.children {
			b.WriteString(c.String())
		}
		return b.String()
	}
	for _, sel := range selectors {
		if el := s.root.Find(sel); el != nil {
			b.WriteString(el.String())
		}
	}
	return b.String()
}

// Query returns a detached deep copy of the first element matching selector,
// or nil.
func (s *Surface) Query(selector string) *Element {
	s.mu.Lock()
	defer s.mu.Unlock()

	el := s.root.Find(selector)
	if el == nil {
		return nil
	}
	return el.clone()
}

// Count returns how many elements match selector
func (s *Surface) Count(selector string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.root.FindAll(selector))
}

// clearLocked drops all drawn output and handlers; s.mu must be held
func (s *Surface) clearLocked() {
	s.root.Clear()
	s.handlers = make(map[EventType]Handler)
	s.owner = nil
}

func (e *Element) clone() *Element {
	c := &Element{
		Tag:   e.Tag,
		Text:  e.Text,
		attrs: append([]attr(nil), e.attrs...),
	}
	for _, child := range e.children {
		c.Append(child.clone())
	}
	return c
}
