package chart

import (
	"encoding/xml"
	"io"
	"math"
	"strconv"
	"strings"
)

type attr struct {
	name  string
	value string
}

// Element is a node of the retained SVG drawing tree. Attributes keep their
// insertion order so that serialised output is deterministic.
type Element struct {
	Tag      string
	Text     string
	attrs    []attr
	children []*Element
	parent   *Element
}

// NewElement creates a detached element
func NewElement(tag string) *Element {
	return &Element{Tag: tag}
}

// Set assigns an attribute, replacing any existing value
func (e *Element) Set(name, value string) *Element {
	for i := range e.attrs {
		if e.attrs[i].name == name {
			e.attrs[i].value = value
			return e
		}
	}
	e.attrs = append(e.attrs, attr{name: name, value: value})
	return e
}

// SetNum assigns a numeric attribute
func (e *Element) SetNum(name string, v float64) *Element {
	return e.Set(name, num(v))
}

// Unset removes an attribute
func (e *Element) Unset(name string) *Element {
	for i := range e.attrs {
		if e.attrs[i].name == name {
			e.attrs = append(e.attrs[:i], e.attrs[i+1:]...)
			break
		}
	}
	return e
}

// Get returns an attribute value
func (e *Element) Get(name string) (string, bool) {
	for _, a := range e.attrs {
		if a.name == name {
			return a.value, true
		}
	}
	return "", false
}

// SetText replaces the element's text content
func (e *Element) SetText(text string) *Element {
	e.Text = text
	return e
}

// Append adds child as the last child of e and returns child
func (e *Element) Append(child *Element) *Element {
	if child.parent != nil {
		child.Remove()
	}
	child.parent = e
	e.children = append(e.children, child)
	return child
}

// AppendNew creates an element with the given tag and appends it
func (e *Element) AppendNew(tag string) *Element {
	return e.Append(NewElement(tag))
}

// Children returns the element's children
func (e *Element) Children() []*Element {
	return e.children
}

// Parent returns the element's parent, nil when detached
func (e *Element) Parent() *Element {
	return e.parent
}

// Remove detaches e from its parent
func (e *Element) Remove() {
	p := e.parent
	if p == nil {
		return
	}
	for i, c := range p.children {
		if c == e {
			p.children = append(p.children[:i], p.children[i+1:]...)
			break
		}
	}
	e.parent = nil
}

// Clear removes every child of e
func (e *Element) Clear() {
	for _, c := range e.children {
		c.parent = nil
	}
	e.children = nil
}

// HasClass reports whether the class attribute contains name
func (e *Element) HasClass(name string) bool {
	classes, ok := e.Get("class")
	if !ok {
		return false
	}
	for _, c := range strings.Fields(classes) {
		if c == name {
			return true
		}
	}
	return false
}

// Matches reports whether e matches a simple selector: "tag", ".class",
// "#id", "tag.class" or "tag#id".
func (e *Element) Matches(selector string) bool {
	tag, rest := selector, ""
	if i := strings.IndexAny(selector, ".#"); i >= 0 {
		tag, rest = selector[:i], selector[i:]
	}
	if tag != "" && tag != e.Tag {
		return false
	}
	switch {
	case rest == "":
		return tag != ""
	case rest[0] == '.':
		return e.HasClass(rest[1:])
	case rest[0] == '#':
		id, _ := e.Get("id")
		return id == rest[1:]
	}
	return false
}

// Find returns the first descendant matching selector, depth first
func (e *Element) Find(selector string) *Element {
	for _, c := range e.children {
		if c.Matches(selector) {
			return c
		}
		if found := c.Find(selector); found != nil {
			return found
		}
	}
	return nil
}

// FindAll returns every descendant matching selector in document order
func (e *Element) FindAll(selector string) []*Element {
	var out []*Element
	for _, c := range e.children {
		if c.Matches(selector) {
			out = append(out, c)
		}
		out = append(out, c.FindAll(selector)...)
	}
	return out
}

// WriteTo serialises e and its subtree as XML
func (e *Element) WriteTo(w io.Writer) (int64, error) {
	var b strings.Builder
	e.write(&b)
	n, err := io.WriteString(w, b.String())
	return int64(n), err
}

// String returns the serialised markup
func (e *Element) String() string {
	var b strings.Builder
	e.write(&b)
	return b.String()
}

func (e *Element) write(b *strings.Builder) {
	b.WriteByte('<')
	b.WriteString(e.Tag)
	for _, a := range e.attrs {
		b.WriteByte(' ')
		b.WriteString(a.name)
		b.WriteString(`="`)
		escape(b, a.value)
		b.WriteByte('"')
	}
	if e.Text == "" && len(e.children) == 0 {
		b.WriteString("/>")
		return
	}
	b.WriteByte('>')
	escape(b, e.Text)
	for _, c := range e.children {
		c.write(b)
	}
	b.WriteString("</")
	b.WriteString(e.Tag)
	b.WriteByte('>')
}

func escape(b *strings.Builder, s string) {
	if s == "" {
		return
	}
	xml.EscapeText(b, []byte(s))
}

// num formats a coordinate with at most three decimals and no trailing zeros
func num(v float64) string {
	r := math.Round(v*1000) / 1000
	if r == 0 {
		r = 0 // drop negative zero
	}
	return strconv.FormatFloat(r, 'f', -1, 64)
}

func translate(x, y float64) string {
	return "translate(" + num(x) + "," + num(y) + ")"
}
