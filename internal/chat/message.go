// Package chat models the chat side of a game: messages sent to the player,
// replies coming back, and waiting for a reply with a timeout.
package chat

import (
	"strings"
)

// Field is one named value in a structured message.
type Field struct {
	Name   string `json:"name"`
	Value  string `json:"value"`
	Inline bool   `json:"inline,omitempty"`
}

// Message is what games send to the player. A message is either plain text or a
// set of named fields, optionally with a title and footer. Rendering is left to
// the transport.
type Message struct {
	Title  string  `json:"title,omitempty"`
	Text   string  `json:"text,omitempty"`
	Fields []Field `json:"fields,omitempty"`
	Footer string  `json:"footer,omitempty"`
}

// Text builds a plain text message.
func Text(s string) Message {
	return Message{Text: s}
}

// Structured reports whether the message carries named fields.
func (m Message) Structured() bool {
	return len(m.Fields) > 0
}

// With returns a copy of m with a field appended.
func (m Message) With(name, value string) Message {
	fields := make([]Field, len(m.Fields), len(m.Fields)+1)
	copy(fields, m.Fields)
	m.Fields = append(fields, Field{Name: name, Value: value})
	return m
}

// Merge folds other into m: text is appended as a new paragraph, fields are
// appended in order, and a non-empty title or footer in other wins.
func (m Message) Merge(other Message) Message {
	out := m
	switch {
	case out.Text == "":
		out.Text = other.Text
	case other.Text != "":
		out.Text = out.Text + "\n" + other.Text
	}
	out.Fields = append(append([]Field{}, m.Fields...), other.Fields...)
	if other.Title != "" {
		out.Title = other.Title
	}
	if other.Footer != "" {
		out.Footer = other.Footer
	}
	return out
}

// String renders the message as plain text, one field per line.
func (m Message) String() string {
	var b strings.Builder
	if m.Title != "" {
		b.WriteString(m.Title)
		b.WriteString("\n")
	}
	if m.Text != "" {
		b.WriteString(m.Text)
		b.WriteString("\n")
	}
	for _, f := range m.Fields {
		if f.Name != "" {
			b.WriteString(f.Name)
			b.WriteString(": ")
		}
		b.WriteString(strings.ReplaceAll(f.Value, "\n", "\n  "))
		b.WriteString("\n")
	}
	if m.Footer != "" {
		b.WriteString(m.Footer)
		b.WriteString("\n")
	}
	return strings.TrimRight(b.String(), "\n")
}

// Normalize prepares a raw reply for matching: surrounding space is dropped and
// case is folded.
func Normalize(reply string) string {
	return strings.ToLower(strings.TrimSpace(reply))
}

// Match returns the choice a reply selects. Replies match case-insensitively
// against the choice set; anything else is ignored by the caller.
func Match(choices []string, reply string) (string, bool) {
	r := Normalize(reply)
	for _, c := range choices {
		if r == strings.ToLower(c) {
			return c, true
		}
	}
	return "", false
}
