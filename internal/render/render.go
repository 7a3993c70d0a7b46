// Package render draws chat messages for terminals with lipgloss.
package render

import (
	"io"
	"regexp"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/muesli/termenv"

	"github.com/lox/casino/internal/chat"
)

// Styles used when drawing a message.
type Styles struct {
	Title     lipgloss.Style
	FieldName lipgloss.Style
	Text      lipgloss.Style
	Footer    lipgloss.Style
	Emphasis  lipgloss.Style
	RedSuit   lipgloss.Style
	Box       lipgloss.Style
	Column    lipgloss.Style
}

// DefaultStyles builds the house styles on r.
func DefaultStyles(r *lipgloss.Renderer) Styles {
	return Styles{
		Title: r.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")).
			Background(lipgloss.Color("#7D56F4")).
			Bold(true).
			Padding(0, 1),
		FieldName: r.NewStyle().
			Foreground(lipgloss.Color("#96CEB4")).
			Bold(true),
		Text: r.NewStyle().
			Foreground(lipgloss.Color("#FAFAFA")),
		Footer: r.NewStyle().
			Foreground(lipgloss.Color("#626262")),
		Emphasis: r.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Bold(true),
		RedSuit: r.NewStyle().
			Foreground(lipgloss.Color("#FF6B6B")).
			Bold(true),
		Box: r.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#FF0000")).
			Padding(0, 1),
		Column: r.NewStyle().
			MarginRight(4),
	}
}

// Renderer turns messages into styled text.
type Renderer struct {
	styles Styles
}

// New creates a renderer that detects the colour support of w.
func New(w io.Writer) *Renderer {
	return &Renderer{styles: DefaultStyles(lipgloss.NewRenderer(w))}
}

// Plain creates a renderer that never emits colour codes.
func Plain() *Renderer {
	r := lipgloss.NewRenderer(io.Discard)
	r.SetColorProfile(termenv.Ascii)
	return &Renderer{styles: DefaultStyles(r)}
}

var emphasis = regexp.MustCompile(`\*\*(.+?)\*\*`)

// inline styles **emphasis** markers and red suits.
func (r *Renderer) inline(s string) string {
	s = emphasis.ReplaceAllStringFunc(s, func(m string) string {
		return r.styles.Emphasis.Render(strings.Trim(m, "*"))
	})
	for _, suit := range []string{"♥", "♦"} {
		s = strings.ReplaceAll(s, suit, r.styles.RedSuit.Render(suit))
	}
	return s
}

func (r *Renderer) field(f chat.Field) string {
	value := r.inline(f.Value)
	if f.Name == "" {
		return value
	}
	return r.styles.FieldName.Render(f.Name) + "\n" + value
}

// Message draws m in a box: title, text, fields (inline fields side by side)
// and footer.
func (r *Renderer) Message(m chat.Message) string {
	var blocks []string
	if m.Title != "" {
		blocks = append(blocks, r.styles.Title.Render(m.Title))
	}
	if m.Text != "" {
		blocks = append(blocks, r.styles.Text.Render(r.inline(m.Text)))
	}

	var row []string
	flush := func() {
		if len(row) > 0 {
			blocks = append(blocks, lipgloss.JoinHorizontal(lipgloss.Top, row...))
			row = nil
		}
	}
	for _, f := range m.Fields {
		if f.Inline {
			row = append(row, r.styles.Column.Render(r.field(f)))
			continue
		}
		flush()
		blocks = append(blocks, r.field(f))
	}
	flush()

	if m.Footer != "" {
		blocks = append(blocks, r.styles.Footer.Render(m.Footer))
	}
	if !m.Structured() && m.Title == "" && m.Footer == "" {
		return r.inline(m.Text)
	}
	return r.styles.Box.Render(strings.Join(blocks, "\n"))
}
