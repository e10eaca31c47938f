package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/canvasml/studio/pkg/vfs"
)

// Theme defines the color scheme for styled terminal output.
type Theme struct {
	Primary lipgloss.Color
	Dim     lipgloss.Color
	Warn    lipgloss.Color
}

// DefaultTheme is the default bright green theme.
var DefaultTheme = Theme{
	Primary: lipgloss.Color("#00ff9f"),
	Dim:     lipgloss.Color("#6e7681"),
	Warn:    lipgloss.Color("#f0a000"),
}

// Styles holds all styles derived from a theme.
type Styles struct {
	Title lipgloss.Style
	Label lipgloss.Style
	Dim   lipgloss.Style
	Warn  lipgloss.Style
}

// NewStyles creates styles from a theme.
func NewStyles(t Theme) Styles {
	return Styles{
		Title: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Label: lipgloss.NewStyle().Bold(true).Foreground(t.Primary),
		Dim:   lipgloss.NewStyle().Foreground(t.Dim),
		Warn:  lipgloss.NewStyle().Foreground(t.Warn),
	}
}

// FileTree renders a directory tree with box-drawing connectors.
func (s Styles) FileTree(root *vfs.Dir) string {
	var b strings.Builder
	b.WriteString(s.Label.Render("/"))
	b.WriteByte('\n')
	s.renderDir(&b, root, "")
	return b.String()
}

func (s Styles) renderDir(b *strings.Builder, d *vfs.Dir, indent string) {
	total := len(d.Dirs) + len(d.Files)
	i := 0
	connector := func() (string, string) {
		i++
		if i == total {
			return "└── ", "    "
		}
		return "├── ", "│   "
	}

	for _, sub := range d.Dirs {
		conn, cont := connector()
		fmt.Fprintf(b, "%s%s%s\n", indent, conn, s.Label.Render(sub.Name+"/"))
		s.renderDir(b, sub, indent+cont)
	}
	for _, f := range d.Files {
		conn, _ := connector()
		line := f.Name
		if f.IsEntryPoint {
			line += " " + s.Title.Render("*")
		}
		meta := s.Dim.Render(fmt.Sprintf("(%s, %d lines)", f.Language, f.Lines))
		fmt.Fprintf(b, "%s%s%s %s\n", indent, conn, line, meta)
	}
}

// Summary renders a labeled key/value block.
func (s Styles) Summary(title string, pairs [][2]string) string {
	var b strings.Builder
	b.WriteString(s.Title.Render(title))
	b.WriteByte('\n')
	for _, p := range pairs {
		fmt.Fprintf(&b, "  %s %s\n", s.Label.Render(p[0]+":"), p[1])
	}
	return b.String()
}
