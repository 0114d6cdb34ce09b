package main

import (
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/felixgeelhaar/pokerlog/internal/units"
)

var (
	colorGreen  = lipgloss.Color("#8ec07c")
	colorRed    = lipgloss.Color("#fb4934")
	colorDim    = lipgloss.Color("#928374")
	colorHeader = lipgloss.Color("#fe8019")
	colorFg     = lipgloss.Color("#ebdbb2")
)

var (
	styleGreen  = lipgloss.NewStyle().Foreground(colorGreen)
	styleRed    = lipgloss.NewStyle().Foreground(colorRed)
	styleDim    = lipgloss.NewStyle().Foreground(colorDim)
	styleHeader = lipgloss.NewStyle().Foreground(colorHeader).Bold(true)
	styleBold   = lipgloss.NewStyle().Foreground(colorFg).Bold(true)
	styleBox    = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorDim).
			Padding(0, 1)
)

// printer writes human or JSON output. Styles apply only when color is set.
type printer struct {
	w     io.Writer
	color bool
}

func (p *printer) paint(style lipgloss.Style, text string) string {
	if !p.color {
		return text
	}
	return style.Render(text)
}

func (p *printer) println(a ...any) {
	fmt.Fprintln(p.w, a...)
}

func (p *printer) printf(format string, a ...any) {
	fmt.Fprintf(p.w, format, a...)
}

// json writes v as indented JSON.
func (p *printer) json(v any) error {
	enc := json.NewEncoder(p.w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

func (p *printer) header(text string) string {
	upper := strings.ToUpper(text)
	return p.paint(styleHeader, upper) + "\n" + p.paint(styleDim, strings.Repeat("─", len(upper)))
}

func (p *printer) dim(text string) string {
	return p.paint(styleDim, text)
}

func (p *printer) bold(text string) string {
	return p.paint(styleBold, text)
}

// money renders cents as "$12.50" or "-$12.50", green for wins and red for losses.
func (p *printer) money(cents int64) string {
	text := "$" + units.FormatCents(cents)
	if cents < 0 {
		text = "-$" + units.FormatCents(-cents)
	}
	switch {
	case cents > 0:
		return p.paint(styleGreen, text)
	case cents < 0:
		return p.paint(styleRed, text)
	default:
		return text
	}
}

// box frames text in a rounded border on a terminal.
func (p *printer) box(text string) string {
	if !p.color {
		return text
	}
	return styleBox.Render(text)
}

// table renders an aligned table with a header separator line. Widths are
// measured on visible characters so styled cells line up.
func (p *printer) table(headers []string, rows [][]string) string {
	if len(headers) == 0 {
		return ""
	}
	cols := len(headers)

	widths := make([]int, cols)
	for i, h := range headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range rows {
		for i := 0; i < cols && i < len(row); i++ {
			if w := lipgloss.Width(row[i]); w > widths[i] {
				widths[i] = w
			}
		}
	}

	const colGap = 2
	var b strings.Builder

	writeRow := func(cells []string, style *lipgloss.Style) {
		for i := 0; i < cols; i++ {
			cell := ""
			if i < len(cells) {
				cell = cells[i]
			}
			pad := widths[i] - lipgloss.Width(cell)
			if style != nil {
				cell = p.paint(*style, cell)
			}
			b.WriteString(cell)
			if i < cols-1 {
				b.WriteString(strings.Repeat(" ", pad+colGap))
			}
		}
		b.WriteString("\n")
	}

	writeRow(headers, &styleHeader)
	for i, w := range widths {
		b.WriteString(p.paint(styleDim, strings.Repeat("─", w)))
		if i < cols-1 {
			b.WriteString(strings.Repeat(" ", colGap))
		}
	}
	b.WriteString("\n")
	for _, row := range rows {
		writeRow(row, nil)
	}

	return b.String()
}
