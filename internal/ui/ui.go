// Package ui renders siteqr command output.
package ui

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
)

var (
	successStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Bold(true)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("9")).Bold(true)
	warningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
	infoStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("12"))
	subtleStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("8"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
)

type UI struct {
	out io.Writer
	err io.Writer
}

// New writes regular output to out and errors to errOut.
func New(out, errOut io.Writer) *UI {
	return &UI{out: out, err: errOut}
}

func (ui *UI) Success(msg string) {
	fmt.Fprintln(ui.out, successStyle.Render("✓ "+msg))
}

func (ui *UI) Error(msg string) {
	fmt.Fprintln(ui.err, errorStyle.Render("✗ "+msg))
}

// Failure prints a negative verdict on the regular output stream.
func (ui *UI) Failure(msg string) {
	fmt.Fprintln(ui.out, errorStyle.Render("✗ "+msg))
}

func (ui *UI) Warning(msg string) {
	fmt.Fprintln(ui.out, warningStyle.Render("⚠ "+msg))
}

func (ui *UI) Info(msg string) {
	fmt.Fprintln(ui.out, infoStyle.Render("ℹ "+msg))
}

func (ui *UI) Subtle(msg string) {
	fmt.Fprintln(ui.out, subtleStyle.Render(msg))
}

func (ui *UI) Println(msg string) {
	fmt.Fprintln(ui.out, msg)
}

func (ui *UI) Header(title string) {
	fmt.Fprintln(ui.out, headerStyle.Render(title))
}

func (ui *UI) Separator() {
	fmt.Fprintln(ui.out, subtleStyle.Render(strings.Repeat("─", 60)))
}

func (ui *UI) KeyValue(key, value string) {
	fmt.Fprintf(ui.out, "  %s: %s\n", subtleStyle.Render(key), value)
}

func (ui *UI) ListItem(item string) {
	fmt.Fprintln(ui.out, "  • "+item)
}

// Table buffers rows and prints them aligned under a header.
type Table struct {
	ui      *UI
	headers []string
	rows    [][]string
}

func (ui *UI) NewTable(headers ...string) *Table {
	return &Table{ui: ui, headers: headers}
}

func (t *Table) AddRow(cells ...string) {
	t.rows = append(t.rows, cells)
}

func (t *Table) Render() {
	if len(t.headers) == 0 {
		return
	}

	widths := make([]int, len(t.headers))
	for i, h := range t.headers {
		widths[i] = lipgloss.Width(h)
	}
	for _, row := range t.rows {
		for i, cell := range row {
			if i < len(widths) {
				widths[i] = max(widths[i], lipgloss.Width(cell))
			}
		}
	}

	parts := make([]string, len(t.headers))
	for i, h := range t.headers {
		parts[i] = padRight(h, widths[i])
	}
	t.ui.Println(headerStyle.Render(strings.Join(parts, " │ ")))

	for i, w := range widths {
		parts[i] = strings.Repeat("─", w)
	}
	t.ui.Println(subtleStyle.Render(strings.Join(parts, "─┼─")))

	for _, row := range t.rows {
		for i := range t.headers {
			cell := ""
			if i < len(row) {
				cell = row[i]
			}
			parts[i] = padRight(cell, widths[i])
		}
		t.ui.Println(strings.Join(parts, " │ "))
	}
}

func padRight(s string, width int) string {
	if n := lipgloss.Width(s); n < width {
		return s + strings.Repeat(" ", width-n)
	}
	return s
}
