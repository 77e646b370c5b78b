package main

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"
	"github.com/rivo/uniseg"

	"github.com/chargen/poshtools/internal/diag"
	"github.com/chargen/poshtools/internal/engine/buffer"
)

// printer renders diagnostics with severity colors and caret lines
// aligned under the offending source text.
type printer struct {
	out io.Writer

	severity map[diag.Severity]*color.Color
	location *color.Color
	note     *color.Color
}

// newPrinter builds a printer. mode is the output.color config value;
// terminal reports whether out is a terminal.
func newPrinter(out io.Writer, mode string, terminal bool) *printer {
	enabled := mode == "always" || (mode == "auto" && terminal)

	mk := func(attrs ...color.Attribute) *color.Color {
		c := color.New(attrs...)
		if enabled {
			c.EnableColor()
		} else {
			c.DisableColor()
		}
		return c
	}

	return &printer{
		out: out,
		severity: map[diag.Severity]*color.Color{
			diag.SeverityError:   mk(color.FgRed, color.Bold),
			diag.SeverityWarning: mk(color.FgYellow, color.Bold),
			diag.SeverityHint:    mk(color.FgCyan),
		},
		location: mk(color.Bold),
		note:     mk(color.FgHiBlack),
	}
}

// printDiagnostic renders one diagnostic with its source line and a
// caret run under the span.
func (p *printer) printDiagnostic(path string, snap *buffer.Snapshot, d diag.Diagnostic) {
	point := snap.OffsetToPoint(buffer.ByteOffset(d.Span.Start))

	sev := p.severity[d.Severity]
	fmt.Fprintf(p.out, "%s %s %s [%s]\n",
		p.location.Sprintf("%s:%d:%d:", path, point.Line+1, point.Column+1),
		sev.Sprint(d.Severity.String()+":"),
		d.Message,
		d.Code,
	)

	line := snap.LineText(point.Line)
	if line != "" {
		fmt.Fprintf(p.out, "  %s\n", strings.TrimRight(line, "\n"))
		fmt.Fprintf(p.out, "  %s\n", caretLine(line, point.Column, d.Span.Len()))
	}

	for _, n := range d.Notes {
		fmt.Fprintf(p.out, "  %s\n", p.note.Sprint("note: "+n))
	}
}

// caretLine builds the "   ^^^^" marker under a span. Widths are
// measured per grapheme cluster so carets line up under tabs, CJK and
// other multi-width text.
func caretLine(line string, startCol uint32, spanLen uint32) string {
	var b strings.Builder

	prefix := sliceBytes(line, 0, int(startCol))
	b.WriteString(strings.Repeat(" ", displayWidth(prefix)))

	marked := sliceBytes(line, int(startCol), int(startCol+spanLen))
	width := displayWidth(marked)
	if width < 1 {
		width = 1
	}
	b.WriteString(strings.Repeat("^", width))
	return b.String()
}

// displayWidth measures the terminal cell width of s, counting
// grapheme clusters rather than runes and rendering tabs as four
// cells.
func displayWidth(s string) int {
	width := 0
	g := uniseg.NewGraphemes(s)
	for g.Next() {
		cluster := g.Str()
		if cluster == "\t" {
			width += 4
			continue
		}
		width += runewidth.StringWidth(cluster)
	}
	return width
}

// sliceBytes clamps a byte slice of s to its bounds.
func sliceBytes(s string, start, end int) string {
	if start > len(s) {
		start = len(s)
	}
	if end > len(s) {
		end = len(s)
	}
	if start >= end {
		return ""
	}
	return s[start:end]
}

// printSummary renders the per-run diagnostic totals.
func (p *printer) printSummary(files, errs, warns, hints int) {
	if errs == 0 && warns == 0 && hints == 0 {
		fmt.Fprintf(p.out, "%d file(s) checked, no problems\n", files)
		return
	}

	parts := make([]string, 0, 3)
	if errs > 0 {
		parts = append(parts, p.severity[diag.SeverityError].Sprintf("%d error(s)", errs))
	}
	if warns > 0 {
		parts = append(parts, p.severity[diag.SeverityWarning].Sprintf("%d warning(s)", warns))
	}
	if hints > 0 {
		parts = append(parts, p.severity[diag.SeverityHint].Sprintf("%d hint(s)", hints))
	}
	fmt.Fprintf(p.out, "%d file(s) checked: %s\n", files, strings.Join(parts, ", "))
}
