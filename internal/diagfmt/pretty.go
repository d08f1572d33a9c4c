package diagfmt

import (
	"fmt"
	"io"
	"strings"

	"github.com/fatih/color"
	"github.com/mattn/go-runewidth"

	"spvopt/internal/diag"
)

var (
	errorColor   = color.New(color.FgRed, color.Bold)
	warningColor = color.New(color.FgYellow, color.Bold)
	infoColor    = color.New(color.FgCyan)
	noteColor    = color.New(color.FgBlue)
	codeColor    = color.New(color.Faint)
)

// codeColumn is the width reserved for "SEVERITY CODE".
const codeColumn = 17

// Pretty renders diagnostics in human readable form. It walks bag.Items(),
// which callers are expected to have sorted. Each diagnostic prints as
//
//	<path>:<location>: <SEV> <CODE>: <Message>
//
// followed by its notes.
func Pretty(w io.Writer, bag *diag.Bag, path string, opts PrettyOpts) {
	p := formatPath(path, opts.PathMode)
	for _, d := range bag.Items() {
		head := severityColor(d.Severity, opts.Color).Sprint(d.Severity.String()) +
			" " + paint(codeColor, opts.Color, d.Code.ID())
		head = padRight(head, codeColumn+invisible(head))
		line := fmt.Sprintf("%s:%s: %s %s", p, d.Primary, head, d.Message)
		fmt.Fprintln(w, truncate(line, int(opts.Width)))
		if !opts.ShowNotes {
			continue
		}
		for _, n := range d.Notes {
			note := fmt.Sprintf("  %s %s: %s", paint(noteColor, opts.Color, "note:"), n.Loc, n.Msg)
			fmt.Fprintln(w, truncate(note, int(opts.Width)))
		}
	}
	if bag.Dropped() > 0 {
		fmt.Fprintf(w, "%s: %d more diagnostic(s) not shown\n", p, bag.Dropped())
	}
}

// Short renders the one-line-per-entry form, notes included.
func Short(w io.Writer, bag *diag.Bag, path string) {
	out := diag.FormatShortDiagnostics(bag.Items(), formatPath(path, PathModeAuto), true)
	if out != "" {
		fmt.Fprintln(w, out)
	}
}

func severityColor(s diag.Severity, enabled bool) *color.Color {
	var c *color.Color
	switch s {
	case diag.SevError:
		c = errorColor
	case diag.SevWarning:
		c = warningColor
	default:
		c = infoColor
	}
	out := *c
	if enabled {
		out.EnableColor()
	} else {
		out.DisableColor()
	}
	return &out
}

func paint(c *color.Color, enabled bool, s string) string {
	if !enabled {
		return s
	}
	cc := *c
	cc.EnableColor()
	return cc.Sprint(s)
}

// invisible returns the width runewidth counts for ANSI escapes in s. The
// escape byte itself has zero width.
func invisible(s string) int {
	n := 0
	for i := 0; i < len(s); i++ {
		if s[i] != 0x1b {
			continue
		}
		j := strings.IndexByte(s[i:], 'm')
		if j < 0 {
			break
		}
		n += j
		i += j
	}
	return n
}

func padRight(s string, width int) string {
	w := runewidth.StringWidth(s)
	if w >= width {
		return s
	}
	return s + strings.Repeat(" ", width-w)
}

func truncate(s string, width int) string {
	if width <= 0 || runewidth.StringWidth(s) <= width {
		return s
	}
	return runewidth.Truncate(s, width, "...")
}
