package main

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/mattn/go-isatty"

	"mediakeep/internal/catalog"
)

// severity orders console lines from neutral to failing.
type severity int

const (
	severityInfo severity = iota
	severityOK
	severityWarn
	severityError
)

const (
	ansiReset  = "\x1b[0m"
	ansiRed    = "\x1b[31m"
	ansiGreen  = "\x1b[32m"
	ansiYellow = "\x1b[33m"
	ansiBlue   = "\x1b[34m"
)

var severityStyles = map[severity]struct{ label, color string }{
	severityInfo:  {"INFO", ansiBlue},
	severityOK:    {"OK", ansiGreen},
	severityWarn:  {"WARN", ansiYellow},
	severityError: {"ERROR", ansiRed},
}

// console writes labelled report lines, colored only on a terminal.
type console struct {
	out   io.Writer
	color bool
}

func newConsole(out io.Writer) *console {
	return &console{out: out, color: isTerminal(out)}
}

func (c *console) paint(color, text string) string {
	if !c.color || color == "" {
		return text
	}
	return color + text + ansiReset
}

func (c *console) header(title string) {
	line := fmt.Sprintf("== %s ==", strings.TrimSpace(title))
	fmt.Fprintln(c.out, c.paint(ansiBlue, line))
	fmt.Fprintln(c.out, c.paint(ansiBlue, strings.Repeat("-", len(line))))
}

// line prints "  Label:   [SEV] message".
func (c *console) line(label string, sev severity, message string) {
	style := severityStyles[sev]
	text := "[" + style.label + "]"
	if message != "" {
		text += " " + message
	}
	fmt.Fprintln(c.out, c.paint(style.color, fmt.Sprintf("  %-20s %s", label+":", text)))
}

func (c *console) blank() { fmt.Fprintln(c.out) }

// outcomeSeverity maps a stored write status to its display severity.
func outcomeSeverity(status catalog.WriteStatus) severity {
	switch status {
	case catalog.StatusSuccess:
		return severityOK
	case catalog.StatusPartial, catalog.StatusSkipped:
		return severityWarn
	case catalog.StatusError:
		return severityError
	default:
		return severityInfo
	}
}

// worstOutcome returns the most severe status with a non-zero count.
func worstOutcome(counts map[catalog.WriteStatus]int) severity {
	worst := severityInfo
	for status, n := range counts {
		if n > 0 && outcomeSeverity(status) > worst {
			worst = outcomeSeverity(status)
		}
	}
	return worst
}

func isTerminal(w io.Writer) bool {
	file, ok := w.(*os.File)
	if !ok {
		return false
	}
	fd := file.Fd()
	return isatty.IsTerminal(fd) || isatty.IsCygwinTerminal(fd)
}
