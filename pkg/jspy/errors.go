package jspy

import (
	"errors"
	"fmt"
	"strings"

	"nickandperla.net/jspy/internal/parser"
	"nickandperla.net/jspy/internal/scanner"
	"nickandperla.net/jspy/internal/token"
	"nickandperla.net/jspy/internal/value"
)

// FormatError renders err with a caret snippet of src when it carries a
// source position. Other errors are returned as their message.
func FormatError(err error, src string) string {
	var (
		se *scanner.Error
		pe *parser.Error
		re *value.Error
	)
	switch {
	case errors.As(err, &se):
		return snippet(src, "tokenizer error", "", se.Loc, se.Msg)
	case errors.As(err, &pe):
		return snippet(src, "parse error", pe.Module, pe.Loc, pe.Msg)
	case errors.As(err, &re) && re.Loc.Line > 0:
		return snippet(src, re.Category, re.Module, re.Loc, re.Message)
	}
	return err.Error()
}

// snippet shows the failing line with one line of context on each side.
func snippet(src, header, module string, loc token.Location, msg string) string {
	lines := strings.Split(scanner.Normalize(src), "\n")
	line, col := loc.Line, loc.Column
	if line < 1 {
		line = 1
	}
	if line > len(lines) {
		line = len(lines)
	}
	if col < 1 {
		col = 1
	}

	var b strings.Builder
	if module != "" {
		fmt.Fprintf(&b, "%s in %s at %d:%d: %s\n", header, module, line, col, msg)
	} else {
		fmt.Fprintf(&b, "%s at %d:%d: %s\n", header, line, col, msg)
	}
	if line > 1 {
		fmt.Fprintf(&b, "%4d | %s\n", line-1, lines[line-2])
	}
	fmt.Fprintf(&b, "%4d | %s\n", line, lines[line-1])
	fmt.Fprintf(&b, "     | %s^\n", strings.Repeat(" ", col-1))
	if line < len(lines) {
		fmt.Fprintf(&b, "%4d | %s\n", line+1, lines[line])
	}
	return b.String()
}
