package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/peterh/liner"

	"nickandperla.net/jspy/internal/parser"
	"nickandperla.net/jspy/internal/scanner"
	"nickandperla.net/jspy/pkg/jspy"
)

const (
	historyFile = ".jspy_history"
	promptMain  = ">>> "
	promptCont  = "... "
)

func runREPL(rt *jspy.Runtime, session string, stdout, stderr io.Writer) int {
	fmt.Fprintln(stdout, "jspy REPL (Ctrl+D to exit, :quit to leave)")

	ln := liner.NewLiner()
	defer ln.Close()
	ln.SetCtrlCAborts(true)

	home, _ := os.UserHomeDir()
	histPath := filepath.Join(home, historyFile)
	if f, err := os.Open(histPath); err == nil {
		_, _ = ln.ReadHistory(f)
		_ = f.Close()
	}
	defer func() {
		if f, err := os.Create(histPath); err == nil {
			_, _ = ln.WriteHistory(f)
			_ = f.Close()
		}
	}()

	for {
		code, ok := readByParseProbe(ln)
		if !ok {
			fmt.Fprintln(stdout)
			break
		}
		trimmed := strings.TrimSpace(code)
		if trimmed == "" {
			continue
		}
		if trimmed == ":quit" {
			break
		}
		ln.AppendHistory(code)

		result, err := rt.EvaluateAsync(context.Background(), code)
		if err != nil {
			fmt.Fprint(stderr, jspy.FormatError(err, code))
			continue
		}
		rt.Keep()
		if result != nil {
			fmt.Fprintln(stdout, jspy.Repr(result))
		}
	}

	if session != "" {
		if err := persist(rt, session); err != nil {
			fmt.Fprintf(stderr, "Error: %v\n", err)
			return 1
		}
	}
	return 0
}

// readByParseProbe reads lines until they form a complete program.
func readByParseProbe(ln *liner.State) (string, bool) {
	var b strings.Builder
	for {
		prompt := promptMain
		if b.Len() > 0 {
			prompt = promptCont
		}
		line, err := ln.Prompt(prompt)
		if errors.Is(err, io.EOF) {
			return "", false
		}
		if err != nil {
			// Ctrl+C drops the pending input
			return "", true
		}
		if b.Len() > 0 {
			b.WriteByte('\n')
		}
		b.WriteString(line)
		if !incomplete(b.String()) {
			return b.String(), true
		}
	}
}

// incomplete reports whether src needs more lines: an unfinished
// expression or block header, or a continued input not yet closed by an
// empty line.
func incomplete(src string) bool {
	lines := strings.Split(src, "\n")
	if n := len(lines); n > 1 {
		last := strings.TrimSpace(lines[n-1])
		if last != "" {
			return true
		}
		if n > 2 && strings.TrimSpace(lines[n-2]) == "" {
			// two empty lines force evaluation to surface the error
			return false
		}
	}
	_, err := parser.Parse(src, "")
	var pe *parser.Error
	if errors.As(err, &pe) {
		return strings.Contains(pe.Msg, "end of file") || strings.Contains(pe.Msg, "indented block")
	}
	var se *scanner.Error
	if errors.As(err, &se) {
		return strings.Contains(se.Msg, "unterminated triple-quoted")
	}
	return false
}
