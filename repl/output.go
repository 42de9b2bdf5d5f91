package main

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	"golang.org/x/term"

	phrasevar "github.com/Paranoid-AF/phrasevar"
)

// termWriter wraps a file and converts \n to \r\n when the file is a terminal
// (needed because raw mode disables the kernel's NL→CRNL translation).
// When the file is redirected, \n passes through unchanged.
func termWriter(f *os.File) io.Writer {
	if term.IsTerminal(int(f.Fd())) {
		return &crlfWriter{w: f}
	}
	return f
}

type crlfWriter struct {
	w io.Writer
}

func (c *crlfWriter) Write(p []byte) (int, error) {
	replaced := bytes.ReplaceAll(p, []byte("\n"), []byte("\r\n"))
	_, err := c.w.Write(replaced)
	return len(p), err // report original length to caller
}

// entry is one processed phrase in the TOML log.
type entry struct {
	Timestamp  time.Time   `toml:"timestamp"`
	Phrase     string      `toml:"phrase"`
	Outcome    string      `toml:"outcome,omitempty"`
	Rounds     int         `toml:"rounds"`
	ElapsedMS  int64       `toml:"elapsed_ms"`
	Variations []string    `toml:"variations"`
	Error      *entryError `toml:"error,omitempty"`
}

type entryError struct {
	Message string `toml:"message"`
}

// newEntry records the result of processing phrase. t is nil when err is set.
func newEntry(phrase string, t *phrasevar.Triplet, elapsed time.Duration, err error) entry {
	e := entry{
		Timestamp:  time.Now().Truncate(time.Second),
		Phrase:     phrase,
		ElapsedMS:  elapsed.Milliseconds(),
		Variations: []string{},
	}
	if err != nil {
		e.Error = &entryError{Message: err.Error()}
		return e
	}
	e.Phrase = t.Phrase
	e.Outcome = string(t.Outcome)
	e.Rounds = t.Rounds
	e.Variations = append(e.Variations, t.Variations...)
	return e
}

// writeEntry appends e to w as a [[phrase]] table, so the concatenated
// output of a session is itself a valid TOML document.
func writeEntry(w io.Writer, e entry) error {
	fmt.Fprintf(w, "# %s\n", strings.Repeat("═", 60))
	doc := struct {
		Phrase []entry `toml:"phrase"`
	}{Phrase: []entry{e}}
	if err := toml.NewEncoder(w).Encode(doc); err != nil {
		return err
	}
	_, err := fmt.Fprintln(w)
	return err
}

// writeSummary prints a short human-readable result.
func writeSummary(w io.Writer, e entry) {
	switch {
	case e.Error != nil:
		fmt.Fprintf(w, "error: %s\n", e.Error.Message)
	case e.Outcome == string(phrasevar.OutcomeSkipped):
		fmt.Fprintf(w, "(skipped: too few words)\n")
	case e.Outcome == string(phrasevar.OutcomeAbandoned):
		fmt.Fprintf(w, "(abandoned after %d rounds)\n", e.Rounds)
	default:
		for i, v := range e.Variations {
			fmt.Fprintf(w, "  %d. %s\n", i+1, v)
		}
		fmt.Fprintf(w, "  (%d rounds, %dms)\n", e.Rounds, e.ElapsedMS)
	}
	fmt.Fprintln(w)
}
