package main

import (
	"bufio"
	"fmt"
	"io"
	"os"

	"golang.org/x/term"
)

// LineReader yields one phrase per call and accepts status output for the user.
type LineReader interface {
	io.Writer
	// ReadLine returns the next line without its newline, or io.EOF.
	ReadLine() (string, error)
	Close()
}

// NewLineReader returns an interactive editor when stdin is a terminal and a
// plain line scanner otherwise, so phrase lists can be piped in.
func NewLineReader(prompt string) (LineReader, error) {
	if term.IsTerminal(int(os.Stdin.Fd())) {
		e, err := NewEditor(prompt)
		if err != nil {
			return nil, err
		}
		return e, nil
	}
	return newScanReader(os.Stdin, os.Stderr), nil
}

// Editor is a line editor with history on the controlling terminal.
// It reads from /dev/tty so it works even when stdout is redirected.
type Editor struct {
	tty      *os.File
	oldState *term.State
	term     *term.Terminal
}

// NewEditor opens /dev/tty and switches to raw mode.
func NewEditor(prompt string) (*Editor, error) {
	tty, err := os.OpenFile("/dev/tty", os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("open /dev/tty: %w", err)
	}

	old, err := term.MakeRaw(int(tty.Fd()))
	if err != nil {
		tty.Close()
		return nil, fmt.Errorf("raw mode: %w", err)
	}

	t := term.NewTerminal(tty, prompt)
	if w, h, err := term.GetSize(int(tty.Fd())); err == nil {
		t.SetSize(w, h)
	}
	return &Editor{tty: tty, oldState: old, term: t}, nil
}

// ReadLine reads one line with editing and history. Ctrl-C and Ctrl-D on an
// empty line end input with io.EOF.
func (e *Editor) ReadLine() (string, error) {
	return e.term.ReadLine()
}

// Write prints to the terminal, translating newlines for raw mode.
func (e *Editor) Write(p []byte) (int, error) {
	return e.term.Write(p)
}

// Close restores terminal state and closes the tty fd.
func (e *Editor) Close() {
	term.Restore(int(e.tty.Fd()), e.oldState)
	e.tty.Close()
}

// scanReader reads lines from a non-interactive input.
type scanReader struct {
	scanner *bufio.Scanner
	status  io.Writer
}

func newScanReader(r io.Reader, status io.Writer) *scanReader {
	return &scanReader{scanner: bufio.NewScanner(r), status: status}
}

func (s *scanReader) ReadLine() (string, error) {
	if s.scanner.Scan() {
		return s.scanner.Text(), nil
	}
	if err := s.scanner.Err(); err != nil {
		return "", err
	}
	return "", io.EOF
}

func (s *scanReader) Write(p []byte) (int, error) { return s.status.Write(p) }

func (s *scanReader) Close() {}
