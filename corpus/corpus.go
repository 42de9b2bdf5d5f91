// Package corpus reads phrase corpora and writes variation triplets.
package corpus

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"

	phrasevar "github.com/Paranoid-AF/phrasevar"
)

// Reader yields trimmed, non-blank lines of a corpus in file order.
type Reader struct {
	scanner *bufio.Scanner
	err     error
}

// NewReader creates a phrase reader over r.
func NewReader(r io.Reader) *Reader {
	return &Reader{scanner: bufio.NewScanner(r)}
}

// Next returns the next phrase. It returns false at end of input or on a read error.
func (r *Reader) Next() (string, bool) {
	for r.scanner.Scan() {
		line := strings.TrimSpace(r.scanner.Text())
		if line != "" {
			return line, true
		}
	}
	r.err = r.scanner.Err()
	return "", false
}

// Err returns the read error that stopped Next, if any.
func (r *Reader) Err() error { return r.err }

// Writer appends triplets to a newline-delimited text sink.
// Each triplet is written with a single flush, so a record is never partial
// unless the underlying write itself fails.
type Writer struct {
	mu     sync.Mutex
	w      io.Writer
	closer io.Closer
	path   string
}

// NewWriter creates a triplet writer over w.
func NewWriter(w io.Writer) *Writer {
	return &Writer{w: w}
}

// Create opens path for writing. It fails if path already exists.
func Create(path string) (*Writer, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
	if err != nil {
		return nil, fmt.Errorf("create output: %w", err)
	}
	return &Writer{w: f, closer: f, path: path}, nil
}

// Path returns the output file path, or empty for writers not created by Create.
func (w *Writer) Path() string { return w.path }

// WriteTriplet writes the phrase line followed by one line per variation.
func (w *Writer) WriteTriplet(t *phrasevar.Triplet) error {
	var sb strings.Builder
	for _, line := range t.Lines() {
		sb.WriteString(line)
		sb.WriteByte('\n')
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	_, err := io.WriteString(w.w, sb.String())
	return err
}

// Close closes the underlying file, if any.
func (w *Writer) Close() error {
	if w.closer == nil {
		return nil
	}
	return w.closer.Close()
}

// Uint16Source draws the random suffix for output names.
type Uint16Source interface {
	Uint32() uint32
}

// OutputName returns dir/prefix-<n>.txt with n a random 16-bit number.
func OutputName(dir, prefix string, rng Uint16Source) string {
	return filepath.Join(dir, fmt.Sprintf("%s-%d.txt", prefix, uint16(rng.Uint32())))
}
