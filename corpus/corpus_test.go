package corpus

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	phrasevar "github.com/Paranoid-AF/phrasevar"
)

func TestReaderTrimsAndSkipsBlankLines(t *testing.T) {
	input := "  my watch fell in the water  \n\n\tprevailing wind from the east\n   \nnever too rich and never too thin"
	r := NewReader(strings.NewReader(input))

	var got []string
	for {
		line, ok := r.Next()
		if !ok {
			break
		}
		got = append(got, line)
	}
	if err := r.Err(); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"my watch fell in the water",
		"prevailing wind from the east",
		"never too rich and never too thin",
	}
	if len(got) != len(want) {
		t.Fatalf("expected %d phrases, got %d: %v", len(want), len(got), got)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("phrase %d: expected %q, got %q", i, want[i], got[i])
		}
	}
}

type failingReader struct{}

func (failingReader) Read([]byte) (int, error) { return 0, errors.New("disk gone") }

func TestReaderSurfacesErrors(t *testing.T) {
	r := NewReader(failingReader{})
	if _, ok := r.Next(); ok {
		t.Fatal("expected no phrase")
	}
	if r.Err() == nil {
		t.Fatal("expected read error")
	}
}

func TestWriterWritesPhraseThenVariations(t *testing.T) {
	var sb strings.Builder
	w := NewWriter(&sb)
	err := w.WriteTriplet(&phrasevar.Triplet{
		Phrase:     "this is a five word phrase",
		Variations: []string{"this is a test", "this is a five word!", "this is fine"},
		Outcome:    phrasevar.OutcomeComplete,
	})
	if err != nil {
		t.Fatal(err)
	}
	want := "this is a five word phrase\nthis is a test\nthis is a five word!\nthis is fine\n"
	if sb.String() != want {
		t.Errorf("expected %q, got %q", want, sb.String())
	}
}

func TestCreateRefusesExistingFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "out.txt")
	if err := os.WriteFile(path, []byte("keep me\n"), 0644); err != nil {
		t.Fatal(err)
	}
	if _, err := Create(path); err == nil {
		t.Fatal("expected error for existing file")
	}
	data, _ := os.ReadFile(path)
	if string(data) != "keep me\n" {
		t.Errorf("existing file was modified: %q", data)
	}
}

func TestCreateMakesParentDir(t *testing.T) {
	path := filepath.Join(t.TempDir(), "phrases", "out.txt")
	w, err := Create(path)
	if err != nil {
		t.Fatal(err)
	}
	if w.Path() != path {
		t.Errorf("expected path %s, got %s", path, w.Path())
	}
	if err := w.WriteTriplet(&phrasevar.Triplet{Phrase: "a b c d e", Variations: []string{"x", "y", "z"}}); err != nil {
		t.Fatal(err)
	}
	if err := w.Close(); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if got := strings.Count(string(data), "\n"); got != 4 {
		t.Errorf("expected 4 lines, got %d", got)
	}
}

type fixedSource uint32

func (f fixedSource) Uint32() uint32 { return uint32(f) }

func TestOutputNameUses16BitSuffix(t *testing.T) {
	got := OutputName("phrases", "variation-triplets-xl", fixedSource(0x10003))
	want := filepath.Join("phrases", "variation-triplets-xl-3.txt")
	if got != want {
		t.Errorf("expected %s, got %s", want, got)
	}
}
