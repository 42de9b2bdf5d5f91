package main

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/BurntSushi/toml"

	phrasevar "github.com/Paranoid-AF/phrasevar"
	"github.com/Paranoid-AF/phrasevar/generate"
)

// writeCommandConfig writes a config that generates with a local shell command.
// Every invocation prints a distinct sentence, so phrases complete in one round.
func writeCommandConfig(t *testing.T, dir string) string {
	t.Helper()
	path := filepath.Join(dir, "config.json")
	cfg := `{
		"generation": {
			"api_type": "command",
			"command": "sh -c 'echo \"$0 number $(date +%N).\"' \"$PROMPT\"",
			"num_return_sequences": 3
		}
	}`
	if err := os.WriteFile(path, []byte(cfg), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestRunWritesTripletsAndReport(t *testing.T) {
	dir := t.TempDir()
	corpusPath := filepath.Join(dir, "phrases.txt")
	content := "my watch fell in the water\nshort phrase here\nprevailing wind from the east\n"
	if err := os.WriteFile(corpusPath, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	outDir := filepath.Join(dir, "out")
	reportPath := filepath.Join(dir, "report.toml")

	err := run(corpusPath, outDir, "triplets", writeCommandConfig(t, dir), reportPath, 42)
	if err != nil {
		t.Fatal(err)
	}

	matches, _ := filepath.Glob(filepath.Join(outDir, "triplets-*.txt"))
	if len(matches) != 1 {
		t.Fatalf("expected one output file, got %v", matches)
	}
	data, err := os.ReadFile(matches[0])
	if err != nil {
		t.Fatal(err)
	}
	lines := strings.Split(strings.TrimRight(string(data), "\n"), "\n")
	if len(lines) != 8 {
		t.Fatalf("expected 8 lines (2 triplets), got %d: %q", len(lines), lines)
	}
	if lines[0] != "my watch fell in the water" || lines[4] != "prevailing wind from the east" {
		t.Errorf("unexpected phrase lines: %q, %q", lines[0], lines[4])
	}

	var r report
	if _, err := toml.DecodeFile(reportPath, &r); err != nil {
		t.Fatal(err)
	}
	if r.RunID == "" {
		t.Error("expected run id")
	}
	if r.Seed != 42 {
		t.Errorf("expected seed 42, got %d", r.Seed)
	}
	if r.Totals.Phrases != 3 || r.Totals.Completed != 2 || r.Totals.Skipped != 1 {
		t.Errorf("unexpected totals %+v", r.Totals)
	}
	if len(r.Phrases) != 2 {
		t.Errorf("skipped phrases should not be listed, got %+v", r.Phrases)
	}
	if r.Generation.APIType != "command" || r.Generation.NumReturnSequences != 3 {
		t.Errorf("unexpected generation section %+v", r.Generation)
	}
}

func TestRunRefusesExistingOutput(t *testing.T) {
	dir := t.TempDir()
	corpusPath := filepath.Join(dir, "phrases.txt")
	if err := os.WriteFile(corpusPath, []byte("my watch fell in the water\n"), 0644); err != nil {
		t.Fatal(err)
	}
	cfgPath := writeCommandConfig(t, dir)

	// The same seed picks the same output name twice.
	if err := run(corpusPath, dir, "triplets", cfgPath, "", 7); err != nil {
		t.Fatal(err)
	}
	err := run(corpusPath, dir, "triplets", cfgPath, "", 7)
	if err == nil || !errors.Is(err, os.ErrExist) {
		t.Fatalf("expected existing output error, got %v", err)
	}
}

func TestRunMissingCorpus(t *testing.T) {
	dir := t.TempDir()
	err := run(filepath.Join(dir, "missing.txt"), dir, "triplets", writeCommandConfig(t, dir), "", 1)
	if err == nil {
		t.Fatal("expected error for missing corpus")
	}
	matches, _ := filepath.Glob(filepath.Join(dir, "triplets-*.txt"))
	if len(matches) != 0 {
		t.Errorf("no output should be created when the corpus is missing, got %v", matches)
	}
}

func TestNewReportRecordsError(t *testing.T) {
	cfg := phrasevar.DefaultConfig()
	stats := generate.Stats{
		Phrases:  2,
		Duration: time.Second,
		Results: []generate.Result{
			{Phrase: "a b c", Outcome: phrasevar.OutcomeSkipped},
			{Phrase: "one two three four five", Outcome: phrasevar.OutcomeAbandoned, Rounds: 20},
		},
	}
	started := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	r := newReport(cfg, "c.txt", "o.txt", 9, started, stats, errors.New("boom"))
	if r.Error != "boom" {
		t.Errorf("expected error recorded, got %q", r.Error)
	}
	if !r.Finished.Equal(started.Add(time.Second)) {
		t.Errorf("unexpected finish time %v", r.Finished)
	}
	if len(r.Phrases) != 1 || r.Phrases[0].Rounds != 20 {
		t.Errorf("unexpected phrases %+v", r.Phrases)
	}
}
