package main

import (
	"os"
	"time"

	"github.com/BurntSushi/toml"
	"github.com/google/uuid"

	phrasevar "github.com/Paranoid-AF/phrasevar"
	"github.com/Paranoid-AF/phrasevar/generate"
)

// report is the TOML summary of one run.
type report struct {
	RunID      string           `toml:"run_id"`
	Corpus     string           `toml:"corpus"`
	Output     string           `toml:"output"`
	Seed       uint64           `toml:"seed"`
	Started    time.Time        `toml:"started"`
	Finished   time.Time        `toml:"finished"`
	Error      string           `toml:"error,omitempty"`
	Generation generationReport `toml:"generation"`
	Totals     totalsReport     `toml:"totals"`
	Phrases    []phraseReport   `toml:"phrase"`
}

type generationReport struct {
	APIType            string  `toml:"api_type"`
	Model              string  `toml:"model"`
	MinTokens          int     `toml:"min_tokens"`
	MaxTokens          int     `toml:"max_tokens"`
	LengthPenalty      float64 `toml:"length_penalty"`
	NumReturnSequences int     `toml:"num_return_sequences"`
	DoSample           bool    `toml:"do_sample"`
	Temperature        float64 `toml:"temperature"`
	MaxRounds          int     `toml:"max_rounds"`
}

type totalsReport struct {
	Phrases   int `toml:"phrases"`
	Completed int `toml:"completed"`
	Abandoned int `toml:"abandoned"`
	Skipped   int `toml:"skipped"`
	Rounds    int `toml:"rounds"`
}

type phraseReport struct {
	Phrase  string `toml:"phrase"`
	Outcome string `toml:"outcome"`
	Rounds  int    `toml:"rounds"`
}

func newReport(cfg *phrasevar.Config, corpusPath, output string, seed uint64, started time.Time, stats generate.Stats, runErr error) report {
	r := report{
		RunID:    uuid.NewString(),
		Corpus:   corpusPath,
		Output:   output,
		Seed:     seed,
		Started:  started,
		Finished: started.Add(stats.Duration),
		Generation: generationReport{
			APIType:            cfg.Generation.APIType,
			Model:              phrasevar.ResolveGenerationModel(cfg),
			MinTokens:          cfg.Generation.MinTokens,
			MaxTokens:          cfg.Generation.MaxTokens,
			LengthPenalty:      cfg.Generation.LengthPenalty,
			NumReturnSequences: cfg.Generation.NumReturnSequences,
			DoSample:           phrasevar.SamplingEnabled(cfg),
			Temperature:        cfg.Generation.Temperature,
			MaxRounds:          cfg.Variations.MaxRounds,
		},
		Totals: totalsReport{
			Phrases:   stats.Phrases,
			Completed: stats.Completed,
			Abandoned: stats.Abandoned,
			Skipped:   stats.Skipped,
			Rounds:    stats.Rounds,
		},
	}
	if runErr != nil {
		r.Error = runErr.Error()
	}
	for _, res := range stats.Results {
		if res.Outcome == phrasevar.OutcomeSkipped {
			continue
		}
		r.Phrases = append(r.Phrases, phraseReport{
			Phrase:  res.Phrase,
			Outcome: string(res.Outcome),
			Rounds:  res.Rounds,
		})
	}
	return r
}

// writeReport encodes r as TOML to path, replacing any previous report.
func writeReport(path string, r report) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := toml.NewEncoder(f).Encode(r); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
