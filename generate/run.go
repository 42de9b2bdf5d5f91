package generate

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	phrasevar "github.com/Paranoid-AF/phrasevar"
)

// PhraseSource yields phrases in input order.
type PhraseSource interface {
	// Next returns the next phrase, or false when the source is exhausted or failed.
	Next() (string, bool)
	// Err returns the first read error, if any.
	Err() error
}

// TripletSink receives completed triplets.
type TripletSink interface {
	WriteTriplet(t *phrasevar.Triplet) error
}

// Result summarises the processing of one phrase.
type Result struct {
	Phrase  string
	Outcome phrasevar.Outcome
	Rounds  int
}

// Stats summarises a run over a corpus.
type Stats struct {
	Phrases   int
	Completed int
	Abandoned int
	Skipped   int
	Rounds    int
	Duration  time.Duration
	Results   []Result
}

// Run processes every phrase of src in order, one at a time, and writes each
// completed triplet to sink. Abandoned and skipped phrases produce no output.
// Read and write failures abort the run.
func (e *Engine) Run(ctx context.Context, src PhraseSource, sink TripletSink) (stats Stats, err error) {
	start := time.Now()
	defer func() { stats.Duration = time.Since(start) }()

	for {
		phrase, ok := src.Next()
		if !ok {
			break
		}
		stats.Phrases++

		t, perr := e.Process(ctx, phrase)
		if perr != nil {
			return stats, perr
		}
		stats.Rounds += t.Rounds
		stats.Results = append(stats.Results, Result{Phrase: t.Phrase, Outcome: t.Outcome, Rounds: t.Rounds})

		switch t.Outcome {
		case phrasevar.OutcomeComplete:
			stats.Completed++
			if werr := sink.WriteTriplet(t); werr != nil {
				return stats, fmt.Errorf("write triplet: %w", werr)
			}
		case phrasevar.OutcomeAbandoned:
			stats.Abandoned++
		case phrasevar.OutcomeSkipped:
			stats.Skipped++
		}
	}

	if rerr := src.Err(); rerr != nil {
		return stats, fmt.Errorf("read corpus: %w", rerr)
	}

	slog.Info("run finished",
		"phrases", stats.Phrases,
		"completed", stats.Completed,
		"abandoned", stats.Abandoned,
		"skipped", stats.Skipped,
	)
	return stats, nil
}
