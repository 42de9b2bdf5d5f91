// Package generate drives a language model to produce short variations of phrases.
package generate

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math/rand/v2"
	"strings"
	"time"

	"github.com/sethvargo/go-retry"

	phrasevar "github.com/Paranoid-AF/phrasevar"
	"github.com/Paranoid-AF/phrasevar/index"
)

// defaultRetryBase is the first backoff step for failed generation calls.
const defaultRetryBase = 500 * time.Millisecond

// Policy bounds the search for variations of one phrase.
type Policy struct {
	Target         int // variations required per phrase
	MinWords       int // shorter phrases are skipped
	MinPromptWords int // shortest truncated prompt
	MaxRounds      int // generation rounds before a phrase is abandoned
}

// PolicyFromConfig extracts the variation policy from cfg.
func PolicyFromConfig(cfg *phrasevar.Config) Policy {
	v := cfg.Variations
	return Policy{
		Target:         v.Target,
		MinWords:       v.MinWords,
		MinPromptWords: v.MinPromptWords,
		MaxRounds:      v.MaxRounds,
	}
}

// DefaultPolicy returns the policy of the embedded default config.
func DefaultPolicy() Policy {
	return PolicyFromConfig(phrasevar.DefaultConfig())
}

// Options configures an Engine beyond its config file.
type Options struct {
	// Rand seeds truncation sampling. nil uses a randomly seeded PCG.
	Rand Rand
	// Progress receives human-readable progress lines. nil discards them.
	Progress io.Writer
	// NewGuard creates a near-duplicate guard per phrase. nil disables the guard.
	NewGuard func() NearDuplicateGuard
	// MaxRetries is the number of retries for a failed generation call.
	MaxRetries int
	// RetryBase is the first exponential backoff step.
	RetryBase time.Duration
}

// Engine turns phrases into variation triplets.
type Engine struct {
	client     Client
	sampler    *Sampler
	policy     Policy
	newGuard   func() NearDuplicateGuard
	progress   io.Writer
	maxRetries int
	retryBase  time.Duration
	closers    []func()
}

// NewEngine creates an engine from cfg, building the generation backend and,
// when configured, the embedding-based near-duplicate guard.
func NewEngine(cfg *phrasevar.Config, opts Options) (*Engine, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client, err := NewClient(cfg)
	if err != nil {
		return nil, err
	}

	if opts.MaxRetries == 0 {
		opts.MaxRetries = cfg.Generation.MaxRetries
	}

	var closers []func()
	if opts.NewGuard == nil && phrasevar.NearDuplicateFilterEnabled(cfg) {
		embedder := index.NewEmbedder(
			phrasevar.ResolveEmbeddingBaseURL(cfg),
			phrasevar.ResolveEmbeddingAPIKey(cfg),
			phrasevar.ResolveEmbeddingModel(cfg),
		)
		cache := index.NewCache(embedder, time.Duration(cfg.Embedding.TTLMinutes)*time.Minute)
		minDistance := float32(cfg.Embedding.MinDistance)
		opts.NewGuard = func() NearDuplicateGuard {
			return index.NewGuard(cache, minDistance)
		}
		closers = append(closers, cache.Close)
		slog.Info("near-duplicate guard enabled", "min_distance", minDistance)
	}

	e := NewEngineWithClient(client, PolicyFromConfig(cfg), opts)
	e.closers = append(e.closers, closers...)
	return e, nil
}

// NewEngineWithClient creates an engine around an existing generation client.
func NewEngineWithClient(client Client, policy Policy, opts Options) *Engine {
	rng := opts.Rand
	if rng == nil {
		rng = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	progress := opts.Progress
	if progress == nil {
		progress = io.Discard
	}
	retryBase := opts.RetryBase
	if retryBase <= 0 {
		retryBase = defaultRetryBase
	}
	return &Engine{
		client:     client,
		sampler:    NewSampler(rng, policy.MinPromptWords),
		policy:     policy,
		newGuard:   opts.NewGuard,
		progress:   progress,
		maxRetries: max(opts.MaxRetries, 0),
		retryBase:  retryBase,
	}
}

// Close releases resources held by the engine.
func (e *Engine) Close() {
	if e.client != nil {
		e.client.Close()
	}
	for _, c := range e.closers {
		c()
	}
}

// Policy returns the engine's variation policy.
func (e *Engine) Policy() Policy { return e.policy }

// Process searches for variations of one phrase. Short phrases are skipped
// without calling the model. If the round budget runs out before the target
// is met, the triplet is abandoned and carries no variations.
// An error is only returned when ctx is done.
func (e *Engine) Process(ctx context.Context, phrase string) (*phrasevar.Triplet, error) {
	phrase = strings.TrimSpace(phrase)
	words := strings.Fields(phrase)
	t := &phrasevar.Triplet{Phrase: phrase, Variations: []string{}}

	if len(words) < e.policy.MinWords {
		t.Outcome = phrasevar.OutcomeSkipped
		slog.Debug("phrase skipped", "phrase", phrase, "words", len(words))
		return t, nil
	}

	fmt.Fprintln(e.progress, phrase)

	var guard NearDuplicateGuard
	if e.newGuard != nil {
		guard = e.newGuard()
	}
	collector := NewCollector(ctx, phrase, e.policy.Target, guard)
	defer collector.Close()
	collector.OnAccept = func(v string) {
		fmt.Fprintf(e.progress, "\t%s\n", v)
	}

	for t.Rounds < e.policy.MaxRounds {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		prompt := e.sampler.Truncate(words)
		t.Rounds++
		fmt.Fprintf(e.progress, "generating variations for \"%s\"\n", prompt)

		raw, err := e.generate(ctx, prompt)
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return nil, ctxErr
			}
			slog.Warn("generation failed", "phrase", phrase, "round", t.Rounds, "error", err)
			continue
		}

		collector.Offer(ctx, raw)
		if collector.Full() {
			t.Outcome = phrasevar.OutcomeComplete
			t.Variations = collector.Variations()
			fmt.Fprintln(e.progress)
			slog.Debug("phrase complete", "phrase", phrase, "rounds", t.Rounds)
			return t, nil
		}
	}

	t.Outcome = phrasevar.OutcomeAbandoned
	slog.Info("phrase abandoned", "phrase", phrase, "rounds", t.Rounds, "found", collector.Len())
	return t, nil
}

// generate calls the client, retrying transient failures with exponential backoff.
func (e *Engine) generate(ctx context.Context, prompt string) ([]string, error) {
	var raw []string
	backoff := retry.WithMaxRetries(uint64(e.maxRetries), retry.NewExponential(e.retryBase))
	err := retry.Do(ctx, backoff, func(ctx context.Context) error {
		out, err := e.client.Generate(ctx, prompt)
		if err != nil {
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return err
			}
			slog.Debug("generation attempt failed", "prompt", prompt, "error", err)
			return retry.RetryableError(err)
		}
		raw = out
		return nil
	})
	return raw, err
}
