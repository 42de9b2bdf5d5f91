// Command phrasevar generates variation triplets for a phrase corpus.
// Each phrase with enough words is written to the output file followed by
// three short variations produced by a language model.
package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	phrasevar "github.com/Paranoid-AF/phrasevar"
	"github.com/Paranoid-AF/phrasevar/corpus"
	"github.com/Paranoid-AF/phrasevar/generate"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	corpusPath := flag.String("corpus", "phrases/mackenzie-soukoreff-phrases.txt", "phrase corpus, one phrase per line")
	outDir := flag.String("out-dir", "phrases", "directory for the output file")
	prefix := flag.String("prefix", "variation-triplets", "output file name prefix")
	configPath := flag.String("config", "", "config file (default: "+phrasevar.ConfigPath()+")")
	reportPath := flag.String("report", "", "write a TOML run report to this path")
	seed := flag.Uint64("seed", 0, "seed for prompt truncation (0 = random)")
	showVersion := flag.Bool("version", false, "print version and exit")
	verbose := flag.Bool("verbose", false, "enable debug logs")
	flag.Parse()

	if *showVersion {
		fmt.Println("phrasevar", Version)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	if err := run(*corpusPath, *outDir, *prefix, *configPath, *reportPath, *seed); err != nil {
		slog.Error("run failed", "error", err)
		os.Exit(1)
	}
}

func run(corpusPath, outDir, prefix, configPath, reportPath string, seed uint64) error {
	var cfg *phrasevar.Config
	var err error
	if configPath != "" {
		cfg, err = phrasevar.LoadConfigFile(configPath)
	} else {
		cfg, err = phrasevar.LoadConfig()
	}
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	for _, w := range phrasevar.ValidateConfig(cfg) {
		slog.Warn("config", "warning", w)
	}

	in, err := os.Open(corpusPath)
	if err != nil {
		return err
	}
	defer in.Close()

	if seed == 0 {
		seed = rand.Uint64()
	}
	rng := rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15))

	out, err := corpus.Create(corpus.OutputName(outDir, prefix, rng))
	if err != nil {
		return err
	}
	defer out.Close()

	engine, err := generate.NewEngine(cfg, generate.Options{
		Rand:     rng,
		Progress: os.Stdout,
	})
	if err != nil {
		return err
	}
	defer engine.Close()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	slog.Info("starting", "corpus", corpusPath, "output", out.Path(), "seed", seed)
	started := time.Now()
	stats, runErr := engine.Run(ctx, corpus.NewReader(in), out)

	if reportPath != "" {
		report := newReport(cfg, corpusPath, out.Path(), seed, started, stats, runErr)
		if err := writeReport(reportPath, report); err != nil {
			slog.Warn("failed to write report", "path", reportPath, "error", err)
		}
	}
	return runErr
}
