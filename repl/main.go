// Command phrasevar-repl is an interactive REPL for phrase variations.
// Each phrase typed at the prompt is varied with the configured engine; a short
// summary is shown on the terminal and a TOML entry is written to stdout.
//
// Usage:
//
//	./phrasevar-repl                  # interactive, TOML on screen
//	./phrasevar-repl > log.toml       # prompt on screen, TOML to file
//	./phrasevar-repl < phrases.txt    # batch, no prompt
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	phrasevar "github.com/Paranoid-AF/phrasevar"
	"github.com/Paranoid-AF/phrasevar/generate"
)

const prompt = "> "

func main() {
	configPath := flag.String("config", "", "config file (default: "+phrasevar.ConfigPath()+")")
	verbose := flag.Bool("verbose", false, "enable debug logs")
	flag.Parse()

	level := slog.LevelWarn
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	var cfg *phrasevar.Config
	var err error
	if *configPath != "" {
		cfg, err = phrasevar.LoadConfigFile(*configPath)
	} else {
		cfg, err = phrasevar.LoadConfig()
	}
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}

	engine, err := generate.NewEngine(cfg, generate.Options{})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer engine.Close()

	reader, err := NewLineReader(prompt)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
	defer reader.Close()

	if _, ok := reader.(*Editor); ok {
		fmt.Fprintf(reader, "phrasevar repl (%s, %s)\n", cfg.Generation.APIType, phrasevar.ResolveGenerationModel(cfg))
		fmt.Fprintf(reader, "\ncommands:\n  :quit        exit\n\n")
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := loop(ctx, engine, reader, termWriter(os.Stdout)); err != nil {
		fmt.Fprintf(reader, "error: %v\n", err)
	}
}

// Varier processes a single phrase.
type Varier interface {
	Process(ctx context.Context, phrase string) (*phrasevar.Triplet, error)
}

// loop reads phrases until EOF, :quit or cancellation.
func loop(ctx context.Context, engine Varier, reader LineReader, out io.Writer) error {
	for {
		text, err := reader.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}

		text = strings.TrimSpace(text)
		if text == "" {
			continue
		}
		if text == ":quit" || text == ":q" {
			return nil
		}

		start := time.Now()
		t, err := engine.Process(ctx, text)
		if err != nil && ctx.Err() != nil {
			return nil
		}
		e := newEntry(text, t, time.Since(start), err)

		writeSummary(reader, e)
		if err := writeEntry(out, e); err != nil {
			return err
		}
	}
}
