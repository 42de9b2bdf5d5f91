// Command phrasevard is the phrasevar daemon.
// It listens on a Unix domain socket for phrases and answers each with a
// variation triplet, caching completed triplets for an hour.
package main

import (
	"flag"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
)

// Version is set at build time via -ldflags.
var Version = "dev"

func main() {
	showVersion := flag.Bool("version", false, "print version and exit")
	verbose := flag.Bool("verbose", false, "log every request and response")
	flag.Parse()

	if *showVersion {
		fmt.Println("phrasevard", Version)
		os.Exit(0)
	}

	level := slog.LevelInfo
	if *verbose {
		level = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level})))

	socketPath := resolveSocketPath()

	slog.Info("starting", "socket", socketPath)

	srv, err := NewServer(socketPath)
	if err != nil {
		slog.Error("failed to start server", "error", err)
		os.Exit(1)
	}
	defer srv.Close()

	sigCh := make(chan os.Signal, 1)
	signal.Notify(sigCh, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-sigCh
		slog.Info("shutting down")
		srv.Close()
		os.Exit(0)
	}()

	slog.Info("ready")
	if err := srv.Serve(); err != nil {
		slog.Error("server error", "error", err)
		os.Exit(1)
	}
}

// resolveSocketPath returns the daemon socket path.
// Resolution order: $PHRASEVAR_SOCKET > $XDG_RUNTIME_DIR/phrasevar.sock > /tmp/phrasevar-<uid>.sock
func resolveSocketPath() string {
	if path := os.Getenv("PHRASEVAR_SOCKET"); path != "" {
		return path
	}
	if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
		return dir + "/phrasevar.sock"
	}
	return fmt.Sprintf("/tmp/phrasevar-%d.sock", os.Getuid())
}
