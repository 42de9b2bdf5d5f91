package main

import (
	"bufio"
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/jellydator/ttlcache/v3"

	phrasevar "github.com/Paranoid-AF/phrasevar"
	defaults "github.com/Paranoid-AF/phrasevar/default"
	"github.com/Paranoid-AF/phrasevar/generate"
)

// tripletTTL is how long a completed triplet is served from the cache.
const tripletTTL = time.Hour

// Varier turns a phrase into a variation triplet.
type Varier interface {
	Process(ctx context.Context, phrase string) (*phrasevar.Triplet, error)
	Close()
}

// EngineFactory builds a Varier from the current configuration.
type EngineFactory func() (Varier, error)

// Server listens on a Unix domain socket for variation requests.
type Server struct {
	listener  net.Listener
	sockPath  string
	newEngine EngineFactory
	triplets  *ttlcache.Cache[string, phrasevar.Triplet]
	closeOnce sync.Once

	// mu guards engine and serializes generation; an engine's sampler is not
	// safe for concurrent use.
	mu        sync.Mutex
	engine    Varier
	engineErr error
}

// NewServer creates a new IPC server bound to the given socket path, using
// the engine described by the user's config.
func NewServer(sockPath string) (*Server, error) {
	return NewServerWithFactory(sockPath, loadEngine)
}

// loadEngine builds a generation engine from the config on disk.
func loadEngine() (Varier, error) {
	cfg, err := phrasevar.LoadConfig()
	if err != nil {
		return nil, err
	}
	for _, w := range phrasevar.ValidateConfig(cfg) {
		slog.Warn("config", "warning", w)
	}
	engine, err := generate.NewEngine(cfg, generate.Options{})
	if err != nil {
		return nil, err
	}
	return engine, nil
}

// NewServerWithFactory creates a new IPC server whose engine is built by newEngine.
// A factory error does not prevent the server from starting; variation requests
// are answered with "not_configured" until a reload succeeds.
func NewServerWithFactory(sockPath string, newEngine EngineFactory) (*Server, error) {
	// Remove stale socket file if it exists
	if err := os.Remove(sockPath); err != nil && !os.IsNotExist(err) {
		return nil, err
	}

	listener, err := net.Listen("unix", sockPath)
	if err != nil {
		return nil, err
	}

	triplets := ttlcache.New(
		ttlcache.WithTTL[string, phrasevar.Triplet](tripletTTL),
		ttlcache.WithDisableTouchOnHit[string, phrasevar.Triplet](),
	)
	go triplets.Start()

	s := &Server{
		listener:  listener,
		sockPath:  sockPath,
		newEngine: newEngine,
		triplets:  triplets,
	}
	s.engine, s.engineErr = newEngine()
	if s.engineErr != nil {
		slog.Warn("engine not configured", "error", s.engineErr)
	}
	return s, nil
}

// Serve accepts connections and handles requests.
func (s *Server) Serve() error {
	for {
		conn, err := s.listener.Accept()
		if err != nil {
			return err
		}
		go s.handleConn(conn)
	}
}

// Close shuts down the server, the engine and the cache, and removes the socket file.
func (s *Server) Close() {
	s.closeOnce.Do(func() {
		s.listener.Close()
		s.triplets.Stop()
		s.mu.Lock()
		if s.engine != nil {
			s.engine.Close()
			s.engine = nil
		}
		s.mu.Unlock()
		os.Remove(s.sockPath)
	})
}

func (s *Server) handleConn(conn net.Conn) {
	defer conn.Close()

	scanner := bufio.NewScanner(conn)
	if !scanner.Scan() {
		return
	}

	raw := scanner.Bytes()
	slog.Debug("request", "data", string(raw))

	// Check if this is a config request (has "action" field)
	var cfgReq phrasevar.ConfigRequest
	if err := json.Unmarshal(raw, &cfgReq); err == nil && cfgReq.Action != "" {
		writeJSON(conn, s.handleConfigRequest(&cfgReq))
		return
	}

	var req phrasevar.Request
	if err := json.Unmarshal(raw, &req); err != nil {
		slog.Warn("invalid request", "error", err)
		return
	}

	// A client that hangs up no longer wants the triplet; stop generating.
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() {
		io.Copy(io.Discard, conn)
		cancel()
	}()

	resp := s.vary(ctx, &req)

	// If cancelled, skip writing: the client has already gone.
	if ctx.Err() != nil {
		return
	}

	resp.RequestID = req.RequestID
	writeJSON(conn, resp)
}

// vary answers a variation request from the cache or the engine.
func (s *Server) vary(ctx context.Context, req *phrasevar.Request) *phrasevar.Response {
	phrase := strings.TrimSpace(req.Phrase)
	if phrase == "" {
		return errorResponse(phrase, "invalid_request", "phrase is required")
	}

	if !req.Fresh {
		if item := s.triplets.Get(phrase); item != nil {
			t := item.Value()
			resp := tripletResponse(&t)
			resp.Cached = true
			return resp
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.engine == nil {
		msg := "generation engine is not configured"
		if s.engineErr != nil {
			msg += ": " + s.engineErr.Error()
		}
		return errorResponse(phrase, "not_configured", msg)
	}

	t, err := s.engine.Process(ctx, phrase)
	if err != nil {
		return errorResponse(phrase, "api_error", err.Error())
	}
	if t.Complete() {
		s.triplets.Set(t.Phrase, *t, ttlcache.DefaultTTL)
	}
	return tripletResponse(t)
}

func tripletResponse(t *phrasevar.Triplet) *phrasevar.Response {
	variations := make([]string, len(t.Variations))
	copy(variations, t.Variations)
	return &phrasevar.Response{
		Phrase:     t.Phrase,
		Outcome:    t.Outcome,
		Variations: variations,
		Rounds:     t.Rounds,
	}
}

func errorResponse(phrase, code, message string) *phrasevar.Response {
	return &phrasevar.Response{
		Phrase:     phrase,
		Variations: []string{},
		Error:      &phrasevar.Error{Code: code, Message: message},
	}
}

func (s *Server) handleConfigRequest(req *phrasevar.ConfigRequest) *phrasevar.ConfigResponse {
	var resp phrasevar.ConfigResponse

	switch req.Action {
	case "get":
		cfg, err := phrasevar.LoadConfig()
		if err != nil {
			resp.Error = &phrasevar.Error{Code: "config_error", Message: err.Error()}
		} else {
			resp.Config = cfg
		}

	case "reload":
		if err := s.reloadEngine(); err != nil {
			resp.Error = &phrasevar.Error{Code: "config_error", Message: err.Error()}
		}
		cfg, _ := phrasevar.LoadConfig()
		resp.Config = cfg

	case "defaults":
		resp.Config = phrasevar.DefaultConfig()

	case "default_prompt":
		resp.Prompt = defaults.DefaultPrompt

	case "validate":
		cfg, err := phrasevar.LoadConfig()
		if err != nil {
			resp.Error = &phrasevar.Error{Code: "config_error", Message: err.Error()}
		} else {
			resp.Warnings = phrasevar.ValidateConfig(cfg)
		}

	default:
		resp.Error = &phrasevar.Error{
			Code:    "unknown_action",
			Message: "unknown config action: " + req.Action,
		}
	}
	return &resp
}

// reloadEngine replaces the engine with one built from the current config and
// drops cached triplets produced under the old settings.
func (s *Server) reloadEngine() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.engine != nil {
		s.engine.Close()
	}
	s.engine, s.engineErr = s.newEngine()
	s.triplets.DeleteAll()
	if s.engineErr != nil {
		slog.Warn("engine reload failed", "error", s.engineErr)
		return s.engineErr
	}
	slog.Info("engine reloaded")
	return nil
}

func writeJSON(w io.Writer, v any) {
	data, err := json.Marshal(v)
	if err != nil {
		slog.Error("failed to marshal response", "error", err)
		return
	}

	slog.Debug("response", "data", string(data))

	w.Write(append(data, '\n'))
}
