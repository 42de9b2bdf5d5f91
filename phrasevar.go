// Package phrasevar defines the shared types for phrase variation generation
// and the request/response types for phrasevar IPC.
// IPC messages are JSON-encoded and sent over a Unix domain socket, one per line.
package phrasevar

// Outcome describes how processing of a single phrase ended.
type Outcome string

const (
	// OutcomeComplete means the full set of variations was found.
	OutcomeComplete Outcome = "complete"
	// OutcomeAbandoned means the round budget ran out first. No variations are kept.
	OutcomeAbandoned Outcome = "abandoned"
	// OutcomeSkipped means the phrase was too short to be varied.
	OutcomeSkipped Outcome = "skipped"
)

// Triplet is the result of processing one phrase.
// Only triplets with OutcomeComplete carry variations.
type Triplet struct {
	// Phrase is the trimmed source phrase.
	Phrase string `json:"phrase"`
	// Variations holds the accepted variations in acceptance order.
	Variations []string `json:"variations"`
	// Outcome is the terminal state reached for the phrase.
	Outcome Outcome `json:"outcome"`
	// Rounds is the number of generation rounds spent on the phrase.
	Rounds int `json:"rounds"`
}

// Complete reports whether the triplet should be written downstream.
func (t *Triplet) Complete() bool {
	return t != nil && t.Outcome == OutcomeComplete
}

// Lines returns the phrase followed by its variations, one entry per output line.
func (t *Triplet) Lines() []string {
	lines := make([]string, 0, len(t.Variations)+1)
	lines = append(lines, t.Phrase)
	lines = append(lines, t.Variations...)
	return lines
}

// Request is sent from a client to the daemon.
type Request struct {
	// RequestID is a client-assigned identifier echoed back in the response.
	RequestID int `json:"request_id"`
	// Phrase is the source phrase to vary.
	Phrase string `json:"phrase"`
	// Fresh skips the daemon's triplet cache and always generates.
	Fresh bool `json:"fresh,omitempty"`
}

// Response is sent from the daemon back to the client.
type Response struct {
	// RequestID is echoed from the request.
	RequestID int `json:"request_id"`
	// Phrase is the trimmed source phrase.
	Phrase string `json:"phrase"`
	// Outcome is the terminal state reached for the phrase.
	Outcome Outcome `json:"outcome,omitempty"`
	// Variations is empty unless Outcome is "complete".
	Variations []string `json:"variations"`
	// Rounds is the number of generation rounds spent.
	Rounds int `json:"rounds"`
	// Cached is true when the triplet was served from the daemon cache.
	Cached bool `json:"cached,omitempty"`
	// Error is set when the daemon cannot fulfill the request.
	Error *Error `json:"error,omitempty"`
}

// Error describes a daemon-side error returned to the client.
type Error struct {
	// Code is a machine-readable error identifier (e.g. "not_configured", "api_error").
	Code string `json:"code"`
	// Message is a human-readable error description.
	Message string `json:"message"`
}

// ConfigRequest is sent from a client for configuration operations.
type ConfigRequest struct {
	// Action is the config operation: "get", "reload", "defaults", "default_prompt" or "validate".
	Action string `json:"action"`
}

// ConfigResponse is sent from the daemon in response to a ConfigRequest.
type ConfigResponse struct {
	// Config is the current configuration (for "get", "reload", and "defaults" actions).
	Config *Config `json:"config,omitempty"`
	// Prompt is the default prompt template (for "default_prompt" action).
	Prompt string `json:"prompt,omitempty"`
	// Warnings contains configuration warnings (for "validate" action).
	Warnings []string `json:"warnings,omitempty"`
	// Error is set when the operation fails.
	Error *Error `json:"error,omitempty"`
}
