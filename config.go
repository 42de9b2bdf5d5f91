package phrasevar

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	defaults "github.com/Paranoid-AF/phrasevar/default"
)

// Config represents the user's phrasevar configuration.
type Config struct {
	Version    int              `json:"version"`
	Generation GenerationConfig `json:"generation"`
	Variations VariationConfig  `json:"variations"`
	Embedding  EmbeddingConfig  `json:"embedding"`
}

// GenerationConfig holds settings for the generation backend.
// The sampling parameters are fixed for the whole run.
type GenerationConfig struct {
	BaseURL            string  `json:"base_url"`
	APIKey             string  `json:"api_key"`
	APIType            string  `json:"api_type"` // "completions", "chat_completions" or "command"
	Model              string  `json:"model"`
	Command            string  `json:"command,omitempty"`
	MinTokens          int     `json:"min_tokens,omitempty"`
	MaxTokens          int     `json:"max_tokens,omitempty"`
	LengthPenalty      float64 `json:"length_penalty,omitempty"`
	NumReturnSequences int     `json:"num_return_sequences,omitempty"`
	DoSample           *bool   `json:"do_sample,omitempty"`
	Temperature        float64 `json:"temperature,omitempty"`
	MaxRetries         int     `json:"max_retries,omitempty"`
}

// VariationConfig holds the per-phrase search policy.
type VariationConfig struct {
	Target         int `json:"target,omitempty"`
	MinWords       int `json:"min_words,omitempty"`
	MinPromptWords int `json:"min_prompt_words,omitempty"`
	MaxRounds      int `json:"max_rounds,omitempty"`
}

// EmbeddingConfig holds settings for the optional near-duplicate guard.
type EmbeddingConfig struct {
	BaseURL     string  `json:"base_url"`
	APIKey      string  `json:"api_key"`
	Model       string  `json:"model"`
	MinDistance float64 `json:"min_distance,omitempty"`
	TTLMinutes  int     `json:"ttl_minutes,omitempty"`
}

// ConfigDir returns the config directory path.
// Resolution order: $PHRASEVAR_CONFIG_DIR > $XDG_CONFIG_HOME/phrasevar > ~/.config/phrasevar
func ConfigDir() string {
	if dir := os.Getenv("PHRASEVAR_CONFIG_DIR"); dir != "" {
		return dir
	}
	if configHome := os.Getenv("XDG_CONFIG_HOME"); configHome != "" {
		return filepath.Join(configHome, "phrasevar")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return filepath.Join("/tmp", "phrasevar-config")
	}
	return filepath.Join(home, ".config", "phrasevar")
}

// ConfigPath returns the full path to the config file.
func ConfigPath() string {
	return filepath.Join(ConfigDir(), "config.json")
}

// PromptPath returns the prompt file path.
func PromptPath() string {
	return filepath.Join(ConfigDir(), "prompt.md")
}

// DefaultConfig returns the default configuration from the embedded default_config.json.
func DefaultConfig() *Config {
	var cfg Config
	if err := json.Unmarshal(defaults.DefaultConfigJSON, &cfg); err != nil {
		panic("phrasevar: invalid embedded default_config.json: " + err.Error())
	}
	return &cfg
}

// LoadConfig loads config from disk or returns defaults if not found.
func LoadConfig() (*Config, error) {
	return LoadConfigFile(ConfigPath())
}

// LoadConfigFile loads config from path, filling missing fields with defaults.
// A missing file yields the defaults.
func LoadConfigFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return DefaultConfig(), nil
		}
		return nil, err
	}

	var cfg Config
	if err := json.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	applyDefaults(&cfg)
	return &cfg, nil
}

func applyDefaults(cfg *Config) {
	d := DefaultConfig()
	g := &cfg.Generation
	if g.BaseURL == "" {
		g.BaseURL = d.Generation.BaseURL
	}
	if g.APIType == "" {
		g.APIType = d.Generation.APIType
	}
	if g.Model == "" {
		g.Model = d.Generation.Model
	}
	if g.MinTokens == 0 {
		g.MinTokens = d.Generation.MinTokens
	}
	if g.MaxTokens == 0 {
		g.MaxTokens = d.Generation.MaxTokens
	}
	if g.LengthPenalty == 0 {
		g.LengthPenalty = d.Generation.LengthPenalty
	}
	if g.NumReturnSequences == 0 {
		g.NumReturnSequences = d.Generation.NumReturnSequences
	}
	if g.DoSample == nil {
		g.DoSample = d.Generation.DoSample
	}
	if g.Temperature == 0 {
		g.Temperature = d.Generation.Temperature
	}
	if g.MaxRetries == 0 {
		g.MaxRetries = d.Generation.MaxRetries
	}

	v := &cfg.Variations
	if v.Target == 0 {
		v.Target = d.Variations.Target
	}
	if v.MinWords == 0 {
		v.MinWords = d.Variations.MinWords
	}
	if v.MinPromptWords == 0 {
		v.MinPromptWords = d.Variations.MinPromptWords
	}
	if v.MaxRounds == 0 {
		v.MaxRounds = d.Variations.MaxRounds
	}

	if cfg.Embedding.Model == "" {
		cfg.Embedding.Model = d.Embedding.Model
	}
	if cfg.Embedding.TTLMinutes == 0 {
		cfg.Embedding.TTLMinutes = d.Embedding.TTLMinutes
	}
}

// Validate returns an error when the configuration cannot drive a run.
func (c *Config) Validate() error {
	v := c.Variations
	if v.Target < 1 {
		return fmt.Errorf("variations.target must be >= 1")
	}
	if v.MaxRounds < 1 {
		return fmt.Errorf("variations.max_rounds must be >= 1")
	}
	if v.MinPromptWords < 1 {
		return fmt.Errorf("variations.min_prompt_words must be >= 1")
	}
	// The sampler range [min_prompt_words, n-1) must be non-empty for every accepted phrase.
	if v.MinWords < v.MinPromptWords+2 {
		return fmt.Errorf("variations.min_words must be >= min_prompt_words + 2")
	}
	g := c.Generation
	if g.NumReturnSequences < 1 {
		return fmt.Errorf("generation.num_return_sequences must be >= 1")
	}
	if g.MinTokens > g.MaxTokens {
		return fmt.Errorf("generation.min_tokens must be <= max_tokens")
	}
	switch g.APIType {
	case "completions", "chat_completions":
	case "command":
		if g.Command == "" {
			return fmt.Errorf("generation.command is required when api_type is \"command\"")
		}
	default:
		return fmt.Errorf("generation.api_type %q not supported", g.APIType)
	}
	return nil
}

// ValidateConfig checks configuration for potential issues and returns warnings.
func ValidateConfig(cfg *Config) []string {
	var warnings []string
	if cfg == nil {
		return warnings
	}
	if err := cfg.Validate(); err != nil {
		warnings = append(warnings, err.Error())
	}
	if cfg.Embedding.MinDistance > 0 && !EmbeddingEnabled(cfg) {
		warnings = append(warnings, "embedding.min_distance is set but embedding API is not configured; near-duplicate filtering is disabled")
	}
	if cfg.Generation.DoSample != nil && !*cfg.Generation.DoSample {
		warnings = append(warnings, "generation.do_sample is disabled; repeated rounds will mostly return the same candidates")
	}
	return warnings
}

// SamplingEnabled reports whether stochastic sampling is on (default true).
func SamplingEnabled(cfg *Config) bool {
	if cfg == nil || cfg.Generation.DoSample == nil {
		return true
	}
	return *cfg.Generation.DoSample
}

// ResolveGenerationBaseURL returns the generation API base URL.
// Priority: $PHRASEVAR_GENERATION_API_BASE_URL env > config value.
func ResolveGenerationBaseURL(cfg *Config) string {
	if url := os.Getenv("PHRASEVAR_GENERATION_API_BASE_URL"); url != "" {
		return url
	}
	if cfg != nil {
		return cfg.Generation.BaseURL
	}
	return ""
}

// ResolveGenerationAPIKey returns the generation API key.
// Priority: $PHRASEVAR_GENERATION_API_KEY env > config value.
func ResolveGenerationAPIKey(cfg *Config) string {
	if key := os.Getenv("PHRASEVAR_GENERATION_API_KEY"); key != "" {
		return key
	}
	if cfg != nil {
		return cfg.Generation.APIKey
	}
	return ""
}

// ResolveGenerationModel returns the generation model name.
// Priority: $PHRASEVAR_GENERATION_MODEL env > config value.
func ResolveGenerationModel(cfg *Config) string {
	if model := os.Getenv("PHRASEVAR_GENERATION_MODEL"); model != "" {
		return model
	}
	if cfg != nil {
		return cfg.Generation.Model
	}
	return ""
}

// ResolveEmbeddingBaseURL returns the embedding API base URL.
// Priority: $PHRASEVAR_EMBEDDING_API_BASE_URL env > config value.
func ResolveEmbeddingBaseURL(cfg *Config) string {
	if url := os.Getenv("PHRASEVAR_EMBEDDING_API_BASE_URL"); url != "" {
		return url
	}
	if cfg != nil {
		return cfg.Embedding.BaseURL
	}
	return ""
}

// ResolveEmbeddingAPIKey returns the embedding API key.
// Priority: $PHRASEVAR_EMBEDDING_API_KEY env > config value.
func ResolveEmbeddingAPIKey(cfg *Config) string {
	if key := os.Getenv("PHRASEVAR_EMBEDDING_API_KEY"); key != "" {
		return key
	}
	if cfg != nil {
		return cfg.Embedding.APIKey
	}
	return ""
}

// ResolveEmbeddingModel returns the embedding model name.
// Priority: $PHRASEVAR_EMBEDDING_MODEL env > config value.
func ResolveEmbeddingModel(cfg *Config) string {
	if model := os.Getenv("PHRASEVAR_EMBEDDING_MODEL"); model != "" {
		return model
	}
	if cfg != nil {
		return cfg.Embedding.Model
	}
	return ""
}

// EmbeddingEnabled returns true when both base_url and api_key are configured for embedding.
func EmbeddingEnabled(cfg *Config) bool {
	if cfg == nil {
		return false
	}
	return ResolveEmbeddingBaseURL(cfg) != "" && ResolveEmbeddingAPIKey(cfg) != ""
}

// NearDuplicateFilterEnabled returns true when the semantic guard should run.
func NearDuplicateFilterEnabled(cfg *Config) bool {
	return EmbeddingEnabled(cfg) && cfg.Embedding.MinDistance > 0
}
