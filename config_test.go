package phrasevar

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	dir := t.TempDir()
	t.Setenv("PHRASEVAR_CONFIG_DIR", dir)
	if err := os.WriteFile(filepath.Join(dir, "config.json"), []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return dir
}

func TestDefaultConfigMatchesOriginalGenerator(t *testing.T) {
	cfg := DefaultConfig()
	g := cfg.Generation
	if g.MinTokens != 3 || g.MaxTokens != 10 {
		t.Errorf("expected token bounds 3..10, got %d..%d", g.MinTokens, g.MaxTokens)
	}
	if g.LengthPenalty != 1000 {
		t.Errorf("expected length penalty 1000, got %v", g.LengthPenalty)
	}
	if g.NumReturnSequences != 12 {
		t.Errorf("expected 12 sequences, got %d", g.NumReturnSequences)
	}
	if g.Temperature != 1.5 {
		t.Errorf("expected temperature 1.5, got %v", g.Temperature)
	}
	if !SamplingEnabled(cfg) {
		t.Error("expected sampling enabled by default")
	}
	v := cfg.Variations
	if v.Target != 3 || v.MinWords != 5 || v.MinPromptWords != 3 || v.MaxRounds != 20 {
		t.Errorf("unexpected variation defaults: %+v", v)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("default config should validate: %v", err)
	}
}

func TestLoadConfigMissingFileUsesDefaults(t *testing.T) {
	t.Setenv("PHRASEVAR_CONFIG_DIR", t.TempDir())
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Variations.MaxRounds != 20 {
		t.Errorf("expected default max rounds, got %d", cfg.Variations.MaxRounds)
	}
}

func TestLoadConfigFillsMissingFields(t *testing.T) {
	writeConfig(t, `{"generation": {"model": "gpt2", "do_sample": false}, "variations": {"max_rounds": 5}}`)
	cfg, err := LoadConfig()
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Generation.Model != "gpt2" {
		t.Errorf("expected model gpt2, got %s", cfg.Generation.Model)
	}
	if SamplingEnabled(cfg) {
		t.Error("expected explicit do_sample=false to survive defaults")
	}
	if cfg.Variations.MaxRounds != 5 {
		t.Errorf("expected max rounds 5, got %d", cfg.Variations.MaxRounds)
	}
	if cfg.Variations.Target != 3 {
		t.Errorf("expected default target 3, got %d", cfg.Variations.Target)
	}
	if cfg.Generation.NumReturnSequences != 12 {
		t.Errorf("expected default batch size, got %d", cfg.Generation.NumReturnSequences)
	}
}

func TestLoadConfigInvalidJSON(t *testing.T) {
	writeConfig(t, `{not json`)
	if _, err := LoadConfig(); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidateRejectsEmptySamplerRange(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Variations.MinWords = 4
	err := cfg.Validate()
	if err == nil || !strings.Contains(err.Error(), "min_words") {
		t.Fatalf("expected min_words error, got %v", err)
	}
}

func TestValidateCommandRequiresCommand(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Generation.APIType = "command"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for empty command")
	}
	cfg.Generation.Command = `echo "$PROMPT"`
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
}

func TestValidateUnknownAPIType(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Generation.APIType = "grpc"
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error for unknown api type")
	}
}

func TestValidateConfigWarnsOnGuardWithoutEmbedding(t *testing.T) {
	t.Setenv("PHRASEVAR_EMBEDDING_API_BASE_URL", "")
	t.Setenv("PHRASEVAR_EMBEDDING_API_KEY", "")
	cfg := DefaultConfig()
	cfg.Embedding.MinDistance = 0.1
	warnings := ValidateConfig(cfg)
	if len(warnings) != 1 || !strings.Contains(warnings[0], "min_distance") {
		t.Errorf("expected min_distance warning, got %v", warnings)
	}
	if NearDuplicateFilterEnabled(cfg) {
		t.Error("guard should be disabled without embedding API")
	}
}

func TestResolveEnvOverrides(t *testing.T) {
	cfg := DefaultConfig()
	t.Setenv("PHRASEVAR_GENERATION_API_BASE_URL", "http://gen.local/v1")
	t.Setenv("PHRASEVAR_GENERATION_API_KEY", "gen-key")
	t.Setenv("PHRASEVAR_GENERATION_MODEL", "gpt2-medium")
	t.Setenv("PHRASEVAR_EMBEDDING_API_BASE_URL", "http://emb.local/v1")
	t.Setenv("PHRASEVAR_EMBEDDING_API_KEY", "emb-key")
	t.Setenv("PHRASEVAR_EMBEDDING_MODEL", "mini")

	if got := ResolveGenerationBaseURL(cfg); got != "http://gen.local/v1" {
		t.Errorf("base url: got %s", got)
	}
	if got := ResolveGenerationAPIKey(cfg); got != "gen-key" {
		t.Errorf("api key: got %s", got)
	}
	if got := ResolveGenerationModel(cfg); got != "gpt2-medium" {
		t.Errorf("model: got %s", got)
	}
	if got := ResolveEmbeddingModel(cfg); got != "mini" {
		t.Errorf("embedding model: got %s", got)
	}
	if !EmbeddingEnabled(cfg) {
		t.Error("expected embedding enabled from env")
	}
	cfg.Embedding.MinDistance = 0.05
	if !NearDuplicateFilterEnabled(cfg) {
		t.Error("expected guard enabled")
	}
}

func TestConfigDirResolution(t *testing.T) {
	t.Setenv("PHRASEVAR_CONFIG_DIR", "")
	t.Setenv("XDG_CONFIG_HOME", "/xdg")
	if got := ConfigDir(); got != "/xdg/phrasevar" {
		t.Errorf("expected /xdg/phrasevar, got %s", got)
	}
	t.Setenv("PHRASEVAR_CONFIG_DIR", "/custom")
	if got := ConfigPath(); got != "/custom/config.json" {
		t.Errorf("expected /custom/config.json, got %s", got)
	}
	if got := PromptPath(); got != "/custom/prompt.md" {
		t.Errorf("expected /custom/prompt.md, got %s", got)
	}
}
