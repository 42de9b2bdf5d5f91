package generate

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"strings"
	"text/template"
	"time"

	openai "github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	phrasevar "github.com/Paranoid-AF/phrasevar"
	defaults "github.com/Paranoid-AF/phrasevar/default"
)

// requestTimeout bounds a single generation request to the API.
const requestTimeout = 30 * time.Second

// Client produces a batch of raw continuations for a prompt.
type Client interface {
	Generate(ctx context.Context, prompt string) ([]string, error)
	Close()
}

// Params are the sampling parameters shared by every backend. They are fixed for a run.
type Params struct {
	MinTokens          int
	MaxTokens          int
	LengthPenalty      float64
	NumReturnSequences int
	DoSample           bool
	Temperature        float64
}

// ParamsFromConfig extracts the sampling parameters from cfg.
func ParamsFromConfig(cfg *phrasevar.Config) Params {
	g := cfg.Generation
	return Params{
		MinTokens:          g.MinTokens,
		MaxTokens:          g.MaxTokens,
		LengthPenalty:      g.LengthPenalty,
		NumReturnSequences: g.NumReturnSequences,
		DoSample:           phrasevar.SamplingEnabled(cfg),
		Temperature:        g.Temperature,
	}
}

// effectiveTemperature maps disabled sampling to greedy decoding.
func (p Params) effectiveTemperature() float64 {
	if !p.DoSample {
		return 0
	}
	return p.Temperature
}

// NewClient creates the generation backend selected by generation.api_type.
func NewClient(cfg *phrasevar.Config) (Client, error) {
	params := ParamsFromConfig(cfg)
	switch cfg.Generation.APIType {
	case "command":
		return NewCommandGenerator(cfg.Generation.Command, params)
	case "completions", "chat_completions", "":
		return NewGenerator(
			phrasevar.ResolveGenerationBaseURL(cfg),
			phrasevar.ResolveGenerationAPIKey(cfg),
			phrasevar.ResolveGenerationModel(cfg),
			cfg.Generation.APIType,
			params,
			loadCustomPrompt(),
		), nil
	default:
		return nil, fmt.Errorf("generation api_type %q not supported", cfg.Generation.APIType)
	}
}

// loadCustomPrompt loads a custom chat system prompt template.
// Returns empty string if no custom prompt exists.
func loadCustomPrompt() string {
	promptPath := phrasevar.PromptPath()
	data, err := os.ReadFile(promptPath)
	if err != nil {
		return ""
	}
	slog.Info("loaded custom prompt", "path", promptPath)
	return string(data)
}

// Generator performs text generation via an OpenAI-compatible API.
type Generator struct {
	client       openai.Client
	model        string
	apiType      string // "completions" or "chat_completions"
	params       Params
	systemPrompt string
}

// NewGenerator creates a generator for the given endpoint.
// promptTemplate is only used by the chat API; empty selects the built-in default.
func NewGenerator(baseURL, apiKey, model, apiType string, params Params, promptTemplate string) *Generator {
	opts := []option.RequestOption{
		option.WithMaxRetries(0), // the engine owns the retry policy
		option.WithRequestTimeout(requestTimeout),
	}
	if baseURL != "" {
		opts = append(opts, option.WithBaseURL(baseURL))
	}
	if apiKey != "" {
		opts = append(opts, option.WithAPIKey(apiKey))
	}
	return &Generator{
		client:       openai.NewClient(opts...),
		model:        model,
		apiType:      apiType,
		params:       params,
		systemPrompt: renderSystemPrompt(promptTemplate, params),
	}
}

// Generate requests NumReturnSequences continuations of prompt.
// Each returned string starts with the prompt, like a causal language model's output.
func (g *Generator) Generate(ctx context.Context, prompt string) ([]string, error) {
	if g.apiType == "chat_completions" {
		return g.generateChatCompletions(ctx, prompt)
	}
	return g.generateCompletions(ctx, prompt)
}

// Close is a no-op (no subprocess to manage).
func (g *Generator) Close() {}

// extraFields sends the sampling controls that the OpenAI schema lacks.
// vLLM-style servers honour them; others ignore unknown fields.
func (g *Generator) extraFields() []option.RequestOption {
	return []option.RequestOption{
		option.WithJSONSet("min_tokens", g.params.MinTokens),
		option.WithJSONSet("length_penalty", g.params.LengthPenalty),
	}
}

// --- Completions API ---

func (g *Generator) generateCompletions(ctx context.Context, prompt string) ([]string, error) {
	resp, err := g.client.Completions.New(ctx, openai.CompletionNewParams{
		Model: openai.CompletionNewParamsModel(g.model),
		Prompt: openai.CompletionNewParamsPromptUnion{
			OfString: openai.String(prompt),
		},
		MaxTokens:   openai.Int(int64(g.params.MaxTokens)),
		N:           openai.Int(int64(g.params.NumReturnSequences)),
		Temperature: openai.Float(g.params.effectiveTemperature()),
	}, g.extraFields()...)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no choices in response")
	}

	out := make([]string, 0, len(resp.Choices))
	for _, c := range resp.Choices {
		out = append(out, prompt+c.Text)
	}
	return out, nil
}

// --- Chat Completions API ---

func (g *Generator) generateChatCompletions(ctx context.Context, prompt string) ([]string, error) {
	resp, err := g.client.Chat.Completions.New(ctx, openai.ChatCompletionNewParams{
		Model: openai.ChatModel(g.model),
		Messages: []openai.ChatCompletionMessageParamUnion{
			openai.SystemMessage(g.systemPrompt),
			openai.UserMessage(prompt),
		},
		MaxTokens:   openai.Int(int64(g.params.MaxTokens)),
		N:           openai.Int(int64(g.params.NumReturnSequences)),
		Temperature: openai.Float(g.params.effectiveTemperature()),
	}, g.extraFields()...)
	if err != nil {
		return nil, err
	}
	if len(resp.Choices) == 0 {
		return nil, errors.New("no choices in response")
	}

	out := make([]string, 0, len(resp.Choices))
	for _, c := range resp.Choices {
		out = append(out, withPrompt(prompt, c.Message.Content))
	}
	return out, nil
}

// withPrompt ensures a chat reply starts with the prompt it continues.
func withPrompt(prompt, content string) string {
	content = strings.TrimSpace(content)
	if strings.HasPrefix(content, prompt) {
		return content
	}
	return prompt + " " + content
}

// promptData holds the data passed to the system prompt template.
type promptData struct {
	MinTokens int
	MaxTokens int
}

// renderSystemPrompt renders the chat system prompt, falling back to the default template.
func renderSystemPrompt(tmplSrc string, params Params) string {
	if tmplSrc == "" {
		tmplSrc = defaults.DefaultPrompt
	}
	data := promptData{MinTokens: params.MinTokens, MaxTokens: params.MaxTokens}

	t, err := template.New("prompt").Parse(tmplSrc)
	if err != nil {
		slog.Warn("failed to parse prompt template, falling back to default", "error", err)
		t = template.Must(template.New("prompt").Parse(defaults.DefaultPrompt))
	}

	var buf strings.Builder
	if err := t.Execute(&buf, data); err != nil {
		slog.Warn("failed to execute prompt template, falling back to default", "error", err)
		buf.Reset()
		template.Must(template.New("prompt").Parse(defaults.DefaultPrompt)).Execute(&buf, data)
	}
	return strings.TrimRight(buf.String(), " \t\n")
}
