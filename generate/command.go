package generate

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strconv"
	"strings"

	"mvdan.cc/sh/v3/shell"
)

// CommandGenerator runs a local command once per candidate.
// The command line is split like a POSIX shell would; $PROMPT expands to the
// truncated prompt, and $MIN_TOKENS, $MAX_TOKENS and $TEMPERATURE to the
// sampling parameters. The prompt is also written to the command's stdin.
type CommandGenerator struct {
	command string
	params  Params
}

// NewCommandGenerator validates the command line and creates a generator for it.
func NewCommandGenerator(command string, params Params) (*CommandGenerator, error) {
	g := &CommandGenerator{command: command, params: params}
	args, err := g.argv("")
	if err != nil {
		return nil, fmt.Errorf("parse generation command: %w", err)
	}
	if len(args) == 0 {
		return nil, errors.New("generation command is empty")
	}
	return g, nil
}

// vars returns the variables made available to the command.
func (g *CommandGenerator) vars(prompt string) map[string]string {
	return map[string]string{
		"PROMPT":      prompt,
		"MIN_TOKENS":  strconv.Itoa(g.params.MinTokens),
		"MAX_TOKENS":  strconv.Itoa(g.params.MaxTokens),
		"TEMPERATURE": strconv.FormatFloat(g.params.effectiveTemperature(), 'f', -1, 64),
	}
}

func (g *CommandGenerator) argv(prompt string) ([]string, error) {
	vars := g.vars(prompt)
	return shell.Fields(g.command, func(name string) string {
		if v, ok := vars[name]; ok {
			return v
		}
		return os.Getenv(name)
	})
}

// Generate runs the command NumReturnSequences times and returns each stdout.
func (g *CommandGenerator) Generate(ctx context.Context, prompt string) ([]string, error) {
	args, err := g.argv(prompt)
	if err != nil {
		return nil, err
	}

	env := os.Environ()
	for k, v := range g.vars(prompt) {
		env = append(env, k+"="+v)
	}

	n := max(g.params.NumReturnSequences, 1)
	out := make([]string, 0, n)
	for range n {
		cmd := exec.CommandContext(ctx, args[0], args[1:]...)
		cmd.Env = env
		cmd.Stdin = strings.NewReader(prompt)
		stdout, err := cmd.Output()
		if err != nil {
			return nil, fmt.Errorf("%s: %w", args[0], err)
		}
		out = append(out, strings.TrimRight(string(stdout), " \t\r\n"))
	}
	return out, nil
}

// Close is a no-op; each candidate runs in its own process.
func (g *CommandGenerator) Close() {}
