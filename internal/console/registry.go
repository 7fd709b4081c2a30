package console

import (
	"context"
	"fmt"
	"sort"
	"strings"
)

// CommandDefinition defines a command with its aliases and handler.
type CommandDefinition struct {
	Canonical   string
	Variations  []string
	Usage       string
	Description string
	MinParams   int
	MaxParams   int
	Handler     CommandHandler
}

// CommandHandler processes a matched command.
type CommandHandler func(ctx context.Context, params []string) (*CommandResponse, error)

type CommandResponse struct {
	Success bool
	Message string
	Quit    bool
}

// CommandRegistry holds all available commands.
type CommandRegistry struct {
	commands map[string]*CommandDefinition
	aliases  map[string]string
}

func NewCommandRegistry() *CommandRegistry {
	return &CommandRegistry{
		commands: make(map[string]*CommandDefinition),
		aliases:  make(map[string]string),
	}
}

func (r *CommandRegistry) register(def *CommandDefinition) {
	r.commands[def.Canonical] = def
	for _, v := range def.Variations {
		r.aliases[v] = def.Canonical
	}
}

// FindCommand matches the first word of input against canonical names and
// aliases, case-insensitively. Parameters keep their case.
func (r *CommandRegistry) FindCommand(input string) (*CommandDefinition, []string, bool) {
	tokens := strings.Fields(input)
	if len(tokens) == 0 {
		return nil, nil, false
	}
	name := strings.ToLower(tokens[0])
	if cmd, ok := r.commands[name]; ok {
		return cmd, tokens[1:], true
	}
	if canonical, ok := r.aliases[name]; ok {
		return r.commands[canonical], tokens[1:], true
	}
	return nil, nil, false
}

// Process runs the command in input.
func (r *CommandRegistry) Process(ctx context.Context, input string) (*CommandResponse, error) {
	cmd, params, found := r.FindCommand(input)
	if !found {
		return &CommandResponse{
			Message: fmt.Sprintf("⚠️ Command not recognized: %s (type help)", strings.TrimSpace(input)),
		}, nil
	}
	if len(params) < cmd.MinParams || len(params) > cmd.MaxParams {
		return &CommandResponse{Message: formatInvalidParams(cmd, len(params))}, nil
	}
	return cmd.Handler(ctx, params)
}

// Definitions returns every command sorted by canonical name.
func (r *CommandRegistry) Definitions() []*CommandDefinition {
	out := make([]*CommandDefinition, 0, len(r.commands))
	for _, c := range r.commands {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Canonical < out[j].Canonical })
	return out
}

func formatInvalidParams(cmd *CommandDefinition, got int) string {
	expected := fmt.Sprintf("%d", cmd.MinParams)
	if cmd.MaxParams != cmd.MinParams {
		expected = fmt.Sprintf("%d-%d", cmd.MinParams, cmd.MaxParams)
	}
	return fmt.Sprintf("⚠️ Invalid parameters for %s: expected %s, got %d\nusage: %s", cmd.Canonical, expected, got, cmd.Usage)
}
