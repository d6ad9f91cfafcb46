package bot

import (
	"context"
	"strings"
)

// CommandFunc produces the reply for a fixed command.
type CommandFunc func(ctx context.Context, userID string) Reply

// Command is a fixed slash command.
type Command struct {
	Name        string // without the leading slash
	Description string
	Handle      CommandFunc
}

// Registry manages fixed commands and dispatches them by name.
type Registry struct {
	commands []Command
}

// NewRegistry creates a new command registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make([]Command, 0),
	}
}

// Register adds a command. A later registration with the same name wins.
func (r *Registry) Register(c Command) {
	name := strings.ToLower(c.Name)
	c.Name = name
	for i, existing := range r.commands {
		if existing.Name == name {
			r.commands[i] = c
			return
		}
	}
	r.commands = append(r.commands, c)
}

// Lookup returns the command addressed by text. Text must start with '/';
// an "@botname" suffix and trailing arguments are ignored.
func (r *Registry) Lookup(text string) (Command, bool) {
	name, ok := ParseCommand(text)
	if !ok {
		return Command{}, false
	}
	for _, c := range r.commands {
		if c.Name == name {
			return c, true
		}
	}
	return Command{}, false
}

// Commands returns the registered commands in registration order.
func (r *Registry) Commands() []Command {
	out := make([]Command, len(r.commands))
	copy(out, r.commands)
	return out
}

// ParseCommand extracts the lower-cased command name from text such as
// "/start", "/Help@codered_bot" or "/reset now".
func ParseCommand(text string) (string, bool) {
	text = strings.TrimSpace(text)
	if !strings.HasPrefix(text, "/") {
		return "", false
	}
	word, _, _ := strings.Cut(text[1:], " ")
	word, _, _ = strings.Cut(word, "\n")
	name, _, _ := strings.Cut(word, "@")
	if name == "" {
		return "", false
	}
	return strings.ToLower(name), true
}

// staticReply returns a CommandFunc that always replies with markdown text.
func staticReply(text string) CommandFunc {
	return func(context.Context, string) Reply {
		return Reply{Text: text, Markdown: true}
	}
}
