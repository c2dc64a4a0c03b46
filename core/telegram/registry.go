package telegram

import (
	"fmt"
	"log/slog"
	"slices"
	"strings"

	"github.com/m3rciful/meteobot/core/logger"
	"github.com/m3rciful/meteobot/core/telegram/commands"

	tele "gopkg.in/telebot.v4"
)

// Registry holds the bot commands known to the transport.
type Registry struct {
	commands map[string]commands.Command
	aliases  map[string]string
}

// NewRegistry creates an empty Registry.
func NewRegistry() *Registry {
	return &Registry{
		commands: make(map[string]commands.Command),
		aliases:  make(map[string]string),
	}
}

func canonical(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	if name != "" && !strings.HasPrefix(name, "/") {
		name = "/" + name
	}
	return name
}

// RegisterCommand adds cmd under name, which must start with a slash.
// Aliases may be given with or without the slash.
func (r *Registry) RegisterCommand(name string, cmd commands.Command) error {
	key := strings.ToLower(strings.TrimSpace(name))
	switch {
	case !strings.HasPrefix(key, "/") || len(key) < 2:
		return fmt.Errorf("telegram: command %q must start with a slash", name)
	case cmd.Description == "":
		return fmt.Errorf("telegram: command %s has no description", key)
	}
	if _, taken := r.commands[key]; taken {
		return fmt.Errorf("telegram: command %s registered twice", key)
	}
	if _, taken := r.aliases[key]; taken {
		return fmt.Errorf("telegram: command %s shadows an alias", key)
	}
	r.commands[key] = cmd
	for _, alias := range cmd.Aliases {
		r.aliases[canonical(alias)] = key
	}
	logger.LogEvent(logger.Background(), logger.TWire, slog.LevelDebug, "register.command",
		slog.String("name", key), slog.Int("aliases", len(cmd.Aliases)))
	return nil
}

// ListCommands returns the commands sorted by name, optionally without
// hidden ones. Text carries no leading slash, as the Bot API expects.
func (r *Registry) ListCommands(visibleOnly bool) []tele.Command {
	list := make([]tele.Command, 0, len(r.commands))
	for key, cmd := range r.commands {
		if visibleOnly && cmd.Hidden {
			continue
		}
		list = append(list, tele.Command{Text: key[1:], Description: cmd.Description})
	}
	slices.SortFunc(list, func(a, b tele.Command) int { return strings.Compare(a.Text, b.Text) })
	return list
}

// LookupCommand resolves a command name or alias to its canonical key.
func (r *Registry) LookupCommand(name string) (string, commands.Command, bool) {
	if r == nil {
		return "", commands.Command{}, false
	}
	key := canonical(name)
	if target, ok := r.aliases[key]; ok {
		key = target
	}
	cmd, ok := r.commands[key]
	if !ok {
		return "", commands.Command{}, false
	}
	return key, cmd, true
}

// CommandSetter is the part of tele.API used to publish the command menu.
type CommandSetter interface {
	SetCommands(opts ...any) error
}

// PublishCommands installs the visible commands as the bot's menu. An empty
// registry publishes nothing.
func PublishCommands(api CommandSetter, reg *Registry) error {
	list := reg.ListCommands(true)
	if len(list) == 0 {
		return nil
	}
	ctx := logger.Background()
	if err := api.SetCommands(list); err != nil {
		logger.LogEvent(ctx, logger.TWire, slog.LevelError, "register.commands",
			slog.String("status", "fail"),
			slog.String("err", logger.SanitizeLimit(err.Error(), 256)),
		)
		return fmt.Errorf("telegram: set commands: %w", err)
	}
	logger.LogEvent(ctx, logger.TWire, slog.LevelInfo, "register.commands",
		slog.String("status", "ok"), slog.Int("count", len(list)))
	return nil
}
