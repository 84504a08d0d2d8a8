package help

import (
	"context"
	"fmt"
	"strings"

	"economy/bot/common"
)

// Feature lists the available commands
type Feature struct {
	prefix   string
	commands func() []common.Command
}

// New creates the help feature; commands is called on each request so it sees every registered command
func New(prefix string, commands func() []common.Command) *Feature {
	return &Feature{
		prefix:   prefix,
		commands: commands,
	}
}

func (f *Feature) Commands() []common.Command {
	return []common.Command{
		{
			Name:        "economyhelp",
			Description: "List the economy commands",
			Handler:     f.handleHelp,
		},
	}
}

func (f *Feature) handleHelp(ctx context.Context, inv *common.Invocation, r common.Responder) error {
	var b strings.Builder
	b.WriteString("**Economy commands**\n")
	for _, cmd := range f.commands() {
		line := f.prefix + cmd.Name
		if cmd.Usage != "" {
			line += " " + cmd.Usage
		}
		fmt.Fprintf(&b, "`%s`: %s", line, cmd.Description)
		if len(cmd.Aliases) > 0 {
			fmt.Fprintf(&b, " (also %s)", f.prefix+strings.Join(cmd.Aliases, ", "+f.prefix))
		}
		if cmd.Admin {
			b.WriteString(" [admin]")
		}
		b.WriteString("\n")
	}
	return r.Reply(strings.TrimRight(b.String(), "\n"), true)
}
