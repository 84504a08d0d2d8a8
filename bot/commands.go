package bot

import (
	"fmt"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

const argsOption = "args"

// slashCommands mirrors every router command and alias as a slash command with one free-text option
func (b *Bot) slashCommands() []*discordgo.ApplicationCommand {
	var commands []*discordgo.ApplicationCommand
	for _, cmd := range b.router.Commands() {
		description := cmd.Description
		if len(description) > 100 {
			description = description[:100]
		}
		usage := cmd.Usage
		if usage == "" {
			usage = "Command arguments"
		}
		if len(usage) > 100 {
			usage = usage[:100]
		}

		for _, name := range append([]string{cmd.Name}, cmd.Aliases...) {
			commands = append(commands, &discordgo.ApplicationCommand{
				Name:        name,
				Description: description,
				Options: []*discordgo.ApplicationCommandOption{
					{
						Type:        discordgo.ApplicationCommandOptionString,
						Name:        argsOption,
						Description: usage,
						Required:    false,
					},
				},
			})
		}
	}
	return commands
}

// registerCommands registers all slash commands with Discord
func (b *Bot) registerCommands() error {
	commands := b.slashCommands()
	created, err := b.session.ApplicationCommandBulkOverwrite(b.session.State.User.ID, b.config.GuildID, commands)
	if err != nil {
		return fmt.Errorf("cannot register slash commands: %w", err)
	}
	log.WithFields(log.Fields{
		"commands": len(created),
		"guild_id": b.config.GuildID,
	}).Info("Registered slash commands")
	return nil
}
