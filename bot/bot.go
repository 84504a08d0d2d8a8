package bot

import (
	"context"
	"fmt"
	"sync"

	"economy/bot/common"
	"economy/events"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

// Config holds bot configuration
type Config struct {
	Token        string
	GuildID      string
	Prefix       string
	AdminUserIDs []string
}

// Bot connects the command router to Discord
type Bot struct {
	config   Config
	session  *discordgo.Session
	router   *Router
	resolver *DiscordUserResolver
}

// NewSession creates an unopened Discord session so the resolver and permissions can be built before the bot
func NewSession(token string) (*discordgo.Session, error) {
	dg, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, fmt.Errorf("error creating discord session: %w", err)
	}
	dg.Identify.Intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMembers |
		discordgo.IntentsMessageContent
	return dg, nil
}

// New opens the session, registers slash commands and starts handling messages
func New(config Config, session *discordgo.Session, router *Router, resolver *DiscordUserResolver, bus *events.Bus) (*Bot, error) {
	bot := &Bot{
		config:   config,
		session:  session,
		router:   router,
		resolver: resolver,
	}

	session.AddHandler(bot.handleMessage)
	session.AddHandler(bot.handleInteraction)
	session.AddHandler(func(s *discordgo.Session, r *discordgo.Ready) {
		log.WithField("user", r.User.Username).Info("Discord session ready")
	})

	if err := session.Open(); err != nil {
		return nil, fmt.Errorf("error opening connection: %w", err)
	}

	if err := bot.registerCommands(); err != nil {
		session.Close()
		return nil, fmt.Errorf("error registering commands: %w", err)
	}

	AnnounceExpiredGames(bus, bot, resolver)

	return bot, nil
}

func (b *Bot) Close() error {
	return b.session.Close()
}

func (b *Bot) handleMessage(s *discordgo.Session, m *discordgo.MessageCreate) {
	if m.Author == nil || m.Author.Bot {
		return
	}

	name, args, ok := common.ParseCommand(m.Content, b.config.Prefix, "/")
	if !ok {
		return
	}

	inv := &common.Invocation{
		Room:    m.ChannelID,
		UserID:  m.Author.ID,
		Command: name,
		Args:    args,
	}
	b.router.Dispatch(context.Background(), inv, &messageResponder{session: s, message: m.Message})
}

func (b *Bot) handleInteraction(s *discordgo.Session, i *discordgo.InteractionCreate) {
	if i.Type != discordgo.InteractionApplicationCommand {
		return
	}

	user := i.User
	if i.Member != nil {
		user = i.Member.User
	}
	if user == nil {
		return
	}

	data := i.ApplicationCommandData()
	var args string
	for _, opt := range data.Options {
		if opt.Name == argsOption {
			args = opt.StringValue()
		}
	}

	inv := &common.Invocation{
		Room:    i.ChannelID,
		UserID:  user.ID,
		Command: data.Name,
		Args:    args,
	}
	resp := &interactionResponder{session: s, interaction: i.Interaction}
	if !b.router.Dispatch(context.Background(), inv, resp) {
		resp.Reply(common.ErrorReply("Unknown command."), true)
	}
}

// Broadcast posts a message to a channel
func (b *Bot) Broadcast(room, message string) error {
	_, err := b.session.ChannelMessageSend(room, message)
	return err
}

// messageResponder replies to a prefixed chat message. Text channels have no ephemeral messages.
type messageResponder struct {
	session *discordgo.Session
	message *discordgo.Message
}

func (r *messageResponder) Reply(message string, _ bool) error {
	_, err := r.session.ChannelMessageSendReply(r.message.ChannelID, message, r.message.Reference())
	return err
}

// interactionResponder answers a slash command; the first reply responds, later ones follow up
type interactionResponder struct {
	mu          sync.Mutex
	session     *discordgo.Session
	interaction *discordgo.Interaction
	responded   bool
}

func (r *interactionResponder) Reply(message string, ephemeral bool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	var flags discordgo.MessageFlags
	if ephemeral {
		flags = discordgo.MessageFlagsEphemeral
	}

	if !r.responded {
		err := r.session.InteractionRespond(r.interaction, &discordgo.InteractionResponse{
			Type: discordgo.InteractionResponseChannelMessageWithSource,
			Data: &discordgo.InteractionResponseData{
				Content: message,
				Flags:   flags,
			},
		})
		if err == nil {
			r.responded = true
		}
		return err
	}

	_, err := r.session.FollowupMessageCreate(r.interaction, true, &discordgo.WebhookParams{
		Content: message,
		Flags:   flags,
	})
	return err
}

// DiscordPermissions grants admin commands to server administrators and configured user ids
type DiscordPermissions struct {
	session *discordgo.Session
	static  StaticPermissions
}

func NewDiscordPermissions(session *discordgo.Session, adminUserIDs []string) *DiscordPermissions {
	return &DiscordPermissions{
		session: session,
		static:  NewStaticPermissions(adminUserIDs),
	}
}

func (p *DiscordPermissions) IsAdmin(ctx context.Context, room, userID string) bool {
	if p.static.IsAdmin(ctx, room, userID) {
		return true
	}
	perms, err := p.session.UserChannelPermissions(userID, room)
	if err != nil {
		log.WithError(err).WithFields(log.Fields{"user_id": userID, "room": room}).Debug("Failed to read channel permissions")
		return false
	}
	return perms&discordgo.PermissionAdministrator != 0
}
