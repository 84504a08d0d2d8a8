package bot

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"time"

	"economy/bot/common"
	"economy/service"

	"github.com/bwmarrin/discordgo"
	log "github.com/sirupsen/logrus"
)

var mentionPattern = regexp.MustCompile(`^<@!?(\d+)>$`)

const memberCacheTTL = 5 * time.Minute

type cachedMembers struct {
	members []*discordgo.Member
	expires time.Time
}

// DiscordUserResolver maps mentions, ids and member names to ledger ids
type DiscordUserResolver struct {
	session *discordgo.Session

	mu     sync.RWMutex
	guilds map[string]cachedMembers
	rooms  map[string]string // channel id -> guild id
}

func NewDiscordUserResolver(session *discordgo.Session) *DiscordUserResolver {
	return &DiscordUserResolver{
		session: session,
		guilds:  make(map[string]cachedMembers),
		rooms:   make(map[string]string),
	}
}

// ResolveUser accepts a mention, a raw snowflake or a member name.
// Names that match no member are used as plain ledger ids.
func (r *DiscordUserResolver) ResolveUser(ctx context.Context, room, query string) (string, error) {
	query = strings.TrimSpace(query)
	if m := mentionPattern.FindStringSubmatch(query); m != nil {
		return m[1], nil
	}
	if isSnowflake(query) {
		return query, nil
	}

	if guildID := r.guildFor(room); guildID != "" {
		if member := r.findMember(ctx, guildID, query); member != nil {
			return member.User.ID, nil
		}
	}

	userID := service.NormalizeUserID(query)
	if userID == "" {
		return "", common.NewUserError(fmt.Sprintf("I couldn't find a user called %q.", query), "unresolvable user")
	}
	return userID, nil
}

// DisplayName returns the member's nickname, global name or username, falling back to the id
func (r *DiscordUserResolver) DisplayName(ctx context.Context, room, userID string) string {
	if !isSnowflake(userID) {
		return userID
	}
	if guildID := r.guildFor(room); guildID != "" {
		for _, member := range r.members(ctx, guildID) {
			if member.User != nil && member.User.ID == userID {
				return displayName(member)
			}
		}
		if member, err := r.session.GuildMember(guildID, userID); err == nil {
			return displayName(member)
		}
	}
	if user, err := r.session.User(userID); err == nil {
		if user.GlobalName != "" {
			return user.GlobalName
		}
		return user.Username
	}
	return userID
}

func (r *DiscordUserResolver) findMember(ctx context.Context, guildID, name string) *discordgo.Member {
	members := r.members(ctx, guildID)
	lowered := strings.ToLower(name)

	// nickname first, then global display name, then username
	matchers := []func(*discordgo.Member) string{
		func(m *discordgo.Member) string { return m.Nick },
		func(m *discordgo.Member) string { return m.User.GlobalName },
		func(m *discordgo.Member) string { return m.User.Username },
	}
	for _, field := range matchers {
		for _, member := range members {
			if member.User == nil {
				continue
			}
			if v := field(member); v != "" && strings.ToLower(v) == lowered {
				return member
			}
		}
	}
	return nil
}

func (r *DiscordUserResolver) members(ctx context.Context, guildID string) []*discordgo.Member {
	r.mu.RLock()
	cached, ok := r.guilds[guildID]
	r.mu.RUnlock()
	if ok && time.Now().Before(cached.expires) {
		return cached.members
	}

	var all []*discordgo.Member
	after := ""
	for {
		if ctx.Err() != nil {
			break
		}
		batch, err := r.session.GuildMembers(guildID, after, 1000)
		if err != nil {
			log.WithError(err).WithField("guild_id", guildID).Warn("Failed to fetch guild members")
			return cached.members
		}
		all = append(all, batch...)
		if len(batch) < 1000 || batch[len(batch)-1].User == nil {
			break
		}
		after = batch[len(batch)-1].User.ID
	}

	r.mu.Lock()
	r.guilds[guildID] = cachedMembers{members: all, expires: time.Now().Add(memberCacheTTL)}
	r.mu.Unlock()
	log.WithFields(log.Fields{"guild_id": guildID, "members": len(all)}).Debug("Cached guild members")
	return all
}

func (r *DiscordUserResolver) guildFor(room string) string {
	r.mu.RLock()
	guildID, ok := r.rooms[room]
	r.mu.RUnlock()
	if ok {
		return guildID
	}

	channel, err := r.session.State.Channel(room)
	if err != nil {
		channel, err = r.session.Channel(room)
	}
	if err != nil {
		return ""
	}

	r.mu.Lock()
	r.rooms[room] = channel.GuildID
	r.mu.Unlock()
	return channel.GuildID
}

func displayName(member *discordgo.Member) string {
	if member.Nick != "" {
		return member.Nick
	}
	if member.User == nil {
		return ""
	}
	if member.User.GlobalName != "" {
		return member.User.GlobalName
	}
	return member.User.Username
}

func isSnowflake(s string) bool {
	if len(s) < 15 || len(s) > 20 {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// PlainUserResolver treats every reference as a ledger id. Used by transports without a member directory.
type PlainUserResolver struct{}

func (PlainUserResolver) ResolveUser(_ context.Context, _, query string) (string, error) {
	userID := service.NormalizeUserID(query)
	if userID == "" {
		return "", common.NewUserError(fmt.Sprintf("I couldn't find a user called %q.", query), "unresolvable user")
	}
	return userID, nil
}

func (PlainUserResolver) DisplayName(_ context.Context, _, userID string) string {
	return userID
}

// StaticPermissions grants admin to a fixed set of ledger ids
type StaticPermissions struct {
	admins map[string]bool
}

func NewStaticPermissions(adminIDs []string) StaticPermissions {
	admins := make(map[string]bool, len(adminIDs))
	for _, id := range adminIDs {
		if id = service.NormalizeUserID(id); id != "" {
			admins[id] = true
		}
	}
	return StaticPermissions{admins: admins}
}

func (p StaticPermissions) IsAdmin(_ context.Context, _, userID string) bool {
	return p.admins[service.NormalizeUserID(userID)]
}
