package bot

import (
	"context"
	"sort"
	"strings"
	"sync"

	"economy/bot/common"

	log "github.com/sirupsen/logrus"
)

// Feature contributes chat commands to the router
type Feature interface {
	Commands() []common.Command
}

// Router dispatches commands from any transport to the feature handlers
type Router struct {
	mu          sync.RWMutex
	commands    map[string]*common.Command
	ordered     []*common.Command
	permissions common.Permissions
	limiter     *CommandLimiter
}

// NewRouter creates a router; limiter may be nil to disable flood protection
func NewRouter(permissions common.Permissions, limiter *CommandLimiter) *Router {
	return &Router{
		commands:    make(map[string]*common.Command),
		permissions: permissions,
		limiter:     limiter,
	}
}

// Register adds every command of the given features
func (r *Router) Register(features ...Feature) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for _, feature := range features {
		for _, cmd := range feature.Commands() {
			cmd := cmd
			r.commands[cmd.Name] = &cmd
			for _, alias := range cmd.Aliases {
				r.commands[alias] = &cmd
			}
			r.ordered = append(r.ordered, &cmd)
			log.WithFields(log.Fields{
				"command": cmd.Name,
				"aliases": cmd.Aliases,
				"admin":   cmd.Admin,
			}).Debug("Registered command")
		}
	}
	sort.Slice(r.ordered, func(i, j int) bool { return r.ordered[i].Name < r.ordered[j].Name })
}

// Commands returns the registered commands ordered by name
func (r *Router) Commands() []common.Command {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cmds := make([]common.Command, 0, len(r.ordered))
	for _, cmd := range r.ordered {
		cmds = append(cmds, *cmd)
	}
	return cmds
}

// Lookup finds a command by name or alias
func (r *Router) Lookup(name string) (common.Command, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	cmd, ok := r.commands[strings.ToLower(name)]
	if !ok {
		return common.Command{}, false
	}
	return *cmd, true
}

// Dispatch runs the command named in inv. It returns false when no such command exists.
// Every failure is answered through resp; nothing is returned to the transport.
func (r *Router) Dispatch(ctx context.Context, inv *common.Invocation, resp common.Responder) bool {
	cmd, ok := r.Lookup(inv.Command)
	if !ok {
		return false
	}
	inv.Command = cmd.Name

	logger := log.WithFields(log.Fields{
		"user_id": inv.UserID,
		"room":    inv.Room,
		"command": cmd.Name,
	})
	logger.WithField("args", inv.Args).Debug("Command invoked")

	if r.limiter != nil && !r.limiter.Allow(inv.UserID) {
		logger.Debug("Command rate limited")
		r.reply(logger, resp, "⏳ You're sending commands too quickly. Please wait a moment.", true)
		return true
	}

	if cmd.Admin && (r.permissions == nil || !r.permissions.IsAdmin(ctx, inv.Room, inv.UserID)) {
		logger.Warn("Admin command denied")
		r.reply(logger, resp, common.ErrorReply("You don't have permission to use this command."), true)
		return true
	}

	if err := cmd.Handler(ctx, inv, resp); err != nil {
		botErr := common.ToBotError(err)
		if common.IsUserError(err) {
			logger.WithError(err).Debug("Command rejected")
		} else {
			logger.WithError(err).Error(botErr.LogMessage)
		}
		r.reply(logger, resp, common.ErrorReply(botErr.UserMessage), botErr.Ephemeral)
	}
	return true
}

func (r *Router) reply(logger *log.Entry, resp common.Responder, message string, ephemeral bool) {
	if err := resp.Reply(message, ephemeral); err != nil {
		logger.WithError(err).Error("Failed to send reply")
	}
}
