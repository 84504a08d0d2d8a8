package common

import (
	"context"
)

// Invocation is a single command issued by a user in a room
type Invocation struct {
	Room    string // channel the command was issued in
	UserID  string // invoker's platform id
	Command string // canonical command name, without prefix
	Args    string // raw text after the command name
}

// Responder delivers replies to the invoker. Ephemeral replies are only visible to
// the invoker where the transport supports it.
type Responder interface {
	Reply(message string, ephemeral bool) error
}

// RoomMessenger posts messages to a room outside of any command
type RoomMessenger interface {
	Broadcast(room, message string) error
}

// UserResolver turns user references typed in commands into ledger ids and back into display names
type UserResolver interface {
	ResolveUser(ctx context.Context, room, query string) (string, error)
	DisplayName(ctx context.Context, room, userID string) string
}

// Permissions decides who may run admin commands
type Permissions interface {
	IsAdmin(ctx context.Context, room, userID string) bool
}

// HandlerFunc runs a command. Returned errors are turned into user-facing replies by the router.
type HandlerFunc func(ctx context.Context, inv *Invocation, r Responder) error

// Command describes one chat command
type Command struct {
	Name        string
	Aliases     []string
	Description string
	Usage       string
	Admin       bool
	Handler     HandlerFunc
}
