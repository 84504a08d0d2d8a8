package common

import (
	"errors"
	"fmt"

	"economy/service"
)

// BotError represents a structured error with user-facing and internal messages
type BotError struct {
	UserMessage string // Message shown to the user
	LogMessage  string // Internal message for logging
	Ephemeral   bool   // Whether the error message should be private to the invoker
	Err         error  // Underlying error
}

// Error implements the error interface
func (e *BotError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.LogMessage, e.Err)
	}
	return e.LogMessage
}

// Unwrap returns the underlying error
func (e *BotError) Unwrap() error {
	return e.Err
}

// NewUserError creates an error for user-caused issues (bad arguments, unknown users)
func NewUserError(userMessage string, logMessage string) *BotError {
	return &BotError{
		UserMessage: userMessage,
		LogMessage:  logMessage,
		Ephemeral:   true,
	}
}

// NewSystemError creates an error for system issues (storage failures, unexpected state)
func NewSystemError(err error, logMessage string) *BotError {
	return &BotError{
		UserMessage: "Something went wrong. Please try again later.",
		LogMessage:  logMessage,
		Ephemeral:   true,
		Err:         err,
	}
}

// domainMessages maps service errors to what the user is told
var domainMessages = []struct {
	err     error
	message string
}{
	{service.ErrInvalidAmount, "Amount must be a positive whole number."},
	{service.ErrInsufficientFunds, "Insufficient funds."},
	{service.ErrPermissionDenied, "You don't have permission to use this command."},
	{service.ErrInvalidRange, fmt.Sprintf("Invalid range. Use start-end with at most %d entries, e.g. 1-10.", service.MaxRankingRange)},
	{service.ErrInvalidUser, "That user name is not valid."},
	{service.ErrSelfTransfer, "You can't transfer money to yourself."},
	{service.ErrGameAlreadyActive, "A dice game is already running in this room."},
	{service.ErrNoActiveGame, "There is no dice game to join in this room."},
	{service.ErrSelfJoin, "You can't join your own dice game."},
	{service.ErrInvalidRate, "Interest rate must be between 0 and 1."},
	{service.ErrInvalidPeriod, "Interest period must be at least 1000 ms."},
	{service.ErrInvalidRoom, "Dice games can only be played in a room."},
	{service.ErrDiceClosed, "Dice games are closed while the bot shuts down."},
	{service.ErrAmountOverflow, "That amount is too large for the ledger to hold."},
}

// ToBotError converts any error returned by a command into a BotError
func ToBotError(err error) *BotError {
	var botErr *BotError
	if errors.As(err, &botErr) {
		return botErr
	}
	for _, m := range domainMessages {
		if errors.Is(err, m.err) {
			return &BotError{
				UserMessage: m.message,
				LogMessage:  "command rejected",
				Ephemeral:   true,
				Err:         err,
			}
		}
	}
	return NewSystemError(err, "unexpected error in command")
}

// IsUserError reports whether err was caused by the user rather than the system
func IsUserError(err error) bool {
	var botErr *BotError
	if errors.As(err, &botErr) && botErr.Err == nil {
		return true
	}
	for _, m := range domainMessages {
		if errors.Is(err, m.err) {
			return true
		}
	}
	return false
}

// ErrorReply formats an error message the way every command shows it
func ErrorReply(message string) string {
	return fmt.Sprintf("❌ %s", message)
}
