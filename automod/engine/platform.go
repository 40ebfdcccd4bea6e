package engine

import (
	"context"
	"errors"
	"time"
)

// Returned by Platform.TimeoutUser when the target is already timed out.
var ErrAlreadyRestricted = errors.New("user is already restricted")

// Side-effects on the chat platform. Implementations must be safe for concurrent use.
type Platform interface {
	// Identity of the bot account, used as moderator on automatic cases
	Self() Actor
	DeleteMessage(ctx context.Context, channelID, messageID string) error
	TimeoutUser(ctx context.Context, guildID, userID string, until time.Time, reason string) error
	// Posts a message which is removed again after lifetime. Removal is best-effort.
	PostTransientNotice(ctx context.Context, channelID, content string, lifetime time.Duration) error
}
