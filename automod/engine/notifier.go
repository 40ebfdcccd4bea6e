package engine

import (
	"context"
	"time"
)

// Summary of a moderation action, rendered by mod-log notifiers.
type ModLogEntry struct {
	GuildID   string
	Action    string
	Color     string
	Target    Actor
	Moderator Actor
	Reason    string
	// Human-readable, empty for actions without a duration
	Duration  string
	CaseID    uint64
	Timestamp time.Time
}

// Interface for a type that can handle sending notifications
type Notifier interface {
	SendModLog(ctx context.Context, entry ModLogEntry) error
}
