package engine

import (
	"time"

	"github.com/aegis-mod/aegis/automod/policy"
)

// Platform-neutral view of a newly created chat message.
type MessageEvent struct {
	GuildID   string
	ChannelID string
	MessageID string
	AuthorID  string
	// Display tag ("name" or "name#1234"), recorded in case logs
	AuthorTag   string
	AuthorIsBot bool
	// Author holds the manage-messages permission and is exempt from automod
	AuthorHasBypass bool
	Content         string
	// Distinct user ids mentioned in the message
	MentionedUserIDs []string
	Timestamp        time.Time
}

func (m *MessageEvent) Author() Actor {
	return Actor{ID: m.AuthorID, Tag: m.AuthorTag}
}

func (m *MessageEvent) policyMessage() *policy.Message {
	return &policy.Message{
		Content:          m.Content,
		MentionedUserIDs: m.MentionedUserIDs,
	}
}

// A user or bot account, as it appears in logs and case records.
type Actor struct {
	ID  string
	Tag string
}

// Mention syntax understood by chat clients.
func (a Actor) Mention() string {
	return "<@" + a.ID + ">"
}
