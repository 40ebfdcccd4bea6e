package discord

import (
	"github.com/aegis-mod/aegis/automod/engine"

	"github.com/bwmarrin/discordgo"
)

// Converts a gateway message into an engine event. Mentions are de-duplicated, in order of first appearance.
func NewMessageEvent(m *discordgo.Message, hasBypass bool) *engine.MessageEvent {
	evt := &engine.MessageEvent{
		GuildID:          m.GuildID,
		ChannelID:        m.ChannelID,
		MessageID:        m.ID,
		AuthorHasBypass:  hasBypass,
		Content:          m.Content,
		MentionedUserIDs: []string{},
		Timestamp:        m.Timestamp,
	}
	if m.Author != nil {
		evt.AuthorID = m.Author.ID
		evt.AuthorTag = m.Author.String()
		evt.AuthorIsBot = m.Author.Bot
	}
	seen := make(map[string]bool, len(m.Mentions))
	for _, u := range m.Mentions {
		if u == nil || seen[u.ID] {
			continue
		}
		seen[u.ID] = true
		evt.MentionedUserIDs = append(evt.MentionedUserIDs, u.ID)
	}
	return evt
}
