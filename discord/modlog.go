package discord

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aegis-mod/aegis/automod/engine"
	"github.com/aegis-mod/aegis/automod/guildstore"
	"github.com/aegis-mod/aegis/automod/policy"

	"github.com/bwmarrin/discordgo"
)

var embedColors = map[string]int{
	policy.ColorDarkRed:    0x992d22,
	policy.ColorDarkOrange: 0xa84300,
	policy.ColorDarkPurple: 0x71368a,
	policy.ColorBlue:       0x3498db,
	policy.ColorBlurple:    0x5865f2,
}

func EmbedColor(name string) int {
	if c, ok := embedColors[name]; ok {
		return c
	}
	return embedColors[policy.ColorBlurple]
}

type EmbedSender interface {
	SendEmbed(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) error
}

// Posts mod-log entries to each guild's configured log channel. Guilds without one are skipped.
type ModLogNotifier struct {
	Sender EmbedSender
	Guilds guildstore.Store
	Logger *slog.Logger
}

var _ engine.Notifier = (*ModLogNotifier)(nil)

func (n *ModLogNotifier) SendModLog(ctx context.Context, entry engine.ModLogEntry) error {
	doc, err := n.Guilds.GetGuild(ctx, entry.GuildID)
	if err != nil {
		return fmt.Errorf("loading log channel: %w", err)
	}
	if doc == nil || doc.Settings.LogChannelID == "" {
		n.Logger.Debug("no mod-log channel configured", "guild", entry.GuildID)
		return nil
	}
	return n.Sender.SendEmbed(ctx, doc.Settings.LogChannelID, ModLogEmbed(entry))
}

func ModLogEmbed(entry engine.ModLogEntry) *discordgo.MessageEmbed {
	fields := []*discordgo.MessageEmbedField{
		{Name: "User", Value: fmt.Sprintf("%s (%s)", entry.Target.Mention(), entry.Target.Tag), Inline: true},
		{Name: "Moderator", Value: fmt.Sprintf("%s (%s)", entry.Moderator.Mention(), entry.Moderator.Tag), Inline: true},
	}
	if entry.Duration != "" {
		fields = append(fields, &discordgo.MessageEmbedField{Name: "Duration", Value: entry.Duration, Inline: true})
	}
	reason := entry.Reason
	if reason == "" {
		reason = "No reason provided."
	}
	fields = append(fields, &discordgo.MessageEmbedField{Name: "Reason", Value: reason})

	ts := entry.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	embed := &discordgo.MessageEmbed{
		Title:     entry.Action,
		Color:     EmbedColor(entry.Color),
		Fields:    fields,
		Timestamp: ts.UTC().Format(time.RFC3339),
	}
	if entry.CaseID != 0 {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: fmt.Sprintf("Case #%d", entry.CaseID)}
	}
	return embed
}
