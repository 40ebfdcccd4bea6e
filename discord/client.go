package discord

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aegis-mod/aegis/automod/engine"

	"github.com/bwmarrin/discordgo"
)

// Wraps a discordgo session as an engine.Platform.
type Client struct {
	Session *discordgo.Session
	Logger  *slog.Logger
}

var _ engine.Platform = (*Client)(nil)

func NewClient(session *discordgo.Session, logger *slog.Logger) *Client {
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		Session: session,
		Logger:  logger.With("component", "discord"),
	}
}

func (c *Client) Self() engine.Actor {
	if c.Session.State == nil || c.Session.State.User == nil {
		return engine.Actor{}
	}
	u := c.Session.State.User
	return engine.Actor{ID: u.ID, Tag: u.String()}
}

func (c *Client) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	return c.Session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx))
}

// Applies a communication timeout. Returns engine.ErrAlreadyRestricted if the member is already timed out.
func (c *Client) TimeoutUser(ctx context.Context, guildID, userID string, until time.Time, reason string) error {
	member, err := c.Session.GuildMember(guildID, userID, discordgo.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("fetching member: %w", err)
	}
	if member.CommunicationDisabledUntil != nil && member.CommunicationDisabledUntil.After(time.Now()) {
		return engine.ErrAlreadyRestricted
	}
	return c.Session.GuildMemberTimeout(guildID, userID, &until,
		discordgo.WithContext(ctx),
		discordgo.WithAuditLogReason(reason),
	)
}

// Posts content and schedules its deletion. Deletion errors are logged, never returned.
func (c *Client) PostTransientNotice(ctx context.Context, channelID, content string, lifetime time.Duration) error {
	m, err := c.Session.ChannelMessageSend(channelID, content, discordgo.WithContext(ctx))
	if err != nil {
		return err
	}
	time.AfterFunc(lifetime, func() {
		if err := c.Session.ChannelMessageDelete(channelID, m.ID); err != nil {
			c.Logger.Warn("failed to remove transient notice", "err", err, "channel", channelID, "message", m.ID)
		}
	})
	return nil
}

func (c *Client) SendEmbed(ctx context.Context, channelID string, embed *discordgo.MessageEmbed) error {
	_, err := c.Session.ChannelMessageSendEmbed(channelID, embed, discordgo.WithContext(ctx))
	return err
}

// Whether userID may bypass automod in channelID (manage-messages, or administrator).
func (c *Client) HasBypass(userID, channelID string) (bool, error) {
	perms, err := c.Session.State.UserChannelPermissions(userID, channelID)
	if errors.Is(err, discordgo.ErrStateNotFound) {
		perms, err = c.Session.UserChannelPermissions(userID, channelID)
	}
	if err != nil {
		return false, err
	}
	return perms&discordgo.PermissionManageMessages != 0, nil
}

// Looks up a user's current display tag.
func (c *Client) LookupActor(ctx context.Context, userID string) (engine.Actor, error) {
	u, err := c.Session.User(userID, discordgo.WithContext(ctx))
	if err != nil {
		return engine.Actor{}, err
	}
	return engine.Actor{ID: u.ID, Tag: u.String()}, nil
}
