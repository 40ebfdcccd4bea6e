package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aegis-mod/aegis/automod/casestore"
	"github.com/aegis-mod/aegis/automod/clock"
	"github.com/aegis-mod/aegis/automod/duration"
	"github.com/aegis-mod/aegis/automod/policy"
)

const (
	DefaultNoticeLifetime = 5 * time.Second

	SpamTimeoutReason = "Automatic spam detection."
	SpamLogReason     = "User sent messages too quickly."
	SpamLogAction     = "Auto-Mute (Spam)"

	ManualMuteLogAction  = "Mute"
	ManualWarnLogAction  = "Warning"
	WarningEditLogAction = "Warning Edit"

	// platform limit on timeouts
	MaxTimeout = 28 * 24 * time.Hour
)

// Carries out the moderation actions automod decides on: platform side-effects, a case record, and mod-log notifications.
//
// Each action is a fixed sequence of steps. The first failing step aborts the remaining ones and its error is returned. Notification failures are only logged.
type Executor struct {
	Platform  Platform
	Cases     casestore.Store
	Notifiers []Notifier
	Logger    *slog.Logger
	Clock     clock.Clock
	// how long in-channel notices stay up
	NoticeLifetime time.Duration
}

func (x *Executor) now() time.Time {
	if x.Clock == nil {
		return time.Now()
	}
	return x.Clock.Now()
}

func (x *Executor) noticeLifetime() time.Duration {
	if x.NoticeLifetime <= 0 {
		return DefaultNoticeLifetime
	}
	return x.NoticeLifetime
}

// Times out a spamming author for d.
func (x *Executor) Timeout(ctx context.Context, msg *MessageEvent, d time.Duration) error {
	logger := x.Logger.With("guild", msg.GuildID, "user", msg.AuthorID, "action", casestore.ActionAutoMute)
	now := x.now()

	if err := x.Platform.TimeoutUser(ctx, msg.GuildID, msg.AuthorID, now.Add(d), SpamTimeoutReason); err != nil {
		actionErrorCount.WithLabelValues(casestore.ActionAutoMute).Inc()
		return fmt.Errorf("timing out user: %w", err)
	}
	notice := fmt.Sprintf("%s has been automatically muted for spamming.", msg.Author().Mention())
	if err := x.Platform.PostTransientNotice(ctx, msg.ChannelID, notice, x.noticeLifetime()); err != nil {
		actionErrorCount.WithLabelValues(casestore.ActionAutoMute).Inc()
		return fmt.Errorf("posting mute notice: %w", err)
	}

	dur := duration.Format(d)
	bot := x.Platform.Self()
	c := &casestore.Case{
		GuildID:      msg.GuildID,
		Action:       casestore.ActionAutoMute,
		TargetID:     msg.AuthorID,
		TargetTag:    msg.AuthorTag,
		ModeratorID:  bot.ID,
		ModeratorTag: bot.Tag,
		Reason:       SpamLogReason,
		Duration:     &dur,
		CreatedAt:    now,
	}
	if err := x.Cases.Append(ctx, c); err != nil {
		actionErrorCount.WithLabelValues(casestore.ActionAutoMute).Inc()
		return fmt.Errorf("recording case: %w", err)
	}
	actionCount.WithLabelValues(casestore.ActionAutoMute).Inc()
	logger.Info("timed out user for spam", "duration", dur, "case", c.ID)

	x.Notify(ctx, ModLogEntry{
		GuildID:   msg.GuildID,
		Action:    SpamLogAction,
		Color:     policy.ColorDarkPurple,
		Target:    msg.Author(),
		Moderator: bot,
		Reason:    SpamLogReason,
		Duration:  dur,
		CaseID:    c.ID,
		Timestamp: now,
	})
	return nil
}

// Removes a violating message and records an automatic warning.
func (x *Executor) DeleteAndWarn(ctx context.Context, msg *MessageEvent, dec policy.Decision) error {
	logger := x.Logger.With("guild", msg.GuildID, "user", msg.AuthorID, "action", casestore.ActionAutoWarn, "kind", dec.Kind.String())
	now := x.now()

	if err := x.Platform.DeleteMessage(ctx, msg.ChannelID, msg.MessageID); err != nil {
		actionErrorCount.WithLabelValues(casestore.ActionAutoWarn).Inc()
		return fmt.Errorf("deleting message: %w", err)
	}
	notice := fmt.Sprintf("%s, your message was removed. Reason: %s", msg.Author().Mention(), dec.Reason)
	if err := x.Platform.PostTransientNotice(ctx, msg.ChannelID, notice, x.noticeLifetime()); err != nil {
		actionErrorCount.WithLabelValues(casestore.ActionAutoWarn).Inc()
		return fmt.Errorf("posting removal notice: %w", err)
	}

	bot := x.Platform.Self()
	c := &casestore.Case{
		GuildID:      msg.GuildID,
		Action:       casestore.ActionAutoWarn,
		TargetID:     msg.AuthorID,
		TargetTag:    msg.AuthorTag,
		ModeratorID:  bot.ID,
		ModeratorTag: bot.Tag,
		Reason:       dec.Reason,
		CreatedAt:    now,
	}
	if err := x.Cases.Append(ctx, c); err != nil {
		actionErrorCount.WithLabelValues(casestore.ActionAutoWarn).Inc()
		return fmt.Errorf("recording case: %w", err)
	}
	actionCount.WithLabelValues(casestore.ActionAutoWarn).Inc()
	logger.Info("removed message", "case", c.ID)

	x.Notify(ctx, ModLogEntry{
		GuildID:   msg.GuildID,
		Action:    dec.LogAction,
		Color:     dec.LogColor,
		Target:    msg.Author(),
		Moderator: bot,
		Reason:    dec.Reason,
		CaseID:    c.ID,
		Timestamp: now,
	})
	return nil
}

// Manual timeout issued by a moderator.
func (x *Executor) Mute(ctx context.Context, guildID string, target, moderator Actor, d time.Duration, reason string) (*casestore.Case, error) {
	if d <= 0 || d > MaxTimeout {
		return nil, fmt.Errorf("timeout duration must be between 1s and 28 days, got %s", d)
	}
	now := x.now()
	if err := x.Platform.TimeoutUser(ctx, guildID, target.ID, now.Add(d), reason); err != nil {
		actionErrorCount.WithLabelValues(casestore.ActionMute).Inc()
		return nil, fmt.Errorf("timing out user: %w", err)
	}
	dur := duration.Format(d)
	c := &casestore.Case{
		GuildID:      guildID,
		Action:       casestore.ActionMute,
		TargetID:     target.ID,
		TargetTag:    target.Tag,
		ModeratorID:  moderator.ID,
		ModeratorTag: moderator.Tag,
		Reason:       reason,
		Duration:     &dur,
		CreatedAt:    now,
	}
	if err := x.Cases.Append(ctx, c); err != nil {
		actionErrorCount.WithLabelValues(casestore.ActionMute).Inc()
		return nil, fmt.Errorf("recording case: %w", err)
	}
	actionCount.WithLabelValues(casestore.ActionMute).Inc()
	x.Notify(ctx, ModLogEntry{
		GuildID:   guildID,
		Action:    ManualMuteLogAction,
		Color:     policy.ColorBlue,
		Target:    target,
		Moderator: moderator,
		Reason:    reason,
		Duration:  dur,
		CaseID:    c.ID,
		Timestamp: now,
	})
	return c, nil
}

// Records a manual warning and reports it to the mod-log. Nothing is sent to the target.
func (x *Executor) Warn(ctx context.Context, guildID string, target, moderator Actor, reason string) (*casestore.Case, error) {
	now := x.now()
	c := &casestore.Case{
		GuildID:      guildID,
		Action:       casestore.ActionWarn,
		TargetID:     target.ID,
		TargetTag:    target.Tag,
		ModeratorID:  moderator.ID,
		ModeratorTag: moderator.Tag,
		Reason:       reason,
		CreatedAt:    now,
	}
	if err := x.Cases.Append(ctx, c); err != nil {
		actionErrorCount.WithLabelValues(casestore.ActionWarn).Inc()
		return nil, fmt.Errorf("recording case: %w", err)
	}
	actionCount.WithLabelValues(casestore.ActionWarn).Inc()
	x.Notify(ctx, ModLogEntry{
		GuildID:   guildID,
		Action:    ManualWarnLogAction,
		Color:     policy.ColorDarkOrange,
		Target:    target,
		Moderator: moderator,
		Reason:    reason,
		CaseID:    c.ID,
		Timestamp: now,
	})
	return c, nil
}

// Sends entry to every notifier. Failures are logged and do not affect other notifiers.
func (x *Executor) Notify(ctx context.Context, entry ModLogEntry) {
	for _, n := range x.Notifiers {
		if err := n.SendModLog(ctx, entry); err != nil {
			notifyErrorCount.Inc()
			x.Logger.Error("failed to send mod-log notification", "err", err, "guild", entry.GuildID, "action", entry.Action)
		}
	}
}
