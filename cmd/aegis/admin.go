package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"github.com/aegis-mod/aegis/automod/casestore"
	"github.com/aegis-mod/aegis/automod/duration"
	"github.com/aegis-mod/aegis/automod/engine"
	"github.com/aegis-mod/aegis/automod/guildstore"
	"github.com/aegis-mod/aegis/automod/policy"
	"github.com/aegis-mod/aegis/discord"

	"github.com/disgoorg/snowflake/v2"
	cli "github.com/urfave/cli/v2"
)

var guildFlag = &cli.StringFlag{
	Name:     "guild",
	Usage:    "guild (server) id",
	Required: true,
	EnvVars:  []string{"AEGIS_GUILD_ID"},
}

var moderatorFlag = &cli.StringFlag{
	Name:    "moderator",
	Usage:   "user id recorded as the acting moderator",
	EnvVars: []string{"AEGIS_MODERATOR_ID"},
}

// Discord ids are decimal snowflakes.
func parseID(kind, raw string) (string, error) {
	id, err := snowflake.Parse(strings.TrimSpace(raw))
	if err != nil || id == 0 {
		return "", fmt.Errorf("invalid %s id: %q", kind, raw)
	}
	return id.String(), nil
}

func guildArg(cctx *cli.Context) (string, error) {
	return parseID("guild", cctx.String("guild"))
}

func positionalInt(cctx *cli.Context, idx int, name string) (int, error) {
	raw := cctx.Args().Get(idx)
	if raw == "" {
		return 0, fmt.Errorf("missing argument: %s", name)
	}
	n, err := strconv.Atoi(raw)
	if err != nil {
		return 0, fmt.Errorf("invalid %s: %q", name, raw)
	}
	return n, nil
}

var settingsCmd = &cli.Command{
	Name:  "settings",
	Usage: "view and change per-guild automod settings",
	Flags: []cli.Flag{guildFlag},
	Subcommands: []*cli.Command{
		{
			Name:  "show",
			Usage: "print current settings",
			Action: func(cctx *cli.Context) error {
				return withGuildStore(cctx, func(ctx context.Context, s guildstore.Store, guildID string) error {
					doc, err := s.GetGuild(ctx, guildID)
					if err != nil {
						return err
					}
					printSettings(cctx.App.Writer, doc)
					return nil
				})
			},
		},
		{
			Name:  "blacklist",
			Usage: "manage banned words",
			Subcommands: []*cli.Command{
				{
					Name:      "add",
					ArgsUsage: "<word>",
					Action: func(cctx *cli.Context) error {
						word := cctx.Args().First()
						return withGuildStore(cctx, func(ctx context.Context, s guildstore.Store, guildID string) error {
							if err := guildstore.AddBannedWord(ctx, s, guildID, word); err != nil {
								return err
							}
							fmt.Fprintf(cctx.App.Writer, "Added %q to the banned words list.\n", strings.ToLower(word))
							return nil
						})
					},
				},
				{
					Name:      "remove",
					ArgsUsage: "<word>",
					Action: func(cctx *cli.Context) error {
						word := cctx.Args().First()
						return withGuildStore(cctx, func(ctx context.Context, s guildstore.Store, guildID string) error {
							if err := guildstore.RemoveBannedWord(ctx, s, guildID, word); err != nil {
								return err
							}
							fmt.Fprintf(cctx.App.Writer, "Removed %q from the banned words list.\n", strings.ToLower(word))
							return nil
						})
					},
				},
				{
					Name: "list",
					Action: func(cctx *cli.Context) error {
						return withGuildStore(cctx, func(ctx context.Context, s guildstore.Store, guildID string) error {
							doc, err := s.GetGuild(ctx, guildID)
							if err != nil {
								return err
							}
							if doc == nil || len(doc.Automod.BannedWords) == 0 {
								fmt.Fprintln(cctx.App.Writer, "The banned words list is empty.")
								return nil
							}
							for _, w := range doc.Automod.BannedWords {
								fmt.Fprintln(cctx.App.Writer, w)
							}
							return nil
						})
					},
				},
			},
		},
		{
			Name:      "anti-invite",
			Usage:     "block or allow Discord invite links",
			ArgsUsage: "<on|off>",
			Action: func(cctx *cli.Context) error {
				enabled, err := parseToggle(cctx.Args().First())
				if err != nil {
					return err
				}
				return withGuildStore(cctx, func(ctx context.Context, s guildstore.Store, guildID string) error {
					if err := guildstore.SetBlockInvites(ctx, s, guildID, enabled); err != nil {
						return err
					}
					fmt.Fprintf(cctx.App.Writer, "Invite blocking is now %s.\n", toggleString(enabled))
					return nil
				})
			},
		},
		{
			Name:      "mass-mention",
			Usage:     "maximum distinct users mentioned in one message (0 disables)",
			ArgsUsage: "<limit>",
			Action: func(cctx *cli.Context) error {
				limit, err := positionalInt(cctx, 0, "limit")
				if err != nil {
					return err
				}
				return withGuildStore(cctx, func(ctx context.Context, s guildstore.Store, guildID string) error {
					if err := guildstore.SetMassMentionLimit(ctx, s, guildID, limit); err != nil {
						return err
					}
					if limit == 0 {
						fmt.Fprintln(cctx.App.Writer, "Mass mention protection disabled.")
					} else {
						fmt.Fprintf(cctx.App.Writer, "Mass mention limit set to %d.\n", limit)
					}
					return nil
				})
			},
		},
		{
			Name:      "log-channel",
			Usage:     "channel which receives mod-log embeds",
			ArgsUsage: "<channel-id>",
			Action: func(cctx *cli.Context) error {
				channelID, err := parseID("channel", cctx.Args().First())
				if err != nil {
					return err
				}
				return withGuildStore(cctx, func(ctx context.Context, s guildstore.Store, guildID string) error {
					if err := guildstore.SetLogChannel(ctx, s, guildID, channelID); err != nil {
						return err
					}
					fmt.Fprintf(cctx.App.Writer, "Mod-log channel set to <#%s>.\n", channelID)
					return nil
				})
			},
		},
		{
			Name:      "autorole",
			Usage:     "role given to new members",
			ArgsUsage: "<role-id>",
			Action: func(cctx *cli.Context) error {
				roleID, err := parseID("role", cctx.Args().First())
				if err != nil {
					return err
				}
				return withGuildStore(cctx, func(ctx context.Context, s guildstore.Store, guildID string) error {
					if err := guildstore.SetAutoRole(ctx, s, guildID, roleID); err != nil {
						return err
					}
					fmt.Fprintf(cctx.App.Writer, "Auto-role set to <@&%s>.\n", roleID)
					return nil
				})
			},
		},
		{
			Name:  "escalation",
			Usage: "manage warning escalation rules",
			Subcommands: []*cli.Command{
				{
					Name:      "add",
					ArgsUsage: "<warnings> <mute|kick|ban> [duration]",
					Action: func(cctx *cli.Context) error {
						warnings, err := positionalInt(cctx, 0, "warnings")
						if err != nil {
							return err
						}
						rule := guildstore.EscalationRule{
							Action:   strings.ToLower(cctx.Args().Get(1)),
							Duration: cctx.Args().Get(2),
						}
						return withGuildStore(cctx, func(ctx context.Context, s guildstore.Store, guildID string) error {
							if err := guildstore.PutEscalationRule(ctx, s, guildID, warnings, rule); err != nil {
								return err
							}
							fmt.Fprintf(cctx.App.Writer, "Escalation rule set: %d warning(s) -> %s.\n", warnings, describeRule(rule))
							return nil
						})
					},
				},
				{
					Name:      "remove",
					ArgsUsage: "<warnings>",
					Action: func(cctx *cli.Context) error {
						warnings, err := positionalInt(cctx, 0, "warnings")
						if err != nil {
							return err
						}
						return withGuildStore(cctx, func(ctx context.Context, s guildstore.Store, guildID string) error {
							if err := guildstore.DeleteEscalationRule(ctx, s, guildID, warnings); err != nil {
								return err
							}
							fmt.Fprintf(cctx.App.Writer, "Escalation rule for %d warning(s) removed.\n", warnings)
							return nil
						})
					},
				},
				{
					Name: "list",
					Action: func(cctx *cli.Context) error {
						return withGuildStore(cctx, func(ctx context.Context, s guildstore.Store, guildID string) error {
							rules, err := guildstore.ListEscalationRules(ctx, s, guildID)
							if err != nil {
								return err
							}
							if len(rules) == 0 {
								fmt.Fprintln(cctx.App.Writer, "No escalation rules configured.")
								return nil
							}
							for _, r := range rules {
								fmt.Fprintf(cctx.App.Writer, "%d warning(s): %s\n", r.Warnings, describeRule(r.EscalationRule))
							}
							return nil
						})
					},
				},
			},
		},
	},
}

var casesCmd = &cli.Command{
	Name:  "cases",
	Usage: "moderation case history",
	Flags: []cli.Flag{guildFlag},
	Subcommands: []*cli.Command{
		{
			Name:  "list",
			Usage: "list cases, newest first",
			Flags: []cli.Flag{
				&cli.IntFlag{
					Name:  "page",
					Value: 1,
				},
			},
			Action: func(cctx *cli.Context) error {
				return withCaseStore(cctx, func(ctx context.Context, s *Stores, guildID string) error {
					page, err := casestore.GetPage(ctx, s.Cases, guildID, cctx.Int("page"), casestore.DefaultPerPage)
					if err != nil {
						return err
					}
					if page.TotalCases == 0 {
						fmt.Fprintln(cctx.App.Writer, "No moderation cases found.")
						return nil
					}
					fmt.Fprintf(cctx.App.Writer, "Page %d/%d (%d cases)\n", page.Number, page.TotalPages, page.TotalCases)
					for _, c := range page.Cases {
						printCase(cctx.App.Writer, c.ID, &c)
					}
					return nil
				})
			},
		},
	},
}

var warningsCmd = &cli.Command{
	Name:  "warnings",
	Usage: "issue and manage manual warnings for a user (automatic warnings are listed under cases)",
	Flags: []cli.Flag{
		guildFlag,
		&cli.StringFlag{
			Name:     "user",
			Usage:    "target user id",
			Required: true,
		},
	},
	Subcommands: []*cli.Command{
		{
			Name:      "add",
			Usage:     "record a warning; posted to the mod-log when a bot token is configured",
			ArgsUsage: "<reason>",
			Flags:     []cli.Flag{moderatorFlag},
			Action: func(cctx *cli.Context) error {
				reason := strings.TrimSpace(strings.Join(cctx.Args().Slice(), " "))
				if reason == "" {
					return fmt.Errorf("missing argument: reason")
				}
				return withCaseStore(cctx, func(ctx context.Context, s *Stores, guildID string) error {
					userID, err := parseID("user", cctx.String("user"))
					if err != nil {
						return err
					}
					target := engine.Actor{ID: userID, Tag: userID}
					moderator := engine.Actor{Tag: "cli"}
					if raw := cctx.String("moderator"); raw != "" {
						if moderator.ID, err = parseID("moderator", raw); err != nil {
							return err
						}
						moderator.Tag = moderator.ID
					}

					x, client, err := newAdminExecutor(cctx, s)
					if err != nil {
						fmt.Fprintf(cctx.App.ErrWriter, "mod-log notification skipped: %v\n", err)
						x = &engine.Executor{Cases: s.Cases, Logger: slog.Default()}
					} else {
						if a, err := client.LookupActor(ctx, userID); err == nil {
							target = a
						}
						if moderator.ID != "" {
							if a, err := client.LookupActor(ctx, moderator.ID); err == nil {
								moderator = a
							}
						}
					}

					c, err := x.Warn(ctx, guildID, target, moderator, reason)
					if err != nil {
						return err
					}
					fmt.Fprintf(cctx.App.Writer, "Warned %s (case #%d).\n", target.Tag, c.ID)
					return nil
				})
			},
		},
		{
			Name: "list",
			Action: func(cctx *cli.Context) error {
				return withCaseStore(cctx, func(ctx context.Context, s *Stores, guildID string) error {
					userID, err := parseID("user", cctx.String("user"))
					if err != nil {
						return err
					}
					warnings, err := s.Cases.ListByTarget(ctx, guildID, userID, casestore.ActionWarn)
					if err != nil {
						return err
					}
					if len(warnings) == 0 {
						fmt.Fprintln(cctx.App.Writer, "This user has no warnings.")
						return nil
					}
					for i, w := range warnings {
						printCase(cctx.App.Writer, uint64(i+1), &w)
					}
					return nil
				})
			},
		},
		{
			Name:      "edit",
			ArgsUsage: "<number> <new reason>",
			Flags:     []cli.Flag{moderatorFlag},
			Action: func(cctx *cli.Context) error {
				n, err := positionalInt(cctx, 0, "number")
				if err != nil {
					return err
				}
				reason := strings.TrimSpace(strings.Join(cctx.Args().Tail(), " "))
				if reason == "" {
					return fmt.Errorf("missing argument: new reason")
				}
				return withCaseStore(cctx, func(ctx context.Context, s *Stores, guildID string) error {
					userID, err := parseID("user", cctx.String("user"))
					if err != nil {
						return err
					}
					w, err := casestore.WarningByNumber(ctx, s.Cases, guildID, userID, n)
					if err != nil {
						return err
					}
					editor := cctx.String("moderator")
					if editor == "" {
						editor = "cli"
					}
					if err := s.Cases.UpdateReason(ctx, w.ID, reason, editor, time.Now()); err != nil {
						return err
					}
					fmt.Fprintf(cctx.App.Writer, "Edited warning #%d.\n  old: %s\n  new: %s\n", n, w.Reason, reason)

					x, _, err := newAdminExecutor(cctx, s)
					if err != nil {
						fmt.Fprintf(cctx.App.ErrWriter, "mod-log notification skipped: %v\n", err)
						return nil
					}
					x.Notify(ctx, engine.ModLogEntry{
						GuildID:   guildID,
						Action:    engine.WarningEditLogAction,
						Color:     policy.ColorBlurple,
						Target:    engine.Actor{ID: w.TargetID, Tag: w.TargetTag},
						Moderator: engine.Actor{ID: cctx.String("moderator"), Tag: editor},
						Reason:    fmt.Sprintf("Case #%d edited.\n**Old:** %s\n**New:** %s", n, w.Reason, reason),
						CaseID:    w.ID,
						Timestamp: time.Now(),
					})
					return nil
				})
			},
		},
		{
			Name:      "delete",
			ArgsUsage: "<number>",
			Action: func(cctx *cli.Context) error {
				n, err := positionalInt(cctx, 0, "number")
				if err != nil {
					return err
				}
				return withCaseStore(cctx, func(ctx context.Context, s *Stores, guildID string) error {
					userID, err := parseID("user", cctx.String("user"))
					if err != nil {
						return err
					}
					w, err := casestore.WarningByNumber(ctx, s.Cases, guildID, userID, n)
					if err != nil {
						return err
					}
					if err := s.Cases.Delete(ctx, w.ID); err != nil {
						return err
					}
					fmt.Fprintf(cctx.App.Writer, "Deleted warning #%d (%s).\n", n, w.Reason)
					return nil
				})
			},
		},
	},
}

var muteCmd = &cli.Command{
	Name:      "mute",
	Usage:     "time out a member",
	ArgsUsage: "<user-id> <duration> [reason]",
	Flags:     []cli.Flag{guildFlag, moderatorFlag},
	Action: func(cctx *cli.Context) error {
		ctx := cctx.Context
		guildID, err := guildArg(cctx)
		if err != nil {
			return err
		}
		userID, err := parseID("user", cctx.Args().Get(0))
		if err != nil {
			return err
		}
		d, ok := duration.Parse(cctx.Args().Get(1))
		if !ok || d <= 0 {
			return fmt.Errorf("invalid duration %q (expected eg: 10m, 1h, 7d)", cctx.Args().Get(1))
		}
		if d > engine.MaxTimeout {
			return fmt.Errorf("the timeout duration cannot be longer than 28 days")
		}
		reason := strings.TrimSpace(strings.Join(cctx.Args().Slice()[min(2, cctx.NArg()):], " "))
		if reason == "" {
			reason = "No reason provided."
		}

		stores, err := openStores(cctx)
		if err != nil {
			return err
		}
		x, client, err := newAdminExecutor(cctx, stores)
		if err != nil {
			return err
		}
		target, err := client.LookupActor(ctx, userID)
		if err != nil {
			return fmt.Errorf("looking up user: %w", err)
		}
		moderator := engine.Actor{Tag: "cli"}
		if raw := cctx.String("moderator"); raw != "" {
			modID, err := parseID("moderator", raw)
			if err != nil {
				return err
			}
			if moderator, err = client.LookupActor(ctx, modID); err != nil {
				return fmt.Errorf("looking up moderator: %w", err)
			}
		}

		c, err := x.Mute(ctx, guildID, target, moderator, d, reason)
		if errors.Is(err, engine.ErrAlreadyRestricted) {
			return fmt.Errorf("%s is already timed out", target.Tag)
		} else if err != nil {
			return err
		}
		fmt.Fprintf(cctx.App.Writer, "Muted %s for %s (case #%d).\n", target.Tag, *c.Duration, c.ID)
		return nil
	},
}

func withGuildStore(cctx *cli.Context, fn func(ctx context.Context, s guildstore.Store, guildID string) error) error {
	guildID, err := guildArg(cctx)
	if err != nil {
		return err
	}
	stores, err := openStores(cctx)
	if err != nil {
		return err
	}
	return fn(cctx.Context, stores.Guilds, guildID)
}

func withCaseStore(cctx *cli.Context, fn func(ctx context.Context, s *Stores, guildID string) error) error {
	guildID, err := guildArg(cctx)
	if err != nil {
		return err
	}
	stores, err := openStores(cctx)
	if err != nil {
		return err
	}
	return fn(cctx.Context, stores, guildID)
}

// Executor for one-off admin actions: REST-only Discord client, mod-log via the guild's log channel.
func newAdminExecutor(cctx *cli.Context, stores *Stores) (*engine.Executor, *discord.Client, error) {
	logger := slog.Default()
	client, err := newDiscordClient(cctx.String("discord-token"), logger)
	if err != nil {
		return nil, nil, err
	}
	x := &engine.Executor{
		Platform: client,
		Cases:    stores.Cases,
		Notifiers: []engine.Notifier{
			&discord.ModLogNotifier{Sender: client, Guilds: stores.Guilds, Logger: logger},
		},
		Logger: logger,
	}
	return x, client, nil
}

func parseToggle(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "on", "true", "yes", "enable", "enabled":
		return true, nil
	case "off", "false", "no", "disable", "disabled":
		return false, nil
	default:
		return false, fmt.Errorf("expected on or off, got %q", s)
	}
}

func toggleString(b bool) string {
	if b {
		return "enabled"
	}
	return "disabled"
}

func describeRule(r guildstore.EscalationRule) string {
	if r.Duration != "" {
		return fmt.Sprintf("%s (%s)", r.Action, r.Duration)
	}
	return r.Action
}

func printSettings(w io.Writer, doc *guildstore.GuildDoc) {
	if doc == nil {
		fmt.Fprintln(w, "No settings stored; automod checks other than spam detection are disabled.")
		return
	}
	a := doc.Automod
	fmt.Fprintf(w, "banned words:   %d\n", len(a.BannedWords))
	fmt.Fprintf(w, "block invites:  %s\n", toggleString(a.BlockInvites))
	if a.MassMentionLimit > 0 {
		fmt.Fprintf(w, "mention limit:  %d\n", a.MassMentionLimit)
	} else {
		fmt.Fprintln(w, "mention limit:  disabled")
	}
	fmt.Fprintf(w, "log channel:    %s\n", orNone(doc.Settings.LogChannelID))
	fmt.Fprintf(w, "auto-role:      %s\n", orNone(doc.Settings.AutoRoleID))
	fmt.Fprintf(w, "escalations:    %d\n", len(a.EscalationRules))
}

func orNone(s string) string {
	if s == "" {
		return "(none)"
	}
	return s
}

func printCase(w io.Writer, num uint64, c *casestore.Case) {
	fmt.Fprintf(w, "#%d  %s  %s  %s (%s)  by %s\n", num, c.CreatedAt.UTC().Format(time.RFC3339), c.Action, c.TargetTag, c.TargetID, c.ModeratorTag)
	if c.Duration != nil {
		fmt.Fprintf(w, "    duration: %s\n", *c.Duration)
	}
	fmt.Fprintf(w, "    reason: %s\n", c.Reason)
	if c.EditedBy != nil && c.EditedAt != nil {
		fmt.Fprintf(w, "    edited by %s at %s\n", *c.EditedBy, c.EditedAt.UTC().Format(time.RFC3339))
	}
}
