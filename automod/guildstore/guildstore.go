package guildstore

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"

	"github.com/aegis-mod/aegis/automod/duration"
)

// Automod settings as persisted. Escalation rules are keyed by warning count (as a decimal string, for document stores).
type AutomodSettings struct {
	BannedWords      []string                  `json:"bannedWords"`
	BlockInvites     bool                      `json:"blockInvites"`
	MassMentionLimit int                       `json:"massMentionLimit"`
	EscalationRules  map[string]EscalationRule `json:"escalationRules,omitempty"`
}

type GuildSettings struct {
	LogChannelID string `json:"logChannelId,omitempty"`
	AutoRoleID   string `json:"autoRoleId,omitempty"`
}

// Rule describing what should happen at a given number of warnings. Rules are stored and listed, but not evaluated by automod.
type EscalationRule struct {
	Action   string `json:"action"`
	Duration string `json:"duration,omitempty"`
}

type GuildDoc struct {
	GuildID  string          `json:"guildId"`
	Automod  AutomodSettings `json:"automod"`
	Settings GuildSettings   `json:"settings"`
}

const (
	EscalationMute = "mute"
	EscalationKick = "kick"
	EscalationBan  = "ban"
)

var ErrInvalidRule = errors.New("invalid escalation rule")

type Store interface {
	// Returns nil (and no error) if there is no document for the guild
	GetGuild(ctx context.Context, guildID string) (*GuildDoc, error)
	// Read-modify-write of a single guild document. The document passed to fn is never nil; a new one is created if needed.
	Update(ctx context.Context, guildID string, fn func(doc *GuildDoc) error) error
}

func newGuildDoc(guildID string) *GuildDoc {
	return &GuildDoc{
		GuildID: guildID,
		Automod: AutomodSettings{
			BannedWords: []string{},
		},
	}
}

// Adds a word to the banned list (lower-cased). No-op if it is already present.
func AddBannedWord(ctx context.Context, s Store, guildID, word string) error {
	word = strings.ToLower(strings.TrimSpace(word))
	if word == "" {
		return fmt.Errorf("empty banned word")
	}
	return s.Update(ctx, guildID, func(doc *GuildDoc) error {
		for _, w := range doc.Automod.BannedWords {
			if w == word {
				return nil
			}
		}
		doc.Automod.BannedWords = append(doc.Automod.BannedWords, word)
		return nil
	})
}

// Removes a word from the banned list. Does not error if the word is not in the list.
func RemoveBannedWord(ctx context.Context, s Store, guildID, word string) error {
	word = strings.ToLower(strings.TrimSpace(word))
	return s.Update(ctx, guildID, func(doc *GuildDoc) error {
		out := make([]string, 0, len(doc.Automod.BannedWords))
		for _, w := range doc.Automod.BannedWords {
			if w != word {
				out = append(out, w)
			}
		}
		doc.Automod.BannedWords = out
		return nil
	})
}

func SetBlockInvites(ctx context.Context, s Store, guildID string, enabled bool) error {
	return s.Update(ctx, guildID, func(doc *GuildDoc) error {
		doc.Automod.BlockInvites = enabled
		return nil
	})
}

// Zero disables mass-mention protection.
func SetMassMentionLimit(ctx context.Context, s Store, guildID string, limit int) error {
	if limit < 0 {
		return fmt.Errorf("mention limit must not be negative: %d", limit)
	}
	return s.Update(ctx, guildID, func(doc *GuildDoc) error {
		doc.Automod.MassMentionLimit = limit
		return nil
	})
}

func SetLogChannel(ctx context.Context, s Store, guildID, channelID string) error {
	return s.Update(ctx, guildID, func(doc *GuildDoc) error {
		doc.Settings.LogChannelID = channelID
		return nil
	})
}

// Empty roleID disables autorole.
func SetAutoRole(ctx context.Context, s Store, guildID, roleID string) error {
	return s.Update(ctx, guildID, func(doc *GuildDoc) error {
		doc.Settings.AutoRoleID = roleID
		return nil
	})
}

// Creates or replaces the rule for the given warning count. Duration is only kept for mute rules, and must parse.
func PutEscalationRule(ctx context.Context, s Store, guildID string, warnings int, rule EscalationRule) error {
	if warnings < 1 {
		return fmt.Errorf("%w: warning count must be at least 1", ErrInvalidRule)
	}
	switch rule.Action {
	case EscalationMute:
		if rule.Duration != "" {
			if _, ok := duration.Parse(rule.Duration); !ok {
				return fmt.Errorf("%w: bad mute duration %q", ErrInvalidRule, rule.Duration)
			}
		}
	case EscalationKick, EscalationBan:
		rule.Duration = ""
	default:
		return fmt.Errorf("%w: unknown action %q", ErrInvalidRule, rule.Action)
	}
	return s.Update(ctx, guildID, func(doc *GuildDoc) error {
		if doc.Automod.EscalationRules == nil {
			doc.Automod.EscalationRules = make(map[string]EscalationRule)
		}
		doc.Automod.EscalationRules[strconv.Itoa(warnings)] = rule
		return nil
	})
}

func DeleteEscalationRule(ctx context.Context, s Store, guildID string, warnings int) error {
	return s.Update(ctx, guildID, func(doc *GuildDoc) error {
		delete(doc.Automod.EscalationRules, strconv.Itoa(warnings))
		return nil
	})
}

type NumberedRule struct {
	Warnings int
	EscalationRule
}

// Lists escalation rules ordered by warning count. Keys which are not integers are skipped.
func ListEscalationRules(ctx context.Context, s Store, guildID string) ([]NumberedRule, error) {
	doc, err := s.GetGuild(ctx, guildID)
	if err != nil {
		return nil, err
	}
	out := []NumberedRule{}
	if doc == nil {
		return out, nil
	}
	for k, r := range doc.Automod.EscalationRules {
		n, err := strconv.Atoi(k)
		if err != nil {
			continue
		}
		out = append(out, NumberedRule{Warnings: n, EscalationRule: r})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Warnings < out[j].Warnings })
	return out, nil
}
