package policy

import (
	"fmt"
	"regexp"
)

var inviteRegex = regexp.MustCompile(`(?i)discord\.(gg|com)/(invite/)?[a-z0-9]{2,25}`)

var _ CheckFunc = InviteCheck

// InviteCheck flags server invite links, when the guild blocks them.
func InviteCheck(msg *Message, cfg *Config) Decision {
	if !cfg.BlockInvites || !inviteRegex.MatchString(msg.Content) {
		return Decision{}
	}
	return Decision{
		Kind:      KindInvite,
		Reason:    "Discord invites are not allowed here.",
		LogAction: "Auto-Warn (Invite Link)",
		LogColor:  ColorDarkOrange,
	}
}

var _ CheckFunc = MentionCheck

// MentionCheck flags messages mentioning strictly more distinct users than the guild limit.
func MentionCheck(msg *Message, cfg *Config) Decision {
	if cfg.MassMentionLimit <= 0 {
		return Decision{}
	}
	if countDistinct(msg.MentionedUserIDs) <= cfg.MassMentionLimit {
		return Decision{}
	}
	return Decision{
		Kind:      KindMention,
		Reason:    fmt.Sprintf("Mass mentions are not allowed (Limit: %d).", cfg.MassMentionLimit),
		LogAction: "Auto-Warn (Mass Mention)",
		LogColor:  ColorDarkOrange,
	}
}

var _ CheckFunc = BannedWordCheck

// BannedWordCheck returns the first configured word (in stored order) found as a whole word, ignoring case.
func BannedWordCheck(msg *Message, cfg *Config) Decision {
	for i, re := range cfg.wordPatterns {
		if !re.MatchString(msg.Content) {
			continue
		}
		word := cfg.BannedWords[i]
		return Decision{
			Kind:      KindWord,
			Word:      word,
			Reason:    fmt.Sprintf("Automatic detection of blacklisted word: \"%s\"", word),
			LogAction: "Auto-Warn (Banned Word)",
			LogColor:  ColorDarkRed,
		}
	}
	return Decision{}
}

func countDistinct(ids []string) int {
	seen := make(map[string]bool, len(ids))
	for _, id := range ids {
		seen[id] = true
	}
	return len(seen)
}
