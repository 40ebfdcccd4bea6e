// Stateless content checks for chat messages: invite links, mass mentions, and banned words.
//
// Checks are plain functions evaluated in a fixed priority order by a RuleSet; the first check that returns a non-empty Decision wins.
package policy

import (
	"fmt"
	"regexp"
	"strings"
)

type Kind int

const (
	KindNone Kind = iota
	KindRate
	KindInvite
	KindMention
	KindWord
)

func (k Kind) String() string {
	switch k {
	case KindNone:
		return "none"
	case KindRate:
		return "rate"
	case KindInvite:
		return "invite"
	case KindMention:
		return "mention"
	case KindWord:
		return "word"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// Colors passed through to mod-log renderers. Opaque to this package.
const (
	ColorDarkRed    = "DarkRed"
	ColorDarkOrange = "DarkOrange"
	ColorDarkPurple = "DarkPurple"
	ColorBlue       = "Blue"
	ColorBlurple    = "Blurple"
)

// Outcome of evaluating a single message. The zero value means no violation.
type Decision struct {
	Kind Kind
	// Banned word which matched, only set for KindWord
	Word string
	// Human-readable reason, shown to the author and recorded in the case log
	Reason string
	// Mod-log category label and color tag
	LogAction string
	LogColor  string
}

func (d Decision) IsNone() bool {
	return d.Kind == KindNone
}

// The parts of a chat message which content checks look at.
type Message struct {
	Content string
	// Distinct user ids mentioned in the message
	MentionedUserIDs []string
}

// Immutable, compiled snapshot of a guild's automod settings.
type Config struct {
	BannedWords      []string
	BlockInvites     bool
	MassMentionLimit int

	wordPatterns []*regexp.Regexp
}

// NewConfig folds and de-dupes the banned word list (keeping order) and compiles one pattern per word. Negative mention limits are treated as disabled.
func NewConfig(bannedWords []string, blockInvites bool, massMentionLimit int) *Config {
	words := make([]string, 0, len(bannedWords))
	patterns := make([]*regexp.Regexp, 0, len(bannedWords))
	seen := make(map[string]bool, len(bannedWords))
	for _, w := range bannedWords {
		w = strings.ToLower(strings.TrimSpace(w))
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		words = append(words, w)
		patterns = append(patterns, regexp.MustCompile(`(?i)\b`+regexp.QuoteMeta(w)+`\b`))
	}
	if massMentionLimit < 0 {
		massMentionLimit = 0
	}
	return &Config{
		BannedWords:      words,
		BlockInvites:     blockInvites,
		MassMentionLimit: massMentionLimit,
		wordPatterns:     patterns,
	}
}

// Config used for guilds with no stored settings: everything disabled.
func DefaultConfig() *Config {
	return NewConfig(nil, false, 0)
}

type CheckFunc = func(msg *Message, cfg *Config) Decision

// Ordered list of content checks.
type RuleSet struct {
	Checks []CheckFunc
}

// Invite links first, then mass mentions, then banned words.
func DefaultRules() RuleSet {
	return RuleSet{
		Checks: []CheckFunc{
			InviteCheck,
			MentionCheck,
			BannedWordCheck,
		},
	}
}

// Evaluate runs checks in order and returns the first violation, or the zero Decision.
func (r *RuleSet) Evaluate(msg *Message, cfg *Config) Decision {
	for _, f := range r.Checks {
		d := f(msg, cfg)
		if !d.IsNone() {
			return d
		}
	}
	return Decision{}
}
