package policy

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestInviteCheck(t *testing.T) {
	assert := assert.New(t)

	on := NewConfig(nil, true, 0)
	off := NewConfig(nil, false, 0)

	fixtures := []struct {
		text  string
		match bool
	}{
		{text: "join discord.gg/abc12 now", match: true},
		{text: "https://discord.com/invite/AbCdEf", match: true},
		{text: "DISCORD.GG/XYZ99", match: true},
		{text: "discord.com/x", match: false},
		{text: "discord dot gg slash abc", match: false},
		{text: "just chatting", match: false},
	}
	for _, f := range fixtures {
		msg := Message{Content: f.text}
		d := InviteCheck(&msg, on)
		if f.match {
			assert.Equal(KindInvite, d.Kind, f.text)
			assert.Equal("Discord invites are not allowed here.", d.Reason)
			assert.Equal(ColorDarkOrange, d.LogColor)
		} else {
			assert.True(d.IsNone(), f.text)
		}
		assert.True(InviteCheck(&msg, off).IsNone())
	}
}

func TestMentionCheck(t *testing.T) {
	assert := assert.New(t)
	cfg := NewConfig(nil, false, 3)

	three := Message{MentionedUserIDs: []string{"1", "2", "3"}}
	assert.True(MentionCheck(&three, cfg).IsNone())

	four := Message{MentionedUserIDs: []string{"1", "2", "3", "4"}}
	d := MentionCheck(&four, cfg)
	assert.Equal(KindMention, d.Kind)
	assert.Equal("Mass mentions are not allowed (Limit: 3).", d.Reason)

	// repeated mentions of the same user only count once
	dupes := Message{MentionedUserIDs: []string{"1", "1", "2", "2", "3"}}
	assert.True(MentionCheck(&dupes, cfg).IsNone())

	disabled := NewConfig(nil, false, 0)
	assert.True(MentionCheck(&four, disabled).IsNone())
	assert.True(MentionCheck(&four, NewConfig(nil, false, -2)).IsNone())
}

func TestBannedWordCheck(t *testing.T) {
	assert := assert.New(t)
	cfg := NewConfig([]string{"Heck", "darn", "a.b", "heck"}, false, 0)
	assert.Equal([]string{"heck", "darn", "a.b"}, cfg.BannedWords)

	msg := Message{Content: "well HECK that"}
	d := BannedWordCheck(&msg, cfg)
	assert.Equal(KindWord, d.Kind)
	assert.Equal("heck", d.Word)
	assert.Equal("Automatic detection of blacklisted word: \"heck\"", d.Reason)
	assert.Equal(ColorDarkRed, d.LogColor)

	// word boundaries
	msg = Message{Content: "checking the heckler"}
	assert.True(BannedWordCheck(&msg, cfg).IsNone())

	// metacharacters are literal
	msg = Message{Content: "axb"}
	assert.True(BannedWordCheck(&msg, cfg).IsNone())
	msg = Message{Content: "see a.b here"}
	assert.Equal("a.b", BannedWordCheck(&msg, cfg).Word)

	// stored order wins when several words match
	msg = Message{Content: "darn heck"}
	assert.Equal("heck", BannedWordCheck(&msg, cfg).Word)

	assert.True(BannedWordCheck(&msg, DefaultConfig()).IsNone())
}

func TestRuleSetPriority(t *testing.T) {
	assert := assert.New(t)
	rules := DefaultRules()
	cfg := NewConfig([]string{"heck"}, true, 3)

	// invite beats banned word
	msg := Message{Content: "heck discord.gg/abc12"}
	assert.Equal(KindInvite, rules.Evaluate(&msg, cfg).Kind)

	// mention beats banned word
	msg = Message{Content: "heck", MentionedUserIDs: []string{"1", "2", "3", "4"}}
	assert.Equal(KindMention, rules.Evaluate(&msg, cfg).Kind)

	// invite beats mention
	msg = Message{Content: "discord.gg/abc12", MentionedUserIDs: []string{"1", "2", "3", "4"}}
	assert.Equal(KindInvite, rules.Evaluate(&msg, cfg).Kind)

	msg = Message{Content: "heck", MentionedUserIDs: []string{"1", "2", "3"}}
	assert.Equal(KindWord, rules.Evaluate(&msg, cfg).Kind)

	msg = Message{Content: "hello there"}
	assert.True(rules.Evaluate(&msg, cfg).IsNone())
	assert.Equal("none", rules.Evaluate(&msg, cfg).Kind.String())
}
