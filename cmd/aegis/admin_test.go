package main

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/aegis-mod/aegis/automod/casestore"
	"github.com/aegis-mod/aegis/automod/guildstore"
	"github.com/aegis-mod/aegis/util/cliutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseID(t *testing.T) {
	assert := assert.New(t)

	id, err := parseID("user", " 175928847299117063 ")
	assert.NoError(err)
	assert.Equal("175928847299117063", id)

	for _, bad := range []string{"", "abc", "-5", "0", "12.5"} {
		_, err := parseID("user", bad)
		assert.Error(err, bad)
	}
}

func TestParseToggle(t *testing.T) {
	assert := assert.New(t)

	on, err := parseToggle("ON")
	assert.NoError(err)
	assert.True(on)
	off, err := parseToggle("off")
	assert.NoError(err)
	assert.False(off)
	_, err = parseToggle("maybe")
	assert.Error(err)
}

const testGuild = "175928847299117063"

func TestSettingsCommands(t *testing.T) {
	assert := assert.New(t)
	dbURL := "sqlite://" + filepath.Join(t.TempDir(), "aegis.db")
	cmd := func(args ...string) error {
		base := []string{"aegis", "--database-url", dbURL}
		return run(append(base, args...))
	}

	require.NoError(t, cmd("settings", "--guild", testGuild, "blacklist", "add", "Heck"))
	require.NoError(t, cmd("settings", "--guild", testGuild, "anti-invite", "on"))
	require.NoError(t, cmd("settings", "--guild", testGuild, "mass-mention", "4"))
	require.NoError(t, cmd("settings", "--guild", testGuild, "log-channel", "81384788765712384"))
	require.NoError(t, cmd("settings", "--guild", testGuild, "escalation", "add", "3", "mute", "1h"))
	assert.Error(cmd("settings", "--guild", testGuild, "escalation", "add", "3", "mute", "forever"))
	assert.Error(cmd("settings", "--guild", testGuild, "mass-mention", "lots"))
	assert.Error(cmd("settings", "--guild", "not-a-guild", "anti-invite", "on"))

	db, err := cliutil.SetupDatabase(dbURL, 1)
	require.NoError(t, err)
	gs, err := guildstore.NewGormStore(db)
	require.NoError(t, err)
	doc, err := gs.GetGuild(context.Background(), testGuild)
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal([]string{"heck"}, doc.Automod.BannedWords)
	assert.True(doc.Automod.BlockInvites)
	assert.Equal(4, doc.Automod.MassMentionLimit)
	assert.Equal("81384788765712384", doc.Settings.LogChannelID)
	assert.Equal(guildstore.EscalationRule{Action: "mute", Duration: "1h"}, doc.Automod.EscalationRules["3"])
}

func TestWarningsCommands(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	dbURL := "sqlite://" + filepath.Join(t.TempDir(), "aegis.db")
	user := "81384788765712384"

	db, err := cliutil.SetupDatabase(dbURL, 1)
	require.NoError(t, err)
	cs, err := casestore.NewGormStore(db)
	require.NoError(t, err)
	for _, reason := range []string{"first", "second"} {
		require.NoError(t, cs.Append(ctx, &casestore.Case{
			GuildID:      testGuild,
			Action:       casestore.ActionWarn,
			TargetID:     user,
			TargetTag:    "someone",
			ModeratorID:  "1",
			ModeratorTag: "mod",
			Reason:       reason,
		}))
	}

	cmd := func(args ...string) error {
		base := []string{"aegis", "--database-url", dbURL}
		return run(append(base, args...))
	}
	require.NoError(t, cmd("warnings", "--guild", testGuild, "--user", user, "list"))
	require.NoError(t, cmd("cases", "--guild", testGuild, "list"))
	assert.Error(cmd("cases", "--guild", testGuild, "list", "--page", "2"))
	// warning numbers are newest first, so #2 is the oldest
	require.NoError(t, cmd("warnings", "--guild", testGuild, "--user", user, "delete", "2"))
	assert.Error(cmd("warnings", "--guild", testGuild, "--user", user, "delete", "5"))

	warnings, err := cs.ListByTarget(ctx, testGuild, user, casestore.ActionWarn)
	require.NoError(t, err)
	require.Len(t, warnings, 1)
	assert.Equal("second", warnings[0].Reason)

	// without a bot token the warning is still recorded
	require.NoError(t, cmd("warnings", "--guild", testGuild, "--user", user, "add", "--moderator", "1", "spamming", "links"))
	assert.Error(cmd("warnings", "--guild", testGuild, "--user", user, "add"))

	warnings, err = cs.ListByTarget(ctx, testGuild, user, casestore.ActionWarn)
	require.NoError(t, err)
	require.Len(t, warnings, 2)
	assert.Equal("spamming links", warnings[0].Reason)
	assert.Equal("1", warnings[0].ModeratorID)
	assert.Equal(user, warnings[0].TargetTag)

	// the new warning is #1 and can be edited like any other
	require.NoError(t, cmd("warnings", "--guild", testGuild, "--user", user, "edit", "1", "posting", "scam", "links"))
	warnings, err = cs.ListByTarget(ctx, testGuild, user, casestore.ActionWarn)
	require.NoError(t, err)
	assert.Equal("posting scam links", warnings[0].Reason)
}
