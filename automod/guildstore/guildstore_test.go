package guildstore

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func testStoreBasics(t *testing.T, s Store) {
	assert := assert.New(t)
	ctx := context.Background()

	doc, err := s.GetGuild(ctx, "g1")
	assert.NoError(err)
	assert.Nil(doc)

	assert.NoError(AddBannedWord(ctx, s, "g1", "Heck"))
	assert.NoError(AddBannedWord(ctx, s, "g1", "darn"))
	assert.NoError(AddBannedWord(ctx, s, "g1", "HECK"))
	assert.Error(AddBannedWord(ctx, s, "g1", "  "))
	doc, err = s.GetGuild(ctx, "g1")
	require.NoError(t, err)
	require.NotNil(t, doc)
	assert.Equal("g1", doc.GuildID)
	assert.Equal([]string{"heck", "darn"}, doc.Automod.BannedWords)

	assert.NoError(RemoveBannedWord(ctx, s, "g1", "HECK"))
	assert.NoError(RemoveBannedWord(ctx, s, "g1", "missing"))
	doc, err = s.GetGuild(ctx, "g1")
	require.NoError(t, err)
	assert.Equal([]string{"darn"}, doc.Automod.BannedWords)

	assert.NoError(SetBlockInvites(ctx, s, "g1", true))
	assert.NoError(SetMassMentionLimit(ctx, s, "g1", 5))
	assert.Error(SetMassMentionLimit(ctx, s, "g1", -1))
	assert.NoError(SetLogChannel(ctx, s, "g1", "c123"))
	assert.NoError(SetAutoRole(ctx, s, "g1", "r456"))
	doc, err = s.GetGuild(ctx, "g1")
	require.NoError(t, err)
	assert.True(doc.Automod.BlockInvites)
	assert.Equal(5, doc.Automod.MassMentionLimit)
	assert.Equal("c123", doc.Settings.LogChannelID)
	assert.Equal("r456", doc.Settings.AutoRoleID)

	// other guilds are untouched
	doc, err = s.GetGuild(ctx, "g2")
	assert.NoError(err)
	assert.Nil(doc)
}

func testEscalationRules(t *testing.T, s Store) {
	assert := assert.New(t)
	ctx := context.Background()

	rules, err := ListEscalationRules(ctx, s, "g1")
	assert.NoError(err)
	assert.Empty(rules)

	assert.NoError(PutEscalationRule(ctx, s, "g1", 10, EscalationRule{Action: EscalationBan, Duration: "1h"}))
	assert.NoError(PutEscalationRule(ctx, s, "g1", 3, EscalationRule{Action: EscalationMute, Duration: "1h"}))
	assert.NoError(PutEscalationRule(ctx, s, "g1", 5, EscalationRule{Action: EscalationKick}))
	assert.ErrorIs(PutEscalationRule(ctx, s, "g1", 0, EscalationRule{Action: EscalationKick}), ErrInvalidRule)
	assert.ErrorIs(PutEscalationRule(ctx, s, "g1", 2, EscalationRule{Action: "explode"}), ErrInvalidRule)
	assert.ErrorIs(PutEscalationRule(ctx, s, "g1", 2, EscalationRule{Action: EscalationMute, Duration: "10x"}), ErrInvalidRule)

	rules, err = ListEscalationRules(ctx, s, "g1")
	assert.NoError(err)
	assert.Equal([]NumberedRule{
		{Warnings: 3, EscalationRule: EscalationRule{Action: EscalationMute, Duration: "1h"}},
		{Warnings: 5, EscalationRule: EscalationRule{Action: EscalationKick}},
		{Warnings: 10, EscalationRule: EscalationRule{Action: EscalationBan}},
	}, rules)

	assert.NoError(DeleteEscalationRule(ctx, s, "g1", 5))
	assert.NoError(DeleteEscalationRule(ctx, s, "g1", 99))
	rules, err = ListEscalationRules(ctx, s, "g1")
	assert.NoError(err)
	assert.Equal(2, len(rules))
}

func TestMemStore(t *testing.T) {
	testStoreBasics(t, NewMemStore())
	testEscalationRules(t, NewMemStore())
}

func TestMemStoreUpdateError(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	s := NewMemStore()

	assert.NoError(SetBlockInvites(ctx, s, "g1", true))
	assert.Error(s.Update(ctx, "g1", func(doc *GuildDoc) error {
		doc.Automod.BlockInvites = false
		return ErrInvalidRule
	}))
	doc, err := s.GetGuild(ctx, "g1")
	assert.NoError(err)
	assert.True(doc.Automod.BlockInvites)
}

func TestGormStore(t *testing.T) {
	for _, f := range []func(*testing.T, Store){testStoreBasics, testEscalationRules} {
		s, err := NewGormStore(testDB(t))
		require.NoError(t, err)
		f(t, s)
	}
}

func testDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{SkipDefaultTransaction: true})
	require.NoError(t, err)
	// every connection to ":memory:" is a separate database
	sqldb, err := db.DB()
	require.NoError(t, err)
	sqldb.SetMaxOpenConns(1)
	return db
}

func TestRedisStore(t *testing.T) {
	t.Skip("live test, need redis running locally")

	s, err := NewRedisStore("redis://localhost:6379/0")
	require.NoError(t, err)
	ctx := context.Background()
	s.Client.Del(ctx, redisGuildPrefix+"g1", redisGuildPrefix+"g2")
	testStoreBasics(t, s)
	s.Client.Del(ctx, redisGuildPrefix+"g1")
	testEscalationRules(t, s)
}
