package configcache

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/aegis-mod/aegis/automod/clock"
	"github.com/aegis-mod/aegis/automod/guildstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type countingSource struct {
	store *guildstore.MemStore
	calls atomic.Int64
	err   error
	gate  chan struct{}
}

func (s *countingSource) GetGuild(ctx context.Context, guildID string) (*guildstore.GuildDoc, error) {
	s.calls.Add(1)
	if s.gate != nil {
		select {
		case <-s.gate:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
	}
	if s.err != nil {
		return nil, s.err
	}
	return s.store.GetGuild(ctx, guildID)
}

var t0 = time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

func TestStaleWithinTTL(t *testing.T) {
	assert := assert.New(t)
	ctx := context.Background()
	store := guildstore.NewMemStore()
	require.NoError(t, guildstore.AddBannedWord(ctx, store, "g1", "heck"))
	src := &countingSource{store: store}
	clk := clock.NewMock(t0)
	c, err := NewCache(src, DefaultTTL, 0, clk, nil)
	require.NoError(t, err)

	cfg, err := c.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal([]string{"heck"}, cfg.BannedWords)

	// edit lands in the store but the cached snapshot is still served
	require.NoError(t, guildstore.AddBannedWord(ctx, store, "g1", "darn"))
	clk.Advance(4 * time.Minute)
	cfg, err = c.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal([]string{"heck"}, cfg.BannedWords)
	assert.Equal(int64(1), src.calls.Load())

	clk.Advance(2 * time.Minute)
	cfg, err = c.Get(ctx, "g1")
	require.NoError(t, err)
	assert.Equal([]string{"heck", "darn"}, cfg.BannedWords)
	assert.Equal(int64(2), src.calls.Load())
}

func TestDefaultForUnknownGuild(t *testing.T) {
	assert := assert.New(t)
	src := &countingSource{store: guildstore.NewMemStore()}
	c, err := NewCache(src, 0, 0, clock.NewMock(t0), nil)
	require.NoError(t, err)

	cfg, err := c.Get(context.Background(), "nope")
	require.NoError(t, err)
	assert.Empty(cfg.BannedWords)
	assert.False(cfg.BlockInvites)
	assert.Equal(0, cfg.MassMentionLimit)
	assert.Equal(1, c.Len())
}

func TestErrorsNotCached(t *testing.T) {
	assert := assert.New(t)
	boom := errors.New("store down")
	src := &countingSource{store: guildstore.NewMemStore(), err: boom}
	c, err := NewCache(src, 0, 0, clock.NewMock(t0), nil)
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "g1")
	assert.ErrorIs(err, boom)
	assert.Equal(0, c.Len())

	src.err = nil
	cfg, err := c.Get(context.Background(), "g1")
	assert.NoError(err)
	assert.NotNil(cfg)
	assert.Equal(int64(2), src.calls.Load())
}

func TestCoalescesMisses(t *testing.T) {
	assert := assert.New(t)
	src := &countingSource{store: guildstore.NewMemStore(), gate: make(chan struct{})}
	c, err := NewCache(src, 0, 0, clock.NewMock(t0), nil)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_, err := c.Get(context.Background(), "g1")
			assert.NoError(err)
		}()
	}
	// wait until the first load is in flight, then give the rest time to pile up behind it
	for src.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}
	time.Sleep(20 * time.Millisecond)
	close(src.gate)
	wg.Wait()
	assert.Equal(int64(1), src.calls.Load())
}

func TestCancelledCallerDoesNotFailOthers(t *testing.T) {
	assert := assert.New(t)
	src := &countingSource{store: guildstore.NewMemStore(), gate: make(chan struct{})}
	c, err := NewCache(src, 0, 0, clock.NewMock(t0), nil)
	require.NoError(t, err)

	ctx1, cancel1 := context.WithCancel(context.Background())
	firstErr := make(chan error, 1)
	go func() {
		_, err := c.Get(ctx1, "g1")
		firstErr <- err
	}()
	for src.calls.Load() == 0 {
		time.Sleep(time.Millisecond)
	}

	type result struct {
		cfgOK bool
		err   error
	}
	second := make(chan result, 1)
	go func() {
		cfg, err := c.Get(context.Background(), "g1")
		second <- result{cfgOK: cfg != nil, err: err}
	}()
	time.Sleep(20 * time.Millisecond)

	// the first caller gives up; the shared load keeps going
	cancel1()
	assert.ErrorIs(<-firstErr, context.Canceled)

	close(src.gate)
	res := <-second
	assert.NoError(res.err)
	assert.True(res.cfgOK)
	assert.Equal(int64(1), src.calls.Load())
	assert.Equal(1, c.Len())
}

func TestPurge(t *testing.T) {
	assert := assert.New(t)
	src := &countingSource{store: guildstore.NewMemStore()}
	c, err := NewCache(src, 0, 0, clock.NewMock(t0), nil)
	require.NoError(t, err)

	_, err = c.Get(context.Background(), "g1")
	require.NoError(t, err)
	c.Purge("g1")
	_, err = c.Get(context.Background(), "g1")
	require.NoError(t, err)
	assert.Equal(int64(2), src.calls.Load())
}
