// Read-through cache of compiled per-guild automod configuration.
//
// Entries expire a fixed TTL after they were loaded; there is no invalidation when the underlying settings change, so edits become visible within one TTL.
package configcache

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/aegis-mod/aegis/automod/clock"
	"github.com/aegis-mod/aegis/automod/guildstore"
	"github.com/aegis-mod/aegis/automod/policy"

	lru "github.com/hashicorp/golang-lru/v2"
	"golang.org/x/sync/singleflight"
)

const (
	DefaultTTL      = 5 * time.Minute
	DefaultCapacity = 50_000

	// upper bound on a single store read, shared by every caller waiting on it
	loadTimeout = 10 * time.Second
)

// Subset of guildstore.Store the cache reads from.
type Source interface {
	GetGuild(ctx context.Context, guildID string) (*guildstore.GuildDoc, error)
}

type entry struct {
	cfg       *policy.Config
	expiresAt time.Time
}

type Cache struct {
	Source Source
	TTL    time.Duration
	Clock  clock.Clock
	Logger *slog.Logger

	entries *lru.Cache[string, entry]
	group   singleflight.Group
}

func NewCache(src Source, ttl time.Duration, capacity int, clk clock.Clock, logger *slog.Logger) (*Cache, error) {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if capacity <= 0 {
		capacity = DefaultCapacity
	}
	if clk == nil {
		clk = clock.System{}
	}
	if logger == nil {
		logger = slog.Default()
	}
	entries, err := lru.New[string, entry](capacity)
	if err != nil {
		return nil, err
	}
	return &Cache{
		Source:  src,
		TTL:     ttl,
		Clock:   clk,
		Logger:  logger.With("component", "configcache"),
		entries: entries,
	}, nil
}

// Returns the compiled config for a guild. The returned snapshot is shared and must not be modified.
func (c *Cache) Get(ctx context.Context, guildID string) (*policy.Config, error) {
	if e, ok := c.entries.Get(guildID); ok && c.Clock.Now().Before(e.expiresAt) {
		cacheHits.Inc()
		return e.cfg, nil
	}
	cacheMisses.Inc()

	// the load is shared, so it must not inherit any single caller's cancellation
	ch := c.group.DoChan(guildID, func() (any, error) {
		lctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), loadTimeout)
		defer cancel()
		return c.load(lctx, guildID)
	})
	select {
	case res := <-ch:
		if res.Err != nil {
			cacheErrors.Inc()
			return nil, res.Err
		}
		return res.Val.(*policy.Config), nil
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

func (c *Cache) load(ctx context.Context, guildID string) (*policy.Config, error) {
	doc, err := c.Source.GetGuild(ctx, guildID)
	if err != nil {
		return nil, fmt.Errorf("loading guild config: %w", err)
	}
	var cfg *policy.Config
	if doc == nil {
		cfg = policy.DefaultConfig()
	} else {
		a := doc.Automod
		cfg = policy.NewConfig(a.BannedWords, a.BlockInvites, a.MassMentionLimit)
	}
	c.entries.Add(guildID, entry{
		cfg:       cfg,
		expiresAt: c.Clock.Now().Add(c.TTL),
	})
	c.Logger.Debug("loaded guild config", "guild", guildID, "bannedWords", len(cfg.BannedWords))
	return cfg, nil
}

// Drops a guild's cached config. Nothing in the message path calls this; it exists for admin tooling.
func (c *Cache) Purge(guildID string) {
	c.entries.Remove(guildID)
}

func (c *Cache) Len() int {
	return c.entries.Len()
}
