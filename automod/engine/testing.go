package engine

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/aegis-mod/aegis/automod/casestore"
	"github.com/aegis-mod/aegis/automod/clock"
	"github.com/aegis-mod/aegis/automod/configcache"
	"github.com/aegis-mod/aegis/automod/guildstore"
	"github.com/aegis-mod/aegis/automod/policy"
	"github.com/aegis-mod/aegis/automod/spamtracker"
)

// In-memory Platform which records every call. Errors can be injected per operation.
type FakePlatform struct {
	mu sync.Mutex

	Bot         Actor
	DeleteErr   error
	TimeoutErr  error
	NoticeErr   error
	Deleted     []string
	TimedOut    map[string]time.Time
	Notices     []string
	TimeoutLogs []string
}

var _ Platform = (*FakePlatform)(nil)

func NewFakePlatform() *FakePlatform {
	return &FakePlatform{
		Bot:      Actor{ID: "900", Tag: "aegis#0001"},
		TimedOut: make(map[string]time.Time),
	}
}

func (p *FakePlatform) Self() Actor {
	return p.Bot
}

func (p *FakePlatform) DeleteMessage(ctx context.Context, channelID, messageID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.DeleteErr != nil {
		return p.DeleteErr
	}
	p.Deleted = append(p.Deleted, channelID+"/"+messageID)
	return nil
}

func (p *FakePlatform) TimeoutUser(ctx context.Context, guildID, userID string, until time.Time, reason string) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.TimeoutErr != nil {
		return p.TimeoutErr
	}
	key := guildID + "/" + userID
	if _, ok := p.TimedOut[key]; ok {
		return ErrAlreadyRestricted
	}
	p.TimedOut[key] = until
	p.TimeoutLogs = append(p.TimeoutLogs, reason)
	return nil
}

func (p *FakePlatform) PostTransientNotice(ctx context.Context, channelID, content string, lifetime time.Duration) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.NoticeErr != nil {
		return p.NoticeErr
	}
	p.Notices = append(p.Notices, content)
	return nil
}

type RecordingNotifier struct {
	mu      sync.Mutex
	Err     error
	Entries []ModLogEntry
}

func (n *RecordingNotifier) SendModLog(ctx context.Context, entry ModLogEntry) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.Entries = append(n.Entries, entry)
	return n.Err
}

type TestFixture struct {
	Engine   *Engine
	Platform *FakePlatform
	Guilds   *guildstore.MemStore
	Cases    *casestore.MemStore
	Notifier *RecordingNotifier
	Clock    *clock.Mock
}

// Engine wired to in-memory stores, a fake platform and a mock clock.
func EngineTestFixture() TestFixture {
	logger := slog.Default()
	clk := clock.NewMock(time.Date(2024, 1, 1, 12, 0, 0, 0, time.UTC))
	guilds := guildstore.NewMemStore()
	cases := casestore.NewMemStore()
	platform := NewFakePlatform()
	notifier := &RecordingNotifier{}
	cache, err := configcache.NewCache(guilds, configcache.DefaultTTL, 100, clk, logger)
	if err != nil {
		panic(err)
	}
	eng := &Engine{
		Logger:  logger,
		Configs: cache,
		Tracker: spamtracker.NewTracker(spamtracker.DefaultThreshold, spamtracker.DefaultWindow, logger),
		Rules:   policy.DefaultRules(),
		Executor: &Executor{
			Platform:  platform,
			Cases:     cases,
			Notifiers: []Notifier{notifier},
			Logger:    logger,
			Clock:     clk,
		},
		Clock: clk,
	}
	return TestFixture{
		Engine:   eng,
		Platform: platform,
		Guilds:   guilds,
		Cases:    cases,
		Notifier: notifier,
		Clock:    clk,
	}
}
